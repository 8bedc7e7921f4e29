// Package auth resolves the signed-in user from the session token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/liftsync/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken issues an HS256 session token whose subject is userID.
func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// UserIDFromToken returns the "sub" claim of tokenString. With an empty
// secretKey the signature is not checked; the token is trusted as handed
// over by the identity provider and only its claims are read.
func UserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}

	var (
		token *jwt.Token
		err   error
	)
	if len(secretKey) == 0 {
		token, _, err = jwt.NewParser().ParseUnverified(tokenString, claims)
		if err == nil {
			err = jwt.NewValidator(jwt.WithExpirationRequired()).Validate(claims)
		}
	} else {
		token, err = jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			return secretKey, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if token == nil {
		return "", common.ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", common.ErrNoUserID
	}
	return claims.Subject, nil
}

// ResolveUserID picks the configured user id, or else the subject of the
// access token.
func ResolveUserID(userID, accessToken string, secretKey []byte) (string, error) {
	if userID != "" {
		return userID, nil
	}
	if accessToken == "" {
		return "", common.ErrNoUserID
	}
	return UserIDFromToken(accessToken, secretKey)
}

// IsExpired reports whether err was caused by an expired token.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
