package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinels_MatchThroughWrapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"not found", ErrorNotFound},
		{"not configured", ErrNotConfigured},
		{"offline", ErrOffline},
		{"unknown collection", ErrUnknownCollection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("full sync: %w", tt.err)
			assert.True(t, errors.Is(wrapped, tt.err))
		})
	}
}

func TestSentinels_AreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrOffline, ErrNotConfigured))
	assert.Equal(t, "offline", ErrOffline.Error())
	assert.Equal(t, "not_configured", ErrNotConfigured.Error())
}

func TestRetryPolicyConstants(t *testing.T) {
	assert.Equal(t, 5, MaxQueueAttempts)
	assert.Less(t, BaseRetryDelay, MaxRetryDelay)
	assert.Less(t, EntitlementStaleAfter, EntitlementMaxAge)
}
