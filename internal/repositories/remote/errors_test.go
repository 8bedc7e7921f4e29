package remote

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"deadline", context.DeadlineExceeded, KindNetwork},
		{"canceled", context.Canceled, KindNetwork},
		{"bad conn", driver.ErrBadConn, KindNetwork},
		{"eof", io.EOF, KindNetwork},
		{"wrapped refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), KindNetwork},
		{"net op error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("no route to host")}, KindNetwork},
		{"connection exception", &pgconn.PgError{Code: "08001"}, KindNetwork},
		{"too many connections", &pgconn.PgError{Code: "53300"}, KindNetwork},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, KindNetwork},
		{"unique violation", &pgconn.PgError{Code: "23505"}, KindRejected},
		{"invalid text", &pgconn.PgError{Code: "22P02"}, KindRejected},
		{"undefined column", &pgconn.PgError{Code: "42703"}, KindRejected},
		{"raise exception", &pgconn.PgError{Code: "P0001"}, KindRejected},
		{"feature not supported", &pgconn.PgError{Code: "0A000"}, KindUnknown},
		{"plain error", errors.New("failed to fetch"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}

func TestWrap_KeepsExistingClassification(t *testing.T) {
	inner := &Error{Op: "upsert", Table: "cycles", Kind: KindRejected, Err: errors.New("bad")}

	err := wrap("select", "exercises", inner)
	assert.Same(t, inner, err)
	assert.Nil(t, wrap("select", "exercises", nil))
}

func TestError_Message(t *testing.T) {
	err := &Error{Op: "upsert", Table: "cycles", Kind: KindNetwork, Err: io.EOF}
	assert.Equal(t, "remote upsert cycles (network): EOF", err.Error())

	err = &Error{Op: "ping", Kind: KindUnknown, Err: io.EOF}
	assert.Equal(t, "remote ping (unknown): EOF", err.Error())
}

func TestKindOf_UnwrappedError(t *testing.T) {
	assert.Equal(t, KindNetwork, KindOf(fmt.Errorf("x: %w", io.ErrUnexpectedEOF)))
	assert.Equal(t, KindRejected, KindOf(fmt.Errorf("x: %w", &Error{Kind: KindRejected})))
}
