package remote

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// Kind tags a remote failure with how callers should react to it.
type Kind int

const (
	// KindUnknown is a failure that could not be classified. It is not retried.
	KindUnknown Kind = iota
	// KindNetwork is a transient transport or availability failure. Retryable.
	KindNetwork
	// KindRejected is a write or query the backend refused, such as a
	// constraint or type violation. Retrying would fail identically.
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Error is returned by every Store operation.
type Error struct {
	Op    string
	Table string
	Kind  Kind
	Err   error
}

func (e *Error) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("remote %s (%s): %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("remote %s %s (%s): %v", e.Op, e.Table, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNetwork reports whether err is a retryable remote failure.
func IsNetwork(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Kind == KindNetwork
}

// KindOf returns the classification of err. Errors that did not come from
// this package are classified on the fly.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return classify(err)
}

func wrap(op, table string, err error) error {
	if err == nil {
		return nil
	}
	var re *Error
	if errors.As(err, &re) {
		return err
	}
	return &Error{Op: op, Table: table, Kind: classify(err), Err: err}
}

// classify maps driver and transport errors to a Kind. PostgreSQL errors are
// classified by SQLSTATE class.
func classify(err error) Kind {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifySQLState(pgErr.Code)
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE),
		errors.As(err, &connErr),
		errors.As(err, &netErr),
		pgconn.Timeout(err):
		return KindNetwork
	}

	return KindUnknown
}

func classifySQLState(code string) Kind {
	if len(code) < 2 {
		return KindUnknown
	}
	switch code[:2] {
	// connection exception, insufficient resources, operator intervention,
	// transaction rollback (serialization failure, deadlock)
	case "08", "53", "57", "40":
		return KindNetwork
	// data exception, integrity constraint, syntax or access rule, check option,
	// invalid authorization, raised by a trigger or function
	case "22", "23", "42", "44", "28", "P0":
		return KindRejected
	}
	return KindUnknown
}
