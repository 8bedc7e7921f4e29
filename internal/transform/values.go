package transform

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/liftsync/internal/repositories/remote"
)

// Column readers accept the value shapes produced by the pgx stdlib driver
// (string, int64, float64, bool, time.Time) as well as their JSON-decoded
// counterparts (float64 for numbers, RFC 3339 strings for timestamps).

func getString(r remote.Row, col string) (string, error) {
	switch v := r[col].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("column %s: unexpected %T", col, v)
	}
}

func getInt(r remote.Row, col string) (int, error) {
	switch v := r[col].(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", col, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("column %s: unexpected %T", col, v)
	}
}

func getFloat(r remote.Row, col string) (float64, error) {
	switch v := r[col].(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		// numeric columns arrive as text
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", col, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("column %s: unexpected %T", col, v)
	}
}

func getBool(r remote.Row, col string) (bool, error) {
	switch v := r[col].(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("column %s: %w", col, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("column %s: unexpected %T", col, v)
	}
}

func getOptBool(r remote.Row, col string) (*bool, error) {
	if r[col] == nil {
		return nil, nil
	}
	b, err := getBool(r, col)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func getTime(r remote.Row, col string) (time.Time, error) {
	t, err := getOptTime(r, col)
	if err != nil {
		return time.Time{}, err
	}
	if t == nil {
		return time.Time{}, fmt.Errorf("column %s: missing timestamp", col)
	}
	return *t, nil
}

func getOptTime(r remote.Row, col string) (*time.Time, error) {
	switch v := r[col].(type) {
	case nil:
		return nil, nil
	case time.Time:
		t := v.UTC()
		return &t, nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		t := v.UTC()
		return &t, nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		t = t.UTC()
		return &t, nil
	default:
		return nil, fmt.Errorf("column %s: unexpected %T", col, v)
	}
}

// optTime converts an optional timestamp to a driver value.
func optTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func optBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}

func optString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// reader collects the first conversion error so FromRow bodies stay flat.
type reader struct {
	row remote.Row
	err error
}

func (r *reader) str(col string) string {
	v, err := getString(r.row, col)
	r.keep(err)
	return v
}

func (r *reader) int(col string) int {
	v, err := getInt(r.row, col)
	r.keep(err)
	return v
}

func (r *reader) float(col string) float64 {
	v, err := getFloat(r.row, col)
	r.keep(err)
	return v
}

func (r *reader) bool(col string) bool {
	v, err := getBool(r.row, col)
	r.keep(err)
	return v
}

func (r *reader) optBool(col string) *bool {
	v, err := getOptBool(r.row, col)
	r.keep(err)
	return v
}

func (r *reader) time(col string) time.Time {
	v, err := getTime(r.row, col)
	r.keep(err)
	return v
}

func (r *reader) optTime(col string) *time.Time {
	v, err := getOptTime(r.row, col)
	r.keep(err)
	return v
}

func (r *reader) keep(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}
