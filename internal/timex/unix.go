// Package timex contains time helpers shared by the storage layer and config:
// strict conversion between time.Time and integer seconds-since-epoch.
package timex

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTimestamp is matched (errors.Is) by every *InvalidTimestampError.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// Bounds of a decodable timestamp, inclusive.
var (
	minUnix = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
	maxUnix = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC).Unix()
)

// InvalidTimestampError reports the column whose value could not be decoded.
type InvalidTimestampError struct {
	Field string
	Value any
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("invalid timestamp for %s: %v", e.Field, e.Value)
}

func (e *InvalidTimestampError) Is(target error) bool {
	return target == ErrInvalidTimestamp
}

// ToUnix encodes t as whole seconds since the epoch.
func ToUnix(t time.Time) int64 {
	return t.Unix()
}

// ToNullUnix encodes an optional timestamp; nil maps to SQL NULL.
func ToNullUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

// FromUnix decodes a required column value scanned into an `any`.
// NULL, non-integer and out-of-range values are rejected.
func FromUnix(field string, v any) (time.Time, error) {
	secs, ok := asInt64(v)
	if !ok || secs < minUnix || secs > maxUnix {
		return time.Time{}, &InvalidTimestampError{Field: field, Value: v}
	}
	return time.Unix(secs, 0).UTC(), nil
}

// FromNullUnix decodes an optional column value; NULL yields nil.
func FromNullUnix(field string, v any) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	t, err := FromUnix(field, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	default:
		return 0, false
	}
}

// Ptr returns a pointer to t, handy for optional timestamp fields.
func Ptr(t time.Time) *time.Time {
	return &t
}
