// Package common defines shared constants and sentinel errors used across
// chatkeeper components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Data-integrity errors raised while decoding persisted rows.
	ErrInvalidEnumValue = errors.New("invalid enum value")
	ErrMalformedValue   = errors.New("malformed structured value")
)
