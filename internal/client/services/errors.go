package services

import "errors"

// ErrInvalidData marks remote payloads that cannot be mapped onto the local
// model: unknown sender tags, malformed timestamps, foreign message ids.
var ErrInvalidData = errors.New("invalid remote data")
