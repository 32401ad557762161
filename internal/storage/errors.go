package storage

import "errors"

// ErrInvalidInput is returned by all backends when input validation fails.
var ErrInvalidInput = errors.New("invalid input")
