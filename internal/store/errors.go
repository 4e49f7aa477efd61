package store

import "errors"

// ErrNotFound indicates that no row matched the requested identifier.
var ErrNotFound = errors.New("record not found")
