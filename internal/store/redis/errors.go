package redis

import "errors"

// ErrNotFound is returned when a bookmark id has no stored record.
var ErrNotFound = errors.New("bookmark not found")
