package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Delete for ids absent from the collection.
	ErrNotFound = errors.New("bookmark not found")
	// ErrProvisional is returned by Delete for records not yet persisted.
	ErrProvisional = errors.New("bookmark is still being saved")
	// ErrClosed is returned once the session has been logged out.
	ErrClosed = errors.New("session closed")
	// ErrUnknownSession is returned by the Manager for unknown tab ids.
	ErrUnknownSession = errors.New("unknown session")
	// ErrEmptyUser is returned by Login without a user id.
	ErrEmptyUser = errors.New("user id must not be empty")
)

// Persistence operations reported in PersistenceError.
const (
	OpInsert = "insert"
	OpDelete = "delete"
)

// PersistenceError reports a rejected insert or delete. The local
// collection has already been rolled back when it is returned.
type PersistenceError struct {
	Op  string
	ID  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("persist %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
