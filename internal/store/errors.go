package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Merge and Delete for an unknown document id.
var ErrNotFound = errors.New("item not found")

// AuthError: the identity provider was unavailable or sign-in failed.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("auth: %v", e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// SyncError: the subscription channel failed.
type SyncError struct {
	Err error
}

func (e *SyncError) Error() string { return fmt.Sprintf("sync: %v", e.Err) }
func (e *SyncError) Unwrap() error { return e.Err }

// WriteError: a create, update or delete failed. Op names the operation for
// the status line.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }
