package database

import (
	"errors"
	"fmt"
)

var (
	// ErrAccountNotFound indicates no account exists with the requested id
	ErrAccountNotFound = errors.New("account not found")

	// ErrNameRequired indicates an empty account name
	ErrNameRequired = errors.New("account name is required")

	// ErrStoreClosed indicates an operation on a closed store
	ErrStoreClosed = errors.New("credential store is closed")
)

// StoreError wraps storage operation failures with the operation name.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store operation '%s' failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}
