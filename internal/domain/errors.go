package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error leaving a core component unwraps to one of these.
var (
	ErrValidation          = errors.New("validation error")
	ErrCollaboratorFailure = errors.New("collaborator failure")
	ErrStorageUnavailable  = errors.New("storage unavailable")
)

// OpError records which operation failed, the error kind and the cause.
// errors.Is matches both Kind and anything in the Err chain.
type OpError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Validation wraps err (which may be nil) as a validation failure of op.
func Validation(op string, err error) error {
	return &OpError{Op: op, Kind: ErrValidation, Err: err}
}

// Collaborator wraps err as a failure of an external collaborator call.
func Collaborator(op string, err error) error {
	return &OpError{Op: op, Kind: ErrCollaboratorFailure, Err: err}
}

// Storage wraps err as a storage backend failure.
func Storage(op string, err error) error {
	return &OpError{Op: op, Kind: ErrStorageUnavailable, Err: err}
}
