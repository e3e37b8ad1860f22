package storage

import "errors"

// Storage errors. Uniqueness of ref and memo key is enforced at insert
// only; both fields are immutable afterwards.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateRef is returned when inserting an offer whose ref
	// already exists in the registry.
	ErrDuplicateRef = errors.New("ref already exists in the registry")

	// ErrDuplicateMemoKey is returned when inserting an offer whose memo
	// key is already in use by another offer.
	ErrDuplicateMemoKey = errors.New("memo key already in use")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
