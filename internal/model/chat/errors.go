package chat

import "errors"

var (
	// ErrValidation marks bad or missing input. Nothing is written.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an unknown session id.
	ErrNotFound = errors.New("session not found")
	// ErrPersistence marks a failed store read or write.
	ErrPersistence = errors.New("session store failure")
)
