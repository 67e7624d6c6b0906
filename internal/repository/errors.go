package repository

import "errors"

var (
	// ErrNotFound indicates an entity was not located or is not visible to the caller.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicate indicates a uniqueness constraint was violated.
	ErrDuplicate = errors.New("repository: duplicate")
	// ErrUnavailable indicates the backing store failed to serve the request.
	ErrUnavailable = errors.New("repository: storage unavailable")
)
