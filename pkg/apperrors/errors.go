package apperrors

import "errors"

var (
	// ErrNotFound indicates the target entity does not exist, or exists only
	// in a different variable scope.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness invariant would be violated
	// (duplicate dashboard title, duplicate variable name in scope,
	// duplicate template name).
	ErrConflict = errors.New("conflict")
)
