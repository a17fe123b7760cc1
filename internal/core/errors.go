package core

import "errors"

// Sentinel errors returned by Store operations. Callers branch on these
// with errors.Is; none of them is ever fatal to the process.
var (
	// ErrNotFound indicates an operation referenced a nonexistent task ID.
	ErrNotFound = errors.New("task not found")

	// ErrConflict indicates a delete was rejected because non-completed
	// tasks still depend on the target.
	ErrConflict = errors.New("task has dependents")

	// ErrValidation indicates invalid input such as an empty title or an
	// out-of-enum status or priority value.
	ErrValidation = errors.New("validation failed")
)
