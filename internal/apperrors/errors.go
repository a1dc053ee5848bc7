package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrConcurrentModification indicates that a write lost a race against another
// writer on the same record. Callers should re-read and try again.
var ErrConcurrentModification = errors.New("concurrent modification")

// ErrPersistenceFailure indicates the storage layer could not complete a write.
// No partial state is left behind when this is returned from a transaction.
var ErrPersistenceFailure = errors.New("persistence failure")
