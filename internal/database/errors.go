package database

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"modernc.org/sqlite"

	"github.com/fkhayef/pantryledger/internal/apperrors"
)

const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"

	sqliteBusy   = 5
	sqliteLocked = 6
)

// IsConflict reports whether err is a driver error caused by a competing
// transaction rather than by bad data or a broken connection.
func IsConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqSerializationFailure || pqErr.Code == pqDeadlockDetected
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code() & 0xff
		return code == sqliteBusy || code == sqliteLocked
	}

	return false
}

// Translate classifies a driver error as apperrors.ErrConcurrentModification
// or apperrors.ErrPersistenceFailure. The driver error stays in the chain.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apperrors.ErrConcurrentModification) || errors.Is(err, apperrors.ErrPersistenceFailure) {
		return err
	}
	if IsConflict(err) {
		return fmt.Errorf("%w: %w", apperrors.ErrConcurrentModification, err)
	}
	return fmt.Errorf("%w: %w", apperrors.ErrPersistenceFailure, err)
}
