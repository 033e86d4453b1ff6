package repositories

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrUserExists   = errors.New("user already exists")
	ErrNoPrizesLeft = errors.New("no unused prizes left")

	ErrUserNotFound  = fmt.Errorf("user %w", ErrNotFound)
	ErrPrizeNotFound = fmt.Errorf("prize %w", ErrNotFound)
)

// StorageError wraps a failure of the underlying database so callers can tell
// it apart from a legitimately empty result.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Wrap returns nil for a nil err, otherwise a *StorageError for op
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err came from a failing backend
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
