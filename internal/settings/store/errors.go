package store

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateKey is matched by errors.Is for every natural key conflict.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrStorage wraps lock acquisition and statement failures.
	ErrStorage = errors.New("storage error")
)

// DuplicateKeyError reports a natural key that is already taken.
type DuplicateKeyError struct {
	Message string
}

func (e *DuplicateKeyError) Error() string { return e.Message }

func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }

func duplicateModelKey(key string) error {
	return &DuplicateKeyError{Message: fmt.Sprintf("Model with key '%s' already exists", key)}
}

func duplicateAgentURL(url string) error {
	return &DuplicateKeyError{Message: fmt.Sprintf("A2A server with URL '%s' already exists", url)}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
