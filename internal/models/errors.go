// internal/models/errors.go
package models

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySelection = errors.New("empty file selection")
	ErrInvalidState   = errors.New("invalid pipeline state")
	ErrAlreadyRunning = fmt.Errorf("%w: analysis already running", ErrInvalidState)
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotFound       = errors.New("not found")
)

// WrapError keeps the semantic kind reachable through errors.Is while
// adding the failing operation.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
