package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrReviewNotFound     = fmt.Errorf("review %w", ErrNotFound)
	ErrProductNotFound    = fmt.Errorf("product %w", ErrNotFound)
	ErrConflict           = errors.New("conflict")
	ErrUserExists         = fmt.Errorf("user with this email already exists: %w", ErrConflict)
	ErrStorage            = errors.New("storage error")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
