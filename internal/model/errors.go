// internal/model/errors.go
package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotOnboarded = errors.New("principal has no choir assigned")
	ErrForbidden    = errors.New("forbidden")
	ErrUnreachable  = errors.New("record store unreachable")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicate    = errors.New("duplicate key")
)

func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}

func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrForbidden)
}
