package writing

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrPrimaryWrite = errors.New("primary write failed")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// SecondaryEffectError describes a follow-up update that failed after the
// primary write committed. It is logged, never returned to callers.
type SecondaryEffectError struct {
	Step   string // "project", "ledger", "achievements", "notify"
	Entity string
	ID     string
	Delta  int
	Err    error
}

func (e *SecondaryEffectError) Error() string {
	return fmt.Sprintf("%s: %s %s (delta %d): %v", e.Step, e.Entity, e.ID, e.Delta, e.Err)
}

func (e *SecondaryEffectError) Unwrap() error { return e.Err }
