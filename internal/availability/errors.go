package availability

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	ErrInvalidDateRange     = errors.New("invalid date range")
	ErrNotFound             = errors.New("not found")
	ErrConcurrencyConflict  = errors.New("concurrency conflict")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrValidation           = errors.New("validation failed")
)

func NewInsufficientCapacityError(requested, available int) error {
	return fmt.Errorf("%w: requested %d slot(s), %d available", ErrInsufficientCapacity, requested, available)
}

func NewInvalidDateRangeError(details string) error {
	return fmt.Errorf("%w: %s", ErrInvalidDateRange, details)
}

func NewNotFoundError(entity string, id any) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, entity, id)
}

func NewConcurrencyConflictError(details string) error {
	return fmt.Errorf("%w: %s", ErrConcurrencyConflict, details)
}

func NewInvalidTransitionError(from, to string) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

func NewValidationError(details string) error {
	return fmt.Errorf("%w: %s", ErrValidation, details)
}

// IsRetriable returns true if the failed attempt can be repeated as a whole.
func IsRetriable(err error) bool {
	return err != nil && errors.Is(err, ErrConcurrencyConflict)
}
