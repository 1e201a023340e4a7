package domain

import (
	"errors"
	"fmt"
)

// StoreErrorKind classifies storage failures independently of the driver.
type StoreErrorKind int

const (
	// KindUnavailable covers connectivity problems and any failure that is
	// not a constraint violation.
	KindUnavailable StoreErrorKind = iota
	// KindDuplicate is a unique constraint violation.
	KindDuplicate
	// KindConstraintViolation is any other integrity constraint violation.
	KindConstraintViolation
)

func (k StoreErrorKind) String() string {
	switch k {
	case KindDuplicate:
		return "duplicate"
	case KindConstraintViolation:
		return "constraint violation"
	default:
		return "unavailable"
	}
}

// StoreError is returned by repository implementations.
type StoreError struct {
	Kind StoreErrorKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsDuplicate reports whether err is a StoreError of kind KindDuplicate.
func IsDuplicate(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Kind == KindDuplicate
}
