package postgres

import (
	"errors"

	"github.com/lib/pq"

	"zerohunger/internal/domain"
)

const uniqueViolation = pq.ErrorCode("23505")

// storeError classifies a driver error by SQLSTATE.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	kind := domain.KindUnavailable
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == uniqueViolation:
			kind = domain.KindDuplicate
		case pqErr.Code.Class() == "23":
			kind = domain.KindConstraintViolation
		}
	}
	return &domain.StoreError{Kind: kind, Op: op, Err: err}
}
