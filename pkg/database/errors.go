package database

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrConflict is returned by repositories when an insert hits a unique index.
var ErrConflict = errors.New("record already exists")

const uniqueViolation = pq.ErrorCode("23505")

// Translate maps driver errors onto package sentinels. Unknown errors are
// returned untouched so callers can keep using errors.Is(err, sql.ErrNoRows).
func Translate(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
	}
	return err
}
