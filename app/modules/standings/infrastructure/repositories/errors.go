package standingsdb

import (
	"errors"

	"github.com/uptrace/bun/driver/pgdriver"
)

// Sentinel errors for the repository layer. These are infrastructure
// conditions; the service maps them onto domain errors.
var (
	// ErrNoRowsAffected indicates an UPDATE/DELETE matched no rows.
	ErrNoRowsAffected = errors.New("no rows affected")

	// ErrUniqueViolation indicates an insert collided with a unique index,
	// e.g. a second open recalculation for the same scope and target.
	ErrUniqueViolation = errors.New("unique violation")
)

// uniqueViolation reports whether err is a Postgres unique_violation (23505).
func uniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return false
}
