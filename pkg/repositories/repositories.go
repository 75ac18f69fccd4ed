// Package repositories implements PostgreSQL data access for the dashboard
// persistence core. Repositories read their querier from the request context
// (the active transaction when one is present, the pool otherwise), so a
// service-level unit of work spans every repository call inside it.
package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the SQLSTATE for unique constraint violations. The
// store's own constraints are the authority on uniqueness; a race between
// two concurrent creates is resolved here, not by check-then-insert alone.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
