// Package postgres implements the journal repositories on PostgreSQL.
package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation checks for SQLSTATE 23505. Errors that lost their
// *pgconn.PgError on the way are matched by message.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return sqlState(err) == uniqueViolation || strings.Contains(err.Error(), uniqueViolation)
}

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return sqlState(err) == foreignKeyViolation || strings.Contains(err.Error(), foreignKeyViolation)
}

// nonNil turns a nil string slice into an empty one so text[] columns are
// never written as NULL and JSON never shows null.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
