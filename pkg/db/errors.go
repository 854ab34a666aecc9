package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-constraint violation.
// When constraintName is non-empty the violated constraint (or, for drivers
// that only expose text, the message) must mention it.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == pgUniqueViolation && matchesConstraint(pgxErr.ConstraintName+" "+pgxErr.Message, constraintName)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation && matchesConstraint(pqErr.Constraint+" "+pqErr.Message, constraintName)
	}

	msg := err.Error()
	// sqlite reports "UNIQUE constraint failed: table.column".
	if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return matchesConstraint(msg, constraintName)
}

func matchesConstraint(haystack, constraintName string) bool {
	if constraintName == "" {
		return true
	}
	return strings.Contains(haystack, constraintName)
}
