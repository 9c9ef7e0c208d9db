package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation from
// Postgres (pgx or lib/pq), SQLite, or GORM's translated ErrDuplicatedKey.
// When constraintHint is provided the constraint name or the driver message
// must mention it as well.
func IsUniqueViolation(err error, constraintHint string) bool {
	if err == nil {
		return false
	}

	matched := false
	detail := err.Error()

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	var liteErr sqlite3.Error
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		// translated errors no longer carry the constraint name
		return true
	case errors.As(err, &pgxErr):
		matched = pgxErr.Code == pgUniqueViolation
		detail = pgxErr.ConstraintName + " " + pgxErr.Message + " " + pgxErr.Detail
	case errors.As(err, &pqErr):
		matched = string(pqErr.Code) == pgUniqueViolation
		detail = pqErr.Constraint + " " + pqErr.Message + " " + pqErr.Detail
	case errors.As(err, &liteErr):
		matched = liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	default:
		matched = strings.Contains(detail, "duplicate key value") ||
			strings.Contains(detail, "UNIQUE constraint failed")
	}

	if !matched {
		return false
	}
	if constraintHint == "" {
		return true
	}
	return strings.Contains(detail, constraintHint)
}

// IsNotFound reports whether err is GORM's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
