package usecase

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// isDuplicateKeyError checks if the error is a unique violation on one of the
// given constraints. Postgres reports the constraint name; SQLite reports the
// offending table.column list, so names may be either.
func isDuplicateKeyError(err error, names ...string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23505 = unique_violation
		return pgErr.Code == "23505" && containsAny(pgErr.ConstraintName, names)
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && containsAny(msg, names)
}

// isForeignKeyError checks if the error is a foreign key violation
func isForeignKeyError(err error, names ...string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23503 = foreign_key_violation
		return pgErr.Code == "23503" && containsAny(pgErr.ConstraintName, names)
	}

	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func containsAny(s string, names []string) bool {
	if len(names) == 0 {
		return true
	}
	s = strings.ToLower(s)
	for _, name := range names {
		if strings.Contains(s, strings.ToLower(name)) {
			return true
		}
	}
	return false
}
