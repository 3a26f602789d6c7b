package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes translated by MapError.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// MapError translates driver errors into a domain's sentinels. Missing
// rows and foreign-key violations map to notFound; unique violations map
// to duplicate. Anything else is returned unchanged.
func MapError(err error, notFound, duplicate error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return duplicate
		case foreignKeyViolation:
			return notFound
		}
	}
	return err
}
