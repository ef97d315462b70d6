package pkg

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// https://www.postgresql.org/docs/current/errcodes-appendix.html
const uniqueViolationCode = "23505"

// UniqueViolation returns the name of the violated constraint when err wraps
// a postgres unique violation, e.g. profile_email_key for a taken email.
func UniqueViolation(err error) (constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return "", false
	}
	return pgErr.ConstraintName, true
}

func IsUniqueViolationError(err error) bool {
	_, ok := UniqueViolation(err)
	return ok
}
