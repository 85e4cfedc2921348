package dbx

import (
	"errors"

	"github.com/dmitrijs2005/mentorhub/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLStateUniqueViolation is the code of a UNIQUE constraint failure.
const SQLStateUniqueViolation = "23505"


// SQLState returns the PostgreSQL diagnostic code carried by err, or "".
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// ConstraintName returns the violated constraint, if the server reported one.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

func IsUniqueViolation(err error) bool {
	return SQLState(err) == SQLStateUniqueViolation
}

// Classify turns a raw driver error into *common.DatabaseError.
// Taxonomy errors and nil pass through untouched.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var dbErr *common.DatabaseError
	if errors.As(err, &dbErr) ||
		errors.Is(err, common.ErrorPoolExhausted) ||
		errors.Is(err, common.ErrorNotFound) ||
		errors.Is(err, common.ErrorNotLoggedIn) ||
		errors.Is(err, common.ErrorDuplicatedEmail) ||
		errors.Is(err, common.ErrorContactSupport) ||
		errors.Is(err, common.ErrorUndefinedProblem) {
		return err
	}
	return common.NewDatabaseError(SQLState(err), err)
}
