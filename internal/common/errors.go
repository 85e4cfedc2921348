// Package common defines the error taxonomy shared by the directory core and
// its adapters. Callers should use errors.Is / errors.As to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// ErrorDuplicatedEmail is returned when a user is created with an email
	// that is already registered.
	ErrorDuplicatedEmail = errors.New("email already used")

	// ErrorNotFound means a predicate matched no rows, or the login
	// credentials did not resolve to a user.
	ErrorNotFound = errors.New("not found")

	// ErrorNotLoggedIn means a token did not resolve to exactly one user with
	// a live session.
	ErrorNotLoggedIn = errors.New("not logged in")

	// ErrorContactSupport signals that a uniqueness invariant was violated in
	// storage (e.g. several users share one email).
	ErrorContactSupport = errors.New("contact support")

	// ErrorUndefinedProblem is the catch-all for unclassified storage failures
	// during writes.
	ErrorUndefinedProblem = errors.New("undefined problem")

	// ErrorDatabase is the sentinel matched by every *DatabaseError.
	ErrorDatabase = errors.New("database error")

	// ErrorInvalidInput wraps boundary validation failures of caller input.
	ErrorInvalidInput = errors.New("invalid input")

	// ErrorPoolExhausted is returned when no pooled connection could be
	// acquired in time. The operation is safe to retry.
	ErrorPoolExhausted = errors.New("connection pool exhausted")
)

// DatabaseError reports that a statement itself failed. Code carries the
// storage engine diagnostic (SQLSTATE) for support escalation; the underlying
// driver error is kept for logging but never matched by callers.
type DatabaseError struct {
	Code string
	Err  error
}

// NewDatabaseError wraps err with its SQLSTATE code.
func NewDatabaseError(code string, err error) *DatabaseError {
	return &DatabaseError{Code: code, Err: err}
}

func (e *DatabaseError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("database error: %v", e.Err)
	}
	return fmt.Sprintf("database error (sqlstate %s): %v", e.Code, e.Err)
}

// Is makes errors.Is(err, ErrorDatabase) hold for any *DatabaseError.
func (e *DatabaseError) Is(target error) bool {
	return target == ErrorDatabase
}

// IsRetryable reports whether the failure is transient and the whole
// operation may be attempted again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrorPoolExhausted)
}
