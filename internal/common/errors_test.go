package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseError_IsAndAs(t *testing.T) {
	cause := errors.New("relation does not exist")
	err := fmt.Errorf("db error: %w", NewDatabaseError("42P01", cause))

	assert.True(t, errors.Is(err, ErrorDatabase))
	assert.False(t, errors.Is(err, ErrorNotFound))

	var dbErr *DatabaseError
	if assert.True(t, errors.As(err, &dbErr)) {
		assert.Equal(t, "42P01", dbErr.Code)
	}
	assert.Contains(t, err.Error(), "sqlstate 42P01")
}

func TestDatabaseError_NoCode(t *testing.T) {
	err := NewDatabaseError("", errors.New("conn reset"))
	assert.Equal(t, "database error: conn reset", err.Error())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(fmt.Errorf("acquire: %w", ErrorPoolExhausted)))
	assert.False(t, IsRetryable(ErrorNotFound))
	assert.False(t, IsRetryable(NewDatabaseError("23505", errors.New("dup"))))
}
