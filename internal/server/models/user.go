// Package models holds the data types exchanged between the directory
// service, its repositories and the HTTP adapter.
package models

import (
	"time"

	"github.com/dmitrijs2005/mentorhub/internal/common"
)

// User is a row about to be inserted into the users table.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	TypeUser     string
	SearchKey    string
	Token        string
	TokenExpiry  time.Time
}

// NewUser is the create-user payload, validated at the service boundary.
type NewUser struct {
	Email                string `json:"email" validate:"required,email"`
	Name                 string `json:"name" validate:"required"`
	Password             string `json:"password" validate:"required,min=4"`
	PasswordConfirmation string `json:"passwordConfirmation" validate:"required,eqfield=Password"`
	TypeUser             string `json:"type_user" validate:"required,oneof=user mentor"`
}

type CreatedUser struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	SearchKey   string `json:"search_key"`
	Token       string `json:"token"`
	TokenExpiry string `json:"token_date_end"`
}

type LoginResult struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	TokenExpiry string `json:"token_date_end"`
}

// Session is a token/expiry pair. Expiry is always UTC, whole seconds.
type Session struct {
	Token  string
	Expiry time.Time
}

// ExpiryString renders Expiry in the fixed storage layout.
func (s Session) ExpiryString() string {
	return s.Expiry.UTC().Format(common.TimeLayout)
}

// Identity is what a verified token resolves to.
type Identity struct {
	ID       int64  `json:"id"`
	TypeUser string `json:"type_user"`
}
