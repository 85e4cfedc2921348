package common

import "time"

// TimeLayout is the single format used for every timestamp exchanged with
// callers. All timestamps are UTC.
const TimeLayout = "2006-01-02 15:04:05"

// DefaultTokenValidity is how long a session token stays live after it is
// issued or renewed: 31 days.
const DefaultTokenValidity = 31 * 24 * time.Hour

// User types.
const (
	TypeUser   = "user"
	TypeMentor = "mentor"
)
