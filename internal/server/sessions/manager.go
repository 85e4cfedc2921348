// Package sessions issues, verifies and renews the opaque bearer tokens
// stored on user rows.
package sessions

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/dmitrijs2005/mentorhub/internal/common"
	"github.com/dmitrijs2005/mentorhub/internal/server/models"
	"github.com/dmitrijs2005/mentorhub/internal/server/query"
	"github.com/google/uuid"
)

// Store is the part of the users repository the manager needs.
type Store interface {
	Query(ctx context.Context, stmt query.Statement) ([]query.Row, error)
	Exec(ctx context.Context, stmt query.Statement) (int64, error)
}

type Manager struct {
	builder  *query.Builder
	validity time.Duration
	now      func() time.Time
	salt     func() string
}

// NewManager returns a manager issuing tokens valid for validity
// (common.DefaultTokenValidity when zero).
func NewManager(builder *query.Builder, validity time.Duration) *Manager {
	if validity <= 0 {
		validity = common.DefaultTokenValidity
	}
	return &Manager{
		builder:  builder,
		validity: validity,
		now:      time.Now,
		salt:     uuid.NewString,
	}
}

// WithClock returns a copy of m reading time from now.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	c := *m
	c.now = now
	return &c
}

func (m *Manager) Now() time.Time {
	return m.now().UTC()
}

// NewSession derives a fresh token from a random salt and the new expiry.
func (m *Manager) NewSession() models.Session {
	expiry := m.Now().Add(m.validity).Truncate(time.Second)
	s := models.Session{Expiry: expiry}
	sum := sha256.Sum256([]byte(m.salt() + "|" + s.ExpiryString()))
	s.Token = hex.EncodeToString(sum[:])
	return s
}

// Issue stores a fresh session on userID.
func (m *Manager) Issue(ctx context.Context, store Store, userID int64) (models.Session, error) {
	s := m.NewSession()
	if err := m.persist(ctx, store, userID, s); err != nil {
		return models.Session{}, err
	}
	return s, nil
}

// Verify resolves token to exactly one user whose session is still live.
func (m *Manager) Verify(ctx context.Context, store Store, token string) (models.Identity, error) {
	if token == "" {
		return models.Identity{}, common.ErrorNotLoggedIn
	}

	stmt, err := m.builder.Select(query.Where(query.Eq(query.ColToken, token)), []string{})
	if err != nil {
		return models.Identity{}, err
	}

	rows, err := store.Query(ctx, stmt)
	if err != nil {
		return models.Identity{}, err
	}
	// more than one row means the token column lost its uniqueness
	if len(rows) != 1 {
		return models.Identity{}, common.ErrorNotLoggedIn
	}

	if m.Expired(rows[0].TokenExpiry) {
		return models.Identity{}, common.ErrorNotLoggedIn
	}

	return models.Identity{ID: rows[0].ID, TypeUser: rows[0].TypeUser}, nil
}

// Expired reports whether expiry (common.TimeLayout, UTC) is not after now.
// Missing or unparsable values count as expired.
func (m *Manager) Expired(expiry string) bool {
	t, err := time.ParseInLocation(common.TimeLayout, expiry, time.UTC)
	if err != nil {
		return true
	}
	return !t.After(m.Now())
}

// RenewIfExpired slides the session of userID: an expired token is
// replaced, a live one is kept. The expiry is always pushed out and stored.
func (m *Manager) RenewIfExpired(ctx context.Context, store Store, userID int64, token, expiry string) (models.Session, error) {
	s := m.NewSession()
	if token != "" && !m.Expired(expiry) {
		s.Token = token
	}

	if err := m.persist(ctx, store, userID, s); err != nil {
		return models.Session{}, err
	}
	return s, nil
}

func (m *Manager) persist(ctx context.Context, store Store, userID int64, s models.Session) error {
	stmt, ok, err := m.builder.Update(
		query.Where(query.Eq(query.ColID, userID)),
		query.Changes{Set: []query.Assignment{
			query.Set(query.ColToken, s.Token),
			query.Set(query.ColTokenDateEnd, s.Expiry),
		}},
	)
	if err != nil || !ok {
		return err
	}

	n, err := store.Exec(ctx, stmt)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
