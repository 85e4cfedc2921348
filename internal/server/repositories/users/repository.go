package users

import (
	"context"

	"github.com/dmitrijs2005/mentorhub/internal/server/models"
	"github.com/dmitrijs2005/mentorhub/internal/server/query"
)

// Repository executes user statements and classifies their failures into
// the common error taxonomy.
type Repository interface {
	// Create inserts user and returns its generated id.
	Create(ctx context.Context, user *models.User) (int64, error)
	Query(ctx context.Context, stmt query.Statement) ([]query.Row, error)
	// Exec runs a statement and returns the number of affected rows.
	Exec(ctx context.Context, stmt query.Statement) (int64, error)
	// LockSearchKey serializes search-key derivation for base until the
	// surrounding transaction ends.
	LockSearchKey(ctx context.Context, base string) error
	// SearchKeys lists taken search keys starting with base.
	SearchKeys(ctx context.Context, base string) ([]string, error)
	// FindMentorIDs returns ids of mentors whose name contains any term or
	// who carry any term as a tag.
	FindMentorIDs(ctx context.Context, terms []string) ([]int64, error)
}
