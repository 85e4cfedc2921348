package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/mentorhub/internal/dbx"
	"github.com/dmitrijs2005/mentorhub/internal/server/repositories/tags"
	"github.com/dmitrijs2005/mentorhub/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// runs against the pool or inside a unit of work.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tags(db dbx.DBTX) tags.Repository
}
