package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mentorhub/internal/common"
	"github.com/dmitrijs2005/mentorhub/internal/logging"
)

// UnitOfWork runs operations atomically, each on its own pooled connection.
type UnitOfWork struct {
	db             *sql.DB
	logger         logging.Logger
	acquireTimeout time.Duration
}

// NewUnitOfWork binds a unit of work to db. acquireTimeout bounds the wait
// for a free pooled connection; zero or negative means wait for ctx only.
func NewUnitOfWork(db *sql.DB, logger logging.Logger, acquireTimeout time.Duration) *UnitOfWork {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &UnitOfWork{db: db, logger: logger.With("module", "uow"), acquireTimeout: acquireTimeout}
}

// WithTx acquires a dedicated connection, begins a transaction and runs fn
// with it. fn's success commits; an error or a panic rolls back (the panic is
// re-raised). A failed rollback is logged and the triggering error returned.
// The connection goes back to the pool exactly once on every path.
//
//	err := uow.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func (u *UnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) (err error) {
	conn, err := u.acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && !errors.Is(cerr, sql.ErrConnDone) {
			u.logger.Error(ctx, "release connection failed", "error", cerr)
		}
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return Classify(fmt.Errorf("begin tx: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			u.rollback(ctx, tx)
			panic(p)
		}
		if err != nil {
			u.rollback(ctx, tx)
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = Classify(fmt.Errorf("commit: %w", cerr))
		}
	}()

	err = fn(ctx, tx)
	return err
}

func (u *UnitOfWork) acquire(ctx context.Context) (*sql.Conn, error) {
	acquireCtx := ctx
	if u.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, u.acquireTimeout)
		defer cancel()
	}

	conn, err := u.db.Conn(acquireCtx)
	if err == nil {
		return conn, nil
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		u.logger.Warn(ctx, "connection pool exhausted", "timeout", u.acquireTimeout)
		return nil, common.ErrorPoolExhausted
	}
	return nil, Classify(fmt.Errorf("acquire connection: %w", err))
}

func (u *UnitOfWork) rollback(ctx context.Context, tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		u.logger.Error(ctx, "rollback failed", "error", err)
	}
}
