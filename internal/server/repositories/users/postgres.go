package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mentorhub/internal/common"
	"github.com/dmitrijs2005/mentorhub/internal/dbx"
	"github.com/dmitrijs2005/mentorhub/internal/server/models"
	"github.com/dmitrijs2005/mentorhub/internal/server/query"
)

var _ Repository = (*PostgresRepository)(nil)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (int64, error) {
	query :=
		`INSERT INTO users (email, name, password, type_user, token, token_date_end)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id
		 `

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.Name, user.PasswordHash, user.TypeUser, user.Token, user.TokenExpiry.UTC()).Scan(&id)

	if err != nil {
		if dbx.IsUniqueViolation(err) && isEmailConstraint(dbx.ConstraintName(err)) {
			return 0, common.ErrorDuplicatedEmail
		}
		return 0, fmt.Errorf("%w: %v", common.ErrorUndefinedProblem, err)
	}

	user.ID = id
	return id, nil
}

func isEmailConstraint(name string) bool {
	return name == "" || strings.Contains(name, "email")
}

func (r *PostgresRepository) Query(ctx context.Context, stmt query.Statement) ([]query.Row, error) {
	rows, err := r.db.QueryContext(ctx, stmt.Text, stmt.Args...)
	if err != nil {
		return nil, dbx.Classify(fmt.Errorf("db error: %w", err))
	}
	defer rows.Close()

	out, err := query.ScanRows(rows, stmt)
	if err != nil {
		return nil, dbx.Classify(fmt.Errorf("db error: %w", err))
	}
	return out, nil
}

func (r *PostgresRepository) Exec(ctx context.Context, stmt query.Statement) (int64, error) {
	res, err := r.db.ExecContext(ctx, stmt.Text, stmt.Args...)
	if err != nil {
		return 0, dbx.Classify(fmt.Errorf("db error: %w", err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, dbx.Classify(fmt.Errorf("db error: %w", err))
	}
	return n, nil
}

func (r *PostgresRepository) LockSearchKey(ctx context.Context, base string) error {
	if _, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, base); err != nil {
		return dbx.Classify(fmt.Errorf("db error: %w", err))
	}
	return nil
}

func (r *PostgresRepository) SearchKeys(ctx context.Context, base string) ([]string, error) {
	query :=
		`SELECT search_key FROM users
		 WHERE search_key LIKE $1
		 `

	rows, err := r.db.QueryContext(ctx, query, escapeLike(base)+"%")
	if err != nil {
		return nil, dbx.Classify(fmt.Errorf("db error: %w", err))
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, dbx.Classify(fmt.Errorf("db error: %w", err))
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Classify(fmt.Errorf("db error: %w", err))
	}
	return keys, nil
}

func (r *PostgresRepository) FindMentorIDs(ctx context.Context, terms []string) ([]int64, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	conds := make([]string, 0, len(terms)+1)
	args := make([]any, 0, len(terms)*2)
	for i, term := range terms {
		conds = append(conds, fmt.Sprintf("lower(users.name) LIKE $%d", i+1))
		args = append(args, "%"+escapeLike(strings.ToLower(term))+"%")
	}
	conds = append(conds, "tags.tag IN ("+query.Placeholders(len(terms)+1, len(terms))+")")
	for _, term := range terms {
		args = append(args, strings.ToLower(term))
	}

	q := `SELECT DISTINCT users.id FROM users
		 LEFT JOIN users_tags ON users_tags.user_id = users.id
		 LEFT JOIN tags ON tags.id = users_tags.tag_id
		 WHERE users.type_user = 'mentor' AND (` + strings.Join(conds, " OR ") + `)
		 ORDER BY users.id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, dbx.Classify(fmt.Errorf("db error: %w", err))
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, dbx.Classify(fmt.Errorf("db error: %w", err))
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Classify(fmt.Errorf("db error: %w", err))
	}
	return ids, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
