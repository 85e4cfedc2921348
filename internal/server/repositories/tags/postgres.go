package tags

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/mentorhub/internal/dbx"
	"github.com/dmitrijs2005/mentorhub/internal/server/query"
)

var _ Repository = (*PostgresRepository)(nil)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Normalize trims and lower-cases tags, dropping blanks and duplicates.
// The result is sorted.
func Normalize(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (r *PostgresRepository) Reconcile(ctx context.Context, userID int64, desired []string) error {
	desired = Normalize(desired)

	if len(desired) == 0 {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM users_tags WHERE user_id = $1`, userID); err != nil {
			return dbx.Classify(fmt.Errorf("db error: %w", err))
		}
		return nil
	}

	if err := r.ensureVocabulary(ctx, desired); err != nil {
		return err
	}

	ids, err := r.resolve(ctx, desired)
	if err != nil {
		return err
	}

	if err := r.link(ctx, userID, ids); err != nil {
		return err
	}

	return r.unlinkOthers(ctx, userID, ids)
}

// ensureVocabulary relies on UNIQUE(tag) so concurrent reconciles of
// overlapping sets cannot race.
func (r *PostgresRepository) ensureVocabulary(ctx context.Context, tags []string) error {
	values := make([]string, len(tags))
	args := make([]any, len(tags))
	for i, t := range tags {
		values[i] = fmt.Sprintf("($%d)", i+1)
		args[i] = t
	}

	q := `INSERT INTO tags (tag) VALUES ` + strings.Join(values, ", ") + ` ON CONFLICT (tag) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return dbx.Classify(fmt.Errorf("db error: %w", err))
	}
	return nil
}

func (r *PostgresRepository) resolve(ctx context.Context, tags []string) ([]int64, error) {
	args := make([]any, len(tags))
	for i, t := range tags {
		args[i] = t
	}

	q := `SELECT id, tag FROM tags WHERE tag IN (` + query.Placeholders(1, len(tags)) + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, dbx.Classify(fmt.Errorf("db error: %w", err))
	}
	defer rows.Close()

	ids := make([]int64, 0, len(tags))
	for rows.Next() {
		var (
			id  int64
			tag string
		)
		if err := rows.Scan(&id, &tag); err != nil {
			return nil, dbx.Classify(fmt.Errorf("db error: %w", err))
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Classify(fmt.Errorf("db error: %w", err))
	}

	if len(ids) != len(tags) {
		return nil, dbx.Classify(fmt.Errorf("db error: resolved %d of %d tags", len(ids), len(tags)))
	}
	return ids, nil
}

func (r *PostgresRepository) link(ctx context.Context, userID int64, tagIDs []int64) error {
	values := make([]string, len(tagIDs))
	args := make([]any, 0, len(tagIDs)+1)
	args = append(args, userID)
	for i, id := range tagIDs {
		values[i] = fmt.Sprintf("($1, $%d)", i+2)
		args = append(args, id)
	}

	q := `INSERT INTO users_tags (user_id, tag_id) VALUES ` + strings.Join(values, ", ") + ` ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return dbx.Classify(fmt.Errorf("db error: %w", err))
	}
	return nil
}

func (r *PostgresRepository) unlinkOthers(ctx context.Context, userID int64, keep []int64) error {
	args := make([]any, 0, len(keep)+1)
	args = append(args, userID)
	for _, id := range keep {
		args = append(args, id)
	}

	q := `DELETE FROM users_tags WHERE user_id = $1 AND tag_id NOT IN (` + query.Placeholders(2, len(keep)) + `)`
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return dbx.Classify(fmt.Errorf("db error: %w", err))
	}
	return nil
}

func (r *PostgresRepository) LoadFor(ctx context.Context, userIDs []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	q := `SELECT users_tags.user_id, tags.tag FROM users_tags
		 JOIN tags ON tags.id = users_tags.tag_id
		 WHERE users_tags.user_id IN (` + query.Placeholders(1, len(userIDs)) + `)
		 ORDER BY users_tags.user_id, tags.tag`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, dbx.Classify(fmt.Errorf("db error: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID int64
			tag    string
		)
		if err := rows.Scan(&userID, &tag); err != nil {
			return nil, dbx.Classify(fmt.Errorf("db error: %w", err))
		}
		out[userID] = append(out[userID], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Classify(fmt.Errorf("db error: %w", err))
	}
	return out, nil
}
