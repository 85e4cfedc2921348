// Package services contains server-side business logic. DirectoryService is
// the entry point of the user/mentor directory: account creation, profile
// reads and writes, token verification and login.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/mentorhub/internal/common"
	"github.com/dmitrijs2005/mentorhub/internal/dbx"
	"github.com/dmitrijs2005/mentorhub/internal/logging"
	"github.com/dmitrijs2005/mentorhub/internal/server/config"
	"github.com/dmitrijs2005/mentorhub/internal/server/fields"
	"github.com/dmitrijs2005/mentorhub/internal/server/models"
	"github.com/dmitrijs2005/mentorhub/internal/server/query"
	"github.com/dmitrijs2005/mentorhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/mentorhub/internal/server/repositories/users"
	"github.com/dmitrijs2005/mentorhub/internal/server/sessions"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

type DirectoryService struct {
	uow         *dbx.UnitOfWork
	repomanager repomanager.RepositoryManager
	builder     *query.Builder
	filter      *fields.Filter
	sessions    *sessions.Manager
	validate    *validator.Validate
	bcryptCost  int
	logger      logging.Logger
}

// NewDirectoryService wires the service over the users schema.
func NewDirectoryService(uow *dbx.UnitOfWork, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *DirectoryService {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	schema := query.Users()
	builder := query.NewBuilder(schema)

	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &DirectoryService{
		uow:         uow,
		repomanager: m,
		builder:     builder,
		filter:      fields.NewFilter(schema),
		sessions:    sessions.NewManager(builder, cfg.TokenValidityDuration),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		bcryptCost:  cost,
		logger:      logger.With("module", "directory", "schema_version", schema.Version()),
	}
}

// WithClock makes session issuance and expiry checks read time from now.
func (s *DirectoryService) WithClock(now func() time.Time) *DirectoryService {
	c := *s
	c.sessions = s.sessions.WithClock(now)
	return &c
}

// CreateUser registers a user with a fresh session and a unique search key.
// Fails with ErrorDuplicatedEmail or ErrorUndefinedProblem.
func (s *DirectoryService) CreateUser(ctx context.Context, info models.NewUser) (*models.CreatedUser, error) {
	info.Email = strings.TrimSpace(info.Email)
	info.Name = strings.TrimSpace(info.Name)

	if err := s.validate.Struct(info); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(info.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrorUndefinedProblem
	}

	session := s.sessions.NewSession()
	user := &models.User{
		Email:        info.Email,
		Name:         info.Name,
		PasswordHash: string(hash),
		TypeUser:     info.TypeUser,
		Token:        session.Token,
		TokenExpiry:  session.Expiry,
	}

	err = s.uow.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		if _, err := repo.Create(ctx, user); err != nil {
			return err
		}
		key, err := s.assignSearchKey(ctx, repo, user.ID, user.Name)
		if err != nil {
			return err
		}
		user.SearchKey = key
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorDuplicatedEmail), errors.Is(err, common.ErrorPoolExhausted):
			return nil, err
		default:
			s.logger.Error(ctx, "create user failed", "error", err)
			return nil, common.ErrorUndefinedProblem
		}
	}

	return &models.CreatedUser{
		Email:       user.Email,
		Name:        user.Name,
		SearchKey:   user.SearchKey,
		Token:       session.Token,
		TokenExpiry: session.ExpiryString(),
	}, nil
}

// assignSearchKey derives the slug of name, holding an advisory lock on the
// slug so concurrent creations cannot pick the same suffix.
func (s *DirectoryService) assignSearchKey(ctx context.Context, repo users.Repository, userID int64, name string) (string, error) {
	base := Slug(name)
	if err := repo.LockSearchKey(ctx, base); err != nil {
		return "", err
	}

	taken, err := repo.SearchKeys(ctx, base)
	if err != nil {
		return "", err
	}
	key := NextSearchKey(base, taken)

	stmt, _, err := s.builder.Update(
		query.Where(query.Eq(query.ColID, userID)),
		query.Changes{Set: []query.Assignment{query.Set(query.ColSearchKey, key)}},
	)
	if err != nil {
		return "", err
	}
	if _, err := repo.Exec(ctx, stmt); err != nil {
		return "", err
	}
	return key, nil
}

// GetUsers returns the rows matching search, projected through the field
// filter. type_user is only revealed when search already constrains it.
func (s *DirectoryService) GetUsers(ctx context.Context, search query.Search, projection []string) ([]query.Row, error) {
	var rows []query.Row
	err := s.uow.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		rows, err = s.getUsers(ctx, tx, search, projection)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *DirectoryService) getUsers(ctx context.Context, tx dbx.DBTX, search query.Search, projection []string) ([]query.Row, error) {
	proj := s.filter.ForReturn(projection, search.Constrains(query.ColTypeUser))

	stmt, err := s.builder.Select(search, proj)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInvalidInput, err)
	}

	rows, err := s.repomanager.Users(tx).Query(ctx, stmt)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []query.Row{}
	}
	if !stmt.Tags || len(rows) == 0 {
		return rows, nil
	}

	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	byUser, err := s.repomanager.Tags(tx).LoadFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i, r := range rows {
		rows[i] = r.WithTags(byUser[r.ID])
	}
	return rows, nil
}

// SetUser applies updates to every row matching search in one transaction:
// the matched rows are locked, the profile columns updated and, for mentors,
// the tag links reconciled. Fails with ErrorNotFound when nothing matched.
func (s *DirectoryService) SetUser(ctx context.Context, search query.Search, updates map[string]any) error {
	changes, err := s.prepareChanges(updates)
	if err != nil {
		return err
	}

	return s.uow.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.setUser(ctx, tx, search, changes)
	})
}

func (s *DirectoryService) prepareChanges(updates map[string]any) (query.Changes, error) {
	changes, err := s.filter.ForSave(updates)
	if err != nil {
		return query.Changes{}, fmt.Errorf("%w: %w", common.ErrorInvalidInput, err)
	}

	raw, ok := changes.Value(query.ColPassword)
	if !ok {
		return changes, nil
	}
	password, ok := raw.(string)
	if !ok || len(password) < 4 {
		return query.Changes{}, fmt.Errorf("%w: password must be a string of at least 4 characters", common.ErrorInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return query.Changes{}, fmt.Errorf("hash password: %w", err)
	}
	return changes.Replace(query.ColPassword, string(hash)), nil
}

func (s *DirectoryService) setUser(ctx context.Context, tx dbx.DBTX, search query.Search, changes query.Changes) error {
	repo := s.repomanager.Users(tx)

	lock, err := s.builder.SelectForUpdate(search, []string{})
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrorInvalidInput, err)
	}
	matched, err := repo.Query(ctx, lock)
	if err != nil {
		return err
	}
	if len(matched) == 0 {
		return common.ErrorNotFound
	}

	stmt, ok, err := s.builder.Update(search, changes)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrorInvalidInput, err)
	}
	if ok {
		if _, err := repo.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	if !changes.TagsSet {
		return nil
	}
	tagRepo := s.repomanager.Tags(tx)
	for _, row := range matched {
		if row.TypeUser != common.TypeMentor {
			continue
		}
		if err := tagRepo.Reconcile(ctx, row.ID, changes.Tags); err != nil {
			return err
		}
	}
	return nil
}

// VerifyToken resolves token to its user. Fails with ErrorNotLoggedIn.
func (s *DirectoryService) VerifyToken(ctx context.Context, token string) (*models.Identity, error) {
	var id models.Identity
	err := s.uow.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		id, err = s.sessions.Verify(ctx, s.repomanager.Users(tx), token)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Login checks credentials and slides the session. Fails with
// ErrorNotFound for unknown email or wrong password, ErrorContactSupport
// when the email is not unique in storage.
func (s *DirectoryService) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	email = strings.TrimSpace(email)

	var result *models.LoginResult
	err := s.uow.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		stmt, err := s.builder.SelectForUpdate(query.Where(query.Eq(query.ColEmail, email)), []string{query.ColPassword})
		if err != nil {
			return err
		}
		rows, err := repo.Query(ctx, stmt)
		if err != nil {
			return err
		}
		switch {
		case len(rows) == 0:
			return common.ErrorNotFound
		case len(rows) > 1:
			s.logger.Error(ctx, "email matches several users", "email", email, "count", len(rows))
			return common.ErrorContactSupport
		}

		user := rows[0]
		if bcrypt.CompareHashAndPassword([]byte(user.Get(query.ColPassword)), []byte(password)) != nil {
			return common.ErrorNotFound
		}

		session, err := s.sessions.RenewIfExpired(ctx, repo, user.ID, user.Token, user.TokenExpiry)
		if err != nil {
			return err
		}
		result = &models.LoginResult{Email: email, Token: session.Token, TokenExpiry: session.ExpiryString()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Me returns the profile of the token's owner.
func (s *DirectoryService) Me(ctx context.Context, token string) (query.Row, error) {
	var row query.Row
	err := s.uow.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		id, err := s.sessions.Verify(ctx, s.repomanager.Users(tx), token)
		if err != nil {
			return err
		}
		row, err = s.getOne(ctx, tx, ownerSearch(id))
		return err
	})
	return row, err
}

// UpdateMe applies updates to the token owner's profile and returns it.
func (s *DirectoryService) UpdateMe(ctx context.Context, token string, updates map[string]any) (query.Row, error) {
	changes, err := s.prepareChanges(updates)
	if err != nil {
		return query.Row{}, err
	}

	var row query.Row
	err = s.uow.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		id, err := s.sessions.Verify(ctx, s.repomanager.Users(tx), token)
		if err != nil {
			return err
		}
		search := ownerSearch(id)
		if err := s.setUser(ctx, tx, search, changes); err != nil {
			return err
		}
		row, err = s.getOne(ctx, tx, search)
		return err
	})
	return row, err
}

// GetProfile returns the public profile of the mentor owning searchKey.
func (s *DirectoryService) GetProfile(ctx context.Context, searchKey string) (query.Row, error) {
	var row query.Row
	err := s.uow.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		row, err = s.getOne(ctx, tx, query.Where(
			query.Eq(query.ColTypeUser, common.TypeMentor),
			query.Eq(query.ColSearchKey, searchKey),
		))
		return err
	})
	return row, err
}

// SearchMentors finds mentors whose name contains any term or who are
// tagged with any term.
func (s *DirectoryService) SearchMentors(ctx context.Context, terms []string) ([]query.Row, error) {
	cleaned := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return []query.Row{}, nil
	}

	var rows []query.Row
	err := s.uow.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		ids, err := s.repomanager.Users(tx).FindMentorIDs(ctx, cleaned)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			rows = []query.Row{}
			return nil
		}

		anyIDs := make([]any, len(ids))
		for i, id := range ids {
			anyIDs[i] = id
		}
		rows, err = s.getUsers(ctx, tx, query.SearchFromMap(map[string]any{
			query.ColID:       anyIDs,
			query.ColTypeUser: common.TypeMentor,
		}), nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *DirectoryService) getOne(ctx context.Context, tx dbx.DBTX, search query.Search) (query.Row, error) {
	rows, err := s.getUsers(ctx, tx, search, nil)
	if err != nil {
		return query.Row{}, err
	}
	if len(rows) == 0 {
		return query.Row{}, common.ErrorNotFound
	}
	return rows[0], nil
}

func ownerSearch(id models.Identity) query.Search {
	return query.Where(query.Eq(query.ColID, id.ID), query.Eq(query.ColTypeUser, id.TypeUser))
}
