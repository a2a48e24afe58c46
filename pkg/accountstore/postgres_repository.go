package accountstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/tendant/simple-account/pkg/accountstore/accountdb"
)

// resetTokenTTL bounds how long a generated reset credential stays usable.
const resetTokenTTL = time.Hour

// PostgresStore implements AccountStore and RoleStore backed by PostgreSQL.
type PostgresStore struct {
	queries *accountdb.Queries
	pool    *pgxpool.Pool
	policy  *PasswordPolicy
}

// NewPostgresStore creates a PostgreSQL-backed account store. The pool is
// owned by the store and released by Close.
func NewPostgresStore(pool *pgxpool.Pool, policy *PasswordPolicy) *PostgresStore {
	if policy == nil {
		policy = DefaultPasswordPolicy()
	}
	return &PostgresStore{
		queries: accountdb.New(pool),
		pool:    pool,
		policy:  policy,
	}
}

// NewPostgresStoreWithQueries creates a store over existing queries. Close
// becomes a no-op; the caller keeps ownership of the connection.
func NewPostgresStoreWithQueries(queries *accountdb.Queries, policy *PasswordPolicy) *PostgresStore {
	if policy == nil {
		policy = DefaultPasswordPolicy()
	}
	return &PostgresStore{queries: queries, policy: policy}
}

func (s *PostgresStore) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	if strings.TrimSpace(params.Email) == "" {
		return User{}, NewError(ErrCodeInvalidEmail, "email must not be empty")
	}
	if err := s.policy.Check(params.Password); err != nil {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, Wrap(err, ErrCodeStoreFailure, "failed to hash password")
	}

	account, err := s.queries.CreateAccount(ctx, accountdb.CreateAccountParams{
		ID:       uuid.New(),
		Email:    params.Email,
		Username: params.Username,
		Password: hash,
	})
	if err != nil {
		return User{}, translateError(err, params.Email, params.Username)
	}
	return fromDBAccount(account), nil
}

func (s *PostgresStore) FindUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	account, err := s.queries.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, Wrap(err, ErrCodeStoreFailure, "failed to find account")
	}
	return fromDBAccount(account), nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	accounts, err := s.queries.ListAccounts(ctx)
	if err != nil {
		return nil, Wrap(err, ErrCodeStoreFailure, "failed to list accounts")
	}
	users := make([]User, 0, len(accounts))
	for _, a := range accounts {
		users = append(users, fromDBAccount(a))
	}
	return users, nil
}

func (s *PostgresStore) CountUsers(ctx context.Context) (int64, error) {
	count, err := s.queries.CountAccounts(ctx)
	if err != nil {
		return 0, Wrap(err, ErrCodeStoreFailure, "failed to count accounts")
	}
	return count, nil
}

func (s *PostgresStore) SetEmail(ctx context.Context, id uuid.UUID, email string) error {
	if strings.TrimSpace(email) == "" {
		return NewError(ErrCodeInvalidEmail, "email must not be empty")
	}
	affected, err := s.queries.UpdateAccountEmail(ctx, accountdb.UpdateAccountEmailParams{ID: id, Email: email})
	if err != nil {
		return translateError(err, email, "")
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *PostgresStore) SetUsername(ctx context.Context, id uuid.UUID, username string) error {
	affected, err := s.queries.UpdateAccountUsername(ctx, accountdb.UpdateAccountUsernameParams{ID: id, Username: username})
	if err != nil {
		return translateError(err, "", username)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *PostgresStore) GeneratePasswordResetToken(ctx context.Context, id uuid.UUID) (string, error) {
	token, err := generateResetToken()
	if err != nil {
		return "", Wrap(err, ErrCodeStoreFailure, "failed to generate reset token")
	}
	affected, err := s.queries.SetResetToken(ctx, accountdb.SetResetTokenParams{ID: id, ResetToken: token})
	if err != nil {
		return "", Wrap(err, ErrCodeStoreFailure, "failed to save reset token")
	}
	if affected == 0 {
		return "", ErrUserNotFound
	}
	return token, nil
}

func (s *PostgresStore) ResetPassword(ctx context.Context, id uuid.UUID, token, newPassword string) error {
	account, err := s.queries.GetResetToken(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return Wrap(err, ErrCodeStoreFailure, "failed to load reset token")
	}
	if !account.ResetToken.Valid || account.ResetToken.String != token {
		return NewError(ErrCodeInvalidToken, "invalid or expired reset token")
	}
	if account.ResetTokenAt.Valid && time.Since(account.ResetTokenAt.Time) > resetTokenTTL {
		return NewError(ErrCodeInvalidToken, "invalid or expired reset token")
	}

	if err := s.policy.Check(newPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return Wrap(err, ErrCodeStoreFailure, "failed to hash password")
	}
	affected, err := s.queries.UpdateAccountPassword(ctx, accountdb.UpdateAccountPasswordParams{ID: id, Password: hash})
	if err != nil {
		return Wrap(err, ErrCodeStoreFailure, "failed to update password")
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	affected, err := s.queries.SoftDeleteAccount(ctx, id)
	if err != nil {
		return Wrap(err, ErrCodeStoreFailure, "failed to delete account")
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) CreateRole(ctx context.Context, name string) (Role, error) {
	role, err := s.queries.CreateRole(ctx, name)
	if err != nil {
		return Role{}, Wrap(err, ErrCodeStoreFailure, "failed to create role")
	}
	return Role{ID: role.ID, Name: role.Name}, nil
}

func (s *PostgresStore) ListRoles(ctx context.Context) ([]Role, error) {
	dbRoles, err := s.queries.ListRoles(ctx)
	if err != nil {
		return nil, Wrap(err, ErrCodeStoreFailure, "failed to list roles")
	}
	roles := make([]Role, 0, len(dbRoles))
	for _, r := range dbRoles {
		roles = append(roles, Role{ID: r.ID, Name: r.Name})
	}
	return roles, nil
}

func (s *PostgresStore) GetRolesForUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	names, err := s.queries.GetAccountRoles(ctx, userID)
	if err != nil {
		return nil, Wrap(err, ErrCodeStoreFailure, "failed to get account roles")
	}
	return names, nil
}

func (s *PostgresStore) AddUserToRoles(ctx context.Context, userID uuid.UUID, roles []string) error {
	for _, name := range roles {
		role, err := s.queries.GetRoleByName(ctx, name)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Newf(ErrCodeRoleNotFound, "role %s does not exist", name)
			}
			return Wrap(err, ErrCodeStoreFailure, "failed to look up role")
		}
		if err := s.queries.AddAccountRole(ctx, accountdb.AddAccountRoleParams{
			AccountID: userID,
			RoleID:    role.ID,
		}); err != nil {
			return Wrap(err, ErrCodeStoreFailure, "failed to assign role")
		}
	}
	return nil
}

func (s *PostgresStore) RemoveUserFromRoles(ctx context.Context, userID uuid.UUID, roles []string) error {
	if len(roles) == 0 {
		return nil
	}
	if err := s.queries.RemoveAccountRoles(ctx, accountdb.RemoveAccountRolesParams{
		AccountID: userID,
		Names:     roles,
	}); err != nil {
		return Wrap(err, ErrCodeStoreFailure, "failed to remove roles")
	}
	return nil
}

func fromDBAccount(a accountdb.Account) User {
	user := User{
		ID:             a.ID,
		CreatedAt:      a.CreatedAt,
		LastModifiedAt: a.LastModifiedAt,
		Email:          a.Email,
		Username:       a.Username,
	}
	if a.DeletedAt.Valid {
		deletedAt := a.DeletedAt.Time
		user.DeletedAt = &deletedAt
	}
	return user
}

// translateError maps PostgreSQL constraint violations to store rejection
// codes so callers see them verbatim instead of driver internals.
func translateError(err error, email, username string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "email"):
			return Newf(ErrCodeDuplicateEmail, "email %s is already taken", email)
		case strings.Contains(pgErr.ConstraintName, "username"):
			return Newf(ErrCodeDuplicateUsername, "username %s is already taken", username)
		}
	}
	return Wrap(err, ErrCodeStoreFailure, "account store rejected the operation")
}
