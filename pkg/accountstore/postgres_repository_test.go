package accountstore

import (
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDatabase(t *testing.T) (*pgxpool.Pool, func()) {
	ctx := context.Background()

	dbName := "accounts_db"
	dbUser := "accounts"
	dbPassword := "pwd"

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithInitScripts(filepath.Join("../../migrations", "accounts_db.sql")),
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	require.NoError(t, err)

	connString, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	poolConfig, err := pgxpool.ParseConfig(connString)
	require.NoError(t, err)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

func TestPostgresAccountLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pool, cleanup := setupTestDatabase(t)
	defer cleanup()

	pgStore := NewPostgresStore(pool, nil)
	ctx := context.Background()

	user, err := pgStore.CreateUser(ctx, CreateUserParams{
		Email:    "alice@example.com",
		Username: "alice@example.com",
		Password: "Password1!",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)

	found, err := pgStore.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", found.Email)
	assert.Equal(t, "alice@example.com", found.Username)

	// A second account with the same email hits the partial unique index.
	_, err = pgStore.CreateUser(ctx, CreateUserParams{
		Email:    "alice@example.com",
		Username: "alice2@example.com",
		Password: "Password1!",
	})
	var storeErr *Error
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, ErrCodeDuplicateEmail, storeErr.Code)

	require.NoError(t, pgStore.SetEmail(ctx, user.ID, "alice.new@example.com"))
	require.NoError(t, pgStore.SetUsername(ctx, user.ID, "alice.new@example.com"))

	found, err = pgStore.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice.new@example.com", found.Email)
	assert.Equal(t, "alice.new@example.com", found.Username)

	count, err := pgStore.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, pgStore.DeleteUser(ctx, user.ID))
	_, err = pgStore.FindUserByID(ctx, user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	// The email is free for reuse after the soft delete.
	_, err = pgStore.CreateUser(ctx, CreateUserParams{
		Email:    "alice.new@example.com",
		Username: "alice.new@example.com",
		Password: "Password1!",
	})
	assert.NoError(t, err)
}

func TestPostgresPasswordReset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pool, cleanup := setupTestDatabase(t)
	defer cleanup()

	store := NewPostgresStore(pool, nil)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, CreateUserParams{
		Email:    "bob@example.com",
		Username: "bob@example.com",
		Password: "Password1!",
	})
	require.NoError(t, err)

	token, err := store.GeneratePasswordResetToken(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	err = store.ResetPassword(ctx, user.ID, "wrong-token", "NewSecret2@")
	var storeErr *Error
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, ErrCodeInvalidToken, storeErr.Code)

	require.NoError(t, store.ResetPassword(ctx, user.ID, token, "NewSecret2@"))

	_, err = store.GeneratePasswordResetToken(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPostgresRoles(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pool, cleanup := setupTestDatabase(t)
	defer cleanup()

	store := NewPostgresStore(pool, nil)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, CreateUserParams{
		Email:    "carol@example.com",
		Username: "carol@example.com",
		Password: "Password1!",
	})
	require.NoError(t, err)

	_, err = store.CreateRole(ctx, "admin")
	require.NoError(t, err)
	_, err = store.CreateRole(ctx, "reader")
	require.NoError(t, err)

	err = store.AddUserToRoles(ctx, user.ID, []string{"missing"})
	var storeErr *Error
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, ErrCodeRoleNotFound, storeErr.Code)

	require.NoError(t, store.AddUserToRoles(ctx, user.ID, []string{"admin", "reader"}))

	roles, err := store.GetRolesForUser(ctx, user.ID)
	require.NoError(t, err)
	sort.Strings(roles)
	assert.Equal(t, []string{"admin", "reader"}, roles)

	require.NoError(t, store.RemoveUserFromRoles(ctx, user.ID, []string{"admin"}))

	roles, err = store.GetRolesForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"reader"}, roles)

	all, err := store.ListRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
