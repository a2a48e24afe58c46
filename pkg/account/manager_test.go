package account

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-account/pkg/accountstore"
	"github.com/tendant/simple-account/pkg/notice"
)

// hookStore wraps the in-memory store and lets a test force individual store
// calls to fail.
type hookStore struct {
	*accountstore.InMemoryStore
	setEmailErr    error
	setUsernameErr error
}

func (s *hookStore) SetEmail(ctx context.Context, id uuid.UUID, email string) error {
	if s.setEmailErr != nil {
		return s.setEmailErr
	}
	return s.InMemoryStore.SetEmail(ctx, id, email)
}

func (s *hookStore) SetUsername(ctx context.Context, id uuid.UUID, username string) error {
	if s.setUsernameErr != nil {
		return s.setUsernameErr
	}
	return s.InMemoryStore.SetUsername(ctx, id, username)
}

// recordingNotifier records every notice it receives.
type recordingNotifier struct {
	kinds []notice.Kind
	tos   []string
}

func (n *recordingNotifier) Notify(ctx context.Context, kind notice.Kind, to string) error {
	n.kinds = append(n.kinds, kind)
	n.tos = append(n.tos, to)
	return nil
}

func newTestManager(t *testing.T, opts ...ManagerOption) (*Manager, *accountstore.InMemoryStore) {
	t.Helper()
	store := accountstore.NewInMemoryStore(nil)
	opts = append([]ManagerOption{WithRoleStore(store)}, opts...)
	manager := NewManager(store, opts...)
	t.Cleanup(func() { manager.Close() })
	return manager, store
}

func seedAccount(t *testing.T, manager *Manager, store *accountstore.InMemoryStore, email string, roles ...string) accountstore.User {
	t.Helper()
	ctx := context.Background()
	for _, name := range roles {
		_, err := store.CreateRole(ctx, name)
		require.NoError(t, err)
	}
	res, err := manager.Create(ctx, AccountView{
		Email:    email,
		Password: "Password1!",
		Roles:    roles,
	})
	require.NoError(t, err)
	require.True(t, res.Succeeded, "seed create failed: %v", res.Errors)

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	for _, u := range users {
		if u.Email == email {
			return u
		}
	}
	t.Fatalf("seeded account %s not found", email)
	return accountstore.User{}
}

func TestCreateAndFindByID(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()

	user := seedAccount(t, manager, store, "alice@example.com", "admin")

	view, err := manager.FindByID(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), view.ID)
	assert.Equal(t, "alice@example.com", view.Email)
	assert.Equal(t, []string{"admin"}, view.Roles)
	assert.Empty(t, view.Password, "read paths must never expose the password")

	// The username mirrors the email from the moment of creation.
	assert.Equal(t, user.Email, user.Username)
}

func TestCreateEmptyEmailFails(t *testing.T) {
	manager, _ := newTestManager(t)

	res, err := manager.Create(context.Background(), AccountView{Email: "   ", Password: "Password1!"})
	require.NoError(t, err)
	assert.False(t, res.Succeeded)
	assert.True(t, res.HasCode(string(accountstore.ErrCodeInvalidEmail)))
}

func TestCreateDuplicateEmailFails(t *testing.T) {
	manager, store := newTestManager(t)
	seedAccount(t, manager, store, "alice@example.com")

	res, err := manager.Create(context.Background(), AccountView{
		Email:    "alice@example.com",
		Password: "Password1!",
	})
	require.NoError(t, err)
	assert.False(t, res.Succeeded)
	assert.True(t, res.HasCode(string(accountstore.ErrCodeDuplicateEmail)))
}

func TestCreateWeakPasswordReportsEveryViolation(t *testing.T) {
	manager, _ := newTestManager(t)

	res, err := manager.Create(context.Background(), AccountView{
		Email:    "bob@example.com",
		Password: "short",
	})
	require.NoError(t, err)
	assert.False(t, res.Succeeded)
	assert.True(t, res.HasCode(string(accountstore.ErrCodePasswordTooShort)))
	assert.True(t, res.HasCode(string(accountstore.ErrCodePasswordRequiresUpper)))
	assert.True(t, res.HasCode(string(accountstore.ErrCodePasswordRequiresDigit)))
	assert.True(t, res.HasCode(string(accountstore.ErrCodePasswordRequiresSpecial)))
}

func TestCreateRoleStepFailureKeepsAccount(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()

	// The role was never created, so the role step must fail after the
	// account itself has been stored.
	res, err := manager.Create(ctx, AccountView{
		Email:    "carol@example.com",
		Password: "Password1!",
		Roles:    []string{"missing-role"},
	})
	require.NoError(t, err)
	assert.False(t, res.Succeeded)
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, CodeRoleAssignmentIncomplete, res.Errors[0].Code)
	assert.True(t, res.HasCode(string(accountstore.ErrCodeRoleNotFound)))

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "carol@example.com", users[0].Email)
}

func TestCreateSendsNotice(t *testing.T) {
	notifier := &recordingNotifier{}
	manager, store := newTestManager(t, WithNotifier(notifier))
	seedAccount(t, manager, store, "alice@example.com")

	require.Len(t, notifier.kinds, 1)
	assert.Equal(t, notice.AccountCreated, notifier.kinds[0])
	assert.Equal(t, "alice@example.com", notifier.tos[0])
}

func TestUpdateUnknownAccountFails(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	for _, id := range []string{"not-a-uuid", uuid.NewString()} {
		res, err := manager.Update(ctx, AccountView{ID: id, Email: "ghost@example.com"})
		require.NoError(t, err)
		assert.False(t, res.Succeeded)
		assert.True(t, res.HasCode(CodeAccountNotFound))
	}
}

func TestUpdateEmailMirrorsUsername(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()
	user := seedAccount(t, manager, store, "alice@example.com")

	res, err := manager.Update(ctx, AccountView{
		ID:    user.ID.String(),
		Email: "alice.new@example.com",
	})
	require.NoError(t, err)
	assert.True(t, res.Succeeded, "update failed: %v", res.Errors)

	updated, err := store.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice.new@example.com", updated.Email)
	assert.Equal(t, "alice.new@example.com", updated.Username)
}

func TestUpdateAccumulatesSubStepFailures(t *testing.T) {
	inner := accountstore.NewInMemoryStore(nil)
	store := &hookStore{
		InMemoryStore:  inner,
		setEmailErr:    accountstore.NewError(accountstore.ErrCodeDuplicateEmail, "email taken"),
		setUsernameErr: accountstore.NewError(accountstore.ErrCodeDuplicateUsername, "username taken"),
	}
	manager := NewManager(store, WithRoleStore(store))
	defer manager.Close()
	ctx := context.Background()

	user, err := inner.CreateUser(ctx, accountstore.CreateUserParams{
		Email:    "alice@example.com",
		Username: "alice@example.com",
		Password: "Password1!",
	})
	require.NoError(t, err)

	res, err := manager.Update(ctx, AccountView{
		ID:       user.ID.String(),
		Email:    "taken@example.com",
		Password: "short",
	})
	require.NoError(t, err)
	assert.False(t, res.Succeeded)

	// Every failing sub-step is reported, in step order: email, username,
	// then each password policy violation.
	require.GreaterOrEqual(t, len(res.Errors), 3)
	assert.Equal(t, string(accountstore.ErrCodeDuplicateEmail), res.Errors[0].Code)
	assert.Equal(t, string(accountstore.ErrCodeDuplicateUsername), res.Errors[1].Code)
	assert.True(t, res.HasCode(string(accountstore.ErrCodePasswordTooShort)))
}

func TestUpdateBlankPasswordIsNoOp(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()
	user := seedAccount(t, manager, store, "alice@example.com")

	res, err := manager.Update(ctx, AccountView{
		ID:       user.ID.String(),
		Email:    "alice@example.com",
		Password: "   ",
	})
	require.NoError(t, err)
	assert.True(t, res.Succeeded, "update failed: %v", res.Errors)

	ok, err := store.CheckPassword(ctx, user.ID, "Password1!")
	require.NoError(t, err)
	assert.True(t, ok, "blank password must not change the credential")
}

func TestUpdateChangesPasswordAndNotifies(t *testing.T) {
	notifier := &recordingNotifier{}
	manager, store := newTestManager(t, WithNotifier(notifier))
	ctx := context.Background()
	user := seedAccount(t, manager, store, "alice@example.com")

	res, err := manager.Update(ctx, AccountView{
		ID:       user.ID.String(),
		Email:    "alice@example.com",
		Password: "NewSecret2@",
	})
	require.NoError(t, err)
	assert.True(t, res.Succeeded, "update failed: %v", res.Errors)

	ok, err := store.CheckPassword(ctx, user.ID, "NewSecret2@")
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, notifier.kinds, 2)
	assert.Equal(t, notice.PasswordChanged, notifier.kinds[1])
}

func TestUpdateReconcilesRoles(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()
	user := seedAccount(t, manager, store, "alice@example.com", "reader", "writer")
	_, err := store.CreateRole(ctx, "auditor")
	require.NoError(t, err)

	res, err := manager.Update(ctx, AccountView{
		ID:    user.ID.String(),
		Email: "alice@example.com",
		Roles: []string{"writer", "auditor"},
	})
	require.NoError(t, err)
	assert.True(t, res.Succeeded, "update failed: %v", res.Errors)

	roles, err := store.GetRolesForUser(ctx, user.ID)
	require.NoError(t, err)
	sort.Strings(roles)
	assert.Equal(t, []string{"auditor", "writer"}, roles)
}

func TestUpdateClearsRolesWhenNoneRequested(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()
	user := seedAccount(t, manager, store, "alice@example.com", "reader")

	res, err := manager.Update(ctx, AccountView{
		ID:    user.ID.String(),
		Email: "alice@example.com",
	})
	require.NoError(t, err)
	assert.True(t, res.Succeeded, "update failed: %v", res.Errors)

	roles, err := store.GetRolesForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestDelete(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()
	user := seedAccount(t, manager, store, "alice@example.com")

	res, err := manager.Delete(ctx, AccountView{ID: user.ID.String()})
	require.NoError(t, err)
	assert.True(t, res.Succeeded)

	_, err = manager.FindByID(ctx, user.ID.String())
	assert.ErrorIs(t, err, accountstore.ErrUserNotFound)
}

func TestDeleteUnknownAccountFails(t *testing.T) {
	manager, _ := newTestManager(t)

	res, err := manager.Delete(context.Background(), AccountView{ID: uuid.NewString()})
	require.NoError(t, err)
	assert.False(t, res.Succeeded)
	assert.True(t, res.HasCode(CodeAccountNotFound))
}

func TestFindByIDMalformedID(t *testing.T) {
	manager, _ := newTestManager(t)

	_, err := manager.FindByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, accountstore.ErrUserNotFound)
}

func TestSearchReturnsEveryAccount(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()
	seedAccount(t, manager, store, "alice@example.com", "admin")
	seedAccount(t, manager, store, "bob@example.com")

	// The filter is accepted but not applied yet, so filtered always equals
	// total.
	qr, err := manager.Search(ctx, SearchDescriptor{Search: "alice"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), qr.TotalCount)
	assert.Equal(t, qr.TotalCount, qr.FilteredCount)
	assert.Len(t, qr.Results, 2)

	for _, view := range qr.Results {
		if view.Email == "alice@example.com" {
			assert.Equal(t, []string{"admin"}, view.Roles)
		}
	}
}

func TestSearchRoles(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()
	for _, name := range []string{"admin", "administrator", "reader"} {
		_, err := store.CreateRole(ctx, name)
		require.NoError(t, err)
	}

	names, err := manager.SearchRoles(ctx, "admin")
	require.NoError(t, err)
	sort.Strings(names)
	assert.Equal(t, []string{"admin", "administrator"}, names)

	all, err := manager.SearchRoles(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSearchRolesWithoutCapability(t *testing.T) {
	store := accountstore.NewInMemoryStore(nil)
	manager := NewManager(store)
	defer manager.Close()

	names, err := manager.SearchRoles(context.Background(), "admin")
	require.NoError(t, err)
	assert.Nil(t, names)
}

func TestCloseIsIdempotent(t *testing.T) {
	store := accountstore.NewInMemoryStore(nil)
	manager := NewManager(store)

	assert.NoError(t, manager.Close())
	assert.NoError(t, manager.Close())

	_, err := manager.FindByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrManagerClosed)

	_, err = manager.Create(context.Background(), AccountView{Email: "x@example.com", Password: "Password1!"})
	assert.ErrorIs(t, err, ErrManagerClosed)
}
