package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/tendant/simple-account/pkg/accountstore"
	"github.com/tendant/simple-account/pkg/notice"
	"github.com/tendant/simple-account/pkg/result"
)

// ErrManagerClosed is returned by operations invoked after Close. It marks a
// caller contract violation, not an expected store failure.
var ErrManagerClosed = errors.New("account manager is closed")

// Manager orchestrates account lifecycle operations against the store
// adapter and aggregates sub-step outcomes into a single result. The manager
// itself is stateless across calls; all durable state lives in the store.
type Manager struct {
	store     accountstore.AccountStore
	roles     accountstore.RoleStore // optional capability; nil disables role management
	describer *ErrorDescriber
	mapView   ViewMapper
	notifier  notice.Notifier

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithRoleStore enables role assignment and role search.
func WithRoleStore(roles accountstore.RoleStore) ManagerOption {
	return func(m *Manager) {
		m.roles = roles
	}
}

// WithErrorDescriber sets the describer used for named failure conditions.
func WithErrorDescriber(describer *ErrorDescriber) ManagerOption {
	return func(m *Manager) {
		m.describer = describer
	}
}

// WithViewMapper sets the store-user-to-view mapping for this instance.
func WithViewMapper(mapView ViewMapper) ManagerOption {
	return func(m *Manager) {
		m.mapView = mapView
	}
}

// WithNotifier enables account lifecycle notices.
func WithNotifier(notifier notice.Notifier) ManagerOption {
	return func(m *Manager) {
		m.notifier = notifier
	}
}

// NewManager creates an account manager over the given store.
func NewManager(store accountstore.AccountStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:     store,
		describer: NewErrorDescriber(),
		mapView:   DefaultViewMapper,
		notifier:  notice.Noop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create provisions a new account keyed by email, with the email doubling as
// the username. When creation succeeds and the manager has the role
// capability, the requested roles are assigned afterwards; a role-step
// failure leaves the created account in place and is reported with
// RoleAssignmentIncomplete so callers can retry just that step.
func (m *Manager) Create(ctx context.Context, view AccountView) (result.Result, error) {
	if err := m.checkClosed(); err != nil {
		return result.Result{}, err
	}
	if strings.TrimSpace(view.Email) == "" {
		return result.Failed(result.Error{
			Code:        string(accountstore.ErrCodeInvalidEmail),
			Description: "email must not be empty",
		}), nil
	}

	user, err := m.store.CreateUser(ctx, accountstore.CreateUserParams{
		Email:    view.Email,
		Username: view.Email,
		Password: view.Password,
	})
	if err != nil {
		return result.Failed(genericErrors(err)...), nil
	}

	if m.roles != nil && len(view.Roles) > 0 {
		if err := m.roles.AddUserToRoles(ctx, user.ID, view.Roles); err != nil {
			slog.Error("Account created but role assignment failed",
				"userId", user.ID, "roles", view.Roles, "err", err)
			errs := append([]result.Error{m.describer.RoleAssignmentIncomplete(view.Email)},
				genericErrors(err)...)
			return result.Failed(errs...), nil
		}
	}

	m.notify(ctx, notice.AccountCreated, user.Email)
	return result.Success(), nil
}

// Update applies a multi-field mutation as ordered, independently-failing
// sub-steps, concatenating every sub-step failure into one result so callers
// can correct all problems in a single round trip. Email and username are
// changed in lockstep; a blank password skips the password step entirely.
func (m *Manager) Update(ctx context.Context, view AccountView) (result.Result, error) {
	if err := m.checkClosed(); err != nil {
		return result.Result{}, err
	}

	user, res := m.lookup(ctx, view.ID, view.Email)
	if !res.Succeeded {
		return res, nil
	}

	if err := m.store.SetEmail(ctx, user.ID, view.Email); err != nil {
		res = res.Merge(result.Failed(genericErrors(err)...))
	}
	// The username mirrors the email; set it even if the email step failed so
	// the two values are never silently left diverged.
	if err := m.store.SetUsername(ctx, user.ID, view.Email); err != nil {
		res = res.Merge(result.Failed(genericErrors(err)...))
	}

	if strings.TrimSpace(view.Password) != "" {
		token, err := m.store.GeneratePasswordResetToken(ctx, user.ID)
		if err != nil {
			res = res.Merge(result.Failed(genericErrors(err)...))
		} else if err := m.store.ResetPassword(ctx, user.ID, token, view.Password); err != nil {
			res = res.Merge(result.Failed(genericErrors(err)...))
		} else {
			m.notify(ctx, notice.PasswordChanged, view.Email)
		}
	}

	if m.roles != nil {
		res = m.reconcileRoles(ctx, user.ID, view.Roles, res)
	}

	return res, nil
}

// reconcileRoles diffs the account's current roles against the requested set
// and applies removals then additions, each as its own store call.
func (m *Manager) reconcileRoles(ctx context.Context, userID uuid.UUID, requested []string, res result.Result) result.Result {
	current, err := m.roles.GetRolesForUser(ctx, userID)
	if err != nil {
		return res.Merge(result.Failed(genericErrors(err)...))
	}

	var toRemove []string
	for _, name := range current {
		if !slices.Contains(requested, name) {
			toRemove = append(toRemove, name)
		}
	}
	var toAdd []string
	for _, name := range requested {
		if !slices.Contains(current, name) {
			toAdd = append(toAdd, name)
		}
	}

	if len(toRemove) > 0 {
		if err := m.roles.RemoveUserFromRoles(ctx, userID, toRemove); err != nil {
			res = res.Merge(result.Failed(genericErrors(err)...))
		}
	}
	if len(toAdd) > 0 {
		if err := m.roles.AddUserToRoles(ctx, userID, toAdd); err != nil {
			res = res.Merge(result.Failed(genericErrors(err)...))
		}
	}
	return res
}

// Delete removes the account identified by the view model's id.
func (m *Manager) Delete(ctx context.Context, view AccountView) (result.Result, error) {
	if err := m.checkClosed(); err != nil {
		return result.Result{}, err
	}

	user, res := m.lookup(ctx, view.ID, view.Email)
	if !res.Succeeded {
		return res, nil
	}

	if err := m.store.DeleteUser(ctx, user.ID); err != nil {
		if errors.Is(err, accountstore.ErrUserNotFound) {
			return result.Failed(m.describer.AccountNotFound(user.Email)), nil
		}
		return result.Failed(genericErrors(err)...), nil
	}
	return result.Success(), nil
}

// FindByID looks up an account and maps it to a view model. Absence is
// reported with accountstore.ErrUserNotFound; callers must handle it before
// using the view.
func (m *Manager) FindByID(ctx context.Context, id string) (*AccountView, error) {
	if err := m.checkClosed(); err != nil {
		return nil, err
	}

	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, accountstore.ErrUserNotFound
	}
	user, err := m.store.FindUserByID(ctx, uid)
	if err != nil {
		return nil, err
	}

	view := m.mapView(user)
	if m.roles != nil {
		roles, err := m.roles.GetRolesForUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		view.Roles = roles
	}
	return &view, nil
}

// Search returns every account with its role set populated.
//
// TODO: apply the descriptor's filtering and sorting. Until then all accounts
// are returned and FilteredCount always equals TotalCount.
func (m *Manager) Search(ctx context.Context, descriptor SearchDescriptor) (*QueryResult, error) {
	if err := m.checkClosed(); err != nil {
		return nil, err
	}
	_ = descriptor

	users, err := m.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]AccountView, 0, len(users))
	for _, user := range users {
		view := m.mapView(user)
		if m.roles != nil {
			roles, err := m.roles.GetRolesForUser(ctx, user.ID)
			if err != nil {
				return nil, err
			}
			view.Roles = roles
		}
		views = append(views, view)
	}

	total, err := m.store.CountUsers(ctx)
	if err != nil {
		return nil, err
	}

	return &QueryResult{
		TotalCount:    total,
		FilteredCount: total,
		Results:       views,
	}, nil
}

// SearchRoles returns role names containing the search substring. Without the
// role capability the result is always empty.
func (m *Manager) SearchRoles(ctx context.Context, search string) ([]string, error) {
	if err := m.checkClosed(); err != nil {
		return nil, err
	}
	if m.roles == nil {
		return nil, nil
	}

	roles, err := m.roles.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, role := range roles {
		if strings.Contains(role.Name, search) {
			names = append(names, role.Name)
		}
	}
	return names, nil
}

// Close releases the store handle. It is safe to call more than once; only
// the first call closes the store. Operations invoked after Close fail with
// ErrManagerClosed.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.closed.Store(true)
		m.closeErr = m.store.Close()
	})
	return m.closeErr
}

func (m *Manager) checkClosed() error {
	if m.closed.Load() {
		return ErrManagerClosed
	}
	return nil
}

// lookup resolves the view model's id to a store user. A missing or malformed
// id yields a failed result carrying the describer's AccountNotFound error.
func (m *Manager) lookup(ctx context.Context, id, email string) (accountstore.User, result.Result) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return accountstore.User{}, result.Failed(m.describer.AccountNotFound(email))
	}
	user, err := m.store.FindUserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, accountstore.ErrUserNotFound) {
			return accountstore.User{}, result.Failed(m.describer.AccountNotFound(email))
		}
		return accountstore.User{}, result.Failed(genericErrors(err)...)
	}
	return user, result.Success()
}

func (m *Manager) notify(ctx context.Context, kind notice.Kind, email string) {
	if err := m.notifier.Notify(ctx, kind, email); err != nil {
		slog.Error("Failed to send account notice", "kind", kind, "email", email, "err", err)
	}
}

// genericErrors translates a store failure into the generic error vocabulary.
// Joined errors (for example several password-policy violations) are
// flattened so each is surfaced verbatim.
func genericErrors(err error) []result.Error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var errs []result.Error
		for _, e := range joined.Unwrap() {
			errs = append(errs, genericErrors(e)...)
		}
		return errs
	}

	var storeErr *accountstore.Error
	if errors.As(err, &storeErr) {
		return []result.Error{{
			Code:        string(storeErr.Code),
			Description: storeErr.Message,
		}}
	}

	if errors.Is(err, accountstore.ErrUserNotFound) {
		return []result.Error{{
			Code:        CodeAccountNotFound,
			Description: err.Error(),
		}}
	}

	return []result.Error{{
		Code:        string(accountstore.ErrCodeStoreFailure),
		Description: err.Error(),
	}}
}
