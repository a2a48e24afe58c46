package accountstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// InMemoryStore implements AccountStore and RoleStore using in-memory
// storage. All data is lost when the process stops; use the Postgres store
// for production.
type InMemoryStore struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]User
	credentials map[uuid.UUID][]byte
	resetTokens map[uuid.UUID]string
	roles       map[uuid.UUID]Role
	userRoles   map[uuid.UUID]map[string]struct{} // userID -> set of role names
	policy      *PasswordPolicy
}

// NewInMemoryStore creates a new in-memory account store.
func NewInMemoryStore(policy *PasswordPolicy) *InMemoryStore {
	if policy == nil {
		policy = DefaultPasswordPolicy()
	}
	return &InMemoryStore{
		users:       make(map[uuid.UUID]User),
		credentials: make(map[uuid.UUID][]byte),
		resetTokens: make(map[uuid.UUID]string),
		roles:       make(map[uuid.UUID]Role),
		userRoles:   make(map[uuid.UUID]map[string]struct{}),
		policy:      policy,
	}
}

// CreateUser creates a new user with a hashed credential.
func (s *InMemoryStore) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
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

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.DeletedAt != nil {
			continue
		}
		if u.Email == params.Email {
			return User{}, Newf(ErrCodeDuplicateEmail, "email %s is already taken", params.Email)
		}
		if u.Username == params.Username {
			return User{}, Newf(ErrCodeDuplicateUsername, "username %s is already taken", params.Username)
		}
	}

	now := time.Now()
	user := User{
		ID:             uuid.New(),
		CreatedAt:      now,
		LastModifiedAt: now,
		Email:          params.Email,
		Username:       params.Username,
	}
	s.users[user.ID] = user
	s.credentials[user.ID] = hash
	s.userRoles[user.ID] = make(map[string]struct{})
	return user, nil
}

// FindUserByID looks a user up by id.
func (s *InMemoryStore) FindUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(id)
}

func (s *InMemoryStore) findLocked(id uuid.UUID) (User, error) {
	user, ok := s.users[id]
	if !ok || user.DeletedAt != nil {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

// ListUsers returns every live user.
func (s *InMemoryStore) ListUsers(ctx context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]User, 0, len(s.users))
	for _, u := range s.users {
		if u.DeletedAt != nil {
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

// CountUsers returns the number of live users.
func (s *InMemoryStore) CountUsers(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, u := range s.users {
		if u.DeletedAt == nil {
			n++
		}
	}
	return n, nil
}

// SetEmail changes a user's email address.
func (s *InMemoryStore) SetEmail(ctx context.Context, id uuid.UUID, email string) error {
	if strings.TrimSpace(email) == "" {
		return NewError(ErrCodeInvalidEmail, "email must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.findLocked(id)
	if err != nil {
		return err
	}
	for _, u := range s.users {
		if u.ID != id && u.DeletedAt == nil && u.Email == email {
			return Newf(ErrCodeDuplicateEmail, "email %s is already taken", email)
		}
	}
	user.Email = email
	user.LastModifiedAt = time.Now()
	s.users[id] = user
	return nil
}

// SetUsername changes a user's username.
func (s *InMemoryStore) SetUsername(ctx context.Context, id uuid.UUID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.findLocked(id)
	if err != nil {
		return err
	}
	for _, u := range s.users {
		if u.ID != id && u.DeletedAt == nil && u.Username == username {
			return Newf(ErrCodeDuplicateUsername, "username %s is already taken", username)
		}
	}
	user.Username = username
	user.LastModifiedAt = time.Now()
	s.users[id] = user
	return nil
}

// GeneratePasswordResetToken issues a one-time reset credential for the user.
func (s *InMemoryStore) GeneratePasswordResetToken(ctx context.Context, id uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.findLocked(id); err != nil {
		return "", err
	}
	token, err := generateResetToken()
	if err != nil {
		return "", Wrap(err, ErrCodeStoreFailure, "failed to generate reset token")
	}
	s.resetTokens[id] = token
	return token, nil
}

// ResetPassword applies a new password using a previously issued token. The
// token is consumed whether or not the new password passes the policy check.
func (s *InMemoryStore) ResetPassword(ctx context.Context, id uuid.UUID, token, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.findLocked(id); err != nil {
		return err
	}
	stored, ok := s.resetTokens[id]
	if !ok || stored != token {
		return NewError(ErrCodeInvalidToken, "invalid or expired reset token")
	}
	delete(s.resetTokens, id)

	if err := s.policy.Check(newPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return Wrap(err, ErrCodeStoreFailure, "failed to hash password")
	}
	s.credentials[id] = hash
	return nil
}

// CheckPassword reports whether the given password matches the stored
// credential. Exposed for tests and seeding; this layer does no login.
func (s *InMemoryStore) CheckPassword(ctx context.Context, id uuid.UUID, password string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hash, ok := s.credentials[id]
	if !ok {
		return false, ErrUserNotFound
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil, nil
}

// DeleteUser soft-deletes a user.
func (s *InMemoryStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.findLocked(id)
	if err != nil {
		return err
	}
	now := time.Now()
	user.DeletedAt = &now
	s.users[id] = user
	delete(s.resetTokens, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}

// CreateRole adds a new role.
func (s *InMemoryStore) CreateRole(ctx context.Context, name string) (Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.roles {
		if r.Name == name {
			return r, nil
		}
	}
	role := Role{ID: uuid.New(), Name: name}
	s.roles[role.ID] = role
	return role, nil
}

// ListRoles returns all roles.
func (s *InMemoryStore) ListRoles(ctx context.Context) ([]Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roles := make([]Role, 0, len(s.roles))
	for _, r := range s.roles {
		roles = append(roles, r)
	}
	return roles, nil
}

// GetRolesForUser returns the names of the roles the user holds.
func (s *InMemoryStore) GetRolesForUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.findLocked(userID); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(s.userRoles[userID]))
	for name := range s.userRoles[userID] {
		names = append(names, name)
	}
	return names, nil
}

// AddUserToRoles assigns the named roles to the user. Every role must exist.
func (s *InMemoryStore) AddUserToRoles(ctx context.Context, userID uuid.UUID, roles []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.findLocked(userID); err != nil {
		return err
	}
	for _, name := range roles {
		if !s.roleExistsLocked(name) {
			return Newf(ErrCodeRoleNotFound, "role %s does not exist", name)
		}
	}
	if s.userRoles[userID] == nil {
		s.userRoles[userID] = make(map[string]struct{})
	}
	for _, name := range roles {
		s.userRoles[userID][name] = struct{}{}
	}
	return nil
}

// RemoveUserFromRoles removes the named roles from the user. Removing a role
// the user does not hold is not an error.
func (s *InMemoryStore) RemoveUserFromRoles(ctx context.Context, userID uuid.UUID, roles []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.findLocked(userID); err != nil {
		return err
	}
	for _, name := range roles {
		delete(s.userRoles[userID], name)
	}
	return nil
}

func (s *InMemoryStore) roleExistsLocked(name string) bool {
	for _, r := range s.roles {
		if r.Name == name {
			return true
		}
	}
	return false
}
