package accountstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrUserNotFound = errors.New("user not found")
	ErrRoleNotFound = errors.New("role not found")
)

// ErrorCode identifies a store rejection. Codes are surfaced verbatim to
// callers, so they are stable and machine-readable.
type ErrorCode string

const (
	ErrCodeStoreFailure      ErrorCode = "StoreFailure"
	ErrCodeInvalidEmail      ErrorCode = "InvalidEmail"
	ErrCodeDuplicateEmail    ErrorCode = "DuplicateEmail"
	ErrCodeDuplicateUsername ErrorCode = "DuplicateUserName"
	ErrCodeInvalidToken      ErrorCode = "InvalidToken"
	ErrCodeRoleNotFound      ErrorCode = "RoleNotFound"

	ErrCodePasswordTooShort        ErrorCode = "PasswordTooShort"
	ErrCodePasswordRequiresUpper   ErrorCode = "PasswordRequiresUpper"
	ErrCodePasswordRequiresLower   ErrorCode = "PasswordRequiresLower"
	ErrCodePasswordRequiresDigit   ErrorCode = "PasswordRequiresDigit"
	ErrCodePasswordRequiresSpecial ErrorCode = "PasswordRequiresNonAlphanumeric"
)

// Error is a store rejection with a stable code and a human-readable message.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a store error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a store error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// AccountStore is the identity store this layer delegates all durable user
// state to. Implementations own transactional guarantees; callers get no
// cross-call atomicity.
type AccountStore interface {
	CreateUser(ctx context.Context, params CreateUserParams) (User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	CountUsers(ctx context.Context) (int64, error)
	SetEmail(ctx context.Context, id uuid.UUID, email string) error
	SetUsername(ctx context.Context, id uuid.UUID, username string) error
	GeneratePasswordResetToken(ctx context.Context, id uuid.UUID) (string, error)
	ResetPassword(ctx context.Context, id uuid.UUID, token, newPassword string) error
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// Close releases the store handle. Implementations must tolerate
	// repeated calls.
	Close() error
}

// RoleStore is the optional role-management capability. A store that does not
// implement it simply disables role assignment in the manager.
type RoleStore interface {
	CreateRole(ctx context.Context, name string) (Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	GetRolesForUser(ctx context.Context, userID uuid.UUID) ([]string, error)
	AddUserToRoles(ctx context.Context, userID uuid.UUID, roles []string) error
	RemoveUserFromRoles(ctx context.Context, userID uuid.UUID, roles []string) error
}
