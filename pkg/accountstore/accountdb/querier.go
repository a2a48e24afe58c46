package accountdb

import (
	"context"

	"github.com/google/uuid"
)

type Querier interface {
	CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error)
	GetAccountByID(ctx context.Context, id uuid.UUID) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	CountAccounts(ctx context.Context) (int64, error)
	UpdateAccountEmail(ctx context.Context, arg UpdateAccountEmailParams) (int64, error)
	UpdateAccountUsername(ctx context.Context, arg UpdateAccountUsernameParams) (int64, error)
	SetResetToken(ctx context.Context, arg SetResetTokenParams) (int64, error)
	GetResetToken(ctx context.Context, id uuid.UUID) (Account, error)
	UpdateAccountPassword(ctx context.Context, arg UpdateAccountPasswordParams) (int64, error)
	SoftDeleteAccount(ctx context.Context, id uuid.UUID) (int64, error)
	CreateRole(ctx context.Context, name string) (Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	GetRoleByName(ctx context.Context, name string) (Role, error)
	GetAccountRoles(ctx context.Context, accountID uuid.UUID) ([]string, error)
	AddAccountRole(ctx context.Context, arg AddAccountRoleParams) error
	RemoveAccountRoles(ctx context.Context, arg RemoveAccountRolesParams) error
}

var _ Querier = (*Queries)(nil)
