package accountdb

import (
	"context"

	"github.com/google/uuid"
)

const createAccount = `
INSERT INTO accounts (id, email, username, password)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, last_modified_at, deleted_at, email, username, password, reset_token, reset_token_at
`

type CreateAccountParams struct {
	ID       uuid.UUID
	Email    string
	Username string
	Password []byte
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error) {
	row := q.db.QueryRow(ctx, createAccount, arg.ID, arg.Email, arg.Username, arg.Password)
	var a Account
	err := row.Scan(&a.ID, &a.CreatedAt, &a.LastModifiedAt, &a.DeletedAt,
		&a.Email, &a.Username, &a.Password, &a.ResetToken, &a.ResetTokenAt)
	return a, err
}

const getAccountByID = `
SELECT id, created_at, last_modified_at, deleted_at, email, username, password, reset_token, reset_token_at
FROM accounts
WHERE id = $1 AND deleted_at IS NULL
`

func (q *Queries) GetAccountByID(ctx context.Context, id uuid.UUID) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByID, id)
	var a Account
	err := row.Scan(&a.ID, &a.CreatedAt, &a.LastModifiedAt, &a.DeletedAt,
		&a.Email, &a.Username, &a.Password, &a.ResetToken, &a.ResetTokenAt)
	return a, err
}

const listAccounts = `
SELECT id, created_at, last_modified_at, deleted_at, email, username, password, reset_token, reset_token_at
FROM accounts
WHERE deleted_at IS NULL
ORDER BY created_at
`

func (q *Queries) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := q.db.Query(ctx, listAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.CreatedAt, &a.LastModifiedAt, &a.DeletedAt,
			&a.Email, &a.Username, &a.Password, &a.ResetToken, &a.ResetTokenAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const countAccounts = `
SELECT count(*) FROM accounts WHERE deleted_at IS NULL
`

func (q *Queries) CountAccounts(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countAccounts)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateAccountEmail = `
UPDATE accounts
SET email = $2, last_modified_at = now()
WHERE id = $1 AND deleted_at IS NULL
`

type UpdateAccountEmailParams struct {
	ID    uuid.UUID
	Email string
}

func (q *Queries) UpdateAccountEmail(ctx context.Context, arg UpdateAccountEmailParams) (int64, error) {
	tag, err := q.db.Exec(ctx, updateAccountEmail, arg.ID, arg.Email)
	return tag.RowsAffected(), err
}

const updateAccountUsername = `
UPDATE accounts
SET username = $2, last_modified_at = now()
WHERE id = $1 AND deleted_at IS NULL
`

type UpdateAccountUsernameParams struct {
	ID       uuid.UUID
	Username string
}

func (q *Queries) UpdateAccountUsername(ctx context.Context, arg UpdateAccountUsernameParams) (int64, error) {
	tag, err := q.db.Exec(ctx, updateAccountUsername, arg.ID, arg.Username)
	return tag.RowsAffected(), err
}

const setResetToken = `
UPDATE accounts
SET reset_token = $2, reset_token_at = now()
WHERE id = $1 AND deleted_at IS NULL
`

type SetResetTokenParams struct {
	ID         uuid.UUID
	ResetToken string
}

func (q *Queries) SetResetToken(ctx context.Context, arg SetResetTokenParams) (int64, error) {
	tag, err := q.db.Exec(ctx, setResetToken, arg.ID, arg.ResetToken)
	return tag.RowsAffected(), err
}

const getResetToken = `
SELECT id, created_at, last_modified_at, deleted_at, email, username, password, reset_token, reset_token_at
FROM accounts
WHERE id = $1 AND deleted_at IS NULL
`

func (q *Queries) GetResetToken(ctx context.Context, id uuid.UUID) (Account, error) {
	row := q.db.QueryRow(ctx, getResetToken, id)
	var a Account
	err := row.Scan(&a.ID, &a.CreatedAt, &a.LastModifiedAt, &a.DeletedAt,
		&a.Email, &a.Username, &a.Password, &a.ResetToken, &a.ResetTokenAt)
	return a, err
}

const updateAccountPassword = `
UPDATE accounts
SET password = $2, reset_token = NULL, reset_token_at = NULL, last_modified_at = now()
WHERE id = $1 AND deleted_at IS NULL
`

type UpdateAccountPasswordParams struct {
	ID       uuid.UUID
	Password []byte
}

func (q *Queries) UpdateAccountPassword(ctx context.Context, arg UpdateAccountPasswordParams) (int64, error) {
	tag, err := q.db.Exec(ctx, updateAccountPassword, arg.ID, arg.Password)
	return tag.RowsAffected(), err
}

const softDeleteAccount = `
UPDATE accounts
SET deleted_at = now()
WHERE id = $1 AND deleted_at IS NULL
`

func (q *Queries) SoftDeleteAccount(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, softDeleteAccount, id)
	return tag.RowsAffected(), err
}

const createRole = `
INSERT INTO roles (id, name)
VALUES (gen_random_uuid(), $1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id, name
`

func (q *Queries) CreateRole(ctx context.Context, name string) (Role, error) {
	row := q.db.QueryRow(ctx, createRole, name)
	var r Role
	err := row.Scan(&r.ID, &r.Name)
	return r, err
}

const listRoles = `
SELECT id, name FROM roles ORDER BY name
`

func (q *Queries) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := q.db.Query(ctx, listRoles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const getRoleByName = `
SELECT id, name FROM roles WHERE name = $1
`

func (q *Queries) GetRoleByName(ctx context.Context, name string) (Role, error) {
	row := q.db.QueryRow(ctx, getRoleByName, name)
	var r Role
	err := row.Scan(&r.ID, &r.Name)
	return r, err
}

const getAccountRoles = `
SELECT r.name
FROM account_roles ar
JOIN roles r ON r.id = ar.role_id
WHERE ar.account_id = $1
ORDER BY r.name
`

func (q *Queries) GetAccountRoles(ctx context.Context, accountID uuid.UUID) ([]string, error) {
	rows, err := q.db.Query(ctx, getAccountRoles, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	return items, rows.Err()
}

const addAccountRole = `
INSERT INTO account_roles (account_id, role_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

type AddAccountRoleParams struct {
	AccountID uuid.UUID
	RoleID    uuid.UUID
}

func (q *Queries) AddAccountRole(ctx context.Context, arg AddAccountRoleParams) error {
	_, err := q.db.Exec(ctx, addAccountRole, arg.AccountID, arg.RoleID)
	return err
}

const removeAccountRoles = `
DELETE FROM account_roles
WHERE account_id = $1
  AND role_id IN (SELECT id FROM roles WHERE name = ANY($2::text[]))
`

type RemoveAccountRolesParams struct {
	AccountID uuid.UUID
	Names     []string
}

func (q *Queries) RemoveAccountRoles(ctx context.Context, arg RemoveAccountRolesParams) error {
	_, err := q.db.Exec(ctx, removeAccountRoles, arg.AccountID, arg.Names)
	return err
}
