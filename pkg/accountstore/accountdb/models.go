package accountdb

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	LastModifiedAt time.Time
	DeletedAt      sql.NullTime
	Email          string
	Username       string
	Password       []byte
	ResetToken     sql.NullString
	ResetTokenAt   sql.NullTime
}

type Role struct {
	ID   uuid.UUID
	Name string
}

type AccountRole struct {
	AccountID uuid.UUID
	RoleID    uuid.UUID
}
