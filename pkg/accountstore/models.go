package accountstore

import (
	"time"

	"github.com/google/uuid"
)

// User is the store-native account record. The password never appears here;
// only its hash is kept, and only inside store implementations.
type User struct {
	ID             uuid.UUID  `json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	LastModifiedAt time.Time  `json:"last_modified_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	Email          string     `json:"email"`
	Username       string     `json:"username"`
}

// Role represents a named permission group.
type Role struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// CreateUserParams contains parameters for creating a new user.
type CreateUserParams struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}
