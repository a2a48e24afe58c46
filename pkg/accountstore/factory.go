package accountstore

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config contains configuration for creating account stores.
type Config struct {
	// Pool is required for PostgreSQL stores.
	Pool *pgxpool.Pool
	// Policy defaults to DefaultPasswordPolicy when nil.
	Policy *PasswordPolicy
}

// NewStore creates an account store for the given persistence type. Whether
// the returned store also manages roles is discovered at the call site with a
// RoleStore type assertion.
func NewStore(persistenceType string, config Config) (AccountStore, error) {
	switch persistenceType {
	case "postgres", "postgresql":
		if config.Pool == nil {
			return nil, fmt.Errorf("pool required for postgres store")
		}
		return NewPostgresStore(config.Pool, config.Policy), nil
	case "inmem", "memory":
		return NewInMemoryStore(config.Policy), nil
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s (supported: postgres, inmem)", persistenceType)
	}
}
