// Package main runs the account service without a database using the
// in-memory store. This is useful for:
// - Quick development and testing
// - Demo/prototype environments
// - Learning the API without database setup
//
// Note: All data is lost when the server stops. For production, use
// cmd/accounts with PostgreSQL.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/tendant/chi-demo/app"

	"github.com/tendant/simple-account/pkg/account"
	accountapi "github.com/tendant/simple-account/pkg/account/api"
	"github.com/tendant/simple-account/pkg/accountstore"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting in-memory account service (no database required)")
	slog.Info(strings.Repeat("=", 60))

	store := accountstore.NewInMemoryStore(nil)
	seedInitialData(store)

	manager := account.NewManager(store, account.WithRoleStore(store))
	defer manager.Close()

	handler := accountapi.NewHandler(manager, account.NewErrorDescriber())

	server := app.DefaultApp()
	app.RoutesHealthz(server.R)
	server.R.Route("/api", handler.RegisterRoutes)

	slog.Info(strings.Repeat("=", 60))
	slog.Info("In-memory account service ready")
	slog.Info("")
	slog.Info("Seeded account:")
	slog.Info("  Email: admin@example.com")
	slog.Info("  Roles: admin")
	slog.Info("")
	slog.Info("API Endpoints:")
	slog.Info("  GET    /api/accounts        - List accounts")
	slog.Info("  POST   /api/accounts        - Create account")
	slog.Info("  GET    /api/accounts/roles  - Search roles")
	slog.Info("  GET    /api/accounts/{id}   - Get account")
	slog.Info("  PUT    /api/accounts/{id}   - Update account")
	slog.Info("  DELETE /api/accounts/{id}   - Delete account")
	slog.Info(strings.Repeat("=", 60))

	server.Run()
}

func seedInitialData(store *accountstore.InMemoryStore) {
	ctx := context.Background()
	slog.Info("Seeding initial data...")

	for _, name := range []string{"admin", "user"} {
		if _, err := store.CreateRole(ctx, name); err != nil {
			slog.Error("Failed to seed role", "role", name, "err", err)
			os.Exit(-1)
		}
	}

	admin, err := store.CreateUser(ctx, accountstore.CreateUserParams{
		Email:    "admin@example.com",
		Username: "admin@example.com",
		Password: "Password123!",
	})
	if err != nil {
		slog.Error("Failed to seed admin account", "err", err)
		os.Exit(-1)
	}
	if err := store.AddUserToRoles(ctx, admin.ID, []string{"admin"}); err != nil {
		slog.Error("Failed to assign admin role", "err", err)
		os.Exit(-1)
	}

	slog.Info("Created admin account", "id", admin.ID, "email", admin.Email)
}
