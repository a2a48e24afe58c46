package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"

	"github.com/tendant/simple-account/pkg/account"
	accountapi "github.com/tendant/simple-account/pkg/account/api"
	"github.com/tendant/simple-account/pkg/accountstore"
	"github.com/tendant/simple-account/pkg/config"
	"github.com/tendant/simple-account/pkg/notice"
)

type JwtConfig struct {
	JwtSecret string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	Issuer    string `env:"JWT_ISSUER" env-default:"simple-account"`
	Audience  string `env:"JWT_AUDIENCE" env-default:"simple-account"`
}

type Config struct {
	PersistenceType          string `env:"ACCOUNT_PERSISTENCE_TYPE" env-default:"postgres"`
	AppConfig                app.AppConfig
	DbConfig                 config.DatabaseConfig
	JwtConfig                JwtConfig
	EmailConfig              config.EmailConfig
	PasswordComplexityConfig config.PasswordComplexityConfig
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg := Config{}
	cleanenv.ReadEnv(&cfg)

	server := app.DefaultApp()
	app.RoutesHealthz(server.R)

	var pool *pgxpool.Pool
	if cfg.PersistenceType == "postgres" || cfg.PersistenceType == "postgresql" {
		var err error
		pool, err = pgxpool.New(context.Background(), cfg.DbConfig.ToDatabaseURL())
		if err != nil {
			slog.Error("Failed creating dbpool", "db", cfg.DbConfig.Database, "host", cfg.DbConfig.Host, "port", cfg.DbConfig.Port, "user", cfg.DbConfig.User, "schema", cfg.DbConfig.Schema)
			os.Exit(-1)
		}
	}

	store, err := accountstore.NewStore(cfg.PersistenceType, accountstore.Config{
		Pool:   pool,
		Policy: cfg.PasswordComplexityConfig.ToPasswordPolicy(),
	})
	if err != nil {
		slog.Error("Failed creating account store", "persistenceType", cfg.PersistenceType, "err", err)
		os.Exit(-1)
	}

	notifier := notice.Noop()
	if cfg.EmailConfig.Host != "" {
		notifier, err = notice.NewEmailNotifier(cfg.EmailConfig.ToSMTPConfig())
		if err != nil {
			slog.Error("Failed initializing email notifier", "err", err)
			os.Exit(-1)
		}
	}

	opts := []account.ManagerOption{
		account.WithNotifier(notifier),
	}
	if roles, ok := store.(accountstore.RoleStore); ok {
		opts = append(opts, account.WithRoleStore(roles))
	}
	manager := account.NewManager(store, opts...)
	defer manager.Close()

	handler := accountapi.NewHandler(manager, account.NewErrorDescriber())

	auth := jwtauth.New("HS256", []byte(cfg.JwtConfig.JwtSecret), nil)
	server.R.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(auth))
		r.Use(jwtauth.Authenticator(auth))
		r.Route("/api", handler.RegisterRoutes)
	})

	server.Run()
}
