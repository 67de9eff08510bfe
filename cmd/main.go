package main

import (
	"context"
	"errors"
	"os"

	"github.com/kinohq/kino/internal/catalog"
	"github.com/kinohq/kino/internal/identity"
	"github.com/kinohq/kino/internal/repositories"
	"github.com/kinohq/kino/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	shared.LoadDotenv()

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}
	config.ApplyEnv()

	provider := identity.NewHTTPProvider(config.Identity.URL, config.Identity.APIKey, nil)

	// A broken local database only costs session persistence.
	var keeper identity.Keeper
	if db, err := shared.NewDatabase(config.Database.Path); err != nil {
		logger.Warn("session database unavailable, sessions will not persist", "error", err)
	} else {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			logger.Warn("session database migration failed, sessions will not persist", "error", err)
		} else {
			keeper = repositories.NewSessionRepository(db)
		}
	}

	store := identity.NewStore(provider, keeper, logger)
	client := catalog.NewClient(config.API.BaseURL, store.AccessToken, nil, config.API.Timeout())

	runner := NewRunner(RunnerOpts{
		Config: config,
		Store:  store,
		Movies: client,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "kino",
		Usage:    "Manage your movie catalog from the terminal",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrAuthExpired) || errors.Is(err, shared.ErrNotAuthenticated) {
			logger.Fatal("not signed in, run 'kino auth login'")
		}
		logger.Fatalf("application error: %v", err)
	}
}
