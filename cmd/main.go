package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/comptaflow/compta/internal/repositories"
	"github.com/comptaflow/compta/internal/services"
	"github.com/comptaflow/compta/internal/session"
	"github.com/comptaflow/compta/internal/shared"
	"github.com/comptaflow/compta/internal/tasks"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}
	if url := os.Getenv("COMPTA_API_URL"); url != "" {
		config.API.BaseURL = url
	}

	httpClient := &http.Client{Timeout: time.Duration(config.API.TimeoutSeconds) * time.Second}
	api := services.NewAPIService(config.API.BaseURL, httpClient)
	backend := services.NewClient(api)

	var store *session.Store
	var gate *tasks.EligibilityGate

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		logger.Warnf("local store unavailable, running stateless: %v", err)
	} else {
		defer db.Close()
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			logger.Warnf("failed to migrate local store: %v", err)
		}

		store = session.NewStore(backend, repositories.NewSessionRepository(db), logger)
		api.SetTokenSource(store.Token)
		api.OnUnauthorized(store.HandleUnauthorized)
		store.Restore()

		gate = tasks.NewEligibilityGate(backend, repositories.NewTrialRepository(db), logger)
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Backend: backend,
		API:     api,
		Store:   store,
		Gate:    gate,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "compta",
		Usage:    "Convert PDF bank statements to Excel via the ComptaFlow API",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
