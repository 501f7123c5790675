package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-insight/internal/categorizer"
	"github.com/Veraticus/spice-insight/internal/config"
	"github.com/Veraticus/spice-insight/internal/insight"
	"github.com/Veraticus/spice-insight/internal/service"
	"github.com/Veraticus/spice-insight/internal/storage"
	"github.com/spf13/cobra"
)

var timeNow = time.Now

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(settings.DatabasePath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// artifactStore picks where model artifacts live based on models.store.
func artifactStore(s config.Settings, db service.ArtifactStore) (service.ArtifactStore, error) {
	if s.ModelsStore == config.StoreDir {
		dir, err := storage.NewDirArtifactStore(s.ModelsDir)
		if err != nil {
			return nil, err
		}
		return dir, nil
	}
	return db, nil
}

// initCategorizer loads the persisted model, training one if none exists.
// Only an unusable model store is an error; a model that cannot be loaded
// or trained leaves predictions on the default categories.
func initCategorizer(ctx context.Context, store service.Storage) (*categorizer.Categorizer, error) {
	artifacts, err := artifactStore(settings, store)
	if err != nil {
		return nil, fmt.Errorf("failed to open model store: %w", err)
	}

	c := categorizer.New(artifacts, categorizer.WithLogger(slog.Default()))
	warmUp(ctx, c)
	return c, nil
}

type modelLoader interface {
	LoadOrTrain(ctx context.Context) error
}

func warmUp(ctx context.Context, m modelLoader) {
	if err := m.LoadOrTrain(ctx); err != nil {
		slog.Warn("Categorizer unavailable, using default categories", "error", err)
	}
}

// initEngine wires storage and the categorizer into an insight engine.
func initEngine(ctx context.Context, store service.Storage) (*insight.Engine, error) {
	c, err := initCategorizer(ctx, store)
	if err != nil {
		return nil, err
	}
	return insight.New(store, c, slog.Default(),
		insight.WithContamination(settings.Contamination),
		insight.WithMonthsAhead(settings.MonthsAhead),
	), nil
}

// withEngine runs fn against a ready engine and closes storage afterwards.
func withEngine(cmd *cobra.Command, fn func(context.Context, *insight.Engine) error) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	engine, err := initEngine(ctx, store)
	if err != nil {
		return err
	}
	return fn(ctx, engine)
}

func addJSONFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "Output as JSON")
}

func wantJSON(cmd *cobra.Command) bool {
	asJSON, _ := cmd.Flags().GetBool("json")
	return asJSON
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
