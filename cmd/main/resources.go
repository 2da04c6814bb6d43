package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rodriguezmDNA/sonnetGenText/pkg/sonnet"
)

// loadResources reads the raw tables from the configured source.
func loadResources(ctx context.Context, config *Config, logger *slog.Logger) (*sonnet.RawTables, error) {
	switch config.Source {
	case SourceFiles, "":
		raw, err := sonnet.LoadFiles(config.Resources)
		if err != nil {
			return nil, err
		}
		if config.SnapshotPath != "" {
			if err = sonnet.WriteSnapshotFile(config.SnapshotPath, raw); err != nil {
				logger.Warn("Failed to write snapshot", "path", config.SnapshotPath, "error", err)
			} else {
				logger.Info("Snapshot written", "path", config.SnapshotPath)
			}
		}
		return raw, nil
	case SourceSnapshot:
		return sonnet.LoadSnapshotFile(config.SnapshotPath)
	case SourceDatabase:
		return loadFromDatabase(ctx, config, logger)
	default:
		return nil, fmt.Errorf("unknown resource source %q", config.Source)
	}
}

// loadFromDatabase loads the tables from the SQLite store, seeding it from the
// resource files first when it is empty.
func loadFromDatabase(ctx context.Context, config *Config, logger *slog.Logger) (*sonnet.RawTables, error) {
	db, err := initDB(config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	if err = sonnet.SetupSchema(db); err != nil {
		return nil, fmt.Errorf("failed to setup schema: %w", err)
	}
	store, err := sonnet.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare store: %w", err)
	}
	defer store.Close()
	store.SetLogger(logger)

	empty, err := store.Empty(ctx)
	if err != nil {
		return nil, err
	}
	if empty {
		raw, err := sonnet.LoadFiles(config.Resources)
		if err != nil {
			return nil, err
		}
		// A model that would not load is never stored.
		if _, err = sonnet.NewTables(raw, config.States); err != nil {
			return nil, err
		}
		if err = store.Save(ctx, raw); err != nil {
			return nil, fmt.Errorf("failed to seed database: %w", err)
		}
		logger.Info("Database seeded from resource files", "path", config.DatabasePath)
	}
	return store.Load(ctx)
}
