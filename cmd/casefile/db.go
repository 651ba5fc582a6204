package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"casefile/internal/config"
	"casefile/internal/store"
	"casefile/internal/store/postgres"
	"casefile/internal/store/sqlite"
)

var errNoDatabase = errors.New("no database configured: set database.dsn or CASEFILE_DATABASE_DSN")

// openDB picks the save backend from the DSN scheme and makes sure its
// schema exists.
func openDB(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	dsn := cfg.Database.DSN
	if dsn == "" {
		return nil, errNoDatabase
	}

	var db store.Store
	scheme, _, _ := strings.Cut(dsn, "://")
	switch scheme {
	case "sqlite":
		client, err := sqlite.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		db = client
	case "postgres", "postgresql":
		client, err := postgres.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		db = client
	default:
		return nil, fmt.Errorf("unsupported database scheme: %s", scheme)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close(ctx)
		return nil, err
	}
	return db, nil
}
