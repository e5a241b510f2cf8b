package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/rezkam/cashflow/internal/application/finance"
	"github.com/rezkam/cashflow/internal/config"
	"github.com/rezkam/cashflow/internal/infrastructure/persistence/fs"
	"github.com/rezkam/cashflow/internal/infrastructure/persistence/gcs"
	"github.com/rezkam/cashflow/internal/infrastructure/persistence/postgres"
	"github.com/rezkam/cashflow/internal/infrastructure/persistence/sqlite"
)

// openStore builds the repository selected by cfg.Type. The returned closer is
// nil for backends that hold no connections.
func openStore(ctx context.Context, cfg config.StorageConfig) (finance.Repository, io.Closer, error) {
	switch cfg.Type {
	case config.StoragePostgres:
		store, err := postgres.NewStoreWithConfig(ctx, postgres.DBConfig{
			DSN:             cfg.Database.DSN,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		})
		if err != nil {
			return nil, nil, err
		}
		slog.InfoContext(ctx, "storage initialized", "type", cfg.Type, "url", maskPassword(cfg.Database.DSN))
		return store, store, nil

	case config.StorageSQLite:
		store, err := sqlite.NewStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		slog.InfoContext(ctx, "storage initialized", "type", cfg.Type, "path", cfg.SQLitePath)
		return store, store, nil

	case config.StorageFS:
		store, err := fs.NewStore(cfg.FSDir)
		if err != nil {
			return nil, nil, err
		}
		slog.InfoContext(ctx, "storage initialized", "type", cfg.Type, "dir", cfg.FSDir)
		return store, nil, nil

	case config.StorageGCS:
		store, err := gcs.NewStore(ctx, cfg.GCSBucket, cfg.GCSPrefix)
		if err != nil {
			return nil, nil, err
		}
		slog.InfoContext(ctx, "storage initialized", "type", cfg.Type, "bucket", cfg.GCSBucket, "prefix", cfg.GCSPrefix)
		return store, store, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage type: %q", cfg.Type)
	}
}

// maskPassword masks the password in a connection string for logging.
func maskPassword(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil {
		return "[REDACTED]"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "xxxxxx")
		}
	}
	return u.String()
}
