package cmd

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solatis/parkwatch/internal/client"
	"github.com/solatis/parkwatch/internal/core/cache"
	"github.com/solatis/parkwatch/internal/core/db"
	"github.com/solatis/parkwatch/internal/core/metrics"
	"github.com/solatis/parkwatch/internal/core/store"
	"github.com/solatis/parkwatch/internal/session"
	"github.com/solatis/parkwatch/internal/types"
)

// local bundles an open database with the store and queries built on it.
type local struct {
	db      *sqlx.DB
	queries *db.Queries
	store   *store.Store
}

func (l *local) Close() error {
	return l.db.Close()
}

// openLocal opens the configured database and refuses to run against a
// schema with pending migrations.
func openLocal(ctx context.Context) (*local, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database URL required (--db-url or PW_DATABASE_URL)")
	}
	database, err := db.Open(ctx, cfg.Database.URL, db.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.RequireMigrated(ctx, database); err != nil {
		database.Close()
		return nil, fmt.Errorf("%w (run 'parkwatch migrate' first)", err)
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to load queries: %w", err)
	}
	st, err := store.New(queries, zlog)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	return &local{db: database, queries: queries, store: st}, nil
}

// openCache connects to Redis when configured. Returns a nil cache when
// Redis is disabled. m, if set, observes lookups.
func openCache(ctx context.Context, m *metrics.Metrics) (*cache.Cache, func(), error) {
	if !cfg.Redis.Enabled() {
		return nil, func() {}, nil
	}
	rc, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	c, err := cache.New(rc, cfg.Redis.KeyPrefix, cfg.Redis.TTL, zlog)
	if err != nil {
		rc.Close()
		return nil, nil, err
	}
	if m != nil {
		c.SetRecorder(m)
	}
	zlog.Info("redis cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))
	return c, func() { rc.Close() }, nil
}

// conditionBackend is what the condition and profile commands need from
// either a local store or a remote admin API.
type conditionBackend interface {
	session.Gateway
	session.ProfileSource
	ReplaceProfiles(ctx context.Context, objectID types.ObjectID, profiles []types.DeviceProfile) error
}

// addRemoteFlag registers --remote on cmd.
func addRemoteFlag(cmd *cobra.Command) {
	cmd.Flags().String("remote", "", "admin API base URL; overrides client.base_url and bypasses the local database")
}

// openBackend returns the remote client when --remote or client.base_url is
// set, otherwise the local store. The returned func releases resources.
func openBackend(ctx context.Context, cmd *cobra.Command) (conditionBackend, func(), error) {
	remote, _ := cmd.Flags().GetString("remote")
	if remote == "" {
		remote = cfg.Client.BaseURL
	}

	if remote != "" {
		c, err := client.New(remote, client.Options{
			Timeout:    cfg.Client.Timeout,
			RetryCount: cfg.Client.RetryCount,
			Logger:     zlog,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create client: %w", err)
		}
		zlog.Debug("using remote admin api", zap.String("base_url", remote))
		return c, func() {}, nil
	}

	l, err := openLocal(ctx)
	if err != nil {
		return nil, nil, err
	}
	return l.store, func() { l.Close() }, nil
}
