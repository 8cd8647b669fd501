package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/pkordes/trip-planner/backend/internal/config"
	"github.com/pkordes/trip-planner/backend/internal/repo"
	"github.com/pkordes/trip-planner/backend/internal/service"
	"github.com/pkordes/trip-planner/backend/migrations"
)

// connectTimeout bounds the startup ping to the remote store.
const connectTimeout = 10 * time.Second

// openRemote connects the configured remote backend. It returns a nil
// RemoteStore when no backend is configured or the backend is unreachable,
// in which case the session runs local-only. The returned close function is
// always safe to call.
func openRemote(ctx context.Context, cfg config.Config, logger *slog.Logger) (service.RemoteStore, func()) {
	noop := func() {}

	switch cfg.RemoteBackend {
	case config.BackendPostgres:
		pool, err := openPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("remote store unavailable, sharing disabled", "backend", cfg.RemoteBackend, "error", err)
			return nil, noop
		}
		logger.Info("database connection established")
		return repo.NewPGTripStore(pool, pool, logger), pool.Close

	case config.BackendRedis:
		client, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("remote store unavailable, sharing disabled", "backend", cfg.RemoteBackend, "error", err)
			return nil, noop
		}
		logger.Info("redis connection established")
		return repo.NewRedisTripStore(client, logger), func() { _ = client.Close() }

	default:
		logger.Info("no remote backend configured, sharing disabled")
		return nil, noop
	}
}

// openPostgres creates the pool, verifies the database is reachable and
// applies pending migrations. pgxpool.New does not open connections
// immediately; the ping does.
func openPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// migrate runs goose over a database/sql view of the pool.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return client, nil
}
