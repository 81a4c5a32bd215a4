// Package db opens the Postgres pool behind the merchant and user stores and
// the Redis client behind the accounts cache. Both are optional: an empty URL
// yields a nil handle and callers fall back to in-memory implementations.
package db

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"payrouter/pkg/config"
)

const pingTimeout = 5 * time.Second

// PoolConfig parses DATABASE_URL and applies the pool limits from cfg.
func PoolConfig(cfg config.Config) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	if cfg.DBMaxConns > 0 {
		pc.MaxConns = int32(cfg.DBMaxConns)
	}
	if cfg.DBMinConns > 0 {
		pc.MinConns = int32(cfg.DBMinConns)
	}
	if cfg.DBConnMaxLife > 0 {
		pc.MaxConnLifetime = cfg.DBConnMaxLife
	}
	if cfg.ServiceName != "" {
		pc.ConnConfig.RuntimeParams["application_name"] = cfg.ServiceName
	}
	return pc, nil
}

// Connect opens and pings the pool. It returns nil, nil without DATABASE_URL.
func Connect(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}
	pc, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres %s: %w", redactDSN(cfg.DatabaseURL), err)
	}
	log.Infow("postgres ready", "host", redactDSN(cfg.DatabaseURL), "max_conns", pc.MaxConns)
	return pool, nil
}

// RedisOptions parses REDIS_URL and applies REDIS_POOL_SIZE when set.
func RedisOptions(cfg config.Config) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	if cfg.RedisPoolSize > 0 {
		opts.PoolSize = cfg.RedisPoolSize
	}
	if cfg.ServiceName != "" {
		opts.ClientName = cfg.ServiceName
	}
	return opts, nil
}

// ConnectRedis opens and pings the client. It returns nil, nil without
// REDIS_URL.
func ConnectRedis(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := RedisOptions(cfg)
	if err != nil {
		return nil, err
	}
	cli := redis.NewClient(opts)
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := cli.Ping(pctx).Err(); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	log.Infow("redis ready", "addr", opts.Addr, "pool_size", opts.PoolSize)
	return cli, nil
}

// redactDSN keeps host and database only.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Host + u.Path
}
