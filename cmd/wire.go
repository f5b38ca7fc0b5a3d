package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/temporal-nexus/nexus-api/internal/gateway"
	"github.com/temporal-nexus/nexus-api/internal/jobs"
	"github.com/temporal-nexus/nexus-api/internal/store"
	"github.com/temporal-nexus/nexus-api/pkg/anthropic"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "nexus.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initGateway() (*gateway.Gateway, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (NEXUS_ANTHROPIC_KEY)")
	}
	client := anthropic.NewClient(cfg.Anthropic.Key)
	return gateway.New(client, cfg.Anthropic), nil
}

func initRegistry(ctx context.Context) (jobs.Registry, error) {
	ttl := time.Duration(cfg.Jobs.TTLMins) * time.Minute
	switch cfg.Jobs.Registry {
	case "redis":
		return jobs.NewRedisRegistry(ctx, cfg.Jobs.RedisAddr, ttl)
	case "memory", "":
		return jobs.NewMemoryRegistry(ttl, cfg.Jobs.MaxEntries), nil
	default:
		return nil, eris.Errorf("unsupported job registry: %s", cfg.Jobs.Registry)
	}
}
