package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/aman-churiwal/image-relay/internal/config"
	"github.com/aman-churiwal/image-relay/internal/repository"
	"github.com/aman-churiwal/image-relay/internal/storage"
	"go.uber.org/zap"
)

// stores is what openStores hands back to main: the quota ledger, an optional
// generation log and a close func for whatever connection backs them.
type stores struct {
	quota         repository.ClientQuotaStore
	generationLog *repository.GenerationLogRepository
	close         func() error
}

// openStores picks a backend from the DATABASE_URL scheme.
func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	dsn := cfg.DatabaseURL

	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		db, err := storage.NewPostgres(dsn, !cfg.IsProduction())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := db.AutoMigrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
		logger.Info("connected to postgres")

		return &stores{
			quota:         repository.NewClientQuotaRepository(db),
			generationLog: repository.NewGenerationLogRepository(db),
			close:         db.Close,
		}, nil

	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		client, err := storage.NewRedis(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info("connected to redis")

		return &stores{
			quota: repository.NewRedisClientQuotaRepository(client, repository.WithTTL(cfg.EffectiveRetention())),
			close: client.Close,
		}, nil

	case dsn == "" || dsn == "memory":
		logger.Warn("using in-memory quota store; quotas reset on restart")
		return &stores{
			quota: repository.NewMemoryClientQuotaRepository(),
			close: func() error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme: %q", dsn)
	}
}
