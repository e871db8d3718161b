package store

import (
	"context"
	"fmt"

	"github.com/marcelsud/library-api/book"
	"github.com/marcelsud/library-api/book/memory"
	"github.com/marcelsud/library-api/book/mongo"
	"github.com/marcelsud/library-api/book/postgres"
	"github.com/marcelsud/library-api/book/redis"
	"github.com/marcelsud/library-api/config"
)

// Open connects the repository selected by cfg.StoreDriver.
// The caller owns the returned repository and must Close it.
func Open(ctx context.Context, cfg *config.Config) (book.Repository, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		repo, err := mongo.NewRepository(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return nil, fmt.Errorf("opening mongo store: %w", err)
		}
		return repo, nil
	case config.DriverRedis:
		repo, err := redis.NewRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("opening redis store: %w", err)
		}
		return repo, nil
	case config.DriverPostgres:
		repo, err := postgres.NewRepositoryWithPoolConfig(
			cfg.PostgresConnectionString(),
			cfg.PostgresMaxOpenConns,
			cfg.PostgresMaxIdleConns,
			cfg.PostgresConnMaxLifeMinutes,
		)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		if err := repo.CreateTable(ctx); err != nil {
			_ = repo.Close(ctx)
			return nil, fmt.Errorf("preparing postgres schema: %w", err)
		}
		return repo, nil
	case config.DriverMemory:
		return memory.NewRepository(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
