package app

import (
	"context"
	"database/sql"

	"item-service/internal/config"
	"item-service/internal/db"
	"item-service/internal/logger"
	"item-service/internal/redis"

	_ "github.com/lib/pq"
)

type Infra struct {
	DB    *db.DB // nil when running without a database
	Redis *redis.Client
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	infra := &Infra{}

	if cfg.DatabaseDSN != "" {
		sqlDB, err := sql.Open("postgres", cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}

		if err := sqlDB.PingContext(ctx); err != nil {
			return nil, err
		}

		if err := db.RunSchemaMigration(ctx, sqlDB); err != nil {
			return nil, err
		}

		infra.DB = &db.DB{DB: sqlDB}
		logger.Info("database ready", nil)
	} else {
		logger.Warn("DATABASE_DSN not set, using in-memory stores", nil)
	}

	redisClient, err := redis.New(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, err
	}

	logger.Info("redis ready", nil)

	infra.Redis = redisClient
	return infra, nil
}
