// Package storage opens the repository backend selected in the configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/ArowuTest/prizedrop-backend/internal/config"
	"github.com/ArowuTest/prizedrop-backend/internal/repositories"
	"github.com/ArowuTest/prizedrop-backend/internal/repositories/memory"
	mongorepo "github.com/ArowuTest/prizedrop-backend/internal/repositories/mongodb"
	"github.com/ArowuTest/prizedrop-backend/internal/repositories/sqlstore"
	"github.com/ArowuTest/prizedrop-backend/pkg/database"
	"github.com/ArowuTest/prizedrop-backend/pkg/mongodb"
	"go.uber.org/zap"
)

// Open connects to the configured backend and returns its repositories
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*repositories.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMongoDB:
		client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		store, err := mongorepo.NewStore(ctx, client.Database(cfg.MongoDB.Database), log.Named("mongodb"))
		if err != nil {
			client.Disconnect(context.Background())
			return nil, err
		}
		log.Info("connected to MongoDB", zap.String("database", cfg.MongoDB.Database))
		return store, nil

	case config.DriverPostgres, config.DriverMySQL:
		db, err := database.Open(cfg.Store.Driver, cfg.SQL.DSN, cfg.SQL.MaxOpenConns, log)
		if err != nil {
			return nil, err
		}
		store, err := sqlstore.NewStore(db)
		if err != nil {
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				sqlDB.Close()
			}
			return nil, err
		}
		log.Info("connected to SQL database", zap.String("driver", cfg.Store.Driver))
		return store, nil

	case config.DriverMemory:
		log.Warn("using in-memory store, data is lost on exit")
		return memory.NewStore().Repositories(), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
