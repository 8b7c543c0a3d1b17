package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pom/internal/domain"
	"github.com/vladislavdragonenkov/pom/internal/health"
	"github.com/vladislavdragonenkov/pom/internal/storage/memory"
	"github.com/vladislavdragonenkov/pom/internal/storage/postgres"
)

// runtimeDependencies — хранилище, выбранное конфигурацией.
type runtimeDependencies struct {
	uow            domain.UnitOfWork
	storageChecker health.Checker
	closeFn        func() error
}

func (d runtimeDependencies) close(logger *log.Entry) {
	if d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		logger.Info("using in-memory storage")
		return runtimeDependencies{uow: memory.NewStore()}, nil
	case StorageDriverPostgres:
		return initPostgres(ctx, cfg, logger)
	default:
		return runtimeDependencies{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

func initPostgres(ctx context.Context, cfg Config, logger *log.Entry) (runtimeDependencies, error) {
	if cfg.PostgresDSN == "" {
		return runtimeDependencies{}, fmt.Errorf("postgres dsn is required")
	}

	store, err := postgres.Open(ctx, cfg.PostgresDSN,
		postgres.WithMaxOpenConns(cfg.PostgresMaxOpenConns),
		postgres.WithMaxIdleConns(cfg.PostgresMaxIdleConns),
	)
	if err != nil {
		return runtimeDependencies{}, err
	}

	if cfg.PostgresAutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return runtimeDependencies{}, fmt.Errorf("apply migrations: %w", err)
		}
		state, err := store.MigrationStatus(ctx)
		if err != nil {
			_ = store.Close()
			return runtimeDependencies{}, fmt.Errorf("migration status: %w", err)
		}
		logger.WithFields(log.Fields{
			"schema_version": state.Version,
			"applied":        state.Applied,
		}).Info("postgres schema is up to date")
	}

	logger.Info("using postgres storage")
	return runtimeDependencies{
		uow:            store,
		storageChecker: health.NewCriticalChecker("postgres", store.Ping),
		closeFn:        store.Close,
	}, nil
}
