package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/a2adesk/a2adesk/internal/common/config"
	"github.com/a2adesk/a2adesk/internal/common/logger"
	"github.com/a2adesk/a2adesk/internal/events/bus"
	"github.com/a2adesk/a2adesk/internal/persistence"
	"github.com/a2adesk/a2adesk/internal/settings/service"
	"github.com/a2adesk/a2adesk/internal/settings/store"
)

// loadConfig reads the configuration and installs the default logger.
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadWithPath(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := setupLogger(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func setupLogger(lc config.LoggingConfig) (*logger.Logger, error) {
	level := lc.Level
	if verbose {
		level = "debug"
	}
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      level,
		Format:     lc.Format,
		OutputPath: lc.OutputPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.SetDefault(log)
	return log, nil
}

// openSettings opens the configured database and builds the settings service.
// The returned cleanup closes the database.
func openSettings(ctx context.Context, cfg *config.Config, eventBus bus.EventBus, log *logger.Logger) (*service.Service, func() error, error) {
	db, cleanup, err := persistence.Provide(cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}
	stores, err := store.Open(ctx, db, log)
	if err != nil {
		if cerr := cleanup(); cerr != nil {
			log.Warn("failed to close database", zap.Error(cerr))
		}
		return nil, nil, fmt.Errorf("failed to open settings store: %w", err)
	}
	return service.NewService(stores.Models, stores.Agents, eventBus, log), cleanup, nil
}

// withSettings runs fn against a settings service with no event bus, for
// one-shot commands.
func withSettings(ctx context.Context, fn func(ctx context.Context, svc *service.Service) error) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	svc, cleanup, err := openSettings(ctx, cfg, nil, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}()
	return fn(ctx, svc)
}
