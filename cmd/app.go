package cmd

import (
	"context"
	"fmt"
	"time"

	"locafix/core/config"
	"locafix/core/database"
	"locafix/core/logger"
	"locafix/core/storage"
	"locafix/feature/archive"
	"locafix/feature/history"
	"locafix/feature/runs"

	"go.uber.org/zap"
)

// app bundles what every command needs.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	history *history.Store
	service *runs.Service
}

// newApp loads configuration and wires the optional journal and archive.
// Journal and archive failures are logged and leave the feature disabled.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg, logger: l}
	var opts []runs.Option

	if cfg.Database.Enabled {
		if store, err := openHistory(ctx, cfg.Database); err != nil {
			l.Warn("Run journal disabled", zap.Error(err))
		} else {
			a.history = store
			opts = append(opts, runs.WithHistory(store))
		}
	}

	if cfg.Storage.Enabled {
		if publisher, err := openArchive(ctx, cfg.Storage, l); err != nil {
			l.Warn("Report archive disabled", zap.Error(err))
		} else {
			opts = append(opts, runs.WithPublisher(publisher))
		}
	}

	svc, err := runs.NewService(runs.Config{
		Catalog:     cfg.Catalog,
		Patch:       cfg.Patch,
		Dispatch:    cfg.Dispatch,
		Convert:     cfg.Convert,
		KeepReports: cfg.Storage.KeepReports,
	}, l, opts...)
	if err != nil {
		return nil, err
	}
	a.service = svc
	return a, nil
}

func openHistory(ctx context.Context, cfg database.Config) (*history.Store, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	store := history.NewStore(db)
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func openArchive(ctx context.Context, cfg storage.Config, l *zap.Logger) (*archive.Publisher, error) {
	client, err := storage.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	publisher := archive.NewPublisher(client, cfg, l)

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := publisher.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return publisher, nil
}

// Close flushes the logger.
func (a *app) Close() {
	_ = a.logger.Sync()
}
