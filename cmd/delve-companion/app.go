package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/speaax/delve-companion/internal/config"
	"github.com/speaax/delve-companion/internal/droprates"
	"github.com/speaax/delve-companion/internal/events"
	"github.com/speaax/delve-companion/internal/logger"
	"github.com/speaax/delve-companion/internal/metrics"
	"github.com/speaax/delve-companion/internal/profiles"
	"github.com/speaax/delve-companion/internal/storage"
	"github.com/speaax/delve-companion/internal/storage/models"
	"github.com/speaax/delve-companion/internal/tracker"
	"github.com/speaax/delve-companion/internal/version"
)

// lastStartedKey records when the companion last opened the database.
const lastStartedKey = "app.last_started_at"

// app holds the components shared by every command.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	storage    *storage.Service
	store      *profiles.Store
	tracker    *tracker.Tracker
	dispatcher *events.EventDispatcher
	modes      map[droprates.ItemID]models.DisplayMode
}

// loadConfig reads the config file named by -config, or the default one.
func loadConfig() (*config.Config, error) {
	if *configPath == "" {
		return config.Load()
	}
	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp opens storage and restores the ledger.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if *debugMode {
		cfg.App.DebugMode = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.App.LogLevel
	logCfg.Format = cfg.App.LogFormat
	logCfg.Version = version.GetVersion()
	if cfg.App.DebugMode {
		logCfg.Level = "debug"
		logCfg.AddSource = true
	}
	log := logger.Init(logCfg)

	table, err := droprates.LoadTable(cfg.App.DropTable)
	if err != nil {
		return nil, err
	}
	modes, err := cfg.DisplayModes()
	if err != nil {
		return nil, err
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(storage.DefaultConfig(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dbPath, err)
	}
	svc := storage.NewService(db)

	store := profiles.NewStore(svc, profiles.WithLogger(log))
	if err := store.Load(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("restore profiles: %w", err)
	}

	dispatcher := events.NewEventDispatcher(log)
	dispatcher.Register(events.NewLoggingObserver(log, cfg.App.DebugMode))
	dispatcher.Register(metrics.NewObserver())

	t := tracker.New(store, table,
		tracker.WithCounted(cfg.Counted()),
		tracker.WithHistory(svc),
		tracker.WithDispatcher(dispatcher),
		tracker.WithLogger(log),
	)

	if err := svc.Settings().Set(ctx, lastStartedKey, time.Now().UTC()); err != nil {
		log.Warn("failed to record start time", "error", err)
	}

	log.Debug("storage ready", "path", dbPath, "modes", store.Modes())

	return &app{
		cfg:        cfg,
		logger:     log,
		storage:    svc,
		store:      store,
		tracker:    t,
		dispatcher: dispatcher,
		modes:      modes,
	}, nil
}

// pruneHistory drops events older than the configured retention.
func (a *app) pruneHistory(ctx context.Context) {
	retention, err := a.cfg.GetHistoryRetention()
	if err != nil || retention == 0 {
		return
	}
	n, err := a.storage.PruneHistory(ctx, time.Now().Add(-retention))
	if err != nil {
		a.logger.Warn("failed to prune history", "error", err)
		return
	}
	if n > 0 {
		a.logger.Info("pruned history", "deleted", n, "retention", retention)
	}
}

// newBackupManager builds the backup manager described by cfg.
func newBackupManager(cfg *config.Config, dbPath string) *storage.BackupManager {
	bcfg := storage.BackupConfig{
		Dir:  cfg.Database.BackupDir,
		Keep: cfg.Database.BackupKeep,
	}
	if cfg.Database.BackupPassword != "" {
		bcfg.Encryption = storage.DefaultEncryptionConfig(cfg.Database.BackupPassword)
	}
	return storage.NewBackupManager(dbPath, bcfg)
}

func (a *app) Close() error {
	return a.storage.Close()
}
