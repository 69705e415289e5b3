package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/speaax/delve-companion/internal/api"
	"github.com/speaax/delve-companion/internal/logreader"
	"github.com/speaax/delve-companion/internal/storage"
	"github.com/speaax/delve-companion/internal/version"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	logPath := fs.String("log", "", "Chat log to tail (overrides config)")
	port := fs.Int("port", 0, "API port (overrides config)")
	noAPI := fs.Bool("no-api", false, "Do not start the HTTP API")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Error("failed to close database", "error", err)
		}
	}()

	if *logPath != "" {
		a.cfg.Log.FilePath = *logPath
	}
	if *port > 0 {
		a.cfg.API.Port = *port
	}

	a.logger.Info("delve companion starting", "version", version.String(), "modes", a.store.Modes())
	a.pruneHistory(ctx)

	if interval, _ := a.cfg.GetBackupInterval(); interval > 0 {
		dbPath, _ := a.cfg.DatabasePath()
		scheduler := storage.NewBackupScheduler(newBackupManager(a.cfg, dbPath), a.storage.DB(), interval, a.logger)
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		defer scheduler.Stop()
		a.logger.Info("scheduled backups enabled", "interval", interval)
	}

	var server *api.Server
	if a.cfg.API.Enabled && !*noAPI {
		apiCfg := api.DefaultConfig()
		apiCfg.Port = a.cfg.API.Port
		apiCfg.RateLimit = a.cfg.API.RateLimit
		apiCfg.Burst = a.cfg.API.Burst
		apiCfg.AllowedOrigins = a.cfg.API.AllowedOrigins

		server = api.NewServer(apiCfg, api.Deps{
			Tracker:      a.tracker,
			History:      a.storage,
			DisplayModes: a.modes,
			Logger:       a.logger,
		})
		a.dispatcher.Register(server.NewWebSocketObserver())

		if err := server.Start(); err != nil {
			return fmt.Errorf("start API server: %w", err)
		}
		a.logger.Info("API server listening", "port", server.Port())
	}

	var poller *logreader.Poller
	if a.cfg.Log.FilePath != "" {
		poller, err = startIngest(ctx, a)
		if err != nil {
			if server != nil {
				shutdownServer(a, server)
			}
			return err
		}
	} else {
		a.logger.Warn("no chat log configured; only the API will record events")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	a.logger.Info("shutting down")
	cancel()
	if poller != nil {
		poller.Stop()
	}
	if server != nil {
		shutdownServer(a, server)
	}
	return nil
}

// startIngest tails the chat log and feeds recognized lines to the tracker.
func startIngest(ctx context.Context, a *app) (*logreader.Poller, error) {
	interval, err := a.cfg.GetLogPollInterval()
	if err != nil {
		return nil, err
	}
	ttl, err := a.cfg.GetCacheTTL()
	if err != nil {
		return nil, err
	}
	petWindow, err := a.cfg.GetPetWindow()
	if err != nil {
		return nil, err
	}

	pollerCfg := logreader.DefaultPollerConfig(a.cfg.Log.FilePath)
	pollerCfg.Interval = interval
	pollerCfg.UseFsnotify = a.cfg.Log.UseFsnotify

	poller, err := logreader.NewPoller(pollerCfg)
	if err != nil {
		return nil, fmt.Errorf("open chat log: %w", err)
	}

	ingestor := logreader.NewIngestor(a.tracker, logreader.IngestorConfig{
		GameMode:   a.cfg.GameMode(),
		DedupeSize: a.cfg.Cache.MaxSize,
		DedupeTTL:  ttl,
		PetWindow:  petWindow,
		Logger:     a.logger,
	})

	entries := poller.Start()
	go ingestor.Run(ctx, entries, poller.Errors())

	a.logger.Info("tailing chat log",
		"path", poller.Path(),
		"mode", a.cfg.GameMode(),
		"interval", interval,
		"fsnotify", pollerCfg.UseFsnotify,
	)
	return poller, nil
}

func shutdownServer(a *app, server *api.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", "error", err)
	}
}
