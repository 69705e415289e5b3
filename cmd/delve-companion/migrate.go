package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/speaax/delve-companion/internal/storage"
)

func runMigrate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: delve-companion migrate version|up|down")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}

	mgr, err := storage.NewMigrationManager(dbPath)
	if err != nil {
		return fmt.Errorf("create migration manager: %w", err)
	}
	defer func() {
		if err := mgr.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing migration manager: %v\n", err)
		}
	}()

	switch args[0] {
	case "up":
		fmt.Println("Applying all pending migrations...")
		if err := mgr.Up(); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	case "down":
		fmt.Println("Rolling back last migration...")
		if err := mgr.Down(); err != nil {
			return fmt.Errorf("roll back migration: %w", err)
		}
	case "status", "version":
	default:
		return fmt.Errorf("unknown migrate command %q", args[0])
	}

	version, dirty, err := mgr.Version()
	if err != nil {
		return fmt.Errorf("get version: %w", err)
	}
	if dirty {
		fmt.Printf("Current version: %d (dirty - migration failed or interrupted)\n", version)
	} else {
		fmt.Printf("Current version: %d\n", version)
	}
	return nil
}
