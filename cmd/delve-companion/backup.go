package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/speaax/delve-companion/internal/storage"
)

func runBackup(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: delve-companion backup create|list|restore <file>")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return err
	}
	bm := newBackupManager(cfg, dbPath)

	switch args[0] {
	case "create":
		db, err := storage.Open(storage.DefaultConfig(dbPath))
		if err != nil {
			return fmt.Errorf("open database %s: %w", dbPath, err)
		}
		defer db.Close()

		path, err := bm.Backup(context.Background(), db)
		if err != nil {
			return err
		}
		fmt.Printf("Backup written to %s\n", path)

	case "list", "ls":
		backups, err := bm.List()
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			fmt.Printf("No backups in %s\n", bm.Dir())
			return nil
		}
		fmt.Printf("Backups in %s\n\n", bm.Dir())
		for _, b := range backups {
			lock := ""
			if b.Encrypted {
				lock = " (encrypted)"
			}
			fmt.Printf("  %s  %8.1f KB  %s%s\n", b.ModTime.Local().Format("2006-01-02 15:04:05"), float64(b.Size)/1024, b.Name, lock)
		}

	case "restore":
		fs := flag.NewFlagSet("restore", flag.ExitOnError)
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: delve-companion backup restore <file>")
		}
		fmt.Println("Restoring. Stop any running delve-companion first.")
		if err := bm.Restore(fs.Arg(0)); err != nil {
			return err
		}
		fmt.Printf("Database %s restored from %s\n", dbPath, fs.Arg(0))

	default:
		return fmt.Errorf("unknown backup command %q", args[0])
	}
	return nil
}
