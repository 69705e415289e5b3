package storage

import (
	"path/filepath"
	"testing"
)

func TestMigrationManager_UpDown(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")

	mgr, err := NewMigrationManager(dbPath)
	if err != nil {
		t.Fatalf("NewMigrationManager failed: %v", err)
	}
	defer mgr.Close()

	version, _, err := mgr.Version()
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0 before migrating, got %d", version)
	}

	if err := mgr.Up(); err != nil {
		t.Fatalf("Up failed: %v", err)
	}
	// second Up is a no-op
	if err := mgr.Up(); err != nil {
		t.Fatalf("repeated Up failed: %v", err)
	}

	version, dirty, err := mgr.Version()
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("expected clean version 1, got %d (dirty=%v)", version, dirty)
	}

	if err := mgr.Down(); err != nil {
		t.Fatalf("Down failed: %v", err)
	}
}

func TestDatabaseURL(t *testing.T) {
	if got := databaseURL("/tmp/x.db"); got != "sqlite:///tmp/x.db" {
		t.Errorf("databaseURL() = %q", got)
	}
}
