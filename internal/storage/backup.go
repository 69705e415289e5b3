package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	backupPrefix       = "delve_"
	backupExt          = ".db"
	encryptedBackupExt = ".db.enc"
	backupTimeLayout   = "20060102_150405"
)

// BackupConfig holds configuration for backup operations.
type BackupConfig struct {
	// Dir is where backups are written. Empty means a "backups" directory
	// next to the database.
	Dir string

	// Encryption seals backups when it carries a password.
	Encryption *EncryptionConfig

	// Keep is the number of newest backups retained after each backup.
	// Zero keeps everything.
	Keep int
}

// BackupManager writes, lists and restores snapshots of the ledger database.
type BackupManager struct {
	dbPath string
	cfg    BackupConfig
	now    func() time.Time
}

// BackupInfo describes one backup file.
type BackupInfo struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"modTime"`
	Encrypted bool      `json:"encrypted"`
	Checksum  string    `json:"checksum"`
}

// NewBackupManager creates a backup manager for the database at dbPath.
func NewBackupManager(dbPath string, cfg BackupConfig) *BackupManager {
	return &BackupManager{dbPath: dbPath, cfg: cfg, now: time.Now}
}

// Dir returns the backup directory.
func (bm *BackupManager) Dir() string {
	if bm.cfg.Dir != "" {
		return bm.cfg.Dir
	}
	return filepath.Join(filepath.Dir(bm.dbPath), "backups")
}

func (bm *BackupManager) encrypted() bool {
	return bm.cfg.Encryption != nil && bm.cfg.Encryption.Password != ""
}

// Backup snapshots db with VACUUM INTO, verifies the copy, encrypts it when
// configured and prunes old backups. It returns the backup path.
func (bm *BackupManager) Backup(ctx context.Context, db *DB) (string, error) {
	dir := bm.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := backupPrefix + bm.now().Format(backupTimeLayout)
	plainPath := filepath.Join(dir, name+backupExt)
	if bm.encrypted() {
		plainPath = filepath.Join(dir, "."+name+".tmp")
	}

	if _, err := db.Conn().ExecContext(ctx, "VACUUM INTO ?", plainPath); err != nil {
		_ = os.Remove(plainPath)
		return "", fmt.Errorf("failed to snapshot database: %w", err)
	}
	if err := VerifyBackup(plainPath); err != nil {
		_ = os.Remove(plainPath)
		return "", fmt.Errorf("backup verification failed: %w", err)
	}

	path := plainPath
	if bm.encrypted() {
		path = filepath.Join(dir, name+encryptedBackupExt)
		err := encryptFile(plainPath, path, bm.cfg.Encryption)
		_ = os.Remove(plainPath)
		if err != nil {
			return "", fmt.Errorf("failed to encrypt backup: %w", err)
		}
	}

	if bm.cfg.Keep > 0 {
		if _, err := bm.Prune(bm.cfg.Keep); err != nil {
			return path, err
		}
	}
	return path, nil
}

// VerifyBackup checks that path is a SQLite database holding the ledger
// tables.
func VerifyBackup(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open backup as database: %w", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('settings', 'delve_events')").Scan(&n); err != nil {
		return fmt.Errorf("failed to query backup database: %w", err)
	}
	if n != 2 {
		return fmt.Errorf("backup is missing ledger tables")
	}
	return nil
}

// List returns the backups in the backup directory, newest first.
func (bm *BackupManager) List() ([]BackupInfo, error) {
	entries, err := os.ReadDir(bm.Dir())
	if os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, backupPrefix) {
			continue
		}
		encrypted := strings.HasSuffix(name, encryptedBackupExt)
		if !encrypted && filepath.Ext(name) != backupExt {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(bm.Dir(), name)
		checksum, err := fileChecksum(path)
		if err != nil {
			checksum = "unknown"
		}
		backups = append(backups, BackupInfo{
			Path:      path,
			Name:      name,
			Size:      info.Size(),
			ModTime:   info.ModTime(),
			Encrypted: encrypted,
			Checksum:  checksum,
		})
	}

	// Names embed the timestamp, so they sort chronologically.
	sort.Slice(backups, func(i, j int) bool { return backups[i].Name > backups[j].Name })
	return backups, nil
}

// Prune deletes all but the keep newest backups and returns how many were
// removed.
func (bm *BackupManager) Prune(keep int) (int, error) {
	backups, err := bm.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for i := keep; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return removed, fmt.Errorf("failed to remove old backup: %w", err)
		}
		removed++
	}
	return removed, nil
}

// Restore replaces the database file with backupPath. The current file is
// kept next to it with an ".old.<timestamp>" suffix. The database must be
// closed.
func (bm *BackupManager) Restore(backupPath string) error {
	encrypted, err := IsEncrypted(backupPath)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}

	tempPath := bm.dbPath + ".restore.tmp"
	if encrypted {
		if !bm.encrypted() {
			return fmt.Errorf("backup is encrypted: password required")
		}
		err = decryptFile(backupPath, tempPath, bm.cfg.Encryption)
	} else {
		err = copyFile(backupPath, tempPath)
	}
	if err != nil {
		_ = os.Remove(tempPath)
		return err
	}

	if err := VerifyBackup(tempPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("restored database verification failed: %w", err)
	}

	if _, err := os.Stat(bm.dbPath); err == nil {
		oldPath := bm.dbPath + ".old." + bm.now().Format(backupTimeLayout)
		if err := os.Rename(bm.dbPath, oldPath); err != nil {
			_ = os.Remove(tempPath)
			return fmt.Errorf("failed to move current database aside: %w", err)
		}
		// The WAL may hold commits not yet checkpointed into the old file.
		for _, suffix := range []string{"-wal", "-shm"} {
			if _, err := os.Stat(bm.dbPath + suffix); err == nil {
				_ = os.Rename(bm.dbPath+suffix, oldPath+suffix)
			}
		}
	}

	if err := os.Rename(tempPath, bm.dbPath); err != nil {
		return fmt.Errorf("failed to replace database with backup: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy backup file: %w", err)
	}
	return out.Close()
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
