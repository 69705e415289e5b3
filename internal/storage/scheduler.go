package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// BackupScheduler takes a backup of a live database at a fixed interval.
type BackupScheduler struct {
	manager  *BackupManager
	db       *DB
	interval time.Duration
	logger   *slog.Logger

	mu           sync.RWMutex
	cancel       context.CancelFunc
	done         chan struct{}
	lastBackup   time.Time
	lastPath     string
	lastError    error
	backupCount  int
	failureCount int
}

// SchedulerStatus contains information about the scheduler state.
type SchedulerStatus struct {
	Running      bool          `json:"running"`
	Interval     time.Duration `json:"interval"`
	LastBackup   time.Time     `json:"lastBackup"`
	LastPath     string        `json:"lastPath,omitempty"`
	NextBackup   time.Time     `json:"nextBackup"`
	BackupCount  int           `json:"backupCount"`
	FailureCount int           `json:"failureCount"`
	LastError    string        `json:"lastError,omitempty"`
}

// NewBackupScheduler creates a scheduler backing up db every interval.
func NewBackupScheduler(manager *BackupManager, db *DB, interval time.Duration, logger *slog.Logger) *BackupScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupScheduler{
		manager:  manager,
		db:       db,
		interval: interval,
		logger:   logger.With("component", "backup"),
	}
}

// Start runs the schedule until ctx is done or Stop is called.
func (s *BackupScheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("backup interval must be positive, got %s", s.interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return fmt.Errorf("scheduler is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
	return nil
}

func (s *BackupScheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce takes one backup now and records the outcome.
func (s *BackupScheduler) RunOnce(ctx context.Context) (string, error) {
	path, err := s.manager.Backup(ctx, s.db)

	s.mu.Lock()
	s.lastBackup = time.Now()
	s.lastError = err
	if err != nil {
		s.failureCount++
	} else {
		s.lastPath = path
		s.backupCount++
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("backup failed", "error", err)
	} else {
		s.logger.Info("backup written", "path", path)
	}
	return path, err
}

// Stop stops the schedule and waits for a running backup to finish.
func (s *BackupScheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// IsRunning returns whether the scheduler is currently running.
func (s *BackupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cancel != nil
}

// Status returns the current scheduler status.
func (s *BackupScheduler) Status() SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := SchedulerStatus{
		Running:      s.cancel != nil,
		Interval:     s.interval,
		LastBackup:   s.lastBackup,
		LastPath:     s.lastPath,
		BackupCount:  s.backupCount,
		FailureCount: s.failureCount,
	}
	if st.Running && !s.lastBackup.IsZero() {
		st.NextBackup = s.lastBackup.Add(s.interval)
	}
	if s.lastError != nil {
		st.LastError = s.lastError.Error()
	}
	return st
}
