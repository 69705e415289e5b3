package logreader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func appendLines(t *testing.T, path, data string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	if _, err := f.WriteString(data); err != nil {
		t.Fatalf("write log: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close log: %v", err)
	}
}

func drain(p *Poller) []*LogEntry {
	var out []*LogEntry
	for {
		select {
		case e := <-p.updates:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestNewPoller(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "chat.log")

	if err := os.WriteFile(logPath, []byte(""), 0o644); err != nil {
		t.Fatalf("Failed to create test log file: %v", err)
	}

	t.Run("ValidConfig", func(t *testing.T) {
		poller, err := NewPoller(DefaultPollerConfig(logPath))
		if err != nil {
			t.Fatalf("NewPoller() error = %v", err)
		}
		if poller.Path() != logPath {
			t.Errorf("Path() = %q, want %q", poller.Path(), logPath)
		}
		poller.Stop()
	})

	t.Run("NilConfig", func(t *testing.T) {
		if _, err := NewPoller(nil); err == nil {
			t.Error("NewPoller(nil) expected error, got nil")
		}
	})

	t.Run("EmptyPath", func(t *testing.T) {
		if _, err := NewPoller(&PollerConfig{}); err == nil {
			t.Error("NewPoller() with empty path expected error, got nil")
		}
	})

	t.Run("NonExistentFile", func(t *testing.T) {
		poller, err := NewPoller(DefaultPollerConfig(filepath.Join(tmpDir, "missing.log")))
		if err != nil {
			t.Fatalf("NewPoller() with non-existent file error = %v", err)
		}
		poller.Stop()
	})
}

func TestPoller_SkipsExistingContent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "chat.log")
	appendLines(t, logPath, "[10:00:00] Delve level: 2 duration: 1:00.00\n")

	poller, err := NewPoller(&PollerConfig{Path: logPath})
	if err != nil {
		t.Fatalf("NewPoller() error = %v", err)
	}
	defer poller.Stop()

	if err := poller.checkForUpdates(); err != nil {
		t.Fatalf("checkForUpdates() error = %v", err)
	}
	if got := drain(poller); len(got) != 0 {
		t.Fatalf("got %d entries from existing content, want 0", len(got))
	}

	appendLines(t, logPath, "[10:01:00] Delve level: 3 duration: 1:00.00\n\n")
	if err := poller.checkForUpdates(); err != nil {
		t.Fatalf("checkForUpdates() error = %v", err)
	}
	got := drain(poller)
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
	if got[0].Timestamp != "10:01:00" {
		t.Errorf("Timestamp = %q, want 10:01:00", got[0].Timestamp)
	}
}

func TestPoller_PartialLine(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "chat.log")
	appendLines(t, logPath, "")

	poller, err := NewPoller(&PollerConfig{Path: logPath})
	if err != nil {
		t.Fatalf("NewPoller() error = %v", err)
	}
	defer poller.Stop()

	appendLines(t, logPath, "Delve level: 4 dur")
	if err := poller.checkForUpdates(); err != nil {
		t.Fatalf("checkForUpdates() error = %v", err)
	}
	if got := drain(poller); len(got) != 0 {
		t.Fatalf("partial line was emitted: %+v", got[0])
	}

	appendLines(t, logPath, "ation: 1:00.00\n")
	if err := poller.checkForUpdates(); err != nil {
		t.Fatalf("checkForUpdates() error = %v", err)
	}
	got := drain(poller)
	if len(got) != 1 || got[0].Message != "Delve level: 4 duration: 1:00.00" {
		t.Fatalf("got %+v, want the joined line", got)
	}
}

func TestPoller_Rotation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "chat.log")
	appendLines(t, logPath, "[09:00:00] an old line that is fairly long\n")

	poller, err := NewPoller(&PollerConfig{Path: logPath})
	if err != nil {
		t.Fatalf("NewPoller() error = %v", err)
	}
	defer poller.Stop()

	if err := os.WriteFile(logPath, []byte("[11:00:00] short\n"), 0o644); err != nil {
		t.Fatalf("rotate log: %v", err)
	}
	if err := poller.checkForUpdates(); err != nil {
		t.Fatalf("checkForUpdates() error = %v", err)
	}
	got := drain(poller)
	if len(got) != 1 || got[0].Message != "short" {
		t.Fatalf("got %+v after rotation, want the new line", got)
	}
}

func TestPoller_StartStop(t *testing.T) {
	for _, useFsnotify := range []bool{false, true} {
		t.Run(map[bool]string{false: "ticker", true: "fsnotify"}[useFsnotify], func(t *testing.T) {
			logPath := filepath.Join(t.TempDir(), "chat.log")
			appendLines(t, logPath, "")

			poller, err := NewPoller(&PollerConfig{
				Path:        logPath,
				Interval:    50 * time.Millisecond,
				UseFsnotify: useFsnotify,
			})
			if err != nil {
				t.Fatalf("NewPoller() error = %v", err)
			}

			updates := poller.Start()
			if !poller.IsRunning() {
				t.Fatal("poller should be running")
			}
			if again := poller.Start(); again != updates {
				t.Error("second Start() returned a different channel")
			}

			appendLines(t, logPath, "[12:00:00] Delve level: 6 duration: 2:00.00\n")

			select {
			case entry := <-updates:
				if entry.Message != "Delve level: 6 duration: 2:00.00" {
					t.Errorf("Message = %q", entry.Message)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("timed out waiting for entry")
			}

			poller.Stop()
			if poller.IsRunning() {
				t.Error("poller should be stopped")
			}
			if _, ok := <-updates; ok {
				t.Error("updates channel should be closed after Stop")
			}
		})
	}
}
