package logreader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Poller monitors the chat log for new lines and sends them through a channel.
// It tracks the file position so only new lines are read and handles log file
// rotation. When file system notifications are enabled, writes are picked up
// immediately and the ticker only acts as a fallback.
type Poller struct {
	path        string
	interval    time.Duration
	useFsnotify bool
	lastPos     int64
	lastSize    int64
	lastMod     time.Time
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	updates     chan *LogEntry
	errChan     chan error
	done        chan struct{}
	running     bool
	runningMu   sync.RWMutex
}

// PollerConfig holds configuration for a Poller.
type PollerConfig struct {
	// Path is the path to the chat log.
	Path string

	// Interval is how often to check for new lines.
	// Default: 1 second
	Interval time.Duration

	// BufferSize is the size of the updates channel buffer.
	// Default: 100
	BufferSize int

	// UseFsnotify enables write notifications on top of the ticker.
	UseFsnotify bool
}

// DefaultPollerConfig returns a PollerConfig with sensible defaults.
func DefaultPollerConfig(path string) *PollerConfig {
	return &PollerConfig{
		Path:        path,
		Interval:    time.Second,
		BufferSize:  100,
		UseFsnotify: true,
	}
}

// NewPoller creates a new Poller with the given configuration. Reading starts
// at the current end of the file; earlier lines are never replayed.
func NewPoller(config *PollerConfig) (*Poller, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.Path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	if config.Interval <= 0 {
		config.Interval = time.Second
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 100
	}

	ctx, cancel := context.WithCancel(context.Background())

	poller := &Poller{
		path:        config.Path,
		interval:    config.Interval,
		useFsnotify: config.UseFsnotify,
		ctx:         ctx,
		cancel:      cancel,
		updates:     make(chan *LogEntry, config.BufferSize),
		errChan:     make(chan error, 1),
		done:        make(chan struct{}),
	}

	if err := poller.initializePosition(); err != nil {
		cancel()
		return nil, fmt.Errorf("initialize position: %w", err)
	}

	return poller, nil
}

// initializePosition moves the read position to the end of the file if it
// exists.
func (p *Poller) initializePosition() error {
	stat, err := os.Stat(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			p.resetPosition()
			return nil
		}
		return fmt.Errorf("stat file: %w", err)
	}

	p.mu.Lock()
	p.lastPos = stat.Size()
	p.lastSize = stat.Size()
	p.lastMod = stat.ModTime()
	p.mu.Unlock()

	return nil
}

func (p *Poller) resetPosition() {
	p.mu.Lock()
	p.lastPos = 0
	p.lastSize = 0
	p.lastMod = time.Time{}
	p.mu.Unlock()
}

// Start begins polling the chat log and returns the channel of new lines.
// The poller runs in a separate goroutine and can be stopped with Stop().
func (p *Poller) Start() <-chan *LogEntry {
	p.runningMu.Lock()
	if p.running {
		p.runningMu.Unlock()
		return p.updates
	}
	p.running = true
	p.runningMu.Unlock()

	go p.poll()

	return p.updates
}

// poll is the main loop that runs in a goroutine.
func (p *Poller) poll() {
	defer close(p.done)
	defer close(p.updates)

	var notify <-chan struct{}
	if p.useFsnotify {
		w, err := newFileWatcher(p.path)
		if err != nil {
			// Fall back to the ticker alone.
			p.reportError(fmt.Errorf("watch %s: %w", p.path, err))
		} else {
			defer w.Close()
			notify = w.Changes()
			go w.run(p.ctx, p.reportError)
		}
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-notify:
		case <-ticker.C:
		}
		if err := p.checkForUpdates(); err != nil {
			p.reportError(err)
		}
	}
}

// reportError sends err without blocking; errors are dropped while the
// channel is full.
func (p *Poller) reportError(err error) {
	select {
	case p.errChan <- err:
	default:
	}
}

// checkForUpdates reads complete lines appended since the last check and
// sends them through the updates channel. A trailing line without a newline
// is left for the next check.
func (p *Poller) checkForUpdates() error {
	file, err := os.Open(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			p.resetPosition()
			return nil
		}
		return fmt.Errorf("open file: %w", err)
	}
	defer func() {
		_ = file.Close() //nolint:errcheck // Ignore error on cleanup
	}()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}

	p.mu.RLock()
	lastPos := p.lastPos
	lastSize := p.lastSize
	lastMod := p.lastMod
	p.mu.RUnlock()

	// A file smaller than what was already read has been rotated or truncated.
	if stat.Size() < lastPos || (stat.Size() < lastSize && !stat.ModTime().Equal(lastMod)) {
		lastPos = 0
	}

	if stat.Size() <= lastPos {
		p.mu.Lock()
		p.lastPos = lastPos
		p.lastSize = stat.Size()
		p.lastMod = stat.ModTime()
		p.mu.Unlock()
		return nil
	}

	if _, err := file.Seek(lastPos, io.SeekStart); err != nil {
		return fmt.Errorf("seek to position %d: %w", lastPos, err)
	}

	reader := bufio.NewReader(file)
	var newEntries []*LogEntry
	newPos := lastPos

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("read file: %w", err)
		}
		newPos += int64(len(line))

		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		newEntries = append(newEntries, NewLogEntry(line))
	}

	p.mu.Lock()
	p.lastPos = newPos
	p.lastSize = stat.Size()
	p.lastMod = stat.ModTime()
	p.mu.Unlock()

	for _, entry := range newEntries {
		select {
		case p.updates <- entry:
		case <-p.ctx.Done():
			return p.ctx.Err()
		}
	}

	return nil
}

// Stop stops the poller and closes the updates channel.
// It blocks until the poller has fully stopped.
func (p *Poller) Stop() {
	p.runningMu.Lock()
	wasRunning := p.running
	p.running = false
	p.runningMu.Unlock()

	p.cancel()
	if wasRunning {
		<-p.done
	}
}

// Errors returns a channel that receives errors encountered during polling.
func (p *Poller) Errors() <-chan error {
	return p.errChan
}

// IsRunning returns whether the poller is currently running.
func (p *Poller) IsRunning() bool {
	p.runningMu.RLock()
	defer p.runningMu.RUnlock()
	return p.running
}

// Path returns the monitored file.
func (p *Poller) Path() string {
	return p.path
}
