package config

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher polls the quiz configuration file and reports edits through a
// callback, letting an operator retune a running bot (log level, game
// knobs) without restarting it. An edit that fails to parse or validate is
// logged and ignored; the last good configuration stays in effect.
type Watcher struct {
	path     string
	interval time.Duration
	onChange func(old, new *Config)

	mu       sync.Mutex
	current  *Config
	done     chan struct{}
	stopOnce sync.Once

	// file state from the last accepted read
	seenMtime time.Time
	seenHash  [sha256.Size]byte
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. The default is 5 seconds; config
// edits are rare, so coarse is fine.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher loads the file once, then polls it in a background goroutine
// until [Watcher.Stop].
func NewWatcher(path string, onChange func(old, new *Config), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: 5 * time.Second,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	cfg, hash, mtime, err := w.snapshot()
	if err != nil {
		return nil, fmt.Errorf("config: watcher initial load: %w", err)
	}
	w.current = cfg
	w.seenHash = hash
	w.seenMtime = mtime

	go w.poll()
	return w, nil
}

// Current returns the last configuration that parsed and validated.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Stop ends the polling goroutine. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

func (w *Watcher) poll() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

// sweep re-reads the file when its mtime moved and, if the content really
// changed and is valid, swaps the current config and fires the callback.
func (w *Watcher) sweep() {
	info, err := os.Stat(w.path)
	if err != nil {
		slog.Warn("config file unreachable, keeping last good", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	mtime := w.seenMtime
	w.mu.Unlock()

	if info.ModTime().Equal(mtime) {
		return
	}

	cfg, hash, newMtime, err := w.snapshot()
	if err != nil {
		slog.Warn("config edit rejected, keeping last good", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	if hash == w.seenHash {
		// Touched, not edited.
		w.seenMtime = newMtime
		w.mu.Unlock()
		return
	}
	old := w.current
	w.current = cfg
	w.seenHash = hash
	w.seenMtime = newMtime
	w.mu.Unlock()

	slog.Info("configuration reloaded", "path", w.path)

	// Outside the lock: the callback may call Current.
	if w.onChange != nil {
		w.onChange(old, cfg)
	}
}

// snapshot reads, hashes, and parses the file in one pass so the hash and
// the parsed config always describe the same bytes.
func (w *Watcher) snapshot() (*Config, [sha256.Size]byte, time.Time, error) {
	var none [sha256.Size]byte

	f, err := os.Open(w.path)
	if err != nil {
		return nil, none, time.Time{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, none, time.Time{}, err
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, none, time.Time{}, err
	}

	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, none, time.Time{}, err
	}

	return cfg, sha256.Sum256(data), info.ModTime(), nil
}
