// Package watcher reports changes to individual files by polling their
// metadata. It is used to pick up edits to the plugins file without a
// restart.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

type Watcher interface {
	Watch(ctx context.Context, path string) error
	Stop() error
	OnChange(callback func(path string, event EventType))
}

type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
)

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

type fileState struct {
	exists  bool
	size    int64
	modTime time.Time
}

func statFile(path string) fileState {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}
	}
	return fileState{exists: true, size: info.Size(), modTime: info.ModTime()}
}

// diff reports the event turning prev into cur, if any.
func diff(prev, cur fileState) (EventType, bool) {
	switch {
	case !prev.exists && cur.exists:
		return EventCreate, true
	case prev.exists && !cur.exists:
		return EventDelete, true
	case prev.exists && (prev.size != cur.size || !prev.modTime.Equal(cur.modTime)):
		return EventModify, true
	default:
		return 0, false
	}
}

type PollWatcher struct {
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	callback func(path string, event EventType)

	stop     chan struct{}
	stopOnce sync.Once
}

func NewPollWatcher(interval time.Duration, logger *slog.Logger) *PollWatcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &PollWatcher{interval: interval, logger: logger, stop: make(chan struct{})}
}

func (w *PollWatcher) OnChange(callback func(path string, event EventType)) {
	w.mu.Lock()
	w.callback = callback
	w.mu.Unlock()
}

// Watch polls path until ctx is done or Stop is called. A missing file is
// not an error; its creation is reported as EventCreate.
func (w *PollWatcher) Watch(ctx context.Context, path string) error {
	prev := statFile(path)
	if w.logger != nil {
		w.logger.Debug("watching file", "path", path, "exists", prev.exists)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.stop:
			return nil
		case <-ticker.C:
		}

		cur := statFile(path)
		event, changed := diff(prev, cur)
		prev = cur
		if !changed {
			continue
		}

		if w.logger != nil {
			w.logger.Info("file changed", "path", path, "event", event.String())
		}
		w.mu.Lock()
		cb := w.callback
		w.mu.Unlock()
		if cb != nil {
			cb(path, event)
		}
	}
}

func (w *PollWatcher) Stop() error {
	w.stopOnce.Do(func() { close(w.stop) })
	return nil
}
