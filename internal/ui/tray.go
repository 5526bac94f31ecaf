// Package ui runs the system tray menu: render queue status, pause/resume
// and quit.
package ui

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/getlantern/systray"

	"github.com/heimdex/heimdex-editor/internal/jobs"
)

//go:embed icon.png
var iconBytes []byte

type Tray struct {
	runner *jobs.Runner
	repo   jobs.Repository
	logger *slog.Logger

	statusItem *systray.MenuItem
	queueItem  *systray.MenuItem
	lastItem   *systray.MenuItem
	pauseItem  *systray.MenuItem

	mu sync.Mutex

	refreshInterval time.Duration
	onOpenOutput    func() error
	onQuit          func()
}

type TrayConfig struct {
	Runner     *jobs.Runner
	Repository jobs.Repository
	Logger     *slog.Logger
	// RefreshInterval controls how often queue counts are re-read.
	RefreshInterval time.Duration
	OnOpenOutput    func() error
	OnQuit          func()
}

func NewTray(cfg TrayConfig) *Tray {
	interval := cfg.RefreshInterval
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Tray{
		runner:          cfg.Runner,
		repo:            cfg.Repository,
		logger:          cfg.Logger,
		refreshInterval: interval,
		onOpenOutput:    cfg.OnOpenOutput,
		onQuit:          cfg.OnQuit,
	}
}

// Run blocks on the platform event loop until Quit.
func (t *Tray) Run(ctx context.Context) {
	systray.Run(func() { t.onReady(ctx) }, t.onExit)
}

func (t *Tray) onReady(ctx context.Context) {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Heimdex")
	systray.SetTooltip("Heimdex Editor")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Render queue status")
	t.statusItem.Disable()

	t.queueItem = systray.AddMenuItem(QueueLine(nil), "Queued exports and snapshots")
	t.queueItem.Disable()

	t.lastItem = systray.AddMenuItem(LastOutputLine(nil, time.Now()), "Most recent output")
	t.lastItem.Disable()

	systray.AddSeparator()

	t.pauseItem = systray.AddMenuItem("Pause", "Pause rendering")
	openItem := systray.AddMenuItem("Open Output Folder", "Show rendered files")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Heimdex Editor")

	go t.refreshLoop(ctx)

	go func() {
		for {
			select {
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-openItem.ClickedCh:
				t.handleOpenOutput()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(t.refreshInterval)
	defer ticker.Stop()

	for {
		t.refresh(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (t *Tray) refresh(ctx context.Context) {
	if t.repo == nil {
		return
	}
	counts, err := t.repo.CountByStatus(ctx)
	if err != nil {
		t.logger.Debug("tray refresh failed", "error", err)
		return
	}
	recent, _ := t.repo.ListJobs(ctx, 20)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.queueItem.SetTitle(QueueLine(counts))
	t.lastItem.SetTitle(LastOutputLine(recent, time.Now()))
	if t.runner != nil && t.runner.IsPaused() {
		return
	}
	t.statusItem.SetTitle("Status: " + StatusLabel(counts))
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner == nil {
		return
	}

	if t.runner.IsPaused() {
		t.runner.Resume()
		t.pauseItem.SetTitle("Pause")
		t.statusItem.SetTitle("Status: Idle")
	} else {
		t.runner.Pause()
		t.pauseItem.SetTitle("Resume")
		t.statusItem.SetTitle("Status: Paused")
	}
}

func (t *Tray) handleOpenOutput() {
	if t.onOpenOutput != nil {
		if err := t.onOpenOutput(); err != nil {
			t.logger.Error("failed to open output folder", "error", err)
		}
	}
}

func (t *Tray) Quit() {
	systray.Quit()
}

// StatusLabel summarises job counts for the status item.
func StatusLabel(counts map[string]int) string {
	switch {
	case counts[jobs.StatusRunning] > 0:
		return "Rendering"
	case counts[jobs.StatusPending] > 0:
		return "Queued"
	default:
		return "Idle"
	}
}

func QueueLine(counts map[string]int) string {
	pending := counts[jobs.StatusPending] + counts[jobs.StatusRunning]
	if pending == 0 {
		return "Queue: empty"
	}
	return fmt.Sprintf("Queue: %s %s", humanize.Comma(int64(pending)), plural(pending, "job", "jobs"))
}

// LastOutputLine describes the newest completed job in recent, which is
// ordered newest first.
func LastOutputLine(recent []*jobs.Job, now time.Time) string {
	for _, j := range recent {
		if j.Status != jobs.StatusCompleted || j.OutputPath == "" {
			continue
		}
		line := "Last: " + filepath.Base(j.OutputPath)
		if info, err := os.Stat(j.OutputPath); err == nil {
			line += " (" + humanize.Bytes(uint64(info.Size())) + ")"
		}
		return line + ", " + humanize.RelTime(j.UpdatedAt, now, "ago", "from now")
	}
	return "Last: none"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
