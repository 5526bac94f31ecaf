package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/heimdex/heimdex-editor/internal/export"
	"github.com/heimdex/heimdex-editor/internal/logging"
	"github.com/heimdex/heimdex-editor/internal/pipeline"
)

// Publisher delivers a rendered export to the plugin it was made for and
// returns where it ended up.
type Publisher interface {
	Publish(ctx context.Context, path string, job export.Job) (string, error)
}

// Runner renders queued jobs one at a time.
type Runner struct {
	repo         Repository
	renderer     pipeline.Renderer
	publisher    Publisher
	logger       *slog.Logger
	pollInterval time.Duration
	wake         chan struct{}
	running      atomic.Bool
	paused       atomic.Bool
}

type RunnerOption func(*Runner)

// WithPublisher hands finished exports to p. Without one they stay in the
// output directory.
func WithPublisher(p Publisher) RunnerOption {
	return func(r *Runner) {
		r.publisher = p
	}
}

func NewRunner(repo Repository, renderer pipeline.Renderer, logger *slog.Logger, pollInterval time.Duration, opts ...RunnerOption) *Runner {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	r := &Runner{
		repo:         repo,
		renderer:     renderer,
		logger:       logger,
		pollInterval: pollInterval,
		wake:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("render runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("render runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
		case <-r.wake:
		}
		if !r.paused.Load() {
			r.Drain(ctx)
		}
	}
}

// Wake asks the runner to look for work without waiting for the next tick.
func (r *Runner) Wake() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("render runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("render runner resumed")
	r.Wake()
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

// Drain processes pending jobs until none remain, the context ends or the
// runner is paused.
func (r *Runner) Drain(ctx context.Context) {
	for ctx.Err() == nil && !r.paused.Load() {
		if !r.processNextJob(ctx) {
			return
		}
	}
}

func (r *Runner) processNextJob(ctx context.Context) bool {
	pending, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return false
	}
	if len(pending) == 0 {
		return false
	}

	job := pending[0]
	logger := logging.WithJobID(r.logger, job.ID).With("type", job.Type)
	logger.Info("processing job")

	r.repo.UpdateJobStatus(ctx, job.ID, StatusRunning, "")
	start := time.Now()

	location, err := r.render(ctx, job)
	if err != nil {
		logger.Error("job failed", "error", err)
		r.repo.UpdateJobStatus(ctx, job.ID, StatusFailed, truncateStr(err.Error(), 512))
		return true
	}

	if location != "" {
		r.repo.SetJobLocation(ctx, job.ID, location)
	}
	r.repo.UpdateJobProgress(ctx, job.ID, 100)
	r.repo.UpdateJobStatus(ctx, job.ID, StatusCompleted, "")

	attrs := []any{"duration", time.Since(start).Round(time.Millisecond), "output", job.OutputPath}
	if location != job.OutputPath {
		attrs = append(attrs, "location", location)
	}
	if info, err := os.Stat(job.OutputPath); err == nil {
		attrs = append(attrs, "size", humanize.Bytes(uint64(info.Size())))
	}
	if job.Type == TypeExport {
		if e, err := job.ExportJob(); err == nil {
			attrs = append(attrs, "clip_length", export.Timecode(e.Duration()))
		}
	}
	logger.Info("job completed", attrs...)
	return true
}

// render produces the job's output and returns where the user can find it.
func (r *Runner) render(ctx context.Context, job *Job) (string, error) {
	switch job.Type {
	case TypeExport:
		e, err := job.ExportJob()
		if err != nil {
			return "", err
		}
		if job.OutputPath == "" {
			return "", fmt.Errorf("export job has no output path")
		}
		if err := r.renderer.Export(ctx, e, job.OutputPath); err != nil {
			return "", err
		}
		if r.publisher == nil {
			return job.OutputPath, nil
		}
		return r.publisher.Publish(ctx, job.OutputPath, e)

	case TypeSnapshot:
		s, err := job.SnapshotRequest()
		if err != nil {
			return "", err
		}
		if err := r.renderer.Snapshot(ctx, s); err != nil {
			return "", err
		}
		return s.OutputPath, nil

	default:
		return "", fmt.Errorf("unknown job type %q", job.Type)
	}
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[len(s)-maxLen:]
}
