package jobs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/heimdex/heimdex-editor/internal/export"
	"github.com/heimdex/heimdex-editor/internal/logging"
)

// Queue persists export and snapshot requests for the Runner. It is the
// editor session's ExportSink.
type Queue struct {
	repo      Repository
	outputDir func() string
	logger    *slog.Logger
	onEnqueue func()

	// naming serialises output name selection with job creation.
	naming sync.Mutex
}

// maxOutputCopies bounds the numbered names tried for one export.
const maxOutputCopies = 1000

type QueueConfig struct {
	Repository Repository
	// OutputDir returns the directory rendered exports are written to.
	OutputDir func() string
	Logger    *slog.Logger
	// OnEnqueue is called after a job is stored, typically Runner.Wake.
	OnEnqueue func()
}

func NewQueue(cfg QueueConfig) *Queue {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Queue{
		repo:      cfg.Repository,
		outputDir: cfg.OutputDir,
		logger:    logger,
		onEnqueue: cfg.OnEnqueue,
	}
}

func (q *Queue) Export(ctx context.Context, job export.Job) error {
	_, err := q.EnqueueExport(ctx, job)
	return err
}

func (q *Queue) Snapshot(ctx context.Context, req export.Snapshot) error {
	_, err := q.EnqueueSnapshot(ctx, req)
	return err
}

// EnqueueExport stores job and returns the queued record. The output path is
// decided here so callers can report it before rendering starts. It never
// names a file that already exists or that an unfinished job will write:
// repeated exports become "clip 2.gif", "clip 3.gif" and so on.
func (q *Queue) EnqueueExport(ctx context.Context, job export.Job) (*Job, error) {
	j, err := newJob(TypeExport, job.InputPath, "", job)
	if err != nil {
		return nil, err
	}
	if q.outputDir == nil {
		return j, q.enqueue(ctx, j)
	}

	q.naming.Lock()
	defer q.naming.Unlock()
	out, err := q.freeOutputPath(ctx, q.outputDir(), job)
	if err != nil {
		return nil, err
	}
	j.OutputPath = out
	return j, q.enqueue(ctx, j)
}

func (q *Queue) freeOutputPath(ctx context.Context, dir string, job export.Job) (string, error) {
	for n := 1; n <= maxOutputCopies; n++ {
		candidate := filepath.Join(dir, export.NumberedOutputName(job.InputPath, job.Format, n))
		if _, err := os.Stat(candidate); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to check output path: %w", err)
		}
		inUse, err := q.repo.OutputInUse(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check queued outputs: %w", err)
		}
		if !inUse {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free output name for %s in %s", filepath.Base(job.InputPath), dir)
}

func (q *Queue) EnqueueSnapshot(ctx context.Context, req export.Snapshot) (*Job, error) {
	if req.OutputPath == "" {
		return nil, fmt.Errorf("snapshot output path is required")
	}
	j, err := newJob(TypeSnapshot, req.InputPath, req.OutputPath, req)
	if err != nil {
		return nil, err
	}
	return j, q.enqueue(ctx, j)
}

func (q *Queue) enqueue(ctx context.Context, j *Job) error {
	if err := q.repo.CreateJob(ctx, j); err != nil {
		return fmt.Errorf("failed to queue %s job: %w", j.Type, err)
	}
	q.logger.Info("job queued", "job_id", j.ID, "type", j.Type, "output", j.OutputPath)
	if q.onEnqueue != nil {
		q.onEnqueue()
	}
	return nil
}
