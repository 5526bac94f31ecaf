// Package pipeline renders export jobs and snapshots. It is the consumer side
// of the editor: the session only describes jobs, this package produces files.
package pipeline

import (
	"context"
	"errors"

	"github.com/heimdex/heimdex-editor/internal/export"
)

var ErrOpenCVUnavailable = errors.New("opencv probing not available: build with -tags=opencv and install OpenCV/GoCV")

// Prober reads a source's dimensions and frame rate.
type Prober interface {
	Probe(ctx context.Context, filePath string) (*ProbeResult, error)
}

type Renderer interface {
	Probe(ctx context.Context, filePath string) (*ProbeResult, error)
	Snapshot(ctx context.Context, req export.Snapshot) error
	Export(ctx context.Context, job export.Job, outputPath string) error
}

type ProbeResult struct {
	Width     int
	Height    int
	FrameRate float64
	Duration  float64
}

// FPS returns the frame rate rounded to a whole number, at least 1.
func (p ProbeResult) FPS() int {
	fps := int(p.FrameRate + 0.5)
	if fps < 1 {
		return 1
	}
	return fps
}
