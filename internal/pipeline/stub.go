package pipeline

import (
	"context"
	"log/slog"

	"github.com/heimdex/heimdex-editor/internal/export"
)

// Stub logs requests instead of rendering. Used when ffmpeg is unavailable.
// Probes answer a fixed result unless a Prober is attached.
type Stub struct {
	logger *slog.Logger
	probe  ProbeResult
	prober Prober
}

type StubOption func(*Stub)

// WithProber answers probes with p instead of the fixed result.
func WithProber(p Prober) StubOption {
	return func(s *Stub) {
		s.prober = p
	}
}

func NewStub(logger *slog.Logger, probe ProbeResult, opts ...StubOption) *Stub {
	s := &Stub{logger: logger, probe: probe}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Stub) Probe(ctx context.Context, filePath string) (*ProbeResult, error) {
	if s.prober != nil {
		return s.prober.Probe(ctx, filePath)
	}
	s.logger.Info("renderer stub: probe requested", "path", filePath)
	p := s.probe
	return &p, nil
}

func (s *Stub) Snapshot(ctx context.Context, req export.Snapshot) error {
	s.logger.Info("renderer stub: snapshot requested",
		"input", req.InputPath, "output", req.OutputPath, "time", req.Time)
	return nil
}

func (s *Stub) Export(ctx context.Context, job export.Job, outputPath string) error {
	s.logger.Info("renderer stub: export requested",
		"input", job.InputPath, "output", outputPath, "format", job.Format)
	return nil
}
