//go:build !opencv

package pipeline

import "context"

// OpenCVProber is a stub when GoCV/OpenCV is not available.
type OpenCVProber struct{}

// NewOpenCVProber reports ErrOpenCVUnavailable (requires building with -tags=opencv).
func NewOpenCVProber() (*OpenCVProber, error) {
	return nil, ErrOpenCVUnavailable
}

func (p *OpenCVProber) Probe(ctx context.Context, filePath string) (*ProbeResult, error) {
	return nil, ErrOpenCVUnavailable
}
