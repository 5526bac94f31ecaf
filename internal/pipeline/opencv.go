//go:build opencv

package pipeline

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"
)

// OpenCVProber reads stream properties with OpenCV. It lets the dialog size
// and rate-limit a source when ffmpeg is not installed.
type OpenCVProber struct{}

func NewOpenCVProber() (*OpenCVProber, error) {
	return &OpenCVProber{}, nil
}

func (p *OpenCVProber) Probe(ctx context.Context, filePath string) (*ProbeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vc, err := gocv.VideoCaptureFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("opencv failed to open %s: %w", filePath, err)
	}
	defer vc.Close()

	if !vc.IsOpened() {
		return nil, fmt.Errorf("opencv failed to open %s", filePath)
	}

	width := int(vc.Get(gocv.VideoCaptureFrameWidth))
	height := int(vc.Get(gocv.VideoCaptureFrameHeight))
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("no video stream in %s", filePath)
	}

	res := &ProbeResult{
		Width:     width,
		Height:    height,
		FrameRate: vc.Get(gocv.VideoCaptureFPS),
	}
	if frames := vc.Get(gocv.VideoCaptureFrameCount); frames > 0 && res.FrameRate > 0 {
		res.Duration = frames / res.FrameRate
	}
	return res, nil
}
