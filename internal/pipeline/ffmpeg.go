package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/heimdex/heimdex-editor/internal/editor"
	"github.com/heimdex/heimdex-editor/internal/export"
)

// CommandRunner runs external commands; tests replace it to capture args.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

type ExecCommandRunner struct{}

func (r ExecCommandRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", err, tail(stderr.String(), 512))
	}
	return nil
}

func (r ExecCommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// FFmpeg renders with the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	runner      CommandRunner
	logger      *slog.Logger
}

type FFmpegOption func(*FFmpeg)

func WithBinaries(ffmpegPath, ffprobePath string) FFmpegOption {
	return func(f *FFmpeg) {
		if ffmpegPath != "" {
			f.ffmpegPath = ffmpegPath
		}
		if ffprobePath != "" {
			f.ffprobePath = ffprobePath
		}
	}
}

func WithCommandRunner(runner CommandRunner) FFmpegOption {
	return func(f *FFmpeg) {
		f.runner = runner
	}
}

func NewFFmpeg(logger *slog.Logger, opts ...FFmpegOption) *FFmpeg {
	f := &FFmpeg{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		runner:      ExecCommandRunner{},
		logger:      logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// VerifyInstalled checks that ffmpeg can be executed.
func (f *FFmpeg) VerifyInstalled(ctx context.Context) error {
	if _, err := f.runner.Output(ctx, f.ffmpegPath, "-version"); err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
	return nil
}

type probeOutput struct {
	Streams []struct {
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (f *FFmpeg) Probe(ctx context.Context, filePath string) (*ProbeResult, error) {
	out, err := f.runner.Output(ctx, f.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,avg_frame_rate,r_frame_rate:format=duration",
		"-of", "json",
		filePath,
	)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var po probeOutput
	if err := json.Unmarshal(out, &po); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(po.Streams) == 0 {
		return nil, fmt.Errorf("no video stream in %s", filePath)
	}

	s := po.Streams[0]
	rate := parseRate(s.AvgFrameRate)
	if rate == 0 {
		rate = parseRate(s.RFrameRate)
	}
	duration, _ := strconv.ParseFloat(po.Format.Duration, 64)

	return &ProbeResult{Width: s.Width, Height: s.Height, FrameRate: rate, Duration: duration}, nil
}

func (f *FFmpeg) Snapshot(ctx context.Context, req export.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	args := []string{
		"-y",
		"-ss", export.Timecode(req.Time),
		"-i", req.InputPath,
		"-frames:v", "1",
		"-q:v", "2",
		req.OutputPath,
	}
	if err := f.runner.Run(ctx, f.ffmpegPath, args...); err != nil {
		return fmt.Errorf("ffmpeg snapshot failed: %w", err)
	}
	return nil
}

func (f *FFmpeg) Export(ctx context.Context, job export.Job, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	args := ExportArgs(job, outputPath)
	if f.logger != nil {
		f.logger.Debug("running ffmpeg", "args", strings.Join(args, " "))
	}
	if err := f.runner.Run(ctx, f.ffmpegPath, args...); err != nil {
		return fmt.Errorf("ffmpeg export failed: %w", err)
	}
	return nil
}

// ExportArgs builds the ffmpeg command line for job.
func ExportArgs(job export.Job, outputPath string) []string {
	o := job.ExportOptions
	args := []string{"-y"}
	if o.StartTime > 0 {
		args = append(args, "-ss", export.Timecode(o.StartTime))
	}
	if o.EndTime > o.StartTime {
		args = append(args, "-to", export.Timecode(o.EndTime))
	}
	args = append(args, "-i", job.InputPath)

	scale := fmt.Sprintf("fps=%d,scale=%d:%d:flags=lanczos", o.FPS, o.Width, o.Height)

	switch strings.ToLower(job.Format) {
	case "gif":
		args = append(args,
			"-filter_complex", scale+",split[a][b];[a]palettegen[p];[b][p]paletteuse",
			"-loop", "0")
	case "apng":
		args = append(args, "-vf", scale, "-plays", "0", "-f", "apng")
	case "webm":
		args = append(args, "-vf", scale, "-c:v", "libvpx-vp9", "-b:v", "0", "-crf", "32")
	default:
		args = append(args, "-vf", scale, "-c:v", "libx264", "-pix_fmt", "yuv420p", "-movflags", "+faststart")
	}

	if o.Muted || editor.IsSilentFormat(strings.ToLower(job.Format)) {
		args = append(args, "-an")
	}

	return append(args, outputPath)
}

func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
