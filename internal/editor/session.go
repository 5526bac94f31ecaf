package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/heimdex/heimdex-editor/internal/export"
	"github.com/heimdex/heimdex-editor/internal/logging"
)

// MediaSource is the video element the dialog previews.
type MediaSource interface {
	SetSource(uri string)
	CurrentTime() float64
	StartTime() float64
	EndTime() float64
	Muted() bool
	Mute()
	Unmute()
}

// DestinationChooser asks where a snapshot should be written. ok is false
// when the user cancelled.
type DestinationChooser interface {
	Choose(ctx context.Context, suggestedName string) (path string, ok bool, err error)
}

// ExportSink receives finished jobs. Calls are fire-and-forget from the
// session's point of view.
type ExportSink interface {
	Export(ctx context.Context, job export.Job) error
	Snapshot(ctx context.Context, req export.Snapshot) error
}

// RejectHook is notified whenever an input is refused or clamped.
type RejectHook func(field Field)

// ChangeHook receives the state after every applied transition. Hooks run
// outside the session lock, so concurrent edits may deliver states out of
// order; State.Version tells which is newer.
type ChangeHook func(State)

type Config struct {
	Media    MediaSource
	Chooser  DestinationChooser
	Sink     ExportSink
	OnReject RejectHook
	OnChange ChangeHook
	Logger   *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Result is returned by every edit: the state after the edit and the fields
// whose input was rejected or clamped.
type Result struct {
	State    State
	Rejected []Field
}

type SnapshotResult struct {
	Request   export.Snapshot
	Cancelled bool
}

// Session serialises transitions over a State and applies their effects to
// the collaborators.
type Session struct {
	media    MediaSource
	chooser  DestinationChooser
	sink     ExportSink
	onReject RejectHook
	onChange ChangeHook
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	state   State
	onReady func()
}

func NewSession(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Session{
		media:    cfg.Media,
		chooser:  cfg.Chooser,
		sink:     cfg.Sink,
		onReject: cfg.OnReject,
		onChange: cfg.OnChange,
		logger:   logger,
		now:      now,
	}
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Catalog = st.Catalog.Clone()
	return st
}

// Load starts loading sourcePath. onReady runs once Ready is called.
func (s *Session) Load(sourcePath string, fps int, onReady func()) (Result, error) {
	return s.dispatch(Load{SourcePath: sourcePath, FPS: fps}, func() { s.onReady = onReady })
}

// Ready signals that the media can report its metrics.
func (s *Session) Ready() (Result, error) {
	return s.dispatch(Ready{}, nil)
}

// LoadReady loads a source whose size and frame rate are already known and
// marks it ready in one transition. Observers never see it half loaded; if
// any step is refused nothing changes.
func (s *Session) LoadReady(sourcePath string, fps, width, height int, onReady func()) (Result, error) {
	return s.dispatchWith(func() []Event {
		return []Event{
			Load{SourcePath: sourcePath, FPS: fps},
			SetDimensions{Width: width, Height: height},
			Ready{},
		}
	}, func() { s.onReady = onReady })
}

func (s *Session) SetDimensions(width, height int) (Result, error) {
	return s.dispatch(SetDimensions{Width: width, Height: height}, nil)
}

func (s *Session) ChangeDimension(axis Axis, raw string) (Result, error) {
	return s.dispatch(ChangeDimension{Axis: axis, Raw: raw}, nil)
}

func (s *Session) SetExportOptions(c Catalog) (Result, error) {
	return s.dispatch(SetExportOptions{Catalog: c}, nil)
}

func (s *Session) SelectFormat(format string) (Result, error) {
	return s.dispatchWith(func() []Event {
		return []Event{SelectFormat{Format: format, MediaMuted: s.media != nil && s.media.Muted()}}
	}, nil)
}

func (s *Session) SelectPlugin(title string) (Result, error) {
	return s.dispatch(SelectPlugin{Title: title}, nil)
}

func (s *Session) ChangeFPS(raw string) (Result, error) {
	return s.dispatch(ChangeFPS{Raw: raw}, nil)
}

func (s *Session) dispatch(ev Event, onApplied func()) (Result, error) {
	return s.dispatchWith(func() []Event { return []Event{ev} }, onApplied)
}

// dispatchWith builds the events under the lock so inputs read from the media
// element are consistent with the state they are applied to. The events are
// applied as one transition. Media effects are applied under the lock; the
// hooks and ready continuation run after it is released.
func (s *Session) dispatchWith(build func() []Event, onApplied func()) (Result, error) {
	s.mu.Lock()
	next := s.state
	var effects []Effect
	for _, ev := range build() {
		st, eff, err := Reduce(next, ev)
		if err != nil {
			s.mu.Unlock()
			s.logger.Debug("edit refused", "event", fmt.Sprintf("%T", ev), "error", err)
			return Result{State: s.State()}, err
		}
		next = st
		effects = append(effects, eff...)
	}
	next.Version = s.state.Version + 1
	s.state = next
	if onApplied != nil {
		onApplied()
	}

	var ready func()
	for _, e := range effects {
		switch e := e.(type) {
		case SetSource:
			if s.media != nil {
				s.media.SetSource(e.URI)
			}
		case Mute:
			if s.media != nil {
				s.media.Mute()
			}
		case Unmute:
			if s.media != nil {
				s.media.Unmute()
			}
		case NotifyReady:
			ready, s.onReady = s.onReady, nil
		}
	}
	snapshot := next
	snapshot.Catalog = next.Catalog.Clone()
	s.mu.Unlock()

	rejected := Rejected(effects)
	for _, f := range rejected {
		s.logger.Debug("input rejected", "field", string(f))
		if s.onReject != nil {
			s.onReject(f)
		}
	}
	if s.onChange != nil {
		s.onChange(snapshot)
	}
	if ready != nil {
		ready()
	}

	return Result{State: snapshot, Rejected: rejected}, nil
}

// RequestSnapshot asks for a destination and sends a snapshot request for
// the current playback position. A cancelled prompt is not an error.
func (s *Session) RequestSnapshot(ctx context.Context) (SnapshotResult, error) {
	return s.RequestSnapshotTo(ctx, s.chooser)
}

// RequestSnapshotTo is RequestSnapshot with a chooser for this request only,
// e.g. one wrapping a path picked by the front end's own save dialog.
func (s *Session) RequestSnapshotTo(ctx context.Context, chooser DestinationChooser) (SnapshotResult, error) {
	st := s.State()
	if st.Phase != PhaseReady {
		return SnapshotResult{}, ErrNotReady
	}
	if s.media == nil || chooser == nil || s.sink == nil {
		return SnapshotResult{}, fmt.Errorf("snapshot collaborators not configured")
	}

	at := s.media.CurrentTime()
	name := SnapshotName(s.now())

	path, ok, err := chooser.Choose(ctx, name)
	if err != nil {
		return SnapshotResult{}, fmt.Errorf("failed to choose snapshot destination: %w", err)
	}
	if !ok {
		s.logger.Info("snapshot cancelled", "suggested", name)
		return SnapshotResult{Cancelled: true}, nil
	}

	req := export.Snapshot{InputPath: st.SourcePath, OutputPath: path, Time: at}
	if err := s.sink.Snapshot(ctx, req); err != nil {
		return SnapshotResult{}, fmt.Errorf("failed to send snapshot: %w", err)
	}
	s.logger.Info("snapshot requested", "output", path, "time", at)
	return SnapshotResult{Request: req}, nil
}

// RequestExport builds the export job from the current state and media trim
// range and hands it to the sink.
func (s *Session) RequestExport(ctx context.Context) (export.Job, error) {
	st := s.State()
	if s.media == nil || s.sink == nil {
		return export.Job{}, fmt.Errorf("export collaborators not configured")
	}

	job, err := BuildExportJob(st, MediaState{
		StartTime: s.media.StartTime(),
		EndTime:   s.media.EndTime(),
		Muted:     s.media.Muted(),
	})
	if err != nil {
		s.logger.Warn("export aborted", "error", err)
		return export.Job{}, err
	}

	if err := s.sink.Export(ctx, job); err != nil {
		return export.Job{}, fmt.Errorf("failed to send export: %w", err)
	}
	s.logger.Info("export requested",
		"format", job.Format,
		"plugin", job.ServiceTitle,
		"width", job.ExportOptions.Width,
		"height", job.ExportOptions.Height,
		"fps", job.ExportOptions.FPS,
	)
	return job, nil
}
