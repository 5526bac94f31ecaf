package api

import (
	"time"

	"github.com/heimdex/heimdex-editor/internal/editor"
	"github.com/heimdex/heimdex-editor/internal/export"
	"github.com/heimdex/heimdex-editor/internal/jobs"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State       string         `json:"state"`
	LastError   string         `json:"last_error,omitempty"`
	Session     string         `json:"session"`
	JobsPending int            `json:"jobs_pending"`
	JobsRunning int            `json:"jobs_running"`
	ActiveJob   *JobResponse   `json:"active_job,omitempty"`
	Counts      map[string]int `json:"counts"`
}

type SessionResponse struct {
	Version       uint64            `json:"version"`
	Phase         string            `json:"phase"`
	SourcePath    string            `json:"source_path,omitempty"`
	SourceURI     string            `json:"source_uri,omitempty"`
	Original      editor.Dimensions `json:"original"`
	Dimensions    editor.Dimensions `json:"dimensions"`
	MinWidth      int               `json:"min_width,omitempty"`
	MinHeight     int               `json:"min_height,omitempty"`
	OriginalFPS   int               `json:"original_fps"`
	FPS           int               `json:"fps"`
	Catalog       editor.Catalog    `json:"catalog"`
	Format        string            `json:"format,omitempty"`
	Plugin        string            `json:"plugin,omitempty"`
	MutedByFormat bool              `json:"muted_by_format"`
}

// EditResponse answers every session edit. Rejected lists the fields whose
// input was refused or clamped so the front end can flag them.
type EditResponse struct {
	State    SessionResponse `json:"state"`
	Rejected []editor.Field  `json:"rejected"`
}

type LoadRequest struct {
	Path string `json:"path"`
	FPS  int    `json:"fps,omitempty"`
	// Probe reads dimensions and frame rate from the file and marks the
	// session ready in the same call.
	Probe bool `json:"probe,omitempty"`
}

type DimensionsRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RawValueRequest carries text exactly as typed into a field.
type RawValueRequest struct {
	Value string `json:"value"`
}

type OptionsRequest struct {
	// Catalog is ordered. When empty, Formats is used instead, and when both
	// are empty the agent's configured catalog is applied.
	Catalog editor.Catalog             `json:"catalog,omitempty"`
	Formats map[string][]editor.Plugin `json:"formats,omitempty"`
}

type CatalogResponse struct {
	Formats editor.Catalog `json:"formats"`
}

type FormatRequest struct {
	Format string `json:"format"`
}

type PluginRequest struct {
	Title string `json:"title"`
}

type SnapshotRequest struct {
	// Path is the destination picked by the front end's save dialog. Empty
	// with Cancelled set means the user dismissed it; empty otherwise lets
	// the agent choose.
	Path      string `json:"path,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
}

type SnapshotResponse struct {
	Cancelled bool    `json:"cancelled"`
	Output    string  `json:"output,omitempty"`
	Time      float64 `json:"time"`
}

type ExportResponse struct {
	Job export.Job `json:"job"`
}

type JobResponse struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path,omitempty"`
	Progress   int    `json:"progress"`
	Error      string `json:"error,omitempty"`
	Location   string `json:"location,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func SessionToResponse(s editor.State) SessionResponse {
	resp := SessionResponse{
		Version:       s.Version,
		Phase:         s.Phase.String(),
		SourcePath:    s.SourcePath,
		SourceURI:     s.SourceURI,
		Original:      s.Original,
		Dimensions:    s.Dimensions,
		OriginalFPS:   s.OriginalFPS,
		FPS:           s.FPS,
		Catalog:       s.Catalog,
		Format:        s.Format,
		Plugin:        s.Plugin,
		MutedByFormat: s.MutedByFormat(),
	}
	if resp.Catalog == nil {
		resp.Catalog = editor.Catalog{}
	}
	if s.HasDimensions() {
		resp.MinWidth = s.MinWidth()
		resp.MinHeight = s.MinHeight()
	}
	return resp
}

func ResultToResponse(r editor.Result) EditResponse {
	rejected := r.Rejected
	if rejected == nil {
		rejected = []editor.Field{}
	}
	return EditResponse{State: SessionToResponse(r.State), Rejected: rejected}
}

func JobToResponse(j *jobs.Job) JobResponse {
	return JobResponse{
		ID:         j.ID,
		Type:       j.Type,
		Status:     j.Status,
		InputPath:  j.InputPath,
		OutputPath: j.OutputPath,
		Progress:   j.Progress,
		Error:      j.Error,
		Location:   j.Location,
		CreatedAt:  j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  j.UpdatedAt.Format(time.RFC3339),
	}
}
