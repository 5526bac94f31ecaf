// Package jobs queues export and snapshot requests in sqlite and renders
// them in the background.
package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/heimdex/heimdex-editor/internal/export"
)

const (
	TypeExport   = "export"
	TypeSnapshot = "snapshot"

	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type Job struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Status     string          `json:"status"`
	Payload    json.RawMessage `json:"payload"`
	InputPath  string          `json:"input_path"`
	OutputPath string          `json:"output_path,omitempty"`
	Progress   int             `json:"progress"`
	Error      string          `json:"error,omitempty"`
	Location   string          `json:"location,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func NewID() string {
	return uuid.NewString()
}

func newJob(typ, inputPath, outputPath string, payload any) (*Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", typ, err)
	}
	now := time.Now().UTC()
	return &Job{
		ID:         NewID(),
		Type:       typ,
		Status:     StatusPending,
		Payload:    data,
		InputPath:  inputPath,
		OutputPath: outputPath,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// ExportJob decodes the payload of an export job.
func (j *Job) ExportJob() (export.Job, error) {
	var e export.Job
	if j.Type != TypeExport {
		return e, fmt.Errorf("job %s is a %s job", j.ID, j.Type)
	}
	if err := json.Unmarshal(j.Payload, &e); err != nil {
		return e, fmt.Errorf("failed to decode export payload: %w", err)
	}
	return e, nil
}

// SnapshotRequest decodes the payload of a snapshot job.
func (j *Job) SnapshotRequest() (export.Snapshot, error) {
	var s export.Snapshot
	if j.Type != TypeSnapshot {
		return s, fmt.Errorf("job %s is a %s job", j.ID, j.Type)
	}
	if err := json.Unmarshal(j.Payload, &s); err != nil {
		return s, fmt.Errorf("failed to decode snapshot payload: %w", err)
	}
	return s, nil
}

func (j *Job) Finished() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}
