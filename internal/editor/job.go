package editor

import (
	"fmt"
	"time"

	"github.com/heimdex/heimdex-editor/internal/export"
)

// MediaState is what the export job needs from the media element.
type MediaState struct {
	StartTime float64
	EndTime   float64
	Muted     bool
}

// BuildExportJob assembles the job for the current selection. It fails with
// ErrPluginNotFound when the selected plugin is not offered by the selected
// format.
func BuildExportJob(s State, media MediaState) (export.Job, error) {
	if s.Phase != PhaseReady {
		return export.Job{}, ErrNotReady
	}
	format, ok := s.Catalog.Lookup(s.Format)
	if !ok {
		return export.Job{}, fmt.Errorf("%w: format %q", ErrPluginNotFound, s.Format)
	}
	plugin, ok := format.FindPlugin(s.Plugin)
	if !ok {
		return export.Job{}, fmt.Errorf("%w: %q for %s", ErrPluginNotFound, s.Plugin, s.Format)
	}

	return export.Job{
		ExportOptions: export.Options{
			Width:     s.Dimensions.Width,
			Height:    s.Dimensions.Height,
			FPS:       s.FPS,
			StartTime: media.StartTime,
			EndTime:   media.EndTime,
			Muted:     media.Muted,
		},
		InputPath:    s.SourcePath,
		PluginName:   plugin.PluginName,
		IsDefault:    plugin.IsDefault,
		ServiceTitle: plugin.Title,
		Format:       s.Format,
		OriginalFPS:  s.OriginalFPS,
	}, nil
}

// SnapshotName is the suggested file name for a still taken at now, e.g.
// "Snapshot 2024-05-01 at 9.05.03.jpg".
func SnapshotName(now time.Time) string {
	return fmt.Sprintf("Snapshot %s at %d.%02d.%02d.jpg",
		now.Format("2006-01-02"), now.Hour(), now.Minute(), now.Second())
}
