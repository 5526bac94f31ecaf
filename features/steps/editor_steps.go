//go:build integration

package steps

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cucumber/godog"

	"github.com/heimdex/heimdex-editor/internal/dialog"
	"github.com/heimdex/heimdex-editor/internal/editor"
	"github.com/heimdex/heimdex-editor/internal/export"
	"github.com/heimdex/heimdex-editor/internal/player"
)

// recordingSink keeps what the session sends instead of queueing it
type recordingSink struct {
	jobs      []export.Job
	snapshots []export.Snapshot
}

func (s *recordingSink) Export(ctx context.Context, job export.Job) error {
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *recordingSink) Snapshot(ctx context.Context, req export.Snapshot) error {
	s.snapshots = append(s.snapshots, req)
	return nil
}

// namingChooser records the suggested name before answering
type namingChooser struct {
	answer    dialog.Static
	suggested string
}

func (c *namingChooser) Choose(ctx context.Context, suggestedName string) (string, bool, error) {
	c.suggested = suggestedName
	return c.answer.Choose(ctx, suggestedName)
}

type editorContext struct {
	session  *editor.Session
	media    *player.Player
	sink     *recordingSink
	chooser  *namingChooser
	now      time.Time
	catalog  editor.Catalog
	source   string
	fps      int
	last     editor.Result
	snapshot editor.SnapshotResult
}

var SharedEditorContext *editorContext

func InitializeEditorScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		ec := &editorContext{
			media:   player.New(nil),
			sink:    &recordingSink{},
			chooser: &namingChooser{},
			now:     time.Now(),
		}
		ec.session = editor.NewSession(editor.Config{
			Media:   ec.media,
			Chooser: ec.chooser,
			Sink:    ec.sink,
			Now:     func() time.Time { return ec.now },
		})
		SharedEditorContext = ec
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		SharedEditorContext = nil
		return c, nil
	})

	ctx.Step(`^the export options:$`, theExportOptions)
	ctx.Step(`^a clip "([^"]*)" recorded at (\d+) fps$`, aClipRecordedAt)
	ctx.Step(`^the clip is (\d+)x(\d+)$`, theClipIs)
	ctx.Step(`^the clip is ready$`, theClipIsReady)

	ctx.Step(`^I enter "([^"]*)" as the (width|height)$`, iEnterAsTheDimension)
	ctx.Step(`^I enter "([^"]*)" as the frame rate$`, iEnterAsTheFrameRate)
	ctx.Step(`^I select the format "([^"]*)"$`, iSelectTheFormat)
	ctx.Step(`^I select the plugin "([^"]*)"$`, iSelectThePlugin)

	ctx.Step(`^the output size is (\d+)x(\d+)$`, theOutputSizeIs)
	ctx.Step(`^the "([^"]*)" input is flagged$`, theInputIsFlagged)
	ctx.Step(`^no input is flagged$`, noInputIsFlagged)
	ctx.Step(`^the frame rate is (\d+)$`, theFrameRateIs)
	ctx.Step(`^the frame rate input flagged is "(yes|no)"$`, theFrameRateInputFlaggedIs)
	ctx.Step(`^the selected format is "([^"]*)"$`, theSelectedFormatIs)
	ctx.Step(`^the selected plugin is "([^"]*)"$`, theSelectedPluginIs)

	ctx.Step(`^the preview is playing with sound$`, thePreviewIsPlayingWithSound)
	ctx.Step(`^the user muted the preview$`, theUserMutedThePreview)
	ctx.Step(`^the preview is muted$`, thePreviewIsMuted)
	ctx.Step(`^the preview is not muted$`, thePreviewIsNotMuted)
	ctx.Step(`^the preview is trimmed from (\d+(?:\.\d+)?) to (\d+(?:\.\d+)?) seconds$`, thePreviewIsTrimmed)
	ctx.Step(`^the preview is at (\d+(?:\.\d+)?) seconds$`, thePreviewIsAt)

	ctx.Step(`^I export$`, iExport)
	ctx.Step(`^an export job is sent with:$`, anExportJobIsSentWith)

	ctx.Step(`^the clock reads "([^"]*)"$`, theClockReads)
	ctx.Step(`^the save dialog answers "([^"]*)"$`, theSaveDialogAnswers)
	ctx.Step(`^the save dialog is cancelled$`, theSaveDialogIsCancelled)
	ctx.Step(`^I take a snapshot$`, iTakeASnapshot)
	ctx.Step(`^the save dialog was offered the name "([^"]*)"$`, theSaveDialogWasOfferedTheName)
	ctx.Step(`^a snapshot of "([^"]*)" at (\d+(?:\.\d+)?) seconds is sent to "([^"]*)"$`, aSnapshotIsSentTo)
	ctx.Step(`^no snapshot is sent$`, noSnapshotIsSent)
}

func theExportOptions(table *godog.Table) error {
	ec := SharedEditorContext
	var c editor.Catalog
	for _, row := range table.Rows[1:] {
		name, title, plugin := row.Cells[0].Value, row.Cells[1].Value, row.Cells[2].Value
		isDefault := row.Cells[3].Value == "true"
		p := editor.Plugin{Title: title, PluginName: plugin, IsDefault: isDefault}
		if n := len(c); n > 0 && c[n-1].Name == name {
			c[n-1].Plugins = append(c[n-1].Plugins, p)
			continue
		}
		c = append(c, editor.Format{Name: name, Plugins: []editor.Plugin{p}})
	}
	ec.catalog = c
	return nil
}

func aClipRecordedAt(path string, fps int) error {
	ec := SharedEditorContext
	ec.source, ec.fps = path, fps
	_, err := ec.session.Load(path, fps, nil)
	return err
}

func theClipIs(width, height int) error {
	_, err := SharedEditorContext.session.SetDimensions(width, height)
	return err
}

func theClipIsReady() error {
	ec := SharedEditorContext
	if _, err := ec.session.Ready(); err != nil {
		return err
	}
	_, err := ec.session.SetExportOptions(ec.catalog)
	return err
}

func iEnterAsTheDimension(raw, axis string) error {
	ec := SharedEditorContext
	res, err := ec.session.ChangeDimension(editor.Axis(axis), raw)
	if err != nil {
		return err
	}
	ec.last = res
	return nil
}

func iEnterAsTheFrameRate(raw string) error {
	ec := SharedEditorContext
	res, err := ec.session.ChangeFPS(raw)
	if err != nil {
		return err
	}
	ec.last = res
	return nil
}

func iSelectTheFormat(format string) error {
	_, err := SharedEditorContext.session.SelectFormat(format)
	return err
}

func iSelectThePlugin(title string) error {
	_, err := SharedEditorContext.session.SelectPlugin(title)
	return err
}

func theOutputSizeIs(width, height int) error {
	d := SharedEditorContext.session.State().Dimensions
	if d.Width != width || d.Height != height {
		return fmt.Errorf("expected output size %dx%d, got %dx%d", width, height, d.Width, d.Height)
	}
	return nil
}

func flagged(field editor.Field) bool {
	for _, f := range SharedEditorContext.last.Rejected {
		if f == field {
			return true
		}
	}
	return false
}

func theInputIsFlagged(field string) error {
	if !flagged(editor.Field(field)) {
		return fmt.Errorf("expected %s to be flagged, got %v", field, SharedEditorContext.last.Rejected)
	}
	return nil
}

func noInputIsFlagged() error {
	if r := SharedEditorContext.last.Rejected; len(r) != 0 {
		return fmt.Errorf("expected no flagged inputs, got %v", r)
	}
	return nil
}

func theFrameRateIs(fps int) error {
	if got := SharedEditorContext.session.State().FPS; got != fps {
		return fmt.Errorf("expected frame rate %d, got %d", fps, got)
	}
	return nil
}

func theFrameRateInputFlaggedIs(want string) error {
	if got := flagged(editor.FieldFPS); got != (want == "yes") {
		return fmt.Errorf("expected fps flagged = %s, got %v", want, got)
	}
	return nil
}

func theSelectedFormatIs(format string) error {
	if got := SharedEditorContext.session.State().Format; got != format {
		return fmt.Errorf("expected format %q, got %q", format, got)
	}
	return nil
}

func theSelectedPluginIs(title string) error {
	if got := SharedEditorContext.session.State().Plugin; got != title {
		return fmt.Errorf("expected plugin %q, got %q", title, got)
	}
	return nil
}

func thePreviewIsPlayingWithSound() error {
	SharedEditorContext.media.Unmute()
	return nil
}

func theUserMutedThePreview() error {
	SharedEditorContext.media.Mute()
	return nil
}

func thePreviewIsMuted() error {
	if !SharedEditorContext.media.Muted() {
		return fmt.Errorf("expected preview to be muted")
	}
	return nil
}

func thePreviewIsNotMuted() error {
	if SharedEditorContext.media.Muted() {
		return fmt.Errorf("expected preview to play with sound")
	}
	return nil
}

func thePreviewIsTrimmed(start, end float64) error {
	SharedEditorContext.media.Apply(player.Update{StartTime: &start, EndTime: &end})
	return nil
}

func thePreviewIsAt(at float64) error {
	SharedEditorContext.media.Apply(player.Update{CurrentTime: &at})
	return nil
}

func iExport() error {
	_, err := SharedEditorContext.session.RequestExport(context.Background())
	return err
}

func anExportJobIsSentWith(table *godog.Table) error {
	ec := SharedEditorContext
	if len(ec.sink.jobs) != 1 {
		return fmt.Errorf("expected 1 export job, got %d", len(ec.sink.jobs))
	}
	job := ec.sink.jobs[0]
	o := job.ExportOptions

	got := map[string]string{
		"width":       strconv.Itoa(o.Width),
		"height":      strconv.Itoa(o.Height),
		"fps":         strconv.Itoa(o.FPS),
		"format":      job.Format,
		"plugin":      job.PluginName,
		"title":       job.ServiceTitle,
		"input":       job.InputPath,
		"start":       strconv.FormatFloat(o.StartTime, 'f', -1, 64),
		"end":         strconv.FormatFloat(o.EndTime, 'f', -1, 64),
		"originalFps": strconv.Itoa(job.OriginalFPS),
	}
	for _, row := range table.Rows[1:] {
		field, want := row.Cells[0].Value, row.Cells[1].Value
		value, ok := got[field]
		if !ok {
			return fmt.Errorf("unknown job field %q", field)
		}
		if value != want {
			return fmt.Errorf("expected job %s %q, got %q", field, want, value)
		}
	}
	return nil
}

func theClockReads(value string) error {
	t, err := time.ParseInLocation("2006-01-02T15:04:05", value, time.Local)
	if err != nil {
		return err
	}
	SharedEditorContext.now = t
	return nil
}

func theSaveDialogAnswers(path string) error {
	SharedEditorContext.chooser.answer = dialog.Static{Path: path}
	return nil
}

func theSaveDialogIsCancelled() error {
	SharedEditorContext.chooser.answer = dialog.Static{}
	return nil
}

func iTakeASnapshot() error {
	ec := SharedEditorContext
	res, err := ec.session.RequestSnapshot(context.Background())
	if err != nil {
		return err
	}
	ec.snapshot = res
	return nil
}

func theSaveDialogWasOfferedTheName(name string) error {
	if got := SharedEditorContext.chooser.suggested; got != name {
		return fmt.Errorf("expected suggested name %q, got %q", name, got)
	}
	return nil
}

func aSnapshotIsSentTo(input string, at float64, output string) error {
	ec := SharedEditorContext
	if len(ec.sink.snapshots) != 1 {
		return fmt.Errorf("expected 1 snapshot, got %d", len(ec.sink.snapshots))
	}
	want := export.Snapshot{InputPath: input, OutputPath: output, Time: at}
	if got := ec.sink.snapshots[0]; got != want {
		return fmt.Errorf("expected snapshot %+v, got %+v", want, got)
	}
	return nil
}

func noSnapshotIsSent() error {
	ec := SharedEditorContext
	if !ec.snapshot.Cancelled {
		return fmt.Errorf("expected the snapshot to be cancelled")
	}
	if n := len(ec.sink.snapshots); n != 0 {
		return fmt.Errorf("expected no snapshot, got %d", n)
	}
	return nil
}
