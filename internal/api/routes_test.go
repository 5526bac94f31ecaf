package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/heimdex/heimdex-editor/internal/db"
	"github.com/heimdex/heimdex-editor/internal/dialog"
	"github.com/heimdex/heimdex-editor/internal/editor"
	"github.com/heimdex/heimdex-editor/internal/export"
	"github.com/heimdex/heimdex-editor/internal/jobs"
	"github.com/heimdex/heimdex-editor/internal/pipeline"
	"github.com/heimdex/heimdex-editor/internal/playback"
	"github.com/heimdex/heimdex-editor/internal/player"
	"github.com/heimdex/heimdex-editor/internal/plugins"
)

const testToken = "test-token-0123456789"

type testServer struct {
	router    http.Handler
	cfg       ServerConfig
	repo      *jobs.SQLiteRepository
	source    string
	outputDir string
}

type fakeRenderer struct {
	probe *pipeline.ProbeResult
	err   error
}

func (f *fakeRenderer) Probe(ctx context.Context, path string) (*pipeline.ProbeResult, error) {
	return f.probe, f.err
}

func (f *fakeRenderer) Snapshot(ctx context.Context, req export.Snapshot) error { return nil }

func (f *fakeRenderer) Export(ctx context.Context, job export.Job, outputPath string) error {
	return nil
}

func testCatalog() editor.Catalog {
	saveToDisk := []editor.Plugin{{Title: "Save to Disk", PluginName: "default", IsDefault: true}}
	return editor.Catalog{{Name: "gif", Plugins: saveToDisk}, {Name: "mp4", Plugins: saveToDisk}}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dir := t.TempDir()
	database, err := db.New(filepath.Join(dir, "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := jobs.NewRepository(database.Conn())
	if err := repo.SetConfig(context.Background(), AuthTokenKey, testToken); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}

	source := filepath.Join(dir, "clip.mov")
	if err := os.WriteFile(source, []byte("not really a movie"), 0644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	outputDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		t.Fatalf("mkdir output: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := player.New(logger)
	events := NewEventHub(logger)
	queue := jobs.NewQueue(jobs.QueueConfig{
		Repository: repo,
		OutputDir:  func() string { return outputDir },
		Logger:     logger,
	})
	session := editor.NewSession(editor.Config{
		Media:    p,
		Chooser:  dialog.NewDirChooser(outputDir),
		Sink:     queue,
		OnChange: events.Publish,
		Logger:   logger,
		Now:      func() time.Time { return time.Date(2024, 5, 1, 9, 5, 3, 0, time.Local) },
	})

	cfg := ServerConfig{
		Session:        session,
		Player:         p,
		Renderer:       &fakeRenderer{probe: &pipeline.ProbeResult{Width: 1920, Height: 1080, FrameRate: 29.97}},
		Catalog:        plugins.NewRegistry("", testCatalog(), nil),
		OutputDir:      outputDir,
		PlaybackServer: playback.NewServer(logger),
		Repository:     repo,
		Runner:         jobs.NewRunner(repo, &fakeRenderer{}, logger, time.Hour),
		Events:         events,
		Logger:         logger,
		StartTime:      time.Now(),
		DeviceID:       "test-device",
		Version:        "test",
	}

	return &testServer{router: NewRouter(cfg), cfg: cfg, repo: repo, source: source, outputDir: outputDir}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

// ready loads the source with probing and applies the configured catalog.
func (s *testServer) ready(t *testing.T) {
	t.Helper()
	if rr := s.do(t, http.MethodPost, "/session/load", LoadRequest{Path: s.source, Probe: true}); rr.Code != http.StatusOK {
		t.Fatalf("load status = %d: %s", rr.Code, rr.Body.String())
	}
	if rr := s.do(t, http.MethodPut, "/session/options", nil); rr.Code != http.StatusOK {
		t.Fatalf("options status = %d: %s", rr.Code, rr.Body.String())
	}
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body %q: %v", rr.Body.String(), err)
	}
	return body
}

func decodeEdit(t *testing.T, rr *httptest.ResponseRecorder) EditResponse {
	t.Helper()
	var resp EditResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode edit response %q: %v", rr.Body.String(), err)
	}
	return resp
}

func TestHealth_NoAuth(t *testing.T) {
	s := newTestServer(t)

	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	body := decodeJSONBody(t, rr)
	if body["device_id"] != "test-device" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
}

func TestSession_RequiresAuth(t *testing.T) {
	s := newTestServer(t)

	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/session", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestSession_EmptyState(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/session", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var st SessionResponse
	json.Unmarshal(rr.Body.Bytes(), &st)
	if st.Phase != editor.PhaseEmpty.String() {
		t.Errorf("phase = %q, want %q", st.Phase, editor.PhaseEmpty.String())
	}
}

func TestLoad_WithProbe(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPost, "/session/load", LoadRequest{Path: s.source, Probe: true})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeEdit(t, rr)
	if resp.State.Phase != editor.PhaseReady.String() {
		t.Errorf("phase = %q, want ready", resp.State.Phase)
	}
	if resp.State.Version != 1 {
		t.Errorf("version = %d, want a single transition", resp.State.Version)
	}
	if resp.State.Dimensions != (editor.Dimensions{Width: 1920, Height: 1080}) {
		t.Errorf("dimensions = %+v", resp.State.Dimensions)
	}
	if resp.State.FPS != 30 || resp.State.OriginalFPS != 30 {
		t.Errorf("fps = %d/%d, want 30/30", resp.State.FPS, resp.State.OriginalFPS)
	}
	if got := s.cfg.Player.State().Source; got != "file://"+s.source {
		t.Errorf("player source = %q", got)
	}
}

func TestLoad_ThenReady(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPost, "/session/load", LoadRequest{Path: s.source})
	if rr.Code != http.StatusOK {
		t.Fatalf("load status = %d", rr.Code)
	}
	if phase := decodeEdit(t, rr).State.Phase; phase != editor.PhaseLoading.String() {
		t.Errorf("phase = %q, want loading", phase)
	}
	if resp := decodeEdit(t, rr); resp.State.FPS != editor.DefaultFPS {
		t.Errorf("fps = %d, want default %d", resp.State.FPS, editor.DefaultFPS)
	}

	if rr := s.do(t, http.MethodPost, "/session/ready", nil); rr.Code != http.StatusOK {
		t.Fatalf("ready status = %d", rr.Code)
	}
	if rr := s.do(t, http.MethodPost, "/session/ready", nil); rr.Code != http.StatusConflict {
		t.Errorf("second ready status = %d, want 409", rr.Code)
	}
}

func TestLoad_Validation(t *testing.T) {
	s := newTestServer(t)

	if rr := s.do(t, http.MethodPost, "/session/load", LoadRequest{Path: "relative.mov"}); rr.Code != http.StatusBadRequest {
		t.Errorf("relative path status = %d, want 400", rr.Code)
	}
	if rr := s.do(t, http.MethodPost, "/session/load", LoadRequest{Path: filepath.Join(s.outputDir, "missing.mov")}); rr.Code != http.StatusNotFound {
		t.Errorf("missing file status = %d, want 404", rr.Code)
	}
}

func TestLoad_ProbeFailure(t *testing.T) {
	s := newTestServer(t)
	s.cfg.Renderer = &fakeRenderer{err: errors.New("moov atom not found")}
	s.router = NewRouter(s.cfg)

	rr := s.do(t, http.MethodPost, "/session/load", LoadRequest{Path: s.source, Probe: true})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
	if phase := s.cfg.Session.State().Phase; phase != editor.PhaseEmpty {
		t.Errorf("phase after failed probe = %v, want empty", phase)
	}
}

func TestLoad_ProbeWithUnusableSizeChangesNothing(t *testing.T) {
	s := newTestServer(t)
	s.cfg.Renderer = &fakeRenderer{probe: &pipeline.ProbeResult{Width: 0, Height: 1080, FrameRate: 30}}
	s.router = NewRouter(s.cfg)

	rr := s.do(t, http.MethodPost, "/session/load", LoadRequest{Path: s.source, Probe: true})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	st := s.cfg.Session.State()
	if st.Phase != editor.PhaseEmpty || st.SourcePath != "" || st.Version != 0 {
		t.Errorf("state after refused load = %+v, want untouched", st)
	}
	if got := s.cfg.Player.State().Source; got != "" {
		t.Errorf("player source = %q, want none", got)
	}
}

func TestChangeDimension_KeepsRatio(t *testing.T) {
	s := newTestServer(t)
	s.ready(t)

	rr := s.do(t, http.MethodPatch, "/session/dimensions/width", RawValueRequest{Value: "640"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeEdit(t, rr)
	if resp.State.Dimensions != (editor.Dimensions{Width: 640, Height: 360}) {
		t.Errorf("dimensions = %+v, want 640x360", resp.State.Dimensions)
	}
	if len(resp.Rejected) != 0 {
		t.Errorf("rejected = %v, want none", resp.Rejected)
	}
}

func TestChangeDimension_RejectsAndClamps(t *testing.T) {
	s := newTestServer(t)
	s.ready(t)

	rr := s.do(t, http.MethodPatch, "/session/dimensions/height", RawValueRequest{Value: "12a"})
	resp := decodeEdit(t, rr)
	if len(resp.Rejected) != 1 || resp.Rejected[0] != editor.FieldHeight {
		t.Errorf("rejected = %v, want [height]", resp.Rejected)
	}
	if resp.State.Dimensions.Height != 1080 {
		t.Errorf("height changed on rejected input: %d", resp.State.Dimensions.Height)
	}

	rr = s.do(t, http.MethodPatch, "/session/dimensions/width", RawValueRequest{Value: "5000"})
	resp = decodeEdit(t, rr)
	if resp.State.Dimensions.Width != 1920 {
		t.Errorf("width = %d, want clamped to 1920", resp.State.Dimensions.Width)
	}
	if len(resp.Rejected) != 1 || resp.Rejected[0] != editor.FieldWidth {
		t.Errorf("rejected = %v, want [width]", resp.Rejected)
	}
}

func TestChangeDimension_UnknownAxis(t *testing.T) {
	s := newTestServer(t)
	s.ready(t)

	if rr := s.do(t, http.MethodPatch, "/session/dimensions/depth", RawValueRequest{Value: "1"}); rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestChangeDimension_BeforeReady(t *testing.T) {
	s := newTestServer(t)

	if rr := s.do(t, http.MethodPatch, "/session/dimensions/width", RawValueRequest{Value: "10"}); rr.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rr.Code)
	}
}

func TestChangeFPS(t *testing.T) {
	s := newTestServer(t)
	s.ready(t)

	resp := decodeEdit(t, s.do(t, http.MethodPatch, "/session/fps", RawValueRequest{Value: "12"}))
	if resp.State.FPS != 12 {
		t.Errorf("fps = %d, want 12", resp.State.FPS)
	}

	resp = decodeEdit(t, s.do(t, http.MethodPatch, "/session/fps", RawValueRequest{Value: "120"}))
	if resp.State.FPS != 30 {
		t.Errorf("fps = %d, want clamped to 30", resp.State.FPS)
	}
	if len(resp.Rejected) != 1 || resp.Rejected[0] != editor.FieldFPS {
		t.Errorf("rejected = %v, want [fps]", resp.Rejected)
	}
}

func TestSetOptions_FromMapUsesFormatOrder(t *testing.T) {
	s := newTestServer(t)
	s.ready(t)

	plugin := []editor.Plugin{{Title: "Share", PluginName: "share"}}
	rr := s.do(t, http.MethodPut, "/session/options", OptionsRequest{
		Formats: map[string][]editor.Plugin{"webm": plugin, "mp4": plugin},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeEdit(t, rr)
	if resp.State.Format != "mp4" {
		t.Errorf("format = %q, want mp4", resp.State.Format)
	}
	if len(resp.State.Catalog) != 2 || resp.State.Catalog[1].Name != "webm" {
		t.Errorf("catalog = %+v", resp.State.Catalog)
	}
}

func TestSetOptions_Invalid(t *testing.T) {
	s := newTestServer(t)
	s.ready(t)

	rr := s.do(t, http.MethodPut, "/session/options", OptionsRequest{
		Catalog: editor.Catalog{{Name: "gif"}},
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestSelectFormat_MutesPlayer(t *testing.T) {
	s := newTestServer(t)
	s.ready(t)

	resp := decodeEdit(t, s.do(t, http.MethodPut, "/session/format", FormatRequest{Format: "mp4"}))
	if resp.State.Format != "mp4" || resp.State.MutedByFormat {
		t.Errorf("state = %+v", resp.State)
	}

	resp = decodeEdit(t, s.do(t, http.MethodPut, "/session/format", FormatRequest{Format: "gif"}))
	if !resp.State.MutedByFormat {
		t.Error("gif should report muted_by_format")
	}
	if !s.cfg.Player.Muted() {
		t.Fatal("player should be muted after switching to gif")
	}

	s.do(t, http.MethodPut, "/session/format", FormatRequest{Format: "mp4"})
	if s.cfg.Player.Muted() {
		t.Error("player should be unmuted after leaving gif")
	}

	if rr := s.do(t, http.MethodPut, "/session/format", FormatRequest{Format: "avi"}); rr.Code != http.StatusBadRequest {
		t.Errorf("unknown format status = %d, want 400", rr.Code)
	}
}

func TestSelectFormat_KeepsUserMute(t *testing.T) {
	s := newTestServer(t)
	s.ready(t)
	s.do(t, http.MethodPut, "/session/format", FormatRequest{Format: "mp4"})

	muted := true
	s.do(t, http.MethodPut, "/player", player.Update{Muted: &muted})
	s.do(t, http.MethodPut, "/session/format", FormatRequest{Format: "gif"})
	s.do(t, http.MethodPut, "/session/format", FormatRequest{Format: "mp4"})

	if !s.cfg.Player.Muted() {
		t.Error("player muted by the user should stay muted")
	}
}

func TestSelectPlugin_Unknown(t *testing.T) {
	s := newTestServer(t)
	s.ready(t)

	if rr := s.do(t, http.MethodPut, "/session/plugin", PluginRequest{Title: "Nope"}); rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
	resp := decodeEdit(t, s.do(t, http.MethodPut, "/session/plugin", PluginRequest{Title: "Save to Disk"}))
	if resp.State.Plugin != "Save to Disk" {
		t.Errorf("plugin = %q", resp.State.Plugin)
	}
}

func TestExport_QueuesJob(t *testing.T) {
	s := newTestServer(t)
	s.ready(t)

	start, end := 1.5, 4.0
	if rr := s.do(t, http.MethodPut, "/player", player.Update{StartTime: &start, EndTime: &end}); rr.Code != http.StatusOK {
		t.Fatalf("player update status = %d", rr.Code)
	}
	s.do(t, http.MethodPatch, "/session/dimensions/width", RawValueRequest{Value: "480"})

	rr := s.do(t, http.MethodPost, "/session/export", nil)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}

	var resp ExportResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	opts := resp.Job.ExportOptions
	if opts.Width != 480 || opts.Height != 270 || opts.StartTime != 1.5 || opts.EndTime != 4 || opts.Muted {
		t.Errorf("export options = %+v", opts)
	}
	if resp.Job.Format != "gif" || resp.Job.PluginName != "default" {
		t.Errorf("job = %+v", resp.Job)
	}

	list, err := s.repo.ListJobs(context.Background(), 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListJobs() = %v, %v", list, err)
	}
	if list[0].OutputPath != filepath.Join(s.outputDir, "clip.gif") {
		t.Errorf("output path = %q", list[0].OutputPath)
	}

	rr = s.do(t, http.MethodGet, "/jobs/"+list[0].ID, nil)
	if rr.Code != http.StatusOK {
		t.Errorf("get job status = %d", rr.Code)
	}
}

func TestExport_BeforeReady(t *testing.T) {
	s := newTestServer(t)

	if rr := s.do(t, http.MethodPost, "/session/export", nil); rr.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rr.Code)
	}
}

func TestSnapshot(t *testing.T) {
	s := newTestServer(t)
	s.ready(t)

	at := 2.25
	s.do(t, http.MethodPut, "/player", player.Update{CurrentTime: &at})

	rr := s.do(t, http.MethodPost, "/session/snapshot", nil)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var resp SnapshotResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Output != filepath.Join(s.outputDir, "Snapshot 2024-05-01 at 9.05.03.jpg") {
		t.Errorf("output = %q", resp.Output)
	}
	if resp.Time != 2.25 {
		t.Errorf("time = %v, want 2.25", resp.Time)
	}

	rr = s.do(t, http.MethodPost, "/session/snapshot", SnapshotRequest{Path: "picked.jpg"})
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Output != filepath.Join(s.outputDir, "picked.jpg") {
		t.Errorf("picked output = %q", resp.Output)
	}
}

func TestSnapshot_Cancelled(t *testing.T) {
	s := newTestServer(t)
	s.ready(t)

	rr := s.do(t, http.MethodPost, "/session/snapshot", SnapshotRequest{Cancelled: true})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if body := decodeJSONBody(t, rr); body["cancelled"] != true {
		t.Errorf("body = %v", body)
	}
	if counts, _ := s.repo.CountByStatus(context.Background()); counts[jobs.StatusPending] != 0 {
		t.Errorf("cancelled snapshot queued a job: %v", counts)
	}
}

func TestStatus(t *testing.T) {
	s := newTestServer(t)
	s.ready(t)
	s.do(t, http.MethodPost, "/session/export", nil)
	s.cfg.Runner.Pause()

	rr := s.do(t, http.MethodGet, "/status", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp StatusResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.State != "paused" || resp.Session != "ready" || resp.JobsPending != 1 {
		t.Errorf("status = %+v", resp)
	}
}

func TestCatalog(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/catalog", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp CatalogResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if got := resp.Formats.Names(); len(got) != 2 || got[0] != "gif" || got[1] != "mp4" {
		t.Errorf("formats = %v", got)
	}
}

func TestJobs_ListAndMissing(t *testing.T) {
	s := newTestServer(t)

	if rr := s.do(t, http.MethodGet, "/jobs?limit=abc", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rr.Code)
	}
	rr := s.do(t, http.MethodGet, "/jobs", nil)
	if body := decodeJSONBody(t, rr); len(body["jobs"].([]interface{})) != 0 {
		t.Errorf("jobs = %v, want empty", body["jobs"])
	}
	if rr := s.do(t, http.MethodGet, "/jobs/nope", nil); rr.Code != http.StatusNotFound {
		t.Errorf("missing job status = %d, want 404", rr.Code)
	}
}

func TestPlayback_ServesLoadedSource(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/playback/source", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status before load = %d, want 404", rr.Code)
	}

	s.ready(t)

	req = httptest.NewRequest(http.MethodGet, "/playback/source", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	req.Header.Set("Range", "bytes=0-2")
	rr = httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rr.Code)
	}
	if rr.Body.String() != "not" {
		t.Errorf("body = %q, want %q", rr.Body.String(), "not")
	}
}

func TestPlayback_FollowsReloadedSource(t *testing.T) {
	s := newTestServer(t)
	s.ready(t)

	next := filepath.Join(filepath.Dir(s.source), "second take.mp4")
	if err := os.WriteFile(next, []byte("second movie bytes"), 0644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if rr := s.do(t, http.MethodPost, "/session/load", LoadRequest{Path: next, Probe: true}); rr.Code != http.StatusOK {
		t.Fatalf("reload status = %d: %s", rr.Code, rr.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/playback/source", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	req.Header.Set("Range", "bytes=-5")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rr.Code)
	}
	if rr.Body.String() != "bytes" {
		t.Errorf("body = %q, want tail of the new source", rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "video/mp4" {
		t.Errorf("Content-Type = %q, want video/mp4", ct)
	}
	if cr := rr.Header().Get("Content-Range"); cr != "bytes 13-17/18" {
		t.Errorf("Content-Range = %q", cr)
	}

	req = httptest.NewRequest(http.MethodHead, "/playback/source", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	rr = httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || rr.Body.Len() != 0 {
		t.Errorf("HEAD = %d with %d body bytes, want 200 and none", rr.Code, rr.Body.Len())
	}
	if cl := rr.Header().Get("Content-Length"); cl != "18" {
		t.Errorf("HEAD Content-Length = %q, want 18", cl)
	}
}

func TestPlayback_RejectsRemote(t *testing.T) {
	s := newTestServer(t)
	s.ready(t)

	req := httptest.NewRequest(http.MethodGet, "/playback/source", nil)
	req.RemoteAddr = "10.0.0.8:5555"
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
}

func TestHealthRoute_CORS_Integration(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q, want %q", got, "http://localhost:3000")
	}
}
