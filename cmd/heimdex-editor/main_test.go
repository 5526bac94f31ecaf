package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/heimdex/heimdex-editor/internal/db"
	"github.com/heimdex/heimdex-editor/internal/editor"
	"github.com/heimdex/heimdex-editor/internal/jobs"
	"github.com/heimdex/heimdex-editor/internal/logging"
	"github.com/heimdex/heimdex-editor/internal/plugins"
	"github.com/heimdex/heimdex-editor/internal/publish"
)

type mockPrompter struct {
	answer bool
	err    error
	asked  int
}

func (m *mockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	m.asked++
	return m.answer, m.err
}

func TestEnsureSecret_Persists(t *testing.T) {
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	defer database.Close()
	repo := jobs.NewRepository(database.Conn())
	ctx := context.Background()

	first, err := ensureSecret(ctx, repo, "auth_token", 32)
	if err != nil {
		t.Fatalf("ensureSecret() error = %v", err)
	}
	if len(first) != 64 {
		t.Errorf("token length = %d, want 64", len(first))
	}

	second, err := ensureSecret(ctx, repo, "auth_token", 32)
	if err != nil {
		t.Fatalf("ensureSecret() error = %v", err)
	}
	if first != second {
		t.Error("ensureSecret() generated a new value on second call")
	}
}

func TestPrintJobs(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	list := []*jobs.Job{
		{ID: "0123456789abcdef", Type: jobs.TypeExport, Status: jobs.StatusRunning, Progress: 40,
			OutputPath: "/out/clip.gif", CreatedAt: now.Add(-3 * time.Minute)},
		{ID: "aaaabbbbccccdddd", Type: jobs.TypeExport, Status: jobs.StatusCompleted, Progress: 100,
			OutputPath: "/out/clip.mp4", Location: "https://drive.google.com/file/d/x/view", CreatedAt: now.Add(-time.Minute)},
		{ID: "fedcba9876543210", Type: jobs.TypeSnapshot, Status: jobs.StatusFailed, Error: "no such file",
			CreatedAt: now.Add(-2 * time.Hour)},
	}

	var buf bytes.Buffer
	if err := printJobs(&buf, list, now); err != nil {
		t.Fatalf("printJobs() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"01234567", "running 40%", "clip.gif", "3 minutes ago", "https://drive.google.com/file/d/x/view", "failed: no such file", "2 hours ago"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	printJobs(&buf, nil, now)
	if strings.TrimSpace(buf.String()) != "no jobs" {
		t.Errorf("empty output = %q", buf.String())
	}
}

func TestInitCatalog(t *testing.T) {
	t.Run("writes missing file without asking", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "plugins.yaml")
		p := &mockPrompter{}

		wrote, err := initCatalog(path, false, p)
		if err != nil {
			t.Fatalf("initCatalog() error = %v", err)
		}
		if !wrote || p.asked != 0 {
			t.Errorf("wrote = %v, asked = %d; want true, 0", wrote, p.asked)
		}
		c, err := plugins.Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(c) != len(plugins.Default()) {
			t.Errorf("catalog has %d formats, want %d", len(c), len(plugins.Default()))
		}
	})

	t.Run("keeps existing file when declined", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plugins.yaml")
		custom := "formats:\n  - name: mp4\n    plugins:\n      - title: Mine\n"
		if err := os.WriteFile(path, []byte(custom), 0644); err != nil {
			t.Fatal(err)
		}
		p := &mockPrompter{answer: false}

		wrote, err := initCatalog(path, false, p)
		if err != nil {
			t.Fatalf("initCatalog() error = %v", err)
		}
		if wrote || p.asked != 1 {
			t.Errorf("wrote = %v, asked = %d; want false, 1", wrote, p.asked)
		}
		data, _ := os.ReadFile(path)
		if string(data) != custom {
			t.Errorf("file was modified: %q", data)
		}
	})

	t.Run("replaces existing file when confirmed or forced", func(t *testing.T) {
		for _, tc := range []struct {
			name  string
			force bool
			p     *mockPrompter
			asked int
		}{
			{"confirmed", false, &mockPrompter{answer: true}, 1},
			{"forced", true, &mockPrompter{}, 0},
		} {
			path := filepath.Join(t.TempDir(), "plugins.yaml")
			if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
				t.Fatal(err)
			}
			wrote, err := initCatalog(path, tc.force, tc.p)
			if err != nil {
				t.Fatalf("%s: initCatalog() error = %v", tc.name, err)
			}
			if !wrote || tc.p.asked != tc.asked {
				t.Errorf("%s: wrote = %v, asked = %d; want true, %d", tc.name, wrote, tc.p.asked, tc.asked)
			}
		}
	})

	t.Run("prompt error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plugins.yaml")
		if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := initCatalog(path, false, &mockPrompter{err: errors.New("interrupt")})
		if err == nil {
			t.Error("initCatalog() expected error")
		}
	})
}

func TestWarnUnpublished(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLoggerTo(&buf, "warn")
	c := editor.Catalog{
		{Name: "gif", Plugins: []editor.Plugin{{Title: "Save to Disk", PluginName: publish.DiskPluginName}}},
		{Name: "mp4", Plugins: []editor.Plugin{
			{Title: "Save to Disk", PluginName: publish.DiskPluginName},
			{Title: "Google Drive", PluginName: publish.DrivePluginName},
		}},
	}

	warnUnpublished(c, publish.NewRegistry(nil), logger)

	out := buf.String()
	if strings.Count(out, "catalog plugin has no handler") != 1 || !strings.Contains(out, publish.DrivePluginName) {
		t.Errorf("unexpected warnings:\n%s", out)
	}
}
