package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestNewLoggerTo_LevelAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := WithSessionID(WithComponent(NewLoggerTo(&buf, "warn"), "editor"), "s-1")

	logger.Info("dropped")
	logger.Warn("kept", "field", "width")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected exactly one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "kept" || entry["component"] != "editor" || entry["session_id"] != "s-1" {
		t.Errorf("entry = %v", entry)
	}
}

func TestDiscard(t *testing.T) {
	logger := WithJobID(Discard(), "j-1")
	if logger == nil {
		t.Fatal("Discard() returned nil")
	}
	logger.Error("goes nowhere", "field", "fps")
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken("short"); got != "****" {
		t.Errorf("SanitizeToken(short) = %q", got)
	}
	if got := SanitizeToken("abcdef0123456789"); got != "abcd...6789" {
		t.Errorf("SanitizeToken = %q", got)
	}
}

func TestSanitizePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := SanitizePath(filepath.Join(home, "Movies", "clip.mov")); got != filepath.Join("~", "Movies", "clip.mov") {
		t.Errorf("SanitizePath = %q", got)
	}
	if got := SanitizePath(home + "other"); got != home+"other" {
		t.Errorf("SanitizePath on sibling dir = %q", got)
	}
}
