package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewWithWriter_TagsService(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "crew-api", slog.LevelInfo)
	log.Debug("hidden")
	log.Info("hello", "k", "v")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected exactly one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["service"] != "crew-api" || rec["msg"] != "hello" || rec["k"] != "v" {
		t.Fatalf("record=%v", rec)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("DEBUG") != slog.LevelDebug || ParseLevel("warning") != slog.LevelWarn || ParseLevel("error") != slog.LevelError {
		t.Fatalf("unexpected level mapping")
	}
	if ParseLevel("") != slog.LevelInfo || ParseLevel("verbose") != slog.LevelInfo {
		t.Fatalf("expected info fallback")
	}
}
