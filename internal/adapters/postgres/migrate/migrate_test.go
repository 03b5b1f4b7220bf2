package migrate

import (
	"io/fs"
	"strings"
	"testing"
)

func TestNew_RequiresDSN(t *testing.T) {
	if _, err := New("", nil); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

func TestEmbeddedMigrations_AreGooseAnnotated(t *testing.T) {
	entries, err := fs.ReadDir(migrations, dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) == 0 {
		t.Fatalf("no embedded migrations")
	}
	for _, e := range entries {
		b, err := fs.ReadFile(migrations, dir+"/"+e.Name())
		if err != nil {
			t.Fatalf("ReadFile %s: %v", e.Name(), err)
		}
		s := string(b)
		if !strings.Contains(s, "-- +goose Up") || !strings.Contains(s, "-- +goose Down") {
			t.Fatalf("%s missing goose annotations", e.Name())
		}
	}
}
