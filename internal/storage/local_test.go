package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "talks"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "talks", "intro.json"), []byte(`{"segments":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewLocalStore(dir)
	ctx := context.Background()

	t.Run("open_existing", func(t *testing.T) {
		rc, err := s.Open(ctx, "talks/intro.json")
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		if string(b) != `{"segments":[]}` {
			t.Errorf("content = %q", b)
		}
	})

	t.Run("missing_is_not_found", func(t *testing.T) {
		_, err := s.Open(ctx, "talks/missing.json")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("traversal_stays_inside_root", func(t *testing.T) {
		outside := filepath.Join(filepath.Dir(dir), "secret.txt")
		os.WriteFile(outside, []byte("x"), 0o644)
		defer os.Remove(outside)

		if s.Exists(ctx, "../secret.txt") {
			t.Error("key with .. should not reach outside the media dir")
		}
	})

	t.Run("exists", func(t *testing.T) {
		if !s.Exists(ctx, "talks/intro.json") {
			t.Error("Exists = false for existing file")
		}
		if s.Exists(ctx, "talks") {
			t.Error("Exists = true for a directory")
		}
		if s.Exists(ctx, "") {
			t.Error("Exists = true for empty key")
		}
	})

	t.Run("read_all", func(t *testing.T) {
		b, err := ReadAll(ctx, s, "talks/intro.json")
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		if len(b) == 0 {
			t.Error("ReadAll returned no data")
		}
	})

	t.Run("url_empty_for_local", func(t *testing.T) {
		u, err := s.URL(ctx, "talks/intro.json")
		if err != nil || u != "" {
			t.Errorf("URL = %q, %v; want empty", u, err)
		}
		if s.Type() != "local" {
			t.Errorf("Type = %q, want local", s.Type())
		}
	})
}
