package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/transcript-viewer/internal/storage"
	"github.com/snarg/transcript-viewer/internal/transcript"
)

const testManifest = `[
	{"audio": "b.mp3", "url": "b.json", "name": "bravo"},
	{"audio": "a.mp3", "url": "a.json", "vtt": "a.vtt", "name": "alpha"},
	{"audio": "x.mp3", "url": "x.json"}
]`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestLibrary(t *testing.T) (*Library, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "config.json", testManifest)
	writeFile(t, dir, "a.json", `{"word_score_buckets":{"Good":0.9,"Neutral":0.5,"Bad":0.1},"segments":[{"words":[{"word":"hi","start":0,"end":0.5,"score":0.8}]}]}`)
	writeFile(t, dir, "b.json", `{"segments": [`)
	return New(storage.NewLocalStore(dir), "config.json", zerolog.Nop()), dir
}

func TestLibraryList(t *testing.T) {
	lib, _ := newTestLibrary(t)
	files, err := lib.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("len = %d, want 2", len(files))
	}
	if files[0].Name != "alpha" || files[1].Name != "bravo" {
		t.Errorf("order = %q, %q; want alpha, bravo", files[0].Name, files[1].Name)
	}
}

func TestLibraryMedia(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	m, err := lib.Media(ctx, 0)
	if err != nil {
		t.Fatalf("Media(0): %v", err)
	}
	if m.VTT != "a.vtt" {
		t.Errorf("VTT = %q, want a.vtt", m.VTT)
	}
	for _, i := range []int{-1, 2} {
		if _, err := lib.Media(ctx, i); !errors.Is(err, ErrNotFound) {
			t.Errorf("Media(%d) err = %v, want ErrNotFound", i, err)
		}
	}
}

func TestLibraryTranscript(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		loaded, err := lib.Transcript(ctx, 0)
		if err != nil {
			t.Fatalf("Transcript: %v", err)
		}
		if loaded.Transcript.WordCount() != 1 {
			t.Errorf("WordCount = %d, want 1", loaded.Transcript.WordCount())
		}
		if loaded.Transcript.WordScoreBuckets == nil {
			t.Error("expected dynamic buckets")
		}
		if len(loaded.Raw) == 0 {
			t.Error("Raw is empty")
		}
		if loaded.Index != 0 || loaded.Media.Name != "alpha" {
			t.Errorf("loaded = %d %q", loaded.Index, loaded.Media.Name)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := lib.Transcript(ctx, 1)
		if !errors.Is(err, transcript.ErrMalformed) {
			t.Errorf("err = %v, want ErrMalformed", err)
		}
	})
}

func TestLibraryMissingManifest(t *testing.T) {
	lib := New(storage.NewLocalStore(t.TempDir()), "config.json", zerolog.Nop())
	_, err := lib.List(context.Background())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want storage.ErrNotFound", err)
	}
}

func TestLibraryInvalidate(t *testing.T) {
	lib, dir := newTestLibrary(t)
	ctx := context.Background()

	if _, err := lib.List(ctx); err != nil {
		t.Fatalf("List: %v", err)
	}
	writeFile(t, dir, "config.json", `[{"audio":"c.mp3","url":"c.json","name":"charlie"}]`)

	files, _ := lib.List(ctx)
	if len(files) != 2 {
		t.Errorf("cached len = %d, want 2 before invalidate", len(files))
	}

	lib.Invalidate()
	files, err := lib.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 1 || files[0].Name != "charlie" {
		t.Errorf("after invalidate = %+v, want [charlie]", files)
	}
}

func TestWatcherInvalidatesOnManifestChange(t *testing.T) {
	lib, dir := newTestLibrary(t)
	ctx := context.Background()
	if _, err := lib.List(ctx); err != nil {
		t.Fatalf("List: %v", err)
	}

	w := NewWatcher(lib, dir, zerolog.Nop())
	w.debounce = 20 * time.Millisecond
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	writeFile(t, dir, "config.json", `[{"audio":"c.mp3","url":"c.json","name":"charlie"}]`)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if w.Status().Invalidations > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if w.Status().Invalidations == 0 {
		t.Fatal("watcher did not invalidate the catalog")
	}

	files, err := lib.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 1 || files[0].Name != "charlie" {
		t.Errorf("files = %+v, want [charlie]", files)
	}
	if w.Status().Status != "watching" {
		t.Errorf("Status = %q, want watching", w.Status().Status)
	}
}
