package library

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/snarg/transcript-viewer/internal/metrics"
	"github.com/snarg/transcript-viewer/internal/storage"
	"github.com/snarg/transcript-viewer/internal/transcript"
)

// ErrNotFound is returned for a catalog index that does not exist.
var ErrNotFound = errors.New("media entry not found")

// Library is the media catalog: the manifest plus access to the files it
// names. The manifest is read once and cached until Invalidate.
type Library struct {
	store       storage.Store
	manifestKey string
	log         zerolog.Logger

	mu    sync.Mutex
	files []transcript.MediaFile
}

// Loaded is a transcript fetched for one catalog entry.
type Loaded struct {
	Index      int
	Media      transcript.MediaFile
	Transcript *transcript.Transcript
	Raw        []byte
}

func New(store storage.Store, manifestKey string, log zerolog.Logger) *Library {
	return &Library{
		store:       store,
		manifestKey: manifestKey,
		log:         log,
	}
}

// Store returns the backing file store.
func (l *Library) Store() storage.Store { return l.store }

// List returns the catalog entries in display order.
func (l *Library) List(ctx context.Context) ([]transcript.MediaFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.files != nil {
		return l.files, nil
	}

	rc, err := l.store.Open(ctx, l.manifestKey)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer rc.Close()

	files, err := transcript.ParseManifest(rc)
	if err != nil {
		return nil, err
	}
	l.files = files
	metrics.CatalogReloadsTotal.Inc()
	l.log.Info().Int("entries", len(files)).Str("manifest", l.manifestKey).Msg("catalog loaded")
	return files, nil
}

// Media returns catalog entry i.
func (l *Library) Media(ctx context.Context, i int) (transcript.MediaFile, error) {
	files, err := l.List(ctx)
	if err != nil {
		return transcript.MediaFile{}, err
	}
	if i < 0 || i >= len(files) {
		return transcript.MediaFile{}, fmt.Errorf("%w: index %d", ErrNotFound, i)
	}
	return files[i], nil
}

// Transcript fetches and parses the transcript of catalog entry i.
func (l *Library) Transcript(ctx context.Context, i int) (*Loaded, error) {
	m, err := l.Media(ctx, i)
	if err != nil {
		return nil, err
	}

	raw, err := storage.ReadAll(ctx, l.store, m.URL)
	if err != nil {
		return nil, fmt.Errorf("read transcript %s: %w", m.URL, err)
	}
	t, err := transcript.ParseBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", m.URL, err)
	}

	l.log.Debug().
		Str("name", m.Name).
		Str("url", m.URL).
		Int("words", t.WordCount()).
		Bool("dynamic_buckets", t.WordScoreBuckets != nil).
		Msg("transcript fetched")

	return &Loaded{Index: i, Media: m, Transcript: t, Raw: raw}, nil
}

// Invalidate drops the cached manifest; the next List re-reads it.
func (l *Library) Invalidate() {
	l.mu.Lock()
	l.files = nil
	l.mu.Unlock()
}
