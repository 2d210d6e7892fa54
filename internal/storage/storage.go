package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/transcript-viewer/internal/config"
)

// ErrNotFound is returned by Open when the key does not exist.
var ErrNotFound = errors.New("media file not found")

// Store abstracts where catalog, transcript, audio and caption files live.
// Keys are slash-separated paths relative to the media root.
type Store interface {
	// Open returns a reader for the file. Returns ErrNotFound if missing.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// URL returns a presigned URL for the file.
	// Returns "" for local-only backends.
	URL(ctx context.Context, key string) (string, error)

	// Exists checks if the file exists.
	Exists(ctx context.Context, key string) bool

	// Type returns "local" or "s3".
	Type() string
}

// New creates a Store based on config.
// Returns an error if S3 is configured but unreachable.
func New(cfg config.S3Config, mediaDir string, log zerolog.Logger) (Store, error) {
	if !cfg.Enabled() {
		return NewLocalStore(mediaDir), nil
	}

	s3store, err := NewS3Store(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("S3 init failed: %w", err)
	}

	// Startup validation: verify credentials and bucket access
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s3store.HeadBucket(ctx); err != nil {
		return nil, fmt.Errorf("S3 startup check failed (bucket=%q endpoint=%q): %w",
			cfg.Bucket, cfg.Endpoint, err)
	}
	log.Info().Str("bucket", cfg.Bucket).Str("endpoint", cfg.Endpoint).Msg("S3 connection verified")

	return s3store, nil
}

// ReadAll opens key and reads it fully.
func ReadAll(ctx context.Context, s Store, key string) ([]byte, error) {
	rc, err := s.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
