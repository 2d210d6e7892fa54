package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/snarg/transcript-viewer/internal/timeline"
)

// LoadStatic returns the saved static thresholds for profile, or nil if the
// profile has none.
func (db *DB) LoadStatic(ctx context.Context, profile string) (*timeline.Buckets, error) {
	var b timeline.Buckets
	err := db.Pool.QueryRow(ctx, `
		SELECT good, neutral, bad FROM static_buckets WHERE profile = $1
	`, profile).Scan(&b.Good, &b.Neutral, &b.Bad)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// SaveStatic upserts the static thresholds for profile.
func (db *DB) SaveStatic(ctx context.Context, profile string, b timeline.Buckets) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO static_buckets (profile, good, neutral, bad, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (profile) DO UPDATE
		SET good = EXCLUDED.good, neutral = EXCLUDED.neutral, bad = EXCLUDED.bad, updated_at = now()
	`, profile, b.Good, b.Neutral, b.Bad)
	return err
}
