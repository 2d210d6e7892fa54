package viewer

import (
	"context"
	"sync"

	"github.com/snarg/transcript-viewer/internal/timeline"
)

// BucketStore persists each profile's edited static thresholds.
type BucketStore interface {
	// LoadStatic returns nil, nil when the profile has never saved any.
	LoadStatic(ctx context.Context, profile string) (*timeline.Buckets, error)
	SaveStatic(ctx context.Context, profile string, b timeline.Buckets) error
}

// MemoryBucketStore keeps static thresholds for the life of the process.
type MemoryBucketStore struct {
	mu sync.RWMutex
	m  map[string]timeline.Buckets
}

func NewMemoryBucketStore() *MemoryBucketStore {
	return &MemoryBucketStore{m: make(map[string]timeline.Buckets)}
}

func (s *MemoryBucketStore) LoadStatic(_ context.Context, profile string) (*timeline.Buckets, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.m[profile]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (s *MemoryBucketStore) SaveStatic(_ context.Context, profile string, b timeline.Buckets) error {
	s.mu.Lock()
	s.m[profile] = b
	s.mu.Unlock()
	return nil
}
