package viewer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/snarg/transcript-viewer/internal/library"
	"github.com/snarg/transcript-viewer/internal/metrics"
	"github.com/snarg/transcript-viewer/internal/timeline"
)

// DefaultProfile is used when a client does not name one.
const DefaultProfile = "default"

// Options configures a Manager. Negative window sizes fall back to the
// timeline defaults; a zero SessionTTL disables expiry.
type Options struct {
	WordsBefore int
	WordsAfter  int
	SessionTTL  time.Duration
}

// Manager owns all viewer sessions and connects them to the catalog, the
// bucket store and the event bus.
type Manager struct {
	lib     *library.Library
	buckets BucketStore
	bus     *EventBus
	opts    Options
	log     zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(lib *library.Library, buckets BucketStore, bus *EventBus, opts Options, log zerolog.Logger) *Manager {
	if buckets == nil {
		buckets = NewMemoryBucketStore()
	}
	if opts.WordsBefore < 0 {
		opts.WordsBefore = timeline.DefaultWordsBefore
	}
	if opts.WordsAfter < 0 {
		opts.WordsAfter = timeline.DefaultWordsAfter
	}
	return &Manager{
		lib:      lib,
		buckets:  buckets,
		bus:      bus,
		opts:     opts,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// Bus returns the event bus sessions publish to.
func (m *Manager) Bus() *EventBus { return m.bus }

// Library returns the media catalog.
func (m *Manager) Library() *library.Library { return m.lib }

// Create starts a new session for profile, restoring its saved static
// thresholds if there are any.
func (m *Manager) Create(ctx context.Context, profile string) (*Session, error) {
	if profile == "" {
		profile = DefaultProfile
	}
	s := NewSession(uuid.NewString(), profile, m.opts.WordsBefore, m.opts.WordsAfter)

	saved, err := m.buckets.LoadStatic(ctx, profile)
	if err != nil {
		m.log.Warn().Err(err).Str("profile", profile).Msg("failed to load saved static buckets, using defaults")
	} else if saved != nil {
		s.setStatic(*saved)
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.log.Info().Str("session", s.ID).Str("profile", profile).Msg("session created")
	return s, nil
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Delete removes a session. It reports whether the session existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		m.log.Info().Str("session", id).Msg("session deleted")
	}
	return ok
}

// SessionCount returns the number of live sessions.
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SubscriberCount returns the number of SSE subscribers.
func (m *Manager) SubscriberCount() int {
	return m.bus.SubscriberCount()
}

// Load fetches catalog entry index and loads it into session id. On any
// fetch or parse error the session keeps its previous transcript.
func (m *Manager) Load(ctx context.Context, id string, index int) (State, error) {
	s, err := m.Get(id)
	if err != nil {
		return State{}, err
	}

	loaded, err := m.lib.Transcript(ctx, index)
	if err != nil {
		metrics.TranscriptLoadsTotal.WithLabelValues("error").Inc()
		m.log.Warn().Err(err).Str("session", id).Int("index", index).Msg("transcript load failed")
		return s.State(), err
	}

	st := s.Load(loaded)
	metrics.TranscriptLoadsTotal.WithLabelValues("ok").Inc()

	// Unsorted input is still served; the resolver scans it as given.
	lvl := zerolog.InfoLevel
	if !st.Sorted {
		lvl = zerolog.WarnLevel
	}
	m.log.WithLevel(lvl).
		Str("session", id).
		Str("name", loaded.Media.Name).
		Int("words", st.WordCount).
		Bool("sorted", st.Sorted).
		Str("mode", string(st.Mode)).
		Msg("transcript loaded")

	m.publish(EventLoad, id, st)
	return st, nil
}

// ApplyBuckets switches the session's active thresholds. For static mode a
// non-nil override replaces the static values and is saved for the profile.
func (m *Manager) ApplyBuckets(ctx context.Context, id string, mode Mode, override *timeline.Buckets) (State, error) {
	s, err := m.Get(id)
	if err != nil {
		return State{}, err
	}

	var st State
	switch mode {
	case ModeDynamic:
		st, err = s.ApplyDynamic()
	case ModeStatic:
		if override != nil && !override.Ordered() {
			m.log.Warn().
				Str("session", id).
				Float64("good", override.Good).
				Float64("neutral", override.Neutral).
				Float64("bad", override.Bad).
				Msg("static buckets out of order, applying as given")
		}
		st, err = s.ApplyStatic(override)
		if err == nil && override != nil {
			if serr := m.buckets.SaveStatic(ctx, s.Profile, *override); serr != nil {
				m.log.Warn().Err(serr).Str("profile", s.Profile).Msg("failed to save static buckets")
			}
		}
	default:
		return s.State(), fmt.Errorf("unknown bucket mode %q", mode)
	}
	if err != nil {
		return st, err
	}

	m.log.Debug().Str("session", id).Str("mode", string(mode)).Msg("buckets applied")
	m.publish(EventBuckets, id, st)
	return st, nil
}

// Tick resolves playback time t for session id and publishes the result.
// The bool is false when no word is current.
func (m *Manager) Tick(id string, t float64) (timeline.Result, bool, error) {
	s, err := m.Get(id)
	if err != nil {
		return timeline.Result{}, false, err
	}

	res, ok := s.Tick(t)
	if !ok {
		metrics.TicksTotal.WithLabelValues("no_match").Inc()
		return res, false, nil
	}

	metrics.TicksTotal.WithLabelValues("matched").Inc()
	if res.Classified {
		metrics.TiersTotal.WithLabelValues(string(res.Tier)).Inc()
	} else {
		metrics.TiersTotal.WithLabelValues("unclassified").Inc()
	}
	m.publish(EventTimeline, id, res)
	return res, true, nil
}

func (m *Manager) publish(eventType, id string, payload any) {
	if err := m.bus.Publish(eventType, id, payload); err != nil {
		m.log.Warn().Err(err).Str("session", id).Msg("dropped event")
	}
}

// Reap removes sessions idle longer than the configured TTL and returns how
// many were removed.
func (m *Manager) Reap(now time.Time) int {
	if m.opts.SessionTTL <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.idleSince(now) > m.opts.SessionTTL {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// StartReaper expires idle sessions in the background until ctx is done.
func (m *Manager) StartReaper(ctx context.Context, interval time.Duration) {
	if m.opts.SessionTTL <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := m.Reap(now); n > 0 {
					m.log.Info().Int("removed", n).Msg("expired idle sessions")
				}
			}
		}
	}()
}
