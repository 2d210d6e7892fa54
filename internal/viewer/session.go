package viewer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/snarg/transcript-viewer/internal/library"
	"github.com/snarg/transcript-viewer/internal/timeline"
	"github.com/snarg/transcript-viewer/internal/transcript"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrNoDynamicBuckets = errors.New("transcript has no dynamic buckets")
	ErrNoTranscript     = errors.New("no transcript loaded")
)

// Mode names which threshold set is active.
type Mode string

const (
	ModeNone    Mode = ""
	ModeDynamic Mode = "dynamic"
	ModeStatic  Mode = "static"
)

// ParseMode accepts "dynamic" or "static".
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDynamic, ModeStatic:
		return Mode(s), nil
	}
	return ModeNone, fmt.Errorf("unknown bucket mode %q (want dynamic or static)", s)
}

// Session is one viewer's state: the loaded transcript's word index and the
// threshold sets. The index is replaced wholesale on load and never mutated,
// so a tick always sees either the old index or the new one.
type Session struct {
	ID      string
	Profile string

	wordsBefore int
	wordsAfter  int

	mu       sync.RWMutex
	index    *timeline.Index
	loaded   *library.Loaded
	dynamic  *timeline.Buckets
	static   timeline.Buckets
	active   *timeline.Buckets
	mode     Mode
	last     *timeline.Result
	lastUsed time.Time
}

// State is a read-only view of a session for API responses.
type State struct {
	ID          string                `json:"id"`
	Profile     string                `json:"profile,omitempty"`
	MediaIndex  *int                  `json:"media_index,omitempty"`
	Media       *transcript.MediaFile `json:"media,omitempty"`
	WordCount   int                   `json:"word_count"`
	Sorted      bool                  `json:"sorted"`
	Mode        Mode                  `json:"mode,omitempty"`
	Active      *timeline.Buckets     `json:"active_buckets,omitempty"`
	Dynamic     *timeline.Buckets     `json:"dynamic_buckets,omitempty"`
	Static      timeline.Buckets      `json:"static_buckets"`
	WordsBefore int                   `json:"words_before"`
	WordsAfter  int                   `json:"words_after"`
}

// NewSession creates an empty session. Until a transcript is loaded there is
// no active threshold set and ticks have nothing to resolve.
func NewSession(id, profile string, wordsBefore, wordsAfter int) *Session {
	return &Session{
		ID:          id,
		Profile:     profile,
		wordsBefore: wordsBefore,
		wordsAfter:  wordsAfter,
		index:       timeline.NewIndex(nil),
		static:      timeline.DefaultStaticBuckets,
		lastUsed:    time.Now(),
	}
}

// Load swaps in a freshly fetched transcript. Dynamic buckets from the
// transcript become active; without them the static defaults are active.
func (s *Session) Load(l *library.Loaded) State {
	idx := transcript.BuildIndex(l.Transcript)

	var dynamic *timeline.Buckets
	if b := l.Transcript.WordScoreBuckets; b != nil {
		cp := *b
		dynamic = &cp
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.index = idx
	s.loaded = l
	s.dynamic = dynamic
	s.last = nil
	if dynamic != nil {
		cp := *dynamic
		s.active = &cp
		s.mode = ModeDynamic
	} else {
		cp := timeline.DefaultStaticBuckets
		s.active = &cp
		s.mode = ModeStatic
	}
	s.lastUsed = time.Now()
	return s.stateLocked()
}

// ApplyDynamic makes the transcript's own buckets active.
func (s *Session) ApplyDynamic() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dynamic == nil {
		return s.stateLocked(), ErrNoDynamicBuckets
	}
	cp := *s.dynamic
	s.active = &cp
	s.mode = ModeDynamic
	s.lastUsed = time.Now()
	return s.stateLocked(), nil
}

// ApplyStatic makes the static set active. A non-nil override first replaces
// the static set's values.
func (s *Session) ApplyStatic(override *timeline.Buckets) (State, error) {
	if override != nil {
		if err := override.Validate(); err != nil {
			return s.State(), err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if override != nil {
		s.static = *override
	}
	cp := s.static
	s.active = &cp
	s.mode = ModeStatic
	s.lastUsed = time.Now()
	return s.stateLocked(), nil
}

// setStatic replaces the static values without changing the active set.
func (s *Session) setStatic(b timeline.Buckets) {
	s.mu.Lock()
	s.static = b
	s.mu.Unlock()
}

// Tick resolves playback time t. It returns false when no word is current;
// the caller keeps showing whatever it showed before.
func (s *Session) Tick(t float64) (timeline.Result, bool) {
	s.mu.RLock()
	idx := s.index
	var active *timeline.Buckets
	if s.active != nil {
		cp := *s.active
		active = &cp
	}
	s.mu.RUnlock()

	res, ok := timeline.Lookup(idx, t, s.wordsBefore, s.wordsAfter, active)

	s.mu.Lock()
	s.lastUsed = time.Now()
	// A load may have landed while resolving; don't record a result computed
	// against the index it replaced.
	if ok && s.index == idx {
		r := res
		s.last = &r
	}
	s.mu.Unlock()

	return res, ok
}

// Last returns the most recent matched tick result since the last load.
func (s *Session) Last() (timeline.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return timeline.Result{}, false
	}
	return *s.last, true
}

// TranscriptJSON returns the loaded transcript document with the active
// buckets written into word_score_buckets.
func (s *Session) TranscriptJSON() ([]byte, error) {
	s.mu.RLock()
	loaded, active := s.loaded, s.active
	s.mu.RUnlock()

	if loaded == nil {
		return nil, ErrNoTranscript
	}
	return transcript.WithBuckets(loaded.Raw, active)
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	st := State{
		ID:          s.ID,
		Profile:     s.Profile,
		WordCount:   s.index.Len(),
		Sorted:      s.index.Sorted(),
		Mode:        s.mode,
		Static:      s.static,
		WordsBefore: s.wordsBefore,
		WordsAfter:  s.wordsAfter,
	}
	if s.loaded != nil {
		i, m := s.loaded.Index, s.loaded.Media
		st.MediaIndex = &i
		st.Media = &m
	}
	if s.active != nil {
		cp := *s.active
		st.Active = &cp
	}
	if s.dynamic != nil {
		cp := *s.dynamic
		st.Dynamic = &cp
	}
	return st
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Sub(s.lastUsed)
}
