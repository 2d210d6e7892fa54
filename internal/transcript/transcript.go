package transcript

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/snarg/transcript-viewer/internal/timeline"
)

// ErrMalformed is returned when a transcript or manifest cannot be decoded.
var ErrMalformed = errors.New("malformed document")

// Transcript is a transcription result with per-word confidence scores.
type Transcript struct {
	WordScoreBuckets *timeline.Buckets `json:"word_score_buckets,omitempty"`
	Segments         []Segment         `json:"segments"`
}

// Segment groups consecutive words.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words"`
}

// Word is a word entry as written by the transcriber. Score and Probability
// are both optional; different models emit one or the other.
type Word struct {
	Word        string   `json:"word"`
	Start       float64  `json:"start"`
	End         float64  `json:"end"`
	Score       *float64 `json:"score,omitempty"`
	Probability *float64 `json:"probability,omitempty"`
}

// Confidence returns Score, falling back to Probability, then 0.
func (w Word) Confidence() float64 {
	if w.Score != nil {
		return *w.Score
	}
	if w.Probability != nil {
		return *w.Probability
	}
	return 0
}

// Parse decodes a transcript document. The input must hold exactly one JSON
// object; null and trailing data are rejected.
func Parse(r io.Reader) (*Transcript, error) {
	dec := json.NewDecoder(r)
	var t *Transcript
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("%w: transcript: %v", ErrMalformed, err)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: transcript: document is null", ErrMalformed)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: transcript: trailing data after document", ErrMalformed)
	}
	return t, nil
}

// WordCount returns the number of words across all segments.
func (t *Transcript) WordCount() int {
	n := 0
	for _, seg := range t.Segments {
		n += len(seg.Words)
	}
	return n
}

// BuildIndex flattens the transcript's segments into a word index, keeping
// segment order and word order within each segment.
func BuildIndex(t *Transcript) *timeline.Index {
	if t == nil {
		return timeline.NewIndex(nil)
	}
	words := make([]timeline.Word, 0, t.WordCount())
	for _, seg := range t.Segments {
		for _, w := range seg.Words {
			words = append(words, timeline.Word{
				Text:  w.Word,
				Start: w.Start,
				End:   w.End,
				Score: w.Confidence(),
			})
		}
	}
	return timeline.NewIndex(words)
}

// WithBuckets returns raw with its word_score_buckets replaced by b. All other
// fields are kept as they were. A nil b removes the key.
func WithBuckets(raw []byte, b *timeline.Buckets) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: transcript: %v", ErrMalformed, err)
	}
	if b == nil {
		delete(doc, "word_score_buckets")
		return json.Marshal(doc)
	}
	enc, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	doc["word_score_buckets"] = enc
	return json.Marshal(doc)
}

// ParseBytes decodes a transcript held in memory.
func ParseBytes(raw []byte) (*Transcript, error) {
	return Parse(bytes.NewReader(raw))
}
