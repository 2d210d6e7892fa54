package timeline

// Default context sizes around the current word.
const (
	DefaultWordsBefore = 3
	DefaultWordsAfter  = 3
)

// Position tags a word's place relative to the current word.
type Position string

const (
	PositionBefore  Position = "before"
	PositionCurrent Position = "current"
	PositionAfter   Position = "after"
)

// WindowWord is one entry of a timeline window.
type WindowWord struct {
	Index    int      `json:"index"`
	Word     Word     `json:"word"`
	Position Position `json:"position"`
}

// Window returns the words from current-before to current+after, clamped to
// the index bounds. Negative sizes count as zero. It returns nil when current
// is not a valid position.
func Window(idx *Index, current, before, after int) []WindowWord {
	n := idx.Len()
	if current < 0 || current >= n {
		return nil
	}
	if before < 0 {
		before = 0
	}
	if after < 0 {
		after = 0
	}

	lower := max(0, current-before)
	upper := min(n-1, current+after)

	out := make([]WindowWord, 0, upper-lower+1)
	for i := lower; i <= upper; i++ {
		pos := PositionCurrent
		if i < current {
			pos = PositionBefore
		} else if i > current {
			pos = PositionAfter
		}
		out = append(out, WindowWord{Index: i, Word: idx.words[i], Position: pos})
	}
	return out
}
