package timeline

// Word is one transcribed word with its timing (seconds) and confidence score.
type Word struct {
	Text  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Score float64 `json:"score"`
}

// Index is the flat, ordered word sequence of one loaded transcript.
// It is never mutated after construction; a reload builds a new Index.
type Index struct {
	words []Word
}

// NewIndex copies words into a new Index. Order is kept as given.
func NewIndex(words []Word) *Index {
	cp := make([]Word, len(words))
	copy(cp, words)
	return &Index{words: cp}
}

// Len returns the number of words. A nil Index has length 0.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.words)
}

// At returns the word at position i. It panics if i is out of range.
func (idx *Index) At(i int) Word {
	return idx.words[i]
}

// Words returns a copy of the word sequence.
func (idx *Index) Words() []Word {
	if idx == nil {
		return nil
	}
	cp := make([]Word, len(idx.words))
	copy(cp, idx.words)
	return cp
}

// Sorted reports whether every word starts no earlier than the previous word
// ends. The resolver assumes this; unsorted input is still scanned as given.
func (idx *Index) Sorted() bool {
	for i := 1; i < idx.Len(); i++ {
		if idx.words[i].Start < idx.words[i-1].End {
			return false
		}
	}
	return true
}
