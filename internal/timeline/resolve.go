package timeline

import "math"

// Resolve finds the current word for playback time t.
//
// A word is current while t is inside [Start, End]. Between two words the
// earlier one stays current, and after the last word's start the last word
// stays current. Time before the first word, an empty index, and negative or
// NaN times have no current word.
func Resolve(idx *Index, t float64) (int, bool) {
	n := idx.Len()
	if n == 0 || math.IsNaN(t) || t < 0 {
		return -1, false
	}
	// Without this the gap rule below would pick word 0 at i == 1.
	if t < idx.words[0].Start {
		return -1, false
	}

	for i, w := range idx.words {
		if t >= w.Start && t <= w.End {
			return i, true
		}
		if t < w.Start && i > 0 {
			return i - 1, true
		}
	}

	if t > 0 && idx.words[n-1].Start <= t {
		return n - 1, true
	}
	return -1, false
}
