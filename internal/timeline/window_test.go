package timeline

import (
	"fmt"
	"testing"
)

func tenWords() *Index {
	words := make([]Word, 10)
	for i := range words {
		words[i] = Word{Text: fmt.Sprintf("w%d", i), Start: float64(i), End: float64(i) + 0.5}
	}
	return NewIndex(words)
}

func positions(win []WindowWord) (before, current, after []int) {
	for _, w := range win {
		switch w.Position {
		case PositionBefore:
			before = append(before, w.Index)
		case PositionCurrent:
			current = append(current, w.Index)
		case PositionAfter:
			after = append(after, w.Index)
		}
	}
	return
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestWindow(t *testing.T) {
	idx := tenWords()

	tests := []struct {
		name          string
		current       int
		before, after int
		wantBefore    []int
		wantAfter     []int
	}{
		{"lower_clamped", 1, 3, 3, []int{0}, []int{2, 3, 4}},
		{"first_word", 0, 3, 3, nil, []int{1, 2, 3}},
		{"middle", 5, 3, 3, []int{2, 3, 4}, []int{6, 7, 8}},
		{"upper_clamped", 8, 3, 3, []int{5, 6, 7}, []int{9}},
		{"last_word", 9, 3, 3, []int{6, 7, 8}, nil},
		{"asymmetric", 5, 1, 2, []int{4}, []int{6, 7}},
		{"zero_sizes", 5, 0, 0, nil, nil},
		{"negative_sizes_are_zero", 5, -2, -1, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			win := Window(idx, tt.current, tt.before, tt.after)
			before, current, after := positions(win)
			if !equalInts(before, tt.wantBefore) {
				t.Errorf("before = %v, want %v", before, tt.wantBefore)
			}
			if !equalInts(current, []int{tt.current}) {
				t.Errorf("current = %v, want [%d]", current, tt.current)
			}
			if !equalInts(after, tt.wantAfter) {
				t.Errorf("after = %v, want %v", after, tt.wantAfter)
			}
			for _, w := range win {
				if w.Word != idx.At(w.Index) {
					t.Errorf("word at %d = %+v, want %+v", w.Index, w.Word, idx.At(w.Index))
				}
			}
		})
	}
}

func TestWindowInvalidCurrent(t *testing.T) {
	idx := tenWords()
	for _, c := range []int{-1, 10, 42} {
		if win := Window(idx, c, 3, 3); win != nil {
			t.Errorf("Window(current=%d) = %v, want nil", c, win)
		}
	}
	if win := Window(NewIndex(nil), 0, 3, 3); win != nil {
		t.Errorf("Window on empty index = %v, want nil", win)
	}
}

func TestWindowBounds(t *testing.T) {
	for n := 1; n <= 12; n++ {
		words := make([]Word, n)
		idx := NewIndex(words)
		for c := 0; c < n; c++ {
			for before := 0; before <= 4; before++ {
				for after := 0; after <= 4; after++ {
					win := Window(idx, c, before, after)
					if len(win) > before+after+1 {
						t.Fatalf("n=%d c=%d: len %d exceeds %d", n, c, len(win), before+after+1)
					}
					for i, w := range win {
						if w.Index < 0 || w.Index >= n {
							t.Fatalf("n=%d c=%d: index %d out of range", n, c, w.Index)
						}
						if i > 0 && w.Index != win[i-1].Index+1 {
							t.Fatalf("n=%d c=%d: window not contiguous", n, c)
						}
					}
				}
			}
		}
	}
}
