package timeline

// Result is what the renderer receives for one playback tick.
type Result struct {
	Time    float64      `json:"time"`
	Current int          `json:"current"`
	Word    Word         `json:"word"`
	Window  []WindowWord `json:"window"`
	Tier    Tier         `json:"tier,omitempty"`

	// Classified is false when no buckets were active.
	Classified bool `json:"classified"`
}

// Lookup resolves t, extracts the context window and classifies the current
// word. It returns false when there is no current word; the caller should
// leave its display as it was.
func Lookup(idx *Index, t float64, before, after int, b *Buckets) (Result, bool) {
	c, ok := Resolve(idx, t)
	if !ok {
		return Result{}, false
	}
	w := idx.At(c)
	tier, classified := Classify(w.Score, b)
	return Result{
		Time:       t,
		Current:    c,
		Word:       w,
		Window:     Window(idx, c, before, after),
		Tier:       tier,
		Classified: classified,
	}, true
}
