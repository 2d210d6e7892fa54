package transcript

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// MediaFile is one catalog entry: an audio file, its transcript JSON, and an
// optional WebVTT caption file. Paths are storage keys.
type MediaFile struct {
	Audio string `json:"audio"`
	URL   string `json:"url"`
	VTT   string `json:"vtt,omitempty"`
	Name  string `json:"name"`
}

type manifestEntry struct {
	Audio string  `json:"audio"`
	URL   string  `json:"url"`
	VTT   string  `json:"vtt"`
	Name  *string `json:"name"`
}

// HasVTT reports whether a caption file is available.
func (m MediaFile) HasVTT() bool { return m.VTT != "" }

// ParseManifest decodes the catalog list. Entries with no name field (or a
// null one) are dropped; an empty name is kept. The rest are sorted by name with locale-aware collation; the resulting
// position is the entry's catalog index.
func ParseManifest(r io.Reader) ([]MediaFile, error) {
	var raw []manifestEntry
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: manifest: %v", ErrMalformed, err)
	}

	files := make([]MediaFile, 0, len(raw))
	for _, e := range raw {
		if e.Name == nil {
			continue
		}
		files = append(files, MediaFile{Audio: e.Audio, URL: e.URL, VTT: e.VTT, Name: *e.Name})
	}

	col := collate.New(language.Und)
	sort.SliceStable(files, func(i, j int) bool {
		return col.CompareString(files[i].Name, files[j].Name) < 0
	})
	return files, nil
}
