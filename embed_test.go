package transcriptviewer

import (
	"strings"
	"testing"
)

func TestIndexSelectsFirstEntry(t *testing.T) {
	raw, err := WebFiles.ReadFile("web/index.html")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	page := string(raw)
	for _, want := range []string{
		`if (media.length > 0)`,
		`$("media").value = String(media[0].index)`,
		`$("media").dispatchEvent(new Event("change"))`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("index.html missing %q", want)
		}
	}
}
