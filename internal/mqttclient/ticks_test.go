package mqttclient

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/snarg/transcript-viewer/internal/timeline"
)

func TestTopics(t *testing.T) {
	if got := TickTopicFilter("viewer"); got != "viewer/+/time" {
		t.Errorf("TickTopicFilter = %q", got)
	}
	if got := TickTopicFilter("/lab/viewer/"); got != "lab/viewer/+/time" {
		t.Errorf("TickTopicFilter = %q", got)
	}
	if got := TickTopicFilter(""); got != "viewer/+/time" {
		t.Errorf("TickTopicFilter(empty) = %q", got)
	}
	if got := TimelineTopic("viewer", "abc"); got != "viewer/abc/timeline" {
		t.Errorf("TimelineTopic = %q", got)
	}
}

func TestSessionFromTopic(t *testing.T) {
	tests := []struct {
		topic  string
		want   string
		wantOK bool
	}{
		{"viewer/abc/time", "abc", true},
		{"viewer/abc/timeline", "", false},
		{"viewer//time", "", false},
		{"viewer/a/b/time", "", false},
		{"other/abc/time", "", false},
	}
	for _, tt := range tests {
		got, ok := SessionFromTopic("viewer", tt.topic)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("SessionFromTopic(%q) = (%q, %v), want (%q, %v)", tt.topic, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseTick(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    float64
		wantErr bool
	}{
		{"json", `{"time": 1.25}`, 1.25, false},
		{"bare_number", "3.5", 3.5, false},
		{"whitespace", " 2\n", 2, false},
		{"json_missing_time", `{"t": 1}`, 0, true},
		{"json_invalid", `{"time": "x"}`, 0, true},
		{"garbage", "soon", 0, true},
		{"empty", "", 0, true},
		{"nan", "NaN", 0, true},
		{"inf", "+Inf", 0, true},
		{"negative_inf", "-Inf", 0, true},
		{"object_overflow", `{"time": 1e400}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTick([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTick(%q) = %v, want %v", tt.payload, got, tt.want)
			}
		})
	}
}

type fakeTicker struct {
	gotID   string
	gotTime float64
	match   bool
	err     error
}

func (f *fakeTicker) Tick(id string, t float64) (timeline.Result, bool, error) {
	f.gotID, f.gotTime = id, t
	return timeline.Result{Time: t, Current: 2}, f.match, f.err
}

type fakePublisher struct {
	topic   string
	payload []byte
	calls   int
}

func (f *fakePublisher) Publish(topic string, payload []byte) {
	f.topic, f.payload = topic, payload
	f.calls++
}

func TestTickHandler(t *testing.T) {
	t.Run("matched_is_published", func(t *testing.T) {
		ticker := &fakeTicker{match: true}
		pub := &fakePublisher{}
		h := TickHandler("viewer", ticker, pub, zerolog.Nop())

		h("viewer/s1/time", []byte(`{"time": 4.5}`))

		if ticker.gotID != "s1" || ticker.gotTime != 4.5 {
			t.Errorf("ticker got (%q, %v)", ticker.gotID, ticker.gotTime)
		}
		if pub.topic != "viewer/s1/timeline" {
			t.Errorf("published to %q", pub.topic)
		}
		var res timeline.Result
		if err := json.Unmarshal(pub.payload, &res); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if res.Current != 2 {
			t.Errorf("Current = %d, want 2", res.Current)
		}
	})

	t.Run("no_match_not_published", func(t *testing.T) {
		pub := &fakePublisher{}
		h := TickHandler("viewer", &fakeTicker{}, pub, zerolog.Nop())
		h("viewer/s1/time", []byte("0.1"))
		if pub.calls != 0 {
			t.Errorf("Publish called %d times, want 0", pub.calls)
		}
	})

	t.Run("errors_and_bad_input_ignored", func(t *testing.T) {
		pub := &fakePublisher{}
		ticker := &fakeTicker{match: true, err: errors.New("session not found")}
		h := TickHandler("viewer", ticker, pub, zerolog.Nop())
		h("viewer/s1/time", []byte("1"))
		h("viewer/s1/time", []byte("later"))
		h("elsewhere/s1/time", []byte("1"))
		if pub.calls != 0 {
			t.Errorf("Publish called %d times, want 0", pub.calls)
		}
	})

	t.Run("nil_publisher", func(t *testing.T) {
		h := TickHandler("viewer", &fakeTicker{match: true}, nil, zerolog.Nop())
		h("viewer/s1/time", []byte("1"))
	})
}
