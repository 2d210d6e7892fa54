package mqttclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/snarg/transcript-viewer/internal/metrics"
	"github.com/snarg/transcript-viewer/internal/timeline"
)

// Topic layout: {prefix}/{session_id}/time carries playback ticks in,
// {prefix}/{session_id}/timeline carries resolved windows out.

// TickTopicFilter returns the subscription filter for playback ticks.
func TickTopicFilter(prefix string) string {
	return strings.TrimSuffix(normalizePrefix(prefix), "/") + "/+/time"
}

// TimelineTopic returns the topic results for sessionID are published on.
func TimelineTopic(prefix, sessionID string) string {
	return normalizePrefix(prefix) + sessionID + "/timeline"
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "viewer"
	}
	return prefix + "/"
}

// SessionFromTopic extracts the session ID from a tick topic.
func SessionFromTopic(prefix, topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, normalizePrefix(prefix))
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, "/time")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// ParseTick reads a playback time from a payload: either {"time": 1.25} or
// a bare number. NaN and infinities are rejected.
func ParseTick(payload []byte) (float64, error) {
	t, err := parseTick(payload)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, fmt.Errorf("tick time must be finite, got %v", t)
	}
	return t, nil
}

func parseTick(payload []byte) (float64, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) > 0 && payload[0] == '{' {
		var msg struct {
			Time *float64 `json:"time"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			return 0, fmt.Errorf("invalid tick payload: %w", err)
		}
		if msg.Time == nil {
			return 0, fmt.Errorf("tick payload missing time")
		}
		return *msg.Time, nil
	}
	t, err := strconv.ParseFloat(string(payload), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid tick payload %q", payload)
	}
	return t, nil
}

// Ticker resolves a playback time for a session.
type Ticker interface {
	Tick(sessionID string, t float64) (timeline.Result, bool, error)
}

// Publisher sends a message on a topic.
type Publisher interface {
	Publish(topic string, payload []byte)
}

// TickHandler returns a MessageHandler that feeds playback ticks into ticker
// and, when pub is non-nil, publishes matched results back.
func TickHandler(prefix string, ticker Ticker, pub Publisher, log zerolog.Logger) MessageHandler {
	return func(topic string, payload []byte) {
		id, ok := SessionFromTopic(prefix, topic)
		if !ok {
			log.Debug().Str("topic", topic).Msg("ignoring message on unexpected topic")
			return
		}
		t, err := ParseTick(payload)
		if err != nil {
			log.Debug().Err(err).Str("session", id).Msg("bad tick payload")
			return
		}
		metrics.MQTTTicksTotal.Inc()

		res, matched, err := ticker.Tick(id, t)
		if err != nil {
			log.Debug().Err(err).Str("session", id).Msg("tick rejected")
			return
		}
		if !matched || pub == nil {
			return
		}
		data, err := json.Marshal(res)
		if err != nil {
			log.Warn().Err(err).Str("session", id).Msg("failed to encode timeline result")
			return
		}
		pub.Publish(TimelineTopic(prefix, id), data)
	}
}
