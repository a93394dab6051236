package event_test

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/fakeyudi/reflecto/internal/event"
)

func TestClassifyPresenceKnownStates(t *testing.T) {
	cases := []struct {
		state string
		want  event.AvatarState
	}{
		{"AWAKE", event.AvatarState{Glyph: "🙂", Label: "Awake", Style: "neutral"}},
		{"CALM", event.AvatarState{Glyph: "😌", Label: "Calm", Style: "calm"}},
		{"SLEEPING", event.AvatarState{Glyph: "😴", Label: "Sleeping", Style: "sleeping"}},
	}
	for _, tc := range cases {
		if got := event.ClassifyPresence(tc.state); got != tc.want {
			t.Errorf("ClassifyPresence(%q) = %+v, want %+v", tc.state, got, tc.want)
		}
	}
}

func TestClassifyPresenceUnknownIsNeutral(t *testing.T) {
	neutral := event.AvatarState{Glyph: "🙂", Label: "Neutral", Style: "neutral"}
	for _, state := range []string{"", "awake", "EXCITED", "???"} {
		if got := event.ClassifyPresence(state); got != neutral {
			t.Errorf("ClassifyPresence(%q) = %+v, want neutral", state, got)
		}
	}
}

// Property: every input maps to one of the four fixed treatments, and
// anything outside the documented state set maps to the neutral default.
func TestClassifyPresenceTotal(t *testing.T) {
	neutral := event.ClassifyPresence("")
	rapid.Check(t, func(t *rapid.T) {
		state := rapid.String().Draw(t, "state")
		got := event.ClassifyPresence(state)
		if got.Glyph == "" || got.Label == "" || got.Style == "" {
			t.Fatalf("ClassifyPresence(%q) returned an incomplete treatment: %+v", state, got)
		}
		switch state {
		case "AWAKE", "CALM", "SLEEPING":
		default:
			if got != neutral {
				t.Fatalf("ClassifyPresence(%q) = %+v, want neutral default", state, got)
			}
		}
	})
}
