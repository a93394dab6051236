// Package event defines the push events a reflection session emits and the
// decoding rules for their wire payloads.
package event

import (
	"encoding/json"
	"strings"
)

// Type identifies a push event on the session stream.
type Type string

const (
	TypeAvatar        Type = "avatar"
	TypeQuestions     Type = "questions"
	TypeResponseChunk Type = "response_chunk"
	TypePresence      Type = "presence"
	TypeSkills        Type = "skills"
	TypeTimelinePhase Type = "timeline_phase"
	TypeClosing       Type = "closing"
	TypeDone          Type = "done"
)

// Types is the complete set of event types the client subscribes to.
// Anything not in this set is logged and dropped by the router.
var Types = []Type{
	TypeAvatar,
	TypeQuestions,
	TypeResponseChunk,
	TypePresence,
	TypeSkills,
	TypeTimelinePhase,
	TypeClosing,
	TypeDone,
}

// Known reports whether name is a subscribed event type.
func Known(name string) bool {
	for _, t := range Types {
		if string(t) == name {
			return true
		}
	}
	return false
}

// SkillCategories are the four fixed skill meters, in display order.
var SkillCategories = []string{"financial", "health", "focus", "relationships"}

// Avatar carries the neutral avatar prompt text.
// The canonical field is avatar_prompt; avatar is accepted as legacy.
type Avatar struct {
	Prompt string `json:"avatar_prompt"`
	Legacy string `json:"avatar"`
}

// Text returns the prompt, preferring the canonical field.
func (a Avatar) Text() string {
	if a.Prompt != "" {
		return a.Prompt
	}
	return a.Legacy
}

// Questions carries the question list for the current turn.
type Questions struct {
	Questions []string `json:"questions"`
}

// ResponseChunk is one fragment of the streamed narrative response.
// Chunks are cumulative; the renderer appends, never replaces.
type ResponseChunk struct {
	Text string `json:"text"`
}

// Presence is the backend-reported avatar presence. Extra fields are kept in
// Raw so the presence surface can render the payload verbatim.
type Presence struct {
	State string `json:"state"`
	Raw   string `json:"-"`
}

// Skills carries the skill meter values. Absent categories render as zero.
type Skills struct {
	Financial     int `json:"financial"`
	Health        int `json:"health"`
	Focus         int `json:"focus"`
	Relationships int `json:"relationships"`
}

// Value returns the value for a named category.
func (s Skills) Value(category string) int {
	switch category {
	case "financial":
		return s.Financial
	case "health":
		return s.Health
	case "focus":
		return s.Focus
	case "relationships":
		return s.Relationships
	}
	return 0
}

// TimelinePhase names the active timeline step. An empty phase clears all.
type TimelinePhase struct {
	Phase string `json:"phase"`
}

// Closing carries the session's closing phrase.
// The canonical field is closing_phrase; phrase is accepted as legacy.
type Closing struct {
	ClosingPhrase string `json:"closing_phrase"`
	Phrase        string `json:"phrase"`
}

// Text returns the closing phrase, preferring the canonical field.
func (c Closing) Text() string {
	if c.ClosingPhrase != "" {
		return c.ClosingPhrase
	}
	return c.Phrase
}

// Done is the terminal marker. Canonically an object carrying the session id;
// a bare string payload is accepted as legacy.
type Done struct {
	SessionID string `json:"session_id"`
}

// DecodeAvatar parses an avatar payload. Invalid JSON falls back to treating
// the raw text as the prompt rather than dropping the event.
func DecodeAvatar(data []byte) Avatar {
	var a Avatar
	if err := json.Unmarshal(data, &a); err != nil {
		return Avatar{Prompt: strings.TrimSpace(string(data))}
	}
	return a
}

// DecodeQuestions parses a questions payload. Invalid JSON yields a single
// question containing the raw text.
func DecodeQuestions(data []byte) Questions {
	var q Questions
	if err := json.Unmarshal(data, &q); err != nil {
		raw := strings.TrimSpace(string(data))
		if raw == "" {
			return Questions{}
		}
		return Questions{Questions: []string{raw}}
	}
	return q
}

// DecodeResponseChunk parses a response_chunk payload. Invalid JSON falls
// back to the raw text so no streamed text is ever lost.
func DecodeResponseChunk(data []byte) ResponseChunk {
	var c ResponseChunk
	if err := json.Unmarshal(data, &c); err != nil {
		return ResponseChunk{Text: string(data)}
	}
	return c
}

// DecodePresence parses a presence payload, retaining the raw text for
// verbatim rendering. Invalid JSON leaves State empty (neutral treatment).
func DecodePresence(data []byte) Presence {
	p := Presence{Raw: string(data)}
	// Best effort; the raw payload is still rendered on failure.
	_ = json.Unmarshal(data, &p)
	return p
}

// DecodeSkills parses a skills payload. Invalid JSON yields all zeros.
func DecodeSkills(data []byte) Skills {
	var s Skills
	_ = json.Unmarshal(data, &s)
	return s
}

// DecodeTimelinePhase parses a timeline_phase payload. A null or invalid
// payload yields the empty phase, which clears every step.
func DecodeTimelinePhase(data []byte) TimelinePhase {
	var p TimelinePhase
	_ = json.Unmarshal(data, &p)
	return p
}

// DecodeClosing parses a closing payload. Invalid JSON falls back to the raw
// text as the phrase.
func DecodeClosing(data []byte) Closing {
	var c Closing
	if err := json.Unmarshal(data, &c); err != nil {
		return Closing{ClosingPhrase: strings.TrimSpace(string(data))}
	}
	return c
}

// DecodeDone parses a done payload. A bare-string payload is the legacy
// shape carrying the session id directly.
func DecodeDone(data []byte) Done {
	var d Done
	if err := json.Unmarshal(data, &d); err == nil {
		return d
	}
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		return Done{SessionID: id}
	}
	return Done{SessionID: strings.TrimSpace(string(data))}
}
