package event_test

import (
	"testing"

	"github.com/fakeyudi/reflecto/internal/event"
)

func TestKnown(t *testing.T) {
	for _, typ := range event.Types {
		if !event.Known(string(typ)) {
			t.Errorf("Known(%q) = false, want true", typ)
		}
	}
	if event.Known("heartbeat") {
		t.Error("Known(\"heartbeat\") = true, want false")
	}
	if event.Known("") {
		t.Error("Known(\"\") = true, want false")
	}
}

func TestDecodeAvatarPrefersCanonicalField(t *testing.T) {
	a := event.DecodeAvatar([]byte(`{"avatar_prompt":"a gentle fox","avatar":"old"}`))
	if got := a.Text(); got != "a gentle fox" {
		t.Errorf("Text() = %q, want %q", got, "a gentle fox")
	}

	// Legacy field only.
	a = event.DecodeAvatar([]byte(`{"avatar":"old"}`))
	if got := a.Text(); got != "old" {
		t.Errorf("Text() = %q, want %q", got, "old")
	}
}

func TestDecodeAvatarFallsBackToRawText(t *testing.T) {
	a := event.DecodeAvatar([]byte("not json at all"))
	if got := a.Text(); got != "not json at all" {
		t.Errorf("Text() = %q, want raw text", got)
	}
}

func TestDecodeQuestions(t *testing.T) {
	q := event.DecodeQuestions([]byte(`{"questions":["How was today?","What helped?"]}`))
	if len(q.Questions) != 2 || q.Questions[0] != "How was today?" {
		t.Errorf("Questions = %v", q.Questions)
	}

	q = event.DecodeQuestions([]byte("plain question"))
	if len(q.Questions) != 1 || q.Questions[0] != "plain question" {
		t.Errorf("fallback Questions = %v", q.Questions)
	}
}

func TestDecodeResponseChunkFallback(t *testing.T) {
	c := event.DecodeResponseChunk([]byte(`{"text":"Thanks."}`))
	if c.Text != "Thanks." {
		t.Errorf("Text = %q, want %q", c.Text, "Thanks.")
	}
	c = event.DecodeResponseChunk([]byte("raw chunk"))
	if c.Text != "raw chunk" {
		t.Errorf("fallback Text = %q, want %q", c.Text, "raw chunk")
	}
}

func TestDecodePresenceKeepsRawPayload(t *testing.T) {
	raw := `{"state":"CALM","energy":"low","focus":42}`
	p := event.DecodePresence([]byte(raw))
	if p.State != "CALM" {
		t.Errorf("State = %q, want CALM", p.State)
	}
	if p.Raw != raw {
		t.Errorf("Raw = %q, want original payload", p.Raw)
	}
}

func TestDecodeSkillsAbsentCategoriesZero(t *testing.T) {
	s := event.DecodeSkills([]byte(`{"health":70}`))
	if s.Value("health") != 70 {
		t.Errorf("health = %d, want 70", s.Value("health"))
	}
	for _, cat := range []string{"financial", "focus", "relationships"} {
		if s.Value(cat) != 0 {
			t.Errorf("%s = %d, want 0", cat, s.Value(cat))
		}
	}
}

func TestDecodeTimelinePhaseNullClears(t *testing.T) {
	p := event.DecodeTimelinePhase([]byte(`{"phase":"voice"}`))
	if p.Phase != "voice" {
		t.Errorf("Phase = %q, want voice", p.Phase)
	}
	p = event.DecodeTimelinePhase([]byte(`{"phase":null}`))
	if p.Phase != "" {
		t.Errorf("Phase = %q, want empty", p.Phase)
	}
	p = event.DecodeTimelinePhase([]byte(`null`))
	if p.Phase != "" {
		t.Errorf("Phase = %q, want empty", p.Phase)
	}
}

func TestDecodeClosingAcceptsBothFieldNames(t *testing.T) {
	c := event.DecodeClosing([]byte(`{"closing_phrase":"Goodbye."}`))
	if c.Text() != "Goodbye." {
		t.Errorf("Text() = %q, want Goodbye.", c.Text())
	}
	c = event.DecodeClosing([]byte(`{"phrase":"Rest well."}`))
	if c.Text() != "Rest well." {
		t.Errorf("legacy Text() = %q, want Rest well.", c.Text())
	}
	// Canonical wins when both are present.
	c = event.DecodeClosing([]byte(`{"closing_phrase":"A","phrase":"B"}`))
	if c.Text() != "A" {
		t.Errorf("Text() = %q, want A", c.Text())
	}
}

func TestDecodeDoneObjectAndBareString(t *testing.T) {
	d := event.DecodeDone([]byte(`{"session_id":"abc123"}`))
	if d.SessionID != "abc123" {
		t.Errorf("SessionID = %q, want abc123", d.SessionID)
	}
	d = event.DecodeDone([]byte(`"abc123"`))
	if d.SessionID != "abc123" {
		t.Errorf("bare string SessionID = %q, want abc123", d.SessionID)
	}
}
