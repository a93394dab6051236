package cmd

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fakeyudi/reflecto/internal/mockserver"
)

func testScript() mockserver.Script {
	raw := func(s string) json.RawMessage { return json.RawMessage(s) }
	return mockserver.Script{
		{Event: "avatar", Data: raw(`{"avatar_prompt":"a quiet forest"}`)},
		{Event: "questions", Data: raw(`{"questions":["How was today?"]}`)},
		{Event: "response_chunk", Data: raw(`{"text":"Hello "}`)},
		{Event: "response_chunk", Data: raw(`{"text":"world"}`)},
		{Event: "skills", Data: raw(`{"financial":42}`)},
		{Event: "timeline_phase", Data: raw(`{"phase":"closing"}`)},
		{Event: "closing", Data: raw(`{"closing_phrase":"Rest well."}`)},
		{Event: "done"},
	}
}

// TestStartPlainFullSession drives a complete scripted session through the
// real HTTP client, SSE reader, and controller, checking that every surface
// shows up in the plain output.
func TestStartPlainFullSession(t *testing.T) {
	isolate(t)

	srv := httptest.NewServer(mockserver.New(testScript()).Routes())
	defer srv.Close()

	flagAPIBase, flagPlain, flagTranscript = "", false, false
	out, err := executeCommand(rootCmd, "start", "--plain", "--api-base", srv.URL)
	if err != nil {
		t.Fatalf("start --plain: %v\noutput:\n%s", err, out)
	}

	for _, want := range []string{
		"prompt: a quiet forest",
		"question: How was today?",
		"Hello world",
		"skill: financial=42",
		"phase: closing",
		"closing: Rest well.",
		"session complete",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\noutput:\n%s", want, out)
		}
	}
}

// TestStartPlainUnreachableBackend checks that a dead backend surfaces as a
// start error rather than a hang.
func TestStartPlainUnreachableBackend(t *testing.T) {
	isolate(t)

	flagAPIBase, flagPlain, flagTranscript = "", false, false
	_, err := executeCommand(rootCmd, "start", "--plain", "--api-base", "http://127.0.0.1:1")
	if err == nil {
		t.Fatal("expected an error when the backend is unreachable")
	}
	if !strings.Contains(err.Error(), "starting session") {
		t.Errorf("error = %v, want a starting session failure", err)
	}
}
