package mockserver

import (
	"encoding/json"
	"fmt"
	"os"
)

// ScriptEvent is one event the mock backend emits on a session stream.
type ScriptEvent struct {
	Event string `json:"event"`
	// Data is the raw payload written after "data:". Deliberately untyped:
	// scripts exercise the client's decode fallbacks with whatever they like.
	Data json.RawMessage `json:"data"`
	// DelayMS is the pause before this event, for realistic pacing.
	DelayMS int `json:"delay_ms"`
}

// Script is an ordered event sequence for one session.
type Script []ScriptEvent

// LoadScript reads a script file (a JSON array of events).
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}
	return s, nil
}

// DefaultScript is the built-in demo session: one full pass over every event
// type the client renders.
func DefaultScript() Script {
	raw := func(s string) json.RawMessage { return json.RawMessage(s) }
	return Script{
		{Event: "avatar", Data: raw(`{"avatar_prompt":"a small lighthouse at dusk"}`), DelayMS: 200},
		{Event: "timeline_phase", Data: raw(`{"phase":"opening"}`), DelayMS: 200},
		{Event: "presence", Data: raw(`{"state":"AWAKE","energy":"medium","focus":60,"mood":70,"time_of_day":"evening"}`), DelayMS: 300},
		{Event: "questions", Data: raw(`{"questions":["How was today?","What gave you energy?"]}`), DelayMS: 300},
		{Event: "timeline_phase", Data: raw(`{"phase":"voice"}`), DelayMS: 400},
		{Event: "response_chunk", Data: raw(`{"text":"It sounds like today "}`), DelayMS: 300},
		{Event: "response_chunk", Data: raw(`{"text":"had more in it than you expected. "}`), DelayMS: 300},
		{Event: "response_chunk", Data: raw(`{"text":"Take a moment with that."}`), DelayMS: 300},
		{Event: "skills", Data: raw(`{"financial":40,"health":65,"focus":72,"relationships":58}`), DelayMS: 400},
		{Event: "presence", Data: raw(`{"state":"CALM","energy":"low","focus":55,"mood":75,"time_of_day":"evening"}`), DelayMS: 400},
		{Event: "timeline_phase", Data: raw(`{"phase":"closing"}`), DelayMS: 400},
		{Event: "closing", Data: raw(`{"closing_phrase":"Rest well. Tomorrow is another page."}`), DelayMS: 400},
		{Event: "done", DelayMS: 300},
	}
}
