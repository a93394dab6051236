package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fakeyudi/reflecto/internal/api"
)

func TestStartSession(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/session/start" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("request body not JSON: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"session_id": "abc123", "status": "started"})
	}))
	defer srv.Close()

	c := api.NewClient(srv.URL)
	id, err := c.StartSession(context.Background(), api.StartRequest{
		UserID:    "demo",
		UserState: api.UserState{Avatar: "reflecto", Date: "2026-02-14"},
	})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if id != "abc123" {
		t.Errorf("session id = %q, want abc123", id)
	}

	// The wire shape always carries history, flow_context and raw_response,
	// even when the caller leaves them empty.
	if _, ok := gotBody["history"].([]any); !ok {
		t.Errorf("history missing or not an array: %v", gotBody["history"])
	}
	if _, ok := gotBody["flow_context"].(map[string]any); !ok {
		t.Errorf("flow_context missing or not an object: %v", gotBody["flow_context"])
	}
	if v, present := gotBody["raw_response"]; !present || v != nil {
		t.Errorf("raw_response = %v, want explicit null", v)
	}
}

func TestStartSessionNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := api.NewClient(srv.URL).StartSession(context.Background(), api.StartRequest{})
	if err == nil {
		t.Fatal("expected error for HTTP 500, got nil")
	}
}

func TestStartSessionMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "started"})
	}))
	defer srv.Close()

	_, err := api.NewClient(srv.URL).StartSession(context.Background(), api.StartRequest{})
	if !errors.Is(err, api.ErrNoSessionID) {
		t.Fatalf("err = %v, want ErrNoSessionID", err)
	}
}

func TestSubmitAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/write/action" {
			t.Errorf("path = %s, want /write/action", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["session_id"] != "abc123" || body["answer"] != "Good day" {
			t.Errorf("body = %v", body)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	if err := api.NewClient(srv.URL).SubmitAnswer(context.Background(), "abc123", "Good day"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
}

func TestFetchReplayPassesJSONThrough(t *testing.T) {
	transcript := `{"session_id":"abc123","events":[{"type":"done"}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/session/abc123/replay" {
			t.Errorf("path = %s", r.URL.Path)
		}
		io.WriteString(w, transcript)
	}))
	defer srv.Close()

	got, err := api.NewClient(srv.URL).FetchReplay(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("FetchReplay: %v", err)
	}
	if string(got) != transcript {
		t.Errorf("transcript = %s, want %s", got, transcript)
	}
}

func TestStreamURL(t *testing.T) {
	c := api.NewClient("http://localhost:8000")
	want := "http://localhost:8000/session/abc123/stream"
	if got := c.StreamURL("abc123"); got != want {
		t.Errorf("StreamURL = %q, want %q", got, want)
	}
}
