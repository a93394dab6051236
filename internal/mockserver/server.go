// Package mockserver is a scripted stand-in for the reflecto backend, used
// for demos and client development. It serves the same four endpoints the
// real backend exposes and replays a configurable event script per session.
package mockserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// journalEntry is one emitted event, retained for the replay endpoint.
type journalEntry struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Timestamp time.Time       `json:"timestamp"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Source    string          `json:"source"`
}

type sessionRecord struct {
	ID      string
	UserID  string
	Events  []journalEntry
	Answers []string
}

// Server holds the mock backend's state: the active script and the journal
// of everything each session emitted.
type Server struct {
	mu       sync.Mutex
	script   Script
	sessions map[string]*sessionRecord
}

// New builds a Server around a script. A nil script uses the built-in demo.
func New(script Script) *Server {
	if script == nil {
		script = DefaultScript()
	}
	return &Server{
		script:   script,
		sessions: make(map[string]*sessionRecord),
	}
}

// SetScript swaps the active script. Streams already in flight keep the
// script they started with.
func (s *Server) SetScript(script Script) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = script
}

// Routes returns the chi router for the four backend endpoints.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/session/start", s.handleStart)
	r.Get("/session/{sessionID}/stream", s.handleStream)
	r.Post("/write/action", s.handleAction)
	r.Get("/session/{sessionID}/replay", s.handleReplay)
	return r
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	userID := "anonymous"
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.UserID != "" {
		userID = body.UserID
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = &sessionRecord{ID: id, UserID: userID}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"session_id": id,
		"status":     "started",
	})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	s.mu.Lock()
	rec, ok := s.sessions[sessionID]
	script := s.script
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for _, ev := range script {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(time.Duration(ev.DelayMS) * time.Millisecond):
		}

		data := ev.Data
		if len(data) == 0 && ev.Event == "done" {
			data = json.RawMessage(fmt.Sprintf(`{"session_id":%q}`, sessionID))
		}
		if len(data) == 0 {
			data = json.RawMessage(`{}`)
		}

		s.journal(rec, ev.Event, data)
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Event, data)
		flusher.Flush()
	}
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"session_id"`
		Answer    string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	rec, ok := s.sessions[body.SessionID]
	count := 0
	if ok {
		rec.Answers = append(rec.Answers, body.Answer)
		count = len(rec.Answers)
	}
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "accepted",
		"count":      count,
		"session_id": body.SessionID,
	})
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	s.mu.Lock()
	rec, ok := s.sessions[sessionID]
	var events []journalEntry
	var answers []string
	var userID string
	if ok {
		events = append(events, rec.Events...)
		answers = append(answers, rec.Answers...)
		userID = rec.UserID
	}
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	if events == nil {
		events = []journalEntry{}
	}
	if answers == nil {
		answers = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"user_id":    userID,
		"events":     events,
		"answers":    answers,
	})
}

func (s *Server) journal(rec *sessionRecord, eventType string, payload json.RawMessage) {
	entry := journalEntry{
		ID:        uuid.NewString(),
		SessionID: rec.ID,
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		Payload:   payload,
		Source:    "mock",
	}
	s.mu.Lock()
	rec.Events = append(rec.Events, entry)
	s.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
