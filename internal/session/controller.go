// Package session owns the single mutable session: its lifecycle state, the
// identifiers, and the one live stream handle. All methods must be called
// from the UI loop; blocking work (the HTTP calls) is split into Begin/
// Complete pairs so the caller can run it off-loop and feed the result back.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fakeyudi/reflecto/internal/api"
	"github.com/fakeyudi/reflecto/internal/event"
	"github.com/fakeyudi/reflecto/internal/render"
	"github.com/fakeyudi/reflecto/internal/stream"
)

// State is the lifecycle state of the client's session.
type State int

const (
	// Idle means no session: nothing started yet, or the previous session
	// ended and its identifier is retained for replay.
	Idle State = iota
	Starting
	Live
	Closing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Live:
		return "live"
	case Closing:
		return "closing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// API is the backend surface the controller needs. *api.Client satisfies it;
// tests substitute fakes.
type API interface {
	StreamURL(sessionID string) string
}

// UI is everything the controller renders to, beyond the per-event surfaces.
type UI interface {
	render.Surfaces
	// SetLoading toggles the start affordance and loading banner.
	SetLoading(loading bool)
	// ShowError surfaces a dismissible error banner.
	ShowError(msg string)
	// ShowWarning surfaces a soft warning that does not change state.
	ShowWarning(msg string)
	// SetDebug updates the debug footer.
	SetDebug(msg string)
	// ShowCompletion populates the completion panel with the terminal
	// summary text.
	ShowCompletion(text string)
	// SetHeartbeatVisible shows or hides the streaming activity indicator.
	SetHeartbeatVisible(visible bool)
	// ClearSession resets every surface ahead of a new session.
	ClearSession()
}

// StreamKind tags a stream notification.
type StreamKind int

const (
	StreamOpened StreamKind = iota
	StreamEvent
	StreamTransient
	StreamClosed
)

// StreamMsg is a stream notification funneled back to the UI loop. Gen ties
// it to the subscription that produced it so notifications from a superseded
// stream are ignored.
type StreamMsg struct {
	Gen   int
	Kind  StreamKind
	Event stream.Event
	Err   error
}

// Controller is the session lifecycle controller. It is not safe for
// concurrent use; the UI loop is its single caller.
type Controller struct {
	api     API
	opener  stream.Opener
	ui      UI
	deliver func(StreamMsg)

	dispatch *render.Dispatcher

	state     State
	sessionID string
	lastID    string
	handle    *stream.Handle
	gen       int

	// needSummary is the session id a terminal summary fetch is pending
	// for, set when the session ends.
	needSummary string
}

// NewController wires the controller. deliver funnels stream notifications
// back to the UI loop (the TUI sends them as messages; plain mode uses a
// channel) where the caller hands them to HandleStream.
func NewController(backend API, opener stream.Opener, ui UI, deliver func(StreamMsg)) *Controller {
	c := &Controller{
		api:     backend,
		opener:  opener,
		ui:      ui,
		deliver: deliver,
	}
	c.dispatch = render.NewDispatcher(ui, c.onDone)
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State { return c.state }

// SessionID returns the active session id, or "" when none is active.
func (c *Controller) SessionID() string { return c.sessionID }

// LastSessionID returns the most recent session id, retained after the
// session ends so it can be replayed.
func (c *Controller) LastSessionID() string { return c.lastID }

// Active reports whether a session is currently live or closing.
func (c *Controller) Active() bool { return c.state == Live || c.state == Closing }

// Generation identifies the current stream subscription. Stream messages
// carrying an older generation belong to a superseded stream and are
// ignored by HandleStream.
func (c *Controller) Generation() int { return c.gen }

// StartBegin guards and stages a session start. It returns false when a
// session is already starting or active; the start request is then ignored
// entirely. On true, the caller performs the session-creation call and feeds
// the result to StartComplete.
func (c *Controller) StartBegin() bool {
	if c.state != Idle {
		return false
	}
	c.state = Starting
	c.ui.ClearSession()
	c.ui.SetLoading(true)
	c.updateDebug()
	return true
}

// StartComplete finishes a start staged by StartBegin. A failure (or an
// empty session id) reverts to Idle with a user-visible error; success
// records the identifier and opens the event stream.
func (c *Controller) StartComplete(sessionID string, err error) {
	if c.state != Starting {
		return
	}
	c.ui.SetLoading(false)
	if err == nil && sessionID == "" {
		err = api.ErrNoSessionID
	}
	if err != nil {
		c.state = Idle
		c.closeStream()
		c.ui.ShowError(fmt.Sprintf("Failed to start session: %v", err))
		c.updateDebug()
		return
	}
	c.goLive(sessionID)
}

// Replay re-subscribes to an existing session's stream without creating a
// new session. An empty id falls back to the last-known identifier; with
// neither, it is a no-op. A live session is torn down first.
func (c *Controller) Replay(sessionID string) bool {
	if sessionID == "" {
		sessionID = c.lastID
	}
	if sessionID == "" {
		return false
	}
	if c.state != Idle {
		// Tear down whatever is running; no summary fetch, the replayed
		// stream replaces it.
		c.closeStream()
		c.sessionID = ""
	}
	c.ui.ClearSession()
	c.ui.SetLoading(false)
	c.goLive(sessionID)
	return true
}

// Finish ends the active session locally without waiting for a done event:
// the stream is closed and the terminal summary path runs. A no-op when no
// session is active.
func (c *Controller) Finish() {
	if !c.Active() {
		return
	}
	c.ui.SetLifecycle(render.LifecycleEnded)
	c.ui.SetAnswerEnabled(false)
	c.endSession()
}

// SubmitBegin guards an answer submission. It returns the session id to
// submit against, or false when the text is empty or no session is live.
// The caller performs the write and feeds the result to SubmitComplete.
func (c *Controller) SubmitBegin(answer string) (string, bool) {
	if strings.TrimSpace(answer) == "" || c.state != Live {
		return "", false
	}
	c.ui.SetAnswerEnabled(false)
	return c.sessionID, true
}

// SubmitComplete finishes an answer submission. On failure the controls are
// re-enabled and an inline message lands in the response surface; the user
// may resubmit by hand, there is no automatic retry.
func (c *Controller) SubmitComplete(err error) {
	if err == nil {
		return
	}
	c.ui.AppendResponse("\nSubmission failed.\n")
	if c.state == Live {
		c.ui.SetAnswerEnabled(true)
	}
}

// SummarySessionID returns the session id a terminal summary fetch is
// pending for, and clears the request. The caller fetches the replay
// transcript and feeds it to SummaryComplete.
func (c *Controller) SummarySessionID() (string, bool) {
	id := c.needSummary
	c.needSummary = ""
	return id, id != ""
}

// SummaryComplete renders the terminal session summary. A failed fetch
// still populates the completion panel with the identifier and the error
// instead of leaving it blank.
func (c *Controller) SummaryComplete(sessionID string, transcript json.RawMessage, err error) {
	if err != nil {
		c.ui.ShowCompletion(fmt.Sprintf("Session %s complete.\nTranscript unavailable: %v", sessionID, err))
		return
	}
	var pretty map[string]any
	if jsonErr := json.Unmarshal(transcript, &pretty); jsonErr == nil {
		if out, jsonErr := json.MarshalIndent(pretty, "", "  "); jsonErr == nil {
			c.ui.ShowCompletion(string(out))
			return
		}
	}
	c.ui.ShowCompletion(string(transcript))
}

// HandleStream processes one stream notification on the UI loop.
func (c *Controller) HandleStream(msg StreamMsg) {
	if msg.Gen != c.gen || c.handle == nil {
		// From a superseded or already-closed subscription.
		return
	}
	switch msg.Kind {
	case StreamOpened:
		c.ui.SetHeartbeatVisible(true)
		c.ui.Pulse()
	case StreamEvent:
		c.handleEvent(msg.Event)
	case StreamTransient:
		c.ui.ShowWarning(fmt.Sprintf("Stream hiccup: %v", msg.Err))
		c.ui.Pulse()
	case StreamClosed:
		c.handleClosed(msg.Err)
	}
}

func (c *Controller) handleEvent(ev stream.Event) {
	if !event.Known(ev.Name) {
		c.ui.SetDebug(fmt.Sprintf("dropped unknown event %q", ev.Name))
		return
	}
	if ev.Name == string(event.TypeClosing) && c.state == Live {
		c.state = Closing
	}
	c.dispatch.Dispatch(ev.Name, ev.Data)
}

// onDone runs from the dispatcher once a done event has been rendered.
func (c *Controller) onDone(event.Done) {
	c.endSession()
}

// handleClosed reacts to the transport reporting the subscription finished.
// While a session is still marked live this is a disconnect: warn and run
// the same teardown as a normal termination.
func (c *Controller) handleClosed(err error) {
	if !c.Active() {
		c.ui.SetHeartbeatVisible(false)
		return
	}
	if err != nil {
		c.ui.ShowWarning(fmt.Sprintf("Stream disconnected: %v", err))
	} else {
		c.ui.ShowWarning("Stream disconnected.")
	}
	c.ui.SetLifecycle(render.LifecycleEnded)
	c.ui.SetAnswerEnabled(false)
	c.endSession()
}

// goLive records the identifier and opens the event stream for it.
func (c *Controller) goLive(sessionID string) {
	c.state = Live
	c.sessionID = sessionID
	c.lastID = sessionID
	c.ui.SetLifecycle(render.LifecycleLive)
	c.updateDebug()
	c.openStream(sessionID)
}

// endSession is the shared teardown: close the stream, clear the activity
// flag (the identifier is retained as last-known), and stage the terminal
// summary fetch.
func (c *Controller) endSession() {
	id := c.sessionID
	c.closeStream()
	c.state = Idle
	c.sessionID = ""
	c.ui.SetLoading(false)
	c.updateDebug()
	if id != "" {
		c.needSummary = id
	}
}

// openStream supersedes any previous subscription: close first, then open,
// so there are never two live handles.
func (c *Controller) openStream(sessionID string) {
	c.closeStream()
	c.gen++
	gen := c.gen
	h := &streamHandler{gen: gen, deliver: c.deliver}
	// The subscription's lifetime is governed by the handle, not a caller
	// deadline.
	c.handle = c.opener.Open(context.Background(), c.api.StreamURL(sessionID), h)
}

// closeStream closes and discards the current handle. Idempotent.
func (c *Controller) closeStream() {
	if c.handle != nil {
		c.handle.Close()
		c.handle = nil
	}
	c.ui.SetHeartbeatVisible(false)
}

func (c *Controller) updateDebug() {
	if c.sessionID != "" {
		c.ui.SetDebug(fmt.Sprintf("Session active: %s", c.sessionID))
		return
	}
	if c.state == Starting {
		c.ui.SetDebug("Starting session…")
		return
	}
	c.ui.SetDebug("No active session.")
}

// streamHandler adapts stream.Handler callbacks into StreamMsg deliveries.
// It runs on the stream's reader goroutine; deliver is responsible for
// getting the message back onto the UI loop.
type streamHandler struct {
	gen     int
	deliver func(StreamMsg)
}

func (h *streamHandler) OnOpen() {
	h.deliver(StreamMsg{Gen: h.gen, Kind: StreamOpened})
}

func (h *streamHandler) OnEvent(ev stream.Event) {
	h.deliver(StreamMsg{Gen: h.gen, Kind: StreamEvent, Event: ev})
}

func (h *streamHandler) OnTransient(err error) {
	h.deliver(StreamMsg{Gen: h.gen, Kind: StreamTransient, Err: err})
}

func (h *streamHandler) OnClosed(err error) {
	h.deliver(StreamMsg{Gen: h.gen, Kind: StreamClosed, Err: err})
}
