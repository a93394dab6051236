// Package stream subscribes to a session's server-sent event stream and
// delivers decoded frames to a handler. Reconnection on transient transport
// errors mirrors the browser EventSource behavior the backend was built
// against; a cleanly ended stream is terminal.
package stream

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Event is one named frame from the stream. Data is the raw payload text;
// decoding (including the JSON-or-raw fallback) happens downstream.
type Event struct {
	Name string
	Data []byte
}

// Handler receives stream notifications. Calls are made from the stream's
// reader goroutine, one at a time, in arrival order.
type Handler interface {
	// OnOpen fires once per successful connection, including reconnects.
	OnOpen()
	// OnEvent fires for every named event frame.
	OnEvent(ev Event)
	// OnTransient fires for a recoverable transport error; the subscription
	// will retry on its own.
	OnTransient(err error)
	// OnClosed fires exactly once, when the subscription is finished for
	// good. err is nil when the server ended the stream cleanly or the
	// handle was closed locally.
	OnClosed(err error)
}

// Handle is a live subscription. Close is idempotent and safe to call from
// any goroutine, including from inside a handler callback.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Close tears down the subscription. Closing an already-closed handle is a
// no-op. The reader goroutine winds down asynchronously; its final OnClosed
// carries a nil error. Callers that drop the handle on Close must be
// prepared to ignore that late notification.
func (h *Handle) Close() {
	if h == nil {
		return
	}
	h.once.Do(h.cancel)
}

// Done is closed once the reader goroutine has fully stopped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// NewHandle wraps a cancel function in a Handle. Fake openers in tests use
// it; the SSE opener builds its own handles.
func NewHandle(cancel context.CancelFunc) *Handle {
	done := make(chan struct{})
	close(done)
	return &Handle{cancel: cancel, done: done}
}

// Opener opens subscriptions. The concrete implementation is SSE over HTTP;
// tests substitute fakes.
type Opener interface {
	Open(ctx context.Context, url string, h Handler) *Handle
}

// SSEOpener opens server-sent event subscriptions over HTTP.
type SSEOpener struct {
	// Client is the HTTP client to use. No overall timeout: the stream is
	// long-lived by design.
	Client *http.Client
	// RetryDelay is the pause before reconnecting after a transient error.
	RetryDelay time.Duration
	// MaxRetries bounds consecutive failed reconnect attempts before the
	// subscription is declared terminal.
	MaxRetries int
}

// NewSSEOpener returns an opener with the default reconnect policy.
func NewSSEOpener() *SSEOpener {
	return &SSEOpener{
		Client:     &http.Client{},
		RetryDelay: 2 * time.Second,
		MaxRetries: 3,
	}
}

// Open starts delivering events from url to h. Open never blocks: the
// connection is made on a background goroutine, and connection failures
// surface through the handler as transient errors (retried) or a terminal
// OnClosed once the retry budget is spent.
func (o *SSEOpener) Open(ctx context.Context, url string, h Handler) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	handle := &Handle{cancel: cancel, done: make(chan struct{})}
	go o.run(ctx, url, h, handle)
	return handle
}

func (o *SSEOpener) connect(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	res, err := o.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		res.Body.Close()
		return nil, fmt.Errorf("open stream: HTTP %d", res.StatusCode)
	}
	return res, nil
}

// run connects, reads the stream, and reconnects on transient errors. It
// fires OnClosed exactly once, when the subscription is finished for good.
func (o *SSEOpener) run(ctx context.Context, url string, h Handler, handle *Handle) {
	defer close(handle.done)

	failures := 0
	for {
		if ctx.Err() != nil {
			h.OnClosed(nil)
			return
		}

		res, err := o.connect(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				h.OnClosed(nil)
				return
			}
			h.OnTransient(err)
			failures++
			if failures > o.MaxRetries {
				h.OnClosed(fmt.Errorf("stream lost after %d attempts: %w", failures, err))
				return
			}
			if !sleep(ctx, o.RetryDelay) {
				h.OnClosed(nil)
				return
			}
			continue
		}

		h.OnOpen()
		delivered, err := readFrames(ctx, res, h)
		res.Body.Close()

		if ctx.Err() != nil {
			// Closed locally.
			h.OnClosed(nil)
			return
		}
		if err == nil {
			// Server ended the stream cleanly; terminal.
			h.OnClosed(nil)
			return
		}
		if delivered {
			// The connection was healthy before it dropped; start the
			// retry budget over.
			failures = 0
		}

		h.OnTransient(err)
		failures++
		if failures > o.MaxRetries {
			h.OnClosed(fmt.Errorf("stream lost after %d attempts: %w", failures, err))
			return
		}
		if !sleep(ctx, o.RetryDelay) {
			h.OnClosed(nil)
			return
		}
	}
}

// sleep waits for d or until ctx is done, reporting whether the full delay
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// readFrames parses event:/data: framed blocks until the stream ends.
// Returns nil on clean EOF, the read error otherwise, and whether any frame
// was delivered on this connection.
func readFrames(ctx context.Context, res *http.Response, h Handler) (bool, error) {
	scanner := bufio.NewScanner(res.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	delivered := false
	var name string
	var data []string
	flush := func() {
		if name == "" && len(data) == 0 {
			return
		}
		ev := Event{Name: name, Data: []byte(strings.Join(data, "\n"))}
		if ev.Name == "" {
			ev.Name = "message"
		}
		name, data = "", nil
		delivered = true
		h.OnEvent(ev)
	}

	for scanner.Scan() {
		if ctx.Err() != nil {
			return delivered, nil
		}
		line := scanner.Text()
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, ":"):
			// Comment/keepalive line.
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// Unknown field lines (id:, retry:, …) are ignored.
		}
	}
	flush()
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return delivered, fmt.Errorf("stream read: %w", err)
	}
	return delivered, nil
}
