package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNoSessionID is returned when a session-creation response is well-formed
// HTTP but carries no session identifier.
var ErrNoSessionID = errors.New("start response missing session_id")

// DailyState is one entry of the daily check-in history sent with a session
// start request.
type DailyState struct {
	Date    string `json:"date"`
	Energy  int    `json:"energy"`
	Mood    int    `json:"mood"`
	Stress  int    `json:"stress"`
	Focus   int    `json:"focus"`
	Meaning int    `json:"meaning"`
}

// UserState describes the client's avatar choice and local date.
type UserState struct {
	Avatar string `json:"avatar"`
	Date   string `json:"date"`
}

// StartRequest is the POST /session/start body.
type StartRequest struct {
	UserID      string         `json:"user_id"`
	UserState   UserState      `json:"user_state"`
	History     []DailyState   `json:"history"`
	FlowContext map[string]any `json:"flow_context"`
	RawResponse *string        `json:"raw_response"`
}

type startResponse struct {
	SessionID string `json:"session_id"`
}

type answerRequest struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

// Client issues HTTP calls against a resolved base URL.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a Client for the given base URL. An empty base means
// same-origin relative paths, which only makes sense behind a proxy; callers
// normally pass the output of ResolveBase or a configured override.
func NewClient(base string) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// StartSession creates a new session and returns its server-assigned id.
// A non-2xx status or a response without a session id is an error.
func (c *Client) StartSession(ctx context.Context, req StartRequest) (string, error) {
	if req.History == nil {
		req.History = []DailyState{}
	}
	if req.FlowContext == nil {
		req.FlowContext = map[string]any{}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal start request: %w", err)
	}

	body, err := c.post(ctx, c.base+"/session/start", payload)
	if err != nil {
		return "", err
	}

	var res startResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("decode start response: %w", err)
	}
	if res.SessionID == "" {
		return "", ErrNoSessionID
	}
	return res.SessionID, nil
}

// SubmitAnswer sends the user's answer for the active session. Any 2xx
// status is success; the response body is ignored.
func (c *Client) SubmitAnswer(ctx context.Context, sessionID, answer string) error {
	payload, err := json.Marshal(answerRequest{SessionID: sessionID, Answer: answer})
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}
	_, err = c.post(ctx, c.base+"/write/action", payload)
	return err
}

// FetchReplay retrieves the full transcript of a session as raw JSON. The
// shape is backend-defined and rendered verbatim.
func (c *Client) FetchReplay(ctx context.Context, sessionID string) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/session/%s/replay", c.base, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create replay request: %w", err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch replay: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, statusError("replay", res)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read replay: %w", err)
	}
	return json.RawMessage(body), nil
}

// StreamURL returns the SSE endpoint for a session.
func (c *Client) StreamURL(sessionID string) string {
	return fmt.Sprintf("%s/session/%s/stream", c.base, sessionID)
}

func (c *Client) post(ctx context.Context, url string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, statusError("request", res)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func statusError(what string, res *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
	if len(detail) == 0 {
		return fmt.Errorf("%s failed: HTTP %d", what, res.StatusCode)
	}
	return fmt.Errorf("%s failed: HTTP %d: %s", what, res.StatusCode, detail)
}
