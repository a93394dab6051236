package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fakeyudi/reflecto/internal/api"
	"github.com/fakeyudi/reflecto/internal/config"
	"github.com/fakeyudi/reflecto/internal/event"
	"github.com/fakeyudi/reflecto/internal/session"
	"github.com/fakeyudi/reflecto/internal/stream"
)

// plainUI prints each surface update as a line. Used when stdout is not a
// terminal or when --plain is set.
type plainUI struct {
	out io.Writer
}

func (p *plainUI) SetAvatar(s event.AvatarState) { fmt.Fprintf(p.out, "avatar: %s %s\n", s.Glyph, s.Label) }
func (p *plainUI) SetAvatarPrompt(text string) {
	if text != "" {
		fmt.Fprintf(p.out, "prompt: %s\n", text)
	}
}

func (p *plainUI) SetQuestions(qs []string) {
	for _, q := range qs {
		fmt.Fprintf(p.out, "question: %s\n", q)
	}
}

func (p *plainUI) AppendResponse(text string) { fmt.Fprint(p.out, text) }
func (p *plainUI) SetPresence(raw string)     { fmt.Fprintf(p.out, "presence: %s\n", raw) }

func (p *plainUI) SetSkill(category string, value int) {
	fmt.Fprintf(p.out, "skill: %s=%d\n", category, value)
}

func (p *plainUI) SetTimelinePhase(phase string) { fmt.Fprintf(p.out, "phase: %s\n", phase) }
func (p *plainUI) SetClosing(phrase string)      { fmt.Fprintf(p.out, "closing: %s\n", phrase) }
func (p *plainUI) SetLifecycle(label string)     { fmt.Fprintf(p.out, "lifecycle: %s\n", label) }

func (p *plainUI) SetAnswerEnabled(bool) {}
func (p *plainUI) Pulse()                {}

func (p *plainUI) SetLoading(loading bool) {
	if loading {
		fmt.Fprintln(p.out, "starting session...")
	}
}

func (p *plainUI) ShowError(msg string)   { fmt.Fprintf(p.out, "error: %s\n", msg) }
func (p *plainUI) ShowWarning(msg string) { fmt.Fprintf(p.out, "warning: %s\n", msg) }
func (p *plainUI) SetDebug(string)        {}

func (p *plainUI) ShowCompletion(transcript string) {
	fmt.Fprintln(p.out, "--- session complete ---")
	fmt.Fprintln(p.out, transcript)
}

func (p *plainUI) SetHeartbeatVisible(bool) {}
func (p *plainUI) ClearSession()            {}

// runPlain drives a session without the full-screen UI. A non-empty
// replayID re-subscribes to that session instead of starting a fresh one.
// Answer submission needs the interactive UI and is not available here.
func runPlain(client *api.Client, cfg config.Config, replayID string, out io.Writer) error {
	events := make(chan session.StreamMsg, 64)
	ui := &plainUI{out: out}
	ctrl := session.NewController(client, stream.NewSSEOpener(), ui, func(m session.StreamMsg) {
		events <- m
	})

	if replayID != "" {
		if !ctrl.Replay(replayID) {
			return errors.New("no session to replay")
		}
	} else {
		if !ctrl.StartBegin() {
			return errors.New("session already starting")
		}
		id, err := client.StartSession(context.Background(), api.StartRequest{
			UserID: cfg.UserID,
			UserState: api.UserState{
				Avatar: cfg.Avatar,
				Date:   time.Now().Format("2006-01-02"),
			},
		})
		ctrl.StartComplete(id, err)
		if err != nil {
			return fmt.Errorf("starting session: %w", err)
		}
	}

	for ctrl.Active() {
		msg, ok := <-events
		if !ok {
			break
		}
		ctrl.HandleStream(msg)
		if id, ok := ctrl.SummarySessionID(); ok {
			transcript, err := client.FetchReplay(context.Background(), id)
			ctrl.SummaryComplete(id, transcript, err)
		}
	}
	return nil
}
