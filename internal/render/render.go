// Package render maps push events onto UI surfaces. The dispatch table is
// fixed at build time: every event type the client subscribes to has exactly
// one handler, and each handler touches only its own surfaces.
package render

import (
	"github.com/fakeyudi/reflecto/internal/event"
)

// Lifecycle labels shown on the lifecycle surface.
const (
	LifecycleLive    = "● Live"
	LifecycleClosing = "◼ Closing"
	LifecycleEnded   = "⏹ Ended"
)

// Surfaces is the set of UI regions the renderer writes to. The interactive
// TUI implements it over its model state; tests implement it with a
// recording fake. Every write fully replaces the surface's content except
// AppendResponse, which concatenates streamed chunks.
type Surfaces interface {
	SetAvatar(state event.AvatarState)
	SetAvatarPrompt(text string)
	SetQuestions(questions []string)
	AppendResponse(text string)
	SetPresence(raw string)
	SetSkill(category string, value int)
	SetTimelinePhase(phase string)
	SetClosing(phrase string)
	SetLifecycle(label string)
	SetAnswerEnabled(enabled bool)
	Pulse()
}

// SkillMax is the upper bound of the skill meter display range.
const SkillMax = 100

// ClampSkill clamps a raw skill value into the display range [0, SkillMax].
func ClampSkill(v int) int {
	if v < 0 {
		return 0
	}
	if v > SkillMax {
		return SkillMax
	}
	return v
}

// Dispatcher routes decoded events to surface updates.
type Dispatcher struct {
	surfaces Surfaces
	// onDone fires after the done event has been rendered, so the session
	// layer can run its terminal path.
	onDone func(event.Done)
}

// NewDispatcher builds a dispatcher over the given surfaces. onDone may be
// nil when no terminal hook is needed.
func NewDispatcher(s Surfaces, onDone func(event.Done)) *Dispatcher {
	return &Dispatcher{surfaces: s, onDone: onDone}
}

// Dispatch decodes and renders one stream event. Unknown event names are
// dropped; the caller decides whether to log them. Every handled event
// pulses the heartbeat surface regardless of payload content.
func (d *Dispatcher) Dispatch(name string, data []byte) bool {
	switch event.Type(name) {
	case event.TypeAvatar:
		d.avatar(event.DecodeAvatar(data))
	case event.TypeQuestions:
		d.questions(event.DecodeQuestions(data))
	case event.TypeResponseChunk:
		d.responseChunk(event.DecodeResponseChunk(data))
	case event.TypePresence:
		d.presence(event.DecodePresence(data))
	case event.TypeSkills:
		d.skills(event.DecodeSkills(data))
	case event.TypeTimelinePhase:
		d.timelinePhase(event.DecodeTimelinePhase(data))
	case event.TypeClosing:
		d.closing(event.DecodeClosing(data))
	case event.TypeDone:
		d.done(event.DecodeDone(data))
	default:
		return false
	}
	d.surfaces.Pulse()
	return true
}

// avatar shows the neutral glyph with the prompt text. Presence
// classification is not applied here; that happens on presence events.
func (d *Dispatcher) avatar(a event.Avatar) {
	d.surfaces.SetAvatar(event.ClassifyPresence(""))
	d.surfaces.SetAvatarPrompt(a.Text())
}

func (d *Dispatcher) questions(q event.Questions) {
	d.surfaces.SetQuestions(q.Questions)
	d.surfaces.SetAnswerEnabled(true)
}

func (d *Dispatcher) responseChunk(c event.ResponseChunk) {
	d.surfaces.AppendResponse(c.Text)
}

func (d *Dispatcher) presence(p event.Presence) {
	d.surfaces.SetPresence(p.Raw)
	d.surfaces.SetAvatar(event.ClassifyPresence(p.State))
}

func (d *Dispatcher) skills(s event.Skills) {
	for _, cat := range event.SkillCategories {
		d.surfaces.SetSkill(cat, ClampSkill(s.Value(cat)))
	}
}

func (d *Dispatcher) timelinePhase(p event.TimelinePhase) {
	d.surfaces.SetTimelinePhase(p.Phase)
}

func (d *Dispatcher) closing(c event.Closing) {
	d.surfaces.SetClosing(c.Text())
	d.surfaces.SetLifecycle(LifecycleClosing)
	d.surfaces.SetAnswerEnabled(false)
}

func (d *Dispatcher) done(dn event.Done) {
	d.surfaces.SetLifecycle(LifecycleEnded)
	d.surfaces.SetAnswerEnabled(false)
	if d.onDone != nil {
		d.onDone(dn)
	}
}
