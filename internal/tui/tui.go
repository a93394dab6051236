// Package tui provides the interactive Bubble Tea client for a reflection
// session: it starts or replays a session, subscribes to its event stream,
// and renders each surface as events arrive.
package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/reflecto/internal/api"
	"github.com/fakeyudi/reflecto/internal/config"
	"github.com/fakeyudi/reflecto/internal/event"
	"github.com/fakeyudi/reflecto/internal/session"
	"github.com/fakeyudi/reflecto/internal/stream"
)

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	lifecycleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	// Avatar treatments, keyed by presence classification style name.
	avatarStyles = map[string]lipgloss.Style{
		"neutral":  lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		"calm":     lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
		"sleeping": lipgloss.NewStyle().Foreground(lipgloss.Color("62")),
	}

	heartbeatOn  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("●")
	heartbeatOff = dimStyle.Render("○")

	timelineActive = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	timelineIdle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	skillFlashStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("82"))

	completionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("86")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)
)

// timelinePhases are the fixed timeline steps, in session order.
var timelinePhases = []string{"opening", "voice", "closing"}

// Liveness timing: how long the heartbeat dot stays lit after an event, and
// how long a skill value flashes after an update.
const (
	pulseDuration      = 400 * time.Millisecond
	skillFlashDuration = 600 * time.Millisecond
)

// ── Surface state ───────────────

// uiState holds the surface content the controller renders into. It is only
// touched from the program's update loop, so no locking is needed.
// Timer-driven effects (heartbeat pulse, skill flash) are recorded here as
// sequence bumps and turned into tea.Tick commands by the model.
type uiState struct {
	avatar       event.AvatarState
	avatarPrompt string
	questions    []string
	response     strings.Builder
	presenceRaw  string
	skills       map[string]int
	timeline     string
	closing      string
	lifecycle    string

	answerEnabled bool
	clearAnswer   bool

	loading    bool
	errorMsg   string
	warningMsg string
	debugMsg   string
	completion string

	heartbeatVisible bool
	heartbeatActive  bool
	pulseSeq         int

	skillFlash    bool
	skillFlashSeq int
}

func newUIState() *uiState {
	return &uiState{skills: make(map[string]int), debugMsg: "No active session."}
}

func (u *uiState) SetAvatar(s event.AvatarState) { u.avatar = s }
func (u *uiState) SetAvatarPrompt(text string)   { u.avatarPrompt = text }

func (u *uiState) SetQuestions(qs []string) {
	u.questions = qs
	u.clearAnswer = true
}

func (u *uiState) AppendResponse(text string) { u.response.WriteString(text) }
func (u *uiState) SetPresence(raw string)     { u.presenceRaw = raw }

func (u *uiState) SetSkill(category string, value int) {
	u.skills[category] = value
	u.skillFlash = true
	u.skillFlashSeq++
}

func (u *uiState) SetTimelinePhase(phase string) { u.timeline = phase }
func (u *uiState) SetClosing(phrase string)      { u.closing = phrase }
func (u *uiState) SetLifecycle(label string)     { u.lifecycle = label }

func (u *uiState) SetAnswerEnabled(enabled bool) { u.answerEnabled = enabled }

func (u *uiState) Pulse() {
	u.heartbeatActive = true
	u.pulseSeq++
}

func (u *uiState) SetLoading(loading bool)   { u.loading = loading }
func (u *uiState) ShowError(msg string)      { u.errorMsg = msg }
func (u *uiState) ShowWarning(msg string)    { u.warningMsg = msg }
func (u *uiState) SetDebug(msg string)       { u.debugMsg = msg }
func (u *uiState) ShowCompletion(t string)   { u.completion = t }

func (u *uiState) SetHeartbeatVisible(v bool) {
	u.heartbeatVisible = v
	if !v {
		u.heartbeatActive = false
	}
}

func (u *uiState) ClearSession() {
	u.questions = nil
	u.response.Reset()
	u.presenceRaw = ""
	u.skills = make(map[string]int)
	u.timeline = ""
	u.closing = ""
	u.lifecycle = ""
	u.avatar = event.AvatarState{}
	u.avatarPrompt = ""
	u.errorMsg = ""
	u.warningMsg = ""
	u.completion = ""
	u.answerEnabled = false
	u.clearAnswer = true
}

// ── Messages ───────────────────

type bootMsg struct{}

type streamMsg session.StreamMsg

type startResultMsg struct {
	id  string
	err error
}

type submitResultMsg struct{ err error }

type summaryResultMsg struct {
	id         string
	transcript json.RawMessage
	err        error
}

type pulseExpiredMsg struct{ seq int }

type skillFlashExpiredMsg struct{ seq int }

// ── Model ────────────────────

// Model is the root Bubble Tea model.
type Model struct {
	client *api.Client
	cfg    config.Config
	ctrl   *session.Controller
	ui     *uiState

	// boot action: start a fresh session, or replay this id.
	startNow bool
	replayID string

	events chan session.StreamMsg

	input      textinput.Model
	spin       spinner.Model
	bar        progress.Model
	responseVP viewport.Model

	width  int
	height int
	ready  bool

	// wasAnswerEnabled tracks the previous enabled state so focus is only
	// grabbed when answering first opens, not on every update.
	wasAnswerEnabled bool
}

// New assembles the model, its controller, and the stream funnel.
func New(client *api.Client, cfg config.Config, startNow bool, replayID string) *Model {
	ti := textinput.New()
	ti.Placeholder = "Type your answer…"
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 30

	m := &Model{
		client:   client,
		cfg:      cfg,
		ui:       newUIState(),
		startNow: startNow,
		replayID: replayID,
		events:   make(chan session.StreamMsg, 64),
		input:    ti,
		spin:     sp,
		bar:      bar,
	}
	m.ctrl = session.NewController(client, stream.NewSSEOpener(), m.ui, func(msg session.StreamMsg) {
		m.events <- msg
	})
	return m
}

// ── Commands ────────────────────

func (m *Model) waitStream() tea.Cmd {
	return func() tea.Msg {
		return streamMsg(<-m.events)
	}
}

func (m *Model) startRequest() api.StartRequest {
	return api.StartRequest{
		UserID: m.cfg.UserID,
		UserState: api.UserState{
			Avatar: m.cfg.Avatar,
			Date:   time.Now().Format("2006-01-02"),
		},
	}
}

func (m *Model) startCmd() tea.Cmd {
	req := m.startRequest()
	return func() tea.Msg {
		id, err := m.client.StartSession(context.Background(), req)
		return startResultMsg{id: id, err: err}
	}
}

func (m *Model) submitCmd(sessionID, answer string) tea.Cmd {
	return func() tea.Msg {
		return submitResultMsg{err: m.client.SubmitAnswer(context.Background(), sessionID, answer)}
	}
}

func (m *Model) summaryCmd(sessionID string) tea.Cmd {
	return func() tea.Msg {
		transcript, err := m.client.FetchReplay(context.Background(), sessionID)
		return summaryResultMsg{id: sessionID, transcript: transcript, err: err}
	}
}

// ── Bubble Tea interface ───────────────

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spin.Tick,
		m.waitStream(),
		func() tea.Msg { return bootMsg{} },
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case bootMsg:
		if m.replayID != "" {
			m.ctrl.Replay(m.replayID)
		} else if m.startNow {
			if m.ctrl.StartBegin() {
				cmds = append(cmds, m.startCmd())
			}
		}

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			cmds = append(cmds, cmd)
		} else {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.responseVP = viewport.New(msg.Width-4, 6)
			m.ready = true
		} else {
			m.responseVP.Width = msg.Width - 4
		}

	case streamMsg:
		m.ctrl.HandleStream(session.StreamMsg(msg))
		cmds = append(cmds, m.waitStream())

	case startResultMsg:
		m.ctrl.StartComplete(msg.id, msg.err)

	case submitResultMsg:
		m.ctrl.SubmitComplete(msg.err)

	case summaryResultMsg:
		m.ctrl.SummaryComplete(msg.id, msg.transcript, msg.err)

	case pulseExpiredMsg:
		if msg.seq == m.ui.pulseSeq {
			m.ui.heartbeatActive = false
		}

	case skillFlashExpiredMsg:
		if msg.seq == m.ui.skillFlashSeq {
			m.ui.skillFlash = false
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
	}

	cmds = append(cmds, m.sync()...)
	return m, tea.Batch(cmds...)
}

// handleKey routes key presses. handled=false means the key should fall
// through to the answer input.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	key := msg.String()

	switch key {
	case "ctrl+c":
		return tea.Quit, true
	case "esc":
		if m.input.Focused() {
			m.input.Blur()
			return nil, true
		}
		return tea.Quit, true
	}

	if m.input.Focused() {
		if key == "enter" {
			answer := m.input.Value()
			if id, ok := m.ctrl.SubmitBegin(answer); ok {
				m.input.SetValue("")
				return m.submitCmd(id, answer), true
			}
			return nil, true
		}
		return nil, false
	}

	switch key {
	case "q":
		return tea.Quit, true
	case "s":
		if m.ctrl.StartBegin() {
			return m.startCmd(), true
		}
		return nil, true
	case "r":
		m.ctrl.Replay("")
		return nil, true
	case "f":
		m.ctrl.Finish()
		return nil, true
	case "i", "tab", "enter":
		if m.ui.answerEnabled {
			return m.input.Focus(), true
		}
		return nil, true
	}
	return nil, true
}

// sync reconciles controller-driven state with the bubbles components and
// turns recorded pulse/flash bumps into revert timers.
func (m *Model) sync() []tea.Cmd {
	var cmds []tea.Cmd

	if m.ui.clearAnswer {
		m.ui.clearAnswer = false
		m.input.SetValue("")
	}
	if m.ui.answerEnabled && !m.wasAnswerEnabled {
		cmds = append(cmds, m.input.Focus())
	}
	if !m.ui.answerEnabled && m.input.Focused() {
		m.input.Blur()
	}
	m.wasAnswerEnabled = m.ui.answerEnabled

	if m.ui.heartbeatActive {
		seq := m.ui.pulseSeq
		cmds = append(cmds, tea.Tick(pulseDuration, func(time.Time) tea.Msg {
			return pulseExpiredMsg{seq: seq}
		}))
	}
	if m.ui.skillFlash {
		seq := m.ui.skillFlashSeq
		cmds = append(cmds, tea.Tick(skillFlashDuration, func(time.Time) tea.Msg {
			return skillFlashExpiredMsg{seq: seq}
		}))
	}

	if id, ok := m.ctrl.SummarySessionID(); ok {
		cmds = append(cmds, m.summaryCmd(id))
	}

	if m.ready {
		m.responseVP.SetContent(lipgloss.NewStyle().Width(m.responseVP.Width).Render(m.ui.response.String()))
		m.responseVP.GotoBottom()
	}
	return cmds
}

func (m *Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Width(m.width).Render("  reflecto") + "\n")

	if m.ui.errorMsg != "" {
		sb.WriteString(errorStyle.Render("  "+m.ui.errorMsg) + "\n")
	}
	if m.ui.warningMsg != "" {
		sb.WriteString(warnStyle.Render("  "+m.ui.warningMsg) + "\n")
	}

	sb.WriteString(m.renderAvatarRow() + "\n")
	sb.WriteString(m.renderTimeline() + "\n\n")

	if len(m.ui.questions) > 0 {
		sb.WriteString(sectionHeader.Render("  Questions") + "\n")
		sb.WriteString("  " + strings.Join(m.ui.questions, "\n  ") + "\n\n")
	}

	if m.ui.response.Len() > 0 {
		sb.WriteString(sectionHeader.Render("  Response") + "\n")
		sb.WriteString(indent(m.responseVP.View(), "  ") + "\n")
	}

	if m.ui.presenceRaw != "" {
		sb.WriteString(sectionHeader.Render("  Presence") + "\n")
		sb.WriteString(dimStyle.Render("  "+m.ui.presenceRaw) + "\n\n")
	}

	sb.WriteString(m.renderSkills())

	if m.ui.closing != "" {
		sb.WriteString(sectionHeader.Render("  Closing") + "\n")
		sb.WriteString("  " + m.ui.closing + "\n\n")
	}

	if m.ui.completion != "" {
		sb.WriteString(completionStyle.Render("Session Complete\n"+m.ui.completion) + "\n\n")
	}

	if m.ui.answerEnabled {
		sb.WriteString("  " + m.input.View() + "\n")
	}

	sb.WriteString(m.renderStatusBar())
	return sb.String()
}

func (m *Model) renderAvatarRow() string {
	av := m.ui.avatar
	if av.Glyph == "" {
		av = event.ClassifyPresence("")
	}
	style, ok := avatarStyles[av.Style]
	if !ok {
		style = avatarStyles["neutral"]
	}

	heartbeat := ""
	if m.ui.heartbeatVisible {
		if m.ui.heartbeatActive {
			heartbeat = " " + heartbeatOn
		} else {
			heartbeat = " " + heartbeatOff
		}
	}

	row := "  " + style.Render(av.Glyph+"  "+av.Label)
	if m.ui.avatarPrompt != "" {
		row += dimStyle.Render("  " + m.ui.avatarPrompt)
	}
	if m.ui.loading {
		row += "  " + m.spin.View() + dimStyle.Render("starting…")
	}
	if m.ui.lifecycle != "" {
		row += "  " + lifecycleStyle.Render(m.ui.lifecycle)
	}
	return row + heartbeat
}

func (m *Model) renderTimeline() string {
	var parts []string
	for _, phase := range timelinePhases {
		if phase == m.ui.timeline {
			parts = append(parts, timelineActive.Render(phase))
		} else {
			parts = append(parts, timelineIdle.Render(phase))
		}
	}
	return "  " + lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderSkills() string {
	if len(m.ui.skills) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(sectionHeader.Render("  Skills") + "\n")
	for _, cat := range event.SkillCategories {
		v := m.ui.skills[cat]
		label := fmt.Sprintf("  %-14s", cat)
		value := fmt.Sprintf(" %3d", v)
		if m.ui.skillFlash {
			value = skillFlashStyle.Render(value)
		}
		sb.WriteString(label + m.bar.ViewAs(float64(v)/100.0) + value + "\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func (m *Model) renderStatusBar() string {
	hint := "s start  r replay  f finish  q quit"
	if m.ui.answerEnabled {
		hint = "enter submit  esc unfocus"
	}
	return statusBarStyle.Width(m.width).Render(hint + "   " + m.ui.debugMsg)
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

// Run starts the interactive client. startNow begins a fresh session
// immediately; a non-empty replayID re-subscribes to that session instead.
func Run(client *api.Client, cfg config.Config, startNow bool, replayID string) error {
	p := tea.NewProgram(New(client, cfg, startNow, replayID), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
