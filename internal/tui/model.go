// Package tui renders live deliberation progress in the terminal: a
// checklist of the three stages, per-backend status, and the
// chairman's answer streaming in as it is synthesized.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"council/internal/event"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	answerStyle   = lipgloss.NewStyle().PaddingLeft(2)
	backendStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	failedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Strikethrough(true)
	metadataStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

type stageStatus int

const (
	stagePending stageStatus = iota
	stageActive
	stageDone
)

// eventMsg wraps an engine event for delivery through the Bubbletea
// message loop.
type eventMsg struct {
	event event.Event
}

// doneMsg signals that the deliberation goroutine has returned.
type doneMsg struct {
	err error
}

// Model is the Bubbletea model for one deliberation run.
type Model struct {
	prompt   string
	chairman string

	spinner   spinner.Model
	stages    [3]stageStatus
	backends  []string
	failed    map[string]bool
	consensus *event.ConsensusInfo
	synthesis string
	answer    string

	err      error
	errKind  string
	finished bool
	quitting bool
}

// NewModel creates the model for a deliberation over the given prompt.
func NewModel(prompt, chairman string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = activeStyle
	return Model{
		prompt:   prompt,
		chairman: chairman,
		spinner:  sp,
		failed:   make(map[string]bool),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		return m.applyEvent(msg.event), nil

	case doneMsg:
		m.finished = true
		if msg.err != nil && m.err == nil {
			m.err = msg.err
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) applyEvent(e event.Event) Model {
	switch ev := e.(type) {
	case event.Stage1StartedEvent:
		m.stages[0] = stageActive
		m.backends = ev.Participants
	case event.Stage1CompletedEvent:
		m.stages[0] = stageDone
		for _, r := range ev.Responses {
			if r.Failed {
				m.failed[r.Backend] = true
			}
		}
	case event.Stage2StartedEvent:
		m.stages[1] = stageActive
	case event.Stage2CompletedEvent:
		m.stages[1] = stageDone
		consensus := ev.Consensus
		m.consensus = &consensus
	case event.Stage3StartedEvent:
		m.stages[2] = stageActive
	case event.SynthesisTokenEvent:
		m.synthesis += ev.Token
	case event.Stage3CompletedEvent:
		m.stages[2] = stageDone
		m.answer = ev.Content
	case event.ErroredEvent:
		m.err = fmt.Errorf("%s", ev.Message)
		m.errKind = ev.Kind
	}
	return m
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Council deliberation"))
	b.WriteString("\n\n")

	b.WriteString(m.stageLine(0, "Stage 1: collecting answers"))
	b.WriteString(m.backendLine())
	b.WriteString(m.stageLine(1, "Stage 2: peer review"))
	b.WriteString(m.consensusLine())
	b.WriteString(m.stageLine(2, fmt.Sprintf("Stage 3: synthesis (%s)", m.chairman)))

	if text := m.currentAnswer(); text != "" {
		b.WriteString("\n")
		b.WriteString(answerStyle.Render(text))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("deliberation failed: " + m.err.Error()))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) stageLine(idx int, label string) string {
	switch m.stages[idx] {
	case stageDone:
		return doneStyle.Render("✓ "+label) + "\n"
	case stageActive:
		return m.spinner.View() + " " + activeStyle.Render(label) + "\n"
	default:
		return pendingStyle.Render("· "+label) + "\n"
	}
}

func (m Model) backendLine() string {
	if len(m.backends) == 0 {
		return ""
	}
	parts := make([]string, len(m.backends))
	for i, backend := range m.backends {
		if m.failed[backend] {
			parts[i] = failedStyle.Render(backend)
		} else {
			parts[i] = backendStyle.Render(backend)
		}
	}
	return "    " + strings.Join(parts, "  ") + "\n"
}

func (m Model) consensusLine() string {
	if m.consensus == nil {
		return ""
	}
	if m.consensus.Reached {
		return "    " + metadataStyle.Render(fmt.Sprintf("consensus: %s (%.0f%% of first-place votes)", m.consensus.TopBackend, m.consensus.Share*100)) + "\n"
	}
	return "    " + metadataStyle.Render("no consensus among evaluators") + "\n"
}

// currentAnswer prefers the final answer, falling back to the
// accumulating token stream while synthesis is in flight.
func (m Model) currentAnswer() string {
	if m.answer != "" {
		return m.answer
	}
	return m.synthesis
}
