package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"council/internal/event"
)

func apply(t *testing.T, m Model, events ...event.Event) Model {
	t.Helper()
	for _, e := range events {
		next, _ := m.Update(eventMsg{event: e})
		m = next.(Model)
	}
	return m
}

func TestModelStageProgression(t *testing.T) {
	m := NewModel("why is the sky blue?", "m2")

	if m.stages[0] != stagePending {
		t.Fatal("stages should start pending")
	}

	m = apply(t, m, event.NewStage1StartedEvent([]string{"m1", "m2"}))
	if m.stages[0] != stageActive {
		t.Error("stage 1 should be active after stage1_start")
	}

	m = apply(t, m,
		event.NewStage1CompletedEvent([]event.BackendResponse{
			{Backend: "m1", Content: "a"},
			{Backend: "m2", Failed: true},
		}),
		event.NewStage2StartedEvent(),
	)
	if m.stages[0] != stageDone || m.stages[1] != stageActive {
		t.Errorf("stages = %v", m.stages)
	}
	if !m.failed["m2"] {
		t.Error("failed backend should be tracked")
	}

	m = apply(t, m,
		event.NewStage2CompletedEvent(nil, nil, nil, event.ConsensusInfo{Reached: true, TopBackend: "m1", Share: 1}),
		event.NewStage3StartedEvent("m2"),
		event.NewStage3CompletedEvent("m2", "the answer"),
		event.NewCompletedEvent(),
	)
	if m.stages[2] != stageDone {
		t.Errorf("stages = %v", m.stages)
	}

	view := m.View()
	if !strings.Contains(view, "the answer") {
		t.Errorf("view should show the final answer:\n%s", view)
	}
	if !strings.Contains(view, "consensus: m1") {
		t.Errorf("view should show consensus:\n%s", view)
	}
}

func TestModelStreamingTokens(t *testing.T) {
	m := NewModel("q", "m1")
	m = apply(t, m,
		event.NewStage3StartedEvent("m1"),
		event.NewSynthesisTokenEvent("partial "),
		event.NewSynthesisTokenEvent("answer"),
	)

	if got := m.currentAnswer(); got != "partial answer" {
		t.Errorf("currentAnswer = %q", got)
	}

	m = apply(t, m, event.NewStage3CompletedEvent("m1", "full answer"))
	if got := m.currentAnswer(); got != "full answer" {
		t.Errorf("final answer should win, got %q", got)
	}
}

func TestModelError(t *testing.T) {
	m := NewModel("q", "m1")
	m = apply(t, m, event.NewErroredEvent(event.ErrKindStageFailure, "all backends failed"))

	if m.err == nil {
		t.Fatal("error event should set err")
	}
	if !strings.Contains(m.View(), "all backends failed") {
		t.Error("view should surface the failure")
	}
}

func TestModelQuitKeys(t *testing.T) {
	m := NewModel("q", "m1")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if !next.(Model).quitting {
		t.Error("model should mark itself quitting")
	}
}

func TestModelDone(t *testing.T) {
	m := NewModel("q", "m1")
	next, cmd := m.Update(doneMsg{})

	if cmd == nil {
		t.Fatal("doneMsg should quit the program")
	}
	if !next.(Model).finished {
		t.Error("model should be finished")
	}
}
