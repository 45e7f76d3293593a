package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"council/internal/council"
	"council/internal/event"
)

// Deliberate is the function the app drives; it receives the sink that
// feeds the display.
type Deliberate func(ctx context.Context, sink event.Sink) (*council.DeliberationResult, error)

// App runs one deliberation behind a live progress display.
type App struct {
	model Model
}

// New creates the app for a deliberation over the given prompt.
func New(prompt, chairman string) *App {
	return &App{model: NewModel(prompt, chairman)}
}

// Run starts the display and the deliberation concurrently, returning
// the deliberation's result once both have finished. Quitting the
// display cancels the deliberation.
func (a *App) Run(ctx context.Context, deliberate Deliberate) (*council.DeliberationResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(a.model, tea.WithContext(ctx))

	type outcome struct {
		result *council.DeliberationResult
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		sink := event.SinkFunc(func(e event.Event) {
			program.Send(eventMsg{event: e})
		})
		result, err := deliberate(ctx, sink)
		done <- outcome{result: result, err: err}
		program.Send(doneMsg{err: err})
	}()

	// Run returns when the deliberation finishes or the user quits;
	// either way the run's context is released so the goroutine can
	// settle.
	_, _ = program.Run()
	cancel()

	out := <-done
	return out.result, out.err
}
