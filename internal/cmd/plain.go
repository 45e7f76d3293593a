package cmd

import (
	"fmt"
	"io"
	"strings"

	"council/internal/event"
)

// registerPlainRenderer subscribes a line-oriented progress printer to
// the bus. Synthesis tokens are written unbuffered so streamed answers
// appear as they arrive.
func registerPlainRenderer(bus *event.Bus, w io.Writer) {
	bus.Subscribe(event.TypeStage1Started, func(e event.Event) {
		ev := e.(event.Stage1StartedEvent)
		fmt.Fprintf(w, "stage 1: querying %s\n", strings.Join(ev.Participants, ", "))
	})
	bus.Subscribe(event.TypeStage1Completed, func(e event.Event) {
		ev := e.(event.Stage1CompletedEvent)
		for _, r := range ev.Responses {
			if r.Failed {
				fmt.Fprintf(w, "stage 1: %s failed\n", r.Backend)
			} else {
				fmt.Fprintf(w, "stage 1: %s answered (%d chars)\n", r.Backend, len(r.Content))
			}
		}
	})
	bus.Subscribe(event.TypeStage2Started, func(e event.Event) {
		fmt.Fprintln(w, "stage 2: collecting peer rankings")
	})
	bus.Subscribe(event.TypeStage2Completed, func(e event.Event) {
		ev := e.(event.Stage2CompletedEvent)
		for _, entry := range ev.Aggregate {
			if entry.Votes == 0 {
				fmt.Fprintf(w, "stage 2: %s received no votes\n", entry.Backend)
				continue
			}
			fmt.Fprintf(w, "stage 2: %s average rank %.2f (%d votes)\n", entry.Backend, entry.AverageRank, entry.Votes)
		}
		if ev.Consensus.Reached {
			fmt.Fprintf(w, "stage 2: consensus on %s\n", ev.Consensus.TopBackend)
		}
	})
	bus.Subscribe(event.TypeStage3Started, func(e event.Event) {
		ev := e.(event.Stage3StartedEvent)
		fmt.Fprintf(w, "stage 3: %s synthesizing\n\n", ev.Chairman)
	})
	streamed := false
	bus.Subscribe(event.TypeSynthesisToken, func(e event.Event) {
		streamed = true
		fmt.Fprint(w, e.(event.SynthesisTokenEvent).Token)
	})
	bus.Subscribe(event.TypeStage3Completed, func(e event.Event) {
		if streamed {
			fmt.Fprintln(w)
			return
		}
		fmt.Fprintf(w, "%s\n", e.(event.Stage3CompletedEvent).Content)
	})
	bus.Subscribe(event.TypeErrored, func(e event.Event) {
		ev := e.(event.ErroredEvent)
		fmt.Fprintf(w, "error (%s): %s\n", ev.Kind, ev.Message)
	})
}
