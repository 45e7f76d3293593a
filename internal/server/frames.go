package server

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"

	"council/internal/event"
)

// frame is the SSE payload shape the web client consumes.
type frame struct {
	Type     string `json:"type"`
	Data     any    `json:"data,omitempty"`
	Metadata any    `json:"metadata,omitempty"`
	Message  string `json:"message,omitempty"`
}

// frameFor maps an engine event to its wire frame. Unknown event types
// map to nil and are not sent.
func frameFor(e event.Event) *frame {
	switch ev := e.(type) {
	case event.Stage1StartedEvent:
		return &frame{Type: "stage1_start", Data: gin.H{"models": ev.Participants}}
	case event.Stage1CompletedEvent:
		return &frame{Type: "stage1_complete", Data: ev.Responses}
	case event.Stage2StartedEvent:
		return &frame{Type: "stage2_start"}
	case event.Stage2CompletedEvent:
		return &frame{
			Type: "stage2_complete",
			Data: ev.Evaluations,
			Metadata: gin.H{
				"label_to_model":     ev.LabelMap,
				"aggregate_rankings": ev.Aggregate,
				"consensus":          ev.Consensus,
			},
		}
	case event.Stage3StartedEvent:
		return &frame{Type: "stage3_start", Data: gin.H{"model": ev.Chairman}}
	case event.SynthesisTokenEvent:
		return &frame{Type: "stage3_token", Data: gin.H{"token": ev.Token}}
	case event.Stage3CompletedEvent:
		return &frame{Type: "stage3_complete", Data: gin.H{"model": ev.Chairman, "response": ev.Content}}
	case event.TitleCompletedEvent:
		return &frame{Type: "title_complete", Data: gin.H{"title": ev.Title}}
	case event.CompletedEvent:
		return &frame{Type: "complete"}
	case event.ErroredEvent:
		return &frame{Type: "error", Message: ev.Message, Data: gin.H{"kind": ev.Kind}}
	default:
		return nil
	}
}

func writeFrame(c *gin.Context, e event.Event) {
	f := frameFor(e)
	if f == nil {
		return
	}
	payload, err := json.Marshal(f)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
}
