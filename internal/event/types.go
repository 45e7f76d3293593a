// Package event defines the typed progress events emitted during a
// deliberation. Events decouple the engine from its consumers (TUI,
// SSE server, tests) so none of them need a direct dependency on the
// engine's internals.
package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "deliberation.stage1_start").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Sink receives events in emission order.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// Event type identifiers, in the relative order they are emitted
// during a successful deliberation.
const (
	TypeStage1Started   = "deliberation.stage1_start"
	TypeStage1Completed = "deliberation.stage1_complete"
	TypeStage2Started   = "deliberation.stage2_start"
	TypeStage2Completed = "deliberation.stage2_complete"
	TypeStage3Started   = "deliberation.stage3_start"
	TypeSynthesisToken  = "deliberation.stage3_token"
	TypeStage3Completed = "deliberation.stage3_complete"
	TypeTitleCompleted  = "conversation.title"
	TypeCompleted       = "deliberation.complete"
	TypeErrored         = "deliberation.error"
)

// Error kinds carried by ErroredEvent.
const (
	ErrKindConfiguration = "configuration"
	ErrKindStageFailure  = "stage_failure"
	ErrKindCancelled     = "cancelled"
)

// -----------------------------------------------------------------------------
// Payload types
// -----------------------------------------------------------------------------
// These mirror the engine's result types for decoupling; the engine
// copies its values into them when emitting.

// BackendResponse is one backend's Stage 1 output (or failure marker).
type BackendResponse struct {
	Backend   string `json:"model"`
	Content   string `json:"response"`
	Reasoning string `json:"reasoning_details,omitempty"`
	Failed    bool   `json:"failed,omitempty"`
}

// EvaluationSummary is one evaluator's Stage 2 critique and the
// ranking extracted from it.
type EvaluationSummary struct {
	Evaluator string   `json:"model"`
	Raw       string   `json:"ranking"`
	Ranking   []string `json:"parsed_ranking"`
	Failed    bool     `json:"failed,omitempty"`
}

// RankingEntry is one row of the aggregate ordering.
type RankingEntry struct {
	Backend     string  `json:"model"`
	AverageRank float64 `json:"average_rank"`
	Votes       int     `json:"rankings_count"`
}

// ConsensusInfo reports whether the evaluators converged on a single
// top choice.
type ConsensusInfo struct {
	Reached    bool    `json:"reached"`
	TopBackend string  `json:"top_model,omitempty"`
	Share      float64 `json:"share,omitempty"`
}

// -----------------------------------------------------------------------------
// Stage lifecycle events
// -----------------------------------------------------------------------------

// Stage1StartedEvent is emitted before the parallel Stage 1 fan-out.
type Stage1StartedEvent struct {
	baseEvent
	Participants []string
}

// NewStage1StartedEvent creates a Stage1StartedEvent.
func NewStage1StartedEvent(participants []string) Stage1StartedEvent {
	return Stage1StartedEvent{
		baseEvent:    newBaseEvent(TypeStage1Started),
		Participants: participants,
	}
}

// Stage1CompletedEvent carries every participant's response, failed
// entries included and marked as such.
type Stage1CompletedEvent struct {
	baseEvent
	Responses []BackendResponse
}

// NewStage1CompletedEvent creates a Stage1CompletedEvent.
func NewStage1CompletedEvent(responses []BackendResponse) Stage1CompletedEvent {
	return Stage1CompletedEvent{
		baseEvent: newBaseEvent(TypeStage1Completed),
		Responses: responses,
	}
}

// Stage2StartedEvent is emitted before the ranking fan-out.
type Stage2StartedEvent struct {
	baseEvent
}

// NewStage2StartedEvent creates a Stage2StartedEvent.
func NewStage2StartedEvent() Stage2StartedEvent {
	return Stage2StartedEvent{baseEvent: newBaseEvent(TypeStage2Started)}
}

// Stage2CompletedEvent carries the raw evaluations, the label map for
// caller-side de-anonymized display, and the aggregate ordering.
type Stage2CompletedEvent struct {
	baseEvent
	Evaluations []EvaluationSummary
	LabelMap    map[string]string
	Aggregate   []RankingEntry
	Consensus   ConsensusInfo
}

// NewStage2CompletedEvent creates a Stage2CompletedEvent.
func NewStage2CompletedEvent(evals []EvaluationSummary, labelMap map[string]string, aggregate []RankingEntry, consensus ConsensusInfo) Stage2CompletedEvent {
	return Stage2CompletedEvent{
		baseEvent:   newBaseEvent(TypeStage2Completed),
		Evaluations: evals,
		LabelMap:    labelMap,
		Aggregate:   aggregate,
		Consensus:   consensus,
	}
}

// Stage3StartedEvent is emitted before the chairman synthesis call.
type Stage3StartedEvent struct {
	baseEvent
	Chairman string
}

// NewStage3StartedEvent creates a Stage3StartedEvent.
func NewStage3StartedEvent(chairman string) Stage3StartedEvent {
	return Stage3StartedEvent{
		baseEvent: newBaseEvent(TypeStage3Started),
		Chairman:  chairman,
	}
}

// SynthesisTokenEvent carries one streamed chunk of the chairman's
// answer. Zero or more are emitted, strictly ordered and contiguous
// between Stage3StartedEvent and Stage3CompletedEvent.
type SynthesisTokenEvent struct {
	baseEvent
	Token string
}

// NewSynthesisTokenEvent creates a SynthesisTokenEvent.
func NewSynthesisTokenEvent(token string) SynthesisTokenEvent {
	return SynthesisTokenEvent{
		baseEvent: newBaseEvent(TypeSynthesisToken),
		Token:     token,
	}
}

// Stage3CompletedEvent carries the full synthesized answer.
type Stage3CompletedEvent struct {
	baseEvent
	Chairman string
	Content  string
}

// NewStage3CompletedEvent creates a Stage3CompletedEvent.
func NewStage3CompletedEvent(chairman, content string) Stage3CompletedEvent {
	return Stage3CompletedEvent{
		baseEvent: newBaseEvent(TypeStage3Completed),
		Chairman:  chairman,
		Content:   content,
	}
}

// TitleCompletedEvent is emitted when a conversation title has been
// generated from the first message of a conversation.
type TitleCompletedEvent struct {
	baseEvent
	Title string
}

// NewTitleCompletedEvent creates a TitleCompletedEvent.
func NewTitleCompletedEvent(title string) TitleCompletedEvent {
	return TitleCompletedEvent{
		baseEvent: newBaseEvent(TypeTitleCompleted),
		Title:     title,
	}
}

// CompletedEvent terminates a successful event sequence. Exactly one
// of CompletedEvent or ErroredEvent ends every deliberation.
type CompletedEvent struct {
	baseEvent
}

// NewCompletedEvent creates a CompletedEvent.
func NewCompletedEvent() CompletedEvent {
	return CompletedEvent{baseEvent: newBaseEvent(TypeCompleted)}
}

// ErroredEvent terminates a failed or cancelled event sequence.
type ErroredEvent struct {
	baseEvent
	Kind    string
	Message string
}

// NewErroredEvent creates an ErroredEvent.
func NewErroredEvent(kind, message string) ErroredEvent {
	return ErroredEvent{
		baseEvent: newBaseEvent(TypeErrored),
		Kind:      kind,
		Message:   message,
	}
}
