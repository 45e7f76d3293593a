package council

import (
	"context"
	"errors"
)

// Request validation errors.
var (
	ErrNoParticipants       = errors.New("deliberation requires at least one participant")
	ErrDuplicateParticipant = errors.New("duplicate participant identifier")
	ErrUnknownChairman      = errors.New("chairman must be one of the participants")
	ErrAllBackendsFailed    = errors.New("all backends failed to respond")
	ErrSynthesisFailed      = errors.New("chairman failed to produce a synthesis")
)

// Role constants for prompt messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of an assembled prompt payload.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client issues text-generation requests to named backends.
//
// Implementations never return an error for backend-level failures
// (transport errors, rate limits, timeouts, malformed provider
// responses); they return a ModelResponse with Failed set instead, so
// one backend's failure cannot abort a deliberation. Implementations
// do not retry; a failed call settles within one call's timeout.
type Client interface {
	// Generate requests one completion from the named backend.
	Generate(ctx context.Context, backend string, messages []Message) ModelResponse

	// GenerateStream requests one completion, invoking onToken for each
	// produced chunk in order. The returned response carries the full
	// accumulated content.
	GenerateStream(ctx context.Context, backend string, messages []Message, onToken func(token string)) ModelResponse
}

// DeliberationRequest describes one deliberation run.
// Participants must be non-empty and unique, and Chairman must name
// one of them.
type DeliberationRequest struct {
	Prompt       string
	Participants []string
	Chairman     string
}

// Validate checks the request invariants. A validation failure is a
// configuration error: it is rejected before any stage starts.
func (r DeliberationRequest) Validate() error {
	if len(r.Participants) == 0 {
		return ErrNoParticipants
	}
	seen := make(map[string]bool, len(r.Participants))
	for _, p := range r.Participants {
		if seen[p] {
			return ErrDuplicateParticipant
		}
		seen[p] = true
	}
	if !seen[r.Chairman] {
		return ErrUnknownChairman
	}
	return nil
}

// ModelResponse is one backend's output for one request. Immutable
// once created. A failed response carries no content and is excluded
// from anonymization and ranking.
type ModelResponse struct {
	Backend   string `json:"model"`
	Content   string `json:"response"`
	Reasoning string `json:"reasoning_details,omitempty"`
	Failed    bool   `json:"failed,omitempty"`
	// FailureDetail describes why the call failed, for logs and debug
	// display only. Never shown to evaluator backends.
	FailureDetail string `json:"failure_detail,omitempty"`
}

// Usable reports whether the response can be shown to evaluators.
func (r ModelResponse) Usable() bool {
	return !r.Failed && r.Content != ""
}

// Evaluation is one participant's Stage 2 critique plus the ranking
// extracted from it. An empty Ranking means the evaluator contributed
// no vote.
type Evaluation struct {
	Evaluator string  `json:"model"`
	Raw       string  `json:"ranking"`
	Ranking   []Label `json:"parsed_ranking"`
	Failed    bool    `json:"failed,omitempty"`
}

// AggregateEntry is one participant's position in the consensus
// ordering. AverageRank averages the participant's 1-based position
// across every evaluation that ranked it; Votes counts those
// evaluations.
type AggregateEntry struct {
	Backend     string  `json:"model"`
	AverageRank float64 `json:"average_rank"`
	Votes       int     `json:"rankings_count"`
	FirstPlace  int     `json:"first_place_votes"`
}

// Consensus reports whether evaluators converged on one top choice:
// a single backend holding at least the configured share of
// first-place votes.
type Consensus struct {
	Reached    bool    `json:"reached"`
	TopBackend string  `json:"top_model,omitempty"`
	Share      float64 `json:"share,omitempty"`
}

// SynthesisResult is the chairman's final answer. Complete is false
// only while the answer is still being streamed.
type SynthesisResult struct {
	Chairman string `json:"model"`
	Content  string `json:"response"`
	Complete bool   `json:"complete"`
}

// DeliberationResult is the engine's sole output. It is owned by the
// caller once returned; the engine holds no state afterwards.
type DeliberationResult struct {
	Responses   []ModelResponse   `json:"stage1"`
	Evaluations []Evaluation      `json:"stage2"`
	Synthesis   SynthesisResult   `json:"stage3"`
	LabelMap    map[string]string `json:"label_to_model"`
	Aggregate   []AggregateEntry  `json:"aggregate_rankings"`
	Consensus   Consensus         `json:"consensus"`
}
