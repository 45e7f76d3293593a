// Package council implements the three-stage deliberation engine.
//
// A deliberation fans a user query out to several independent
// generation backends in parallel (Stage 1), anonymizes their answers
// and collects peer rankings from every participant (Stage 2), then
// has a designated chairman backend synthesize one final answer from
// everything collected (Stage 3).
//
// # Pipeline
//
//   - Stage 1: every participant answers the query concurrently; the
//     stage waits for all calls to settle, failures included.
//   - Stage 2: usable answers are relabeled "Response A", "Response B",
//     … and every participant ranks them without knowing which answer
//     is whose (including its own). Parsed rankings are averaged into
//     a consensus ordering.
//   - Stage 3: the chairman receives the query, all answers, all
//     critiques and the aggregate ordering, and produces the final
//     answer, optionally streamed token by token.
//
// # Usage
//
//	orch := council.NewOrchestrator(council.OrchestratorConfig{Client: client})
//	result, err := orch.Deliberate(ctx, council.DeliberationRequest{
//		Prompt:       "Should we use gRPC or REST?",
//		Participants: []string{"openai/gpt-5.1", "anthropic/claude-sonnet-4.5"},
//		Chairman:     "anthropic/claude-sonnet-4.5",
//	}, sink)
//
// Progress is reported through the sink as a strictly ordered sequence
// of typed events; exactly one terminal event (complete or error) ends
// every run.
//
// # Failure model
//
// One backend failing never aborts a deliberation: the failed call is
// recorded and excluded downstream. Only configuration errors, a stage
// with zero usable contributors, or cancellation are fatal.
package council
