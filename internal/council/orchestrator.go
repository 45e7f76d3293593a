package council

import (
	"context"

	"golang.org/x/sync/errgroup"

	"council/internal/event"
	"council/internal/logging"
)

const (
	defaultMaxConcurrent      = 8
	defaultConsensusThreshold = 0.8
)

// OrchestratorConfig configures a deliberation orchestrator.
type OrchestratorConfig struct {
	// Client issues the backend calls. Required.
	Client Client

	// Logger receives structured progress logs. Defaults to a nop
	// logger.
	Logger *logging.Logger

	// MaxConcurrent caps in-flight backend calls per stage. Zero means
	// the default of 8.
	MaxConcurrent int

	// ConsensusThreshold is the first-place vote share one backend must
	// reach for consensus. Zero means the default of 0.8.
	ConsensusThreshold float64

	// StreamSynthesis streams the chairman's answer token by token
	// through the sink instead of delivering it whole.
	StreamSynthesis bool
}

// Orchestrator runs the three-stage deliberation pipeline. It is
// stateless across runs and safe for concurrent Deliberate calls.
type Orchestrator struct {
	client    Client
	logger    *logging.Logger
	limit     int
	threshold float64
	stream    bool
}

// NewOrchestrator creates an Orchestrator from cfg, applying defaults
// for unset fields.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	limit := cfg.MaxConcurrent
	if limit <= 0 {
		limit = defaultMaxConcurrent
	}
	threshold := cfg.ConsensusThreshold
	if threshold <= 0 {
		threshold = defaultConsensusThreshold
	}
	return &Orchestrator{
		client:    cfg.Client,
		logger:    logger,
		limit:     limit,
		threshold: threshold,
		stream:    cfg.StreamSynthesis,
	}
}

// Deliberate runs one full deliberation: parallel generation, peer
// ranking, chairman synthesis. Progress is reported through sink as a
// strictly ordered event sequence ending in exactly one terminal
// event. On error the returned result is nil and the terminal event is
// an ErroredEvent whose kind matches the failure.
//
// Cancelling ctx stops the run at the next stage boundary; in-flight
// backend calls are cancelled through the context they were given.
func (o *Orchestrator) Deliberate(ctx context.Context, req DeliberationRequest, sink event.Sink) (*DeliberationResult, error) {
	if sink == nil {
		sink = event.SinkFunc(func(event.Event) {})
	}

	if err := req.Validate(); err != nil {
		o.logger.Error("invalid deliberation request", "error", err)
		sink.Emit(event.NewErroredEvent(event.ErrKindConfiguration, err.Error()))
		return nil, err
	}

	log := o.logger.With("participants", len(req.Participants))

	responses, err := o.runStage1(ctx, req, sink, log.WithStage("stage1"))
	if err != nil {
		return nil, err
	}

	evaluations, labels, aggregate, consensus, err := o.runStage2(ctx, req, responses, sink, log.WithStage("stage2"))
	if err != nil {
		return nil, err
	}

	synthesis, err := o.runStage3(ctx, req, responses, evaluations, sink, log.WithStage("stage3"))
	if err != nil {
		return nil, err
	}

	sink.Emit(event.NewCompletedEvent())

	return &DeliberationResult{
		Responses:   responses,
		Evaluations: evaluations,
		Synthesis:   synthesis,
		LabelMap:    labels.Display(),
		Aggregate:   aggregate,
		Consensus:   consensus,
	}, nil
}

// runStage1 fans the query out to every participant and waits for all
// calls to settle. Failures are recorded in place, never propagated;
// only every backend failing at once is fatal.
func (o *Orchestrator) runStage1(ctx context.Context, req DeliberationRequest, sink event.Sink, log *logging.Logger) ([]ModelResponse, error) {
	sink.Emit(event.NewStage1StartedEvent(req.Participants))
	log.Info("collecting responses")

	messages := []Message{{Role: RoleUser, Content: req.Prompt}}
	responses := o.fanOut(ctx, req.Participants, func(callCtx context.Context, backend string) ModelResponse {
		return o.client.Generate(callCtx, backend, messages)
	})

	if err := o.checkCancelled(ctx, sink, log); err != nil {
		return nil, err
	}

	usable := 0
	for _, r := range responses {
		if r.Usable() {
			usable++
		} else {
			log.WithBackend(r.Backend).Warn("backend failed", "detail", r.FailureDetail)
		}
	}
	if usable == 0 {
		log.Error("no usable responses")
		sink.Emit(event.NewErroredEvent(event.ErrKindStageFailure, ErrAllBackendsFailed.Error()))
		return nil, ErrAllBackendsFailed
	}

	log.Info("responses collected", "usable", usable, "failed", len(responses)-usable)
	sink.Emit(event.NewStage1CompletedEvent(toBackendResponses(responses)))
	return responses, nil
}

// runStage2 anonymizes the usable answers, collects a ranking from
// every participant, and folds the parsed rankings into the aggregate
// ordering. Unparseable or failed evaluations degrade the aggregate
// but never fail the stage.
func (o *Orchestrator) runStage2(ctx context.Context, req DeliberationRequest, responses []ModelResponse, sink event.Sink, log *logging.Logger) ([]Evaluation, LabelMap, []AggregateEntry, Consensus, error) {
	sink.Emit(event.NewStage2StartedEvent())
	log.Info("collecting rankings")

	var usable []ModelResponse
	var backends []string
	for _, r := range responses {
		if r.Usable() {
			usable = append(usable, r)
			backends = append(backends, r.Backend)
		}
	}
	labels := BuildLabelMap(backends)

	prompt := buildRankingPrompt(req.Prompt, usable, labels)
	messages := []Message{{Role: RoleUser, Content: prompt}}

	raw := o.fanOut(ctx, req.Participants, func(callCtx context.Context, backend string) ModelResponse {
		return o.client.Generate(callCtx, backend, messages)
	})

	if err := o.checkCancelled(ctx, sink, log); err != nil {
		return nil, LabelMap{}, nil, Consensus{}, err
	}

	evaluations := make([]Evaluation, len(raw))
	voted := 0
	for i, r := range raw {
		eval := Evaluation{Evaluator: r.Backend, Raw: r.Content, Failed: !r.Usable()}
		if !eval.Failed {
			eval.Ranking = ParseRanking(r.Content, labels)
		}
		if len(eval.Ranking) > 0 {
			voted++
		} else if !eval.Failed {
			log.WithBackend(r.Backend).Warn("no ranking extracted")
		}
		evaluations[i] = eval
	}
	if voted == 0 {
		log.Warn("no evaluation produced a ranking")
	}

	aggregate := ComputeAggregate(evaluations, labels)
	consensus := CheckConsensus(aggregate, o.threshold)
	log.Info("rankings collected", "votes", voted, "consensus", consensus.Reached)

	sink.Emit(event.NewStage2CompletedEvent(
		toEvaluationSummaries(evaluations),
		labels.Display(),
		toRankingEntries(aggregate),
		event.ConsensusInfo{Reached: consensus.Reached, TopBackend: consensus.TopBackend, Share: consensus.Share},
	))
	return evaluations, labels, aggregate, consensus, nil
}

// runStage3 has the chairman synthesize the final answer from the full
// de-anonymized record. A chairman failure is fatal: there is no
// answer to deliver without it.
func (o *Orchestrator) runStage3(ctx context.Context, req DeliberationRequest, responses []ModelResponse, evaluations []Evaluation, sink event.Sink, log *logging.Logger) (SynthesisResult, error) {
	sink.Emit(event.NewStage3StartedEvent(req.Chairman))
	log = log.WithBackend(req.Chairman)
	log.Info("synthesizing final answer", "streaming", o.stream)

	prompt := buildSynthesisPrompt(req.Prompt, responses, evaluations)
	messages := []Message{{Role: RoleUser, Content: prompt}}

	var resp ModelResponse
	if o.stream {
		resp = o.client.GenerateStream(ctx, req.Chairman, messages, func(token string) {
			sink.Emit(event.NewSynthesisTokenEvent(token))
		})
	} else {
		resp = o.client.Generate(ctx, req.Chairman, messages)
	}

	if err := o.checkCancelled(ctx, sink, log); err != nil {
		return SynthesisResult{}, err
	}

	if !resp.Usable() {
		log.Error("chairman failed", "detail", resp.FailureDetail)
		sink.Emit(event.NewErroredEvent(event.ErrKindStageFailure, ErrSynthesisFailed.Error()))
		return SynthesisResult{}, ErrSynthesisFailed
	}

	log.Info("synthesis complete", "length", len(resp.Content))
	sink.Emit(event.NewStage3CompletedEvent(req.Chairman, resp.Content))
	return SynthesisResult{Chairman: req.Chairman, Content: resp.Content, Complete: true}, nil
}

// fanOut issues one call per backend with bounded concurrency and
// waits for all of them. Results land at the caller's index regardless
// of completion order. Per-call failures are carried in the
// ModelResponse, so the group itself never errors.
func (o *Orchestrator) fanOut(ctx context.Context, backends []string, call func(ctx context.Context, backend string) ModelResponse) []ModelResponse {
	results := make([]ModelResponse, len(backends))

	var g errgroup.Group
	g.SetLimit(o.limit)
	for i, backend := range backends {
		i, backend := i, backend
		g.Go(func() error {
			results[i] = call(ctx, backend)
			return nil
		})
	}
	g.Wait()

	return results
}

// checkCancelled turns a context cancellation observed at a stage
// boundary into the single terminal error event.
func (o *Orchestrator) checkCancelled(ctx context.Context, sink event.Sink, log *logging.Logger) error {
	if err := ctx.Err(); err != nil {
		log.Warn("deliberation cancelled", "error", err)
		sink.Emit(event.NewErroredEvent(event.ErrKindCancelled, err.Error()))
		return err
	}
	return nil
}

func toBackendResponses(responses []ModelResponse) []event.BackendResponse {
	out := make([]event.BackendResponse, len(responses))
	for i, r := range responses {
		out[i] = event.BackendResponse{
			Backend:   r.Backend,
			Content:   r.Content,
			Reasoning: r.Reasoning,
			Failed:    r.Failed,
		}
	}
	return out
}

func toEvaluationSummaries(evaluations []Evaluation) []event.EvaluationSummary {
	out := make([]event.EvaluationSummary, len(evaluations))
	for i, e := range evaluations {
		ranking := make([]string, len(e.Ranking))
		for j, label := range e.Ranking {
			ranking[j] = string(label)
		}
		out[i] = event.EvaluationSummary{
			Evaluator: e.Evaluator,
			Raw:       e.Raw,
			Ranking:   ranking,
			Failed:    e.Failed,
		}
	}
	return out
}

func toRankingEntries(aggregate []AggregateEntry) []event.RankingEntry {
	out := make([]event.RankingEntry, len(aggregate))
	for i, a := range aggregate {
		out[i] = event.RankingEntry{
			Backend:     a.Backend,
			AverageRank: a.AverageRank,
			Votes:       a.Votes,
		}
	}
	return out
}
