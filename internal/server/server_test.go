package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"council/internal/config"
	"council/internal/council"
	"council/internal/event"
	"council/internal/storage"
)

type fakeDeliberator struct {
	result *council.DeliberationResult
	err    error
	calls  int
}

func (f *fakeDeliberator) Deliberate(ctx context.Context, req council.DeliberationRequest, sink event.Sink) (*council.DeliberationResult, error) {
	f.calls++
	if sink == nil {
		sink = event.SinkFunc(func(event.Event) {})
	}
	if f.err != nil {
		sink.Emit(event.NewErroredEvent(event.ErrKindStageFailure, f.err.Error()))
		return nil, f.err
	}

	sink.Emit(event.NewStage1StartedEvent(req.Participants))
	sink.Emit(event.NewStage1CompletedEvent([]event.BackendResponse{{Backend: "m1", Content: "a1"}}))
	sink.Emit(event.NewStage2StartedEvent())
	sink.Emit(event.NewStage2CompletedEvent(nil, map[string]string{"Response A": "m1"}, nil, event.ConsensusInfo{}))
	sink.Emit(event.NewStage3StartedEvent(req.Chairman))
	sink.Emit(event.NewSynthesisTokenEvent("final"))
	sink.Emit(event.NewStage3CompletedEvent(req.Chairman, "final"))
	sink.Emit(event.NewCompletedEvent())
	return f.result, nil
}

func happyResult() *council.DeliberationResult {
	return &council.DeliberationResult{
		Responses: []council.ModelResponse{{Backend: "m1", Content: "a1"}},
		Synthesis: council.SynthesisResult{Chairman: "m2", Content: "final", Complete: true},
		LabelMap:  map[string]string{"Response A": "m1"},
	}
}

func newTestServer(t *testing.T, deliberator Deliberator) (*Server, *storage.Store) {
	t.Helper()
	store, err := storage.NewStore(t.TempDir())
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Council.Members = []string{"m1", "m2"}
	cfg.Council.Chairman = "m2"

	title := func(ctx context.Context, query string) string { return "Generated Title" }
	return New(cfg, store, deliberator, title, nil), store
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("")
	} else {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthAndConfig(t *testing.T) {
	s, _ := newTestServer(t, &fakeDeliberator{result: happyResult()})

	w := doJSON(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/config", "")
	require.Equal(t, http.StatusOK, w.Code)
	var cfg map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.Equal(t, "m2", cfg["chairman"])
	assert.Len(t, cfg["models"], 2)
}

func TestConversationLifecycle(t *testing.T) {
	s, _ := newTestServer(t, &fakeDeliberator{result: happyResult()})

	w := doJSON(t, s, http.MethodPost, "/api/conversations", "{}")
	require.Equal(t, http.StatusOK, w.Code)
	var conv storage.Conversation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conv))
	assert.NotEmpty(t, conv.ID)

	w = doJSON(t, s, http.MethodGet, "/api/conversations", "")
	require.Equal(t, http.StatusOK, w.Code)
	var summaries []storage.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)

	w = doJSON(t, s, http.MethodGet, "/api/conversations/"+conv.ID, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/conversations/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendMessage(t *testing.T) {
	deliberator := &fakeDeliberator{result: happyResult()}
	s, store := newTestServer(t, deliberator)

	conv, err := store.Create()
	require.NoError(t, err)

	w := doJSON(t, s, http.MethodPost, "/api/conversations/"+conv.ID+"/message", `{"content":"what is raft?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, deliberator.calls)

	var result council.DeliberationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "final", result.Synthesis.Content)

	loaded, err := store.Get(conv.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, "user", loaded.Messages[0].Role)
	assert.Equal(t, "assistant", loaded.Messages[1].Role)
	// First message triggers title generation.
	assert.Equal(t, "Generated Title", loaded.Title)
}

func TestSendMessageValidation(t *testing.T) {
	s, store := newTestServer(t, &fakeDeliberator{result: happyResult()})
	conv, err := store.Create()
	require.NoError(t, err)

	w := doJSON(t, s, http.MethodPost, "/api/conversations/"+conv.ID+"/message", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/conversations/missing/message", `{"content":"hi"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendMessageDeliberationError(t *testing.T) {
	s, store := newTestServer(t, &fakeDeliberator{err: council.ErrAllBackendsFailed})
	conv, err := store.Create()
	require.NoError(t, err)

	w := doJSON(t, s, http.MethodPost, "/api/conversations/"+conv.ID+"/message", `{"content":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func sseFrames(t *testing.T, body string) []frame {
	t.Helper()
	var frames []frame
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var f frame
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &f))
		frames = append(frames, f)
	}
	return frames
}

func TestSendMessageStream(t *testing.T) {
	s, store := newTestServer(t, &fakeDeliberator{result: happyResult()})
	conv, err := store.Create()
	require.NoError(t, err)

	w := doJSON(t, s, http.MethodPost, "/api/conversations/"+conv.ID+"/message/stream", `{"content":"what is raft?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	frames := sseFrames(t, w.Body.String())
	types := make([]string, len(frames))
	for i, f := range frames {
		types[i] = f.Type
	}
	assert.Equal(t, []string{
		"stage1_start", "stage1_complete",
		"stage2_start", "stage2_complete",
		"stage3_start", "stage3_token", "stage3_complete",
		"title_complete", "complete",
	}, types)

	loaded, err := store.Get(conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Generated Title", loaded.Title)
	require.Len(t, loaded.Messages, 2)
}

func TestSendMessageStreamError(t *testing.T) {
	s, store := newTestServer(t, &fakeDeliberator{err: council.ErrAllBackendsFailed})
	conv, err := store.Create()
	require.NoError(t, err)

	w := doJSON(t, s, http.MethodPost, "/api/conversations/"+conv.ID+"/message/stream", `{"content":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code)

	frames := sseFrames(t, w.Body.String())
	require.NotEmpty(t, frames)
	last := frames[len(frames)-1]
	assert.Equal(t, "error", last.Type)
	assert.Contains(t, last.Message, "failed")
}
