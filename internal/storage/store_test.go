package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"council/internal/council"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestStoreCreateAndGet(t *testing.T) {
	store := newTestStore(t)

	conv, err := store.Create()
	require.NoError(t, err)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, "New Conversation", conv.Title)
	assert.Empty(t, conv.Messages)

	loaded, err := store.Get(conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, loaded.ID)
	assert.WithinDuration(t, conv.CreatedAt, loaded.CreatedAt, time.Second)
}

func TestStoreGetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get("no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreMessages(t *testing.T) {
	store := newTestStore(t)
	conv, err := store.Create()
	require.NoError(t, err)

	require.NoError(t, store.AddUserMessage(conv.ID, "what is raft?"))

	result := &council.DeliberationResult{
		Responses: []council.ModelResponse{
			{Backend: "m1", Content: "answer one"},
			{Backend: "m2", Content: "answer two"},
		},
		Evaluations: []council.Evaluation{
			{Evaluator: "m1", Raw: "FINAL RANKING:\n1. Response B", Ranking: []council.Label{"Response B"}},
		},
		Synthesis: council.SynthesisResult{Chairman: "m2", Content: "final", Complete: true},
		LabelMap:  map[string]string{"Response A": "m1", "Response B": "m2"},
		Aggregate: []council.AggregateEntry{{Backend: "m2", AverageRank: 1, Votes: 1, FirstPlace: 1}},
		Consensus: council.Consensus{Reached: true, TopBackend: "m2", Share: 1},
	}
	require.NoError(t, store.AddAssistantMessage(conv.ID, result))

	loaded, err := store.Get(conv.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 2)

	user := loaded.Messages[0]
	assert.Equal(t, "user", user.Role)
	assert.Equal(t, "what is raft?", user.Content)

	assistant := loaded.Messages[1]
	assert.Equal(t, "assistant", assistant.Role)
	require.Len(t, assistant.Stage1, 2)
	assert.Equal(t, "final", assistant.Stage3.Content)
	assert.Equal(t, "m2", assistant.LabelMap["Response B"])
	require.NotNil(t, assistant.Consensus)
	assert.True(t, assistant.Consensus.Reached)
}

func TestStoreMessageToMissingConversation(t *testing.T) {
	store := newTestStore(t)

	err := store.AddUserMessage("no-such-id", "hello")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreSetTitle(t *testing.T) {
	store := newTestStore(t)
	conv, err := store.Create()
	require.NoError(t, err)

	require.NoError(t, store.SetTitle(conv.ID, "Raft Overview"))

	loaded, err := store.Get(conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Raft Overview", loaded.Title)
}

func TestStoreList(t *testing.T) {
	store := newTestStore(t)

	first, err := store.Create()
	require.NoError(t, err)
	second, err := store.Create()
	require.NoError(t, err)
	require.NoError(t, store.AddUserMessage(second.ID, "hi"))

	summaries, err := store.List()
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byID := map[string]Summary{}
	for _, s := range summaries {
		byID[s.ID] = s
	}
	assert.Equal(t, 0, byID[first.ID].MessageCount)
	assert.Equal(t, 1, byID[second.ID].MessageCount)

	// Newest first.
	assert.False(t, summaries[0].CreatedAt.Before(summaries[1].CreatedAt))
}

func TestStoreListSkipsCorruptFiles(t *testing.T) {
	dataDir := t.TempDir()
	store, err := NewStore(dataDir)
	require.NoError(t, err)

	conv, err := store.Create()
	require.NoError(t, err)

	corrupt := filepath.Join(dataDir, "conversations", "broken.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("not json{"), 0644))

	summaries, err := store.List()
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, conv.ID, summaries[0].ID)
}
