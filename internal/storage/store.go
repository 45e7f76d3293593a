// Package storage persists conversations as JSON files, one file per
// conversation under {dataDir}/conversations/.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"council/internal/council"
)

// ErrNotFound is returned when a conversation ID has no stored file.
var ErrNotFound = errors.New("conversation not found")

// Message is one entry in a conversation. User messages carry Content;
// assistant messages carry the full three-stage deliberation record.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`

	Stage1    []council.ModelResponse  `json:"stage1,omitempty"`
	Stage2    []council.Evaluation     `json:"stage2,omitempty"`
	Stage3    *council.SynthesisResult `json:"stage3,omitempty"`
	LabelMap  map[string]string        `json:"label_to_model,omitempty"`
	Aggregate []council.AggregateEntry `json:"aggregate_rankings,omitempty"`
	Consensus *council.Consensus       `json:"consensus,omitempty"`
}

// Conversation is the stored record of one chat thread.
type Conversation struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
}

// Summary is the listing view of a conversation, without messages.
type Summary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
}

// Store reads and writes conversations under a data directory. It is
// safe for concurrent use within one process; writes go through a
// temp-file rename so a crash never leaves a half-written file.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// NewStore creates a Store rooted at dataDir, creating the
// conversations directory if needed.
func NewStore(dataDir string) (*Store, error) {
	dir := filepath.Join(dataDir, "conversations")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create conversations directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Create starts a new empty conversation with a generated ID and a
// placeholder title.
func (s *Store) Create() (*Conversation, error) {
	conv := &Conversation{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Title:     "New Conversation",
		Messages:  []Message{},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// Get loads a conversation by ID.
func (s *Store) Get(id string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(id)
}

// List returns summaries of every stored conversation, newest first.
func (s *Store) List() ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversations directory: %w", err)
	}

	summaries := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		conv, err := s.read(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			// A corrupt file should not hide the rest of the list.
			continue
		}
		summaries = append(summaries, Summary{
			ID:           conv.ID,
			CreatedAt:    conv.CreatedAt,
			Title:        conv.Title,
			MessageCount: len(conv.Messages),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// AddUserMessage appends a user message to a conversation.
func (s *Store) AddUserMessage(id, content string) error {
	return s.update(id, func(conv *Conversation) {
		conv.Messages = append(conv.Messages, Message{Role: "user", Content: content})
	})
}

// AddAssistantMessage appends the deliberation record as an assistant
// message.
func (s *Store) AddAssistantMessage(id string, result *council.DeliberationResult) error {
	return s.update(id, func(conv *Conversation) {
		consensus := result.Consensus
		synthesis := result.Synthesis
		conv.Messages = append(conv.Messages, Message{
			Role:      "assistant",
			Stage1:    result.Responses,
			Stage2:    result.Evaluations,
			Stage3:    &synthesis,
			LabelMap:  result.LabelMap,
			Aggregate: result.Aggregate,
			Consensus: &consensus,
		})
	})
}

// SetTitle replaces a conversation's title.
func (s *Store) SetTitle(id, title string) error {
	return s.update(id, func(conv *Conversation) {
		conv.Title = title
	})
}

func (s *Store) update(id string, mutate func(*Conversation)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.read(id)
	if err != nil {
		return err
	}
	mutate(conv)
	return s.write(conv)
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) read(id string) (*Conversation, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read conversation: %w", err)
	}

	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("corrupt conversation file %s: %w", id, err)
	}
	return &conv, nil
}

func (s *Store) write(conv *Conversation) error {
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}
	return atomicWriteFile(s.path(conv.ID), data, 0644)
}

// atomicWriteFile writes data to a file atomically by writing to a
// temporary file first, then renaming. The target file is never in a
// partially-written state.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Chmod(perm); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}
