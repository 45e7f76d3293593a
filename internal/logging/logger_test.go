package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func readLogLines(t *testing.T, path string) []map[string]any {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening log file: %v", err)
	}
	defer f.Close()

	var entries []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("malformed log line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger(t *testing.T) {
	t.Run("writes JSON lines to debug.log", func(t *testing.T) {
		dir := t.TempDir()

		logger, err := NewLogger(dir, LevelInfo)
		if err != nil {
			t.Fatalf("NewLogger: %v", err)
		}
		logger.Info("deliberation started", "participants", 3)
		if err := logger.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}

		entries := readLogLines(t, filepath.Join(dir, "debug.log"))
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		if entries[0]["msg"] != "deliberation started" {
			t.Errorf("msg = %v", entries[0]["msg"])
		}
		if entries[0]["participants"] != float64(3) {
			t.Errorf("participants = %v", entries[0]["participants"])
		}
	})

	t.Run("level filters lower severities", func(t *testing.T) {
		dir := t.TempDir()

		logger, err := NewLogger(dir, LevelWarn)
		if err != nil {
			t.Fatalf("NewLogger: %v", err)
		}
		logger.Info("dropped")
		logger.Warn("kept")
		logger.Close()

		entries := readLogLines(t, filepath.Join(dir, "debug.log"))
		if len(entries) != 1 || entries[0]["msg"] != "kept" {
			t.Fatalf("expected only the warn entry, got %v", entries)
		}
	})

	t.Run("child loggers inherit and extend attributes", func(t *testing.T) {
		dir := t.TempDir()

		logger, err := NewLogger(dir, LevelDebug)
		if err != nil {
			t.Fatalf("NewLogger: %v", err)
		}
		child := logger.WithDeliberation("conv-1").WithStage("stage2").WithBackend("openai/gpt-5.1")
		child.Debug("ranking requested")
		logger.Close()

		entries := readLogLines(t, filepath.Join(dir, "debug.log"))
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		e := entries[0]
		if e["deliberation_id"] != "conv-1" || e["stage"] != "stage2" || e["backend"] != "openai/gpt-5.1" {
			t.Errorf("missing inherited attributes: %v", e)
		}
	})

	t.Run("unknown level defaults to info", func(t *testing.T) {
		dir := t.TempDir()

		logger, err := NewLogger(dir, "chatty")
		if err != nil {
			t.Fatalf("NewLogger: %v", err)
		}
		logger.Debug("dropped")
		logger.Info("kept")
		logger.Close()

		entries := readLogLines(t, filepath.Join(dir, "debug.log"))
		if len(entries) != 1 || entries[0]["msg"] != "kept" {
			t.Fatalf("expected only the info entry, got %v", entries)
		}
	})

	t.Run("nop logger never writes", func(t *testing.T) {
		logger := NopLogger()
		logger.Info("discarded")
		if err := logger.Close(); err != nil {
			t.Fatalf("Close on nop logger: %v", err)
		}
	})
}
