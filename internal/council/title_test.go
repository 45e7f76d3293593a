package council

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"
)

type titleClient struct {
	resp ModelResponse
}

func (c *titleClient) Generate(ctx context.Context, backend string, messages []Message) ModelResponse {
	c.resp.Backend = backend
	return c.resp
}

func (c *titleClient) GenerateStream(ctx context.Context, backend string, messages []Message, onToken func(string)) ModelResponse {
	return c.Generate(ctx, backend, messages)
}

func TestGenerateTitle(t *testing.T) {
	ctx := context.Background()

	t.Run("strips whitespace and quotes", func(t *testing.T) {
		client := &titleClient{resp: ok("  \"Caching Strategy Basics\"  ")}
		got := GenerateTitle(ctx, client, "m1", "what caching strategy?")
		if got != "Caching Strategy Basics" {
			t.Errorf("title = %q", got)
		}
	})

	t.Run("truncates long titles", func(t *testing.T) {
		client := &titleClient{resp: ok(strings.Repeat("x", 80))}
		got := GenerateTitle(ctx, client, "m1", "q")
		if len(got) != 50 || !strings.HasSuffix(got, "...") {
			t.Errorf("title = %q (len %d)", got, len(got))
		}
	})

	t.Run("truncates multi-byte titles on rune boundaries", func(t *testing.T) {
		client := &titleClient{resp: ok(strings.Repeat("日", 80))}
		got := GenerateTitle(ctx, client, "m1", "q")
		if !utf8.ValidString(got) {
			t.Fatalf("title is not valid UTF-8: %q", got)
		}
		if n := utf8.RuneCountInString(got); n != 50 || !strings.HasSuffix(got, "...") {
			t.Errorf("title = %q (%d runes)", got, n)
		}
	})

	t.Run("falls back on backend failure", func(t *testing.T) {
		client := &titleClient{resp: ModelResponse{Failed: true}}
		if got := GenerateTitle(ctx, client, "m1", "q"); got != "New Conversation" {
			t.Errorf("title = %q", got)
		}
	})

	t.Run("falls back on empty cleaned title", func(t *testing.T) {
		client := &titleClient{resp: ok("\"\"")}
		if got := GenerateTitle(ctx, client, "m1", "q"); got != "New Conversation" {
			t.Errorf("title = %q", got)
		}
	})
}
