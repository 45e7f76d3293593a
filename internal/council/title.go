package council

import (
	"context"
	"strings"
)

const (
	fallbackTitle = "New Conversation"
	maxTitleLen   = 50
)

// GenerateTitle produces a short display title for a conversation from
// its first user message. Backend failures fall back to a generic
// title rather than an error; a title is cosmetic.
func GenerateTitle(ctx context.Context, client Client, backend, query string) string {
	resp := client.Generate(ctx, backend, []Message{
		{Role: RoleUser, Content: buildTitlePrompt(query)},
	})
	if !resp.Usable() {
		return fallbackTitle
	}
	return cleanTitle(resp.Content)
}

func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	title = strings.Trim(title, `"'`)
	if title == "" {
		return fallbackTitle
	}
	if runes := []rune(title); len(runes) > maxTitleLen {
		title = string(runes[:maxTitleLen-3]) + "..."
	}
	return title
}
