package classifier

import (
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/A-zanke/pharmachat/internal/models"
)

// NormalizeHistory prepares conversation history for a chat backend:
// the sequence must start with a user turn, and consecutive turns of
// the same role are merged into one, because several backends reject
// non-alternating role sequences.
func NormalizeHistory(history []models.Turn) []llms.MessageContent {
	// Drop the leading assistant-only prefix.
	start := 0
	for start < len(history) && history[start].Role != models.RoleUser {
		start++
	}

	var out []llms.MessageContent
	var pendingRole string
	var pendingText []string

	flush := func() {
		if pendingRole == "" || len(pendingText) == 0 {
			return
		}
		role := schema.ChatMessageTypeHuman
		if pendingRole == models.RoleAssistant {
			role = schema.ChatMessageTypeAI
		}
		out = append(out, llms.TextParts(role, strings.Join(pendingText, "\n")))
		pendingText = nil
	}

	for _, turn := range history[start:] {
		if turn.Role != models.RoleUser && turn.Role != models.RoleAssistant {
			continue
		}
		if turn.Role != pendingRole {
			flush()
			pendingRole = turn.Role
		}
		pendingText = append(pendingText, turn.Text)
	}
	flush()

	return out
}
