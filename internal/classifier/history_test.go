package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/A-zanke/pharmachat/internal/models"
)

func turn(role, text string) models.Turn {
	return models.Turn{Role: role, Text: text}
}

func textOf(mc llms.MessageContent) string {
	var out string
	for _, part := range mc.Parts {
		if t, ok := part.(llms.TextContent); ok {
			out += t.Text
		}
	}
	return out
}

func TestNormalizeHistoryDropsLeadingAssistant(t *testing.T) {
	history := []models.Turn{
		turn(models.RoleAssistant, "Welcome!"),
		turn(models.RoleAssistant, "How can I help?"),
		turn(models.RoleUser, "Dolo hai kya?"),
		turn(models.RoleAssistant, "In stock."),
	}

	out := NormalizeHistory(history)
	require.Len(t, out, 2)
	assert.Equal(t, schema.ChatMessageTypeHuman, out[0].Role)
	assert.Equal(t, "Dolo hai kya?", textOf(out[0]))
	assert.Equal(t, schema.ChatMessageTypeAI, out[1].Role)
}

func TestNormalizeHistoryMergesConsecutiveRoles(t *testing.T) {
	history := []models.Turn{
		turn(models.RoleUser, "Dolo"),
		turn(models.RoleUser, "650"),
		turn(models.RoleAssistant, "Found it."),
		turn(models.RoleAssistant, "150 tablets in stock."),
		turn(models.RoleUser, "order 2"),
	}

	out := NormalizeHistory(history)
	require.Len(t, out, 3)
	assert.Equal(t, "Dolo\n650", textOf(out[0]))
	assert.Equal(t, "Found it.\n150 tablets in stock.", textOf(out[1]))
	assert.Equal(t, "order 2", textOf(out[2]))
}

func TestNormalizeHistorySkipsUnknownRoles(t *testing.T) {
	history := []models.Turn{
		turn(models.RoleUser, "hi"),
		turn("system", "internal marker"),
		turn(models.RoleUser, "there"),
	}

	out := NormalizeHistory(history)
	require.Len(t, out, 1)
	assert.Equal(t, "hi\nthere", textOf(out[0]))
}

func TestNormalizeHistoryEmptyAndAssistantOnly(t *testing.T) {
	assert.Empty(t, NormalizeHistory(nil))
	assert.Empty(t, NormalizeHistory([]models.Turn{turn(models.RoleAssistant, "hello")}))
}
