package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/A-zanke/pharmachat/internal/models"
	"github.com/A-zanke/pharmachat/internal/prompts"
)

var validIntents = map[string]bool{
	models.IntentOrder:          true,
	models.IntentSearch:         true,
	models.IntentInquiry:        true,
	models.IntentAddStock:       true,
	models.IntentRemoveMedicine: true,
}

var validActions = map[string]bool{
	models.ActionCheckStock: true,
	models.ActionAddStock:   true,
	models.ActionOrder:      true,
	models.ActionRemove:     true,
	models.ActionOther:      true,
}

// ParseClassifiedTurn extracts and validates a ClassifiedTurn from a
// raw model reply. Unknown intents and actions are coerced to their
// neutral values rather than rejected; the dialogue engine treats the
// result as untrusted either way.
func ParseClassifiedTurn(content string) (*models.ClassifiedTurn, error) {
	jsonContent := prompts.ExtractJSON(content)
	if jsonContent == "" {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrMalformedResponse)
	}

	var turn models.ClassifiedTurn
	if err := json.Unmarshal([]byte(jsonContent), &turn); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	turn.Intent = strings.ToLower(strings.TrimSpace(turn.Intent))
	turn.Action = strings.ToLower(strings.TrimSpace(turn.Action))
	if !validIntents[turn.Intent] {
		turn.Intent = models.IntentInquiry
	}
	if !validActions[turn.Action] {
		turn.Action = models.ActionOther
	}
	if turn.Language == "" {
		turn.Language = "en"
	}

	// Drop mentions without a usable name.
	mentions := turn.Medicines[:0]
	for _, m := range turn.Medicines {
		m.Name = strings.TrimSpace(m.Name)
		if m.Name == "" {
			continue
		}
		if m.Quantity != nil && *m.Quantity <= 0 {
			m.Quantity = nil
		}
		mentions = append(mentions, m)
	}
	turn.Medicines = mentions

	return &turn, nil
}
