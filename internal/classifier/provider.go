package classifier

import (
	"context"
	"errors"

	"github.com/A-zanke/pharmachat/internal/models"
)

// Sentinels distinguishing the two ways a classification can fail.
// Both are recoverable: the dialogue engine degrades to a re-prompt.
var (
	// ErrUnavailable wraps backend call errors and timeouts.
	ErrUnavailable = errors.New("classifier unavailable")

	// ErrMalformedResponse wraps replies that cannot be parsed into a
	// ClassifiedTurn.
	ErrMalformedResponse = errors.New("malformed classifier response")
)

// Provider turns a raw utterance plus conversation history into a
// canonical ClassifiedTurn. Implementations wrap one LLM backend; the
// dialogue engine never knows which one answered.
type Provider interface {
	Classify(ctx context.Context, utterance string, history []models.Turn) (*models.ClassifiedTurn, error)
}
