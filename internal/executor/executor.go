package executor

import (
	"context"
	"errors"

	"github.com/A-zanke/pharmachat/internal/models"
)

// ErrRejected marks a command the storage layer refused (unknown
// medicine, empty order). The dialogue engine surfaces it as a
// retryable failure and keeps the session slots intact.
var ErrRejected = errors.New("command rejected")

// Executor performs the side effects the dialogue engine emits as
// data. The engine only learns success or failure, never persistence
// details.
type Executor interface {
	Execute(ctx context.Context, cmd models.Command) (*models.Ack, error)
}
