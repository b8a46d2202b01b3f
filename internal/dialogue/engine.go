package dialogue

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/A-zanke/pharmachat/internal/catalog"
	"github.com/A-zanke/pharmachat/internal/classifier"
	"github.com/A-zanke/pharmachat/internal/executor"
	"github.com/A-zanke/pharmachat/internal/match"
	"github.com/A-zanke/pharmachat/internal/models"
	"github.com/A-zanke/pharmachat/internal/prompts"
	"github.com/A-zanke/pharmachat/internal/session"
)

// Engine drives one turn end to end: serialize per session, load
// state, classify when the mode needs free-text intent, run the pure
// transition, execute emitted commands, then commit the next state
// atomically. Commands failing downstream leave the stored state as
// it was, so the user can retry the terminal step.
type Engine struct {
	sessions   session.Store
	locker     *session.Locker
	catalog    catalog.Store
	classifier classifier.Provider
	executor   executor.Executor
	logger     *zap.Logger
}

func NewEngine(sessions session.Store, cat catalog.Store, cls classifier.Provider, exec executor.Executor, logger *zap.Logger) *Engine {
	return &Engine{
		sessions:   sessions,
		locker:     session.NewLocker(),
		catalog:    cat,
		classifier: cls,
		executor:   exec,
		logger:     logger,
	}
}

func (e *Engine) HandleTurn(ctx context.Context, req *models.TurnRequest) (*models.TurnResponse, error) {
	if err := validateRequest(req); err != nil {
		return errorResponse(req, models.ErrorParseError, err.Error()), nil
	}

	unlock := e.locker.Lock(req.SessionID)
	defer unlock()

	state, err := e.sessions.Get(ctx, req.SessionID)
	if errors.Is(err, session.ErrNotFound) {
		state = session.New(req.SessionID, req.UserID)
	} else if err != nil {
		return nil, fmt.Errorf("load session %s: %w", req.SessionID, err)
	}

	// Classify only where free-text intent matters; numeric wizard
	// slots parse the raw utterance, so wizard progress survives
	// classifier outages.
	var classified *models.ClassifiedTurn
	var classifyErr error
	if needsClassifier(state.Mode) {
		classified, classifyErr = e.classifier.Classify(ctx, req.Utterance, state.History)
		if classifyErr != nil {
			e.logger.Warn("classification degraded to fallback",
				zap.String("session_id", req.SessionID),
				zap.Error(classifyErr))
		}
	}

	items, err := e.catalog.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	resolve := func(name string) match.Result {
		return match.Match(name, items)
	}

	outcome := Transition(state, Input{
		Utterance:  req.Utterance,
		Classified: classified,
		UserID:     req.UserID,
	}, resolve)

	reply := outcome.Reply
	commit := outcome.Next
	var issued []models.Command
	var errorCode, errorMessage *string

	for _, cmd := range outcome.Commands {
		ack, execErr := e.executor.Execute(ctx, cmd)
		if execErr != nil {
			e.logger.Error("command execution failed",
				zap.String("session_id", req.SessionID),
				zap.String("command", cmd.Kind),
				zap.Error(execErr))
			// Keep the prior state so the terminal step can be
			// retried without redoing the whole flow.
			commit = state.Clone()
			reply = executionFailureReply(cmd.Kind)
			issued = nil
			errorCode = strPtr(models.ErrorExecutionFailed)
			errorMessage = strPtr(execErr.Error())
			break
		}
		issued = append(issued, cmd)
		if cmd.Kind == models.CommandCreateOrder {
			reply = replyOrderPlaced(ack.OrderID)
		}
	}

	if classifyErr != nil && state.Mode == session.ModeIdle {
		errorCode = strPtr(models.ErrorClassifierFailed)
	}

	commit.AppendTurn(models.RoleUser, req.Utterance)
	commit.AppendTurn(models.RoleAssistant, reply)

	if err := e.sessions.Put(ctx, commit); err != nil {
		return nil, fmt.Errorf("save session %s: %w", req.SessionID, err)
	}

	return &models.TurnResponse{
		SessionID:      req.SessionID,
		Reply:          reply,
		Mode:           string(commit.Mode),
		CommandsIssued: issued,
		ErrorCode:      errorCode,
		ErrorMessage:   errorMessage,
	}, nil
}

// ClearSession drops a conversation, used for an explicit "new chat".
func (e *Engine) ClearSession(ctx context.Context, sessionID string) error {
	unlock := e.locker.Lock(sessionID)
	defer unlock()
	return e.sessions.Delete(ctx, sessionID)
}

// SessionsForUser lists a user's stored conversations.
func (e *Engine) SessionsForUser(ctx context.Context, userID string) ([]*session.State, error) {
	return e.sessions.ListForUser(ctx, userID)
}

func needsClassifier(mode session.Mode) bool {
	switch mode {
	case session.ModeIdle, session.ModeConfirmingAddMore, session.ModeAwaitingOrderConfirmation:
		return true
	}
	return false
}

func validateRequest(req *models.TurnRequest) error {
	if req.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	if req.Utterance == "" {
		return fmt.Errorf("utterance is required")
	}
	return nil
}

func executionFailureReply(kind string) string {
	switch kind {
	case models.CommandCreateOrder:
		return replyOrderFailed
	case models.CommandMutateStock:
		return replyStockFailed
	case models.CommandRemoveMedicine:
		return replyRemoveFailed
	}
	return prompts.FallbackReply
}

func errorResponse(req *models.TurnRequest, code, message string) *models.TurnResponse {
	return &models.TurnResponse{
		SessionID:    req.SessionID,
		Reply:        prompts.FallbackReply,
		Mode:         string(session.ModeIdle),
		ErrorCode:    strPtr(code),
		ErrorMessage: strPtr(message),
	}
}

func strPtr(s string) *string {
	return &s
}
