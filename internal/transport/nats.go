package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/A-zanke/pharmachat/internal/config"
	"github.com/A-zanke/pharmachat/internal/dialogue"
	"github.com/A-zanke/pharmachat/internal/models"
)

// NATSTransport exposes the dialogue engine over NATS request/reply:
// one subject for turns, one for clearing a session ("new chat").
type NATSTransport struct {
	conn   *nats.Conn
	config *config.Config
	engine *dialogue.Engine
	logger *zap.Logger
}

func NewNATSTransport(cfg *config.Config, engine *dialogue.Engine, logger *zap.Logger) (*NATSTransport, error) {
	conn, err := nats.Connect(cfg.NatsURL,
		nats.Name(cfg.ServiceName),
		nats.Timeout(cfg.NatsTimeout),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("connected to NATS", zap.String("url", cfg.NatsURL))

	return &NATSTransport{
		conn:   conn,
		config: cfg,
		engine: engine,
		logger: logger,
	}, nil
}

func (nt *NATSTransport) Start() error {
	if _, err := nt.conn.Subscribe(nt.config.NatsTurnSubject, nt.handleTurn); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", nt.config.NatsTurnSubject, err)
	}
	if _, err := nt.conn.Subscribe(nt.config.NatsClearSubject, nt.handleClear); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", nt.config.NatsClearSubject, err)
	}
	if _, err := nt.conn.Subscribe(nt.config.NatsSessionsSubject, nt.handleListSessions); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", nt.config.NatsSessionsSubject, err)
	}

	nt.logger.Info("subscribed",
		zap.String("turn_subject", nt.config.NatsTurnSubject),
		zap.String("clear_subject", nt.config.NatsClearSubject))
	return nil
}

func (nt *NATSTransport) handleTurn(msg *nats.Msg) {
	var request models.TurnRequest
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		nt.logger.Error("error parsing turn request", zap.Error(err))
		nt.sendErrorResponse(msg, &request, models.ErrorParseError, "Invalid request format")
		return
	}

	nt.logger.Debug("processing turn",
		zap.String("session_id", request.SessionID))

	ctx, cancel := context.WithTimeout(context.Background(), nt.config.NatsTimeout)
	defer cancel()

	response, err := nt.engine.HandleTurn(ctx, &request)
	if err != nil {
		nt.logger.Error("error handling turn",
			zap.String("session_id", request.SessionID),
			zap.Error(err))
		nt.sendErrorResponse(msg, &request, models.ErrorExecutionFailed, err.Error())
		return
	}

	if err := nt.sendResponse(msg, response); err != nil {
		nt.logger.Error("error sending response", zap.Error(err))
	}
}

type clearRequest struct {
	SessionID string `json:"session_id"`
}

type clearResponse struct {
	SessionID string `json:"session_id"`
	Cleared   bool   `json:"cleared"`
	Error     string `json:"error,omitempty"`
}

func (nt *NATSTransport) handleClear(msg *nats.Msg) {
	var request clearRequest
	if err := json.Unmarshal(msg.Data, &request); err != nil || request.SessionID == "" {
		nt.respondJSON(msg, clearResponse{Error: "session_id is required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), nt.config.NatsTimeout)
	defer cancel()

	if err := nt.engine.ClearSession(ctx, request.SessionID); err != nil {
		nt.logger.Error("error clearing session",
			zap.String("session_id", request.SessionID),
			zap.Error(err))
		nt.respondJSON(msg, clearResponse{SessionID: request.SessionID, Error: err.Error()})
		return
	}

	nt.respondJSON(msg, clearResponse{SessionID: request.SessionID, Cleared: true})
}

type listSessionsRequest struct {
	UserID string `json:"user_id"`
}

type sessionSummary struct {
	SessionID    string `json:"session_id"`
	Mode         string `json:"mode"`
	Turns        int    `json:"turns"`
	StartedAt    string `json:"started_at"`
	LastActivity string `json:"last_activity"`
}

type listSessionsResponse struct {
	UserID   string           `json:"user_id"`
	Sessions []sessionSummary `json:"sessions"`
	Error    string           `json:"error,omitempty"`
}

func (nt *NATSTransport) handleListSessions(msg *nats.Msg) {
	var request listSessionsRequest
	if err := json.Unmarshal(msg.Data, &request); err != nil || request.UserID == "" {
		nt.respondJSON(msg, listSessionsResponse{Error: "user_id is required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), nt.config.NatsTimeout)
	defer cancel()

	states, err := nt.engine.SessionsForUser(ctx, request.UserID)
	if err != nil {
		nt.logger.Error("error listing sessions",
			zap.String("user_id", request.UserID),
			zap.Error(err))
		nt.respondJSON(msg, listSessionsResponse{UserID: request.UserID, Error: err.Error()})
		return
	}

	summaries := make([]sessionSummary, 0, len(states))
	for _, state := range states {
		summaries = append(summaries, sessionSummary{
			SessionID:    state.SessionID,
			Mode:         string(state.Mode),
			Turns:        len(state.History),
			StartedAt:    state.StartedAt.Format(time.RFC3339),
			LastActivity: state.LastActivity.Format(time.RFC3339),
		})
	}
	nt.respondJSON(msg, listSessionsResponse{UserID: request.UserID, Sessions: summaries})
}

func (nt *NATSTransport) sendResponse(msg *nats.Msg, response *models.TurnResponse) error {
	responseData, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if err := msg.Respond(responseData); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	nt.logger.Debug("response sent",
		zap.String("session_id", response.SessionID),
		zap.String("mode", response.Mode))
	return nil
}

func (nt *NATSTransport) sendErrorResponse(msg *nats.Msg, request *models.TurnRequest, errorCode, errorMessage string) {
	response := &models.TurnResponse{
		SessionID:    request.SessionID,
		Reply:        "I'm sorry, I encountered an error processing your request. Please try again.",
		ErrorCode:    &errorCode,
		ErrorMessage: &errorMessage,
	}

	if err := nt.sendResponse(msg, response); err != nil {
		nt.logger.Error("failed to send error response", zap.Error(err))
	}
}

func (nt *NATSTransport) respondJSON(msg *nats.Msg, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		nt.logger.Error("failed to marshal response", zap.Error(err))
		return
	}
	if err := msg.Respond(data); err != nil {
		nt.logger.Error("failed to respond", zap.Error(err))
	}
}

func (nt *NATSTransport) Close() error {
	if nt.conn != nil {
		nt.conn.Close()
		nt.logger.Info("NATS connection closed")
	}
	return nil
}
