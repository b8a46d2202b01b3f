package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"

	"github.com/A-zanke/pharmachat/internal/models"
	"github.com/A-zanke/pharmachat/internal/prompts"
)

// LLMClassifier adapts any langchaingo chat model into a Provider.
// Gemini and Groq are the two wired backends; both produce the same
// canonical ClassifiedTurn so the dialogue engine cannot tell them
// apart.
type LLMClassifier struct {
	model   llms.Model
	name    string
	timeout time.Duration
	logger  *zap.Logger
}

// NewGemini builds a Gemini-backed classifier.
func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration, logger *zap.Logger) (*LLMClassifier, error) {
	m, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	return &LLMClassifier{model: m, name: "gemini", timeout: timeout, logger: logger}, nil
}

// NewGroq builds a Groq-backed classifier via Groq's OpenAI-compatible
// endpoint.
func NewGroq(apiKey, model, baseURL string, timeout time.Duration, logger *zap.Logger) (*LLMClassifier, error) {
	m, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
		openai.WithBaseURL(baseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("init groq client: %w", err)
	}
	return &LLMClassifier{model: m, name: "groq", timeout: timeout, logger: logger}, nil
}

func (c *LLMClassifier) Classify(ctx context.Context, utterance string, history []models.Turn) (*models.ClassifiedTurn, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, prompts.SystemPrompt),
	}
	messages = append(messages, NormalizeHistory(history)...)
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, prompts.BuildUserPrompt(utterance)))

	resp, err := c.model.GenerateContent(ctx, messages,
		llms.WithTemperature(0.1),
		llms.WithMaxTokens(512),
	)
	if err != nil {
		c.logger.Warn("classifier backend call failed",
			zap.String("backend", c.name),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}

	turn, err := ParseClassifiedTurn(resp.Choices[0].Content)
	if err != nil {
		c.logger.Warn("classifier reply unparseable",
			zap.String("backend", c.name),
			zap.Error(err))
		return nil, err
	}
	return turn, nil
}
