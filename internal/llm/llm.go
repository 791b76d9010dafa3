package llm

import (
	"context"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xaenox/inbox-sentry/internal/models"
	"github.com/xaenox/inbox-sentry/pkg/config"
)

// Classifier decides which inbox messages matter and what the user wants.
type Classifier interface {
	// ClassifyImportance returns nil for unimportant text. A nil result with
	// a nil error is the normal "skip this one" answer; errors only surface
	// when every retry and the heuristic fallback failed to produce a verdict.
	ClassifyImportance(ctx context.Context, text string) (*models.Analysis, error)
	// ClassifyIntent never fails: any trouble yields IntentQuestion.
	ClassifyIntent(ctx context.Context, text string) models.Intent
}

// Assistant generates reply drafts and answers questions about an item.
type Assistant interface {
	DraftReply(ctx context.Context, originalBody, instruction string) (string, error)
	AnswerQuestion(ctx context.Context, originalBody, question string) (string, error)
}

// Client implements Classifier and Assistant over any OpenAI-compatible chat
// completion endpoint (Groq by default).
type Client struct {
	api         *openai.Client
	model       string
	intentModel string
	maxTokens   int
	temperature float32
	retries     int
	retryDelay  time.Duration
	logger      *zap.Logger
}

func NewClient(cfg config.LLMConfig, logger *zap.Logger) *Client {
	apiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiConfig.BaseURL = cfg.BaseURL
	}

	intentModel := cfg.IntentModel
	if intentModel == "" {
		intentModel = cfg.Model
	}

	return &Client{
		api:         openai.NewClientWithConfig(apiConfig),
		model:       cfg.Model,
		intentModel: intentModel,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
		retries:     cfg.Retries,
		retryDelay:  cfg.RetryDelay,
		logger:      logger,
	}
}

func (c *Client) complete(ctx context.Context, model, system, user string, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
