// Package extract turns free-text doctor notes into structured step
// payloads through the OpenAI chat completion API.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/carebridge/carebridge/internal/domain/steps"
)

const extractionTemperature = 0.3

// ChatCompleter is the slice of the OpenAI client the extractor uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config holds extractor settings.
type Config struct {
	APIKey string
	Model  string
	// RequestsPerMinute caps outbound API calls. Zero disables the
	// limiter.
	RequestsPerMinute int
}

// Client extracts actionable steps from note content.
type Client struct {
	llm     ChatCompleter
	model   string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates an extractor backed by the OpenAI API.
func New(cfg Config, logger *slog.Logger) *Client {
	return NewWithCompleter(openai.NewClient(cfg.APIKey), cfg, logger)
}

// NewWithCompleter creates an extractor with a caller-supplied
// completion client.
func NewWithCompleter(llm ChatCompleter, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return &Client{
		llm:     llm,
		model:   model,
		limiter: limiter,
		logger:  logger,
	}
}

// Extract asks the model for the checklist and plan hidden in a note.
// The patient id is stamped onto every plan item regardless of what
// the model returned.
func (c *Client) Extract(ctx context.Context, noteContent, patientID string) (*steps.Payload, error) {
	if strings.TrimSpace(noteContent) == "" {
		return nil, ErrEmptyNote
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	resp, err := c.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: extractionTemperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Extract actionable steps from this doctor's note:\n" + noteContent},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no completion choices", ErrBadPayload)
	}

	payload, err := parsePayload([]byte(resp.Choices[0].Message.Content), patientID)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("extracted actionable steps",
		"checklist", len(payload.Checklist), "plan", len(payload.Plan))
	return payload, nil
}
