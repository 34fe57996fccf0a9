// Package analysis asks a language model for a short payroll-impact review of
// a ticket. Calls are exposed as futures so a caller never blocks a state
// transition on the model.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/spec-kit/payroll-desk/internal/config"
	"github.com/spec-kit/payroll-desk/internal/domain"
)

// Messages shown in place of an analysis when the model cannot provide one.
const (
	MsgNotConfigured = "AI analysis is not configured. Set OPENAI_API_KEY to enable it."
	MsgUnavailable   = "Could not reach the AI assistant. Please try again."
	MsgEmpty         = "The AI assistant returned no analysis."
)

var (
	ErrNotConfigured = errors.New("analysis: not configured")
	ErrEmptyResponse = errors.New("analysis: empty response")
)

// Brief is the ticket content sent to the model.
type Brief struct {
	TicketID    string
	Title       string
	Type        domain.TicketType
	Description string
	Priority    domain.Priority
}

// BriefFor extracts the analysed fields of a ticket.
func BriefFor(t domain.Ticket) Brief {
	return Brief{
		TicketID:    t.ID,
		Title:       t.Title,
		Type:        t.Type,
		Description: t.Description,
		Priority:    t.Priority,
	}
}

// Analyzer produces free-form markdown about a ticket.
type Analyzer interface {
	Analyze(ctx context.Context, brief Brief) (string, error)
}

// Disabled is the analyzer used when no model is configured.
type Disabled struct{}

func (Disabled) Analyze(context.Context, Brief) (string, error) {
	return "", ErrNotConfigured
}

// OpenAIAnalyzer calls the chat completions API.
type OpenAIAnalyzer struct {
	client    *openai.Client
	model     string
	temp      float32
	maxTokens int
	logger    *zap.Logger
}

// New returns an OpenAIAnalyzer when cfg enables one, Disabled otherwise.
func New(cfg config.AIConfig, logger *zap.Logger) Analyzer {
	if !cfg.Active() {
		return Disabled{}
	}
	return NewOpenAIAnalyzer(cfg, logger)
}

// NewOpenAIAnalyzer builds the client. A non-empty BaseURL points it at a
// compatible gateway.
func NewOpenAIAnalyzer(cfg config.AIConfig, logger *zap.Logger) *OpenAIAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIAnalyzer{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		temp:      cfg.Temperature,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}
}

func (a *OpenAIAnalyzer) Analyze(ctx context.Context, brief Brief) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: a.temp,
		MaxTokens:   a.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a senior payroll and HR operations specialist. Keep the tone professional and direct.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(brief),
			},
		},
	}

	a.logger.Debug("requesting ticket analysis",
		zap.String("ticket_id", brief.TicketID),
		zap.String("model", a.model))

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

func buildPrompt(b Brief) string {
	return fmt.Sprintf(`Analyse the following ticket raised in the payroll system.

Title: %s
Type: %s
Description: %s
Reported priority: %s

Reply in concise Markdown with these sections:
1. **Problem Summary**: a short synthesis.
2. **Payroll Impact**: does it affect tax calculation, net pay or accounting?
3. **Suggested Documentation**: which files are usually needed for this case?
4. **Recommended Action**: immediate steps for the payroll analyst.`,
		b.Title, b.Type.Label(), b.Description, b.Priority)
}
