package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicClient struct {
	client      *anthropic.Client
	model       anthropic.Model
	maxTokens   int
	temperature float64
}

func newAnthropicClient(cfg Config) *anthropicClient {
	client := anthropic.NewClient(option.WithAPIKey(cfg.AnthropicKey))
	return &anthropicClient{
		client:      &client,
		model:       anthropic.Model(cfg.AnthropicModel),
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (c *anthropicClient) Provider() string { return ProviderAnthropic }
func (c *anthropicClient) Model() string    { return string(c.model) }

func (c *anthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	msgs := make([]anthropic.MessageParam, 0, len(req.History)+1)
	for _, m := range req.History {
		if m.Role == RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)))

	temp := c.temperature
	if req.Temperature > 0 {
		temp = req.Temperature
	}
	params := anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   int64(maxTokens(req, c.maxTokens)),
		Messages:    msgs,
		Temperature: anthropic.Float(temp),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("no response from anthropic")
	}
	var sb strings.Builder
	for _, block := range resp.Content {
		sb.WriteString(block.Text)
	}
	return sb.String(), nil
}
