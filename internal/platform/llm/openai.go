package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openAIClient struct {
	client      *openai.Client
	model       openai.ChatModel
	maxTokens   int
	temperature float64
}

func newOpenAIClient(cfg Config) *openAIClient {
	client := openai.NewClient(option.WithAPIKey(cfg.OpenAIKey))
	return &openAIClient{
		client:      &client,
		model:       openai.ChatModel(cfg.OpenAIModel),
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (c *openAIClient) Provider() string { return ProviderOpenAI }
func (c *openAIClient) Model() string    { return string(c.model) }

func (c *openAIClient) Complete(ctx context.Context, req Request) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, m := range req.History {
		if m.Role == RoleAssistant {
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		} else {
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	msgs = append(msgs, openai.UserMessage(req.User))

	temp := c.temperature
	if req.Temperature > 0 {
		temp = req.Temperature
	}
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               c.model,
		Messages:            msgs,
		MaxCompletionTokens: openai.Int(int64(maxTokens(req, c.maxTokens))),
		Temperature:         openai.Float(temp),
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}
