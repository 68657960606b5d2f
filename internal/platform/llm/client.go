package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/simpliearn/simpliearn-backend/internal/observability"
	"github.com/simpliearn/simpliearn-backend/internal/platform/envutil"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

type Request struct {
	System      string
	History     []Message
	User        string
	MaxTokens   int
	Temperature float64
}

// Client is the provider-neutral chat completion surface used by chat and summary.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	Provider() string
	Model() string
}

type Config struct {
	Provider        string
	OpenAIKey       string
	OpenAIModel     string
	AnthropicKey    string
	AnthropicModel  string
	MaxTokens       int
	Temperature     float64
	TimeoutDuration time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		Provider:        strings.ToLower(envutil.String("LLM_PROVIDER", ProviderOpenAI)),
		OpenAIKey:       envutil.String("OPENAI_API_KEY", ""),
		OpenAIModel:     envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicKey:    envutil.String("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envutil.String("ANTHROPIC_MODEL", "claude-haiku-4-5"),
		MaxTokens:       envutil.Int("LLM_MAX_TOKENS", 1024),
		Temperature:     0.3,
		TimeoutDuration: time.Duration(envutil.Int("LLM_TIMEOUT_SECONDS", 60)) * time.Second,
	}
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	var base Client
	switch cfg.Provider {
	case "", ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("missing OPENAI_API_KEY")
		}
		base = newOpenAIClient(cfg)
	case ProviderAnthropic:
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("missing ANTHROPIC_API_KEY")
		}
		base = newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q (allowed: %s, %s)", cfg.Provider, ProviderOpenAI, ProviderAnthropic)
	}
	log.With("service", "LLMClient").Info("LLM client initialized", "provider", base.Provider(), "model", base.Model())
	return &instrumented{Client: base, timeout: cfg.TimeoutDuration, log: log.With("service", "LLMClient")}, nil
}

type instrumented struct {
	Client
	timeout time.Duration
	log     *logger.Logger
}

func (c *instrumented) Complete(ctx context.Context, req Request) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	start := time.Now()
	out, err := c.Client.Complete(ctx, req)
	dur := time.Since(start)
	observability.Current().ObserveLLMRequest(c.Provider(), c.Model(), err, dur)
	if err != nil {
		c.log.Warn("LLM request failed", "provider", c.Provider(), "model", c.Model(), "error", err, "elapsed", dur.String())
		return "", err
	}
	c.log.Debug("LLM request finished", "provider", c.Provider(), "model", c.Model(), "chars", len(out), "elapsed", dur.String())
	return out, nil
}

func maxTokens(req Request, def int) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if def > 0 {
		return def
	}
	return 1024
}

// CleanJSONObject strips code fences and prose around a JSON object.
func CleanJSONObject(content string) string {
	return cleanJSON(content, "{", "}")
}

// CleanJSONArray strips code fences and prose around a JSON array.
func CleanJSONArray(content string) string {
	return cleanJSON(content, "[", "]")
}

func cleanJSON(content, open, close string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, open)
	end := strings.LastIndex(content, close)
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}
