package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/simpliearn/simpliearn-backend/internal/platform/envutil"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

const (
	DefaultBaseURL    = "https://router.huggingface.co/hf-inference/models"
	DefaultHubBaseURL = "https://huggingface.co"
)

// Prediction is the top label a text-classification model assigned to one input.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type Config struct {
	BaseURL    string
	HubBaseURL string
	Token      string
	Timeout    time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL:    envutil.String("HF_INFERENCE_BASE_URL", DefaultBaseURL),
		HubBaseURL: envutil.String("HF_HUB_BASE_URL", DefaultHubBaseURL),
		Token:      envutil.String("HF_TOKEN", ""),
		Timeout:    time.Duration(envutil.Int("HF_TIMEOUT_SECONDS", 120)) * time.Second,
	}
}

type Client interface {
	Classify(ctx context.Context, model string, inputs []string, maxLength int) ([]Prediction, error)
	ID2Label(ctx context.Context, model string) (map[int]string, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	hubBaseURL string
	token      string
	http       *http.Client

	mu     sync.Mutex
	labels map[string]map[int]string
}

func NewClient(log *logger.Logger, cfg Config) Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HubBaseURL == "" {
		cfg.HubBaseURL = DefaultHubBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &client{
		log:        log.With("client", "HFInference"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		hubBaseURL: strings.TrimRight(cfg.HubBaseURL, "/"),
		token:      strings.TrimSpace(cfg.Token),
		http:       &http.Client{Timeout: cfg.Timeout},
		labels:     map[string]map[int]string{},
	}
}

type classifyRequest struct {
	Inputs     []string       `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
}

// Classify runs one batch through a hosted text-classification model and returns the
// highest-scoring label per input, in input order.
func (c *client) Classify(ctx context.Context, model string, inputs []string, maxLength int) ([]Prediction, error) {
	if len(inputs) == 0 {
		return []Prediction{}, nil
	}
	params := map[string]any{"truncation": true}
	if maxLength > 0 {
		params["max_length"] = maxLength
	}
	body, err := json.Marshal(classifyRequest{
		Inputs:     inputs,
		Parameters: params,
		Options:    map[string]any{"wait_for_model": true},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+model, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	raw, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("classify %s: %w", model, err)
	}
	preds, err := decodePredictions(raw)
	if err != nil {
		return nil, fmt.Errorf("classify %s: %w", model, err)
	}
	if len(preds) != len(inputs) {
		return nil, fmt.Errorf("classify %s: got %d predictions for %d inputs", model, len(preds), len(inputs))
	}
	return preds, nil
}

// decodePredictions accepts both response shapes the endpoint produces: one list of label
// scores per input, or a flat list holding one top label per input.
func decodePredictions(raw []byte) ([]Prediction, error) {
	var nested [][]Prediction
	if err := json.Unmarshal(raw, &nested); err == nil {
		out := make([]Prediction, 0, len(nested))
		for _, cands := range nested {
			out = append(out, top(cands))
		}
		return out, nil
	}
	var flat []Prediction
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("decode predictions: %w", err)
	}
	return flat, nil
}

func top(cands []Prediction) Prediction {
	if len(cands) == 0 {
		return Prediction{}
	}
	sorted := append([]Prediction(nil), cands...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	return sorted[0]
}

// ID2Label fetches the model's label names from its published config. Results are cached per
// model for the life of the client.
func (c *client) ID2Label(ctx context.Context, model string) (map[int]string, error) {
	c.mu.Lock()
	if m, ok := c.labels[model]; ok {
		c.mu.Unlock()
		return m, nil
	}
	c.mu.Unlock()

	url := fmt.Sprintf("%s/%s/resolve/main/config.json", c.hubBaseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	raw, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("model config %s: %w", model, err)
	}
	var cfg struct {
		ID2Label map[string]string `json:"id2label"`
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("model config %s: %w", model, err)
	}
	out := make(map[int]string, len(cfg.ID2Label))
	for k, v := range cfg.ID2Label {
		id, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			continue
		}
		out[id] = v
	}

	c.mu.Lock()
	c.labels[model] = out
	c.mu.Unlock()
	return out, nil
}

func (c *client) do(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	c.log.Debug("HF request", "method", req.Method, "url", req.URL.Path, "status", resp.StatusCode, "dur_ms", time.Since(start).Milliseconds())
	if resp.StatusCode >= 400 {
		snippet := strings.TrimSpace(string(raw))
		if len(snippet) > 300 {
			snippet = snippet[:300]
		}
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, snippet)
	}
	return raw, nil
}
