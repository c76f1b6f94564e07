// Package llm wraps the remote scoring capability behind a uniform
// request/response contract with cost accounting and graceful degradation.
// All external spend in the pipeline flows through this client.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/sashabaranov/go-openai"

	"github.com/vidscope/vidscope/pkg/config"
)

// Message is a single chat message sent to the scoring model
type Message struct {
	Role    string
	Content string
}

// message roles
const (
	RoleSystem = openai.ChatMessageRoleSystem
	RoleUser   = openai.ChatMessageRoleUser
)

// Client issues scoring requests with a one-shot fallback model and keeps
// running usage counters. Counters are mutex-guarded, so a single instance
// may be shared; callers wanting per-run isolation construct one per run.
type Client struct {
	api *openai.Client
	cfg config.LLMConfig

	mu    sync.Mutex
	stats Stats
}

// Stats holds the client's running counters. SuccessRate and
// AverageCostPerRequest are derived on snapshot.
type Stats struct {
	TotalRequests         int     `json:"total_requests"`
	SuccessfulRequests    int     `json:"successful_requests"`
	FailedRequests        int     `json:"failed_requests"`
	TotalTokens           int     `json:"total_tokens"`
	TotalCost             float64 `json:"total_cost"`
	SuccessRate           float64 `json:"success_rate"`
	AverageCostPerRequest float64 `json:"average_cost_per_request"`
}

// per-token rates by model; unknown models use defaultRate
var modelRates = map[string]float64{
	"gpt-4o":        5.0e-06,
	"gpt-4o-mini":   3.0e-07,
	"gpt-4.1":       2.0e-06,
	"gpt-4.1-mini":  4.0e-07,
	"gpt-3.5-turbo": 1.0e-06,
}

const defaultRate = 1.0e-06

// NewClient creates a scoring client from configuration
func NewClient(cfg config.LLMConfig) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		api: openai.NewClientWithConfig(clientConfig),
		cfg: cfg,
	}
}

// Request sends one chat completion. On primary-model failure it fails over
// to the configured fallback model exactly once, then re-raises. Timeouts
// are treated like any other request failure.
func (c *Client) Request(ctx context.Context, messages []Message, maxTokens int, temperature float32, modelOverride string) (string, error) {
	model := c.cfg.Model
	if modelOverride != "" {
		model = modelOverride
	}

	content, err := c.attempt(ctx, model, messages, maxTokens, temperature)
	if err == nil {
		return content, nil
	}

	fallback := c.cfg.FallbackModel
	if fallback == "" || fallback == model {
		return "", fmt.Errorf("request to %s failed: %w", model, err)
	}

	lgr.Printf("[WARN] model %s failed, trying fallback %s: %v", model, fallback, err)
	content, fbErr := c.attempt(ctx, fallback, messages, maxTokens, temperature)
	if fbErr != nil {
		return "", fmt.Errorf("fallback %s failed after %s: %w", fallback, model, fbErr)
	}
	return content, nil
}

// attempt issues a single request against one model and records its outcome
func (c *Client) attempt(ctx context.Context, model string, messages []Message, maxTokens int, temperature float32) (string, error) {
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	promptLen := 0
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
		promptLen += len(m.Content)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages:    chatMessages,
	})

	if err != nil {
		c.record(model, 0, false)
		return "", err
	}
	if len(resp.Choices) == 0 {
		c.record(model, 0, false)
		return "", fmt.Errorf("no choices in response from %s", model)
	}

	tokens := resp.Usage.TotalTokens
	if tokens == 0 { // some compatible backends omit usage
		tokens = EstimateTokens(promptLen) + maxTokens
	}
	c.record(model, tokens, true)

	return resp.Choices[0].Message.Content, nil
}

// record updates the running counters for one attempt
func (c *Client) record(model string, tokens int, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.TotalRequests++
	if success {
		c.stats.SuccessfulRequests++
		c.stats.TotalTokens += tokens
		c.stats.TotalCost += float64(tokens) * c.rate(model)
		return
	}
	c.stats.FailedRequests++
}

// rate returns the per-token cost for a model: config override first, then
// the static table, then the default.
func (c *Client) rate(model string) float64 {
	if r, ok := c.cfg.Rates[model]; ok {
		return r
	}
	if r, ok := modelRates[model]; ok {
		return r
	}
	return defaultRate
}

// EstimateTokens is the deliberately rough prompt-length/4 approximation.
// It only needs to be monotonic, not billing-accurate.
func EstimateTokens(promptLen int) int {
	return promptLen / 4
}

// EstimateCost estimates the spend of one request before issuing it
func (c *Client) EstimateCost(promptLen, responseTokens int, modelOverride string) float64 {
	model := c.cfg.Model
	if modelOverride != "" {
		model = modelOverride
	}
	return float64(EstimateTokens(promptLen)+responseTokens) * c.rate(model)
}

// Stats returns a snapshot of the running counters with derived fields
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	if s.TotalRequests > 0 {
		s.SuccessRate = float64(s.SuccessfulRequests) / float64(s.TotalRequests)
		s.AverageCostPerRequest = s.TotalCost / float64(s.TotalRequests)
	}
	return s
}

// BatchRequest is one request within a sequential batch
type BatchRequest struct {
	Messages    []Message
	MaxTokens   int
	Temperature float32
	Model       string // empty for the configured primary
}

// BatchResult pairs a batch request's output with its error, if any
type BatchResult struct {
	Content string
	Err     error
}

// Batch issues requests sequentially with the configured inter-request
// delay, collecting per-request outcomes. One failure does not abort the
// batch; cancellation stops scheduling further requests.
func (c *Client) Batch(ctx context.Context, reqs []BatchRequest) []BatchResult {
	results := make([]BatchResult, len(reqs))

	for i, req := range reqs {
		if i > 0 && c.cfg.RequestDelay > 0 {
			select {
			case <-ctx.Done():
				for j := i; j < len(reqs); j++ {
					results[j].Err = ctx.Err()
				}
				return results
			case <-time.After(c.cfg.RequestDelay):
			}
		}

		content, err := c.Request(ctx, req.Messages, req.MaxTokens, req.Temperature, req.Model)
		results[i] = BatchResult{Content: content, Err: err}
		if err != nil {
			lgr.Printf("[WARN] batch request %d/%d failed: %v", i+1, len(reqs), err)
		}
	}

	return results
}
