package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhagelund/snaplist/internal/metrics"
)

const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

const defaultOpenAIModel = "gpt-4o"

const (
	maxAttempts       = 3
	defaultRetryDelay = 1 * time.Second
	defaultTimeout    = 40 * time.Second
)

// gpt-4o pricing (per million tokens)
const (
	openaiInputPricePerMillion  = 2.50  // $2.50 per 1M input tokens
	openaiOutputPricePerMillion = 10.00 // $10.00 per 1M output tokens
)

type OpenAIOpts struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds a single HTTP request, not the whole retry loop.
	Timeout time.Duration
	// RetryDelay is the backoff base; attempt n waits RetryDelay * 2^(n-1).
	RetryDelay time.Duration
	Metrics    *metrics.Registry
}

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint.
// Pointing BaseURL at another host works for any provider that speaks the
// same wire format.
type OpenAIClient struct {
	httpClient *resty.Client
	model      string
	retryDelay time.Duration
	metrics    *metrics.Registry
}

func NewOpenAIClient(opts OpenAIOpts) *OpenAIClient {
	c := OpenAIClient{
		model:      defaultOpenAIModel,
		retryDelay: defaultRetryDelay,
		metrics:    opts.Metrics,
	}
	if opts.Model != "" {
		c.model = opts.Model
	}
	if opts.RetryDelay > 0 {
		c.retryDelay = opts.RetryDelay
	}

	baseURL := DefaultOpenAIBaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	timeout := defaultTimeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	c.httpClient = resty.New().
		SetDebug(false).
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(opts.APIKey).
		SetHeader("Content-Type", "application/json")

	return &c
}

func (c *OpenAIClient) Name() string {
	return "openai"
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

type chatUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Invoke implements Client. Rate limit responses (429) and server errors
// are retried with exponential backoff up to maxAttempts total requests;
// other client errors fail immediately since repeating them cannot help.
func (c *OpenAIClient) Invoke(ctx context.Context, imageJPEG []byte, prompt string) (string, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: &imageURL{
						URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageJPEG),
					}},
				},
			},
		},
		MaxTokens:      2000,
		Temperature:    0.1,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if c.metrics != nil {
				c.metrics.ModelRetries.Inc()
			}
			delay := c.retryDelay * (1 << (attempt - 2))
			log.Warn().
				Int("attempt", attempt).
				Dur("delay", delay).
				Err(lastErr).
				Msg("retrying vision llm call")
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		text, err := c.call(ctx, body)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !retryable(err) {
			return "", err
		}
	}

	return "", lastErr
}

func (c *OpenAIClient) call(ctx context.Context, body chatRequest) (string, error) {
	if c.metrics != nil {
		c.metrics.ModelCalls.Inc()
	}
	start := time.Now()

	result := &chatResponse{}
	res, err := c.httpClient.
		NewRequest().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		Post("/chat/completions")
	if err != nil {
		return "", &ModelInvocationError{Provider: "openai", Err: err}
	}

	if c.metrics != nil {
		c.metrics.ModelLatency.Observe(time.Since(start).Seconds())
	}

	if res.IsError() {
		return "", &ModelInvocationError{
			Provider:   "openai",
			StatusCode: res.StatusCode(),
			Body:       bodySnippet(res.String()),
		}
	}
	if len(result.Choices) == 0 {
		return "", &ModelInvocationError{Provider: "openai", Err: fmt.Errorf("no choices in response")}
	}

	log.Info().
		Str("model", c.model).
		Int64("inputTokens", result.Usage.PromptTokens).
		Int64("outputTokens", result.Usage.CompletionTokens).
		Float64("costUSD", openaiCost(result.Usage.PromptTokens, result.Usage.CompletionTokens)).
		Msg("vision llm call")

	return result.Choices[0].Message.Content, nil
}

// retryable reports whether a failed attempt is worth repeating. Transport
// errors and server-side failures are transient; 4xx responses other than
// 429 will keep failing no matter how often we ask.
func retryable(err error) bool {
	var invErr *ModelInvocationError
	if !errors.As(err, &invErr) {
		return false
	}
	if invErr.StatusCode == 0 {
		return true
	}
	return invErr.StatusCode == 429 || invErr.StatusCode >= 500
}

func openaiCost(inputTokens, outputTokens int64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * openaiInputPricePerMillion
	outputCost := float64(outputTokens) / 1_000_000 * openaiOutputPricePerMillion
	return inputCost + outputCost
}
