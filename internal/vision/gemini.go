package vision

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/jhagelund/snaplist/internal/metrics"
)

const defaultGeminiModel = "gemini-2.0-flash"

// Gemini pricing (per million tokens)
const (
	geminiInputPricePerMillion  = 0.10 // $0.10 per 1M input tokens (text/image)
	geminiOutputPricePerMillion = 0.40 // $0.40 per 1M output tokens
)

type GeminiOpts struct {
	APIKey  string
	Model   string
	Metrics *metrics.Registry
}

// GeminiClient implements Client on Google's Gemini API. The SDK handles
// transport-level retries itself, so unlike the OpenAI client there is no
// explicit retry loop here.
type GeminiClient struct {
	client  *genai.Client
	model   string
	metrics *metrics.Registry
}

func NewGeminiClient(ctx context.Context, opts GeminiOpts) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: opts.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := defaultGeminiModel
	if opts.Model != "" {
		model = opts.Model
	}

	return &GeminiClient{client: client, model: model, metrics: opts.Metrics}, nil
}

func (g *GeminiClient) Name() string {
	return "gemini"
}

// Invoke implements Client.
func (g *GeminiClient) Invoke(ctx context.Context, imageJPEG []byte, prompt string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		{InlineData: &genai.Blob{Data: imageJPEG, MIMEType: "image/jpeg"}},
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	if g.metrics != nil {
		g.metrics.ModelCalls.Inc()
	}
	start := time.Now()

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", &ModelInvocationError{Provider: "gemini", Err: err}
	}

	if g.metrics != nil {
		g.metrics.ModelLatency.Observe(time.Since(start).Seconds())
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", &ModelInvocationError{Provider: "gemini", Err: fmt.Errorf("no candidates in response")}
	}

	var inputTokens, outputTokens int64
	if result.UsageMetadata != nil {
		inputTokens = int64(result.UsageMetadata.PromptTokenCount)
		outputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
	}

	log.Info().
		Str("model", g.model).
		Int64("inputTokens", inputTokens).
		Int64("outputTokens", outputTokens).
		Float64("costUSD", geminiCost(inputTokens, outputTokens)).
		Msg("vision llm call")

	return result.Text(), nil
}

func geminiCost(inputTokens, outputTokens int64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * geminiInputPricePerMillion
	outputCost := float64(outputTokens) / 1_000_000 * geminiOutputPricePerMillion
	return inputCost + outputCost
}
