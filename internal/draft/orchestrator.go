package draft

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/jhagelund/snaplist/internal/imaging"
	"github.com/jhagelund/snaplist/internal/vision"
)

// Orchestrator runs the photo-to-draft pipeline: normalize the image, call
// the vision model, coerce the response. It never returns an error; every
// stage failure falls through to a deterministic fallback draft marked
// MOCK, so the caller always has a draft to show. Stages are not retried
// here, only inside the model client's own retry budget.
type Orchestrator struct {
	client vision.Client
	live   bool
	prompt string
}

type OrchestratorOpts struct {
	// Client is the vision model; nil means no credentials are configured.
	Client vision.Client
	// Live enables real model calls. With Live false or Client nil every
	// draft comes from the fallback path.
	Live bool
}

func NewOrchestrator(opts OrchestratorOpts) *Orchestrator {
	return &Orchestrator{
		client: opts.Client,
		live:   opts.Live && opts.Client != nil,
		prompt: vision.BuildPrompt(),
	}
}

// Live reports whether drafts are produced by real model calls.
func (o *Orchestrator) Live() bool {
	return o.live
}

// Provider returns the configured provider label for logs and health
// reporting, or "none" when running without a model.
func (o *Orchestrator) Provider() string {
	if o.client == nil {
		return "none"
	}
	return o.client.Name()
}

// ProduceDraft turns a raw uploaded photo into a listing draft. contextHint
// is optional free text, usually the uploaded filename; the fallback path
// mines it for a product name.
func (o *Orchestrator) ProduceDraft(ctx context.Context, imageData []byte, contextHint string) *ListingDraft {
	if !o.live {
		log.Info().Str("hint", contextHint).Msg("producing fallback draft: demo mode")
		return Synthesize(contextHint, NoteDemoMode)
	}

	normalized, err := imaging.Normalize(imageData)
	if err != nil {
		log.Warn().Err(err).Msg("producing fallback draft: invalid image")
		return Synthesize(contextHint, NoteInvalidImage)
	}

	text, err := o.client.Invoke(ctx, normalized, o.prompt)
	if err != nil {
		log.Warn().Err(err).Str("provider", o.client.Name()).Msg("producing fallback draft: upstream unavailable")
		return Synthesize(contextHint, NoteUpstreamUnavailable)
	}

	d, err := Coerce(text)
	if err != nil {
		log.Warn().Err(err).Msg("producing fallback draft: unparsable response")
		return Synthesize(contextHint, NoteUnparsableResponse)
	}

	return d
}
