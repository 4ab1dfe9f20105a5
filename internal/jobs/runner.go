// Package jobs runs photo analyses asynchronously so the HTTP layer can
// return immediately and clients poll for progress.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jhagelund/snaplist/internal/draft"
	"github.com/jhagelund/snaplist/internal/market"
	"github.com/jhagelund/snaplist/internal/metrics"
	"github.com/jhagelund/snaplist/internal/notify"
	"github.com/jhagelund/snaplist/internal/storage"
)

// ErrQueueFull is returned by Enqueue when the queue is at capacity, so
// the HTTP layer can answer 503 instead of blocking the upload handler.
var ErrQueueFull = errors.New("job queue is full")

// User-facing progress messages, persisted with each stage.
const (
	msgQueued    = "Wartet auf Verarbeitung..."
	msgAnalyzing = "Bild wird analysiert..."
	msgResearch  = "Marktdaten werden gesammelt..."
	msgComposing = "Inserat wird erstellt..."
	msgDone      = "Analyse abgeschlossen"
)

// Result is the job output document, stored as JSON on the job row and
// returned verbatim by the status endpoint.
type Result struct {
	Draft     *draft.ListingDraft `json:"draft"`
	Market    *market.PriceStats  `json:"market,omitempty"`
	ListingID string              `json:"listing_id"`
}

type task struct {
	jobID    string
	filename string
	image    []byte
}

// Runner owns the job queue and worker pool. Jobs are held in memory only
// while in flight; the store carries all state a client can observe.
type Runner struct {
	orchestrator *draft.Orchestrator
	researcher   market.Researcher
	store        storage.Store
	notifier     notify.Notifier
	metrics      *metrics.Registry
	queue        chan task
	workers      int
}

type RunnerOpts struct {
	Orchestrator *draft.Orchestrator
	Researcher   market.Researcher
	Store        storage.Store
	Notifier     notify.Notifier
	Metrics      *metrics.Registry
	Workers      int
	QueueSize    int
}

func NewRunner(opts RunnerOpts) *Runner {
	workers := opts.Workers
	if workers <= 0 {
		workers = 2
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = 32
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}

	return &Runner{
		orchestrator: opts.Orchestrator,
		researcher:   opts.Researcher,
		store:        opts.Store,
		notifier:     notifier,
		metrics:      opts.Metrics,
		queue:        make(chan task, queueSize),
		workers:      workers,
	}
}

// Enqueue persists a new queued job and hands it to the worker pool.
// Returns the job id, or ErrQueueFull when the queue is at capacity.
func (r *Runner) Enqueue(imageData []byte, filename string) (string, error) {
	id := uuid.New().String()
	job := &storage.Job{
		ID:       id,
		Filename: filename,
		Message:  msgQueued,
	}
	if err := r.store.CreateJob(job); err != nil {
		return "", fmt.Errorf("failed to persist job: %w", err)
	}

	select {
	case r.queue <- task{jobID: id, filename: filename, image: imageData}:
		log.Debug().Str("jobID", id).Str("filename", filename).Msg("job enqueued")
		return id, nil
	default:
		// The row exists already; fail it so it doesn't sit queued forever.
		if err := r.store.FailJob(id, "queue full"); err != nil {
			log.Error().Err(err).Str("jobID", id).Msg("failed to mark overflowed job")
		}
		return "", ErrQueueFull
	}
}

// Run starts the worker pool and blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < r.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case t := <-r.queue:
					r.process(ctx, t)
				}
			}
		})
	}
	return g.Wait()
}

// process runs one job through analysis, market research and listing
// creation. Draft production cannot fail; only storage errors fail a job.
func (r *Runner) process(ctx context.Context, t task) {
	if r.metrics != nil {
		r.metrics.JobsInflight.Inc()
		defer r.metrics.JobsInflight.Dec()
	}

	if err := r.store.UpdateJobProgress(t.jobID, 10, msgAnalyzing); err != nil {
		r.fail(t.jobID, err)
		return
	}

	d := r.orchestrator.ProduceDraft(ctx, t.image, t.filename)

	if r.metrics != nil {
		if d.Source == draft.SourceLive {
			r.metrics.DraftsLive.Inc()
		} else {
			r.metrics.DraftsMock.Inc()
		}
	}

	if err := r.store.UpdateJobProgress(t.jobID, 60, msgResearch); err != nil {
		r.fail(t.jobID, err)
		return
	}

	result := Result{Draft: d}
	if r.researcher != nil {
		query := strings.TrimSpace(d.Product.Brand + " " + d.Product.Name)
		stats, err := r.researcher.Research(ctx, query)
		if err != nil {
			// Market data is a bonus, not a requirement.
			log.Warn().Err(err).Str("jobID", t.jobID).Msg("market research failed")
		} else {
			result.Market = stats
		}
	}

	if err := r.store.UpdateJobProgress(t.jobID, 90, msgComposing); err != nil {
		r.fail(t.jobID, err)
		return
	}

	draftJSON, err := json.Marshal(d)
	if err != nil {
		r.fail(t.jobID, fmt.Errorf("failed to marshal draft: %w", err))
		return
	}
	listing := &storage.Listing{JobID: t.jobID, DraftJSON: string(draftJSON)}
	if err := r.store.SaveListing(listing); err != nil {
		r.fail(t.jobID, err)
		return
	}
	result.ListingID = listing.ID

	resultJSON, err := json.Marshal(result)
	if err != nil {
		r.fail(t.jobID, fmt.Errorf("failed to marshal result: %w", err))
		return
	}
	if err := r.store.CompleteJob(t.jobID, msgDone, string(resultJSON)); err != nil {
		r.fail(t.jobID, err)
		return
	}

	log.Info().
		Str("jobID", t.jobID).
		Str("listingID", listing.ID).
		Str("source", string(d.Source)).
		Float64("confidence", d.ConfidenceScore).
		Msg("job completed")

	if err := r.notifier.DraftReady(t.jobID, d); err != nil {
		log.Warn().Err(err).Str("jobID", t.jobID).Msg("failed to send draft notification")
	}
}

func (r *Runner) fail(jobID string, err error) {
	log.Error().Err(err).Str("jobID", jobID).Msg("job failed")
	if r.metrics != nil {
		r.metrics.JobsFailed.Inc()
	}
	if ferr := r.store.FailJob(jobID, err.Error()); ferr != nil {
		log.Error().Err(ferr).Str("jobID", jobID).Msg("failed to record job failure")
	}
}
