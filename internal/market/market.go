// Package market estimates asking prices for secondhand products. The
// shipped implementation is an offline synthesizer; the interface leaves
// room for a real marketplace search backend.
package market

import "context"

// PriceStats summarizes comparable asking prices for a product query.
// All monetary values are integer euro cents.
type PriceStats struct {
	Query          string `json:"query"`
	SampleCount    int    `json:"sample_count"`
	MinCents       int    `json:"min_cents"`
	MaxCents       int    `json:"max_cents"`
	AverageCents   int    `json:"average_cents"`
	MedianCents    int    `json:"median_cents"`
	SuggestedCents int    `json:"suggested_cents"`
}

// Researcher estimates market pricing for a product query.
type Researcher interface {
	Research(ctx context.Context, query string) (*PriceStats, error)
}
