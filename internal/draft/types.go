package draft

import (
	"fmt"
	"math"
	"strings"
)

// Source tags how a draft was produced.
type Source string

const (
	// SourceLive marks a draft built from a real vision model response.
	SourceLive Source = "LIVE"
	// SourceMock marks a deterministic offline draft from the fallback path.
	SourceMock Source = "MOCK"
)

// Defaults substituted during coercion when the model omits or mangles a
// field. User-facing values are German, matching the target marketplace.
const (
	DefaultName      = "Unbekanntes Produkt"
	DefaultCategory  = "Sonstiges"
	DefaultCondition = "Gebraucht"
	DefaultShipping  = "Versand mit DHL oder Hermes möglich"

	defaultConfidence  = 0.5
	fallbackConfidence = 0.4

	defaultValueLowCents  = 500
	defaultValueHighCents = 2000

	maxTitleLen = 80
)

// ProductInfo is the normalized product identity inside a draft.
type ProductInfo struct {
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Condition string   `json:"condition"`
	Brand     string   `json:"brand,omitempty"`
	Features  []string `json:"features"`
}

// ValueRange is an estimated value interval in integer minor units.
type ValueRange struct {
	LowCents  int `json:"low_cents"`
	HighCents int `json:"high_cents"`
}

// ListingDraft is the unit of output of one pipeline run. It is constructed
// exactly once, by Coerce or Synthesize, and never mutated afterwards. All
// monetary fields are integer cents.
type ListingDraft struct {
	Product               ProductInfo `json:"product"`
	EstimatedValueRange   ValueRange  `json:"estimated_value_range"`
	RecommendedPriceCents int         `json:"recommended_price_cents"`
	SuggestedKeywords     []string    `json:"suggested_keywords"`
	ConditionDetails      string      `json:"condition_details"`
	ConfidenceScore       float64     `json:"confidence_score"`
	ListingTitle          string      `json:"listing_title"`
	ListingDescription    string      `json:"listing_description"`
	ShippingSuggestion    string      `json:"shipping_suggestion"`
	Source                Source      `json:"source"`
}

// eurosToCents converts a major-unit amount to integer cents. The conversion
// happens exactly once per field, at draft construction.
func eurosToCents(euros float64) int {
	return int(math.Round(euros * 100))
}

// midpoint returns the middle of [low, high] in cents, rounded toward the
// lower bound on ties.
func midpoint(low, high int) int {
	return (low + high) / 2
}

// truncateTitle enforces the 80-character listing title bound. Counted in
// runes so multibyte German text is never cut mid-character.
func truncateTitle(s string) string {
	r := []rune(s)
	if len(r) <= maxTitleLen {
		return s
	}
	return string(r[:maxTitleLen])
}

// buildTitle derives a listing title from product identity when the model
// supplies none.
func buildTitle(name, condition string) string {
	return truncateTitle(fmt.Sprintf("%s - %s", name, condition))
}

// buildDescription derives a short German listing description when the model
// supplies none.
func buildDescription(name, condition string) string {
	return fmt.Sprintf("%s, Zustand: %s. Weitere Details gerne auf Anfrage.", name, condition)
}

// clampConfidence forces a confidence score into [0, 1].
func clampConfidence(score float64) float64 {
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// normalizeSpace collapses runs of whitespace into single spaces and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
