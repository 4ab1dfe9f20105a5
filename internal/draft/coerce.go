package draft

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Model response fields. The model is instructed to return exactly this
// shape, but instruction-only JSON is routinely violated. Numbers arrive
// as strings or as "20-40" range text, and the object may be wrapped in
// prose or markdown fences. Every field coerces independently and falls
// back to its own default.
const (
	fieldProductName    = "product_name"
	fieldCategory       = "category"
	fieldCondition      = "condition"
	fieldBrand          = "brand"
	fieldFeatures       = "features"
	fieldValueRange     = "estimated_value_eur"
	fieldConfidence     = "confidence_score"
	fieldKeywords       = "suggested_keywords"
	fieldTitle          = "listing_title"
	fieldDescription    = "listing_description"
	fieldPriceRec       = "price_recommendation_eur"
	fieldShipping       = "shipping_suggestion"
	fieldConditionNotes = "condition_details"
)

// UnparsableResponseError means no JSON object could be located in the
// model output at all. This is the only hard failure of coercion; anything
// less is normalized field by field.
type UnparsableResponseError struct {
	Snippet string
}

func (e *UnparsableResponseError) Error() string {
	return fmt.Sprintf("no JSON object found in model response: %q", e.Snippet)
}

// Coerce parses free-form model output into a ListingDraft. Individual
// fields never fail: missing or mangled values are replaced by defaults and
// cross-field invariants are enforced afterwards. The resulting draft is
// tagged SourceLive.
func Coerce(rawText string) (*ListingDraft, error) {
	obj, err := parseObject(rawText)
	if err != nil {
		return nil, err
	}

	name := coerceString(obj[fieldProductName], DefaultName)
	condition := coerceString(obj[fieldCondition], DefaultCondition)

	low, high := coerceRange(obj[fieldValueRange])
	if low > high {
		low, high = high, low
	}

	price, fromModel := coerceEuros(obj[fieldPriceRec])
	if !fromModel {
		price = midpoint(low, high)
	} else if price < low {
		price = low
	} else if price > high {
		price = high
	}

	title := normalizeSpace(coerceString(obj[fieldTitle], ""))
	if title == "" {
		title = buildTitle(name, condition)
	}

	description := coerceString(obj[fieldDescription], "")
	if description == "" {
		description = buildDescription(name, condition)
	}

	return &ListingDraft{
		Product: ProductInfo{
			Name:      name,
			Category:  coerceString(obj[fieldCategory], DefaultCategory),
			Condition: condition,
			Brand:     coerceString(obj[fieldBrand], ""),
			Features:  coerceStringList(obj[fieldFeatures]),
		},
		EstimatedValueRange:   ValueRange{LowCents: low, HighCents: high},
		RecommendedPriceCents: price,
		SuggestedKeywords:     coerceStringList(obj[fieldKeywords]),
		ConditionDetails:      coerceString(obj[fieldConditionNotes], ""),
		ConfidenceScore:       coerceConfidence(obj[fieldConfidence]),
		ListingTitle:          truncateTitle(title),
		ListingDescription:    description,
		ShippingSuggestion:    coerceString(obj[fieldShipping], DefaultShipping),
		Source:                SourceLive,
	}, nil
}

// parseObject attempts a strict JSON parse first, then falls back to the
// outermost {...} substring for responses wrapped in prose or markdown
// fences.
func parseObject(rawText string) (map[string]any, error) {
	text := strings.TrimSpace(rawText)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		return obj, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, &UnparsableResponseError{Snippet: snippet(rawText)}
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err != nil {
		return nil, &UnparsableResponseError{Snippet: snippet(rawText)}
	}
	return obj, nil
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) > 120 {
		return string(r[:120]) + "..."
	}
	return s
}

// coerceString stringifies scalar values and substitutes def for missing,
// empty, or non-scalar ones.
func coerceString(v any, def string) string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return s
		}
	case float64:
		return formatNumber(t)
	case bool:
		return strconv.FormatBool(t)
	}
	return def
}

// coerceStringList accepts any value: non-lists collapse to an empty slice,
// elements are stringified, blank entries are dropped.
func coerceStringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s := coerceString(item, "")
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// coerceEuros parses a major-unit amount from a JSON number or a numeric
// string ("30", "30.50", "30 €") into cents. Zero and negative amounts are
// rejected so the range invariant cannot be violated by model output.
func coerceEuros(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t > 0 {
			return eurosToCents(t), true
		}
	case string:
		if f, err := strconv.ParseFloat(cleanNumeric(t), 64); err == nil && f > 0 {
			return eurosToCents(f), true
		}
	}
	return 0, false
}

// coerceRange parses the estimated value range from any of the encodings
// models actually produce: a {min, max} object, a "low-high" string, a
// two-element array, or a single number (degenerate range). Bounds that
// cannot be parsed fall back independently to the defaults.
func coerceRange(v any) (low, high int) {
	low, high = defaultValueLowCents, defaultValueHighCents

	switch t := v.(type) {
	case map[string]any:
		if c, ok := coerceEuros(t["min"]); ok {
			low = c
		}
		if c, ok := coerceEuros(t["max"]); ok {
			high = c
		}
	case string:
		parts := strings.SplitN(t, "-", 2)
		if len(parts) == 2 {
			lo, loOK := coerceEuros(strings.TrimSpace(parts[0]))
			hi, hiOK := coerceEuros(strings.TrimSpace(parts[1]))
			if loOK {
				low = lo
			}
			if hiOK {
				high = hi
			}
		} else if c, ok := coerceEuros(t); ok {
			low, high = c, c
		}
	case []any:
		if len(t) >= 2 {
			if c, ok := coerceEuros(t[0]); ok {
				low = c
			}
			if c, ok := coerceEuros(t[len(t)-1]); ok {
				high = c
			}
		}
	case float64:
		if c, ok := coerceEuros(t); ok {
			low, high = c, c
		}
	}
	return low, high
}

// coerceConfidence accepts a number or numeric string and clamps it into
// [0, 1].
func coerceConfidence(v any) float64 {
	switch t := v.(type) {
	case float64:
		return clampConfidence(t)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return clampConfidence(f)
		}
	}
	return defaultConfidence
}

// cleanNumeric strips currency decoration models like to add to numeric
// strings ("30 €", "EUR 25,00" with a comma decimal).
func cleanNumeric(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "€")
	s = strings.TrimPrefix(s, "€")
	s = strings.TrimPrefix(s, "EUR")
	s = strings.TrimSpace(s)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return s
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
