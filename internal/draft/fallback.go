package draft

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// Diagnostic notes carried into a fallback draft's condition details so the
// caller can see why the live path was skipped. Kept in English like the
// log lines; the surrounding sentence is user-facing German.
const (
	NoteDemoMode            = "demo mode"
	NoteInvalidImage        = "invalid image"
	NoteUpstreamUnavailable = "upstream unavailable"
	NoteUnparsableResponse  = "unparsable response"
)

// Synthesize builds a deterministic offline draft. It is the terminal
// safety net of the pipeline: no network, no randomness, and it cannot
// fail. The product name derives from contextHint (typically the uploaded
// filename) when one is available; diagnosticNote is preserved verbatim in
// the condition details. The draft is tagged SourceMock with a fixed low
// confidence so consumers can tell it apart from a real analysis.
func Synthesize(contextHint, diagnosticNote string) *ListingDraft {
	name := nameFromHint(contextHint)

	return &ListingDraft{
		Product: ProductInfo{
			Name:      name,
			Category:  DefaultCategory,
			Condition: DefaultCondition,
			Features:  []string{},
		},
		EstimatedValueRange: ValueRange{
			LowCents:  defaultValueLowCents,
			HighCents: defaultValueHighCents,
		},
		RecommendedPriceCents: midpoint(defaultValueLowCents, defaultValueHighCents),
		SuggestedKeywords:     fallbackKeywords(name),
		ConditionDetails:      fmt.Sprintf("Automatisch erstellter Entwurf (%s). Angaben vor Veröffentlichung prüfen.", diagnosticNote),
		ConfidenceScore:       fallbackConfidence,
		ListingTitle:          buildTitle(name, DefaultCondition),
		ListingDescription:    buildDescription(name, DefaultCondition),
		ShippingSuggestion:    DefaultShipping,
		Source:                SourceMock,
	}
}

// nameFromHint turns a filename-ish hint into a presentable product name:
// path and extension stripped, separators replaced by spaces, words
// capitalized. Empty or unusable hints yield the generic label.
func nameFromHint(hint string) string {
	base := filepath.Base(strings.TrimSpace(hint))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', '.':
			return ' '
		}
		return r
	}, base)

	words := strings.Fields(base)
	if len(words) == 0 {
		return DefaultName
	}
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// fallbackKeywords derives a deterministic keyword list from the product
// name plus the generic secondhand terms buyers search for.
func fallbackKeywords(name string) []string {
	seen := map[string]bool{}
	var out []string
	for _, w := range strings.Fields(strings.ToLower(name)) {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	for _, w := range []string{"gebraucht", "verkauf"} {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}
