package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhagelund/snaplist/internal/draft"
)

func sampleDraft(source draft.Source) *draft.ListingDraft {
	return &draft.ListingDraft{
		Product: draft.ProductInfo{
			Name:      "Sony WH-1000XM4",
			Category:  "Elektronik",
			Condition: "Sehr gut",
		},
		EstimatedValueRange:   draft.ValueRange{LowCents: 2000, HighCents: 4000},
		RecommendedPriceCents: 3000,
		ConfidenceScore:       0.85,
		ListingTitle:          "Sony WH-1000XM4 Kopfhörer - Sehr gut",
		Source:                source,
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "12,50 €", FormatCents(1250))
	assert.Equal(t, "0,05 €", FormatCents(5))
	assert.Equal(t, "30,00 €", FormatCents(3000))
	assert.Equal(t, "1234,99 €", FormatCents(123499))
}

func TestFormatDraftMessage(t *testing.T) {
	msg := FormatDraftMessage("job-42", sampleDraft(draft.SourceLive))

	assert.Contains(t, msg, "*Neuer Inseratsentwurf*")
	assert.Contains(t, msg, "Sony WH-1000XM4 Kopfhörer - Sehr gut")
	assert.Contains(t, msg, "Elektronik · Sehr gut")
	assert.Contains(t, msg, "Empfehlung: 30,00 € (Spanne 20,00 € – 40,00 €)")
	assert.Contains(t, msg, "Konfidenz: 85%")
	assert.Contains(t, msg, "Auftrag: job-42")
	assert.NotContains(t, msg, "ohne Bildanalyse")
}

func TestFormatDraftMessageMockWarning(t *testing.T) {
	msg := FormatDraftMessage("job-43", sampleDraft(draft.SourceMock))

	assert.Contains(t, msg, "⚠️ Entwurf ohne Bildanalyse erstellt")
}

func TestFormatDraftMessageEscapesMarkdown(t *testing.T) {
	d := sampleDraft(draft.SourceLive)
	d.ListingTitle = "IKEA_Billy *Regal* [weiß]"

	msg := FormatDraftMessage("job-44", d)

	assert.Contains(t, msg, `IKEA\_Billy \*Regal\* \[weiß]`)
}

func TestNopNotifier(t *testing.T) {
	assert.Nil(t, NopNotifier{}.DraftReady("job-1", sampleDraft(draft.SourceMock)))
}
