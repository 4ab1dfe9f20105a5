package draft

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerceFullResponse(t *testing.T) {
	raw := `{
		"product_name": "Sony WH-1000XM4 Kopfhörer",
		"category": "Elektronik",
		"condition": "Sehr gut",
		"brand": "Sony",
		"features": ["Noise Cancelling", "Bluetooth"],
		"estimated_value_eur": {"min": 20, "max": 40},
		"confidence_score": 0.85,
		"suggested_keywords": ["kopfhörer", "sony"],
		"listing_title": "Sony WH-1000XM4 Kopfhörer - Sehr gut",
		"listing_description": "Kabellose Kopfhörer mit Noise Cancelling, voll funktionsfähig.",
		"price_recommendation_eur": 30,
		"shipping_suggestion": "DHL Paket",
		"condition_details": "Leichte Gebrauchsspuren an den Ohrpolstern"
	}`

	d, err := Coerce(raw)
	assert.Nil(t, err)
	assert.Equal(t, "Sony WH-1000XM4 Kopfhörer", d.Product.Name)
	assert.Equal(t, "Elektronik", d.Product.Category)
	assert.Equal(t, "Sehr gut", d.Product.Condition)
	assert.Equal(t, "Sony", d.Product.Brand)
	assert.Equal(t, []string{"Noise Cancelling", "Bluetooth"}, d.Product.Features)
	assert.Equal(t, 2000, d.EstimatedValueRange.LowCents)
	assert.Equal(t, 4000, d.EstimatedValueRange.HighCents)
	assert.Equal(t, 3000, d.RecommendedPriceCents)
	assert.Equal(t, 0.85, d.ConfidenceScore)
	assert.Equal(t, "Sony WH-1000XM4 Kopfhörer - Sehr gut", d.ListingTitle)
	assert.Equal(t, "DHL Paket", d.ShippingSuggestion)
	assert.Equal(t, "Leichte Gebrauchsspuren an den Ohrpolstern", d.ConditionDetails)
	assert.Equal(t, SourceLive, d.Source)
}

func TestCoerceStringBoundsAndNullPrice(t *testing.T) {
	// min as a string, max as a float, price null: bounds parse
	// independently and the price falls back to the range midpoint.
	raw := `{"estimated_value_eur": {"min": "20", "max": 35.0}, "price_recommendation_eur": null}`

	d, err := Coerce(raw)
	assert.Nil(t, err)
	assert.Equal(t, 2000, d.EstimatedValueRange.LowCents)
	assert.Equal(t, 3500, d.EstimatedValueRange.HighCents)
	assert.Equal(t, 2750, d.RecommendedPriceCents)
	assert.Equal(t, DefaultName, d.Product.Name)
	assert.Equal(t, SourceLive, d.Source)
}

func TestCoerceRangeAsString(t *testing.T) {
	d, err := Coerce(`{"estimated_value_eur": "15-25"}`)
	assert.Nil(t, err)
	assert.Equal(t, 1500, d.EstimatedValueRange.LowCents)
	assert.Equal(t, 2500, d.EstimatedValueRange.HighCents)
	assert.Equal(t, 2000, d.RecommendedPriceCents)
}

func TestCoerceRangeAsSingleNumber(t *testing.T) {
	d, err := Coerce(`{"estimated_value_eur": 25}`)
	assert.Nil(t, err)
	assert.Equal(t, 2500, d.EstimatedValueRange.LowCents)
	assert.Equal(t, 2500, d.EstimatedValueRange.HighCents)
	assert.Equal(t, 2500, d.RecommendedPriceCents)
}

func TestCoerceRangeAsArray(t *testing.T) {
	d, err := Coerce(`{"estimated_value_eur": [10, 30]}`)
	assert.Nil(t, err)
	assert.Equal(t, 1000, d.EstimatedValueRange.LowCents)
	assert.Equal(t, 3000, d.EstimatedValueRange.HighCents)
}

func TestCoerceSwappedRange(t *testing.T) {
	d, err := Coerce(`{"estimated_value_eur": {"min": 40, "max": 20}}`)
	assert.Nil(t, err)
	assert.Equal(t, 2000, d.EstimatedValueRange.LowCents)
	assert.Equal(t, 4000, d.EstimatedValueRange.HighCents)
}

func TestCoerceCommaDecimal(t *testing.T) {
	d, err := Coerce(`{"estimated_value_eur": {"min": "25,50", "max": "40 €"}}`)
	assert.Nil(t, err)
	assert.Equal(t, 2550, d.EstimatedValueRange.LowCents)
	assert.Equal(t, 4000, d.EstimatedValueRange.HighCents)
}

func TestCoercePriceClampedIntoRange(t *testing.T) {
	d, err := Coerce(`{"estimated_value_eur": {"min": 20, "max": 40}, "price_recommendation_eur": 100}`)
	assert.Nil(t, err)
	assert.Equal(t, 4000, d.RecommendedPriceCents)

	d, err = Coerce(`{"estimated_value_eur": {"min": 20, "max": 40}, "price_recommendation_eur": 1}`)
	assert.Nil(t, err)
	assert.Equal(t, 2000, d.RecommendedPriceCents)
}

func TestCoerceNegativePriceIgnored(t *testing.T) {
	d, err := Coerce(`{"estimated_value_eur": {"min": 20, "max": 40}, "price_recommendation_eur": -5}`)
	assert.Nil(t, err)
	assert.Equal(t, 3000, d.RecommendedPriceCents)
}

func TestCoerceMarkdownFences(t *testing.T) {
	raw := "```json\n{\"product_name\": \"Stehlampe\"}\n```"
	d, err := Coerce(raw)
	assert.Nil(t, err)
	assert.Equal(t, "Stehlampe", d.Product.Name)
}

func TestCoerceProseWrappedObject(t *testing.T) {
	raw := `Hier ist das gewünschte Ergebnis: {"product_name": "Bücherregal"} Ich hoffe, das hilft!`
	d, err := Coerce(raw)
	assert.Nil(t, err)
	assert.Equal(t, "Bücherregal", d.Product.Name)
}

func TestCoerceUnparsableProse(t *testing.T) {
	d, err := Coerce("Das Bild zeigt vermutlich einen gebrauchten Stuhl aus Holz.")
	assert.Nil(t, d)

	var unparsable *UnparsableResponseError
	assert.True(t, errors.As(err, &unparsable))
	assert.Contains(t, unparsable.Snippet, "Stuhl")
}

func TestCoerceEmptyObjectDefaults(t *testing.T) {
	d, err := Coerce(`{}`)
	assert.Nil(t, err)
	assert.Equal(t, DefaultName, d.Product.Name)
	assert.Equal(t, DefaultCategory, d.Product.Category)
	assert.Equal(t, DefaultCondition, d.Product.Condition)
	assert.Equal(t, "", d.Product.Brand)
	assert.Equal(t, []string{}, d.Product.Features)
	assert.Equal(t, 500, d.EstimatedValueRange.LowCents)
	assert.Equal(t, 2000, d.EstimatedValueRange.HighCents)
	assert.Equal(t, 1250, d.RecommendedPriceCents)
	assert.Equal(t, 0.5, d.ConfidenceScore)
	assert.Equal(t, "Unbekanntes Produkt - Gebraucht", d.ListingTitle)
	assert.Equal(t, DefaultShipping, d.ShippingSuggestion)
	assert.Equal(t, SourceLive, d.Source)
}

func TestCoerceConfidenceClamped(t *testing.T) {
	d, err := Coerce(`{"confidence_score": 1.5}`)
	assert.Nil(t, err)
	assert.Equal(t, 1.0, d.ConfidenceScore)

	d, err = Coerce(`{"confidence_score": -0.3}`)
	assert.Nil(t, err)
	assert.Equal(t, 0.0, d.ConfidenceScore)

	d, err = Coerce(`{"confidence_score": "0.7"}`)
	assert.Nil(t, err)
	assert.Equal(t, 0.7, d.ConfidenceScore)
}

func TestCoerceTitleTruncatedToMaxRunes(t *testing.T) {
	long := strings.Repeat("ä", 100)
	d, err := Coerce(`{"listing_title": "` + long + `"}`)
	assert.Nil(t, err)
	assert.Equal(t, 80, len([]rune(d.ListingTitle)))
	assert.Equal(t, strings.Repeat("ä", 80), d.ListingTitle)
}

func TestCoerceKeywordListCleaned(t *testing.T) {
	d, err := Coerce(`{"suggested_keywords": ["lampe", 3, "", "  ", "vintage"]}`)
	assert.Nil(t, err)
	assert.Equal(t, []string{"lampe", "3", "vintage"}, d.SuggestedKeywords)

	d, err = Coerce(`{"suggested_keywords": "lampe"}`)
	assert.Nil(t, err)
	assert.Equal(t, []string{}, d.SuggestedKeywords)
}

func TestCoerceScalarNameStringified(t *testing.T) {
	d, err := Coerce(`{"product_name": 42}`)
	assert.Nil(t, err)
	assert.Equal(t, "42", d.Product.Name)
}

func TestCoerceTitleWhitespaceCollapsed(t *testing.T) {
	d, err := Coerce(`{"listing_title": "Sony  Kopfhörer\n- Sehr gut"}`)
	assert.Nil(t, err)
	assert.Equal(t, "Sony Kopfhörer - Sehr gut", d.ListingTitle)
}
