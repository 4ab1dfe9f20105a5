package market

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResearchDeterministic(t *testing.T) {
	r := NewLocalResearcher()

	first, err := r.Research(context.Background(), "Sony WH-1000XM4")
	assert.Nil(t, err)
	second, err := r.Research(context.Background(), "Sony WH-1000XM4")
	assert.Nil(t, err)

	assert.Equal(t, first, second)
}

func TestResearchNormalizesQuery(t *testing.T) {
	r := NewLocalResearcher()

	upper, err := r.Research(context.Background(), "  Sony   WH-1000XM4 ")
	assert.Nil(t, err)
	lower, err := r.Research(context.Background(), "sony wh-1000xm4")
	assert.Nil(t, err)

	assert.Equal(t, lower, upper)
	assert.Equal(t, "sony wh-1000xm4", upper.Query)
}

func TestResearchStatsOrdering(t *testing.T) {
	r := NewLocalResearcher()

	for _, query := range []string{"ikea billy regal", "nintendo switch", "alte stehlampe", "x"} {
		stats, err := r.Research(context.Background(), query)
		assert.Nil(t, err)

		assert.GreaterOrEqual(t, stats.SampleCount, 5, query)
		assert.LessOrEqual(t, stats.SampleCount, 12, query)
		assert.Greater(t, stats.MinCents, 0, query)
		assert.LessOrEqual(t, stats.MinCents, stats.MedianCents, query)
		assert.LessOrEqual(t, stats.MedianCents, stats.MaxCents, query)
		assert.LessOrEqual(t, stats.MinCents, stats.AverageCents, query)
		assert.LessOrEqual(t, stats.AverageCents, stats.MaxCents, query)
		assert.Equal(t, stats.MedianCents, stats.SuggestedCents, query)
	}
}

func TestResearchEmptyQueryNeutralRange(t *testing.T) {
	r := NewLocalResearcher()

	for _, query := range []string{"", "   "} {
		stats, err := r.Research(context.Background(), query)
		assert.Nil(t, err)

		assert.Equal(t, 0, stats.SampleCount)
		assert.Equal(t, 500, stats.MinCents)
		assert.Equal(t, 2000, stats.MaxCents)
		assert.Equal(t, 1250, stats.MedianCents)
		assert.Equal(t, 1250, stats.SuggestedCents)
	}
}

func TestResearchDistinctQueriesDistinctPrices(t *testing.T) {
	r := NewLocalResearcher()

	a, err := r.Research(context.Background(), "fahrrad")
	assert.Nil(t, err)
	b, err := r.Research(context.Background(), "alte stehlampe")
	assert.Nil(t, err)

	assert.NotEqual(t, a.MedianCents, b.MedianCents)
}
