package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidscope/vidscope/pkg/domain"
)

func TestQualityScorer_Blend(t *testing.T) {
	scorer := NewQualityScorer(testPipelineConfig())

	item := domain.Item{
		Title:            "Complete React Hooks Tutorial for Beginners",
		Description:      longDescription("programming tutorial with architecture guide"),
		ViewCount:        80000,   // above the high tier
		Duration:         "PT20M", // inside the sweet spot
		KeywordRelevance: 0.8,
	}

	res, err := scorer.Process(context.Background(), []domain.Item{item}, testInterests())
	require.NoError(t, err)
	require.Len(t, res.Items, 1)

	got := res.Items[0]
	assert.True(t, got.QualityScored)
	assert.GreaterOrEqual(t, got.QualityScore, 0.0)
	assert.LessOrEqual(t, got.QualityScore, 1.0)
	assert.GreaterOrEqual(t, got.InterestAlignment, 0.0)
	assert.LessOrEqual(t, got.InterestAlignment, 1.0)

	want := got.QualityScore*0.4 + got.KeywordRelevance*0.4 + got.InterestAlignment*0.2
	assert.InDelta(t, want, got.CombinedScore, 0.0001)
}

func TestQualityScorer_AlignmentDefault(t *testing.T) {
	scorer := NewQualityScorer(testPipelineConfig())

	res, err := scorer.Process(context.Background(), []domain.Item{
		{Title: "Anything at all really", Description: "text"},
	}, domain.InterestModel{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.InDelta(t, 0.5, res.Items[0].InterestAlignment, 0.0001, "no interests means neutral alignment")
}

func TestQualityScorer_AlignmentWeighting(t *testing.T) {
	interests := domain.InterestModel{
		"Programming": {Priority: 8},
		"Music":       {Priority: 2},
	}
	scorer := NewQualityScorer(testPipelineConfig())

	res, err := scorer.Process(context.Background(), []domain.Item{
		{Title: "Programming stream archive", Description: "live coding"},
	}, interests)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	// only Programming (8) hits out of total priority 10
	assert.InDelta(t, 0.8, res.Items[0].InterestAlignment, 0.0001)
}

func TestQualityScorer_SortsDescending(t *testing.T) {
	scorer := NewQualityScorer(testPipelineConfig())

	items := []domain.Item{
		{Title: "Plain video with nothing special", Description: "minimal", KeywordRelevance: 0.1},
		{Title: "Great Engineering Tutorial Deep Dive", Description: longDescription("architecture guide programming data"), ViewCount: 100000, Duration: "PT15M", KeywordRelevance: 0.9},
	}

	res, err := scorer.Process(context.Background(), items, testInterests())
	require.NoError(t, err)
	require.Len(t, res.Items, 2, "quality scorer never drops")

	assert.GreaterOrEqual(t, res.Items[0].CombinedScore, res.Items[1].CombinedScore)
	assert.Equal(t, "Great Engineering Tutorial Deep Dive", res.Items[0].Title)
}

func TestQualityScorer_DurationSweetSpot(t *testing.T) {
	scorer := NewQualityScorer(testPipelineConfig())

	inside := domain.Item{Title: "Untitled but long enough", Description: "d", Duration: "PT10M"}
	outside := domain.Item{Title: "Untitled but long enough", Description: "d", Duration: "PT2H30M"}

	resIn, err := scorer.Process(context.Background(), []domain.Item{inside}, nil)
	require.NoError(t, err)
	resOut, err := scorer.Process(context.Background(), []domain.Item{outside}, nil)
	require.NoError(t, err)

	assert.InDelta(t, durationBonus, resIn.Items[0].QualityScore-resOut.Items[0].QualityScore, 0.0001)
}
