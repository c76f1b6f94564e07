package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidscope/vidscope/pkg/config"
	"github.com/vidscope/vidscope/pkg/domain"
)

// testPipelineConfig mirrors the documented defaults
func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		MinTitleLength:       10,
		MinDescriptionLength: 50,
		MaxDescriptionLength: 5000,
		MinDurationSeconds:   60,
		MaxDurationSeconds:   10800,
		HighEngagementViews:  50000,
		KeywordMatchMin:      2,
		MinRelevance:         0.3,
		QualityWeight:        0.4,
		RelevanceWeight:      0.4,
		AlignmentWeight:      0.2,
		OptimalDurationMin:   300,
		OptimalDurationMax:   1800,
		QuickBatchSize:       5,
		QuickResponseTokens:  200,
		DeepResponseTokens:   500,
		DeepThreshold:        0.75,
		MaxDeepItems:         8,
	}
}

func longDescription(marker string) string {
	return marker + " " + strings.Repeat("covers the topic in depth with examples. ", 5)
}

func TestBasicFilter(t *testing.T) {
	filter := NewBasicFilter(testPipelineConfig())

	tests := []struct {
		name string
		item domain.Item
		kept bool
	}{
		{
			name: "short title dropped",
			item: domain.Item{Title: "Intro", Description: longDescription("programming tutorial")},
			kept: false,
		},
		{
			name: "good tutorial kept",
			item: domain.Item{Title: "Complete React Hooks Tutorial for Beginners", Description: longDescription("programming tutorial")},
			kept: true,
		},
		{
			name: "quality title exempts short description",
			item: domain.Item{Title: "Complete React Hooks Tutorial for Beginners", Description: ""},
			kept: true,
		},
		{
			name: "short description without exemption dropped",
			item: domain.Item{Title: "My weekend vlog episode twelve", Description: "short"},
			kept: false,
		},
		{
			name: "oversized description dropped",
			item: domain.Item{Title: "Kubernetes Networking Deep Dive", Description: strings.Repeat("x", 6000)},
			kept: false,
		},
		{
			name: "irrelevant keyword dropped",
			item: domain.Item{Title: "Kubernetes Networking Deep Dive", Description: longDescription("giveaway for subscribers")},
			kept: false,
		},
		{
			name: "duration below window dropped",
			item: domain.Item{Title: "Kubernetes Networking Deep Dive", Description: longDescription("engineering"), Duration: "PT30S"},
			kept: false,
		},
		{
			name: "duration above window dropped",
			item: domain.Item{Title: "Kubernetes Networking Deep Dive", Description: longDescription("engineering"), Duration: "PT4H"},
			kept: false,
		},
		{
			name: "unknown duration not disqualifying",
			item: domain.Item{Title: "Kubernetes Networking Deep Dive", Description: longDescription("engineering"), Duration: "soon"},
			kept: true,
		},
		{
			name: "no signal dropped",
			item: domain.Item{Title: "A day in my ordinary life", Description: longDescription("walking around town and drinking coffee"), ViewCount: 100},
			kept: false,
		},
		{
			name: "high engagement passes without terms",
			item: domain.Item{Title: "A day in my ordinary life", Description: longDescription("walking around town and drinking coffee"), ViewCount: 80000},
			kept: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := filter.Process(context.Background(), []domain.Item{tt.item}, nil)
			require.NoError(t, err)
			if tt.kept {
				assert.Len(t, res.Items, 1)
				assert.Equal(t, 0, res.Metadata.Filtered)
			} else {
				assert.Empty(t, res.Items)
				assert.Equal(t, 1, res.Metadata.Filtered)
			}
			assert.Equal(t, 1, res.Metadata.Processed)
			assert.Equal(t, "basic_filter", res.Metadata.Stage)
		})
	}
}

func TestBasicFilter_Narrowing(t *testing.T) {
	items := []domain.Item{
		{Title: "Intro", Description: longDescription("programming")},
		{Title: "Complete React Hooks Tutorial for Beginners", Description: longDescription("programming tutorial")},
		{Title: "Distributed Systems Lecture One", Description: longDescription("consensus algorithms engineering")},
	}

	res, err := NewBasicFilter(testPipelineConfig()).Process(context.Background(), items, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.Items), len(items))
	assert.Len(t, res.Items, 2)
}
