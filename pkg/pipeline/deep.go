package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/vidscope/vidscope/pkg/config"
	"github.com/vidscope/vidscope/pkg/domain"
	"github.com/vidscope/vidscope/pkg/llm"
)

const deepSystemPrompt = `You are a content analyst producing detailed video assessments for a personal curation system. Respond with a single JSON object containing: relevance_score (0.0-1.0), summary (2-3 sentences), highlights (3-5 objects with text, relevance 0.0-1.0, reason), key_points (array of strings), categories (up to 3 strings), tags (array of strings), complexity (beginner|intermediate|advanced), sentiment (positive|neutral|negative), estimated_watch_minutes (integer), recommendation (one sentence on why the viewer should or should not watch).`

// bounds applied to deep analysis responses
const (
	deepDescriptionLimit = 1000
	maxHighlights        = 5
	maxKeyPoints         = 10
	maxTags              = 15
	maxCategories        = 3
)

// DeepAnalysis runs expensive per-item analysis for the top slice of the
// batch. Non-selected items pass through unchanged; a failed item falls back
// to its prior score and the loop continues.
type DeepAnalysis struct {
	cfg    config.PipelineConfig
	client Scorer
}

// NewDeepAnalysis creates the per-item detailed analysis stage
func NewDeepAnalysis(cfg config.PipelineConfig, client Scorer) *DeepAnalysis {
	return &DeepAnalysis{cfg: cfg, client: client}
}

// Name returns the stage name used in metadata and cost breakdowns
func (d *DeepAnalysis) Name() string { return "deep_analysis" }

// Process selects the top-N items at or above the deep threshold, analyzes
// each with one request, and merges them back with the pass-through rest
func (d *DeepAnalysis) Process(ctx context.Context, items []domain.Item, _ domain.InterestModel) (domain.StageResult, error) {
	selected, rest := d.selectCandidates(items)

	out := make([]domain.Item, 0, len(items))
	out = append(out, rest...)

	cost := 0.0
	errCount := 0

	if len(selected) > 0 {
		reqs := make([]llm.BatchRequest, 0, len(selected))
		promptLens := make([]int, 0, len(selected))
		for _, item := range selected {
			prompt := d.buildPrompt(&item)
			reqs = append(reqs, llm.BatchRequest{
				Messages: []llm.Message{
					{Role: llm.RoleSystem, Content: deepSystemPrompt},
					{Role: llm.RoleUser, Content: prompt},
				},
				MaxTokens: d.cfg.DeepResponseTokens,
			})
			promptLens = append(promptLens, len(deepSystemPrompt)+len(prompt))
		}

		results := d.client.Batch(ctx, reqs)

		for i, item := range selected {
			if err := d.apply(&item, results[i]); err != nil {
				lgr.Printf("[WARN] deep analysis failed for %q: %v", item.Title, err)
				errCount++
				item.FinalScore = item.BestScore()
				item.AIProcessed = false
				item.Stage = domain.StageError
				item.Error = err.Error()
			} else {
				cost += d.client.EstimateCost(promptLens[i], d.cfg.DeepResponseTokens, "")
			}
			out = append(out, item)
		}
	}

	return domain.StageResult{
		Items: out,
		Metadata: domain.StageMetadata{
			Stage:     d.Name(),
			Timestamp: time.Now(),
			Processed: len(items),
			Errors:    errCount,
			Cost:      cost,
			Selected:  len(selected),
		},
	}, nil
}

// selectCandidates keeps items at or above the deep threshold, sorted
// descending, capped at the configured maximum
func (d *DeepAnalysis) selectCandidates(items []domain.Item) (selected, rest []domain.Item) {
	candidates := make([]domain.Item, 0, len(items))
	rest = make([]domain.Item, 0, len(items))

	for _, item := range items {
		if item.BestScore() >= d.cfg.DeepThreshold {
			candidates = append(candidates, item)
			continue
		}
		rest = append(rest, item)
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].BestScore() > candidates[j].BestScore() })

	if len(candidates) > d.cfg.MaxDeepItems {
		rest = append(rest, candidates[d.cfg.MaxDeepItems:]...)
		candidates = candidates[:d.cfg.MaxDeepItems]
	}

	return candidates, rest
}

// deepResponse is the structured payload expected from the model
type deepResponse struct {
	RelevanceScore        *float64           `json:"relevance_score"`
	Summary               string             `json:"summary"`
	Highlights            []domain.Highlight `json:"highlights"`
	KeyPoints             []string           `json:"key_points"`
	Categories            []string           `json:"categories"`
	Tags                  []string           `json:"tags"`
	Complexity            string             `json:"complexity"`
	Sentiment             string             `json:"sentiment"`
	EstimatedWatchMinutes int                `json:"estimated_watch_minutes"`
	Recommendation        string             `json:"recommendation"`
}

// apply validates the response field by field and enriches the item,
// defaulting what is missing instead of failing on partial payloads
func (d *DeepAnalysis) apply(item *domain.Item, res llm.BatchResult) error {
	if res.Err != nil {
		return res.Err
	}

	var resp deepResponse
	if err := llm.ParseJSON(res.Content, &resp); err != nil {
		return err
	}

	// a missing relevance score falls back to the item's prior combined score
	if resp.RelevanceScore != nil {
		item.FinalScore = clampScore(*resp.RelevanceScore)
	} else {
		item.FinalScore = item.CombinedScore
	}

	item.Summary = resp.Summary
	item.Highlights = clampHighlights(resp.Highlights)
	item.KeyPoints = capList(resp.KeyPoints, maxKeyPoints)
	item.Categories = capList(resp.Categories, maxCategories)
	item.Tags = capList(resp.Tags, maxTags)
	item.Complexity = resp.Complexity
	item.Sentiment = resp.Sentiment
	item.WatchMinutes = resp.EstimatedWatchMinutes
	item.Recommendation = resp.Recommendation

	item.DeepScored = true
	item.AIProcessed = true
	item.Stage = domain.StageComprehensiveAI

	return nil
}

// buildPrompt packs the item's metadata and prior signals into one request
func (d *DeepAnalysis) buildPrompt(item *domain.Item) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Title: %s\n", item.Title))
	if item.Channel != "" {
		sb.WriteString(fmt.Sprintf("Channel: %s\n", item.Channel))
	}
	if item.Duration != "" {
		sb.WriteString(fmt.Sprintf("Duration: %s\n", item.Duration))
	}
	if item.ViewCount > 0 {
		sb.WriteString(fmt.Sprintf("Views: %d\n", item.ViewCount))
	}
	sb.WriteString(fmt.Sprintf("Prior quality score: %.2f\n", item.QualityScore))
	if item.Description != "" {
		sb.WriteString(fmt.Sprintf("Description: %s\n", truncate(item.Description, deepDescriptionLimit)))
	}

	sb.WriteString("\nAnalyze this video and respond with the JSON object described in the system prompt.")
	return sb.String()
}

// clampHighlights caps the list and keeps each relevance within [0,1]
func clampHighlights(hs []domain.Highlight) []domain.Highlight {
	if hs == nil {
		return []domain.Highlight{}
	}
	if len(hs) > maxHighlights {
		hs = hs[:maxHighlights]
	}
	for i := range hs {
		hs[i].Relevance = clampScore(hs[i].Relevance)
	}
	return hs
}

// capList bounds a string list, mapping nil to empty
func capList(list []string, limit int) []string {
	if list == nil {
		return []string{}
	}
	if len(list) > limit {
		return list[:limit]
	}
	return list
}
