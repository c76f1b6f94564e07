package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/vidscope/vidscope/pkg/config"
	"github.com/vidscope/vidscope/pkg/domain"
	"github.com/vidscope/vidscope/pkg/llm"
)

const quickSystemPrompt = `You are a content relevance scorer. Given a numbered list of videos and the viewer's interests, rate how relevant each video is to the viewer on a 0.0 to 1.0 scale. Respond with a JSON array of numbers only, one per video, in the same order as the list.`

// quickDescriptionLimit bounds how much description goes into a batch prompt
const quickDescriptionLimit = 200

// QuickAnalysis performs cheap, batched plausibility scoring: many items per
// external call. A failed batch falls back to the items' combined scores and
// never aborts the stage.
type QuickAnalysis struct {
	cfg    config.PipelineConfig
	client Scorer
}

// NewQuickAnalysis creates the batched scoring stage
func NewQuickAnalysis(cfg config.PipelineConfig, client Scorer) *QuickAnalysis {
	return &QuickAnalysis{cfg: cfg, client: client}
}

// Name returns the stage name used in metadata and cost breakdowns
func (q *QuickAnalysis) Name() string { return "quick_analysis" }

// Process partitions items into fixed-size batches and scores each batch
// with a single request. Output length always equals input length.
func (q *QuickAnalysis) Process(ctx context.Context, items []domain.Item, interests domain.InterestModel) (domain.StageResult, error) {
	if len(items) == 0 {
		return domain.StageResult{
			Items:    []domain.Item{},
			Metadata: domain.StageMetadata{Stage: q.Name(), Timestamp: time.Now()},
		}, nil
	}

	batches := partition(items, q.cfg.QuickBatchSize)
	reqs := make([]llm.BatchRequest, 0, len(batches))
	promptLens := make([]int, 0, len(batches))
	for _, batch := range batches {
		prompt := q.buildPrompt(batch, interests)
		reqs = append(reqs, llm.BatchRequest{
			Messages: []llm.Message{
				{Role: llm.RoleSystem, Content: quickSystemPrompt},
				{Role: llm.RoleUser, Content: prompt},
			},
			MaxTokens: q.cfg.QuickResponseTokens,
		})
		promptLens = append(promptLens, len(quickSystemPrompt)+len(prompt))
	}

	results := q.client.Batch(ctx, reqs)

	out := make([]domain.Item, 0, len(items))
	cost := 0.0
	errCount, fallbacks := 0, 0

	for i, batch := range batches {
		scores, err := q.batchScores(results[i], len(batch))
		if err != nil {
			lgr.Printf("[WARN] quick analysis batch %d/%d failed, falling back to combined scores: %v", i+1, len(batches), err)
			errCount++
			fallbacks += len(batch)
			out = append(out, fallbackBatch(batch)...)
			continue
		}

		cost += q.client.EstimateCost(promptLens[i], q.cfg.QuickResponseTokens, "")
		for j, item := range batch {
			item.QuickScore = clampScore(scores[j])
			item.QuickScored = true
			item.AIAnalyzed = true
			item.Stage = domain.StageQuickAI
			out = append(out, item)
		}
	}

	return domain.StageResult{
		Items: out,
		Metadata: domain.StageMetadata{
			Stage:     q.Name(),
			Timestamp: time.Now(),
			Processed: len(items),
			Errors:    errCount,
			Cost:      cost,
			Batches:   len(batches),
			Fallbacks: fallbacks,
		},
	}, nil
}

// batchScores validates one batch response: a JSON array of exactly one
// score per item
func (q *QuickAnalysis) batchScores(res llm.BatchResult, want int) ([]float64, error) {
	if res.Err != nil {
		return nil, res.Err
	}

	var scores []float64
	if err := llm.ParseJSON(res.Content, &scores); err != nil {
		return nil, err
	}
	if len(scores) != want {
		return nil, &llm.ParseError{Reason: fmt.Sprintf("expected %d scores, got %d", want, len(scores))}
	}
	return scores, nil
}

// buildPrompt lists the batch items with the viewer's interests
func (q *QuickAnalysis) buildPrompt(batch []domain.Item, interests domain.InterestModel) string {
	var sb strings.Builder

	if len(interests) > 0 {
		sb.WriteString("Viewer interests (name, priority 1-10):\n")
		for name, in := range interests {
			sb.WriteString(fmt.Sprintf("- %s (%d)", name, in.Priority))
			if len(in.Keywords) > 0 {
				sb.WriteString(": " + strings.Join(in.Keywords, ", "))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Videos:\n")
	for i, item := range batch {
		sb.WriteString(fmt.Sprintf("%d. Title: %s\n", i+1, item.Title))
		if item.Channel != "" {
			sb.WriteString(fmt.Sprintf("   Channel: %s\n", item.Channel))
		}
		if item.Description != "" {
			sb.WriteString(fmt.Sprintf("   Description: %s\n", truncate(item.Description, quickDescriptionLimit)))
		}
	}

	sb.WriteString(fmt.Sprintf("\nRespond with a JSON array of %d numbers between 0 and 1.", len(batch)))
	return sb.String()
}

// fallbackBatch marks a failed batch's items with their combined scores
func fallbackBatch(batch []domain.Item) []domain.Item {
	out := make([]domain.Item, 0, len(batch))
	for _, item := range batch {
		item.QuickScore = item.CombinedScore
		item.QuickScored = true
		item.AIAnalyzed = false
		item.Fallback = true
		item.Stage = domain.StageFallback
		out = append(out, item)
	}
	return out
}

// partition splits items into slices of at most size elements
func partition(items []domain.Item, size int) [][]domain.Item {
	if size < 1 {
		size = 1
	}
	var batches [][]domain.Item
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}

// truncate bounds a string, marking the cut
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
