// Package pipeline implements the cost-aware content analysis cascade:
// free structural and keyword filters narrow the batch before any paid
// scoring, quick analysis scores survivors in cheap batches, and deep
// analysis spends real money only on the top slice.
package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/vidscope/vidscope/pkg/config"
	"github.com/vidscope/vidscope/pkg/domain"
	"github.com/vidscope/vidscope/pkg/interest"
	"github.com/vidscope/vidscope/pkg/llm"
)

// Scorer is the slice of the scoring client the AI stages need
type Scorer interface {
	Batch(ctx context.Context, reqs []llm.BatchRequest) []llm.BatchResult
	EstimateCost(promptLen, responseTokens int, model string) float64
}

// Stage is one step of the cascade. A stage returns its survivors plus
// metadata; returning an error is fatal and halts the pipeline.
type Stage interface {
	Name() string
	Process(ctx context.Context, items []domain.Item, interests domain.InterestModel) (domain.StageResult, error)
}

// Pipeline sequences the stages and finalizes the ranked result set.
// A single run is strictly sequential: each stage's cost depends on the
// precise survivor set of the previous one.
type Pipeline struct {
	cfg    config.PipelineConfig
	stages []Stage
}

// New builds the standard five-stage pipeline on top of a scoring client
func New(cfg config.PipelineConfig, client Scorer) *Pipeline {
	return &Pipeline{
		cfg: cfg,
		stages: []Stage{
			NewBasicFilter(cfg),
			NewKeywordFilter(cfg),
			NewQualityScorer(cfg),
			NewQuickAnalysis(cfg, client),
			NewDeepAnalysis(cfg, client),
		},
	}
}

// NewWithStages builds a pipeline over a custom stage list
func NewWithStages(cfg config.PipelineConfig, stages ...Stage) *Pipeline {
	return &Pipeline{cfg: cfg, stages: stages}
}

// Run executes the cascade over a fresh batch. Interests are normalized
// exactly once here; no stage ever sees the raw input shape. Run never
// fails for ordinary content or scoring trouble - callers inspect stage
// metadata and per-item error fields for degraded results.
func (p *Pipeline) Run(ctx context.Context, items []domain.Item, interests interest.Input) domain.PipelineResult {
	return p.RunModel(ctx, items, interest.Normalize(interests))
}

// RunModel executes the cascade with an already-normalized interest model
func (p *Pipeline) RunModel(ctx context.Context, items []domain.Item, model domain.InterestModel) domain.PipelineResult {
	start := time.Now()
	lgr.Printf("[INFO] pipeline run started: %d items, %d interest categories", len(items), len(model))

	current := items
	metas := make([]domain.StageMetadata, 0, len(p.stages))
	halted := ""

	for _, stage := range p.stages {
		res, err := stage.Process(ctx, current, model)
		if err != nil {
			// fatal stage failure: keep what survived so far, record, halt
			lgr.Printf("[ERROR] stage %s failed, halting pipeline: %v", stage.Name(), err)
			metas = append(metas, domain.StageMetadata{
				Stage:     stage.Name(),
				Timestamp: time.Now(),
				Processed: len(current),
				Error:     err.Error(),
			})
			halted = stage.Name()
			break
		}

		metas = append(metas, res.Metadata)
		current = res.Items

		if len(current) == 0 {
			// an empty survivor set is a short-circuit, not an error
			lgr.Printf("[INFO] no items survived %s, skipping remaining stages", stage.Name())
			break
		}
	}

	result := p.finalize(current, metas, halted, start)
	lgr.Printf("[INFO] pipeline run finished: %d ranked items, cost %.6f, took %v",
		len(result.RankedItems), result.TotalCost, result.ProcessingTime)
	return result
}

// finalize applies the final relevance cutoff, sorts by best-available
// score, and aggregates per-stage cost and counts
func (p *Pipeline) finalize(items []domain.Item, metas []domain.StageMetadata, halted string, start time.Time) domain.PipelineResult {
	ranked := make([]domain.Item, 0, len(items))
	for _, item := range items {
		if item.Stage == "" { // never reached an AI stage
			item.Stage = domain.StageKeywordFiltered
		}
		if item.BestScore() < p.cfg.MinRelevance {
			lgr.Printf("[DEBUG] final cutoff dropped %q: %.2f below %.2f", item.Title, item.BestScore(), p.cfg.MinRelevance)
			continue
		}
		ranked = append(ranked, item)
	}

	sortByBestScore(ranked)

	breakdown := make(map[string]float64, len(metas))
	counts := make(map[string]int, len(metas))
	total := 0.0
	for _, m := range metas {
		breakdown[m.Stage] = m.Cost
		counts[m.Stage] = m.Processed - m.Filtered
		total += m.Cost
	}

	costPerItem := 0.0
	if len(ranked) > 0 {
		costPerItem = total / float64(len(ranked))
	}

	return domain.PipelineResult{
		RankedItems:    ranked,
		TotalCost:      total,
		CostBreakdown:  breakdown,
		StageCounts:    counts,
		Stages:         metas,
		ProcessingTime: time.Since(start),
		CostPerItem:    costPerItem,
		Halted:         halted,
	}
}

// sortByBestScore orders items descending by their most informed score
func sortByBestScore(items []domain.Item) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].BestScore() > items[j].BestScore() })
}
