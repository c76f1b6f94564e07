package pipeline

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/vidscope/vidscope/pkg/config"
	"github.com/vidscope/vidscope/pkg/domain"
)

// capped contributions to the quality score
const (
	qualityHitBonus     = 0.10
	qualityHitCap       = 0.30
	domainHitBonus      = 0.10
	domainHitCap        = 0.30
	engagementBonusHigh = 0.20
	engagementBonusMid  = 0.10
	durationBonus       = 0.20
)

// defaultAlignment is used when the caller supplied no interests at all
const defaultAlignment = 0.5

// QualityScorer ranks survivors by a blended quality, relevance, and
// alignment score. It never drops items; its descending order is the basis
// for top-N selection downstream.
type QualityScorer struct {
	cfg config.PipelineConfig
}

// NewQualityScorer creates the heuristic quality ranker
func NewQualityScorer(cfg config.PipelineConfig) *QualityScorer {
	return &QualityScorer{cfg: cfg}
}

// Name returns the stage name used in metadata and cost breakdowns
func (s *QualityScorer) Name() string { return "quality_scorer" }

// Process scores every item and returns them sorted by combined score, descending
func (s *QualityScorer) Process(_ context.Context, items []domain.Item, interests domain.InterestModel) (domain.StageResult, error) {
	scored := make([]domain.Item, 0, len(items))

	for _, item := range items {
		item.QualityScore = s.qualityScore(&item)
		item.InterestAlignment = alignment(&item, interests)
		item.CombinedScore = clampScore(item.QualityScore*s.cfg.QualityWeight +
			item.KeywordRelevance*s.cfg.RelevanceWeight +
			item.InterestAlignment*s.cfg.AlignmentWeight)
		item.QualityScored = true
		scored = append(scored, item)
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].CombinedScore > scored[j].CombinedScore })

	return domain.StageResult{
		Items: scored,
		Metadata: domain.StageMetadata{
			Stage:     s.Name(),
			Timestamp: time.Now(),
			Processed: len(items),
		},
	}, nil
}

// qualityScore blends term hits, engagement tier, and duration sweet spot,
// each contribution capped so the total stays within [0,1]
func (s *QualityScorer) qualityScore(item *domain.Item) float64 {
	text := itemText(item.Title, item.Description)

	score := min(float64(countMatches(text, qualityIndicators))*qualityHitBonus, qualityHitCap)
	score += min(float64(countMatches(text, professionalTerms))*domainHitBonus, domainHitCap)

	switch {
	case item.ViewCount > s.cfg.HighEngagementViews:
		score += engagementBonusHigh
	case item.ViewCount > s.cfg.HighEngagementViews/10:
		score += engagementBonusMid
	}

	if secs, ok := item.DurationSeconds(); ok {
		if secs >= s.cfg.OptimalDurationMin && secs <= s.cfg.OptimalDurationMax {
			score += durationBonus
		}
	}

	return clampScore(score)
}

// alignment is the priority-weighted fraction of interest categories whose
// name appears in the item text
func alignment(item *domain.Item, interests domain.InterestModel) float64 {
	total := interests.TotalPriority()
	if total == 0 {
		return defaultAlignment
	}

	text := itemText(item.Title, item.Description)
	hit := 0
	for name, in := range interests {
		if strings.Contains(text, strings.ToLower(name)) {
			hit += in.Priority
		}
	}

	return clampScore(float64(hit) / float64(total))
}
