package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/vidscope/vidscope/pkg/config"
	"github.com/vidscope/vidscope/pkg/domain"
)

// weight per match type, multiplied by the owning category's priority
const (
	mainInterestWeight       = 0.10
	keywordWeight            = 0.05
	subcategoryWeight        = 0.08
	subcategoryKeywordWeight = 0.03
)

// KeywordFilter scores items against the interest model with deterministic
// case-insensitive substring matching and drops items below the minimum
// relevance. Survivors carry an itemized match list for explainability.
type KeywordFilter struct {
	cfg config.PipelineConfig
}

// NewKeywordFilter creates the interest-keyword scoring filter
func NewKeywordFilter(cfg config.PipelineConfig) *KeywordFilter {
	return &KeywordFilter{cfg: cfg}
}

// Name returns the stage name used in metadata and cost breakdowns
func (f *KeywordFilter) Name() string { return "keyword_filter" }

// Process scores every item and keeps the ones at or above the minimum relevance
func (f *KeywordFilter) Process(_ context.Context, items []domain.Item, interests domain.InterestModel) (domain.StageResult, error) {
	kept := make([]domain.Item, 0, len(items))

	for _, item := range items {
		score, matches := f.score(&item, interests)
		if score < f.cfg.MinRelevance {
			lgr.Printf("[DEBUG] keyword filter dropped %q: relevance %.2f below %.2f", item.Title, score, f.cfg.MinRelevance)
			continue
		}
		item.KeywordRelevance = score
		item.Matches = matches
		kept = append(kept, item)
	}

	return domain.StageResult{
		Items: kept,
		Metadata: domain.StageMetadata{
			Stage:     f.Name(),
			Timestamp: time.Now(),
			Processed: len(items),
			Filtered:  len(items) - len(kept),
		},
	}, nil
}

// score computes the weighted interest relevance of one item. A match count
// below the configured minimum forces the score to zero so a single
// incidental overlap cannot pass the filter.
func (f *KeywordFilter) score(item *domain.Item, interests domain.InterestModel) (float64, []domain.Match) {
	text := itemText(item.Title, item.Description)

	score := 0.0
	var matches []domain.Match

	for name, in := range interests {
		if strings.Contains(text, strings.ToLower(name)) {
			score += float64(in.Priority) * mainInterestWeight
			matches = append(matches, domain.Match{Type: domain.MatchMainInterest, Term: name, Category: name, Priority: in.Priority})
		}

		for _, kw := range in.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				score += float64(in.Priority) * keywordWeight
				matches = append(matches, domain.Match{Type: domain.MatchKeyword, Term: kw, Category: name, Priority: in.Priority})
			}
		}

		for subName, sub := range in.Subcategories {
			if strings.Contains(text, strings.ToLower(subName)) {
				score += float64(sub.Priority) * subcategoryWeight
				matches = append(matches, domain.Match{Type: domain.MatchSubcategory, Term: subName, Category: name, Priority: sub.Priority})
			}

			for _, kw := range sub.Keywords {
				if strings.Contains(text, strings.ToLower(kw)) {
					score += float64(sub.Priority) * subcategoryKeywordWeight
					matches = append(matches, domain.Match{Type: domain.MatchSubcategoryKeyword, Term: kw, Category: name, Priority: sub.Priority})
				}
			}
		}
	}

	if len(matches) < f.cfg.KeywordMatchMin {
		return 0, matches
	}

	return clampScore(score), matches
}
