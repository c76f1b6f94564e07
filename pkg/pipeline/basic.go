package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/vidscope/vidscope/pkg/config"
	"github.com/vidscope/vidscope/pkg/domain"
)

// BasicFilter eliminates structurally poor or topically disqualified items
// for zero cost. Rejection is filtering, not erroring: a dropped item leaves
// at most a debug trace.
type BasicFilter struct {
	cfg config.PipelineConfig
}

// NewBasicFilter creates the free admission filter
func NewBasicFilter(cfg config.PipelineConfig) *BasicFilter {
	return &BasicFilter{cfg: cfg}
}

// Name returns the stage name used in metadata and cost breakdowns
func (f *BasicFilter) Name() string { return "basic_filter" }

// Process applies the admission rules to every item, short-circuiting per
// item on the first failed rule
func (f *BasicFilter) Process(_ context.Context, items []domain.Item, _ domain.InterestModel) (domain.StageResult, error) {
	kept := make([]domain.Item, 0, len(items))

	for _, item := range items {
		if reason := f.reject(&item); reason != "" {
			lgr.Printf("[DEBUG] basic filter dropped %q: %s", item.Title, reason)
			continue
		}
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

// reject returns the first failed rule's reason, empty when the item is admitted
func (f *BasicFilter) reject(item *domain.Item) string {
	if len(item.Title) < f.cfg.MinTitleLength {
		return fmt.Sprintf("title shorter than %d chars", f.cfg.MinTitleLength)
	}

	// a quality or professional term in the title exempts the item from the
	// minimum description length
	titleText := strings.ToLower(item.Title)
	minDesc := f.cfg.MinDescriptionLength
	if containsAny(titleText, qualityIndicators) || containsAny(titleText, professionalTerms) {
		minDesc = 0
	}

	if len(item.Description) < minDesc {
		return fmt.Sprintf("description shorter than %d chars", minDesc)
	}
	if len(item.Description) > f.cfg.MaxDescriptionLength {
		return fmt.Sprintf("description longer than %d chars", f.cfg.MaxDescriptionLength)
	}

	text := itemText(item.Title, item.Description)
	if containsAny(text, irrelevantKeywords) {
		return "contains irrelevant keyword"
	}

	// absent or unparsable duration is not disqualifying
	if secs, ok := item.DurationSeconds(); ok {
		if secs < f.cfg.MinDurationSeconds || secs > f.cfg.MaxDurationSeconds {
			return fmt.Sprintf("duration %ds outside [%d,%d]", secs, f.cfg.MinDurationSeconds, f.cfg.MaxDurationSeconds)
		}
	}

	if !containsAny(text, qualityIndicators) && !containsAny(text, professionalTerms) &&
		item.ViewCount <= f.cfg.HighEngagementViews {
		return "no quality, domain, or engagement signal"
	}

	return ""
}
