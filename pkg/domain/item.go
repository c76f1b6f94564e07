package domain

import "time"

// Item represents a candidate video flowing through the curation pipeline.
// Stages only add to an item; a score set by one stage is overwritten by a
// later stage only with a value computed from strictly more information.
type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Channel     string    `json:"channel"`
	Duration    string    `json:"duration,omitempty"` // encoded form, e.g. PT1H2M3S or 1:02:03
	ViewCount   int64     `json:"view_count,omitempty"`
	Published   time.Time `json:"published,omitempty"`

	// keyword filter
	KeywordRelevance float64 `json:"keyword_relevance,omitempty"`
	Matches          []Match `json:"matches,omitempty"`

	// quality scorer
	QualityScore      float64 `json:"quality_score,omitempty"`
	InterestAlignment float64 `json:"interest_alignment,omitempty"`
	CombinedScore     float64 `json:"combined_score,omitempty"`
	QualityScored     bool    `json:"quality_scored,omitempty"`

	// quick analysis
	QuickScore  float64 `json:"quick_score,omitempty"`
	QuickScored bool    `json:"quick_scored,omitempty"`
	AIAnalyzed  bool    `json:"ai_analyzed,omitempty"`
	Fallback    bool    `json:"fallback,omitempty"`

	// deep analysis
	FinalScore     float64     `json:"final_relevance_score,omitempty"`
	DeepScored     bool        `json:"deep_scored,omitempty"`
	Summary        string      `json:"summary,omitempty"`
	Highlights     []Highlight `json:"highlights,omitempty"`
	KeyPoints      []string    `json:"key_points,omitempty"`
	Categories     []string    `json:"categories,omitempty"`
	Tags           []string    `json:"tags,omitempty"`
	Complexity     string      `json:"complexity,omitempty"`
	Sentiment      string      `json:"sentiment,omitempty"`
	WatchMinutes   int         `json:"estimated_watch_minutes,omitempty"`
	Recommendation string      `json:"recommendation,omitempty"`
	AIProcessed    bool        `json:"ai_processed,omitempty"`

	Stage ProcessingStage `json:"processing_stage,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Match records one interest hit found by the keyword filter, kept for
// explainability and testing.
type Match struct {
	Type     MatchType `json:"type"`
	Term     string    `json:"term"`
	Category string    `json:"category"`
	Priority int       `json:"priority"`
}

// MatchType identifies which level of the interest model produced a match
type MatchType string

// match types, from strongest to weakest signal
const (
	MatchMainInterest       MatchType = "main_interest"
	MatchKeyword            MatchType = "keyword"
	MatchSubcategory        MatchType = "subcategory"
	MatchSubcategoryKeyword MatchType = "subcategory_keyword"
)

// Highlight is a notable moment or claim surfaced by deep analysis
type Highlight struct {
	Text      string  `json:"text"`
	Relevance float64 `json:"relevance"`
	Reason    string  `json:"reason,omitempty"`
}

// ProcessingStage tags how far an item got through the pipeline
type ProcessingStage string

// processing stage tags, exactly one per item leaving the pipeline
const (
	StageComprehensiveAI ProcessingStage = "comprehensive_ai" // completed deep analysis
	StageQuickAI         ProcessingStage = "quick_ai"         // quick analysis only
	StageKeywordFiltered ProcessingStage = "keyword_filtered" // never reached AI stages
	StageFallback        ProcessingStage = "fallback"         // AI stage attempted, fell back
	StageError           ProcessingStage = "error"            // AI stage attempted, failed
	StageFilteredOut     ProcessingStage = "filtered_out"     // below the final cutoff
)

// BestScore returns the most informed relevance score the item carries:
// deep analysis result, then quick score, then the heuristic combined score.
func (i *Item) BestScore() float64 {
	switch {
	case i.DeepScored:
		return i.FinalScore
	case i.QuickScored:
		return i.QuickScore
	case i.QualityScored:
		return i.CombinedScore
	}
	return 0
}

// DurationSeconds parses the item's encoded duration, false if absent or
// unparsable. Unknown duration is not itself disqualifying anywhere.
func (i *Item) DurationSeconds() (int, bool) {
	return ParseDuration(i.Duration)
}
