package domain

import "time"

// StageMetadata describes one stage's execution within a pipeline run
type StageMetadata struct {
	Stage     string    `json:"stage"`
	Timestamp time.Time `json:"timestamp"`
	Processed int       `json:"processed"`      // items the stage received
	Filtered  int       `json:"filtered"`       // items the stage dropped
	Errors    int       `json:"errors"`         // item/batch level failures handled in-stage
	Cost      float64   `json:"cost,omitempty"` // estimated external spend, zero for free stages
	Batches   int       `json:"batches,omitempty"`
	Fallbacks int       `json:"fallbacks,omitempty"`
	Selected  int       `json:"selected,omitempty"` // deep analysis candidates
	Error     string    `json:"error,omitempty"`    // set only when the stage failed fatally
}

// StageResult is what every stage returns: the surviving (possibly enriched)
// items plus metadata. Immutable once returned.
type StageResult struct {
	Items    []Item        `json:"items"`
	Metadata StageMetadata `json:"metadata"`
}

// PipelineResult is the terminal output of one pipeline run
type PipelineResult struct {
	RankedItems    []Item             `json:"ranked_items"`
	TotalCost      float64            `json:"total_cost"`
	CostBreakdown  map[string]float64 `json:"cost_breakdown"`
	StageCounts    map[string]int     `json:"stage_counts"`
	Stages         []StageMetadata    `json:"stages"`
	ProcessingTime time.Duration      `json:"processing_time_ms"`
	CostPerItem    float64            `json:"cost_per_item"`
	Halted         string             `json:"halted_at,omitempty"` // stage name on early halt
}
