package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Run represents one persisted pipeline run
type Run struct {
	ID            int64         `db:"id" json:"id"`
	StartedAt     time.Time     `db:"started_at" json:"started_at"`
	ProcessingMs  int64         `db:"processing_ms" json:"processing_ms"`
	InputCount    int           `db:"input_count" json:"input_count"`
	RankedCount   int           `db:"ranked_count" json:"ranked_count"`
	TotalCost     float64       `db:"total_cost" json:"total_cost"`
	CostPerItem   float64       `db:"cost_per_item" json:"cost_per_item"`
	HaltedStage   string        `db:"halted_stage" json:"halted_stage,omitempty"`
	StageCounts   CountMap      `db:"stage_counts" json:"stage_counts"`
	CostBreakdown CostMap       `db:"cost_breakdown" json:"cost_breakdown"`
	Stages        JSONText      `db:"stages" json:"stages"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// RunItem represents one ranked item of a persisted run
type RunItem struct {
	ID        int64     `db:"id" json:"id"`
	RunID     int64     `db:"run_id" json:"run_id"`
	VideoID   string    `db:"video_id" json:"video_id"`
	Title     string    `db:"title" json:"title"`
	Channel   string    `db:"channel" json:"channel"`
	Position  int       `db:"position" json:"position"`
	BestScore float64   `db:"best_score" json:"best_score"`
	Stage     string    `db:"stage" json:"stage"`
	Payload   JSONText  `db:"payload" json:"payload"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RunStats aggregates persisted runs for the stats endpoint
type RunStats struct {
	Runs        int     `db:"runs" json:"runs"`
	RankedItems int     `db:"ranked_items" json:"ranked_items"`
	TotalCost   float64 `db:"total_cost" json:"total_cost"`
	AvgCost     float64 `db:"avg_cost" json:"avg_cost_per_run"`
}

// JSONText stores raw JSON in a TEXT column
type JSONText []byte

// Value implements driver.Valuer
func (j JSONText) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "null", nil
	}
	if !json.Valid(j) {
		return nil, fmt.Errorf("invalid json payload")
	}
	return string(j), nil
}

// Scan implements sql.Scanner
func (j *JSONText) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*j = nil
	case string:
		*j = []byte(v)
	case []byte:
		*j = append((*j)[:0], v...)
	default:
		return fmt.Errorf("unsupported type for JSONText: %T", value)
	}
	return nil
}

// MarshalJSON emits the stored document as-is
func (j JSONText) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON stores the document as-is
func (j *JSONText) UnmarshalJSON(data []byte) error {
	*j = append((*j)[:0], data...)
	return nil
}

// CountMap stores per-stage survivor counts as a JSON object
type CountMap map[string]int

// Value implements driver.Valuer
func (m CountMap) Value() (driver.Value, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal count map: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (m *CountMap) Scan(value any) error {
	return scanJSON(value, m)
}

// CostMap stores per-stage cost totals as a JSON object
type CostMap map[string]float64

// Value implements driver.Valuer
func (m CostMap) Value() (driver.Value, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal cost map: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (m *CostMap) Scan(value any) error {
	return scanJSON(value, m)
}

func scanJSON(value, target any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return json.Unmarshal([]byte(v), target)
	case []byte:
		return json.Unmarshal(v, target)
	default:
		return fmt.Errorf("unsupported type for json column: %T", value)
	}
}
