package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"

	"github.com/vidscope/vidscope/pkg/domain"
)

// SaveRun persists a completed pipeline run with its ranked items in one
// transaction. Retries on SQLite lock errors since the scheduler and
// API-triggered runs may write concurrently.
func (db *DB) SaveRun(ctx context.Context, startedAt time.Time, inputCount int, result *domain.PipelineResult) (int64, error) {
	stages, err := json.Marshal(result.Stages)
	if err != nil {
		return 0, fmt.Errorf("marshal stage metadata: %w", err)
	}

	run := Run{
		StartedAt:     startedAt,
		ProcessingMs:  result.ProcessingTime.Milliseconds(),
		InputCount:    inputCount,
		RankedCount:   len(result.RankedItems),
		TotalCost:     result.TotalCost,
		CostPerItem:   result.CostPerItem,
		HaltedStage:   result.Halted,
		StageCounts:   CountMap(result.StageCounts),
		CostBreakdown: CostMap(result.CostBreakdown),
		Stages:        stages,
	}

	var runID int64
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))

	err = retrier.Do(ctx, func() error {
		return db.InTransaction(ctx, func(tx *sqlx.Tx) error {
			res, err := tx.NamedExecContext(ctx, `
				INSERT INTO runs (started_at, processing_ms, input_count, ranked_count,
				                  total_cost, cost_per_item, halted_stage, stage_counts, cost_breakdown, stages)
				VALUES (:started_at, :processing_ms, :input_count, :ranked_count,
				        :total_cost, :cost_per_item, :halted_stage, :stage_counts, :cost_breakdown, :stages)
			`, run)
			if err != nil {
				if isLockError(err) {
					return err // retry
				}
				return &criticalError{err: fmt.Errorf("insert run: %w", err)}
			}

			id, err := res.LastInsertId()
			if err != nil {
				return &criticalError{err: fmt.Errorf("get run id: %w", err)}
			}
			runID = id

			for pos, item := range result.RankedItems {
				payload, err := json.Marshal(item)
				if err != nil {
					return &criticalError{err: fmt.Errorf("marshal item %s: %w", item.ID, err)}
				}
				_, err = tx.ExecContext(ctx, `
					INSERT INTO run_items (run_id, video_id, title, channel, position, best_score, stage, payload)
					VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				`, runID, item.ID, item.Title, item.Channel, pos, item.BestScore(), string(item.Stage), payload)
				if err != nil {
					if isLockError(err) {
						return err // retry
					}
					return &criticalError{err: fmt.Errorf("insert run item %s: %w", item.ID, err)}
				}
			}
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("save run: %w", err)
	}
	return runID, nil
}

// GetRun retrieves a single run by ID
func (db *DB) GetRun(ctx context.Context, id int64) (*Run, error) {
	var run Run
	err := db.conn.GetContext(ctx, &run, "SELECT * FROM runs WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %d not found", id)
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &run, nil
}

// GetRuns retrieves the most recent runs
func (db *DB) GetRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []Run
	err := db.conn.SelectContext(ctx, &runs,
		"SELECT * FROM runs ORDER BY started_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("get runs: %w", err)
	}
	return runs, nil
}

// GetRunItems retrieves the ranked items of a run in their final order
func (db *DB) GetRunItems(ctx context.Context, runID int64) ([]domain.Item, error) {
	var rows []RunItem
	err := db.conn.SelectContext(ctx, &rows,
		"SELECT * FROM run_items WHERE run_id = ? ORDER BY position", runID)
	if err != nil {
		return nil, fmt.Errorf("get run items: %w", err)
	}

	items := make([]domain.Item, 0, len(rows))
	for _, row := range rows {
		var item domain.Item
		if err := json.Unmarshal(row.Payload, &item); err != nil {
			return nil, fmt.Errorf("unmarshal run item %d: %w", row.ID, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// GetStats aggregates persisted runs
func (db *DB) GetStats(ctx context.Context) (*RunStats, error) {
	var stats RunStats
	err := db.conn.GetContext(ctx, &stats, `
		SELECT COUNT(*) AS runs,
		       COALESCE(SUM(ranked_count), 0) AS ranked_items,
		       COALESCE(SUM(total_cost), 0) AS total_cost,
		       COALESCE(AVG(total_cost), 0) AS avg_cost
		FROM runs
	`)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &stats, nil
}
