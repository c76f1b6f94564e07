package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"

	"github.com/vidscope/vidscope/pkg/domain"
)

// defaultInterestName is the single active interest model slot
const defaultInterestName = "default"

// SaveInterests stores the active interest model, replacing the previous one
func (db *DB) SaveInterests(ctx context.Context, model domain.InterestModel) error {
	data, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("marshal interest model: %w", err)
	}

	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	return retrier.Do(ctx, func() error {
		_, err := db.conn.ExecContext(ctx, `
			INSERT INTO interests (name, model, updated_at)
			VALUES (?, ?, datetime('now'))
			ON CONFLICT(name) DO UPDATE SET model = excluded.model, updated_at = excluded.updated_at
		`, defaultInterestName, string(data))
		if err != nil {
			if isLockError(err) {
				return err // retry
			}
			return &criticalError{err: fmt.Errorf("save interests: %w", err)}
		}
		return nil
	})
}

// GetInterests loads the active interest model. Returns an empty model when
// nothing has been stored yet.
func (db *DB) GetInterests(ctx context.Context) (domain.InterestModel, error) {
	var raw string
	err := db.conn.GetContext(ctx, &raw,
		"SELECT model FROM interests WHERE name = ?", defaultInterestName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.InterestModel{}, nil
		}
		return nil, fmt.Errorf("get interests: %w", err)
	}

	var model domain.InterestModel
	if err := json.Unmarshal([]byte(raw), &model); err != nil {
		return nil, fmt.Errorf("unmarshal interest model: %w", err)
	}
	return model, nil
}
