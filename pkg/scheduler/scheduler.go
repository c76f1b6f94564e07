// Package scheduler drives periodic curation runs: fetch candidates from the
// configured feeds, run them through the pipeline against the stored interest
// model, and persist the ranked result.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/vidscope/vidscope/pkg/domain"
)

// Source provides candidate videos for a run
type Source interface {
	Fetch(ctx context.Context) ([]domain.Item, error)
}

// Curator runs the scoring pipeline over a candidate batch
type Curator interface {
	RunModel(ctx context.Context, items []domain.Item, model domain.InterestModel) domain.PipelineResult
}

// Store persists runs and holds the active interest model
type Store interface {
	GetInterests(ctx context.Context) (domain.InterestModel, error)
	SaveRun(ctx context.Context, startedAt time.Time, inputCount int, result *domain.PipelineResult) (int64, error)
}

// Scheduler manages periodic curation runs
type Scheduler struct {
	source   Source
	curator  Curator
	store    Store
	interval time.Duration

	wg      sync.WaitGroup
	cancel  context.CancelFunc
	runLock sync.Mutex // one curation run at a time, scheduled or triggered
}

// Config holds scheduler configuration
type Config struct {
	CurateInterval time.Duration
}

// NewScheduler creates a new scheduler instance
func NewScheduler(source Source, curator Curator, store Store, cfg Config) *Scheduler {
	if cfg.CurateInterval == 0 {
		cfg.CurateInterval = 30 * time.Minute
	}
	return &Scheduler{
		source:   source,
		curator:  curator,
		store:    store,
		interval: cfg.CurateInterval,
	}
}

// Start begins the curation worker. The first run happens immediately.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.curationWorker(ctx)

	lgr.Printf("[INFO] scheduler started with curate interval %v", s.interval)
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	lgr.Printf("[INFO] stopping scheduler...")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

// curationWorker runs curation on the configured interval
func (s *Scheduler) curationWorker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// run immediately on start
	if _, err := s.curate(ctx); err != nil {
		lgr.Printf("[ERROR] initial curation run failed: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.curate(ctx); err != nil {
				lgr.Printf("[ERROR] curation run failed: %v", err)
			}
		}
	}
}

// CurateNow triggers an immediate curation run, serialized with the
// scheduled ones. Returns the persisted run ID and its result.
func (s *Scheduler) CurateNow(ctx context.Context) (int64, *domain.PipelineResult, error) {
	lgr.Printf("[INFO] triggered immediate curation run")
	return s.curateWithResult(ctx)
}

func (s *Scheduler) curate(ctx context.Context) (int64, error) {
	runID, _, err := s.curateWithResult(ctx)
	return runID, err
}

func (s *Scheduler) curateWithResult(ctx context.Context) (int64, *domain.PipelineResult, error) {
	s.runLock.Lock()
	defer s.runLock.Unlock()

	started := time.Now()

	model, err := s.store.GetInterests(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("load interest model: %w", err)
	}
	if len(model) == 0 {
		lgr.Printf("[WARN] no interest model stored, skipping curation run")
		return 0, nil, nil
	}

	items, err := s.source.Fetch(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("fetch candidates: %w", err)
	}
	if len(items) == 0 {
		lgr.Printf("[INFO] no candidates fetched, skipping curation run")
		return 0, nil, nil
	}

	result := s.curator.RunModel(ctx, items, model)

	runID, err := s.store.SaveRun(ctx, started, len(items), &result)
	if err != nil {
		return 0, nil, fmt.Errorf("save run: %w", err)
	}

	lgr.Printf("[INFO] curation run %d: %d candidates -> %d ranked, cost $%.6f in %v",
		runID, len(items), len(result.RankedItems), result.TotalCost, result.ProcessingTime)
	return runID, &result, nil
}
