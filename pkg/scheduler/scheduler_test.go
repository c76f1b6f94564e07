package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidscope/vidscope/pkg/domain"
)

type mockSource struct {
	items []domain.Item
	err   error
	calls atomic.Int32
}

func (m *mockSource) Fetch(context.Context) ([]domain.Item, error) {
	m.calls.Add(1)
	return m.items, m.err
}

type mockCurator struct {
	result *domain.PipelineResult
	calls  atomic.Int32
}

func (m *mockCurator) RunModel(_ context.Context, items []domain.Item, _ domain.InterestModel) domain.PipelineResult {
	m.calls.Add(1)
	if m.result != nil {
		return *m.result
	}
	return domain.PipelineResult{RankedItems: items}
}

type mockStore struct {
	mu     sync.Mutex
	model  domain.InterestModel
	getErr error
	runs   []int
	nextID int64
}

func (m *mockStore) GetInterests(context.Context) (domain.InterestModel, error) {
	return m.model, m.getErr
}

func (m *mockStore) SaveRun(_ context.Context, _ time.Time, inputCount int, _ *domain.PipelineResult) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, inputCount)
	m.nextID++
	return m.nextID, nil
}

func testModel() domain.InterestModel {
	return domain.InterestModel{"Programming": {Priority: 8, Keywords: []string{"go"}}}
}

func TestScheduler_RunsImmediatelyOnStart(t *testing.T) {
	source := &mockSource{items: []domain.Item{{ID: "v1", Title: "Go talk"}}}
	curator := &mockCurator{}
	store := &mockStore{model: testModel()}

	s := NewScheduler(source, curator, store, Config{CurateInterval: time.Hour})
	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		return curator.calls.Load() == 1
	}, time.Second, 10*time.Millisecond, "first run happens without waiting for the ticker")

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.runs, 1)
	assert.Equal(t, 1, store.runs[0])
}

func TestScheduler_CurateNow(t *testing.T) {
	source := &mockSource{items: []domain.Item{{ID: "v1"}, {ID: "v2"}}}
	curator := &mockCurator{result: &domain.PipelineResult{
		RankedItems: []domain.Item{{ID: "v1"}},
		TotalCost:   0.001,
	}}
	store := &mockStore{model: testModel()}

	s := NewScheduler(source, curator, store, Config{CurateInterval: time.Hour})

	runID, result, err := s.CurateNow(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, runID)
	require.NotNil(t, result)
	assert.Len(t, result.RankedItems, 1)
}

func TestScheduler_SkipsWithoutInterests(t *testing.T) {
	source := &mockSource{items: []domain.Item{{ID: "v1"}}}
	curator := &mockCurator{}
	store := &mockStore{} // no model stored

	s := NewScheduler(source, curator, store, Config{CurateInterval: time.Hour})

	runID, result, err := s.CurateNow(context.Background())
	require.NoError(t, err, "missing model is a skip, not an error")
	assert.Zero(t, runID)
	assert.Nil(t, result)
	assert.Zero(t, source.calls.Load(), "nothing fetched without a model")
	assert.Zero(t, curator.calls.Load())
}

func TestScheduler_SkipsEmptyFetch(t *testing.T) {
	source := &mockSource{} // no items
	curator := &mockCurator{}
	store := &mockStore{model: testModel()}

	s := NewScheduler(source, curator, store, Config{CurateInterval: time.Hour})

	runID, _, err := s.CurateNow(context.Background())
	require.NoError(t, err)
	assert.Zero(t, runID)
	assert.Zero(t, curator.calls.Load())
}

func TestScheduler_FetchErrorPropagates(t *testing.T) {
	source := &mockSource{err: errors.New("network down")}
	curator := &mockCurator{}
	store := &mockStore{model: testModel()}

	s := NewScheduler(source, curator, store, Config{CurateInterval: time.Hour})

	_, _, err := s.CurateNow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch candidates")
	assert.Zero(t, curator.calls.Load())
}

func TestScheduler_StopWaitsForWorker(t *testing.T) {
	source := &mockSource{items: []domain.Item{{ID: "v1"}}}
	curator := &mockCurator{}
	store := &mockStore{model: testModel()}

	s := NewScheduler(source, curator, store, Config{CurateInterval: 20 * time.Millisecond})
	s.Start(context.Background())

	require.Eventually(t, func() bool {
		return curator.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond, "ticker fires repeat runs")

	s.Stop()
	after := curator.calls.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, after, curator.calls.Load(), "no runs after stop")
}

func TestScheduler_DefaultInterval(t *testing.T) {
	s := NewScheduler(&mockSource{}, &mockCurator{}, &mockStore{}, Config{})
	assert.Equal(t, 30*time.Minute, s.interval)
}
