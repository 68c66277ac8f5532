package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/anhbaysgalan1/leaderboardd/internal/models"
	"github.com/anhbaysgalan1/leaderboardd/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory Store honoring the same contract as the
// postgres implementation: per-id atomic upsert-and-apply, reads never
// create records.
type fakeStore struct {
	mu      sync.Mutex
	records map[int64]*models.PlayerRecord
	failOn  map[int64]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records: make(map[int64]*models.PlayerRecord),
		failOn:  make(map[int64]error),
	}
}

func (f *fakeStore) UpsertAndApply(ctx context.Context, id int64, spec store.UpdateSpec) (*models.PlayerRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failOn[id]; err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	record, exists := f.records[id]
	if !exists {
		record = &models.PlayerRecord{ID: id}
		for field, value := range spec.SetOnInsert {
			*fieldPtr(record, field) = value
		}
		f.records[id] = record
	}

	for field, value := range spec.Inc {
		*fieldPtr(record, field) += value
	}
	for field, value := range spec.Set {
		*fieldPtr(record, field) = value
	}
	record.LastUpdated = time.Now().UTC()

	copied := *record
	return &copied, nil
}

func (f *fakeStore) Get(ctx context.Context, id int64) (*models.PlayerRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, exists := f.records[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (f *fakeStore) TopN(ctx context.Context, field string, n int) ([]models.PlayerRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all := make([]models.PlayerRecord, 0, len(f.records))
	for _, record := range f.records {
		all = append(all, *record)
	}
	sort.Slice(all, func(i, j int) bool {
		vi, vj := *fieldPtr(&all[i], field), *fieldPtr(&all[j], field)
		if vi != vj {
			return vi > vj
		}
		return all[i].ID < all[j].ID
	})
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func (f *fakeStore) SetFieldAll(ctx context.Context, field string, value int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, record := range f.records {
		*fieldPtr(record, field) = value
		record.LastUpdated = time.Now().UTC()
	}
	return nil
}

func fieldPtr(record *models.PlayerRecord, field string) *int64 {
	switch field {
	case store.FieldOverall:
		return &record.OverallScore
	case store.FieldWeekly:
		return &record.WeeklyScore
	case store.FieldMonthly:
		return &record.MonthlyScore
	case store.FieldLevel:
		return &record.Level
	default:
		panic("unknown field " + field)
	}
}

func newTestService() (*LeaderboardService, *fakeStore) {
	fake := newFakeStore()
	return NewLeaderboardService(fake, nil), fake
}

func TestGetByIDBeforeAnyWrite(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.GetByID(context.Background(), 12345)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateScoreCreatesRecordWithDefaults(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	record, err := svc.UpdateScore(ctx, 1, 7)
	require.NoError(t, err)

	assert.Equal(t, int64(7), record.OverallScore)
	assert.Equal(t, int64(7), record.WeeklyScore)
	assert.Equal(t, int64(7), record.MonthlyScore)
	assert.Equal(t, int64(0), record.Level)
	assert.False(t, record.LastUpdated.IsZero())

	fetched, err := svc.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, record.OverallScore, fetched.OverallScore)
}

func TestUpdateScoreAcceptsNegativeAndZero(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.UpdateScore(ctx, 1, 10)
	require.NoError(t, err)

	record, err := svc.UpdateScore(ctx, 1, -4)
	require.NoError(t, err)
	assert.Equal(t, int64(6), record.OverallScore)

	record, err = svc.UpdateScore(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(6), record.OverallScore)
}

func TestSetLevelCreatesRecordWithZeroScores(t *testing.T) {
	svc, _ := newTestService()

	record, err := svc.SetLevel(context.Background(), 2, 5)
	require.NoError(t, err)

	assert.Equal(t, int64(5), record.Level)
	assert.Equal(t, int64(0), record.OverallScore)
	assert.Equal(t, int64(0), record.WeeklyScore)
	assert.Equal(t, int64(0), record.MonthlyScore)
}

func TestIncrementLevel(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	record, err := svc.IncrementLevel(ctx, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), record.Level)

	record, err = svc.IncrementLevel(ctx, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), record.Level)
	assert.Equal(t, int64(0), record.OverallScore)
}

func TestSetGlobalScoreIsIdempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	record, err := svc.SetGlobalScore(ctx, 4, 900)
	require.NoError(t, err)
	assert.Equal(t, int64(900), record.OverallScore)

	record, err = svc.SetGlobalScore(ctx, 4, 900)
	require.NoError(t, err)
	assert.Equal(t, int64(900), record.OverallScore)
	assert.Equal(t, int64(0), record.WeeklyScore)
	assert.Equal(t, int64(0), record.Level)
}

func TestApplyAuthoritativeUpdateFinalState(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// Existing record with prior state
	_, err := svc.UpdateScore(ctx, 5, 10)
	require.NoError(t, err)
	_, err = svc.SetLevel(ctx, 5, 2)
	require.NoError(t, err)

	record, err := svc.ApplyAuthoritativeUpdate(ctx, 5, -3, 100, 9)
	require.NoError(t, err)

	// Overall is exactly the authoritative value, whatever the delta was
	assert.Equal(t, int64(100), record.OverallScore)
	assert.Equal(t, int64(9), record.Level)
	// The delta still lands on the periodic scores
	assert.Equal(t, int64(7), record.WeeklyScore)
	assert.Equal(t, int64(7), record.MonthlyScore)
}

func TestApplyAuthoritativeUpdateFreshRecord(t *testing.T) {
	svc, _ := newTestService()

	record, err := svc.ApplyAuthoritativeUpdate(context.Background(), 6, 2, 50, 3)
	require.NoError(t, err)

	assert.Equal(t, int64(50), record.OverallScore)
	assert.Equal(t, int64(2), record.WeeklyScore)
	assert.Equal(t, int64(2), record.MonthlyScore)
	assert.Equal(t, int64(3), record.Level)
}

func TestBatchApplyFailsFast(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()

	storeDown := errors.New("connection refused")
	fake.failOn[20] = storeDown

	updates := []models.UpdateRecordRequest{
		{User: 10, NewWins: 1, GlobalWins: 11, Level: 1},
		{User: 20, NewWins: 2, GlobalWins: 22, Level: 2},
		{User: 30, NewWins: 3, GlobalWins: 33, Level: 3},
	}

	results, err := svc.BatchApplyAuthoritativeUpdate(ctx, updates)
	require.Error(t, err)
	assert.Nil(t, results)

	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 2, batchErr.Index)
	assert.Equal(t, 1, batchErr.Succeeded)
	assert.ErrorIs(t, batchErr, storeDown)

	// First record committed and stays committed
	first, err := svc.GetByID(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(11), first.OverallScore)

	// Third record was never attempted
	_, err = svc.GetByID(ctx, 30)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestBatchApplyAllSucceed(t *testing.T) {
	svc, _ := newTestService()

	updates := []models.UpdateRecordRequest{
		{User: 1, NewWins: 1, GlobalWins: 10, Level: 1},
		{User: 2, NewWins: 2, GlobalWins: 20, Level: 2},
	}

	results, err := svc.BatchApplyAuthoritativeUpdate(context.Background(), updates)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(10), results[0].OverallScore)
	assert.Equal(t, int64(20), results[1].OverallScore)
}

func TestGetTopOrdering(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i, score := range []int64{50, 40, 30, 20, 10} {
		_, err := svc.SetGlobalScore(ctx, int64(i+1), score)
		require.NoError(t, err)
	}

	top, err := svc.GetTop(ctx, "overall", 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, int64(50), top[0].OverallScore)
	assert.Equal(t, int64(40), top[1].OverallScore)
	assert.Equal(t, int64(30), top[2].OverallScore)
}

func TestGetTopFewerRecordsThanLimit(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.UpdateScore(ctx, 1, 5)
	require.NoError(t, err)

	top, err := svc.GetTop(ctx, "weekly", 10)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestGetTopInvalidPeriod(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.GetTop(context.Background(), "bogus", 10)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestResetWeeklyOnlyTouchesWeeklyScores(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.UpdateScore(ctx, 1, 10)
	require.NoError(t, err)
	_, err = svc.SetLevel(ctx, 1, 4)
	require.NoError(t, err)
	_, err = svc.UpdateScore(ctx, 2, 20)
	require.NoError(t, err)

	require.NoError(t, svc.ResetWeekly(ctx))

	for _, id := range []int64{1, 2} {
		record, err := svc.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(0), record.WeeklyScore, "player %d", id)
		assert.NotEqual(t, int64(0), record.OverallScore, "player %d", id)
		assert.NotEqual(t, int64(0), record.MonthlyScore, "player %d", id)
	}

	record, err := svc.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), record.Level)
}

func TestResetMonthlyOnlyTouchesMonthlyScores(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.UpdateScore(ctx, 1, 10)
	require.NoError(t, err)

	require.NoError(t, svc.ResetMonthly(ctx))

	record, err := svc.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), record.MonthlyScore)
	assert.Equal(t, int64(10), record.WeeklyScore)
	assert.Equal(t, int64(10), record.OverallScore)
}

func TestConcurrentUpdateScoreLosesNoIncrements(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	const writers = 50
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.UpdateScore(ctx, 99, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	record, err := svc.GetByID(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(writers), record.OverallScore)
	assert.Equal(t, int64(writers), record.WeeklyScore)
	assert.Equal(t, int64(writers), record.MonthlyScore)
}
