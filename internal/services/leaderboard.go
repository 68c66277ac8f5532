package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anhbaysgalan1/leaderboardd/internal/cache"
	"github.com/anhbaysgalan1/leaderboardd/internal/models"
	"github.com/anhbaysgalan1/leaderboardd/internal/store"
	"github.com/google/uuid"
)

// ErrInvalidPeriod is returned by GetTop for an unrecognized period name.
var ErrInvalidPeriod = errors.New("invalid period: must be 'overall', 'weekly', 'monthly', or 'level'")

// validSortFields maps external period names to record fields.
var validSortFields = map[string]string{
	"overall": store.FieldOverall,
	"weekly":  store.FieldWeekly,
	"monthly": store.FieldMonthly,
	"level":   store.FieldLevel,
}

// BatchError reports a fail-fast batch abort. Records before Index have
// already committed and stay committed; records from Index on were not
// attempted. Index is the 1-based position of the failing record.
type BatchError struct {
	Index     int
	Succeeded int
	Err       error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch update failed at record %d after %d succeeded: %v", e.Index, e.Succeeded, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// LeaderboardService implements the score/level update protocol, ranking
// queries and bulk resets. All per-record coordination is delegated to the
// store's atomic upsert; the service holds no mutable state of its own.
type LeaderboardService struct {
	store store.Store
	cache *cache.TopCache
}

// NewLeaderboardService creates a leaderboard service. topCache may be nil
// to disable read caching.
func NewLeaderboardService(st store.Store, topCache *cache.TopCache) *LeaderboardService {
	return &LeaderboardService{store: st, cache: topCache}
}

// UpdateScore increments a player's overall, weekly and monthly scores by
// increment (which may be zero or negative). Creates the record on first
// write, defaulting level to 0.
func (s *LeaderboardService) UpdateScore(ctx context.Context, id int64, increment int64) (*models.PlayerRecord, error) {
	record, err := s.store.UpsertAndApply(ctx, id, store.UpdateSpec{
		Inc: map[string]int64{
			store.FieldOverall: increment,
			store.FieldWeekly:  increment,
			store.FieldMonthly: increment,
		},
		SetOnInsert: map[string]int64{store.FieldLevel: 0},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update score for player %d: %w", id, err)
	}
	return record, nil
}

// SetLevel overwrites a player's level. Creates the record on first write,
// defaulting all scores to 0.
func (s *LeaderboardService) SetLevel(ctx context.Context, id int64, level int64) (*models.PlayerRecord, error) {
	record, err := s.store.UpsertAndApply(ctx, id, store.UpdateSpec{
		Set: map[string]int64{store.FieldLevel: level},
		SetOnInsert: map[string]int64{
			store.FieldOverall: 0,
			store.FieldWeekly:  0,
			store.FieldMonthly: 0,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set level for player %d: %w", id, err)
	}
	return record, nil
}

// IncrementLevel increments a player's level by the given amount.
func (s *LeaderboardService) IncrementLevel(ctx context.Context, id int64, by int64) (*models.PlayerRecord, error) {
	record, err := s.store.UpsertAndApply(ctx, id, store.UpdateSpec{
		Inc: map[string]int64{store.FieldLevel: by},
		SetOnInsert: map[string]int64{
			store.FieldOverall: 0,
			store.FieldWeekly:  0,
			store.FieldMonthly: 0,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to increment level for player %d: %w", id, err)
	}
	return record, nil
}

// SetGlobalScore overwrites a player's overall score with an authoritative
// value. Applying the same value twice yields the same score both times.
func (s *LeaderboardService) SetGlobalScore(ctx context.Context, id int64, value int64) (*models.PlayerRecord, error) {
	record, err := s.store.UpsertAndApply(ctx, id, store.UpdateSpec{
		Set: map[string]int64{store.FieldOverall: value},
		SetOnInsert: map[string]int64{
			store.FieldWeekly:  0,
			store.FieldMonthly: 0,
			store.FieldLevel:   0,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set global score for player %d: %w", id, err)
	}
	return record, nil
}

// ApplyAuthoritativeUpdate applies a full snapshot from the game server as
// three independently-committed steps: incremental weekly/monthly delta,
// authoritative level, authoritative overall score. The sequence is not
// atomic as a whole: a reader between steps sees the delta applied to
// overall before the final overwrite, and a bulk reset firing mid-sequence
// can zero a delta that was just applied. Once step 3 commits, overall is
// exactly globalScore regardless of interleaving.
func (s *LeaderboardService) ApplyAuthoritativeUpdate(ctx context.Context, id, scoreDelta, globalScore, level int64) (*models.PlayerRecord, error) {
	if _, err := s.UpdateScore(ctx, id, scoreDelta); err != nil {
		return nil, fmt.Errorf("authoritative update step 1 (score delta): %w", err)
	}

	if _, err := s.SetLevel(ctx, id, level); err != nil {
		return nil, fmt.Errorf("authoritative update step 2 (level): %w", err)
	}

	record, err := s.SetGlobalScore(ctx, id, globalScore)
	if err != nil {
		return nil, fmt.Errorf("authoritative update step 3 (global score): %w", err)
	}

	return record, nil
}

// BatchApplyAuthoritativeUpdate applies updates in input order, fail-fast:
// the first failure aborts the remainder and is reported as a *BatchError;
// records committed before the failure are not rolled back.
func (s *LeaderboardService) BatchApplyAuthoritativeUpdate(ctx context.Context, updates []models.UpdateRecordRequest) ([]models.PlayerRecord, error) {
	batchID := uuid.New()
	slog.Info("Applying batch update", "batch_id", batchID, "records", len(updates))

	results := make([]models.PlayerRecord, 0, len(updates))
	for i, u := range updates {
		record, err := s.ApplyAuthoritativeUpdate(ctx, u.User, u.NewWins, u.GlobalWins, u.Level)
		if err != nil {
			slog.Error("Batch update aborted", "batch_id", batchID, "failed_record", i+1, "succeeded", i, "error", err)
			return nil, &BatchError{Index: i + 1, Succeeded: i, Err: err}
		}
		results = append(results, *record)
	}

	slog.Info("Batch update complete", "batch_id", batchID, "records", len(results))
	return results, nil
}

// GetTop returns up to limit records ranked descending by the given period's
// field. Limit bounds are the API boundary's job; period validation happens
// here.
func (s *LeaderboardService) GetTop(ctx context.Context, period string, limit int) ([]models.PlayerRecord, error) {
	field, ok := validSortFields[period]
	if !ok {
		return nil, ErrInvalidPeriod
	}

	if records, hit := s.cache.GetTop(ctx, period, limit); hit {
		return records, nil
	}

	records, err := s.store.TopN(ctx, field, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s leaderboard: %w", period, err)
	}

	s.cache.SetTop(ctx, period, limit, records)
	return records, nil
}

// GetByID fetches a single record. Returns store.ErrNotFound for unknown
// ids; a read never creates a record.
func (s *LeaderboardService) GetByID(ctx context.Context, id int64) (*models.PlayerRecord, error) {
	return s.store.Get(ctx, id)
}

// ResetWeekly zeroes every record's weekly score. Row-atomic only: readers
// may observe a partially reset collection while this runs.
func (s *LeaderboardService) ResetWeekly(ctx context.Context) error {
	if err := s.store.SetFieldAll(ctx, store.FieldWeekly, 0); err != nil {
		return fmt.Errorf("weekly reset failed: %w", err)
	}
	s.cache.Invalidate(ctx)
	slog.Info("Weekly scores reset")
	return nil
}

// ResetMonthly zeroes every record's monthly score.
func (s *LeaderboardService) ResetMonthly(ctx context.Context) error {
	if err := s.store.SetFieldAll(ctx, store.FieldMonthly, 0); err != nil {
		return fmt.Errorf("monthly reset failed: %w", err)
	}
	s.cache.Invalidate(ctx)
	slog.Info("Monthly scores reset")
	return nil
}
