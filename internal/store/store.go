package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/anhbaysgalan1/leaderboardd/internal/models"
)

// ErrNotFound is returned by Get for an id that has never been written.
// Reads never create records.
var ErrNotFound = errors.New("player record not found")

// Sortable/updatable numeric fields of a player record. The id and the
// last_updated stamp are managed by the store itself.
const (
	FieldOverall = "overall_score"
	FieldWeekly  = "weekly_score"
	FieldMonthly = "monthly_score"
	FieldLevel   = "level"
)

// recordFields fixes the column order used when building upsert statements.
var recordFields = []string{FieldOverall, FieldWeekly, FieldMonthly, FieldLevel}

// UpdateSpec describes one atomic mutation of a single record: increments
// applied on top of the current value, overwrites, and defaults that only
// take effect when the record is created by this call. A field may appear in
// at most one of the three maps.
type UpdateSpec struct {
	Inc         map[string]int64
	Set         map[string]int64
	SetOnInsert map[string]int64
}

// Validate rejects unknown field names and fields listed more than once.
func (s UpdateSpec) Validate() error {
	seen := make(map[string]bool, len(recordFields))
	for _, m := range []map[string]int64{s.Inc, s.Set, s.SetOnInsert} {
		for field := range m {
			if !validField(field) {
				return fmt.Errorf("unknown record field %q", field)
			}
			if seen[field] {
				return fmt.Errorf("record field %q listed twice in update spec", field)
			}
			seen[field] = true
		}
	}
	return nil
}

func validField(field string) bool {
	for _, f := range recordFields {
		if f == field {
			return true
		}
	}
	return false
}

// Store is the persistence contract for player records. UpsertAndApply must
// be atomic per record: concurrent calls on the same id are serialized by
// the store and none of them loses an increment. SetFieldAll is row-atomic
// only; a concurrent reader may observe a partially updated collection.
type Store interface {
	UpsertAndApply(ctx context.Context, id int64, spec UpdateSpec) (*models.PlayerRecord, error)
	Get(ctx context.Context, id int64) (*models.PlayerRecord, error)
	TopN(ctx context.Context, field string, n int) ([]models.PlayerRecord, error)
	SetFieldAll(ctx context.Context, field string, value int64) error
}
