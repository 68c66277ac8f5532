package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anhbaysgalan1/leaderboardd/internal/database"
	"github.com/anhbaysgalan1/leaderboardd/internal/models"
	"gorm.io/gorm"
)

// PostgresStore implements Store on top of a single player_records table.
// Every UpsertAndApply is one INSERT .. ON CONFLICT .. RETURNING statement,
// so the read-modify-write happens inside the database and concurrent
// writers on the same id serialize on the row.
type PostgresStore struct {
	db *database.DB
}

func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) UpsertAndApply(ctx context.Context, id int64, spec UpdateSpec) (*models.PlayerRecord, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid update spec: %w", err)
	}

	query, args := buildUpsertQuery(id, spec)

	var record models.PlayerRecord
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to upsert player %d: %w", id, err)
	}

	return &record, nil
}

// buildUpsertQuery compiles an UpdateSpec into a single upsert statement.
// Insert values start every field from zero, so an increment on a fresh
// record behaves like an increment from zero and SetOnInsert defaults only
// apply when the row does not exist yet.
func buildUpsertQuery(id int64, spec UpdateSpec) (string, []interface{}) {
	var sb strings.Builder
	args := make([]interface{}, 0, 1+2*len(recordFields))

	sb.WriteString("INSERT INTO player_records (id")
	for _, field := range recordFields {
		sb.WriteString(", ")
		sb.WriteString(field)
	}
	sb.WriteString(", last_updated) VALUES (?")
	args = append(args, id)

	for _, field := range recordFields {
		sb.WriteString(", ?")
		switch {
		case hasField(spec.Inc, field):
			args = append(args, spec.Inc[field])
		case hasField(spec.Set, field):
			args = append(args, spec.Set[field])
		case hasField(spec.SetOnInsert, field):
			args = append(args, spec.SetOnInsert[field])
		default:
			args = append(args, int64(0))
		}
	}
	sb.WriteString(", NOW()) ON CONFLICT (id) DO UPDATE SET ")

	for _, field := range recordFields {
		switch {
		case hasField(spec.Inc, field):
			fmt.Fprintf(&sb, "%s = player_records.%s + ?, ", field, field)
			args = append(args, spec.Inc[field])
		case hasField(spec.Set, field):
			fmt.Fprintf(&sb, "%s = ?, ", field)
			args = append(args, spec.Set[field])
		}
	}
	sb.WriteString("last_updated = NOW() RETURNING *")

	return sb.String(), args
}

func hasField(m map[string]int64, field string) bool {
	_, ok := m[field]
	return ok
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*models.PlayerRecord, error) {
	var record models.PlayerRecord

	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get player %d: %w", id, err)
	}

	return &record, nil
}

// TopN returns up to n records descending by field. Equal values order by
// ascending id so repeated queries page consistently.
func (s *PostgresStore) TopN(ctx context.Context, field string, n int) ([]models.PlayerRecord, error) {
	if !validField(field) {
		return nil, fmt.Errorf("unknown record field %q", field)
	}

	var records []models.PlayerRecord
	err := s.db.WithContext(ctx).
		Order(field + " DESC, id ASC").
		Limit(n).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query top %d by %s: %w", n, field, err)
	}

	return records, nil
}

// SetFieldAll sets field to value on every record. Not transactional across
// the collection; each row update is atomic on its own.
func (s *PostgresStore) SetFieldAll(ctx context.Context, field string, value int64) error {
	if !validField(field) {
		return fmt.Errorf("unknown record field %q", field)
	}

	err := s.db.WithContext(ctx).
		Model(&models.PlayerRecord{}).
		Where("1 = 1").
		Updates(map[string]interface{}{field: value, "last_updated": gorm.Expr("NOW()")}).Error
	if err != nil {
		return fmt.Errorf("failed to set %s on all records: %w", field, err)
	}

	return nil
}
