package badger

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/interfaces"
	"github.com/sanjaydutta/fintra/internal/models"
)

// DataStore implements interfaces.DataStore using BadgerHold.
type DataStore struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewDataStore opens the domain record database at path.
func NewDataStore(logger *common.Logger, path string) (*DataStore, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data db path %s: %w", path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open data db at %s: %w", path, err)
	}
	logger.Info().Str("path", path).Msg("Data DB opened")
	return &DataStore{db: db, logger: logger}, nil
}

// keySep is the composite key separator. Using a null byte prevents collisions
// when userID, subject, or key contain ":" characters.
const keySep = "\x00"

// compositeKey builds the storage key: user_id + \x00 + subject + \x00 + key
func compositeKey(userID, subject, key string) string {
	return userID + keySep + subject + keySep + key
}

func (s *DataStore) Get(_ context.Context, userID, subject, key string) (*models.Record, error) {
	ck := compositeKey(userID, subject, key)
	var rec models.Record
	if err := s.db.Get(ck, &rec); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s '%s': %w", subject, key, err)
	}
	return &rec, nil
}

func (s *DataStore) Put(_ context.Context, record *models.Record) error {
	ck := compositeKey(record.UserID, record.Subject, record.Key)

	// Read existing to increment version
	var existing models.Record
	if err := s.db.Get(ck, &existing); err == nil {
		record.Version = existing.Version + 1
	} else {
		record.Version = 1
	}
	// callers set DateTime to order records by domain time; only stamp
	// writes that left it unset
	if record.DateTime.IsZero() {
		record.DateTime = time.Now()
	}

	if err := s.db.Upsert(ck, record); err != nil {
		return fmt.Errorf("failed to put %s '%s': %w", record.Subject, record.Key, err)
	}
	return nil
}

func (s *DataStore) Delete(_ context.Context, userID, subject, key string) error {
	ck := compositeKey(userID, subject, key)
	if err := s.db.Delete(ck, models.Record{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete %s '%s': %w", subject, key, err)
	}
	return nil
}

func (s *DataStore) List(_ context.Context, userID, subject string) ([]*models.Record, error) {
	var all []models.Record
	if err := s.db.Find(&all, nil); err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", subject, err)
	}
	var result []*models.Record
	for i := range all {
		if all[i].UserID == userID && all[i].Subject == subject {
			rec := all[i]
			result = append(result, &rec)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

func (s *DataStore) Query(_ context.Context, userID, subject string, opts interfaces.QueryOptions) ([]*models.Record, error) {
	var all []models.Record
	if err := s.db.Find(&all, nil); err != nil {
		return nil, fmt.Errorf("failed to query %s records: %w", subject, err)
	}
	var result []*models.Record
	for i := range all {
		if all[i].UserID == userID && all[i].Subject == subject {
			rec := all[i]
			result = append(result, &rec)
		}
	}

	if opts.OrderBy == "datetime_asc" {
		sort.Slice(result, func(i, j int) bool {
			return result[i].DateTime.Before(result[j].DateTime)
		})
	} else {
		// Default: datetime_desc
		sort.Slice(result, func(i, j int) bool {
			return result[i].DateTime.After(result[j].DateTime)
		})
	}

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result, nil
}

func (s *DataStore) DeleteBySubject(_ context.Context, subject string) (int, error) {
	var all []models.Record
	if err := s.db.Find(&all, nil); err != nil {
		return 0, fmt.Errorf("failed to find %s records: %w", subject, err)
	}
	count := 0
	for _, rec := range all {
		if rec.Subject == subject {
			ck := compositeKey(rec.UserID, rec.Subject, rec.Key)
			if err := s.db.Delete(ck, models.Record{}); err == nil {
				count++
			}
		}
	}
	return count, nil
}

// Close shuts down the BadgerHold database.
func (s *DataStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ interfaces.DataStore = (*DataStore)(nil)
