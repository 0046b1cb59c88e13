package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/interfaces"
	"github.com/sanjaydutta/fintra/internal/models"
)

// DataStore implements interfaces.DataStore over SurrealDB.
type DataStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewDataStore(db *surrealdb.DB, logger *common.Logger) *DataStore {
	return &DataStore{
		db:     db,
		logger: logger,
	}
}

func recordID(userID, subject, key string) string {
	return userID + "_" + subject + "_" + key
}

func (s *DataStore) Get(ctx context.Context, userID, subject, key string) (*models.Record, error) {
	record, err := surrealdb.Select[models.Record](ctx, s.db, surrealmodels.NewRecordID("user_data", recordID(userID, subject, key)))
	if err != nil {
		if isNotFoundError(err) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select record: %w", err)
	}
	if record == nil {
		return nil, interfaces.ErrNotFound
	}
	return record, nil
}

func (s *DataStore) Put(ctx context.Context, record *models.Record) error {
	record.Version = 1
	if existing, err := s.Get(ctx, record.UserID, record.Subject, record.Key); err == nil {
		record.Version = existing.Version + 1
	}
	// callers set DateTime to order records by domain time; only stamp
	// writes that left it unset
	if record.DateTime.IsZero() {
		record.DateTime = time.Now()
	}

	id := recordID(record.UserID, record.Subject, record.Key)
	sql := "UPSERT $rid CONTENT $record"
	vars := map[string]any{"rid": surrealmodels.NewRecordID("user_data", id), "record": record}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Record](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to put record after retries: %w", lastErr)
}

func (s *DataStore) Delete(ctx context.Context, userID, subject, key string) error {
	_, err := surrealdb.Delete[models.Record](ctx, s.db, surrealmodels.NewRecordID("user_data", recordID(userID, subject, key)))
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

func (s *DataStore) List(ctx context.Context, userID, subject string) ([]*models.Record, error) {
	sql := "SELECT * FROM user_data WHERE user_id = $user_id AND subject = $subject ORDER BY key ASC"
	vars := map[string]any{
		"user_id": userID,
		"subject": subject,
	}

	results, err := surrealdb.Query[[]models.Record](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	if results != nil && len(*results) > 0 {
		var mapped []*models.Record
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}

func (s *DataStore) Query(ctx context.Context, userID, subject string, opts interfaces.QueryOptions) ([]*models.Record, error) {
	sql := "SELECT * FROM user_data WHERE user_id = $user_id AND subject = $subject"

	if opts.OrderBy == "datetime_asc" {
		sql += " ORDER BY datetime ASC"
	} else {
		sql += " ORDER BY datetime DESC"
	}

	if opts.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	vars := map[string]any{
		"user_id": userID,
		"subject": subject,
	}

	results, err := surrealdb.Query[[]models.Record](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	if results != nil && len(*results) > 0 {
		var mapped []*models.Record
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}

func (s *DataStore) DeleteBySubject(ctx context.Context, subject string) (int, error) {
	sql := "DELETE user_data WHERE subject = $subject RETURN BEFORE"
	vars := map[string]any{"subject": subject}

	results, err := surrealdb.Query[[]models.Record](ctx, s.db, sql, vars)
	if err != nil {
		return 0, fmt.Errorf("failed to delete by subject: %w", err)
	}

	count := 0
	if results != nil && len(*results) > 0 {
		count = len((*results)[0].Result)
	}
	return count, nil
}

func (s *DataStore) Close() error {
	return nil
}

var _ interfaces.DataStore = (*DataStore)(nil)
