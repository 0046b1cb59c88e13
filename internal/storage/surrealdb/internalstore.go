package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/interfaces"
	"github.com/sanjaydutta/fintra/internal/models"
)

// InternalStore implements interfaces.InternalStore over SurrealDB.
type InternalStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewInternalStore(db *surrealdb.DB, logger *common.Logger) *InternalStore {
	return &InternalStore{
		db:     db,
		logger: logger,
	}
}

func (s *InternalStore) GetUser(ctx context.Context, userID string) (*models.InternalUser, error) {
	user, err := surrealdb.Select[models.InternalUser](ctx, s.db, surrealmodels.NewRecordID("user", userID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select user: %w", err)
	}
	if user == nil {
		return nil, interfaces.ErrNotFound
	}
	return user, nil
}

func (s *InternalStore) GetUserByEmail(ctx context.Context, email string) (*models.InternalUser, error) {
	sql := "SELECT * FROM user WHERE string::lowercase(email) = $email"
	vars := map[string]any{"email": strings.ToLower(strings.TrimSpace(email))}

	results, err := surrealdb.Query[[]models.InternalUser](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}
	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		return &(*results)[0].Result[0], nil
	}
	return nil, interfaces.ErrNotFound
}

func (s *InternalStore) SaveUser(ctx context.Context, user *models.InternalUser) error {
	now := time.Now()
	if existing, err := s.GetUser(ctx, user.UserID); err == nil {
		user.CreatedAt = existing.CreatedAt
	} else if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.ModifiedAt = now

	sql := "UPSERT type::record('user', $id) CONTENT $user"
	vars := map[string]any{"id": user.UserID, "user": user}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.InternalUser](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to save user after retries: %w", err)
		}
	}
	return nil
}

func (s *InternalStore) DeleteUser(ctx context.Context, userID string) error {
	_, err := surrealdb.Delete[models.InternalUser](ctx, s.db, surrealmodels.NewRecordID("user", userID))
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	// Remove the user's KV entries as well
	sql := "DELETE user_kv WHERE user_id = $user_id"
	if _, err := surrealdb.Query[any](ctx, s.db, sql, map[string]any{"user_id": userID}); err != nil {
		return fmt.Errorf("failed to delete user KV entries: %w", err)
	}
	return nil
}

func (s *InternalStore) ListUsers(ctx context.Context) ([]string, error) {
	list, err := surrealdb.Select[[]models.InternalUser](ctx, s.db, surrealmodels.Table("user"))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var userIDs []string
	if list != nil {
		for _, u := range *list {
			if u.UserID != "" {
				userIDs = append(userIDs, u.UserID)
			}
		}
	}
	return userIDs, nil
}

// UserKeyValue ID format: user_kv:<userID>_<key>
func kvID(userID, key string) string {
	return userID + "_" + key
}

func (s *InternalStore) GetUserKV(ctx context.Context, userID, key string) (*models.UserKeyValue, error) {
	kv, err := surrealdb.Select[models.UserKeyValue](ctx, s.db, surrealmodels.NewRecordID("user_kv", kvID(userID, key)))
	if err != nil {
		if isNotFoundError(err) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select user KV: %w", err)
	}
	if kv == nil {
		return nil, interfaces.ErrNotFound
	}
	return kv, nil
}

func (s *InternalStore) SetUserKV(ctx context.Context, userID, key, value string) error {
	version := 1
	if existing, err := s.GetUserKV(ctx, userID, key); err == nil {
		version = existing.Version + 1
	}

	kv := models.UserKeyValue{
		UserID:   userID,
		Key:      key,
		Value:    value,
		Version:  version,
		DateTime: time.Now(),
	}

	sql := "UPSERT type::record('user_kv', $id) CONTENT $kv"
	vars := map[string]any{"id": kvID(userID, key), "kv": kv}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.UserKeyValue](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to set user KV after retries: %w", err)
		}
	}
	return nil
}

func (s *InternalStore) DeleteUserKV(ctx context.Context, userID, key string) error {
	_, err := surrealdb.Delete[models.UserKeyValue](ctx, s.db, surrealmodels.NewRecordID("user_kv", kvID(userID, key)))
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete user KV: %w", err)
	}
	return nil
}

func (s *InternalStore) ListUserKV(ctx context.Context, userID string) ([]*models.UserKeyValue, error) {
	sql := "SELECT * FROM user_kv WHERE user_id = $user_id"
	vars := map[string]any{"user_id": userID}

	results, err := surrealdb.Query[[]models.UserKeyValue](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list user KV: %w", err)
	}

	if results != nil && len(*results) > 0 {
		var mapped []*models.UserKeyValue
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}

// System KV rows are plain key/value documents keyed by the key itself.
type systemKV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (s *InternalStore) GetSystemKV(ctx context.Context, key string) (string, error) {
	kv, err := surrealdb.Select[systemKV](ctx, s.db, surrealmodels.NewRecordID("system_kv", key))
	if err != nil {
		if isNotFoundError(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to select system KV: %w", err)
	}
	if kv == nil {
		return "", nil
	}
	return kv.Value, nil
}

func (s *InternalStore) SetSystemKV(ctx context.Context, key, value string) error {
	kv := systemKV{Key: key, Value: value}

	sql := "UPSERT type::record('system_kv', $id) CONTENT $kv"
	vars := map[string]any{"id": key, "kv": kv}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]systemKV](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to set system KV after retries: %w", err)
		}
	}
	return nil
}

func (s *InternalStore) Close() error {
	return nil
}

var _ interfaces.InternalStore = (*InternalStore)(nil)
