package interfaces

import (
	"context"

	"github.com/sanjaydutta/fintra/internal/models"
)

// StorageManager coordinates the storage backends.
type StorageManager interface {
	// InternalStore holds user accounts, per-user config, and system KV.
	InternalStore() InternalStore

	// DataStore holds all user domain data as generic records.
	DataStore() DataStore

	Close() error
}

// InternalStore manages user accounts, per-user config, and system-level KV.
type InternalStore interface {
	// User accounts
	GetUser(ctx context.Context, userID string) (*models.InternalUser, error)
	GetUserByEmail(ctx context.Context, email string) (*models.InternalUser, error)
	SaveUser(ctx context.Context, user *models.InternalUser) error
	DeleteUser(ctx context.Context, userID string) error
	ListUsers(ctx context.Context) ([]string, error)

	// Per-user key-value config
	GetUserKV(ctx context.Context, userID, key string) (*models.UserKeyValue, error)
	SetUserKV(ctx context.Context, userID, key, value string) error
	DeleteUserKV(ctx context.Context, userID, key string) error
	ListUserKV(ctx context.Context, userID string) ([]*models.UserKeyValue, error)

	// System key-value (non-user-scoped)
	GetSystemKV(ctx context.Context, key string) (string, error)
	SetSystemKV(ctx context.Context, key, value string) error

	Close() error
}

// DataStore manages all user domain data via generic records. Typed access
// lives in the services, which marshal entities into Record.Value.
type DataStore interface {
	Get(ctx context.Context, userID, subject, key string) (*models.Record, error)
	Put(ctx context.Context, record *models.Record) error
	Delete(ctx context.Context, userID, subject, key string) error
	List(ctx context.Context, userID, subject string) ([]*models.Record, error)
	Query(ctx context.Context, userID, subject string, opts QueryOptions) ([]*models.Record, error)
	DeleteBySubject(ctx context.Context, subject string) (int, error)
	Close() error
}

// QueryOptions configures query behavior for DataStore.
type QueryOptions struct {
	Limit   int
	OrderBy string // "datetime_desc" (default), "datetime_asc"
}

// ErrNotFound is returned by stores for missing records. Stores wrap their
// backend's miss into this so services can branch without string matching.
var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "record not found" }
