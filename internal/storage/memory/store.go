// Package memory provides an in-process storage backend. It backs the
// "memory" storage configuration for development and is the store used by
// the service test suites. Nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sanjaydutta/fintra/internal/interfaces"
	"github.com/sanjaydutta/fintra/internal/models"
)

const keySeparator = "\x00"

// DataStore is an in-memory implementation of interfaces.DataStore.
type DataStore struct {
	mu      sync.RWMutex
	records map[string]*models.Record
}

var _ interfaces.DataStore = (*DataStore)(nil)

// NewDataStore creates an empty in-memory data store.
func NewDataStore() *DataStore {
	return &DataStore{records: map[string]*models.Record{}}
}

func compositeKey(userID, subject, key string) string {
	return userID + keySeparator + subject + keySeparator + key
}

// Get returns a record or interfaces.ErrNotFound.
func (s *DataStore) Get(_ context.Context, userID, subject, key string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[compositeKey(userID, subject, key)]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// Put inserts or updates a record, incrementing its version.
func (s *DataStore) Put(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ck := compositeKey(record.UserID, record.Subject, record.Key)
	cp := *record
	if existing, ok := s.records[ck]; ok {
		cp.Version = existing.Version + 1
	} else {
		cp.Version = 1
	}
	if cp.DateTime.IsZero() {
		cp.DateTime = time.Now().UTC()
	}
	s.records[ck] = &cp
	return nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (s *DataStore) Delete(_ context.Context, userID, subject, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, compositeKey(userID, subject, key))
	return nil
}

// List returns all records for one user and subject.
func (s *DataStore) List(_ context.Context, userID, subject string) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefix := userID + keySeparator + subject + keySeparator
	var out []*models.Record
	for ck, r := range s.records {
		if strings.HasPrefix(ck, prefix) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Query returns records ordered by datetime with an optional limit.
func (s *DataStore) Query(ctx context.Context, userID, subject string, opts interfaces.QueryOptions) ([]*models.Record, error) {
	records, err := s.List(ctx, userID, subject)
	if err != nil {
		return nil, err
	}
	asc := opts.OrderBy == "datetime_asc"
	sort.SliceStable(records, func(i, j int) bool {
		if asc {
			return records[i].DateTime.Before(records[j].DateTime)
		}
		return records[i].DateTime.After(records[j].DateTime)
	})
	if opts.Limit > 0 && len(records) > opts.Limit {
		records = records[:opts.Limit]
	}
	return records, nil
}

// DeleteBySubject removes every record of one subject across all users and
// returns the count removed.
func (s *DataStore) DeleteBySubject(_ context.Context, subject string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for ck, r := range s.records {
		if r.Subject == subject {
			delete(s.records, ck)
			count++
		}
	}
	return count, nil
}

// Close is a no-op.
func (s *DataStore) Close() error { return nil }

// InternalStore is an in-memory implementation of interfaces.InternalStore.
type InternalStore struct {
	mu     sync.RWMutex
	users  map[string]*models.InternalUser
	userKV map[string]map[string]*models.UserKeyValue
	sysKV  map[string]string
}

var _ interfaces.InternalStore = (*InternalStore)(nil)

// NewInternalStore creates an empty in-memory internal store.
func NewInternalStore() *InternalStore {
	return &InternalStore{
		users:  map[string]*models.InternalUser{},
		userKV: map[string]map[string]*models.UserKeyValue{},
		sysKV:  map[string]string{},
	}
}

func (s *InternalStore) GetUser(_ context.Context, userID string) (*models.InternalUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *InternalStore) GetUserByEmail(_ context.Context, email string) (*models.InternalUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(email)
	for _, u := range s.users {
		if strings.ToLower(u.Email) == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (s *InternalStore) SaveUser(_ context.Context, user *models.InternalUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.UserID] = &cp
	return nil
}

func (s *InternalStore) DeleteUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	delete(s.userKV, userID)
	return nil
}

func (s *InternalStore) ListUsers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *InternalStore) GetUserKV(_ context.Context, userID, key string) (*models.UserKeyValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kv, ok := s.userKV[userID][key]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *kv
	return &cp, nil
}

func (s *InternalStore) SetUserKV(_ context.Context, userID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userKV[userID] == nil {
		s.userKV[userID] = map[string]*models.UserKeyValue{}
	}
	s.userKV[userID][key] = &models.UserKeyValue{
		UserID:   userID,
		Key:      key,
		Value:    value,
		DateTime: time.Now().UTC(),
	}
	return nil
}

func (s *InternalStore) DeleteUserKV(_ context.Context, userID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.userKV[userID], key)
	return nil
}

func (s *InternalStore) ListUserKV(_ context.Context, userID string) ([]*models.UserKeyValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.UserKeyValue
	for _, kv := range s.userKV[userID] {
		cp := *kv
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *InternalStore) GetSystemKV(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.sysKV[key]
	if !ok {
		return "", interfaces.ErrNotFound
	}
	return v, nil
}

func (s *InternalStore) SetSystemKV(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sysKV[key] = value
	return nil
}

func (s *InternalStore) Close() error { return nil }

// Manager bundles the in-memory stores behind interfaces.StorageManager.
type Manager struct {
	internal *InternalStore
	data     *DataStore
}

var _ interfaces.StorageManager = (*Manager)(nil)

// NewManager creates an in-memory storage manager.
func NewManager() *Manager {
	return &Manager{internal: NewInternalStore(), data: NewDataStore()}
}

func (m *Manager) InternalStore() interfaces.InternalStore { return m.internal }
func (m *Manager) DataStore() interfaces.DataStore         { return m.data }
func (m *Manager) Close() error                            { return nil }
