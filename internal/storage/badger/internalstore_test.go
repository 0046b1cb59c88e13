package badger

import (
	"context"
	"testing"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/interfaces"
	"github.com/sanjaydutta/fintra/internal/models"
)

func newUnitTestInternalStore(t *testing.T) *InternalStore {
	t.Helper()
	dir := t.TempDir()
	logger := common.NewSilentLogger()
	store, err := NewInternalStore(logger, dir)
	if err != nil {
		t.Fatalf("NewInternalStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUserCRUD(t *testing.T) {
	store := newUnitTestInternalStore(t)
	ctx := context.Background()

	user := &models.InternalUser{
		UserID: "u-1",
		Email:  "sanjay@example.com",
		Name:   "Sanjay",
	}
	if err := store.SaveUser(ctx, user); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	if user.CreatedAt.IsZero() || user.ModifiedAt.IsZero() {
		t.Error("expected timestamps to be stamped on save")
	}

	got, err := store.GetUser(ctx, "u-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != "sanjay@example.com" {
		t.Errorf("unexpected email: %s", got.Email)
	}

	// Re-save preserves CreatedAt
	created := got.CreatedAt
	got.Name = "Sanjay Dutta"
	if err := store.SaveUser(ctx, got); err != nil {
		t.Fatalf("SaveUser update: %v", err)
	}
	again, _ := store.GetUser(ctx, "u-1")
	if !again.CreatedAt.Equal(created) {
		t.Error("CreatedAt should survive updates")
	}

	ids, err := store.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(ids) != 1 || ids[0] != "u-1" {
		t.Errorf("unexpected user list: %v", ids)
	}

	if err := store.DeleteUser(ctx, "u-1"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := store.GetUser(ctx, "u-1"); err != interfaces.ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	store := newUnitTestInternalStore(t)
	ctx := context.Background()

	if err := store.SaveUser(ctx, &models.InternalUser{UserID: "u-1", Email: "Sanjay@Example.com"}); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}

	got, err := store.GetUserByEmail(ctx, "  sanjay@example.com ")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.UserID != "u-1" {
		t.Errorf("unexpected user: %s", got.UserID)
	}

	if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); err != interfaces.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveUserRejectsSystemID(t *testing.T) {
	store := newUnitTestInternalStore(t)
	if err := store.SaveUser(context.Background(), &models.InternalUser{UserID: systemUserID}); err == nil {
		t.Error("expected error for reserved user ID")
	}
}

func TestUserKV(t *testing.T) {
	store := newUnitTestInternalStore(t)
	ctx := context.Background()

	if err := store.SetUserKV(ctx, "u-1", "theme", "dark"); err != nil {
		t.Fatalf("SetUserKV: %v", err)
	}
	kv, err := store.GetUserKV(ctx, "u-1", "theme")
	if err != nil {
		t.Fatalf("GetUserKV: %v", err)
	}
	if kv.Value != "dark" || kv.Version != 1 {
		t.Errorf("unexpected kv: %+v", kv)
	}

	if err := store.SetUserKV(ctx, "u-1", "theme", "light"); err != nil {
		t.Fatalf("SetUserKV update: %v", err)
	}
	kv, _ = store.GetUserKV(ctx, "u-1", "theme")
	if kv.Version != 2 {
		t.Errorf("expected version 2, got %d", kv.Version)
	}

	if err := store.SetUserKV(ctx, "u-1", "currency", "INR"); err != nil {
		t.Fatalf("SetUserKV: %v", err)
	}
	list, err := store.ListUserKV(ctx, "u-1")
	if err != nil {
		t.Fatalf("ListUserKV: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 kv entries, got %d", len(list))
	}

	if err := store.DeleteUserKV(ctx, "u-1", "theme"); err != nil {
		t.Fatalf("DeleteUserKV: %v", err)
	}
	if _, err := store.GetUserKV(ctx, "u-1", "theme"); err != interfaces.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUserRemovesKV(t *testing.T) {
	store := newUnitTestInternalStore(t)
	ctx := context.Background()

	if err := store.SaveUser(ctx, &models.InternalUser{UserID: "u-1", Email: "a@b.c"}); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	if err := store.SetUserKV(ctx, "u-1", "theme", "dark"); err != nil {
		t.Fatalf("SetUserKV: %v", err)
	}

	if err := store.DeleteUser(ctx, "u-1"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := store.GetUserKV(ctx, "u-1", "theme"); err != interfaces.ErrNotFound {
		t.Errorf("expected kv gone with user, got %v", err)
	}
}

func TestSystemKV(t *testing.T) {
	store := newUnitTestInternalStore(t)
	ctx := context.Background()

	// Missing keys return empty, not an error
	val, err := store.GetSystemKV(ctx, "schema_version")
	if err != nil {
		t.Fatalf("GetSystemKV: %v", err)
	}
	if val != "" {
		t.Errorf("expected empty value, got %q", val)
	}

	if err := store.SetSystemKV(ctx, "schema_version", "3"); err != nil {
		t.Fatalf("SetSystemKV: %v", err)
	}
	val, err = store.GetSystemKV(ctx, "schema_version")
	if err != nil {
		t.Fatalf("GetSystemKV: %v", err)
	}
	if val != "3" {
		t.Errorf("expected 3, got %q", val)
	}

	// System entries never appear in user listings
	ids, _ := store.ListUsers(ctx)
	for _, id := range ids {
		if id == systemUserID {
			t.Error("system user leaked into ListUsers")
		}
	}
}
