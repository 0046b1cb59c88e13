package surrealdb

import (
	"context"
	"testing"

	"github.com/sanjaydutta/fintra/internal/interfaces"
	"github.com/sanjaydutta/fintra/internal/models"
)

func TestInternalStoreUsers(t *testing.T) {
	store := NewInternalStore(testDB(t), testLogger())
	ctx := context.Background()

	user := &models.InternalUser{
		UserID: "u-1",
		Email:  "sanjay@example.com",
		Name:   "Sanjay",
	}
	if err := store.SaveUser(ctx, user); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}

	got, err := store.GetUser(ctx, "u-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != "sanjay@example.com" {
		t.Errorf("unexpected email: %s", got.Email)
	}

	byEmail, err := store.GetUserByEmail(ctx, "SANJAY@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if byEmail.UserID != "u-1" {
		t.Errorf("unexpected user: %s", byEmail.UserID)
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

func TestInternalStoreUserKV(t *testing.T) {
	store := NewInternalStore(testDB(t), testLogger())
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

	list, err := store.ListUserKV(ctx, "u-1")
	if err != nil {
		t.Fatalf("ListUserKV: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 kv entry, got %d", len(list))
	}

	if err := store.DeleteUserKV(ctx, "u-1", "theme"); err != nil {
		t.Fatalf("DeleteUserKV: %v", err)
	}
	if _, err := store.GetUserKV(ctx, "u-1", "theme"); err != interfaces.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInternalStoreSystemKV(t *testing.T) {
	store := NewInternalStore(testDB(t), testLogger())
	ctx := context.Background()

	val, err := store.GetSystemKV(ctx, "schema_version")
	if err != nil {
		t.Fatalf("GetSystemKV: %v", err)
	}
	if val != "" {
		t.Errorf("expected empty value for missing key, got %q", val)
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
}
