package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "listnav.db")
	repo, err := NewRepository(dbPath)
	if err != nil {
		t.Fatalf("NewRepository returned error: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	return repo
}

func TestRepository_SetGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, ok, err := repo.Get(ctx, ScopeSynced, "missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}

	if err := repo.Set(ctx, ScopeSynced, "list-name-Friends-time", "2024-01-01T00:00:00Z,100"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	value, ok, err := repo.Get(ctx, ScopeSynced, "list-name-Friends-time")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !ok || value != "2024-01-01T00:00:00Z,100" {
		t.Fatalf("unexpected value: ok=%v value=%q", ok, value)
	}
}

func TestRepository_SetUpserts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Set(ctx, ScopeSynced, "k", "v1"); err != nil {
		t.Fatalf("first Set returned error: %v", err)
	}
	if err := repo.Set(ctx, ScopeSynced, "k", "v2"); err != nil {
		t.Fatalf("second Set returned error: %v", err)
	}

	value, ok, err := repo.Get(ctx, ScopeSynced, "k")
	if err != nil || !ok {
		t.Fatalf("Get after upsert: ok=%v err=%v", ok, err)
	}
	if value != "v2" {
		t.Fatalf("expected upserted value, got %q", value)
	}
}

func TestRepository_ScopesAreIsolated(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Set(ctx, ScopeLocal, "k", "local"); err != nil {
		t.Fatalf("Set local returned error: %v", err)
	}
	if err := repo.Set(ctx, ScopeSynced, "k", "synced"); err != nil {
		t.Fatalf("Set synced returned error: %v", err)
	}

	local, _, err := repo.Get(ctx, ScopeLocal, "k")
	if err != nil {
		t.Fatalf("Get local returned error: %v", err)
	}
	synced, _, err := repo.Get(ctx, ScopeSynced, "k")
	if err != nil {
		t.Fatalf("Get synced returned error: %v", err)
	}
	if local != "local" || synced != "synced" {
		t.Fatalf("scopes bleed: local=%q synced=%q", local, synced)
	}
}

func TestRepository_ListByPrefix(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	pairs := map[string]string{
		"list-name-B-time": "2",
		"list-name-A-time": "1",
		"pref-debug":       "on",
	}
	for k, v := range pairs {
		if err := repo.Set(ctx, ScopeSynced, k, v); err != nil {
			t.Fatalf("Set %q returned error: %v", k, err)
		}
	}

	entries, err := repo.List(ctx, ScopeSynced, "list-name-")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Key != "list-name-A-time" || entries[1].Key != "list-name-B-time" {
		t.Fatalf("unexpected order: %+v", entries)
	}
}

func TestRepository_ClearAll(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Set(ctx, ScopeLocal, "a", "1"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := repo.Set(ctx, ScopeSynced, "b", "2"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	if err := repo.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll returned error: %v", err)
	}

	if _, ok, _ := repo.Get(ctx, ScopeLocal, "a"); ok {
		t.Fatal("local scope not cleared")
	}
	if _, ok, _ := repo.Get(ctx, ScopeSynced, "b"); ok {
		t.Fatal("synced scope not cleared")
	}
}

func TestRepository_ScopedKVImplementsFlatInterface(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	kv := repo.Scoped(ScopeSynced)

	if err := kv.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("scoped Set returned error: %v", err)
	}
	value, ok, err := kv.Get(ctx, "k")
	if err != nil || !ok || value != "v" {
		t.Fatalf("scoped Get: value=%q ok=%v err=%v", value, ok, err)
	}
}
