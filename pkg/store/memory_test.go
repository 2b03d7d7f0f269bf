package store

import (
	"context"
	"encoding/json"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	blob := json.RawMessage(`{"bookmarks":[{"paper_id":"PMC123","note":"important"}]}`)
	if err := s.Set(ctx, "user1:bookmarks", blob); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, found, err := s.Get(ctx, "user1:bookmarks")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatal("expected key to exist")
	}
	if string(got) != string(blob) {
		t.Errorf("blob = %s, want %s", got, blob)
	}
}

func TestMemoryStoreMissingKey(t *testing.T) {
	s := NewMemoryStore()

	_, found, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Error("missing key reported as found")
	}
}

func TestMemoryStoreLastWriteWins(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Set(ctx, "k", json.RawMessage(`{"v":1}`))
	s.Set(ctx, "k", json.RawMessage(`{"v":2}`))

	got, _, _ := s.Get(ctx, "k")
	if string(got) != `{"v":2}` {
		t.Errorf("blob = %s, want {\"v\":2}", got)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Set(ctx, "k", json.RawMessage(`{}`))
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, _ := s.Get(ctx, "k"); found {
		t.Error("key still present after delete")
	}

	// Deleting a missing key is fine.
	if err := s.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete missing: %v", err)
	}
}

func TestMemoryStoreCopiesBlob(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	buf := json.RawMessage(`{"v":1}`)
	s.Set(ctx, "k", buf)
	buf[5] = '9' // caller reuses the buffer

	got, _, _ := s.Get(ctx, "k")
	if string(got) != `{"v":1}` {
		t.Errorf("stored blob aliased caller buffer: %s", got)
	}
}
