package service

import (
	"context"
	"encoding/json"
	"testing"

	"cellexis-assistant/internal/dto"
	"cellexis-assistant/internal/pkg/logger"
	"cellexis-assistant/pkg/store"
)

func newBookmarkFixture() IBookmarkService {
	return NewBookmarkService(store.NewMemoryStore(), logger.NewNopLogger())
}

func TestBookmarkRoundTrip(t *testing.T) {
	svc := newBookmarkFixture()
	ctx := context.Background()

	items := json.RawMessage(`[{"paper_id":"GLDS-47","title":"Rodent Research 1"}]`)
	if err := svc.Save(ctx, "user-1", dto.SaveBookmarksRequest{Collection: "papers", Items: items}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	res, err := svc.Load(ctx, "user-1", "papers")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(res.Items) != string(items) {
		t.Errorf("expected %s, got %s", items, res.Items)
	}
}

func TestBookmarkMissingCollectionIsEmptyList(t *testing.T) {
	svc := newBookmarkFixture()

	res, err := svc.Load(context.Background(), "user-1", "never-saved")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(res.Items) != "[]" {
		t.Errorf("expected empty list, got %s", res.Items)
	}
}

func TestBookmarkCollectionsAreIsolatedPerUser(t *testing.T) {
	svc := newBookmarkFixture()
	ctx := context.Background()

	if err := svc.Save(ctx, "user-1", dto.SaveBookmarksRequest{Collection: "papers", Items: json.RawMessage(`["a"]`)}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	res, err := svc.Load(ctx, "user-2", "papers")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(res.Items) != "[]" {
		t.Errorf("user-2 should not see user-1 bookmarks, got %s", res.Items)
	}
}

func TestBookmarkRejectsInvalidJSON(t *testing.T) {
	svc := newBookmarkFixture()

	err := svc.Save(context.Background(), "user-1", dto.SaveBookmarksRequest{
		Collection: "papers",
		Items:      json.RawMessage(`{"broken`),
	})
	if err == nil {
		t.Fatal("expected error for invalid JSON payload")
	}
}

func TestBookmarkClear(t *testing.T) {
	svc := newBookmarkFixture()
	ctx := context.Background()

	if err := svc.Save(ctx, "user-1", dto.SaveBookmarksRequest{Collection: "papers", Items: json.RawMessage(`["a"]`)}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := svc.Clear(ctx, "user-1", "papers"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	res, err := svc.Load(ctx, "user-1", "papers")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(res.Items) != "[]" {
		t.Errorf("expected empty list after clear, got %s", res.Items)
	}
}
