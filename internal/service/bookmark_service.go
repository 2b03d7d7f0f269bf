package service

import (
	"context"
	"encoding/json"
	"fmt"

	"cellexis-assistant/internal/dto"
	"cellexis-assistant/internal/pkg/logger"
	"cellexis-assistant/pkg/store"
)

type IBookmarkService interface {
	Save(ctx context.Context, userID string, req dto.SaveBookmarksRequest) error
	Load(ctx context.Context, userID, collection string) (*dto.BookmarksResponse, error)
	Clear(ctx context.Context, userID, collection string) error
}

type bookmarkService struct {
	store  store.BlobStore
	logger logger.ILogger
}

func NewBookmarkService(blobs store.BlobStore, log logger.ILogger) IBookmarkService {
	return &bookmarkService{store: blobs, logger: log}
}

// Keys are namespaced per user so a shared redis/postgres store never leaks
// one user's collections into another's.
func bookmarkKey(userID, collection string) string {
	return fmt.Sprintf("bookmarks:%s:%s", userID, collection)
}

func (s *bookmarkService) Save(ctx context.Context, userID string, req dto.SaveBookmarksRequest) error {
	if !json.Valid(req.Items) {
		return fmt.Errorf("bookmark payload is not valid JSON")
	}
	return s.store.Set(ctx, bookmarkKey(userID, req.Collection), req.Items)
}

func (s *bookmarkService) Load(ctx context.Context, userID, collection string) (*dto.BookmarksResponse, error) {
	blob, found, err := s.store.Get(ctx, bookmarkKey(userID, collection))
	if err != nil {
		return nil, err
	}
	if !found {
		// Empty collection rather than 404: the UI always starts from
		// an empty list.
		blob = json.RawMessage("[]")
	}
	return &dto.BookmarksResponse{Collection: collection, Items: blob}, nil
}

func (s *bookmarkService) Clear(ctx context.Context, userID, collection string) error {
	return s.store.Delete(ctx, bookmarkKey(userID, collection))
}
