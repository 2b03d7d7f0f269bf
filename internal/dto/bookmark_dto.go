package dto

import "encoding/json"

type SaveBookmarksRequest struct {
	Collection string          `json:"-"`
	Items      json.RawMessage `json:"items" validate:"required"`
}

type BookmarksResponse struct {
	Collection string          `json:"collection"`
	Items      json.RawMessage `json:"items"`
}
