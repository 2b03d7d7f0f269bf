package dto

import (
	"time"

	"cellexis-assistant/pkg/gateway"
)

type SearchRequest struct {
	Query     string `json:"query" validate:"required"`
	TopK      int    `json:"top_k" validate:"omitempty,min=1,max=50"`
	Elaborate bool   `json:"elaborate"`
}

type SearchResponse struct {
	Sequence  uint64             `json:"sequence"`
	Query     string             `json:"query"`
	Answer    string             `json:"answer"`
	Citations []gateway.Citation `json:"citations"`
	// Stale is true when a newer search superseded this one while it was
	// still in flight. The UI should discard stale results.
	Stale bool `json:"stale"`
}

type VoiceQueryRequest struct {
	Query string `json:"query" validate:"required"`
}

type VoiceQueryResponse struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

type NodeSearchResponse struct {
	Query   string                   `json:"query"`
	Results []map[string]interface{} `json:"results"`
}

type StatsResponse struct {
	Stats     gateway.SearchStats `json:"stats"`
	FetchedAt time.Time           `json:"fetched_at"`
}

type HealthResponse struct {
	Backend  bool `json:"backend"`
	Database bool `json:"database"`
}
