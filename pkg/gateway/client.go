package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"cellexis-assistant/internal/pkg/logger"
)

const (
	searchTimeout = 15 * time.Second
	statsTimeout  = 10 * time.Second
)

// Client is the single point of contact for the RAG backend. It normalizes
// every failure into one of three typed outcomes (ErrServiceSleeping,
// *HTTPError, *TransportError) so callers can render them without crashing.
// It holds no mutable state; methods are safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.ILogger
}

func NewClient(baseURL string, log logger.ILogger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		logger:     log,
	}
}

// Search issues the main RAG query: POST /search-rag with {query, top_k}.
// Bounded by a 15 second timeout; a 502 is reported as ErrServiceSleeping.
func (c *Client) Search(ctx context.Context, query SearchQuery) (*RAGResult, error) {
	if query.TopK <= 0 {
		query.TopK = DefaultTopK
	}

	payload, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/search-rag", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Info("Gateway", "RAG search request", map[string]interface{}{
		"query": query.Text,
		"top_k": query.TopK,
	})

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if res.StatusCode == http.StatusBadGateway {
		c.logger.Warn("Gateway", "Backend is sleeping (502)", nil)
		return nil, ErrServiceSleeping
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: res.StatusCode, Body: string(body)}
	}

	var result RAGResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal search response: %w", err)
	}

	c.logger.Info("Gateway", "RAG search completed", map[string]interface{}{
		"citations":   len(result.Citations),
		"chunks_used": result.ChunksUsed,
	})
	return &result, nil
}

// FetchGraph retrieves the knowledge graph. Both filters are optional and
// independently combinable; omitting both yields the unfiltered graph with
// no query string appended at all.
func (c *Client) FetchGraph(ctx context.Context, filterType, query string) (*GraphSnapshot, error) {
	endpoint := c.baseURL + "/graph"

	params := url.Values{}
	if filterType != "" {
		params.Set("filter_type", filterType)
	}
	if query != "" {
		params.Set("query", query)
	}
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var snapshot GraphSnapshot
	if err := c.getJSON(ctx, endpoint, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// SearchNodes is a passthrough lookup against the graph database.
func (c *Client) SearchNodes(ctx context.Context, q string) (*NodeSearchResult, error) {
	endpoint := c.baseURL + "/search?q=" + url.QueryEscape(q)

	var result NodeSearchResult
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// HealthCheck reduces any outcome to a boolean. Never fails.
func (c *Client) HealthCheck(ctx context.Context) bool {
	return c.probe(ctx, c.baseURL+"/")
}

// PingDatabase checks graph database connectivity through the backend. Never fails.
func (c *Client) PingDatabase(ctx context.Context) bool {
	return c.probe(ctx, c.baseURL+"/pingdb")
}

// FetchStats returns index statistics. Specified to be non-failing: when the
// backend is asleep or unreachable the deterministic fallback is substituted,
// so the UI always receives a value.
func (c *Client) FetchStats(ctx context.Context) *SearchStats {
	ctx, cancel := context.WithTimeout(ctx, statsTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/search-stats", nil)
	if err != nil {
		return FallbackStats(StatsStatusUnavailable)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Gateway", "Stats request failed, using fallback", map[string]interface{}{
			"error": err.Error(),
		})
		return FallbackStats(StatsStatusUnavailable)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusBadGateway {
		return FallbackStats(StatsStatusSleeping)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return FallbackStats(StatsStatusUnavailable)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return FallbackStats(StatsStatusUnavailable)
	}

	var stats SearchStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return FallbackStats(StatsStatusUnavailable)
	}
	if stats.Status == "" {
		stats.Status = StatsStatusOK
	}
	return &stats
}

// getJSON runs a GET with the shared error taxonomy and decodes into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return &TransportError{Err: err}
	}

	if res.StatusCode == http.StatusBadGateway {
		return ErrServiceSleeping
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &HTTPError{StatusCode: res.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// probe is the shared never-failing reachability check.
func (c *Client) probe(ctx context.Context, endpoint string) bool {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return false
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer res.Body.Close()

	io.Copy(io.Discard, res.Body)
	return res.StatusCode >= 200 && res.StatusCode <= 299
}
