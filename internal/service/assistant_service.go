package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"cellexis-assistant/internal/dto"
	"cellexis-assistant/internal/pkg/logger"
	"cellexis-assistant/pkg/events"
	"cellexis-assistant/pkg/gateway"

	"github.com/ThreeDotsLabs/watermill/message"
)

// SearchBackend is the slice of the research gateway the assistant needs.
// Declared here so tests can swap in a fake without a live backend.
type SearchBackend interface {
	Search(ctx context.Context, query gateway.SearchQuery) (*gateway.RAGResult, error)
	FetchGraph(ctx context.Context, filterType, query string) (*gateway.GraphSnapshot, error)
	SearchNodes(ctx context.Context, q string) (*gateway.NodeSearchResult, error)
	HealthCheck(ctx context.Context) bool
	PingDatabase(ctx context.Context) bool
	FetchStats(ctx context.Context) *gateway.SearchStats
}

// AnswerElaborator rewrites a raw RAG answer into spoken-friendly prose.
type AnswerElaborator interface {
	Elaborate(ctx context.Context, query string, result *gateway.RAGResult) string
}

type IAssistantService interface {
	Search(ctx context.Context, req dto.SearchRequest) (*dto.SearchResponse, error)
	Graph(ctx context.Context, filterType, query string) (*gateway.GraphSnapshot, error)
	SearchNodes(ctx context.Context, q string) (*dto.NodeSearchResponse, error)
	Stats(ctx context.Context) *dto.StatsResponse
	Health(ctx context.Context) *dto.HealthResponse

	// ProcessVoiceQuery answers a spoken question. It never returns an
	// error: failures become a spoken apology so the voice loop does not
	// dead-end.
	ProcessVoiceQuery(ctx context.Context, question string) string
}

type assistantService struct {
	backend    SearchBackend
	elaborator AnswerElaborator
	publisher  message.Publisher
	logger     logger.ILogger

	// searchSeq orders searches. A result whose sequence is no longer the
	// newest when it lands is reported as stale so the UI can drop it.
	searchSeq atomic.Uint64
}

func NewAssistantService(
	backend SearchBackend,
	elaborator AnswerElaborator,
	publisher message.Publisher,
	log logger.ILogger,
) IAssistantService {
	return &assistantService{
		backend:    backend,
		elaborator: elaborator,
		publisher:  publisher,
		logger:     log,
	}
}

func (s *assistantService) Search(ctx context.Context, req dto.SearchRequest) (*dto.SearchResponse, error) {
	seq := s.searchSeq.Add(1)

	topK := req.TopK
	if topK <= 0 {
		topK = gateway.DefaultTopK
	}

	result, err := s.backend.Search(ctx, gateway.SearchQuery{Text: req.Query, TopK: topK})
	if err != nil {
		return nil, err
	}

	answer := result.Answer
	if req.Elaborate && s.elaborator != nil {
		answer = s.elaborator.Elaborate(ctx, req.Query, result)
	}

	s.publish(events.NewSearchPerformed(req.Query, topK, len(result.Citations)))

	return &dto.SearchResponse{
		Sequence:  seq,
		Query:     req.Query,
		Answer:    answer,
		Citations: result.Citations,
		Stale:     seq != s.searchSeq.Load(),
	}, nil
}

func (s *assistantService) Graph(ctx context.Context, filterType, query string) (*gateway.GraphSnapshot, error) {
	snapshot, err := s.backend.FetchGraph(ctx, filterType, query)
	if err != nil {
		return nil, err
	}
	// The backend occasionally ships edges whose endpoints were filtered
	// out; rendering them crashes the graph view.
	snapshot.Edges = snapshot.PruneDanglingEdges()
	return snapshot, nil
}

func (s *assistantService) SearchNodes(ctx context.Context, q string) (*dto.NodeSearchResponse, error) {
	res, err := s.backend.SearchNodes(ctx, q)
	if err != nil {
		return nil, err
	}
	return &dto.NodeSearchResponse{Query: res.Query, Results: res.Results}, nil
}

func (s *assistantService) Stats(ctx context.Context) *dto.StatsResponse {
	return &dto.StatsResponse{
		Stats:     *s.backend.FetchStats(ctx),
		FetchedAt: time.Now(),
	}
}

func (s *assistantService) Health(ctx context.Context) *dto.HealthResponse {
	return &dto.HealthResponse{
		Backend:  s.backend.HealthCheck(ctx),
		Database: s.backend.PingDatabase(ctx),
	}
}

// voiceQueryTopK is tighter than interactive search: a spoken answer built
// from too many chunks rambles.
const voiceQueryTopK = 3

func (s *assistantService) ProcessVoiceQuery(ctx context.Context, question string) string {
	s.publish(events.NewVoiceQuery(question))

	result, err := s.backend.Search(ctx, gateway.SearchQuery{Text: question, TopK: voiceQueryTopK})
	if err != nil {
		s.logger.Error("AssistantService", "Voice query search failed", map[string]interface{}{
			"question": question,
			"error":    err.Error(),
		})
		return fmt.Sprintf("I encountered an error while processing your question about %q. Please try again.", question)
	}

	if s.elaborator != nil {
		return s.elaborator.Elaborate(ctx, question, result)
	}
	return result.Answer
}

func (s *assistantService) publish(ev events.Event) {
	if s.publisher == nil {
		return
	}
	if err := events.Publish(s.publisher, events.TopicAssistant, ev); err != nil {
		s.logger.Warn("AssistantService", "Failed to publish event", map[string]interface{}{
			"type":  ev.EventType(),
			"error": err.Error(),
		})
	}
}
