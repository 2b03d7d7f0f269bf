package service

import (
	"context"
	"encoding/json"
	"time"

	"cellexis-assistant/internal/dto"
	"cellexis-assistant/internal/pkg/logger"
	"cellexis-assistant/internal/pkg/mailer"
	"cellexis-assistant/pkg/events"
	"cellexis-assistant/pkg/store"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const feedbackStoreKey = "feedback:entries"

type IFeedbackService interface {
	Submit(ctx context.Context, req dto.SubmitFeedbackRequest) (*dto.SubmitFeedbackResponse, error)
	List(ctx context.Context) ([]dto.FeedbackEntry, error)
}

type feedbackService struct {
	store     store.BlobStore
	email     mailer.IEmailService
	inbox     string
	publisher message.Publisher
	logger    logger.ILogger
}

func NewFeedbackService(
	blobs store.BlobStore,
	email mailer.IEmailService,
	inbox string,
	publisher message.Publisher,
	log logger.ILogger,
) IFeedbackService {
	return &feedbackService{
		store:     blobs,
		email:     email,
		inbox:     inbox,
		publisher: publisher,
		logger:    log,
	}
}

func (s *feedbackService) Submit(ctx context.Context, req dto.SubmitFeedbackRequest) (*dto.SubmitFeedbackResponse, error) {
	entry := dto.FeedbackEntry{
		Id:        uuid.NewString(),
		Category:  req.Category,
		Message:   req.Message,
		Contact:   req.Contact,
		CreatedAt: time.Now(),
	}

	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	entries = append(entries, entry)

	blob, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, feedbackStoreKey, blob); err != nil {
		return nil, err
	}

	// Mail delivery is best-effort: the entry is already persisted, so a
	// down SMTP server must not fail the request.
	if s.email != nil && s.inbox != "" {
		if err := s.email.SendFeedbackNotification(s.inbox, entry.Category, entry.Message, entry.Contact); err != nil {
			s.logger.Warn("FeedbackService", "Failed to send feedback mail", map[string]interface{}{
				"feedback_id": entry.Id,
				"error":       err.Error(),
			})
		}
	}

	if s.publisher != nil {
		if err := events.Publish(s.publisher, events.TopicAssistant, events.NewFeedbackSubmitted(entry.Category)); err != nil {
			s.logger.Warn("FeedbackService", "Failed to publish event", map[string]interface{}{"error": err.Error()})
		}
	}

	return &dto.SubmitFeedbackResponse{Id: entry.Id}, nil
}

func (s *feedbackService) List(ctx context.Context) ([]dto.FeedbackEntry, error) {
	blob, found, err := s.store.Get(ctx, feedbackStoreKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return []dto.FeedbackEntry{}, nil
	}

	var entries []dto.FeedbackEntry
	if err := json.Unmarshal(blob, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
