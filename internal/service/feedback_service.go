package service

import (
	"context"
	"fmt"

	"github.com/aicharya/aicharya-backend/internal/domain"
	"github.com/aicharya/aicharya-backend/internal/repository"
	"github.com/aicharya/aicharya-backend/pkg/events"
	"github.com/aicharya/aicharya-backend/pkg/logger"
)

type FeedbackService interface {
	Submit(ctx context.Context, req *domain.CreateFeedbackRequest) (*domain.Feedback, error)
	List(ctx context.Context, limit, offset int) ([]domain.Feedback, error)
}

type feedbackService struct {
	feedbackRepo repository.FeedbackRepository
	eventBus     events.Publisher
}

func NewFeedbackService(feedbackRepo repository.FeedbackRepository, eventBus events.Publisher) FeedbackService {
	return &feedbackService{feedbackRepo: feedbackRepo, eventBus: eventBus}
}

func (s *feedbackService) Submit(ctx context.Context, req *domain.CreateFeedbackRequest) (*domain.Feedback, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	fb, err := s.feedbackRepo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to save feedback: %w", err)
	}

	if err := s.eventBus.Publish(ctx, events.FeedbackSubmitted, events.FeedbackSubmittedEvent{
		FeedbackID:  fb.ID,
		Rating:      fb.Rating,
		Username:    fb.Username,
		SubmittedAt: fb.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish feedback event", "error", err, "feedback_id", fb.ID)
	}

	return fb, nil
}

func (s *feedbackService) List(ctx context.Context, limit, offset int) ([]domain.Feedback, error) {
	items, err := s.feedbackRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return items, nil
}
