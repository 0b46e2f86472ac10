package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// RequestService manages "wanted" posts and the items offered in reply.
type RequestService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewRequestService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *RequestService {
	return &RequestService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
		now:      utcNow,
	}
}

func (s *RequestService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *RequestService) CreateRequest(ctx context.Context, requestorID int64, description string) (*models.ItemRequest, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrValidation)
	}

	request := &models.ItemRequest{
		Description: description,
		RequestorID: requestorID,
		Created:     s.now(),
		Items:       []models.Item{},
	}
	err := s.repo.WithinTx(ctx, func(tx domain.Repository) error {
		if _, err := tx.GetUser(ctx, requestorID); err != nil {
			return err
		}
		return tx.CreateRequest(ctx, request)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("request_id", request.ID).Int64("user_id", requestorID).Msg("item request created")
	if s.eventBus != nil {
		payload := events.RequestEventPayload{RequestID: request.ID, RequestorID: requestorID, Description: description}
		if err := s.eventBus.PublishJSON(events.EventItemRequested, payload); err != nil {
			s.logger.Error().Err(err).Int64("request_id", request.ID).Msg("publish event error")
		} else {
			metrics.IncEvent(events.EventItemRequested)
		}
	}
	return request, nil
}

// ListOwn returns the user's requests, oldest first, with their answers.
func (s *RequestService) ListOwn(ctx context.Context, userID int64) ([]*models.ItemRequest, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListRequestsByRequestor(ctx, userID)
}

// ListOthers pages through requests made by other users, newest first.
func (s *RequestService) ListOthers(ctx context.Context, userID int64, from, size int) ([]*models.ItemRequest, error) {
	page, err := NewPage(from, size)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListRequestsExcept(ctx, userID, page.Offset, page.Limit)
}

func (s *RequestService) GetRequest(ctx context.Context, userID, requestID int64) (*models.ItemRequest, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.GetRequest(ctx, requestID)
}
