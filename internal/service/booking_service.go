package service

import (
	"context"
	"fmt"
	"time"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
		now:      utcNow,
	}
}

// SetClock replaces the time source used for validation and filtering.
func (s *BookingService) SetClock(now func() time.Time) {
	s.now = now
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// CreateBooking requests item for [start, end) on behalf of requesterID.
func (s *BookingService) CreateBooking(ctx context.Context, requesterID, itemID int64, start, end time.Time) (*models.Booking, error) {
	var created *models.Booking
	err := s.repo.WithinTx(ctx, func(tx domain.Repository) error {
		booker, err := tx.GetUser(ctx, requesterID)
		if err != nil {
			return err
		}
		item, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if !item.Available {
			return fmt.Errorf("%w: item %d", domain.ErrItemUnavailable, item.ID)
		}
		if item.OwnerID == booker.ID {
			return fmt.Errorf("%w: owner cannot book own item %d", domain.ErrNotAuthorized, item.ID)
		}
		if err := ValidateBookingTime(start, end, s.now()); err != nil {
			return err
		}

		booking := &models.Booking{
			Start:    start.UTC(),
			End:      end.UTC(),
			ItemID:   item.ID,
			BookerID: booker.ID,
			Status:   models.StatusWaiting,
		}
		if err := tx.CreateBooking(ctx, booking); err != nil {
			return err
		}
		booking.Item = item
		booking.Booker = booker
		created = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", created.ID).
		Int64("item_id", created.ItemID).
		Int64("user_id", requesterID).
		Msg("booking created")
	s.publishEvent(events.EventBookingCreated, created, requesterID)

	return created, nil
}

// SetApproval lets the item owner approve or reject a waiting booking.
func (s *BookingService) SetApproval(ctx context.Context, bookingID, actorID int64, approve bool) (*models.Booking, error) {
	status := models.StatusRejected
	if approve {
		status = models.StatusApproved
	}

	var updated *models.Booking
	err := s.repo.WithinTx(ctx, func(tx domain.Repository) error {
		booking, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		// Состояние проверяется раньше прав владельца
		if booking.Status != models.StatusWaiting {
			return fmt.Errorf("%w: booking %d is %s", domain.ErrInvalidState, booking.ID, booking.Status)
		}
		if booking.OwnerID() != actorID {
			return fmt.Errorf("%w: user %d does not own booking %d", domain.ErrNotAuthorized, actorID, booking.ID)
		}
		if err := tx.TransitionBookingStatus(ctx, booking.ID, status); err != nil {
			return err
		}
		booking.Status = status
		updated = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", updated.ID).
		Int64("user_id", actorID).
		Str("status", string(status)).
		Msg("booking decided")

	eventType := events.EventBookingRejected
	if approve {
		eventType = events.EventBookingApproved
	}
	s.publishEvent(eventType, updated, actorID)

	return updated, nil
}

// GetBooking is visible to the booker and the item owner only.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, viewerID int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.BookerID != viewerID && booking.OwnerID() != viewerID {
		return nil, fmt.Errorf("%w: user %d cannot view booking %d", domain.ErrNotAuthorized, viewerID, bookingID)
	}
	return booking, nil
}

// ListByBooker returns one page of the user's own bookings in the given state.
func (s *BookingService) ListByBooker(ctx context.Context, userID int64, state string, from, size int) ([]*models.Booking, error) {
	return s.list(ctx, userID, state, from, size, s.repo.ListBookingsByBooker)
}

// ListByOwnedItems returns one page of bookings made for the user's items.
func (s *BookingService) ListByOwnedItems(ctx context.Context, userID int64, state string, from, size int) ([]*models.Booking, error) {
	return s.list(ctx, userID, state, from, size, s.repo.ListBookingsByOwner)
}

func (s *BookingService) list(
	ctx context.Context,
	userID int64,
	rawState string,
	from, size int,
	load func(ctx context.Context, userID int64) ([]*models.Booking, error),
) ([]*models.Booking, error) {
	state, err := ParseBookingState(rawState)
	if err != nil {
		return nil, err
	}
	page, err := NewPage(from, size)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	all, err := load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Slice(FilterBookings(all, state, s.now()), page), nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, actorID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		BookerID:  booking.BookerID,
		OwnerID:   booking.OwnerID(),
		ItemID:    booking.ItemID,
		Status:    string(booking.Status),
		Start:     booking.Start,
		End:       booking.End,
		ActorID:   actorID,
	}
	if booking.Item != nil {
		payload.ItemName = booking.Item.Name
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
		return
	}
	metrics.IncEvent(eventType)
}
