package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// BookingRef is the short booking form shown next to an item.
type BookingRef struct {
	ID       int64
	BookerID int64
	Start    time.Time
	End      time.Time
}

// ItemDetails is an item together with its comments and, for the owner,
// the surrounding approved bookings.
type ItemDetails struct {
	Item        *models.Item
	LastBooking *BookingRef
	NextBooking *BookingRef
	Comments    []*models.Comment
}

type ItemService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewItemService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *ItemService {
	return &ItemService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
		now:      utcNow,
	}
}

// SetClock replaces the time source.
func (s *ItemService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *ItemService) CreateItem(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error) {
	if strings.TrimSpace(item.Name) == "" || strings.TrimSpace(item.Description) == "" {
		return nil, fmt.Errorf("%w: name and description are required", domain.ErrValidation)
	}

	err := s.repo.WithinTx(ctx, func(tx domain.Repository) error {
		if _, err := tx.GetUser(ctx, ownerID); err != nil {
			return err
		}
		if item.RequestID != nil {
			if _, err := tx.GetRequest(ctx, *item.RequestID); err != nil {
				return err
			}
		}
		item.ID = 0
		item.OwnerID = ownerID
		return tx.CreateItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("item_id", item.ID).Int64("user_id", ownerID).Msg("item created")
	return item, nil
}

// UpdateItem applies a partial update. Only the owner may edit an item.
func (s *ItemService) UpdateItem(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error) {
	var updated *models.Item
	err := s.repo.WithinTx(ctx, func(tx domain.Repository) error {
		if _, err := tx.GetUser(ctx, ownerID); err != nil {
			return err
		}
		item, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if item.OwnerID != ownerID {
			return fmt.Errorf("%w: user %d does not own item %d", domain.ErrForbidden, ownerID, itemID)
		}

		if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
			item.Name = *patch.Name
		}
		if patch.Description != nil && strings.TrimSpace(*patch.Description) != "" {
			item.Description = *patch.Description
		}
		if patch.Available != nil {
			item.Available = *patch.Available
		}
		if patch.IsEmpty() {
			updated = item
			return nil
		}
		if err := tx.UpdateItem(ctx, item); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("item_id", itemID).Int64("user_id", ownerID).Msg("item updated")
	return updated, nil
}

func (s *ItemService) DeleteItem(ctx context.Context, ownerID, itemID int64) error {
	err := s.repo.WithinTx(ctx, func(tx domain.Repository) error {
		item, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if item.OwnerID != ownerID {
			return fmt.Errorf("%w: user %d does not own item %d", domain.ErrForbidden, ownerID, itemID)
		}
		return tx.DeleteItem(ctx, itemID)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int64("item_id", itemID).Int64("user_id", ownerID).Msg("item deleted")
	return nil
}

// GetItem returns the item with its comments. Booking neighbours are
// revealed only when viewerID is the owner.
func (s *ItemService) GetItem(ctx context.Context, itemID, viewerID int64) (*ItemDetails, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	details, err := s.describe(ctx, []*models.Item{item}, item.OwnerID == viewerID)
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

// ListOwnerItems lists the owner's items, those with the latest upcoming
// booking first and items without an upcoming booking last.
func (s *ItemService) ListOwnerItems(ctx context.Context, ownerID int64, from, size int) ([]*ItemDetails, error) {
	page, err := NewPage(from, size)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetUser(ctx, ownerID); err != nil {
		return nil, err
	}

	items, err := s.repo.ListItemsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	details, err := s.describe(ctx, items, true)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(details, func(i, j int) bool {
		a, b := details[i].NextBooking, details[j].NextBooking
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Start.After(b.Start)
		}
	})

	return Slice(details, page), nil
}

// Search finds available items by name or description. Blank text finds nothing.
func (s *ItemService) Search(ctx context.Context, text string, from, size int) ([]*models.Item, error) {
	page, err := NewPage(from, size)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return []*models.Item{}, nil
	}
	return s.repo.SearchAvailableItems(ctx, text, page.Offset, page.Limit)
}

// AddComment posts a review. The author must hold an approved booking of
// the item that has already started.
func (s *ItemService) AddComment(ctx context.Context, authorID, itemID int64, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text is required", domain.ErrValidation)
	}

	now := s.now()
	var comment *models.Comment
	err := s.repo.WithinTx(ctx, func(tx domain.Repository) error {
		author, err := tx.GetUser(ctx, authorID)
		if err != nil {
			return err
		}
		if _, err := tx.GetItem(ctx, itemID); err != nil {
			return err
		}
		ok, err := tx.HasStartedApprovedBooking(ctx, authorID, itemID, now)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: user %d, item %d", domain.ErrCommentNotAllowed, authorID, itemID)
		}

		comment = &models.Comment{Text: text, ItemID: itemID, AuthorID: authorID, Created: now}
		if err := tx.CreateComment(ctx, comment); err != nil {
			return err
		}
		comment.Author = author
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("item_id", itemID).Int64("user_id", authorID).Int64("comment_id", comment.ID).Msg("comment added")
	if s.eventBus != nil {
		payload := events.CommentEventPayload{CommentID: comment.ID, ItemID: itemID, AuthorID: authorID, Text: text}
		if err := s.eventBus.PublishJSON(events.EventCommentAdded, payload); err != nil {
			s.logger.Error().Err(err).Int64("comment_id", comment.ID).Msg("publish event error")
		} else {
			metrics.IncEvent(events.EventCommentAdded)
		}
	}
	return comment, nil
}

func (s *ItemService) describe(ctx context.Context, items []*models.Item, withBookings bool) ([]*ItemDetails, error) {
	ids := make([]int64, 0, len(items))
	details := make([]*ItemDetails, 0, len(items))
	byID := make(map[int64]*ItemDetails, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
		d := &ItemDetails{Item: item, Comments: []*models.Comment{}}
		details = append(details, d)
		byID[item.ID] = d
	}

	comments, err := s.repo.ListCommentsByItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		if d, ok := byID[c.ItemID]; ok {
			d.Comments = append(d.Comments, c)
		}
	}

	if !withBookings {
		return details, nil
	}

	bookings, err := s.repo.ListApprovedBookingsByItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, b := range bookings {
		d, ok := byID[b.ItemID]
		if !ok {
			continue
		}
		ref := &BookingRef{ID: b.ID, BookerID: b.BookerID, Start: b.Start, End: b.End}
		if !b.Start.After(now) {
			if d.LastBooking == nil || b.Start.After(d.LastBooking.Start) {
				d.LastBooking = ref
			}
		} else if d.NextBooking == nil || b.Start.Before(d.NextBooking.Start) {
			d.NextBooking = ref
		}
	}
	return details, nil
}
