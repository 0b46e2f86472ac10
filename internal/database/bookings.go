package database

import (
	"context"
	"fmt"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	booking.Start = booking.Start.UTC()
	booking.End = booking.End.UTC()
	if err := db.gorm.WithContext(ctx).Omit(clause.Associations).Create(booking).Error; err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (db *DB) bookings(ctx context.Context) *gorm.DB {
	return db.gorm.WithContext(ctx).
		Preload("Item").
		Preload("Booker")
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	if err := db.bookings(ctx).First(&booking, id).Error; err != nil {
		return nil, notFound(err, "booking", id)
	}
	return &booking, nil
}

// TransitionBookingStatus relies on a guarded UPDATE so that two concurrent
// decisions on the same booking cannot both succeed.
func (db *DB) TransitionBookingStatus(ctx context.Context, id int64, status models.BookingStatus) error {
	res := db.gorm.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, models.StatusWaiting).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update booking status: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := db.gorm.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check booking: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: booking %d", domain.ErrNotFound, id)
	}
	return fmt.Errorf("%w: booking %d", domain.ErrInvalidState, id)
}

func (db *DB) ListBookingsByBooker(ctx context.Context, bookerID int64) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := db.bookings(ctx).
		Where("booker_id = ?", bookerID).
		Order("id").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list booker bookings: %w", err)
	}
	return bookings, nil
}

func (db *DB) ListBookingsByOwner(ctx context.Context, ownerID int64) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := db.bookings(ctx).
		Joins("JOIN items ON items.id = bookings.item_id").
		Where("items.owner_id = ?", ownerID).
		Order("bookings.id").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list owner bookings: %w", err)
	}
	return bookings, nil
}

func (db *DB) ListApprovedBookingsByItems(ctx context.Context, itemIDs []int64) ([]*models.Booking, error) {
	if len(itemIDs) == 0 {
		return []*models.Booking{}, nil
	}
	var bookings []*models.Booking
	err := db.gorm.WithContext(ctx).
		Where("item_id IN ? AND status = ?", itemIDs, models.StatusApproved).
		Order("id").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list item bookings: %w", err)
	}
	return bookings, nil
}

// HasStartedApprovedBooking reports whether the booker holds an approved
// booking of the item that started at or before now.
func (db *DB) HasStartedApprovedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error) {
	var bookings []*models.Booking
	err := db.gorm.WithContext(ctx).
		Where("booker_id = ? AND item_id = ? AND status = ?", bookerID, itemID, models.StatusApproved).
		Find(&bookings).Error
	if err != nil {
		return false, fmt.Errorf("failed to check bookings: %w", err)
	}
	for _, b := range bookings {
		if !b.Start.After(now) {
			return true, nil
		}
	}
	return false, nil
}
