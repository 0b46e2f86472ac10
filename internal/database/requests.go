package database

import (
	"context"
	"fmt"

	"shareit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (db *DB) CreateRequest(ctx context.Context, request *models.ItemRequest) error {
	request.Created = request.Created.UTC()
	if err := db.gorm.WithContext(ctx).Omit(clause.Associations).Create(request).Error; err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

func (db *DB) requests(ctx context.Context) *gorm.DB {
	return db.gorm.WithContext(ctx).Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("items.id")
	})
}

func (db *DB) GetRequest(ctx context.Context, id int64) (*models.ItemRequest, error) {
	var request models.ItemRequest
	if err := db.requests(ctx).First(&request, id).Error; err != nil {
		return nil, notFound(err, "request", id)
	}
	return &request, nil
}

// ListRequestsByRequestor returns the user's own requests, oldest first.
func (db *DB) ListRequestsByRequestor(ctx context.Context, requestorID int64) ([]*models.ItemRequest, error) {
	var requests []*models.ItemRequest
	err := db.requests(ctx).
		Where("requestor_id = ?", requestorID).
		Order("created").
		Order("id").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return requests, nil
}

// ListRequestsExcept pages through everybody else's requests, newest first.
func (db *DB) ListRequestsExcept(ctx context.Context, requestorID int64, offset, limit int) ([]*models.ItemRequest, error) {
	var requests []*models.ItemRequest
	err := db.requests(ctx).
		Where("requestor_id <> ?", requestorID).
		Order("created DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return requests, nil
}
