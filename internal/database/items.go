package database

import (
	"context"
	"fmt"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/models"

	"gorm.io/gorm/clause"
)

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	if err := db.gorm.WithContext(ctx).Omit(clause.Associations).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

func (db *DB) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	if err := db.gorm.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, notFound(err, "item", id)
	}
	return &item, nil
}

// UpdateItem persists name, description and availability.
func (db *DB) UpdateItem(ctx context.Context, item *models.Item) error {
	res := db.gorm.WithContext(ctx).
		Model(item).
		Omit(clause.Associations).
		Select("name", "description", "available", "updated_at").
		Updates(item)
	if res.Error != nil {
		return fmt.Errorf("failed to update item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: item %d", domain.ErrNotFound, item.ID)
	}
	return nil
}

func (db *DB) DeleteItem(ctx context.Context, id int64) error {
	res := db.gorm.WithContext(ctx).Delete(&models.Item{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: item %d", domain.ErrNotFound, id)
	}
	return nil
}

func (db *DB) ListItemsByOwner(ctx context.Context, ownerID int64) ([]*models.Item, error) {
	var items []*models.Item
	err := db.gorm.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list owner items: %w", err)
	}
	return items, nil
}

// SearchAvailableItems matches text against name or description, ignoring case.
func (db *DB) SearchAvailableItems(ctx context.Context, text string, offset, limit int) ([]*models.Item, error) {
	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"

	var items []*models.Item
	err := db.gorm.WithContext(ctx).
		Where("available = ?", true).
		Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", pattern, pattern).
		Order("name").
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}
	return items, nil
}

func (db *DB) ListItemsByRequests(ctx context.Context, requestIDs []int64) ([]*models.Item, error) {
	if len(requestIDs) == 0 {
		return []*models.Item{}, nil
	}
	var items []*models.Item
	err := db.gorm.WithContext(ctx).
		Where("request_id IN ?", requestIDs).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list request items: %w", err)
	}
	return items, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
