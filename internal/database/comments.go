package database

import (
	"context"
	"fmt"

	"shareit/internal/models"

	"gorm.io/gorm/clause"
)

func (db *DB) CreateComment(ctx context.Context, comment *models.Comment) error {
	comment.Created = comment.Created.UTC()
	if err := db.gorm.WithContext(ctx).Omit(clause.Associations).Create(comment).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (db *DB) ListCommentsByItems(ctx context.Context, itemIDs []int64) ([]*models.Comment, error) {
	if len(itemIDs) == 0 {
		return []*models.Comment{}, nil
	}
	var comments []*models.Comment
	err := db.gorm.WithContext(ctx).
		Preload("Author").
		Where("item_id IN ?", itemIDs).
		Order("id").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}
