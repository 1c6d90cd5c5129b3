package repository

import (
	"context"
	"time"

	"murmur/internal/models"

	"gorm.io/gorm"
)

// updateContent edits the content of a comment or reply and stamps updated_at.
func updateContent[T any](ctx context.Context, db *gorm.DB, resource string, id uint, content string) (*T, error) {
	var row T
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(new(T)).Where("id = ?", id).Updates(map[string]interface{}{
			"content":    content,
			"updated_at": &now,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError(resource, id)
		}
		return tx.First(&row, id).Error
	})
	if err != nil {
		return nil, translate(err, resource, id)
	}
	return &row, nil
}
