package repository

import (
	"context"

	"murmur/internal/models"
	"murmur/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error)
	UpdateContent(ctx context.Context, id uint, content string) (*models.Comment, error)
	DeleteCascade(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts comment under its post. The post is share-locked so a
// concurrent post delete cannot orphan the new row.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Select("id").First(&models.Post{}, comment.PostID).Error; err != nil {
			return translate(err, "Post", comment.PostID)
		}
		if err := tx.Create(comment).Error; err != nil {
			if isForeignKeyError(err) {
				return models.NewNotFoundError("User", comment.OwnerID)
			}
			return err
		}
		return nil
	})
	return translate(err, "Post", comment.PostID)
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, translate(err, "Comment", id)
	}
	return &comment, nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).Order("created_at ASC, id ASC").Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, id uint, content string) (*models.Comment, error) {
	return updateContent[models.Comment](ctx, r.db, "Comment", id, content)
}

// DeleteCascade removes the comment, its replies and their reactions in one transaction.
func (r *commentRepository) DeleteCascade(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete_cascade", "comments")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Comment{}, id).Error; err != nil {
			return translate(err, "Comment", id)
		}
		return cascadeComment(tx, id)
	})
	return translate(err, "Comment", id)
}
