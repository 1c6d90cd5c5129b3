package repository

import (
	"context"

	"murmur/internal/models"
	"murmur/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReplyRepository defines persistence operations for replies.
type ReplyRepository interface {
	CreateUnderComment(ctx context.Context, reply *models.Reply) error
	GetByID(ctx context.Context, id uint) (*models.Reply, error)
	ListByComment(ctx context.Context, commentID uint) ([]*models.Reply, error)
	UpdateContent(ctx context.Context, id uint, content string) (*models.Reply, error)
	DeleteCascade(ctx context.Context, id uint) error
}

type replyRepository struct {
	db *gorm.DB
}

// NewReplyRepository creates a new ReplyRepository
func NewReplyRepository(db *gorm.DB) ReplyRepository {
	return &replyRepository{db: db}
}

// CreateUnderComment inserts reply after checking, in the same transaction,
// that reply.CommentID exists and belongs to reply.PostID. The comment row
// resolved here is the one compared; it is share-locked until commit.
func (r *replyRepository) CreateUnderComment(ctx context.Context, reply *models.Reply) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			First(&comment, reply.CommentID).Error; err != nil {
			return translate(err, "Comment", reply.CommentID)
		}
		if comment.PostID != reply.PostID {
			return models.NewValidationError("Comment does not belong to the given post")
		}
		if err := tx.Select("id").First(&models.Post{}, reply.PostID).Error; err != nil {
			return translate(err, "Post", reply.PostID)
		}
		if err := tx.Create(reply).Error; err != nil {
			if isForeignKeyError(err) {
				return models.NewNotFoundError("User", reply.OwnerID)
			}
			return err
		}
		return nil
	})
	return translate(err, "Comment", reply.CommentID)
}

func (r *replyRepository) GetByID(ctx context.Context, id uint) (*models.Reply, error) {
	var reply models.Reply
	if err := r.db.WithContext(ctx).First(&reply, id).Error; err != nil {
		return nil, translate(err, "Reply", id)
	}
	return &reply, nil
}

func (r *replyRepository) ListByComment(ctx context.Context, commentID uint) ([]*models.Reply, error) {
	var replies []*models.Reply
	err := r.db.WithContext(ctx).Where("comment_id = ?", commentID).Order("created_at ASC, id ASC").Find(&replies).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return replies, nil
}

func (r *replyRepository) UpdateContent(ctx context.Context, id uint, content string) (*models.Reply, error) {
	return updateContent[models.Reply](ctx, r.db, "Reply", id, content)
}

// DeleteCascade removes the reply and the reactions on it in one transaction.
func (r *replyRepository) DeleteCascade(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete_cascade", "replies")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Reply{}, id).Error; err != nil {
			return translate(err, "Reply", id)
		}
		return cascadeReply(tx, id)
	})
	return translate(err, "Reply", id)
}
