package repository

import (
	"context"
	"errors"
	"time"

	"murmur/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository defines persistence operations for reactions.
type ReactionRepository interface {
	CreateOnTarget(ctx context.Context, reaction *models.Reaction, path models.ReactionPath) (*models.ReactionDetail, error)
	GetByID(ctx context.Context, id uint) (*models.Reaction, error)
	UpdateType(ctx context.Context, id uint, reactionType models.ReactionType) (*models.Reaction, error)
	Delete(ctx context.Context, id uint) error
	ListByTarget(ctx context.Context, target models.ReactionTarget, path models.ReactionPath) ([]models.ReactionSummary, error)
}

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository creates a new ReactionRepository
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

// CreateOnTarget resolves the reaction's target, checks it against path and
// inserts, all in one transaction. The target and its ancestors stay share
// locked until commit so a concurrent delete cannot orphan the new row. The
// unique index on (owner_id, target_type, target_id) decides between
// concurrent duplicates.
func (r *reactionRepository) CreateOnTarget(
	ctx context.Context,
	reaction *models.Reaction,
	path models.ReactionPath,
) (*models.ReactionDetail, error) {
	var detail *models.ReactionDetail
	err := withRetry(ctx, "create_reaction", func() error {
		reaction.ID = 0
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			detail, err = resolveTarget(tx, reaction.Target(), path, true)
			var pm *pathMismatch
			if errors.As(err, &pm) {
				return models.NewValidationError(pm.Error())
			}
			if err != nil {
				return err
			}

			var existing int64
			if err := tx.Model(&models.Reaction{}).
				Where("owner_id = ? AND target_type = ? AND target_id = ?", reaction.OwnerID, reaction.TargetType, reaction.TargetID).
				Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				return models.NewConflictError("Already reacted to this " + string(reaction.TargetType))
			}

			if err := tx.Create(reaction).Error; err != nil {
				if isUniqueConstraintError(err) {
					return models.NewConflictError("Already reacted to this " + string(reaction.TargetType))
				}
				if isForeignKeyError(err) {
					return models.NewNotFoundError("User", reaction.OwnerID)
				}
				return err
			}
			detail.Reaction = reaction
			return nil
		})
	})
	if err != nil {
		return nil, translate(err, "Reaction", reaction.Target().String())
	}
	return detail, nil
}

// pathMismatch reports an addressed ancestor that is not the target's.
type pathMismatch struct {
	ancestor string
}

func (e *pathMismatch) Error() string {
	return e.ancestor + " does not match the reaction target"
}

func targetResource(kind models.TargetKind) string {
	switch kind {
	case models.TargetComment:
		return "Comment"
	case models.TargetReply:
		return "Reply"
	}
	return "Post"
}

// resolveTarget loads target and its ancestors, share locking each row when
// lock is set. Path ids, when given, must match the ancestors of the row that
// was loaded; otherwise a *pathMismatch is returned.
func resolveTarget(tx *gorm.DB, target models.ReactionTarget, path models.ReactionPath, lock bool) (*models.ReactionDetail, error) {
	detail := &models.ReactionDetail{}
	load := func(dest interface{}, id uint) error {
		q := tx
		if lock {
			q = q.Clauses(clause.Locking{Strength: "SHARE"})
		}
		return q.First(dest, id).Error
	}

	var postID uint
	switch target.Kind {
	case models.TargetPost:
		postID = target.ID
		if path.PostID != nil && *path.PostID != postID {
			return nil, &pathMismatch{"Post"}
		}

	case models.TargetComment:
		var comment models.Comment
		if err := load(&comment, target.ID); err != nil {
			return nil, translate(err, "Comment", target.ID)
		}
		if path.PostID != nil && *path.PostID != comment.PostID {
			return nil, &pathMismatch{"Post"}
		}
		postID = comment.PostID
		detail.CommentContent = comment.Content
		detail.TargetOwnerID = comment.OwnerID

	case models.TargetReply:
		var reply models.Reply
		if err := load(&reply, target.ID); err != nil {
			return nil, translate(err, "Reply", target.ID)
		}
		if path.CommentID != nil && *path.CommentID != reply.CommentID {
			return nil, &pathMismatch{"Comment"}
		}
		if path.PostID != nil && *path.PostID != reply.PostID {
			return nil, &pathMismatch{"Post"}
		}
		var comment models.Comment
		if err := load(&comment, reply.CommentID); err != nil {
			return nil, translate(err, "Comment", reply.CommentID)
		}
		postID = reply.PostID
		detail.CommentContent = comment.Content
		detail.ReplyContent = reply.Content
		detail.TargetOwnerID = reply.OwnerID

	default:
		return nil, target.Validate()
	}

	var post models.Post
	if err := load(&post, postID); err != nil {
		return nil, translate(err, "Post", postID)
	}
	detail.PostContent = post.Content
	if target.Kind == models.TargetPost {
		detail.TargetOwnerID = post.OwnerID
	}
	return detail, nil
}

func (r *reactionRepository) GetByID(ctx context.Context, id uint) (*models.Reaction, error) {
	var reaction models.Reaction
	if err := r.db.WithContext(ctx).First(&reaction, id).Error; err != nil {
		return nil, translate(err, "Reaction", id)
	}
	return &reaction, nil
}

// UpdateType changes the reaction type in place; the row keeps its id and target.
func (r *reactionRepository) UpdateType(ctx context.Context, id uint, reactionType models.ReactionType) (*models.Reaction, error) {
	var reaction models.Reaction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Reaction{}).Where("id = ?", id).Updates(map[string]interface{}{
			"reaction_type": reactionType,
			"updated_at":    &now,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Reaction", id)
		}
		return tx.First(&reaction, id).Error
	})
	if err != nil {
		return nil, translate(err, "Reaction", id)
	}
	return &reaction, nil
}

func (r *reactionRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Reaction{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Reaction", id)
	}
	return nil
}

// ListByTarget returns the reactions on target with their owners' usernames.
// A target that is not under the addressed path does not exist there.
func (r *reactionRepository) ListByTarget(
	ctx context.Context,
	target models.ReactionTarget,
	path models.ReactionPath,
) ([]models.ReactionSummary, error) {
	summaries := []models.ReactionSummary{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := resolveTarget(tx, target, path, false)
		var pm *pathMismatch
		if errors.As(err, &pm) {
			return models.NewNotFoundError(targetResource(target.Kind), target.ID)
		}
		if err != nil {
			return err
		}
		return tx.Table("reactions").
			Select("reactions.id AS id, users.username AS owner, reactions.reaction_type AS reaction_type").
			Joins("JOIN users ON users.id = reactions.owner_id").
			Where("reactions.target_type = ? AND reactions.target_id = ?", target.Kind, target.ID).
			Order("reactions.id ASC").
			Scan(&summaries).Error
	})
	if err != nil {
		return nil, translate(err, "Reaction", target.String())
	}
	return summaries, nil
}
