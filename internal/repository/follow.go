package repository

import (
	"context"

	"murmur/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines persistence operations for directed follow edges.
type FollowRepository interface {
	Create(ctx context.Context, followerID, followeeID uint) (*models.Follow, error)
	Delete(ctx context.Context, followerID, followeeID uint) error
	ListFollowers(ctx context.Context, userID uint, page models.FollowPage) ([]models.FollowEntry, error)
	ListFollowing(ctx context.Context, userID uint, page models.FollowPage) ([]models.FollowEntry, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new FollowRepository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// Create inserts the edge if absent. An existing edge yields Conflict; the
// decision is made by the insert's row count, not a prior read.
func (r *followRepository) Create(ctx context.Context, followerID, followeeID uint) (*models.Follow, error) {
	var follow *models.Follow
	err := withRetry(ctx, "create_follow", func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Select("id").First(&models.User{}, followeeID).Error; err != nil {
				return translate(err, "User", followeeID)
			}

			follow = &models.Follow{FollowerID: followerID, FolloweeID: followeeID}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(follow)
			if res.Error != nil {
				if isUniqueConstraintError(res.Error) {
					return models.NewConflictError("Already following this user")
				}
				return res.Error
			}
			if res.RowsAffected == 0 {
				return models.NewConflictError("Already following this user")
			}
			return nil
		})
	})
	if err != nil {
		return nil, translate(err, "User", followeeID)
	}
	return follow, nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followeeID uint) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return &models.AppError{Code: models.CodeNotFound, Message: "Not following this user"}
	}
	return nil
}

func (r *followRepository) ListFollowers(ctx context.Context, userID uint, page models.FollowPage) ([]models.FollowEntry, error) {
	return r.list(ctx, "follows.follower_id", "follows.followee_id", userID, page)
}

func (r *followRepository) ListFollowing(ctx context.Context, userID uint, page models.FollowPage) ([]models.FollowEntry, error) {
	return r.list(ctx, "follows.followee_id", "follows.follower_id", userID, page)
}

type followRow struct {
	EdgeID   uint
	ID       uint
	Username string
}

// list joins the "other side" column of each edge matching anchor = userID.
func (r *followRepository) list(ctx context.Context, other, anchor string, userID uint, page models.FollowPage) ([]models.FollowEntry, error) {
	q := r.db.WithContext(ctx).
		Table("follows").
		Select("follows.id AS edge_id, users.id AS id, users.username AS username").
		Joins("JOIN users ON users.id = "+other).
		Where(anchor+" = ?", userID)
	if page.AfterID > 0 {
		q = q.Where("follows.id > ?", page.AfterID)
	} else if page.Offset > 0 {
		q = q.Offset(page.Offset)
	}
	if page.Limit > 0 {
		q = q.Limit(page.Limit)
	}

	var rows []followRow
	if err := q.Order("follows.id ASC").Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	entries := make([]models.FollowEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, models.FollowEntry{
			EdgeID: row.EdgeID,
			User:   models.UserSummary{ID: row.ID, Username: row.Username},
		})
	}
	return entries, nil
}
