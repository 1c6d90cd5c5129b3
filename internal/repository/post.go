package repository

import (
	"context"
	"time"

	"murmur/internal/cache"
	"murmur/internal/models"
	"murmur/internal/observability"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]*models.Post, error)
	UpdateContent(ctx context.Context, id uint, content string) (*models.Post, error)
	SetTags(ctx context.Context, id uint, usernames []string) (*models.Post, error)
	ClearTags(ctx context.Context, id uint) (*models.Post, error)
	DeleteCascade(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewPostRepository creates a new post repository. c may be nil.
func NewPostRepository(db *gorm.DB, c *cache.Cache) PostRepository {
	return &postRepository{db: db, cache: c}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		if isForeignKeyError(err) {
			return models.NewNotFoundError("User", post.OwnerID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		return translate(r.db.WithContext(ctx).First(&post, id).Error, "Post", id)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) UpdateContent(ctx context.Context, id uint, content string) (*models.Post, error) {
	now := time.Now()
	return r.conditionalUpdate(ctx, "update_content", id, "", map[string]interface{}{
		"content":    content,
		"updated_at": &now,
	}, func(*gorm.DB) error { return models.NewNotFoundError("Post", id) })
}

// SetTags installs usernames as the tag set only while the post has none.
// The guard and the write are a single statement.
func (r *postRepository) SetTags(ctx context.Context, id uint, usernames []string) (*models.Post, error) {
	var post *models.Post
	err := withRetry(ctx, "set_tags", func() error {
		var err error
		post, err = r.conditionalUpdate(ctx, "set_tags", id, "tag_count = 0", map[string]interface{}{
			"tagged_users": datatypes.JSONSlice[string](usernames),
			"tag_count":    len(usernames),
		}, func(tx *gorm.DB) error {
			if err := tx.Select("id").First(&models.Post{}, id).Error; err != nil {
				return translate(err, "Post", id)
			}
			return models.NewConflictError("Post is already tagged; remove its tags before tagging again")
		})
		return err
	})
	return post, err
}

// ClearTags empties a non-empty tag set.
func (r *postRepository) ClearTags(ctx context.Context, id uint) (*models.Post, error) {
	return r.conditionalUpdate(ctx, "clear_tags", id, "tag_count > 0", map[string]interface{}{
		"tagged_users": datatypes.JSONSlice[string]{},
		"tag_count":    0,
	}, func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Post{}, id).Error; err != nil {
			return translate(err, "Post", id)
		}
		return &models.AppError{Code: models.CodeNotFound, Message: "Post has no tagged users"}
	})
}

// conditionalUpdate applies updates to post id when guard (if any) holds.
// When no row matches, onMiss runs inside the same transaction to explain why.
func (r *postRepository) conditionalUpdate(
	ctx context.Context,
	op string,
	id uint,
	guard string,
	updates map[string]interface{},
	onMiss func(tx *gorm.DB) error,
) (*models.Post, error) {
	defer observability.TrackQuery(op, "posts")()

	var post models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Post{}).Where("id = ?", id)
		if guard != "" {
			q = q.Where(guard)
		}
		res := q.Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return onMiss(tx)
		}
		return tx.First(&post, id).Error
	})
	if err != nil {
		return nil, translate(err, "Post", id)
	}
	r.cache.InvalidatePost(ctx, id)
	return &post, nil
}

// DeleteCascade removes the post, its comments and replies, and every
// reaction on any of them in one transaction.
func (r *postRepository) DeleteCascade(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete_cascade", "posts")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Post{}, id).Error; err != nil {
			return translate(err, "Post", id)
		}
		return cascadePosts(tx, []uint{id})
	})
	if err != nil {
		return translate(err, "Post", id)
	}
	r.cache.InvalidatePost(ctx, id)
	return nil
}
