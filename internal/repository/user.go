// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"

	"murmur/internal/cache"
	"murmur/internal/models"
	"murmur/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetAccount(ctx context.Context, id uint) (*models.User, error)
	FindByUsernames(ctx context.Context, usernames []string) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id uint, bio, avatar *string) (*models.User, error)
	UpdateEmail(ctx context.Context, id uint, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id uint, hash string) error
	SetRole(ctx context.Context, id uint, role models.Role) (*models.User, error)
	DeleteCascade(ctx context.Context, id uint) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

type userRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewUserRepository returns a new UserRepository implementation. c may be nil.
func NewUserRepository(db *gorm.DB, c *cache.Cache) UserRepository {
	return &userRepository{db: db, cache: c}
}

// GetByID is cache-aside. Cached copies omit the fields hidden from JSON
// (email, password hash); use GetByUsername when those are needed.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		return translate(r.db.WithContext(ctx).First(&user, id).Error, "User", id)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", username)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetAccount loads the full row, email and password hash included. It
// never reads or fills the cache.
func (r *userRepository) GetAccount(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, "User", id)
	}
	return &user, nil
}

// FindByUsernames returns the users among usernames that exist.
func (r *userRepository) FindByUsernames(ctx context.Context, usernames []string) ([]models.User, error) {
	if len(usernames) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("username IN ?", usernames).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// UpdateProfile changes the mutable profile fields. Nil arguments are left as they are.
func (r *userRepository) UpdateProfile(ctx context.Context, id uint, bio, avatar *string) (*models.User, error) {
	updates := map[string]interface{}{}
	if bio != nil {
		updates["bio"] = *bio
	}
	if avatar != nil {
		updates["avatar"] = *avatar
	}
	return r.update(ctx, id, updates)
}

// UpdateEmail fails with Conflict when another account has email.
func (r *userRepository) UpdateEmail(ctx context.Context, id uint, email string) (*models.User, error) {
	return r.update(ctx, id, map[string]interface{}{"email": email})
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	_, err := r.update(ctx, id, map[string]interface{}{"password": hash})
	return err
}

func (r *userRepository) SetRole(ctx context.Context, id uint, role models.Role) (*models.User, error) {
	return r.update(ctx, id, map[string]interface{}{"role": role})
}

func (r *userRepository) update(ctx context.Context, id uint, updates map[string]interface{}) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return translate(err, "User", id)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			// email is the only unique column that can change
			if isUniqueConstraintError(err) {
				return models.NewConflictError("Email is already in use")
			}
			return err
		}
		return tx.First(&user, id).Error
	})
	if err != nil {
		return nil, translate(err, "User", id)
	}
	r.cache.InvalidateUser(ctx, id)
	return &user, nil
}

// DeleteCascade removes the user and every dependent row in one transaction.
func (r *userRepository) DeleteCascade(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete_cascade", "users")()

	var postIDs []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.User{}, id).Error; err != nil {
			return translate(err, "User", id)
		}
		var err error
		postIDs, err = cascadeUser(tx, id)
		return err
	})
	if err != nil {
		return translate(err, "User", id)
	}
	r.cache.InvalidateUser(ctx, id)
	r.cache.InvalidatePost(ctx, postIDs...)
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("id ASC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
