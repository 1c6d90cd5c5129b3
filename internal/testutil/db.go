// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"murmur/internal/database"
	"murmur/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a migrated SQLite database in a temp dir, closed on cleanup.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "murmur.db"))
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user with the given username.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "x",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateAdmin inserts a user with the admin role.
func CreateAdmin(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "x",
		Role:     models.RoleAdmin,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreatePost inserts a post owned by owner.
func CreatePost(t testing.TB, db *gorm.DB, owner *models.User, content string) *models.Post {
	t.Helper()
	p := &models.Post{OwnerID: owner.ID, Content: content}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateComment inserts a comment on post.
func CreateComment(t testing.TB, db *gorm.DB, owner *models.User, post *models.Post, content string) *models.Comment {
	t.Helper()
	c := &models.Comment{OwnerID: owner.ID, PostID: post.ID, Content: content}
	require.NoError(t, db.Create(c).Error)
	return c
}

// CreateReply inserts a reply under comment.
func CreateReply(t testing.TB, db *gorm.DB, owner *models.User, comment *models.Comment, content string) *models.Reply {
	t.Helper()
	r := &models.Reply{OwnerID: owner.ID, PostID: comment.PostID, CommentID: comment.ID, Content: content}
	require.NoError(t, db.Create(r).Error)
	return r
}

// CreateReaction inserts a reaction by owner on target.
func CreateReaction(t testing.TB, db *gorm.DB, owner *models.User, target models.ReactionTarget, rt models.ReactionType) *models.Reaction {
	t.Helper()
	r := models.NewReaction(owner.ID, target, rt)
	require.NoError(t, db.Create(r).Error)
	return r
}

// CreateFollow inserts a follower -> followee edge.
func CreateFollow(t testing.TB, db *gorm.DB, follower, followee *models.User) *models.Follow {
	t.Helper()
	f := &models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID}
	require.NoError(t, db.Create(f).Error)
	return f
}

// Count returns the number of rows of model matching the optional condition.
func Count(t testing.TB, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
