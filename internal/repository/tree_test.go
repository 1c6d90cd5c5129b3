package repository

import (
	"context"
	"testing"

	"murmur/internal/models"
	"murmur/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyRepository_CreateUnderComment(t *testing.T) {
	db := testutil.NewDB(t)
	tr := buildTree(t, db)
	repo := NewReplyRepository(db)
	ctx := context.Background()

	tests := []struct {
		name      string
		postID    uint
		commentID uint
		wantCode  string
	}{
		{name: "matching ancestors", postID: tr.post.ID, commentID: tr.comment.ID},
		{name: "missing comment", postID: tr.post.ID, commentID: 9999, wantCode: models.CodeNotFound},
		{name: "comment under another post", postID: tr.other.ID, commentID: tr.comment.ID, wantCode: models.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := &models.Reply{OwnerID: tr.bob.ID, PostID: tt.postID, CommentID: tt.commentID, Content: "again"}
			err := repo.CreateUnderComment(ctx, reply)
			if tt.wantCode != "" {
				assert.True(t, models.IsCode(err, tt.wantCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, reply.ID)
		})
	}

	replies, err := repo.ListByComment(ctx, tr.comment.ID)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, tr.reply.ID, replies[0].ID)
}

func TestCommentRepository_CreateAndEdit(t *testing.T) {
	db := testutil.NewDB(t)
	tr := buildTree(t, db)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	err := repo.Create(ctx, &models.Comment{OwnerID: tr.alice.ID, PostID: 9999, Content: "x"})
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)

	c := &models.Comment{OwnerID: tr.alice.ID, PostID: tr.post.ID, Content: "second"}
	require.NoError(t, repo.Create(ctx, c))

	edited, err := repo.UpdateContent(ctx, c.ID, "second, edited")
	require.NoError(t, err)
	assert.Equal(t, "second, edited", edited.Content)
	assert.NotNil(t, edited.UpdatedAt)

	_, err = repo.UpdateContent(ctx, 9999, "nope")
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)

	comments, err := repo.ListByPost(ctx, tr.post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, tr.comment.ID, comments[0].ID)
	assert.Equal(t, c.ID, comments[1].ID)
}

func TestPostRepository_Tags(t *testing.T) {
	db := testutil.NewDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	post := testutil.CreatePost(t, db, alice, "tag me")
	repo := NewPostRepository(db, nil)
	ctx := context.Background()

	_, err := repo.ClearTags(ctx, post.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)

	tagged, err := repo.SetTags(ctx, post.ID, []string{"bob", "carol"})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, []string(tagged.TaggedUsers))
	assert.Equal(t, 2, tagged.TagCount)

	// tags never merge
	_, err = repo.SetTags(ctx, post.ID, []string{"dave"})
	assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)

	fetched, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, []string(fetched.TaggedUsers))

	cleared, err := repo.ClearTags(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, cleared.TaggedUsers)
	assert.NotNil(t, cleared.TaggedUsers)

	_, err = repo.SetTags(ctx, post.ID, []string{"dave"})
	require.NoError(t, err)

	_, err = repo.SetTags(ctx, 9999, []string{"dave"})
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
	_, err = repo.ClearTags(ctx, 9999)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
}

func TestPostRepository_CreateListEdit(t *testing.T) {
	db := testutil.NewDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	repo := NewPostRepository(db, nil)
	ctx := context.Background()

	err := repo.Create(ctx, &models.Post{OwnerID: 9999, Content: "ghost"})
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)

	first := &models.Post{OwnerID: alice.ID, Content: "first"}
	require.NoError(t, repo.Create(ctx, first))
	assert.NotNil(t, first.TaggedUsers)
	second := &models.Post{OwnerID: alice.ID, Content: "second"}
	require.NoError(t, repo.Create(ctx, second))

	posts, err := repo.ListByOwner(ctx, alice.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	edited, err := repo.UpdateContent(ctx, first.ID, "first!")
	require.NoError(t, err)
	assert.Equal(t, "first!", edited.Content)
	assert.NotNil(t, edited.UpdatedAt)

	_, err = repo.UpdateContent(ctx, 9999, "x")
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
}

func TestCreateWithMissingOwnerIsNotFound(t *testing.T) {
	db := testutil.NewDB(t)
	tr := buildTree(t, db)
	ctx := context.Background()

	err := NewCommentRepository(db).Create(ctx, &models.Comment{OwnerID: 9999, PostID: tr.post.ID, Content: "ghost"})
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
	assert.Contains(t, err.Error(), "User with ID 9999")

	err = NewReplyRepository(db).CreateUnderComment(ctx, &models.Reply{
		OwnerID: 9999, PostID: tr.post.ID, CommentID: tr.comment.ID, Content: "ghost",
	})
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
	assert.Contains(t, err.Error(), "User with ID 9999")

	assert.Equal(t, int64(1), testutil.Count(t, db, &models.Comment{}, ""))
	assert.Equal(t, int64(1), testutil.Count(t, db, &models.Reply{}, ""))
}
