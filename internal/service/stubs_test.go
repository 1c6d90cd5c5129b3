package service

import (
	"context"
	"errors"
	"testing"

	"murmur/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var (
	alice = models.Principal{ID: 1, Username: "alice", Role: models.RoleUser}
	bob   = models.Principal{ID: 2, Username: "bob", Role: models.RoleUser}
	admin = models.Principal{ID: 9, Username: "root", Role: models.RoleAdmin}
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn        func(context.Context, *models.Post) error
	getByIDFn       func(context.Context, uint) (*models.Post, error)
	listByOwnerFn   func(context.Context, uint, int, int) ([]*models.Post, error)
	updateContentFn func(context.Context, uint, string) (*models.Post, error)
	setTagsFn       func(context.Context, uint, []string) (*models.Post, error)
	clearTagsFn     func(context.Context, uint) (*models.Post, error)
	deleteCascadeFn func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]*models.Post, error) {
	return s.listByOwnerFn(ctx, ownerID, limit, offset)
}
func (s *postRepoStub) UpdateContent(ctx context.Context, id uint, content string) (*models.Post, error) {
	return s.updateContentFn(ctx, id, content)
}
func (s *postRepoStub) SetTags(ctx context.Context, id uint, usernames []string) (*models.Post, error) {
	return s.setTagsFn(ctx, id, usernames)
}
func (s *postRepoStub) ClearTags(ctx context.Context, id uint) (*models.Post, error) {
	return s.clearTagsFn(ctx, id)
}
func (s *postRepoStub) DeleteCascade(ctx context.Context, id uint) error {
	return s.deleteCascadeFn(ctx, id)
}

// noopPostRepo returns a stub whose GetByID finds post id owned by alice.
func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error {
			p.ID = 10
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, OwnerID: alice.ID, TaggedUsers: datatypes.JSONSlice[string]{}}, nil
		},
		listByOwnerFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Post, error) { return nil, nil },
		updateContentFn: func(_ context.Context, id uint, content string) (*models.Post, error) {
			return &models.Post{ID: id, OwnerID: alice.ID, Content: content}, nil
		},
		setTagsFn: func(_ context.Context, id uint, usernames []string) (*models.Post, error) {
			return &models.Post{ID: id, OwnerID: alice.ID, TaggedUsers: usernames, TagCount: len(usernames)}, nil
		},
		clearTagsFn: func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, OwnerID: alice.ID, TaggedUsers: datatypes.JSONSlice[string]{}}, nil
		},
		deleteCascadeFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn         func(context.Context, uint) (*models.User, error)
	getByUsernameFn   func(context.Context, string) (*models.User, error)
	findByUsernamesFn func(context.Context, []string) ([]models.User, error)
	createFn          func(context.Context, *models.User) error
	updateProfileFn   func(context.Context, uint, *string, *string) (*models.User, error)
	getAccountFn      func(context.Context, uint) (*models.User, error)
	updateEmailFn     func(context.Context, uint, string) (*models.User, error)
	updatePasswordFn  func(context.Context, uint, string) error
	setRoleFn         func(context.Context, uint, models.Role) (*models.User, error)
	deleteCascadeFn   func(context.Context, uint) error
	listFn            func(context.Context, int, int) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) FindByUsernames(ctx context.Context, usernames []string) ([]models.User, error) {
	return s.findByUsernamesFn(ctx, usernames)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, id uint, bio, avatar *string) (*models.User, error) {
	return s.updateProfileFn(ctx, id, bio, avatar)
}
func (s *userRepoStub) GetAccount(ctx context.Context, id uint) (*models.User, error) {
	return s.getAccountFn(ctx, id)
}
func (s *userRepoStub) UpdateEmail(ctx context.Context, id uint, email string) (*models.User, error) {
	return s.updateEmailFn(ctx, id, email)
}
func (s *userRepoStub) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return s.updatePasswordFn(ctx, id, hash)
}
func (s *userRepoStub) SetRole(ctx context.Context, id uint, role models.Role) (*models.User, error) {
	return s.setRoleFn(ctx, id, role)
}
func (s *userRepoStub) DeleteCascade(ctx context.Context, id uint) error {
	return s.deleteCascadeFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}

// knownUsers is the directory the default userRepoStub resolves against.
var knownUsers = map[string]uint{"alice": 1, "bob": 2, "carol": 3, "root": 9}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			for name, uid := range knownUsers {
				if uid == id {
					return &models.User{ID: id, Username: name}, nil
				}
			}
			return nil, models.NewNotFoundError("User", id)
		},
		getByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
			if id, ok := knownUsers[username]; ok {
				return &models.User{ID: id, Username: username}, nil
			}
			return nil, models.NewNotFoundError("User", username)
		},
		findByUsernamesFn: func(_ context.Context, usernames []string) ([]models.User, error) {
			var users []models.User
			for _, name := range usernames {
				if id, ok := knownUsers[name]; ok {
					users = append(users, models.User{ID: id, Username: name})
				}
			}
			return users, nil
		},
		createFn: func(_ context.Context, u *models.User) error {
			u.ID = 42
			return nil
		},
		updateProfileFn: func(_ context.Context, id uint, bio, avatar *string) (*models.User, error) {
			u := &models.User{ID: id}
			if bio != nil {
				u.Bio = *bio
			}
			if avatar != nil {
				u.Avatar = *avatar
			}
			return u, nil
		},
		getAccountFn: func(_ context.Context, id uint) (*models.User, error) {
			return nil, models.NewNotFoundError("User", id)
		},
		updateEmailFn: func(_ context.Context, id uint, email string) (*models.User, error) {
			return &models.User{ID: id, Email: email}, nil
		},
		updatePasswordFn: func(_ context.Context, _ uint, _ string) error { return nil },
		setRoleFn: func(_ context.Context, id uint, role models.Role) (*models.User, error) {
			return &models.User{ID: id, Role: role}, nil
		},
		deleteCascadeFn: func(_ context.Context, _ uint) error { return nil },
		listFn:          func(_ context.Context, _, _ int) ([]models.User, error) { return nil, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn        func(context.Context, *models.Comment) error
	getByIDFn       func(context.Context, uint) (*models.Comment, error)
	listByPostFn    func(context.Context, uint) ([]*models.Comment, error)
	updateContentFn func(context.Context, uint, string) (*models.Comment, error)
	deleteCascadeFn func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) UpdateContent(ctx context.Context, id uint, content string) (*models.Comment, error) {
	return s.updateContentFn(ctx, id, content)
}
func (s *commentRepoStub) DeleteCascade(ctx context.Context, id uint) error {
	return s.deleteCascadeFn(ctx, id)
}

// noopCommentRepo finds comment id on post 10, owned by bob.
func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, c *models.Comment) error {
			c.ID = 20
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, PostID: 10, OwnerID: bob.ID}, nil
		},
		listByPostFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		updateContentFn: func(_ context.Context, id uint, content string) (*models.Comment, error) {
			return &models.Comment{ID: id, PostID: 10, OwnerID: bob.ID, Content: content}, nil
		},
		deleteCascadeFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// replyRepoStub is a stub for repository.ReplyRepository.
type replyRepoStub struct {
	createUnderCommentFn func(context.Context, *models.Reply) error
	getByIDFn            func(context.Context, uint) (*models.Reply, error)
	listByCommentFn      func(context.Context, uint) ([]*models.Reply, error)
	updateContentFn      func(context.Context, uint, string) (*models.Reply, error)
	deleteCascadeFn      func(context.Context, uint) error
}

func (s *replyRepoStub) CreateUnderComment(ctx context.Context, r *models.Reply) error {
	return s.createUnderCommentFn(ctx, r)
}
func (s *replyRepoStub) GetByID(ctx context.Context, id uint) (*models.Reply, error) {
	return s.getByIDFn(ctx, id)
}
func (s *replyRepoStub) ListByComment(ctx context.Context, commentID uint) ([]*models.Reply, error) {
	return s.listByCommentFn(ctx, commentID)
}
func (s *replyRepoStub) UpdateContent(ctx context.Context, id uint, content string) (*models.Reply, error) {
	return s.updateContentFn(ctx, id, content)
}
func (s *replyRepoStub) DeleteCascade(ctx context.Context, id uint) error {
	return s.deleteCascadeFn(ctx, id)
}

// noopReplyRepo finds reply id under comment 20 of post 10, owned by bob.
func noopReplyRepo() *replyRepoStub {
	return &replyRepoStub{
		createUnderCommentFn: func(_ context.Context, r *models.Reply) error {
			r.ID = 30
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Reply, error) {
			return &models.Reply{ID: id, PostID: 10, CommentID: 20, OwnerID: bob.ID}, nil
		},
		listByCommentFn: func(_ context.Context, _ uint) ([]*models.Reply, error) { return nil, nil },
		updateContentFn: func(_ context.Context, id uint, content string) (*models.Reply, error) {
			return &models.Reply{ID: id, OwnerID: bob.ID, Content: content}, nil
		},
		deleteCascadeFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// reactionRepoStub is a stub for repository.ReactionRepository.
type reactionRepoStub struct {
	createOnTargetFn func(context.Context, *models.Reaction, models.ReactionPath) (*models.ReactionDetail, error)
	getByIDFn        func(context.Context, uint) (*models.Reaction, error)
	updateTypeFn     func(context.Context, uint, models.ReactionType) (*models.Reaction, error)
	deleteFn         func(context.Context, uint) error
	listByTargetFn   func(context.Context, models.ReactionTarget, models.ReactionPath) ([]models.ReactionSummary, error)
}

func (s *reactionRepoStub) CreateOnTarget(ctx context.Context, r *models.Reaction, path models.ReactionPath) (*models.ReactionDetail, error) {
	return s.createOnTargetFn(ctx, r, path)
}
func (s *reactionRepoStub) GetByID(ctx context.Context, id uint) (*models.Reaction, error) {
	return s.getByIDFn(ctx, id)
}
func (s *reactionRepoStub) UpdateType(ctx context.Context, id uint, t models.ReactionType) (*models.Reaction, error) {
	return s.updateTypeFn(ctx, id, t)
}
func (s *reactionRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *reactionRepoStub) ListByTarget(ctx context.Context, target models.ReactionTarget, path models.ReactionPath) ([]models.ReactionSummary, error) {
	return s.listByTargetFn(ctx, target, path)
}

// noopReactionRepo finds reaction id owned by bob on post 10.
func noopReactionRepo() *reactionRepoStub {
	return &reactionRepoStub{
		createOnTargetFn: func(_ context.Context, r *models.Reaction, _ models.ReactionPath) (*models.ReactionDetail, error) {
			r.ID = 100
			return &models.ReactionDetail{Reaction: r, TargetOwnerID: alice.ID}, nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Reaction, error) {
			return models.NewReaction(bob.ID, models.PostTarget(10), models.ReactionLike), nil
		},
		updateTypeFn: func(_ context.Context, id uint, t models.ReactionType) (*models.Reaction, error) {
			r := models.NewReaction(bob.ID, models.PostTarget(10), t)
			r.ID = id
			return r, nil
		},
		deleteFn: func(_ context.Context, _ uint) error { return nil },
		listByTargetFn: func(_ context.Context, _ models.ReactionTarget, _ models.ReactionPath) ([]models.ReactionSummary, error) {
			return nil, nil
		},
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	createFn        func(context.Context, uint, uint) (*models.Follow, error)
	deleteFn        func(context.Context, uint, uint) error
	listFollowersFn func(context.Context, uint, models.FollowPage) ([]models.FollowEntry, error)
	listFollowingFn func(context.Context, uint, models.FollowPage) ([]models.FollowEntry, error)
}

func (s *followRepoStub) Create(ctx context.Context, followerID, followeeID uint) (*models.Follow, error) {
	return s.createFn(ctx, followerID, followeeID)
}
func (s *followRepoStub) Delete(ctx context.Context, followerID, followeeID uint) error {
	return s.deleteFn(ctx, followerID, followeeID)
}
func (s *followRepoStub) ListFollowers(ctx context.Context, userID uint, page models.FollowPage) ([]models.FollowEntry, error) {
	return s.listFollowersFn(ctx, userID, page)
}
func (s *followRepoStub) ListFollowing(ctx context.Context, userID uint, page models.FollowPage) ([]models.FollowEntry, error) {
	return s.listFollowingFn(ctx, userID, page)
}

func noopFollowRepo() *followRepoStub {
	empty := func(_ context.Context, _ uint, _ models.FollowPage) ([]models.FollowEntry, error) { return nil, nil }
	return &followRepoStub{
		createFn: func(_ context.Context, followerID, followeeID uint) (*models.Follow, error) {
			return &models.Follow{ID: 1, FollowerID: followerID, FolloweeID: followeeID}, nil
		},
		deleteFn:        func(_ context.Context, _, _ uint) error { return nil },
		listFollowersFn: empty,
		listFollowingFn: empty,
	}
}

// assertCode asserts that err is an AppError with the given code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}
