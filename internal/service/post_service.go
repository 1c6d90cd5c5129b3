package service

import (
	"context"
	"fmt"
	"strings"

	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/repository"
	"murmur/internal/validation"

	"gorm.io/datatypes"
)

// PostService manages posts and their tag sets.
type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	notifier *notifications.Notifier
}

type CreatePostInput struct {
	Actor       models.Principal `json:"-"`
	Content     string           `json:"content" validate:"max=280"`
	ImageRef    string           `json:"image_ref" validate:"max=512"`
	TaggedUsers []string         `json:"tagged_users"`
}

type EditPostInput struct {
	Actor   models.Principal `json:"-"`
	PostID  uint             `json:"-"`
	Content string           `json:"content" validate:"max=280"`
}

type DeletePostInput struct {
	Actor  models.Principal
	PostID uint
}

type AddTagsInput struct {
	Actor     models.Principal `json:"-"`
	PostID    uint             `json:"-"`
	Usernames []string         `json:"usernames"`
}

type RemoveTagsInput struct {
	Actor  models.Principal
	PostID uint
}

// NewPostService wires a PostService. notifier may be nil.
func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	notifier *notifications.Notifier,
) *PostService {
	return &PostService{
		postRepo: postRepo,
		userRepo: userRepo,
		notifier: notifier,
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, done := track(ctx, "post", "create")
	defer func() { done(err) }()

	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	tags, recipients, err := s.resolveTags(ctx, in.Actor, in.TaggedUsers)
	if err != nil {
		return nil, err
	}

	post = &models.Post{
		OwnerID:     in.Actor.ID,
		Content:     in.Content,
		ImageRef:    strings.TrimSpace(in.ImageRef),
		TaggedUsers: tags,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	s.notifyTagged(ctx, in.Actor, post.ID, recipients)
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// ListUserPosts returns a user's posts, newest first.
func (s *PostService) ListUserPosts(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	limit, offset = pageBounds(limit, offset)
	return s.postRepo.ListByOwner(ctx, userID, limit, offset)
}

func (s *PostService) EditPost(ctx context.Context, in EditPostInput) (post *models.Post, err error) {
	ctx, done := track(ctx, "post", "edit")
	defer func() { done(err) }()

	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.ownedPost(ctx, in.Actor, in.PostID, "edit"); err != nil {
		return nil, err
	}
	return s.postRepo.UpdateContent(ctx, in.PostID, in.Content)
}

// DeletePost removes the post and everything under it. Owners and admins
// may delete.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) (post *models.Post, err error) {
	ctx, done := track(ctx, "post", "delete")
	defer func() { done(err) }()

	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	post, err = s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !in.Actor.CanModerate(post.OwnerID) {
		return nil, models.NewForbiddenError("You can only delete your own posts")
	}
	if err := s.postRepo.DeleteCascade(ctx, in.PostID); err != nil {
		return nil, err
	}
	return post, nil
}

// AddTags installs a tag set on an untagged post. Tag sets never merge: a
// tagged post must be cleared with RemoveTags first.
func (s *PostService) AddTags(ctx context.Context, in AddTagsInput) (post *models.Post, err error) {
	ctx, done := track(ctx, "post", "add_tags")
	defer func() { done(err) }()

	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	current, err := s.ownedPost(ctx, in.Actor, in.PostID, "tag")
	if err != nil {
		return nil, err
	}
	if len(current.TaggedUsers) > 0 {
		return nil, models.NewConflictError("Post is already tagged; remove its tags before tagging again")
	}
	if len(in.Usernames) == 0 {
		return nil, models.NewValidationError("At least one username is required")
	}
	tags, recipients, err := s.resolveTags(ctx, in.Actor, in.Usernames)
	if err != nil {
		return nil, err
	}

	post, err = s.postRepo.SetTags(ctx, in.PostID, tags)
	if err != nil {
		return nil, err
	}
	s.notifyTagged(ctx, in.Actor, post.ID, recipients)
	return post, nil
}

func (s *PostService) RemoveTags(ctx context.Context, in RemoveTagsInput) (post *models.Post, err error) {
	ctx, done := track(ctx, "post", "remove_tags")
	defer func() { done(err) }()

	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	if _, err := s.ownedPost(ctx, in.Actor, in.PostID, "untag"); err != nil {
		return nil, err
	}
	return s.postRepo.ClearTags(ctx, in.PostID)
}

// ownedPost loads the post and checks the actor owns it.
func (s *PostService) ownedPost(ctx context.Context, actor models.Principal, postID uint, verb string) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(post.OwnerID) {
		return nil, models.NewForbiddenError(fmt.Sprintf("You can only %s your own posts", verb))
	}
	return post, nil
}

// resolveTags deduplicates usernames (first occurrence wins), rejects the
// actor's own name and checks every name belongs to an existing user. It
// returns the tag set and the ids of the tagged users.
func (s *PostService) resolveTags(ctx context.Context, actor models.Principal, usernames []string) (datatypes.JSONSlice[string], []uint, error) {
	tags := make([]string, 0, len(usernames))
	seen := make(map[string]bool, len(usernames))
	for _, raw := range usernames {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, nil, models.NewValidationError("Tagged usernames must not be empty")
		}
		if name == actor.Username {
			return nil, nil, models.NewValidationError("You cannot tag yourself")
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		tags = append(tags, name)
	}
	if len(tags) == 0 {
		return datatypes.JSONSlice[string]{}, nil, nil
	}

	users, err := s.userRepo.FindByUsernames(ctx, tags)
	if err != nil {
		return nil, nil, err
	}
	ids := make(map[string]uint, len(users))
	for _, u := range users {
		ids[u.Username] = u.ID
	}

	recipients := make([]uint, 0, len(tags))
	for _, name := range tags {
		id, ok := ids[name]
		if !ok {
			return nil, nil, models.NewValidationError(fmt.Sprintf("User %q does not exist", name))
		}
		recipients = append(recipients, id)
	}
	return datatypes.JSONSlice[string](tags), recipients, nil
}

func (s *PostService) notifyTagged(ctx context.Context, actor models.Principal, postID uint, recipients []uint) {
	if len(recipients) == 0 {
		return
	}
	s.notifier.Notify(ctx, notifications.Event{
		Type:          notifications.EventTagged,
		ActorID:       actor.ID,
		ActorUsername: actor.Username,
		PostID:        postID,
	}, recipients...)
}
