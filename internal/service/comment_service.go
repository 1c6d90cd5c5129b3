package service

import (
	"context"
	"strings"

	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/repository"
	"murmur/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	notifier    *notifications.Notifier
}

type CreateCommentInput struct {
	Actor   models.Principal `json:"-"`
	PostID  uint             `json:"-"`
	Content string           `json:"content" validate:"required,max=280"`
}

// EditCommentInput edits a comment. PostID, when set, must be the comment's post.
type EditCommentInput struct {
	Actor     models.Principal `json:"-"`
	PostID    uint             `json:"-"`
	CommentID uint             `json:"-"`
	Content   string           `json:"content" validate:"required,max=280"`
}

type DeleteCommentInput struct {
	Actor     models.Principal
	PostID    uint
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	notifier *notifications.Notifier,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		notifier:    notifier,
	}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (comment *models.Comment, err error) {
	ctx, done := track(ctx, "comment", "create")
	defer func() { done(err) }()

	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}

	comment = &models.Comment{
		OwnerID: in.Actor.ID,
		PostID:  in.PostID,
		Content: in.Content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notifications.Event{
		Type:          notifications.EventComment,
		ActorID:       in.Actor.ID,
		ActorUsername: in.Actor.Username,
		PostID:        post.ID,
		CommentID:     comment.ID,
	}, post.OwnerID)
	return comment, nil
}

func (s *CommentService) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	return s.commentRepo.GetByID(ctx, id)
}

func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID)
}

// EditComment checks ownership against the comment, not its post.
func (s *CommentService) EditComment(ctx context.Context, in EditCommentInput) (comment *models.Comment, err error) {
	ctx, done := track(ctx, "comment", "edit")
	defer func() { done(err) }()

	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	current, err := s.loadUnder(ctx, in.PostID, in.CommentID)
	if err != nil {
		return nil, err
	}
	if !in.Actor.Owns(current.OwnerID) {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}
	return s.commentRepo.UpdateContent(ctx, in.CommentID, in.Content)
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (comment *models.Comment, err error) {
	ctx, done := track(ctx, "comment", "delete")
	defer func() { done(err) }()

	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	comment, err = s.loadUnder(ctx, in.PostID, in.CommentID)
	if err != nil {
		return nil, err
	}
	if !in.Actor.CanModerate(comment.OwnerID) {
		return nil, models.NewForbiddenError("You can only delete your own comments")
	}
	if err := s.commentRepo.DeleteCascade(ctx, in.CommentID); err != nil {
		return nil, err
	}
	return comment, nil
}

// loadUnder fetches a comment and, when postID is non-zero, checks it hangs
// off that post.
func (s *CommentService) loadUnder(ctx context.Context, postID, commentID uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if postID != 0 && comment.PostID != postID {
		return nil, models.NewValidationError("Comment does not belong to the given post")
	}
	return comment, nil
}
