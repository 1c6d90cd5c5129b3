package service

import (
	"context"
	"strings"

	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/repository"
	"murmur/internal/validation"
)

type ReplyService struct {
	replyRepo   repository.ReplyRepository
	commentRepo repository.CommentRepository
	notifier    *notifications.Notifier
}

type CreateReplyInput struct {
	Actor     models.Principal `json:"-"`
	PostID    uint             `json:"-"`
	CommentID uint             `json:"-"`
	Content   string           `json:"content" validate:"required,max=280"`
}

// EditReplyInput edits a reply. PostID and CommentID, when set, must match
// the reply's ancestors.
type EditReplyInput struct {
	Actor     models.Principal `json:"-"`
	PostID    uint             `json:"-"`
	CommentID uint             `json:"-"`
	ReplyID   uint             `json:"-"`
	Content   string           `json:"content" validate:"required,max=280"`
}

type DeleteReplyInput struct {
	Actor     models.Principal
	PostID    uint
	CommentID uint
	ReplyID   uint
}

func NewReplyService(
	replyRepo repository.ReplyRepository,
	commentRepo repository.CommentRepository,
	notifier *notifications.Notifier,
) *ReplyService {
	return &ReplyService{
		replyRepo:   replyRepo,
		commentRepo: commentRepo,
		notifier:    notifier,
	}
}

// CreateReply attaches a reply to a comment of the given post. The comment
// lookup and the ancestor comparison happen inside the insert transaction.
func (s *ReplyService) CreateReply(ctx context.Context, in CreateReplyInput) (reply *models.Reply, err error) {
	ctx, done := track(ctx, "reply", "create")
	defer func() { done(err) }()

	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	reply = &models.Reply{
		OwnerID:   in.Actor.ID,
		PostID:    in.PostID,
		CommentID: in.CommentID,
		Content:   in.Content,
	}
	if err := s.replyRepo.CreateUnderComment(ctx, reply); err != nil {
		return nil, err
	}

	if comment, err := s.commentRepo.GetByID(ctx, in.CommentID); err == nil {
		s.notifier.Notify(ctx, notifications.Event{
			Type:          notifications.EventReply,
			ActorID:       in.Actor.ID,
			ActorUsername: in.Actor.Username,
			PostID:        reply.PostID,
			CommentID:     reply.CommentID,
			ReplyID:       reply.ID,
		}, comment.OwnerID)
	}
	return reply, nil
}

func (s *ReplyService) GetReply(ctx context.Context, id uint) (*models.Reply, error) {
	return s.replyRepo.GetByID(ctx, id)
}

// ListReplies lists the replies under a comment. A comment under another
// post is not found at this address, as for GetComment.
func (s *ReplyService) ListReplies(ctx context.Context, postID, commentID uint) ([]*models.Reply, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.PostID != postID {
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	return s.replyRepo.ListByComment(ctx, commentID)
}

func (s *ReplyService) EditReply(ctx context.Context, in EditReplyInput) (reply *models.Reply, err error) {
	ctx, done := track(ctx, "reply", "edit")
	defer func() { done(err) }()

	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	current, err := s.loadUnder(ctx, in.PostID, in.CommentID, in.ReplyID)
	if err != nil {
		return nil, err
	}
	if !in.Actor.Owns(current.OwnerID) {
		return nil, models.NewForbiddenError("You can only edit your own replies")
	}
	return s.replyRepo.UpdateContent(ctx, in.ReplyID, in.Content)
}

func (s *ReplyService) DeleteReply(ctx context.Context, in DeleteReplyInput) (reply *models.Reply, err error) {
	ctx, done := track(ctx, "reply", "delete")
	defer func() { done(err) }()

	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	reply, err = s.loadUnder(ctx, in.PostID, in.CommentID, in.ReplyID)
	if err != nil {
		return nil, err
	}
	if !in.Actor.CanModerate(reply.OwnerID) {
		return nil, models.NewForbiddenError("You can only delete your own replies")
	}
	if err := s.replyRepo.DeleteCascade(ctx, in.ReplyID); err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *ReplyService) loadUnder(ctx context.Context, postID, commentID, replyID uint) (*models.Reply, error) {
	reply, err := s.replyRepo.GetByID(ctx, replyID)
	if err != nil {
		return nil, err
	}
	if commentID != 0 && reply.CommentID != commentID {
		return nil, models.NewValidationError("Reply does not belong to the given comment")
	}
	if postID != 0 && reply.PostID != postID {
		return nil, models.NewValidationError("Reply does not belong to the given post")
	}
	return reply, nil
}
