package service

import (
	"context"

	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/repository"
	"murmur/internal/validation"
)

// ReactionService manages reactions on posts, comments and replies.
type ReactionService struct {
	reactionRepo repository.ReactionRepository
	notifier     *notifications.Notifier
}

type AddReactionInput struct {
	Actor  models.Principal      `json:"-"`
	Target models.ReactionTarget `json:"-"`
	// Path holds the ancestor ids the caller addressed the target through.
	Path         models.ReactionPath `json:"-"`
	ReactionType models.ReactionType `json:"reaction_type" validate:"required,reaction_type"`
}

type UpdateReactionInput struct {
	Actor        models.Principal    `json:"-"`
	ReactionID   uint                `json:"-"`
	ReactionType models.ReactionType `json:"reaction_type" validate:"required,reaction_type"`
}

type RemoveReactionInput struct {
	Actor      models.Principal
	ReactionID uint
}

func NewReactionService(reactionRepo repository.ReactionRepository, notifier *notifications.Notifier) *ReactionService {
	return &ReactionService{reactionRepo: reactionRepo, notifier: notifier}
}

// AddReaction records the actor's reaction on a target. Each user may react
// once per target; a second attempt fails with Conflict.
func (s *ReactionService) AddReaction(ctx context.Context, in AddReactionInput) (detail *models.ReactionDetail, err error) {
	ctx, done := track(ctx, "reaction", "add")
	defer func() { done(err) }()

	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	if err := in.Target.Validate(); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	reaction := models.NewReaction(in.Actor.ID, in.Target, in.ReactionType)
	detail, err = s.reactionRepo.CreateOnTarget(ctx, reaction, in.Path)
	if err != nil {
		return nil, err
	}

	ev := notifications.Event{
		Type:          notifications.EventReaction,
		ActorID:       in.Actor.ID,
		ActorUsername: in.Actor.Username,
		Detail:        string(in.ReactionType),
	}
	if reaction.PostID != nil {
		ev.PostID = *reaction.PostID
	}
	if reaction.CommentID != nil {
		ev.CommentID = *reaction.CommentID
	}
	if reaction.ReplyID != nil {
		ev.ReplyID = *reaction.ReplyID
	}
	s.notifier.Notify(ctx, ev, detail.TargetOwnerID)
	return detail, nil
}

// UpdateReaction changes the type of the actor's own reaction in place.
func (s *ReactionService) UpdateReaction(ctx context.Context, in UpdateReactionInput) (reaction *models.Reaction, err error) {
	ctx, done := track(ctx, "reaction", "update")
	defer func() { done(err) }()

	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	current, err := s.reactionRepo.GetByID(ctx, in.ReactionID)
	if err != nil {
		return nil, err
	}
	if !in.Actor.Owns(current.OwnerID) {
		return nil, models.NewForbiddenError("You can only change your own reactions")
	}
	return s.reactionRepo.UpdateType(ctx, in.ReactionID, in.ReactionType)
}

// RemoveReaction deletes a reaction. Owners and admins may remove.
func (s *ReactionService) RemoveReaction(ctx context.Context, in RemoveReactionInput) (reaction *models.Reaction, err error) {
	ctx, done := track(ctx, "reaction", "remove")
	defer func() { done(err) }()

	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	reaction, err = s.reactionRepo.GetByID(ctx, in.ReactionID)
	if err != nil {
		return nil, err
	}
	if !in.Actor.CanModerate(reaction.OwnerID) {
		return nil, models.NewForbiddenError("You can only remove your own reactions")
	}
	if err := s.reactionRepo.Delete(ctx, in.ReactionID); err != nil {
		return nil, err
	}
	return reaction, nil
}

// ListReactions lists the reactions on target. A target outside path is
// reported as not found.
func (s *ReactionService) ListReactions(
	ctx context.Context,
	target models.ReactionTarget,
	path models.ReactionPath,
) ([]models.ReactionSummary, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	return s.reactionRepo.ListByTarget(ctx, target, path)
}
