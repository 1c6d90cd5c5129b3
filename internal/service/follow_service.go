package service

import (
	"context"
	"iter"

	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/repository"
)

// followBatchSize is the page size the follow iterators fetch with.
const followBatchSize = 100

// FollowService manages the directed follow graph.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	notifier   *notifications.Notifier
}

func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	notifier *notifications.Notifier,
) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		notifier:   notifier,
	}
}

func (s *FollowService) Follow(ctx context.Context, actor models.Principal, targetID uint) (follow *models.Follow, err error) {
	ctx, done := track(ctx, "follow", "create")
	defer func() { done(err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if actor.ID == targetID {
		return nil, models.NewValidationError("You cannot follow yourself")
	}
	follow, err = s.followRepo.Create(ctx, actor.ID, targetID)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notifications.Event{
		Type:          notifications.EventFollow,
		ActorID:       actor.ID,
		ActorUsername: actor.Username,
	}, targetID)
	return follow, nil
}

func (s *FollowService) Unfollow(ctx context.Context, actor models.Principal, targetID uint) (err error) {
	ctx, done := track(ctx, "follow", "delete")
	defer func() { done(err) }()

	if err := requireActor(actor); err != nil {
		return err
	}
	return s.followRepo.Delete(ctx, actor.ID, targetID)
}

// Followers yields the users following userID in follow order. The sequence
// pages through the store lazily and can be ranged over more than once. A
// missing user yields a single NotFound error.
func (s *FollowService) Followers(ctx context.Context, userID uint) iter.Seq2[models.UserSummary, error] {
	return s.walk(ctx, userID, s.followRepo.ListFollowers)
}

// Following yields the users userID follows, like Followers.
func (s *FollowService) Following(ctx context.Context, userID uint) iter.Seq2[models.UserSummary, error] {
	return s.walk(ctx, userID, s.followRepo.ListFollowing)
}

type followLister func(ctx context.Context, userID uint, page models.FollowPage) ([]models.FollowEntry, error)

func (s *FollowService) walk(ctx context.Context, userID uint, list followLister) iter.Seq2[models.UserSummary, error] {
	return func(yield func(models.UserSummary, error) bool) {
		if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
			yield(models.UserSummary{}, err)
			return
		}

		page := models.FollowPage{Limit: followBatchSize}
		for {
			entries, err := list(ctx, userID, page)
			if err != nil {
				yield(models.UserSummary{}, err)
				return
			}
			for _, e := range entries {
				if !yield(e.User, nil) {
					return
				}
			}
			if len(entries) < followBatchSize {
				return
			}
			page.AfterID = entries[len(entries)-1].EdgeID
		}
	}
}

// FollowersPage returns one page of followers. A user nobody follows gets an
// empty slice.
func (s *FollowService) FollowersPage(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, error) {
	return s.page(ctx, userID, limit, offset, s.followRepo.ListFollowers)
}

func (s *FollowService) FollowingPage(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, error) {
	return s.page(ctx, userID, limit, offset, s.followRepo.ListFollowing)
}

func (s *FollowService) page(ctx context.Context, userID uint, limit, offset int, list followLister) ([]models.UserSummary, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	limit, offset = pageBounds(limit, offset)
	entries, err := list(ctx, userID, models.FollowPage{Offset: offset, Limit: limit})
	if err != nil {
		return nil, err
	}
	users := make([]models.UserSummary, 0, len(entries))
	for _, e := range entries {
		users = append(users, e.User)
	}
	return users, nil
}
