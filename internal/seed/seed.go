// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"

	"murmur/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers          int
	NumPosts          int
	CommentsPerPost   int
	RepliesPerComment int
	// ReactionRate is the fraction of users that react to any one target.
	ReactionRate   float64
	FollowsPerUser int
	MaxTags        int
	ShouldClean    bool
	SkipBcrypt     bool
	DryRun         bool
	BatchSize      int
	MaxDays        int
	RandSeed       int64
}

// DefaultOptions returns a small but fully connected data set.
func DefaultOptions() Options {
	return Options{
		NumUsers:          25,
		NumPosts:          100,
		CommentsPerPost:   3,
		RepliesPerComment: 2,
		ReactionRate:      0.2,
		FollowsPerUser:    5,
		MaxTags:           2,
		BatchSize:         100,
		MaxDays:           90,
	}
}

// Stats counts what a seeding run created.
type Stats struct {
	Users     int
	Posts     int
	Comments  int
	Replies   int
	Reactions int
	Follows   int
}

// Seed populates the database with test data
func Seed(db *gorm.DB, opts Options) (*Stats, error) {
	log.Printf("🌱 Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean && !opts.DryRun {
		if err := clearData(db); err != nil {
			return nil, fmt.Errorf("failed to clear existing data: %w", err)
		}
	}

	f := NewFactory(db, opts)
	stats := &Stats{}

	users, err := createUsers(f, opts.NumUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	stats.Users = len(users)
	log.Printf("✓ %d test users created", len(users))
	if len(users) == 0 {
		return stats, nil
	}

	follows, err := createFollowMesh(f, users, opts.FollowsPerUser)
	if err != nil {
		return nil, fmt.Errorf("failed to create follows: %w", err)
	}
	stats.Follows = follows
	log.Printf("✓ %d follow edges created", follows)

	posts, err := createPosts(f, users, opts.NumPosts, opts.MaxTags)
	if err != nil {
		return nil, fmt.Errorf("failed to create posts: %w", err)
	}
	stats.Posts = len(posts)
	log.Printf("✓ %d posts created", len(posts))

	if err := createThreads(f, users, posts, opts, stats); err != nil {
		return nil, err
	}
	log.Printf("✓ %d comments, %d replies and %d reactions created", stats.Comments, stats.Replies, stats.Reactions)

	log.Println("🎉 Database seeding completed successfully!")
	return stats, nil
}

// clearData removes every row in foreign key order. It avoids TRUNCATE so it
// runs on SQLite as well as PostgreSQL.
func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	tx := db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []interface{}{
		&models.Reaction{},
		&models.Reply{},
		&models.Comment{},
		&models.Post{},
		&models.Follow{},
		&models.User{},
	} {
		if err := tx.Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

func createUsers(f *Factory, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, user)

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d users...", i)
		}
	}
	return users, nil
}

// pick returns up to n distinct users other than skip.
func (f *Factory) pick(users []*models.User, n int, skip uint) []*models.User {
	out := make([]*models.User, 0, n)
	for _, i := range f.rnd.Perm(len(users)) {
		if len(out) == n {
			break
		}
		if users[i].ID == skip {
			continue
		}
		out = append(out, users[i])
	}
	return out
}

func createFollowMesh(f *Factory, users []*models.User, perUser int) (int, error) {
	created := 0
	for _, follower := range users {
		for _, followee := range f.pick(users, perUser, follower.ID) {
			if _, err := f.CreateFollow(follower, followee); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

func createPosts(f *Factory, users []*models.User, count, maxTags int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		owner := users[f.rnd.Intn(len(users))]
		post := f.BuildPost(owner)
		if maxTags > 0 {
			for _, tagged := range f.pick(users, f.rnd.Intn(maxTags+1), owner.ID) {
				post.TaggedUsers = append(post.TaggedUsers, tagged.Username)
			}
		}
		posts = append(posts, post)
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func createThreads(f *Factory, users []*models.User, posts []*models.Post, opts Options, stats *Stats) error {
	react := func(target models.ReactionTarget) error {
		n := int(float64(len(users)) * opts.ReactionRate)
		for _, u := range f.pick(users, n, 0) {
			if _, err := f.CreateReaction(u, target, f.RandomReactionType()); err != nil {
				return fmt.Errorf("failed to create reaction on %s: %w", target, err)
			}
			stats.Reactions++
		}
		return nil
	}

	for _, post := range posts {
		if err := react(models.PostTarget(post.ID)); err != nil {
			return err
		}
		for i := 0; i < opts.CommentsPerPost; i++ {
			comment, err := f.CreateComment(users[f.rnd.Intn(len(users))], post)
			if err != nil {
				return fmt.Errorf("failed to create comment: %w", err)
			}
			stats.Comments++
			if err := react(models.CommentTarget(comment.ID)); err != nil {
				return err
			}

			for j := 0; j < opts.RepliesPerComment; j++ {
				reply, err := f.CreateReply(users[f.rnd.Intn(len(users))], comment)
				if err != nil {
					return fmt.Errorf("failed to create reply: %w", err)
				}
				stats.Replies++
				if err := react(models.ReplyTarget(reply.ID)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
