// Command main runs the database seeder for Murmur.
package main

import (
	"context"
	"flag"
	"log"

	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()

	// Parse command line flags
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	comments := flag.Int("comments", defaults.CommentsPerPost, "Comments per post")
	replies := flag.Int("replies", defaults.RepliesPerComment, "Replies per comment")
	follows := flag.Int("follows", defaults.FollowsPerUser, "Users each user follows")
	reactionRate := flag.Float64("reaction-rate", defaults.ReactionRate, "Fraction of users reacting to each post, comment and reply")
	maxDays := flag.Int("days", defaults.MaxDays, "Spread post timestamps over this many days")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	skipBcrypt := flag.Bool("skip-bcrypt", false, "Store the plaintext password (tests only)")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing to the database")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("❌ Refusing to seed a production database")
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.ApplySchema(context.Background(), db, cfg); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	stats, err := seed.Seed(db, seed.Options{
		NumUsers:          *numUsers,
		NumPosts:          *numPosts,
		CommentsPerPost:   *comments,
		RepliesPerComment: *replies,
		ReactionRate:      *reactionRate,
		FollowsPerUser:    *follows,
		MaxTags:           defaults.MaxTags,
		ShouldClean:       *shouldClean,
		SkipBcrypt:        *skipBcrypt,
		DryRun:            *dryRun,
		BatchSize:         defaults.BatchSize,
		MaxDays:           *maxDays,
		RandSeed:          *randSeed,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! %d users, %d posts, %d comments, %d replies, %d reactions, %d follows.",
		stats.Users, stats.Posts, stats.Comments, stats.Replies, stats.Reactions, stats.Follows)
	log.Printf("📧 All test users have the password: %s", seed.DefaultPassword)
}
