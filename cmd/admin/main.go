// Package main provides admin management utilities for Murmur.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"murmur/internal/cache"
	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/repository"
	"murmur/internal/service"

	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <user_id|username>             - Promote user to admin")
	fmt.Println("  go run ./cmd/admin demote <user_id|username>              - Demote admin to user")
	fmt.Println("  go run ./cmd/admin list-admins                            - List all admins")
	fmt.Println("  go run ./cmd/admin create-user <username> <email> <pass>  - Create an account")
	fmt.Println("  go run ./cmd/admin issue-token [-ttl 24h] <user_id|username> - Print a bearer token")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	users := service.NewUserService(repository.NewUserRepository(db, cache.New(nil)))
	ctx := context.Background()
	args := os.Args[2:]

	switch os.Args[1] {
	case "promote":
		setRole(ctx, users, args, models.RoleAdmin)
	case "demote":
		setRole(ctx, users, args, models.RoleUser)
	case "list-admins":
		listAdmins(db)
	case "create-user":
		if len(args) < 3 {
			usage()
		}
		user, err := users.CreateUser(ctx, service.CreateUserInput{Username: args[0], Email: args[1], Password: args[2]})
		if err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}
		fmt.Printf("✅ Created %s (ID: %d)\n", user.Username, user.ID)
	case "issue-token":
		fs := flag.NewFlagSet("issue-token", flag.ExitOnError)
		ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
		_ = fs.Parse(args)
		if fs.NArg() < 1 {
			usage()
		}
		user, err := lookupUser(ctx, users, fs.Arg(0))
		if err != nil {
			log.Fatalf("Failed to load user: %v", err)
		}
		token, err := middleware.NewJWTResolver(cfg).Issue(user.Principal(), *ttl)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
	}
}

// lookupUser resolves a numeric ID, or failing that a username.
func lookupUser(ctx context.Context, users *service.UserService, ref string) (*models.User, error) {
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		if id == 0 {
			return nil, models.NewValidationError("user ID must be positive")
		}
		return users.GetUser(ctx, uint(id))
	}
	return users.GetByUsername(ctx, ref)
}

func setRole(ctx context.Context, users *service.UserService, args []string, role models.Role) {
	if len(args) < 1 {
		usage()
	}
	target, err := lookupUser(ctx, users, args[0])
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			fmt.Printf("User %s not found\n", args[0])
			os.Exit(1)
		}
		log.Fatalf("Failed to load user: %v", err)
	}
	user, err := users.SetRole(ctx, target.ID, role)
	if err != nil {
		log.Fatalf("Failed to change role: %v", err)
	}
	fmt.Printf("✅ %s (ID: %d) is now %s\n", user.Username, user.ID, user.Role)
}

func listAdmins(db *gorm.DB) {
	var admins []models.User
	if err := db.Where("role = ?", models.RoleAdmin).Order("id").Find(&admins).Error; err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return
	}

	fmt.Println("\n📋 Current Admins:")
	fmt.Println("─────────────────────────────────────")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Username: %s | Email: %s\n", admin.ID, admin.Username, admin.Email)
	}
	fmt.Println("─────────────────────────────────────")
}
