// Package main provides admin management utilities for Yatube.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/seed"
	"yatube/internal/service"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <username>                   - Promote user to admin")
	fmt.Println("  go run ./cmd/admin demote <username>                    - Demote user from admin")
	fmt.Println("  go run ./cmd/admin list-admins                          - List all admins")
	fmt.Println("  go run ./cmd/admin cache-clear                          - Drop every cached page")
	fmt.Println("  go run ./cmd/admin create-group <title> [description]   - Create a group")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	command := os.Args[1]

	if command == "cache-clear" {
		clearCache(ctx, cfg)
		return
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	users := service.NewUserService(repository.NewUserRepository(db))

	switch command {
	case "promote":
		if len(os.Args) < 3 {
			fmt.Println("Usage: go run ./cmd/admin promote <username>")
			os.Exit(1)
		}
		setAdmin(ctx, users, os.Args[2], true)

	case "demote":
		if len(os.Args) < 3 {
			fmt.Println("Usage: go run ./cmd/admin demote <username>")
			os.Exit(1)
		}
		setAdmin(ctx, users, os.Args[2], false)

	case "list-admins":
		listAdmins(ctx, users)

	case "create-group":
		if len(os.Args) < 3 {
			fmt.Println("Usage: go run ./cmd/admin create-group <title> [description]")
			os.Exit(1)
		}
		description := ""
		if len(os.Args) > 3 {
			description = strings.Join(os.Args[3:], " ")
		}
		// Missing slugs are never cached, so a new group needs no invalidation here.
		createGroup(ctx, repository.NewGroupRepository(db, nil), os.Args[2], description)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

func setAdmin(ctx context.Context, users *service.UserService, username string, isAdmin bool) {
	user, err := users.SetAdmin(ctx, username, isAdmin)
	if err != nil {
		if models.IsNotFound(err) {
			fmt.Printf("User %s not found\n", username)
			os.Exit(1)
		}
		log.Fatalf("Failed to update user: %v", err)
	}

	verb := "demoted"
	if isAdmin {
		verb = "promoted"
	}
	fmt.Printf("✅ %s (ID: %d) %s, is_admin=%v\n", user.Username, user.ID, verb, user.IsAdmin)
}

func listAdmins(ctx context.Context, users *service.UserService) {
	admins, err := users.ListAdmins(ctx)
	if err != nil {
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

func clearCache(ctx context.Context, cfg *config.Config) {
	rdb := cache.InitRedis(cfg.RedisURL)
	if rdb == nil {
		log.Fatalf("Redis is not reachable at %s", cfg.RedisURL)
	}
	defer func() { _ = rdb.Close() }()

	if err := cache.NewRedisPageCache(rdb, "index").ClearAll(ctx); err != nil {
		log.Fatalf("Failed to clear cache: %v", err)
	}
	fmt.Println("✅ Page cache cleared")
}

func createGroup(ctx context.Context, groups repository.GroupRepository, title, description string) {
	group := &models.Group{
		Title:       title,
		Slug:        seed.Slugify(title),
		Description: description,
	}
	if err := groups.Create(ctx, group); err != nil {
		log.Fatalf("Failed to create group: %v", err)
	}
	fmt.Printf("✅ Created group %q (ID: %d, slug: %s)\n", group.Title, group.ID, group.Slug)
}
