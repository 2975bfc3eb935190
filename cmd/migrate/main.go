// Command migrate runs schema operations for Yatube.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"yatube/internal/config"
	"yatube/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Open skips the development auto-migration so status reports the real state.
	db, err := database.Open(database.Dialector(cfg), cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx := context.Background()
	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		if err := database.Migrate(db.WithContext(ctx)); err != nil {
			return err
		}
		log.Println("schema migrated")
	case "status":
		statuses, err := database.SchemaStatus(ctx, db)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		for _, s := range statuses {
			state := "missing"
			if s.Exists {
				state = "ok"
			}
			fmt.Printf("%-10s %-10s %s\n", s.Model, s.Table, state)
		}
		if database.Pending(statuses) {
			fmt.Println("pending: run `migrate up`")
		}
	default:
		return usage()
	}
	return nil
}
