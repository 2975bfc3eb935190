// Package seed fills the database with demo users, groups, posts and comments.
// It is intended for development and testing only.
package seed

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded user.
const DemoPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers        int
	NumGroups       int
	NumPosts        int
	CommentsPerPost int
	ShouldClean     bool
	// RandSeed makes the generated data reproducible. Zero picks a random seed.
	RandSeed int64
	// MaxDays spreads post dates over this many days back from now.
	MaxDays int
}

// Summary reports how many rows a seeding run created.
type Summary struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
}

type seeder struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	opts  Options
	hash  string
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Seed populates the database with demo data.
func Seed(db *gorm.DB, opts Options) (Summary, error) {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return Summary{}, fmt.Errorf("hash demo password: %w", err)
	}
	s := &seeder{
		db:    db,
		faker: gofakeit.New(opts.RandSeed),
		opts:  opts,
		hash:  string(hash),
	}

	if opts.ShouldClean {
		if err := ClearAll(db); err != nil {
			return Summary{}, err
		}
	}

	var summary Summary
	err = db.Transaction(func(tx *gorm.DB) error {
		users, err := s.createUsers(tx)
		if err != nil {
			return fmt.Errorf("failed to create users: %w", err)
		}
		groups, err := s.createGroups(tx)
		if err != nil {
			return fmt.Errorf("failed to create groups: %w", err)
		}
		posts, err := s.createPosts(tx, users, groups)
		if err != nil {
			return fmt.Errorf("failed to create posts: %w", err)
		}
		comments, err := s.createComments(tx, users, posts)
		if err != nil {
			return fmt.Errorf("failed to create comments: %w", err)
		}
		summary = Summary{Users: len(users), Groups: len(groups), Posts: len(posts), Comments: comments}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	middleware.Logger.Info("database seeded",
		"users", summary.Users,
		"groups", summary.Groups,
		"posts", summary.Posts,
		"comments", summary.Comments,
	)
	return summary, nil
}

// ClearAll removes every comment, post, group and user, including soft-deleted rows.
func ClearAll(db *gorm.DB) error {
	for _, model := range []any{&models.Comment{}, &models.Post{}, &models.Group{}, &models.User{}} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

func (s *seeder) createUsers(tx *gorm.DB) ([]models.User, error) {
	users := make([]models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		first := s.faker.FirstName()
		last := s.faker.LastName()
		username := fmt.Sprintf("%s%d", strings.ToLower(nonSlug.ReplaceAllString(first, "")), i+1)
		users = append(users, models.User{
			Username:  username,
			Email:     username + "@example.com",
			Password:  s.hash,
			FirstName: first,
			LastName:  last,
		})
	}
	if len(users) == 0 {
		return users, nil
	}
	if err := tx.CreateInBatches(&users, 100).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *seeder) createGroups(tx *gorm.DB) ([]models.Group, error) {
	groups := make([]models.Group, 0, s.opts.NumGroups)
	for i := 0; i < s.opts.NumGroups; i++ {
		title := s.faker.Hobby()
		groups = append(groups, models.Group{
			Title:       title,
			Slug:        fmt.Sprintf("%s-%d", Slugify(title), i+1),
			Description: s.faker.Sentence(12),
		})
	}
	if len(groups) == 0 {
		return groups, nil
	}
	if err := tx.CreateInBatches(&groups, 100).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (s *seeder) createPosts(tx *gorm.DB, users []models.User, groups []models.Group) ([]models.Post, error) {
	if len(users) == 0 {
		return nil, nil
	}

	now := time.Now()
	posts := make([]models.Post, 0, s.opts.NumPosts)
	for i := 0; i < s.opts.NumPosts; i++ {
		author := users[s.faker.Number(0, len(users)-1)]
		post := models.Post{
			Text:      s.faker.Paragraph(1, 3, 12, "\n"),
			AuthorID:  author.ID,
			CreatedAt: now.Add(-time.Duration(s.faker.Number(0, s.opts.MaxDays*24*60)) * time.Minute),
		}
		// Roughly a third of the posts stay outside any group.
		if len(groups) > 0 && s.faker.Number(0, 2) > 0 {
			groupID := groups[s.faker.Number(0, len(groups)-1)].ID
			post.GroupID = &groupID
		}
		posts = append(posts, post)
	}
	if len(posts) == 0 {
		return posts, nil
	}
	if err := tx.CreateInBatches(&posts, 100).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *seeder) createComments(tx *gorm.DB, users []models.User, posts []models.Post) (int, error) {
	if s.opts.CommentsPerPost <= 0 || len(users) == 0 {
		return 0, nil
	}

	comments := make([]models.Comment, 0, len(posts)*s.opts.CommentsPerPost)
	for _, post := range posts {
		n := s.faker.Number(0, s.opts.CommentsPerPost)
		for j := 0; j < n; j++ {
			comments = append(comments, models.Comment{
				PostID:    post.ID,
				AuthorID:  users[s.faker.Number(0, len(users)-1)].ID,
				Text:      s.faker.Sentence(s.faker.Number(3, 15)),
				CreatedAt: post.CreatedAt.Add(time.Duration(j+1) * time.Minute),
			})
		}
	}
	if len(comments) == 0 {
		return 0, nil
	}
	if err := tx.CreateInBatches(&comments, 200).Error; err != nil {
		return 0, err
	}
	return len(comments), nil
}

// Slugify transliterates s to ASCII and joins its lowercase words with hyphens.
func Slugify(s string) string {
	return slug.Make(s)
}
