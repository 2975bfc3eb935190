package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/models"
	"yatube/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret-that-is-long-enough-for-hs256"

type testEnv struct {
	srv *Server
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
}

// newTestEnv wires a server over an in-memory SQLite database and miniredis.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		Env:                  "test",
		Port:                 "0",
		JWTSecret:            testJWTSecret,
		DBDriver:             "sqlite",
		MediaRoot:            t.TempDir(),
		ImageMaxUploadSizeMB: 1,
	}

	db, err := database.Open(sqlite.Open(":memory:"), cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	return &testEnv{srv: srv, app: srv.App(), db: db, mr: mr}
}

func (e *testEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Username: username, Email: username + "@example.com", Password: string(hash)}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createGroup(t *testing.T, slug string) *models.Group {
	t.Helper()
	group := &models.Group{Title: "Group " + slug, Slug: slug, Description: "About " + slug}
	require.NoError(t, e.db.Create(group).Error)
	return group
}

// createPosts inserts n posts one second apart, oldest first.
func (e *testEnv) createPosts(t *testing.T, author *models.User, group *models.Group, n int) []*models.Post {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	repo := repository.NewPostRepository(e.db)
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		post := &models.Post{
			Text:      fmt.Sprintf("%s post %d", author.Username, i),
			AuthorID:  author.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if group != nil {
			post.GroupID = &group.ID
		}
		require.NoError(t, repo.Create(context.Background(), post))
		posts = append(posts, post)
	}
	return posts
}

func (e *testEnv) sessionCookie(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := e.srv.generateToken(user.ID, user.Username)
	require.NoError(t, err)
	return sessionCookie + "=" + token
}

// do runs a request through the app. cookie may be empty for anonymous requests.
func (e *testEnv) do(t *testing.T, method, target, cookie string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *testEnv) get(t *testing.T, target, cookie string) *http.Response {
	t.Helper()
	return e.do(t, http.MethodGet, target, cookie, nil, "")
}

func (e *testEnv) postForm(t *testing.T, target, cookie string, form url.Values) *http.Response {
	t.Helper()
	return e.do(t, http.MethodPost, target, cookie, strings.NewReader(form.Encode()), fiber.MIMEApplicationForm)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}
