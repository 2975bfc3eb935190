package seed

import (
	"strings"
	"testing"

	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open(":memory:"), &config.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestSeed(t *testing.T) {
	db := setupSQLiteDB(t)

	summary, err := Seed(db, Options{NumUsers: 5, NumGroups: 3, NumPosts: 25, CommentsPerPost: 2, RandSeed: 42})
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Users)
	assert.Equal(t, 3, summary.Groups)
	assert.Equal(t, 25, summary.Posts)
	assert.Equal(t, int64(5), count(t, db, &models.User{}))
	assert.Equal(t, int64(3), count(t, db, &models.Group{}))
	assert.Equal(t, int64(25), count(t, db, &models.Post{}))
	assert.Equal(t, int64(summary.Comments), count(t, db, &models.Comment{}))

	var user models.User
	require.NoError(t, db.First(&user).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(DemoPassword)))
}

func TestSeed_CleanReplacesData(t *testing.T) {
	db := setupSQLiteDB(t)

	_, err := Seed(db, Options{NumUsers: 3, NumGroups: 1, NumPosts: 4, RandSeed: 1})
	require.NoError(t, err)
	_, err = Seed(db, Options{NumUsers: 2, NumGroups: 2, NumPosts: 3, ShouldClean: true, RandSeed: 2})
	require.NoError(t, err)

	assert.Equal(t, int64(2), count(t, db, &models.User{}))
	assert.Equal(t, int64(2), count(t, db, &models.Group{}))
	assert.Equal(t, int64(3), count(t, db, &models.Post{}))
}

func TestSeed_NoUsersMeansNoPosts(t *testing.T) {
	db := setupSQLiteDB(t)

	summary, err := Seed(db, Options{NumGroups: 2, NumPosts: 10})
	require.NoError(t, err)
	assert.Zero(t, summary.Posts)
	assert.Equal(t, 2, summary.Groups)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Rock Climbing":   "rock-climbing",
		"  Bird--Watching": "bird-watching",
		"3D printing!":    "3d-printing",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in))
	}
}

func TestSlugify_TransliteratesCyrillic(t *testing.T) {
	for _, title := range []string{"Тестовая группа", "Лев Толстой"} {
		got := Slugify(title)
		assert.Regexp(t, `^[a-z0-9]+(-[a-z0-9]+)+$`, got, title)
	}
	assert.NotEqual(t, Slugify("Тестовая группа"), Slugify("Лев Толстой"))
	assert.True(t, strings.HasPrefix(Slugify("Тестовая группа"), "testova"))
}
