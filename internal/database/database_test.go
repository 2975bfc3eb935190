package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"yatube/internal/config"
	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = configurePool(db, &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestDialector(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *config.Config
		expected string
	}{
		{"sqlite", &config.Config{DBDriver: "sqlite", DBSQLitePath: ":memory:"}, "sqlite"},
		{"postgres", &config.Config{DBDriver: "postgres", DBHost: "localhost"}, "postgres"},
		{"empty defaults to postgres", &config.Config{}, "postgres"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Dialector(tt.cfg).Name())
		})
	}
}

func TestConnect_SQLiteMigratesSchema(t *testing.T) {
	db, err := Connect(&config.Config{
		Env:          "test",
		DBDriver:     "sqlite",
		DBSQLitePath: ":memory:",
	})
	require.NoError(t, err)

	for _, model := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(model), "missing table for %T", model)
	}

	author := models.User{Username: "leo", Email: "leo@example.com", Password: "x"}
	require.NoError(t, db.Create(&author).Error)
	post := models.Post{Text: "Hello from sqlite", AuthorID: author.ID}
	require.NoError(t, db.Create(&post).Error)

	var loaded models.Post
	require.NoError(t, db.Preload("Author").First(&loaded, post.ID).Error)
	assert.Equal(t, "leo", loaded.Author.Username)
	assert.Nil(t, loaded.GroupID)
}

func TestPersistentModels(t *testing.T) {
	assert.Len(t, PersistentModels(), 4)
}

func TestSchemaStatus(t *testing.T) {
	db, err := Open(sqlite.Open(":memory:"), &config.Config{})
	require.NoError(t, err)

	statuses, err := SchemaStatus(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, statuses, len(PersistentModels()))
	assert.True(t, Pending(statuses))
	for _, s := range statuses {
		assert.False(t, s.Exists, s.Table)
	}

	require.NoError(t, Migrate(db))

	statuses, err = SchemaStatus(context.Background(), db)
	require.NoError(t, err)
	assert.False(t, Pending(statuses))
	assert.Equal(t, "users", statuses[0].Table)
	assert.Equal(t, "User", statuses[0].Model)
}

func TestGormLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	previous := middleware.Logger
	middleware.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	t.Cleanup(func() { middleware.Logger = previous })

	l := NewGormLogger()
	sql := func() (string, int64) { return "SELECT 1", 1 }
	now := time.Now()

	l.Trace(context.Background(), now, sql, nil)
	assert.Empty(t, buf.String(), "fast queries stay quiet at warn level")

	l.Trace(context.Background(), now, sql, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(context.Background(), now, sql, errors.New("boom"))
	assert.Contains(t, buf.String(), "query failed")
	assert.Contains(t, buf.String(), "boom")

	buf.Reset()
	l.Trace(context.Background(), now.Add(-time.Second), sql, nil)
	assert.Contains(t, buf.String(), "slow query")

	buf.Reset()
	l.LogMode(logger.Info).Trace(context.Background(), now, sql, nil)
	assert.Contains(t, buf.String(), "SELECT 1")
}
