// Package testutil holds helpers shared by database-backed tests.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zfogg/snapshelf/backend/internal/database"
	"github.com/zfogg/snapshelf/backend/internal/logger"
	"github.com/zfogg/snapshelf/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewTestDB returns a migrated in-memory SQLite database.
// A single connection keeps the whole schema in one in-memory database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.InitializeNop()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError:                           true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.MigrateModels(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// CreateUser inserts a user with the given username.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, DisplayName: username}
	require.NoError(t, db.Create(user).Error)
	return user
}

// MakeFriends stores a friendship in both directions.
func MakeFriends(t *testing.T, db *gorm.DB, a, b string) {
	t.Helper()
	require.NoError(t, db.Create(&[]models.Friendship{
		{UserID: a, FriendID: b},
		{UserID: b, FriendID: a},
	}).Error)
}

// CreatePost inserts a post owned by userID.
func CreatePost(t *testing.T, db *gorm.DB, userID string) *models.Post {
	t.Helper()
	post := &models.Post{
		UserID:      userID,
		ImageURL:    "https://cdn.example.com/images/test.jpg",
		ImageKey:    "images/test.jpg",
		Description: "test post",
		Tags:        []string{"test"},
	}
	require.NoError(t, db.Create(post).Error)
	return post
}
