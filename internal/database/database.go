package database

import (
	"fmt"
	"time"

	"github.com/zfogg/snapshelf/backend/internal/logger"
	"github.com/zfogg/snapshelf/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize opens the PostgreSQL connection and configures the pool.
func Initialize(databaseURL string, debug bool) error {
	gormLogger := gormlogger.Default.LogMode(gormlogger.Warn)
	if debug {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	logger.Log.Info("Database connected")
	return nil
}

// AllModels lists every persisted model, in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Friendship{},
		&models.FriendRequest{},
		&models.UserBlock{},
		&models.UserMute{},
		&models.Post{},
		&models.PostLike{},
		&models.Comment{},
		&models.ArchiveGroup{},
		&models.ArchiveGroupMember{},
		&models.ArchiveEntry{},
		&models.LikeEvent{},
		&models.CommentEvent{},
		&models.Report{},
	}
}

// MigrateModels auto-migrates the schema on db. Shared by the server and tests.
func MigrateModels(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Migrate runs auto-migration plus the PostgreSQL-only indexes.
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := MigrateModels(DB); err != nil {
		return err
	}

	if err := createIndexes(DB); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logger.Log.Info("Database migrations completed")
	return nil
}

// Rollback drops every table created by Migrate.
func Rollback() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	all := AllModels()
	for i := len(all) - 1; i >= 0; i-- {
		if err := DB.Migrator().DropTable(all[i]); err != nil {
			return fmt.Errorf("failed to drop %T: %w", all[i], err)
		}
	}
	return nil
}

func createIndexes(db *gorm.DB) error {
	statements := []string{
		// Feed queries
		"CREATE INDEX IF NOT EXISTS idx_posts_user_created ON posts (user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_posts_created ON posts (created_at DESC)",

		// Likes in like order
		"CREATE INDEX IF NOT EXISTS idx_post_likes_post_created ON post_likes (post_id, created_at)",

		// Comment threads
		"CREATE INDEX IF NOT EXISTS idx_comments_post_created ON comments (post_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_comments_parent ON comments (parent_id) WHERE parent_id IS NOT NULL",

		// Only one default collection per user
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_archive_groups_default ON archive_groups (created_by) WHERE is_default",
		"CREATE INDEX IF NOT EXISTS idx_archive_entries_group_created ON archive_entries (group_id, created_at DESC)",

		// Dispatcher scans
		"CREATE INDEX IF NOT EXISTS idx_like_events_pending ON like_events (created_at) WHERE delivered_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_comment_events_pending ON comment_events (created_at) WHERE delivered_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_reports_pending ON reports (created_at) WHERE delivered_at IS NULL",
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			logger.Log.Warn("Could not create index", zap.String("statement", stmt), zap.Error(err))
		}
	}
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
