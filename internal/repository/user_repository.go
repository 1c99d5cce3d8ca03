package repository

import (
	"context"
	"strings"

	"github.com/zfogg/snapshelf/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository handles all database operations for users
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUsers(ctx context.Context, userIDs []string) ([]*models.User, error)
	UpdateUser(ctx context.Context, userID string, updates map[string]interface{}) error
	SearchUsers(ctx context.Context, query string, limit int) ([]*models.User, error)
	CountUsers(ctx context.Context, userIDs []string) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil || strings.TrimSpace(user.Username) == "" {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

// GetUserByUsername gets a user by username (case-insensitive)
func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(username) = ?", strings.ToLower(username)).
		First(&user).Error
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

// GetUsers returns the users with the given IDs. Unknown IDs are skipped.
func (r *userRepository) GetUsers(ctx context.Context, userIDs []string) ([]*models.User, error) {
	users := []*models.User{}
	if len(userIDs) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error
	return users, err
}

func (r *userRepository) UpdateUser(ctx context.Context, userID string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return ErrInvalidInput
	}
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SearchUsers matches username or display name by prefix
func (r *userRepository) SearchUsers(ctx context.Context, query string, limit int) ([]*models.User, error) {
	users := []*models.User{}
	pattern := strings.ToLower(strings.TrimSpace(query)) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(username) LIKE ? OR LOWER(display_name) LIKE ?", pattern, pattern).
		Order("username ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// CountUsers counts how many of userIDs exist.
func (r *userRepository) CountUsers(ctx context.Context, userIDs []string) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id IN ?", userIDs).Count(&count).Error
	return count, err
}
