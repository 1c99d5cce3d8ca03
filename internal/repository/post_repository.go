package repository

import (
	"context"

	"github.com/zfogg/snapshelf/backend/internal/models"
	"gorm.io/gorm"
)

// PostRepository handles posts and likes
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	GetPostsByIDs(ctx context.Context, postIDs []string) ([]*models.Post, error)
	UpdatePost(ctx context.Context, postID string, post *models.Post, columns ...string) error
	DeletePost(ctx context.Context, postID string) (*PostDeletion, error)

	GetFeed(ctx context.Context, authorIDs, excludeIDs []string, limit, offset int) ([]*models.Post, error)
	GetUserPosts(ctx context.Context, userID string, publicOnly bool, limit, offset int) ([]*models.Post, error)
	CountUserPosts(ctx context.Context, userID string) (int64, error)

	ToggleLike(ctx context.Context, postID, userID string) (bool, error)
	GetLikedBy(ctx context.Context, postIDs []string) (map[string][]string, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if post == nil || post.UserID == "" || post.ImageURL == "" {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", postID).First(&post).Error
	if err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}
	return &post, nil
}

// GetPostsByIDs returns the posts with the given IDs, newest first.
func (r *postRepository) GetPostsByIDs(ctx context.Context, postIDs []string) ([]*models.Post, error) {
	posts := []*models.Post{}
	if len(postIDs) == 0 {
		return posts, nil
	}
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("id IN ?", postIDs).
		Order("created_at DESC").
		Find(&posts).Error
	return posts, err
}

// UpdatePost writes the named columns from post. Going through the struct
// keeps the JSON serializer on tags and location.
func (r *postRepository) UpdatePost(ctx context.Context, postID string, post *models.Post, columns ...string) error {
	if post == nil || len(columns) == 0 {
		return ErrInvalidInput
	}
	result := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).Select(columns).Updates(post)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// PostDeletion describes what a DeletePost call removed.
type PostDeletion struct {
	Post *models.Post
	// Members of every collection that held the post
	CollectionMemberIDs []string
}

// DeletePost removes the post with its likes, comments and archive entries in
// one transaction and returns the deleted row so the caller can clean up the image.
func (r *postRepository) DeletePost(ctx context.Context, postID string) (*PostDeletion, error) {
	deletion := &PostDeletion{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Where("id = ?", postID).First(&post).Error; err != nil {
			return notFound(err, ErrPostNotFound)
		}
		deletion.Post = &post

		if err := tx.Model(&models.ArchiveGroupMember{}).
			Distinct("user_id").
			Where("group_id IN (?)", tx.Model(&models.ArchiveEntry{}).Select("group_id").Where("post_id = ?", postID)).
			Pluck("user_id", &deletion.CollectionMemberIDs).Error; err != nil {
			return err
		}

		for _, model := range []interface{}{&models.PostLike{}, &models.Comment{}, &models.ArchiveEntry{}} {
			if err := tx.Where("post_id = ?", postID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		return nil, err
	}
	return deletion, nil
}

// GetFeed returns posts by authorIDs, newest first, skipping excludeIDs.
func (r *postRepository) GetFeed(ctx context.Context, authorIDs, excludeIDs []string, limit, offset int) ([]*models.Post, error) {
	posts := []*models.Post{}
	if len(authorIDs) == 0 {
		return posts, nil
	}
	query := r.db.WithContext(ctx).Preload("User").Where("user_id IN ?", authorIDs)
	if len(excludeIDs) > 0 {
		query = query.Where("user_id NOT IN ?", excludeIDs)
	}
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&posts).Error
	return posts, err
}

func (r *postRepository) GetUserPosts(ctx context.Context, userID string, publicOnly bool, limit, offset int) ([]*models.Post, error) {
	posts := []*models.Post{}
	query := r.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID)
	if publicOnly {
		query = query.Where("visibility = ?", models.VisibilityPublic)
	}
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&posts).Error
	return posts, err
}

func (r *postRepository) CountUserPosts(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// ToggleLike flips userID's like on the post and returns whether the post is
// now liked. The counter moves with an atomic SQL expression and a LikeEvent
// is logged only when a like is added.
func (r *postRepository) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	liked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id", "user_id").Where("id = ?", postID).First(&post).Error; err != nil {
			return notFound(err, ErrPostNotFound)
		}

		result := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return tx.Model(&models.Post{}).Where("id = ?", postID).
				UpdateColumn("like_count", gorm.Expr("CASE WHEN like_count > 0 THEN like_count - 1 ELSE 0 END")).Error
		}

		if err := tx.Create(&models.PostLike{PostID: postID, UserID: userID}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
			return err
		}
		liked = true
		return tx.Create(&models.LikeEvent{PostID: postID, PostOwnerID: post.UserID, UserID: userID}).Error
	})
	return liked, err
}

// GetLikedBy returns, per post, the likers in like order.
func (r *postRepository) GetLikedBy(ctx context.Context, postIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}
	var likes []models.PostLike
	err := r.db.WithContext(ctx).
		Where("post_id IN ?", postIDs).
		Order("created_at ASC").
		Find(&likes).Error
	if err != nil {
		return nil, err
	}
	for _, like := range likes {
		result[like.PostID] = append(result[like.PostID], like.UserID)
	}
	return result, nil
}
