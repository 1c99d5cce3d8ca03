package repository

import (
	"context"

	"github.com/zfogg/snapshelf/backend/internal/models"
	"gorm.io/gorm"
)

// CommentRepository handles comment threads
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, commentID string) (*models.Comment, error)
	ListComments(ctx context.Context, postID string) ([]*models.Comment, error)
	ListCommentsForPosts(ctx context.Context, postIDs []string) (map[string][]*models.Comment, error)
	DeleteComment(ctx context.Context, commentID string) (int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// CreateComment inserts the comment, bumps the post's counter and logs a
// CommentEvent unless the author owns the post. A ParentID naming a reply is
// re-pointed at that reply's top-level comment.
func (r *commentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	if comment == nil || comment.PostID == "" || comment.UserID == "" || comment.Text == "" {
		return ErrInvalidInput
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id", "user_id").Where("id = ?", comment.PostID).First(&post).Error; err != nil {
			return notFound(err, ErrPostNotFound)
		}

		if comment.ParentID != nil {
			var parent models.Comment
			err := tx.Where("id = ? AND post_id = ?", *comment.ParentID, comment.PostID).First(&parent).Error
			if err != nil {
				return notFound(err, ErrCommentNotFound)
			}
			if parent.ParentID != nil {
				comment.ParentID = parent.ParentID
			}
		}

		if err := tx.Create(comment).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
			return err
		}

		if comment.UserID == post.UserID {
			return nil
		}
		return tx.Create(&models.CommentEvent{
			PostID:      comment.PostID,
			PostOwnerID: post.UserID,
			CommentID:   comment.ID,
			UserID:      comment.UserID,
			Text:        comment.Text,
		}).Error
	})
}

func (r *commentRepository) GetComment(ctx context.Context, commentID string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", commentID).First(&comment).Error; err != nil {
		return nil, notFound(err, ErrCommentNotFound)
	}
	return &comment, nil
}

// ListComments returns top-level comments oldest first, each with its replies.
func (r *commentRepository) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	threads, err := r.ListCommentsForPosts(ctx, []string{postID})
	if err != nil {
		return nil, err
	}
	if comments, ok := threads[postID]; ok {
		return comments, nil
	}
	return []*models.Comment{}, nil
}

func (r *commentRepository) ListCommentsForPosts(ctx context.Context, postIDs []string) (map[string][]*models.Comment, error) {
	result := make(map[string][]*models.Comment, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	var rows []*models.Comment
	err := r.db.WithContext(ctx).
		Where("post_id IN ?", postIDs).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Comment, len(rows))
	for _, c := range rows {
		if c.ParentID == nil {
			byID[c.ID] = c
			result[c.PostID] = append(result[c.PostID], c)
		}
	}
	for _, c := range rows {
		if c.ParentID == nil {
			continue
		}
		if parent, ok := byID[*c.ParentID]; ok {
			parent.Replies = append(parent.Replies, c)
		}
	}
	return result, nil
}

// DeleteComment removes the comment, and its replies when it is top-level,
// and lowers the post's counter by the number of rows removed.
func (r *commentRepository) DeleteComment(ctx context.Context, commentID string) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Where("id = ?", commentID).First(&comment).Error; err != nil {
			return notFound(err, ErrCommentNotFound)
		}

		query := tx.Where("id = ?", commentID)
		if comment.ParentID == nil {
			query = tx.Where("id = ? OR parent_id = ?", commentID, commentID)
		}
		result := query.Delete(&models.Comment{})
		if result.Error != nil {
			return result.Error
		}
		removed = result.RowsAffected

		return tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comment_count",
				gorm.Expr("CASE WHEN comment_count >= ? THEN comment_count - ? ELSE 0 END", removed, removed)).Error
	})
	return removed, err
}
