package service

import (
	"context"
	"strings"
	"unicode/utf8"

	apperrors "github.com/zfogg/snapshelf/backend/internal/errors"
	"github.com/zfogg/snapshelf/backend/internal/logger"
	"github.com/zfogg/snapshelf/backend/internal/metrics"
	"github.com/zfogg/snapshelf/backend/internal/models"
	"github.com/zfogg/snapshelf/backend/internal/repository"
)

// MaxCommentLength is the longest comment accepted, in characters.
const MaxCommentLength = 2000

// CommentService handles comment threads
type CommentService struct {
	repos *repository.Repositories
	access
	observer PostObserver
}

// NewCommentService creates a new comment service
func NewCommentService(repos *repository.Repositories) *CommentService {
	return &CommentService{repos: repos, access: access{friends: repos.Friends}}
}

// SetObserver sets the receiver of post change notifications
func (s *CommentService) SetObserver(observer PostObserver) {
	s.observer = observer
}

// AddComment posts a comment, or a reply when parentID is set. Replies to
// replies attach to the top-level comment.
func (s *CommentService) AddComment(ctx context.Context, postID, authorID, text string, parentID *string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.ValidationError("text", "comment cannot be empty")
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return nil, apperrors.ValidationError("text", "comment is too long")
	}
	if parentID != nil && strings.TrimSpace(*parentID) == "" {
		parentID = nil
	}

	if err := s.checkVisible(ctx, postID, authorID); err != nil {
		return nil, err
	}
	author, err := s.repos.Users.GetUser(ctx, authorID)
	if err != nil {
		return nil, translate(err, "load comment author", logger.WithUserID(authorID))
	}

	comment := &models.Comment{
		PostID:            postID,
		UserID:            author.ID,
		AuthorUsername:    author.Username,
		AuthorDisplayName: author.DisplayName,
		AuthorAvatarURL:   author.AvatarURL,
		ParentID:          parentID,
		Text:              text,
	}
	if err := s.repos.Comments.CreateComment(ctx, comment); err != nil {
		return nil, translate(err, "create comment", logger.WithPostID(postID), logger.WithUserID(authorID))
	}

	metrics.RecordComment("created")
	s.notifyChanged(postID)
	return comment, nil
}

// DeleteComment removes a comment. The comment author and the post owner may
// delete; deleting a top-level comment takes its replies with it.
func (s *CommentService) DeleteComment(ctx context.Context, postID, commentID, actorID string) error {
	comment, err := s.repos.Comments.GetComment(ctx, commentID)
	if err != nil {
		return translate(err, "get comment", logger.WithCommentID(commentID))
	}
	if comment.PostID != postID {
		return apperrors.NotFound("comment")
	}
	post, err := s.repos.Posts.GetPost(ctx, postID)
	if err != nil {
		return translate(err, "get post", logger.WithPostID(postID))
	}
	if comment.UserID != actorID && post.UserID != actorID {
		return apperrors.Forbidden("only the comment author or the post owner can delete this comment")
	}

	removed, err := s.repos.Comments.DeleteComment(ctx, commentID)
	if err != nil {
		return translate(err, "delete comment", logger.WithCommentID(commentID))
	}

	metrics.RecordComment("deleted")
	logger.DebugWithFields("Comment deleted",
		logger.WithCommentID(commentID),
		logger.WithPostID(postID),
		logger.WithUserID(actorID),
	)
	if removed > 0 {
		s.notifyChanged(postID)
	}
	return nil
}

// ListComments returns the post's threads, oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID, viewerID string) ([]*models.Comment, error) {
	if err := s.checkVisible(ctx, postID, viewerID); err != nil {
		return nil, err
	}
	comments, err := s.repos.Comments.ListComments(ctx, postID)
	if err != nil {
		return nil, translate(err, "list comments", logger.WithPostID(postID))
	}
	return comments, nil
}

func (s *CommentService) checkVisible(ctx context.Context, postID, viewerID string) error {
	post, err := s.repos.Posts.GetPost(ctx, postID)
	if err != nil {
		return translate(err, "get post", logger.WithPostID(postID))
	}
	ok, err := s.canViewPost(ctx, post, viewerID)
	if err != nil {
		return translate(err, "check post visibility", logger.WithPostID(postID))
	}
	if !ok {
		return apperrors.NotFound("post")
	}
	return nil
}

func (s *CommentService) notifyChanged(postID string) {
	if s.observer != nil {
		s.observer.PostChanged(postID)
	}
}
