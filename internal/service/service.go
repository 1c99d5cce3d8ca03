// Package service implements the Snapshelf operations on top of the
// repositories: authorization, validation and the side effects (blob storage,
// search indexing, cache invalidation, live updates) that follow a commit.
package service

import (
	"context"
	"errors"

	apperrors "github.com/zfogg/snapshelf/backend/internal/errors"
	"github.com/zfogg/snapshelf/backend/internal/logger"
	"github.com/zfogg/snapshelf/backend/internal/models"
	"github.com/zfogg/snapshelf/backend/internal/repository"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 50
)

// PostIndexer keeps the search index in step with posts.
type PostIndexer interface {
	IndexPost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, postID string) error
	SearchPosts(ctx context.Context, query string, limit int) ([]string, error)
}

// CollectionCache caches each user's collection list.
type CollectionCache interface {
	Get(ctx context.Context, userID string) ([]*models.ArchiveGroup, bool)
	Set(ctx context.Context, userID string, groups []*models.ArchiveGroup)
	Invalidate(ctx context.Context, userIDs ...string)
}

// JobRunner runs work off the request path.
type JobRunner interface {
	Submit(name string, fn func(ctx context.Context) error) error
}

// PostObserver is told about committed changes to a post.
type PostObserver interface {
	PostChanged(postID string)
	PostDeleted(postID string)
}

// ClampLimit bounds a page size to [1, MaxPageSize], defaulting to DefaultPageSize.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

// translate maps repository errors onto API errors. Anything unrecognised is
// logged and reported as an internal error.
func translate(err error, op string, fields ...zap.Field) error {
	if err == nil {
		return nil
	}
	if apiErr, ok := apperrors.As(err); ok {
		return apiErr
	}
	switch {
	case errors.Is(err, repository.ErrPostNotFound):
		return apperrors.NotFound("post")
	case errors.Is(err, repository.ErrCommentNotFound):
		return apperrors.NotFound("comment")
	case errors.Is(err, repository.ErrGroupNotFound):
		return apperrors.NotFound("collection")
	case errors.Is(err, repository.ErrUserNotFound):
		return apperrors.NotFound("user")
	case errors.Is(err, repository.ErrFriendRequestNotFound):
		return apperrors.NotFound("friend request")
	case errors.Is(err, repository.ErrNotGroupMember):
		return apperrors.NotFound("collection member")
	case errors.Is(err, repository.ErrInvalidInput):
		return apperrors.BadRequest("invalid input")
	case repository.IsDuplicate(err):
		return apperrors.Conflict("resource")
	}
	logger.ErrorWithFields("Failed to "+op, err, fields...)
	return apperrors.Wrap(err, "failed to "+op)
}

// access answers "may viewer see this?" questions shared by every service.
type access struct {
	friends repository.FriendRepository
}

// canViewPost applies the visibility rule: owners always see their posts;
// nobody sees across a block; friends-only posts, and posts of friends-only
// profiles, need a friendship.
func (a access) canViewPost(ctx context.Context, post *models.Post, viewerID string) (bool, error) {
	if post.UserID == viewerID {
		return true, nil
	}
	blocked, err := a.friends.IsBlockedEitherWay(ctx, viewerID, post.UserID)
	if err != nil || blocked {
		return false, err
	}
	friendsOnly := post.Visibility == models.VisibilityFriends ||
		(post.User != nil && post.User.Visibility == models.VisibilityFriends)
	if !friendsOnly {
		return true, nil
	}
	return a.friends.AreFriends(ctx, viewerID, post.UserID)
}

// filterVisible keeps the posts viewer may see, preserving order.
func (a access) filterVisible(ctx context.Context, posts []*models.Post, viewerID string) ([]*models.Post, error) {
	visible := make([]*models.Post, 0, len(posts))
	for _, post := range posts {
		ok, err := a.canViewPost(ctx, post, viewerID)
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, post)
		}
	}
	return visible, nil
}

// hydrator fills the derived fields of post views.
type hydrator struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	archive  repository.ArchiveRepository
}

func (h hydrator) hydrate(ctx context.Context, posts []*models.Post, viewerID string) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}

	likedBy, err := h.posts.GetLikedBy(ctx, ids)
	if err != nil {
		return err
	}
	states, err := h.archive.GetArchiveState(ctx, ids)
	if err != nil {
		return err
	}
	threads, err := h.comments.ListCommentsForPosts(ctx, ids)
	if err != nil {
		return err
	}

	for _, p := range posts {
		p.LikedBy = nonNil(likedBy[p.ID])
		p.IsLiked = contains(p.LikedBy, viewerID)
		if st, ok := states[p.ID]; ok {
			p.ArchiveGroups = st.Groups
			p.ArchivedBy = st.ArchivedBy
		} else {
			p.ArchiveGroups = []string{}
			p.ArchivedBy = []string{}
		}
		p.IsArchived = contains(p.ArchivedBy, viewerID)
		p.Comments = threads[p.ID]
		if p.Comments == nil {
			p.Comments = []*models.Comment{}
		}
	}
	return nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
