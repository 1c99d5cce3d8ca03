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
	"github.com/zfogg/snapshelf/backend/internal/storage"
	"go.uber.org/zap"
)

const (
	maxDescriptionLength = 2200
	maxTags              = 30
	maxTagLength         = 64
)

// MaxImageBytes caps uploaded image size.
const MaxImageBytes = 20 << 20

// CreatePostInput carries a new post.
type CreatePostInput struct {
	OwnerID     string
	ImageData   []byte
	Filename    string
	Description string
	Tags        []string
	Location    *models.Location
	Visibility  models.Visibility
}

// UpdatePostInput carries the fields to change; nil fields are left alone.
type UpdatePostInput struct {
	Description   *string
	Tags          *[]string
	Location      *models.Location
	ClearLocation bool
	Visibility    *models.Visibility
}

// PostService handles posts, likes, feeds, search and reports.
type PostService struct {
	repos *repository.Repositories
	access
	hydrator

	images   storage.ImageStore
	indexer  PostIndexer
	observer PostObserver
	jobs     JobRunner
	lists    CollectionCache
}

// NewPostService creates a new post service
func NewPostService(repos *repository.Repositories) *PostService {
	return &PostService{
		repos:    repos,
		access:   access{friends: repos.Friends},
		hydrator: hydrator{posts: repos.Posts, comments: repos.Comments, archive: repos.Archive},
	}
}

// SetImageStore sets the blob store used for post images
func (s *PostService) SetImageStore(images storage.ImageStore) {
	s.images = images
}

// SetIndexer sets the search index kept in step with posts
func (s *PostService) SetIndexer(indexer PostIndexer) {
	s.indexer = indexer
}

// SetObserver sets the receiver of post change notifications
func (s *PostService) SetObserver(observer PostObserver) {
	s.observer = observer
}

// SetCollectionCache sets the collection list cache that post deletion
// must keep in step.
func (s *PostService) SetCollectionCache(cache CollectionCache) {
	s.lists = cache
}

// SetJobRunner moves blob cleanup and index writes to the background.
// Without one they run inline.
func (s *PostService) SetJobRunner(jobs JobRunner) {
	s.jobs = jobs
}

func (s *PostService) notifyChanged(postID string) {
	if s.observer != nil {
		s.observer.PostChanged(postID)
	}
}

// CreatePost uploads the image, stores the post and indexes it.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if len(in.ImageData) == 0 {
		return nil, apperrors.ValidationError("image", "image is required")
	}
	if len(in.ImageData) > MaxImageBytes {
		return nil, apperrors.ValidationError("image", "image is too large")
	}
	if !storage.IsSupportedImage(in.Filename) {
		return nil, apperrors.ValidationError("image", "unsupported image type")
	}
	description, err := validateDescription(in.Description)
	if err != nil {
		return nil, err
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}
	visibility := in.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	if !visibility.Valid() {
		return nil, apperrors.ValidationError("visibility", "visibility must be public or friends")
	}
	if s.images == nil {
		return nil, apperrors.ServiceUnavailable("image storage")
	}

	owner, err := s.repos.Users.GetUser(ctx, in.OwnerID)
	if err != nil {
		return nil, translate(err, "load post owner", logger.WithUserID(in.OwnerID))
	}

	upload, err := s.images.UploadImage(ctx, in.ImageData, owner.ID, in.Filename)
	if err != nil {
		return nil, translate(err, "upload image", logger.WithUserID(owner.ID))
	}

	post := &models.Post{
		UserID:      owner.ID,
		ImageURL:    upload.URL,
		ImageKey:    upload.Key,
		Description: description,
		Tags:        tags,
		Location:    normalizeLocation(in.Location),
		Visibility:  visibility,
	}
	if err := s.repos.Posts.CreatePost(ctx, post); err != nil {
		s.deleteImage(upload.Key, post.ID)
		return nil, translate(err, "create post", logger.WithUserID(owner.ID))
	}
	post.User = owner

	if err := s.hydrate(ctx, []*models.Post{post}, owner.ID); err != nil {
		return nil, translate(err, "load post", logger.WithPostID(post.ID))
	}
	s.index(post)

	logger.InfoWithFields("Post created", logger.WithPostID(post.ID), logger.WithUserID(owner.ID))
	return post, nil
}

// GetPost returns the post as seen by viewerID. Posts the viewer may not see
// are reported as not found.
func (s *PostService) GetPost(ctx context.Context, postID, viewerID string) (*models.Post, error) {
	post, err := s.visiblePost(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, []*models.Post{post}, viewerID); err != nil {
		return nil, translate(err, "load post", logger.WithPostID(postID))
	}
	return post, nil
}

// Snapshot is GetPost for live subscribers.
func (s *PostService) Snapshot(ctx context.Context, postID, viewerID string) (*models.Post, error) {
	return s.GetPost(ctx, postID, viewerID)
}

func (s *PostService) visiblePost(ctx context.Context, postID, viewerID string) (*models.Post, error) {
	post, err := s.repos.Posts.GetPost(ctx, postID)
	if err != nil {
		return nil, translate(err, "get post", logger.WithPostID(postID))
	}
	ok, err := s.canViewPost(ctx, post, viewerID)
	if err != nil {
		return nil, translate(err, "check post visibility", logger.WithPostID(postID))
	}
	if !ok {
		return nil, apperrors.NotFound("post")
	}
	return post, nil
}

// UpdatePost changes the post's editable fields. Owner only.
func (s *PostService) UpdatePost(ctx context.Context, postID, actorID string, in UpdatePostInput) (*models.Post, error) {
	post, err := s.repos.Posts.GetPost(ctx, postID)
	if err != nil {
		return nil, translate(err, "get post", logger.WithPostID(postID))
	}
	if post.UserID != actorID {
		return nil, apperrors.Forbidden("only the owner can edit this post")
	}

	changes := &models.Post{}
	var columns []string
	if in.Description != nil {
		description, err := validateDescription(*in.Description)
		if err != nil {
			return nil, err
		}
		changes.Description = description
		columns = append(columns, "description")
	}
	if in.Tags != nil {
		tags, err := normalizeTags(*in.Tags)
		if err != nil {
			return nil, err
		}
		changes.Tags = tags
		columns = append(columns, "tags")
	}
	if in.ClearLocation {
		columns = append(columns, "location")
	} else if in.Location != nil {
		changes.Location = normalizeLocation(in.Location)
		columns = append(columns, "location")
	}
	if in.Visibility != nil {
		if !in.Visibility.Valid() {
			return nil, apperrors.ValidationError("visibility", "visibility must be public or friends")
		}
		changes.Visibility = *in.Visibility
		columns = append(columns, "visibility")
	}
	if len(columns) == 0 {
		return nil, apperrors.BadRequest("no fields to update")
	}

	if err := s.repos.Posts.UpdatePost(ctx, postID, changes, columns...); err != nil {
		return nil, translate(err, "update post", logger.WithPostID(postID))
	}

	updated, err := s.GetPost(ctx, postID, actorID)
	if err != nil {
		return nil, err
	}
	s.index(updated)
	s.notifyChanged(postID)
	return updated, nil
}

// DeletePost removes the post and everything hanging off it. The image and
// the search document are removed afterwards; failures there are only logged.
func (s *PostService) DeletePost(ctx context.Context, postID, actorID string) error {
	post, err := s.repos.Posts.GetPost(ctx, postID)
	if err != nil {
		return translate(err, "get post", logger.WithPostID(postID))
	}
	if post.UserID != actorID {
		return apperrors.Forbidden("only the owner can delete this post")
	}

	deleted, err := s.repos.Posts.DeletePost(ctx, postID)
	if err != nil {
		return translate(err, "delete post", logger.WithPostID(postID))
	}

	if s.lists != nil && len(deleted.CollectionMemberIDs) > 0 {
		s.lists.Invalidate(ctx, deleted.CollectionMemberIDs...)
	}

	key := deleted.Post.ImageKey
	if key == "" {
		key = storage.KeyFromURL(deleted.Post.ImageURL)
	}
	s.deleteImage(key, postID)

	if s.indexer != nil {
		s.background("unindex_post", func(ctx context.Context) error {
			if err := s.indexer.DeletePost(ctx, postID); err != nil {
				logger.WarnWithFields("Failed to remove post from search index", err, logger.WithPostID(postID))
				return err
			}
			return nil
		})
	}
	if s.observer != nil {
		s.observer.PostDeleted(postID)
	}

	logger.InfoWithFields("Post deleted", logger.WithPostID(postID), logger.WithUserID(actorID))
	return nil
}

func (s *PostService) deleteImage(key, postID string) {
	if s.images == nil || key == "" {
		return
	}
	s.background("delete_image", func(ctx context.Context) error {
		if err := s.images.DeleteFile(ctx, key); err != nil {
			metrics.RecordBlobDeleteFailure()
			logger.WarnWithFields("Failed to delete post image", err,
				logger.WithPostID(postID),
				zap.String("key", key),
			)
			return err
		}
		return nil
	})
}

func (s *PostService) index(post *models.Post) {
	if s.indexer == nil {
		return
	}
	s.background("index_post", func(ctx context.Context) error {
		if err := s.indexer.IndexPost(ctx, post); err != nil {
			logger.WarnWithFields("Failed to index post", err, logger.WithPostID(post.ID))
			return err
		}
		return nil
	})
}

// background hands fn to the job runner, falling back to running it inline
// when there is none or it refuses the job. fn never sees the request
// context: the row change it follows has already committed.
func (s *PostService) background(name string, fn func(ctx context.Context) error) {
	if s.jobs != nil {
		err := s.jobs.Submit(name, fn)
		if err == nil {
			return
		}
		logger.Warn("Job runner refused job, running inline", zap.String("job", name), zap.Error(err))
	}
	_ = fn(context.Background())
}

// Feed returns posts by the viewer and their friends, newest first, without
// muted or blocked authors.
func (s *PostService) Feed(ctx context.Context, viewerID string, limit, offset int) ([]*models.Post, error) {
	friendIDs, err := s.repos.Friends.GetFriendIDs(ctx, viewerID)
	if err != nil {
		return nil, translate(err, "load friends", logger.WithUserID(viewerID))
	}
	muted, err := s.repos.Friends.GetMutedIDs(ctx, viewerID)
	if err != nil {
		return nil, translate(err, "load muted users", logger.WithUserID(viewerID))
	}
	blocked, err := s.repos.Friends.GetBlockRelatedIDs(ctx, viewerID)
	if err != nil {
		return nil, translate(err, "load blocked users", logger.WithUserID(viewerID))
	}

	authors := append([]string{viewerID}, friendIDs...)
	posts, err := s.repos.Posts.GetFeed(ctx, authors, append(muted, blocked...), ClampLimit(limit), clampOffset(offset))
	if err != nil {
		return nil, translate(err, "load feed", logger.WithUserID(viewerID))
	}
	if err := s.hydrate(ctx, posts, viewerID); err != nil {
		return nil, translate(err, "load feed", logger.WithUserID(viewerID))
	}
	return posts, nil
}

// UserPosts returns the profile user's posts the viewer may see.
func (s *PostService) UserPosts(ctx context.Context, userID, viewerID string, limit, offset int) ([]*models.Post, error) {
	owner, err := s.repos.Users.GetUser(ctx, userID)
	if err != nil {
		return nil, translate(err, "get user", logger.WithUserID(userID))
	}

	publicOnly := false
	if userID != viewerID {
		blocked, err := s.repos.Friends.IsBlockedEitherWay(ctx, viewerID, userID)
		if err != nil {
			return nil, translate(err, "check block", logger.WithUserID(userID))
		}
		if blocked {
			return nil, apperrors.NotFound("user")
		}
		friends, err := s.repos.Friends.AreFriends(ctx, viewerID, userID)
		if err != nil {
			return nil, translate(err, "check friendship", logger.WithUserID(userID))
		}
		if !friends {
			if owner.Visibility == models.VisibilityFriends {
				return []*models.Post{}, nil
			}
			publicOnly = true
		}
	}

	posts, err := s.repos.Posts.GetUserPosts(ctx, userID, publicOnly, ClampLimit(limit), clampOffset(offset))
	if err != nil {
		return nil, translate(err, "load user posts", logger.WithUserID(userID))
	}
	if err := s.hydrate(ctx, posts, viewerID); err != nil {
		return nil, translate(err, "load user posts", logger.WithUserID(userID))
	}
	return posts, nil
}

// SearchPosts runs a full-text query and returns the hits the viewer may see,
// best match first.
func (s *PostService) SearchPosts(ctx context.Context, viewerID, query string, limit int) ([]*models.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.ValidationError("q", "query is required")
	}
	if s.indexer == nil {
		return nil, apperrors.ServiceUnavailable("search")
	}

	limit = ClampLimit(limit)
	ids, err := s.indexer.SearchPosts(ctx, query, limit*2)
	if err != nil {
		logger.ErrorWithFields("Post search failed", err, zap.String("query", query))
		return nil, apperrors.ServiceUnavailable("search")
	}

	found, err := s.repos.Posts.GetPostsByIDs(ctx, ids)
	if err != nil {
		return nil, translate(err, "load search results")
	}
	byID := make(map[string]*models.Post, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	ordered := make([]*models.Post, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}

	visible, err := s.filterVisible(ctx, ordered, viewerID)
	if err != nil {
		return nil, translate(err, "filter search results")
	}
	if len(visible) > limit {
		visible = visible[:limit]
	}
	if err := s.hydrate(ctx, visible, viewerID); err != nil {
		return nil, translate(err, "load search results")
	}
	return visible, nil
}

// ReportPost logs a report for moderation.
func (s *PostService) ReportPost(ctx context.Context, postID, reporterID string, reason models.ReportReason, description string) (*models.Report, error) {
	if !reason.Valid() {
		return nil, apperrors.ValidationError("reason", "reason must be one of spam, harassment, inappropriate, violence, other")
	}
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return nil, apperrors.ValidationError("description", "description is too long")
	}

	post, err := s.visiblePost(ctx, postID, reporterID)
	if err != nil {
		return nil, err
	}
	if post.UserID == reporterID {
		return nil, apperrors.BadRequest("you cannot report your own post")
	}

	report := &models.Report{
		ReporterID:  reporterID,
		PostID:      postID,
		PostOwnerID: post.UserID,
		Reason:      reason,
		Description: description,
	}
	if err := s.repos.Events.CreateReport(ctx, report); err != nil {
		return nil, translate(err, "create report", logger.WithPostID(postID))
	}
	logger.InfoWithFields("Post reported",
		logger.WithPostID(postID),
		logger.WithUserID(reporterID),
		zap.String("reason", string(reason)),
	)
	return report, nil
}

// ToggleLike flips the user's like and reports whether the post is now liked.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	if _, err := s.visiblePost(ctx, postID, userID); err != nil {
		return false, err
	}
	liked, err := s.repos.Posts.ToggleLike(ctx, postID, userID)
	if err != nil {
		return false, translate(err, "toggle like", logger.WithPostID(postID), logger.WithUserID(userID))
	}
	metrics.RecordLikeToggle(liked)
	s.notifyChanged(postID)
	return liked, nil
}

func validateDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return "", apperrors.ValidationError("description", "description is too long")
	}
	return description, nil
}

// normalizeTags trims tags, strips a leading '#', drops empties and
// duplicates, and keeps the caller's order.
func normalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > maxTagLength {
			return nil, apperrors.ValidationError("tags", "tag is too long")
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	if len(out) > maxTags {
		return nil, apperrors.ValidationError("tags", "too many tags")
	}
	return out, nil
}

func normalizeLocation(loc *models.Location) *models.Location {
	if loc == nil {
		return nil
	}
	name := strings.TrimSpace(loc.Name)
	if name == "" {
		return nil
	}
	return &models.Location{Name: name, Address: strings.TrimSpace(loc.Address)}
}
