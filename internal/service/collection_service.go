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
	"go.uber.org/zap"
)

const (
	MaxCollectionNameLength        = 60
	maxCollectionDescriptionLength = 500
	maxCollectionEmojiLength       = 16
)

// CreateCollectionInput carries a new collection.
type CreateCollectionInput struct {
	CreatorID   string
	Name        string
	Emoji       string
	Description string
	FriendIDs   []string
}

// UpdateCollectionInput carries the fields to change; nil fields are left alone.
type UpdateCollectionInput struct {
	Name        *string
	Emoji       *string
	Description *string
}

// CollectionView is a collection together with a page of its posts.
type CollectionView struct {
	Group *models.ArchiveGroup `json:"group"`
	Posts []*models.Post       `json:"posts"`
}

// CollectionService handles archiving posts into private and shared collections.
type CollectionService struct {
	repos *repository.Repositories
	access
	hydrator

	cache    CollectionCache
	observer PostObserver
}

// NewCollectionService creates a new collection service
func NewCollectionService(repos *repository.Repositories) *CollectionService {
	return &CollectionService{
		repos:    repos,
		access:   access{friends: repos.Friends},
		hydrator: hydrator{posts: repos.Posts, comments: repos.Comments, archive: repos.Archive},
	}
}

// SetCache sets the per-user collection list cache
func (s *CollectionService) SetCache(cache CollectionCache) {
	s.cache = cache
}

// SetObserver sets the receiver of post change notifications
func (s *CollectionService) SetObserver(observer PostObserver) {
	s.observer = observer
}

// ToggleQuickSave saves the post to the user's default collection, or, when
// the user has already saved it anywhere, removes every entry they added.
// It reports whether the post is now saved by the user.
func (s *CollectionService) ToggleQuickSave(ctx context.Context, postID, userID string) (bool, error) {
	if err := s.checkPostVisible(ctx, postID, userID); err != nil {
		return false, err
	}

	saved, err := s.repos.Archive.HasArchived(ctx, userID, postID)
	if err != nil {
		return false, translate(err, "check saved state", logger.WithPostID(postID), logger.WithUserID(userID))
	}

	if saved {
		before, err := s.postGroups(ctx, postID)
		if err != nil {
			return false, err
		}
		if _, err := s.repos.Archive.RemoveUserEntries(ctx, userID, postID); err != nil {
			return false, translate(err, "unsave post", logger.WithPostID(postID), logger.WithUserID(userID))
		}
		s.invalidateGroups(ctx, before...)
		s.invalidateUsers(ctx, userID)
		metrics.RecordCollectionOperation("unsave")
		s.notifyChanged(postID)
		return false, nil
	}

	group, err := s.repos.Archive.GetOrCreateDefaultGroup(ctx, userID)
	if err != nil {
		return false, translate(err, "get default collection", logger.WithUserID(userID))
	}
	if _, err := s.repos.Archive.AddEntry(ctx, group.ID, postID, userID); err != nil {
		return false, translate(err, "save post", logger.WithPostID(postID), logger.WithGroupID(group.ID))
	}
	s.invalidateGroups(ctx, group.ID)
	metrics.RecordCollectionOperation("save")
	s.notifyChanged(postID)
	return true, nil
}

// AssignCollections sets which of the user's collections hold the post and
// returns every collection the post is in afterwards.
func (s *CollectionService) AssignCollections(ctx context.Context, postID, userID string, groupIDs []string) ([]string, error) {
	if err := s.checkPostVisible(ctx, postID, userID); err != nil {
		return nil, err
	}
	before, err := s.postGroups(ctx, postID)
	if err != nil {
		return nil, err
	}

	after, err := s.repos.Archive.SetPostGroups(ctx, userID, postID, groupIDs)
	if err != nil {
		return nil, translate(err, "assign collections", logger.WithPostID(postID), logger.WithUserID(userID))
	}

	s.invalidateGroups(ctx, append(before, after...)...)
	metrics.RecordCollectionOperation("assign")
	s.notifyChanged(postID)
	return after, nil
}

// CreateCollection creates a collection. Friends listed are made members
// straight away, which makes the collection shared.
func (s *CollectionService) CreateCollection(ctx context.Context, in CreateCollectionInput) (*models.ArchiveGroup, error) {
	name, err := validateCollectionName(in.Name)
	if err != nil {
		return nil, err
	}
	description, err := validateCollectionDescription(in.Description)
	if err != nil {
		return nil, err
	}
	emoji, err := validateCollectionEmoji(in.Emoji)
	if err != nil {
		return nil, err
	}

	friendIDs := make([]string, 0, len(in.FriendIDs))
	seen := map[string]bool{in.CreatorID: true}
	for _, id := range in.FriendIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		friendIDs = append(friendIDs, id)
	}

	if _, err := s.repos.Users.GetUser(ctx, in.CreatorID); err != nil {
		return nil, translate(err, "load collection creator", logger.WithUserID(in.CreatorID))
	}
	if len(friendIDs) > 0 {
		existing, err := s.repos.Users.CountUsers(ctx, friendIDs)
		if err != nil {
			return nil, translate(err, "check collection members")
		}
		allFriends, err := s.repos.Friends.AllFriends(ctx, in.CreatorID, friendIDs)
		if err != nil {
			return nil, translate(err, "check collection members")
		}
		if existing != int64(len(friendIDs)) || !allFriends {
			return nil, apperrors.Forbidden("collections can only be shared with friends")
		}
	}

	group := &models.ArchiveGroup{
		CreatedBy:   in.CreatorID,
		Name:        name,
		Emoji:       emoji,
		Description: description,
		IsShared:    len(friendIDs) > 0,
	}
	if err := s.repos.Archive.CreateGroup(ctx, group, friendIDs); err != nil {
		return nil, translate(err, "create collection", logger.WithUserID(in.CreatorID))
	}

	s.invalidateUsers(ctx, group.Members...)
	metrics.RecordCollectionOperation("create")
	logger.InfoWithFields("Collection created",
		logger.WithGroupID(group.ID),
		logger.WithUserID(in.CreatorID),
		zap.Int("members", len(group.Members)),
	)
	return group, nil
}

// UpdateCollection renames or restyles a collection. Creator only.
func (s *CollectionService) UpdateCollection(ctx context.Context, groupID, actorID string, in UpdateCollectionInput) (*models.ArchiveGroup, error) {
	group, err := s.memberGroup(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}
	if group.CreatedBy != actorID {
		return nil, apperrors.Forbidden("only the creator can edit this collection")
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name, err := validateCollectionName(*in.Name)
		if err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if in.Emoji != nil {
		emoji, err := validateCollectionEmoji(*in.Emoji)
		if err != nil {
			return nil, err
		}
		updates["emoji"] = emoji
	}
	if in.Description != nil {
		description, err := validateCollectionDescription(*in.Description)
		if err != nil {
			return nil, err
		}
		updates["description"] = description
	}
	if len(updates) == 0 {
		return nil, apperrors.BadRequest("no fields to update")
	}

	if err := s.repos.Archive.UpdateGroup(ctx, groupID, updates); err != nil {
		return nil, translate(err, "update collection", logger.WithGroupID(groupID))
	}
	s.invalidateUsers(ctx, group.Members...)
	metrics.RecordCollectionOperation("update")

	updated, err := s.repos.Archive.GetGroup(ctx, groupID)
	if err != nil {
		return nil, translate(err, "get collection", logger.WithGroupID(groupID))
	}
	return updated, nil
}

// DeleteCollection removes the collection for every member. Creator only.
func (s *CollectionService) DeleteCollection(ctx context.Context, groupID, actorID string) error {
	group, err := s.memberGroup(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	if group.CreatedBy != actorID {
		return apperrors.Forbidden("only the creator can delete this collection")
	}

	deletion, err := s.repos.Archive.DeleteGroup(ctx, groupID)
	if err != nil {
		return translate(err, "delete collection", logger.WithGroupID(groupID))
	}

	s.invalidateUsers(ctx, deletion.MemberIDs...)
	for _, postID := range deletion.PostIDs {
		s.notifyChanged(postID)
	}
	metrics.RecordCollectionOperation("delete")
	logger.InfoWithFields("Collection deleted",
		logger.WithGroupID(groupID),
		logger.WithUserID(actorID),
		zap.Int("posts", len(deletion.PostIDs)),
	)
	return nil
}

// AddCollectionMember shares the collection with one of the actor's friends.
func (s *CollectionService) AddCollectionMember(ctx context.Context, groupID, actorID, memberID string) (*models.ArchiveGroup, error) {
	group, err := s.memberGroup(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}
	if group.IsDefault {
		return nil, apperrors.ValidationError("group_id", "the default collection cannot be shared")
	}
	if group.HasMember(memberID) {
		return group, nil
	}

	if _, err := s.repos.Users.GetUser(ctx, memberID); err != nil {
		return nil, translate(err, "get user", logger.WithUserID(memberID))
	}
	friends, err := s.repos.Friends.AreFriends(ctx, actorID, memberID)
	if err != nil {
		return nil, translate(err, "check friendship", logger.WithUserID(actorID))
	}
	if !friends {
		return nil, apperrors.Forbidden("collections can only be shared with friends")
	}

	if _, err := s.repos.Archive.AddMember(ctx, groupID, memberID, actorID); err != nil {
		return nil, translate(err, "add collection member", logger.WithGroupID(groupID), logger.WithUserID(memberID))
	}
	s.invalidateUsers(ctx, append(group.Members, memberID)...)
	metrics.RecordCollectionOperation("add_member")

	updated, err := s.repos.Archive.GetGroup(ctx, groupID)
	if err != nil {
		return nil, translate(err, "get collection", logger.WithGroupID(groupID))
	}
	return updated, nil
}

// RemoveCollectionMember removes a member. The creator may remove anyone
// else; any member may remove themselves. The creator cannot leave.
func (s *CollectionService) RemoveCollectionMember(ctx context.Context, groupID, actorID, memberID string) error {
	group, err := s.memberGroup(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	if actorID != group.CreatedBy && actorID != memberID {
		return apperrors.Forbidden("only the creator can remove other members")
	}
	if memberID == group.CreatedBy {
		return apperrors.ValidationError("user_id", "the creator cannot leave a collection; delete it instead")
	}

	postIDs, err := s.repos.Archive.RemoveMember(ctx, groupID, memberID)
	if err != nil {
		return translate(err, "remove collection member", logger.WithGroupID(groupID), logger.WithUserID(memberID))
	}
	s.invalidateUsers(ctx, group.Members...)
	metrics.RecordCollectionOperation("remove_member")

	// The member drops out of archivedBy on everything they filed here
	for _, postID := range postIDs {
		s.notifyChanged(postID)
	}
	return nil
}

// AddPostToCollection files the post into the collection. Members only.
func (s *CollectionService) AddPostToCollection(ctx context.Context, groupID, postID, actorID string) error {
	group, err := s.memberGroup(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	if err := s.checkPostVisible(ctx, postID, actorID); err != nil {
		return err
	}

	added, err := s.repos.Archive.AddEntry(ctx, groupID, postID, actorID)
	if err != nil {
		return translate(err, "add post to collection", logger.WithGroupID(groupID), logger.WithPostID(postID))
	}
	if !added {
		return nil
	}
	s.invalidateUsers(ctx, group.Members...)
	metrics.RecordCollectionOperation("add_post")
	s.notifyChanged(postID)
	return nil
}

// RemovePostFromCollection takes the post out of the collection. Members only.
func (s *CollectionService) RemovePostFromCollection(ctx context.Context, groupID, postID, actorID string) error {
	group, err := s.memberGroup(ctx, groupID, actorID)
	if err != nil {
		return err
	}

	removed, err := s.repos.Archive.RemoveEntry(ctx, groupID, postID)
	if err != nil {
		return translate(err, "remove post from collection", logger.WithGroupID(groupID), logger.WithPostID(postID))
	}
	if !removed {
		return nil
	}
	s.invalidateUsers(ctx, group.Members...)
	metrics.RecordCollectionOperation("remove_post")
	s.notifyChanged(postID)
	return nil
}

// ListCollections returns the user's collections, newest first.
func (s *CollectionService) ListCollections(ctx context.Context, userID string) ([]*models.ArchiveGroup, error) {
	if s.cache != nil {
		if groups, ok := s.cache.Get(ctx, userID); ok {
			return groups, nil
		}
	}
	groups, err := s.repos.Archive.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, translate(err, "list collections", logger.WithUserID(userID))
	}
	if s.cache != nil {
		s.cache.Set(ctx, userID, groups)
	}
	return groups, nil
}

// GetCollection returns the collection and a page of its posts, most recently
// filed first. Posts the viewer may not see are left out.
func (s *CollectionService) GetCollection(ctx context.Context, groupID, viewerID string, limit, offset int) (*CollectionView, error) {
	group, err := s.memberGroup(ctx, groupID, viewerID)
	if err != nil {
		return nil, err
	}
	posts, err := s.repos.Archive.ListGroupPosts(ctx, groupID, ClampLimit(limit), clampOffset(offset))
	if err != nil {
		return nil, translate(err, "list collection posts", logger.WithGroupID(groupID))
	}
	visible, err := s.filterVisible(ctx, posts, viewerID)
	if err != nil {
		return nil, translate(err, "filter collection posts", logger.WithGroupID(groupID))
	}
	if err := s.hydrate(ctx, visible, viewerID); err != nil {
		return nil, translate(err, "load collection posts", logger.WithGroupID(groupID))
	}
	return &CollectionView{Group: group, Posts: visible}, nil
}

// memberGroup loads the group, reporting it as not found to non-members.
func (s *CollectionService) memberGroup(ctx context.Context, groupID, userID string) (*models.ArchiveGroup, error) {
	group, err := s.repos.Archive.GetGroup(ctx, groupID)
	if err != nil {
		return nil, translate(err, "get collection", logger.WithGroupID(groupID))
	}
	if !group.HasMember(userID) {
		return nil, apperrors.NotFound("collection")
	}
	return group, nil
}

func (s *CollectionService) checkPostVisible(ctx context.Context, postID, viewerID string) error {
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

func (s *CollectionService) postGroups(ctx context.Context, postID string) ([]string, error) {
	states, err := s.repos.Archive.GetArchiveState(ctx, []string{postID})
	if err != nil {
		return nil, translate(err, "load archive state", logger.WithPostID(postID))
	}
	if st, ok := states[postID]; ok {
		return st.Groups, nil
	}
	return nil, nil
}

// invalidateGroups drops the cached lists of every member of the groups.
func (s *CollectionService) invalidateGroups(ctx context.Context, groupIDs ...string) {
	if s.cache == nil {
		return
	}
	seen := make(map[string]bool, len(groupIDs))
	var users []string
	for _, groupID := range groupIDs {
		if seen[groupID] {
			continue
		}
		seen[groupID] = true
		members, err := s.repos.Archive.GetMemberIDs(ctx, groupID)
		if err != nil {
			logger.WarnWithFields("Failed to load members for cache invalidation", err, logger.WithGroupID(groupID))
			continue
		}
		users = append(users, members...)
	}
	s.cache.Invalidate(ctx, users...)
}

func (s *CollectionService) invalidateUsers(ctx context.Context, userIDs ...string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, userIDs...)
	}
}

func (s *CollectionService) notifyChanged(postID string) {
	if s.observer != nil {
		s.observer.PostChanged(postID)
	}
}

func validateCollectionName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.ValidationError("name", "name is required")
	}
	if utf8.RuneCountInString(name) > MaxCollectionNameLength {
		return "", apperrors.ValidationError("name", "name must be at most 60 characters")
	}
	return name, nil
}

// validateCollectionEmoji defaults an empty emoji. Multi-codepoint emoji
// (flags, ZWJ sequences) fit in the column's 16 characters.
func validateCollectionEmoji(emoji string) (string, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return models.DefaultCollectionEmoji, nil
	}
	if utf8.RuneCountInString(emoji) > maxCollectionEmojiLength {
		return "", apperrors.ValidationError("emoji", "emoji is too long")
	}
	return emoji, nil
}

func validateCollectionDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > maxCollectionDescriptionLength {
		return "", apperrors.ValidationError("description", "description is too long")
	}
	return description, nil
}
