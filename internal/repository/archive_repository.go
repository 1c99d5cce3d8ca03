package repository

import (
	"context"
	"errors"

	"github.com/zfogg/snapshelf/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ArchiveState is the derived archive view of one post.
type ArchiveState struct {
	// Groups holds every collection the post is filed in.
	Groups []string
	// ArchivedBy holds users who filed the post into a collection they still belong to.
	ArchivedBy []string
}

// GroupDeletion describes what a DeleteGroup call removed.
type GroupDeletion struct {
	Group     *models.ArchiveGroup
	MemberIDs []string
	PostIDs   []string
}

// ArchiveRepository owns collections, their membership and the posts filed in
// them. Every multi-row change runs in a single transaction.
type ArchiveRepository interface {
	CreateGroup(ctx context.Context, group *models.ArchiveGroup, memberIDs []string) error
	GetGroup(ctx context.Context, groupID string) (*models.ArchiveGroup, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.ArchiveGroup, error)
	UpdateGroup(ctx context.Context, groupID string, updates map[string]interface{}) error
	DeleteGroup(ctx context.Context, groupID string) (*GroupDeletion, error)
	GetOrCreateDefaultGroup(ctx context.Context, userID string) (*models.ArchiveGroup, error)

	GetMemberIDs(ctx context.Context, groupID string) ([]string, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	AddMember(ctx context.Context, groupID, userID, addedBy string) (bool, error)
	RemoveMember(ctx context.Context, groupID, userID string) ([]string, error)

	AddEntry(ctx context.Context, groupID, postID, addedBy string) (bool, error)
	RemoveEntry(ctx context.Context, groupID, postID string) (bool, error)
	HasArchived(ctx context.Context, userID, postID string) (bool, error)
	RemoveUserEntries(ctx context.Context, userID, postID string) (int64, error)
	SetPostGroups(ctx context.Context, userID, postID string, groupIDs []string) ([]string, error)

	GetArchiveState(ctx context.Context, postIDs []string) (map[string]*ArchiveState, error)
	ListGroupPosts(ctx context.Context, groupID string, limit, offset int) ([]*models.Post, error)
}

type archiveRepository struct {
	db *gorm.DB
}

// NewArchiveRepository creates a new archive repository
func NewArchiveRepository(db *gorm.DB) ArchiveRepository {
	return &archiveRepository{db: db}
}

// CreateGroup inserts the group and one membership row per member. The
// creator is always made a member, first.
func (r *archiveRepository) CreateGroup(ctx context.Context, group *models.ArchiveGroup, memberIDs []string) error {
	if group == nil || group.CreatedBy == "" || group.Name == "" {
		return ErrInvalidInput
	}

	members := uniqueIDs(append([]string{group.CreatedBy}, memberIDs...))

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		rows := make([]models.ArchiveGroupMember, 0, len(members))
		for _, userID := range members {
			rows = append(rows, models.ArchiveGroupMember{
				GroupID: group.ID,
				UserID:  userID,
				AddedBy: group.CreatedBy,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		group.Members = members
		group.PostCount = 0
		return nil
	})
}

func (r *archiveRepository) GetGroup(ctx context.Context, groupID string) (*models.ArchiveGroup, error) {
	var group models.ArchiveGroup
	db := r.db.WithContext(ctx)
	if err := db.Where("id = ?", groupID).First(&group).Error; err != nil {
		return nil, notFound(err, ErrGroupNotFound)
	}
	if err := hydrateGroups(db, []*models.ArchiveGroup{&group}); err != nil {
		return nil, err
	}
	return &group, nil
}

// ListGroupsForUser returns every group userID belongs to, newest first.
func (r *archiveRepository) ListGroupsForUser(ctx context.Context, userID string) ([]*models.ArchiveGroup, error) {
	db := r.db.WithContext(ctx)
	groups := []*models.ArchiveGroup{}
	err := db.
		Select("archive_groups.*").
		Joins("JOIN archive_group_members ON archive_group_members.group_id = archive_groups.id").
		Where("archive_group_members.user_id = ?", userID).
		Order("archive_groups.created_at DESC").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	if err := hydrateGroups(db, groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *archiveRepository) UpdateGroup(ctx context.Context, groupID string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return ErrInvalidInput
	}
	result := r.db.WithContext(ctx).Model(&models.ArchiveGroup{}).Where("id = ?", groupID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// DeleteGroup removes the group, its memberships and its entries, so no post
// keeps the group id and no member keeps the group in their list.
func (r *archiveRepository) DeleteGroup(ctx context.Context, groupID string) (*GroupDeletion, error) {
	deletion := &GroupDeletion{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.ArchiveGroup
		if err := tx.Where("id = ?", groupID).First(&group).Error; err != nil {
			return notFound(err, ErrGroupNotFound)
		}
		deletion.Group = &group

		if err := tx.Model(&models.ArchiveGroupMember{}).
			Where("group_id = ?", groupID).
			Pluck("user_id", &deletion.MemberIDs).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ArchiveEntry{}).
			Where("group_id = ?", groupID).
			Distinct().
			Pluck("post_id", &deletion.PostIDs).Error; err != nil {
			return err
		}

		if err := tx.Where("group_id = ?", groupID).Delete(&models.ArchiveEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", groupID).Delete(&models.ArchiveGroupMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&group).Error
	})
	if err != nil {
		return nil, err
	}
	return deletion, nil
}

// GetOrCreateDefaultGroup returns userID's default "Saved" collection, creating it on first use.
func (r *archiveRepository) GetOrCreateDefaultGroup(ctx context.Context, userID string) (*models.ArchiveGroup, error) {
	var group models.ArchiveGroup
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("created_by = ? AND is_default = ?", userID, true).First(&group).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		group = models.ArchiveGroup{
			CreatedBy: userID,
			Name:      models.DefaultArchiveGroupName,
			Emoji:     models.DefaultArchiveGroupEmoji,
			IsDefault: true,
		}
		// idx_archive_groups_default allows one default per user; a
		// concurrent first save loses here and reads the winner's row.
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&group)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			group = models.ArchiveGroup{}
			return tx.Where("created_by = ? AND is_default = ?", userID, true).First(&group).Error
		}
		return tx.Create(&models.ArchiveGroupMember{GroupID: group.ID, UserID: userID, AddedBy: userID}).Error
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *archiveRepository) GetMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	members, err := loadMembers(r.db.WithContext(ctx), []string{groupID})
	if err != nil {
		return nil, err
	}
	return members[groupID], nil
}

func (r *archiveRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ArchiveGroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

// AddMember adds userID to the group and marks the group shared. It reports
// false when userID was already a member.
func (r *archiveRepository) AddMember(ctx context.Context, groupID, userID, addedBy string) (bool, error) {
	added := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.ArchiveGroup
		if err := tx.Where("id = ?", groupID).First(&group).Error; err != nil {
			return notFound(err, ErrGroupNotFound)
		}

		result := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.ArchiveGroupMember{GroupID: groupID, UserID: userID, AddedBy: addedBy})
		if result.Error != nil {
			return result.Error
		}
		added = result.RowsAffected > 0
		if !added || group.IsShared {
			return nil
		}
		return tx.Model(&group).Update("is_shared", true).Error
	})
	return added, err
}

// RemoveMember drops userID's membership. Entries they added stay in the
// group. A group left with a single member stops being shared.
func (r *archiveRepository) RemoveMember(ctx context.Context, groupID, userID string) ([]string, error) {
	postIDs := []string{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&models.ArchiveGroupMember{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotGroupMember
		}

		if err := tx.Model(&models.ArchiveEntry{}).
			Where("group_id = ? AND added_by = ?", groupID, userID).
			Pluck("post_id", &postIDs).Error; err != nil {
			return err
		}

		var remaining int64
		if err := tx.Model(&models.ArchiveGroupMember{}).Where("group_id = ?", groupID).Count(&remaining).Error; err != nil {
			return err
		}
		if remaining > 1 {
			return nil
		}
		return tx.Model(&models.ArchiveGroup{}).Where("id = ?", groupID).Update("is_shared", false).Error
	})
	if err != nil {
		return nil, err
	}
	return postIDs, nil
}

// AddEntry files postID into the group. It reports false if it was already there.
func (r *archiveRepository) AddEntry(ctx context.Context, groupID, postID, addedBy string) (bool, error) {
	added := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrPostNotFound
		}
		if err := tx.Model(&models.ArchiveGroup{}).Where("id = ?", groupID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrGroupNotFound
		}

		result := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.ArchiveEntry{GroupID: groupID, PostID: postID, AddedBy: addedBy})
		if result.Error != nil {
			return result.Error
		}
		added = result.RowsAffected > 0
		return nil
	})
	return added, err
}

func (r *archiveRepository) RemoveEntry(ctx context.Context, groupID, postID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("group_id = ? AND post_id = ?", groupID, postID).
		Delete(&models.ArchiveEntry{})
	return result.RowsAffected > 0, result.Error
}

// HasArchived reports whether userID filed postID into a group they still belong to.
func (r *archiveRepository) HasArchived(ctx context.Context, userID, postID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("archive_entries AS e").
		Joins("JOIN archive_group_members AS m ON m.group_id = e.group_id AND m.user_id = e.added_by").
		Where("e.post_id = ? AND e.added_by = ?", postID, userID).
		Count(&count).Error
	return count > 0, err
}

// RemoveUserEntries removes every entry userID added for postID in groups
// they belong to, and returns how many were removed.
func (r *archiveRepository) RemoveUserEntries(ctx context.Context, userID, postID string) (int64, error) {
	db := r.db.WithContext(ctx)
	memberGroups := db.Model(&models.ArchiveGroupMember{}).Select("group_id").Where("user_id = ?", userID)
	result := db.
		Where("post_id = ? AND added_by = ? AND group_id IN (?)", postID, userID, memberGroups).
		Delete(&models.ArchiveEntry{})
	return result.RowsAffected, result.Error
}

// SetPostGroups makes the post's membership across the groups userID belongs
// to equal groupIDs. Groups userID is not a member of are left alone. It
// returns every group the post is in afterwards.
func (r *archiveRepository) SetPostGroups(ctx context.Context, userID, postID string, groupIDs []string) ([]string, error) {
	chosen := uniqueIDs(groupIDs)
	var result []string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var postCount int64
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&postCount).Error; err != nil {
			return err
		}
		if postCount == 0 {
			return ErrPostNotFound
		}

		var memberGroupIDs []string
		if err := tx.Model(&models.ArchiveGroupMember{}).
			Where("user_id = ?", userID).
			Pluck("group_id", &memberGroupIDs).Error; err != nil {
			return err
		}
		memberSet := toSet(memberGroupIDs)
		chosenSet := toSet(chosen)
		for _, id := range chosen {
			if !memberSet[id] {
				return ErrGroupNotFound
			}
		}

		var current []string
		if len(memberGroupIDs) > 0 {
			if err := tx.Model(&models.ArchiveEntry{}).
				Where("post_id = ? AND group_id IN ?", postID, memberGroupIDs).
				Pluck("group_id", &current).Error; err != nil {
				return err
			}
		}
		currentSet := toSet(current)

		var toRemove []string
		for _, id := range current {
			if !chosenSet[id] {
				toRemove = append(toRemove, id)
			}
		}
		if len(toRemove) > 0 {
			if err := tx.Where("post_id = ? AND group_id IN ?", postID, toRemove).
				Delete(&models.ArchiveEntry{}).Error; err != nil {
				return err
			}
		}

		var toAdd []models.ArchiveEntry
		for _, id := range chosen {
			if !currentSet[id] {
				toAdd = append(toAdd, models.ArchiveEntry{GroupID: id, PostID: postID, AddedBy: userID})
			}
		}
		if len(toAdd) > 0 {
			if err := tx.Create(&toAdd).Error; err != nil {
				return err
			}
		}

		var entries []models.ArchiveEntry
		if err := tx.Where("post_id = ?", postID).Order("created_at ASC").Find(&entries).Error; err != nil {
			return err
		}
		result = make([]string, 0, len(entries))
		for _, e := range entries {
			result = append(result, e.GroupID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetArchiveState derives archiveGroups and archivedBy for each post.
func (r *archiveRepository) GetArchiveState(ctx context.Context, postIDs []string) (map[string]*ArchiveState, error) {
	states := make(map[string]*ArchiveState, len(postIDs))
	for _, id := range postIDs {
		states[id] = &ArchiveState{Groups: []string{}, ArchivedBy: []string{}}
	}
	if len(postIDs) == 0 {
		return states, nil
	}
	db := r.db.WithContext(ctx)

	var entries []models.ArchiveEntry
	if err := db.Where("post_id IN ?", postIDs).Order("created_at ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	for _, e := range entries {
		if st, ok := states[e.PostID]; ok {
			st.Groups = append(st.Groups, e.GroupID)
		}
	}

	var savers []struct {
		PostID  string
		AddedBy string
	}
	err := db.Table("archive_entries AS e").
		Select("e.post_id, e.added_by").
		Joins("JOIN archive_group_members AS m ON m.group_id = e.group_id AND m.user_id = e.added_by").
		Where("e.post_id IN ?", postIDs).
		Order("e.created_at ASC").
		Scan(&savers).Error
	if err != nil {
		return nil, err
	}
	for _, s := range savers {
		st, ok := states[s.PostID]
		if !ok || containsID(st.ArchivedBy, s.AddedBy) {
			continue
		}
		st.ArchivedBy = append(st.ArchivedBy, s.AddedBy)
	}
	return states, nil
}

// ListGroupPosts returns the posts filed in the group, most recently filed first.
func (r *archiveRepository) ListGroupPosts(ctx context.Context, groupID string, limit, offset int) ([]*models.Post, error) {
	posts := []*models.Post{}
	err := r.db.WithContext(ctx).
		Select("posts.*").
		Preload("User").
		Joins("JOIN archive_entries ON archive_entries.post_id = posts.id").
		Where("archive_entries.group_id = ?", groupID).
		Order("archive_entries.created_at DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	return posts, err
}

// hydrateGroups fills Members and PostCount.
func hydrateGroups(db *gorm.DB, groups []*models.ArchiveGroup) error {
	if len(groups) == 0 {
		return nil
	}
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}

	members, err := loadMembers(db, ids)
	if err != nil {
		return err
	}

	var counts []struct {
		GroupID string
		Total   int64
	}
	err = db.Model(&models.ArchiveEntry{}).
		Select("group_id, COUNT(*) AS total").
		Where("group_id IN ?", ids).
		Group("group_id").
		Scan(&counts).Error
	if err != nil {
		return err
	}
	countByGroup := make(map[string]int64, len(counts))
	for _, c := range counts {
		countByGroup[c.GroupID] = c.Total
	}

	for _, g := range groups {
		g.Members = orderMembers(g.CreatedBy, members[g.ID])
		g.PostCount = countByGroup[g.ID]
	}
	return nil
}

func loadMembers(db *gorm.DB, groupIDs []string) (map[string][]string, error) {
	var rows []models.ArchiveGroupMember
	err := db.Where("group_id IN ?", groupIDs).
		Order("created_at ASC").
		Order("user_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	members := make(map[string][]string, len(groupIDs))
	for _, row := range rows {
		members[row.GroupID] = append(members[row.GroupID], row.UserID)
	}
	return members, nil
}

// orderMembers puts the creator first and keeps the rest in join order.
func orderMembers(creatorID string, members []string) []string {
	ordered := make([]string, 0, len(members))
	for _, id := range members {
		if id == creatorID {
			ordered = append(ordered, id)
		}
	}
	for _, id := range members {
		if id != creatorID {
			ordered = append(ordered, id)
		}
	}
	return ordered
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
