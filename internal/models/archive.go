package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	DefaultArchiveGroupName  = "Saved"
	DefaultArchiveGroupEmoji = "📌"
	DefaultCollectionEmoji   = "📁"
)

// ArchiveGroup is a collection of posts. There is exactly one row per
// collection; members are a separate relation.
type ArchiveGroup struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedBy   string    `gorm:"size:36;not null;index;uniqueIndex:idx_archive_groups_default,where:is_default" json:"created_by"`
	Name        string    `gorm:"size:60;not null" json:"name"`
	Emoji       string    `gorm:"size:16" json:"emoji"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	IsShared    bool      `gorm:"not null;default:false" json:"is_shared"`
	IsDefault   bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Members   []string `gorm:"-" json:"members"`
	PostCount int64    `gorm:"-" json:"post_count"`
}

func (ArchiveGroup) TableName() string { return "archive_groups" }

func (g *ArchiveGroup) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = generateUUID()
	}
	return nil
}

// HasMember reports whether userID is in the loaded member list.
func (g *ArchiveGroup) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// ArchiveGroupMember is the membership relation. The creator always has a row.
type ArchiveGroupMember struct {
	GroupID   string    `gorm:"primaryKey;size:36" json:"group_id"`
	UserID    string    `gorm:"primaryKey;size:36;index" json:"user_id"`
	AddedBy   string    `gorm:"size:36" json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (ArchiveGroupMember) TableName() string { return "archive_group_members" }

// ArchiveEntry files a post into a group. AddedBy is the member who saved it.
type ArchiveEntry struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	GroupID   string    `gorm:"size:36;not null;uniqueIndex:idx_archive_entries_group_post" json:"group_id"`
	PostID    string    `gorm:"size:36;not null;uniqueIndex:idx_archive_entries_group_post;index" json:"post_id"`
	AddedBy   string    `gorm:"size:36;not null;index" json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (ArchiveEntry) TableName() string { return "archive_entries" }

func (e *ArchiveEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = generateUUID()
	}
	return nil
}
