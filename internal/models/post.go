package models

import (
	"time"

	"gorm.io/gorm"
)

// Location is either free text (Name only) or a structured place.
type Location struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// Post is a shared photo. LikedBy, ArchivedBy, ArchiveGroups and Comments are
// assembled from their own tables on read and never stored on the row.
type Post struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	UserID       string     `gorm:"size:36;not null;index" json:"user_id"`
	ImageURL     string     `gorm:"type:text;not null" json:"image_url"`
	ImageKey     string     `gorm:"type:text" json:"-"`
	Description  string     `gorm:"type:text" json:"description"`
	Tags         []string   `gorm:"type:text;serializer:json" json:"tags"`
	Location     *Location  `gorm:"type:text;serializer:json" json:"location,omitempty"`
	Visibility   Visibility `gorm:"size:16;not null;default:public" json:"visibility"`
	LikeCount    int        `gorm:"not null;default:0" json:"like_count"`
	CommentCount int        `gorm:"not null;default:0" json:"comment_count"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	LikedBy       []string   `gorm:"-" json:"liked_by"`
	ArchivedBy    []string   `gorm:"-" json:"archived_by"`
	ArchiveGroups []string   `gorm:"-" json:"archive_groups"`
	Comments      []*Comment `gorm:"-" json:"comments"`
	IsLiked       bool       `gorm:"-" json:"is_liked"`
	IsArchived    bool       `gorm:"-" json:"is_archived"`
}

func (Post) TableName() string { return "posts" }

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	if p.Visibility == "" {
		p.Visibility = VisibilityPublic
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return nil
}

// PostLike records one user's like. Ordering by CreatedAt gives like order.
type PostLike struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"size:36;not null;uniqueIndex:idx_post_likes_post_user" json:"post_id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_post_likes_post_user;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (PostLike) TableName() string { return "post_likes" }

func (l *PostLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return nil
}

// Comment on a post. Replies point at a top-level comment through ParentID;
// nesting never goes deeper than one level.
type Comment struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	PostID            string    `gorm:"size:36;not null;index" json:"post_id"`
	UserID            string    `gorm:"size:36;not null;index" json:"user_id"`
	AuthorUsername    string    `gorm:"size:64" json:"author_username"`
	AuthorDisplayName string    `gorm:"size:128" json:"author_display_name"`
	AuthorAvatarURL   string    `gorm:"type:text" json:"author_avatar_url,omitempty"`
	ParentID          *string   `gorm:"size:36;index" json:"parent_id,omitempty"`
	Text              string    `gorm:"type:text;not null" json:"text"`
	CreatedAt         time.Time `json:"created_at"`

	Replies []*Comment `gorm:"-" json:"replies,omitempty"`
}

func (Comment) TableName() string { return "comments" }

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}
