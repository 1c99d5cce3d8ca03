package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the locally-owned part of an account. Credentials live in the
// external auth service; the ID matches the JWT subject it issues.
type User struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Username    string     `gorm:"uniqueIndex;size:64;not null" json:"username"`
	DisplayName string     `gorm:"size:128;not null" json:"display_name"`
	AvatarURL   string     `gorm:"type:text" json:"avatar_url,omitempty"`
	Bio         string     `gorm:"type:text" json:"bio,omitempty"`
	Visibility  Visibility `gorm:"size:16;not null;default:public" json:"visibility"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	if u.Visibility == "" {
		u.Visibility = VisibilityPublic
	}
	return nil
}

// Profile is a user as seen by another user.
type Profile struct {
	User
	PostCount    int64  `json:"post_count"`
	FriendCount  int64  `json:"friend_count"`
	FriendStatus string `json:"friend_status"` // self, friends, request_sent, request_received, none
	IsBlocked    bool   `json:"is_blocked"`
	IsMuted      bool   `json:"is_muted"`
}
