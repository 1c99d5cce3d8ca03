package models

import (
	"time"

	"gorm.io/gorm"
)

// Friendship is stored once per direction so "friends of X" is a single indexed lookup.
type Friendship struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_friendships_pair" json:"user_id"`
	FriendID  string    `gorm:"size:36;not null;uniqueIndex:idx_friendships_pair;index" json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Friendship) TableName() string { return "friendships" }

func (f *Friendship) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}

// FriendRequestStatus is the lifecycle of a friend request.
type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestDeclined FriendRequestStatus = "declined"
)

type FriendRequest struct {
	ID         string              `gorm:"primaryKey;size:36" json:"id"`
	SenderID   string              `gorm:"size:36;not null;index" json:"sender_id"`
	ReceiverID string              `gorm:"size:36;not null;index" json:"receiver_id"`
	Status     FriendRequestStatus `gorm:"size:16;not null;default:pending" json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`

	Sender   *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver *User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}

func (FriendRequest) TableName() string { return "friend_requests" }

func (r *FriendRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}

type UserBlock struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	BlockerID string    `gorm:"size:36;not null;uniqueIndex:idx_user_blocks_pair" json:"blocker_id"`
	BlockedID string    `gorm:"size:36;not null;uniqueIndex:idx_user_blocks_pair;index" json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserBlock) TableName() string { return "user_blocks" }

func (b *UserBlock) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = generateUUID()
	}
	return nil
}

type UserMute struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	MuterID   string    `gorm:"size:36;not null;uniqueIndex:idx_user_mutes_pair" json:"muter_id"`
	MutedID   string    `gorm:"size:36;not null;uniqueIndex:idx_user_mutes_pair" json:"muted_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserMute) TableName() string { return "user_mutes" }

func (m *UserMute) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}
