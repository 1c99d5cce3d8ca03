package models

import (
	"time"

	"gorm.io/gorm"
)

// LikeEvent, CommentEvent and Report are notification-trigger logs. They are
// written in the same transaction as the change they describe and delivered
// later; DeliveredAt is nil until the dispatcher has pushed them.

type LikeEvent struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	PostID      string     `gorm:"size:36;not null;index" json:"post_id"`
	PostOwnerID string     `gorm:"size:36;not null" json:"post_owner_id"`
	UserID      string     `gorm:"size:36;not null" json:"user_id"`
	CreatedAt   time.Time  `json:"created_at"`
	DeliveredAt *time.Time `gorm:"index" json:"delivered_at,omitempty"`
}

func (LikeEvent) TableName() string { return "like_events" }

func (e *LikeEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = generateUUID()
	}
	return nil
}

type CommentEvent struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	PostID      string     `gorm:"size:36;not null;index" json:"post_id"`
	PostOwnerID string     `gorm:"size:36;not null" json:"post_owner_id"`
	CommentID   string     `gorm:"size:36;not null" json:"comment_id"`
	UserID      string     `gorm:"size:36;not null" json:"user_id"`
	Text        string     `gorm:"type:text" json:"text"`
	CreatedAt   time.Time  `json:"created_at"`
	DeliveredAt *time.Time `gorm:"index" json:"delivered_at,omitempty"`
}

func (CommentEvent) TableName() string { return "comment_events" }

func (e *CommentEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = generateUUID()
	}
	return nil
}

// ReportReason categorises a report.
type ReportReason string

const (
	ReportReasonSpam          ReportReason = "spam"
	ReportReasonHarassment    ReportReason = "harassment"
	ReportReasonInappropriate ReportReason = "inappropriate"
	ReportReasonViolence      ReportReason = "violence"
	ReportReasonOther         ReportReason = "other"
)

// Valid reports whether r is a known reason.
func (r ReportReason) Valid() bool {
	switch r {
	case ReportReasonSpam, ReportReasonHarassment, ReportReasonInappropriate, ReportReasonViolence, ReportReasonOther:
		return true
	}
	return false
}

type Report struct {
	ID          string       `gorm:"primaryKey;size:36" json:"id"`
	ReporterID  string       `gorm:"size:36;not null;index" json:"reporter_id"`
	PostID      string       `gorm:"size:36;not null;index" json:"post_id"`
	PostOwnerID string       `gorm:"size:36;not null" json:"post_owner_id"`
	Reason      ReportReason `gorm:"size:32;not null" json:"reason"`
	Description string       `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	DeliveredAt *time.Time   `gorm:"index" json:"delivered_at,omitempty"`
}

func (Report) TableName() string { return "reports" }

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}
