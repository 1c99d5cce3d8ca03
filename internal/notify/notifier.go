// Package notify delivers notification-trigger log rows to a feed service.
package notify

import (
	"context"
	"time"
)

// Notification kinds
const (
	KindLike    = "like"
	KindComment = "comment"
	KindReport  = "report"
)

// ModerationRecipient is the feed that receives post reports.
const ModerationRecipient = "moderation"

// Notification is one delivered event.
type Notification struct {
	// ID is the log row ID; delivery is idempotent on it.
	ID          string
	Kind        string
	RecipientID string
	ActorID     string
	PostID      string
	Text        string
	CreatedAt   time.Time
}

// Notifier pushes a notification to its recipient.
type Notifier interface {
	Notify(ctx context.Context, n *Notification) error
}
