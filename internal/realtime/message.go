package realtime

import (
	"time"

	"github.com/zfogg/snapshelf/backend/internal/models"
)

// Message types sent to and received from subscribers
const (
	MessageTypeSnapshot    = "snapshot"
	MessageTypePostDeleted = "post_deleted"
	MessageTypeError       = "error"
	MessageTypeSystem      = "system"

	// Client to server
	MessageTypePing    = "ping"
	MessageTypePong    = "pong"
	MessageTypeRefresh = "refresh"
)

// Message is the envelope for every frame on a post subscription.
type Message struct {
	Type      string       `json:"type"`
	PostID    string       `json:"post_id,omitempty"`
	Post      *models.Post `json:"post,omitempty"`
	Code      string       `json:"code,omitempty"`
	Message   string       `json:"message,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewSnapshotMessage wraps the current state of a post.
func NewSnapshotMessage(post *models.Post) *Message {
	return &Message{
		Type:      MessageTypeSnapshot,
		PostID:    post.ID,
		Post:      post,
		Timestamp: time.Now().UTC(),
	}
}

// NewPostDeletedMessage tells a subscriber the post is gone, or no longer
// visible to them.
func NewPostDeletedMessage(postID string) *Message {
	return &Message{
		Type:      MessageTypePostDeleted,
		PostID:    postID,
		Timestamp: time.Now().UTC(),
	}
}

// NewErrorMessage creates an error message
func NewErrorMessage(code, message string) *Message {
	return &Message{
		Type:      MessageTypeError,
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}
