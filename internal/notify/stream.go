package notify

import (
	"context"
	"fmt"

	stream "github.com/GetStream/stream-go2/v8"
)

// Feed group configured in the GetStream dashboard
const FeedGroupNotification = "notification"

// StreamNotifier writes notifications into GetStream notification feeds.
type StreamNotifier struct {
	client *stream.Client
}

// NewStreamNotifier creates a GetStream-backed notifier
func NewStreamNotifier(apiKey, apiSecret string) (*StreamNotifier, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("STREAM_API_KEY and STREAM_API_SECRET must be set")
	}
	client, err := stream.New(apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create Stream client: %w", err)
	}
	return &StreamNotifier{client: client}, nil
}

// Notify adds an activity to the recipient's notification feed. The
// foreign ID makes a retried delivery replace rather than duplicate.
func (s *StreamNotifier) Notify(ctx context.Context, n *Notification) error {
	feed, err := s.client.NotificationFeed(FeedGroupNotification, n.RecipientID)
	if err != nil {
		return fmt.Errorf("failed to get notification feed: %w", err)
	}

	_, err = feed.AddActivity(ctx, BuildActivity(n))
	if err != nil {
		return fmt.Errorf("failed to add %s activity: %w", n.Kind, err)
	}
	return nil
}

// BuildActivity maps a notification onto a feed activity.
func BuildActivity(n *Notification) stream.Activity {
	activity := stream.Activity{
		Actor:     "user:" + n.ActorID,
		Verb:      n.Kind,
		Object:    "post:" + n.PostID,
		ForeignID: n.Kind + ":" + n.ID,
		Time:      stream.Time{Time: n.CreatedAt.UTC()},
		Extra: map[string]any{
			"post_id": n.PostID,
		},
	}
	if n.Text != "" {
		activity.Extra["text"] = n.Text
	}
	return activity
}
