package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/zfogg/snapshelf/backend/internal/models"
	"github.com/zfogg/snapshelf/backend/internal/repository"
	"github.com/zfogg/snapshelf/backend/internal/testutil"
	"gorm.io/gorm"
)

type fakeNotifier struct {
	mu        sync.Mutex
	sent      []*Notification
	failFor   map[string]bool // recipient IDs
	failCount int
}

func (f *fakeNotifier) Notify(ctx context.Context, n *Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[n.RecipientID] {
		f.failCount++
		return errors.New("feed unavailable")
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	kinds := make([]string, 0, len(f.sent))
	for _, n := range f.sent {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

type DispatcherTestSuite struct {
	suite.Suite
	db       *gorm.DB
	notifier *fakeNotifier
	dispatch *Dispatcher
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherTestSuite))
}

func (s *DispatcherTestSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.notifier = &fakeNotifier{failFor: map[string]bool{}}
	s.dispatch = NewDispatcher(repository.NewEventRepository(s.db), s.notifier, time.Hour)
}

func (s *DispatcherTestSuite) seed() {
	s.Require().NoError(s.db.Create(&models.LikeEvent{PostID: "p1", PostOwnerID: "owner", UserID: "alice"}).Error)
	s.Require().NoError(s.db.Create(&models.CommentEvent{PostID: "p1", PostOwnerID: "owner", CommentID: "c1", UserID: "bob", Text: "nice"}).Error)
	s.Require().NoError(s.db.Create(&models.Report{PostID: "p1", PostOwnerID: "owner", ReporterID: "carol", Reason: models.ReportReasonSpam}).Error)
}

func (s *DispatcherTestSuite) pendingCount(model interface{}) int64 {
	var count int64
	s.Require().NoError(s.db.Model(model).Where("delivered_at IS NULL").Count(&count).Error)
	return count
}

func (s *DispatcherTestSuite) TestRunOnceDeliversAndMarks() {
	s.seed()

	result, err := s.dispatch.RunOnce(context.Background())
	s.Require().NoError(err)
	s.Equal(3, result.Delivered)
	s.Equal(0, result.Failed)
	s.Equal([]string{KindLike, KindComment, KindReport}, s.notifier.kinds())

	s.Equal(int64(0), s.pendingCount(&models.LikeEvent{}))
	s.Equal(int64(0), s.pendingCount(&models.CommentEvent{}))
	s.Equal(int64(0), s.pendingCount(&models.Report{}))

	// Nothing left on the next pass
	result, err = s.dispatch.RunOnce(context.Background())
	s.Require().NoError(err)
	s.Equal(0, result.Delivered)
}

func (s *DispatcherTestSuite) TestNotificationFields() {
	s.seed()
	_, err := s.dispatch.RunOnce(context.Background())
	s.Require().NoError(err)

	s.Require().Len(s.notifier.sent, 3)
	like, comment, report := s.notifier.sent[0], s.notifier.sent[1], s.notifier.sent[2]

	s.Equal("owner", like.RecipientID)
	s.Equal("alice", like.ActorID)
	s.Equal("p1", like.PostID)

	s.Equal("bob", comment.ActorID)
	s.Equal("nice", comment.Text)

	s.Equal(ModerationRecipient, report.RecipientID)
	s.Equal("carol", report.ActorID)
	s.Equal(string(models.ReportReasonSpam), report.Text)
}

func (s *DispatcherTestSuite) TestFailedDeliveryStaysPending() {
	s.seed()
	s.notifier.failFor["owner"] = true

	result, err := s.dispatch.RunOnce(context.Background())
	s.Require().NoError(err)
	s.Equal(1, result.Delivered) // the report goes to moderation
	s.Equal(2, result.Failed)
	s.Equal(int64(1), s.pendingCount(&models.LikeEvent{}))
	s.Equal(int64(1), s.pendingCount(&models.CommentEvent{}))

	s.notifier.failFor["owner"] = false
	result, err = s.dispatch.RunOnce(context.Background())
	s.Require().NoError(err)
	s.Equal(2, result.Delivered)
	s.Equal(int64(0), s.pendingCount(&models.LikeEvent{}))
}

func (s *DispatcherTestSuite) TestStartStop() {
	s.seed()
	s.dispatch.Start()
	s.Eventually(func() bool {
		return len(s.notifier.kinds()) == 3
	}, 2*time.Second, 10*time.Millisecond)
	s.dispatch.Stop()
}

func TestBuildActivity(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	activity := BuildActivity(&Notification{
		ID: "e1", Kind: KindComment, ActorID: "bob", PostID: "p1", Text: "nice", CreatedAt: created,
	})

	assert.Equal(t, "user:bob", activity.Actor)
	assert.Equal(t, KindComment, activity.Verb)
	assert.Equal(t, "post:p1", activity.Object)
	assert.Equal(t, "comment:e1", activity.ForeignID)
	assert.True(t, created.Equal(activity.Time.Time))
	assert.Equal(t, "nice", activity.Extra["text"])

	like := BuildActivity(&Notification{ID: "e2", Kind: KindLike, ActorID: "a", PostID: "p"})
	_, hasText := like.Extra["text"]
	assert.False(t, hasText)
}

func TestNewStreamNotifierRequiresCredentials(t *testing.T) {
	_, err := NewStreamNotifier("", "")
	assert.Error(t, err)
}
