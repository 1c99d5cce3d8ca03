package notify

import (
	"context"
	"sync"
	"time"

	"github.com/zfogg/snapshelf/backend/internal/logger"
	"github.com/zfogg/snapshelf/backend/internal/metrics"
	"github.com/zfogg/snapshelf/backend/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultBatchSize = 100
	dispatchTimeout  = 30 * time.Second
)

// Result counts one dispatch pass.
type Result struct {
	Delivered int
	Failed    int
}

// Dispatcher periodically pushes undelivered log rows to a Notifier and
// marks the ones that went through. Failed rows stay pending for the next tick.
type Dispatcher struct {
	events    repository.EventRepository
	notifier  Notifier
	interval  time.Duration
	batchSize int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher that polls every interval
func NewDispatcher(events repository.EventRepository, notifier Notifier, interval time.Duration) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		events:    events,
		notifier:  notifier,
		interval:  interval,
		batchSize: defaultBatchSize,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins periodic dispatching
func (d *Dispatcher) Start() {
	logger.Log.Info("Starting notification dispatcher", zap.Duration("interval", d.interval))
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dispatcher and waits for an in-flight pass
func (d *Dispatcher) Stop() {
	logger.Log.Info("Stopping notification dispatcher")
	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	d.tick()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.tick()
		case <-d.ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) tick() {
	ctx, cancel := context.WithTimeout(d.ctx, dispatchTimeout)
	defer cancel()

	result, err := d.RunOnce(ctx)
	if err != nil {
		logger.ErrorWithFields("Notification dispatch failed", err)
		return
	}
	if result.Delivered > 0 || result.Failed > 0 {
		logger.InfoWithFields("Notification dispatch completed",
			zap.Int("delivered", result.Delivered),
			zap.Int("failed", result.Failed),
		)
	}
}

// RunOnce delivers one batch of each log kind.
func (d *Dispatcher) RunOnce(ctx context.Context) (Result, error) {
	var result Result

	likes, err := d.events.PendingLikeEvents(ctx, d.batchSize)
	if err != nil {
		return result, err
	}
	notes := make([]*Notification, 0, len(likes))
	for _, e := range likes {
		notes = append(notes, &Notification{
			ID: e.ID, Kind: KindLike, RecipientID: e.PostOwnerID,
			ActorID: e.UserID, PostID: e.PostID, CreatedAt: e.CreatedAt,
		})
	}
	if err := d.deliver(ctx, notes, d.events.MarkLikeEventsDelivered, &result); err != nil {
		return result, err
	}

	comments, err := d.events.PendingCommentEvents(ctx, d.batchSize)
	if err != nil {
		return result, err
	}
	notes = make([]*Notification, 0, len(comments))
	for _, e := range comments {
		notes = append(notes, &Notification{
			ID: e.ID, Kind: KindComment, RecipientID: e.PostOwnerID,
			ActorID: e.UserID, PostID: e.PostID, Text: e.Text, CreatedAt: e.CreatedAt,
		})
	}
	if err := d.deliver(ctx, notes, d.events.MarkCommentEventsDelivered, &result); err != nil {
		return result, err
	}

	reports, err := d.events.PendingReports(ctx, d.batchSize)
	if err != nil {
		return result, err
	}
	notes = make([]*Notification, 0, len(reports))
	for _, r := range reports {
		notes = append(notes, &Notification{
			ID: r.ID, Kind: KindReport, RecipientID: ModerationRecipient,
			ActorID: r.ReporterID, PostID: r.PostID,
			Text: string(r.Reason), CreatedAt: r.CreatedAt,
		})
	}
	if err := d.deliver(ctx, notes, d.events.MarkReportsDelivered, &result); err != nil {
		return result, err
	}

	return result, nil
}

func (d *Dispatcher) deliver(ctx context.Context, notes []*Notification, markDelivered func(context.Context, []string) error, result *Result) error {
	delivered := make([]string, 0, len(notes))
	for _, n := range notes {
		err := d.notifier.Notify(ctx, n)
		metrics.RecordNotification(n.Kind, err)
		if err != nil {
			result.Failed++
			logger.WarnWithFields("Failed to deliver notification", err,
				zap.String("kind", n.Kind),
				zap.String("event_id", n.ID),
				logger.WithUserID(n.RecipientID),
			)
			continue
		}
		delivered = append(delivered, n.ID)
	}

	if err := markDelivered(ctx, delivered); err != nil {
		return err
	}
	result.Delivered += len(delivered)
	return nil
}
