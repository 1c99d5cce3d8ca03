package repository

import (
	"context"
	"time"

	"github.com/zfogg/snapshelf/backend/internal/models"
	"gorm.io/gorm"
)

// EventRepository reads and acknowledges the notification-trigger logs.
type EventRepository interface {
	CreateReport(ctx context.Context, report *models.Report) error
	PendingLikeEvents(ctx context.Context, limit int) ([]*models.LikeEvent, error)
	PendingCommentEvents(ctx context.Context, limit int) ([]*models.CommentEvent, error)
	PendingReports(ctx context.Context, limit int) ([]*models.Report, error)
	MarkLikeEventsDelivered(ctx context.Context, ids []string) error
	MarkCommentEventsDelivered(ctx context.Context, ids []string) error
	MarkReportsDelivered(ctx context.Context, ids []string) error
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) CreateReport(ctx context.Context, report *models.Report) error {
	if report == nil || report.PostID == "" || report.ReporterID == "" {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *eventRepository) PendingLikeEvents(ctx context.Context, limit int) ([]*models.LikeEvent, error) {
	events := []*models.LikeEvent{}
	err := r.pending(ctx, limit).Find(&events).Error
	return events, err
}

func (r *eventRepository) PendingCommentEvents(ctx context.Context, limit int) ([]*models.CommentEvent, error) {
	events := []*models.CommentEvent{}
	err := r.pending(ctx, limit).Find(&events).Error
	return events, err
}

func (r *eventRepository) PendingReports(ctx context.Context, limit int) ([]*models.Report, error) {
	reports := []*models.Report{}
	err := r.pending(ctx, limit).Find(&reports).Error
	return reports, err
}

func (r *eventRepository) MarkLikeEventsDelivered(ctx context.Context, ids []string) error {
	return r.markDelivered(ctx, &models.LikeEvent{}, ids)
}

func (r *eventRepository) MarkCommentEventsDelivered(ctx context.Context, ids []string) error {
	return r.markDelivered(ctx, &models.CommentEvent{}, ids)
}

func (r *eventRepository) MarkReportsDelivered(ctx context.Context, ids []string) error {
	return r.markDelivered(ctx, &models.Report{}, ids)
}

func (r *eventRepository) pending(ctx context.Context, limit int) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("delivered_at IS NULL").
		Order("created_at ASC").
		Limit(limit)
}

func (r *eventRepository) markDelivered(ctx context.Context, model interface{}, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(model).
		Where("id IN ?", ids).
		Update("delivered_at", time.Now().UTC()).Error
}
