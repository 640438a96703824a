package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/types"
)

type PathEventRepo interface {
	GetByKey(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, subscriberID string, campaignID uuid.UUID) (*types.PathEvent, error)
	// CountAtOrBefore counts the subscriber's events with received_at <= t.
	// One past it is the insertion position for a new event at t; ties sort
	// before the newcomer, which keeps insertion order stable.
	CountAtOrBefore(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, subscriberID string, t time.Time) (int64, error)
	// ShiftSeqAfter moves every event with received_at > t one position down
	// the sequence, opening a slot for an out-of-order insert.
	ShiftSeqAfter(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, subscriberID string, t time.Time) error
	Insert(ctx context.Context, tx *gorm.DB, event *types.PathEvent) (*types.PathEvent, error)
	ListBySubscriber(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, subscriberID string) ([]*types.PathEvent, error)
	ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.PathEvent, error)
	DistinctSubscribers(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]string, error)
	// SeqOneTimes returns each attributed subscriber's anchor time, keyed by
	// subscriber id: the received_at of their sequence-position-1 event.
	SeqOneTimes(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (map[string]time.Time, error)
	UpdateSeq(ctx context.Context, tx *gorm.DB, id uuid.UUID, seq int) error
	CountByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (int64, error)
	DeleteByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error
}

type pathEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPathEventRepo(db *gorm.DB, baseLog *logger.Logger) PathEventRepo {
	return &pathEventRepo{db: db, log: baseLog.With("repo", "PathEventRepo")}
}

func (r *pathEventRepo) GetByKey(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, subscriberID string, campaignID uuid.UUID) (*types.PathEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.PathEvent
	if err := transaction.WithContext(ctx).
		Where("project_id = ? AND subscriber_id = ? AND campaign_id = ?", projectID, subscriberID, campaignID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *pathEventRepo) CountAtOrBefore(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, subscriberID string, t time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.PathEvent{}).
		Where("project_id = ? AND subscriber_id = ? AND received_at <= ?", projectID, subscriberID, t).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *pathEventRepo) ShiftSeqAfter(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, subscriberID string, t time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.PathEvent{}).
		Where("project_id = ? AND subscriber_id = ? AND received_at > ?", projectID, subscriberID, t).
		Update("seq", gorm.Expr("seq + 1")).Error
}

func (r *pathEventRepo) Insert(ctx context.Context, tx *gorm.DB, event *types.PathEvent) (*types.PathEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

func (r *pathEventRepo) ListBySubscriber(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, subscriberID string) ([]*types.PathEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.PathEvent
	if err := transaction.WithContext(ctx).
		Where("project_id = ? AND subscriber_id = ?", projectID, subscriberID).
		Order("seq ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *pathEventRepo) ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.PathEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.PathEvent
	if projectID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("subscriber_id ASC, seq ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *pathEventRepo) DistinctSubscribers(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []string
	if err := transaction.WithContext(ctx).
		Model(&types.PathEvent{}).
		Where("project_id = ?", projectID).
		Distinct("subscriber_id").
		Order("subscriber_id ASC").
		Pluck("subscriber_id", &results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *pathEventRepo) SeqOneTimes(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (map[string]time.Time, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rows []*types.PathEvent
	if err := transaction.WithContext(ctx).
		Where("project_id = ? AND seq = ?", projectID, 1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		out[row.SubscriberID] = row.ReceivedAt
	}
	return out, nil
}

func (r *pathEventRepo) UpdateSeq(ctx context.Context, tx *gorm.DB, id uuid.UUID, seq int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.PathEvent{}).
		Where("id = ?", id).
		Update("seq", seq).Error
}

func (r *pathEventRepo) CountByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.PathEvent{}).
		Where("project_id = ?", projectID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *pathEventRepo) DeleteByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		Delete(&types.PathEvent{}).Error
}
