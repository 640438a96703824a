package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/types"
)

// TouchQuery narrows a touch-store scan. SourceIDs is the project's data
// source filter and always applies; CampaignIDs and After are optional.
type TouchQuery struct {
	SourceIDs   []string
	CampaignIDs []uuid.UUID
	After       *time.Time
}

type TouchRepo interface {
	Insert(ctx context.Context, tx *gorm.DB, touches []*types.Touch) ([]*types.Touch, error)
	// Query returns matching touches ordered by received_at ascending.
	Query(ctx context.Context, tx *gorm.DB, q TouchQuery) ([]*types.Touch, error)
}

type touchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTouchRepo(db *gorm.DB, baseLog *logger.Logger) TouchRepo {
	return &touchRepo{db: db, log: baseLog.With("repo", "TouchRepo")}
}

func (r *touchRepo) Insert(ctx context.Context, tx *gorm.DB, touches []*types.Touch) ([]*types.Touch, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(touches) == 0 {
		return []*types.Touch{}, nil
	}
	for _, t := range touches {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
	}
	if err := transaction.WithContext(ctx).Create(&touches).Error; err != nil {
		return nil, err
	}
	return touches, nil
}

func (r *touchRepo) Query(ctx context.Context, tx *gorm.DB, q TouchQuery) ([]*types.Touch, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Touch
	if len(q.SourceIDs) == 0 {
		return results, nil
	}

	query := transaction.WithContext(ctx).
		Where("source_id IN ?", q.SourceIDs)
	if len(q.CampaignIDs) > 0 {
		query = query.Where("campaign_id IN ?", q.CampaignIDs)
	}
	if q.After != nil {
		query = query.Where("received_at > ?", *q.After)
	}

	if err := query.Order("received_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
