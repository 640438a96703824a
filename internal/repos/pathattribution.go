package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/types"
)

type PathAttributionRepo interface {
	// CreateIfAbsent inserts the attribution unless one already exists for
	// (project, subscriber). The first attribution wins; re-submission is a no-op.
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, att *types.PathAttribution) error
	GetBySubscriber(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, subscriberID string) (*types.PathAttribution, error)
	ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.PathAttribution, error)
	CountByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (int64, error)
	DeleteByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error
}

type pathAttributionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPathAttributionRepo(db *gorm.DB, baseLog *logger.Logger) PathAttributionRepo {
	return &pathAttributionRepo{db: db, log: baseLog.With("repo", "PathAttributionRepo")}
}

func (r *pathAttributionRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, att *types.PathAttribution) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if att.ID == uuid.Nil {
		att.ID = uuid.New()
	}
	return transaction.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "subscriber_id"}},
		DoNothing: true,
	}).Create(att).Error
}

func (r *pathAttributionRepo) GetBySubscriber(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, subscriberID string) (*types.PathAttribution, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.PathAttribution
	if err := transaction.WithContext(ctx).
		Where("project_id = ? AND subscriber_id = ?", projectID, subscriberID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *pathAttributionRepo) ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.PathAttribution, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.PathAttribution
	if projectID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *pathAttributionRepo) CountByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.PathAttribution{}).
		Where("project_id = ?", projectID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *pathAttributionRepo) DeleteByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		Delete(&types.PathAttribution{}).Error
}
