package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/types"
)

type RootCampaignRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, root *types.RootCampaign) (*types.RootCampaign, error)
	GetByProjectAndCampaign(ctx context.Context, tx *gorm.DB, projectID, campaignID uuid.UUID) (*types.RootCampaign, error)
	ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.RootCampaign, error)
	ListConfirmedByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.RootCampaign, error)
	Delete(ctx context.Context, tx *gorm.DB, projectID, campaignID uuid.UUID) error
	DeleteByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error
}

type rootCampaignRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRootCampaignRepo(db *gorm.DB, baseLog *logger.Logger) RootCampaignRepo {
	return &rootCampaignRepo{db: db, log: baseLog.With("repo", "RootCampaignRepo")}
}

func (r *rootCampaignRepo) Upsert(ctx context.Context, tx *gorm.DB, root *types.RootCampaign) (*types.RootCampaign, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if root.ID == uuid.Nil {
		root.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}, {Name: "campaign_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"confirmed",
			"candidate_reason",
			"updated_at",
		}),
	}).Create(root).Error; err != nil {
		return nil, err
	}
	return root, nil
}

func (r *rootCampaignRepo) GetByProjectAndCampaign(ctx context.Context, tx *gorm.DB, projectID, campaignID uuid.UUID) (*types.RootCampaign, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.RootCampaign
	if err := transaction.WithContext(ctx).
		Where("project_id = ? AND campaign_id = ?", projectID, campaignID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *rootCampaignRepo) ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.RootCampaign, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.RootCampaign
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

func (r *rootCampaignRepo) ListConfirmedByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.RootCampaign, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.RootCampaign
	if projectID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("project_id = ? AND confirmed = ?", projectID, true).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *rootCampaignRepo) Delete(ctx context.Context, tx *gorm.DB, projectID, campaignID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("project_id = ? AND campaign_id = ?", projectID, campaignID).
		Delete(&types.RootCampaign{}).Error
}

func (r *rootCampaignRepo) DeleteByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		Delete(&types.RootCampaign{}).Error
}
