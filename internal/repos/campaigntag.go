package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/types"
)

type ProjectCampaignTagRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, tag *types.ProjectCampaignTag) (*types.ProjectCampaignTag, error)
	ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.ProjectCampaignTag, error)
	Delete(ctx context.Context, tx *gorm.DB, projectID, campaignID uuid.UUID) error
	DeleteByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error
}

type projectCampaignTagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectCampaignTagRepo(db *gorm.DB, baseLog *logger.Logger) ProjectCampaignTagRepo {
	return &projectCampaignTagRepo{db: db, log: baseLog.With("repo", "ProjectCampaignTagRepo")}
}

func (r *projectCampaignTagRepo) Upsert(ctx context.Context, tx *gorm.DB, tag *types.ProjectCampaignTag) (*types.ProjectCampaignTag, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if tag.ID == uuid.Nil {
		tag.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}, {Name: "campaign_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"tag",
			"updated_at",
		}),
	}).Create(tag).Error; err != nil {
		return nil, err
	}
	return tag, nil
}

func (r *projectCampaignTagRepo) ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.ProjectCampaignTag, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ProjectCampaignTag
	if projectID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *projectCampaignTagRepo) Delete(ctx context.Context, tx *gorm.DB, projectID, campaignID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("project_id = ? AND campaign_id = ?", projectID, campaignID).
		Delete(&types.ProjectCampaignTag{}).Error
}

func (r *projectCampaignTagRepo) DeleteByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		Delete(&types.ProjectCampaignTag{}).Error
}
