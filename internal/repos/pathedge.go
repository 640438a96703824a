package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/types"
)

type PathEdgeRepo interface {
	// ReplaceForProject swaps the project's whole edge set. The caller supplies
	// the transaction, so readers never see a partially rebuilt graph.
	ReplaceForProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, edges []*types.PathEdge) error
	ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.PathEdge, error)
	DeleteByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error
}

type pathEdgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPathEdgeRepo(db *gorm.DB, baseLog *logger.Logger) PathEdgeRepo {
	return &pathEdgeRepo{db: db, log: baseLog.With("repo", "PathEdgeRepo")}
}

func (r *pathEdgeRepo) ReplaceForProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, edges []*types.PathEdge) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		Delete(&types.PathEdge{}).Error; err != nil {
		return err
	}
	if len(edges) == 0 {
		return nil
	}
	for _, edge := range edges {
		if edge.ID == uuid.Nil {
			edge.ID = uuid.New()
		}
	}
	return transaction.WithContext(ctx).Create(&edges).Error
}

func (r *pathEdgeRepo) ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.PathEdge, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.PathEdge
	if projectID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("user_count DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *pathEdgeRepo) DeleteByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		Delete(&types.PathEdge{}).Error
}
