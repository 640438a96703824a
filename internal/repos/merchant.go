package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/types"
)

type MerchantRepo interface {
	Create(ctx context.Context, tx *gorm.DB, merchant *types.Merchant) (*types.Merchant, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Merchant, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Merchant, error)
	Update(ctx context.Context, tx *gorm.DB, merchant *types.Merchant) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type merchantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMerchantRepo(db *gorm.DB, baseLog *logger.Logger) MerchantRepo {
	return &merchantRepo{db: db, log: baseLog.With("repo", "MerchantRepo")}
}

func (r *merchantRepo) Create(ctx context.Context, tx *gorm.DB, merchant *types.Merchant) (*types.Merchant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if merchant.ID == uuid.Nil {
		merchant.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(merchant).Error; err != nil {
		return nil, err
	}
	return merchant, nil
}

func (r *merchantRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Merchant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Merchant
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *merchantRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Merchant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Merchant
	if err := transaction.WithContext(ctx).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *merchantRepo) Update(ctx context.Context, tx *gorm.DB, merchant *types.Merchant) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Save(merchant).Error
}

func (r *merchantRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Merchant{}).Error
}
