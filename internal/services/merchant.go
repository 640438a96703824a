package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/repos"
	"github.com/mailpath/mailpath-backend/internal/types"
)

type MerchantService interface {
	Create(ctx context.Context, name string) (*types.Merchant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Merchant, error)
	List(ctx context.Context) ([]*types.Merchant, error)
	Rename(ctx context.Context, id uuid.UUID, name string) (*types.Merchant, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type merchantService struct {
	db        *gorm.DB
	log       *logger.Logger
	merchants repos.MerchantRepo
}

func NewMerchantService(db *gorm.DB, baseLog *logger.Logger, merchants repos.MerchantRepo) MerchantService {
	return &merchantService{
		db:        db,
		log:       baseLog.With("service", "MerchantService"),
		merchants: merchants,
	}
}

func (s *merchantService) Create(ctx context.Context, name string) (*types.Merchant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, types.InvalidInputError("merchant: name is required")
	}
	merchant, err := s.merchants.Create(ctx, nil, &types.Merchant{Name: name})
	if err != nil {
		return nil, types.MapError(err)
	}
	s.log.Info("merchant created", "merchant_id", merchant.ID)
	return merchant, nil
}

func (s *merchantService) GetByID(ctx context.Context, id uuid.UUID) (*types.Merchant, error) {
	merchant, err := s.merchants.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFoundError("merchant does not exist")
		}
		return nil, err
	}
	return merchant, nil
}

func (s *merchantService) List(ctx context.Context) ([]*types.Merchant, error) {
	return s.merchants.List(ctx, nil)
}

func (s *merchantService) Rename(ctx context.Context, id uuid.UUID, name string) (*types.Merchant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, types.InvalidInputError("merchant: name is required")
	}
	merchant, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	merchant.Name = name
	if err := s.merchants.Update(ctx, nil, merchant); err != nil {
		return nil, types.MapError(err)
	}
	return merchant, nil
}

func (s *merchantService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.merchants.Delete(ctx, nil, id)
}
