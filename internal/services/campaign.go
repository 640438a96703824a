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

type CreateCampaignInput struct {
	MerchantID uuid.UUID `json:"merchant_id"`
	Name       string    `json:"name"`
	Subject    string    `json:"subject"`
	ValueTag   int       `json:"value_tag"`
}

type UpdateCampaignInput struct {
	Name     *string `json:"name,omitempty"`
	Subject  *string `json:"subject,omitempty"`
	ValueTag *int    `json:"value_tag,omitempty"`
}

type CampaignService interface {
	Create(ctx context.Context, input CreateCampaignInput) (*types.Campaign, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Campaign, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]*types.Campaign, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateCampaignInput) (*types.Campaign, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type campaignService struct {
	db        *gorm.DB
	log       *logger.Logger
	merchants repos.MerchantRepo
	campaigns repos.CampaignRepo
}

func NewCampaignService(db *gorm.DB, baseLog *logger.Logger, merchants repos.MerchantRepo, campaigns repos.CampaignRepo) CampaignService {
	return &campaignService{
		db:        db,
		log:       baseLog.With("service", "CampaignService"),
		merchants: merchants,
		campaigns: campaigns,
	}
}

func (s *campaignService) Create(ctx context.Context, input CreateCampaignInput) (*types.Campaign, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.MerchantID == uuid.Nil || input.Name == "" {
		return nil, types.InvalidInputError("campaign: merchantID and name are required")
	}
	if input.ValueTag < types.TagNone || input.ValueTag > types.TagExcluded {
		return nil, types.InvalidInputError("campaign: value tag must be between 0 and 4")
	}
	if _, err := s.merchants.GetByID(ctx, nil, input.MerchantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFoundError("campaign: merchant does not exist")
		}
		return nil, err
	}
	campaign, err := s.campaigns.Create(ctx, nil, &types.Campaign{
		MerchantID: input.MerchantID,
		Name:       input.Name,
		Subject:    input.Subject,
		ValueTag:   input.ValueTag,
	})
	if err != nil {
		return nil, types.MapError(err)
	}
	s.log.Info("campaign created", "campaign_id", campaign.ID, "merchant_id", campaign.MerchantID)
	return campaign, nil
}

func (s *campaignService) GetByID(ctx context.Context, id uuid.UUID) (*types.Campaign, error) {
	campaign, err := s.campaigns.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFoundError("campaign does not exist")
		}
		return nil, err
	}
	return campaign, nil
}

func (s *campaignService) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]*types.Campaign, error) {
	return s.campaigns.ListByMerchant(ctx, nil, merchantID)
}

func (s *campaignService) Update(ctx context.Context, id uuid.UUID, input UpdateCampaignInput) (*types.Campaign, error) {
	campaign, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, types.InvalidInputError("campaign: name cannot be empty")
		}
		campaign.Name = name
	}
	if input.Subject != nil {
		campaign.Subject = *input.Subject
	}
	if input.ValueTag != nil {
		if *input.ValueTag < types.TagNone || *input.ValueTag > types.TagExcluded {
			return nil, types.InvalidInputError("campaign: value tag must be between 0 and 4")
		}
		campaign.ValueTag = *input.ValueTag
	}
	if err := s.campaigns.Update(ctx, nil, campaign); err != nil {
		return nil, types.MapError(err)
	}
	return campaign, nil
}

func (s *campaignService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.campaigns.Delete(ctx, nil, id)
}
