package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/repos"
	"github.com/mailpath/mailpath-backend/internal/types"
)

// RootCampaignService manages which campaigns may anchor subscriber paths in
// a project. Several confirmed roots can coexist; each one independently
// anchors whichever subscribers touch it first.
type RootCampaignService interface {
	SetRoot(ctx context.Context, projectID, campaignID uuid.UUID, confirmed bool, candidateReason string) (*types.RootCampaign, error)
	RemoveRoot(ctx context.Context, projectID, campaignID uuid.UUID) error
	ListRoots(ctx context.Context, projectID uuid.UUID) ([]*types.RootCampaign, error)
}

type rootCampaignService struct {
	db        *gorm.DB
	log       *logger.Logger
	roots     repos.RootCampaignRepo
	projects  repos.ProjectRepo
	campaigns repos.CampaignRepo
}

func NewRootCampaignService(db *gorm.DB, baseLog *logger.Logger, roots repos.RootCampaignRepo, projects repos.ProjectRepo, campaigns repos.CampaignRepo) RootCampaignService {
	return &rootCampaignService{
		db:        db,
		log:       baseLog.With("service", "RootCampaignService"),
		roots:     roots,
		projects:  projects,
		campaigns: campaigns,
	}
}

func (s *rootCampaignService) SetRoot(ctx context.Context, projectID, campaignID uuid.UUID, confirmed bool, candidateReason string) (*types.RootCampaign, error) {
	if _, err := s.projects.GetByID(ctx, nil, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFoundError("set root: project does not exist")
		}
		return nil, err
	}
	if _, err := s.campaigns.GetByID(ctx, nil, campaignID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFoundError("set root: campaign does not exist")
		}
		return nil, err
	}

	root, err := s.roots.Upsert(ctx, nil, &types.RootCampaign{
		ProjectID:       projectID,
		CampaignID:      campaignID,
		Confirmed:       confirmed,
		CandidateReason: candidateReason,
	})
	if err != nil {
		return nil, types.MapError(err)
	}
	s.log.Info("root campaign set", "project_id", projectID, "campaign_id", campaignID, "confirmed", confirmed)
	return root, nil
}

func (s *rootCampaignService) RemoveRoot(ctx context.Context, projectID, campaignID uuid.UUID) error {
	if err := s.roots.Delete(ctx, nil, projectID, campaignID); err != nil {
		return types.MapError(err)
	}
	s.log.Info("root campaign removed", "project_id", projectID, "campaign_id", campaignID)
	return nil
}

func (s *rootCampaignService) ListRoots(ctx context.Context, projectID uuid.UUID) ([]*types.RootCampaign, error) {
	return s.roots.ListByProject(ctx, nil, projectID)
}
