package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/repos"
	"github.com/mailpath/mailpath-backend/internal/types"
)

type AttributionStats struct {
	TotalAttributed int64 `json:"total_attributed"`
	TotalEvents     int64 `json:"total_events"`
}

// AttributionService records which root campaign first qualified each
// subscriber. Attribution is write-once: later root touches never re-anchor.
type AttributionService interface {
	Attribute(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, subscriberID string, rootCampaignID uuid.UUID) error
	ListAttributions(ctx context.Context, projectID uuid.UUID) ([]*types.PathAttribution, error)
	Stats(ctx context.Context, projectID uuid.UUID) (*AttributionStats, error)
}

type attributionService struct {
	db           *gorm.DB
	log          *logger.Logger
	attributions repos.PathAttributionRepo
	events       repos.PathEventRepo
}

func NewAttributionService(db *gorm.DB, baseLog *logger.Logger, attributions repos.PathAttributionRepo, events repos.PathEventRepo) AttributionService {
	return &attributionService{
		db:           db,
		log:          baseLog.With("service", "AttributionService"),
		attributions: attributions,
		events:       events,
	}
}

func (s *attributionService) Attribute(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, subscriberID string, rootCampaignID uuid.UUID) error {
	if projectID == uuid.Nil || rootCampaignID == uuid.Nil || subscriberID == "" {
		return types.InvalidInputError("attribute: project, subscriber and root campaign are required")
	}
	return s.attributions.CreateIfAbsent(ctx, tx, &types.PathAttribution{
		ProjectID:      projectID,
		SubscriberID:   subscriberID,
		RootCampaignID: rootCampaignID,
	})
}

func (s *attributionService) ListAttributions(ctx context.Context, projectID uuid.UUID) ([]*types.PathAttribution, error) {
	return s.attributions.ListByProject(ctx, nil, projectID)
}

func (s *attributionService) Stats(ctx context.Context, projectID uuid.UUID) (*AttributionStats, error) {
	attributed, err := s.attributions.CountByProject(ctx, nil, projectID)
	if err != nil {
		return nil, err
	}
	events, err := s.events.CountByProject(ctx, nil, projectID)
	if err != nil {
		return nil, err
	}
	return &AttributionStats{TotalAttributed: attributed, TotalEvents: events}, nil
}
