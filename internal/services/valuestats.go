package services

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/repos"
	"github.com/mailpath/mailpath-backend/internal/types"
)

type ValueStats struct {
	TotalAttributed int64   `json:"total_attributed"`
	ValuableReach   int64   `json:"valuable_reach"`
	ValuableRatePct float64 `json:"valuable_rate_pct"`
	// ValuableCampaigns counts campaigns whose effective tag is valuable or
	// high-value; HighValueCampaigns counts the high-value subset. Demoting
	// tags (ignored, excluded) count in neither.
	ValuableCampaigns  int `json:"valuable_campaigns"`
	HighValueCampaigns int `json:"high_value_campaigns"`
	ProjectOverrides   int `json:"project_overrides"`
}

// ValueStatsService reports how much of a project's attributed audience
// reached value-tagged campaigns. Tags resolve per project: an explicit
// project override wins, otherwise the campaign's merchant-level default
// applies.
type ValueStatsService interface {
	ComputeStats(ctx context.Context, projectID uuid.UUID) (*ValueStats, error)
	// SetTag stores a project-level override for one campaign.
	SetTag(ctx context.Context, projectID, campaignID uuid.UUID, tag int) (*types.ProjectCampaignTag, error)
	RemoveTag(ctx context.Context, projectID, campaignID uuid.UUID) error
	ListTags(ctx context.Context, projectID uuid.UUID) ([]*types.ProjectCampaignTag, error)
}

type valueStatsService struct {
	db           *gorm.DB
	log          *logger.Logger
	projects     repos.ProjectRepo
	campaigns    repos.CampaignRepo
	tags         repos.ProjectCampaignTagRepo
	attributions repos.PathAttributionRepo
	events       repos.PathEventRepo
}

func NewValueStatsService(
	db *gorm.DB,
	baseLog *logger.Logger,
	projects repos.ProjectRepo,
	campaigns repos.CampaignRepo,
	tags repos.ProjectCampaignTagRepo,
	attributions repos.PathAttributionRepo,
	events repos.PathEventRepo,
) ValueStatsService {
	return &valueStatsService{
		db:           db,
		log:          baseLog.With("service", "ValueStatsService"),
		projects:     projects,
		campaigns:    campaigns,
		tags:         tags,
		attributions: attributions,
		events:       events,
	}
}

func (s *valueStatsService) ComputeStats(ctx context.Context, projectID uuid.UUID) (*ValueStats, error) {
	if projectID == uuid.Nil {
		return nil, types.InvalidInputError("value stats: projectID is required")
	}

	attributed, err := s.attributions.ListByProject(ctx, nil, projectID)
	if err != nil {
		return nil, err
	}
	stats := &ValueStats{TotalAttributed: int64(len(attributed))}
	attributedSet := make(map[string]struct{}, len(attributed))
	for _, att := range attributed {
		attributedSet[att.SubscriberID] = struct{}{}
	}

	events, err := s.events.ListByProject(ctx, nil, projectID)
	if err != nil {
		return nil, err
	}

	tagByCampaign, overrides, err := s.resolveTags(ctx, projectID, events)
	if err != nil {
		return nil, err
	}
	stats.ProjectOverrides = overrides
	for _, tag := range tagByCampaign {
		switch tag {
		case types.TagValuable:
			stats.ValuableCampaigns++
		case types.TagHighValue:
			stats.ValuableCampaigns++
			stats.HighValueCampaigns++
		}
	}
	if stats.TotalAttributed == 0 {
		return stats, nil
	}

	reached := map[string]struct{}{}
	for _, event := range events {
		if _, ok := attributedSet[event.SubscriberID]; !ok {
			continue
		}
		tag := tagByCampaign[event.CampaignID]
		if tag == types.TagValuable || tag == types.TagHighValue {
			reached[event.SubscriberID] = struct{}{}
		}
	}
	stats.ValuableReach = int64(len(reached))
	stats.ValuableRatePct = math.Round(float64(stats.ValuableReach)/float64(stats.TotalAttributed)*100*100) / 100
	return stats, nil
}

// resolveTags maps every campaign appearing in events to its effective tag.
func (s *valueStatsService) resolveTags(ctx context.Context, projectID uuid.UUID, events []*types.PathEvent) (map[uuid.UUID]int, int, error) {
	tagByCampaign := map[uuid.UUID]int{}

	overrides, err := s.tags.ListByProject(ctx, nil, projectID)
	if err != nil {
		return nil, 0, err
	}
	overridden := make(map[uuid.UUID]struct{}, len(overrides))
	for _, override := range overrides {
		tagByCampaign[override.CampaignID] = override.Tag
		overridden[override.CampaignID] = struct{}{}
	}

	var missing []uuid.UUID
	seen := map[uuid.UUID]struct{}{}
	for _, event := range events {
		if _, ok := seen[event.CampaignID]; ok {
			continue
		}
		seen[event.CampaignID] = struct{}{}
		if _, ok := overridden[event.CampaignID]; !ok {
			missing = append(missing, event.CampaignID)
		}
	}
	if len(missing) > 0 {
		campaigns, err := s.campaigns.GetByIDs(ctx, nil, missing)
		if err != nil {
			return nil, 0, err
		}
		for _, campaign := range campaigns {
			tagByCampaign[campaign.ID] = campaign.ValueTag
		}
	}
	return tagByCampaign, len(overrides), nil
}

func (s *valueStatsService) SetTag(ctx context.Context, projectID, campaignID uuid.UUID, tag int) (*types.ProjectCampaignTag, error) {
	if projectID == uuid.Nil || campaignID == uuid.Nil {
		return nil, types.InvalidInputError("set tag: projectID and campaignID are required")
	}
	if tag < types.TagNone || tag > types.TagExcluded {
		return nil, types.InvalidInputError("set tag: tag must be between 0 and 4")
	}
	if _, err := s.projects.GetByID(ctx, nil, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFoundError("set tag: project does not exist")
		}
		return nil, err
	}
	if _, err := s.campaigns.GetByID(ctx, nil, campaignID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFoundError("set tag: campaign does not exist")
		}
		return nil, err
	}
	return s.tags.Upsert(ctx, nil, &types.ProjectCampaignTag{
		ProjectID:  projectID,
		CampaignID: campaignID,
		Tag:        tag,
	})
}

func (s *valueStatsService) RemoveTag(ctx context.Context, projectID, campaignID uuid.UUID) error {
	if projectID == uuid.Nil || campaignID == uuid.Nil {
		return types.InvalidInputError("remove tag: projectID and campaignID are required")
	}
	return s.tags.Delete(ctx, nil, projectID, campaignID)
}

func (s *valueStatsService) ListTags(ctx context.Context, projectID uuid.UUID) ([]*types.ProjectCampaignTag, error) {
	return s.tags.ListByProject(ctx, nil, projectID)
}
