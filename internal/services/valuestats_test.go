package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mailpath/mailpath-backend/internal/repos"
	"github.com/mailpath/mailpath-backend/internal/repos/testutil"
	"github.com/mailpath/mailpath-backend/internal/types"
)

type valueStatsEnv struct {
	db           *gorm.DB
	service      ValueStatsService
	sequencer    SequencerService
	attributions repos.PathAttributionRepo
}

func newValueStatsEnvForTest(t *testing.T) *valueStatsEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	projects := repos.NewProjectRepo(db, log)
	campaigns := repos.NewCampaignRepo(db, log)
	tags := repos.NewProjectCampaignTagRepo(db, log)
	attributions := repos.NewPathAttributionRepo(db, log)
	events := repos.NewPathEventRepo(db, log)
	return &valueStatsEnv{
		db:           db,
		service:      NewValueStatsService(db, log, projects, campaigns, tags, attributions, events),
		sequencer:    NewSequencerService(db, log, events),
		attributions: attributions,
	}
}

func (e *valueStatsEnv) attribute(t *testing.T, projectID uuid.UUID, subscriberID string, rootCampaignID uuid.UUID) {
	t.Helper()
	err := e.attributions.CreateIfAbsent(context.Background(), nil, &types.PathAttribution{
		ID:             uuid.New(),
		ProjectID:      projectID,
		SubscriberID:   subscriberID,
		RootCampaignID: rootCampaignID,
	})
	if err != nil {
		t.Fatalf("attribute: %v", err)
	}
}

func TestComputeStatsUsesMerchantDefaultsAndOverrides(t *testing.T) {
	env := newValueStatsEnvForTest(t)
	ctx := context.Background()
	db := env.db

	merchant := testutil.SeedMerchant(t, db, "acme")
	root := testutil.SeedCampaign(t, db, merchant.ID, "welcome", types.TagNone)
	valuable := testutil.SeedCampaign(t, db, merchant.ID, "upsell", types.TagValuable)
	project := testutil.SeedProject(t, db, merchant.ID, "paths")

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	// sub-1 reaches the merchant-default valuable campaign, sub-2 does not
	for _, sub := range []string{"sub-1", "sub-2"} {
		env.attribute(t, project.ID, sub, root.ID)
		if _, _, err := env.sequencer.RecordTouch(ctx, nil, project.ID, sub, root.ID, base); err != nil {
			t.Fatalf("RecordTouch: %v", err)
		}
	}
	if _, _, err := env.sequencer.RecordTouch(ctx, nil, project.ID, "sub-1", valuable.ID, base.Add(time.Hour)); err != nil {
		t.Fatalf("RecordTouch: %v", err)
	}

	stats, err := env.service.ComputeStats(ctx, project.ID)
	if err != nil {
		t.Fatalf("ComputeStats: %v", err)
	}
	if stats.TotalAttributed != 2 || stats.ValuableReach != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.ValuableRatePct != 50.0 {
		t.Fatalf("expected 50.0 rate, got %v", stats.ValuableRatePct)
	}
	if stats.ValuableCampaigns != 1 || stats.HighValueCampaigns != 0 {
		t.Fatalf("expected 1 valuable / 0 high-value campaigns, got %+v", stats)
	}

	// a project override on the root campaign pulls sub-2 into the reach
	if _, err := env.service.SetTag(ctx, project.ID, root.ID, types.TagHighValue); err != nil {
		t.Fatalf("SetTag: %v", err)
	}
	stats, err = env.service.ComputeStats(ctx, project.ID)
	if err != nil {
		t.Fatalf("ComputeStats after override: %v", err)
	}
	if stats.ValuableReach != 2 || stats.ValuableRatePct != 100.0 {
		t.Fatalf("expected full reach after override, got %+v", stats)
	}
	if stats.ValuableCampaigns != 2 || stats.HighValueCampaigns != 1 || stats.ProjectOverrides != 1 {
		t.Fatalf("expected 2 valuable / 1 high-value campaigns with 1 override, got %+v", stats)
	}
}

func TestComputeStatsOverrideCanDemoteCampaign(t *testing.T) {
	env := newValueStatsEnvForTest(t)
	ctx := context.Background()
	db := env.db

	merchant := testutil.SeedMerchant(t, db, "acme")
	root := testutil.SeedCampaign(t, db, merchant.ID, "welcome", types.TagNone)
	valuable := testutil.SeedCampaign(t, db, merchant.ID, "upsell", types.TagValuable)
	project := testutil.SeedProject(t, db, merchant.ID, "paths")

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	env.attribute(t, project.ID, "sub-1", root.ID)
	if _, _, err := env.sequencer.RecordTouch(ctx, nil, project.ID, "sub-1", root.ID, base); err != nil {
		t.Fatalf("RecordTouch: %v", err)
	}
	if _, _, err := env.sequencer.RecordTouch(ctx, nil, project.ID, "sub-1", valuable.ID, base.Add(time.Hour)); err != nil {
		t.Fatalf("RecordTouch: %v", err)
	}

	// project override marks the merchant-valuable campaign ignored here
	if _, err := env.service.SetTag(ctx, project.ID, valuable.ID, types.TagIgnored); err != nil {
		t.Fatalf("SetTag: %v", err)
	}

	stats, err := env.service.ComputeStats(ctx, project.ID)
	if err != nil {
		t.Fatalf("ComputeStats: %v", err)
	}
	if stats.ValuableReach != 0 || stats.ValuableRatePct != 0 {
		t.Fatalf("expected zero reach after demotion, got %+v", stats)
	}
	if stats.ValuableCampaigns != 0 || stats.HighValueCampaigns != 0 {
		t.Fatalf("expected no valuable campaigns after demotion, got %+v", stats)
	}
}

func TestComputeStatsCampaignCountsSkipDemotingTags(t *testing.T) {
	env := newValueStatsEnvForTest(t)
	ctx := context.Background()
	db := env.db

	merchant := testutil.SeedMerchant(t, db, "acme")
	root := testutil.SeedCampaign(t, db, merchant.ID, "welcome", types.TagNone)
	ignored := testutil.SeedCampaign(t, db, merchant.ID, "newsletter", types.TagIgnored)
	excluded := testutil.SeedCampaign(t, db, merchant.ID, "internal", types.TagExcluded)
	highValue := testutil.SeedCampaign(t, db, merchant.ID, "checkout", types.TagHighValue)
	project := testutil.SeedProject(t, db, merchant.ID, "paths")

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	env.attribute(t, project.ID, "sub-1", root.ID)
	for i, campaign := range []*types.Campaign{root, ignored, excluded, highValue} {
		if _, _, err := env.sequencer.RecordTouch(ctx, nil, project.ID, "sub-1", campaign.ID, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("RecordTouch: %v", err)
		}
	}

	stats, err := env.service.ComputeStats(ctx, project.ID)
	if err != nil {
		t.Fatalf("ComputeStats: %v", err)
	}
	// only the high-value campaign counts; ignored and excluded tags demote
	if stats.ValuableCampaigns != 1 || stats.HighValueCampaigns != 1 {
		t.Fatalf("expected 1 valuable / 1 high-value campaign, got %+v", stats)
	}
	if stats.ValuableReach != 1 || stats.ValuableRatePct != 100.0 {
		t.Fatalf("unexpected reach: %+v", stats)
	}
}

func TestComputeStatsEmptyProjectIsAllZeroes(t *testing.T) {
	env := newValueStatsEnvForTest(t)
	merchant := testutil.SeedMerchant(t, env.db, "acme")
	project := testutil.SeedProject(t, env.db, merchant.ID, "paths")

	stats, err := env.service.ComputeStats(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("ComputeStats: %v", err)
	}
	if stats.TotalAttributed != 0 || stats.ValuableReach != 0 || stats.ValuableRatePct != 0 {
		t.Fatalf("expected zeroed stats, got %+v", stats)
	}
}

func TestSetTagValidatesRangeAndReferences(t *testing.T) {
	env := newValueStatsEnvForTest(t)
	ctx := context.Background()
	merchant := testutil.SeedMerchant(t, env.db, "acme")
	campaign := testutil.SeedCampaign(t, env.db, merchant.ID, "welcome", types.TagNone)
	project := testutil.SeedProject(t, env.db, merchant.ID, "paths")

	if _, err := env.service.SetTag(ctx, project.ID, campaign.ID, 7); !errors.Is(err, types.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for out-of-range tag, got %v", err)
	}
	if _, err := env.service.SetTag(ctx, uuid.New(), campaign.ID, types.TagValuable); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown project, got %v", err)
	}
	if _, err := env.service.SetTag(ctx, project.ID, uuid.New(), types.TagValuable); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown campaign, got %v", err)
	}
}
