package testutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mailpath/mailpath-backend/internal/types"
)

func SeedMerchant(tb testing.TB, db *gorm.DB, name string) *types.Merchant {
	tb.Helper()
	merchant := &types.Merchant{ID: uuid.New(), Name: name + "-" + uuid.NewString()[:8]}
	if err := db.Create(merchant).Error; err != nil {
		tb.Fatalf("seed merchant: %v", err)
	}
	return merchant
}

func SeedCampaign(tb testing.TB, db *gorm.DB, merchantID uuid.UUID, name string, valueTag int) *types.Campaign {
	tb.Helper()
	campaign := &types.Campaign{
		ID:         uuid.New(),
		MerchantID: merchantID,
		Name:       name,
		ValueTag:   valueTag,
	}
	if err := db.Create(campaign).Error; err != nil {
		tb.Fatalf("seed campaign: %v", err)
	}
	return campaign
}

func SeedProject(tb testing.TB, db *gorm.DB, merchantID uuid.UUID, name string, sourceIDs ...string) *types.Project {
	tb.Helper()
	if sourceIDs == nil {
		sourceIDs = []string{}
	}
	raw, err := json.Marshal(sourceIDs)
	if err != nil {
		tb.Fatalf("seed project sources: %v", err)
	}
	project := &types.Project{
		ID:         uuid.New(),
		MerchantID: merchantID,
		Name:       name,
		SourceIDs:  datatypes.JSON(raw),
	}
	if err := db.Create(project).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return project
}

func SeedRootCampaign(tb testing.TB, db *gorm.DB, projectID, campaignID uuid.UUID, confirmed bool) *types.RootCampaign {
	tb.Helper()
	root := &types.RootCampaign{
		ID:         uuid.New(),
		ProjectID:  projectID,
		CampaignID: campaignID,
		Confirmed:  confirmed,
	}
	if err := db.Create(root).Error; err != nil {
		tb.Fatalf("seed root campaign: %v", err)
	}
	return root
}

func SeedTouch(tb testing.TB, db *gorm.DB, sourceID string, campaignID uuid.UUID, subscriberID string, receivedAt time.Time) *types.Touch {
	tb.Helper()
	touch := &types.Touch{
		ID:           uuid.New(),
		SourceID:     sourceID,
		CampaignID:   campaignID,
		SubscriberID: subscriberID,
		ReceivedAt:   receivedAt.UTC(),
	}
	if err := db.Create(touch).Error; err != nil {
		tb.Fatalf("seed touch: %v", err)
	}
	return touch
}
