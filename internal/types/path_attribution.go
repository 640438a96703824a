package types

import (
	"time"

	"github.com/google/uuid"
)

// PathAttribution records which root campaign first qualified a subscriber
// for path tracking in a project. Written once; the first attribution wins
// and is never overwritten by later root touches.
type PathAttribution struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_path_attribution_project_subscriber" json:"project_id"`
	Project        *Project  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	SubscriberID   string    `gorm:"not null;uniqueIndex:idx_path_attribution_project_subscriber" json:"subscriber_id"`
	RootCampaignID uuid.UUID `gorm:"type:uuid;not null;index" json:"root_campaign_id"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

func (PathAttribution) TableName() string { return "path_attribution" }
