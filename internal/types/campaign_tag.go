package types

import (
	"time"

	"github.com/google/uuid"
)

// ProjectCampaignTag overrides a campaign's merchant-level value tag
// within one project.
type ProjectCampaignTag struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_project_campaign_tag_project_campaign" json:"project_id"`
	Project    *Project  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	CampaignID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_project_campaign_tag_project_campaign" json:"campaign_id"`
	Campaign   *Campaign `gorm:"constraint:OnDelete:CASCADE;foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
	Tag        int       `gorm:"not null;default:0" json:"tag"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (ProjectCampaignTag) TableName() string { return "project_campaign_tag" }
