package types

import (
	"time"

	"github.com/google/uuid"
)

// RootCampaign flags a campaign as a valid path-start trigger for a project.
// Only confirmed rows participate in analysis; unconfirmed ones are candidates
// surfaced to the operator with a reason.
type RootCampaign struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_root_campaign_project_campaign" json:"project_id"`
	Project         *Project  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	CampaignID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_root_campaign_project_campaign" json:"campaign_id"`
	Campaign        *Campaign `gorm:"constraint:OnDelete:CASCADE;foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
	Confirmed       bool      `gorm:"not null;default:false" json:"confirmed"`
	CandidateReason string    `json:"candidate_reason,omitempty"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

func (RootCampaign) TableName() string { return "root_campaign" }
