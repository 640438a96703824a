package types

import (
	"time"

	"github.com/google/uuid"
)

// PathEdge is an aggregated transition between two campaigns at consecutive
// sequence positions. Fully derived from PathEvent; rebuilt, never edited.
type PathEdge struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_path_edge_project_from_to" json:"project_id"`
	Project        *Project  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	FromCampaignID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_path_edge_project_from_to" json:"from_campaign_id"`
	ToCampaignID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_path_edge_project_from_to" json:"to_campaign_id"`
	UserCount      int64     `gorm:"not null;default:0" json:"user_count"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (PathEdge) TableName() string { return "path_edge" }
