package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Project is the isolation unit for path analysis. Every derived row
// (root campaigns, attributions, path events, path edges, tag overrides)
// is keyed by ProjectID and never visible across projects.
type Project struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MerchantID uuid.UUID `gorm:"type:uuid;not null;index" json:"merchant_id"`
	Merchant   *Merchant `gorm:"constraint:OnDelete:CASCADE;foreignKey:MerchantID;references:ID" json:"merchant,omitempty"`
	Name       string    `gorm:"not null" json:"name"`
	// Collector source ids whose touches are visible to this project.
	SourceIDs datatypes.JSON `gorm:"type:jsonb" json:"source_ids"`
	// Watermark of the last analysis pass; nil means never analyzed.
	LastAnalysisAt *time.Time `json:"last_analysis_at,omitempty"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
}

func (Project) TableName() string { return "project" }
