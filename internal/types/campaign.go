package types

import (
	"time"

	"github.com/google/uuid"
)

// ValueTag levels shared by the merchant default and project overrides.
const (
	TagNone      = 0
	TagValuable  = 1
	TagHighValue = 2
	TagIgnored   = 3
	TagExcluded  = 4
)

type Campaign struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MerchantID uuid.UUID `gorm:"type:uuid;not null;index" json:"merchant_id"`
	Merchant   *Merchant `gorm:"constraint:OnDelete:CASCADE;foreignKey:MerchantID;references:ID" json:"merchant,omitempty"`
	Name       string    `gorm:"not null" json:"name"`
	Subject    string    `json:"subject"`
	// Merchant-level default tag, overridable per project.
	ValueTag  int       `gorm:"not null;default:0" json:"value_tag"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Campaign) TableName() string { return "campaign" }
