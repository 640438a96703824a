package types

import (
	"time"

	"github.com/google/uuid"
)

// Touch is a raw delivery record from an upstream collector: this subscriber
// received this campaign at this time, observed by this source. Append-only;
// analysis passes read it, only collectors write it.
type Touch struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SourceID     string    `gorm:"not null;index:idx_touch_source_received" json:"source_id"`
	CampaignID   uuid.UUID `gorm:"type:uuid;not null;index" json:"campaign_id"`
	SubscriberID string    `gorm:"not null;index" json:"subscriber_id"`
	ReceivedAt   time.Time `gorm:"not null;index:idx_touch_source_received" json:"received_at"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

func (Touch) TableName() string { return "touch" }
