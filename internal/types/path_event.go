package types

import (
	"time"

	"github.com/google/uuid"
)

// PathEvent is one position in a subscriber's reconstructed touch sequence.
// Invariants held after every mutation: one event per (project, subscriber,
// campaign); Seq values form exactly {1..N} per subscriber; Seq order equals
// ReceivedAt order; Seq 1 is the subscriber's earliest confirmed-root touch.
type PathEvent struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_path_event_project_subscriber_campaign;index:idx_path_event_project_subscriber_seq" json:"project_id"`
	Project      *Project  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	SubscriberID string    `gorm:"not null;uniqueIndex:idx_path_event_project_subscriber_campaign;index:idx_path_event_project_subscriber_seq" json:"subscriber_id"`
	CampaignID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_path_event_project_subscriber_campaign" json:"campaign_id"`
	Seq          int       `gorm:"not null;index:idx_path_event_project_subscriber_seq" json:"seq"`
	ReceivedAt   time.Time `gorm:"not null;index" json:"received_at"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

func (PathEvent) TableName() string { return "path_event" }
