package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/repos"
	"github.com/mailpath/mailpath-backend/internal/types"
)

type TouchInput struct {
	SourceID     string    `json:"source_id"`
	CampaignID   uuid.UUID `json:"campaign_id"`
	SubscriberID string    `json:"subscriber_id"`
	ReceivedAt   time.Time `json:"received_at"`
}

// TouchService is the collector write path for raw delivery records. The
// touch store is append-only; analysis passes consume it read-only.
type TouchService interface {
	Ingest(ctx context.Context, inputs []TouchInput) ([]*types.Touch, error)
}

type touchService struct {
	db      *gorm.DB
	log     *logger.Logger
	touches repos.TouchRepo
}

func NewTouchService(db *gorm.DB, baseLog *logger.Logger, touches repos.TouchRepo) TouchService {
	return &touchService{
		db:      db,
		log:     baseLog.With("service", "TouchService"),
		touches: touches,
	}
}

func (s *touchService) Ingest(ctx context.Context, inputs []TouchInput) ([]*types.Touch, error) {
	if len(inputs) == 0 {
		return nil, types.InvalidInputError("touch ingest: empty batch")
	}
	touches := make([]*types.Touch, 0, len(inputs))
	for i, input := range inputs {
		input.SourceID = strings.TrimSpace(input.SourceID)
		input.SubscriberID = strings.TrimSpace(input.SubscriberID)
		if input.SourceID == "" || input.SubscriberID == "" || input.CampaignID == uuid.Nil || input.ReceivedAt.IsZero() {
			s.log.Warn("touch batch rejected", "index", i)
			return nil, types.InvalidInputError("touch ingest: sourceID, subscriberID, campaignID and receivedAt are required")
		}
		touches = append(touches, &types.Touch{
			SourceID:     input.SourceID,
			CampaignID:   input.CampaignID,
			SubscriberID: input.SubscriberID,
			ReceivedAt:   input.ReceivedAt.UTC(),
		})
	}
	inserted, err := s.touches.Insert(ctx, nil, touches)
	if err != nil {
		return nil, types.MapError(err)
	}
	s.log.Info("touch batch ingested", "count", len(inserted))
	return inserted, nil
}
