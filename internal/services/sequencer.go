package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/repos"
	"github.com/mailpath/mailpath-backend/internal/types"
)

// SequencerService maintains the gapless, time-ordered touch sequence of one
// subscriber within a project. It knows nothing about root campaigns; the
// analysis orchestrator guarantees it never sees a touch earlier than the
// subscriber's anchor.
type SequencerService interface {
	// RecordTouch inserts a touch into the subscriber's sequence and returns
	// its position. Re-submitting an already-recorded (subscriber, campaign)
	// pair returns the existing position with isNew=false, so the earliest
	// recorded receivedAt for a campaign always wins.
	RecordTouch(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, subscriberID string, campaignID uuid.UUID, receivedAt time.Time) (seq int, isNew bool, err error)
}

type sequencerService struct {
	db     *gorm.DB
	log    *logger.Logger
	events repos.PathEventRepo
}

func NewSequencerService(db *gorm.DB, baseLog *logger.Logger, events repos.PathEventRepo) SequencerService {
	return &sequencerService{
		db:     db,
		log:    baseLog.With("service", "SequencerService"),
		events: events,
	}
}

func (s *sequencerService) RecordTouch(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, subscriberID string, campaignID uuid.UUID, receivedAt time.Time) (int, bool, error) {
	if projectID == uuid.Nil || campaignID == uuid.Nil || subscriberID == "" {
		return 0, false, types.InvalidInputError("record touch: project, subscriber and campaign are required")
	}

	if tx != nil {
		return s.recordTouch(ctx, tx, projectID, subscriberID, campaignID, receivedAt)
	}

	var (
		seq   int
		isNew bool
	)
	err := s.db.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		var innerErr error
		seq, isNew, innerErr = s.recordTouch(ctx, inner, projectID, subscriberID, campaignID, receivedAt)
		return innerErr
	})
	return seq, isNew, err
}

// recordTouch does the ordered-list insert: position is one past the number
// of events at or before the new receivedAt, and every later event shifts by
// one. Running inside a single transaction keeps contiguity and time order
// atomic from any reader's viewpoint.
func (s *sequencerService) recordTouch(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, subscriberID string, campaignID uuid.UUID, receivedAt time.Time) (int, bool, error) {
	existing, err := s.events.GetByKey(ctx, tx, projectID, subscriberID, campaignID)
	if err == nil {
		return existing.Seq, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, err
	}

	countBefore, err := s.events.CountAtOrBefore(ctx, tx, projectID, subscriberID, receivedAt)
	if err != nil {
		return 0, false, err
	}
	seq := int(countBefore) + 1

	if err := s.events.ShiftSeqAfter(ctx, tx, projectID, subscriberID, receivedAt); err != nil {
		return 0, false, err
	}

	if _, err := s.events.Insert(ctx, tx, &types.PathEvent{
		ProjectID:    projectID,
		SubscriberID: subscriberID,
		CampaignID:   campaignID,
		Seq:          seq,
		ReceivedAt:   receivedAt,
	}); err != nil {
		return 0, false, types.MapError(err)
	}
	return seq, true, nil
}
