package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mailpath/mailpath-backend/internal/repos"
	"github.com/mailpath/mailpath-backend/internal/repos/testutil"
	"github.com/mailpath/mailpath-backend/internal/types"
)

func newSequencerForTest(t *testing.T) (SequencerService, repos.PathEventRepo) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	events := repos.NewPathEventRepo(db, log)
	return NewSequencerService(db, log, events), events
}

func TestRecordTouchAssignsContiguousPositions(t *testing.T) {
	sequencer, events := newSequencerForTest(t)
	ctx := context.Background()
	projectID := uuid.New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	campaigns := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for i, campaignID := range campaigns {
		seq, isNew, err := sequencer.RecordTouch(ctx, nil, projectID, "sub-1", campaignID, base.Add(time.Duration(i)*time.Hour))
		if err != nil {
			t.Fatalf("RecordTouch: %v", err)
		}
		if !isNew {
			t.Fatalf("expected new event at position %d", i+1)
		}
		if seq != i+1 {
			t.Fatalf("expected seq %d, got %d", i+1, seq)
		}
	}

	list, err := events.ListBySubscriber(ctx, nil, projectID, "sub-1")
	if err != nil {
		t.Fatalf("ListBySubscriber: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 events, got %d", len(list))
	}
	for i, event := range list {
		if event.Seq != i+1 {
			t.Fatalf("expected seq %d at index %d, got %d", i+1, i, event.Seq)
		}
	}
}

func TestRecordTouchOutOfOrderInsertShiftsLaterEvents(t *testing.T) {
	sequencer, events := newSequencerForTest(t)
	ctx := context.Background()
	projectID := uuid.New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	campaignA := uuid.New()
	campaignB := uuid.New()
	campaignC := uuid.New()

	// A then C arrive, then B with a timestamp between them
	if _, _, err := sequencer.RecordTouch(ctx, nil, projectID, "sub-1", campaignA, base); err != nil {
		t.Fatalf("RecordTouch A: %v", err)
	}
	if _, _, err := sequencer.RecordTouch(ctx, nil, projectID, "sub-1", campaignC, base.Add(2*time.Hour)); err != nil {
		t.Fatalf("RecordTouch C: %v", err)
	}
	seq, isNew, err := sequencer.RecordTouch(ctx, nil, projectID, "sub-1", campaignB, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("RecordTouch B: %v", err)
	}
	if !isNew || seq != 2 {
		t.Fatalf("expected B inserted new at seq 2, got seq=%d isNew=%v", seq, isNew)
	}

	list, err := events.ListBySubscriber(ctx, nil, projectID, "sub-1")
	if err != nil {
		t.Fatalf("ListBySubscriber: %v", err)
	}
	want := []uuid.UUID{campaignA, campaignB, campaignC}
	if len(list) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(list))
	}
	for i, event := range list {
		if event.CampaignID != want[i] {
			t.Fatalf("position %d: wrong campaign order", i+1)
		}
		if event.Seq != i+1 {
			t.Fatalf("position %d: expected seq %d, got %d", i+1, i+1, event.Seq)
		}
	}
}

func TestRecordTouchIsIdempotentPerCampaign(t *testing.T) {
	sequencer, events := newSequencerForTest(t)
	ctx := context.Background()
	projectID := uuid.New()
	campaignID := uuid.New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first, isNew, err := sequencer.RecordTouch(ctx, nil, projectID, "sub-1", campaignID, base)
	if err != nil || !isNew {
		t.Fatalf("first RecordTouch: seq=%d isNew=%v err=%v", first, isNew, err)
	}

	// later re-touch of the same campaign must not move or duplicate it
	again, isNew, err := sequencer.RecordTouch(ctx, nil, projectID, "sub-1", campaignID, base.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("repeat RecordTouch: %v", err)
	}
	if isNew {
		t.Fatal("expected isNew=false on repeat touch")
	}
	if again != first {
		t.Fatalf("expected stable seq %d, got %d", first, again)
	}

	count, err := events.CountByProject(ctx, nil, projectID)
	if err != nil {
		t.Fatalf("CountByProject: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 event, got %d", count)
	}
}

func TestRecordTouchEqualTimestampsStayContiguous(t *testing.T) {
	sequencer, events := newSequencerForTest(t)
	ctx := context.Background()
	projectID := uuid.New()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if _, _, err := sequencer.RecordTouch(ctx, nil, projectID, "sub-1", uuid.New(), at); err != nil {
			t.Fatalf("RecordTouch %d: %v", i, err)
		}
	}

	list, err := events.ListBySubscriber(ctx, nil, projectID, "sub-1")
	if err != nil {
		t.Fatalf("ListBySubscriber: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 events, got %d", len(list))
	}
	for i, event := range list {
		if event.Seq != i+1 {
			t.Fatalf("expected contiguous seqs, got %d at index %d", event.Seq, i)
		}
	}
}

func TestRecordTouchRejectsMissingIdentifiers(t *testing.T) {
	sequencer, _ := newSequencerForTest(t)
	ctx := context.Background()

	_, _, err := sequencer.RecordTouch(ctx, nil, uuid.Nil, "sub-1", uuid.New(), time.Now())
	if !errors.Is(err, types.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for nil project, got %v", err)
	}
	_, _, err = sequencer.RecordTouch(ctx, nil, uuid.New(), "", uuid.New(), time.Now())
	if !errors.Is(err, types.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty subscriber, got %v", err)
	}
}
