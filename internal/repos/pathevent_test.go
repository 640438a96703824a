package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mailpath/mailpath-backend/internal/repos/testutil"
	"github.com/mailpath/mailpath-backend/internal/types"
)

func TestPathEventCountAtOrBeforeIncludesTies(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewPathEventRepo(db, testutil.Logger(t))
	ctx := context.Background()

	projectID := uuid.New()
	at := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	for i := 1; i <= 2; i++ {
		_, err := repo.Insert(ctx, tx, &types.PathEvent{
			ProjectID:    projectID,
			SubscriberID: "sub-1",
			CampaignID:   uuid.New(),
			Seq:          i,
			ReceivedAt:   at,
		})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	count, err := repo.CountAtOrBefore(ctx, tx, projectID, "sub-1", at)
	if err != nil {
		t.Fatalf("CountAtOrBefore: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected equal-time events counted, got %d", count)
	}
	count, err = repo.CountAtOrBefore(ctx, tx, projectID, "sub-1", at.Add(-time.Second))
	if err != nil {
		t.Fatalf("CountAtOrBefore earlier: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 before the tie, got %d", count)
	}
}

func TestPathEventShiftSeqAfterIsStrict(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewPathEventRepo(db, testutil.Logger(t))
	ctx := context.Background()

	projectID := uuid.New()
	at := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	seed := []struct {
		seq int
		at  time.Time
	}{
		{1, at},
		{2, at.Add(time.Hour)},
		{3, at.Add(2 * time.Hour)},
	}
	for _, s := range seed {
		if _, err := repo.Insert(ctx, tx, &types.PathEvent{
			ProjectID:    projectID,
			SubscriberID: "sub-1",
			CampaignID:   uuid.New(),
			Seq:          s.seq,
			ReceivedAt:   s.at,
		}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	// shifting after the first timestamp must leave the tie itself alone
	if err := repo.ShiftSeqAfter(ctx, tx, projectID, "sub-1", at); err != nil {
		t.Fatalf("ShiftSeqAfter: %v", err)
	}
	list, err := repo.ListBySubscriber(ctx, tx, projectID, "sub-1")
	if err != nil {
		t.Fatalf("ListBySubscriber: %v", err)
	}
	got := []int{list[0].Seq, list[1].Seq, list[2].Seq}
	if got[0] != 1 || got[1] != 3 || got[2] != 4 {
		t.Fatalf("expected seqs [1 3 4], got %v", got)
	}
}

func TestPathEventSeqOneTimes(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewPathEventRepo(db, testutil.Logger(t))
	ctx := context.Background()

	projectID := uuid.New()
	at := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	for _, sub := range []string{"sub-1", "sub-2"} {
		for i := 1; i <= 2; i++ {
			if _, err := repo.Insert(ctx, tx, &types.PathEvent{
				ProjectID:    projectID,
				SubscriberID: sub,
				CampaignID:   uuid.New(),
				Seq:          i,
				ReceivedAt:   at.Add(time.Duration(i) * time.Hour),
			}); err != nil {
				t.Fatalf("Insert: %v", err)
			}
		}
	}

	anchors, err := repo.SeqOneTimes(ctx, tx, projectID)
	if err != nil {
		t.Fatalf("SeqOneTimes: %v", err)
	}
	if len(anchors) != 2 {
		t.Fatalf("expected 2 anchors, got %d", len(anchors))
	}
	for sub, anchorAt := range anchors {
		if !anchorAt.Equal(at.Add(time.Hour)) {
			t.Fatalf("%s: expected seq-1 time, got %v", sub, anchorAt)
		}
	}
}

func TestPathEventUniquePerCampaign(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewPathEventRepo(db, testutil.Logger(t))
	ctx := context.Background()

	projectID := uuid.New()
	campaignID := uuid.New()
	at := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	if _, err := repo.Insert(ctx, tx, &types.PathEvent{
		ProjectID: projectID, SubscriberID: "sub-1", CampaignID: campaignID, Seq: 1, ReceivedAt: at,
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := repo.Insert(ctx, tx, &types.PathEvent{
		ProjectID: projectID, SubscriberID: "sub-1", CampaignID: campaignID, Seq: 2, ReceivedAt: at.Add(time.Hour),
	}); err == nil {
		t.Fatal("expected unique violation for duplicate (project, subscriber, campaign)")
	}
}
