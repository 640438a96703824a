package services

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mailpath/mailpath-backend/internal/realtime/bus"
	"github.com/mailpath/mailpath-backend/internal/repos"
	"github.com/mailpath/mailpath-backend/internal/repos/testutil"
	"github.com/mailpath/mailpath-backend/internal/types"
)

type analysisEnv struct {
	db           *gorm.DB
	projects     repos.ProjectRepo
	roots        repos.RootCampaignRepo
	touches      repos.TouchRepo
	attributions repos.PathAttributionRepo
	events       repos.PathEventRepo
	edges        repos.PathEdgeRepo
	analysis     AnalysisService
	progress     bus.Bus
}

func newAnalysisEnvForTest(t *testing.T) *analysisEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	projects := repos.NewProjectRepo(db, log)
	roots := repos.NewRootCampaignRepo(db, log)
	touches := repos.NewTouchRepo(db, log)
	attributions := repos.NewPathAttributionRepo(db, log)
	events := repos.NewPathEventRepo(db, log)
	edges := repos.NewPathEdgeRepo(db, log)

	sequencer := NewSequencerService(db, log, events)
	attribution := NewAttributionService(db, log, attributions, events)
	pathGraph := NewPathGraphService(db, log, events, edges, nil)
	progress := bus.NewMemoryBus(log)

	analysis := NewAnalysisService(
		db, log, 1,
		projects, roots, touches,
		attributions, events, edges,
		sequencer, attribution, pathGraph, progress,
	)
	return &analysisEnv{
		db:           db,
		projects:     projects,
		roots:        roots,
		touches:      touches,
		attributions: attributions,
		events:       events,
		edges:        edges,
		analysis:     analysis,
		progress:     progress,
	}
}

func (e *analysisEnv) eventKeys(t *testing.T, projectID uuid.UUID) []string {
	t.Helper()
	list, err := e.events.ListByProject(context.Background(), nil, projectID)
	if err != nil {
		t.Fatalf("ListByProject events: %v", err)
	}
	keys := make([]string, 0, len(list))
	for _, event := range list {
		keys = append(keys, fmt.Sprintf("%s|%s|%d", event.SubscriberID, event.CampaignID, event.Seq))
	}
	sort.Strings(keys)
	return keys
}

func (e *analysisEnv) edgeKeys(t *testing.T, projectID uuid.UUID) []string {
	t.Helper()
	list, err := e.edges.ListByProject(context.Background(), nil, projectID)
	if err != nil {
		t.Fatalf("ListByProject edges: %v", err)
	}
	keys := make([]string, 0, len(list))
	for _, edge := range list {
		keys = append(keys, fmt.Sprintf("%s->%s=%d", edge.FromCampaignID, edge.ToCampaignID, edge.UserCount))
	}
	sort.Strings(keys)
	return keys
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFullPassAnchorsAttributesAndBuildsGraph(t *testing.T) {
	env := newAnalysisEnvForTest(t)
	ctx := context.Background()
	db := env.db

	merchant := testutil.SeedMerchant(t, db, "acme")
	campaignA := testutil.SeedCampaign(t, db, merchant.ID, "welcome", types.TagNone)
	campaignB := testutil.SeedCampaign(t, db, merchant.ID, "nurture-1", types.TagNone)
	campaignC := testutil.SeedCampaign(t, db, merchant.ID, "offer", types.TagNone)
	source := "src-" + uuid.NewString()[:8]
	project := testutil.SeedProject(t, db, merchant.ID, "paths", source)
	testutil.SeedRootCampaign(t, db, project.ID, campaignA.ID, true)

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	// sub-1 follows the whole funnel
	testutil.SeedTouch(t, db, source, campaignA.ID, "sub-1", base)
	testutil.SeedTouch(t, db, source, campaignB.ID, "sub-1", base.Add(time.Hour))
	testutil.SeedTouch(t, db, source, campaignC.ID, "sub-1", base.Add(2*time.Hour))
	// sub-2 touched B before ever hitting the root; that prefix is excluded
	testutil.SeedTouch(t, db, source, campaignB.ID, "sub-2", base.Add(-time.Hour))
	testutil.SeedTouch(t, db, source, campaignA.ID, "sub-2", base)
	testutil.SeedTouch(t, db, source, campaignC.ID, "sub-2", base.Add(time.Hour))
	// sub-3 never touched the root and is not tracked
	testutil.SeedTouch(t, db, source, campaignB.ID, "sub-3", base)

	result, err := env.analysis.Run(ctx, project.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Pass != "full" {
		t.Fatalf("expected full pass, got %q", result.Pass)
	}
	if result.NewAttributions != 2 {
		t.Fatalf("expected 2 attributions, got %d", result.NewAttributions)
	}
	if result.Watermark.IsZero() {
		t.Fatal("expected watermark to be set")
	}

	attributions, err := env.attributions.ListByProject(ctx, nil, project.ID)
	if err != nil {
		t.Fatalf("ListByProject attributions: %v", err)
	}
	for _, att := range attributions {
		if att.RootCampaignID != campaignA.ID {
			t.Fatalf("subscriber %s attributed to wrong campaign", att.SubscriberID)
		}
	}

	wantEvents := []string{
		fmt.Sprintf("sub-1|%s|1", campaignA.ID),
		fmt.Sprintf("sub-1|%s|2", campaignB.ID),
		fmt.Sprintf("sub-1|%s|3", campaignC.ID),
		fmt.Sprintf("sub-2|%s|1", campaignA.ID),
		fmt.Sprintf("sub-2|%s|2", campaignC.ID),
	}
	sort.Strings(wantEvents)
	if got := env.eventKeys(t, project.ID); !equalStrings(got, wantEvents) {
		t.Fatalf("events mismatch:\n got %v\nwant %v", got, wantEvents)
	}

	wantEdges := []string{
		fmt.Sprintf("%s->%s=1", campaignA.ID, campaignB.ID),
		fmt.Sprintf("%s->%s=1", campaignB.ID, campaignC.ID),
		fmt.Sprintf("%s->%s=1", campaignA.ID, campaignC.ID),
	}
	sort.Strings(wantEdges)
	if got := env.edgeKeys(t, project.ID); !equalStrings(got, wantEdges) {
		t.Fatalf("edges mismatch:\n got %v\nwant %v", got, wantEdges)
	}

	project2, err := env.projects.GetByID(ctx, nil, project.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if project2.LastAnalysisAt == nil {
		t.Fatal("expected LastAnalysisAt to be persisted")
	}
}

func TestAttributionFirstRootWins(t *testing.T) {
	env := newAnalysisEnvForTest(t)
	ctx := context.Background()
	db := env.db

	merchant := testutil.SeedMerchant(t, db, "acme")
	rootA := testutil.SeedCampaign(t, db, merchant.ID, "root-a", types.TagNone)
	rootB := testutil.SeedCampaign(t, db, merchant.ID, "root-b", types.TagNone)
	source := "src-" + uuid.NewString()[:8]
	project := testutil.SeedProject(t, db, merchant.ID, "paths", source)
	testutil.SeedRootCampaign(t, db, project.ID, rootA.ID, true)
	testutil.SeedRootCampaign(t, db, project.ID, rootB.ID, true)

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	testutil.SeedTouch(t, db, source, rootA.ID, "sub-1", base)
	testutil.SeedTouch(t, db, source, rootB.ID, "sub-1", base.Add(time.Hour))

	if _, err := env.analysis.Run(ctx, project.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	att, err := env.attributions.GetBySubscriber(ctx, nil, project.ID, "sub-1")
	if err != nil {
		t.Fatalf("GetBySubscriber: %v", err)
	}
	if att.RootCampaignID != rootA.ID {
		t.Fatal("expected earliest root touch to win the attribution")
	}

	// the later root still shows up in the path itself
	list, err := env.events.ListBySubscriber(ctx, nil, project.ID, "sub-1")
	if err != nil {
		t.Fatalf("ListBySubscriber: %v", err)
	}
	if len(list) != 2 || list[1].CampaignID != rootB.ID {
		t.Fatalf("expected rootB as second event, got %d events", len(list))
	}
}

func TestIncrementalPassMatchesFullPass(t *testing.T) {
	env := newAnalysisEnvForTest(t)
	ctx := context.Background()
	db := env.db

	merchant := testutil.SeedMerchant(t, db, "acme")
	campaignA := testutil.SeedCampaign(t, db, merchant.ID, "welcome", types.TagNone)
	campaignB := testutil.SeedCampaign(t, db, merchant.ID, "nurture", types.TagNone)
	campaignC := testutil.SeedCampaign(t, db, merchant.ID, "offer", types.TagNone)

	sourceFull := "src-" + uuid.NewString()[:8]
	sourceStep := "src-" + uuid.NewString()[:8]
	projectFull := testutil.SeedProject(t, db, merchant.ID, "full", sourceFull)
	projectStep := testutil.SeedProject(t, db, merchant.ID, "stepwise", sourceStep)
	testutil.SeedRootCampaign(t, db, projectFull.ID, campaignA.ID, true)
	testutil.SeedRootCampaign(t, db, projectStep.ID, campaignA.ID, true)

	// The watermark is the completion wall-clock time, not max(receivedAt),
	// so the second batch must carry timestamps beyond "now" to land strictly
	// after the first pass's cutoff. Known boundary: rows arriving between
	// the delta query and the watermark write wait for the next pass.
	early := time.Now().UTC().Add(-time.Hour)
	late := time.Now().UTC().Add(time.Minute)

	seedBatch := func(source string, batch int) {
		if batch == 1 {
			testutil.SeedTouch(t, db, source, campaignA.ID, "sub-1", early)
			testutil.SeedTouch(t, db, source, campaignB.ID, "sub-1", early.Add(time.Minute))
			return
		}
		// second batch: a continuation for sub-1 and a brand new sub-2
		testutil.SeedTouch(t, db, source, campaignC.ID, "sub-1", late)
		testutil.SeedTouch(t, db, source, campaignA.ID, "sub-2", late.Add(time.Minute))
		testutil.SeedTouch(t, db, source, campaignB.ID, "sub-2", late.Add(2*time.Minute))
	}

	// stepwise project: analyze after each batch
	seedBatch(sourceStep, 1)
	first, err := env.analysis.Run(ctx, projectStep.ID)
	if err != nil {
		t.Fatalf("Run batch 1: %v", err)
	}
	if first.Pass != "full" {
		t.Fatalf("expected first pass full, got %q", first.Pass)
	}
	seedBatch(sourceStep, 2)
	second, err := env.analysis.Run(ctx, projectStep.ID)
	if err != nil {
		t.Fatalf("Run batch 2: %v", err)
	}
	if second.Pass != "incremental" {
		t.Fatalf("expected second pass incremental, got %q", second.Pass)
	}

	// control project: all data in one full pass
	seedBatch(sourceFull, 1)
	seedBatch(sourceFull, 2)
	if _, err := env.analysis.Run(ctx, projectFull.ID); err != nil {
		t.Fatalf("Run control: %v", err)
	}

	if got, want := env.eventKeys(t, projectStep.ID), env.eventKeys(t, projectFull.ID); !equalStrings(got, want) {
		t.Fatalf("stepwise events diverge from full pass:\n got %v\nwant %v", got, want)
	}
	if got, want := env.edgeKeys(t, projectStep.ID), env.edgeKeys(t, projectFull.ID); !equalStrings(got, want) {
		t.Fatalf("stepwise edges diverge from full pass:\n got %v\nwant %v", got, want)
	}
}

func TestSourceFilterKeepsForeignTouchesOut(t *testing.T) {
	env := newAnalysisEnvForTest(t)
	ctx := context.Background()
	db := env.db

	merchant := testutil.SeedMerchant(t, db, "acme")
	campaignA := testutil.SeedCampaign(t, db, merchant.ID, "welcome", types.TagNone)
	campaignB := testutil.SeedCampaign(t, db, merchant.ID, "other", types.TagNone)
	source := "src-" + uuid.NewString()[:8]
	foreign := "src-" + uuid.NewString()[:8]
	project := testutil.SeedProject(t, db, merchant.ID, "paths", source)
	testutil.SeedRootCampaign(t, db, project.ID, campaignA.ID, true)

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	testutil.SeedTouch(t, db, source, campaignA.ID, "sub-1", base)
	testutil.SeedTouch(t, db, foreign, campaignB.ID, "sub-1", base.Add(time.Hour))

	if _, err := env.analysis.Run(ctx, project.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	count, err := env.events.CountByProject(ctx, nil, project.ID)
	if err != nil {
		t.Fatalf("CountByProject: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected only the in-source touch, got %d events", count)
	}
}

func TestReanalyzeRebuildsFromScratch(t *testing.T) {
	env := newAnalysisEnvForTest(t)
	ctx := context.Background()
	db := env.db

	merchant := testutil.SeedMerchant(t, db, "acme")
	campaignA := testutil.SeedCampaign(t, db, merchant.ID, "welcome", types.TagNone)
	campaignB := testutil.SeedCampaign(t, db, merchant.ID, "nurture", types.TagNone)
	source := "src-" + uuid.NewString()[:8]
	project := testutil.SeedProject(t, db, merchant.ID, "paths", source)
	testutil.SeedRootCampaign(t, db, project.ID, campaignA.ID, true)

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	testutil.SeedTouch(t, db, source, campaignA.ID, "sub-1", base)
	testutil.SeedTouch(t, db, source, campaignB.ID, "sub-1", base.Add(time.Hour))

	if _, err := env.analysis.Run(ctx, project.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	before := env.eventKeys(t, project.ID)

	// corrupt derived state out of band
	if err := db.Model(&types.PathEvent{}).
		Where("project_id = ?", project.ID).
		Update("seq", 99).Error; err != nil {
		t.Fatalf("corrupt events: %v", err)
	}

	result, err := env.analysis.Reanalyze(ctx, project.ID)
	if err != nil {
		t.Fatalf("Reanalyze: %v", err)
	}
	if result.Pass != "full" {
		t.Fatalf("expected reanalysis to run full, got %q", result.Pass)
	}
	if got := env.eventKeys(t, project.ID); !equalStrings(got, before) {
		t.Fatalf("reanalysis did not restore state:\n got %v\nwant %v", got, before)
	}
}

func TestRunPublishesProgress(t *testing.T) {
	env := newAnalysisEnvForTest(t)
	ctx := context.Background()
	db := env.db

	merchant := testutil.SeedMerchant(t, db, "acme")
	campaignA := testutil.SeedCampaign(t, db, merchant.ID, "welcome", types.TagNone)
	source := "src-" + uuid.NewString()[:8]
	project := testutil.SeedProject(t, db, merchant.ID, "paths", source)
	testutil.SeedRootCampaign(t, db, project.ID, campaignA.ID, true)
	testutil.SeedTouch(t, db, source, campaignA.ID, "sub-1", time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))

	var phases []string
	if err := env.progress.Subscribe(ctx, func(event bus.ProgressEvent) {
		if event.ProjectID == project.ID {
			phases = append(phases, event.Phase)
		}
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if _, err := env.analysis.Run(ctx, project.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(phases) == 0 || phases[len(phases)-1] != "done" {
		t.Fatalf("expected progress ending in done, got %v", phases)
	}
}

func TestRunUnknownProjectIsNotFound(t *testing.T) {
	env := newAnalysisEnvForTest(t)
	_, err := env.analysis.Run(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected error for unknown project")
	}
}
