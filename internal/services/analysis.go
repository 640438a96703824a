package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/realtime/bus"
	"github.com/mailpath/mailpath-backend/internal/repos"
	"github.com/mailpath/mailpath-backend/internal/types"
)

type AnalysisResult struct {
	Pass            string    `json:"pass"` // "full" | "incremental"
	NewAttributions int64     `json:"new_attributions"`
	EventsRecorded  int64     `json:"events_recorded"`
	Watermark       time.Time `json:"watermark"`
}

// AnalysisService drives the passes that turn raw touches into attributions,
// path events and the transition graph. Passes on the same project are
// serialized; different projects run independently.
type AnalysisService interface {
	// Run performs a full pass when the project has never been analyzed and
	// an incremental pass (cutoff = current watermark) otherwise.
	Run(ctx context.Context, projectID uuid.UUID) (*AnalysisResult, error)
	// Reanalyze drops all derived state and the watermark, then runs a full pass.
	Reanalyze(ctx context.Context, projectID uuid.UUID) (*AnalysisResult, error)
}

type analysisService struct {
	db           *gorm.DB
	log          *logger.Logger
	concurrency  int
	projects     repos.ProjectRepo
	roots        repos.RootCampaignRepo
	touches      repos.TouchRepo
	attributions repos.PathAttributionRepo
	events       repos.PathEventRepo
	edges        repos.PathEdgeRepo
	sequencer    SequencerService
	attribution  AttributionService
	pathGraph    PathGraphService
	progress     bus.Bus

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewAnalysisService(
	db *gorm.DB,
	baseLog *logger.Logger,
	concurrency int,
	projects repos.ProjectRepo,
	roots repos.RootCampaignRepo,
	touches repos.TouchRepo,
	attributions repos.PathAttributionRepo,
	events repos.PathEventRepo,
	edges repos.PathEdgeRepo,
	sequencer SequencerService,
	attribution AttributionService,
	pathGraph PathGraphService,
	progress bus.Bus,
) AnalysisService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &analysisService{
		db:           db,
		log:          baseLog.With("service", "AnalysisService"),
		concurrency:  concurrency,
		projects:     projects,
		roots:        roots,
		touches:      touches,
		attributions: attributions,
		events:       events,
		edges:        edges,
		sequencer:    sequencer,
		attribution:  attribution,
		pathGraph:    pathGraph,
		progress:     progress,
		locks:        map[uuid.UUID]*sync.Mutex{},
	}
}

// projectLock serializes passes per project. Cross-project passes share no
// mutable state and run concurrently.
func (s *analysisService) projectLock(projectID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[projectID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[projectID] = lock
	}
	return lock
}

func (s *analysisService) Run(ctx context.Context, projectID uuid.UUID) (*AnalysisResult, error) {
	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.LastAnalysisAt == nil {
		return s.runFull(ctx, project)
	}
	return s.runIncremental(ctx, project, *project.LastAnalysisAt)
}

func (s *analysisService) Reanalyze(ctx context.Context, projectID uuid.UUID) (*AnalysisResult, error) {
	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.attributions.DeleteByProject(ctx, tx, projectID); err != nil {
			return err
		}
		if err := s.events.DeleteByProject(ctx, tx, projectID); err != nil {
			return err
		}
		if err := s.edges.DeleteByProject(ctx, tx, projectID); err != nil {
			return err
		}
		return s.projects.SetLastAnalysisAt(ctx, tx, projectID, nil)
	})
	if err != nil {
		return nil, err
	}
	project.LastAnalysisAt = nil
	s.log.Info("derived state cleared for reanalysis", "project_id", projectID)
	return s.runFull(ctx, project)
}

func (s *analysisService) loadProject(ctx context.Context, projectID uuid.UUID) (*types.Project, error) {
	project, err := s.projects.GetByID(ctx, nil, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFoundError("analysis: project does not exist")
		}
		return nil, err
	}
	return project, nil
}

func (s *analysisService) sourceIDs(project *types.Project) ([]string, error) {
	if len(project.SourceIDs) == 0 {
		return nil, nil
	}
	var sources []string
	if err := json.Unmarshal(project.SourceIDs, &sources); err != nil {
		return nil, types.InvalidInputError("analysis: project source filter is not a JSON string array")
	}
	return sources, nil
}

func (s *analysisService) publish(ctx context.Context, projectID uuid.UUID, pass, phase string, percent int) {
	if s.progress == nil {
		return
	}
	event := bus.ProgressEvent{
		ProjectID: projectID,
		Pass:      pass,
		Phase:     phase,
		Percent:   percent,
		At:        time.Now().UTC(),
	}
	if err := s.progress.Publish(ctx, event); err != nil {
		s.log.Debug("progress publish failed", "project_id", projectID, "error", err)
	}
}

// finish advances the watermark as the very last step of a pass. A failure
// anywhere earlier leaves the old watermark in place, so a retried pass
// re-processes the same window instead of skipping data.
func (s *analysisService) finish(ctx context.Context, projectID uuid.UUID, pass string, result *AnalysisResult) (*AnalysisResult, error) {
	// Completion wall-clock time, not max observed receivedAt: touches that
	// arrive between the touch query and this write are picked up by the
	// next incremental pass.
	watermark := time.Now().UTC()
	if err := s.projects.SetLastAnalysisAt(ctx, nil, projectID, &watermark); err != nil {
		return nil, err
	}
	result.Watermark = watermark
	s.publish(ctx, projectID, pass, "done", 100)
	s.log.Info("analysis pass finished",
		"project_id", projectID,
		"pass", pass,
		"new_attributions", result.NewAttributions,
		"events_recorded", result.EventsRecorded,
	)
	return result, nil
}

// subscriberBatch is one subscriber's slice of the pass: an anchor to create
// (nil when already attributed) and the touches to replay in arrival order.
type subscriberBatch struct {
	subscriberID string
	anchor       *types.Touch
	replay       []*types.Touch
}

func (s *analysisService) runFull(ctx context.Context, project *types.Project) (*AnalysisResult, error) {
	result := &AnalysisResult{Pass: "full"}

	confirmed, err := s.roots.ListConfirmedByProject(ctx, nil, project.ID)
	if err != nil {
		return nil, err
	}
	if len(confirmed) == 0 {
		return s.finish(ctx, project.ID, result.Pass, result)
	}
	rootIDs := make([]uuid.UUID, 0, len(confirmed))
	for _, root := range confirmed {
		rootIDs = append(rootIDs, root.CampaignID)
	}

	sources, err := s.sourceIDs(project)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, project.ID, result.Pass, "anchors", 0)

	rootTouches, err := s.touches.Query(ctx, nil, repos.TouchQuery{
		SourceIDs:   sources,
		CampaignIDs: rootIDs,
	})
	if err != nil {
		return nil, err
	}

	// rows come back ordered by receivedAt, so the first touch seen per
	// subscriber is their earliest root touch: the anchor.
	anchors := map[string]*types.Touch{}
	for _, touch := range rootTouches {
		if _, ok := anchors[touch.SubscriberID]; !ok {
			anchors[touch.SubscriberID] = touch
		}
	}
	if len(anchors) == 0 {
		return s.finish(ctx, project.ID, result.Pass, result)
	}

	allTouches, err := s.touches.Query(ctx, nil, repos.TouchQuery{SourceIDs: sources})
	if err != nil {
		return nil, err
	}

	batches := map[string]*subscriberBatch{}
	for subscriberID, anchor := range anchors {
		batches[subscriberID] = &subscriberBatch{subscriberID: subscriberID, anchor: anchor}
	}
	for _, touch := range allTouches {
		batch, ok := batches[touch.SubscriberID]
		if !ok {
			continue // never touched a confirmed root; not tracked
		}
		anchor := batch.anchor
		if touch.ReceivedAt.Before(anchor.ReceivedAt) {
			continue // pre-anchor history is excluded, root-anchoring invariant
		}
		if touch.CampaignID == anchor.CampaignID {
			continue // the anchor itself is recorded separately
		}
		batch.replay = append(batch.replay, touch)
	}

	if err := s.replayBatches(ctx, project.ID, result.Pass, batches, result); err != nil {
		return nil, err
	}

	s.publish(ctx, project.ID, result.Pass, "graph", 95)
	if err := s.pathGraph.Rebuild(ctx, nil, project.ID); err != nil {
		return nil, err
	}

	return s.finish(ctx, project.ID, result.Pass, result)
}

func (s *analysisService) runIncremental(ctx context.Context, project *types.Project, cutoff time.Time) (*AnalysisResult, error) {
	result := &AnalysisResult{Pass: "incremental"}

	confirmed, err := s.roots.ListConfirmedByProject(ctx, nil, project.ID)
	if err != nil {
		return nil, err
	}
	if len(confirmed) == 0 {
		return s.finish(ctx, project.ID, result.Pass, result)
	}
	rootIDs := make([]uuid.UUID, 0, len(confirmed))
	for _, root := range confirmed {
		rootIDs = append(rootIDs, root.CampaignID)
	}

	sources, err := s.sourceIDs(project)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, project.ID, result.Pass, "anchors", 0)

	attributed, err := s.attributions.ListByProject(ctx, nil, project.ID)
	if err != nil {
		return nil, err
	}
	attributedSet := make(map[string]struct{}, len(attributed))
	for _, att := range attributed {
		attributedSet[att.SubscriberID] = struct{}{}
	}

	// anchor times of already-tracked subscribers, to keep excluding
	// backdated pre-anchor rows in the delta
	anchorTimes, err := s.events.SeqOneTimes(ctx, nil, project.ID)
	if err != nil {
		return nil, err
	}

	newRootTouches, err := s.touches.Query(ctx, nil, repos.TouchQuery{
		SourceIDs:   sources,
		CampaignIDs: rootIDs,
		After:       &cutoff,
	})
	if err != nil {
		return nil, err
	}

	// already-attributed subscribers are never re-anchored, even by an
	// earlier root touch arriving late
	newAnchors := map[string]*types.Touch{}
	for _, touch := range newRootTouches {
		if _, ok := attributedSet[touch.SubscriberID]; ok {
			continue
		}
		if _, ok := newAnchors[touch.SubscriberID]; !ok {
			newAnchors[touch.SubscriberID] = touch
		}
	}

	deltaTouches, err := s.touches.Query(ctx, nil, repos.TouchQuery{
		SourceIDs: sources,
		After:     &cutoff,
	})
	if err != nil {
		return nil, err
	}

	batches := map[string]*subscriberBatch{}
	for subscriberID, anchor := range newAnchors {
		batches[subscriberID] = &subscriberBatch{subscriberID: subscriberID, anchor: anchor}
	}
	for _, touch := range deltaTouches {
		if batch, ok := batches[touch.SubscriberID]; ok {
			// newly anchored in this pass: drop pre-anchor rows, and skip
			// re-touches of the anchor campaign (its event already exists)
			if touch.ReceivedAt.Before(batch.anchor.ReceivedAt) {
				continue
			}
			if touch.CampaignID == batch.anchor.CampaignID {
				continue
			}
			batch.replay = append(batch.replay, touch)
			continue
		}
		if _, ok := attributedSet[touch.SubscriberID]; !ok {
			continue // still not tracked
		}
		// previously attributed: root re-touches flow through RecordTouch as
		// ordinary events; the anchor campaign dedupes on idempotence
		anchorAt, ok := anchorTimes[touch.SubscriberID]
		if !ok {
			s.log.Warn("attributed subscriber has no sequence anchor, skipping delta rows",
				"project_id", project.ID, "subscriber_id", touch.SubscriberID)
			continue
		}
		if touch.ReceivedAt.Before(anchorAt) {
			continue
		}
		batch, ok := batches[touch.SubscriberID]
		if !ok {
			batch = &subscriberBatch{subscriberID: touch.SubscriberID}
			batches[touch.SubscriberID] = batch
		}
		batch.replay = append(batch.replay, touch)
	}

	if err := s.replayBatches(ctx, project.ID, result.Pass, batches, result); err != nil {
		return nil, err
	}

	s.publish(ctx, project.ID, result.Pass, "graph", 95)
	if err := s.pathGraph.Rebuild(ctx, nil, project.ID); err != nil {
		return nil, err
	}

	return s.finish(ctx, project.ID, result.Pass, result)
}

// replayBatches processes subscribers independently: each one's calls run in
// arrival order inside a single transaction, while distinct subscribers may
// run in parallel up to the configured limit.
func (s *analysisService) replayBatches(ctx context.Context, projectID uuid.UUID, pass string, batches map[string]*subscriberBatch, result *AnalysisResult) error {
	total := len(batches)
	if total == 0 {
		return nil
	}

	var (
		processed       int64
		newAttributions int64
		eventsRecorded  int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			err := s.db.WithContext(gctx).Transaction(func(tx *gorm.DB) error {
				if batch.anchor != nil {
					if err := s.attribution.Attribute(gctx, tx, projectID, batch.subscriberID, batch.anchor.CampaignID); err != nil {
						return err
					}
					atomic.AddInt64(&newAttributions, 1)
					if _, isNew, err := s.sequencer.RecordTouch(gctx, tx, projectID, batch.subscriberID, batch.anchor.CampaignID, batch.anchor.ReceivedAt); err != nil {
						return err
					} else if isNew {
						atomic.AddInt64(&eventsRecorded, 1)
					}
				}
				for _, touch := range batch.replay {
					if _, isNew, err := s.sequencer.RecordTouch(gctx, tx, projectID, batch.subscriberID, touch.CampaignID, touch.ReceivedAt); err != nil {
						return err
					} else if isNew {
						atomic.AddInt64(&eventsRecorded, 1)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			done := atomic.AddInt64(&processed, 1)
			// replay spans 10..90 percent of the pass
			s.publish(gctx, projectID, pass, "replay", 10+int(done*80/int64(total)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	result.NewAttributions += newAttributions
	result.EventsRecorded += eventsRecorded
	return nil
}
