package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mailpath/mailpath-backend/internal/data/graph"
	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/platform/neo4jdb"
	"github.com/mailpath/mailpath-backend/internal/repos"
	"github.com/mailpath/mailpath-backend/internal/types"
)

// PathGraphService derives the weighted transition graph from the recorded
// path events. Rebuild is a pure function of event state: same events in,
// same edges out, however often it runs.
type PathGraphService interface {
	Rebuild(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error
	ListEdges(ctx context.Context, projectID uuid.UUID) ([]*types.PathEdge, error)
}

type pathGraphService struct {
	db     *gorm.DB
	log    *logger.Logger
	events repos.PathEventRepo
	edges  repos.PathEdgeRepo
	neo    *neo4jdb.Client
}

func NewPathGraphService(db *gorm.DB, baseLog *logger.Logger, events repos.PathEventRepo, edges repos.PathEdgeRepo, neo *neo4jdb.Client) PathGraphService {
	return &pathGraphService{
		db:     db,
		log:    baseLog.With("service", "PathGraphService"),
		events: events,
		edges:  edges,
		neo:    neo,
	}
}

func (s *pathGraphService) Rebuild(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error {
	if projectID == uuid.Nil {
		return types.InvalidInputError("rebuild: project is required")
	}

	var rebuilt []*types.PathEdge
	run := func(inner *gorm.DB) error {
		events, err := s.events.ListByProject(ctx, inner, projectID)
		if err != nil {
			return err
		}

		type edgeKey struct {
			from uuid.UUID
			to   uuid.UUID
		}
		counts := map[edgeKey]int64{}
		order := []edgeKey{}

		// events arrive ordered by (subscriber, seq); each consecutive pair
		// within one subscriber is a transition. Campaign uniqueness per
		// subscriber means a pair can occur at most once per subscriber, so
		// the running count equals the distinct-subscriber count.
		for i := 1; i < len(events); i++ {
			prev, curr := events[i-1], events[i]
			if prev.SubscriberID != curr.SubscriberID {
				continue
			}
			key := edgeKey{from: prev.CampaignID, to: curr.CampaignID}
			if _, seen := counts[key]; !seen {
				order = append(order, key)
			}
			counts[key]++
		}

		now := time.Now().UTC()
		rebuilt = make([]*types.PathEdge, 0, len(order))
		for _, key := range order {
			rebuilt = append(rebuilt, &types.PathEdge{
				ProjectID:      projectID,
				FromCampaignID: key.from,
				ToCampaignID:   key.to,
				UserCount:      counts[key],
				UpdatedAt:      now,
			})
		}
		return s.edges.ReplaceForProject(ctx, inner, projectID, rebuilt)
	}

	var err error
	if tx != nil {
		err = run(tx)
	} else {
		err = s.db.WithContext(ctx).Transaction(run)
	}
	if err != nil {
		return err
	}

	// best-effort mirror; the relational edges are already committed
	if mirrorErr := graph.SyncPathGraph(ctx, s.neo, s.log, projectID, rebuilt); mirrorErr != nil {
		s.log.Warn("neo4j path graph mirror failed", "project_id", projectID, "error", mirrorErr)
	}
	s.log.Debug("path graph rebuilt", "project_id", projectID, "edges", len(rebuilt))
	return nil
}

func (s *pathGraphService) ListEdges(ctx context.Context, projectID uuid.UUID) ([]*types.PathEdge, error) {
	return s.edges.ListByProject(ctx, nil, projectID)
}
