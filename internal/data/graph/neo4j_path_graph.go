package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/platform/neo4jdb"
	"github.com/mailpath/mailpath-backend/internal/types"
)

// SyncPathGraph mirrors a project's rebuilt transition graph into Neo4j for
// visualization. The relational path_edge table stays the source of truth;
// this projection is replaced wholesale on every rebuild.
func SyncPathGraph(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, projectID uuid.UUID, edges []*types.PathEdge) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if projectID == uuid.Nil {
		return fmt.Errorf("neo4j path graph sync: missing projectID")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	rels := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		if e == nil || e.FromCampaignID == uuid.Nil || e.ToCampaignID == uuid.Nil {
			continue
		}
		rels = append(rels, map[string]any{
			"project_id": projectID.String(),
			"from_id":    e.FromCampaignID.String(),
			"to_id":      e.ToCampaignID.String(),
			"user_count": e.UserCount,
			"synced_at":  now,
		})
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer func() { _ = session.Close(ctx) }()

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
			MATCH (:Campaign)-[r:LEADS_TO {project_id: $project_id}]->(:Campaign)
			DELETE r
		`, map[string]any{"project_id": projectID.String()}); err != nil {
			return nil, err
		}
		if len(rels) == 0 {
			return nil, nil
		}
		if _, err := tx.Run(ctx, `
			UNWIND $rels AS rel
			MERGE (from:Campaign {id: rel.from_id})
			MERGE (to:Campaign {id: rel.to_id})
			CREATE (from)-[r:LEADS_TO {project_id: rel.project_id}]->(to)
			SET r.user_count = rel.user_count,
				r.synced_at = rel.synced_at
		`, map[string]any{"rels": rels}); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("neo4j path graph sync: %w", err)
	}
	if log != nil {
		log.Debug("path graph mirrored to neo4j", "project_id", projectID, "edges", len(rels))
	}
	return nil
}

// DeletePathGraph removes a project's mirrored edges; used by the project
// deletion cascade.
func DeletePathGraph(ctx context.Context, client *neo4jdb.Client, projectID uuid.UUID) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer func() { _ = session.Close(ctx) }()

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MATCH (:Campaign)-[r:LEADS_TO {project_id: $project_id}]->(:Campaign)
			DELETE r
		`, map[string]any{"project_id": projectID.String()})
	})
	return err
}
