package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mailpath/mailpath-backend/internal/data/graph"
	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/platform/neo4jdb"
	"github.com/mailpath/mailpath-backend/internal/repos"
	"github.com/mailpath/mailpath-backend/internal/types"
)

type CreateProjectInput struct {
	MerchantID uuid.UUID `json:"merchant_id"`
	Name       string    `json:"name"`
	SourceIDs  []string  `json:"source_ids"`
}

type UpdateProjectInput struct {
	Name      *string   `json:"name,omitempty"`
	SourceIDs *[]string `json:"source_ids,omitempty"`
}

type ProjectService interface {
	Create(ctx context.Context, input CreateProjectInput) (*types.Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Project, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]*types.Project, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProjectInput) (*types.Project, error)
	// Delete removes the project and every derived row keyed by it. Raw
	// touches are shared across projects and are left alone.
	Delete(ctx context.Context, id uuid.UUID) error
}

type projectService struct {
	db           *gorm.DB
	log          *logger.Logger
	graphClient  *neo4jdb.Client
	merchants    repos.MerchantRepo
	projects     repos.ProjectRepo
	roots        repos.RootCampaignRepo
	attributions repos.PathAttributionRepo
	events       repos.PathEventRepo
	edges        repos.PathEdgeRepo
	tags         repos.ProjectCampaignTagRepo
}

func NewProjectService(
	db *gorm.DB,
	baseLog *logger.Logger,
	graphClient *neo4jdb.Client,
	merchants repos.MerchantRepo,
	projects repos.ProjectRepo,
	roots repos.RootCampaignRepo,
	attributions repos.PathAttributionRepo,
	events repos.PathEventRepo,
	edges repos.PathEdgeRepo,
	tags repos.ProjectCampaignTagRepo,
) ProjectService {
	return &projectService{
		db:           db,
		log:          baseLog.With("service", "ProjectService"),
		graphClient:  graphClient,
		merchants:    merchants,
		projects:     projects,
		roots:        roots,
		attributions: attributions,
		events:       events,
		edges:        edges,
		tags:         tags,
	}
}

func encodeSourceIDs(sources []string) (datatypes.JSON, error) {
	if sources == nil {
		sources = []string{}
	}
	raw, err := json.Marshal(sources)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func (s *projectService) Create(ctx context.Context, input CreateProjectInput) (*types.Project, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.MerchantID == uuid.Nil || input.Name == "" {
		return nil, types.InvalidInputError("project: merchantID and name are required")
	}
	if _, err := s.merchants.GetByID(ctx, nil, input.MerchantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFoundError("project: merchant does not exist")
		}
		return nil, err
	}
	sources, err := encodeSourceIDs(input.SourceIDs)
	if err != nil {
		return nil, err
	}
	project, err := s.projects.Create(ctx, nil, &types.Project{
		MerchantID: input.MerchantID,
		Name:       input.Name,
		SourceIDs:  sources,
	})
	if err != nil {
		return nil, types.MapError(err)
	}
	s.log.Info("project created", "project_id", project.ID, "merchant_id", project.MerchantID)
	return project, nil
}

func (s *projectService) GetByID(ctx context.Context, id uuid.UUID) (*types.Project, error) {
	project, err := s.projects.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFoundError("project does not exist")
		}
		return nil, err
	}
	return project, nil
}

func (s *projectService) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]*types.Project, error) {
	return s.projects.ListByMerchant(ctx, nil, merchantID)
}

func (s *projectService) Update(ctx context.Context, id uuid.UUID, input UpdateProjectInput) (*types.Project, error) {
	project, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, types.InvalidInputError("project: name cannot be empty")
		}
		project.Name = name
	}
	if input.SourceIDs != nil {
		sources, err := encodeSourceIDs(*input.SourceIDs)
		if err != nil {
			return nil, err
		}
		project.SourceIDs = sources
	}
	if err := s.projects.Update(ctx, nil, project); err != nil {
		return nil, types.MapError(err)
	}
	return project, nil
}

func (s *projectService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.roots.DeleteByProject(ctx, tx, id); err != nil {
			return err
		}
		if err := s.attributions.DeleteByProject(ctx, tx, id); err != nil {
			return err
		}
		if err := s.events.DeleteByProject(ctx, tx, id); err != nil {
			return err
		}
		if err := s.edges.DeleteByProject(ctx, tx, id); err != nil {
			return err
		}
		if err := s.tags.DeleteByProject(ctx, tx, id); err != nil {
			return err
		}
		return s.projects.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	// best effort, the Neo4j projection is rebuilt from path_edge anyway
	if err := graph.DeletePathGraph(ctx, s.graphClient, id); err != nil {
		s.log.Warn("neo4j path graph cleanup failed", "project_id", id, "error", err)
	}
	s.log.Info("project deleted", "project_id", id)
	return nil
}
