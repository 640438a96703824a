package app

import (
	"gorm.io/gorm"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/platform/neo4jdb"
	"github.com/mailpath/mailpath-backend/internal/realtime/bus"
	"github.com/mailpath/mailpath-backend/internal/services"
)

type Services struct {
	Merchant     services.MerchantService
	Campaign     services.CampaignService
	Project      services.ProjectService
	RootCampaign services.RootCampaignService
	Touch        services.TouchService
	Sequencer    services.SequencerService
	Attribution  services.AttributionService
	PathGraph    services.PathGraphService
	Analysis     services.AnalysisService
	Validator    services.ValidatorService
	ValueStats   services.ValueStatsService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, graphClient *neo4jdb.Client, progress bus.Bus) Services {
	log.Info("Wiring services...")

	sequencer := services.NewSequencerService(db, log, r.PathEvent)
	attribution := services.NewAttributionService(db, log, r.PathAttribution, r.PathEvent)
	pathGraph := services.NewPathGraphService(db, log, r.PathEvent, r.PathEdge, graphClient)

	return Services{
		Merchant:     services.NewMerchantService(db, log, r.Merchant),
		Campaign:     services.NewCampaignService(db, log, r.Merchant, r.Campaign),
		Project:      services.NewProjectService(db, log, graphClient, r.Merchant, r.Project, r.RootCampaign, r.PathAttribution, r.PathEvent, r.PathEdge, r.CampaignTag),
		RootCampaign: services.NewRootCampaignService(db, log, r.RootCampaign, r.Project, r.Campaign),
		Touch:        services.NewTouchService(db, log, r.Touch),
		Sequencer:    sequencer,
		Attribution:  attribution,
		PathGraph:    pathGraph,
		Analysis: services.NewAnalysisService(
			db, log, cfg.AnalysisConcurrency,
			r.Project, r.RootCampaign, r.Touch,
			r.PathAttribution, r.PathEvent, r.PathEdge,
			sequencer, attribution, pathGraph, progress,
		),
		Validator:  services.NewValidatorService(db, log, r.PathEvent, pathGraph),
		ValueStats: services.NewValueStatsService(db, log, r.Project, r.Campaign, r.CampaignTag, r.PathAttribution, r.PathEvent),
	}
}
