package app

import (
	"gorm.io/gorm"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/repos"
)

type Repos struct {
	Merchant        repos.MerchantRepo
	Campaign        repos.CampaignRepo
	Project         repos.ProjectRepo
	RootCampaign    repos.RootCampaignRepo
	Touch           repos.TouchRepo
	PathAttribution repos.PathAttributionRepo
	PathEvent       repos.PathEventRepo
	PathEdge        repos.PathEdgeRepo
	CampaignTag     repos.ProjectCampaignTagRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Merchant:        repos.NewMerchantRepo(db, log),
		Campaign:        repos.NewCampaignRepo(db, log),
		Project:         repos.NewProjectRepo(db, log),
		RootCampaign:    repos.NewRootCampaignRepo(db, log),
		Touch:           repos.NewTouchRepo(db, log),
		PathAttribution: repos.NewPathAttributionRepo(db, log),
		PathEvent:       repos.NewPathEventRepo(db, log),
		PathEdge:        repos.NewPathEdgeRepo(db, log),
		CampaignTag:     repos.NewProjectCampaignTagRepo(db, log),
	}
}
