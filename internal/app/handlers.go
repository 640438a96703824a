package app

import (
	"github.com/mailpath/mailpath-backend/internal/handlers"
	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/realtime/bus"
)

type Handlers struct {
	Merchant *handlers.MerchantHandler
	Campaign *handlers.CampaignHandler
	Project  *handlers.ProjectHandler
	Analysis *handlers.AnalysisHandler
	Touch    *handlers.TouchHandler
}

func wireHandlers(log *logger.Logger, s Services, progress bus.Bus) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Merchant: handlers.NewMerchantHandler(log, s.Merchant),
		Campaign: handlers.NewCampaignHandler(log, s.Campaign),
		Project:  handlers.NewProjectHandler(log, s.Project, s.RootCampaign, s.ValueStats),
		Analysis: handlers.NewAnalysisHandler(log, s.Analysis, s.Validator, s.Attribution, s.PathGraph, progress),
		Touch:    handlers.NewTouchHandler(log, s.Touch),
	}
}
