package app

import (
	"github.com/gin-gonic/gin"

	"github.com/mailpath/mailpath-backend/internal/server"
)

func wireRouter(cfg Config, h Handlers) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ServiceName:     cfg.ServiceName,
		AllowedOrigins:  cfg.AllowedOrigins,
		MerchantHandler: h.Merchant,
		CampaignHandler: h.Campaign,
		ProjectHandler:  h.Project,
		AnalysisHandler: h.Analysis,
		TouchHandler:    h.Touch,
	})
}
