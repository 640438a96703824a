package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/mailpath/mailpath-backend/internal/handlers"
)

type RouterConfig struct {
	ServiceName     string
	AllowedOrigins  []string
	MerchantHandler *handlers.MerchantHandler
	CampaignHandler *handlers.CampaignHandler
	ProjectHandler  *handlers.ProjectHandler
	AnalysisHandler *handlers.AnalysisHandler
	TouchHandler    *handlers.TouchHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "mailpath-backend"
	}
	router.Use(otelgin.Middleware(serviceName))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Collector write path
		api.POST("/touches", cfg.TouchHandler.Ingest)

		// Catalog
		api.POST("/merchants", cfg.MerchantHandler.Create)
		api.GET("/merchants", cfg.MerchantHandler.List)
		api.GET("/merchants/:merchantID", cfg.MerchantHandler.Get)
		api.PATCH("/merchants/:merchantID", cfg.MerchantHandler.Rename)
		api.DELETE("/merchants/:merchantID", cfg.MerchantHandler.Delete)
		api.GET("/merchants/:merchantID/campaigns", cfg.CampaignHandler.ListByMerchant)
		api.GET("/merchants/:merchantID/projects", cfg.ProjectHandler.ListByMerchant)

		api.POST("/campaigns", cfg.CampaignHandler.Create)
		api.GET("/campaigns/:campaignID", cfg.CampaignHandler.Get)
		api.PATCH("/campaigns/:campaignID", cfg.CampaignHandler.Update)
		api.DELETE("/campaigns/:campaignID", cfg.CampaignHandler.Delete)

		// Projects and per-project configuration
		api.POST("/projects", cfg.ProjectHandler.Create)
		api.GET("/projects/:projectID", cfg.ProjectHandler.Get)
		api.PATCH("/projects/:projectID", cfg.ProjectHandler.Update)
		api.DELETE("/projects/:projectID", cfg.ProjectHandler.Delete)

		api.POST("/projects/:projectID/roots", cfg.ProjectHandler.SetRoot)
		api.GET("/projects/:projectID/roots", cfg.ProjectHandler.ListRoots)
		api.DELETE("/projects/:projectID/roots/:campaignID", cfg.ProjectHandler.RemoveRoot)

		api.POST("/projects/:projectID/tags", cfg.ProjectHandler.SetTag)
		api.GET("/projects/:projectID/tags", cfg.ProjectHandler.ListTags)
		api.DELETE("/projects/:projectID/tags/:campaignID", cfg.ProjectHandler.RemoveTag)

		// Analysis passes and derived state
		api.POST("/projects/:projectID/analysis/run", cfg.AnalysisHandler.Run)
		api.POST("/projects/:projectID/analysis/reanalyze", cfg.AnalysisHandler.Reanalyze)
		api.POST("/projects/:projectID/analysis/validate", cfg.AnalysisHandler.Validate)
		api.POST("/projects/:projectID/analysis/repair", cfg.AnalysisHandler.Repair)
		api.GET("/projects/:projectID/analysis/progress", cfg.AnalysisHandler.StreamProgress)

		api.GET("/projects/:projectID/attributions", cfg.AnalysisHandler.ListAttributions)
		api.GET("/projects/:projectID/attributions/stats", cfg.AnalysisHandler.AttributionStats)
		api.GET("/projects/:projectID/edges", cfg.AnalysisHandler.ListEdges)
		api.GET("/projects/:projectID/value-stats", cfg.ProjectHandler.ValueStats)
	}

	return router
}
