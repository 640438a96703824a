package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/realtime/bus"
	"github.com/mailpath/mailpath-backend/internal/services"
)

type AnalysisHandler struct {
	log                *logger.Logger
	analysisService    services.AnalysisService
	validatorService   services.ValidatorService
	attributionService services.AttributionService
	pathGraphService   services.PathGraphService
	progress           bus.Bus
}

func NewAnalysisHandler(
	log *logger.Logger,
	analysisService services.AnalysisService,
	validatorService services.ValidatorService,
	attributionService services.AttributionService,
	pathGraphService services.PathGraphService,
	progress bus.Bus,
) *AnalysisHandler {
	return &AnalysisHandler{
		log:                log.With("handler", "AnalysisHandler"),
		analysisService:    analysisService,
		validatorService:   validatorService,
		attributionService: attributionService,
		pathGraphService:   pathGraphService,
		progress:           progress,
	}
}

func (h *AnalysisHandler) Run(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	result, err := h.analysisService.Run(c.Request.Context(), projectID)
	if err != nil {
		h.log.Error("Run failed", "error", err, "project_id", projectID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"analysis": result})
}

func (h *AnalysisHandler) Reanalyze(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	result, err := h.analysisService.Reanalyze(c.Request.Context(), projectID)
	if err != nil {
		h.log.Error("Reanalyze failed", "error", err, "project_id", projectID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"analysis": result})
}

func (h *AnalysisHandler) Validate(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	report, err := h.validatorService.Validate(c.Request.Context(), projectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"report": report})
}

func (h *AnalysisHandler) Repair(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	result, err := h.validatorService.Repair(c.Request.Context(), projectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"repair": result})
}

func (h *AnalysisHandler) ListAttributions(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	attributions, err := h.attributionService.ListAttributions(c.Request.Context(), projectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"attributions": attributions})
}

func (h *AnalysisHandler) AttributionStats(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	stats, err := h.attributionService.Stats(c.Request.Context(), projectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"stats": stats})
}

func (h *AnalysisHandler) ListEdges(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	edges, err := h.pathGraphService.ListEdges(c.Request.Context(), projectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"edges": edges})
}

// StreamProgress serves analysis progress for one project over SSE until the
// client disconnects.
func (h *AnalysisHandler) StreamProgress(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	if h.progress == nil {
		RespondError(c, http.StatusServiceUnavailable, "progress_unavailable", nil)
		return
	}

	events := make(chan bus.ProgressEvent, 16)
	err := h.progress.Subscribe(c.Request.Context(), func(event bus.ProgressEvent) {
		if event.ProjectID != projectID {
			return
		}
		select {
		case events <- event:
		default: // slow client, drop rather than stall the bus
		}
	})
	if err != nil {
		h.log.Error("progress subscribe failed", "error", err, "project_id", projectID)
		RespondServiceError(c, err)
		return
	}

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case event := <-events:
			c.SSEvent("progress", event)
			return event.Phase != "done"
		case <-c.Request.Context().Done():
			return false
		}
	})
}
