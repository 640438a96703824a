package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/services"
)

type TouchHandler struct {
	log          *logger.Logger
	touchService services.TouchService
}

func NewTouchHandler(log *logger.Logger, touchService services.TouchService) *TouchHandler {
	return &TouchHandler{
		log:          log.With("handler", "TouchHandler"),
		touchService: touchService,
	}
}

type ingestRequest struct {
	Touches []services.TouchInput `json:"touches"`
}

func (h *TouchHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	inserted, err := h.touchService.Ingest(c.Request.Context(), req.Touches)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"ingested": len(inserted)})
}
