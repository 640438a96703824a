package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/services"
)

type MerchantHandler struct {
	log             *logger.Logger
	merchantService services.MerchantService
}

func NewMerchantHandler(log *logger.Logger, merchantService services.MerchantService) *MerchantHandler {
	return &MerchantHandler{
		log:             log.With("handler", "MerchantHandler"),
		merchantService: merchantService,
	}
}

type merchantRequest struct {
	Name string `json:"name"`
}

func (h *MerchantHandler) Create(c *gin.Context) {
	var req merchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	merchant, err := h.merchantService.Create(c.Request.Context(), req.Name)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"merchant": merchant})
}

func (h *MerchantHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "merchantID")
	if !ok {
		return
	}
	merchant, err := h.merchantService.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"merchant": merchant})
}

func (h *MerchantHandler) List(c *gin.Context) {
	merchants, err := h.merchantService.List(c.Request.Context())
	if err != nil {
		h.log.Error("List failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"merchants": merchants})
}

func (h *MerchantHandler) Rename(c *gin.Context) {
	id, ok := pathUUID(c, "merchantID")
	if !ok {
		return
	}
	var req merchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	merchant, err := h.merchantService.Rename(c.Request.Context(), id, req.Name)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"merchant": merchant})
}

func (h *MerchantHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "merchantID")
	if !ok {
		return
	}
	if err := h.merchantService.Delete(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
