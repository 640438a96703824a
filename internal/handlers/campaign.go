package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/services"
)

type CampaignHandler struct {
	log             *logger.Logger
	campaignService services.CampaignService
}

func NewCampaignHandler(log *logger.Logger, campaignService services.CampaignService) *CampaignHandler {
	return &CampaignHandler{
		log:             log.With("handler", "CampaignHandler"),
		campaignService: campaignService,
	}
}

func (h *CampaignHandler) Create(c *gin.Context) {
	var req services.CreateCampaignInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	campaign, err := h.campaignService.Create(c.Request.Context(), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"campaign": campaign})
}

func (h *CampaignHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "campaignID")
	if !ok {
		return
	}
	campaign, err := h.campaignService.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"campaign": campaign})
}

func (h *CampaignHandler) ListByMerchant(c *gin.Context) {
	merchantID, ok := pathUUID(c, "merchantID")
	if !ok {
		return
	}
	campaigns, err := h.campaignService.ListByMerchant(c.Request.Context(), merchantID)
	if err != nil {
		h.log.Error("ListByMerchant failed", "error", err, "merchant_id", merchantID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"campaigns": campaigns})
}

func (h *CampaignHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "campaignID")
	if !ok {
		return
	}
	var req services.UpdateCampaignInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	campaign, err := h.campaignService.Update(c.Request.Context(), id, req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"campaign": campaign})
}

func (h *CampaignHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "campaignID")
	if !ok {
		return
	}
	if err := h.campaignService.Delete(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
