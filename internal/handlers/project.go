package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/services"
)

type ProjectHandler struct {
	log               *logger.Logger
	projectService    services.ProjectService
	rootService       services.RootCampaignService
	valueStatsService services.ValueStatsService
}

func NewProjectHandler(
	log *logger.Logger,
	projectService services.ProjectService,
	rootService services.RootCampaignService,
	valueStatsService services.ValueStatsService,
) *ProjectHandler {
	return &ProjectHandler{
		log:               log.With("handler", "ProjectHandler"),
		projectService:    projectService,
		rootService:       rootService,
		valueStatsService: valueStatsService,
	}
}

func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	project, err := h.projectService.Create(c.Request.Context(), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"project": project})
}

func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	project, err := h.projectService.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"project": project})
}

func (h *ProjectHandler) ListByMerchant(c *gin.Context) {
	merchantID, ok := pathUUID(c, "merchantID")
	if !ok {
		return
	}
	projects, err := h.projectService.ListByMerchant(c.Request.Context(), merchantID)
	if err != nil {
		h.log.Error("ListByMerchant failed", "error", err, "merchant_id", merchantID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"projects": projects})
}

func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	var req services.UpdateProjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	project, err := h.projectService.Update(c.Request.Context(), id, req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"project": project})
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	if err := h.projectService.Delete(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

type setRootRequest struct {
	CampaignID      uuid.UUID `json:"campaign_id"`
	Confirmed       bool      `json:"confirmed"`
	CandidateReason string    `json:"candidate_reason"`
}

func (h *ProjectHandler) SetRoot(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	var req setRootRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	root, err := h.rootService.SetRoot(c.Request.Context(), projectID, req.CampaignID, req.Confirmed, req.CandidateReason)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"root_campaign": root})
}

func (h *ProjectHandler) RemoveRoot(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	campaignID, ok := pathUUID(c, "campaignID")
	if !ok {
		return
	}
	if err := h.rootService.RemoveRoot(c.Request.Context(), projectID, campaignID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (h *ProjectHandler) ListRoots(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	roots, err := h.rootService.ListRoots(c.Request.Context(), projectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"root_campaigns": roots})
}

type setTagRequest struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	Tag        int       `json:"tag"`
}

func (h *ProjectHandler) SetTag(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	var req setTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	tag, err := h.valueStatsService.SetTag(c.Request.Context(), projectID, req.CampaignID, req.Tag)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"tag": tag})
}

func (h *ProjectHandler) RemoveTag(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	campaignID, ok := pathUUID(c, "campaignID")
	if !ok {
		return
	}
	if err := h.valueStatsService.RemoveTag(c.Request.Context(), projectID, campaignID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (h *ProjectHandler) ListTags(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	tags, err := h.valueStatsService.ListTags(c.Request.Context(), projectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"tags": tags})
}

func (h *ProjectHandler) ValueStats(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	stats, err := h.valueStatsService.ComputeStats(c.Request.Context(), projectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"stats": stats})
}
