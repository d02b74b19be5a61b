package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"affiliate-program/internal/models"
	"affiliate-program/internal/services"
)

type CampaignHandler struct {
	campaignService *services.CampaignService
}

func NewCampaignHandler(campaignService *services.CampaignService) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
	}
}

type campaignRequest struct {
	Name        string                  `json:"name" binding:"required"`
	StartDate   time.Time               `json:"start_date" binding:"required"`
	EndDate     time.Time               `json:"end_date" binding:"required"`
	RewardType  string                  `json:"reward_type" binding:"required,oneof=percentage fixed voucher"`
	RewardValue decimal.Decimal         `json:"reward_value"`
	LevelRates  map[int]decimal.Decimal `json:"multi_level_config"`
	CookieTTL   int                     `json:"cookie_ttl"`
}

func (r *campaignRequest) toInput() services.CreateCampaignInput {
	return services.CreateCampaignInput{
		Name:        r.Name,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		RewardType:  r.RewardType,
		RewardValue: r.RewardValue,
		LevelRates:  models.LevelRates(r.LevelRates),
		CookieTTL:   r.CookieTTL,
	}
}

// CreateCampaign creates a new reward campaign
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req campaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !req.EndDate.After(req.StartDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be after start_date"})
		return
	}

	campaign, err := h.campaignService.Create(req.toInput())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create campaign"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    campaign,
	})
}

// ListCampaigns returns all campaigns, newest first
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	campaigns, err := h.campaignService.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get campaigns"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    campaigns,
		"count":   len(campaigns),
	})
}

// GetCampaign returns one campaign by id
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid campaign id"})
		return
	}

	campaign, err := h.campaignService.FindByID(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrCampaignNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get campaign"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    campaign,
	})
}

// GetActiveCampaign returns the campaign currently in effect
func (h *CampaignHandler) GetActiveCampaign(c *gin.Context) {
	campaign, err := h.campaignService.FindActiveCampaign(time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get campaign"})
		return
	}
	if campaign == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active campaign"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    campaign,
	})
}

// UpdateCampaign replaces a campaign's configuration
func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid campaign id"})
		return
	}

	var req campaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	campaign, err := h.campaignService.Update(uint(id), req.toInput())
	if err != nil {
		if errors.Is(err, services.ErrCampaignNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update campaign"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    campaign,
	})
}

// UpdateCampaignStatus moves a campaign between active, inactive and expired
func (h *CampaignHandler) UpdateCampaignStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid campaign id"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required,oneof=active inactive expired"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	campaign, err := h.campaignService.UpdateStatus(uint(id), req.Status)
	if err != nil {
		if errors.Is(err, services.ErrCampaignNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update campaign status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    campaign,
	})
}

// DeleteCampaign removes a campaign
func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid campaign id"})
		return
	}

	if err := h.campaignService.Delete(uint(id)); err != nil {
		if errors.Is(err, services.ErrCampaignNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete campaign"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Campaign deleted",
	})
}
