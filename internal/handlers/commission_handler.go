package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"affiliate-program/internal/auth"
	"affiliate-program/internal/models"
	"affiliate-program/internal/services"
)

type CommissionHandler struct {
	affiliateService  *services.AffiliateService
	commissionService *services.CommissionService
}

func NewCommissionHandler(
	affiliateService *services.AffiliateService,
	commissionService *services.CommissionService,
) *CommissionHandler {
	return &CommissionHandler{
		affiliateService:  affiliateService,
		commissionService: commissionService,
	}
}

func (h *CommissionHandler) currentAffiliate(c *gin.Context) (*models.Affiliate, bool) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}

	affiliate, err := h.affiliateService.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, services.ErrAffiliateNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not an affiliate"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve affiliate"})
		}
		return nil, false
	}
	return affiliate, true
}

// GetMyCommissions lists the authenticated affiliate's commissions, optionally
// filtered by ?status=
func (h *CommissionHandler) GetMyCommissions(c *gin.Context) {
	affiliate, ok := h.currentAffiliate(c)
	if !ok {
		return
	}

	commissions, err := h.commissionService.FindByAffiliateID(affiliate.ID, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get commissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    commissions,
		"count":   len(commissions),
	})
}

// GetMyEarnings returns an earnings breakdown by commission status
func (h *CommissionHandler) GetMyEarnings(c *gin.Context) {
	affiliate, ok := h.currentAffiliate(c)
	if !ok {
		return
	}

	total, err := h.commissionService.TotalEarnings(affiliate.ID, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get earnings"})
		return
	}

	breakdown := gin.H{"total": total}
	for _, status := range []string{
		models.CommissionStatusPending,
		models.CommissionStatusApproved,
		models.CommissionStatusPaid,
	} {
		sum, err := h.commissionService.TotalEarnings(affiliate.ID, status)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get earnings"})
			return
		}
		breakdown[status] = sum
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    breakdown,
	})
}

// GetPendingCommissions lists all commissions awaiting admin review
func (h *CommissionHandler) GetPendingCommissions(c *gin.Context) {
	commissions, err := h.commissionService.FindPending()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get commissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    commissions,
		"count":   len(commissions),
	})
}

// ApproveCommission marks a commission as approved
func (h *CommissionHandler) ApproveCommission(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid commission id"})
		return
	}

	commission, err := h.commissionService.Approve(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrCommissionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Commission not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve commission"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    commission,
	})
}

// RejectCommission marks a commission as rejected with a reason
func (h *CommissionHandler) RejectCommission(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid commission id"})
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	_ = c.ShouldBindJSON(&req)

	commission, err := h.commissionService.Reject(uint(id), req.Notes)
	if err != nil {
		if errors.Is(err, services.ErrCommissionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Commission not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject commission"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    commission,
	})
}
