package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"affiliate-program/internal/auth"
	"affiliate-program/internal/models"
	"affiliate-program/internal/services"
)

type PayoutHandler struct {
	affiliateService *services.AffiliateService
	payoutService    *services.PayoutService
}

func NewPayoutHandler(
	affiliateService *services.AffiliateService,
	payoutService *services.PayoutService,
) *PayoutHandler {
	return &PayoutHandler{
		affiliateService: affiliateService,
		payoutService:    payoutService,
	}
}

// RequestPayout creates a withdrawal request for the authenticated affiliate
func (h *PayoutHandler) RequestPayout(c *gin.Context) {
	affiliate, ok := h.resolveAffiliate(c)
	if !ok {
		return
	}

	var req struct {
		Amount         decimal.Decimal `json:"amount" binding:"required"`
		PaymentMethod  string          `json:"payment_method" binding:"required"`
		PaymentDetails *string         `json:"payment_details"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payout, err := h.payoutService.Request(services.RequestPayoutInput{
		AffiliateID:    affiliate.ID,
		Amount:         req.Amount,
		PaymentMethod:  req.PaymentMethod,
		PaymentDetails: req.PaymentDetails,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPayoutBelowMinimum):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Amount is below the minimum payout threshold"})
		case errors.Is(err, services.ErrInsufficientBalance):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient available balance"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to request payout"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    payout,
	})
}

// GetMyPayouts lists the authenticated affiliate's payout history
func (h *PayoutHandler) GetMyPayouts(c *gin.Context) {
	affiliate, ok := h.resolveAffiliate(c)
	if !ok {
		return
	}

	payouts, err := h.payoutService.FindByAffiliateID(affiliate.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get payouts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    payouts,
		"count":   len(payouts),
	})
}

// GetMyBalance returns the affiliate's withdrawable balance
func (h *PayoutHandler) GetMyBalance(c *gin.Context) {
	affiliate, ok := h.resolveAffiliate(c)
	if !ok {
		return
	}

	balance, err := h.payoutService.AvailableBalance(affiliate.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"available_balance": balance,
		},
	})
}

// ListPayouts lists payouts for admins, optionally filtered by ?status=
func (h *PayoutHandler) ListPayouts(c *gin.Context) {
	payouts, err := h.payoutService.FindByStatus(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get payouts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    payouts,
		"count":   len(payouts),
	})
}

// ProcessPayout resolves a pending payout as paid or failed
func (h *PayoutHandler) ProcessPayout(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payout id"})
		return
	}

	var req struct {
		Status        string  `json:"status" binding:"required"`
		AdminNotes    *string `json:"admin_notes"`
		FailureReason *string `json:"failure_reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payout, err := h.payoutService.Process(services.ProcessPayoutInput{
		PayoutID:      uint(id),
		Status:        req.Status,
		AdminNotes:    req.AdminNotes,
		FailureReason: req.FailureReason,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPayoutNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Payout not found"})
		case errors.Is(err, services.ErrInvalidPayoutStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be paid or failed"})
		case errors.Is(err, services.ErrPayoutNotProcessable):
			c.JSON(http.StatusConflict, gin.H{"error": "Payout is not pending"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process payout"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    payout,
	})
}

func (h *PayoutHandler) resolveAffiliate(c *gin.Context) (*models.Affiliate, bool) {
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
