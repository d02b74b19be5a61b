package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"affiliate-program/internal/services"
)

type WebhookHandler struct {
	transactionService *services.TransactionService
	commissionService  *services.CommissionService
}

func NewWebhookHandler(
	transactionService *services.TransactionService,
	commissionService *services.CommissionService,
) *WebhookHandler {
	return &WebhookHandler{
		transactionService: transactionService,
		commissionService:  commissionService,
	}
}

// HandlePaymentWebhook ingests a payment event from the provider and runs
// commission calculation for it.
//
// The response is always 200: providers retry on non-2xx, and a duplicate or
// failed calculation must not trigger a redelivery storm. Failures are
// reported in the body and logged.
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	var req struct {
		ExternalID     string          `json:"external_id" binding:"required"`
		ReferredUserID uint            `json:"referred_user_id" binding:"required"`
		Amount         decimal.Decimal `json:"amount" binding:"required"`
		Currency       string          `json:"currency"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}

	transaction, err := h.transactionService.Record(services.RecordTransactionInput{
		ReferredUserID: req.ReferredUserID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		ExternalID:     req.ExternalID,
	})
	if err != nil {
		log.Printf("Webhook: failed to record payment %s: %v", req.ExternalID, err)
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}

	commissions, err := h.commissionService.Calculate(transaction.ID)
	if err != nil {
		log.Printf("Webhook: commission calculation failed for transaction %d: %v", transaction.ID, err)
		c.JSON(http.StatusOK, gin.H{
			"success":        false,
			"transaction_id": transaction.ID,
			"error":          "commission calculation failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"transaction_id":      transaction.ID,
		"commissions_created": len(commissions),
	})
}
