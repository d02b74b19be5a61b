package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction statuses
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
	TransactionStatusRefunded  = "refunded"
)

// Transaction records one payment event reported by the payment provider.
// ExternalID is the provider's idempotency key; a duplicate is rejected.
type Transaction struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	ReferredUserID uint            `gorm:"not null;index" json:"referred_user_id"`
	ReferredUser   *ReferredUser   `gorm:"foreignKey:ReferredUserID" json:"referred_user,omitempty"`
	Amount         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency       string          `gorm:"size:10;default:USD" json:"currency"`
	Status         string          `gorm:"size:20;default:pending" json:"status"` // pending, completed, failed, refunded
	ExternalID     string          `gorm:"uniqueIndex;not null" json:"external_id"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Transaction model
func (Transaction) TableName() string {
	return "transactions"
}

// IsCompleted reports whether the payment went through
func (t *Transaction) IsCompleted() bool {
	return t.Status == TransactionStatusCompleted
}
