package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payout statuses
const (
	PayoutStatusPending    = "pending"
	PayoutStatusProcessing = "processing"
	PayoutStatusPaid       = "paid"
	PayoutStatusFailed     = "failed"
	PayoutStatusCancelled  = "cancelled"
)

// Payment methods
const (
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodEWallet      = "e_wallet"
	PaymentMethodPaypal       = "paypal"
	PaymentMethodCrypto       = "crypto"
)

// Payout is one withdrawal request by one affiliate against their approved
// commission balance. paid and failed are terminal.
type Payout struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	AffiliateID    uint            `gorm:"not null;index" json:"affiliate_id"`
	Affiliate      *Affiliate      `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"`
	Amount         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaymentMethod  string          `gorm:"size:20;not null" json:"payment_method"` // bank_transfer, e_wallet, paypal, crypto
	Status         string          `gorm:"size:20;default:pending;index" json:"status"`
	RequestedAt    time.Time       `gorm:"not null" json:"requested_at"`
	ProcessedAt    *time.Time      `json:"processed_at,omitempty"`
	AdminNotes     *string         `gorm:"type:text" json:"admin_notes,omitempty"`
	PaymentDetails *string         `gorm:"type:text" json:"payment_details,omitempty"`
	FailureReason  *string         `gorm:"type:text" json:"failure_reason,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Payout model
func (Payout) TableName() string {
	return "payouts"
}

// IsPending reports whether the payout awaits admin action
func (p *Payout) IsPending() bool {
	return p.Status == PayoutStatusPending
}

// IsProcessing reports whether an admin picked the payout up
func (p *Payout) IsProcessing() bool {
	return p.Status == PayoutStatusProcessing
}

// IsPaid reports whether the payout settled
func (p *Payout) IsPaid() bool {
	return p.Status == PayoutStatusPaid
}

// InFlight reports whether the payout still counts against available balance
func (p *Payout) InFlight() bool {
	return p.IsPending() || p.IsProcessing() || p.IsPaid()
}

// CanProcess is true only while the payout is pending
func (p *Payout) CanProcess() bool {
	return p.Status == PayoutStatusPending
}

// CanCancel is true for pending and processing payouts
func (p *Payout) CanCancel() bool {
	return p.Status == PayoutStatusPending || p.Status == PayoutStatusProcessing
}
