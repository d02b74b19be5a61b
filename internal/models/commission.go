package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Commission statuses
const (
	CommissionStatusPending  = "pending"
	CommissionStatusApproved = "approved"
	CommissionStatusRejected = "rejected"
	CommissionStatusPaid     = "paid"
)

// Commission is one reward owed to one affiliate for one transaction at one
// level of the referral chain. The set of commissions for a transaction is
// computed exactly once; only Status, Notes and PayoutID mutate afterwards.
type Commission struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	AffiliateID   uint            `gorm:"not null;index" json:"affiliate_id"`
	Affiliate     *Affiliate      `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"`
	TransactionID uint            `gorm:"not null;index" json:"transaction_id"`
	CampaignID    uint            `gorm:"not null" json:"campaign_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Level         int             `gorm:"not null" json:"level"` // 1 = direct referrer
	Status        string          `gorm:"size:20;default:pending;index" json:"status"` // pending, approved, rejected, paid
	Notes         *string         `gorm:"type:text" json:"notes,omitempty"`
	PayoutID      *uint           `gorm:"index" json:"payout_id,omitempty"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Commission model
func (Commission) TableName() string {
	return "commissions"
}

// IsPending reports whether the commission awaits review
func (c *Commission) IsPending() bool {
	return c.Status == CommissionStatusPending
}

// IsApproved reports whether the commission counts toward withdrawable balance
func (c *Commission) IsApproved() bool {
	return c.Status == CommissionStatusApproved
}

// IsPaid reports whether the commission has been settled against a payout
func (c *Commission) IsPaid() bool {
	return c.Status == CommissionStatusPaid
}
