package models

import (
	"time"
)

// Referral event types
const (
	ReferralEventClick   = "click"
	ReferralEventSignup  = "signup"
	ReferralEventPayment = "payment"
)

// ReferralEvent is an audit record of attribution activity for an affiliate:
// link clicks, tracked signups and payment events.
type ReferralEvent struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	AffiliateID    uint      `gorm:"not null;index" json:"affiliate_id"`
	ReferredUserID *uint     `gorm:"index" json:"referred_user_id,omitempty"`
	EventType      string    `gorm:"size:20;not null;index" json:"event_type"` // click, signup, payment
	IPAddress      string    `gorm:"size:45" json:"ip_address"`
	UserAgent      string    `gorm:"size:500" json:"user_agent"`
	CookieID       *string   `gorm:"size:100" json:"cookie_id,omitempty"`
	Referrer       *string   `gorm:"size:500" json:"referrer,omitempty"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for ReferralEvent model
func (ReferralEvent) TableName() string {
	return "referral_events"
}
