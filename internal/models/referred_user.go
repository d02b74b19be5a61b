package models

import (
	"time"
)

// ReferredUser is a prospect or customer attributed to one affiliate. UserID is
// linked once the prospect completes registration; until then only the cookie
// and referral code tie them to the affiliate.
type ReferredUser struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"not null" json:"email"`
	UserID       *uint      `gorm:"index" json:"user_id,omitempty"`
	ReferralCode string     `gorm:"size:20;not null" json:"referral_code"`
	AffiliateID  uint       `gorm:"not null;index" json:"affiliate_id"`
	Affiliate    *Affiliate `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"`
	CookieID     *string    `gorm:"size:100" json:"cookie_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName specifies the table name for ReferredUser model
func (ReferredUser) TableName() string {
	return "referred_users"
}

// HasCompletedRegistration reports whether a real account is linked
func (r *ReferredUser) HasCompletedRegistration() bool {
	return r.UserID != nil
}
