package models

import (
	"time"
)

// Affiliate statuses
const (
	AffiliateStatusActive    = "active"
	AffiliateStatusInactive  = "inactive"
	AffiliateStatusSuspended = "suspended"
)

// Affiliate represents a user enrolled in the referral program. Affiliates form
// a tree through ParentAffiliateID; Tier is the 1-based depth from the root.
type Affiliate struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	User              *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ReferralCode      string     `gorm:"uniqueIndex;size:20;not null" json:"referral_code"`
	ParentAffiliateID *uint      `gorm:"index" json:"parent_affiliate_id,omitempty"`
	Parent            *Affiliate `gorm:"foreignKey:ParentAffiliateID" json:"parent,omitempty"`
	Tier              int        `gorm:"default:1" json:"tier"`
	Status            string     `gorm:"size:20;default:active" json:"status"` // active, inactive, suspended
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Affiliate model
func (Affiliate) TableName() string {
	return "affiliates"
}

// IsActive returns true while the affiliate may earn commissions
func (a *Affiliate) IsActive() bool {
	return a.Status == AffiliateStatusActive
}
