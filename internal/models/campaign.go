package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reward types
const (
	RewardTypePercentage = "percentage"
	RewardTypeFixed      = "fixed"
	RewardTypeVoucher    = "voucher"
)

// Campaign statuses
const (
	CampaignStatusActive   = "active"
	CampaignStatusInactive = "inactive"
	CampaignStatusExpired  = "expired"
)

// LevelRates maps an affiliate level (1, 2, 3, ...) to the reward magnitude for
// that level: percentage points for percentage campaigns, a flat amount for
// fixed campaigns. Levels absent from the map pay nothing.
type LevelRates map[int]decimal.Decimal

// ForLevel returns the configured rate for a level, zero when unconfigured.
func (r LevelRates) ForLevel(level int) decimal.Decimal {
	if rate, ok := r[level]; ok {
		return rate
	}
	return decimal.Zero
}

// Campaign is a time-boxed reward configuration for the affiliate program
type Campaign struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:200;not null" json:"name"`
	StartDate   time.Time       `gorm:"not null" json:"start_date"`
	EndDate     time.Time       `gorm:"not null" json:"end_date"`
	RewardType  string          `gorm:"size:20;not null" json:"reward_type"` // percentage, fixed, voucher
	RewardValue decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"reward_value"`
	LevelRates  LevelRates      `gorm:"serializer:json" json:"multi_level_config"`
	CookieTTL   int             `gorm:"default:30" json:"cookie_ttl"` // days
	Status      string          `gorm:"size:20;default:active;index" json:"status"` // active, inactive, expired
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Campaign model
func (Campaign) TableName() string {
	return "campaigns"
}

// IsActiveAt reports whether the campaign window covers t and its status is active
func (c *Campaign) IsActiveAt(t time.Time) bool {
	return c.Status == CampaignStatusActive && !t.Before(c.StartDate) && !t.After(c.EndDate)
}
