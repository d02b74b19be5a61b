package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"affiliate-program/internal/models"
)

type CampaignService struct {
	db *gorm.DB
}

func NewCampaignService(db *gorm.DB) *CampaignService {
	return &CampaignService{
		db: db,
	}
}

// CreateCampaignInput carries the admin-provided campaign configuration
type CreateCampaignInput struct {
	Name        string
	StartDate   time.Time
	EndDate     time.Time
	RewardType  string
	RewardValue decimal.Decimal
	LevelRates  models.LevelRates
	CookieTTL   int
}

// Create stores a new campaign, active immediately
func (s *CampaignService) Create(input CreateCampaignInput) (*models.Campaign, error) {
	cookieTTL := input.CookieTTL
	if cookieTTL == 0 {
		cookieTTL = 30
	}

	campaign := models.Campaign{
		Name:        input.Name,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		RewardType:  input.RewardType,
		RewardValue: input.RewardValue,
		LevelRates:  input.LevelRates,
		CookieTTL:   cookieTTL,
		Status:      models.CampaignStatusActive,
	}

	if err := s.db.Create(&campaign).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

// FindByID returns a campaign by id
func (s *CampaignService) FindByID(id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := s.db.First(&campaign, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	return &campaign, nil
}

// List returns all campaigns, newest first
func (s *CampaignService) List() ([]models.Campaign, error) {
	var campaigns []models.Campaign
	if err := s.db.Order("created_at DESC").Find(&campaigns).Error; err != nil {
		return nil, err
	}
	return campaigns, nil
}

// FindActiveCampaign returns the campaign considered active at the given
// instant, or nil when none qualifies. Ties break toward the most recently
// created campaign.
func (s *CampaignService) FindActiveCampaign(at time.Time) (*models.Campaign, error) {
	return findActiveCampaign(s.db, at)
}

func findActiveCampaign(db *gorm.DB, at time.Time) (*models.Campaign, error) {
	var campaign models.Campaign
	err := db.
		Where("status = ? AND start_date <= ? AND end_date >= ?", models.CampaignStatusActive, at, at).
		Order("created_at DESC").
		First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}

// UpdateStatus moves a campaign between active, inactive and expired.
// Expiry is an admin action, never automatic.
func (s *CampaignService) UpdateStatus(id uint, status string) (*models.Campaign, error) {
	campaign, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(campaign).Update("status", status).Error; err != nil {
		return nil, err
	}

	campaign.Status = status
	return campaign, nil
}

// Update replaces the mutable configuration of a campaign
func (s *CampaignService) Update(id uint, input CreateCampaignInput) (*models.Campaign, error) {
	campaign, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}

	campaign.Name = input.Name
	campaign.StartDate = input.StartDate
	campaign.EndDate = input.EndDate
	campaign.RewardType = input.RewardType
	campaign.RewardValue = input.RewardValue
	campaign.LevelRates = input.LevelRates
	if input.CookieTTL > 0 {
		campaign.CookieTTL = input.CookieTTL
	}

	if err := s.db.Save(campaign).Error; err != nil {
		return nil, err
	}

	return campaign, nil
}

// Delete removes a campaign
func (s *CampaignService) Delete(id uint) error {
	result := s.db.Delete(&models.Campaign{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCampaignNotFound
	}
	return nil
}
