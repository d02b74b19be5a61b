package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"sync"

	"gorm.io/gorm"

	"affiliate-program/internal/models"
)

// maxChainDepth caps parent-chain traversal. A longer chain is silently
// truncated; this also guards against accidental cycles in the tree.
const maxChainDepth = 10

const referralCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const referralCodeLength = 8
const maxCodeAttempts = 5

type AffiliateService struct {
	db *gorm.DB
	mu sync.Mutex
}

func NewAffiliateService(db *gorm.DB) *AffiliateService {
	return &AffiliateService{
		db: db,
	}
}

// BecomeAffiliate enrolls a user into the affiliate program. The operation is
// idempotent: a second call for the same user returns the existing record. If
// a parent referral code is supplied and resolves, the new affiliate joins the
// tree one tier below its parent.
func (s *AffiliateService) BecomeAffiliate(userID uint, parentReferralCode string) (*models.Affiliate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing models.Affiliate
	err := s.db.Where("user_id = ?", userID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var parentAffiliateID *uint
	tier := 1

	if parentReferralCode != "" {
		parent, err := s.FindByReferralCode(parentReferralCode)
		if err == nil {
			parentAffiliateID = &parent.ID
			tier = parent.Tier + 1
		} else if !errors.Is(err, ErrReferralCodeNotFound) {
			return nil, err
		}
	}

	code, err := s.generateUniqueCode()
	if err != nil {
		return nil, err
	}

	affiliate := models.Affiliate{
		UserID:            userID,
		ReferralCode:      code,
		ParentAffiliateID: parentAffiliateID,
		Tier:              tier,
		Status:            models.AffiliateStatusActive,
	}

	if err := s.db.Create(&affiliate).Error; err != nil {
		return nil, fmt.Errorf("failed to create affiliate: %w", err)
	}

	log.Printf("Created affiliate %d for user %d with code %s (tier %d)", affiliate.ID, userID, code, tier)
	return &affiliate, nil
}

// FindByID returns the affiliate with the given id
func (s *AffiliateService) FindByID(id uint) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	if err := s.db.First(&affiliate, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAffiliateNotFound
		}
		return nil, err
	}
	return &affiliate, nil
}

// FindByUserID returns the affiliate record owned by a user
func (s *AffiliateService) FindByUserID(userID uint) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	if err := s.db.Where("user_id = ?", userID).First(&affiliate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAffiliateNotFound
		}
		return nil, err
	}
	return &affiliate, nil
}

// FindByReferralCode resolves a shareable referral code
func (s *AffiliateService) FindByReferralCode(code string) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	if err := s.db.Where("referral_code = ?", code).First(&affiliate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReferralCodeNotFound
		}
		return nil, err
	}
	return &affiliate, nil
}

// FindParentChain walks the tree upward from an affiliate and returns
// [self, parent, grandparent, ...]. Level k of a commission calculation maps
// to index k-1. Missing records end the walk; depth is capped.
func (s *AffiliateService) FindParentChain(affiliateID uint) ([]models.Affiliate, error) {
	return findParentChain(s.db, affiliateID)
}

func findParentChain(db *gorm.DB, affiliateID uint) ([]models.Affiliate, error) {
	chain := make([]models.Affiliate, 0, 4)
	currentID := &affiliateID

	for currentID != nil && len(chain) < maxChainDepth {
		var affiliate models.Affiliate
		if err := db.First(&affiliate, *currentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return nil, err
		}

		chain = append(chain, affiliate)
		currentID = affiliate.ParentAffiliateID
	}

	return chain, nil
}

// generateUniqueCode retries random codes until one is free of collisions
func (s *AffiliateService) generateUniqueCode() (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randomReferralCode()
		if err != nil {
			return "", err
		}

		var count int64
		if err := s.db.Model(&models.Affiliate{}).Where("referral_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}

	return "", ErrReferralCodeExhausted
}

func randomReferralCode() (string, error) {
	b := make([]byte, referralCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = referralCodeChars[int(b[i])%len(referralCodeChars)]
	}
	return string(b), nil
}
