package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"affiliate-program/internal/cache"
	"affiliate-program/internal/models"
)

// CookieStore is the short-TTL attribution store behind click/signup tracking.
// The redis implementation lives in internal/cache; tests use an in-memory fake.
type CookieStore interface {
	Set(ctx context.Context, cookieID string, data cache.TrackingCookie) error
	Get(ctx context.Context, cookieID string) (*cache.TrackingCookie, error)
	Delete(ctx context.Context, cookieID string) error
}

// TrackingService attributes clicks and signups to affiliates
type TrackingService struct {
	db      *gorm.DB
	cookies CookieStore
}

func NewTrackingService(db *gorm.DB, cookies CookieStore) *TrackingService {
	return &TrackingService{
		db:      db,
		cookies: cookies,
	}
}

// ClickResult is returned to the click endpoint so it can set the browser cookie
type ClickResult struct {
	CookieID    string
	AffiliateID uint
}

// TrackClick resolves a referral code, stores an attribution cookie and
// records a click event
func (s *TrackingService) TrackClick(ctx context.Context, referralCode, ipAddress, userAgent, referrer string) (*ClickResult, error) {
	var affiliate models.Affiliate
	if err := s.db.Where("referral_code = ?", referralCode).First(&affiliate).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrReferralCodeNotFound
		}
		return nil, err
	}

	cookieID := uuid.NewString()
	if err := s.cookies.Set(ctx, cookieID, cache.TrackingCookie{
		AffiliateID:  affiliate.ID,
		ReferralCode: referralCode,
		Timestamp:    time.Now(),
	}); err != nil {
		return nil, err
	}

	event := models.ReferralEvent{
		AffiliateID: affiliate.ID,
		EventType:   models.ReferralEventClick,
		IPAddress:   ipAddress,
		UserAgent:   userAgent,
		CookieID:    &cookieID,
	}
	if referrer != "" {
		event.Referrer = &referrer
	}
	if err := s.db.Create(&event).Error; err != nil {
		return nil, err
	}

	return &ClickResult{
		CookieID:    cookieID,
		AffiliateID: affiliate.ID,
	}, nil
}

// TrackSignupInput describes a completed registration to attribute
type TrackSignupInput struct {
	UserID       uint
	Email        string
	CookieID     string
	ReferralCode string
	IPAddress    string
	UserAgent    string
}

// TrackSignup attributes a new registration to an affiliate. The tracking
// cookie wins over a referral code carried in the URL; when neither resolves
// the signup is simply not attributed and nil is returned.
func (s *TrackingService) TrackSignup(ctx context.Context, input TrackSignupInput) (*models.ReferredUser, error) {
	var affiliateID uint
	var referralCode string

	if input.CookieID != "" {
		data, err := s.cookies.Get(ctx, input.CookieID)
		if err != nil {
			return nil, err
		}
		if data != nil {
			affiliateID = data.AffiliateID
			referralCode = data.ReferralCode
		}
	}

	if affiliateID == 0 && input.ReferralCode != "" {
		var affiliate models.Affiliate
		err := s.db.Where("referral_code = ?", input.ReferralCode).First(&affiliate).Error
		if err == nil {
			affiliateID = affiliate.ID
			referralCode = input.ReferralCode
		} else if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}

	if affiliateID == 0 {
		return nil, nil
	}

	userID := input.UserID
	referredUser := models.ReferredUser{
		Email:        input.Email,
		UserID:       &userID,
		ReferralCode: referralCode,
		AffiliateID:  affiliateID,
	}
	if input.CookieID != "" {
		cookieID := input.CookieID
		referredUser.CookieID = &cookieID
	}

	if err := s.db.Create(&referredUser).Error; err != nil {
		return nil, err
	}

	event := models.ReferralEvent{
		AffiliateID:    affiliateID,
		ReferredUserID: &referredUser.ID,
		EventType:      models.ReferralEventSignup,
		IPAddress:      input.IPAddress,
		UserAgent:      input.UserAgent,
	}
	if referredUser.CookieID != nil {
		event.CookieID = referredUser.CookieID
	}
	if err := s.db.Create(&event).Error; err != nil {
		return nil, err
	}

	// The cookie has done its job
	if input.CookieID != "" {
		if err := s.cookies.Delete(ctx, input.CookieID); err != nil {
			log.Printf("Warning: failed to delete tracking cookie %s: %v", input.CookieID, err)
		}
	}

	return &referredUser, nil
}
