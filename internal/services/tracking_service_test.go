package services

import (
	"context"
	"errors"
	"testing"

	"affiliate-program/internal/cache"
	"affiliate-program/internal/models"
)

// fakeCookieStore keeps tracking cookies in a map so tests don't need redis
type fakeCookieStore struct {
	cookies map[string]cache.TrackingCookie
}

func newFakeCookieStore() *fakeCookieStore {
	return &fakeCookieStore{cookies: make(map[string]cache.TrackingCookie)}
}

func (f *fakeCookieStore) Set(_ context.Context, cookieID string, data cache.TrackingCookie) error {
	f.cookies[cookieID] = data
	return nil
}

func (f *fakeCookieStore) Get(_ context.Context, cookieID string) (*cache.TrackingCookie, error) {
	data, ok := f.cookies[cookieID]
	if !ok {
		return nil, nil
	}
	return &data, nil
}

func (f *fakeCookieStore) Delete(_ context.Context, cookieID string) error {
	delete(f.cookies, cookieID)
	return nil
}

func TestTrackClick(t *testing.T) {
	db := setupTestDB(t)
	store := newFakeCookieStore()
	service := NewTrackingService(db, store)

	chain := createChain(t, db, 1)

	result, err := service.TrackClick(context.Background(), chain[0].ReferralCode, "203.0.113.7", "Mozilla/5.0", "https://blog.example.com")
	if err != nil {
		t.Fatalf("TrackClick failed: %v", err)
	}

	if result.AffiliateID != chain[0].ID {
		t.Errorf("expected affiliate %d, got %d", chain[0].ID, result.AffiliateID)
	}
	if result.CookieID == "" {
		t.Fatal("expected a cookie id")
	}

	stored, ok := store.cookies[result.CookieID]
	if !ok {
		t.Fatal("expected the tracking cookie to be stored")
	}
	if stored.AffiliateID != chain[0].ID || stored.ReferralCode != chain[0].ReferralCode {
		t.Errorf("cookie payload mismatch: %+v", stored)
	}

	var event models.ReferralEvent
	if err := db.Where("affiliate_id = ? AND event_type = ?", chain[0].ID, models.ReferralEventClick).First(&event).Error; err != nil {
		t.Fatalf("expected a click event: %v", err)
	}
	if event.CookieID == nil || *event.CookieID != result.CookieID {
		t.Errorf("expected the event to reference cookie %s", result.CookieID)
	}
	if event.Referrer == nil || *event.Referrer != "https://blog.example.com" {
		t.Errorf("expected referrer to be recorded")
	}
}

func TestTrackClickUnknownCode(t *testing.T) {
	db := setupTestDB(t)
	service := NewTrackingService(db, newFakeCookieStore())

	_, err := service.TrackClick(context.Background(), "NOSUCH01", "203.0.113.7", "Mozilla/5.0", "")
	if !errors.Is(err, ErrReferralCodeNotFound) {
		t.Errorf("expected ErrReferralCodeNotFound, got %v", err)
	}
}

func TestTrackSignupViaCookie(t *testing.T) {
	db := setupTestDB(t)
	store := newFakeCookieStore()
	service := NewTrackingService(db, store)

	chain := createChain(t, db, 1)

	click, err := service.TrackClick(context.Background(), chain[0].ReferralCode, "203.0.113.7", "Mozilla/5.0", "")
	if err != nil {
		t.Fatalf("TrackClick failed: %v", err)
	}

	user := models.User{Email: "signup@example.com", Password: "hash", Role: models.RoleUser}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	referred, err := service.TrackSignup(context.Background(), TrackSignupInput{
		UserID:   user.ID,
		Email:    user.Email,
		CookieID: click.CookieID,
	})
	if err != nil {
		t.Fatalf("TrackSignup failed: %v", err)
	}
	if referred == nil {
		t.Fatal("expected an attributed signup")
	}

	if referred.AffiliateID != chain[0].ID {
		t.Errorf("expected attribution to affiliate %d, got %d", chain[0].ID, referred.AffiliateID)
	}
	if referred.ReferralCode != chain[0].ReferralCode {
		t.Errorf("expected referral code %s, got %s", chain[0].ReferralCode, referred.ReferralCode)
	}
	if !referred.HasCompletedRegistration() {
		t.Errorf("expected the user link to be set")
	}

	// The cookie is single-use
	if _, ok := store.cookies[click.CookieID]; ok {
		t.Errorf("expected the tracking cookie to be deleted after signup")
	}

	var event models.ReferralEvent
	if err := db.Where("event_type = ? AND referred_user_id = ?", models.ReferralEventSignup, referred.ID).First(&event).Error; err != nil {
		t.Fatalf("expected a signup event: %v", err)
	}
}

func TestTrackSignupCookieBeatsURLCode(t *testing.T) {
	db := setupTestDB(t)
	store := newFakeCookieStore()
	service := NewTrackingService(db, store)

	chain := createChain(t, db, 2)
	cookieOwner := chain[0]
	urlOwner := chain[1]

	click, err := service.TrackClick(context.Background(), cookieOwner.ReferralCode, "203.0.113.7", "Mozilla/5.0", "")
	if err != nil {
		t.Fatalf("TrackClick failed: %v", err)
	}

	referred, err := service.TrackSignup(context.Background(), TrackSignupInput{
		UserID:       1,
		Email:        "contested@example.com",
		CookieID:     click.CookieID,
		ReferralCode: urlOwner.ReferralCode,
	})
	if err != nil {
		t.Fatalf("TrackSignup failed: %v", err)
	}
	if referred == nil {
		t.Fatal("expected an attributed signup")
	}
	if referred.AffiliateID != cookieOwner.ID {
		t.Errorf("cookie attribution must win: expected affiliate %d, got %d", cookieOwner.ID, referred.AffiliateID)
	}
}

func TestTrackSignupFallsBackToURLCode(t *testing.T) {
	db := setupTestDB(t)
	service := NewTrackingService(db, newFakeCookieStore())

	chain := createChain(t, db, 1)

	// Expired or missing cookie, but the signup URL still carries the code
	referred, err := service.TrackSignup(context.Background(), TrackSignupInput{
		UserID:       1,
		Email:        "late@example.com",
		CookieID:     "expired-cookie",
		ReferralCode: chain[0].ReferralCode,
	})
	if err != nil {
		t.Fatalf("TrackSignup failed: %v", err)
	}
	if referred == nil {
		t.Fatal("expected URL-code attribution")
	}
	if referred.AffiliateID != chain[0].ID {
		t.Errorf("expected affiliate %d, got %d", chain[0].ID, referred.AffiliateID)
	}
}

func TestTrackSignupUnattributed(t *testing.T) {
	db := setupTestDB(t)
	service := NewTrackingService(db, newFakeCookieStore())

	referred, err := service.TrackSignup(context.Background(), TrackSignupInput{
		UserID: 1,
		Email:  "organic@example.com",
	})
	if err != nil {
		t.Fatalf("TrackSignup failed: %v", err)
	}
	if referred != nil {
		t.Errorf("expected nil for an organic signup, got %+v", referred)
	}

	var count int64
	db.Model(&models.ReferredUser{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no referred user records, got %d", count)
	}
}
