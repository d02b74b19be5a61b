package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"affiliate-program/internal/models"
)

func TestBecomeAffiliate(t *testing.T) {
	db := setupTestDB(t)
	service := NewAffiliateService(db)

	user := models.User{Email: "new@example.com", Password: "hash", Role: models.RoleUser}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	affiliate, err := service.BecomeAffiliate(user.ID, "")
	if err != nil {
		t.Fatalf("BecomeAffiliate failed: %v", err)
	}
	if affiliate.Tier != 1 {
		t.Errorf("expected tier 1 without a parent, got %d", affiliate.Tier)
	}
	if affiliate.ParentAffiliateID != nil {
		t.Errorf("expected no parent, got %v", *affiliate.ParentAffiliateID)
	}
	if len(affiliate.ReferralCode) != referralCodeLength {
		t.Errorf("expected %d-character referral code, got %q", referralCodeLength, affiliate.ReferralCode)
	}
	if affiliate.Status != models.AffiliateStatusActive {
		t.Errorf("expected active status, got %s", affiliate.Status)
	}
}

func TestBecomeAffiliateIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	service := NewAffiliateService(db)

	user := models.User{Email: "repeat@example.com", Password: "hash", Role: models.RoleUser}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	first, err := service.BecomeAffiliate(user.ID, "")
	if err != nil {
		t.Fatalf("first BecomeAffiliate failed: %v", err)
	}
	second, err := service.BecomeAffiliate(user.ID, "")
	if err != nil {
		t.Fatalf("second BecomeAffiliate failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected the same affiliate record, got %d and %d", first.ID, second.ID)
	}
	if first.ReferralCode != second.ReferralCode {
		t.Errorf("referral code changed between calls: %s vs %s", first.ReferralCode, second.ReferralCode)
	}

	var count int64
	db.Model(&models.Affiliate{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 affiliate record, got %d", count)
	}
}

func TestBecomeAffiliateUnderParent(t *testing.T) {
	db := setupTestDB(t)
	service := NewAffiliateService(db)

	parentUser := models.User{Email: "parent@example.com", Password: "hash", Role: models.RoleAffiliate}
	if err := db.Create(&parentUser).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	parent, err := service.BecomeAffiliate(parentUser.ID, "")
	if err != nil {
		t.Fatalf("failed to create parent affiliate: %v", err)
	}

	childUser := models.User{Email: "child@example.com", Password: "hash", Role: models.RoleUser}
	if err := db.Create(&childUser).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	child, err := service.BecomeAffiliate(childUser.ID, parent.ReferralCode)
	if err != nil {
		t.Fatalf("BecomeAffiliate with parent failed: %v", err)
	}

	if child.ParentAffiliateID == nil || *child.ParentAffiliateID != parent.ID {
		t.Errorf("expected parent link to %d", parent.ID)
	}
	if child.Tier != parent.Tier+1 {
		t.Errorf("expected tier %d, got %d", parent.Tier+1, child.Tier)
	}
}

func TestBecomeAffiliateWithUnknownParentCode(t *testing.T) {
	db := setupTestDB(t)
	service := NewAffiliateService(db)

	user := models.User{Email: "orphan@example.com", Password: "hash", Role: models.RoleUser}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	// An unresolvable parent code falls back to a root-tier affiliate
	affiliate, err := service.BecomeAffiliate(user.ID, "NOPE1234")
	if err != nil {
		t.Fatalf("BecomeAffiliate failed: %v", err)
	}
	if affiliate.ParentAffiliateID != nil {
		t.Errorf("expected no parent link for an unknown code")
	}
	if affiliate.Tier != 1 {
		t.Errorf("expected tier 1, got %d", affiliate.Tier)
	}
}

func TestFindParentChain(t *testing.T) {
	db := setupTestDB(t)
	service := NewAffiliateService(db)

	chain := createChain(t, db, 4)

	got, err := service.FindParentChain(chain[0].ID)
	if err != nil {
		t.Fatalf("FindParentChain failed: %v", err)
	}

	if len(got) != 4 {
		t.Fatalf("expected chain of 4, got %d", len(got))
	}
	for i := range chain {
		if got[i].ID != chain[i].ID {
			t.Errorf("position %d: expected affiliate %d, got %d", i, chain[i].ID, got[i].ID)
		}
	}
}

func TestFindParentChainDepthCap(t *testing.T) {
	db := setupTestDB(t)
	service := NewAffiliateService(db)

	chain := createChain(t, db, maxChainDepth+3)

	got, err := service.FindParentChain(chain[0].ID)
	if err != nil {
		t.Fatalf("FindParentChain failed: %v", err)
	}
	if len(got) != maxChainDepth {
		t.Errorf("expected chain capped at %d, got %d", maxChainDepth, len(got))
	}
}

func TestFindByReferralCode(t *testing.T) {
	db := setupTestDB(t)
	service := NewAffiliateService(db)

	chain := createChain(t, db, 1)

	found, err := service.FindByReferralCode(chain[0].ReferralCode)
	if err != nil {
		t.Fatalf("FindByReferralCode failed: %v", err)
	}
	if found.ID != chain[0].ID {
		t.Errorf("expected affiliate %d, got %d", chain[0].ID, found.ID)
	}

	if _, err := service.FindByReferralCode("MISSING1"); !errors.Is(err, ErrReferralCodeNotFound) {
		t.Errorf("expected ErrReferralCodeNotFound, got %v", err)
	}
}

func TestGeneratedCodesAreUnique(t *testing.T) {
	db := setupTestDB(t)
	service := NewAffiliateService(db)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		user := models.User{
			Email:    fmt.Sprintf("bulk-%s@example.com", uuid.NewString()),
			Password: "hash",
			Role:     models.RoleUser,
		}
		if err := db.Create(&user).Error; err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
		affiliate, err := service.BecomeAffiliate(user.ID, "")
		if err != nil {
			t.Fatalf("BecomeAffiliate failed: %v", err)
		}
		if seen[affiliate.ReferralCode] {
			t.Fatalf("duplicate referral code %s", affiliate.ReferralCode)
		}
		seen[affiliate.ReferralCode] = true
	}
}
