package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"affiliate-program/internal/models"
)

func createApprovedCommissions(t *testing.T, db *gorm.DB, affiliateID uint, amounts []string) []models.Commission {
	created := make([]models.Commission, 0, len(amounts))
	for i, amount := range amounts {
		commission := models.Commission{
			AffiliateID:   affiliateID,
			TransactionID: uint(i + 1),
			CampaignID:    1,
			Amount:        decimal.RequireFromString(amount),
			Level:         1,
			Status:        models.CommissionStatusApproved,
		}
		if err := db.Create(&commission).Error; err != nil {
			t.Fatalf("failed to create commission: %v", err)
		}
		created = append(created, commission)
	}
	return created
}

func TestRequestPayoutBelowMinimum(t *testing.T) {
	db := setupTestDB(t)
	service := NewPayoutService(db, decimal.NewFromInt(50))

	chain := createChain(t, db, 1)
	createApprovedCommissions(t, db, chain[0].ID, []string{"100"})

	_, err := service.Request(RequestPayoutInput{
		AffiliateID:   chain[0].ID,
		Amount:        decimal.RequireFromString("49.99"),
		PaymentMethod: models.PaymentMethodPaypal,
	})
	if !errors.Is(err, ErrPayoutBelowMinimum) {
		t.Errorf("expected ErrPayoutBelowMinimum for 49.99, got %v", err)
	}

	payout, err := service.Request(RequestPayoutInput{
		AffiliateID:   chain[0].ID,
		Amount:        decimal.NewFromInt(50),
		PaymentMethod: models.PaymentMethodPaypal,
	})
	if err != nil {
		t.Fatalf("expected 50.00 to pass the threshold, got %v", err)
	}
	if payout.Status != models.PayoutStatusPending {
		t.Errorf("expected pending payout, got %s", payout.Status)
	}
	if payout.RequestedAt.IsZero() {
		t.Errorf("expected requested_at to be set")
	}
}

func TestRequestPayoutBalanceAccounting(t *testing.T) {
	db := setupTestDB(t)
	service := NewPayoutService(db, decimal.NewFromInt(50))

	chain := createChain(t, db, 1)
	affiliateID := chain[0].ID

	// 100 approved; pending commissions never count toward the balance
	createApprovedCommissions(t, db, affiliateID, []string{"60", "40"})
	pending := models.Commission{
		AffiliateID:   affiliateID,
		TransactionID: 99,
		CampaignID:    1,
		Amount:        decimal.NewFromInt(500),
		Level:         1,
		Status:        models.CommissionStatusPending,
	}
	if err := db.Create(&pending).Error; err != nil {
		t.Fatalf("failed to create pending commission: %v", err)
	}

	// An in-flight payout of 30 reserves part of the balance
	reserved := models.Payout{
		AffiliateID:   affiliateID,
		Amount:        decimal.NewFromInt(30),
		PaymentMethod: models.PaymentMethodPaypal,
		Status:        models.PayoutStatusPending,
	}
	if err := db.Create(&reserved).Error; err != nil {
		t.Fatalf("failed to create payout: %v", err)
	}

	balance, err := service.AvailableBalance(affiliateID)
	if err != nil {
		t.Fatalf("AvailableBalance failed: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("expected available balance 70, got %s", balance)
	}

	_, err = service.Request(RequestPayoutInput{
		AffiliateID:   affiliateID,
		Amount:        decimal.NewFromInt(71),
		PaymentMethod: models.PaymentMethodPaypal,
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance for 71 against balance 70, got %v", err)
	}

	if _, err := service.Request(RequestPayoutInput{
		AffiliateID:   affiliateID,
		Amount:        decimal.NewFromInt(70),
		PaymentMethod: models.PaymentMethodPaypal,
	}); err != nil {
		t.Errorf("expected request for the exact balance to succeed, got %v", err)
	}
}

func TestProcessPayoutSettlesCommissions(t *testing.T) {
	db := setupTestDB(t)
	service := NewPayoutService(db, decimal.NewFromInt(50))

	chain := createChain(t, db, 1)
	affiliateID := chain[0].ID
	commissions := createApprovedCommissions(t, db, affiliateID, []string{"40", "35", "30"})

	payout, err := service.Request(RequestPayoutInput{
		AffiliateID:   affiliateID,
		Amount:        decimal.NewFromInt(75),
		PaymentMethod: models.PaymentMethodBankTransfer,
	})
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	processed, err := service.Process(ProcessPayoutInput{
		PayoutID: payout.ID,
		Status:   models.PayoutStatusPaid,
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if processed.Status != models.PayoutStatusPaid {
		t.Errorf("expected paid status, got %s", processed.Status)
	}
	if processed.ProcessedAt == nil {
		t.Errorf("expected processed_at to be set")
	}

	// 40 and 35 consume the payout exactly; 30 stays approved
	var reloaded []models.Commission
	for _, c := range commissions {
		var got models.Commission
		if err := db.First(&got, c.ID).Error; err != nil {
			t.Fatalf("failed to reload commission %d: %v", c.ID, err)
		}
		reloaded = append(reloaded, got)
	}

	for i, wantStatus := range []string{models.CommissionStatusPaid, models.CommissionStatusPaid, models.CommissionStatusApproved} {
		if reloaded[i].Status != wantStatus {
			t.Errorf("commission %d: expected %s, got %s", i, wantStatus, reloaded[i].Status)
		}
	}
	for i := 0; i < 2; i++ {
		if reloaded[i].PayoutID == nil || *reloaded[i].PayoutID != payout.ID {
			t.Errorf("commission %d: expected link to payout %d", i, payout.ID)
		}
	}
	if reloaded[2].PayoutID != nil {
		t.Errorf("unsettled commission must not be linked to the payout")
	}
}

func TestProcessPayoutSkipsOversizedCommission(t *testing.T) {
	db := setupTestDB(t)
	service := NewPayoutService(db, decimal.NewFromInt(50))

	chain := createChain(t, db, 1)
	affiliateID := chain[0].ID
	// Oldest commission is larger than the payout; the sweep skips it whole
	// and settles the later one that fits.
	commissions := createApprovedCommissions(t, db, affiliateID, []string{"80", "55"})

	payout, err := service.Request(RequestPayoutInput{
		AffiliateID:   affiliateID,
		Amount:        decimal.NewFromInt(60),
		PaymentMethod: models.PaymentMethodPaypal,
	})
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	if _, err := service.Process(ProcessPayoutInput{
		PayoutID: payout.ID,
		Status:   models.PayoutStatusPaid,
	}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	var first, second models.Commission
	if err := db.First(&first, commissions[0].ID).Error; err != nil {
		t.Fatalf("failed to reload commission: %v", err)
	}
	if err := db.First(&second, commissions[1].ID).Error; err != nil {
		t.Fatalf("failed to reload commission: %v", err)
	}

	if first.Status != models.CommissionStatusApproved {
		t.Errorf("oversized commission should stay approved, got %s", first.Status)
	}
	if second.Status != models.CommissionStatusPaid {
		t.Errorf("fitting commission should be paid, got %s", second.Status)
	}
}

func TestProcessPayoutFailed(t *testing.T) {
	db := setupTestDB(t)
	service := NewPayoutService(db, decimal.NewFromInt(50))

	chain := createChain(t, db, 1)
	affiliateID := chain[0].ID
	commissions := createApprovedCommissions(t, db, affiliateID, []string{"100"})

	payout, err := service.Request(RequestPayoutInput{
		AffiliateID:   affiliateID,
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: models.PaymentMethodCrypto,
	})
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	reason := "wallet address invalid"
	processed, err := service.Process(ProcessPayoutInput{
		PayoutID:      payout.ID,
		Status:        models.PayoutStatusFailed,
		FailureReason: &reason,
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if processed.Status != models.PayoutStatusFailed {
		t.Errorf("expected failed status, got %s", processed.Status)
	}
	if processed.FailureReason == nil || *processed.FailureReason != reason {
		t.Errorf("expected failure reason to be stored")
	}

	// A failed payout settles nothing
	var commission models.Commission
	if err := db.First(&commission, commissions[0].ID).Error; err != nil {
		t.Fatalf("failed to reload commission: %v", err)
	}
	if commission.Status != models.CommissionStatusApproved {
		t.Errorf("commission should stay approved after a failed payout, got %s", commission.Status)
	}
}

func TestProcessPayoutGuards(t *testing.T) {
	db := setupTestDB(t)
	service := NewPayoutService(db, decimal.NewFromInt(50))

	chain := createChain(t, db, 1)
	affiliateID := chain[0].ID
	createApprovedCommissions(t, db, affiliateID, []string{"100"})

	payout, err := service.Request(RequestPayoutInput{
		AffiliateID:   affiliateID,
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: models.PaymentMethodPaypal,
	})
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	if _, err := service.Process(ProcessPayoutInput{
		PayoutID: payout.ID,
		Status:   models.PayoutStatusProcessing,
	}); !errors.Is(err, ErrInvalidPayoutStatus) {
		t.Errorf("expected ErrInvalidPayoutStatus, got %v", err)
	}

	if _, err := service.Process(ProcessPayoutInput{
		PayoutID: 99999,
		Status:   models.PayoutStatusPaid,
	}); !errors.Is(err, ErrPayoutNotFound) {
		t.Errorf("expected ErrPayoutNotFound, got %v", err)
	}

	if _, err := service.Process(ProcessPayoutInput{
		PayoutID: payout.ID,
		Status:   models.PayoutStatusPaid,
	}); err != nil {
		t.Fatalf("first Process failed: %v", err)
	}

	// paid is terminal
	if _, err := service.Process(ProcessPayoutInput{
		PayoutID: payout.ID,
		Status:   models.PayoutStatusPaid,
	}); !errors.Is(err, ErrPayoutNotProcessable) {
		t.Errorf("expected ErrPayoutNotProcessable on a paid payout, got %v", err)
	}
}
