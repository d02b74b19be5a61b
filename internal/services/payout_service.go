package services

import (
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"affiliate-program/internal/models"
)

// PayoutService handles withdrawal requests and reconciles paid payouts
// against approved commissions.
type PayoutService struct {
	db        *gorm.DB
	minPayout decimal.Decimal
}

// NewPayoutService creates the service. minPayout is the smallest amount an
// affiliate may withdraw in one request.
func NewPayoutService(db *gorm.DB, minPayout decimal.Decimal) *PayoutService {
	return &PayoutService{
		db:        db,
		minPayout: minPayout,
	}
}

// AvailableBalance is what the affiliate can still withdraw: approved
// commissions minus payouts that are pending, processing or already paid.
func (s *PayoutService) AvailableBalance(affiliateID uint) (decimal.Decimal, error) {
	return availableBalance(s.db, affiliateID)
}

func availableBalance(db *gorm.DB, affiliateID uint) (decimal.Decimal, error) {
	var approved decimal.Decimal
	row := db.Model(&models.Commission{}).
		Where("affiliate_id = ? AND status = ?", affiliateID, models.CommissionStatusApproved).
		Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&approved); err != nil {
		return decimal.Zero, err
	}

	var requested decimal.Decimal
	row = db.Model(&models.Payout{}).
		Where("affiliate_id = ? AND status IN ?", affiliateID, []string{
			models.PayoutStatusPending,
			models.PayoutStatusProcessing,
			models.PayoutStatusPaid,
		}).
		Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&requested); err != nil {
		return decimal.Zero, err
	}

	return approved.Sub(requested), nil
}

// RequestPayoutInput carries an affiliate's withdrawal request
type RequestPayoutInput struct {
	AffiliateID    uint
	Amount         decimal.Decimal
	PaymentMethod  string
	PaymentDetails *string
}

// Request creates a pending payout. The amount must reach the minimum
// threshold and must not exceed the available balance; the balance check and
// the insert run in one serializable transaction so two concurrent requests
// cannot both spend the same commissions.
func (s *PayoutService) Request(input RequestPayoutInput) (*models.Payout, error) {
	if input.Amount.LessThan(s.minPayout) {
		return nil, ErrPayoutBelowMinimum
	}

	var payout models.Payout
	err := s.db.Transaction(func(tx *gorm.DB) error {
		balance, err := availableBalance(tx, input.AffiliateID)
		if err != nil {
			return err
		}
		if input.Amount.GreaterThan(balance) {
			return ErrInsufficientBalance
		}

		payout = models.Payout{
			AffiliateID:    input.AffiliateID,
			Amount:         input.Amount,
			PaymentMethod:  input.PaymentMethod,
			Status:         models.PayoutStatusPending,
			RequestedAt:    time.Now(),
			PaymentDetails: input.PaymentDetails,
		}
		return tx.Create(&payout).Error
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})

	if err != nil {
		return nil, err
	}

	log.Printf("Payout %d requested: affiliate %d, amount %s via %s",
		payout.ID, payout.AffiliateID, payout.Amount, payout.PaymentMethod)
	return &payout, nil
}

// ProcessPayoutInput is the admin's resolution of a pending payout
type ProcessPayoutInput struct {
	PayoutID      uint
	Status        string // paid or failed
	AdminNotes    *string
	FailureReason *string
}

// Process resolves a pending payout as paid or failed. Only pending payouts
// can be processed; paid and failed are terminal.
//
// When the payout is marked paid, the affiliate's approved commissions are
// settled oldest first: each commission that still fits into the remaining
// payout balance is marked paid and linked to the payout. Commissions larger
// than the remainder are skipped whole; partial settlement is not supported,
// so a payout amount that doesn't match a prefix-sum of approved commissions
// leaves an unaccounted remainder.
func (s *PayoutService) Process(input ProcessPayoutInput) (*models.Payout, error) {
	if input.Status != models.PayoutStatusPaid && input.Status != models.PayoutStatusFailed {
		return nil, ErrInvalidPayoutStatus
	}

	var payout models.Payout
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payout, input.PayoutID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPayoutNotFound
			}
			return err
		}

		if !payout.CanProcess() {
			return ErrPayoutNotProcessable
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":       input.Status,
			"processed_at": now,
		}
		if input.AdminNotes != nil {
			updates["admin_notes"] = *input.AdminNotes
		}
		if input.Status == models.PayoutStatusFailed && input.FailureReason != nil {
			updates["failure_reason"] = *input.FailureReason
		}

		if err := tx.Model(&payout).Updates(updates).Error; err != nil {
			return err
		}

		if input.Status == models.PayoutStatusPaid {
			if err := settleCommissions(tx, &payout); err != nil {
				return err
			}
		}

		// Reload so the caller sees the final column values
		return tx.First(&payout, input.PayoutID).Error
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})

	if err != nil {
		return nil, err
	}

	log.Printf("Payout %d processed as %s", payout.ID, payout.Status)
	return &payout, nil
}

// settleCommissions walks the affiliate's approved commissions oldest first
// and marks each one that fits into the remaining payout balance as paid.
func settleCommissions(tx *gorm.DB, payout *models.Payout) error {
	approved, err := findCommissionsByAffiliate(tx, payout.AffiliateID, models.CommissionStatusApproved)
	if err != nil {
		return err
	}

	remaining := payout.Amount
	for i := range approved {
		if !remaining.IsPositive() {
			break
		}

		commission := &approved[i]
		if commission.Amount.GreaterThan(remaining) {
			continue
		}

		if err := tx.Model(commission).Updates(map[string]interface{}{
			"status":    models.CommissionStatusPaid,
			"payout_id": payout.ID,
		}).Error; err != nil {
			return err
		}
		remaining = remaining.Sub(commission.Amount)
	}

	if remaining.IsPositive() {
		// Approved commissions didn't sum exactly to the payout amount; the
		// remainder stays unaccounted.
		log.Printf("Payout %d settled with unaccounted remainder %s", payout.ID, remaining)
	}

	return nil
}

// FindByID returns a payout by id
func (s *PayoutService) FindByID(id uint) (*models.Payout, error) {
	var payout models.Payout
	if err := s.db.First(&payout, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPayoutNotFound
		}
		return nil, err
	}
	return &payout, nil
}

// FindByAffiliateID lists an affiliate's payouts, newest request first
func (s *PayoutService) FindByAffiliateID(affiliateID uint) ([]models.Payout, error) {
	var payouts []models.Payout
	if err := s.db.Where("affiliate_id = ?", affiliateID).
		Order("requested_at DESC").Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

// FindByStatus lists payouts with the given status ("" lists all)
func (s *PayoutService) FindByStatus(status string) ([]models.Payout, error) {
	query := s.db.Order("requested_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var payouts []models.Payout
	if err := query.Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}
