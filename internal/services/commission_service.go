package services

import (
	"database/sql"
	"errors"
	"log"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"affiliate-program/internal/models"
)

var oneHundred = decimal.NewFromInt(100)

// CommissionService computes multi-level commissions and keeps the ledger of
// their status lifecycle (pending -> approved/rejected -> paid).
type CommissionService struct {
	db        *gorm.DB
	maxLevels int
}

// NewCommissionService creates the service. maxLevels caps how deep into the
// affiliate ancestor chain a single transaction can pay commissions.
func NewCommissionService(db *gorm.DB, maxLevels int) *CommissionService {
	return &CommissionService{
		db:        db,
		maxLevels: maxLevels,
	}
}

// Calculate produces the commission set for a transaction, one pending
// commission per qualifying level, ordered by level ascending.
//
// The operation is idempotent: if commissions already exist for the
// transaction they are returned unchanged, so webhook retries are safe. The
// existence check and the bulk insert run inside one serializable transaction
// so concurrent deliveries cannot both pass the check.
func (s *CommissionService) Calculate(transactionID uint) ([]models.Commission, error) {
	var commissions []models.Commission

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing []models.Commission
		if err := tx.Where("transaction_id = ?", transactionID).Order("level ASC").Find(&existing).Error; err != nil {
			return err
		}
		if len(existing) > 0 {
			commissions = existing
			return nil
		}

		var transaction models.Transaction
		if err := tx.First(&transaction, transactionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}

		var referredUser models.ReferredUser
		if err := tx.First(&referredUser, transaction.ReferredUserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReferredUserNotFound
			}
			return err
		}

		// The campaign is resolved as of the transaction's creation instant,
		// not the calculation time. No active campaign means no commissions,
		// which is a valid empty result rather than an error.
		campaign, err := findActiveCampaign(tx, transaction.CreatedAt)
		if err != nil {
			return err
		}
		if campaign == nil {
			return nil
		}

		chain, err := findParentChain(tx, referredUser.AffiliateID)
		if err != nil {
			return err
		}

		toCreate := s.commissionsForChain(&transaction, campaign, chain)
		if len(toCreate) == 0 {
			return nil
		}

		if err := tx.Create(&toCreate).Error; err != nil {
			return err
		}
		commissions = toCreate
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})

	if err != nil {
		return nil, err
	}

	log.Printf("Commission calculation for transaction %d produced %d entries", transactionID, len(commissions))
	return commissions, nil
}

// commissionsForChain walks the ancestor chain and applies the campaign's
// per-level reward table. A zero rate stops the walk entirely: levels beyond
// the first unconfigured one are treated as unconfigured too.
func (s *CommissionService) commissionsForChain(
	transaction *models.Transaction,
	campaign *models.Campaign,
	chain []models.Affiliate,
) []models.Commission {
	levels := len(chain)
	if levels > s.maxLevels {
		levels = s.maxLevels
	}

	var toCreate []models.Commission
	for level := 1; level <= levels; level++ {
		affiliate := chain[level-1]

		rate := campaign.LevelRates.ForLevel(level)
		if rate.IsZero() {
			break
		}

		var amount decimal.Decimal
		switch campaign.RewardType {
		case models.RewardTypePercentage:
			amount = transaction.Amount.Mul(rate).Div(oneHundred).Round(2)
		case models.RewardTypeFixed:
			amount = rate
		}
		// Voucher campaigns produce no monetary commission.

		if amount.GreaterThan(decimal.Zero) {
			toCreate = append(toCreate, models.Commission{
				AffiliateID:   affiliate.ID,
				TransactionID: transaction.ID,
				CampaignID:    campaign.ID,
				Amount:        amount,
				Level:         level,
				Status:        models.CommissionStatusPending,
			})
		}
	}

	return toCreate
}

// FindByID returns a commission by id
func (s *CommissionService) FindByID(id uint) (*models.Commission, error) {
	var commission models.Commission
	if err := s.db.First(&commission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommissionNotFound
		}
		return nil, err
	}
	return &commission, nil
}

// FindByTransactionID returns the commission set of one transaction,
// ordered by level
func (s *CommissionService) FindByTransactionID(transactionID uint) ([]models.Commission, error) {
	var commissions []models.Commission
	if err := s.db.Where("transaction_id = ?", transactionID).Order("level ASC").Find(&commissions).Error; err != nil {
		return nil, err
	}
	return commissions, nil
}

// FindByAffiliateID lists an affiliate's commissions oldest first, optionally
// filtered by status
func (s *CommissionService) FindByAffiliateID(affiliateID uint, status string) ([]models.Commission, error) {
	return findCommissionsByAffiliate(s.db, affiliateID, status)
}

func findCommissionsByAffiliate(db *gorm.DB, affiliateID uint, status string) ([]models.Commission, error) {
	query := db.Where("affiliate_id = ?", affiliateID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var commissions []models.Commission
	if err := query.Order("created_at ASC, id ASC").Find(&commissions).Error; err != nil {
		return nil, err
	}
	return commissions, nil
}

// FindPending lists all commissions awaiting review
func (s *CommissionService) FindPending() ([]models.Commission, error) {
	var commissions []models.Commission
	if err := s.db.Where("status = ?", models.CommissionStatusPending).
		Order("created_at ASC, id ASC").Find(&commissions).Error; err != nil {
		return nil, err
	}
	return commissions, nil
}

// TotalEarnings sums an affiliate's commission amounts, optionally for a
// single status
func (s *CommissionService) TotalEarnings(affiliateID uint, status string) (decimal.Decimal, error) {
	query := s.db.Model(&models.Commission{}).Where("affiliate_id = ?", affiliateID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total decimal.Decimal
	row := query.Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// Approve transitions a commission to approved. The current status is not
// checked first, matching the admin workflow's behavior.
func (s *CommissionService) Approve(id uint) (*models.Commission, error) {
	commission, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(commission).Update("status", models.CommissionStatusApproved).Error; err != nil {
		return nil, err
	}

	commission.Status = models.CommissionStatusApproved
	return commission, nil
}

// Reject transitions a commission to rejected and records the reason
func (s *CommissionService) Reject(id uint, notes string) (*models.Commission, error) {
	commission, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(commission).Updates(map[string]interface{}{
		"status": models.CommissionStatusRejected,
		"notes":  notes,
	}).Error; err != nil {
		return nil, err
	}

	commission.Status = models.CommissionStatusRejected
	commission.Notes = &notes
	return commission, nil
}

// MarkAsPaid settles a commission against a payout
func (s *CommissionService) MarkAsPaid(id, payoutID uint) (*models.Commission, error) {
	commission, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(commission).Updates(map[string]interface{}{
		"status":    models.CommissionStatusPaid,
		"payout_id": payoutID,
	}).Error; err != nil {
		return nil, err
	}

	commission.Status = models.CommissionStatusPaid
	commission.PayoutID = &payoutID
	return commission, nil
}
