package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"affiliate-program/internal/models"
)

type TransactionService struct {
	db *gorm.DB
}

func NewTransactionService(db *gorm.DB) *TransactionService {
	return &TransactionService{
		db: db,
	}
}

// RecordTransactionInput is the payment event reported by the provider webhook
type RecordTransactionInput struct {
	ReferredUserID uint
	Amount         decimal.Decimal
	Currency       string
	ExternalID     string
}

// Record stores one payment event. ExternalID is the provider's idempotency
// key: a second delivery with the same id is rejected with
// ErrDuplicateTransaction.
func (s *TransactionService) Record(input RecordTransactionInput) (*models.Transaction, error) {
	var existing models.Transaction
	err := s.db.Where("external_id = ?", input.ExternalID).First(&existing).Error
	if err == nil {
		return nil, ErrDuplicateTransaction
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var referred models.ReferredUser
	if err := s.db.First(&referred, input.ReferredUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReferredUserNotFound
		}
		return nil, err
	}

	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}

	transaction := models.Transaction{
		ReferredUserID: input.ReferredUserID,
		Amount:         input.Amount,
		Currency:       currency,
		Status:         models.TransactionStatusPending,
		ExternalID:     input.ExternalID,
	}

	if err := s.db.Create(&transaction).Error; err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	// The webhook only reports completed payments, so the record is completed
	// right after creation, mirroring the provider's state.
	if err := s.db.Model(&transaction).Update("status", models.TransactionStatusCompleted).Error; err != nil {
		return nil, err
	}
	transaction.Status = models.TransactionStatusCompleted

	event := models.ReferralEvent{
		AffiliateID:    referred.AffiliateID,
		ReferredUserID: &referred.ID,
		EventType:      models.ReferralEventPayment,
	}
	if err := s.db.Create(&event).Error; err != nil {
		log.Printf("Warning: failed to record payment event for transaction %d: %v", transaction.ID, err)
	}

	log.Printf("Recorded transaction %d (external %s) for referred user %d: %s %s",
		transaction.ID, transaction.ExternalID, transaction.ReferredUserID, transaction.Amount, transaction.Currency)
	return &transaction, nil
}

// FindByID returns a transaction by id
func (s *TransactionService) FindByID(id uint) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.First(&transaction, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &transaction, nil
}
