// Package localstore is the console's durable local state: the
// credential pair and pending-payment markers that a browser keeps in
// local/session storage, plus receipt history. Nothing here is source
// of truth for platform entities.
package localstore

import (
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"whatsapp-console/internal/config"
	"whatsapp-console/internal/upstream"
)

type Store struct {
	db *gorm.DB
}

// Open connects to sqlite or postgres depending on config and runs
// migrations. Single-operator installs default to sqlite; hosted
// multi-instance installs point DB_DSN at postgres.
func Open(cfg *config.Config) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DBDSN)
	default:
		dialector = sqlite.Open(cfg.DBPath)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&credentialRecord{},
		&PendingPayment{},
		&ReceiptRecord{},
	); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// credentialRecord is a singleton row holding the bearer pair.
type credentialRecord struct {
	ID           uint      `gorm:"primaryKey"`
	Token        string    `gorm:"type:text"`
	RefreshToken string    `gorm:"type:text"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (credentialRecord) TableName() string {
	return "credentials"
}

// PendingPayment marks an in-flight purchase so polling can resume
// exactly once after a restart. Cleared on terminal outcome or timeout.
type PendingPayment struct {
	PaymentID string    `gorm:"primaryKey" json:"payment_id"`
	PlanID    string    `gorm:"type:varchar(255)" json:"plan_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PendingPayment) TableName() string {
	return "pending_payments"
}

// ReceiptRecord is a locally cached copy of a settled purchase receipt.
type ReceiptRecord struct {
	PaymentID string    `gorm:"primaryKey" json:"payment_id"`
	PlanID    string    `gorm:"type:varchar(255)" json:"plan_id"`
	PlanName  string    `gorm:"type:varchar(255)" json:"plan_name"`
	Amount    float64   `json:"amount"`
	Currency  string    `gorm:"type:varchar(10)" json:"currency"`
	PaidAt    string    `gorm:"type:varchar(64)" json:"paid_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ReceiptRecord) TableName() string {
	return "receipts"
}

// --- upstream.CredentialStore ---

var _ upstream.CredentialStore = (*Store)(nil)

func (s *Store) LoadCredentials() (upstream.Credentials, error) {
	var rec credentialRecord
	err := s.db.First(&rec, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return upstream.Credentials{}, nil
	}
	if err != nil {
		return upstream.Credentials{}, err
	}
	return upstream.Credentials{Token: rec.Token, RefreshToken: rec.RefreshToken}, nil
}

func (s *Store) SaveCredentials(creds upstream.Credentials) error {
	rec := credentialRecord{ID: 1, Token: creds.Token, RefreshToken: creds.RefreshToken}
	return s.db.Save(&rec).Error
}

func (s *Store) ClearCredentials() error {
	return s.db.Delete(&credentialRecord{}, 1).Error
}

// --- pending payments ---

func (s *Store) SavePendingPayment(paymentID, planID string) error {
	return s.db.Save(&PendingPayment{PaymentID: paymentID, PlanID: planID}).Error
}

// LoadPendingPayment returns the marker for the in-flight purchase, or
// nil when none is recorded.
func (s *Store) LoadPendingPayment() (*PendingPayment, error) {
	var rec PendingPayment
	err := s.db.Order("created_at DESC").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) ClearPendingPayment(paymentID string) error {
	return s.db.Delete(&PendingPayment{}, "payment_id = ?", paymentID).Error
}

// --- receipts ---

func (s *Store) SaveReceipt(rec ReceiptRecord) error {
	return s.db.Save(&rec).Error
}

func (s *Store) Receipts() ([]ReceiptRecord, error) {
	var recs []ReceiptRecord
	if err := s.db.Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}
