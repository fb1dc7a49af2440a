package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Payment is one settlement attempt. An order may have several; the newest
// row is the one that counts.
type Payment struct {
	ID            uint            `gorm:"primaryKey"                  json:"id"`
	OrderID       uint            `gorm:"index;not null"              json:"order_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method        string          `gorm:"not null"                    json:"method"`
	PaymentDate   time.Time       `gorm:"index;not null"              json:"payment_date"`
	Status        PaymentStatus   `gorm:"size:16;index;not null"      json:"status"`
	TransactionID string          `gorm:"size:64;uniqueIndex"         json:"transaction_id"`
	FailureReason string          `json:"failure_reason,omitempty"`
}
