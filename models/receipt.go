package models

import (
	"encoding/json"
	"time"
)

// ReceiptStatus is the validation outcome of a submitted receipt
type ReceiptStatus string

const (
	ReceiptStatusValid    ReceiptStatus = "valid"
	ReceiptStatusRejected ReceiptStatus = "rejected"
)

// Receipt is a fiscal receipt submitted by a user. A valid receipt makes its owner a raffle participant.
type Receipt struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         uint            `gorm:"not null;index:idx_receipts_user_id" json:"user_id"`
	FiscalDrive    string          `gorm:"type:varchar(64);not null;uniqueIndex:uk_receipts_fiscal,priority:1" json:"fiscal_drive"`
	FiscalDocument string          `gorm:"type:varchar(64);not null;uniqueIndex:uk_receipts_fiscal,priority:2" json:"fiscal_document"`
	FiscalSign     string          `gorm:"type:varchar(64);not null;uniqueIndex:uk_receipts_fiscal,priority:3" json:"fiscal_sign"`
	Status         ReceiptStatus   `gorm:"type:varchar(32);not null;default:'valid'" json:"status"`
	Tickets        int             `gorm:"not null;default:1" json:"tickets"`
	Data           json.RawMessage `gorm:"type:jsonb" json:"data,omitempty"`
	CreatedAt      time.Time       `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

func (Receipt) TableName() string { return "receipts" }
