package models

import "time"

// Payment represents a payment received against a contract. LateFee is
// derived at creation from the contract due date and the payment date;
// it is recorded alongside the amount but never subtracted from the
// contract balance.
type Payment struct {
	Base
	ClientID    uint      `gorm:"not null" json:"client_id"`
	ContractID  uint      `gorm:"not null" json:"contract_id"`
	Amount      float64   `gorm:"not null" json:"amount"`
	Date        time.Time `gorm:"not null" json:"date"`
	LateFee     float64   `gorm:"not null;default:0" json:"late_fee"`
	ReceiptPath string    `json:"receipt_path,omitempty"`
	ReceiptType string    `json:"receipt_type,omitempty"`

	// Relationships
	Client   Client   `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Contract Contract `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
}
