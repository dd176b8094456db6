package models

import (
	"time"

	"gorm.io/gorm"
)

// ContractStatus represents the lifecycle state of a contract.
// The only transition is active -> transferred; transferred is terminal.
type ContractStatus string

const (
	ContractStatusActive      ContractStatus = "active"
	ContractStatusTransferred ContractStatus = "transferred"
)

// Contract represents a leasing contract and its financial state.
// InterestRate is an annual rate expressed as a fraction of one
// (0.12 = 12% p.a.); external callers convert from percent before
// sending. MonthlyPayment is derived at creation and cached.
type Contract struct {
	Base
	Title            string         `gorm:"not null" json:"title"`
	Number           string         `gorm:"uniqueIndex;not null" json:"number"`
	Amount           float64        `gorm:"not null" json:"amount"`
	DownPayment      float64        `gorm:"not null;default:0" json:"down_payment"`
	InterestRate     float64        `gorm:"not null;default:0" json:"interest_rate"`
	TermMonths       int            `gorm:"not null" json:"term_months"`
	MonthlyPayment   float64        `json:"monthly_payment"`
	StartDate        time.Time      `gorm:"not null" json:"start_date"`
	EndDate          time.Time      `gorm:"not null" json:"end_date"`
	DueDate          *time.Time     `json:"due_date,omitempty"`
	RemainingBalance *float64       `json:"remaining_balance"`
	Status           ContractStatus `gorm:"not null;default:'active'" json:"status"`
	ClientID         uint           `gorm:"not null" json:"client_id"`

	// Relationships
	Payments []Payment `gorm:"foreignKey:ContractID" json:"payments,omitempty"`
}

// BeforeCreate seeds the derived defaults: a new contract starts active
// with its full amount outstanding.
func (c *Contract) BeforeCreate(tx *gorm.DB) error {
	if c.Status == "" {
		c.Status = ContractStatusActive
	}
	if c.RemainingBalance == nil {
		balance := c.Amount
		c.RemainingBalance = &balance
	}
	return nil
}

// Outstanding returns the remaining balance, falling back to the
// contract amount for rows that predate balance tracking.
func (c *Contract) Outstanding() float64 {
	if c.RemainingBalance != nil {
		return *c.RemainingBalance
	}
	return c.Amount
}

// PaymentDueDate returns the due date used for late-fee computation,
// falling back to the contract start date when none is set.
func (c *Contract) PaymentDueDate() time.Time {
	if c.DueDate != nil {
		return *c.DueDate
	}
	return c.StartDate
}
