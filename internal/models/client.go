package models

// Client represents a lessee: the counterparty that signs contracts
// and makes payments.
type Client struct {
	Base
	Name    string `gorm:"not null" json:"name"`
	Email   string `gorm:"not null" json:"email"`
	Phone   string `gorm:"not null" json:"phone"`
	Address string `json:"address"`

	// Relationships
	Contracts []Contract `gorm:"foreignKey:ClientID" json:"contracts,omitempty"`
	Assets    []Asset    `gorm:"foreignKey:ClientID" json:"assets,omitempty"`
}
