package models

// User represents a back-office operator account.
type User struct {
	Base
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	FullName string `json:"full_name"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}
