package models

import "time"

// AssetStatus represents the operational state of a leased asset.
type AssetStatus string

const (
	AssetStatusAvailable   AssetStatus = "available"
	AssetStatusLeased      AssetStatus = "leased"
	AssetStatusMaintenance AssetStatus = "maintenance"
	AssetStatusRetired     AssetStatus = "retired"
)

// Valid reports whether s is one of the known asset statuses.
func (s AssetStatus) Valid() bool {
	switch s {
	case AssetStatusAvailable, AssetStatusLeased, AssetStatusMaintenance, AssetStatusRetired:
		return true
	}
	return false
}

// Asset represents a leased object (vehicle, equipment) owned by the
// lessor. ClientID is nil while the asset is unassigned.
type Asset struct {
	Base
	Name            string      `gorm:"not null" json:"name"`
	Type            string      `gorm:"not null" json:"type"`
	VIN             string      `gorm:"column:vin" json:"vin"`
	Status          AssetStatus `gorm:"not null" json:"status"`
	Location        string      `json:"location"`
	InspectionDate  *time.Time  `json:"inspection_date,omitempty"`
	MaintenanceInfo string      `json:"maintenance_info"`
	InsuranceInfo   string      `json:"insurance_info"`
	ClientID        *uint       `gorm:"index" json:"client_id,omitempty"`

	// Relationships
	Documents []Document `gorm:"foreignKey:AssetID" json:"documents,omitempty"`
}
