package models

// DocumentKind classifies an uploaded asset document.
type DocumentKind string

const (
	DocumentKindMaintenance DocumentKind = "maintenance"
	DocumentKindInsurance   DocumentKind = "insurance"
	DocumentKindOther       DocumentKind = "other"
)

// Valid reports whether k is one of the known document kinds.
func (k DocumentKind) Valid() bool {
	switch k {
	case DocumentKindMaintenance, DocumentKindInsurance, DocumentKindOther:
		return true
	}
	return false
}

// Document represents a file attached to an asset (inspection report,
// insurance policy). The file itself lives in the file store; Path is
// the stored location relative to the store root.
type Document struct {
	Base
	AssetID  uint         `gorm:"not null;index" json:"asset_id"`
	Kind     DocumentKind `gorm:"not null" json:"kind"`
	Filename string       `gorm:"not null" json:"filename"`
	Path     string       `gorm:"not null" json:"path"`
}
