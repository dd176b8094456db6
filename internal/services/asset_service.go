package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "lizsys/internal/errors"
	"lizsys/internal/models"
	"lizsys/internal/pagination"
)

// assetService handles asset inventory business logic.
type assetService struct {
	db *gorm.DB
}

// NewAssetService creates a new AssetServicer.
func NewAssetService(db *gorm.DB) AssetServicer {
	return &assetService{db: db}
}

// CreateAsset registers a new asset
func (s *assetService) CreateAsset(input AssetInput) (*models.Asset, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "asset name is required")
	}
	if input.Status == "" {
		input.Status = models.AssetStatusAvailable
	}
	if !input.Status.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid asset status")
	}

	if input.ClientID != nil {
		if err := s.checkClient(*input.ClientID); err != nil {
			return nil, err
		}
	}

	asset := &models.Asset{
		Name:            strings.TrimSpace(input.Name),
		Type:            input.Type,
		VIN:             input.VIN,
		Status:          input.Status,
		Location:        input.Location,
		InspectionDate:  input.InspectionDate,
		MaintenanceInfo: input.MaintenanceInfo,
		InsuranceInfo:   input.InsuranceInfo,
		ClientID:        input.ClientID,
	}

	if err := s.db.Create(asset).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return asset, nil
}

// GetAssets retrieves a paginated, filtered list of assets.
func (s *assetService) GetAssets(page pagination.PageRequest, filter AssetFilter) (*pagination.PageResponse[models.Asset], error) {
	page.Defaults()

	base := s.db.Model(&models.Asset{})
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.ClientID != nil {
		base = base.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		base = base.Where("LOWER(name) LIKE ? OR LOWER(vin) LIKE ?", pattern, pattern)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var assets []models.Asset
	if err := base.Scopes(pagination.Paginate(page)).
		Order("name ASC").
		Find(&assets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(assets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAssetByID retrieves an asset with its documents preloaded
func (s *assetService) GetAssetByID(assetID uint) (*models.Asset, error) {
	var asset models.Asset
	if err := s.db.Preload("Documents").First(&asset, assetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAssetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &asset, nil
}

// UpdateAsset updates an asset's details, status, and client assignment
func (s *assetService) UpdateAsset(assetID uint, input AssetInput) (*models.Asset, error) {
	var asset models.Asset
	if err := s.db.First(&asset, assetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAssetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if input.Status != "" && !input.Status.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid asset status")
	}
	if input.ClientID != nil {
		if err := s.checkClient(*input.ClientID); err != nil {
			return nil, err
		}
	}

	if input.Name != "" {
		asset.Name = strings.TrimSpace(input.Name)
	}
	if input.Type != "" {
		asset.Type = input.Type
	}
	if input.VIN != "" {
		asset.VIN = input.VIN
	}
	if input.Status != "" {
		asset.Status = input.Status
	}
	if input.Location != "" {
		asset.Location = input.Location
	}
	if input.InspectionDate != nil {
		asset.InspectionDate = input.InspectionDate
	}
	if input.MaintenanceInfo != "" {
		asset.MaintenanceInfo = input.MaintenanceInfo
	}
	if input.InsuranceInfo != "" {
		asset.InsuranceInfo = input.InsuranceInfo
	}
	if input.ClientID != nil {
		asset.ClientID = input.ClientID
	}

	if err := s.db.Save(&asset).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &asset, nil
}

// DeleteAsset removes an asset and its document rows. Stored document
// files are left for the document service's storage sweep.
func (s *assetService) DeleteAsset(assetID uint) error {
	var asset models.Asset
	if err := s.db.First(&asset, assetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrAssetNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("asset_id = ?", assetID).Delete(&models.Document{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&asset).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

func (s *assetService) checkClient(clientID uint) error {
	var count int64
	if err := s.db.Model(&models.Client{}).Where("id = ?", clientID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrClientNotFound
	}
	return nil
}
