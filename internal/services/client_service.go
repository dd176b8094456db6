package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "lizsys/internal/errors"
	"lizsys/internal/models"
	"lizsys/internal/pagination"
)

// clientService handles client-related business logic.
type clientService struct {
	db *gorm.DB
}

// NewClientService creates a new ClientServicer.
func NewClientService(db *gorm.DB) ClientServicer {
	return &clientService{db: db}
}

// CreateClient registers a new client
func (s *clientService) CreateClient(name, email, phone, address string) (*models.Client, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "client name is required")
	}

	client := &models.Client{
		Name:    strings.TrimSpace(name),
		Email:   strings.ToLower(email),
		Phone:   phone,
		Address: address,
	}

	if err := s.db.Create(client).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return client, nil
}

// GetClients retrieves a paginated list of clients, optionally filtered by
// a case-insensitive name or email search.
func (s *clientService) GetClients(page pagination.PageRequest, search string) (*pagination.PageResponse[models.Client], error) {
	page.Defaults()

	base := s.db.Model(&models.Client{})
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		base = base.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var clients []models.Client
	if err := base.Scopes(pagination.Paginate(page)).
		Order("name ASC").
		Find(&clients).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(clients, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetClientByID retrieves a client with their contracts and assets preloaded
func (s *clientService) GetClientByID(clientID uint) (*models.Client, error) {
	var client models.Client
	if err := s.db.Preload("Contracts").Preload("Assets").First(&client, clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrClientNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &client, nil
}

// UpdateClient updates a client's contact details
func (s *clientService) UpdateClient(clientID uint, name, email, phone, address string) (*models.Client, error) {
	var client models.Client
	if err := s.db.First(&client, clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrClientNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if name != "" {
		client.Name = strings.TrimSpace(name)
	}
	if email != "" {
		client.Email = strings.ToLower(email)
	}
	if phone != "" {
		client.Phone = phone
	}
	if address != "" {
		client.Address = address
	}

	if err := s.db.Save(&client).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &client, nil
}

// DeleteClient removes a client. Clients with contracts on file cannot be
// deleted; their contracts must be transferred or deleted first.
func (s *clientService) DeleteClient(clientID uint) error {
	var client models.Client
	if err := s.db.First(&client, clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrClientNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var contracts int64
	if err := s.db.Model(&models.Contract{}).Where("client_id = ?", clientID).Count(&contracts).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if contracts > 0 {
		return apperrors.ErrClientHasContracts
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// Assets stay on the books, just unassigned.
		if err := tx.Model(&models.Asset{}).Where("client_id = ?", clientID).
			Update("client_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&client).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
