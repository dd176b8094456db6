package services

import (
	"errors"
	"fmt"
	"io"

	"gorm.io/gorm"

	apperrors "lizsys/internal/errors"
	"lizsys/internal/models"
	"lizsys/internal/pagination"
	"lizsys/internal/storage"
)

// allowedDocumentTypes maps accepted document content types to their file
// extensions.
var allowedDocumentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

// documentService handles asset document business logic.
type documentService struct {
	db    *gorm.DB
	store storage.FileStore
}

// NewDocumentService creates a new DocumentServicer.
func NewDocumentService(db *gorm.DB, store storage.FileStore) DocumentServicer {
	return &documentService{db: db, store: store}
}

// AttachDocument stores the uploaded file and records it against the asset.
func (s *documentService) AttachDocument(assetID uint, kind models.DocumentKind, filename, contentType string, r io.Reader) (*models.Document, error) {
	if !kind.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid document kind")
	}
	if _, ok := allowedDocumentTypes[contentType]; !ok {
		return nil, apperrors.ErrUnsupportedReceiptType
	}

	var assets int64
	if err := s.db.Model(&models.Asset{}).Where("id = ?", assetID).Count(&assets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if assets == 0 {
		return nil, apperrors.ErrAssetNotFound
	}

	path, err := s.store.Save(fmt.Sprintf("documents/%d", assetID), filename, r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	doc := &models.Document{
		AssetID:  assetID,
		Kind:     kind,
		Filename: filename,
		Path:     path,
	}

	if err := s.db.Create(doc).Error; err != nil {
		_ = s.store.Remove(path)
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return doc, nil
}

// GetAssetDocuments retrieves a paginated list of an asset's documents.
func (s *documentService) GetAssetDocuments(assetID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Document], error) {
	page.Defaults()

	base := s.db.Model(&models.Document{}).Where("asset_id = ?", assetID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var docs []models.Document
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&docs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(docs, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetDocumentByID retrieves a document row by ID
func (s *documentService) GetDocumentByID(documentID uint) (*models.Document, error) {
	var doc models.Document
	if err := s.db.First(&doc, documentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDocumentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &doc, nil
}

// OpenDocument opens the stored file for streaming.
func (s *documentService) OpenDocument(documentID uint) (*Receipt, error) {
	doc, err := s.GetDocumentByID(documentID)
	if err != nil {
		return nil, err
	}

	f, err := s.store.Open(doc.Path)
	if err != nil {
		return nil, apperrors.ErrDocumentNotFound
	}

	return &Receipt{
		File:        f,
		Filename:    doc.Filename,
		ContentType: contentTypeForPath(doc.Path),
	}, nil
}

// DeleteDocument removes the document row and its stored file.
func (s *documentService) DeleteDocument(documentID uint) error {
	doc, err := s.GetDocumentByID(documentID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(doc).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.store.Remove(doc.Path)
}

func contentTypeForPath(path string) string {
	for contentType, ext := range allowedDocumentTypes {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return contentType
		}
	}
	return "application/octet-stream"
}
