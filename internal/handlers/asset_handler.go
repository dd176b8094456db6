package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "lizsys/internal/errors"
	"lizsys/internal/models"
	"lizsys/internal/pagination"
	"lizsys/internal/services"
)

// AssetHandler handles asset and asset-document requests.
type AssetHandler struct {
	assetService    services.AssetServicer
	documentService services.DocumentServicer
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(assetService services.AssetServicer, documentService services.DocumentServicer) *AssetHandler {
	return &AssetHandler{assetService: assetService, documentService: documentService}
}

// AssetRequest represents the payload for creating or updating an asset
type AssetRequest struct {
	Name            string `json:"name" binding:"max=200"`
	Type            string `json:"type" binding:"max=100"`
	VIN             string `json:"vin" binding:"max=100"`
	Status          string `json:"status" binding:"omitempty,asset_status"`
	Location        string `json:"location" binding:"max=200"`
	InspectionDate  string `json:"inspection_date" binding:"omitempty,date"`
	MaintenanceInfo string `json:"maintenance_info" binding:"max=2000"`
	InsuranceInfo   string `json:"insurance_info" binding:"max=2000"`
	ClientID        *uint  `json:"client_id"`
}

func (r *AssetRequest) toInput() (services.AssetInput, error) {
	inspection, err := parseOptionalDate(r.InspectionDate)
	if err != nil {
		return services.AssetInput{}, err
	}
	return services.AssetInput{
		Name:            r.Name,
		Type:            r.Type,
		VIN:             r.VIN,
		Status:          models.AssetStatus(r.Status),
		Location:        r.Location,
		InspectionDate:  inspection,
		MaintenanceInfo: r.MaintenanceInfo,
		InsuranceInfo:   r.InsuranceInfo,
		ClientID:        r.ClientID,
	}, nil
}

// CreateAsset handles asset creation
// @Summary     Create an asset
// @Description Register a new leased asset
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AssetRequest true "Asset details"
// @Success     201 {object} map[string]interface{} "Asset created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Client not found"
// @Router      /assets [post]
func (h *AssetHandler) CreateAsset(c *gin.Context) {
	var req AssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	asset, err := h.assetService.CreateAsset(input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"asset": asset})
}

// GetAssets handles listing assets
// @Summary     List assets
// @Description Get a paginated list of assets filtered by status, client, or search
// @Tags        assets
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Param       status query string false "Asset status"
// @Param       client_id query int false "Client ID"
// @Param       search query string false "Name or VIN search"
// @Success     200 {object} map[string]interface{} "Paginated assets"
// @Router      /assets [get]
func (h *AssetHandler) GetAssets(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.AssetFilter{Search: c.Query("search")}
	if status := c.Query("status"); status != "" {
		s := models.AssetStatus(status)
		if !s.Valid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid status"))
			return
		}
		filter.Status = &s
	}
	if clientID := c.Query("client_id"); clientID != "" {
		id, err := strconv.ParseUint(clientID, 10, 32)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid client_id"))
			return
		}
		cid := uint(id)
		filter.ClientID = &cid
	}

	result, err := h.assetService.GetAssets(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAssetByID handles fetching a single asset
// @Summary     Get an asset
// @Description Get an asset with its documents
// @Tags        assets
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Asset ID"
// @Success     200 {object} map[string]interface{} "Asset details"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Router      /assets/{id} [get]
func (h *AssetHandler) GetAssetByID(c *gin.Context) {
	assetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	asset, err := h.assetService.GetAssetByID(assetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

// UpdateAsset handles updating an asset
// @Summary     Update an asset
// @Description Update an asset's details; blank fields are left unchanged
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Asset ID"
// @Param       request body AssetRequest true "Updated fields"
// @Success     200 {object} map[string]interface{} "Updated asset"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Router      /assets/{id} [put]
func (h *AssetHandler) UpdateAsset(c *gin.Context) {
	assetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	asset, err := h.assetService.UpdateAsset(assetID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

// DeleteAsset handles deleting an asset
// @Summary     Delete an asset
// @Description Delete an asset and its document records
// @Tags        assets
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Asset ID"
// @Success     200 {object} map[string]interface{} "Deleted"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Router      /assets/{id} [delete]
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	assetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.assetService.DeleteAsset(assetID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// UploadDocument handles attaching a document file to an asset
// @Summary     Upload an asset document
// @Description Attach a PDF, JPEG, or PNG document to an asset
// @Tags        assets
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Asset ID"
// @Param       kind formData string true "Document kind (maintenance, insurance, other)"
// @Param       file formData file true "Document file"
// @Success     201 {object} map[string]interface{} "Document attached"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Router      /assets/{id}/documents [post]
func (h *AssetHandler) UploadDocument(c *gin.Context) {
	assetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	kind := models.DocumentKind(c.PostForm("kind"))
	if kind == "" {
		kind = models.DocumentKindOther
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is required"))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer f.Close()

	doc, err := h.documentService.AttachDocument(assetID, kind, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), f)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"document": doc})
}

// GetDocuments handles listing an asset's documents
// @Summary     List asset documents
// @Description Get a paginated list of an asset's documents
// @Tags        assets
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Asset ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} map[string]interface{} "Paginated documents"
// @Router      /assets/{id}/documents [get]
func (h *AssetHandler) GetDocuments(c *gin.Context) {
	assetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.documentService.GetAssetDocuments(assetID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DownloadDocument streams a stored document file
// @Summary     Download a document
// @Description Stream a stored asset document
// @Tags        assets
// @Produce     application/octet-stream
// @Security    BearerAuth
// @Param       id path int true "Document ID"
// @Success     200 {file} file "Document file"
// @Failure     404 {object} ErrorResponse "Document not found"
// @Router      /documents/{id} [get]
func (h *AssetHandler) DownloadDocument(c *gin.Context) {
	documentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	doc, err := h.documentService.OpenDocument(documentID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	defer doc.File.Close()

	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.DataFromReader(http.StatusOK, -1, doc.ContentType, doc.File, nil)
}

// DeleteDocument handles deleting a document
// @Summary     Delete a document
// @Description Delete a document record and its stored file
// @Tags        assets
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Document ID"
// @Success     200 {object} map[string]interface{} "Deleted"
// @Failure     404 {object} ErrorResponse "Document not found"
// @Router      /documents/{id} [delete]
func (h *AssetHandler) DeleteDocument(c *gin.Context) {
	documentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.documentService.DeleteDocument(documentID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
