package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "lizsys/internal/errors"
	"lizsys/internal/pagination"
	"lizsys/internal/services"
)

// ClientHandler handles client-related requests.
type ClientHandler struct {
	clientService services.ClientServicer
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(clientService services.ClientServicer) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

// ClientRequest represents the payload for creating or updating a client
type ClientRequest struct {
	Name    string `json:"name" binding:"max=200"`
	Email   string `json:"email" binding:"omitempty,email,max=255"`
	Phone   string `json:"phone" binding:"max=50"`
	Address string `json:"address" binding:"max=500"`
}

// CreateClient handles client creation
// @Summary     Create a client
// @Description Register a new leasing client
// @Tags        clients
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ClientRequest true "Client details"
// @Success     201 {object} map[string]interface{} "Client created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /clients [post]
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	client, err := h.clientService.CreateClient(req.Name, req.Email, req.Phone, req.Address)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"client": client})
}

// GetClients handles listing clients
// @Summary     List clients
// @Description Get a paginated list of clients, optionally filtered by name or email
// @Tags        clients
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Param       search query string false "Name or email search"
// @Success     200 {object} map[string]interface{} "Paginated clients"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /clients [get]
func (h *ClientHandler) GetClients(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.clientService.GetClients(page, c.Query("search"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetClientByID handles fetching a single client
// @Summary     Get a client
// @Description Get a client with their contracts and assets
// @Tags        clients
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Client ID"
// @Success     200 {object} map[string]interface{} "Client details"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Client not found"
// @Router      /clients/{id} [get]
func (h *ClientHandler) GetClientByID(c *gin.Context) {
	clientID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	client, err := h.clientService.GetClientByID(clientID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"client": client})
}

// UpdateClient handles updating a client's details
// @Summary     Update a client
// @Description Update a client's contact details; blank fields are left unchanged
// @Tags        clients
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Client ID"
// @Param       request body ClientRequest true "Updated fields"
// @Success     200 {object} map[string]interface{} "Updated client"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Client not found"
// @Router      /clients/{id} [put]
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	clientID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	client, err := h.clientService.UpdateClient(clientID, req.Name, req.Email, req.Phone, req.Address)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"client": client})
}

// DeleteClient handles deleting a client
// @Summary     Delete a client
// @Description Delete a client without contracts; their assets are unassigned
// @Tags        clients
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Client ID"
// @Success     200 {object} map[string]interface{} "Deleted"
// @Failure     404 {object} ErrorResponse "Client not found"
// @Failure     409 {object} ErrorResponse "Client has contracts"
// @Router      /clients/{id} [delete]
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	clientID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.clientService.DeleteClient(clientID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
