package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "lizsys/internal/errors"
	"lizsys/internal/finance"
	"lizsys/internal/models"
	"lizsys/internal/pagination"
	"lizsys/internal/services"
)

// ContractHandler handles contract-related requests.
type ContractHandler struct {
	contractService services.ContractServicer
}

// NewContractHandler creates a new ContractHandler.
func NewContractHandler(contractService services.ContractServicer) *ContractHandler {
	return &ContractHandler{contractService: contractService}
}

// ContractRequest represents the payload for creating or updating a contract.
// InterestRate is an annual rate as a fraction of one (0.12 = 12% p.a.).
type ContractRequest struct {
	Title          string  `json:"title" binding:"max=200"`
	Number         string  `json:"number" binding:"max=100"`
	Amount         float64 `json:"amount" binding:"omitempty,gt=0"`
	DownPayment    float64 `json:"down_payment" binding:"omitempty,gte=0"`
	InterestRate   float64 `json:"interest_rate" binding:"omitempty,gte=0"`
	TermMonths     int     `json:"term_months" binding:"omitempty,gt=0"`
	MonthlyPayment float64 `json:"monthly_payment" binding:"omitempty,gt=0"`
	StartDate      string  `json:"start_date" binding:"omitempty,date"`
	EndDate        string  `json:"end_date" binding:"omitempty,date"`
	DueDate        string  `json:"due_date" binding:"omitempty,date"`
	ClientID       uint    `json:"client_id"`
}

func (r *ContractRequest) toInput() (services.ContractInput, error) {
	input := services.ContractInput{
		Title:          r.Title,
		Number:         r.Number,
		Amount:         r.Amount,
		DownPayment:    r.DownPayment,
		InterestRate:   r.InterestRate,
		TermMonths:     r.TermMonths,
		MonthlyPayment: r.MonthlyPayment,
		ClientID:       r.ClientID,
	}

	if r.StartDate != "" {
		start, err := finance.ParseDate(r.StartDate)
		if err != nil {
			return input, err
		}
		input.StartDate = start
	}
	if r.EndDate != "" {
		end, err := finance.ParseDate(r.EndDate)
		if err != nil {
			return input, err
		}
		input.EndDate = end
	}
	due, err := parseOptionalDate(r.DueDate)
	if err != nil {
		return input, err
	}
	input.DueDate = due

	return input, nil
}

// FinancingRequest represents the payload for a financing quote
type FinancingRequest struct {
	Amount       float64 `json:"amount" binding:"required,gt=0"`
	DownPayment  float64 `json:"down_payment" binding:"omitempty,gte=0"`
	InterestRate float64 `json:"interest_rate" binding:"omitempty,gte=0"`
	TermMonths   int     `json:"term_months" binding:"required,gt=0"`
}

// CreateContract handles contract creation
// @Summary     Create a contract
// @Description Create a leasing contract; the monthly payment is derived from the financing terms when omitted
// @Tags        contracts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ContractRequest true "Contract details"
// @Success     201 {object} map[string]interface{} "Contract created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Client not found"
// @Failure     409 {object} ErrorResponse "Duplicate contract number"
// @Router      /contracts [post]
func (h *ContractHandler) CreateContract(c *gin.Context) {
	var req ContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	contract, err := h.contractService.CreateContract(input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"contract": contract})
}

// CalculateFinancing handles financing quote requests
// @Summary     Calculate financing
// @Description Compute the amortized monthly payment and total cost for the given terms
// @Tags        contracts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body FinancingRequest true "Financing terms"
// @Success     200 {object} services.FinancingQuote "Financing quote"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /contracts/financing [post]
func (h *ContractHandler) CalculateFinancing(c *gin.Context) {
	var req FinancingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	quote, err := h.contractService.CalculateFinancing(req.Amount, req.DownPayment, req.InterestRate, req.TermMonths)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

// GetContracts handles listing contracts
// @Summary     List contracts
// @Description Get a paginated list of contracts filtered by client, status, or search
// @Tags        contracts
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Param       client_id query int false "Client ID"
// @Param       status query string false "Contract status"
// @Param       search query string false "Number or title search"
// @Success     200 {object} map[string]interface{} "Paginated contracts"
// @Router      /contracts [get]
func (h *ContractHandler) GetContracts(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.ContractFilter{Search: c.Query("search")}
	if status := c.Query("status"); status != "" {
		s := models.ContractStatus(status)
		if s != models.ContractStatusActive && s != models.ContractStatusTransferred {
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

	result, err := h.contractService.GetContracts(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetContractByID handles fetching a single contract
// @Summary     Get a contract
// @Description Get a contract by ID
// @Tags        contracts
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Contract ID"
// @Success     200 {object} map[string]interface{} "Contract details"
// @Failure     404 {object} ErrorResponse "Contract not found"
// @Router      /contracts/{id} [get]
func (h *ContractHandler) GetContractByID(c *gin.Context) {
	contractID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	contract, err := h.contractService.GetContractByID(contractID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contract": contract})
}

// UpdateContract handles updating a contract
// @Summary     Update a contract
// @Description Update a contract's descriptive and financing fields
// @Tags        contracts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Contract ID"
// @Param       request body ContractRequest true "Updated fields"
// @Success     200 {object} map[string]interface{} "Updated contract"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Contract not found"
// @Failure     409 {object} ErrorResponse "Duplicate contract number"
// @Router      /contracts/{id} [put]
func (h *ContractHandler) UpdateContract(c *gin.Context) {
	contractID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	contract, err := h.contractService.UpdateContract(contractID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contract": contract})
}

// ExtendContractRequest represents the payload for extending a contract
type ExtendContractRequest struct {
	Months int `json:"months" binding:"required,gt=0"`
}

// defaultExtensionMonths is applied when an extend request carries no body.
const defaultExtensionMonths = 12

// ExtendContract handles extending a contract's term
// @Summary     Extend a contract
// @Description Push the contract end date forward by a number of months (12 when no body is sent)
// @Tags        contracts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Contract ID"
// @Param       request body ExtendContractRequest false "Extension in months"
// @Success     200 {object} map[string]interface{} "Extended contract"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Contract not found"
// @Router      /contracts/{id}/extend [post]
func (h *ContractHandler) ExtendContract(c *gin.Context) {
	contractID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	months := defaultExtensionMonths
	if c.Request.ContentLength > 0 {
		var req ExtendContractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
		months = req.Months
	}

	contract, err := h.contractService.ExtendContract(contractID, months)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contract": contract})
}

// ContractDateRequest represents a single-date payload for contract date updates
type ContractDateRequest struct {
	Date string `json:"date" binding:"required,date"`
}

// SetEndDate handles setting a contract's end date directly
// @Summary     Set contract end date
// @Description Set the contract end date to an explicit value
// @Tags        contracts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Contract ID"
// @Param       request body ContractDateRequest true "New end date"
// @Success     200 {object} map[string]interface{} "Updated contract"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Contract not found"
// @Router      /contracts/{id}/end-date [put]
func (h *ContractHandler) SetEndDate(c *gin.Context) {
	contractID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ContractDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	endDate, err := finance.ParseDate(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	contract, err := h.contractService.SetContractEndDate(contractID, endDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contract": contract})
}

// SetDueDate handles setting a contract's payment due date
// @Summary     Set contract due date
// @Description Set the due date used for late-fee computation
// @Tags        contracts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Contract ID"
// @Param       request body ContractDateRequest true "New due date"
// @Success     200 {object} map[string]interface{} "Updated contract"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Contract not found"
// @Router      /contracts/{id}/due-date [put]
func (h *ContractHandler) SetDueDate(c *gin.Context) {
	contractID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ContractDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	dueDate, err := finance.ParseDate(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	contract, err := h.contractService.SetDueDate(contractID, dueDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contract": contract})
}

// TransferRequest represents the payload for transferring a contract
type TransferRequest struct {
	NewClientID uint `json:"new_client_id" binding:"required"`
}

// TransferOwnership handles contract transfers
// @Summary     Transfer a contract
// @Description Reassign the contract to a new client and mark it transferred
// @Tags        contracts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Contract ID"
// @Param       request body TransferRequest true "New owner"
// @Success     200 {object} map[string]interface{} "Transferred contract"
// @Failure     400 {object} ErrorResponse "Invalid transfer"
// @Failure     404 {object} ErrorResponse "Contract or client not found"
// @Failure     409 {object} ErrorResponse "Contract already transferred"
// @Router      /contracts/{id}/transfer [post]
func (h *ContractHandler) TransferOwnership(c *gin.Context) {
	contractID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	contract, err := h.contractService.TransferOwnership(contractID, req.NewClientID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contract": contract})
}

// GetPenalty handles penalty calculations
// @Summary     Calculate contract penalty
// @Description Compute the balance-proportional penalty accrued on an overdue contract
// @Tags        contracts
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Contract ID"
// @Param       rate query number false "Daily penalty rate as a fraction of one (default 0.01)"
// @Param       as_of query string false "Reference date (default now)"
// @Success     200 {object} services.PenaltyResult "Penalty details"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Contract not found"
// @Router      /contracts/{id}/penalty [get]
func (h *ContractHandler) GetPenalty(c *gin.Context) {
	contractID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	rate := 0.0
	if raw := c.Query("rate"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid rate"))
			return
		}
		rate = parsed
	}

	asOf := time.Now()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := finance.ParseDate(raw)
		if err != nil {
			respondWithError(c, err)
			return
		}
		asOf = parsed
	}

	result, err := h.contractService.CalculatePenalty(contractID, rate, asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"penalty": result})
}

// DeleteContract handles deleting a contract
// @Summary     Delete a contract
// @Description Delete a contract without recorded payments
// @Tags        contracts
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Contract ID"
// @Success     200 {object} map[string]interface{} "Deleted"
// @Failure     404 {object} ErrorResponse "Contract not found"
// @Failure     409 {object} ErrorResponse "Contract has payments"
// @Router      /contracts/{id} [delete]
func (h *ContractHandler) DeleteContract(c *gin.Context) {
	contractID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.contractService.DeleteContract(contractID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
