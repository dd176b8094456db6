package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "lizsys/internal/errors"
	"lizsys/internal/finance"
	"lizsys/internal/pagination"
	"lizsys/internal/services"
)

// PaymentHandler handles payment-related requests.
type PaymentHandler struct {
	paymentService services.PaymentServicer
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService services.PaymentServicer) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// paymentInputFromForm builds a PaymentInput from a multipart form. The
// receipt file is optional.
func paymentInputFromForm(c *gin.Context) (services.PaymentInput, error) {
	var input services.PaymentInput

	if raw := c.PostForm("client_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return input, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid client_id")
		}
		input.ClientID = uint(id)
	}
	if raw := c.PostForm("contract_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return input, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid contract_id")
		}
		input.ContractID = uint(id)
	}
	if raw := c.PostForm("amount"); raw != "" {
		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return input, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid amount")
		}
		input.Amount = amount
	}
	if raw := c.PostForm("date"); raw != "" {
		date, err := finance.ParseDate(raw)
		if err != nil {
			return input, err
		}
		input.Date = date
	}

	fileHeader, err := c.FormFile("receipt")
	if err == nil {
		f, openErr := fileHeader.Open()
		if openErr != nil {
			return input, apperrors.Wrap(apperrors.ErrInternalServer, openErr)
		}
		input.Receipt = &services.ReceiptUpload{
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Reader:      f,
		}
	}

	return input, nil
}

// CreatePayment handles recording a payment
// @Summary     Record a payment
// @Description Record a payment against a contract with an optional receipt file; the flat daily late fee is derived from the contract due date
// @Tags        payments
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       client_id formData int true "Client ID"
// @Param       contract_id formData int true "Contract ID"
// @Param       amount formData number true "Payment amount"
// @Param       date formData string false "Payment date (default now)"
// @Param       receipt formData file false "Receipt (PDF, JPEG, or PNG)"
// @Success     201 {object} map[string]interface{} "Payment recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Contract not found"
// @Failure     409 {object} ErrorResponse "Contract transferred"
// @Router      /payments [post]
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	input, err := paymentInputFromForm(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	payment, err := h.paymentService.CreatePayment(input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"payment": payment})
}

// PreCheckPayment handles payment pre-checks
// @Summary     Pre-check a payment
// @Description Report the standing of the client's newest contract before recording a payment
// @Tags        payments
// @Produce     json
// @Security    BearerAuth
// @Param       client_id query int true "Client ID"
// @Param       amount query number false "Prospective payment amount, used to flag overpayment"
// @Param       date query string false "Prospective payment date (default now)"
// @Success     200 {object} services.PaymentPreCheck "Contract standing"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "No contract for client"
// @Router      /payments/precheck [get]
func (h *PaymentHandler) PreCheckPayment(c *gin.Context) {
	raw := c.Query("client_id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid client_id"))
		return
	}

	var amount float64
	if rawAmount := c.Query("amount"); rawAmount != "" {
		amount, err = strconv.ParseFloat(rawAmount, 64)
		if err != nil || amount < 0 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid amount"))
			return
		}
	}

	date := time.Now()
	if rawDate := c.Query("date"); rawDate != "" {
		parsed, err := finance.ParseDate(rawDate)
		if err != nil {
			respondWithError(c, err)
			return
		}
		date = parsed
	}

	check, err := h.paymentService.PreCheckPayment(uint(id), amount, date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"precheck": check})
}

// GetPayments handles listing payments
// @Summary     List payments
// @Description Get a paginated list of payments filtered by client, contract, or date range
// @Tags        payments
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Param       client_id query int false "Client ID"
// @Param       contract_id query int false "Contract ID"
// @Param       from query string false "Range start"
// @Param       to query string false "Range end"
// @Success     200 {object} map[string]interface{} "Paginated payments"
// @Router      /payments [get]
func (h *PaymentHandler) GetPayments(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.PaymentFilter
	if raw := c.Query("client_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid client_id"))
			return
		}
		cid := uint(id)
		filter.ClientID = &cid
	}
	if raw := c.Query("contract_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid contract_id"))
			return
		}
		cid := uint(id)
		filter.ContractID = &cid
	}
	from, err := parseOptionalDate(c.Query("from"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.FromDate = from
	to, err := parseOptionalDate(c.Query("to"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.ToDate = to

	result, err := h.paymentService.GetPayments(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPaymentByID handles fetching a single payment
// @Summary     Get a payment
// @Description Get a payment with its client and contract
// @Tags        payments
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Payment ID"
// @Success     200 {object} map[string]interface{} "Payment details"
// @Failure     404 {object} ErrorResponse "Payment not found"
// @Router      /payments/{id} [get]
func (h *PaymentHandler) GetPaymentByID(c *gin.Context) {
	paymentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	payment, err := h.paymentService.GetPaymentByID(paymentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// UpdatePayment handles amending a payment
// @Summary     Amend a payment
// @Description Amend a payment's amount, date, receipt, or contract; the contract balances are rebalanced atomically
// @Tags        payments
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Payment ID"
// @Param       client_id formData int false "New client ID"
// @Param       contract_id formData int false "New contract ID"
// @Param       amount formData number false "New amount"
// @Param       date formData string false "New date"
// @Param       receipt formData file false "Replacement receipt"
// @Success     200 {object} map[string]interface{} "Amended payment"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Payment not found"
// @Router      /payments/{id} [put]
func (h *PaymentHandler) UpdatePayment(c *gin.Context) {
	paymentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	input, err := paymentInputFromForm(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	payment, err := h.paymentService.UpdatePayment(paymentID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// DeletePayment handles deleting a payment
// @Summary     Delete a payment
// @Description Delete a payment, restore the contract balance, and remove the stored receipt
// @Tags        payments
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Payment ID"
// @Success     200 {object} map[string]interface{} "Deleted"
// @Failure     404 {object} ErrorResponse "Payment not found"
// @Router      /payments/{id} [delete]
func (h *PaymentHandler) DeletePayment(c *gin.Context) {
	paymentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.paymentService.DeletePayment(paymentID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// DownloadReceipt streams a stored payment receipt
// @Summary     Download a receipt
// @Description Stream the receipt file stored for a payment
// @Tags        payments
// @Produce     application/octet-stream
// @Security    BearerAuth
// @Param       id path int true "Payment ID"
// @Success     200 {file} file "Receipt file"
// @Failure     404 {object} ErrorResponse "Receipt not found"
// @Router      /payments/{id}/receipt [get]
func (h *PaymentHandler) DownloadReceipt(c *gin.Context) {
	paymentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	receipt, err := h.paymentService.OpenReceipt(paymentID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	defer receipt.File.Close()

	c.Header("Content-Disposition", `attachment; filename="`+receipt.Filename+`"`)
	c.DataFromReader(http.StatusOK, -1, receipt.ContentType, receipt.File, nil)
}
