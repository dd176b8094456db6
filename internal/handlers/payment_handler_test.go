package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "lizsys/internal/errors"
	"lizsys/internal/models"
	"lizsys/internal/pagination"
	"lizsys/internal/services"
)

// --- mock payment service ---

type mockPaymentService struct {
	createPaymentFn   func(input services.PaymentInput) (*models.Payment, error)
	preCheckPaymentFn func(clientID uint, amount float64, date time.Time) (*services.PaymentPreCheck, error)
	getPaymentsFn     func(page pagination.PageRequest, filter services.PaymentFilter) (*pagination.PageResponse[models.Payment], error)
	getPaymentByIDFn  func(paymentID uint) (*models.Payment, error)
	updatePaymentFn   func(paymentID uint, input services.PaymentInput) (*models.Payment, error)
	deletePaymentFn   func(paymentID uint) error
	openReceiptFn     func(paymentID uint) (*services.Receipt, error)
}

func (m *mockPaymentService) CreatePayment(input services.PaymentInput) (*models.Payment, error) {
	if m.createPaymentFn != nil {
		return m.createPaymentFn(input)
	}
	return &models.Payment{}, nil
}

func (m *mockPaymentService) PreCheckPayment(clientID uint, amount float64, date time.Time) (*services.PaymentPreCheck, error) {
	if m.preCheckPaymentFn != nil {
		return m.preCheckPaymentFn(clientID, amount, date)
	}
	return &services.PaymentPreCheck{}, nil
}

func (m *mockPaymentService) GetPayments(page pagination.PageRequest, filter services.PaymentFilter) (*pagination.PageResponse[models.Payment], error) {
	if m.getPaymentsFn != nil {
		return m.getPaymentsFn(page, filter)
	}
	resp := pagination.NewPageResponse([]models.Payment{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockPaymentService) GetPaymentByID(paymentID uint) (*models.Payment, error) {
	if m.getPaymentByIDFn != nil {
		return m.getPaymentByIDFn(paymentID)
	}
	return &models.Payment{}, nil
}

func (m *mockPaymentService) UpdatePayment(paymentID uint, input services.PaymentInput) (*models.Payment, error) {
	if m.updatePaymentFn != nil {
		return m.updatePaymentFn(paymentID, input)
	}
	return &models.Payment{}, nil
}

func (m *mockPaymentService) DeletePayment(paymentID uint) error {
	if m.deletePaymentFn != nil {
		return m.deletePaymentFn(paymentID)
	}
	return nil
}

func (m *mockPaymentService) OpenReceipt(paymentID uint) (*services.Receipt, error) {
	if m.openReceiptFn != nil {
		return m.openReceiptFn(paymentID)
	}
	return nil, apperrors.ErrReceiptNotFound
}

var _ services.PaymentServicer = (*mockPaymentService)(nil)

func setupPaymentRouter(handler *PaymentHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(1))
	auth.POST("/payments", handler.CreatePayment)
	auth.GET("/payments/precheck", handler.PreCheckPayment)
	auth.GET("/payments", handler.GetPayments)
	auth.GET("/payments/:id", handler.GetPaymentByID)
	auth.PUT("/payments/:id", handler.UpdatePayment)
	auth.DELETE("/payments/:id", handler.DeletePayment)
	auth.GET("/payments/:id/receipt", handler.DownloadReceipt)
	return r
}

// doMultipartRequest sends a multipart form with the given fields and an
// optional file part named "receipt".
func doMultipartRequest(t *testing.T, r *gin.Engine, method, path string, fields map[string]string, fileName, fileContentType, fileBody string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("failed to write form field: %v", err)
		}
	}
	if fileName != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="receipt"; filename="`+fileName+`"`)
		header.Set("Content-Type", fileContentType)
		part, err := w.CreatePart(header)
		if err != nil {
			t.Fatalf("failed to create file part: %v", err)
		}
		if _, err := part.Write([]byte(fileBody)); err != nil {
			t.Fatalf("failed to write file part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// --- tests ---

func TestPaymentHandler_CreatePayment(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var gotInput services.PaymentInput
		svc := &mockPaymentService{
			createPaymentFn: func(input services.PaymentInput) (*models.Payment, error) {
				gotInput = input
				return &models.Payment{
					Base:       models.Base{ID: 1},
					ClientID:   input.ClientID,
					ContractID: input.ContractID,
					Amount:     input.Amount,
					LateFee:    15,
				}, nil
			},
		}
		r := setupPaymentRouter(NewPaymentHandler(svc))

		rec := doMultipartRequest(t, r, "POST", "/payments", map[string]string{
			"client_id":   "3",
			"contract_id": "7",
			"amount":      "500.25",
			"date":        "2026-03-04",
		}, "", "", "")

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotInput.ClientID != 3 || gotInput.ContractID != 7 {
			t.Errorf("unexpected input ids: %+v", gotInput)
		}
		if gotInput.Amount != 500.25 {
			t.Errorf("expected amount 500.25, got %v", gotInput.Amount)
		}
		result := parseJSON(t, rec)
		payment := result["payment"].(map[string]interface{})
		if payment["late_fee"].(float64) != 15 {
			t.Errorf("expected late fee 15, got %v", payment["late_fee"])
		}
	})

	t.Run("forwards receipt upload", func(t *testing.T) {
		var gotReceipt *services.ReceiptUpload
		svc := &mockPaymentService{
			createPaymentFn: func(input services.PaymentInput) (*models.Payment, error) {
				gotReceipt = input.Receipt
				return &models.Payment{Base: models.Base{ID: 1}}, nil
			},
		}
		r := setupPaymentRouter(NewPaymentHandler(svc))

		rec := doMultipartRequest(t, r, "POST", "/payments", map[string]string{
			"client_id":   "3",
			"contract_id": "7",
			"amount":      "100",
		}, "receipt.pdf", "application/pdf", "%PDF-1.4 fake")

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotReceipt == nil {
			t.Fatal("expected receipt to be forwarded")
		}
		if gotReceipt.Filename != "receipt.pdf" || gotReceipt.ContentType != "application/pdf" {
			t.Errorf("unexpected receipt metadata: %+v", gotReceipt)
		}
	})

	t.Run("returns 400 on bad amount", func(t *testing.T) {
		r := setupPaymentRouter(NewPaymentHandler(&mockPaymentService{}))

		rec := doMultipartRequest(t, r, "POST", "/payments", map[string]string{
			"client_id":   "3",
			"contract_id": "7",
			"amount":      "lots",
		}, "", "", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on transferred contract", func(t *testing.T) {
		svc := &mockPaymentService{
			createPaymentFn: func(_ services.PaymentInput) (*models.Payment, error) {
				return nil, apperrors.ErrContractTransferred
			},
		}
		r := setupPaymentRouter(NewPaymentHandler(svc))

		rec := doMultipartRequest(t, r, "POST", "/payments", map[string]string{
			"client_id":   "3",
			"contract_id": "7",
			"amount":      "100",
		}, "", "", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "CONTRACT_TRANSFERRED")
	})
}

func TestPaymentHandler_PreCheckPayment(t *testing.T) {
	t.Run("returns contract standing", func(t *testing.T) {
		var gotAmount float64
		svc := &mockPaymentService{
			preCheckPaymentFn: func(clientID uint, amount float64, _ time.Time) (*services.PaymentPreCheck, error) {
				gotAmount = amount
				return &services.PaymentPreCheck{
					ContractID:     7,
					LateDays:       4,
					LateFee:        20,
					Balance:        2500,
					IsOverpaid:     true,
					OverpaidAmount: 500,
				}, nil
			},
		}
		r := setupPaymentRouter(NewPaymentHandler(svc))

		rec := doRequest(r, "GET", "/payments/precheck?client_id=3&amount=3000&date=2026-03-05", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotAmount != 3000 {
			t.Errorf("expected amount 3000 forwarded, got %v", gotAmount)
		}
		result := parseJSON(t, rec)
		check := result["precheck"].(map[string]interface{})
		if check["late_fee"].(float64) != 20 {
			t.Errorf("expected late fee 20, got %v", check["late_fee"])
		}
		if check["is_overpaid"].(bool) != true {
			t.Error("expected overpayment flag")
		}
	})

	t.Run("returns 400 without client_id", func(t *testing.T) {
		r := setupPaymentRouter(NewPaymentHandler(&mockPaymentService{}))

		rec := doRequest(r, "GET", "/payments/precheck", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 without contracts", func(t *testing.T) {
		svc := &mockPaymentService{
			preCheckPaymentFn: func(_ uint, _ float64, _ time.Time) (*services.PaymentPreCheck, error) {
				return nil, apperrors.ErrAssociatedContractNotFound
			},
		}
		r := setupPaymentRouter(NewPaymentHandler(svc))

		rec := doRequest(r, "GET", "/payments/precheck?client_id=3", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ASSOCIATED_CONTRACT_NOT_FOUND")
	})
}

func TestPaymentHandler_GetPayments(t *testing.T) {
	t.Run("passes filters through", func(t *testing.T) {
		var gotFilter services.PaymentFilter
		svc := &mockPaymentService{
			getPaymentsFn: func(page pagination.PageRequest, filter services.PaymentFilter) (*pagination.PageResponse[models.Payment], error) {
				gotFilter = filter
				resp := pagination.NewPageResponse([]models.Payment{}, page.Page, page.PageSize, 0)
				return &resp, nil
			},
		}
		r := setupPaymentRouter(NewPaymentHandler(svc))

		rec := doRequest(r, "GET", "/payments?client_id=3&from=2026-01-01&to=2026-02-01", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotFilter.ClientID == nil || *gotFilter.ClientID != 3 {
			t.Errorf("expected client filter 3, got %v", gotFilter.ClientID)
		}
		if gotFilter.FromDate == nil || gotFilter.ToDate == nil {
			t.Error("expected date range filters to be set")
		}
	})

	t.Run("returns 400 on bad from date", func(t *testing.T) {
		r := setupPaymentRouter(NewPaymentHandler(&mockPaymentService{}))

		rec := doRequest(r, "GET", "/payments?from=yesterday", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_DATE")
	})
}

func TestPaymentHandler_UpdatePayment(t *testing.T) {
	t.Run("forwards the full form", func(t *testing.T) {
		var gotID uint
		var gotInput services.PaymentInput
		svc := &mockPaymentService{
			updatePaymentFn: func(paymentID uint, input services.PaymentInput) (*models.Payment, error) {
				gotID = paymentID
				gotInput = input
				return &models.Payment{ClientID: input.ClientID, ContractID: input.ContractID, Amount: input.Amount}, nil
			},
		}
		r := setupPaymentRouter(NewPaymentHandler(svc))

		rec := doMultipartRequest(t, r, "PUT", "/payments/7", map[string]string{
			"client_id":   "2",
			"contract_id": "9",
			"amount":      "600",
		}, "", "", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotID != 7 {
			t.Errorf("expected payment 7, got %d", gotID)
		}
		if gotInput.ClientID != 2 || gotInput.ContractID != 9 {
			t.Errorf("expected client 2 / contract 9, got %d / %d", gotInput.ClientID, gotInput.ContractID)
		}
		if gotInput.Amount != 600 {
			t.Errorf("expected amount 600, got %.2f", gotInput.Amount)
		}
	})
}

func TestPaymentHandler_DownloadReceipt(t *testing.T) {
	t.Run("streams the file", func(t *testing.T) {
		svc := &mockPaymentService{
			openReceiptFn: func(paymentID uint) (*services.Receipt, error) {
				return &services.Receipt{
					File:        http.NoBody,
					Filename:    "receipt-1.pdf",
					ContentType: "application/pdf",
				}, nil
			},
		}
		r := setupPaymentRouter(NewPaymentHandler(svc))

		rec := doRequest(r, "GET", "/payments/1/receipt", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
			t.Errorf("expected application/pdf, got %s", ct)
		}
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		r := setupPaymentRouter(NewPaymentHandler(&mockPaymentService{}))

		rec := doRequest(r, "GET", "/payments/1/receipt", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "RECEIPT_NOT_FOUND")
	})
}

func TestPaymentHandler_DeletePayment(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		var deleted uint
		svc := &mockPaymentService{
			deletePaymentFn: func(paymentID uint) error {
				deleted = paymentID
				return nil
			},
		}
		r := setupPaymentRouter(NewPaymentHandler(svc))

		rec := doRequest(r, "DELETE", "/payments/12", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if deleted != 12 {
			t.Errorf("expected payment 12 deleted, got %d", deleted)
		}
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		svc := &mockPaymentService{
			deletePaymentFn: func(_ uint) error {
				return apperrors.ErrPaymentNotFound
			},
		}
		r := setupPaymentRouter(NewPaymentHandler(svc))

		rec := doRequest(r, "DELETE", "/payments/12", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
