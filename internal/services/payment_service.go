package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "lizsys/internal/errors"
	"lizsys/internal/finance"
	"lizsys/internal/models"
	"lizsys/internal/pagination"
	"lizsys/internal/storage"
)

// allowedReceiptTypes maps accepted receipt content types to their file
// extensions.
var allowedReceiptTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

// paymentService handles payment recording business logic.
type paymentService struct {
	db              *gorm.DB
	contractService ContractServicer
	store           storage.FileStore
}

// NewPaymentService creates a new PaymentServicer.
func NewPaymentService(db *gorm.DB, contractService ContractServicer, store storage.FileStore) PaymentServicer {
	return &paymentService{
		db:              db,
		contractService: contractService,
		store:           store,
	}
}

// CreatePayment records a payment against a contract. The flat daily late
// fee is derived from the contract's due date, the receipt (if any) is
// stored, and the contract balance is reduced in the same database
// transaction as the payment row.
func (s *paymentService) CreatePayment(input PaymentInput) (*models.Payment, error) {
	if input.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	contract, err := s.contractService.GetContractByID(input.ContractID)
	if err != nil {
		return nil, err
	}
	if contract.ClientID != input.ClientID {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "contract does not belong to this client")
	}
	if contract.Status == models.ContractStatusTransferred {
		return nil, apperrors.ErrContractTransferred
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now()
	}

	lateFee := finance.FlatDailyLateFee(contract.PaymentDueDate(), date)

	payment := &models.Payment{
		ClientID:   input.ClientID,
		ContractID: input.ContractID,
		Amount:     input.Amount,
		Date:       date,
		LateFee:    lateFee,
	}

	if input.Receipt != nil {
		path, receiptType, err := s.storeReceipt(input.ContractID, input.Receipt)
		if err != nil {
			return nil, err
		}
		payment.ReceiptPath = path
		payment.ReceiptType = receiptType
	}

	err = s.contractService.WithBalanceLock(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(payment).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return s.contractService.ApplyPayment(tx, contract.ID, payment.Amount)
		})
	}, contract.ID)
	if err != nil {
		if payment.ReceiptPath != "" {
			_ = s.store.Remove(payment.ReceiptPath)
		}
		return nil, err
	}

	return payment, nil
}

// PreCheckPayment reports the standing of the client's newest contract so
// the operator sees the expected late fee before recording a payment.
func (s *paymentService) PreCheckPayment(clientID uint, amount float64, date time.Time) (*PaymentPreCheck, error) {
	contract, err := s.contractService.LatestForClient(clientID)
	if err != nil {
		if errors.Is(err, apperrors.ErrContractNotFound) {
			return nil, apperrors.ErrAssociatedContractNotFound
		}
		return nil, err
	}

	if date.IsZero() {
		date = time.Now()
	}

	due := contract.PaymentDueDate()
	lateFee := finance.FlatDailyLateFee(due, date)
	lateDays := 0
	if lateFee > 0 {
		lateDays = int(lateFee / finance.FlatDailyRate)
	}

	balance := contract.Outstanding()
	check := &PaymentPreCheck{
		ContractID:     contract.ID,
		ContractNumber: contract.Number,
		Balance:        balance,
		MonthlyPayment: contract.MonthlyPayment,
		DueDate:        due,
		LateDays:       lateDays,
		LateFee:        lateFee,
	}
	if amount > balance {
		check.IsOverpaid = true
		check.OverpaidAmount = finance.Round2(amount - balance)
	}
	return check, nil
}

// GetPayments retrieves a paginated, filtered list of payments, newest first.
func (s *paymentService) GetPayments(page pagination.PageRequest, filter PaymentFilter) (*pagination.PageResponse[models.Payment], error) {
	page.Defaults()

	base := s.db.Model(&models.Payment{})
	if filter.ClientID != nil {
		base = base.Where("client_id = ?", *filter.ClientID)
	}
	if filter.ContractID != nil {
		base = base.Where("contract_id = ?", *filter.ContractID)
	}
	if filter.FromDate != nil {
		base = base.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		base = base.Where("date <= ?", *filter.ToDate)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var payments []models.Payment
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Client").Preload("Contract").
		Order("date DESC").
		Find(&payments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(payments, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetPaymentByID retrieves a payment with its client and contract preloaded
func (s *paymentService) GetPaymentByID(paymentID uint) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.Preload("Client").Preload("Contract").First(&payment, paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &payment, nil
}

// UpdatePayment amends a payment's amount, date, receipt, or the contract
// it is recorded against. The balances are rebalanced in one transaction:
// the old amount is restored to the old contract and the new amount
// applied to the new one, so the ledger never drifts.
func (s *paymentService) UpdatePayment(paymentID uint, input PaymentInput) (*models.Payment, error) {
	payment, err := s.GetPaymentByID(paymentID)
	if err != nil {
		return nil, err
	}

	if input.Amount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	oldContractID := payment.ContractID
	newContractID := oldContractID
	if input.ContractID != 0 {
		newContractID = input.ContractID
	}
	newClientID := payment.ClientID
	if input.ClientID != 0 {
		newClientID = input.ClientID
	}

	contract, err := s.contractService.GetContractByID(newContractID)
	if err != nil {
		return nil, err
	}
	if contract.ClientID != newClientID {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "contract does not belong to this client")
	}
	if newContractID != oldContractID && contract.Status == models.ContractStatusTransferred {
		return nil, apperrors.ErrContractTransferred
	}

	oldAmount := payment.Amount
	oldReceipt := ""

	payment.ContractID = newContractID
	payment.ClientID = newClientID
	if input.Amount > 0 {
		payment.Amount = input.Amount
	}
	if !input.Date.IsZero() {
		payment.Date = input.Date
	}
	if !input.Date.IsZero() || newContractID != oldContractID {
		payment.LateFee = finance.FlatDailyLateFee(contract.PaymentDueDate(), payment.Date)
	}
	if input.Receipt != nil {
		path, receiptType, err := s.storeReceipt(payment.ContractID, input.Receipt)
		if err != nil {
			return nil, err
		}
		oldReceipt = payment.ReceiptPath
		payment.ReceiptPath = path
		payment.ReceiptType = receiptType
	}

	err = s.contractService.WithBalanceLock(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			// The preloaded associations are stale after a reassignment,
			// only the payment row itself is saved.
			if err := tx.Omit(clause.Associations).Save(payment).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if payment.ContractID != oldContractID || payment.Amount != oldAmount {
				if err := s.contractService.RestorePayment(tx, oldContractID, oldAmount); err != nil {
					return err
				}
				return s.contractService.ApplyPayment(tx, payment.ContractID, payment.Amount)
			}
			return nil
		})
	}, oldContractID, newContractID)
	if err != nil {
		if input.Receipt != nil {
			_ = s.store.Remove(payment.ReceiptPath)
		}
		return nil, err
	}

	if oldReceipt != "" {
		_ = s.store.Remove(oldReceipt)
	}

	if payment.ContractID != oldContractID {
		// Refresh the preloaded associations after a reassignment.
		return s.GetPaymentByID(payment.ID)
	}
	return payment, nil
}

// DeletePayment removes a payment, restores the contract balance, and
// deletes the stored receipt.
func (s *paymentService) DeletePayment(paymentID uint) error {
	payment, err := s.GetPaymentByID(paymentID)
	if err != nil {
		return err
	}

	err = s.contractService.WithBalanceLock(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(payment).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return s.contractService.RestorePayment(tx, payment.ContractID, payment.Amount)
		})
	}, payment.ContractID)
	if err != nil {
		return err
	}

	if payment.ReceiptPath != "" {
		_ = s.store.Remove(payment.ReceiptPath)
	}

	return nil
}

// OpenReceipt opens the stored receipt file for streaming.
func (s *paymentService) OpenReceipt(paymentID uint) (*Receipt, error) {
	payment, err := s.GetPaymentByID(paymentID)
	if err != nil {
		return nil, err
	}
	if payment.ReceiptPath == "" {
		return nil, apperrors.ErrReceiptNotFound
	}

	f, err := s.store.Open(payment.ReceiptPath)
	if err != nil {
		return nil, apperrors.ErrReceiptNotFound
	}

	ext := allowedReceiptTypes[payment.ReceiptType]
	return &Receipt{
		File:        f,
		Filename:    fmt.Sprintf("receipt-%d%s", payment.ID, ext),
		ContentType: payment.ReceiptType,
	}, nil
}

func (s *paymentService) storeReceipt(contractID uint, upload *ReceiptUpload) (path, receiptType string, err error) {
	if _, ok := allowedReceiptTypes[upload.ContentType]; !ok {
		return "", "", apperrors.ErrUnsupportedReceiptType
	}

	path, err = s.store.Save(fmt.Sprintf("payments/%d", contractID), upload.Filename, upload.Reader)
	if err != nil {
		return "", "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return path, upload.ContentType, nil
}
