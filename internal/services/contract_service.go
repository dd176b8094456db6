package services

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	apperrors "lizsys/internal/errors"
	"lizsys/internal/finance"
	"lizsys/internal/models"
	"lizsys/internal/pagination"
)

// contractService handles the contract ledger's business logic.
type contractService struct {
	db *gorm.DB

	// balanceLocks serializes balance updates per contract so that
	// concurrent payments never interleave their read-modify-write.
	mu           sync.Mutex
	balanceLocks map[uint]*sync.Mutex
}

// NewContractService creates a new ContractServicer.
func NewContractService(db *gorm.DB) ContractServicer {
	return &contractService{
		db:           db,
		balanceLocks: make(map[uint]*sync.Mutex),
	}
}

func (s *contractService) lockFor(contractID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.balanceLocks[contractID]
	if !ok {
		l = &sync.Mutex{}
		s.balanceLocks[contractID] = l
	}
	return l
}

// WithBalanceLock runs fn while holding the balance locks for the given
// contracts. The locks must cover the whole transaction that adjusts a
// balance, not just the read-modify-write itself, so a concurrent payment
// cannot read a stale balance before the first one commits. Locks are
// acquired in ID order so two callers locking the same pair cannot
// deadlock.
func (s *contractService) WithBalanceLock(fn func() error, contractIDs ...uint) error {
	ids := make([]uint, 0, len(contractIDs))
	for _, id := range contractIDs {
		duplicate := false
		for _, seen := range ids {
			if seen == id {
				duplicate = true
				break
			}
		}
		if !duplicate {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	locks := make([]*sync.Mutex, len(ids))
	for i, id := range ids {
		locks[i] = s.lockFor(id)
		locks[i].Lock()
	}
	defer func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}()

	return fn()
}

// CreateContract creates a new contract for a client. The monthly payment
// is derived from the financing terms when the caller does not supply one.
func (s *contractService) CreateContract(input ContractInput) (*models.Contract, error) {
	if strings.TrimSpace(input.Number) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "contract number is required")
	}
	if input.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if input.TermMonths <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "term must be at least one month")
	}
	if input.StartDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "start date is required")
	}
	if !input.EndDate.IsZero() && input.EndDate.Before(input.StartDate) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date must not precede start date")
	}

	var clients int64
	if err := s.db.Model(&models.Client{}).Where("id = ?", input.ClientID).Count(&clients).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if clients == 0 {
		return nil, apperrors.ErrClientNotFound
	}

	var dupes int64
	if err := s.db.Model(&models.Contract{}).Where("number = ?", input.Number).Count(&dupes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if dupes > 0 {
		return nil, apperrors.ErrDuplicateContractNumber
	}

	monthly := input.MonthlyPayment
	if monthly == 0 {
		quote, err := s.CalculateFinancing(input.Amount, input.DownPayment, input.InterestRate, input.TermMonths)
		if err != nil {
			return nil, err
		}
		monthly = quote.MonthlyPayment
	}

	endDate := input.EndDate
	if endDate.IsZero() {
		endDate = input.StartDate.AddDate(0, input.TermMonths, 0)
	}

	contract := &models.Contract{
		Title:          input.Title,
		Number:         strings.TrimSpace(input.Number),
		Amount:         input.Amount,
		DownPayment:    input.DownPayment,
		InterestRate:   input.InterestRate,
		TermMonths:     input.TermMonths,
		MonthlyPayment: monthly,
		StartDate:      input.StartDate,
		EndDate:        endDate,
		DueDate:        input.DueDate,
		ClientID:       input.ClientID,
	}

	if err := s.db.Create(contract).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return contract, nil
}

// CalculateFinancing computes the amortized monthly payment and total cost
// for the given terms without touching the database.
func (s *contractService) CalculateFinancing(principal, downPayment, annualRate float64, termMonths int) (*FinancingQuote, error) {
	monthly, total, err := finance.AmortizedPayment(principal, downPayment, annualRate, termMonths)
	if err != nil {
		return nil, err
	}
	return &FinancingQuote{
		FinancedAmount: finance.Round2(principal - downPayment),
		MonthlyPayment: monthly,
		TotalCost:      total,
	}, nil
}

// GetContracts retrieves a paginated, filtered list of contracts.
func (s *contractService) GetContracts(page pagination.PageRequest, filter ContractFilter) (*pagination.PageResponse[models.Contract], error) {
	page.Defaults()

	base := s.db.Model(&models.Contract{})
	if filter.ClientID != nil {
		base = base.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		base = base.Where("LOWER(number) LIKE ? OR LOWER(title) LIKE ?", pattern, pattern)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var contracts []models.Contract
	if err := base.Scopes(pagination.Paginate(page)).
		Order("end_date DESC").
		Find(&contracts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(contracts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetContractByID retrieves a contract by ID
func (s *contractService) GetContractByID(contractID uint) (*models.Contract, error) {
	var contract models.Contract
	if err := s.db.First(&contract, contractID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrContractNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &contract, nil
}

// LatestForClient returns the client's contract with the latest end date.
func (s *contractService) LatestForClient(clientID uint) (*models.Contract, error) {
	var contract models.Contract
	if err := s.db.Where("client_id = ?", clientID).
		Order("end_date DESC").
		First(&contract).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrContractNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &contract, nil
}

// UpdateContract updates a contract's descriptive and financing fields.
// The running balance and status are managed by their own operations and
// are never touched here.
func (s *contractService) UpdateContract(contractID uint, input ContractInput) (*models.Contract, error) {
	contract, err := s.GetContractByID(contractID)
	if err != nil {
		return nil, err
	}

	if input.Number != "" && input.Number != contract.Number {
		var dupes int64
		if err := s.db.Model(&models.Contract{}).
			Where("number = ? AND id <> ?", input.Number, contractID).
			Count(&dupes).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if dupes > 0 {
			return nil, apperrors.ErrDuplicateContractNumber
		}
		contract.Number = strings.TrimSpace(input.Number)
	}

	if input.Title != "" {
		contract.Title = input.Title
	}
	if input.Amount > 0 {
		contract.Amount = input.Amount
	}
	if input.DownPayment > 0 {
		contract.DownPayment = input.DownPayment
	}
	if input.InterestRate > 0 {
		contract.InterestRate = input.InterestRate
	}
	if input.TermMonths > 0 {
		contract.TermMonths = input.TermMonths
	}
	if input.MonthlyPayment > 0 {
		contract.MonthlyPayment = input.MonthlyPayment
	}
	if !input.StartDate.IsZero() {
		contract.StartDate = input.StartDate
	}
	if !input.EndDate.IsZero() {
		contract.EndDate = input.EndDate
	}
	if input.DueDate != nil {
		contract.DueDate = input.DueDate
	}
	if contract.EndDate.Before(contract.StartDate) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date must not precede start date")
	}

	if err := s.db.Save(contract).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return contract, nil
}

// ExtendContract pushes the contract end date forward by the given number
// of months and lengthens the term to match.
func (s *contractService) ExtendContract(contractID uint, months int) (*models.Contract, error) {
	if months <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "extension must be at least one month")
	}

	contract, err := s.GetContractByID(contractID)
	if err != nil {
		return nil, err
	}

	contract.EndDate = contract.EndDate.AddDate(0, months, 0)
	contract.TermMonths += months

	if err := s.db.Save(contract).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return contract, nil
}

// SetContractEndDate sets the contract end date directly.
func (s *contractService) SetContractEndDate(contractID uint, endDate time.Time) (*models.Contract, error) {
	contract, err := s.GetContractByID(contractID)
	if err != nil {
		return nil, err
	}

	// Shortening a contract is not supported; the end date may only move forward.
	if endDate.Before(contract.EndDate) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidDate, "end date must not precede the current end date")
	}

	contract.EndDate = endDate
	if err := s.db.Save(contract).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return contract, nil
}

// SetDueDate sets the next payment due date used for late-fee computation.
func (s *contractService) SetDueDate(contractID uint, dueDate time.Time) (*models.Contract, error) {
	contract, err := s.GetContractByID(contractID)
	if err != nil {
		return nil, err
	}

	contract.DueDate = &dueDate
	if err := s.db.Save(contract).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return contract, nil
}

// TransferOwnership reassigns the contract to a new client and marks it
// transferred. Transferred contracts accept no further payments.
func (s *contractService) TransferOwnership(contractID, newClientID uint) (*models.Contract, error) {
	contract, err := s.GetContractByID(contractID)
	if err != nil {
		return nil, err
	}

	if contract.Status == models.ContractStatusTransferred {
		return nil, apperrors.ErrContractTransferred
	}
	if contract.ClientID == newClientID {
		return nil, apperrors.ErrInvalidTransfer
	}

	var clients int64
	if err := s.db.Model(&models.Client{}).Where("id = ?", newClientID).Count(&clients).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if clients == 0 {
		return nil, apperrors.ErrClientNotFound
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		contract.ClientID = newClientID
		contract.Status = models.ContractStatusTransferred
		if err := tx.Save(contract).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return contract, nil
}

// CalculatePenalty computes the balance-proportional penalty accrued on a
// contract as of the given date. A contract that is paid off or not yet
// due accrues nothing. Contracts migrated by hand can lack a stored
// remaining balance; those accrue penalty on the full contract amount
// until a payment seeds the balance.
func (s *contractService) CalculatePenalty(contractID uint, penaltyRate float64, asOf time.Time) (*PenaltyResult, error) {
	if penaltyRate <= 0 {
		penaltyRate = finance.DefaultPenaltyRate
	}

	contract, err := s.GetContractByID(contractID)
	if err != nil {
		return nil, err
	}

	lateDays, penalty := finance.BalanceProportionalPenalty(contract.Outstanding(), penaltyRate, contract.PaymentDueDate(), asOf)
	return &PenaltyResult{
		ContractID:  contract.ID,
		Balance:     contract.Outstanding(),
		LateDays:    lateDays,
		PenaltyRate: penaltyRate,
		Penalty:     penalty,
	}, nil
}

// DeleteContract removes a contract. Contracts with payments on file
// cannot be deleted.
func (s *contractService) DeleteContract(contractID uint) error {
	contract, err := s.GetContractByID(contractID)
	if err != nil {
		return err
	}

	var payments int64
	if err := s.db.Model(&models.Payment{}).Where("contract_id = ?", contractID).Count(&payments).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if payments > 0 {
		return apperrors.ErrContractHasPayments
	}

	if err := s.db.Delete(contract).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return nil
}

// ApplyPayment subtracts amount from the contract's running balance inside
// the caller's transaction. A balance below zero is an overpayment credit
// and is kept as-is.
func (s *contractService) ApplyPayment(tx *gorm.DB, contractID uint, amount float64) error {
	return s.adjustBalance(tx, contractID, -amount)
}

// RestorePayment adds amount back to the contract's running balance inside
// the caller's transaction, reversing a deleted or amended payment.
func (s *contractService) RestorePayment(tx *gorm.DB, contractID uint, amount float64) error {
	return s.adjustBalance(tx, contractID, amount)
}

// adjustBalance reads and rewrites the contract's balance. Callers must
// hold the contract's balance lock via WithBalanceLock for the full span
// of the enclosing transaction.
func (s *contractService) adjustBalance(tx *gorm.DB, contractID uint, delta float64) error {
	var contract models.Contract
	if err := tx.First(&contract, contractID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrContractNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	balance := finance.Round2(contract.Outstanding() + delta)
	if err := tx.Model(&contract).Update("remaining_balance", balance).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return nil
}
