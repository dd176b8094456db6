package services

import (
	"io"
	"time"

	"gorm.io/gorm"

	"lizsys/internal/models"
	"lizsys/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, fullName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
}

// ClientServicer defines the contract for client-related business logic.
type ClientServicer interface {
	CreateClient(name, email, phone, address string) (*models.Client, error)
	GetClients(page pagination.PageRequest, search string) (*pagination.PageResponse[models.Client], error)
	GetClientByID(clientID uint) (*models.Client, error)
	UpdateClient(clientID uint, name, email, phone, address string) (*models.Client, error)
	DeleteClient(clientID uint) error
}

// AssetFilter holds optional filter parameters for listing assets.
type AssetFilter struct {
	Status   *models.AssetStatus
	ClientID *uint
	Search   string
}

// AssetInput carries the mutable fields of an asset.
type AssetInput struct {
	Name            string
	Type            string
	VIN             string
	Status          models.AssetStatus
	Location        string
	InspectionDate  *time.Time
	MaintenanceInfo string
	InsuranceInfo   string
	ClientID        *uint
}

// AssetServicer defines the contract for asset-related business logic.
type AssetServicer interface {
	CreateAsset(input AssetInput) (*models.Asset, error)
	GetAssets(page pagination.PageRequest, filter AssetFilter) (*pagination.PageResponse[models.Asset], error)
	GetAssetByID(assetID uint) (*models.Asset, error)
	UpdateAsset(assetID uint, input AssetInput) (*models.Asset, error)
	DeleteAsset(assetID uint) error
}

// ContractInput carries the fields needed to create or update a contract.
type ContractInput struct {
	Title          string
	Number         string
	Amount         float64
	DownPayment    float64
	InterestRate   float64
	TermMonths     int
	MonthlyPayment float64
	StartDate      time.Time
	EndDate        time.Time
	DueDate        *time.Time
	ClientID       uint
}

// ContractFilter holds optional filter parameters for listing contracts.
type ContractFilter struct {
	ClientID *uint
	Status   *models.ContractStatus
	Search   string
}

// FinancingQuote is the result of a financing calculation.
type FinancingQuote struct {
	FinancedAmount float64 `json:"financed_amount"`
	MonthlyPayment float64 `json:"monthly_payment"`
	TotalCost      float64 `json:"total_cost"`
}

// PenaltyResult describes the penalty accrued on an overdue contract.
type PenaltyResult struct {
	ContractID  uint    `json:"contract_id"`
	Balance     float64 `json:"balance"`
	LateDays    int     `json:"late_days"`
	PenaltyRate float64 `json:"penalty_rate"`
	Penalty     float64 `json:"penalty"`
}

// ContractServicer defines the contract ledger's business logic.
type ContractServicer interface {
	CreateContract(input ContractInput) (*models.Contract, error)
	CalculateFinancing(principal, downPayment, annualRate float64, termMonths int) (*FinancingQuote, error)
	GetContracts(page pagination.PageRequest, filter ContractFilter) (*pagination.PageResponse[models.Contract], error)
	GetContractByID(contractID uint) (*models.Contract, error)
	LatestForClient(clientID uint) (*models.Contract, error)
	UpdateContract(contractID uint, input ContractInput) (*models.Contract, error)
	ExtendContract(contractID uint, months int) (*models.Contract, error)
	SetContractEndDate(contractID uint, endDate time.Time) (*models.Contract, error)
	SetDueDate(contractID uint, dueDate time.Time) (*models.Contract, error)
	TransferOwnership(contractID, newClientID uint) (*models.Contract, error)
	CalculatePenalty(contractID uint, penaltyRate float64, asOf time.Time) (*PenaltyResult, error)
	DeleteContract(contractID uint) error

	// ApplyPayment and RestorePayment adjust the running balance inside
	// the caller's database transaction. Callers must wrap the whole
	// transaction in WithBalanceLock for the contracts they touch.
	ApplyPayment(tx *gorm.DB, contractID uint, amount float64) error
	RestorePayment(tx *gorm.DB, contractID uint, amount float64) error

	// WithBalanceLock serializes balance updates for the given contracts
	// for the full duration of fn.
	WithBalanceLock(fn func() error, contractIDs ...uint) error
}

// ReceiptUpload carries an uploaded receipt file.
type ReceiptUpload struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

// PaymentInput carries the fields needed to record or amend a payment.
type PaymentInput struct {
	ClientID   uint
	ContractID uint
	Amount     float64
	Date       time.Time
	Receipt    *ReceiptUpload
}

// PaymentFilter holds optional filter parameters for listing payments.
type PaymentFilter struct {
	ClientID   *uint
	ContractID *uint
	FromDate   *time.Time
	ToDate     *time.Time
}

// PaymentPreCheck reports the standing of a client's newest contract
// before a payment is recorded. When a prospective amount is supplied
// it also simulates the payment to flag overpayment.
type PaymentPreCheck struct {
	ContractID     uint      `json:"contract_id"`
	ContractNumber string    `json:"contract_number"`
	Balance        float64   `json:"balance"`
	MonthlyPayment float64   `json:"monthly_payment"`
	DueDate        time.Time `json:"due_date"`
	LateDays       int       `json:"late_days"`
	LateFee        float64   `json:"late_fee"`
	IsOverpaid     bool      `json:"is_overpaid"`
	OverpaidAmount float64   `json:"overpaid_amount"`
}

// Receipt is an opened receipt file ready to stream to a client.
type Receipt struct {
	File        io.ReadCloser
	Filename    string
	ContentType string
}

// PaymentServicer defines the payment recorder's business logic.
type PaymentServicer interface {
	CreatePayment(input PaymentInput) (*models.Payment, error)
	PreCheckPayment(clientID uint, amount float64, date time.Time) (*PaymentPreCheck, error)
	GetPayments(page pagination.PageRequest, filter PaymentFilter) (*pagination.PageResponse[models.Payment], error)
	GetPaymentByID(paymentID uint) (*models.Payment, error)
	UpdatePayment(paymentID uint, input PaymentInput) (*models.Payment, error)
	DeletePayment(paymentID uint) error
	OpenReceipt(paymentID uint) (*Receipt, error)
}

// DocumentServicer defines the business logic for asset documents.
type DocumentServicer interface {
	AttachDocument(assetID uint, kind models.DocumentKind, filename, contentType string, r io.Reader) (*models.Document, error)
	GetAssetDocuments(assetID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Document], error)
	GetDocumentByID(documentID uint) (*models.Document, error)
	OpenDocument(documentID uint) (*Receipt, error)
	DeleteDocument(documentID uint) error
}

// IncomeRow is one month of collected payments.
type IncomeRow struct {
	Month    string  `json:"month"`
	Payments int64   `json:"payments"`
	Amount   float64 `json:"amount"`
	LateFees float64 `json:"late_fees"`
}

// IncomeReport aggregates collected payments over a date range.
type IncomeReport struct {
	From          time.Time   `json:"from"`
	To            time.Time   `json:"to"`
	TotalAmount   float64     `json:"total_amount"`
	TotalLateFees float64     `json:"total_late_fees"`
	TotalPayments int64       `json:"total_payments"`
	Months        []IncomeRow `json:"months"`
}

// DebtRow is one client's outstanding position.
type DebtRow struct {
	ClientID        uint    `json:"client_id"`
	ClientName      string  `json:"client_name"`
	ActiveContracts int64   `json:"active_contracts"`
	Outstanding     float64 `json:"outstanding"`
}

// DebtReport lists outstanding balances grouped by client.
type DebtReport struct {
	TotalOutstanding float64   `json:"total_outstanding"`
	Rows             []DebtRow `json:"rows"`
}

// OverdueRow is one contract past its due date.
type OverdueRow struct {
	ContractID     uint      `json:"contract_id"`
	ContractNumber string    `json:"contract_number"`
	ClientID       uint      `json:"client_id"`
	ClientName     string    `json:"client_name"`
	Balance        float64   `json:"balance"`
	DueDate        time.Time `json:"due_date"`
	LateDays       int       `json:"late_days"`
	Penalty        float64   `json:"penalty"`
}

// DashboardSummary holds the headline counts for the dashboard.
type DashboardSummary struct {
	Clients         int64   `json:"clients"`
	Assets          int64   `json:"assets"`
	ActiveContracts int64   `json:"active_contracts"`
	Payments        int64   `json:"payments"`
	MonthIncome     float64 `json:"month_income"`
	Outstanding     float64 `json:"outstanding"`
}

// ReportServicer defines the reporting and export business logic.
type ReportServicer interface {
	IncomeReport(from, to time.Time) (*IncomeReport, error)
	DebtReport() (*DebtReport, error)
	OverdueReport(asOf time.Time) ([]OverdueRow, error)
	DashboardSummary(asOf time.Time) (*DashboardSummary, error)
	ExportIncomeExcel(from, to time.Time) ([]byte, error)
	ExportDebtPDF() ([]byte, error)
}
