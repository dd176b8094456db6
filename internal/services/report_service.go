package services

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	apperrors "lizsys/internal/errors"
	"lizsys/internal/finance"
	"lizsys/internal/models"
)

// reportService aggregates ledger data into operator-facing reports.
// Monetary sums go through decimal so a long payment list cannot drift
// by accumulated float error.
type reportService struct {
	db *gorm.DB
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB) ReportServicer {
	return &reportService{db: db}
}

// IncomeReport aggregates collected payments and late fees over a date
// range, broken down by calendar month.
func (s *reportService) IncomeReport(from, to time.Time) (*IncomeReport, error) {
	if to.Before(from) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "report range end precedes start")
	}

	var payments []models.Payment
	if err := s.db.Where("date >= ? AND date <= ?", from, to).
		Order("date ASC").
		Find(&payments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Month grouping happens here rather than in SQL so the report is
	// identical on SQLite and Postgres.
	type monthTotals struct {
		count    int64
		amount   decimal.Decimal
		lateFees decimal.Decimal
	}
	byMonth := make(map[string]*monthTotals)
	totalAmount := decimal.Zero
	totalLateFees := decimal.Zero

	for _, p := range payments {
		key := p.Date.Format("2006-01")
		m, ok := byMonth[key]
		if !ok {
			m = &monthTotals{}
			byMonth[key] = m
		}
		amount := decimal.NewFromFloat(p.Amount)
		lateFee := decimal.NewFromFloat(p.LateFee)
		m.count++
		m.amount = m.amount.Add(amount)
		m.lateFees = m.lateFees.Add(lateFee)
		totalAmount = totalAmount.Add(amount)
		totalLateFees = totalLateFees.Add(lateFee)
	}

	months := make([]IncomeRow, 0, len(byMonth))
	for key, m := range byMonth {
		months = append(months, IncomeRow{
			Month:    key,
			Payments: m.count,
			Amount:   m.amount.Round(2).InexactFloat64(),
			LateFees: m.lateFees.Round(2).InexactFloat64(),
		})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })

	return &IncomeReport{
		From:          from,
		To:            to,
		TotalAmount:   totalAmount.Round(2).InexactFloat64(),
		TotalLateFees: totalLateFees.Round(2).InexactFloat64(),
		TotalPayments: int64(len(payments)),
		Months:        months,
	}, nil
}

// DebtReport lists outstanding balances on active contracts grouped by
// client, largest debt first.
func (s *reportService) DebtReport() (*DebtReport, error) {
	var contracts []models.Contract
	if err := s.db.Where("status = ?", models.ContractStatusActive).
		Find(&contracts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var clients []models.Client
	if err := s.db.Find(&clients).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	names := make(map[uint]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}

	type clientTotals struct {
		contracts   int64
		outstanding decimal.Decimal
	}
	byClient := make(map[uint]*clientTotals)
	total := decimal.Zero

	for _, c := range contracts {
		t, ok := byClient[c.ClientID]
		if !ok {
			t = &clientTotals{}
			byClient[c.ClientID] = t
		}
		outstanding := decimal.NewFromFloat(c.Outstanding())
		t.contracts++
		t.outstanding = t.outstanding.Add(outstanding)
		total = total.Add(outstanding)
	}

	rows := make([]DebtRow, 0, len(byClient))
	for clientID, t := range byClient {
		rows = append(rows, DebtRow{
			ClientID:        clientID,
			ClientName:      names[clientID],
			ActiveContracts: t.contracts,
			Outstanding:     t.outstanding.Round(2).InexactFloat64(),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Outstanding > rows[j].Outstanding })

	return &DebtReport{
		TotalOutstanding: total.Round(2).InexactFloat64(),
		Rows:             rows,
	}, nil
}

// OverdueReport lists active contracts whose due date has passed as of the
// given date, with the accrued balance-proportional penalty.
func (s *reportService) OverdueReport(asOf time.Time) ([]OverdueRow, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}

	var contracts []models.Contract
	if err := s.db.Where("status = ?", models.ContractStatusActive).
		Find(&contracts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var clients []models.Client
	if err := s.db.Find(&clients).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	names := make(map[uint]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}

	var rows []OverdueRow
	for _, c := range contracts {
		due := c.PaymentDueDate()
		lateDays, penalty := finance.BalanceProportionalPenalty(c.Outstanding(), finance.DefaultPenaltyRate, due, asOf)
		if lateDays == 0 || c.Outstanding() <= 0 {
			continue
		}
		rows = append(rows, OverdueRow{
			ContractID:     c.ID,
			ContractNumber: c.Number,
			ClientID:       c.ClientID,
			ClientName:     names[c.ClientID],
			Balance:        c.Outstanding(),
			DueDate:        due,
			LateDays:       lateDays,
			Penalty:        penalty,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].LateDays > rows[j].LateDays })

	return rows, nil
}

// DashboardSummary produces the headline counts and the income collected
// in the month containing asOf.
func (s *reportService) DashboardSummary(asOf time.Time) (*DashboardSummary, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}

	summary := &DashboardSummary{}

	if err := s.db.Model(&models.Client{}).Count(&summary.Clients).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Model(&models.Asset{}).Count(&summary.Assets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Model(&models.Contract{}).
		Where("status = ?", models.ContractStatusActive).
		Count(&summary.ActiveContracts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Model(&models.Payment{}).Count(&summary.Payments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	monthStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)
	income, err := s.IncomeReport(monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	summary.MonthIncome = income.TotalAmount

	debt, err := s.DebtReport()
	if err != nil {
		return nil, err
	}
	summary.Outstanding = debt.TotalOutstanding

	return summary, nil
}

// ExportIncomeExcel renders the income report as an Excel workbook.
func (s *reportService) ExportIncomeExcel(from, to time.Time) ([]byte, error) {
	report, err := s.IncomeReport(from, to)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Income"
	f.SetSheetName("Sheet1", sheet)
	_ = f.SetColWidth(sheet, "A", "D", 16)

	headers := []string{"Month", "Payments", "Amount", "Late Fees"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range report.Months {
		r := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", r), row.Month)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", r), row.Payments)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", r), row.Amount)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", r), row.LateFees)
	}

	totalRow := len(report.Months) + 3
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", totalRow), "Total")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", totalRow), report.TotalPayments)
	_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", totalRow), report.TotalAmount)
	_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", totalRow), report.TotalLateFees)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return buf.Bytes(), nil
}

// ExportDebtPDF renders the debt report as a PDF table.
func (s *reportService) ExportDebtPDF() ([]byte, error) {
	report, err := s.DebtReport()
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, "Outstanding Balances")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(80, 8, "Client", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, "Active Contracts", "1", 0, "R", false, 0, "")
	pdf.CellFormat(50, 8, "Outstanding", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range report.Rows {
		pdf.CellFormat(80, 8, row.ClientName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, fmt.Sprintf("%d", row.ActiveContracts), "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 8, fmt.Sprintf("%.2f", row.Outstanding), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(120, 8, "Total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, fmt.Sprintf("%.2f", report.TotalOutstanding), "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return buf.Bytes(), nil
}
