package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"lizsys/internal/testutil"
)

func TestIncomeReport(t *testing.T) {
	t.Run("sums_amounts_and_fees", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReportService(db)
		client := testutil.CreateTestClient(t, db)
		contract := testutil.CreateTestContract(t, db, client.ID, 10000)

		base := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
		for i, amount := range []float64{1000.10, 2000.20, 3000.30} {
			p := testutil.CreateTestPayment(t, db, client.ID, contract.ID, amount)
			p.Date = base.AddDate(0, 0, i)
			p.LateFee = 5
			if err := db.Save(p).Error; err != nil {
				t.Fatalf("failed to backdate payment: %v", err)
			}
		}

		report, err := svc.IncomeReport(base.AddDate(0, 0, -1), base.AddDate(0, 0, 7))
		testutil.AssertNoError(t, err)

		if report.TotalPayments != 3 {
			t.Fatalf("expected 3 payments, got %d", report.TotalPayments)
		}
		testutil.AssertMoneyEqual(t, 6000.60, report.TotalAmount)
		testutil.AssertMoneyEqual(t, 15, report.TotalLateFees)
		if len(report.Months) != 1 {
			t.Fatalf("expected 1 month row, got %d", len(report.Months))
		}
		if report.Months[0].Month != "2026-05" {
			t.Errorf("expected month 2026-05, got %s", report.Months[0].Month)
		}
	})

	t.Run("range_excludes_outside_payments", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReportService(db)
		client := testutil.CreateTestClient(t, db)
		contract := testutil.CreateTestContract(t, db, client.ID, 10000)

		base := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
		inside := testutil.CreateTestPayment(t, db, client.ID, contract.ID, 100)
		inside.Date = base
		outside := testutil.CreateTestPayment(t, db, client.ID, contract.ID, 999)
		outside.Date = base.AddDate(0, -2, 0)
		for _, p := range []interface{}{inside, outside} {
			if err := db.Save(p).Error; err != nil {
				t.Fatalf("failed to backdate payment: %v", err)
			}
		}

		report, err := svc.IncomeReport(base.AddDate(0, 0, -1), base.AddDate(0, 0, 1))
		testutil.AssertNoError(t, err)

		if report.TotalPayments != 1 {
			t.Errorf("expected 1 payment in range, got %d", report.TotalPayments)
		}
		testutil.AssertMoneyEqual(t, 100, report.TotalAmount)
	})

	t.Run("inverted_range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReportService(db)

		now := time.Now()
		_, err := svc.IncomeReport(now, now.AddDate(0, -1, 0))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestDebtReport(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewReportService(db)
	contractSvc := NewContractService(db)

	alice := testutil.CreateTestClient(t, db)
	bob := testutil.CreateTestClient(t, db)
	a1 := testutil.CreateTestContract(t, db, alice.ID, 5000)
	testutil.CreateTestContract(t, db, alice.ID, 3000)
	testutil.CreateTestContract(t, db, bob.ID, 2000)

	// Pay down one of Alice's contracts.
	err := contractSvc.ApplyPayment(db, a1.ID, 1000)
	testutil.AssertNoError(t, err)

	report, err := svc.DebtReport()
	testutil.AssertNoError(t, err)

	testutil.AssertMoneyEqual(t, 9000, report.TotalOutstanding)
	if len(report.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(report.Rows))
	}
	// Largest debt first.
	if report.Rows[0].ClientID != alice.ID {
		t.Errorf("expected client %d first, got %d", alice.ID, report.Rows[0].ClientID)
	}
	testutil.AssertMoneyEqual(t, 7000, report.Rows[0].Outstanding)
	if report.Rows[0].ActiveContracts != 2 {
		t.Errorf("expected 2 active contracts, got %d", report.Rows[0].ActiveContracts)
	}
}

func TestOverdueReport(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewReportService(db)
	contractSvc := NewContractService(db)

	client := testutil.CreateTestClient(t, db)
	overdue := testutil.CreateTestContract(t, db, client.ID, 5000)
	current := testutil.CreateTestContract(t, db, client.ID, 3000)

	asOf := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	_, err := contractSvc.SetDueDate(overdue.ID, asOf.AddDate(0, 0, -10))
	testutil.AssertNoError(t, err)
	_, err = contractSvc.SetDueDate(current.ID, asOf.AddDate(0, 1, 0))
	testutil.AssertNoError(t, err)

	rows, err := svc.OverdueReport(asOf)
	testutil.AssertNoError(t, err)

	if len(rows) != 1 {
		t.Fatalf("expected 1 overdue row, got %d", len(rows))
	}
	if rows[0].ContractID != overdue.ID {
		t.Errorf("expected contract %d, got %d", overdue.ID, rows[0].ContractID)
	}
	if rows[0].LateDays != 10 {
		t.Errorf("expected 10 late days, got %d", rows[0].LateDays)
	}
	// 5000 * 0.01 * 10 days
	testutil.AssertMoneyEqual(t, 500, rows[0].Penalty)
}

func TestDashboardSummary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewReportService(db)

	client := testutil.CreateTestClient(t, db)
	testutil.CreateTestAsset(t, db, client.ID)
	contract := testutil.CreateTestContract(t, db, client.ID, 5000)

	asOf := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	p := testutil.CreateTestPayment(t, db, client.ID, contract.ID, 250)
	p.Date = asOf.AddDate(0, 0, -3)
	if err := db.Save(p).Error; err != nil {
		t.Fatalf("failed to backdate payment: %v", err)
	}

	summary, err := svc.DashboardSummary(asOf)
	testutil.AssertNoError(t, err)

	if summary.Clients != 1 || summary.Assets != 1 || summary.ActiveContracts != 1 || summary.Payments != 1 {
		t.Errorf("unexpected counts: %+v", summary)
	}
	testutil.AssertMoneyEqual(t, 250, summary.MonthIncome)
	testutil.AssertMoneyEqual(t, 5000, summary.Outstanding)
}

func TestExportIncomeExcel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewReportService(db)
	client := testutil.CreateTestClient(t, db)
	contract := testutil.CreateTestContract(t, db, client.ID, 10000)

	base := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	p := testutil.CreateTestPayment(t, db, client.ID, contract.ID, 1234.56)
	p.Date = base
	if err := db.Save(p).Error; err != nil {
		t.Fatalf("failed to backdate payment: %v", err)
	}

	data, err := svc.ExportIncomeExcel(base.AddDate(0, 0, -1), base.AddDate(0, 0, 1))
	testutil.AssertNoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	testutil.AssertNoError(t, err)
	defer f.Close()

	month, err := f.GetCellValue("Income", "A2")
	testutil.AssertNoError(t, err)
	if month != "2026-05" {
		t.Errorf("expected month cell 2026-05, got %q", month)
	}
}

func TestExportDebtPDF(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewReportService(db)
	client := testutil.CreateTestClient(t, db)
	testutil.CreateTestContract(t, db, client.ID, 5000)

	data, err := svc.ExportDebtPDF()
	testutil.AssertNoError(t, err)

	if len(data) == 0 || !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("expected a PDF document, got %d bytes", len(data))
	}
}
