package integration

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strings"
	"testing"
)

func TestReportFlow(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t, "reports@example.com", "password123")

	aliceID := app.createClient(t, token, "Alice Freight")
	bobID := app.createClient(t, token, "Bob Transport")
	aliceContract := app.createContract(t, token, aliceID, "CN-2026-201", 7000)
	bobContract := app.createContract(t, token, bobID, "CN-2026-202", 2000)

	pay := func(t *testing.T, clientID, contractID float64, amount, date string) {
		t.Helper()
		rec := app.requestForm(t, "POST", "/api/v1/payments", token, map[string]string{
			"client_id":   fmt.Sprintf("%d", int(clientID)),
			"contract_id": fmt.Sprintf("%d", int(contractID)),
			"amount":      amount,
			"date":        date,
		}, "", "", "", "")
		if rec.Code != http.StatusCreated {
			t.Fatalf("payment failed: %d %s", rec.Code, rec.Body.String())
		}
	}

	pay(t, aliceID, aliceContract, "1000", "2026-05-10")
	pay(t, aliceID, aliceContract, "1000", "2026-05-20")
	pay(t, bobID, bobContract, "500", "2026-06-05")

	t.Run("income report groups by month", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/reports/income?from=2026-05-01&to=2026-07-01", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		report := parseJSON(t, rec)["report"].(map[string]interface{})
		if got := report["total_amount"].(float64); math.Abs(got-2500) > 0.005 {
			t.Errorf("expected total 2500, got %v", got)
		}
		months := report["months"].([]interface{})
		if len(months) != 2 {
			t.Fatalf("expected 2 months, got %d", len(months))
		}
		may := months[0].(map[string]interface{})
		if may["month"].(string) != "2026-05" {
			t.Errorf("expected first month 2026-05, got %v", may["month"])
		}
		if got := may["amount"].(float64); math.Abs(got-2000) > 0.005 {
			t.Errorf("expected May amount 2000, got %v", got)
		}
	})

	t.Run("debt report ranks outstanding balances", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/reports/debt", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		report := parseJSON(t, rec)["report"].(map[string]interface{})
		if got := report["total_outstanding"].(float64); math.Abs(got-6500) > 0.005 {
			t.Errorf("expected total outstanding 6500, got %v", got)
		}
		rows := report["rows"].([]interface{})
		first := rows[0].(map[string]interface{})
		if first["client_name"].(string) != "Alice Freight" {
			t.Errorf("expected Alice Freight first, got %v", first["client_name"])
		}
	})

	t.Run("overdue report lists late contracts", func(t *testing.T) {
		rec := app.request("PUT", fmt.Sprintf("/api/v1/contracts/%d/due-date", int(aliceContract)),
			`{"date":"2026-06-01"}`, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed to set due date: %d %s", rec.Code, rec.Body.String())
		}
		rec = app.request("PUT", fmt.Sprintf("/api/v1/contracts/%d/due-date", int(bobContract)),
			`{"date":"2026-07-01"}`, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed to set due date: %d %s", rec.Code, rec.Body.String())
		}

		rec = app.request("GET", "/api/v1/reports/overdue?as_of=2026-06-11", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		rows := parseJSON(t, rec)["overdue"].([]interface{})
		if len(rows) != 1 {
			t.Fatalf("expected 1 overdue contract, got %d", len(rows))
		}
		row := rows[0].(map[string]interface{})
		if got := row["late_days"].(float64); got != 10 {
			t.Errorf("expected 10 late days, got %v", got)
		}
		// 10 days at 1% of the 5000 balance
		if got := row["penalty"].(float64); math.Abs(got-500) > 0.005 {
			t.Errorf("expected penalty 500, got %v", got)
		}
	})

	t.Run("dashboard summary", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/reports/dashboard", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		dashboard := parseJSON(t, rec)["dashboard"].(map[string]interface{})
		if got := dashboard["clients"].(float64); got != 2 {
			t.Errorf("expected 2 clients, got %v", got)
		}
		if got := dashboard["active_contracts"].(float64); got != 2 {
			t.Errorf("expected 2 active contracts, got %v", got)
		}
		if got := dashboard["payments"].(float64); got != 3 {
			t.Errorf("expected 3 payments, got %v", got)
		}
	})

	t.Run("income excel export", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/reports/income/export?from=2026-05-01&to=2026-07-01", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		ct := rec.Header().Get("Content-Type")
		if ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
			t.Errorf("unexpected content type %s", ct)
		}
		if !strings.Contains(rec.Header().Get("Content-Disposition"), ".xlsx") {
			t.Error("expected an xlsx attachment")
		}
		// XLSX files are zip archives.
		if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
			t.Error("expected a zip payload")
		}
	})

	t.Run("debt pdf export", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/reports/debt/export", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
			t.Errorf("unexpected content type %s", ct)
		}
		if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
			t.Error("expected a PDF payload")
		}
	})
}
