package integration

import (
	"fmt"
	"math"
	"net/http"
	"testing"
)

func TestContractFlow(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t, "contracts@example.com", "password123")
	clientID := app.createClient(t, token, "Northern Logistics")

	var contractID float64

	t.Run("create derives monthly payment and seeds balance", func(t *testing.T) {
		contractID = app.createContract(t, token, clientID, "CN-2026-001", 10000)

		rec := app.request("GET", fmt.Sprintf("/api/v1/contracts/%d", int(contractID)), "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		contract := parseJSON(t, rec)["contract"].(map[string]interface{})
		if got := contract["monthly_payment"].(float64); math.Abs(got-265.71) > 0.005 {
			t.Errorf("expected monthly payment 265.71, got %v", got)
		}
		if got := contract["remaining_balance"].(float64); got != 10000 {
			t.Errorf("expected remaining balance 10000, got %v", got)
		}
		if contract["status"].(string) != "active" {
			t.Errorf("expected status active, got %v", contract["status"])
		}
	})

	t.Run("duplicate number is rejected", func(t *testing.T) {
		body := fmt.Sprintf(`{"number":"CN-2026-001","title":"Duplicate","client_id":%d,"amount":5000,"term_months":12,"start_date":"2026-02-01"}`, int(clientID))
		rec := app.request("POST", "/api/v1/contracts", body, token)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("financing quote", func(t *testing.T) {
		rec := app.request("POST", "/api/v1/contracts/financing",
			`{"amount":10000,"down_payment":2000,"interest_rate":0.12,"term_months":36}`, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		quote := parseJSON(t, rec)["quote"].(map[string]interface{})
		if got := quote["total_cost"].(float64); math.Abs(got-9565.56) > 0.005 {
			t.Errorf("expected total cost 9565.56, got %v", got)
		}
	})

	t.Run("extend pushes the end date", func(t *testing.T) {
		rec := app.request("POST", fmt.Sprintf("/api/v1/contracts/%d/extend", int(contractID)),
			`{"months":6}`, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		contract := parseJSON(t, rec)["contract"].(map[string]interface{})
		if got := contract["term_months"].(float64); got != 42 {
			t.Errorf("expected term 42 months, got %v", got)
		}
	})

	t.Run("penalty after due date", func(t *testing.T) {
		rec := app.request("PUT", fmt.Sprintf("/api/v1/contracts/%d/due-date", int(contractID)),
			`{"date":"2026-03-01"}`, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed to set due date: %d %s", rec.Code, rec.Body.String())
		}

		rec = app.request("GET", fmt.Sprintf("/api/v1/contracts/%d/penalty?as_of=2026-03-11", int(contractID)), "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		penalty := parseJSON(t, rec)["penalty"].(map[string]interface{})
		if got := penalty["late_days"].(float64); got != 10 {
			t.Errorf("expected 10 late days, got %v", got)
		}
		// 10 days at 1% of a 10000 balance
		if got := penalty["penalty"].(float64); math.Abs(got-1000) > 0.005 {
			t.Errorf("expected penalty 1000, got %v", got)
		}
	})

	t.Run("transfer reassigns and terminates the contract", func(t *testing.T) {
		newClientID := app.createClient(t, token, "Harbor Freight Lines")

		rec := app.request("POST", fmt.Sprintf("/api/v1/contracts/%d/transfer", int(contractID)),
			fmt.Sprintf(`{"new_client_id":%d}`, int(newClientID)), token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		contract := parseJSON(t, rec)["contract"].(map[string]interface{})
		if contract["status"].(string) != "transferred" {
			t.Errorf("expected status transferred, got %v", contract["status"])
		}
		if got := contract["client_id"].(float64); got != newClientID {
			t.Errorf("expected client %v, got %v", newClientID, got)
		}

		// A transferred contract cannot be transferred again.
		rec = app.request("POST", fmt.Sprintf("/api/v1/contracts/%d/transfer", int(contractID)),
			fmt.Sprintf(`{"new_client_id":%d}`, int(clientID)), token)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("client with contracts cannot be deleted", func(t *testing.T) {
		otherID := app.createClient(t, token, "Delta Rentals")
		app.createContract(t, token, otherID, "CN-2026-002", 4000)

		rec := app.request("DELETE", fmt.Sprintf("/api/v1/clients/%d", int(otherID)), "", token)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}
