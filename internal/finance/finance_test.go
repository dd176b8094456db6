package finance

import (
	"math"
	"testing"
	"time"

	"lizsys/internal/testutil"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAmortizedPayment(t *testing.T) {
	t.Run("standard_contract", func(t *testing.T) {
		// 10000 with 2000 down at 12% over 36 months: financed 8000,
		// monthly rate 0.01.
		monthly, total, err := AmortizedPayment(10000, 2000, 0.12, 36)
		testutil.AssertNoError(t, err)
		if !approxEqual(monthly, 265.71) {
			t.Errorf("expected monthly payment 265.71, got %.2f", monthly)
		}
		if !approxEqual(total, 9565.56) {
			t.Errorf("expected total payment 9565.56, got %.2f", total)
		}
	})

	t.Run("zero_rate_splits_evenly", func(t *testing.T) {
		monthly, total, err := AmortizedPayment(12000, 0, 0, 24)
		testutil.AssertNoError(t, err)
		if monthly != 500 {
			t.Errorf("expected monthly payment 500, got %.2f", monthly)
		}
		if total != 12000 {
			t.Errorf("expected total payment 12000, got %.2f", total)
		}
	})

	t.Run("monthly_times_term_approximates_total", func(t *testing.T) {
		cases := []struct {
			principal, down, rate float64
			term                  int
		}{
			{10000, 2000, 0.12, 36},
			{50000, 10000, 0.085, 60},
			{7500, 0, 0.2, 12},
			{9999.99, 499.99, 0.055, 18},
		}
		for _, c := range cases {
			monthly, total, err := AmortizedPayment(c.principal, c.down, c.rate, c.term)
			testutil.AssertNoError(t, err)
			if math.Abs(monthly*float64(c.term)-total) > 0.005 {
				t.Errorf("monthly %.2f * term %d = %.2f diverges from total %.2f",
					monthly, c.term, monthly*float64(c.term), total)
			}
		}
	})

	t.Run("zero_term", func(t *testing.T) {
		_, _, err := AmortizedPayment(10000, 0, 0.1, 0)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("negative_rate", func(t *testing.T) {
		_, _, err := AmortizedPayment(10000, 0, -0.1, 12)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("zero_principal", func(t *testing.T) {
		_, _, err := AmortizedPayment(0, 0, 0.1, 12)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("down_payment_at_least_principal", func(t *testing.T) {
		_, _, err := AmortizedPayment(10000, 10000, 0.1, 12)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("negative_down_payment", func(t *testing.T) {
		_, _, err := AmortizedPayment(10000, -1, 0.1, 12)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestFlatDailyLateFee(t *testing.T) {
	t.Run("on_time_is_free", func(t *testing.T) {
		if fee := FlatDailyLateFee(date("2025-01-01"), date("2025-01-01")); fee != 0 {
			t.Errorf("expected 0, got %.2f", fee)
		}
	})

	t.Run("early_is_free", func(t *testing.T) {
		if fee := FlatDailyLateFee(date("2025-01-10"), date("2025-01-05")); fee != 0 {
			t.Errorf("expected 0, got %.2f", fee)
		}
	})

	t.Run("ten_days_late", func(t *testing.T) {
		if fee := FlatDailyLateFee(date("2025-01-01"), date("2025-01-11")); fee != 50 {
			t.Errorf("expected 50, got %.2f", fee)
		}
	})

	t.Run("partial_day_truncates", func(t *testing.T) {
		due := date("2025-01-01")
		paid := due.Add(36 * time.Hour)
		if fee := FlatDailyLateFee(due, paid); fee != FlatDailyRate {
			t.Errorf("expected %.2f for 36 hours late, got %.2f", FlatDailyRate, fee)
		}
	})
}

func TestBalanceProportionalPenalty(t *testing.T) {
	t.Run("on_or_before_due_date", func(t *testing.T) {
		for _, paid := range []string{"2024-12-25", "2025-01-01"} {
			days, penalty := BalanceProportionalPenalty(5000, 0.01, date("2025-01-01"), date(paid))
			if days != 0 || penalty != 0 {
				t.Errorf("expected {0, 0} for payment on %s, got {%d, %.2f}", paid, days, penalty)
			}
		}
	})

	t.Run("ten_days_late_on_5000", func(t *testing.T) {
		days, penalty := BalanceProportionalPenalty(5000, 0.01, date("2025-01-01"), date("2025-01-11"))
		if days != 10 {
			t.Errorf("expected 10 late days, got %d", days)
		}
		if penalty != 500 {
			t.Errorf("expected penalty 500.00, got %.2f", penalty)
		}
	})

	t.Run("partial_day_rounds_up", func(t *testing.T) {
		due := date("2025-01-01")
		paid := due.Add(36 * time.Hour)
		days, penalty := BalanceProportionalPenalty(1000, 0.01, due, paid)
		if days != 2 {
			t.Errorf("expected 2 late days for 36 hours, got %d", days)
		}
		if penalty != 20 {
			t.Errorf("expected penalty 20.00, got %.2f", penalty)
		}
	})

	t.Run("rounds_to_cents", func(t *testing.T) {
		_, penalty := BalanceProportionalPenalty(333.333, 0.01, date("2025-01-01"), date("2025-01-02"))
		if penalty != 3.33 {
			t.Errorf("expected penalty 3.33, got %.2f", penalty)
		}
	})
}

// The two surcharge models are independent and intentionally disagree;
// each is pinned separately above, and this guards against an
// accidental unification.
func TestLateFeeModelsDiverge(t *testing.T) {
	due, paid := date("2025-01-01"), date("2025-01-11")
	flat := FlatDailyLateFee(due, paid)
	_, proportional := BalanceProportionalPenalty(5000, 0.01, due, paid)
	if flat == proportional {
		t.Fatalf("flat fee %.2f and proportional penalty %.2f should differ for this scenario", flat, proportional)
	}
}

func TestParseDate(t *testing.T) {
	t.Run("accepted_formats", func(t *testing.T) {
		for _, s := range []string{"2025-01-02", "2025-01-02T15:04:05", "2025-01-02T15:04:05Z"} {
			parsed, err := ParseDate(s)
			testutil.AssertNoError(t, err)
			if parsed.Year() != 2025 || parsed.Month() != time.January || parsed.Day() != 2 {
				t.Errorf("unexpected date for %q: %v", s, parsed)
			}
		}
	})

	t.Run("rejects_garbage", func(t *testing.T) {
		for _, s := range []string{"", "not-a-date", "02/01/2025", "2025-13-40"} {
			_, err := ParseDate(s)
			testutil.AssertAppError(t, err, "INVALID_DATE")
		}
	})
}

func TestRound2(t *testing.T) {
	cases := map[float64]float64{
		265.70588:  265.71,
		1.005:      1.01,
		-0.004:     0,
		9565.55999: 9565.56,
	}
	for in, want := range cases {
		if got := Round2(in); got != want {
			t.Errorf("Round2(%v) = %v, want %v", in, got, want)
		}
	}
}
