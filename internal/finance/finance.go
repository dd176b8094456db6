// Package finance holds the pure money and date arithmetic used by the
// contract ledger and payment recorder: amortized payment computation,
// the two late-fee models, and boundary rounding.
//
// Two distinct surcharge models exist and are deliberately kept apart:
// FlatDailyLateFee (per-day flat rate, used when recording payments) and
// BalanceProportionalPenalty (percentage of the outstanding balance per
// late day, used by the penalty endpoint). They use different day
// rounding and must not be unified.
package finance

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	apperrors "lizsys/internal/errors"
)

const (
	// FlatDailyRate is the flat late-fee charge per late day.
	FlatDailyRate = 5.0

	// DefaultPenaltyRate is the balance-proportional penalty rate per
	// late day when the caller does not supply one.
	DefaultPenaltyRate = 0.01
)

// Round2 rounds a monetary value to 2 decimal places. Internal math
// stays in float64; rounding happens only at boundaries exposed to
// callers.
func Round2(x float64) float64 {
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}

// AmortizedPayment computes the fixed monthly payment and the total of
// all payments for a financed amount of principal minus downPayment at
// the given annual rate (fraction of one, e.g. 0.12) over termMonths.
// Both results are rounded to 2 decimals.
func AmortizedPayment(principal, downPayment, annualRate float64, termMonths int) (monthly, total float64, err error) {
	switch {
	case termMonths <= 0:
		return 0, 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "term must be at least one month")
	case annualRate < 0:
		return 0, 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "interest rate must not be negative")
	case principal <= 0:
		return 0, 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	case downPayment < 0 || downPayment >= principal:
		return 0, 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "down payment must be non-negative and less than the amount")
	}

	financed := principal - downPayment
	monthlyRate := annualRate / 12

	if monthlyRate == 0 {
		monthly = financed / float64(termMonths)
	} else {
		monthly = financed * monthlyRate / (1 - math.Pow(1+monthlyRate, -float64(termMonths)))
	}

	// The caller-visible monthly payment is what gets charged, so the
	// total is derived from the rounded value.
	monthly = Round2(monthly)
	total = Round2(monthly * float64(termMonths))
	return monthly, total, nil
}

// FlatDailyLateFee returns the flat late fee for a payment made after
// its due date: FlatDailyRate per full late day, zero when the payment
// is on time. Late days are truncated (a payment 36 hours late counts
// as one day).
func FlatDailyLateFee(dueDate, paymentDate time.Time) float64 {
	lateDays := int(math.Floor(paymentDate.Sub(dueDate).Hours() / 24))
	if lateDays > 0 {
		return float64(lateDays) * FlatDailyRate
	}
	return 0
}

// BalanceProportionalPenalty returns the number of late days and the
// penalty owed: balance * penaltyRate per late day, rounded to 2
// decimals. Payments on or before the due date carry no penalty. Late
// days are rounded up (a payment 36 hours late counts as two days).
func BalanceProportionalPenalty(balance, penaltyRate float64, dueDate, paymentDate time.Time) (lateDays int, penalty float64) {
	if !paymentDate.After(dueDate) {
		return 0, 0
	}
	lateDays = int(math.Ceil(paymentDate.Sub(dueDate).Hours() / 24))
	penalty = Round2(balance * penaltyRate * float64(lateDays))
	return lateDays, penalty
}

// dateLayouts are the accepted input formats, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses an ISO-8601 date or timestamp string. Unparseable
// input returns ErrInvalidDate.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidDate, "cannot parse date: "+s)
}
