package engine

import (
	"math"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/shopspring/decimal"
)

// GenerateSchedule computes the full installment schedule for a debt. The
// result has exactly terms.Installments lines with due dates at
// startDate + k months, except for Custom debts, whose schedule is defined
// by the caller and comes back empty.
//
// Each stored amount is rounded to cents when the line is materialized; the
// final line absorbs any accumulated rounding so the principal portions sum
// to the original principal exactly and the remaining balance lands on zero.
func GenerateSchedule(terms models.DebtTerms) []models.InstallmentLine {
	if terms.Amortization == models.Custom {
		return []models.InstallmentLine{}
	}
	if terms.Installments < 1 {
		panic("installment count must be >= 1")
	}

	rate := terms.PeriodicRate()
	switch terms.Amortization {
	case models.Price:
		return priceSchedule(terms, rate)
	case models.SAC:
		return sacSchedule(terms, rate)
	case models.Bullet:
		return bulletSchedule(terms, rate)
	default:
		panic("Amortization field not a valid kind")
	}
}

// priceSchedule keeps the total payment constant:
// payment = P * i / (1 - (1+i)^-n), or P/n when the rate is zero.
func priceSchedule(terms models.DebtTerms, rate decimal.Decimal) []models.InstallmentLine {
	n := terms.Installments
	principal := terms.Principal

	var payment decimal.Decimal
	if rate.IsZero() {
		payment = principal.Div(decimal.NewFromInt(int64(n))).Round(2)
	} else {
		// The (1+i)^-n power is the one place float64 is acceptable;
		// all monetary arithmetic stays in decimal.
		i := rate.InexactFloat64()
		factor := 1 - math.Pow(1+i, -float64(n))
		payment = principal.Mul(rate).Div(decimal.NewFromFloat(factor)).Round(2)
	}

	lines := make([]models.InstallmentLine, 0, n)
	remaining := principal
	for k := 1; k <= n; k++ {
		interest := remaining.Mul(rate).Round(2)
		principalPart := payment.Sub(interest)
		if k == n {
			// Reconcile the final line so the balance reaches exactly zero.
			principalPart = remaining
		}
		remaining = remaining.Sub(principalPart)
		lines = append(lines, models.InstallmentLine{
			Number:           k,
			DueDate:          AddMonths(terms.StartDate, k-1),
			Total:            principalPart.Add(interest),
			Principal:        principalPart,
			Interest:         interest,
			RemainingBalance: remaining,
		})
	}
	return lines
}

// sacSchedule keeps the principal payment constant; the cent remainder of
// P/n goes into the final installment so the principal sum stays exact.
func sacSchedule(terms models.DebtTerms, rate decimal.Decimal) []models.InstallmentLine {
	n := terms.Installments
	principal := terms.Principal

	base := principal.Div(decimal.NewFromInt(int64(n))).RoundDown(2)
	lines := make([]models.InstallmentLine, 0, n)
	remaining := principal
	for k := 1; k <= n; k++ {
		principalPart := base
		if k == n {
			principalPart = remaining
		}
		interest := remaining.Mul(rate).Round(2)
		remaining = remaining.Sub(principalPart)
		lines = append(lines, models.InstallmentLine{
			Number:           k,
			DueDate:          AddMonths(terms.StartDate, k-1),
			Total:            principalPart.Add(interest),
			Principal:        principalPart,
			Interest:         interest,
			RemainingBalance: remaining,
		})
	}
	return lines
}

// bulletSchedule pays interest only until the final line, which carries the
// whole principal.
func bulletSchedule(terms models.DebtTerms, rate decimal.Decimal) []models.InstallmentLine {
	n := terms.Installments
	principal := terms.Principal
	interest := principal.Mul(rate).Round(2)

	lines := make([]models.InstallmentLine, 0, n)
	for k := 1; k <= n; k++ {
		line := models.InstallmentLine{
			Number:           k,
			DueDate:          AddMonths(terms.StartDate, k-1),
			Total:            interest,
			Principal:        decimal.Zero,
			Interest:         interest,
			RemainingBalance: principal,
		}
		if k == n {
			line.Principal = principal
			line.Total = principal.Add(interest)
			line.RemainingBalance = decimal.Zero
		}
		lines = append(lines, line)
	}
	return lines
}
