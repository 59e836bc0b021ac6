package engine

import (
	"time"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/shopspring/decimal"
)

// PendingFlow is a one-off transaction not yet settled: a calendar date and
// a signed amount (positive income, negative expense).
type PendingFlow struct {
	Date   time.Time
	Amount decimal.Decimal
}

// Project simulates the account balance day by day over the horizon.
//
// The first point is always (today, balance, "Current Balance"). Days with
// flows produce "Projection" points carrying that day's incoming and
// outgoing totals; days with no flows produce a flat continuity point only
// on the first of a month or at the end of the horizon, so the series stays
// chartable without emitting every empty day.
//
// Recurring obligations are simulated by walking each one's own stored
// cursor forward with NextOccurrence; the obligation values are never
// mutated, so projection can run concurrently with materialization.
func Project(
	today time.Time,
	balance decimal.Decimal,
	pending []PendingFlow,
	obligations []models.RecurringObligation,
	horizonDays int,
) models.CashFlowSeries {
	if horizonDays < 0 {
		panic("projection horizon must be >= 0")
	}

	today = dateOnly(today)
	series := models.CashFlowSeries{{
		Date:     today,
		Balance:  balance,
		Incoming: decimal.Zero,
		Outgoing: decimal.Zero,
		Label:    models.LabelCurrentBalance,
	}}

	running := balance
	for offset := 1; offset <= horizonDays; offset++ {
		day := today.AddDate(0, 0, offset)
		incoming, outgoing := dailyFlows(day, pending, obligations)

		switch {
		case !incoming.IsZero() || !outgoing.IsZero():
			running = running.Add(incoming).Sub(outgoing)
			series = append(series, models.CashFlowPoint{
				Date:     day,
				Balance:  running,
				Incoming: incoming,
				Outgoing: outgoing,
				Label:    models.LabelProjection,
			})
		case day.Day() == 1 || offset == horizonDays:
			// Flat continuity anchor so charts bridge empty stretches.
			series = append(series, models.CashFlowPoint{
				Date:     day,
				Balance:  running,
				Incoming: decimal.Zero,
				Outgoing: decimal.Zero,
				Label:    models.LabelProjection,
			})
		}
	}
	return series
}

// dailyFlows sums the pending entries falling on day with the simulated
// recurring occurrences landing on day, split into incoming and outgoing.
func dailyFlows(day time.Time, pending []PendingFlow, obligations []models.RecurringObligation) (incoming, outgoing decimal.Decimal) {
	incoming, outgoing = decimal.Zero, decimal.Zero

	for _, p := range pending {
		if !sameDay(p.Date, day) {
			continue
		}
		if p.Amount.IsNegative() {
			outgoing = outgoing.Add(p.Amount.Abs())
		} else {
			incoming = incoming.Add(p.Amount)
		}
	}

	for _, ob := range obligations {
		if !ob.Active {
			continue
		}
		if ob.EndDate != nil && day.After(dateOnly(*ob.EndDate)) {
			continue
		}
		// Walk forward from the obligation's own stored cursor until the
		// produced date reaches day; the stored value is left untouched.
		occ := dateOnly(ob.NextOccurrence)
		for occ.Before(day) {
			occ = NextOccurrence(ob.Rule, ob.AnchorDay, occ)
		}
		if !sameDay(occ, day) {
			continue
		}
		amount := ob.ForecastAmount()
		switch ob.Direction {
		case models.Income:
			incoming = incoming.Add(amount)
		case models.Expense:
			outgoing = outgoing.Add(amount)
		default:
			panic("Direction field not a valid direction")
		}
	}
	return incoming, outgoing
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
