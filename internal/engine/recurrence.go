// Package engine implements the temporal projection core: recurrence
// stepping, amortization schedules, installment splitting and cash-flow
// projection. Everything here is a pure function over value types; callers
// own persistence of any resulting cursor advancement.
package engine

import (
	"time"

	"github.com/Dan9191/finance-tracker/internal/models"
)

// NextOccurrence returns the occurrence that follows current under the given
// rule. For month-stepped rules the day is resolved against the target month:
// a nil anchorDay tracks the last calendar day of the month, a present
// anchorDay is clamped to the month length but reapplied in full on the next
// step (an anchor of 31 lands on Feb 28/29 and returns to 31 in March).
func NextOccurrence(rule models.RecurrenceRule, anchorDay *int, current time.Time) time.Time {
	switch rule {
	case models.Daily:
		return current.AddDate(0, 0, 1)
	case models.Weekly:
		return current.AddDate(0, 0, 7)
	case models.Biweekly:
		return current.AddDate(0, 0, 14)
	case models.Monthly:
		return stepMonths(current, 1, anchorDay)
	case models.Bimonthly:
		return stepMonths(current, 2, anchorDay)
	case models.Quarterly:
		return stepMonths(current, 3, anchorDay)
	case models.Semiannual:
		return stepMonths(current, 6, anchorDay)
	case models.Annual:
		return stepMonths(current, 12, anchorDay)
	default:
		panic("rule is not a valid RecurrenceRule")
	}
}

// Advance returns a copy of the obligation with its cursor moved to the next
// occurrence, or the unchanged obligation and false when the next occurrence
// would pass the end date. The input value is never mutated.
func Advance(ob models.RecurringObligation) (models.RecurringObligation, bool) {
	next := NextOccurrence(ob.Rule, ob.AnchorDay, ob.NextOccurrence)
	if ob.EndDate != nil && next.After(*ob.EndDate) {
		return ob, false
	}
	ob.NextOccurrence = next
	return ob, true
}

// stepMonths advances t by the given number of months without letting
// time.AddDate normalize an overflowing day into the following month.
func stepMonths(t time.Time, months int, anchorDay *int) time.Time {
	year, month, _ := t.Date()
	m := int(month) - 1 + months
	year += m / 12
	m %= 12
	target := time.Month(m + 1)

	last := daysIn(year, target)
	day := last
	if anchorDay != nil && *anchorDay < last {
		day = *anchorDay
	}
	return time.Date(year, target, day, 0, 0, 0, 0, t.Location())
}

// AddMonths returns t plus n months, keeping t's own day-of-month as the
// anchor (clamped to the target month length). Used for installment due
// dates, where the anchor date defines the day.
func AddMonths(t time.Time, n int) time.Time {
	if n == 0 {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
	anchor := t.Day()
	return stepMonths(t, n, &anchor)
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
