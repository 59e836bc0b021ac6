package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AmountKind tells how an obligation's amount is determined.
type AmountKind int

const (
	// FixedAmount obligations repeat with the same amount every occurrence.
	FixedAmount AmountKind = iota
	// VariableAmount obligations vary per occurrence; the stored running
	// average is used for forecasting only.
	VariableAmount
)

func (k AmountKind) String() string {
	switch k {
	case FixedAmount:
		return "fixed"
	case VariableAmount:
		return "variable"
	default:
		return "unknown"
	}
}

// RecurringObligation represents a repeating income or expense.
//
// Exactly one of AccountID and CardID is set (the funding source).
// AnchorDay and EndDate are absent when nil; absent AnchorDay means
// "last day of the month" for month-stepped rules.
type RecurringObligation struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	Description    string          `json:"description"`
	Direction      Direction       `json:"direction"`
	CategoryID     int64           `json:"category_id"`
	AccountID      *int64          `json:"account_id,omitempty"`
	CardID         *int64          `json:"card_id,omitempty"`
	AmountKind     AmountKind      `json:"amount_kind"`
	Amount         decimal.Decimal `json:"amount"`
	AverageAmount  decimal.Decimal `json:"average_amount"`
	Rule           RecurrenceRule  `json:"rule"`
	AnchorDay      *int            `json:"anchor_day,omitempty"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        *time.Time      `json:"end_date,omitempty"`
	NextOccurrence time.Time       `json:"next_occurrence"`
	Active         bool            `json:"active"`
	MaterializedAt *time.Time      `json:"materialized_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ForecastAmount returns the amount used when simulating future occurrences:
// the fixed amount, or the stored running average for variable obligations.
func (o RecurringObligation) ForecastAmount() decimal.Decimal {
	switch o.AmountKind {
	case FixedAmount:
		return o.Amount
	case VariableAmount:
		return o.AverageAmount
	default:
		panic("AmountKind field not a valid kind")
	}
}
