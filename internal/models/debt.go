package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AmortizationKind is the method by which principal and interest are
// apportioned across installments.
type AmortizationKind int

const (
	// Price amortization keeps the total payment constant.
	Price AmortizationKind = iota
	// SAC amortization keeps the principal payment constant.
	SAC
	// Bullet pays interest only until a final principal payment.
	Bullet
	// Custom schedules are defined by the caller installment-by-installment.
	Custom
)

func (k AmortizationKind) String() string {
	switch k {
	case Price:
		return "price"
	case SAC:
		return "sac"
	case Bullet:
		return "bullet"
	case Custom:
		return "custom"
	default:
		return "unknown"
	}
}

// RateKind tells whether a debt's periodic rate is fixed or indexed.
type RateKind int

const (
	// FixedRate debts carry an explicit periodic rate.
	FixedRate RateKind = iota
	// VariableRate debts reference an external index by name; until the
	// index is resolved the rate is treated as zero.
	VariableRate
)

func (k RateKind) String() string {
	switch k {
	case FixedRate:
		return "fixed"
	case VariableRate:
		return "variable"
	default:
		return "unknown"
	}
}

// DebtTerms describes a debt to be amortized.
type DebtTerms struct {
	Principal    decimal.Decimal  `json:"principal"`
	RateKind     RateKind         `json:"rate_kind"`
	Rate         decimal.Decimal  `json:"rate"` // periodic rate, e.g. 0.01 = 1% per month
	IndexName    string           `json:"index_name,omitempty"`
	Amortization AmortizationKind `json:"amortization"`
	Installments int              `json:"installments"`
	StartDate    time.Time        `json:"start_date"`
}

// PeriodicRate returns the rate used by the schedule generator: the fixed
// rate, or zero for an unresolved variable rate.
func (t DebtTerms) PeriodicRate() decimal.Decimal {
	switch t.RateKind {
	case FixedRate:
		return t.Rate
	case VariableRate:
		return decimal.Zero
	default:
		panic("RateKind field not a valid kind")
	}
}

// Debt represents a stored debt contract.
type Debt struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	AccountID int64     `json:"account_id"`
	Terms     DebtTerms `json:"terms"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InstallmentLine is one row of a debt's repayment schedule. RemainingBalance
// is the balance after this installment is applied.
type InstallmentLine struct {
	Number           int             `json:"number"`
	DueDate          time.Time       `json:"due_date"`
	Total            decimal.Decimal `json:"total"`
	Principal        decimal.Decimal `json:"principal"`
	Interest         decimal.Decimal `json:"interest"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}
