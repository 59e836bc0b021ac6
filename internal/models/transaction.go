package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a financial transaction. Amount is signed: positive
// for income, negative for expense. Pending transactions have Settled false
// and a Date in the future; the projector consumes them as (date, amount).
type Transaction struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	AccountID    *int64          `json:"account_id,omitempty"`
	CardID       *int64          `json:"card_id,omitempty"`
	CategoryID   int64           `json:"category_id"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description"`
	Settled      bool            `json:"settled"`
	ObligationID *int64          `json:"obligation_id,omitempty"` // set when materialized from a recurring obligation
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
