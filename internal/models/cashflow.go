package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Labels attached to projected cash-flow points.
const (
	LabelCurrentBalance = "Current Balance"
	LabelProjection     = "Projection"
)

// CashFlowPoint represents the projected balance after one day's flows.
type CashFlowPoint struct {
	Date     time.Time       `json:"date"`
	Balance  decimal.Decimal `json:"balance"`
	Incoming decimal.Decimal `json:"incoming"`
	Outgoing decimal.Decimal `json:"outgoing"`
	Label    string          `json:"label"`
}

// CashFlowSeries is a time-ordered, non-empty sequence of points starting
// at today.
type CashFlowSeries []CashFlowPoint
