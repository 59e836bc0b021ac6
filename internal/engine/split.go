package engine

import "github.com/shopspring/decimal"

// SplitPart is one slice of a purchase split over several months. The due
// date is the caller's anchor date plus MonthOffset months.
type SplitPart struct {
	Amount      decimal.Decimal `json:"amount"`
	MonthOffset int             `json:"month_offset"`
}

// Split divides total into count month-offset parts whose amounts sum to
// total exactly. The base amount is the total divided by count truncated to
// cents; the sub-cent remainder is concentrated in the first part, never
// distributed silently and never lost.
func Split(total decimal.Decimal, count int) []SplitPart {
	if count < 1 {
		panic("installment count must be >= 1")
	}

	base := total.Div(decimal.NewFromInt(int64(count))).RoundDown(2)
	remainder := total.Sub(base.Mul(decimal.NewFromInt(int64(count))))

	parts := make([]SplitPart, count)
	for k := 0; k < count; k++ {
		amount := base
		if k == 0 {
			amount = base.Add(remainder)
		}
		parts[k] = SplitPart{Amount: amount, MonthOffset: k}
	}
	return parts
}
