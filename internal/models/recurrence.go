package models

// RecurrenceRule represents how often a recurring obligation repeats.
type RecurrenceRule int

const (
	Daily RecurrenceRule = iota
	Weekly
	Biweekly
	Monthly
	Bimonthly
	Quarterly
	Semiannual
	Annual
	// Placeholder for rule count. Does not represent an actual rule.
	// New rules must be inserted right before this one.
	RecurrenceRuleCount
)

// ToRecurrenceRule converts an int that ToInt returned back to a
// RecurrenceRule. On success, returns the rule and true. If x is out of
// range, returns RecurrenceRuleCount and false.
func ToRecurrenceRule(x int) (RecurrenceRule, bool) {
	if x < 0 || x >= int(RecurrenceRuleCount) {
		return RecurrenceRuleCount, false
	}
	return RecurrenceRule(x), true
}

func (r RecurrenceRule) String() string {
	switch r {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Biweekly:
		return "biweekly"
	case Monthly:
		return "monthly"
	case Bimonthly:
		return "bimonthly"
	case Quarterly:
		return "quarterly"
	case Semiannual:
		return "semiannual"
	case Annual:
		return "annual"
	default:
		return "unknown"
	}
}

// ToInt maps a RecurrenceRule to an int suitable for persistent storage.
func (r RecurrenceRule) ToInt() int {
	return int(r)
}

// Direction tells whether an obligation adds to or draws from the balance.
type Direction int

const (
	Income Direction = iota
	Expense
)

func (d Direction) String() string {
	switch d {
	case Income:
		return "income"
	case Expense:
		return "expense"
	default:
		return "unknown"
	}
}
