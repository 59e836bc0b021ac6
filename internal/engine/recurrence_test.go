package engine

import (
	"testing"
	"time"

	"github.com/Dan9191/finance-tracker/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func anchor(d int) *int {
	return &d
}

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name    string
		rule    models.RecurrenceRule
		anchor  *int
		current time.Time
		want    time.Time
	}{
		{
			name:    "daily",
			rule:    models.Daily,
			current: date(2024, time.March, 15),
			want:    date(2024, time.March, 16),
		},
		{
			name:    "daily across month end",
			rule:    models.Daily,
			current: date(2024, time.February, 29),
			want:    date(2024, time.March, 1),
		},
		{
			name:    "weekly",
			rule:    models.Weekly,
			current: date(2024, time.March, 15),
			want:    date(2024, time.March, 22),
		},
		{
			name:    "biweekly",
			rule:    models.Biweekly,
			current: date(2024, time.March, 25),
			want:    date(2024, time.April, 8),
		},
		{
			name:    "monthly with anchor",
			rule:    models.Monthly,
			anchor:  anchor(5),
			current: date(2024, time.March, 5),
			want:    date(2024, time.April, 5),
		},
		{
			name:    "monthly anchor 31 clamped to leap february",
			rule:    models.Monthly,
			anchor:  anchor(31),
			current: date(2024, time.January, 31),
			want:    date(2024, time.February, 29),
		},
		{
			name:    "monthly anchor 31 clamped to non-leap february",
			rule:    models.Monthly,
			anchor:  anchor(31),
			current: date(2023, time.January, 31),
			want:    date(2023, time.February, 28),
		},
		{
			name:    "monthly anchor not sticky after clamp",
			rule:    models.Monthly,
			anchor:  anchor(31),
			current: date(2024, time.February, 29),
			want:    date(2024, time.March, 31),
		},
		{
			name:    "monthly without anchor tracks last day",
			rule:    models.Monthly,
			current: date(2024, time.January, 31),
			want:    date(2024, time.February, 29),
		},
		{
			name:    "monthly without anchor from short month",
			rule:    models.Monthly,
			current: date(2024, time.February, 29),
			want:    date(2024, time.March, 31),
		},
		{
			name:    "bimonthly",
			rule:    models.Bimonthly,
			anchor:  anchor(15),
			current: date(2024, time.November, 15),
			want:    date(2025, time.January, 15),
		},
		{
			name:    "quarterly",
			rule:    models.Quarterly,
			anchor:  anchor(10),
			current: date(2024, time.December, 10),
			want:    date(2025, time.March, 10),
		},
		{
			name:    "semiannual",
			rule:    models.Semiannual,
			anchor:  anchor(1),
			current: date(2024, time.August, 1),
			want:    date(2025, time.February, 1),
		},
		{
			name:    "annual",
			rule:    models.Annual,
			anchor:  anchor(20),
			current: date(2024, time.June, 20),
			want:    date(2025, time.June, 20),
		},
		{
			name:    "annual anchor feb 29 into non-leap year",
			rule:    models.Annual,
			anchor:  anchor(29),
			current: date(2024, time.February, 29),
			want:    date(2025, time.February, 28),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextOccurrence(tt.rule, tt.anchor, tt.current)
			if !got.Equal(tt.want) {
				t.Errorf("NextOccurrence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextOccurrenceMonotonic(t *testing.T) {
	currents := []time.Time{
		date(2023, time.January, 1),
		date(2023, time.December, 31),
		date(2024, time.February, 29),
		date(2024, time.July, 15),
		date(2025, time.June, 30),
	}
	for rule := models.RecurrenceRule(0); rule < models.RecurrenceRuleCount; rule++ {
		for _, current := range currents {
			if got := NextOccurrence(rule, nil, current); !got.After(current) {
				t.Errorf("NextOccurrence(%v, nil, %v) = %v, not after current", rule, current, got)
			}
			if got := NextOccurrence(rule, anchor(15), current); !got.After(current) {
				t.Errorf("NextOccurrence(%v, 15, %v) = %v, not after current", rule, current, got)
			}
		}
	}
}

func TestAdvance(t *testing.T) {
	ob := models.RecurringObligation{
		Rule:           models.Monthly,
		AnchorDay:      anchor(10),
		StartDate:      date(2024, time.January, 10),
		NextOccurrence: date(2024, time.January, 10),
		Active:         true,
	}

	advanced, ok := Advance(ob)
	if !ok {
		t.Fatal("Advance() returned ok = false for open-ended obligation")
	}
	if want := date(2024, time.February, 10); !advanced.NextOccurrence.Equal(want) {
		t.Errorf("advanced cursor = %v, want %v", advanced.NextOccurrence, want)
	}
	// The input value stays untouched.
	if !ob.NextOccurrence.Equal(date(2024, time.January, 10)) {
		t.Errorf("input obligation mutated: cursor = %v", ob.NextOccurrence)
	}
}

func TestAdvanceStopsAtEndDate(t *testing.T) {
	end := date(2024, time.February, 5)
	ob := models.RecurringObligation{
		Rule:           models.Monthly,
		AnchorDay:      anchor(10),
		StartDate:      date(2024, time.January, 10),
		EndDate:        &end,
		NextOccurrence: date(2024, time.January, 10),
		Active:         true,
	}

	got, ok := Advance(ob)
	if ok {
		t.Fatal("Advance() returned ok = true past the end date")
	}
	if !got.NextOccurrence.Equal(ob.NextOccurrence) {
		t.Errorf("exhausted obligation cursor moved to %v", got.NextOccurrence)
	}
}
