package engine

import (
	"reflect"
	"testing"
	"time"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/shopspring/decimal"
)

func monthlyIncome(amount string, anchorDay int, next time.Time) models.RecurringObligation {
	return models.RecurringObligation{
		Description:    "salary",
		Direction:      models.Income,
		AmountKind:     models.FixedAmount,
		Amount:         dec(amount),
		Rule:           models.Monthly,
		AnchorDay:      anchor(anchorDay),
		StartDate:      next,
		NextOccurrence: next,
		Active:         true,
	}
}

func TestProjectFirstPoint(t *testing.T) {
	today := date(2025, time.March, 27)
	series := Project(today, dec("1000.00"), nil, nil, 0)

	if len(series) != 1 {
		t.Fatalf("series has %d points, want 1", len(series))
	}
	first := series[0]
	if !first.Date.Equal(today) || !first.Balance.Equal(dec("1000.00")) ||
		!first.Incoming.IsZero() || !first.Outgoing.IsZero() ||
		first.Label != models.LabelCurrentBalance {
		t.Errorf("first point = %+v", first)
	}
}

func TestProjectScenario(t *testing.T) {
	// Starting balance 1000, a pending 200 expense in 5 days, a monthly
	// anchor-5 income of 3000 starting today, over a 10 day horizon.
	today := date(2025, time.March, 27)
	pending := []PendingFlow{
		{Date: date(2025, time.April, 1), Amount: dec("-200.00")},
	}
	recurring := []models.RecurringObligation{
		monthlyIncome("3000.00", 5, today),
	}

	series := Project(today, dec("1000.00"), pending, recurring, 10)

	want := models.CashFlowSeries{
		{Date: today, Balance: dec("1000.00"), Incoming: decimal.Zero, Outgoing: decimal.Zero, Label: models.LabelCurrentBalance},
		{Date: date(2025, time.April, 1), Balance: dec("800.00"), Incoming: decimal.Zero, Outgoing: dec("200.00"), Label: models.LabelProjection},
		{Date: date(2025, time.April, 5), Balance: dec("3800.00"), Incoming: dec("3000.00"), Outgoing: decimal.Zero, Label: models.LabelProjection},
		{Date: date(2025, time.April, 6), Balance: dec("3800.00"), Incoming: decimal.Zero, Outgoing: decimal.Zero, Label: models.LabelProjection},
	}

	if len(series) != len(want) {
		t.Fatalf("series has %d points, want %d: %+v", len(series), len(want), series)
	}
	for k := range want {
		got := series[k]
		if !got.Date.Equal(want[k].Date) || !got.Balance.Equal(want[k].Balance) ||
			!got.Incoming.Equal(want[k].Incoming) || !got.Outgoing.Equal(want[k].Outgoing) ||
			got.Label != want[k].Label {
			t.Errorf("point %d = %+v, want %+v", k, got, want[k])
		}
	}
}

func TestProjectIsDeterministic(t *testing.T) {
	today := date(2025, time.March, 27)
	pending := []PendingFlow{
		{Date: date(2025, time.April, 2), Amount: dec("-75.50")},
		{Date: date(2025, time.April, 2), Amount: dec("120.00")},
	}
	recurring := []models.RecurringObligation{
		monthlyIncome("3000.00", 5, today),
	}

	first := Project(today, dec("500.00"), pending, recurring, 30)
	second := Project(today, dec("500.00"), pending, recurring, 30)
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different series")
	}
}

func TestProjectDoesNotMutateObligations(t *testing.T) {
	today := date(2025, time.March, 27)
	recurring := []models.RecurringObligation{
		monthlyIncome("3000.00", 5, today),
	}

	Project(today, dec("500.00"), nil, recurring, 60)

	if !recurring[0].NextOccurrence.Equal(today) {
		t.Errorf("projection moved the stored cursor to %v", recurring[0].NextOccurrence)
	}
}

func TestProjectContinuityPoints(t *testing.T) {
	// No flows at all: only the first-of-month anchor and the horizon end
	// produce points, both flat.
	today := date(2025, time.March, 27)
	series := Project(today, dec("250.00"), nil, nil, 10)

	want := models.CashFlowSeries{
		{Date: today, Balance: dec("250.00"), Incoming: decimal.Zero, Outgoing: decimal.Zero, Label: models.LabelCurrentBalance},
		{Date: date(2025, time.April, 1), Balance: dec("250.00"), Incoming: decimal.Zero, Outgoing: decimal.Zero, Label: models.LabelProjection},
		{Date: date(2025, time.April, 6), Balance: dec("250.00"), Incoming: decimal.Zero, Outgoing: decimal.Zero, Label: models.LabelProjection},
	}
	if len(series) != len(want) {
		t.Fatalf("series has %d points, want %d: %+v", len(series), len(want), series)
	}
	for k := range want {
		got := series[k]
		if !got.Date.Equal(want[k].Date) || !got.Balance.Equal(want[k].Balance) || got.Label != want[k].Label {
			t.Errorf("point %d = %+v, want %+v", k, got, want[k])
		}
	}
}

func TestProjectSkipsExhaustedObligation(t *testing.T) {
	today := date(2025, time.March, 27)
	end := date(2025, time.March, 31)
	ob := monthlyIncome("3000.00", 5, today)
	ob.EndDate = &end

	series := Project(today, dec("100.00"), nil, []models.RecurringObligation{ob}, 15)

	// The next anchor-5 occurrence falls past the end date, so the series
	// carries no flow at all.
	for _, p := range series {
		if !p.Incoming.IsZero() || !p.Outgoing.IsZero() {
			t.Errorf("exhausted obligation produced flow on %v: %+v", p.Date, p)
		}
		if !p.Balance.Equal(dec("100.00")) {
			t.Errorf("balance moved to %s on %v", p.Balance, p.Date)
		}
	}
}

func TestProjectSkipsInactiveObligation(t *testing.T) {
	today := date(2025, time.March, 27)
	ob := monthlyIncome("3000.00", 5, today)
	ob.Active = false

	series := Project(today, dec("100.00"), nil, []models.RecurringObligation{ob}, 15)
	for _, p := range series {
		if !p.Incoming.IsZero() {
			t.Errorf("inactive obligation produced flow on %v", p.Date)
		}
	}
}

func TestProjectNetsPendingFlowsBySign(t *testing.T) {
	today := date(2025, time.June, 10)
	day := date(2025, time.June, 12)
	pending := []PendingFlow{
		{Date: day, Amount: dec("-40.00")},
		{Date: day, Amount: dec("-10.00")},
		{Date: day, Amount: dec("25.00")},
	}

	series := Project(today, dec("0.00"), pending, nil, 3)
	if len(series) < 2 {
		t.Fatalf("series has %d points: %+v", len(series), series)
	}
	p := series[1]
	if !p.Date.Equal(day) {
		t.Fatalf("flow point on %v, want %v", p.Date, day)
	}
	if !p.Incoming.Equal(dec("25.00")) || !p.Outgoing.Equal(dec("50.00")) {
		t.Errorf("incoming/outgoing = %s/%s, want 25.00/50.00", p.Incoming, p.Outgoing)
	}
	if !p.Balance.Equal(dec("-25.00")) {
		t.Errorf("balance = %s, want -25.00", p.Balance)
	}
}
