package engine

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		total string
		count int
		want  []string
	}{
		{"even split", "90.00", 3, []string{"30.00", "30.00", "30.00"}},
		{"remainder on first part", "100.00", 3, []string{"33.34", "33.33", "33.33"}},
		{"single part", "57.89", 1, []string{"57.89"}},
		{"two cents over", "10.01", 3, []string{"3.35", "3.33", "3.33"}},
		{"sub-cent total", "0.01", 3, []string{"0.01", "0.00", "0.00"}},
		{"seven parts", "999.99", 7, []string{"142.89", "142.85", "142.85", "142.85", "142.85", "142.85", "142.85"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := Split(dec(tt.total), tt.count)
			if len(parts) != tt.count {
				t.Fatalf("Split() returned %d parts, want %d", len(parts), tt.count)
			}
			sum := decimal.Zero
			for k, part := range parts {
				if part.MonthOffset != k {
					t.Errorf("part %d: month offset = %d, want %d", k, part.MonthOffset, k)
				}
				if want := dec(tt.want[k]); !part.Amount.Equal(want) {
					t.Errorf("part %d: amount = %s, want %s", k, part.Amount, want)
				}
				sum = sum.Add(part.Amount)
			}
			if total := dec(tt.total); !sum.Equal(total) {
				t.Errorf("amounts sum to %s, want %s", sum, total)
			}
		})
	}
}

func TestSplitPanicsOnZeroCount(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Split() did not panic for count 0")
		}
	}()
	Split(dec("10.00"), 0)
}
