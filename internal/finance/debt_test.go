package finance

import "testing"

func sampleDebts() []Debt {
	return []Debt{
		{Name: "Card", Balance: 5000, Rate: 22, MinPayment: 150},
		{Name: "Car", Balance: 12000, Rate: 6, MinPayment: 300},
		{Name: "Store", Balance: 800, Rate: 10, MinPayment: 40},
	}
}

func TestDebtPayoffStrategies(t *testing.T) {
	got, err := DebtPayoff(DebtPayoffParams{Debts: sampleDebts(), ExtraPayment: 200})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.TotalDebt != 17800 {
		t.Errorf("TotalDebt = %v", got.TotalDebt)
	}
	for name, s := range map[string]DebtStrategyResult{
		"snowball":  got.Snowball,
		"avalanche": got.Avalanche,
		"minimum":   got.MinimumOnly,
	} {
		if !s.PaidOff {
			t.Errorf("%s: not paid off after %d months", name, s.TotalMonths)
		}
		if len(s.PayoffOrder) != 3 {
			t.Errorf("%s: payoff order %v", name, s.PayoffOrder)
		}
	}

	if got.Snowball.PayoffOrder[0] != "Store" {
		t.Errorf("snowball should clear the smallest balance first, got %v", got.Snowball.PayoffOrder)
	}
	if got.Avalanche.PayoffOrder[0] != "Card" {
		t.Errorf("avalanche should clear the highest rate first, got %v", got.Avalanche.PayoffOrder)
	}
	if got.Avalanche.TotalInterest >= got.Snowball.TotalInterest {
		t.Errorf("avalanche interest %v exceeds snowball %v", got.Avalanche.TotalInterest, got.Snowball.TotalInterest)
	}
	if got.InterestSavedAvalanche <= 0 || got.MonthsSavedAvalanche <= 0 {
		t.Errorf("extra payment should save interest and time: %v, %d", got.InterestSavedAvalanche, got.MonthsSavedAvalanche)
	}
	if got.Snowball.TotalMonths >= got.MinimumOnly.TotalMonths {
		t.Errorf("snowball %d months vs minimum %d", got.Snowball.TotalMonths, got.MinimumOnly.TotalMonths)
	}
}

func TestDebtPayoffTimelineSampling(t *testing.T) {
	got, err := DebtPayoff(DebtPayoffParams{Debts: sampleDebts(), ExtraPayment: 200})
	if err != nil {
		t.Fatal(err)
	}
	a, s, m := got.Avalanche.Timeline, got.Snowball.Timeline, got.MinimumOnly.Timeline
	if len(a) != len(s) || len(s) != len(m) {
		t.Fatalf("timelines differ in length: %d %d %d", len(a), len(s), len(m))
	}
	seenFinal := false
	for i, p := range s {
		if i > 0 && p.Month <= s[i-1].Month {
			t.Fatalf("timeline not ascending at %d", i)
		}
		if p.Month == got.Snowball.TotalMonths {
			seenFinal = true
			if p.TotalBalance != 0 || p.DebtsRemaining != 0 {
				t.Errorf("final point = %+v", p)
			}
		}
		if p.Month%12 != 0 && p.Month != got.Snowball.TotalMonths && p.Month != got.Avalanche.TotalMonths && p.Month != got.MinimumOnly.TotalMonths {
			t.Errorf("unexpected checkpoint %d", p.Month)
		}
	}
	if !seenFinal {
		t.Error("snowball final month missing from timeline")
	}
	last := m[len(m)-1]
	if last.Month != got.MinimumOnly.TotalMonths {
		t.Errorf("timeline should end at the longest run, got %d", last.Month)
	}
}

func TestDebtPayoffMinimumOnlyRollsFreedMinimums(t *testing.T) {
	got, err := DebtPayoff(DebtPayoffParams{Debts: []Debt{
		{Name: "A", Balance: 100, Rate: 0, MinPayment: 50},
		{Name: "B", Balance: 1000, Rate: 0, MinPayment: 50},
	}})
	if err != nil {
		t.Fatal(err)
	}
	// A clears in month 2, then B gets 100 a month.
	if got.MinimumOnly.TotalMonths != 11 {
		t.Errorf("minimum-only months = %d, want 11", got.MinimumOnly.TotalMonths)
	}
	if got.Snowball.TotalMonths != got.MinimumOnly.TotalMonths {
		t.Errorf("snowball months = %d, minimum-only = %d, want equal without extra payment",
			got.Snowball.TotalMonths, got.MinimumOnly.TotalMonths)
	}
	if got.MinimumOnly.TotalPaid != 1100 {
		t.Errorf("minimum-only paid = %v, want 1100", got.MinimumOnly.TotalPaid)
	}
}

func TestDebtPayoffStuckDebtHitsCap(t *testing.T) {
	got, err := DebtPayoff(DebtPayoffParams{Debts: []Debt{{Name: "Loan", Balance: 10000, Rate: 24, MinPayment: 100}}})
	if err != nil {
		t.Fatal(err)
	}
	if got.MinimumOnly.PaidOff || got.MinimumOnly.TotalMonths != MaxLoanMonths {
		t.Errorf("minimum-only = %+v", got.MinimumOnly)
	}
}

func TestParseDebtPayoff(t *testing.T) {
	in, err := DecodeInput([]byte(`{"debts":[{"balance":"1000","rate":12,"minPayment":50},{"name":"Visa","balance":300,"rate":20,"minPayment":25}],"extraPayment":100}`))
	if err != nil {
		t.Fatal(err)
	}
	p, err := ParseDebtPayoff(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Debts) != 2 || p.Debts[0].Name != "Debt 1" || p.Debts[1].Name != "Visa" {
		t.Errorf("debts = %+v", p.Debts)
	}

	tests := []struct {
		name   string
		body   string
		reason Reason
		field  string
	}{
		{"no debts", `{}`, ReasonMissing, "debts"},
		{"bad balance", `{"debts":[{"balance":"x","minPayment":10}]}`, ReasonNotNumeric, "debts[0].balance"},
		{"zero minimum", `{"debts":[{"balance":100}]}`, ReasonOutOfRange, "debts[0].minPayment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, _ := DecodeInput([]byte(tt.body))
			_, err := ParseDebtPayoff(in)
			ve, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if ve.Reason != tt.reason || ve.Field != tt.field {
				t.Errorf("got field=%q reason=%q", ve.Field, ve.Reason)
			}
		})
	}
}

func TestTimelineCheckpoints(t *testing.T) {
	got := timelineCheckpoints(30, 8, 0)
	want := []int{8, 12, 24, 30}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
