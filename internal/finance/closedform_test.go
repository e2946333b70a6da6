package finance

import (
	"errors"
	"math"
	"testing"
)

func TestInflation(t *testing.T) {
	got, err := Inflation(InflationParams{CurrentValue: 1000, Years: 10, InflationRate: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.FutureEquivalent != 1628.89 {
		t.Errorf("FutureEquivalent = %v, want 1628.89", got.FutureEquivalent)
	}
	if got.FuturePurchasingPower != 613.91 {
		t.Errorf("FuturePurchasingPower = %v, want 613.91", got.FuturePurchasingPower)
	}
	if got.TotalInflation != 62.89 {
		t.Errorf("TotalInflation = %v, want 62.89", got.TotalInflation)
	}
	if len(got.Breakdown) != 10 {
		t.Fatalf("len(Breakdown) = %d", len(got.Breakdown))
	}
}

func TestInflationDuality(t *testing.T) {
	const cv = 2500.0
	got, err := Inflation(InflationParams{CurrentValue: cv, Years: 100, InflationRate: 3.5})
	if err != nil {
		t.Fatal(err)
	}
	for _, y := range got.Breakdown {
		// each factor carries at most half a cent of rounding error
		tolerance := 0.005*(y.FutureValue+y.PurchasingPower) + 0.0001
		if diff := math.Abs(y.FutureValue*y.PurchasingPower - cv*cv); diff > tolerance {
			t.Fatalf("year %d: fv*pp off by %v (tolerance %v)", y.Year, diff, tolerance)
		}
	}
}

func TestInflationValidation(t *testing.T) {
	if _, err := Inflation(InflationParams{CurrentValue: 100, Years: 5, InflationRate: -100}); ReasonOf(err) != ReasonOutOfRange {
		t.Errorf("rate -100: got %v", err)
	}
	got, err := Inflation(InflationParams{CurrentValue: 100, Years: 0, InflationRate: 7})
	if err != nil {
		t.Fatal(err)
	}
	if got.FutureEquivalent != 100 || got.TotalInflation != 0 || len(got.Breakdown) != 0 {
		t.Errorf("zero years = %+v", got)
	}
}

func TestSIP(t *testing.T) {
	tests := []struct {
		name                string
		params              SIPParams
		invested, ret, total float64
	}{
		{"twelve percent ten years", SIPParams{MonthlyInvestment: 5000, AnnualRate: 12, Years: 10}, 600000, 561695, 1161695},
		{"zero rate", SIPParams{MonthlyInvestment: 100, AnnualRate: 0, Years: 1}, 1200, 0, 1200},
		{"zero years", SIPParams{MonthlyInvestment: 100, AnnualRate: 10, Years: 0}, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SIP(tt.params)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.TotalInvested != tt.invested || got.EstReturns != tt.ret || got.TotalValue != tt.total {
				t.Errorf("got invested=%v returns=%v total=%v", got.TotalInvested, got.EstReturns, got.TotalValue)
			}
			if len(got.YearlyData) != tt.params.Years {
				t.Errorf("len(YearlyData) = %d", len(got.YearlyData))
			}
		})
	}
}

func TestSIPYearlyDataEndsAtMaturity(t *testing.T) {
	got, err := SIP(SIPParams{MonthlyInvestment: 5000, AnnualRate: 12, Years: 10})
	if err != nil {
		t.Fatal(err)
	}
	last := got.YearlyData[len(got.YearlyData)-1]
	if last.MaturityValue != got.TotalValue || last.Investment != got.TotalInvested {
		t.Errorf("last year %+v does not match totals", last)
	}
}

func TestEMI(t *testing.T) {
	tests := []struct {
		name                   string
		params                 EMIParams
		emi, interest, payment float64
	}{
		{"home loan", EMIParams{Principal: 1000000, Rate: 8.5, Years: 20}, 8678, 1082776, 2082776},
		{"zero rate", EMIParams{Principal: 120000, Rate: 0, Years: 1}, 10000, 0, 120000},
		{"nothing borrowed", EMIParams{Principal: 0, Rate: 9, Years: 0}, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EMI(tt.params)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.EMI != tt.emi || got.TotalInterest != tt.interest || got.TotalPayment != tt.payment {
				t.Errorf("got emi=%v interest=%v payment=%v", got.EMI, got.TotalInterest, got.TotalPayment)
			}
		})
	}
}

func TestEMIScheduleRepaysPrincipal(t *testing.T) {
	got, err := EMI(EMIParams{Principal: 500000, Rate: 10, Years: 5})
	if err != nil {
		t.Fatal(err)
	}
	var principal float64
	for _, y := range got.Schedule {
		principal += y.PrincipalPaid
	}
	if math.Abs(principal-500000) > 0.05 {
		t.Errorf("principal repaid = %v", principal)
	}
	if last := got.Schedule[len(got.Schedule)-1]; last.RemainingBalance != 0 {
		t.Errorf("remaining balance = %v", last.RemainingBalance)
	}
}

func TestEMIRequiresTerm(t *testing.T) {
	_, err := EMI(EMIParams{Principal: 1000, Rate: 10, Years: 0})
	if ReasonOf(err) != ReasonInvalidCombination {
		t.Errorf("expected invalid_combination, got %v", err)
	}
}

func TestGST(t *testing.T) {
	got, err := GST(GSTParams{Amount: 1000, Rate: 18})
	if err != nil {
		t.Fatal(err)
	}
	if got.NetAmount != 1000 || got.GSTAmount != 180 || got.TotalAmount != 1180 {
		t.Errorf("exclusive = %+v", got)
	}
	if got.CGST != 90 || got.SGST != 90 {
		t.Errorf("cgst=%v sgst=%v", got.CGST, got.SGST)
	}

	inc, err := GST(GSTParams{Amount: 1180, Rate: 18, Inclusive: true})
	if err != nil {
		t.Fatal(err)
	}
	if inc.NetAmount != 1000 || inc.GSTAmount != 180 || inc.TotalAmount != 1180 {
		t.Errorf("inclusive = %+v", inc)
	}
}

func TestGSTRoundTrip(t *testing.T) {
	amounts := []float64{0, 1, 99.99, 1234.56, 250000}
	rates := []float64{0, 3, 5, 12, 18, 28}
	for _, amount := range amounts {
		for _, rate := range rates {
			ex, err := GST(GSTParams{Amount: amount, Rate: rate})
			if err != nil {
				t.Fatal(err)
			}
			in, err := GST(GSTParams{Amount: ex.TotalAmount, Rate: rate, Inclusive: true})
			if err != nil {
				t.Fatal(err)
			}
			const tolerance = 0.01 + 1e-9
			if math.Abs(in.NetAmount-amount) > tolerance || math.Abs(in.GSTAmount-ex.GSTAmount) > tolerance {
				t.Errorf("amount=%v rate=%v: net %v gst %v vs %v", amount, rate, in.NetAmount, in.GSTAmount, ex.GSTAmount)
			}
		}
	}
}

func TestParseGSTInclusiveFlag(t *testing.T) {
	p, err := ParseGST(Input{"amount": "500", "rate": 5, "inclusive": "true"})
	if err != nil {
		t.Fatal(err)
	}
	if !p.Inclusive || p.Amount != 500 {
		t.Errorf("params = %+v", p)
	}
	if _, err := ParseGST(Input{"inclusive": "sometimes"}); ReasonOf(err) != ReasonNotBoolean {
		t.Errorf("expected not_boolean, got %v", err)
	}
}

func TestNegativeRatesRejected(t *testing.T) {
	tests := []struct {
		name string
		run  func() error
	}{
		{"loan payoff", func() error {
			_, err := LoanPayoff(LoanPayoffParams{Amount: 1000, Rate: -5, Payment: 100})
			return err
		}},
		{"emi", func() error {
			_, err := EMI(EMIParams{Principal: 1000, Rate: -5, Years: 1})
			return err
		}},
		{"gst", func() error {
			_, err := GST(GSTParams{Amount: 1000, Rate: -5})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != "rate" || ve.Reason != ReasonOutOfRange {
				t.Errorf("error = %v, want rate out_of_range", err)
			}
		})
	}
}
