package finance

import "strconv"

// Summary is one labelled headline value of a result.
type Summary struct {
	Label string
	Value string
}

// Table is a rendering-neutral view of a result's breakdown, used by the
// CSV and PDF exporters.
type Table struct {
	Title   string
	Summary []Summary
	Columns []string
	Rows    [][]string
}

// Tabular is implemented by results that carry a per-period breakdown.
type Tabular interface {
	Table() Table
}

func money(v float64) string { return FormatFixed2(v) }
func whole(v float64) string { return strconv.FormatFloat(Round0(v), 'f', 0, 64) }
func itoa(v int) string      { return strconv.Itoa(v) }

func (r CompoundInterestResult) Table() Table {
	t := Table{
		Title: "Compound Interest",
		Summary: []Summary{
			{"Final Balance", money(r.FinalBalance)},
			{"Total Contributions", money(r.TotalContributions)},
			{"Total Interest", money(r.TotalInterest)},
		},
		Columns: []string{"Year", "Balance", "Total Contributions", "Yearly Interest", "Total Interest"},
	}
	for _, y := range r.Breakdown {
		t.Rows = append(t.Rows, []string{itoa(y.Year), money(y.Balance), money(y.TotalContributions), money(y.YearlyInterest), money(y.TotalInterest)})
	}
	return t
}

func (r LoanPayoffResult) Table() Table {
	t := Table{
		Title: "Loan Payoff",
		Summary: []Summary{
			{"Months to Payoff", itoa(r.TotalMonths)},
			{"Total Interest", money(r.TotalInterest)},
			{"Total Payments", money(r.TotalPayments)},
		},
		Columns: []string{"Month", "Payment", "Principal", "Interest", "Balance"},
	}
	if !r.PaidOff {
		t.Summary = append(t.Summary, Summary{"Remaining Balance", money(r.RemainingBalance)})
	}
	for _, m := range r.Schedule {
		t.Rows = append(t.Rows, []string{itoa(m.Month), money(m.Payment), money(m.Principal), money(m.Interest), money(m.Balance)})
	}
	return t
}

func (r RetirementResult) Table() Table {
	t := Table{
		Title: "Retirement Projection",
		Summary: []Summary{
			{"Retirement Corpus", money(r.RetirementCorpus)},
			{"Total Contributions", money(r.TotalContributions)},
			{"Total Growth", money(r.TotalGrowth)},
			{"Annual Withdrawal", money(r.AnnualWithdrawal)},
			{"Monthly Withdrawal", money(r.MonthlyWithdrawal)},
		},
		Columns: []string{"Age", "Year", "Balance", "Total Contributions", "Yearly Growth"},
	}
	for _, y := range r.Projection {
		t.Rows = append(t.Rows, []string{itoa(y.Age), itoa(y.Year), money(y.Balance), money(y.TotalContributions), money(y.YearlyGrowth)})
	}
	return t
}

func (r InflationResult) Table() Table {
	t := Table{
		Title: "Inflation Impact",
		Summary: []Summary{
			{"Current Value", money(r.CurrentValue)},
			{"Future Equivalent", money(r.FutureEquivalent)},
			{"Future Purchasing Power", money(r.FuturePurchasingPower)},
			{"Total Inflation %", money(r.TotalInflation)},
		},
		Columns: []string{"Year", "Future Value", "Purchasing Power", "Value Eroded", "Cumulative Inflation %"},
	}
	for _, y := range r.Breakdown {
		t.Rows = append(t.Rows, []string{itoa(y.Year), money(y.FutureValue), money(y.PurchasingPower), money(y.ValueEroded), money(y.CumulativeInflation)})
	}
	return t
}

func (r SIPResult) Table() Table {
	t := Table{
		Title: "SIP Maturity",
		Summary: []Summary{
			{"Total Invested", whole(r.TotalInvested)},
			{"Estimated Returns", whole(r.EstReturns)},
			{"Total Value", whole(r.TotalValue)},
		},
		Columns: []string{"Year", "Invested", "Wealth Gained", "Maturity Value"},
	}
	for _, y := range r.YearlyData {
		t.Rows = append(t.Rows, []string{itoa(y.Year), whole(y.Investment), whole(y.WealthGained), whole(y.MaturityValue)})
	}
	return t
}

func (r EMIResult) Table() Table {
	t := Table{
		Title: "EMI Schedule",
		Summary: []Summary{
			{"Monthly EMI", whole(r.EMI)},
			{"Total Interest", whole(r.TotalInterest)},
			{"Total Payment", whole(r.TotalPayment)},
		},
		Columns: []string{"Year", "Principal Paid", "Interest Paid", "Remaining Balance"},
	}
	for _, y := range r.Schedule {
		t.Rows = append(t.Rows, []string{itoa(y.Year), money(y.PrincipalPaid), money(y.InterestPaid), money(y.RemainingBalance)})
	}
	return t
}

func (r IndiaTaxResult) Table() Table {
	t := Table{
		Title: "Income Tax (" + r.Regime + ")",
		Summary: []Summary{
			{"Taxable Income", whole(r.TaxableIncome)},
			{"Total Tax", whole(r.TotalTax)},
			{"Take Home", whole(r.TakeHome)},
			{"Effective Rate %", money(r.EffectiveRate)},
		},
		Columns: []string{"From", "To", "Rate %", "Tax"},
	}
	if r.RebateApplied {
		t.Summary = append(t.Summary, Summary{"Rebate", "applied"})
	}
	for _, s := range r.Slabs {
		to := "and above"
		if s.To > 0 {
			to = whole(s.To)
		}
		t.Rows = append(t.Rows, []string{whole(s.From), to, money(s.Rate), money(s.Tax)})
	}
	return t
}
