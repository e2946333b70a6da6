package finance

import "math"

type LoanPayoffParams struct {
	Amount  float64 `json:"amount"`
	Rate    float64 `json:"rate"`
	Payment float64 `json:"payment"`
}

// LoanMonth is one row of an amortization schedule.
type LoanMonth struct {
	Month         int     `json:"month"`
	Payment       float64 `json:"payment"`
	Principal     float64 `json:"principal"`
	Interest      float64 `json:"interest"`
	Balance       float64 `json:"balance"`
	TotalInterest float64 `json:"totalInterest"`
}

// LoanYear aggregates twelve schedule rows.
type LoanYear struct {
	Year           int     `json:"year"`
	TotalPayments  float64 `json:"totalPayments"`
	TotalPrincipal float64 `json:"totalPrincipal"`
	TotalInterest  float64 `json:"totalInterest"`
	EndBalance     float64 `json:"endBalance"`
}

type LoanPayoffResult struct {
	TotalMonths      int         `json:"totalMonths"`
	TotalYears       float64     `json:"totalYears"`
	TotalInterest    float64     `json:"totalInterest"`
	TotalPayments    float64     `json:"totalPayments"`
	PaidOff          bool        `json:"paidOff"`
	RemainingBalance float64     `json:"remainingBalance"`
	Schedule         []LoanMonth `json:"schedule"`
	AnnualSummary    []LoanYear  `json:"annualSummary"`
}

func ParseLoanPayoff(in Input) (LoanPayoffParams, error) {
	var p LoanPayoffParams
	var err error
	if p.Amount, err = in.Float("amount", 0); err != nil {
		return p, err
	}
	if p.Rate, err = in.Float("rate", 0); err != nil {
		return p, err
	}
	if p.Payment, err = in.Float("payment", 0); err != nil {
		return p, err
	}
	return p, p.Validate()
}

func (p LoanPayoffParams) Validate() error {
	if err := requirePositive("amount", p.Amount); err != nil {
		return err
	}
	if err := requireNonNegative("rate", p.Rate); err != nil {
		return err
	}
	minPayment := p.Amount * (p.Rate / 100 / 12)
	if p.Payment <= minPayment {
		return invalid("payment", ReasonInfeasible,
			"Monthly payment must be greater than $%s", FormatFixed2(minPayment))
	}
	return nil
}

// LoanPayoff amortizes a loan with a fixed monthly payment until the balance
// falls to PayoffThreshold or MaxLoanMonths is reached. Hitting the cap is
// not an error; the result reports PaidOff false with the balance left.
func LoanPayoff(p LoanPayoffParams) (LoanPayoffResult, error) {
	if err := p.Validate(); err != nil {
		return LoanPayoffResult{}, err
	}

	monthlyRate := p.Rate / 100 / 12
	balance := p.Amount
	totalInterest := 0.0
	schedule := make([]LoanMonth, 0, 64)

	month := 0
	for balance > PayoffThreshold && month < MaxLoanMonths {
		month++
		interest := balance * monthlyRate
		principal := math.Min(p.Payment-interest, balance)
		payment := math.Min(p.Payment, balance+interest)
		balance = math.Max(0, balance-principal)
		totalInterest += interest

		schedule = append(schedule, LoanMonth{
			Month:         month,
			Payment:       Round2(payment),
			Principal:     Round2(principal),
			Interest:      Round2(interest),
			Balance:       Round2(balance),
			TotalInterest: Round2(totalInterest),
		})
	}

	if err := checkFinite(CalcLoanPayoff, balance, totalInterest); err != nil {
		return LoanPayoffResult{}, err
	}

	return LoanPayoffResult{
		TotalMonths:      month,
		TotalYears:       Round1(float64(month) / 12),
		TotalInterest:    Round2(totalInterest),
		TotalPayments:    Round2(totalInterest + p.Amount),
		PaidOff:          balance <= PayoffThreshold,
		RemainingBalance: Round2(balance),
		Schedule:         schedule,
		AnnualSummary:    summarizeLoanYears(schedule),
	}, nil
}

func summarizeLoanYears(schedule []LoanMonth) []LoanYear {
	years := make([]LoanYear, 0, len(schedule)/12+1)
	for start := 0; start < len(schedule); start += 12 {
		end := min(start+12, len(schedule))
		y := LoanYear{Year: start/12 + 1}
		for _, m := range schedule[start:end] {
			y.TotalPayments += m.Payment
			y.TotalPrincipal += m.Principal
			y.TotalInterest += m.Interest
		}
		y.TotalPayments = Round2(y.TotalPayments)
		y.TotalPrincipal = Round2(y.TotalPrincipal)
		y.TotalInterest = Round2(y.TotalInterest)
		y.EndBalance = schedule[end-1].Balance
		years = append(years, y)
	}
	return years
}
