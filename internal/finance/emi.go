package finance

import "math"

type EMIParams struct {
	Principal float64 `json:"principal"`
	Rate      float64 `json:"rate"`
	Years     int     `json:"years"`
}

type EMIYear struct {
	Year             int     `json:"year"`
	PrincipalPaid    float64 `json:"principalPaid"`
	InterestPaid     float64 `json:"interestPaid"`
	RemainingBalance float64 `json:"remainingBalance"`
}

type EMIResult struct {
	EMI           float64   `json:"emi"`
	TotalInterest float64   `json:"totalInterest"`
	TotalPayment  float64   `json:"totalPayment"`
	Schedule      []EMIYear `json:"schedule"`
}

func ParseEMI(in Input) (EMIParams, error) {
	var p EMIParams
	var err error
	if p.Principal, err = in.Float("principal", 0); err != nil {
		return p, err
	}
	if p.Rate, err = in.Float("rate", 0); err != nil {
		return p, err
	}
	if p.Years, err = in.Int("years", 0); err != nil {
		return p, err
	}
	return p, p.Validate()
}

func (p EMIParams) Validate() error {
	if err := requireNonNegative("principal", p.Principal); err != nil {
		return err
	}
	if err := requireNonNegative("rate", p.Rate); err != nil {
		return err
	}
	if err := requireYears("years", p.Years); err != nil {
		return err
	}
	if p.Years == 0 && p.Principal > 0 {
		return invalid("years", ReasonInvalidCombination, "years must be at least 1 to repay a loan")
	}
	return nil
}

// emiAmount is the reducing-balance installment; a zero rate spreads the
// principal evenly.
func emiAmount(principal, monthlyRate float64, months int) float64 {
	if months == 0 {
		return 0
	}
	n := float64(months)
	if monthlyRate == 0 {
		return principal / n
	}
	f := math.Pow(1+monthlyRate, n)
	return principal * monthlyRate * f / (f - 1)
}

// EMI computes the equated monthly installment of a loan.
func EMI(p EMIParams) (EMIResult, error) {
	if err := p.Validate(); err != nil {
		return EMIResult{}, err
	}

	r := p.Rate / 12 / 100
	months := p.Years * 12
	emi := emiAmount(p.Principal, r, months)
	total := emi * float64(months)
	if err := checkFinite(CalcEMI, emi, total); err != nil {
		return EMIResult{}, err
	}

	schedule := make([]EMIYear, 0, p.Years)
	balance := p.Principal
	for year := 1; year <= p.Years; year++ {
		var y EMIYear
		y.Year = year
		for m := 0; m < 12; m++ {
			interest := balance * r
			principal := emi - interest
			balance -= principal
			y.InterestPaid += interest
			y.PrincipalPaid += principal
		}
		if year == p.Years {
			// final installment clears floating drift
			balance = 0
		}
		y.PrincipalPaid = Round2(y.PrincipalPaid)
		y.InterestPaid = Round2(y.InterestPaid)
		y.RemainingBalance = Round2(balance)
		schedule = append(schedule, y)
	}

	return EMIResult{
		EMI:           Round0(emi),
		TotalInterest: Round0(total - p.Principal),
		TotalPayment:  Round0(total),
		Schedule:      schedule,
	}, nil
}
