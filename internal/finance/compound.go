package finance

// CompoundInterestParams are the inputs of the compound interest projector.
type CompoundInterestParams struct {
	Principal float64 `json:"principal"`
	Monthly   float64 `json:"monthly"`
	Rate      float64 `json:"rate"`
	Years     int     `json:"years"`
}

// CompoundYear is one year of a compound interest projection.
type CompoundYear struct {
	Year               int     `json:"year"`
	Balance            float64 `json:"balance"`
	TotalContributions float64 `json:"totalContributions"`
	YearlyInterest     float64 `json:"yearlyInterest"`
	TotalInterest      float64 `json:"totalInterest"`
}

type CompoundInterestResult struct {
	FinalBalance       float64        `json:"finalBalance"`
	TotalContributions float64        `json:"totalContributions"`
	TotalInterest      float64        `json:"totalInterest"`
	Breakdown          []CompoundYear `json:"breakdown"`
}

// ParseCompoundInterest coerces raw input into CompoundInterestParams.
func ParseCompoundInterest(in Input) (CompoundInterestParams, error) {
	var p CompoundInterestParams
	var err error
	if p.Principal, err = in.Float("principal", 0); err != nil {
		return p, err
	}
	if p.Monthly, err = in.Float("monthly", 0); err != nil {
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

func (p CompoundInterestParams) Validate() error {
	if err := requireNonNegative("principal", p.Principal); err != nil {
		return err
	}
	if err := requireNonNegative("monthly", p.Monthly); err != nil {
		return err
	}
	return requireYears("years", p.Years)
}

// CompoundInterest projects a balance compounded monthly with a fixed
// monthly contribution. A negative rate shrinks the balance.
func CompoundInterest(p CompoundInterestParams) (CompoundInterestResult, error) {
	if err := p.Validate(); err != nil {
		return CompoundInterestResult{}, err
	}

	monthlyRate := p.Rate / 100 / 12
	balance := p.Principal
	contributions := p.Principal
	totalInterest := 0.0
	breakdown := make([]CompoundYear, 0, p.Years)

	for year := 1; year <= p.Years; year++ {
		var yearly float64
		balance, yearly = compoundYear(balance, monthlyRate, p.Monthly)
		contributions += p.Monthly * 12
		totalInterest += yearly

		breakdown = append(breakdown, CompoundYear{
			Year:               year,
			Balance:            Round2(balance),
			TotalContributions: Round2(contributions),
			YearlyInterest:     Round2(yearly),
			TotalInterest:      Round2(totalInterest),
		})
	}

	if err := checkFinite(CalcCompoundInterest, balance, totalInterest); err != nil {
		return CompoundInterestResult{}, err
	}

	return CompoundInterestResult{
		FinalBalance:       Round2(balance),
		TotalContributions: Round2(contributions),
		TotalInterest:      Round2(totalInterest),
		Breakdown:          breakdown,
	}, nil
}

// compoundYear applies twelve monthly steps: interest accrues on the
// opening balance, then the contribution is added.
func compoundYear(balance, monthlyRate, contribution float64) (float64, float64) {
	var interest float64
	for m := 0; m < 12; m++ {
		i := balance * monthlyRate
		interest += i
		balance += i + contribution
	}
	return balance, interest
}
