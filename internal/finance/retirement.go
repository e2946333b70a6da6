package finance

import "math"

const defaultWithdrawalRate = 4

// maxCorpusLastsYears caps corpusLastsYears when the withdrawal is a
// vanishing fraction of the corpus.
const maxCorpusLastsYears = math.MaxInt32

type RetirementParams struct {
	CurrentAge          int     `json:"currentAge"`
	RetirementAge       int     `json:"retirementAge"`
	CurrentSavings      float64 `json:"currentSavings"`
	MonthlyContribution float64 `json:"monthlyContribution"`
	ExpectedReturn      float64 `json:"expectedReturn"`
	WithdrawalRate      float64 `json:"withdrawalRate"`
}

// RetirementYear is one year of the accumulation phase.
type RetirementYear struct {
	Age                int     `json:"age"`
	Year               int     `json:"year"`
	Balance            float64 `json:"balance"`
	TotalContributions float64 `json:"totalContributions"`
	YearlyGrowth       float64 `json:"yearlyGrowth"`
}

type RetirementResult struct {
	RetirementCorpus   float64          `json:"retirementCorpus"`
	TotalContributions float64          `json:"totalContributions"`
	TotalGrowth        float64          `json:"totalGrowth"`
	AnnualWithdrawal   float64          `json:"annualWithdrawal"`
	MonthlyWithdrawal  float64          `json:"monthlyWithdrawal"`
	CorpusLastsYears   int              `json:"corpusLastsYears"`
	Projection         []RetirementYear `json:"projection"`
}

func ParseRetirement(in Input) (RetirementParams, error) {
	var p RetirementParams
	var err error
	if p.CurrentAge, err = in.Int("currentAge", 0); err != nil {
		return p, err
	}
	if p.RetirementAge, err = in.Int("retirementAge", 0); err != nil {
		return p, err
	}
	if p.CurrentSavings, err = in.Float("currentSavings", 0); err != nil {
		return p, err
	}
	if p.MonthlyContribution, err = in.Float("monthlyContribution", 0); err != nil {
		return p, err
	}
	if p.ExpectedReturn, err = in.Float("expectedReturn", 0); err != nil {
		return p, err
	}
	if p.WithdrawalRate, err = in.Float("withdrawalRate", defaultWithdrawalRate); err != nil {
		return p, err
	}
	return p, p.Validate()
}

func (p RetirementParams) Validate() error {
	for _, age := range []struct {
		field string
		v     int
	}{{"currentAge", p.CurrentAge}, {"retirementAge", p.RetirementAge}} {
		if age.v < 0 || age.v > MaxAge {
			return invalid(age.field, ReasonOutOfRange, "%s must be between 0 and %d", age.field, MaxAge)
		}
	}
	if p.RetirementAge <= p.CurrentAge {
		return invalid("retirementAge", ReasonInvalidCombination, "Retirement age must be greater than current age")
	}
	if err := requireNonNegative("currentSavings", p.CurrentSavings); err != nil {
		return err
	}
	if err := requireNonNegative("monthlyContribution", p.MonthlyContribution); err != nil {
		return err
	}
	return requireNonNegative("withdrawalRate", p.WithdrawalRate)
}

// Retirement projects savings up to retirement age and derives a
// sustainable withdrawal from the resulting corpus.
func Retirement(p RetirementParams) (RetirementResult, error) {
	if err := p.Validate(); err != nil {
		return RetirementResult{}, err
	}

	years := p.RetirementAge - p.CurrentAge
	monthlyRate := p.ExpectedReturn / 100 / 12
	balance := p.CurrentSavings
	contributions := p.CurrentSavings
	projection := make([]RetirementYear, 0, years)

	for year := 1; year <= years; year++ {
		var growth float64
		balance, growth = compoundYear(balance, monthlyRate, p.MonthlyContribution)
		contributions += p.MonthlyContribution * 12

		projection = append(projection, RetirementYear{
			Age:                p.CurrentAge + year,
			Year:               year,
			Balance:            Round2(balance),
			TotalContributions: Round2(contributions),
			YearlyGrowth:       Round2(growth),
		})
	}

	if err := checkFinite(CalcRetirement, balance); err != nil {
		return RetirementResult{}, err
	}

	annual := Round2(balance * p.WithdrawalRate / 100)
	lasts := 0
	if annual > 0 {
		lasts = maxCorpusLastsYears
		if ratio := Round0(balance / annual); ratio < maxCorpusLastsYears {
			lasts = int(ratio)
		}
	}

	return RetirementResult{
		RetirementCorpus:   Round2(balance),
		TotalContributions: Round2(contributions),
		TotalGrowth:        Round2(balance - contributions),
		AnnualWithdrawal:   annual,
		MonthlyWithdrawal:  Round2(annual / 12),
		CorpusLastsYears:   lasts,
		Projection:         projection,
	}, nil
}
