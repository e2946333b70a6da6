package finance

import "math"

type SIPParams struct {
	MonthlyInvestment float64 `json:"monthlyInvestment"`
	AnnualRate        float64 `json:"annualRate"`
	Years             int     `json:"years"`
}

type SIPYear struct {
	Year          int     `json:"year"`
	Investment    float64 `json:"investment"`
	WealthGained  float64 `json:"wealthGained"`
	MaturityValue float64 `json:"maturityValue"`
}

// SIPResult amounts are rounded to whole units.
type SIPResult struct {
	TotalInvested float64   `json:"totalInvested"`
	EstReturns    float64   `json:"estReturns"`
	TotalValue    float64   `json:"totalValue"`
	YearlyData    []SIPYear `json:"yearlyData"`
}

func ParseSIP(in Input) (SIPParams, error) {
	var p SIPParams
	var err error
	if p.MonthlyInvestment, err = in.Float("monthlyInvestment", 0); err != nil {
		return p, err
	}
	if p.AnnualRate, err = in.Float("annualRate", 0); err != nil {
		return p, err
	}
	if p.Years, err = in.Int("years", 0); err != nil {
		return p, err
	}
	return p, p.Validate()
}

func (p SIPParams) Validate() error {
	if err := requireNonNegative("monthlyInvestment", p.MonthlyInvestment); err != nil {
		return err
	}
	if p.AnnualRate <= -1200 {
		return invalid("annualRate", ReasonOutOfRange, "annualRate must be greater than -1200")
	}
	return requireYears("years", p.Years)
}

// sipMaturity is the annuity-due future value of months deposits.
func sipMaturity(monthly, monthlyRate float64, months int) float64 {
	if monthlyRate == 0 {
		return monthly * float64(months)
	}
	n := float64(months)
	return monthly * ((math.Pow(1+monthlyRate, n) - 1) / monthlyRate) * (1 + monthlyRate)
}

// SIP computes the maturity value of a fixed monthly investment.
func SIP(p SIPParams) (SIPResult, error) {
	if err := p.Validate(); err != nil {
		return SIPResult{}, err
	}

	monthlyRate := p.AnnualRate / 100 / 12
	yearly := make([]SIPYear, 0, p.Years)
	for year := 1; year <= p.Years; year++ {
		value := sipMaturity(p.MonthlyInvestment, monthlyRate, year*12)
		invested := p.MonthlyInvestment * 12 * float64(year)
		yearly = append(yearly, SIPYear{
			Year:          year,
			Investment:    Round0(invested),
			WealthGained:  Round0(value - invested),
			MaturityValue: Round0(value),
		})
	}

	maturity := sipMaturity(p.MonthlyInvestment, monthlyRate, p.Years*12)
	invested := p.MonthlyInvestment * float64(p.Years*12)
	if err := checkFinite(CalcSIP, maturity); err != nil {
		return SIPResult{}, err
	}

	return SIPResult{
		TotalInvested: Round0(invested),
		EstReturns:    Round0(maturity - invested),
		TotalValue:    Round0(maturity),
		YearlyData:    yearly,
	}, nil
}
