package finance

import "math"

type InflationParams struct {
	CurrentValue  float64 `json:"currentValue"`
	Years         int     `json:"years"`
	InflationRate float64 `json:"inflationRate"`
}

type InflationYear struct {
	Year                int     `json:"year"`
	FutureValue         float64 `json:"futureValue"`
	PurchasingPower     float64 `json:"purchasingPower"`
	ValueEroded         float64 `json:"valueEroded"`
	CumulativeInflation float64 `json:"cumulativeInflation"`
}

type InflationResult struct {
	CurrentValue          float64         `json:"currentValue"`
	FutureEquivalent      float64         `json:"futureEquivalent"`
	FuturePurchasingPower float64         `json:"futurePurchasingPower"`
	TotalInflation        float64         `json:"totalInflation"`
	Breakdown             []InflationYear `json:"breakdown"`
}

func ParseInflation(in Input) (InflationParams, error) {
	var p InflationParams
	var err error
	if p.CurrentValue, err = in.Float("currentValue", 0); err != nil {
		return p, err
	}
	if p.Years, err = in.Int("years", 0); err != nil {
		return p, err
	}
	if p.InflationRate, err = in.Float("inflationRate", 0); err != nil {
		return p, err
	}
	return p, p.Validate()
}

func (p InflationParams) Validate() error {
	if err := requireNonNegative("currentValue", p.CurrentValue); err != nil {
		return err
	}
	if err := requireYears("years", p.Years); err != nil {
		return err
	}
	if p.InflationRate <= -100 {
		return invalid("inflationRate", ReasonOutOfRange, "inflationRate must be greater than -100")
	}
	return nil
}

// Inflation computes future cost and purchasing power in closed form for
// every year of the horizon.
func Inflation(p InflationParams) (InflationResult, error) {
	if err := p.Validate(); err != nil {
		return InflationResult{}, err
	}

	growth := 1 + p.InflationRate/100
	breakdown := make([]InflationYear, 0, p.Years)
	for year := 1; year <= p.Years; year++ {
		factor := math.Pow(growth, float64(year))
		pp := p.CurrentValue / factor
		breakdown = append(breakdown, InflationYear{
			Year:                year,
			FutureValue:         Round2(p.CurrentValue * factor),
			PurchasingPower:     Round2(pp),
			ValueEroded:         Round2(p.CurrentValue - pp),
			CumulativeInflation: Round2((factor - 1) * 100),
		})
	}

	factor := math.Pow(growth, float64(p.Years))
	future := p.CurrentValue * factor
	pp := p.CurrentValue / factor
	if err := checkFinite(CalcInflation, future, pp, factor); err != nil {
		return InflationResult{}, err
	}

	return InflationResult{
		CurrentValue:          p.CurrentValue,
		FutureEquivalent:      Round2(future),
		FuturePurchasingPower: Round2(pp),
		TotalInflation:        Round2((factor - 1) * 100),
		Breakdown:             breakdown,
	}, nil
}
