package finance

import "math"

type IndiaTaxParams struct {
	AnnualIncome float64 `json:"annualIncome"`
}

// SlabTax is the tax charged within one bracket. To is omitted for the
// open-ended top bracket.
type SlabTax struct {
	From float64 `json:"from"`
	To   float64 `json:"to,omitempty"`
	Rate float64 `json:"rate"`
	Tax  float64 `json:"tax"`
}

type IndiaTaxResult struct {
	Regime            string    `json:"regime"`
	StandardDeduction float64   `json:"standardDeduction"`
	TaxableIncome     float64   `json:"taxableIncome"`
	BaseTax           float64   `json:"baseTax"`
	RebateApplied     bool      `json:"rebateApplied"`
	Cess              float64   `json:"cess"`
	TotalTax          float64   `json:"totalTax"`
	TakeHome          float64   `json:"takeHome"`
	EffectiveRate     float64   `json:"effectiveRate"`
	Slabs             []SlabTax `json:"slabs"`
}

func ParseIndiaTax(in Input) (IndiaTaxParams, error) {
	var p IndiaTaxParams
	var err error
	if p.AnnualIncome, err = in.Float("annualIncome", 0); err != nil {
		return p, err
	}
	return p, requireNonNegative("annualIncome", p.AnnualIncome)
}

// IndiaTax applies the progressive table of policy to annual income.
//
// Slab tax is always computed first; the rebate then zeroes it when taxable
// income is at or below the rebate threshold. Cess is levied on the tax
// that remains.
func IndiaTax(p IndiaTaxParams, policy TaxPolicy) (IndiaTaxResult, error) {
	if err := requireNonNegative("annualIncome", p.AnnualIncome); err != nil {
		return IndiaTaxResult{}, err
	}
	if err := policy.Validate(); err != nil {
		return IndiaTaxResult{}, &ComputationError{Calculator: CalcIndiaTax, Reason: ReasonInvalidCombination, Message: err.Error()}
	}

	taxable := math.Max(0, p.AnnualIncome-policy.StandardDeduction)

	slabs := make([]SlabTax, 0, len(policy.Slabs))
	base := 0.0
	lower := 0.0
	for _, s := range policy.Slabs {
		if taxable <= lower {
			break
		}
		upper := s.upper()
		tax := (math.Min(taxable, upper) - lower) * s.Rate / 100
		base += tax
		slabs = append(slabs, SlabTax{From: lower, To: s.UpperBound, Rate: s.Rate, Tax: Round2(tax)})
		lower = upper
	}

	rebate := taxable <= policy.RebateThreshold
	if rebate {
		base = 0
	}
	cess := base * policy.CessRate / 100
	total := base + cess

	effective := 0.0
	if p.AnnualIncome > 0 {
		effective = total / p.AnnualIncome * 100
	}

	if err := checkFinite(CalcIndiaTax, total, effective); err != nil {
		return IndiaTaxResult{}, err
	}

	return IndiaTaxResult{
		Regime:            policy.Name,
		StandardDeduction: policy.StandardDeduction,
		TaxableIncome:     Round0(taxable),
		BaseTax:           Round0(base),
		RebateApplied:     rebate,
		Cess:              Round0(cess),
		TotalTax:          Round0(total),
		TakeHome:          Round0(p.AnnualIncome - total),
		EffectiveRate:     Round2(effective),
		Slabs:             slabs,
	}, nil
}
