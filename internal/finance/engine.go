package finance

import (
	"fmt"
	"sort"
)

// Calculator names, used as route slugs and export identifiers.
const (
	CalcCompoundInterest = "compound-interest"
	CalcLoanPayoff       = "loan-payoff"
	CalcRetirement       = "retirement"
	CalcInflation        = "inflation"
	CalcSIP              = "sip"
	CalcEMI              = "emi"
	CalcIndiaTax         = "india-tax"
	CalcGST              = "gst"
	CalcDebtPayoff       = "debt-payoff"
)

// PolicySource supplies the tax table in effect.
type PolicySource interface {
	Current() TaxPolicy
}

type calculateFunc func(e *Engine, in Input) (any, error)

var calculators = map[string]calculateFunc{
	CalcCompoundInterest: func(_ *Engine, in Input) (any, error) {
		p, err := ParseCompoundInterest(in)
		if err != nil {
			return nil, err
		}
		return CompoundInterest(p)
	},
	CalcLoanPayoff: func(_ *Engine, in Input) (any, error) {
		p, err := ParseLoanPayoff(in)
		if err != nil {
			return nil, err
		}
		return LoanPayoff(p)
	},
	CalcRetirement: func(_ *Engine, in Input) (any, error) {
		p, err := ParseRetirement(in)
		if err != nil {
			return nil, err
		}
		return Retirement(p)
	},
	CalcInflation: func(_ *Engine, in Input) (any, error) {
		p, err := ParseInflation(in)
		if err != nil {
			return nil, err
		}
		return Inflation(p)
	},
	CalcSIP: func(_ *Engine, in Input) (any, error) {
		p, err := ParseSIP(in)
		if err != nil {
			return nil, err
		}
		return SIP(p)
	},
	CalcEMI: func(_ *Engine, in Input) (any, error) {
		p, err := ParseEMI(in)
		if err != nil {
			return nil, err
		}
		return EMI(p)
	},
	CalcIndiaTax: func(e *Engine, in Input) (any, error) {
		p, err := ParseIndiaTax(in)
		if err != nil {
			return nil, err
		}
		return IndiaTax(p, e.Policy())
	},
	CalcGST: func(_ *Engine, in Input) (any, error) {
		p, err := ParseGST(in)
		if err != nil {
			return nil, err
		}
		return GST(p)
	},
	CalcDebtPayoff: func(_ *Engine, in Input) (any, error) {
		p, err := ParseDebtPayoff(in)
		if err != nil {
			return nil, err
		}
		return DebtPayoff(p)
	},
}

// Engine dispatches named calculations. It holds no per-request state and
// is safe for concurrent use.
type Engine struct {
	policies PolicySource
}

// NewEngine creates an engine. A nil source falls back to DefaultTaxPolicy.
func NewEngine(policies PolicySource) *Engine {
	return &Engine{policies: policies}
}

// Policy returns the tax table currently in effect.
func (e *Engine) Policy() TaxPolicy {
	if e.policies == nil {
		return DefaultTaxPolicy()
	}
	return e.policies.Current()
}

// Calculate runs the calculator registered under name.
func (e *Engine) Calculate(name string, in Input) (any, error) {
	fn, ok := calculators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCalculator, name)
	}
	return fn(e, in)
}

// Has reports whether a calculator is registered under name.
func Has(name string) bool {
	_, ok := calculators[name]
	return ok
}

// Names lists the registered calculators in sorted order.
func Names() []string {
	names := make([]string, 0, len(calculators))
	for name := range calculators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultTaxPolicy is the FY 2024-25 new-regime table, used when no
// policy store is configured.
func DefaultTaxPolicy() TaxPolicy {
	return TaxPolicy{
		Name:              "india-new-regime",
		FiscalYear:        "2024-25",
		StandardDeduction: 75000,
		RebateThreshold:   700000,
		CessRate:          4,
		Slabs: []TaxSlab{
			{UpperBound: 300000, Rate: 0},
			{UpperBound: 700000, Rate: 5},
			{UpperBound: 1000000, Rate: 10},
			{UpperBound: 1200000, Rate: 15},
			{UpperBound: 1500000, Rate: 20},
			{Rate: 30},
		},
	}
}
