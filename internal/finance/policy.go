package finance

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
)

// TaxSlab is one bracket of a progressive table. The bracket runs from the
// previous slab's UpperBound to this one; an UpperBound of zero on the last
// slab leaves it open-ended.
type TaxSlab struct {
	UpperBound float64 `json:"upperBound,omitempty" yaml:"upper_bound,omitempty" toml:"upper_bound,omitempty"`
	Rate       float64 `json:"rate" yaml:"rate" toml:"rate"`
}

// TaxPolicy is the data-driven income tax table.
type TaxPolicy struct {
	Name              string    `json:"name" yaml:"name" toml:"name"`
	FiscalYear        string    `json:"fiscalYear" yaml:"fiscal_year" toml:"fiscal_year"`
	StandardDeduction float64   `json:"standardDeduction" yaml:"standard_deduction" toml:"standard_deduction"`
	RebateThreshold   float64   `json:"rebateThreshold" yaml:"rebate_threshold" toml:"rebate_threshold"`
	CessRate          float64   `json:"cessRate" yaml:"cess_rate" toml:"cess_rate"`
	Slabs             []TaxSlab `json:"slabs" yaml:"slabs" toml:"slabs"`
}

// Validate checks that the slabs ascend strictly and that only the final
// slab is open-ended.
func (p TaxPolicy) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("tax policy name is required")
	}
	if len(p.Slabs) == 0 {
		return fmt.Errorf("tax policy %q has no slabs", p.Name)
	}
	if p.StandardDeduction < 0 || p.RebateThreshold < 0 || p.CessRate < 0 {
		return fmt.Errorf("tax policy %q: deduction, rebate threshold and cess rate must not be negative", p.Name)
	}

	prev := 0.0
	for i, s := range p.Slabs {
		if s.Rate < 0 || s.Rate > 100 {
			return fmt.Errorf("tax policy %q: slab %d rate %.2f out of range", p.Name, i+1, s.Rate)
		}
		last := i == len(p.Slabs)-1
		if s.UpperBound == 0 {
			if !last {
				return fmt.Errorf("tax policy %q: only the last slab may be open-ended", p.Name)
			}
			continue
		}
		if s.UpperBound <= prev {
			return fmt.Errorf("tax policy %q: slab %d upper bound must exceed %.2f", p.Name, i+1, prev)
		}
		prev = s.UpperBound
	}
	return nil
}

// Fingerprint identifies the policy contents, so cached results computed
// under one table are never served under another.
func (p TaxPolicy) Fingerprint() string {
	data, err := json.Marshal(p)
	if err != nil {
		return p.Name
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

func (s TaxSlab) upper() float64 {
	if s.UpperBound == 0 {
		return math.Inf(1)
	}
	return s.UpperBound
}
