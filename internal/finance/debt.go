package finance

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Debt is one balance in a payoff comparison.
type Debt struct {
	Name       string  `json:"name"`
	Balance    float64 `json:"balance"`
	Rate       float64 `json:"rate"`
	MinPayment float64 `json:"minPayment"`
}

type DebtPayoffParams struct {
	Debts        []Debt  `json:"debts"`
	ExtraPayment float64 `json:"extraPayment"`
}

// DebtTimelinePoint is the state of all debts at the end of a month.
type DebtTimelinePoint struct {
	Month          int     `json:"month"`
	TotalBalance   float64 `json:"totalBalance"`
	TotalInterest  float64 `json:"totalInterest"`
	DebtsRemaining int     `json:"debtsRemaining"`
}

type DebtStrategyResult struct {
	TotalMonths   int                 `json:"totalMonths"`
	TotalYears    float64             `json:"totalYears"`
	TotalInterest float64             `json:"totalInterest"`
	TotalPaid     float64             `json:"totalPaid"`
	PaidOff       bool                `json:"paidOff"`
	PayoffOrder   []string            `json:"payoffOrder"`
	Timeline      []DebtTimelinePoint `json:"timeline"`
}

type DebtPayoffResult struct {
	TotalDebt              float64            `json:"totalDebt"`
	Snowball               DebtStrategyResult `json:"snowball"`
	Avalanche              DebtStrategyResult `json:"avalanche"`
	MinimumOnly            DebtStrategyResult `json:"minimumOnly"`
	InterestSavedSnowball  float64            `json:"interestSavedSnowball"`
	InterestSavedAvalanche float64            `json:"interestSavedAvalanche"`
	MonthsSavedSnowball    int                `json:"monthsSavedSnowball"`
	MonthsSavedAvalanche   int                `json:"monthsSavedAvalanche"`
}

func ParseDebtPayoff(in Input) (DebtPayoffParams, error) {
	var p DebtPayoffParams
	items, err := in.List("debts")
	if err != nil {
		return p, err
	}
	for i, item := range items {
		d := Debt{Name: item.String("name", fmt.Sprintf("Debt %d", i+1))}
		field := func(name string) string { return fmt.Sprintf("debts[%d].%s", i, name) }
		if d.Balance, err = item.Float("balance", 0); err != nil {
			return p, renameField(err, field("balance"))
		}
		if d.Rate, err = item.Float("rate", 0); err != nil {
			return p, renameField(err, field("rate"))
		}
		if d.MinPayment, err = item.Float("minPayment", 0); err != nil {
			return p, renameField(err, field("minPayment"))
		}
		p.Debts = append(p.Debts, d)
	}
	if p.ExtraPayment, err = in.Float("extraPayment", 0); err != nil {
		return p, err
	}
	return p, p.Validate()
}

// renameField qualifies a field error with the debt's position.
func renameField(err error, field string) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return invalid(field, ve.Reason, "%s%s", field, strings.TrimPrefix(ve.Message, ve.Field))
	}
	return err
}

func (p DebtPayoffParams) Validate() error {
	if len(p.Debts) == 0 {
		return invalid("debts", ReasonMissing, "Please add at least one debt")
	}
	if len(p.Debts) > MaxDebts {
		return invalid("debts", ReasonOutOfRange, "At most %d debts can be compared", MaxDebts)
	}
	for i, d := range p.Debts {
		if d.Balance < 0 || d.Rate < 0 {
			return invalid(fmt.Sprintf("debts[%d]", i), ReasonOutOfRange, "%s: balance and rate must not be negative", d.Name)
		}
		if d.MinPayment <= 0 {
			return invalid(fmt.Sprintf("debts[%d].minPayment", i), ReasonOutOfRange, "%s: minimum payment must be greater than 0", d.Name)
		}
	}
	return requireNonNegative("extraPayment", p.ExtraPayment)
}

// DebtPayoff compares paying debts smallest balance first (snowball),
// highest rate first (avalanche) and minimum payments only.
func DebtPayoff(p DebtPayoffParams) (DebtPayoffResult, error) {
	if err := p.Validate(); err != nil {
		return DebtPayoffResult{}, err
	}

	snowballOrder := append([]Debt(nil), p.Debts...)
	sort.SliceStable(snowballOrder, func(i, j int) bool { return snowballOrder[i].Balance < snowballOrder[j].Balance })
	avalancheOrder := append([]Debt(nil), p.Debts...)
	sort.SliceStable(avalancheOrder, func(i, j int) bool { return avalancheOrder[i].Rate > avalancheOrder[j].Rate })

	snowball := simulatePayoff(snowballOrder, p.ExtraPayment)
	avalanche := simulatePayoff(avalancheOrder, p.ExtraPayment)
	minimum := simulatePayoff(p.Debts, 0)

	if err := checkFinite(CalcDebtPayoff, snowball.interest, avalanche.interest, minimum.interest); err != nil {
		return DebtPayoffResult{}, err
	}

	checkpoints := timelineCheckpoints(snowball.months, avalanche.months, minimum.months)

	total := 0.0
	for _, d := range p.Debts {
		total += d.Balance
	}

	res := DebtPayoffResult{
		TotalDebt:   Round2(total),
		Snowball:    snowball.result(checkpoints),
		Avalanche:   avalanche.result(checkpoints),
		MinimumOnly: minimum.result(checkpoints),
	}
	res.InterestSavedSnowball = Round2(minimum.interest - snowball.interest)
	res.InterestSavedAvalanche = Round2(minimum.interest - avalanche.interest)
	res.MonthsSavedSnowball = minimum.months - snowball.months
	res.MonthsSavedAvalanche = minimum.months - avalanche.months
	return res, nil
}

type payoffRun struct {
	months   int
	interest float64
	paid     float64
	paidOff  bool
	order    []string
	timeline []DebtTimelinePoint
}

// simulatePayoff pays every debt its minimum each month and sends the
// extra payment to the first unsettled debt in order. The minimums of
// settled debts join the extra payment.
func simulatePayoff(order []Debt, extra float64) payoffRun {
	balances := make([]float64, len(order))
	settled := make([]bool, len(order))
	remaining := 0
	for i, d := range order {
		balances[i] = d.Balance
		if d.Balance <= PayoffThreshold {
			balances[i] = 0
			settled[i] = true
			continue
		}
		remaining++
	}

	run := payoffRun{order: []string{}, timeline: []DebtTimelinePoint{}}
	for remaining > 0 && run.months < MaxLoanMonths {
		run.months++

		pool := extra
		target := -1
		for i, d := range order {
			if settled[i] {
				pool += d.MinPayment
			} else if target < 0 {
				target = i
			}
		}

		for i, d := range order {
			if settled[i] {
				continue
			}
			interest := balances[i] * d.Rate / 100 / 12
			payment := d.MinPayment
			if i == target {
				payment += pool
			}
			payment = math.Min(payment, balances[i]+interest)
			balances[i] = math.Max(0, balances[i]-(payment-interest))
			run.interest += interest
			run.paid += payment

			if balances[i] <= PayoffThreshold {
				balances[i] = 0
				settled[i] = true
				remaining--
				run.order = append(run.order, d.Name)
			}
		}

		total := 0.0
		for _, b := range balances {
			total += b
		}
		run.timeline = append(run.timeline, DebtTimelinePoint{
			Month:          run.months,
			TotalBalance:   Round2(total),
			TotalInterest:  Round2(run.interest),
			DebtsRemaining: remaining,
		})
	}
	run.paidOff = remaining == 0
	return run
}

// timelineCheckpoints returns every twelfth month up to the longest run plus
// each run's final month, ascending and without duplicates.
func timelineCheckpoints(months ...int) []int {
	longest := 0
	seen := map[int]bool{}
	for _, m := range months {
		longest = max(longest, m)
		if m > 0 {
			seen[m] = true
		}
	}
	for m := 12; m <= longest; m += 12 {
		seen[m] = true
	}
	out := make([]int, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}

func (r payoffRun) result(checkpoints []int) DebtStrategyResult {
	timeline := make([]DebtTimelinePoint, 0, len(checkpoints))
	for _, month := range checkpoints {
		timeline = append(timeline, r.pointAt(month))
	}
	return DebtStrategyResult{
		TotalMonths:   r.months,
		TotalYears:    Round1(float64(r.months) / 12),
		TotalInterest: Round2(r.interest),
		TotalPaid:     Round2(r.paid),
		PaidOff:       r.paidOff,
		PayoffOrder:   r.order,
		Timeline:      timeline,
	}
}

// pointAt returns the state at month; past the end of the run the final
// state carries forward.
func (r payoffRun) pointAt(month int) DebtTimelinePoint {
	if len(r.timeline) == 0 {
		return DebtTimelinePoint{Month: month}
	}
	idx := min(month, len(r.timeline)) - 1
	p := r.timeline[idx]
	p.Month = month
	return p
}
