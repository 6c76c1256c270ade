// Package projection implements the investment calculators: SIP,
// lump-sum, systematic withdrawal (SWP) and retirement corpus planning.
// Monthly rates are annual percent / 1200 throughout.
package projection

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidInput = errors.New("invalid projection input")

// Growth is the result of a SIP or lump-sum projection.
type Growth struct {
	FutureValue       float64   `json:"future_value"`
	Invested          float64   `json:"invested"`
	Gains             float64   `json:"gains"`
	InflationAdjusted float64   `json:"inflation_adjusted"`
	Series            []float64 `json:"series"` // value at the end of each month, index 0 = start
}

// Withdrawal is the result of an SWP projection.
type Withdrawal struct {
	MonthlyWithdrawal float64   `json:"monthly_withdrawal"`
	FinalCorpus       float64   `json:"final_corpus"`
	DepletedMonth     int       `json:"depleted_month"` // 0 when the corpus lasts
	Series            []float64 `json:"series"`
}

// Retirement is the corpus needed to fund inflation-adjusted expenses and
// the monthly SIP that builds it.
type Retirement struct {
	FutureMonthlyExpenses float64 `json:"future_monthly_expenses"`
	CorpusNeeded          float64 `json:"corpus_needed"`
	MonthlySIPNeeded      float64 `json:"monthly_sip_needed"`
}

func monthlyRate(annualPercent float64) float64 {
	return annualPercent / 1200
}

// sipFactor is the future value of 1 invested at the start of each month.
func sipFactor(r float64, months int) float64 {
	if r == 0 {
		return float64(months)
	}
	return (math.Pow(1+r, float64(months)) - 1) / r * (1 + r)
}

func deflate(v, inflationPercent float64, months int) float64 {
	return v / math.Pow(1+inflationPercent/100, float64(months)/12)
}

func check(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: %s = %v", ErrInvalidInput, name, v)
	}
	return nil
}

func checkAll(pairs ...any) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := check(pairs[i].(string), pairs[i+1].(float64)); err != nil {
			return err
		}
	}
	return nil
}

// SIP projects a fixed monthly investment made at the start of each month.
func SIP(monthly, annualReturn, inflation float64, months int) (Growth, error) {
	if err := checkAll("monthly", monthly, "annual_return", annualReturn, "inflation", inflation); err != nil {
		return Growth{}, err
	}
	if months <= 0 {
		return Growth{}, fmt.Errorf("%w: months = %d", ErrInvalidInput, months)
	}
	r := monthlyRate(annualReturn)
	g := Growth{Series: make([]float64, months+1)}
	for m := 1; m <= months; m++ {
		g.Series[m] = monthly * sipFactor(r, m)
	}
	g.FutureValue = g.Series[months]
	g.Invested = monthly * float64(months)
	g.Gains = g.FutureValue - g.Invested
	g.InflationAdjusted = deflate(g.FutureValue, inflation, months)
	return g, nil
}

// LumpSum projects a single investment compounded monthly.
func LumpSum(amount, annualReturn, inflation float64, months int) (Growth, error) {
	if err := checkAll("amount", amount, "annual_return", annualReturn, "inflation", inflation); err != nil {
		return Growth{}, err
	}
	if months <= 0 {
		return Growth{}, fmt.Errorf("%w: months = %d", ErrInvalidInput, months)
	}
	r := monthlyRate(annualReturn)
	g := Growth{Series: make([]float64, months+1)}
	for m := 0; m <= months; m++ {
		g.Series[m] = amount * math.Pow(1+r, float64(m))
	}
	g.FutureValue = g.Series[months]
	g.Invested = amount
	g.Gains = g.FutureValue - g.Invested
	g.InflationAdjusted = deflate(g.FutureValue, inflation, months)
	return g, nil
}

// SWP withdraws withdrawalRate% of the starting corpus per year, in equal
// monthly amounts, while the remainder grows at annualReturn. The series
// is floored at zero.
func SWP(corpus, withdrawalRate, annualReturn float64, years int) (Withdrawal, error) {
	if err := checkAll("corpus", corpus, "withdrawal_rate", withdrawalRate, "annual_return", annualReturn); err != nil {
		return Withdrawal{}, err
	}
	if years <= 0 {
		return Withdrawal{}, fmt.Errorf("%w: years = %d", ErrInvalidInput, years)
	}
	r := monthlyRate(annualReturn)
	months := years * 12
	w := Withdrawal{
		MonthlyWithdrawal: corpus * withdrawalRate / 100 / 12,
		Series:            make([]float64, months+1),
	}
	w.Series[0] = corpus
	for m := 1; m <= months; m++ {
		next := w.Series[m-1]*(1+r) - w.MonthlyWithdrawal
		if next <= 0 {
			next = 0
			if w.DepletedMonth == 0 {
				w.DepletedMonth = m
			}
		}
		w.Series[m] = next
	}
	w.FinalCorpus = w.Series[months]
	return w, nil
}

// PlanRetirement sizes the corpus for retirementYears of expenses that
// grow with inflation until retirement, and the SIP reaching it.
func PlanRetirement(monthlyExpenses, inflation, postReturn, preReturn float64, yearsToRetire, retirementYears int) (Retirement, error) {
	if err := checkAll("monthly_expenses", monthlyExpenses, "inflation", inflation, "post_return", postReturn, "pre_return", preReturn); err != nil {
		return Retirement{}, err
	}
	if yearsToRetire < 0 || retirementYears <= 0 {
		return Retirement{}, fmt.Errorf("%w: years to retire %d, retirement years %d", ErrInvalidInput, yearsToRetire, retirementYears)
	}
	var out Retirement
	out.FutureMonthlyExpenses = monthlyExpenses * math.Pow(1+inflation/100, float64(yearsToRetire))

	r := monthlyRate(postReturn)
	n := float64(retirementYears * 12)
	if r == 0 {
		out.CorpusNeeded = out.FutureMonthlyExpenses * n
	} else {
		out.CorpusNeeded = out.FutureMonthlyExpenses * (1 - math.Pow(1+r, -n)) / r
	}

	if yearsToRetire > 0 {
		out.MonthlySIPNeeded = out.CorpusNeeded / sipFactor(monthlyRate(preReturn), yearsToRetire*12)
	}
	return out, nil
}
