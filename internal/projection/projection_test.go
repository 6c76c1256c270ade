package projection

import (
	"errors"
	"math"
	"testing"
)

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestSIP(t *testing.T) {
	g, err := SIP(1000, 12, 0, 12)
	if err != nil {
		t.Fatal(err)
	}
	// 1000 * ((1.01^12 - 1) / 0.01) * 1.01
	want := 1000 * (math.Pow(1.01, 12) - 1) / 0.01 * 1.01
	if !approx(g.FutureValue, want, 1e-9) || !approx(g.FutureValue, 12809.33, 0.01) {
		t.Errorf("FutureValue = %v, want %v", g.FutureValue, want)
	}
	if g.Invested != 12000 || !approx(g.Gains, want-12000, 1e-9) {
		t.Errorf("Invested = %v Gains = %v", g.Invested, g.Gains)
	}
	if g.InflationAdjusted != g.FutureValue {
		t.Errorf("zero inflation should not deflate")
	}
	if len(g.Series) != 13 || g.Series[0] != 0 || g.Series[12] != g.FutureValue {
		t.Errorf("Series = %v", g.Series)
	}

	flat, _ := SIP(500, 0, 0, 10)
	if flat.FutureValue != 5000 {
		t.Errorf("zero-return SIP = %v", flat.FutureValue)
	}
}

func TestLumpSum(t *testing.T) {
	g, err := LumpSum(50000, 12, 4.5, 120)
	if err != nil {
		t.Fatal(err)
	}
	want := 50000 * math.Pow(1.01, 120)
	if !approx(g.FutureValue, want, 1e-6) {
		t.Errorf("FutureValue = %v, want %v", g.FutureValue, want)
	}
	if !approx(g.InflationAdjusted, want/math.Pow(1.045, 10), 1e-6) {
		t.Errorf("InflationAdjusted = %v", g.InflationAdjusted)
	}
	if g.Series[0] != 50000 {
		t.Errorf("Series[0] = %v", g.Series[0])
	}
}

func TestSWP(t *testing.T) {
	w, err := SWP(1000000, 4, 7, 20)
	if err != nil {
		t.Fatal(err)
	}
	if !approx(w.MonthlyWithdrawal, 1000000*0.04/12, 1e-9) {
		t.Errorf("MonthlyWithdrawal = %v", w.MonthlyWithdrawal)
	}
	r := 7.0 / 1200
	n := 240.0
	closed := 1000000*math.Pow(1+r, n) - w.MonthlyWithdrawal*(math.Pow(1+r, n)-1)/r
	if !approx(w.FinalCorpus, closed, 1e-3) {
		t.Errorf("FinalCorpus = %v, closed form %v", w.FinalCorpus, closed)
	}
	if w.DepletedMonth != 0 || len(w.Series) != 241 {
		t.Errorf("DepletedMonth = %d len = %d", w.DepletedMonth, len(w.Series))
	}

	drained, _ := SWP(10000, 60, 0, 2)
	if drained.DepletedMonth != 20 || drained.FinalCorpus != 0 {
		t.Errorf("drained = month %d final %v", drained.DepletedMonth, drained.FinalCorpus)
	}
	for i, v := range drained.Series {
		if v < 0 {
			t.Fatalf("Series[%d] = %v below zero", i, v)
		}
	}
}

func TestPlanRetirement(t *testing.T) {
	got, err := PlanRetirement(50000, 4.5, 7, 12, 30, 25)
	if err != nil {
		t.Fatal(err)
	}
	fme := 50000 * math.Pow(1.045, 30)
	if !approx(got.FutureMonthlyExpenses, fme, 1e-6) {
		t.Errorf("FutureMonthlyExpenses = %v", got.FutureMonthlyExpenses)
	}
	r := 7.0 / 1200
	corpus := fme * (1 - math.Pow(1+r, -300)) / r
	if !approx(got.CorpusNeeded, corpus, 1e-3) {
		t.Errorf("CorpusNeeded = %v, want %v", got.CorpusNeeded, corpus)
	}
	// Investing the SIP for 30 years must reach the corpus.
	sip, _ := SIP(got.MonthlySIPNeeded, 12, 0, 360)
	if !approx(sip.FutureValue, corpus, 1e-3) {
		t.Errorf("SIP reaches %v, corpus %v", sip.FutureValue, corpus)
	}

	retired, _ := PlanRetirement(1000, 5, 6, 10, 0, 10)
	if retired.MonthlySIPNeeded != 0 {
		t.Errorf("already retired should need no SIP")
	}
}

func TestInvalidInputs(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"negative sip", func() error { _, err := SIP(-1, 5, 0, 12); return err }()},
		{"zero months", func() error { _, err := SIP(100, 5, 0, 0); return err }()},
		{"nan lump", func() error { _, err := LumpSum(math.NaN(), 5, 0, 12); return err }()},
		{"zero years", func() error { _, err := SWP(100, 4, 5, 0); return err }()},
		{"negative rate", func() error { _, err := SWP(100, -4, 5, 1); return err }()},
		{"no retirement", func() error { _, err := PlanRetirement(100, 4, 5, 5, 10, 0); return err }()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", tc.err)
			}
		})
	}
}
