package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"debtplan/internal/cli"
	"debtplan/internal/projection"
)

func newProjectCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Investment projections (SIP, lump sum, SWP, retirement)",
	}
	cmd.AddCommand(newSIPCmd(o), newLumpSumCmd(o), newSWPCmd(o), newRetireCmd(o))
	return cmd
}

func newSIPCmd(o *options) *cobra.Command {
	var monthly, ret, inflation float64
	var months int
	cmd := &cobra.Command{
		Use:   "sip",
		Short: "Project a monthly investment plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := projection.SIP(monthly, ret, inflation, months)
			if err != nil {
				return err
			}
			return o.printGrowth(cmd, "SIP", g)
		},
	}
	cmd.Flags().Float64Var(&monthly, "monthly", 0, "Monthly investment")
	addGrowthFlags(cmd, &ret, &inflation, &months)
	return cmd
}

func newLumpSumCmd(o *options) *cobra.Command {
	var amount, ret, inflation float64
	var months int
	cmd := &cobra.Command{
		Use:   "lumpsum",
		Short: "Project a one-off investment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := projection.LumpSum(amount, ret, inflation, months)
			if err != nil {
				return err
			}
			return o.printGrowth(cmd, "LUMP SUM", g)
		},
	}
	cmd.Flags().Float64Var(&amount, "amount", 0, "Amount invested")
	addGrowthFlags(cmd, &ret, &inflation, &months)
	return cmd
}

func addGrowthFlags(cmd *cobra.Command, ret, inflation *float64, months *int) {
	cmd.Flags().Float64Var(ret, "return", 12, "Expected annual return in percent")
	cmd.Flags().Float64Var(inflation, "inflation", 0, "Annual inflation in percent")
	cmd.Flags().IntVar(months, "months", 120, "Investment horizon in months")
}

func (o *options) printGrowth(cmd *cobra.Command, title string, g projection.Growth) error {
	if o.jsonOut {
		return writeJSON(cmd.OutOrStdout(), g)
	}
	pairs := [][2]string{
		{"Future value", cli.FormatMoney(g.FutureValue)},
		{"Invested", cli.FormatMoney(g.Invested)},
		{"Gains", cli.FormatMoney(g.Gains)},
		{"In today's money", cli.FormatMoney(g.InflationAdjusted)},
	}
	fmt.Fprint(cmd.OutOrStdout(), cli.RenderKeyValues(title, pairs))
	return nil
}

func newSWPCmd(o *options) *cobra.Command {
	var corpus, rate, ret float64
	var years int
	cmd := &cobra.Command{
		Use:   "swp",
		Short: "Project a systematic withdrawal plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := projection.SWP(corpus, rate, ret, years)
			if err != nil {
				return err
			}
			if o.jsonOut {
				return writeJSON(cmd.OutOrStdout(), w)
			}
			lasts := "yes"
			if w.DepletedMonth > 0 {
				lasts = "depleted in " + cli.FormatMonths(w.DepletedMonth)
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderKeyValues("SWP", [][2]string{
				{"Monthly withdrawal", cli.FormatMoney(w.MonthlyWithdrawal)},
				{"Final corpus", cli.FormatMoney(w.FinalCorpus)},
				{"Lasts " + strconv.Itoa(years) + "y", lasts},
			}))
			return nil
		},
	}
	cmd.Flags().Float64Var(&corpus, "corpus", 0, "Starting corpus")
	cmd.Flags().Float64Var(&rate, "withdrawal-rate", 4, "Annual withdrawal rate in percent of the corpus")
	cmd.Flags().Float64Var(&ret, "return", 8, "Expected annual return in percent")
	cmd.Flags().IntVar(&years, "years", 25, "Withdrawal period in years")
	return cmd
}

func newRetireCmd(o *options) *cobra.Command {
	var expenses, inflation, pre, post float64
	var toRetire, inRetirement int
	cmd := &cobra.Command{
		Use:   "retire",
		Short: "Estimate the corpus and SIP needed for retirement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := projection.PlanRetirement(expenses, inflation, post, pre, toRetire, inRetirement)
			if err != nil {
				return err
			}
			if o.jsonOut {
				return writeJSON(cmd.OutOrStdout(), r)
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderKeyValues("RETIREMENT", [][2]string{
				{"Monthly expenses at retirement", cli.FormatMoney(r.FutureMonthlyExpenses)},
				{"Corpus needed", cli.FormatMoney(r.CorpusNeeded)},
				{"Monthly SIP needed", cli.FormatMoney(r.MonthlySIPNeeded)},
			}))
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64Var(&expenses, "expenses", 0, "Current monthly expenses")
	f.Float64Var(&inflation, "inflation", 6, "Annual inflation in percent")
	f.Float64Var(&pre, "pre-return", 12, "Annual return before retirement in percent")
	f.Float64Var(&post, "post-return", 7, "Annual return during retirement in percent")
	f.IntVar(&toRetire, "years-to-retire", 25, "Years until retirement")
	f.IntVar(&inRetirement, "retirement-years", 25, "Years spent in retirement")
	return cmd
}
