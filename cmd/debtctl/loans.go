package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"debtplan/internal/cli"
	"debtplan/internal/core"
	"debtplan/internal/ledger"
	"debtplan/internal/loanfile"
	"debtplan/internal/projection"
)

func newLoansCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loans",
		Short: "List the loans in the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := o.openSource(cmd.Context())
			if err != nil {
				return err
			}
			defer src.Close()

			records, err := src.store.ListLoans(cmd.Context())
			if err != nil {
				return err
			}
			if o.jsonOut {
				return writeJSON(cmd.OutOrStdout(), loanfile.FromRecords(records))
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderLoans(records))
			return nil
		},
	}
	cmd.AddCommand(newLoansAddCmd(o), newLoansUpdateCmd(o), newLoansRemoveCmd(o),
		newLoansScheduleCmd(o), newLoansExportCmd(o))
	return cmd
}

func newLoansAddCmd(o *options) *cobra.Command {
	var (
		e    loanfile.Entry
		rate float64
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new loan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("rate") {
				e.InterestRate = &rate
			}
			rec, err := e.Record()
			if err != nil {
				return err
			}

			src, err := o.openSource(cmd.Context())
			if err != nil {
				return err
			}
			defer src.Close()

			id, err := src.store.CreateLoan(cmd.Context(), rec)
			if err != nil {
				return err
			}
			if err := src.save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded loan %d: %s, %s outstanding at %s\n",
				id, rec.Type, cli.FormatMoney(rec.Outstanding()), cli.FormatRate(rec.InterestRate))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&e.Type, "type", "t", "", "Loan type from the catalogue (see 'debtctl types')")
	f.Float64Var(&e.Principal, "principal", 0, "Original principal")
	f.Float64Var(&e.AmountPaid, "paid", 0, "Amount already repaid")
	f.Float64Var(&e.MinimumPayment, "emi", 0, "Monthly minimum payment")
	f.Float64Var(&rate, "rate", 0, "Annual interest rate in percent (defaults to the type's rate)")
	f.IntVar(&e.TenureMonths, "tenure", 0, "Tenure in months")
	f.StringVar(&e.StartDate, "start", "", "Start date (YYYY-MM-DD)")
	f.StringVarP(&e.Description, "description", "d", "", "Free-form note")
	_ = cmd.MarkFlagRequired("principal")
	return cmd
}

// newLoansUpdateCmd edits a loan in place. Only the flags given change.
func newLoansUpdateCmd(o *options) *cobra.Command {
	var (
		typ, start, desc        string
		principal, paid, emi, r float64
		tenure                  int
	)
	cmd := &cobra.Command{
		Use:     "update ID",
		Aliases: []string{"edit"},
		Short:   "Edit a loan",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseLoanID(args[0])
			if err != nil {
				return err
			}
			src, err := o.openSource(cmd.Context())
			if err != nil {
				return err
			}
			defer src.Close()

			rec, err := ledger.FindLoan(cmd.Context(), src.store, id)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("type") {
				lt, ok := core.LookupLoanType(typ)
				if !ok {
					return fmt.Errorf("%w: %q", core.ErrUnknownLoanType, typ)
				}
				rec.Type = lt.Name
			}
			if f.Changed("principal") {
				rec.Principal = principal
			}
			if f.Changed("paid") {
				rec.AmountPaid = paid
			}
			if f.Changed("emi") {
				rec.MinimumPayment = emi
			}
			if f.Changed("rate") {
				rec.InterestRate = r
			}
			if f.Changed("tenure") {
				rec.TenureMonths = tenure
			}
			if f.Changed("start") {
				if rec.StartDate, err = core.ParseDate(start); err != nil {
					return err
				}
			}
			if f.Changed("description") {
				rec.Description = strings.TrimSpace(desc)
			}

			if err := src.store.UpdateLoan(cmd.Context(), rec); err != nil {
				return err
			}
			if err := src.save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated loan %d: %s, %s outstanding at %s\n",
				id, rec.Type, cli.FormatMoney(rec.Outstanding()), cli.FormatRate(rec.InterestRate))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&typ, "type", "t", "", "Loan type from the catalogue")
	f.Float64Var(&principal, "principal", 0, "Original principal")
	f.Float64Var(&paid, "paid", 0, "Amount already repaid")
	f.Float64Var(&emi, "emi", 0, "Monthly minimum payment")
	f.Float64Var(&r, "rate", 0, "Annual interest rate in percent")
	f.IntVar(&tenure, "tenure", 0, "Tenure in months")
	f.StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	f.StringVarP(&desc, "description", "d", "", "Free-form note")
	return cmd
}

func newLoansScheduleCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule ID",
		Short: "Show a loan's month-by-month EMI schedule over its tenure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseLoanID(args[0])
			if err != nil {
				return err
			}
			src, err := o.openSource(cmd.Context())
			if err != nil {
				return err
			}
			defer src.Close()

			rec, err := ledger.FindLoan(cmd.Context(), src.store, id)
			if err != nil {
				return err
			}
			rows, err := projection.Amortization(rec)
			if err != nil {
				return err
			}
			if o.jsonOut {
				return writeJSON(cmd.OutOrStdout(), rows)
			}

			t := cli.Table{
				Title:   fmt.Sprintf("Schedule: loan %d, %s", rec.ID, rec.Type),
				Headers: []string{"Month", "Payment", "Interest", "Principal", "Balance"},
			}
			var interest float64
			for _, row := range rows {
				interest += row.Interest
				t.Rows = append(t.Rows, []string{
					strconv.Itoa(row.Month),
					cli.FormatMoney(row.Payment),
					cli.FormatMoney(row.Interest),
					cli.FormatMoney(row.Principal),
					cli.FormatMoney(row.Balance),
				})
			}
			t.Rows = append(t.Rows, []string{"TOTAL", "", cli.FormatMoney(interest), "", ""})
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable(t))
			return nil
		},
	}
}

func parseLoanID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid loan id %q", arg)
	}
	return id, nil
}

func newLoansRemoveCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a loan",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseLoanID(args[0])
			if err != nil {
				return err
			}

			src, err := o.openSource(cmd.Context())
			if err != nil {
				return err
			}
			defer src.Close()

			if err := src.store.DeleteLoan(cmd.Context(), id); err != nil {
				return err
			}
			if err := src.save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted loan %d\n", id)
			return nil
		},
	}
}

func newLoansExportCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export PATH",
		Short: "Write the ledger to a YAML or TOML loan file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loanfile.FormatFor(args[0]); err != nil {
				return err
			}
			src, err := o.openSource(cmd.Context())
			if err != nil {
				return err
			}
			defer src.Close()

			records, err := src.store.ListLoans(cmd.Context())
			if err != nil {
				return err
			}
			out := loanfile.FromRecords(records)
			if src.file != nil {
				out.Budget, out.Strategy, out.Cascade = src.file.Budget, src.file.Strategy, src.file.Cascade
			}
			if err := loanfile.Save(args[0], out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s loans to %s\n", cli.FormatCount(len(records)), args[0])
			return nil
		},
	}
}
