package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"debtplan/internal/cli"
	"debtplan/internal/core"
	"debtplan/internal/services"
)

func newSimulateCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate a payoff plan under one strategy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			src, err := o.openSource(ctx)
			if err != nil {
				return err
			}
			defer src.Close()

			budget, strategy, cascade, err := o.planInputs(cmd, src)
			if err != nil {
				return err
			}
			records, loans, err := loadSnapshot(cmd, src)
			if err != nil {
				return err
			}

			res, err := services.NewPlanService(src.store).Simulate(ctx, loans, budget, strategy, cascade)
			if err != nil {
				return err
			}
			if o.jsonOut {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderSimulation(res, loanLabels(records)))
			return nil
		},
	}
	addPlanFlags(cmd, o, true)
	return cmd
}

func newCompareCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare avalanche and snowball over the same loans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			src, err := o.openSource(ctx)
			if err != nil {
				return err
			}
			defer src.Close()

			budget, _, cascade, err := o.planInputs(cmd, src)
			if err != nil {
				return err
			}
			_, loans, err := loadSnapshot(cmd, src)
			if err != nil {
				return err
			}

			cmp, err := services.NewPlanService(src.store).CompareLoans(ctx, loans, budget, cascade)
			if err != nil {
				return err
			}
			if o.jsonOut {
				return writeJSON(cmd.OutOrStdout(), cmp)
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderComparison(cmp))
			return nil
		},
	}
	addPlanFlags(cmd, o, false)
	return cmd
}

func loadSnapshot(cmd *cobra.Command, src *source) ([]core.LoanRecord, []core.Loan, error) {
	records, err := src.store.ListLoans(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	loans, err := core.ToLoans(records)
	if err != nil {
		return nil, nil, err
	}
	return records, loans, nil
}

func loanLabels(records []core.LoanRecord) []string {
	labels := make([]string, len(records))
	for i, r := range records {
		labels[i] = r.Type
		if r.Description != "" {
			labels[i] += " (" + r.Description + ")"
		}
	}
	return labels
}
