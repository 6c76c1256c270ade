package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"debtplan/internal/cli"
	"debtplan/internal/config"
	"debtplan/internal/core"
	"debtplan/internal/ledger"
	"debtplan/internal/ledger/memory"
	"debtplan/internal/loanfile"
	dlog "debtplan/internal/log"
	"debtplan/internal/storage"
)

type options struct {
	loansFile string
	dbPath    string
	jsonOut   bool
	budget    float64
	strategy  string
	cascade   bool
	logLevel  string
	logger    *dlog.Logger
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "debtctl",
		Short:         "Loan payoff planner",
		Long:          "Simulate avalanche and snowball repayment plans over your loans and run investment projections.",
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cli.LoadEnvFile()
			level := o.logLevel
			if level == "" {
				level = os.Getenv("LOG_LEVEL")
			}
			if level == "" {
				level = "warn"
			}
			// stdout carries command output
			o.logger = dlog.New(dlog.Config{
				Level:     dlog.ParseLevel(level),
				Component: dlog.ComponentApp,
				Output:    cmd.ErrOrStderr(),
			})
			dlog.SetDefault(o.logger)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&o.loansFile, "loans", "f", "", "Loan file (.yaml, .yml or .toml)")
	pf.StringVar(&o.dbPath, "db", "", "SQLite ledger path (overrides DATA_BACKEND)")
	pf.BoolVar(&o.jsonOut, "json", false, "Print JSON instead of tables")
	pf.StringVar(&o.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newSimulateCmd(o),
		newCompareCmd(o),
		newLoansCmd(o),
		newProjectCmd(o),
		newTypesCmd(o),
	)
	return root
}

func addPlanFlags(cmd *cobra.Command, o *options, withStrategy bool) {
	cmd.Flags().Float64VarP(&o.budget, "budget", "b", 0, "Monthly repayment budget (defaults to the loan file's budget)")
	cmd.Flags().BoolVar(&o.cascade, "cascade", false, "Roll freed minimums into the next target")
	if withStrategy {
		cmd.Flags().StringVarP(&o.strategy, "strategy", "s", "", "avalanche or snowball (defaults to the loan file's strategy, then avalanche)")
	}
}

// source is the loan ledger a command works on. File-backed sources keep
// the parsed file so writes can be saved back.
type source struct {
	store ledger.Ledger
	file  *loanfile.File
	path  string
	close func() error
}

func (o *options) openSource(ctx context.Context) (*source, error) {
	switch {
	case o.loansFile != "":
		f, err := loanfile.Load(o.loansFile)
		if err != nil {
			return nil, err
		}
		recs, err := f.Records()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", o.loansFile, err)
		}
		return &source{store: memory.New(recs), file: &f, path: o.loansFile}, nil

	case o.dbPath != "":
		repo, err := storage.NewSQLiteRepository(o.dbPath)
		if err != nil {
			return nil, err
		}
		return &source{store: repo, close: repo.Close}, nil
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	res, err := cli.OpenLedger(ctx, o.logger, cfg)
	if err != nil {
		return nil, err
	}
	return &source{store: res.Ledger, close: res.Cleanup}, nil
}

// save writes a file-backed source back to disk.
func (s *source) save(ctx context.Context) error {
	if s.file == nil {
		return nil
	}
	recs, err := s.store.ListLoans(ctx)
	if err != nil {
		return err
	}
	out := loanfile.FromRecords(recs)
	out.Budget, out.Strategy, out.Cascade = s.file.Budget, s.file.Strategy, s.file.Cascade
	return loanfile.Save(s.path, out)
}

func (s *source) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// planInputs resolves budget, strategy and cascade from flags, falling
// back to the loan file.
func (o *options) planInputs(cmd *cobra.Command, src *source) (float64, core.Strategy, bool, error) {
	budget, rawStrategy, cascade := o.budget, o.strategy, o.cascade
	if src.file != nil {
		if !cmd.Flags().Changed("budget") {
			budget = src.file.Budget
		}
		if rawStrategy == "" {
			rawStrategy = src.file.Strategy
		}
		if !cmd.Flags().Changed("cascade") {
			cascade = src.file.Cascade
		}
	}
	if budget <= 0 && !cmd.Flags().Changed("budget") {
		return 0, "", false, errors.New("a monthly budget is required (--budget)")
	}
	if err := core.ValidateBudget(budget); err != nil {
		return 0, "", false, err
	}
	strategy := core.Avalanche
	if rawStrategy != "" {
		s, err := core.ParseStrategy(rawStrategy)
		if err != nil {
			return 0, "", false, err
		}
		strategy = s
	}
	return budget, strategy, cascade, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
