package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/denisok6893-rgb/property-valuation/internal/batch"
	"github.com/denisok6893-rgb/property-valuation/internal/comps"
	"github.com/denisok6893-rgb/property-valuation/internal/domain"
	"github.com/denisok6893-rgb/property-valuation/internal/equity"
	"github.com/denisok6893-rgb/property-valuation/internal/storage"
)

func newBatchCmd(a *app) *cobra.Command {
	var metricsFile string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run many comparable or equity tasks over a worker pool",
	}
	pf := cmd.PersistentFlags()
	pf.Int("workers", 0, "concurrent tasks (default GOMAXPROCS)")
	pf.StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file")
	_ = a.v.BindPFlag("batch.workers", pf.Lookup("workers"))

	// newRunner builds the runner on a private registry and returns a flush
	// func that dumps the registry when --metrics-file is set.
	newRunner := func(cfg appConfig) (*batch.Runner, func() error) {
		reg := prometheus.NewRegistry()
		r := batch.NewRunner(
			comps.NewEngine(a.logger),
			equity.NewEngine(cfg.Equity, a.logger),
			cfg.Batch.Workers,
			batch.NewMetrics(reg),
			a.logger,
		)
		flush := func() error {
			if metricsFile == "" {
				return nil
			}
			if err := prometheus.WriteToTextfile(metricsFile, reg); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
			return nil
		}
		return r, flush
	}

	cmd.AddCommand(newBatchCompsCmd(a, newRunner), newBatchEquityCmd(a, newRunner))
	return cmd
}

type runnerFactory func(appConfig) (*batch.Runner, func() error)

func newBatchCompsCmd(a *app, newRunner runnerFactory) *cobra.Command {
	var tasksPath, salesPath string

	cmd := &cobra.Command{
		Use:   "comps",
		Short: "Select comparables for every subject in a task file",
		RunE: func(cmd *cobra.Command, args []string) error {
			bindCriteriaFlags(a, cmd)
			cfg, err := a.settings()
			if err != nil {
				return err
			}
			asOf, err := a.asOf()
			if err != nil {
				return err
			}
			tasks, err := storage.LoadCompTasksFromFile(tasksPath)
			if err != nil {
				return err
			}
			var pool []domain.ComparableSale
			if needsPool(tasks) {
				// subjects differ in type, so only the sale-age window narrows the pool
				f := storage.SalesFilter{SoldAfter: cfg.Comps.EarliestSaleDate(asOf)}
				if pool, err = a.loadSales(salesPath, f); err != nil {
					return fmt.Errorf("load sales pool: %w", err)
				}
			}

			r, flush := newRunner(cfg)
			run := r.RunComps(cmd.Context(), asOf, tasks, pool, cfg.Comps)
			if err := flush(); err != nil {
				return err
			}
			if err := a.write(cmd, run); err != nil {
				return err
			}
			if err := cmd.Context().Err(); err != nil {
				return fmt.Errorf("batch interrupted: %w", err)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&tasksPath, "tasks", "", "comparable task JSON file")
	f.StringVar(&salesPath, "sales", "", "shared sales pool JSON file for tasks without their own sales (default: read from --db)")
	addCriteriaFlags(cmd)
	_ = cmd.MarkFlagRequired("tasks")
	return cmd
}

func needsPool(tasks []storage.CompTask) bool {
	for _, t := range tasks {
		if len(t.Sales) == 0 {
			return true
		}
	}
	return false
}

func newBatchEquityCmd(a *app, newRunner runnerFactory) *cobra.Command {
	var tasksPath string

	cmd := &cobra.Command{
		Use:   "equity",
		Short: "Assess every record group in a task file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.settings()
			if err != nil {
				return err
			}
			tasks, err := storage.LoadEquityTasksFromFile(tasksPath)
			if err != nil {
				return err
			}

			r, flush := newRunner(cfg)
			run := r.RunEquity(cmd.Context(), tasks)
			if err := flush(); err != nil {
				return err
			}
			if err := a.write(cmd, run); err != nil {
				return err
			}

			failed := 0
			for _, res := range run.Results {
				if res.Err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d equity tasks failed", failed, len(run.Results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tasksPath, "tasks", "", "equity task JSON file")
	_ = cmd.MarkFlagRequired("tasks")
	return cmd
}
