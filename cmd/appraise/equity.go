package main

import (
	"github.com/spf13/cobra"

	"github.com/denisok6893-rgb/property-valuation/internal/equity"
)

func newEquityCmd(a *app) *cobra.Command {
	var recordsPath, neighborhood string

	cmd := &cobra.Command{
		Use:   "equity",
		Short: "Run a ratio study and bias analysis over assessment records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.settings()
			if err != nil {
				return err
			}
			recs, err := a.loadAssessments(recordsPath, neighborhood)
			if err != nil {
				return err
			}
			assessment, err := equity.NewEngine(cfg.Equity, a.logger).Assess(recs)
			if err != nil {
				return err
			}
			return a.write(cmd, assessment)
		},
	}

	f := cmd.Flags()
	f.StringVar(&recordsPath, "records", "", "assessment records JSON file (default: read from --db)")
	f.StringVar(&neighborhood, "neighborhood", "", "limit --db records to one neighborhood")
	return cmd
}
