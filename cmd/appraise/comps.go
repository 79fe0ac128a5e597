package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/denisok6893-rgb/property-valuation/internal/comps"
	"github.com/denisok6893-rgb/property-valuation/internal/domain"
	"github.com/denisok6893-rgb/property-valuation/internal/storage"
)

func newCompsCmd(a *app) *cobra.Command {
	var subjectPath, salesPath string

	cmd := &cobra.Command{
		Use:   "comps",
		Short: "Select and adjust comparable sales for one subject property",
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
			subject, err := storage.LoadSubjectFromFile(subjectPath)
			if err != nil {
				return err
			}
			sales, err := a.loadSales(salesPath, storage.SalesFilter{
				PropertyType: domain.NormalizePropertyType(subject.PropertyType),
				SoldAfter:    cfg.Comps.EarliestSaleDate(asOf),
			})
			if err != nil {
				return fmt.Errorf("load sales: %w", err)
			}

			analysis := comps.NewEngine(a.logger).Select(asOf, subject, sales, cfg.Comps)
			return a.write(cmd, analysis)
		},
	}

	f := cmd.Flags()
	f.StringVar(&subjectPath, "subject", "", "subject property JSON file")
	f.StringVar(&salesPath, "sales", "", "comparable sales JSON file (default: read from --db)")
	addCriteriaFlags(cmd)
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func addCriteriaFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64("max-distance", 0, "search radius in miles")
	f.Float64("max-age-months", 0, "maximum sale age in months")
	f.Float64("min-similarity", 0, "minimum overall similarity, 0 keeps every filtered sale")
	f.Int("max-comps", 0, "maximum comparables to keep")
}

// bindCriteriaFlags maps the running command's search flags onto comps.* keys.
// It runs inside RunE because several commands declare the same flags.
func bindCriteriaFlags(a *app, cmd *cobra.Command) {
	for _, name := range []string{"max-distance", "max-age-months", "min-similarity", "max-comps"} {
		if fl := cmd.Flags().Lookup(name); fl != nil {
			_ = a.v.BindPFlag("comps."+name, fl)
		}
	}
}
