package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/denisok6893-rgb/property-valuation/internal/storage"
)

func newImportCmd(a *app) *cobra.Command {
	var salesPath, assessmentsPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load sales and assessment records from JSON into the --db record store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if salesPath == "" && assessmentsPath == "" {
				return errors.New("nothing to import: pass --sales and/or --assessments")
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if salesPath != "" {
				sales, err := storage.LoadSalesFromFile(salesPath)
				if err != nil {
					return err
				}
				n, err := st.UpsertSales(sales)
				if err != nil {
					return fmt.Errorf("import sales: %w", err)
				}
				total, err := st.CountSales()
				if err != nil {
					return fmt.Errorf("count sales: %w", err)
				}
				a.logger.Info("sales imported", "count", n, "total", total, "file", salesPath)
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d sales (%d in store)\n", n, total)
			}
			if assessmentsPath != "" {
				recs, err := storage.LoadAssessmentsFromFile(assessmentsPath)
				if err != nil {
					return err
				}
				n, err := st.UpsertAssessments(recs)
				if err != nil {
					return fmt.Errorf("import assessments: %w", err)
				}
				total, err := st.CountAssessments()
				if err != nil {
					return fmt.Errorf("count assessments: %w", err)
				}
				a.logger.Info("assessments imported", "count", n, "total", total, "file", assessmentsPath)
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d assessment records (%d in store)\n", n, total)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&salesPath, "sales", "", "sales JSON file")
	f.StringVar(&assessmentsPath, "assessments", "", "assessment records JSON file")
	return cmd
}
