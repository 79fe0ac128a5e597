package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/denisok6893-rgb/property-valuation/internal/domain"
	"github.com/denisok6893-rgb/property-valuation/internal/storage"
)

var errNoSource = errors.New("no input: pass a JSON file flag or --db")

func (a *app) openStore() (*storage.SQLiteStore, error) {
	path := strings.TrimSpace(a.v.GetString("db"))
	if path == "" {
		return nil, errNoSource
	}
	st, err := storage.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := st.EnsureSchema(); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// loadSales reads sales from file when given, otherwise from the record store
// narrowed by f.
func (a *app) loadSales(file string, f storage.SalesFilter) ([]domain.ComparableSale, error) {
	if file != "" {
		return storage.LoadSalesFromFile(file)
	}
	st, err := a.openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()
	sales, err := st.ListSales(f)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("sales loaded from store", "count", len(sales), "property_type", f.PropertyType, "sold_after", f.SoldAfter)
	return sales, nil
}

func (a *app) loadAssessments(file, neighborhood string) ([]domain.AssessmentRecord, error) {
	if file != "" {
		return storage.LoadAssessmentsFromFile(file)
	}
	st, err := a.openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()
	recs, err := st.ListAssessments(neighborhood)
	if err != nil {
		return nil, fmt.Errorf("load assessments: %w", err)
	}
	return recs, nil
}
