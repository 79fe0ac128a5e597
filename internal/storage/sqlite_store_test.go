package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denisok6893-rgb/property-valuation/internal/domain"
)

func openTemp(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := OpenSQLite(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.EnsureSchema())
	return st
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSQLiteStore_SalesRoundTripAndFilter(t *testing.T) {
	t.Parallel()
	st := openTemp(t)

	sales := []domain.ComparableSale{
		{ID: "a", SalePrice: 300000, SaleDate: day(2024, 1, 10), LivingArea: 1800, YearBuilt: 2000, Quality: "good", Latitude: 40.1, Longitude: -75.2, Neighborhood: "Oak Hill", PropertyType: "single_family"},
		{ID: "b", SalePrice: 250000, SaleDate: day(2024, 5, 2), LivingArea: 1200, PropertyType: "condo", Neighborhood: "Downtown"},
		{ID: "c", SalePrice: 320000, SaleDate: day(2023, 3, 15), LivingArea: 2000, PropertyType: "single_family", Neighborhood: "oak hill"},
	}
	n, err := st.UpsertSales(sales)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	count, err := st.CountSales()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	got, err := st.ListSales(SalesFilter{PropertyType: "SINGLE_FAMILY"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID, "newest first")
	assert.Equal(t, "c", got[1].ID)
	assert.True(t, got[0].SaleDate.Equal(day(2024, 1, 10)))
	assert.Equal(t, "good", got[0].Quality)
	assert.InDelta(t, 40.1, got[0].Latitude, 1e-9)

	got, err = st.ListSales(SalesFilter{Neighborhood: "Oak Hill", SoldAfter: day(2024, 1, 1)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	got, err = st.ListSales(SalesFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].ID, "newest first")
}

func TestSQLiteStore_UpsertReplacesByID(t *testing.T) {
	t.Parallel()
	st := openTemp(t)

	_, err := st.UpsertSales([]domain.ComparableSale{{ID: "a", SalePrice: 100000, SaleDate: day(2024, 1, 1)}})
	require.NoError(t, err)
	_, err = st.UpsertSales([]domain.ComparableSale{{ID: "a", SalePrice: 150000, SaleDate: day(2024, 1, 1)}})
	require.NoError(t, err)

	got, err := st.ListSales(SalesFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 150000.0, got[0].SalePrice)
}

func TestSQLiteStore_UntypedSalesMatchDefaultType(t *testing.T) {
	t.Parallel()
	st := openTemp(t)

	_, err := st.UpsertSales([]domain.ComparableSale{
		{ID: "untyped", SalePrice: 300000, SaleDate: day(2024, 4, 1)},
		{ID: "condo", SalePrice: 200000, SaleDate: day(2024, 4, 2), PropertyType: " Condo "},
	})
	require.NoError(t, err)
	// a blank type written without normalization
	_, err = st.db.Exec(`INSERT INTO sales (id, sale_price, sale_date, property_type) VALUES ('legacy', 280000, ?, '')`,
		formatDate(day(2024, 3, 1)))
	require.NoError(t, err)

	got, err := st.ListSales(SalesFilter{PropertyType: domain.DefaultPropertyType})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "untyped", got[0].ID)
	assert.Equal(t, domain.DefaultPropertyType, got[0].PropertyType)
	assert.Equal(t, "legacy", got[1].ID)

	got, err = st.ListSales(SalesFilter{PropertyType: "CONDO"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "condo", got[0].PropertyType)
}

func TestSQLiteStore_SoldAfterKeepsUndatedSales(t *testing.T) {
	t.Parallel()
	st := openTemp(t)

	_, err := st.UpsertSales([]domain.ComparableSale{
		{ID: "recent", SalePrice: 300000, SaleDate: day(2024, 5, 1)},
		{ID: "stale", SalePrice: 300000, SaleDate: day(2021, 5, 1)},
		{ID: "undated", SalePrice: 300000},
	})
	require.NoError(t, err)

	got, err := st.ListSales(SalesFilter{SoldAfter: day(2023, 6, 1)})
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, s := range got {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{"recent", "undated"}, ids)
}

func TestSQLiteStore_AssessmentsKeepUnknownCovariates(t *testing.T) {
	t.Parallel()
	st := openTemp(t)

	income := 72000.0
	recs := []domain.AssessmentRecord{
		{ID: "r1", Neighborhood: "North", AssessedValue: 270000, SalePrice: 300000, SaleDate: day(2024, 2, 1), MedianIncome: &income, Urbanicity: "urban"},
		{ID: "r2", Neighborhood: "South", AssessedValue: 190000, SalePrice: 200000},
	}
	_, err := st.UpsertAssessments(recs)
	require.NoError(t, err)

	count, err := st.CountAssessments()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	all, err := st.ListAssessments("")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, domain.DefaultPropertyType, all[1].PropertyType)

	require.NotNil(t, all[0].MedianIncome)
	assert.Equal(t, 72000.0, *all[0].MedianIncome)
	assert.Nil(t, all[0].MinorityShare)
	assert.Equal(t, "urban", all[0].Urbanicity)
	assert.True(t, all[1].SaleDate.IsZero())

	north, err := st.ListAssessments("north")
	require.NoError(t, err)
	require.Len(t, north, 1)
	assert.Equal(t, "r1", north[0].ID)
}

func TestLoadSalesFromFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sales.json")
	body := `[{"id":"s1","sale_price":310000,"sale_date":"2024-03-01T00:00:00Z","living_area":1800,"property_type":"condo"}]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	sales, err := LoadSalesFromFile(path)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "s1", sales[0].ID)
	assert.Equal(t, 2024, sales[0].SaleDate.Year())
}

func TestLoadCompTasksFromFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "tasks.json")
	body := `[{"id":"t1","subject":{"id":"subj","living_area":2000}},{"id":"t2","subject":{"id":"other"},"sales":[{"id":"x","sale_price":1}]}]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	tasks, err := LoadCompTasksFromFile(path)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Empty(t, tasks[0].Sales)
	assert.Equal(t, "subj", tasks[0].Subject.ID)
	assert.Len(t, tasks[1].Sales, 1)
}

func TestLoaders_ReportFileErrors(t *testing.T) {
	t.Parallel()
	_, err := LoadSubjectFromFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read subject file")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = LoadAssessmentsFromFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal assessments")
}
