package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denisok6893-rgb/property-valuation/internal/comps"
	"github.com/denisok6893-rgb/property-valuation/internal/domain"
	"github.com/denisok6893-rgb/property-valuation/internal/equity"
	"github.com/denisok6893-rgb/property-valuation/internal/storage"
)

var asOf = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func newTestRunner(t *testing.T, workers int) (*Runner, *Metrics) {
	t.Helper()
	m := NewMetrics(prometheus.NewRegistry())
	r := NewRunner(comps.NewEngine(nil), equity.NewEngine(equity.DefaultOptions(), nil), workers, m, nil)
	return r, m
}

func sale(id string, area float64) domain.ComparableSale {
	return domain.ComparableSale{
		ID:           id,
		SalePrice:    300000,
		SaleDate:     asOf.AddDate(0, -2, 0),
		LivingArea:   area,
		YearBuilt:    2000,
		Quality:      "average",
		Latitude:     40.0,
		Longitude:    -75.0,
		PropertyType: "single_family",
	}
}

func subject(id string) domain.SubjectProperty {
	return domain.SubjectProperty{
		ID:           id,
		LivingArea:   2000,
		YearBuilt:    2000,
		Quality:      "average",
		Latitude:     40.0,
		Longitude:    -75.0,
		PropertyType: "single_family",
	}
}

func TestRunComps_ResultsInInputOrder(t *testing.T) {
	t.Parallel()
	r, m := newTestRunner(t, 2)

	pool := []domain.ComparableSale{sale("p1", 1900), sale("p2", 2100), sale("p3", 2000)}
	tasks := make([]storage.CompTask, 6)
	for i := range tasks {
		tasks[i] = storage.CompTask{ID: fmt.Sprintf("t%d", i), Subject: subject(fmt.Sprintf("s%d", i))}
	}
	tasks[3].Sales = []domain.ComparableSale{sale("own", 2000)}

	run := r.RunComps(context.Background(), asOf, tasks, pool, comps.DefaultCriteria())

	require.NotEmpty(t, run.ID)
	require.Len(t, run.Results, len(tasks))
	for i, res := range run.Results {
		assert.Equal(t, tasks[i].ID, res.TaskID)
		assert.Equal(t, tasks[i].Subject.ID, res.Analysis.SubjectID)
		assert.NoError(t, res.Err)
	}
	assert.Len(t, run.Results[0].Analysis.SelectedComps, 3)
	require.Len(t, run.Results[3].Analysis.SelectedComps, 1)
	assert.Equal(t, "own", run.Results[3].Analysis.SelectedComps[0].Sale.ID)

	assert.Equal(t, 6.0, testutil.ToFloat64(m.TasksTotal.WithLabelValues(KindComps, statusOK)))
}

func TestRunComps_CanceledContext(t *testing.T) {
	t.Parallel()
	r, m := newTestRunner(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := []storage.CompTask{{ID: "a", Subject: subject("a")}, {ID: "b", Subject: subject("b")}}
	run := r.RunComps(ctx, asOf, tasks, nil, comps.DefaultCriteria())

	for _, res := range run.Results {
		assert.True(t, errors.Is(res.Err, context.Canceled))
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TasksTotal.WithLabelValues(KindComps, statusCanceled)))
}

func ratioRecords(prefix string, n int) []domain.AssessmentRecord {
	out := make([]domain.AssessmentRecord, n)
	for i := range out {
		price := 200000 + float64(i)*10000
		out[i] = domain.AssessmentRecord{
			ID:            fmt.Sprintf("%s-%d", prefix, i),
			AssessedValue: price * (0.95 + 0.01*float64(i%5)),
			SalePrice:     price,
		}
	}
	return out
}

func TestRunEquity_FailuresAreReportedPerTask(t *testing.T) {
	t.Parallel()
	r, m := newTestRunner(t, 4)

	tasks := []storage.EquityTask{
		{ID: "north", Records: ratioRecords("n", 10)},
		{ID: "empty", Records: []domain.AssessmentRecord{{ID: "x", AssessedValue: 100000}}},
		{ID: "south", Records: ratioRecords("s", 12)},
	}
	run := r.RunEquity(context.Background(), tasks)

	require.Len(t, run.Results, 3)
	assert.NoError(t, run.Results[0].Err)
	assert.ErrorIs(t, run.Results[1].Err, equity.ErrNoQualifyingSales)
	assert.NoError(t, run.Results[2].Err)

	assert.Equal(t, 10, run.Results[0].Assessment.Metrics.RatioStudy.Count)
	assert.Equal(t, 12, run.Results[2].Assessment.Metrics.RatioStudy.Count)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TasksTotal.WithLabelValues(KindEquity, statusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksTotal.WithLabelValues(KindEquity, statusError)))
}

func TestRunner_NilMetrics(t *testing.T) {
	t.Parallel()
	r := NewRunner(comps.NewEngine(nil), equity.NewEngine(equity.DefaultOptions(), nil), 0, nil, nil)

	run := r.RunEquity(context.Background(), []storage.EquityTask{{ID: "a", Records: ratioRecords("a", 5)}})
	require.Len(t, run.Results, 1)
	assert.NoError(t, run.Results[0].Err)
}

func TestRuns_HaveDistinctIDs(t *testing.T) {
	t.Parallel()
	r, _ := newTestRunner(t, 1)

	a := r.RunEquity(context.Background(), nil)
	b := r.RunEquity(context.Background(), nil)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Empty(t, a.Results)
}
