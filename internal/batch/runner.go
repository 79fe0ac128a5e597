// Package batch fans comparable-selection and equity tasks out over a bounded
// worker pool. The engines are stateless, so workers share one instance of each.
package batch

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/denisok6893-rgb/property-valuation/internal/comps"
	"github.com/denisok6893-rgb/property-valuation/internal/domain"
	"github.com/denisok6893-rgb/property-valuation/internal/equity"
	"github.com/denisok6893-rgb/property-valuation/internal/storage"
)

var tracer = otel.Tracer("appraise.batch")

const (
	statusOK       = "ok"
	statusError    = "error"
	statusCanceled = "canceled"
)

// CompResult is the outcome of one comparable-selection task.
type CompResult struct {
	TaskID   string              `json:"task_id" yaml:"task_id"`
	Analysis domain.CompAnalysis `json:"analysis" yaml:"analysis"`
	Error    string              `json:"error,omitempty" yaml:"error,omitempty"`
	Err      error               `json:"-" yaml:"-"`
}

// EquityResult is the outcome of one equity task. Err is terminal for the task.
type EquityResult struct {
	TaskID     string                  `json:"task_id" yaml:"task_id"`
	Assessment domain.EquityAssessment `json:"assessment" yaml:"assessment"`
	Error      string                  `json:"error,omitempty" yaml:"error,omitempty"`
	Err        error                   `json:"-" yaml:"-"`
}

// Run groups the results of one batch invocation, in input order.
type Run[R any] struct {
	ID      string `json:"run_id" yaml:"run_id"`
	Results []R    `json:"results" yaml:"results"`
}

type Runner struct {
	comps   *comps.Engine
	equity  *equity.Engine
	workers int
	metrics *Metrics
	logger  *slog.Logger
}

// NewRunner builds a runner. workers <= 0 means GOMAXPROCS; metrics may be nil.
func NewRunner(c *comps.Engine, e *equity.Engine, workers int, metrics *Metrics, logger *slog.Logger) *Runner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{comps: c, equity: e, workers: workers, metrics: metrics, logger: logger}
}

// RunComps selects comparables for every task. Tasks without their own sales
// search pool. Once ctx is done, unscheduled tasks report ctx.Err().
func (r *Runner) RunComps(ctx context.Context, asOf time.Time, tasks []storage.CompTask, pool []domain.ComparableSale, c comps.Criteria) Run[CompResult] {
	run := Run[CompResult]{ID: uuid.NewString(), Results: make([]CompResult, len(tasks))}
	log := r.logger.With(slog.String("run_id", run.ID), slog.String("kind", KindComps))

	r.fanOut(ctx, len(tasks), func(ctx context.Context, i int) {
		t := tasks[i]
		res := &run.Results[i]
		res.TaskID = t.ID

		_, span := tracer.Start(ctx, "batch.comps", trace.WithAttributes(
			attribute.String("run.id", run.ID),
			attribute.String("task.id", t.ID),
		))
		defer span.End()

		if err := ctx.Err(); err != nil {
			res.Err, res.Error = err, err.Error()
			r.metrics.observe(KindComps, statusCanceled, 0)
			span.SetStatus(codes.Error, "canceled")
			return
		}
		sales := t.Sales
		if len(sales) == 0 {
			sales = pool
		}
		start := time.Now()
		res.Analysis = r.comps.Select(asOf, t.Subject, sales, c)
		r.metrics.observe(KindComps, statusOK, time.Since(start))
		r.metrics.observeComps(len(res.Analysis.SelectedComps))

		span.SetAttributes(
			attribute.Int("comps.selected", len(res.Analysis.SelectedComps)),
			attribute.Float64("comps.confidence", res.Analysis.Confidence),
		)
		log.Debug("comps task done",
			slog.String("task_id", t.ID),
			slog.Int("selected", len(res.Analysis.SelectedComps)),
			slog.Float64("indicated_value", res.Analysis.IndicatedValue),
		)
	})

	log.Info("comps batch finished", slog.Int("tasks", len(tasks)), slog.Int("failed", countFailed(run.Results, func(x CompResult) error { return x.Err })))
	return run
}

// RunEquity assesses every task. A task that fails is reported and not retried.
func (r *Runner) RunEquity(ctx context.Context, tasks []storage.EquityTask) Run[EquityResult] {
	run := Run[EquityResult]{ID: uuid.NewString(), Results: make([]EquityResult, len(tasks))}
	log := r.logger.With(slog.String("run_id", run.ID), slog.String("kind", KindEquity))

	r.fanOut(ctx, len(tasks), func(ctx context.Context, i int) {
		t := tasks[i]
		res := &run.Results[i]
		res.TaskID = t.ID

		_, span := tracer.Start(ctx, "batch.equity", trace.WithAttributes(
			attribute.String("run.id", run.ID),
			attribute.String("task.id", t.ID),
			attribute.Int("task.records", len(t.Records)),
		))
		defer span.End()

		if err := ctx.Err(); err != nil {
			res.Err, res.Error = err, err.Error()
			r.metrics.observe(KindEquity, statusCanceled, 0)
			span.SetStatus(codes.Error, "canceled")
			return
		}
		start := time.Now()
		a, err := r.equity.Assess(t.Records)
		if err != nil {
			res.Err, res.Error = err, err.Error()
			r.metrics.observe(KindEquity, statusError, time.Since(start))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Warn("equity task failed", slog.String("task_id", t.ID), slog.Any("err", err))
			return
		}
		res.Assessment = a
		r.metrics.observe(KindEquity, statusOK, time.Since(start))
		r.metrics.observeEquity(a.EquityScore)

		span.SetAttributes(
			attribute.Float64("equity.cod", a.Metrics.COD),
			attribute.Float64("equity.prd", a.Metrics.PRD),
			attribute.Float64("equity.score", a.EquityScore),
		)
		log.Debug("equity task done",
			slog.String("task_id", t.ID),
			slog.Float64("equity_score", a.EquityScore),
			slog.Bool("compliant", a.Compliance.OverallCompliant),
		)
	})

	log.Info("equity batch finished", slog.Int("tasks", len(tasks)), slog.Int("failed", countFailed(run.Results, func(x EquityResult) error { return x.Err })))
	return run
}

// fanOut calls work(ctx, i) for i in [0,n) with at most r.workers in flight.
// Per-task failures live in the results, so the group itself never fails.
func (r *Runner) fanOut(ctx context.Context, n int, work func(context.Context, int)) {
	var g errgroup.Group
	g.SetLimit(r.workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			work(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
}

func countFailed[R any](results []R, errOf func(R) error) int {
	n := 0
	for _, x := range results {
		if errOf(x) != nil {
			n++
		}
	}
	return n
}
