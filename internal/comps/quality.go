package comps

import (
	"fmt"
	"math"

	"github.com/denisok6893-rgb/property-valuation/internal/domain"
	"github.com/denisok6893-rgb/property-valuation/internal/stats"
)

const (
	minConfidence = 0.1
	maxConfidence = 0.95
)

// Advisory thresholds.
const (
	minSampleSize         = 3
	strongSampleSize      = 5
	lowSimilarity         = 0.5
	reviewAdjustmentRange = 0.25
	excessAdjustmentRange = 0.5
)

func qualityMetrics(comps []domain.AdjustedComp) domain.QualityMetrics {
	n := len(comps)
	if n == 0 {
		return domain.QualityMetrics{}
	}
	sims := make([]float64, 0, n)
	adjShares := make([]float64, 0, n)
	months := make([]float64, 0, n)
	for _, c := range comps {
		sims = append(sims, c.Similarity.Overall)
		var share float64
		if c.AdjustedPrice != 0 {
			share = math.Abs(c.Similarity.Adjustments.Net) / math.Abs(c.AdjustedPrice)
		}
		adjShares = append(adjShares, share)
		months = append(months, c.SaleAgeMonths)
	}
	adjLo, adjHi := stats.MinMax(adjShares)
	mLo, mHi := stats.MinMax(months)
	return domain.QualityMetrics{
		SampleSize:        n,
		AverageSimilarity: stats.Mean(sims),
		AdjustmentRange:   adjHi - adjLo,
		TimeSpread:        mHi - mLo,
	}
}

// confidence grades the reconciled value. An empty selection sits at the floor.
func confidence(q domain.QualityMetrics) float64 {
	if q.SampleSize == 0 {
		return minConfidence
	}
	c := 0.5
	switch {
	case q.SampleSize >= strongSampleSize:
		c += 0.2
	case q.SampleSize >= minSampleSize:
		c += 0.1
	}
	c += q.AverageSimilarity * 0.3
	c += math.Max(0, 0.2-q.AdjustmentRange)
	c += math.Max(0, 0.1-q.TimeSpread/12*0.1)
	return domain.Clamp(c, minConfidence, maxConfidence)
}

func advise(subject domain.SubjectProperty, c Criteria, a domain.CompAnalysis, unpriced int) (recs, warns []domain.Advisory) {
	recs, warns = []domain.Advisory{}, []domain.Advisory{}
	q := a.Quality
	n := q.SampleSize

	if subject.LivingArea <= 0 || !subject.HasLocation() {
		warns = append(warns, domain.Advisory{
			Code:     domain.CodeMissingSubjectData,
			Severity: domain.SeverityWarning,
			Message:  "subject is missing living area or coordinates; size and location factors are degraded",
		})
	}

	if n < minSampleSize {
		recs = append(recs,
			domain.Advisory{
				Code:     domain.CodeWidenSearch,
				Severity: domain.SeverityInfo,
				Message:  fmt.Sprintf("expand the search radius beyond %.1f miles", c.MaxDistance),
				Params:   map[string]float64{"max_distance": c.MaxDistance, "sample_size": float64(n)},
			},
			domain.Advisory{
				Code:     domain.CodeExtendTimeWindow,
				Severity: domain.SeverityInfo,
				Message:  fmt.Sprintf("consider sales older than %.0f months", c.MaxAgeMonths),
				Params:   map[string]float64{"max_age_months": c.MaxAgeMonths},
			},
		)
	}
	if a.FilteredCount > 0 && n == 0 {
		recs = append(recs, domain.Advisory{
			Code:     domain.CodeRelaxSimilarity,
			Severity: domain.SeverityInfo,
			Message:  fmt.Sprintf("%d sales passed the filters but none reached similarity %.2f", a.FilteredCount, c.floor()),
			Params:   map[string]float64{"filtered": float64(a.FilteredCount), "min_similarity": c.floor()},
		})
	}
	if q.AdjustmentRange > reviewAdjustmentRange {
		recs = append(recs, domain.Advisory{
			Code:     domain.CodeReviewAdjustments,
			Severity: domain.SeverityInfo,
			Message:  "adjustment magnitudes vary widely; review the line items of the outliers",
			Params:   map[string]float64{"adjustment_range": q.AdjustmentRange},
		})
	}

	switch {
	case n == 0:
		warns = append(warns, domain.Advisory{
			Code:     domain.CodeNoComparables,
			Severity: domain.SeverityCritical,
			Message:  "no comparable sales qualified; indicated value is unavailable",
			Params:   map[string]float64{"candidates": float64(a.CandidateCount)},
		})
	case n < minSampleSize:
		warns = append(warns, domain.Advisory{
			Code:     domain.CodeInsufficientSample,
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("only %d comparable sales qualified", n),
			Params:   map[string]float64{"sample_size": float64(n)},
		})
	}
	if n > 0 && q.AverageSimilarity < lowSimilarity {
		warns = append(warns, domain.Advisory{
			Code:     domain.CodeLowSimilarity,
			Severity: domain.SeverityWarning,
			Message:  "low average similarity may affect valuation reliability",
			Params:   map[string]float64{"average_similarity": q.AverageSimilarity},
		})
	}
	if q.AdjustmentRange > excessAdjustmentRange {
		warns = append(warns, domain.Advisory{
			Code:     domain.CodeExcessiveAdjustment,
			Severity: domain.SeverityWarning,
			Message:  "high adjustment range suggests the comparables are not truly comparable",
			Params:   map[string]float64{"adjustment_range": q.AdjustmentRange},
		})
	}
	if unpriced > 0 {
		warns = append(warns, domain.Advisory{
			Code:     domain.CodeUnpricedSales,
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("%d sales without a positive sale price were skipped", unpriced),
			Params:   map[string]float64{"unpriced": float64(unpriced)},
		})
	}
	return recs, warns
}
