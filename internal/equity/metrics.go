package equity

import (
	"fmt"
	"math"
	"sort"

	"github.com/denisok6893-rgb/property-valuation/internal/domain"
	"github.com/denisok6893-rgb/property-valuation/internal/stats"
)

const (
	z95           = 1.96
	minPRBSamples = 5
	tierCount     = 4
)

var tierNames = [tierCount]string{"low", "medium_low", "medium_high", "high"}

// qualifying keeps the records that carry both an assessed value and a sale price.
func qualifying(records []domain.AssessmentRecord) []domain.AssessmentRecord {
	out := make([]domain.AssessmentRecord, 0, len(records))
	for _, r := range records {
		if r.Qualifies() {
			out = append(out, r)
		}
	}
	return out
}

func ratiosOf(records []domain.AssessmentRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Ratio()
	}
	return out
}

// COD is the coefficient of dispersion: 100 x mean absolute deviation about
// the median, over the median.
func COD(ratios []float64) float64 {
	med := stats.Median(ratios)
	if med == 0 {
		return 0
	}
	return 100 * stats.MeanAbsDeviation(ratios, med) / med
}

// ComputeMetrics runs the ratio study and the spatial breakdown.
func ComputeMetrics(records []domain.AssessmentRecord, opts Options) (domain.EquityMetrics, error) {
	opts = opts.withDefaults()
	qs := qualifying(records)
	if len(qs) == 0 {
		return domain.EquityMetrics{}, fmt.Errorf("compute ratio study over %d records: %w", len(records), ErrNoQualifyingSales)
	}

	ratios := ratiosOf(qs)
	var assessed, sold float64
	for _, r := range qs {
		assessed += r.AssessedValue
		sold += r.SalePrice
	}

	rs := ratioStudy(qs, ratios)
	rs.WeightedMean = assessed / sold

	m := domain.EquityMetrics{
		COD:             COD(ratios),
		AssessmentRatio: rs.Median * 100,
		RatioStudy:      rs,
		Spatial:         spatialEquity(qs, opts),
		Tiers:           valueTiers(qs),
	}
	if rs.WeightedMean > 0 {
		m.PRD = rs.Mean / rs.WeightedMean
	}
	return m, nil
}

func ratioStudy(qs []domain.AssessmentRecord, ratios []float64) domain.RatioStudy {
	n := len(ratios)
	mean := stats.Mean(ratios)
	sd := stats.StdDev(ratios)
	half := z95 * sd / math.Sqrt(float64(n))
	lo, hi := stats.MinMax(ratios)

	return domain.RatioStudy{
		Count:              n,
		Median:             stats.Median(ratios),
		Mean:               mean,
		StandardDeviation:  sd,
		ConfidenceInterval: domain.Interval{Lower: mean - half, Upper: mean + half},
		Min:                lo,
		Max:                hi,
		Percentiles: domain.Percentiles{
			P10: stats.Quantile(ratios, 0.10),
			P25: stats.Quantile(ratios, 0.25),
			P50: stats.Quantile(ratios, 0.50),
			P75: stats.Quantile(ratios, 0.75),
			P90: stats.Quantile(ratios, 0.90),
		},
		PRB:      priceRelatedBias(qs, ratios),
		Accuracy: accuracy(qs, ratios),
	}
}

// meanErrorPct is the mean absolute percentage error implied by ratios.
func meanErrorPct(ratios []float64) float64 {
	return 100 * stats.MeanAbsDeviation(ratios, 1)
}

// accuracy measures assessed values against sale prices. R squared is the
// squared correlation of the two and needs variance on both sides.
func accuracy(qs []domain.AssessmentRecord, ratios []float64) domain.Accuracy {
	n := len(qs)
	assessed := make([]float64, n)
	sold := make([]float64, n)
	absErr := make([]float64, n)
	pctErr := make([]float64, n)
	var sq float64
	for i, r := range qs {
		assessed[i] = r.AssessedValue
		sold[i] = r.SalePrice
		d := r.AssessedValue - r.SalePrice
		sq += d * d
		absErr[i] = math.Abs(d)
		pctErr[i] = 100 * math.Abs(ratios[i]-1)
	}

	out := domain.Accuracy{
		RMSE:                math.Sqrt(sq / float64(n)),
		MAPE:                meanErrorPct(ratios),
		RSquared:            domain.Estimate{Samples: n},
		MedianAbsoluteError: stats.Median(absErr),
		MedianPercentError:  stats.Median(pctErr),
	}
	if r, ok := stats.Pearson(sold, assessed); ok {
		out.RSquared.Value = r * r
		out.RSquared.Available = true
	}
	return out
}

// priceRelatedBias is the OLS slope of ln(ratio) on ln(sale price).
func priceRelatedBias(qs []domain.AssessmentRecord, ratios []float64) domain.Estimate {
	est := domain.Estimate{Samples: len(qs)}
	if len(qs) < minPRBSamples {
		return est
	}
	x := make([]float64, len(qs))
	y := make([]float64, len(qs))
	for i, r := range qs {
		x[i] = math.Log(r.SalePrice)
		y[i] = math.Log(ratios[i])
	}
	slope, ok := stats.Slope(x, y)
	if !ok {
		return est
	}
	est.Value = slope
	est.Available = true
	return est
}

// valueTiers splits the sample into sale-price quartiles.
func valueTiers(qs []domain.AssessmentRecord) []domain.ValueTier {
	n := len(qs)
	if n < tierCount {
		return nil
	}
	sorted := make([]domain.AssessmentRecord, n)
	copy(sorted, qs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].SalePrice < sorted[j].SalePrice })

	tiers := make([]domain.ValueTier, 0, tierCount)
	for t := 0; t < tierCount; t++ {
		group := sorted[t*n/tierCount : (t+1)*n/tierCount]
		ratios := ratiosOf(group)
		tiers = append(tiers, domain.ValueTier{
			Tier:         tierNames[t],
			Count:        len(group),
			MinPrice:     group[0].SalePrice,
			MaxPrice:     group[len(group)-1].SalePrice,
			MedianRatio:  stats.Median(ratios),
			COD:          COD(ratios),
			MeanErrorPct: meanErrorPct(ratios),
		})
	}
	return tiers
}
