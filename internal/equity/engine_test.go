package equity

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denisok6893-rgb/property-valuation/internal/domain"
)

func rec(id string, assessed, sale float64) domain.AssessmentRecord {
	return domain.AssessmentRecord{
		ID:            id,
		Neighborhood:  "north",
		PropertyType:  "single_family",
		AssessedValue: assessed,
		SalePrice:     sale,
		SaleDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func ptr(v float64) *float64 { return &v }

func ratioSample() []domain.AssessmentRecord {
	var out []domain.AssessmentRecord
	for i, r := range []float64{0.90, 0.95, 1.00, 1.05, 1.10} {
		out = append(out, rec(fmt.Sprintf("r%d", i), 100000*r, 100000))
	}
	return out
}

// regressiveSample assesses low-value sales at 1.10 and high-value sales at 0.90.
func regressiveSample() []domain.AssessmentRecord {
	var out []domain.AssessmentRecord
	for i := 0; i < 5; i++ {
		low := 100000 + 10000*float64(i)
		high := 600000 + 100000*float64(i)
		out = append(out,
			rec(fmt.Sprintf("low%d", i), low*1.10, low),
			rec(fmt.Sprintf("high%d", i), high*0.90, high),
		)
	}
	return out
}

// compliantSample has 40 sales with ratios cycling 0.96..1.04 independent of price.
func compliantSample() []domain.AssessmentRecord {
	cycle := []float64{0.96, 0.98, 1.00, 1.02, 1.04}
	var out []domain.AssessmentRecord
	for i := 0; i < 40; i++ {
		price := 150000 + 10000*float64(i)
		out = append(out, rec(fmt.Sprintf("c%d", i), price*cycle[i%5], price))
	}
	return out
}

func TestComputeMetrics_RatioScenario(t *testing.T) {
	m, err := ComputeMetrics(ratioSample(), Options{})
	require.NoError(t, err)

	rs := m.RatioStudy
	assert.Equal(t, 5, rs.Count)
	assert.InDelta(t, 1.00, rs.Median, 1e-9)
	assert.InDelta(t, 1.00, rs.Mean, 1e-9)
	assert.InDelta(t, 1.00, rs.WeightedMean, 1e-9)
	assert.InDelta(t, 6.0, m.COD, 1e-9)
	assert.InDelta(t, 1.0, m.PRD, 1e-9)
	assert.InDelta(t, 100.0, m.AssessmentRatio, 1e-9)
	assert.InDelta(t, math.Sqrt(0.005), rs.StandardDeviation, 1e-9)

	half := 1.96 * math.Sqrt(0.005) / math.Sqrt(5)
	assert.InDelta(t, 1-half, rs.ConfidenceInterval.Lower, 1e-9)
	assert.InDelta(t, 1+half, rs.ConfidenceInterval.Upper, 1e-9)
	assert.InDelta(t, 0.90, rs.Min, 1e-9)
	assert.InDelta(t, 1.10, rs.Max, 1e-9)
	assert.InDelta(t, 0.92, rs.Percentiles.P10, 1e-9)
	assert.InDelta(t, 1.00, rs.Percentiles.P50, 1e-9)
	assert.InDelta(t, 1.08, rs.Percentiles.P90, 1e-9)
	// all sales share one price, so PRB is undefined
	assert.False(t, rs.PRB.Available)
	assert.Len(t, m.Tiers, 4)
}

func TestComputeMetrics_Accuracy(t *testing.T) {
	m, err := ComputeMetrics(ratioSample(), Options{})
	require.NoError(t, err)

	acc := m.RatioStudy.Accuracy
	assert.InDelta(t, 7071.07, acc.RMSE, 0.01)
	assert.InDelta(t, 6.0, acc.MAPE, 1e-9)
	assert.InDelta(t, 5000.0, acc.MedianAbsoluteError, 1e-6)
	assert.InDelta(t, 5.0, acc.MedianPercentError, 1e-9)
	// sale prices never vary, so there is nothing to correlate against
	assert.False(t, acc.RSquared.Available)
	assert.Equal(t, 5, acc.RSquared.Samples)

	require.Len(t, m.Spatial.Areas, 1)
	assert.InDelta(t, 6.0, m.Spatial.Areas[0].MeanErrorPct, 1e-9)

	require.Len(t, m.Tiers, 4)
	for i, want := range []float64{10, 5, 0, 7.5} {
		assert.InDelta(t, want, m.Tiers[i].MeanErrorPct, 1e-9, m.Tiers[i].Tier)
	}
}

func TestComputeMetrics_AccuracyTracksPrice(t *testing.T) {
	var records []domain.AssessmentRecord
	for i := 0; i < 6; i++ {
		price := 100000 + 50000*float64(i)
		records = append(records, rec(fmt.Sprintf("p%d", i), 0.9*price, price))
	}

	m, err := ComputeMetrics(records, Options{})
	require.NoError(t, err)

	acc := m.RatioStudy.Accuracy
	require.True(t, acc.RSquared.Available)
	assert.InDelta(t, 1.0, acc.RSquared.Value, 1e-9)
	assert.InDelta(t, 10.0, acc.MAPE, 1e-9)
	assert.InDelta(t, 10.0, acc.MedianPercentError, 1e-9)
	// errors are 10% of 100k..350k
	assert.InDelta(t, 22500.0, acc.MedianAbsoluteError, 1e-6)
}

func TestCOD_NonNegative(t *testing.T) {
	tests := []struct {
		name   string
		ratios []float64
		zero   bool
	}{
		{"all equal", []float64{0.95, 0.95, 0.95}, true},
		{"single", []float64{1.2}, true},
		{"spread", []float64{0.8, 1.0, 1.3}, false},
		{"one outlier", []float64{1, 1, 1, 1, 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := COD(tt.ratios)
			assert.GreaterOrEqual(t, got, 0.0)
			if tt.zero {
				assert.Equal(t, 0.0, got)
			} else {
				assert.Greater(t, got, 0.0)
			}
		})
	}
}

func TestComputeMetrics_NoQualifyingSales(t *testing.T) {
	records := []domain.AssessmentRecord{
		rec("a", 100000, 0),
		rec("b", 0, 200000),
	}
	_, err := ComputeMetrics(records, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoQualifyingSales))

	_, err = NewEngine(Options{}, nil).Assess(nil)
	assert.ErrorIs(t, err, ErrNoQualifyingSales)
}

func TestAssess_RegressiveRoll(t *testing.T) {
	a, err := NewEngine(Options{}, nil).Assess(regressiveSample())
	require.NoError(t, err)

	assert.Greater(t, a.Metrics.PRD, 1.03)
	assert.InDelta(t, 1.0798, a.Metrics.PRD, 1e-3)
	assert.False(t, a.Compliance.PRDCompliant)
	assert.False(t, a.Compliance.OverallCompliant)
	assert.True(t, domain.HasCode(a.Warnings, domain.CodeRegressive))
	assert.True(t, domain.HasCode(a.Warnings, domain.CodePRDNonCompliant))
	assert.True(t, domain.HasCode(a.Recommendations, domain.CodeReviewVerticalEquity))

	vl := a.Bias.Characteristic.ValueLevel
	require.True(t, vl.Available)
	assert.InDelta(t, 0.20, vl.Value, 1e-9)

	prb := a.Metrics.RatioStudy.PRB
	require.True(t, prb.Available)
	assert.Less(t, prb.Value, 0.0)
	assert.False(t, a.Compliance.PRBCompliant)
}

func TestAssess_CompliantRoll(t *testing.T) {
	a, err := NewEngine(Options{}, nil).Assess(compliantSample())
	require.NoError(t, err)

	assert.InDelta(t, 2.4, a.Metrics.COD, 1e-9)
	assert.InDelta(t, 0.99884, a.Metrics.PRD, 1e-4)
	assert.True(t, a.Compliance.CODCompliant)
	assert.True(t, a.Compliance.PRDCompliant)
	assert.True(t, a.Compliance.CoverageCompliant)
	assert.True(t, a.Compliance.OverallCompliant)
	assert.Equal(t, domain.GradeExcellent, a.Compliance.CODGrade)
	assert.Equal(t, domain.RiskLow, a.Bias.RiskLevel)
	assert.Greater(t, a.EquityScore, 0.99)
	assert.LessOrEqual(t, a.EquityScore, 1.0)

	require.Len(t, a.Warnings, 1)
	assert.Equal(t, domain.CodeNoAutocorrelation, a.Warnings[0].Code)
	assert.True(t, domain.HasCode(a.Recommendations, domain.CodeCollectCovariates))

	require.Len(t, a.Metrics.Tiers, 4)
	assert.Equal(t, 10, a.Metrics.Tiers[0].Count)
	assert.Less(t, a.Metrics.Tiers[0].MaxPrice, a.Metrics.Tiers[3].MinPrice)
}

func TestAssess_AdvisoriesSortedBySeverity(t *testing.T) {
	var records []domain.AssessmentRecord
	for i, r := range []float64{0.5, 0.7, 1.0, 1.4, 1.6, 0.6} {
		records = append(records, rec(fmt.Sprintf("x%d", i), 100000*r, 100000+float64(i)*50000))
	}
	a, err := NewEngine(Options{}, nil).Assess(records)
	require.NoError(t, err)

	for _, list := range [][]domain.Advisory{a.Recommendations, a.Warnings} {
		for i := 1; i < len(list); i++ {
			assert.LessOrEqual(t, severityRank[list[i-1].Severity], severityRank[list[i].Severity])
		}
	}
	assert.True(t, domain.HasCode(a.Warnings, domain.CodeCODNonCompliant))
	assert.True(t, domain.HasCode(a.Warnings, domain.CodeSmallSample))
}

func TestSpatialEquity_NeighborhoodVariance(t *testing.T) {
	records := []domain.AssessmentRecord{
		rec("a1", 100000, 100000),
		rec("a2", 200000, 200000),
		rec("b1", 80000, 100000),
		rec("b2", 160000, 200000),
	}
	records[0].Neighborhood, records[1].Neighborhood = "alpha", "alpha"
	records[2].Neighborhood, records[3].Neighborhood = "beta", ""

	m, err := ComputeMetrics(records, Options{})
	require.NoError(t, err)

	areas := m.Spatial.Areas
	require.Len(t, areas, 3)
	assert.Equal(t, "alpha", areas[0].Neighborhood)
	assert.Equal(t, "beta", areas[1].Neighborhood)
	assert.Equal(t, unassignedArea, areas[2].Neighborhood)
	assert.InDelta(t, 1.0, areas[0].RatioLevel, 1e-9)
	assert.InDelta(t, 1.0, areas[0].EquityScore, 1e-9)
	assert.InDelta(t, 20.0, areas[1].MeanErrorPct, 1e-9)
	// levels 1.0, 0.8, 0.8
	assert.InDelta(t, 0.0088889, m.Spatial.NeighborhoodVariance, 1e-6)
}

func TestMoransI(t *testing.T) {
	const mileLat = 1.0 / 69.09
	cluster := func(prefix string, lat float64, ratios ...float64) []domain.AssessmentRecord {
		var out []domain.AssessmentRecord
		for i, r := range ratios {
			x := rec(fmt.Sprintf("%s%d", prefix, i), 300000*r, 300000)
			x.Latitude = lat + float64(i)*0.1*mileLat
			x.Longitude = -104.99
			out = append(out, x)
		}
		return out
	}

	t.Run("clustered ratios are positively autocorrelated", func(t *testing.T) {
		records := append(cluster("w", 39.70, 1.10, 1.12, 1.08), cluster("e", 39.70+5*mileLat, 0.90, 0.92, 0.88)...)
		ac := moransI(records, 2.0)
		require.True(t, ac.Available)
		assert.Equal(t, 6, ac.Samples)
		assert.InDelta(t, -0.2, ac.Expected, 1e-9)
		assert.Greater(t, ac.MoransI, 0.5)
	})

	t.Run("too few geocoded records", func(t *testing.T) {
		records := append(cluster("w", 39.70, 1.10, 0.9), rec("nogeo", 100000, 100000))
		ac := moransI(records, 2.0)
		assert.False(t, ac.Available)
		assert.Equal(t, 2, ac.Samples)
	})

	t.Run("no neighbours inside the band", func(t *testing.T) {
		var records []domain.AssessmentRecord
		for i, r := range []float64{1.1, 0.9, 1.0} {
			records = append(records, cluster(fmt.Sprintf("p%d", i), 39.70+float64(i)*10*mileLat, r)...)
		}
		assert.False(t, moransI(records, 2.0).Available)
	})
}

func TestAnalyzeBias_IncomeCorrelation(t *testing.T) {
	var records []domain.AssessmentRecord
	for i := 0; i < 6; i++ {
		r := rec(fmt.Sprintf("i%d", i), 300000*(1.15-0.05*float64(i)), 300000)
		r.MedianIncome = ptr(40000 + 10000*float64(i))
		records = append(records, r)
	}

	b := AnalyzeBias(records, Options{})

	require.True(t, b.Demographic.Income.Available)
	assert.InDelta(t, 1.0, b.Demographic.Income.Value, 1e-9)
	assert.Equal(t, 6, b.Demographic.Income.Samples)
	assert.False(t, b.Demographic.Race.Available)
	assert.False(t, b.Geographic.UrbanRural.Available)
	assert.False(t, b.Characteristic.ValueLevel.Available)
	assert.InDelta(t, 0.25, b.OverallBiasScore, 1e-9)
	assert.InDelta(t, 0.25, b.Coverage, 1e-9)
	assert.Equal(t, domain.RiskMedium, b.RiskLevel)
}

func TestAnalyzeBias_GroupEstimators(t *testing.T) {
	var records []domain.AssessmentRecord
	for i := 0; i < 3; i++ {
		u := rec(fmt.Sprintf("u%d", i), 300000, 300000)
		u.Urbanicity = "Urban"
		u.PropertyType = "condo"
		r := rec(fmt.Sprintf("r%d", i), 255000, 300000)
		r.Urbanicity = "rural"
		s := rec(fmt.Sprintf("s%d", i), 285000, 300000)
		s.Urbanicity = "suburban"
		records = append(records, u, r, s)
	}

	b := AnalyzeBias(records, Options{})

	require.True(t, b.Geographic.UrbanRural.Available)
	assert.InDelta(t, 0.15, b.Geographic.UrbanRural.Value, 1e-9)
	require.True(t, b.Characteristic.PropertyType.Available)
	// condo median 1.0, single_family median (0.85+0.95)/2
	assert.InDelta(t, 0.10, b.Characteristic.PropertyType.Value, 1e-9)
	assert.InDelta(t, 0.20*0.15, b.OverallBiasScore, 1e-9)
}

func TestRiskLevel(t *testing.T) {
	tests := []struct {
		score float64
		want  domain.RiskLevel
	}{
		{0, domain.RiskLow},
		{0.19, domain.RiskLow},
		{0.2, domain.RiskMedium},
		{0.3, domain.RiskHigh},
		{0.4, domain.RiskCritical},
		{1, domain.RiskCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskLevel(tt.score), "score %.2f", tt.score)
	}
}

func TestCheckCompliance(t *testing.T) {
	tests := []struct {
		name    string
		m       domain.EquityMetrics
		codG    domain.Grade
		prdG    domain.Grade
		overall bool
	}{
		{"excellent", domain.EquityMetrics{COD: 8, PRD: 1.0, AssessmentRatio: 98}, domain.GradeExcellent, domain.GradeExcellent, true},
		{"good", domain.EquityMetrics{COD: 14, PRD: 1.04, AssessmentRatio: 92}, domain.GradeGood, domain.GradeGood, true},
		{"fair cod", domain.EquityMetrics{COD: 18, PRD: 1.0, AssessmentRatio: 100}, domain.GradeFair, domain.GradeExcellent, false},
		{"poor prd", domain.EquityMetrics{COD: 9, PRD: 1.2, AssessmentRatio: 100}, domain.GradeExcellent, domain.GradePoor, false},
		{"level too low", domain.EquityMetrics{COD: 9, PRD: 1.0, AssessmentRatio: 89}, domain.GradeExcellent, domain.GradeExcellent, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CheckCompliance(tt.m)
			assert.Equal(t, tt.codG, c.CODGrade)
			assert.Equal(t, tt.prdG, c.PRDGrade)
			assert.Equal(t, tt.overall, c.OverallCompliant)
		})
	}

	c := CheckCompliance(domain.EquityMetrics{COD: 5, PRD: 0.95, AssessmentRatio: 100})
	assert.True(t, c.Progressive)
	assert.True(t, c.PRDCompliant)
}

func TestScore(t *testing.T) {
	m := domain.EquityMetrics{COD: 20, PRD: 1.08, Spatial: domain.SpatialEquity{NeighborhoodVariance: 0.02}}
	b := domain.BiasAnalysis{OverallBiasScore: 0.1}
	assert.InDelta(t, 0.69, Score(m, b), 1e-9)

	worst := domain.EquityMetrics{COD: 90, PRD: 1.6}
	assert.Equal(t, 0.0, Score(worst, domain.BiasAnalysis{OverallBiasScore: 0.5}))
	assert.Equal(t, 1.0, Score(domain.EquityMetrics{COD: 5, PRD: 1.0}, domain.BiasAnalysis{}))
}
