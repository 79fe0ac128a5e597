package equity

import (
	"math"
	"strings"

	"github.com/denisok6893-rgb/property-valuation/internal/domain"
	"github.com/denisok6893-rgb/property-valuation/internal/stats"
)

// covariate extracts a numeric attribute from a record; ok is false when unknown.
type covariate func(domain.AssessmentRecord) (float64, bool)

func pointer(get func(domain.AssessmentRecord) *float64) covariate {
	return func(r domain.AssessmentRecord) (float64, bool) {
		p := get(r)
		if p == nil {
			return 0, false
		}
		return *p, true
	}
}

func buildingAgeAtSale(r domain.AssessmentRecord) (float64, bool) {
	if r.YearBuilt <= 0 || r.SaleDate.IsZero() {
		return 0, false
	}
	return math.Max(0, float64(r.SaleDate.Year()-r.YearBuilt)), true
}

func livingArea(r domain.AssessmentRecord) (float64, bool) {
	return r.LivingArea, r.LivingArea > 0
}

// AnalyzeBias estimates how strongly assessment ratios depend on demographic,
// geographic and property characteristics. Every sub-score is either a real
// estimate in [0,1] or marked unavailable.
func AnalyzeBias(records []domain.AssessmentRecord, opts Options) domain.BiasAnalysis {
	opts = opts.withDefaults()
	qs := qualifying(records)
	minN := opts.MinCorrelationSamples

	b := domain.BiasAnalysis{
		Demographic: domain.DemographicBias{
			Income:    correlationBias(qs, pointer(func(r domain.AssessmentRecord) *float64 { return r.MedianIncome }), minN),
			Race:      correlationBias(qs, pointer(func(r domain.AssessmentRecord) *float64 { return r.MinorityShare }), minN),
			Age:       correlationBias(qs, pointer(func(r domain.AssessmentRecord) *float64 { return r.MedianResidentAge }), minN),
			Education: correlationBias(qs, pointer(func(r domain.AssessmentRecord) *float64 { return r.CollegeShare }), minN),
		},
		Geographic: domain.GeographicBias{
			UrbanRural:    urbanRuralBias(qs, opts.MinGroupSize),
			Proximity:     correlationBias(qs, pointer(func(r domain.AssessmentRecord) *float64 { return r.DistanceToCenter }), minN),
			Accessibility: correlationBias(qs, pointer(func(r domain.AssessmentRecord) *float64 { return r.AccessibilityScore }), minN),
		},
		Characteristic: domain.CharacteristicBias{
			ValueLevel:   valueLevelBias(qs, opts),
			PropertyType: propertyTypeBias(qs, opts.MinGroupSize),
			Age:          correlationBias(qs, buildingAgeAtSale, minN),
			Size:         correlationBias(qs, livingArea, minN),
		},
	}

	weighted := []struct {
		est    domain.Estimate
		weight float64
	}{
		{b.Demographic.Income, incomeBiasWeight},
		{b.Demographic.Race, raceBiasWeight},
		{b.Geographic.UrbanRural, urbanRuralBiasWeight},
		{b.Characteristic.ValueLevel, valueLevelBiasWeight},
	}
	for _, w := range weighted {
		if !w.est.Available {
			continue
		}
		b.OverallBiasScore += w.weight * w.est.Value
		b.Coverage += w.weight
	}
	b.OverallBiasScore = domain.Clamp01(b.OverallBiasScore)
	b.Coverage = domain.Clamp01(b.Coverage)
	b.RiskLevel = RiskLevel(b.OverallBiasScore)
	return b
}

// RiskLevel discretizes an overall bias score.
func RiskLevel(score float64) domain.RiskLevel {
	switch {
	case score >= 0.4:
		return domain.RiskCritical
	case score >= 0.3:
		return domain.RiskHigh
	case score >= 0.2:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// correlationBias is |Pearson r| between the ratio and the covariate.
func correlationBias(qs []domain.AssessmentRecord, cov covariate, minN int) domain.Estimate {
	var x, y []float64
	for _, r := range qs {
		v, ok := cov(r)
		if !ok {
			continue
		}
		x = append(x, v)
		y = append(y, r.Ratio())
	}
	est := domain.Estimate{Samples: len(x)}
	if len(x) < minN {
		return est
	}
	rho, ok := stats.Pearson(x, y)
	if !ok {
		return est
	}
	est.Value = domain.Clamp01(math.Abs(rho))
	est.Available = true
	return est
}

// groupDifference returns max - min of per-group median ratios over groups
// with at least minSize members. It needs two such groups.
func groupDifference(groups map[string][]float64, minSize int) domain.Estimate {
	var est domain.Estimate
	var medians []float64
	for _, ratios := range groups {
		est.Samples += len(ratios)
		if len(ratios) < minSize {
			continue
		}
		medians = append(medians, stats.Median(ratios))
	}
	if len(medians) < 2 {
		return est
	}
	lo, hi := stats.MinMax(medians)
	est.Value = domain.Clamp01(hi - lo)
	est.Available = true
	return est
}

func urbanRuralBias(qs []domain.AssessmentRecord, minSize int) domain.Estimate {
	groups := map[string][]float64{}
	for _, r := range qs {
		switch u := strings.ToLower(strings.TrimSpace(r.Urbanicity)); u {
		case "urban", "rural":
			groups[u] = append(groups[u], r.Ratio())
		}
	}
	return groupDifference(groups, minSize)
}

func propertyTypeBias(qs []domain.AssessmentRecord, minSize int) domain.Estimate {
	groups := map[string][]float64{}
	for _, r := range qs {
		t := domain.NormalizePropertyType(r.PropertyType)
		groups[t] = append(groups[t], r.Ratio())
	}
	return groupDifference(groups, minSize)
}

// valueLevelBias compares the median ratio of low-value and high-value sales.
func valueLevelBias(qs []domain.AssessmentRecord, opts Options) domain.Estimate {
	groups := map[string][]float64{}
	for _, r := range qs {
		switch {
		case r.SalePrice < opts.LowValueCeiling:
			groups["low"] = append(groups["low"], r.Ratio())
		case r.SalePrice > opts.HighValueFloor:
			groups["high"] = append(groups["high"], r.Ratio())
		}
	}
	return groupDifference(groups, opts.MinGroupSize)
}
