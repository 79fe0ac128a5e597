package comps

import (
	"strings"
	"time"
)

// Criteria bounds the candidate search. Non-positive numeric fields take the
// defaults. MinSimilarity takes the default when nil or negative, so a zero
// floor keeps every sale that passes the filters.
type Criteria struct {
	MaxDistance   float64  `json:"max_distance" yaml:"max_distance" mapstructure:"max-distance"`
	MaxAgeMonths  float64  `json:"max_age_months" yaml:"max_age_months" mapstructure:"max-age-months"`
	MinSimilarity *float64 `json:"min_similarity,omitempty" yaml:"min_similarity,omitempty" mapstructure:"min-similarity"`
	MaxComps      int      `json:"max_comps" yaml:"max_comps" mapstructure:"max-comps"`
}

const defaultMinSimilarity = 0.6

// SimilarityFloor returns v as a MinSimilarity value.
func SimilarityFloor(v float64) *float64 { return &v }

// DefaultCriteria returns the baseline search: 1 mile, 12 months, 0.6 similarity, 10 comps.
func DefaultCriteria() Criteria {
	return Criteria{
		MaxDistance:   1.0,
		MaxAgeMonths:  12,
		MinSimilarity: SimilarityFloor(defaultMinSimilarity),
		MaxComps:      10,
	}
}

// floor is the resolved similarity floor. Call it after withDefaults.
func (c Criteria) floor() float64 {
	if c.MinSimilarity == nil {
		return defaultMinSimilarity
	}
	return *c.MinSimilarity
}

// EarliestSaleDate is the oldest sale date Select can keep as of asOf. Stores
// use it to skip stale sales before they reach the engine.
func (c Criteria) EarliestSaleDate(asOf time.Time) time.Time {
	days := c.withDefaults().MaxAgeMonths * daysPerMonth
	return asOf.Add(-time.Duration(days * 24 * float64(time.Hour)))
}

func (c Criteria) withDefaults() Criteria {
	d := DefaultCriteria()
	if c.MaxDistance <= 0 {
		c.MaxDistance = d.MaxDistance
	}
	if c.MaxAgeMonths <= 0 {
		c.MaxAgeMonths = d.MaxAgeMonths
	}
	if c.MinSimilarity == nil || *c.MinSimilarity < 0 {
		c.MinSimilarity = d.MinSimilarity
	}
	if c.MaxComps <= 0 {
		c.MaxComps = d.MaxComps
	}
	return c
}

// Weights of the similarity blend. They sum to 1.
const (
	locationWeight = 0.30
	sizeWeight     = 0.25
	ageWeight      = 0.20
	qualityWeight  = 0.15
	timingWeight   = 0.10
)

// Falloff distances for the factor scores.
const (
	locationFalloffMiles = 2.0
	ageFalloffYears      = 20.0
	qualityLevelSpan     = 5.0
	timingFalloffMonths  = 12.0
	daysPerMonth         = 30.0
)

// Adjustment rates.
const (
	pricePerSqft          = 50.0
	ageRatePerYear        = 0.02
	qualityRatePerLevel   = 0.05
	timeRatePerMonth      = 0.005
	locationRatePerMile   = -0.02
	locationAdjustMinDist = 0.5
)

var qualityLevels = map[string]int{
	"poor":      1,
	"fair":      2,
	"average":   3,
	"good":      4,
	"very good": 5,
	"excellent": 6,
}

// QualityLevel maps a quality grade to 1..6. Unknown grades are "average".
func QualityLevel(grade string) int {
	g := strings.ToLower(strings.TrimSpace(grade))
	g = strings.ReplaceAll(g, "_", " ")
	if lvl, ok := qualityLevels[g]; ok {
		return lvl
	}
	return qualityLevels["average"]
}
