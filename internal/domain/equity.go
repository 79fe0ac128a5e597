package domain

import "time"

// AssessmentRecord pairs an assessed value with a sale and optional area covariates.
// Pointer covariates are nil when unknown.
type AssessmentRecord struct {
	ID            string    `json:"id" yaml:"id"`
	Neighborhood  string    `json:"neighborhood" yaml:"neighborhood"`
	PropertyType  string    `json:"property_type" yaml:"property_type"`
	AssessedValue float64   `json:"assessed_value" yaml:"assessed_value"`
	SalePrice     float64   `json:"sale_price" yaml:"sale_price"`
	SaleDate      time.Time `json:"sale_date" yaml:"sale_date"`
	YearBuilt     int       `json:"year_built" yaml:"year_built"`
	LivingArea    float64   `json:"living_area" yaml:"living_area"`
	Latitude      float64   `json:"latitude" yaml:"latitude"`
	Longitude     float64   `json:"longitude" yaml:"longitude"`

	MedianIncome       *float64 `json:"median_income,omitempty" yaml:"median_income,omitempty"`
	MinorityShare      *float64 `json:"minority_share,omitempty" yaml:"minority_share,omitempty"`
	MedianResidentAge  *float64 `json:"median_resident_age,omitempty" yaml:"median_resident_age,omitempty"`
	CollegeShare       *float64 `json:"college_share,omitempty" yaml:"college_share,omitempty"`
	Urbanicity         string   `json:"urbanicity,omitempty" yaml:"urbanicity,omitempty"`
	DistanceToCenter   *float64 `json:"distance_to_center,omitempty" yaml:"distance_to_center,omitempty"`
	AccessibilityScore *float64 `json:"accessibility_score,omitempty" yaml:"accessibility_score,omitempty"`
}

// Qualifies reports whether the record can enter a ratio study.
func (r AssessmentRecord) Qualifies() bool {
	return r.AssessedValue > 0 && r.SalePrice > 0
}

// Ratio is assessed value over sale price. Callers check Qualifies first.
func (r AssessmentRecord) Ratio() float64 {
	return r.AssessedValue / r.SalePrice
}

func (r AssessmentRecord) HasLocation() bool {
	return r.Latitude != 0 || r.Longitude != 0
}

type Interval struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

type Percentiles struct {
	P10 float64 `json:"p10" yaml:"p10"`
	P25 float64 `json:"p25" yaml:"p25"`
	P50 float64 `json:"p50" yaml:"p50"`
	P75 float64 `json:"p75" yaml:"p75"`
	P90 float64 `json:"p90" yaml:"p90"`
}

// Estimate is a statistic that may not be computable for a given sample.
type Estimate struct {
	Value     float64 `json:"value" yaml:"value"`
	Samples   int     `json:"samples" yaml:"samples"`
	Available bool    `json:"available" yaml:"available"`
}

type RatioStudy struct {
	Count              int         `json:"count" yaml:"count"`
	Median             float64     `json:"median" yaml:"median"`
	Mean               float64     `json:"mean" yaml:"mean"`
	WeightedMean       float64     `json:"weighted_mean" yaml:"weighted_mean"`
	StandardDeviation  float64     `json:"standard_deviation" yaml:"standard_deviation"`
	ConfidenceInterval Interval    `json:"confidence_interval" yaml:"confidence_interval"`
	Min                float64     `json:"min" yaml:"min"`
	Max                float64     `json:"max" yaml:"max"`
	Percentiles        Percentiles `json:"percentiles" yaml:"percentiles"`
	PRB                Estimate    `json:"prb" yaml:"prb"`
	Accuracy           Accuracy    `json:"accuracy" yaml:"accuracy"`
}

// Accuracy compares assessed values with sale prices in currency and percent.
// Percent errors are absolute.
type Accuracy struct {
	RMSE                float64  `json:"rmse" yaml:"rmse"`
	MAPE                float64  `json:"mape" yaml:"mape"`
	RSquared            Estimate `json:"r_squared" yaml:"r_squared"`
	MedianAbsoluteError float64  `json:"median_absolute_error" yaml:"median_absolute_error"`
	MedianPercentError  float64  `json:"median_percent_error" yaml:"median_percent_error"`
}

type AreaEquity struct {
	Neighborhood string  `json:"neighborhood" yaml:"neighborhood"`
	Count        int     `json:"count" yaml:"count"`
	RatioLevel   float64 `json:"ratio_level" yaml:"ratio_level"`
	MedianRatio  float64 `json:"median_ratio" yaml:"median_ratio"`
	Variance     float64 `json:"variance" yaml:"variance"`
	COD          float64 `json:"cod" yaml:"cod"`
	MeanErrorPct float64 `json:"mean_error_pct" yaml:"mean_error_pct"`
	EquityScore  float64 `json:"equity_score" yaml:"equity_score"`
}

// Autocorrelation is a global Moran's I of assessment ratios.
type Autocorrelation struct {
	MoransI   float64 `json:"morans_i" yaml:"morans_i"`
	Expected  float64 `json:"expected" yaml:"expected"`
	Samples   int     `json:"samples" yaml:"samples"`
	Available bool    `json:"available" yaml:"available"`
}

type SpatialEquity struct {
	Areas                []AreaEquity    `json:"areas" yaml:"areas"`
	NeighborhoodVariance float64         `json:"neighborhood_variance" yaml:"neighborhood_variance"`
	Autocorrelation      Autocorrelation `json:"autocorrelation" yaml:"autocorrelation"`
}

type ValueTier struct {
	Tier         string  `json:"tier" yaml:"tier"`
	Count        int     `json:"count" yaml:"count"`
	MinPrice     float64 `json:"min_price" yaml:"min_price"`
	MaxPrice     float64 `json:"max_price" yaml:"max_price"`
	MedianRatio  float64 `json:"median_ratio" yaml:"median_ratio"`
	COD          float64 `json:"cod" yaml:"cod"`
	MeanErrorPct float64 `json:"mean_error_pct" yaml:"mean_error_pct"`
}

type EquityMetrics struct {
	COD             float64       `json:"cod" yaml:"cod"`
	PRD             float64       `json:"prd" yaml:"prd"`
	AssessmentRatio float64       `json:"assessment_ratio" yaml:"assessment_ratio"`
	RatioStudy      RatioStudy    `json:"ratio_study" yaml:"ratio_study"`
	Spatial         SpatialEquity `json:"spatial" yaml:"spatial"`
	Tiers           []ValueTier   `json:"tiers,omitempty" yaml:"tiers,omitempty"`
}

type DemographicBias struct {
	Income    Estimate `json:"income" yaml:"income"`
	Race      Estimate `json:"race" yaml:"race"`
	Age       Estimate `json:"age" yaml:"age"`
	Education Estimate `json:"education" yaml:"education"`
}

type GeographicBias struct {
	UrbanRural    Estimate `json:"urban_rural" yaml:"urban_rural"`
	Proximity     Estimate `json:"proximity" yaml:"proximity"`
	Accessibility Estimate `json:"accessibility" yaml:"accessibility"`
}

type CharacteristicBias struct {
	ValueLevel   Estimate `json:"value_level" yaml:"value_level"`
	PropertyType Estimate `json:"property_type" yaml:"property_type"`
	Age          Estimate `json:"age" yaml:"age"`
	Size         Estimate `json:"size" yaml:"size"`
}

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

type BiasAnalysis struct {
	Demographic      DemographicBias    `json:"demographic" yaml:"demographic"`
	Geographic       GeographicBias     `json:"geographic" yaml:"geographic"`
	Characteristic   CharacteristicBias `json:"characteristic" yaml:"characteristic"`
	OverallBiasScore float64            `json:"overall_bias_score" yaml:"overall_bias_score"`

	// Coverage is the share of the overall weight backed by available estimates.
	Coverage  float64   `json:"coverage" yaml:"coverage"`
	RiskLevel RiskLevel `json:"risk_level" yaml:"risk_level"`
}

type Grade string

const (
	GradeExcellent Grade = "excellent"
	GradeGood      Grade = "good"
	GradeFair      Grade = "fair"
	GradePoor      Grade = "poor"
)

type Compliance struct {
	CODGrade          Grade `json:"cod_grade" yaml:"cod_grade"`
	PRDGrade          Grade `json:"prd_grade" yaml:"prd_grade"`
	CODCompliant      bool  `json:"cod_compliant" yaml:"cod_compliant"`
	PRDCompliant      bool  `json:"prd_compliant" yaml:"prd_compliant"`
	CoverageCompliant bool  `json:"coverage_compliant" yaml:"coverage_compliant"`
	OverallCompliant  bool  `json:"overall_compliant" yaml:"overall_compliant"`
	PRBCompliant      bool  `json:"prb_compliant" yaml:"prb_compliant"`
	Progressive       bool  `json:"progressive" yaml:"progressive"`
}

type EquityAssessment struct {
	Metrics         EquityMetrics `json:"metrics" yaml:"metrics"`
	Bias            BiasAnalysis  `json:"bias" yaml:"bias"`
	Compliance      Compliance    `json:"compliance" yaml:"compliance"`
	EquityScore     float64       `json:"equity_score" yaml:"equity_score"`
	Recommendations []Advisory    `json:"recommendations" yaml:"recommendations"`
	Warnings        []Advisory    `json:"warnings" yaml:"warnings"`
}
