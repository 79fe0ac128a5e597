package domain

import (
	"strings"
	"time"
)

const (
	DefaultQuality      = "average"
	DefaultCondition    = "average"
	DefaultPropertyType = "single_family"
)

// SubjectProperty is the property being valued. It is never mutated by the engines.
type SubjectProperty struct {
	ID           string  `json:"id" yaml:"id"`
	Address      string  `json:"address" yaml:"address"`
	LivingArea   float64 `json:"living_area" yaml:"living_area"`
	LotSize      float64 `json:"lot_size" yaml:"lot_size"`
	Bedrooms     int     `json:"bedrooms" yaml:"bedrooms"`
	Bathrooms    float64 `json:"bathrooms" yaml:"bathrooms"`
	YearBuilt    int     `json:"year_built" yaml:"year_built"`
	Condition    string  `json:"condition" yaml:"condition"`
	Quality      string  `json:"quality" yaml:"quality"`
	Latitude     float64 `json:"latitude" yaml:"latitude"`
	Longitude    float64 `json:"longitude" yaml:"longitude"`
	Neighborhood string  `json:"neighborhood" yaml:"neighborhood"`
	PropertyType string  `json:"property_type" yaml:"property_type"`
}

// AgeAt returns the building age in years at asOf, or 0 when the year built is unknown.
func (s SubjectProperty) AgeAt(asOf time.Time) float64 {
	return ageAt(s.YearBuilt, asOf)
}

// HasLocation reports whether the subject carries usable coordinates.
func (s SubjectProperty) HasLocation() bool {
	return s.Latitude != 0 || s.Longitude != 0
}

// ComparableSale is a historical arm's-length transaction.
type ComparableSale struct {
	ID            string    `json:"id" yaml:"id"`
	Address       string    `json:"address" yaml:"address"`
	SalePrice     float64   `json:"sale_price" yaml:"sale_price"`
	SaleDate      time.Time `json:"sale_date" yaml:"sale_date"`
	LivingArea    float64   `json:"living_area" yaml:"living_area"`
	LotSize       float64   `json:"lot_size" yaml:"lot_size"`
	Bedrooms      int       `json:"bedrooms" yaml:"bedrooms"`
	Bathrooms     float64   `json:"bathrooms" yaml:"bathrooms"`
	YearBuilt     int       `json:"year_built" yaml:"year_built"`
	Condition     string    `json:"condition" yaml:"condition"`
	Quality       string    `json:"quality" yaml:"quality"`
	Latitude      float64   `json:"latitude" yaml:"latitude"`
	Longitude     float64   `json:"longitude" yaml:"longitude"`
	Neighborhood  string    `json:"neighborhood" yaml:"neighborhood"`
	DaysOnMarket  int       `json:"days_on_market" yaml:"days_on_market"`
	FinancingType string    `json:"financing_type" yaml:"financing_type"`
	PropertyType  string    `json:"property_type" yaml:"property_type"`
}

func (c ComparableSale) AgeAt(asOf time.Time) float64 {
	return ageAt(c.YearBuilt, asOf)
}

func ageAt(yearBuilt int, asOf time.Time) float64 {
	if yearBuilt <= 0 || asOf.IsZero() {
		return 0
	}
	age := asOf.Year() - yearBuilt
	if age < 0 {
		return 0
	}
	return float64(age)
}

// NormalizePropertyType lowercases and trims t, falling back to DefaultPropertyType.
func NormalizePropertyType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" {
		return DefaultPropertyType
	}
	return t
}

// FactorScores holds the five normalized similarity factors, each in [0,1].
type FactorScores struct {
	Location float64 `json:"location" yaml:"location"`
	Size     float64 `json:"size" yaml:"size"`
	Age      float64 `json:"age" yaml:"age"`
	Quality  float64 `json:"quality" yaml:"quality"`
	Timing   float64 `json:"timing" yaml:"timing"`
}

// Adjustments are signed dollar line items applied to a comparable's sale price.
type Adjustments struct {
	Size     float64 `json:"size" yaml:"size"`
	Age      float64 `json:"age" yaml:"age"`
	Quality  float64 `json:"quality" yaml:"quality"`
	Time     float64 `json:"time" yaml:"time"`
	Location float64 `json:"location" yaml:"location"`
	Net      float64 `json:"net" yaml:"net"`
}

// Sum adds the five line items. Net is never part of the sum.
func (a Adjustments) Sum() float64 {
	return a.Size + a.Age + a.Quality + a.Time + a.Location
}

type SimilarityScore struct {
	Overall     float64      `json:"overall" yaml:"overall"`
	Factors     FactorScores `json:"factors" yaml:"factors"`
	Adjustments Adjustments  `json:"adjustments" yaml:"adjustments"`
}

// AdjustedComp is a comparable sale after scoring and adjustment.
type AdjustedComp struct {
	Sale          ComparableSale  `json:"sale" yaml:"sale"`
	DistanceMiles float64         `json:"distance_miles" yaml:"distance_miles"`
	SaleAgeMonths float64         `json:"sale_age_months" yaml:"sale_age_months"`
	Similarity    SimilarityScore `json:"similarity" yaml:"similarity"`
	AdjustedPrice float64         `json:"adjusted_price" yaml:"adjusted_price"`
}

type QualityMetrics struct {
	SampleSize        int     `json:"sample_size" yaml:"sample_size"`
	AverageSimilarity float64 `json:"average_similarity" yaml:"average_similarity"`
	AdjustmentRange   float64 `json:"adjustment_range" yaml:"adjustment_range"`
	TimeSpread        float64 `json:"time_spread" yaml:"time_spread"`
}

// CompAnalysis is the result of one comparable-selection run.
type CompAnalysis struct {
	SubjectID       string         `json:"subject_id" yaml:"subject_id"`
	AsOf            time.Time      `json:"as_of" yaml:"as_of"`
	CandidateCount  int            `json:"candidate_count" yaml:"candidate_count"`
	FilteredCount   int            `json:"filtered_count" yaml:"filtered_count"`
	SelectedComps   []AdjustedComp `json:"selected_comps" yaml:"selected_comps"`
	IndicatedValue  float64        `json:"indicated_value" yaml:"indicated_value"`
	Confidence      float64        `json:"confidence" yaml:"confidence"`
	Quality         QualityMetrics `json:"quality" yaml:"quality"`
	Recommendations []Advisory     `json:"recommendations" yaml:"recommendations"`
	Warnings        []Advisory     `json:"warnings" yaml:"warnings"`
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 bounds v to [0,1].
func Clamp01(v float64) float64 { return clamp(v, 0, 1) }

// Clamp bounds v to [lo,hi].
func Clamp(v, lo, hi float64) float64 { return clamp(v, lo, hi) }
