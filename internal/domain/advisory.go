package domain

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// AdvisoryCode identifies the cause of a recommendation or warning so callers
// can branch on it without matching prose.
type AdvisoryCode string

// Comparable selection.
const (
	CodeWidenSearch         AdvisoryCode = "widen_search"
	CodeExtendTimeWindow    AdvisoryCode = "extend_time_window"
	CodeRelaxSimilarity     AdvisoryCode = "relax_similarity"
	CodeReviewAdjustments   AdvisoryCode = "review_adjustments"
	CodeNoComparables       AdvisoryCode = "no_comparables"
	CodeInsufficientSample  AdvisoryCode = "insufficient_sample"
	CodeLowSimilarity       AdvisoryCode = "low_similarity"
	CodeExcessiveAdjustment AdvisoryCode = "excessive_adjustment"
	CodeMissingSubjectData  AdvisoryCode = "missing_subject_data"
	CodeUnpricedSales       AdvisoryCode = "unpriced_sales"
)

// Equity.
const (
	CodeReappraiseUniformity AdvisoryCode = "reappraise_uniformity"
	CodeReviewVerticalEquity AdvisoryCode = "review_vertical_equity"
	CodeRecalibrateLevel     AdvisoryCode = "recalibrate_level"
	CodeReviewNeighborhood   AdvisoryCode = "review_neighborhood"
	CodeCollectCovariates    AdvisoryCode = "collect_covariates"
	CodeCODNonCompliant      AdvisoryCode = "cod_non_compliant"
	CodePRDNonCompliant      AdvisoryCode = "prd_non_compliant"
	CodeLevelNonCompliant    AdvisoryCode = "level_non_compliant"
	CodeRegressive           AdvisoryCode = "regressive"
	CodeProgressive          AdvisoryCode = "progressive"
	CodeBiasRisk             AdvisoryCode = "bias_risk"
	CodeNoAutocorrelation    AdvisoryCode = "autocorrelation_unavailable"
	CodeSmallSample          AdvisoryCode = "small_sample"
)

// Advisory is a structured recommendation or warning.
type Advisory struct {
	Code     AdvisoryCode       `json:"code" yaml:"code"`
	Severity Severity           `json:"severity" yaml:"severity"`
	Message  string             `json:"message" yaml:"message"`
	Params   map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
}

// HasCode reports whether any advisory in list carries code.
func HasCode(list []Advisory, code AdvisoryCode) bool {
	for _, a := range list {
		if a.Code == code {
			return true
		}
	}
	return false
}
