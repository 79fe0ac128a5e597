package equity

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/denisok6893-rgb/property-valuation/internal/domain"
)

// areaReviewCOD flags neighborhoods whose own COD exceeds the fair threshold.
const areaReviewCOD = codFair

// Engine runs ratio studies and bias analysis. It is stateless and safe for
// concurrent use.
type Engine struct {
	opts   Options
	logger *slog.Logger
}

func NewEngine(opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{opts: opts.withDefaults(), logger: logger}
}

// Assess computes metrics, bias, compliance and the weighted equity score.
// It returns an error wrapping ErrNoQualifyingSales when no record can enter
// the ratio study.
func (e *Engine) Assess(records []domain.AssessmentRecord) (domain.EquityAssessment, error) {
	m, err := ComputeMetrics(records, e.opts)
	if err != nil {
		return domain.EquityAssessment{}, fmt.Errorf("assess equity: %w", err)
	}
	b := AnalyzeBias(records, e.opts)
	c := CheckCompliance(m)

	out := domain.EquityAssessment{
		Metrics:     m,
		Bias:        b,
		Compliance:  c,
		EquityScore: Score(m, b),
	}
	out.Recommendations = e.recommend(out)
	out.Warnings = e.warn(out)

	e.logger.Debug("equity assessed",
		slog.Int("records", len(records)),
		slog.Int("qualifying", m.RatioStudy.Count),
		slog.Float64("cod", m.COD),
		slog.Float64("prd", m.PRD),
		slog.String("risk", string(b.RiskLevel)),
		slog.Bool("compliant", c.OverallCompliant),
	)
	return out, nil
}

func (e *Engine) recommend(a domain.EquityAssessment) []domain.Advisory {
	m, c := a.Metrics, a.Compliance
	recs := []domain.Advisory{}

	if !c.CODCompliant {
		sev := domain.SeverityWarning
		if c.CODGrade == domain.GradePoor {
			sev = domain.SeverityCritical
		}
		recs = append(recs, domain.Advisory{
			Code:     domain.CodeReappraiseUniformity,
			Severity: sev,
			Message:  fmt.Sprintf("COD %.1f exceeds %.0f; review valuation models and reappraise outlying strata", m.COD, codGood),
			Params:   map[string]float64{"cod": m.COD, "threshold": codGood},
		})
	}
	if !c.PRDCompliant || c.Progressive {
		sev := domain.SeverityWarning
		if c.PRDGrade == domain.GradePoor {
			sev = domain.SeverityCritical
		}
		recs = append(recs, domain.Advisory{
			Code:     domain.CodeReviewVerticalEquity,
			Severity: sev,
			Message:  fmt.Sprintf("PRD %.3f is outside %.2f-%.2f; recalibrate value-dependent model terms", m.PRD, prdFloor, prdGood),
			Params:   map[string]float64{"prd": m.PRD},
		})
	}
	if !c.CoverageCompliant {
		recs = append(recs, domain.Advisory{
			Code:     domain.CodeRecalibrateLevel,
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("assessment level %.1f%% is outside %.0f%% +/- %.0f", m.AssessmentRatio, levelTarget, levelTolerance),
			Params:   map[string]float64{"assessment_ratio": m.AssessmentRatio},
		})
	}
	for _, area := range m.Spatial.Areas {
		if area.Count < e.opts.MinGroupSize || area.COD <= areaReviewCOD {
			continue
		}
		recs = append(recs, domain.Advisory{
			Code:     domain.CodeReviewNeighborhood,
			Severity: domain.SeverityInfo,
			Message:  fmt.Sprintf("neighborhood %s shows high variability (COD %.1f); review its comparable selection", area.Neighborhood, area.COD),
			Params:   map[string]float64{"cod": area.COD, "count": float64(area.Count)},
		})
	}
	if a.Bias.Coverage < 1 {
		recs = append(recs, domain.Advisory{
			Code:     domain.CodeCollectCovariates,
			Severity: domain.SeverityInfo,
			Message:  "some bias estimators lack data; attach area demographics and urbanicity to assessment records",
			Params:   map[string]float64{"coverage": a.Bias.Coverage},
		})
	}
	byPriority(recs)
	return recs
}

func (e *Engine) warn(a domain.EquityAssessment) []domain.Advisory {
	m, c, b := a.Metrics, a.Compliance, a.Bias
	warns := []domain.Advisory{}

	if !c.CODCompliant {
		sev := domain.SeverityWarning
		if c.CODGrade == domain.GradePoor {
			sev = domain.SeverityCritical
		}
		warns = append(warns, domain.Advisory{
			Code:     domain.CodeCODNonCompliant,
			Severity: sev,
			Message:  fmt.Sprintf("COD %.1f does not meet the IAAO standard of %.0f", m.COD, codGood),
			Params:   map[string]float64{"cod": m.COD},
		})
	}
	if !c.PRDCompliant {
		warns = append(warns, domain.Advisory{
			Code:     domain.CodePRDNonCompliant,
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("PRD %.3f does not meet the IAAO standard of %.2f", m.PRD, prdGood),
			Params:   map[string]float64{"prd": m.PRD},
		})
	}
	if m.PRD > prdExcellent {
		warns = append(warns, domain.Advisory{
			Code:     domain.CodeRegressive,
			Severity: domain.SeverityWarning,
			Message:  "assessments are regressive: higher-value properties are under-assessed relative to lower-value ones",
			Params:   map[string]float64{"prd": m.PRD},
		})
	}
	if c.Progressive {
		warns = append(warns, domain.Advisory{
			Code:     domain.CodeProgressive,
			Severity: domain.SeverityWarning,
			Message:  "assessments are progressive: higher-value properties are over-assessed relative to lower-value ones",
			Params:   map[string]float64{"prd": m.PRD},
		})
	}
	if !c.CoverageCompliant {
		warns = append(warns, domain.Advisory{
			Code:     domain.CodeLevelNonCompliant,
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("assessment level %.1f%% is outside the IAAO tolerance", m.AssessmentRatio),
			Params:   map[string]float64{"assessment_ratio": m.AssessmentRatio},
		})
	}
	switch b.RiskLevel {
	case domain.RiskCritical, domain.RiskHigh:
		sev := domain.SeverityWarning
		if b.RiskLevel == domain.RiskCritical {
			sev = domain.SeverityCritical
		}
		warns = append(warns, domain.Advisory{
			Code:     domain.CodeBiasRisk,
			Severity: sev,
			Message:  fmt.Sprintf("%s assessment bias risk (score %.2f)", b.RiskLevel, b.OverallBiasScore),
			Params:   map[string]float64{"overall_bias_score": b.OverallBiasScore},
		})
	}
	if !m.Spatial.Autocorrelation.Available {
		warns = append(warns, domain.Advisory{
			Code:     domain.CodeNoAutocorrelation,
			Severity: domain.SeverityInfo,
			Message:  "spatial autocorrelation not computed: too few geocoded neighbours or no ratio variance",
			Params:   map[string]float64{"samples": float64(m.Spatial.Autocorrelation.Samples)},
		})
	}
	if m.RatioStudy.Count < e.opts.SmallSample {
		warns = append(warns, domain.Advisory{
			Code:     domain.CodeSmallSample,
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("ratio study rests on %d sales; statistics are unstable", m.RatioStudy.Count),
			Params:   map[string]float64{"count": float64(m.RatioStudy.Count)},
		})
	}
	byPriority(warns)
	return warns
}

var severityRank = map[domain.Severity]int{
	domain.SeverityCritical: 0,
	domain.SeverityWarning:  1,
	domain.SeverityInfo:     2,
}

// byPriority orders advisories critical first, keeping insertion order within a severity.
func byPriority(list []domain.Advisory) {
	sort.SliceStable(list, func(i, j int) bool {
		return severityRank[list[i].Severity] < severityRank[list[j].Severity]
	})
}
