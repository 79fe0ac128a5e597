package equity

import (
	"math"

	"github.com/denisok6893-rgb/property-valuation/internal/domain"
)

func gradeCOD(cod float64) domain.Grade {
	switch {
	case cod <= codExcellent:
		return domain.GradeExcellent
	case cod <= codGood:
		return domain.GradeGood
	case cod <= codFair:
		return domain.GradeFair
	default:
		return domain.GradePoor
	}
}

func gradePRD(prd float64) domain.Grade {
	switch {
	case prd <= prdExcellent:
		return domain.GradeExcellent
	case prd <= prdGood:
		return domain.GradeGood
	case prd <= prdFair:
		return domain.GradeFair
	default:
		return domain.GradePoor
	}
}

// CheckCompliance tests the metrics against the IAAO standards. The overall
// flag requires uniformity, vertical equity and level at the "good" threshold.
func CheckCompliance(m domain.EquityMetrics) domain.Compliance {
	c := domain.Compliance{
		CODGrade:          gradeCOD(m.COD),
		PRDGrade:          gradePRD(m.PRD),
		CODCompliant:      m.COD <= codGood,
		PRDCompliant:      m.PRD <= prdGood,
		CoverageCompliant: math.Abs(m.AssessmentRatio-levelTarget) <= levelTolerance,
		Progressive:       m.PRD < prdFloor,
	}
	c.OverallCompliant = c.CODCompliant && c.PRDCompliant && c.CoverageCompliant
	prb := m.RatioStudy.PRB
	c.PRBCompliant = prb.Available && math.Abs(prb.Value) <= prbTolerance
	return c
}

// Score starts from 1 and subtracts penalties for dispersion, regressivity,
// bias and between-neighborhood variance. The result is clamped to [0,1].
func Score(m domain.EquityMetrics, b domain.BiasAnalysis) float64 {
	s := 1.0
	if m.COD > codExcellent {
		s -= (m.COD - codExcellent) / 100
	}
	if m.PRD > prdExcellent {
		s -= (m.PRD - prdExcellent) * 2
	}
	s -= b.OverallBiasScore
	s -= 0.5 * m.Spatial.NeighborhoodVariance
	return domain.Clamp01(s)
}
