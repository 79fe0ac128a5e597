package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/denisok6893-rgb/property-valuation/internal/batch"
	"github.com/denisok6893-rgb/property-valuation/internal/domain"
)

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

func money(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	whole := fmt.Sprintf("%.0f", v)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

func advisories(title string, list []domain.Advisory) string {
	if len(list) == 0 {
		return ""
	}
	lines := []string{sectionStyle.Render(title)}
	for _, a := range list {
		tag := severityStyle(string(a.Severity)).Render(fmt.Sprintf("[%s]", a.Severity))
		lines = append(lines, fmt.Sprintf("  %s %s (%s)", tag, a.Message, a.Code))
	}
	return strings.Join(lines, "\n")
}

// CompsText renders a comparable analysis as a styled summary.
func CompsText(a domain.CompAnalysis) string {
	head := []string{
		titleStyle.Render("Comparable sales: " + a.SubjectID),
		row("Indicated value", money(a.IndicatedValue)),
		row("Confidence", fmt.Sprintf("%.2f", a.Confidence)),
		row("Candidates", fmt.Sprintf("%d (%d passed filters)", a.CandidateCount, a.FilteredCount)),
		row("Average similarity", fmt.Sprintf("%.3f", a.Quality.AverageSimilarity)),
		row("Adjustment range", fmt.Sprintf("%.1f%%", a.Quality.AdjustmentRange*100)),
	}
	parts := []string{boxStyle.Render(strings.Join(head, "\n"))}

	if len(a.SelectedComps) > 0 {
		lines := []string{sectionStyle.Render("Selected comparables")}
		lines = append(lines, fmt.Sprintf("  %-12s %8s %6s %12s %10s %12s", "id", "miles", "sim", "sale", "net adj", "adjusted"))
		for _, c := range a.SelectedComps {
			lines = append(lines, fmt.Sprintf("  %-12s %8.2f %6.3f %12s %10s %12s",
				c.Sale.ID, c.DistanceMiles, c.Similarity.Overall,
				money(c.Sale.SalePrice), money(c.Similarity.Adjustments.Net), money(c.AdjustedPrice)))
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	if s := advisories("Recommendations", a.Recommendations); s != "" {
		parts = append(parts, s)
	}
	if s := advisories("Warnings", a.Warnings); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}

func estimate(e domain.Estimate) string {
	if !e.Available {
		return fmt.Sprintf("n/a (%d samples)", e.Samples)
	}
	return fmt.Sprintf("%.3f (%d samples)", e.Value, e.Samples)
}

// EquityText renders an equity assessment as a styled summary.
func EquityText(a domain.EquityAssessment) string {
	m, c, b := a.Metrics, a.Compliance, a.Bias
	head := []string{
		titleStyle.Render("Assessment equity"),
		row("Sales in study", fmt.Sprintf("%d", m.RatioStudy.Count)),
		row("Median ratio", fmt.Sprintf("%.3f", m.RatioStudy.Median)),
		row("COD", fmt.Sprintf("%.2f (%s)", m.COD, c.CODGrade)),
		row("PRD", fmt.Sprintf("%.3f (%s)", m.PRD, c.PRDGrade)),
		row("PRB", estimate(m.RatioStudy.PRB)),
		row("Assessment level", fmt.Sprintf("%.1f%%", m.AssessmentRatio)),
		row("Equity score", fmt.Sprintf("%.2f", a.EquityScore)),
	}
	parts := []string{boxStyle.Render(strings.Join(head, "\n"))}

	acc := m.RatioStudy.Accuracy
	parts = append(parts, strings.Join([]string{
		sectionStyle.Render("Accuracy"),
		row("  RMSE", money(acc.RMSE)),
		row("  MAPE", fmt.Sprintf("%.2f%%", acc.MAPE)),
		row("  R squared", estimate(acc.RSquared)),
		row("  Median abs error", money(acc.MedianAbsoluteError)),
		row("  Median pct error", fmt.Sprintf("%.2f%%", acc.MedianPercentError)),
	}, "\n"))

	parts = append(parts, strings.Join([]string{
		sectionStyle.Render("IAAO compliance"),
		row("  Uniformity (COD)", flag(c.CODCompliant)),
		row("  Vertical (PRD)", flag(c.PRDCompliant)),
		row("  Level", flag(c.CoverageCompliant)),
		row("  Overall", flag(c.OverallCompliant)),
	}, "\n"))

	parts = append(parts, strings.Join([]string{
		sectionStyle.Render("Bias"),
		row("  Overall", fmt.Sprintf("%.3f (%s risk, %.0f%% coverage)", b.OverallBiasScore, b.RiskLevel, b.Coverage*100)),
		row("  Income", estimate(b.Demographic.Income)),
		row("  Minority share", estimate(b.Demographic.Race)),
		row("  Urban/rural", estimate(b.Geographic.UrbanRural)),
		row("  Value level", estimate(b.Characteristic.ValueLevel)),
		row("  Property type", estimate(b.Characteristic.PropertyType)),
	}, "\n"))

	if len(m.Spatial.Areas) > 0 {
		lines := []string{sectionStyle.Render("Neighborhoods")}
		lines = append(lines, fmt.Sprintf("  %-20s %5s %8s %8s %7s %7s", "name", "n", "avg", "cod", "err%", "score"))
		for _, ar := range m.Spatial.Areas {
			lines = append(lines, fmt.Sprintf("  %-20s %5d %8.3f %8.2f %7.2f %7.2f",
				ar.Neighborhood, ar.Count, ar.RatioLevel, ar.COD, ar.MeanErrorPct, ar.EquityScore))
		}
		ac := m.Spatial.Autocorrelation
		if ac.Available {
			lines = append(lines, fmt.Sprintf("  Moran's I %.3f (expected %.3f, n=%d)", ac.MoransI, ac.Expected, ac.Samples))
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	if s := advisories("Recommendations", a.Recommendations); s != "" {
		parts = append(parts, s)
	}
	if s := advisories("Warnings", a.Warnings); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}

func compRunText(run batch.Run[batch.CompResult]) string {
	lines := []string{titleStyle.Render("Comparable batch " + run.ID)}
	for _, r := range run.Results {
		if r.Err != nil || r.Error != "" {
			lines = append(lines, fmt.Sprintf("  %-16s %s", r.TaskID, errStyle.Render(r.Error)))
			continue
		}
		lines = append(lines, fmt.Sprintf("  %-16s %12s  conf %.2f  comps %d",
			r.TaskID, money(r.Analysis.IndicatedValue), r.Analysis.Confidence, len(r.Analysis.SelectedComps)))
	}
	return strings.Join(lines, "\n")
}

func equityRunText(run batch.Run[batch.EquityResult]) string {
	lines := []string{titleStyle.Render("Equity batch " + run.ID)}
	for _, r := range run.Results {
		if r.Err != nil || r.Error != "" {
			lines = append(lines, fmt.Sprintf("  %-16s %s", r.TaskID, errStyle.Render(r.Error)))
			continue
		}
		a := r.Assessment
		lines = append(lines, fmt.Sprintf("  %-16s COD %6.2f  PRD %.3f  score %.2f  compliant %s",
			r.TaskID, a.Metrics.COD, a.Metrics.PRD, a.EquityScore, flag(a.Compliance.OverallCompliant)))
	}
	return strings.Join(lines, "\n")
}
