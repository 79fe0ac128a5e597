package comps

import (
	"log/slog"
	"sort"
	"time"

	"github.com/denisok6893-rgb/property-valuation/internal/domain"
	"github.com/denisok6893-rgb/property-valuation/internal/geo"
)

// Engine selects and adjusts comparable sales for a subject property.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	logger *slog.Logger
}

// NewEngine returns an Engine. A nil logger falls back to slog.Default().
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Select filters, scores, adjusts and ranks sales against subject as of asOf,
// then reconciles an indicated value. It never fails: degenerate inputs yield
// an empty analysis carrying warnings.
func (e *Engine) Select(asOf time.Time, subject domain.SubjectProperty, sales []domain.ComparableSale, c Criteria) domain.CompAnalysis {
	c = c.withDefaults()
	subject = normalizeSubject(subject)

	var candidates []domain.AdjustedComp
	unpriced := 0
	for _, s := range sales {
		if s.SalePrice <= 0 {
			unpriced++
			continue
		}
		dist, months, ok := passesFilters(asOf, subject, s, c)
		if !ok {
			continue
		}
		candidates = append(candidates, scoreOne(asOf, subject, s, dist, months))
	}
	filtered := len(candidates)

	rank(candidates)
	floor := c.floor()
	selected := make([]domain.AdjustedComp, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Similarity.Overall < floor {
			// ranked descending, nothing after this qualifies either
			break
		}
		selected = append(selected, cand)
	}
	if len(selected) > c.MaxComps {
		selected = selected[:c.MaxComps]
	}

	q := qualityMetrics(selected)
	out := domain.CompAnalysis{
		SubjectID:      subject.ID,
		AsOf:           asOf,
		CandidateCount: len(sales),
		FilteredCount:  filtered,
		SelectedComps:  selected,
		IndicatedValue: reconcile(selected),
		Confidence:     confidence(q),
		Quality:        q,
	}
	out.Recommendations, out.Warnings = advise(subject, c, out, unpriced)

	e.logger.Debug("comparables selected",
		slog.String("subject_id", subject.ID),
		slog.Int("candidates", len(sales)),
		slog.Int("filtered", filtered),
		slog.Int("unpriced", unpriced),
		slog.Int("selected", len(selected)),
		slog.Float64("indicated_value", out.IndicatedValue),
		slog.Float64("confidence", out.Confidence),
	)
	return out
}

func normalizeSubject(s domain.SubjectProperty) domain.SubjectProperty {
	if s.Quality == "" {
		s.Quality = domain.DefaultQuality
	}
	if s.Condition == "" {
		s.Condition = domain.DefaultCondition
	}
	s.PropertyType = domain.NormalizePropertyType(s.PropertyType)
	if s.LivingArea < 0 {
		s.LivingArea = 0
	}
	return s
}

// passesFilters applies the distance, recency and property-type filters and
// returns the distance and sale age it measured. Sales without a positive
// price never get here.
func passesFilters(asOf time.Time, subject domain.SubjectProperty, s domain.ComparableSale, c Criteria) (float64, float64, bool) {
	if domain.NormalizePropertyType(s.PropertyType) != subject.PropertyType {
		return 0, 0, false
	}
	if !subject.HasLocation() || (s.Latitude == 0 && s.Longitude == 0) {
		return 0, 0, false
	}
	dist := geo.HaversineMiles(
		geo.Point{Lat: subject.Latitude, Lon: subject.Longitude},
		geo.Point{Lat: s.Latitude, Lon: s.Longitude},
	)
	if dist > c.MaxDistance {
		return 0, 0, false
	}
	months := saleAgeMonths(asOf, s.SaleDate)
	if months > c.MaxAgeMonths {
		return 0, 0, false
	}
	return dist, months, true
}

// saleAgeMonths is elapsed days / 30. Sales dated after asOf count as current.
func saleAgeMonths(asOf, saleDate time.Time) float64 {
	if saleDate.IsZero() {
		return 0
	}
	days := asOf.Sub(saleDate).Hours() / 24
	if days < 0 {
		return 0
	}
	return days / daysPerMonth
}

// rank sorts by overall similarity descending; ties go to the closer sale, then ID.
func rank(comps []domain.AdjustedComp) {
	sort.SliceStable(comps, func(i, j int) bool {
		a, b := comps[i], comps[j]
		if a.Similarity.Overall != b.Similarity.Overall {
			return a.Similarity.Overall > b.Similarity.Overall
		}
		if a.DistanceMiles != b.DistanceMiles {
			return a.DistanceMiles < b.DistanceMiles
		}
		return a.Sale.ID < b.Sale.ID
	})
}

// reconcile returns the similarity-weighted mean of adjusted prices.
func reconcile(comps []domain.AdjustedComp) float64 {
	var sumW, sum float64
	for _, c := range comps {
		w := c.Similarity.Overall
		sumW += w
		sum += w * c.AdjustedPrice
	}
	if sumW <= 0 {
		return 0
	}
	return roundCents(sum / sumW)
}
