package comps

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/denisok6893-rgb/property-valuation/internal/domain"
	"github.com/denisok6893-rgb/property-valuation/internal/geo"
)

// Score computes the similarity and adjustments of a single sale against the
// subject without applying any filter.
func Score(asOf time.Time, subject domain.SubjectProperty, s domain.ComparableSale) domain.AdjustedComp {
	subject = normalizeSubject(subject)
	dist := geo.HaversineMiles(
		geo.Point{Lat: subject.Latitude, Lon: subject.Longitude},
		geo.Point{Lat: s.Latitude, Lon: s.Longitude},
	)
	return scoreOne(asOf, subject, s, dist, saleAgeMonths(asOf, s.SaleDate))
}

func scoreOne(asOf time.Time, subject domain.SubjectProperty, s domain.ComparableSale, dist, months float64) domain.AdjustedComp {
	f := factorScores(asOf, subject, s, dist, months)
	adj := adjustments(asOf, subject, s, dist, months)

	price := decimal.NewFromFloat(s.SalePrice)
	adjusted := price.Add(decimal.NewFromFloat(adj.Net)).Round(2)

	return domain.AdjustedComp{
		Sale:          s,
		DistanceMiles: dist,
		SaleAgeMonths: months,
		Similarity: domain.SimilarityScore{
			Overall:     overall(f),
			Factors:     f,
			Adjustments: adj,
		},
		AdjustedPrice: adjusted.InexactFloat64(),
	}
}

func factorScores(asOf time.Time, subject domain.SubjectProperty, s domain.ComparableSale, dist, months float64) domain.FactorScores {
	var size float64
	if subject.LivingArea > 0 {
		size = falloff(math.Abs(subject.LivingArea-s.LivingArea), subject.LivingArea)
	}
	ageDiff := math.Abs(subject.AgeAt(asOf) - s.AgeAt(asOf))
	levelDiff := math.Abs(float64(QualityLevel(subject.Quality) - QualityLevel(s.Quality)))

	return domain.FactorScores{
		Location: falloff(dist, locationFalloffMiles),
		Size:     size,
		Age:      falloff(ageDiff, ageFalloffYears),
		Quality:  domain.Clamp01(1 - levelDiff/qualityLevelSpan),
		Timing:   falloff(months, timingFalloffMonths),
	}
}

// falloff is max(0, 1 - x/span), bounded to [0,1].
func falloff(x, span float64) float64 {
	return domain.Clamp01(1 - x/span)
}

func overall(f domain.FactorScores) float64 {
	v := locationWeight*f.Location +
		sizeWeight*f.Size +
		ageWeight*f.Age +
		qualityWeight*f.Quality +
		timingWeight*f.Timing
	return domain.Clamp01(v)
}

// adjustments prices the differences between subject and sale in dollars,
// rounded to cents. Line items whose inputs are unknown stay zero.
func adjustments(asOf time.Time, subject domain.SubjectProperty, s domain.ComparableSale, dist, months float64) domain.Adjustments {
	price := decimal.NewFromFloat(s.SalePrice)
	var a domain.Adjustments

	if subject.LivingArea > 0 && s.LivingArea > 0 {
		delta := decimal.NewFromFloat(subject.LivingArea).Sub(decimal.NewFromFloat(s.LivingArea))
		a.Size = cents(delta.Mul(decimal.NewFromFloat(pricePerSqft)))
	}
	if subject.YearBuilt > 0 && s.YearBuilt > 0 {
		ageDiff := decimal.NewFromFloat(s.AgeAt(asOf) - subject.AgeAt(asOf))
		a.Age = cents(price.Mul(decimal.NewFromFloat(ageRatePerYear)).Mul(ageDiff))
	}
	levelDiff := decimal.NewFromInt(int64(QualityLevel(subject.Quality) - QualityLevel(s.Quality)))
	a.Quality = cents(price.Mul(decimal.NewFromFloat(qualityRatePerLevel)).Mul(levelDiff))
	a.Time = cents(price.Mul(decimal.NewFromFloat(timeRatePerMonth)).Mul(decimal.NewFromFloat(months)))
	if dist > locationAdjustMinDist {
		rate := decimal.NewFromFloat(locationRatePerMile).Mul(decimal.NewFromFloat(dist))
		a.Location = cents(price.Mul(rate))
	}
	a.Net = roundCents(a.Sum())
	return a
}

func cents(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func roundCents(v float64) float64 {
	return cents(decimal.NewFromFloat(v))
}
