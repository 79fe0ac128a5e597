package equity

import (
	"math"
	"sort"
	"strings"

	"github.com/denisok6893-rgb/property-valuation/internal/domain"
	"github.com/denisok6893-rgb/property-valuation/internal/geo"
	"github.com/denisok6893-rgb/property-valuation/internal/stats"
)

const (
	unassignedArea = "unassigned"
	// co-located parcels are treated as this far apart for inverse-distance weights
	minPairMiles = 0.01
)

func spatialEquity(qs []domain.AssessmentRecord, opts Options) domain.SpatialEquity {
	groups := make(map[string][]float64)
	for _, r := range qs {
		name := strings.TrimSpace(r.Neighborhood)
		if name == "" {
			name = unassignedArea
		}
		groups[name] = append(groups[name], r.Ratio())
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	areas := make([]domain.AreaEquity, 0, len(names))
	levels := make([]float64, 0, len(names))
	for _, name := range names {
		ratios := groups[name]
		v := stats.Variance(ratios)
		level := stats.Mean(ratios)
		areas = append(areas, domain.AreaEquity{
			Neighborhood: name,
			Count:        len(ratios),
			RatioLevel:   level,
			MedianRatio:  stats.Median(ratios),
			Variance:     v,
			COD:          COD(ratios),
			MeanErrorPct: meanErrorPct(ratios),
			EquityScore:  domain.Clamp01(1 - v),
		})
		levels = append(levels, level)
	}

	return domain.SpatialEquity{
		Areas:                areas,
		NeighborhoodVariance: stats.Variance(levels),
		Autocorrelation:      moransI(qs, opts.MoranBandMiles),
	}
}

// moransI computes global Moran's I of assessment ratios with inverse-distance
// weights for pairs within bandMiles. Records without coordinates are skipped.
func moransI(qs []domain.AssessmentRecord, bandMiles float64) domain.Autocorrelation {
	pts := make([]geo.Point, 0, len(qs))
	ratios := make([]float64, 0, len(qs))
	for _, r := range qs {
		if !r.HasLocation() {
			continue
		}
		pts = append(pts, geo.Point{Lat: r.Latitude, Lon: r.Longitude})
		ratios = append(ratios, r.Ratio())
	}

	n := len(pts)
	out := domain.Autocorrelation{Samples: n}
	if n < 3 {
		return out
	}
	out.Expected = -1 / float64(n-1)

	mean := stats.Mean(ratios)
	dev := make([]float64, n)
	var m2 float64
	for i, r := range ratios {
		dev[i] = r - mean
		m2 += dev[i] * dev[i]
	}
	if m2 == 0 {
		return out
	}

	var s0, cross float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := geo.HaversineMiles(pts[i], pts[j])
			if d > bandMiles {
				continue
			}
			w := 1 / math.Max(d, minPairMiles)
			// symmetric weights count each pair twice
			s0 += 2 * w
			cross += 2 * w * dev[i] * dev[j]
		}
	}
	if s0 == 0 {
		return out
	}

	out.MoransI = float64(n) / s0 * cross / m2
	out.Available = true
	return out
}
