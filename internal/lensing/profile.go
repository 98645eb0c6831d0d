package lensing

import (
	"math"
	"sort"

	"github.com/san-kum/mirage/internal/geodesic"
)

// Profile is a radial deflection lookup: Angles[i] is the bending (radians)
// of a ray whose image-plane radius is Radii[i] pixels. Radii is strictly
// increasing.
type Profile struct {
	Radii  []float64
	Angles []float64
}

// BuildProfile traces one photon per radial bin and records its total
// deflection. Bin count follows the pixel radius, clamped to [8, 128]; the
// bounds are an accuracy/cost tradeoff, not a contract.
//
// Each probe launches from r₀ = max(10⁴·rs, 10⁶) m with unit inward radial
// velocity and the azimuthal velocity that encodes the bin's impact
// parameter. A bin whose trace fails keeps a zero angle; one bad bin must
// not abort the render.
func BuildProfile(tracer *geodesic.Tracer, maxRadiusPx, metersPerPixel float64) *Profile {
	bins := int(maxRadiusPx)
	if bins < 8 {
		bins = 8
	}
	if bins > 128 {
		bins = 128
	}
	return BuildProfileBins(tracer, maxRadiusPx, metersPerPixel, bins)
}

// BuildProfileBins is BuildProfile with an explicit bin count, for callers
// that want to trade accuracy against cost themselves.
func BuildProfileBins(tracer *geodesic.Tracer, maxRadiusPx, metersPerPixel float64, bins int) *Profile {
	if bins < 2 {
		bins = 2
	}

	rs := tracer.Model().SchwarzschildRadius
	r0 := math.Max(1e4*rs, 1e6)
	lambdaMax := math.Max(1e3, 2*r0)
	pos := geodesic.Spherical{R: r0, Theta: math.Pi / 2, Phi: 0}

	radii := linspace(0, maxRadiusPx, bins)
	angles := make([]float64, bins)
	for i, radiusPx := range radii {
		b := radiusPx * metersPerPixel
		res, err := tracer.Trace(pos, geodesic.Velocity{Dr: -1, Dphi: b / (r0 * r0)}, lambdaMax)
		if err != nil {
			continue
		}
		angles[i] = math.Abs(res.FinalPhi()) - math.Pi
	}

	return &Profile{Radii: radii, Angles: angles}
}

// At returns the deflection at pixel radius r, linearly interpolated between
// bins and clamped to the edge values outside the sampled range.
func (p *Profile) At(r float64) float64 {
	i := sort.SearchFloat64s(p.Radii, r)
	if i == 0 {
		return p.Angles[0]
	}
	if i == len(p.Radii) {
		return p.Angles[len(p.Angles)-1]
	}
	t := (r - p.Radii[i-1]) / (p.Radii[i] - p.Radii[i-1])
	return p.Angles[i-1] + t*(p.Angles[i]-p.Angles[i-1])
}

func linspace(lo, hi float64, n int) []float64 {
	xs := make([]float64, n)
	if n == 1 {
		xs[0] = lo
		return xs
	}
	step := (hi - lo) / float64(n-1)
	for i := range xs {
		xs[i] = lo + float64(i)*step
	}
	xs[n-1] = hi
	return xs
}
