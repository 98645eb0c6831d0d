package lensing

import (
	"math"
	"testing"

	"github.com/san-kum/mirage/internal/blackhole"
	"github.com/san-kum/mirage/internal/geodesic"
)

func newTestTracer(t *testing.T, solarMasses float64) *geodesic.Tracer {
	t.Helper()
	model, err := blackhole.New(solarMasses)
	if err != nil {
		t.Fatal(err)
	}
	return geodesic.NewTracer(model)
}

func TestBuildProfile_BinCountClamps(t *testing.T) {
	tracer := newTestTracer(t, 10)
	rs := tracer.Model().SchwarzschildRadius

	cases := []struct {
		maxRadiusPx float64
		wantBins    int
	}{
		{5, 8},
		{50, 50},
		{300, 128},
	}
	for _, tc := range cases {
		p := BuildProfile(tracer, tc.maxRadiusPx, 10*rs)
		if len(p.Radii) != tc.wantBins || len(p.Angles) != tc.wantBins {
			t.Errorf("maxRadiusPx=%v: %d radii, %d angles, want %d bins",
				tc.maxRadiusPx, len(p.Radii), len(p.Angles), tc.wantBins)
			continue
		}
		if p.Radii[0] != 0 {
			t.Errorf("maxRadiusPx=%v: Radii[0] = %v, want 0", tc.maxRadiusPx, p.Radii[0])
		}
		if p.Radii[len(p.Radii)-1] != tc.maxRadiusPx {
			t.Errorf("maxRadiusPx=%v: last radius = %v, want %v",
				tc.maxRadiusPx, p.Radii[len(p.Radii)-1], tc.maxRadiusPx)
		}
	}
}

// Away from capture the profile must match the analytic bending to second
// order once the polar swing lost to the finite probe radii is accounted
// for, and between capture and the far field it must fall monotonically
// with impact parameter.
func TestBuildProfile_WeakFieldTailAndMonotonicity(t *testing.T) {
	tracer := newTestTracer(t, 10)
	model := tracer.Model()
	rs := model.SchwarzschildRadius

	const maxRadiusPx = 64.0
	metersPerPixel := 100 * rs / maxRadiusPx
	p := BuildProfile(tracer, maxRadiusPx, metersPerPixel)

	// Probes launch from r₀ and stop at 0.999·r₀, so each bin measures the
	// asymptotic deflection minus asin(b/r₀) per straight far-field leg.
	r0 := math.Max(1e4*rs, 1e6)
	for _, rPx := range []float64{24, 32, 48.5} {
		b := rPx * metersPerPixel
		truncation := math.Asin(b/r0) + math.Asin(b/(0.999*r0))
		secondOrder := 15 * math.Pi / 16 * (rs / b) * (rs / b)
		want := model.WeakFieldDeflection(b) + secondOrder - truncation
		got := p.At(rPx)
		if rel := math.Abs(got-want) / math.Abs(want); rel > 0.02 {
			t.Errorf("At(%v) = %v, finite-radius bending predicts %v, rel err %v", rPx, got, want, rel)
		}
	}

	// At b = √(rs·r₀) (the outermost bin here) the truncation term equals
	// the Einstein angle, so the measured swing nearly cancels.
	if got := p.At(maxRadiusPx); math.Abs(got) > 1e-3 {
		t.Errorf("At(%v) = %v, want near-cancellation below 1e-3", maxRadiusPx, got)
	}

	// Bins 0..1 lie inside the photon capture radius; from the first escaped
	// bin on, deflection decreases strictly.
	for i := 3; i < len(p.Angles); i++ {
		if !(p.Angles[i] < p.Angles[i-1]) {
			t.Fatalf("deflection not decreasing at bin %d: %v -> %v", i, p.Angles[i-1], p.Angles[i])
		}
	}
}

// Probes below the critical impact parameter never escape; their bins store
// the finite plunge angle rather than poisoning the profile.
func TestBuildProfile_CapturedBins(t *testing.T) {
	tracer := newTestTracer(t, 10)
	rs := tracer.Model().SchwarzschildRadius

	// All bins at b <= 2 rs, under the b_crit = (3√3/2) rs capture threshold.
	p := BuildProfile(tracer, 5, 0.4*rs)

	if len(p.Angles) != 8 {
		t.Fatalf("got %d bins, want 8", len(p.Angles))
	}
	for i, a := range p.Angles {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			t.Fatalf("bin %d angle = %v, want finite", i, a)
		}
	}
	// The radial probe never picks up azimuthal motion: |φ| stays 0.
	if got := p.Angles[0]; math.Abs(got+math.Pi) > 1e-9 {
		t.Errorf("radial bin angle = %v, want -π", got)
	}
}

func TestProfile_AtInterpolatesAndClamps(t *testing.T) {
	p := &Profile{
		Radii:  []float64{0, 1, 2},
		Angles: []float64{0, 10, 20},
	}

	cases := []struct {
		r    float64
		want float64
	}{
		{0, 0},
		{0.5, 5},
		{1, 10},
		{1.5, 15},
		{2, 20},
		{-3, 0},   // below range clamps to first bin
		{100, 20}, // beyond range clamps to last bin
	}
	for _, tc := range cases {
		if got := p.At(tc.r); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("At(%v) = %v, want %v", tc.r, got, tc.want)
		}
	}
}
