package lensing

import (
	"fmt"
	"image"
	"math"
	"os"

	"github.com/san-kum/mirage/internal/blackhole"
	"github.com/san-kum/mirage/internal/geodesic"
	"github.com/san-kum/mirage/internal/imaging"
)

// Method selects how deflection angles are computed.
type Method string

const (
	// Weak applies the analytic Einstein angle to every pixel. Fast.
	Weak Method = "weak"
	// Geodesic integrates the full equations of motion on a radial grid of
	// impact parameters and interpolates between bins. Slower, but honest
	// close to the hole where the weak-field approximation breaks down.
	Geodesic Method = "geodesic"
)

// ParseMethod maps a user-supplied string onto a Method.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case Weak:
		return Weak, nil
	case Geodesic:
		return Geodesic, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Options are the physical parameters of a render. Scale fixes the spatial
// calibration: a pixel at the image corner sits Scale Schwarzschild radii
// from the hole.
type Options struct {
	Mass   float64 // solar masses
	Scale  float64
	Method Method
}

func DefaultOptions() Options {
	return Options{Mass: 10, Scale: 100, Method: Weak}
}

// Validate rejects parameters before any computation happens.
func (o Options) Validate() error {
	if math.IsNaN(o.Mass) || o.Mass <= 0 {
		return blackhole.ErrNonPositiveMass
	}
	if math.IsNaN(o.Scale) || o.Scale <= 0 {
		return ErrNonPositiveScale
	}
	if o.Method != Weak && o.Method != Geodesic {
		return fmt.Errorf("%w: %q", ErrUnknownMethod, o.Method)
	}
	return nil
}

// Render maps src through the gravitational field of a black hole centered
// on the image and returns the lensed view, same dimensions as src.
//
// For every output pixel the apparent polar angle θ is rotated by the
// deflection α(r) to find where the ray actually originated, and that source
// pixel is copied over (backward ray mapping, nearest neighbor). Pixels
// inside the horizon disk, or whose deflection is non-finite, come out
// black. Render touches no shared state; concurrent calls are safe.
func Render(src *image.NRGBA, opts Options) (*image.NRGBA, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	model, err := blackhole.New(opts.Mass)
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out, nil
	}

	cx := float64(w) / 2
	cy := float64(h) / 2
	maxR := math.Max(math.Sqrt(cx*cx+cy*cy), 1)

	rs := model.SchwarzschildRadius
	metersPerPixel := opts.Scale * rs / maxR
	rsPixels := rs / metersPerPixel

	var deflect func(rPx float64) float64
	if opts.Method == Weak {
		deflect = func(rPx float64) float64 {
			return model.WeakFieldDeflection(rPx * metersPerPixel)
		}
	} else {
		profile := BuildProfile(geodesic.NewTracer(model), maxR, metersPerPixel)
		deflect = profile.At
	}

	for y := 0; y < h; y++ {
		dy := float64(y) - cy
		for x := 0; x < w; x++ {
			dx := float64(x) - cx
			r := math.Sqrt(dx*dx + dy*dy)
			alpha := deflect(r)

			oi := out.PixOffset(x, y)
			if r <= rsPixels || blackhole.Captured(alpha) {
				out.Pix[oi+3] = 0xff
				continue
			}

			theta := math.Atan2(dy, dx)
			thetaSrc := theta + alpha
			sx := clampInt(int(math.RoundToEven(cx+r*math.Cos(thetaSrc))), 0, w-1)
			sy := clampInt(int(math.RoundToEven(cy+r*math.Sin(thetaSrc))), 0, h-1)

			si := src.PixOffset(bounds.Min.X+sx, bounds.Min.Y+sy)
			out.Pix[oi+0] = src.Pix[si+0]
			out.Pix[oi+1] = src.Pix[si+1]
			out.Pix[oi+2] = src.Pix[si+2]
			out.Pix[oi+3] = 0xff
		}
	}

	return out, nil
}

// RenderFile opens and decodes a source image, resizes it to outWidth
// preserving aspect, and renders the lensed view. A missing file surfaces
// the underlying fs.ErrNotExist so callers can map it to a not-found
// response.
func RenderFile(path string, opts Options, outWidth int) (*image.NRGBA, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lensing: open source: %w", err)
	}
	defer f.Close()

	src, err := imaging.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("lensing: decode source: %w", err)
	}

	return Render(imaging.Resize(src, outWidth), opts)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
