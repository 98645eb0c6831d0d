package imaging_test

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/mirage/internal/imaging"
)

// column paints column x of img with a value derived from x, so shifts are
// easy to verify.
func column(img *image.NRGBA, x int, v uint8) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
	}
}

func colAt(img *image.NRGBA, x int) uint8 {
	return img.NRGBAAt(x, 0).R
}

// TestRoll_ShiftsColumnsWithWraparound verifies that a positive shift moves
// content right and wraps the tail back to the front.
func TestRoll_ShiftsColumnsWithWraparound(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		column(src, x, uint8(10*(x+1)))
	}

	rolled := imaging.Roll(src, 1)
	require.Equal(t, src.Bounds(), rolled.Bounds())
	require.Equal(t, uint8(40), colAt(rolled, 0), "last column wraps to front")
	require.Equal(t, uint8(10), colAt(rolled, 1))
	require.Equal(t, uint8(20), colAt(rolled, 2))
	require.Equal(t, uint8(30), colAt(rolled, 3))
}

// TestRoll_NegativeAndModular verifies left shifts and shift values beyond
// the image width.
func TestRoll_NegativeAndModular(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	for x := 0; x < 4; x++ {
		column(src, x, uint8(10*(x+1)))
	}

	left := imaging.Roll(src, -1)
	require.Equal(t, uint8(20), colAt(left, 0), "negative shift moves content left")
	require.Equal(t, uint8(10), colAt(left, 3))

	// A full-width (and a zero) shift is the identity.
	require.Equal(t, src.Pix, imaging.Roll(src, 4).Pix)
	require.Equal(t, src.Pix, imaging.Roll(src, 0).Pix)

	// Shifts are modular in the width.
	require.Equal(t, imaging.Roll(src, 1).Pix, imaging.Roll(src, 5).Pix)
}

// TestResize_PreservesAspect checks the width-driven height computation and
// that a solid color survives bilinear scaling.
func TestResize_PreservesAspect(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 100, 50))
	for x := 0; x < 100; x++ {
		column(src, x, 0x7f)
	}

	small := imaging.Resize(src, 10)
	require.Equal(t, 10, small.Bounds().Dx())
	require.Equal(t, 5, small.Bounds().Dy())
	for x := 0; x < 10; x++ {
		require.Equalf(t, uint8(0x7f), colAt(small, x), "column %d changed under uniform resize", x)
	}
}

// TestResize_FloorsAtOnePixel verifies degenerate target sizes never produce
// an empty image.
func TestResize_FloorsAtOnePixel(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 100, 3))

	tiny := imaging.Resize(src, 0)
	require.Equal(t, 1, tiny.Bounds().Dx())
	require.Equal(t, 1, tiny.Bounds().Dy(), "3/100 of a pixel still renders one row")

	wide := imaging.Resize(src, 50)
	require.Equal(t, 50, wide.Bounds().Dx())
	require.Equal(t, 1, wide.Bounds().Dy())
}

// TestDecode_PNGRoundTrip pushes a PNG through Decode and checks dimensions
// and pixel content survive.
func TestDecode_PNGRoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	column(src, 3, 200)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	got, err := imaging.Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, src.Bounds(), got.Bounds())
	require.Equal(t, uint8(200), colAt(got, 3))
}

// TestDecode_RejectsGarbage ensures non-image bytes surface a decode error.
func TestDecode_RejectsGarbage(t *testing.T) {
	_, err := imaging.Decode(bytes.NewBufferString("definitely not an image"))
	require.Error(t, err)
}

// TestToNRGBA_NormalizesBounds verifies offset-origin images are rebased to
// (0,0).
func TestToNRGBA_NormalizesBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 7, 13, 11))
	src.SetRGBA(5, 7, color.RGBA{R: 9, A: 255})

	got := imaging.ToNRGBA(src)
	require.Equal(t, image.Rect(0, 0, 8, 4), got.Bounds())
	require.Equal(t, uint8(9), got.NRGBAAt(0, 0).R)
}

// TestEncodeGIF_FramesAndDelays decodes the encoded animation back and
// checks frame count, per-frame delay, and the forever loop flag.
func TestEncodeGIF_FramesAndDelays(t *testing.T) {
	frames := []*image.NRGBA{
		image.NewNRGBA(image.Rect(0, 0, 4, 4)),
		image.NewNRGBA(image.Rect(0, 0, 4, 4)),
		image.NewNRGBA(image.Rect(0, 0, 4, 4)),
	}
	column(frames[1], 2, 255)

	var buf bytes.Buffer
	require.NoError(t, imaging.EncodeGIF(&buf, frames, imaging.DefaultGIFDelay))

	decoded, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	require.Len(t, decoded.Image, 3)
	require.Equal(t, []int{5, 5, 5}, decoded.Delay)
	require.Equal(t, 0, decoded.LoopCount, "animation should loop forever")
}

// TestEncodeGIF_NoFrames verifies the empty-input sentinel.
func TestEncodeGIF_NoFrames(t *testing.T) {
	var buf bytes.Buffer
	err := imaging.EncodeGIF(&buf, nil, 5)
	require.ErrorIs(t, err, imaging.ErrNoFrames)
}
