// Package imaging holds the pixel-level plumbing around the renderer:
// decoding uploads in common formats, aspect-preserving downscale, the
// horizontal roll used to animate frames, and PNG/GIF encoding.
package imaging

import (
	"errors"
	"fmt"
	"image"
	"io"

	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNoFrames indicates an encode call without any frames.
var ErrNoFrames = errors.New("imaging: no frames to encode")

// Decode reads an image in any registered format (png, jpeg, gif, bmp,
// tiff, webp) and converts it to NRGBA.
func Decode(r io.Reader) (*image.NRGBA, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}
	return ToNRGBA(src), nil
}

// ToNRGBA converts any image to a zero-origin NRGBA copy. An already
// zero-origin NRGBA is returned as is.
func ToNRGBA(src image.Image) *image.NRGBA {
	if img, ok := src.(*image.NRGBA); ok && img.Bounds().Min == (image.Point{}) {
		return img
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// Resize scales src to outWidth preserving aspect ratio, bilinear. Both
// output dimensions are floored at one pixel.
func Resize(src *image.NRGBA, outWidth int) *image.NRGBA {
	if outWidth < 1 {
		outWidth = 1
	}
	b := src.Bounds()
	w0, h0 := b.Dx(), b.Dy()
	if w0 == 0 || h0 == 0 {
		return image.NewNRGBA(image.Rect(0, 0, outWidth, 1))
	}

	outH := int(float64(outWidth) * float64(h0) / float64(w0))
	if outH < 1 {
		outH = 1
	}

	dst := image.NewNRGBA(image.Rect(0, 0, outWidth, outH))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// Roll returns a copy of src shifted horizontally by shift pixels with
// wraparound. Positive shift moves content right, negative left.
func Roll(src *image.NRGBA, shift int) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}

	shift = ((shift % w) + w) % w
	rowBytes := w * 4
	split := rowBytes - shift*4
	for y := 0; y < h; y++ {
		off := src.PixOffset(b.Min.X, b.Min.Y+y)
		srcRow := src.Pix[off : off+rowBytes]
		dstRow := dst.Pix[y*dst.Stride : y*dst.Stride+rowBytes]
		copy(dstRow[shift*4:], srcRow[:split])
		copy(dstRow[:shift*4], srcRow[split:])
	}
	return dst
}
