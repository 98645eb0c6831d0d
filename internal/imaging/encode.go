package imaging

import (
	"image"
	"image/color/palette"
	"image/gif"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

// DefaultGIFDelay is the per-frame delay in 100ths of a second (5 => 20 fps).
const DefaultGIFDelay = 5

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// EncodeGIF quantizes frames to the Plan9 palette with Floyd-Steinberg
// dithering and writes a forever-looping animated GIF. delay is per frame
// in 100ths of a second.
func EncodeGIF(w io.Writer, frames []*image.NRGBA, delay int) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}

	out := &gif.GIF{
		Image:     make([]*image.Paletted, 0, len(frames)),
		Delay:     make([]int, 0, len(frames)),
		LoopCount: 0,
	}
	for _, frame := range frames {
		pimg := image.NewPaletted(frame.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(pimg, pimg.Bounds(), frame, image.Point{})
		out.Image = append(out.Image, pimg)
		out.Delay = append(out.Delay, delay)
	}
	return gif.EncodeAll(w, out)
}
