package jobs

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"
	"os"

	"github.com/san-kum/mirage/internal/imaging"
	"github.com/san-kum/mirage/internal/lensing"
)

// RenderFrames produces the animation frames for one full revolution of the
// source behind the hole: frame i rolls the source left by round(i·w/n)
// pixels and renders the lensed view. progress, when non-nil, is called with
// a value in 0..100 after each frame.
func RenderFrames(ctx context.Context, src *image.NRGBA, opts lensing.Options, n int, progress func(int)) ([]*image.NRGBA, error) {
	if n < 1 {
		n = 1
	}
	w := src.Bounds().Dx()

	frames := make([]*image.NRGBA, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		shift := int(math.Round(float64(i) * float64(w) / float64(n)))
		frame, err := lensing.Render(imaging.Roll(src, -shift), opts)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)

		if progress != nil {
			progress(i * 100 / n)
		}
	}
	return frames, nil
}

func (q *Queue) renderGIF(ctx context.Context, tk task) (string, error) {
	req := tk.req

	f, err := os.Open(req.SourcePath)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	src, err := imaging.Decode(f)
	f.Close()
	if err != nil {
		return "", fmt.Errorf("decode source: %w", err)
	}
	src = imaging.Resize(src, req.Width)

	frames, err := RenderFrames(ctx, src, req.Opts, req.Frames, func(p int) {
		q.set(tk.id, func(s *Status) {
			s.Progress = p
		})
	})
	if err != nil {
		return "", err
	}

	delay := req.Delay
	if delay <= 0 {
		delay = imaging.DefaultGIFDelay
	}

	var buf bytes.Buffer
	if err := imaging.EncodeGIF(&buf, frames, delay); err != nil {
		return "", err
	}
	return q.exports.SaveFrom(&buf, ".gif")
}
