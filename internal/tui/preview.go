// Package tui is the interactive terminal preview: the lensed image drawn
// with ANSI half-block cells, parameters adjusted live from the keyboard.
package tui

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/mirage/internal/config"
	"github.com/san-kum/mirage/internal/imaging"
	"github.com/san-kum/mirage/internal/lensing"
)

const (
	massMin  = 1e-3
	massMax  = 1e12
	scaleMin = 1
	scaleMax = 1e6
)

type renderedMsg struct {
	img     *image.NRGBA
	elapsed time.Duration
	err     error
}

type tickMsg time.Time

type Model struct {
	src  *image.NRGBA
	name string
	opts lensing.Options

	presets []string
	preset  int // -1 until a preset is applied

	width, height int
	view          *image.NRGBA
	elapsed       time.Duration
	rendering     bool
	dirty         bool
	frame         int
	err           error
}

func NewPreview(name string, src *image.NRGBA, opts lensing.Options) Model {
	return Model{
		src:     src,
		name:    name,
		opts:    opts,
		presets: config.ListPresets(),
		preset:  -1,
		width:   80,
		height:  24,
		dirty:   true,
	}
}

// RunPreview drives the preview to completion in the alternate screen.
func RunPreview(name string, src *image.NRGBA, opts lensing.Options) error {
	_, err := tea.NewProgram(NewPreview(name, src, opts), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.dirty = true
		return m.kick()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case renderedMsg:
		m.rendering = false
		m.err = msg.err
		if msg.err == nil {
			m.view, m.elapsed = msg.img, msg.elapsed
		}
		if m.dirty {
			return m.kick()
		}
		return m, nil

	case tickMsg:
		if !m.rendering {
			return m, nil
		}
		m.frame++
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		m.opts.Mass = clampF(m.opts.Mass*2, massMin, massMax)
	case "down", "j":
		m.opts.Mass = clampF(m.opts.Mass/2, massMin, massMax)
	case "right", "l":
		m.opts.Scale = clampF(m.opts.Scale*1.25, scaleMin, scaleMax)
	case "left", "h":
		m.opts.Scale = clampF(m.opts.Scale/1.25, scaleMin, scaleMax)
	case "m":
		if m.opts.Method == lensing.Weak {
			m.opts.Method = lensing.Geodesic
		} else {
			m.opts.Method = lensing.Weak
		}
	case "p":
		if len(m.presets) == 0 {
			return m, nil
		}
		m.preset = (m.preset + 1) % len(m.presets)
		if preset := config.GetPreset(m.presets[m.preset]); preset != nil {
			m.opts.Mass = preset.Mass
			m.opts.Scale = preset.Scale
			m.opts.Method = lensing.Method(preset.Method)
		}
	case "r":
		// fallthrough to re-render
	default:
		return m, nil
	}

	m.preset = m.presetIndex()
	m.dirty = true
	return m.kick()
}

// presetIndex reports which preset the current parameters match, -1 for a
// hand-tuned combination.
func (m Model) presetIndex() int {
	for i, name := range m.presets {
		p := config.GetPreset(name)
		if p != nil && p.Mass == m.opts.Mass && p.Scale == m.opts.Scale && p.Method == string(m.opts.Method) {
			return i
		}
	}
	return -1
}

// kick starts a render unless one is already in flight; the dirty flag
// makes the in-flight render requeue itself on completion.
func (m Model) kick() (tea.Model, tea.Cmd) {
	if m.rendering || !m.dirty {
		return m, nil
	}
	m.rendering, m.dirty = true, false

	src, opts := m.src, m.opts
	pixelWidth := m.fitWidth()
	cmd := func() tea.Msg {
		start := time.Now()
		img, err := lensing.Render(imaging.Resize(src, pixelWidth), opts)
		return renderedMsg{img: img, elapsed: time.Since(start), err: err}
	}
	return m, tea.Batch(cmd, m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fitWidth sizes the render so the half-block raster (one cell per pixel
// column, two pixel rows per cell) fits the terminal.
func (m Model) fitWidth() int {
	cols := m.width - 2
	rows := m.height - 4
	if cols < 2 {
		cols = 2
	}
	if rows < 2 {
		rows = 2
	}

	srcW := m.src.Bounds().Dx()
	srcH := m.src.Bounds().Dy()
	if srcW == 0 || srcH == 0 {
		return 2
	}

	w := cols
	if h := w * srcH / srcW; h > rows*2 {
		w = rows * 2 * srcW / srcH
	}
	if w < 2 {
		w = 2
	}
	return w
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(" " + cyan.Render("mirage") + " " + white.Render(m.name) + "\n")
	b.WriteString(" " + m.statusLine() + "\n")

	if m.view != nil {
		b.WriteString(halfBlocks(m.view))
	} else if m.err == nil {
		b.WriteString(dim.Render(" rendering first frame " + spinner(m.frame)))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(yellow.Render(" render failed: "+m.err.Error()) + "\n")
	}

	b.WriteString(" " + cyan.Render("↑/↓") + dim.Render(" mass  ") +
		cyan.Render("←/→") + dim.Render(" scale  ") +
		cyan.Render("m") + dim.Render(" method  ") +
		cyan.Render("p") + dim.Render(" preset  ") +
		cyan.Render("q") + dim.Render(" quit") + "\n")
	return b.String()
}

func (m Model) statusLine() string {
	method := green.Render(string(m.opts.Method))
	if m.opts.Method == lensing.Geodesic {
		method = magenta.Render(string(m.opts.Method))
	}

	line := dim.Render("mass ") + white.Render(fmt.Sprintf("%.3g", m.opts.Mass)) + dim.Render(" M☉") +
		dim.Render("  scale ") + white.Render(fmt.Sprintf("%.3g", m.opts.Scale)) + dim.Render(" rs") +
		dim.Render("  method ") + method

	if m.preset >= 0 && m.preset < len(m.presets) {
		line += dim.Render("  preset ") + yellow.Render(m.presets[m.preset])
	}
	if m.rendering {
		line += "  " + yellow.Render(spinner(m.frame))
	} else if m.elapsed > 0 {
		line += dim.Render(fmt.Sprintf("  %v", m.elapsed.Round(time.Millisecond)))
	}
	return line
}

// halfBlocks rasterizes two image rows per terminal row using ▀ with the
// top pixel as foreground and the bottom pixel as background.
func halfBlocks(img *image.NRGBA) string {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var b strings.Builder
	for y := 0; y < h; y += 2 {
		b.WriteByte(' ')
		for x := 0; x < w; x++ {
			top := img.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
			bot := color.NRGBA{A: 255}
			if y+1 < h {
				bot = img.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y+1)
			}
			cell := cellStyle(hexColor(top), hexColor(bot))
			b.WriteString(cell.Render("▀"))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
