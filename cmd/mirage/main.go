package main

import (
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/mirage/internal/blackhole"
	"github.com/san-kum/mirage/internal/config"
	"github.com/san-kum/mirage/internal/geodesic"
	"github.com/san-kum/mirage/internal/imaging"
	"github.com/san-kum/mirage/internal/jobs"
	"github.com/san-kum/mirage/internal/lensing"
	"github.com/san-kum/mirage/internal/server"
	"github.com/san-kum/mirage/internal/store"
	"github.com/san-kum/mirage/internal/tui"
	"github.com/spf13/cobra"
)

var (
	configFile string
	preset     string
	mass       float64
	scale      float64
	width      int
	method     string
	outPath    string
	frames     int
	delay      int
	bins       int
	jsonPath   string
	// serve flags
	addr       string
	uploadsDir string
	exportsDir string
	queueSize  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mirage",
		Short: "gravitational lensing renderer",
		Long:  "mirage bends images around a Schwarzschild black hole, as a one-shot render, an animated gif, a live terminal preview, or a web service.",
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the web service",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	serveCmd.Flags().StringVar(&uploadsDir, "uploads", config.DefaultUploadsDir, "uploads directory")
	serveCmd.Flags().StringVar(&exportsDir, "exports", config.DefaultExportsDir, "exports directory")
	serveCmd.Flags().IntVar(&queueSize, "queue", config.DefaultQueueSize, "gif job queue capacity")

	renderCmd := &cobra.Command{
		Use:   "render [image]",
		Short: "render one lensed frame to png",
		Args:  cobra.ExactArgs(1),
		RunE:  runRender,
	}
	addRenderFlags(renderCmd)
	renderCmd.Flags().StringVar(&outPath, "out", "lensed.png", "output path")

	gifCmd := &cobra.Command{
		Use:   "gif [image]",
		Short: "render an animated gif of the source rolling behind the hole",
		Args:  cobra.ExactArgs(1),
		RunE:  runGIF,
	}
	addRenderFlags(gifCmd)
	gifCmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "frame count")
	gifCmd.Flags().IntVar(&delay, "delay", imaging.DefaultGIFDelay, "per-frame delay (100ths of a second)")
	gifCmd.Flags().StringVar(&outPath, "out", "lensed.gif", "output path")

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "trace the geodesic deflection profile and plot it",
		RunE:  runProfile,
	}
	addRenderFlags(profileCmd)
	profileCmd.Flags().IntVar(&bins, "bins", 0, "bin count (default: derived from width, clamped to [8,128])")
	profileCmd.Flags().StringVar(&jsonPath, "json", "", "also export the profile as json ('-' for stdout)")

	previewCmd := &cobra.Command{
		Use:   "preview [image]",
		Short: "interactive terminal preview",
		Args:  cobra.ExactArgs(1),
		RunE:  runPreview,
	}
	addRenderFlags(previewCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list render presets",
		RunE:  listPresets,
	}

	rootCmd.AddCommand(serveCmd, renderCmd, gifCmd, profileCmd, previewCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&mass, "mass", config.DefaultMass, "black hole mass (solar masses)")
	cmd.Flags().Float64Var(&scale, "scale", config.DefaultScale, "schwarzschild radii from center to image corner")
	cmd.Flags().IntVar(&width, "width", config.DefaultWidth, "output width (pixels)")
	cmd.Flags().StringVar(&method, "method", config.DefaultMethod, "deflection method (weak|geodesic)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset parameters")
}

// renderParams resolves the effective render parameters: config file
// defaults, then preset, then explicitly set flags win.
func renderParams(cmd *cobra.Command) (lensing.Options, int, error) {
	base := config.DefaultConfig().Render
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return lensing.Options{}, 0, err
		}
		base = cfg.Render
	}
	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return lensing.Options{}, 0, fmt.Errorf("unknown preset %q (see 'mirage presets')", preset)
		}
		base = *p
	}

	if !cmd.Flags().Changed("mass") {
		mass = base.Mass
	}
	if !cmd.Flags().Changed("scale") {
		scale = base.Scale
	}
	if !cmd.Flags().Changed("width") {
		width = base.Width
	}
	if !cmd.Flags().Changed("method") {
		method = base.Method
	}
	if cmd.Flags().Lookup("frames") != nil && !cmd.Flags().Changed("frames") {
		frames = base.Frames
	}

	m, err := lensing.ParseMethod(method)
	if err != nil {
		return lensing.Options{}, 0, err
	}
	opts := lensing.Options{Mass: mass, Scale: scale, Method: m}
	if err := opts.Validate(); err != nil {
		return lensing.Options{}, 0, err
	}
	if width < 2 {
		return lensing.Options{}, 0, fmt.Errorf("width must be at least 2, got %d", width)
	}
	return opts, width, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("addr") {
		cfg.Addr = addr
	}
	if cmd.Flags().Changed("uploads") {
		cfg.UploadsDir = uploadsDir
	}
	if cmd.Flags().Changed("exports") {
		cfg.ExportsDir = exportsDir
	}
	if cmd.Flags().Changed("queue") {
		cfg.QueueSize = queueSize
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Start(ctx)
}

func runRender(cmd *cobra.Command, args []string) error {
	opts, w, err := renderParams(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("rendering %s (mass=%g scale=%g method=%s width=%d)...\n",
		args[0], opts.Mass, opts.Scale, opts.Method, w)
	start := time.Now()

	out, err := lensing.RenderFile(args[0], opts, w)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := imaging.EncodePNG(f, out); err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("wrote %s\n", outPath)
	return nil
}

func runGIF(cmd *cobra.Command, args []string) error {
	opts, w, err := renderParams(cmd)
	if err != nil {
		return err
	}
	if frames < 2 {
		return fmt.Errorf("need at least 2 frames, got %d", frames)
	}

	src, err := openImage(args[0])
	if err != nil {
		return err
	}
	src = imaging.Resize(src, w)

	fmt.Printf("rendering %d frames (mass=%g scale=%g method=%s width=%d)...\n",
		frames, opts.Mass, opts.Scale, opts.Method, w)
	start := time.Now()

	rendered, err := jobs.RenderFrames(context.Background(), src, opts, frames, func(p int) {
		fmt.Printf("\r%3d%%", p)
	})
	if err != nil {
		fmt.Println()
		return err
	}
	fmt.Printf("\r100%%\n")

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := imaging.EncodeGIF(f, rendered, delay); err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("wrote %s\n", outPath)
	return nil
}

func runProfile(cmd *cobra.Command, args []string) error {
	opts, w, err := renderParams(cmd)
	if err != nil {
		return err
	}

	model, err := blackhole.New(opts.Mass)
	if err != nil {
		return err
	}
	// Same calibration as the mapper on a square w×w image.
	cx := float64(w) / 2
	maxR := math.Max(math.Sqrt(2*cx*cx), 1)
	metersPerPixel := opts.Scale * model.SchwarzschildRadius / maxR

	fmt.Printf("tracing geodesics (mass=%g M☉, rs=%.4g m, %.4g m/px)...\n",
		opts.Mass, model.SchwarzschildRadius, metersPerPixel)
	start := time.Now()

	tracer := geodesic.NewTracer(model)
	var p *lensing.Profile
	if cmd.Flags().Changed("bins") {
		p = lensing.BuildProfileBins(tracer, maxR, metersPerPixel, bins)
	} else {
		p = lensing.BuildProfile(tracer, maxR, metersPerPixel)
	}
	fmt.Printf("traced %d bins in %v\n\n", len(p.Radii), time.Since(start))

	graph := asciigraph.Plot(p.Angles,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("deflection angle (rad) vs impact parameter bin"),
	)
	fmt.Println(graph)
	fmt.Println()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BIN\tRADIUS_PX\tB_METERS\tANGLE_RAD\tANGLE_DEG")
	for i := range p.Radii {
		fmt.Fprintf(tw, "%d\t%.1f\t%.4g\t%.6f\t%.4f\n",
			i, p.Radii[i], p.Radii[i]*metersPerPixel, p.Angles[i], p.Angles[i]*180/math.Pi)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	switch jsonPath {
	case "":
	case "-":
		return store.ExportProfileJSONStdout(opts, metersPerPixel, p)
	default:
		if err := store.ExportProfileJSON(jsonPath, opts, metersPerPixel, p); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", jsonPath)
	}
	return nil
}

func runPreview(cmd *cobra.Command, args []string) error {
	opts, _, err := renderParams(cmd)
	if err != nil {
		return err
	}

	src, err := openImage(args[0])
	if err != nil {
		return err
	}
	return tui.RunPreview(args[0], src, opts)
}

func listPresets(cmd *cobra.Command, args []string) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMASS\tSCALE\tWIDTH\tMETHOD\tFRAMES")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(tw, "%s\t%g\t%g\t%d\t%s\t%d\n",
			name, p.Mass, p.Scale, p.Width, p.Method, p.Frames)
	}
	return tw.Flush()
}

func openImage(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return imaging.Decode(f)
}
