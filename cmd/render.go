package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/df07/go-spiral-raytracer/pkg/geometry"
	"github.com/df07/go-spiral-raytracer/pkg/renderer"
	"github.com/df07/go-spiral-raytracer/pkg/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// RenderFlags are the flags accepted by RenderFrame.
var RenderFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "scene, s",
		Value: "weekend",
		Usage: "scene preset id (see the scenes command)",
	},
	cli.IntFlag{
		Name:  "width",
		Usage: "frame width; 0 keeps the preset width",
	},
	cli.Float64Flag{
		Name:  "aspect",
		Usage: "aspect ratio (width / height); 0 keeps the preset ratio",
	},
	cli.IntFlag{
		Name:  "spp",
		Usage: "samples per pixel; the preset value when omitted",
	},
	cli.IntFlag{
		Name:  "depth",
		Usage: "maximum bounces per path; the preset value when omitted",
	},
	cli.IntFlag{
		Name:  "block",
		Value: 32,
		Usage: "block edge length in pixels",
	},
	cli.IntFlag{
		Name:  "workers",
		Usage: "number of render workers; 0 uses one per logical CPU",
	},
	cli.Int64Flag{
		Name:  "seed",
		Value: 1,
		Usage: "base seed for per-scanline samplers",
	},
	cli.BoolFlag{
		Name:  "packets",
		Usage: "trace four rays at a time against sphere packets",
	},
	cli.StringFlag{
		Name:  "split",
		Value: "sah",
		Usage: "BVH split strategy: median or sah",
	},
	cli.StringFlag{
		Name:  "out, o",
		Usage: "image filename for the rendered frame",
	},
	cli.IntFlag{
		Name:  "preview",
		Usage: "also write a downscaled preview of this width",
	},
}

// renderConfig collects the render command flags. Negative SamplesPerPixel
// and MaxDepth select the scene preset's values.
type renderConfig struct {
	Scene           string
	Width           int
	AspectRatio     float64
	SamplesPerPixel int
	MaxDepth        int
	BlockSize       int
	Workers         int
	Seed            int64
	Packets         bool
	Split           string
	Out             string
	Preview         int
}

func renderConfigFromContext(ctx *cli.Context) renderConfig {
	cfg := renderConfig{
		Scene:           ctx.String("scene"),
		Width:           ctx.Int("width"),
		AspectRatio:     ctx.Float64("aspect"),
		SamplesPerPixel: -1,
		MaxDepth:        -1,
		BlockSize:       ctx.Int("block"),
		Workers:         ctx.Int("workers"),
		Seed:            ctx.Int64("seed"),
		Packets:         ctx.Bool("packets"),
		Split:           ctx.String("split"),
		Out:             ctx.String("out"),
		Preview:         ctx.Int("preview"),
	}
	if ctx.IsSet("spp") {
		cfg.SamplesPerPixel = ctx.Int("spp")
	}
	if ctx.IsSet("depth") {
		cfg.MaxDepth = ctx.Int("depth")
	}
	return cfg
}

// loadScene constructs and builds the preset named by cfg.
func loadScene(cfg renderConfig) (*scene.Scene, error) {
	strategy, err := geometry.ParseSplitStrategy(cfg.Split)
	if err != nil {
		return nil, err
	}

	sc, err := scene.NewByName(cfg.Scene, geometry.CameraConfig{
		Width:       cfg.Width,
		AspectRatio: cfg.AspectRatio,
	})
	if err != nil {
		return nil, err
	}

	if err := sc.Build(geometry.BuildOptions{Strategy: strategy}); err != nil {
		return nil, err
	}

	stats := sc.BVH.Stats()
	logger.Infof("scene %s: %d primitives, %d BVH nodes (%s split, max depth %d) built in %v",
		sc.Name, len(sc.Primitives), stats.Nodes, strategy, stats.MaxDepth, stats.BuildTime)
	return sc, nil
}

// renderOptions maps the flags onto renderer options, falling back to the
// scene's sampling config.
func renderOptions(cfg renderConfig, sc *scene.Scene) renderer.Options {
	opts := renderer.DefaultOptions()
	opts.Width = sc.SamplingConfig.Width
	opts.Height = sc.SamplingConfig.Height
	opts.BlockSize = cfg.BlockSize
	opts.NumWorkers = cfg.Workers
	opts.Seed = cfg.Seed
	opts.PacketTracing = cfg.Packets

	opts.SamplesPerPixel = sc.SamplingConfig.SamplesPerPixel
	if cfg.SamplesPerPixel >= 0 {
		opts.SamplesPerPixel = cfg.SamplesPerPixel
	}
	opts.MaxDepth = sc.SamplingConfig.MaxDepth
	if cfg.MaxDepth >= 0 {
		opts.MaxDepth = cfg.MaxDepth
	}
	return opts
}

// outputPath returns cfg.Out or output/<scene>/render_<timestamp>.png.
func outputPath(cfg renderConfig, now time.Time) string {
	if cfg.Out != "" {
		return cfg.Out
	}
	timestamp := now.Format("20060102_150405")
	return filepath.Join("output", cfg.Scene, fmt.Sprintf("render_%s.png", timestamp))
}

func previewPath(out string) string {
	ext := filepath.Ext(out)
	return strings.TrimSuffix(out, ext) + "_preview.png"
}

// renderToFile renders one frame and writes it as PNG. An interrupted render
// still saves the partial frame and reports renderer.ErrInterrupted.
func renderToFile(ctx context.Context, cfg renderConfig, out string) (renderer.RenderStats, error) {
	sc, err := loadScene(cfg)
	if err != nil {
		return renderer.RenderStats{}, err
	}

	r, err := renderer.NewRenderer(sc, renderOptions(cfg, sc), logger)
	if err != nil {
		return renderer.RenderStats{}, err
	}

	frame, renderErr := r.RenderFrame(ctx)
	if renderErr != nil && !errors.Is(renderErr, renderer.ErrInterrupted) {
		return r.Stats(), renderErr
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return r.Stats(), fmt.Errorf("creating output directory: %w", err)
	}
	if err := frame.SavePNG(out); err != nil {
		return r.Stats(), err
	}
	logger.Noticef("render saved as %s", out)

	if cfg.Preview > 0 {
		height := max(1, cfg.Preview*frame.Height/frame.Width)
		preview := previewPath(out)
		if err := renderer.SavePNG(preview, frame.Scaled(cfg.Preview, height)); err != nil {
			return r.Stats(), err
		}
		logger.Infof("preview saved as %s", preview)
	}

	return r.Stats(), renderErr
}

// RenderFrame renders a single frame of a scene preset.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg := renderConfigFromContext(ctx)
	out := outputPath(cfg, time.Now())

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := renderToFile(sigCtx, cfg, out)
	if stats.TotalBlocks > 0 {
		displayRenderStats(stats)
	}
	if errors.Is(err, renderer.ErrInterrupted) {
		return cli.NewExitError("render interrupted; partial frame saved", 130)
	}
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return nil
}

func formatRenderStats(stats renderer.RenderStats) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Frame", "Samples", "Blocks", "Workers", "Rays", "Mrays/s", "Render time"})
	table.Append([]string{
		fmt.Sprintf("%dx%d", stats.Width, stats.Height),
		fmt.Sprintf("%d", stats.SamplesPerPixel),
		fmt.Sprintf("%d/%d", stats.CompletedBlocks, stats.TotalBlocks),
		fmt.Sprintf("%d", stats.Workers),
		fmt.Sprintf("%d", stats.Rays),
		fmt.Sprintf("%.2f", stats.RaysPerSecond()/1e6),
		stats.Elapsed.Round(time.Millisecond).String(),
	})
	table.SetFooter([]string{"", "", "", "", "", "PROGRESS", fmt.Sprintf("%.1f %%", stats.Progress()*100)})

	table.Render()
	return buf.String()
}

func displayRenderStats(stats renderer.RenderStats) {
	logger.Noticef("frame statistics\n%s", formatRenderStats(stats))
}
