package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/soypat/shadergraph"
	"github.com/soypat/shadergraph/config"
	"github.com/soypat/shadergraph/glbuild"
	"github.com/soypat/shadergraph/glrender"
	"github.com/soypat/shadergraph/metrics"
	"github.com/soypat/shadergraph/project"
	"github.com/soypat/shadergraph/sgaux"
)

var errNoInput = errors.New("missing -i project file")

func runNew(ctx context.Context, _ *config.Loader, args []string) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	output := fs.String("o", "project.json", "Output project file")
	name := fs.String("name", "sample", "Project name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ed, err := project.Sample()
	if err != nil {
		return err
	}
	doc, err := project.SaveFile(*output, ed, *name, uuid.Nil)
	if err != nil {
		return err
	}
	slog.Info("project written", "file", *output, "id", doc.ProjectID, "nodes", ed.Graph().NumNodes())
	return nil
}

func runGen(ctx context.Context, _ *config.Loader, args []string) error {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	input := fs.String("i", "", "Input project file")
	vert := fs.String("vert", "", "Vertex shader output file. Not written when empty")
	frag := fs.String("frag", "", "Fragment shader output file. Stdout when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ed, err := loadProject(*input)
	if err != nil {
		return err
	}
	src, err := generate(ed)
	if err != nil {
		return err
	}
	if *vert != "" {
		err = os.WriteFile(*vert, []byte(src.VertexCode), 0o644)
		if err != nil {
			return err
		}
	}
	if *frag == "" {
		_, err = os.Stdout.WriteString(src.FragmentCode)
		return err
	}
	return os.WriteFile(*frag, []byte(src.FragmentCode), 0o644)
}

func runEval(ctx context.Context, loader *config.Loader, args []string) error {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	input := fs.String("i", "", "Input project file")
	seconds := fs.Float64("t", float64(loader.Get().Preview.Seconds), "Time in seconds pushed by time nodes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ed, err := loadProject(*input)
	if err != nil {
		return err
	}
	c, err := evaluate(ed, float32(*seconds))
	fmt.Printf("%d %d %d %s\n", c.R, c.G, c.B, c)
	return err
}

func runSwatch(ctx context.Context, loader *config.Loader, args []string) error {
	cfg := loader.Get()
	fs := flag.NewFlagSet("swatch", flag.ContinueOnError)
	input := fs.String("i", "", "Input project file")
	output := fs.String("o", "swatch.png", "Output PNG file")
	size := fs.Int("size", cfg.Swatch.Size, "Swatch side in pixels")
	seconds := fs.Float64("t", float64(cfg.Preview.Seconds), "Time in seconds pushed by time nodes")
	previewDir := fs.String("preview", "", "Also write GPU cube and sphere previews to this directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ed, err := loadProject(*input)
	if err != nil {
		return err
	}
	fc := shadergraph.FrameContext{Seconds: float32(*seconds)}
	c, err := evaluate(ed, fc.Seconds)
	if err != nil {
		slog.Warn("evaluation failed, using fallback color", "err", err)
	}
	fp, err := os.Create(*output)
	if err != nil {
		return err
	}
	defer fp.Close()
	err = glrender.WriteSwatchPNG(fp, c, glrender.SwatchConfig{
		Size:     *size,
		FontSize: cfg.Swatch.FontSize,
		NoLabel:  cfg.Swatch.NoLabel,
	})
	if err != nil {
		return err
	}
	slog.Info("swatch written", "file", *output, "color", c.String())
	if *previewDir == "" {
		return nil
	}
	cube, sphere, err := sgaux.Snapshot(ed, cfg.Preview.Width, cfg.Preview.Height, fc)
	if err != nil {
		return fmt.Errorf("preview snapshot: %w", err)
	}
	for name, img := range map[string]image.Image{"cube.png": cube, "sphere.png": sphere} {
		err = writePNG(filepath.Join(*previewDir, name), img)
		if err != nil {
			return err
		}
	}
	return nil
}

func runWatch(ctx context.Context, loader *config.Loader, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	input := fs.String("i", "", "Input project file")
	outDir := fs.String("o", ".", "Directory where shader.vert and shader.frag are written")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		return errNoInput
	}
	cfg := loader.Get()
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadTimeout: 10 * time.Second}
		go func() {
			slog.Info("metrics server starting", "addr", cfg.Metrics.Addr, "path", cfg.Metrics.Path)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server", "err", err)
			}
		}()
		defer srv.Close()
	}
	go func() {
		if err := loader.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("config hot reload disabled", "err", err)
		}
	}()

	regenerate := func() {
		ed, err := loadProject(*input)
		if err != nil {
			slog.Error("loading project", "err", err)
			return
		}
		c, err := evaluate(ed, loader.Get().Preview.Seconds)
		if err != nil {
			slog.Warn("evaluating project", "err", err)
		}
		src, err := generate(ed)
		if err != nil {
			slog.Error("generating shaders", "err", err)
			return
		}
		err = errors.Join(
			os.WriteFile(filepath.Join(*outDir, "shader.vert"), []byte(src.VertexCode), 0o644),
			os.WriteFile(filepath.Join(*outDir, "shader.frag"), []byte(src.FragmentCode), 0o644),
		)
		if err != nil {
			slog.Error("writing shaders", "err", err)
			return
		}
		slog.Info("shaders written", "dir", *outDir, "macros", len(src.Macros), "color", c.String())
	}
	regenerate()
	return config.WatchFile(ctx, *input, regenerate)
}

func runUI(ctx context.Context, loader *config.Loader, args []string) error {
	fs := flag.NewFlagSet("ui", flag.ContinueOnError)
	input := fs.String("i", "", "Input project file")
	live := fs.Bool("watch", true, "Reload the project when the file changes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ed, err := loadProject(*input)
	if err != nil {
		return err
	}
	cfg := loader.Get()
	updates := make(chan *shadergraph.Editor, 1)
	if *live {
		go func() {
			err := config.WatchFile(ctx, *input, func() {
				next, err := loadProject(*input)
				if err != nil {
					slog.Error("reloading project", "err", err)
					return
				}
				select {
				case <-updates: // Drop a stale pending update.
				default:
				}
				updates <- next
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Warn("project hot reload disabled", "err", err)
			}
		}()
	}
	return sgaux.UI(ed, sgaux.UIConfig{
		Width:                   cfg.Window.Width,
		Height:                  cfg.Window.Height,
		Title:                   cfg.Window.Title,
		FrameRate:               cfg.Window.FrameRate,
		Context:                 ctx,
		Updates:                 updates,
		EmulateThreeButtonMouse: cfg.Input.EmulateThreeButtonMouse,
		DragSensitivity:         cfg.Input.DragSensitivity,
		OnFrame: func(_ shadergraph.Color, err error) {
			metrics.ObserveEvaluation(err)
		},
	})
}

func loadProject(path string) (*shadergraph.Editor, error) {
	if path == "" {
		return nil, errNoInput
	}
	ed, doc, err := project.LoadFile(path)
	if err != nil {
		return nil, err
	}
	metrics.GraphNodes.Set(float64(ed.Graph().NumNodes()))
	slog.Debug("project loaded", "file", path, "id", doc.ProjectID, "name", doc.Name)
	return ed, nil
}

func evaluate(ed *shadergraph.Editor, seconds float32) (shadergraph.Color, error) {
	ed.RemoveSelfLoops()
	c, err := ed.OutputColor(shadergraph.FrameContext{Seconds: seconds})
	metrics.ObserveEvaluation(err)
	return c, err
}

func generate(ed *shadergraph.Editor) (glbuild.ShaderOutput, error) {
	src, err := glbuild.Generate(ed.Nodes(), ed.Graph())
	metrics.ObserveGeneration(len(src.FragmentCode), err)
	return src, err
}

func writePNG(path string, img image.Image) error {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fp.Close()
	err = png.Encode(fp, img)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return fp.Sync()
}
