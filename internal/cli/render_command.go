package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"spritesheets/internal/assembler"
	"spritesheets/internal/jobconfig"
	"spritesheets/internal/logbook"
	"spritesheets/internal/pipeline"
	"spritesheets/internal/render"
	"spritesheets/internal/resource"
)

func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	jobPath := fs.String("job", jobconfig.DefaultJobPath, "job file path")
	target := fs.String("target", "", "render target override")
	output := fs.String("output", "", "output directory override")
	bin := fs.String("bin", "", "assembler binary or directory override")
	tileWidth := fs.Int("tile-width", 0, "tile width in pixels (0 = job file/default)")
	tileHeight := fs.Int("tile-height", 0, "tile height in pixels (0 = job file/default)")
	fps := fs.Float64("fps", 0, "manifest frame rate (0 = job file/default)")
	markedOnly := fs.Bool("marked-only", false, "render only pose-marker frames of actions that have markers")
	autoRotate := fs.Int("auto-rotate", -1, "rotation sweep step in degrees (0 = single pass, -1 = job file)")
	renderer := fs.String("renderer", "", "tile renderer: placeholder|command")
	resourceFile := fs.String("resource", "", "also export sheets and manifests into this resource file")
	progress := fs.Bool("progress", true, "show live progress view on interactive terminals")
	jsonOut := fs.Bool("json", false, "print JSON output")

	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	overrides := jobconfig.Overrides{
		Target:       strings.TrimSpace(*target),
		OutputPath:   strings.TrimSpace(*output),
		BinPath:      strings.TrimSpace(*bin),
		TileWidth:    *tileWidth,
		TileHeight:   *tileHeight,
		FPS:          *fps,
		Renderer:     strings.TrimSpace(*renderer),
		ResourceFile: strings.TrimSpace(*resourceFile),
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "marked-only":
			overrides.MarkedOnly = boolPtr(*markedOnly)
		case "auto-rotate":
			if *autoRotate >= 0 {
				overrides.AutoRotate = intPtr(*autoRotate)
			}
		}
	})

	settings, err := loadSettings(*jobPath, overrides)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	book, err := logbook.New(filepath.Join(settings.OutputPath, logbook.FileName))
	if err != nil {
		return &pipeline.Error{Kind: pipeline.KindConfiguration, Err: fmt.Errorf("open log: %w", err)}
	}
	book = book.WithPrefix("[" + runID[:8] + "]")

	job, closeJob, err := buildJob(settings, book)
	if err != nil {
		return err
	}
	defer closeJob()
	job.RunID = runID

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	live := *progress && !*jsonOut && stdinIsTTY()
	var result pipeline.Result
	switch {
	case live:
		job.Stdout = io.Discard
		result, err = runWithProgressView(ctx, job, book)
	case *jsonOut:
		job.Stdout = io.Discard
		result, err = pipeline.Run(ctx, job)
	default:
		job.Stdout = os.Stdout
		result, err = pipeline.Run(ctx, job)
	}

	if *jsonOut {
		if printErr := printJSON(result); printErr != nil {
			return printErr
		}
		return err
	}
	if err != nil {
		if result.State != "" {
			fmt.Printf("state: %s\n", result.State)
		}
		fmt.Printf("log: %s\n", book.Path())
		return err
	}
	printRunSummary(result, book.Path())
	return nil
}

func loadSettings(jobPath string, overrides jobconfig.Overrides) (jobconfig.Settings, error) {
	jf, err := jobconfig.Load(jobPath)
	if err != nil {
		return jobconfig.Settings{}, &pipeline.Error{Kind: pipeline.KindConfiguration, Err: err}
	}
	settings := jobconfig.Resolve(jobPath, jf, overrides)
	if err := jobconfig.Validate(settings); err != nil {
		return jobconfig.Settings{}, &pipeline.Error{Kind: pipeline.KindConfiguration, Err: err}
	}
	return settings, nil
}

// buildJob wires the configured renderer, packer and exporter into a
// pipeline job. The returned func releases whatever was opened.
func buildJob(s jobconfig.Settings, book *logbook.Logbook) (pipeline.Job, func(), error) {
	job := pipeline.Job{
		Target:                 render.NewScene(s.Target, s.Rotation*math.Pi/180, s.BoundActions),
		Actions:                s.Actions,
		OutputPath:             s.OutputPath,
		TileSize:               s.TileSize,
		FPS:                    s.FPS,
		OnlyRenderMarkedFrames: s.MarkedOnly,
		AutoRotate:             s.AutoRotate,
		Progress:               pipeline.NewProgress(),
		Log:                    book,
	}

	switch s.Renderer {
	case jobconfig.RendererCommand:
		job.Renderer = render.Command{
			Argv:      s.RenderCommand,
			Timeout:   s.RenderTimeout,
			LogWriter: book.ToolWriter("render"),
		}
	default:
		job.Renderer = render.Placeholder{}
	}

	if strings.TrimSpace(s.BinPath) == "" {
		job.Packer = assembler.Grid{Columns: s.Columns}
	} else {
		job.Packer = assembler.Process{
			BinPath:   s.BinPath,
			Timeout:   s.AssemblerTimeout,
			LogWriter: book.ToolWriter("assembler"),
		}
	}

	closeFn := func() {}
	if strings.TrimSpace(s.ResourceFile) != "" {
		store, err := resource.Open(s.ResourceFile)
		if err != nil {
			return pipeline.Job{}, closeFn, &pipeline.Error{Kind: pipeline.KindConfiguration, Err: fmt.Errorf("open resource file: %w", err)}
		}
		job.Exporter = store
		closeFn = func() { _ = store.Close() }
	}
	return job, closeFn, nil
}

func printRunSummary(result pipeline.Result, logPath string) {
	fmt.Println("render summary")
	fmt.Printf("run_id: %s\n", result.RunID)
	fmt.Printf("target: %s\n", result.Target)
	fmt.Printf("state: %s\n", result.State)
	fmt.Printf("output_dir: %s\n", result.OutputDir)
	fmt.Printf("passes: %d\n", len(result.Passes))
	for _, p := range result.Passes {
		fmt.Printf("  %s: sheet %s (%dx%d, %d tiles)\n", p.Label, p.SheetPath, p.Sheet.Width, p.Sheet.Height, p.TilesRendered)
		fmt.Printf("  %s: manifest %s (%d animations)\n", p.Label, p.ManifestPath, len(p.Manifest.Animations))
	}
	fmt.Printf("tiles_rendered: %d\n", result.TilesRendered)
	fmt.Printf("temp_removed: %t\n", result.TempRemoved)
	fmt.Printf("log: %s\n", logPath)
}
