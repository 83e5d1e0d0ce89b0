// Package pipeline renders every action of a target into tiles, packs each
// pass into one sprite sheet and writes the matching manifest.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"spritesheets/internal/assembler"
	"spritesheets/internal/frames"
	"spritesheets/internal/model"
	"spritesheets/internal/render"
	"spritesheets/internal/runstore"
)

const TempDirName = "temp"

// removeTempDir deletes the shared temp directory at job end.
var removeTempDir = runstore.RemoveAll

// Target is the renderable object the actions animate.
type Target interface {
	Name() string
	SetAction(action model.Action) error
	SetFrame(frame int) error
	RotationZ() float64
	SetRotationZ(rad float64)
}

// TileRenderer renders one tile synchronously.
type TileRenderer interface {
	RenderTile(ctx context.Context, tile render.Tile) error
}

// Packer assembles a directory of tiles into one sheet image.
type Packer interface {
	Pack(ctx context.Context, tileDir, outPath string) (assembler.SheetInfo, error)
}

// Exporter receives every finished pass.
type Exporter interface {
	ExportPass(pass PassResult) error
}

type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type Job struct {
	RunID                  string
	Target                 Target
	Actions                []model.Action
	OutputPath             string
	TileSize               model.TileSize
	FPS                    float64
	OnlyRenderMarkedFrames bool
	AutoRotate             int

	Renderer TileRenderer
	Packer   Packer
	Exporter Exporter
	Progress *Progress
	Log      Logger
	Stdout   io.Writer
}

type PassResult struct {
	Label         string              `json:"label"`
	Suffix        string              `json:"suffix,omitempty"`
	Angle         int                 `json:"angle"`
	SheetPath     string              `json:"sheet_path"`
	ManifestPath  string              `json:"manifest_path"`
	Sheet         assembler.SheetInfo `json:"sheet"`
	Manifest      model.Manifest      `json:"manifest"`
	Actions       []ActionStats       `json:"actions"`
	TilesRendered int                 `json:"tiles_rendered"`
}

type Result struct {
	RunID         string       `json:"run_id"`
	Target        string       `json:"target"`
	OutputDir     string       `json:"output_dir"`
	State         string       `json:"state"`
	Passes        []PassResult `json:"passes"`
	TilesRendered int          `json:"tiles_rendered"`
	TempRemoved   bool         `json:"temp_removed"`
}

type pass struct {
	index  int
	angle  int
	suffix string
	label  string
}

// SweepAngles lists the rotation angles of a sweep with the given step. A
// step of 0 means no sweep.
func SweepAngles(step int) []int {
	if step <= 0 {
		return nil
	}
	angles := make([]int, 0, (360+step-1)/step)
	for i := 0; i < 360; i += step {
		angles = append(angles, i)
	}
	return angles
}

func Radians(deg int) float64 {
	return float64(deg) * math.Pi / 180
}

func planPasses(step int) []pass {
	angles := SweepAngles(step)
	if len(angles) == 0 {
		return []pass{{index: 1, label: "default"}}
	}
	out := make([]pass, 0, len(angles))
	for i, a := range angles {
		suffix := RotationSuffix(a)
		out = append(out, pass{index: i + 1, angle: a, suffix: suffix, label: strings.TrimPrefix(suffix, "_")})
	}
	return out
}

func (j *Job) validate() error {
	if j.Target == nil || strings.TrimSpace(j.Target.Name()) == "" {
		return configError("target is required")
	}
	if strings.TrimSpace(j.OutputPath) == "" {
		return configError("output path is required")
	}
	if j.Renderer == nil {
		return configError("tile renderer is required")
	}
	if j.Packer == nil {
		return configError("sheet assembler is required")
	}
	if j.TileSize.Width <= 0 || j.TileSize.Height <= 0 {
		return configError("tile size must be positive, got %dx%d", j.TileSize.Width, j.TileSize.Height)
	}
	if j.FPS <= 0 {
		return configError("fps must be > 0, got %g", j.FPS)
	}
	if j.AutoRotate < 0 {
		return configError("auto rotate step must be >= 0, got %d", j.AutoRotate)
	}
	for _, a := range j.Actions {
		if err := frames.CheckRange(a.FrameRange); err != nil {
			return &Error{Kind: KindConfiguration, Action: a.Name, Err: err}
		}
		if j.OnlyRenderMarkedFrames {
			if err := frames.CheckMarkers(a); err != nil {
				return &Error{Kind: KindConfiguration, Action: a.Name, Err: err}
			}
		}
	}
	return nil
}

// Run executes the whole job. Passes run strictly one after another and the
// first failure aborts the job. The shared temp directory is removed only
// after every pass succeeded, or when the job is canceled.
func Run(ctx context.Context, job Job) (Result, error) {
	if job.Progress == nil {
		job.Progress = NewProgress()
	}
	if job.Log == nil {
		job.Log = nopLogger{}
	}
	if job.Stdout == nil {
		job.Stdout = io.Discard
	}
	if strings.TrimSpace(job.RunID) == "" {
		job.RunID = uuid.NewString()
	}

	state := model.NewJobState(job.RunID)
	if err := job.validate(); err != nil {
		_ = model.TransitionJob(&state, model.JobFailed, string(KindConfiguration))
		job.Progress.finish(state.State, err)
		job.Log.Error("run %s rejected: %v", job.RunID, err)
		return Result{RunID: job.RunID, State: state.State}, err
	}

	lock, err := runstore.AcquireRunLock(job.OutputPath, job.RunID)
	if err != nil {
		err = &Error{Kind: KindConfiguration, Err: err}
		_ = model.TransitionJob(&state, model.JobFailed, string(KindConfiguration))
		job.Progress.finish(state.State, err)
		return Result{RunID: job.RunID, State: state.State}, err
	}
	defer func() {
		_ = lock.Release()
	}()

	if err := model.TransitionJob(&state, model.JobRunning, ""); err != nil {
		return Result{RunID: job.RunID, State: state.State}, err
	}

	passes := planPasses(job.AutoRotate)
	job.Progress.begin(job.RunID, len(job.Actions), len(passes), plannedTiles(job)*len(passes))

	target := job.Target
	res := Result{
		RunID:     job.RunID,
		Target:    target.Name(),
		OutputDir: job.OutputPath,
		Passes:    make([]PassResult, 0, len(passes)),
	}
	tempDir := filepath.Join(job.OutputPath, TempDirName)
	job.Log.Info("run %s started: target=%s actions=%d passes=%d output=%s", job.RunID, target.Name(), len(job.Actions), len(passes), job.OutputPath)

	fail := func(err error) (Result, error) {
		var pe *Error
		if errors.As(err, &pe) && pe.Kind == KindCanceled {
			if rmErr := removeTempDir(tempDir); rmErr != nil {
				err = errors.Join(err, &Error{Kind: KindCleanup, Err: rmErr})
			} else {
				res.TempRemoved = true
			}
		}
		_ = model.TransitionJob(&state, model.JobFailed, err.Error())
		res.State = state.State
		job.Progress.finish(state.State, err)
		job.Log.Error("run %s failed: %v", job.RunID, err)
		return res, err
	}

	sweeping := job.AutoRotate > 0
	original := target.RotationZ()
	for _, p := range passes {
		if err := ctx.Err(); err != nil {
			if sweeping {
				target.SetRotationZ(original)
			}
			return fail(&Error{Kind: KindCanceled, Pass: p.label, Err: err})
		}
		if sweeping {
			target.SetRotationZ(original + Radians(p.angle))
		}
		pr, err := runPass(ctx, job, p, len(passes), tempDir)
		if err != nil {
			if sweeping {
				target.SetRotationZ(original)
			}
			return fail(err)
		}
		res.Passes = append(res.Passes, pr)
		res.TilesRendered += pr.TilesRendered
	}
	if sweeping {
		target.SetRotationZ(original)
	}

	if err := removeTempDir(tempDir); err != nil {
		return fail(&Error{Kind: KindCleanup, Err: err})
	}
	res.TempRemoved = true

	if err := model.TransitionJob(&state, model.JobSucceeded, ""); err != nil {
		return fail(err)
	}
	res.State = state.State
	job.Progress.finish(state.State, nil)
	job.Log.Info("run %s succeeded: passes=%d tiles=%d", job.RunID, len(res.Passes), res.TilesRendered)
	return res, nil
}

func runPass(ctx context.Context, job Job, p pass, passTotal int, tempDir string) (PassResult, error) {
	target := job.Target
	tileDir := filepath.Join(tempDir, p.label)
	if err := runstore.ResetDir(tileDir); err != nil {
		return PassResult{}, &Error{Kind: KindRender, Pass: p.label, Err: err}
	}

	job.Progress.startPass(p.index, p.label)
	fmt.Fprintf(job.Stdout, "[pass %d/%d] %s\n", p.index, passTotal, p.label)
	job.Log.Info("pass %s started (rotation=%g rad)", p.label, target.RotationZ())

	builder := NewManifestBuilder(target.Name(), job.TileSize, job.FPS)
	proc := &ActionProcessor{
		Target:     target,
		Renderer:   job.Renderer,
		TileSize:   job.TileSize,
		MarkedOnly: job.OnlyRenderMarkedFrames,
		TileDir:    tileDir,
		Pass:       p.label,
		SlotWidth:  SlotWidth(reservedSlots(job.Actions)),
		progress:   job.Progress,
	}

	pr := PassResult{
		Label:        p.label,
		Suffix:       p.suffix,
		Angle:        p.angle,
		SheetPath:    SheetPath(job.OutputPath, target.Name(), p.suffix),
		ManifestPath: ManifestPath(job.OutputPath, target.Name(), p.suffix),
		Actions:      make([]ActionStats, 0, len(job.Actions)),
	}

	for index, action := range job.Actions {
		job.Progress.setAction(index, action.Name)
		stats, err := proc.Process(ctx, action)
		if err != nil {
			return PassResult{}, err
		}
		desc, ok := builder.Add(action.Name, stats.Reserved)
		if !ok {
			job.Log.Warn("pass %s: action %s has an empty frame range %v, skipped", p.label, action.Name, action.FrameRange)
			continue
		}
		if stats.Rendered != stats.Reserved {
			job.Log.Warn("pass %s: action %s reserves %d frames but rendered %d marked tiles, %d slots left blank", p.label, action.Name, stats.Reserved, stats.Rendered, stats.Padded)
		}
		pr.Actions = append(pr.Actions, stats)
		pr.TilesRendered += stats.Rendered
		fmt.Fprintf(job.Stdout, "[%d/%d] %s  tiles %d  end %d\n", index+1, len(job.Actions), action.Name, stats.Rendered, desc.End)
	}

	if err := ctx.Err(); err != nil {
		return PassResult{}, &Error{Kind: KindCanceled, Pass: p.label, Err: err}
	}
	sheet, err := job.Packer.Pack(ctx, tileDir, pr.SheetPath)
	if err != nil {
		if ctx.Err() != nil {
			return PassResult{}, &Error{Kind: KindCanceled, Pass: p.label, Err: err}
		}
		return PassResult{}, assemblyError(p.label, err)
	}
	pr.Sheet = sheet
	job.Log.Info("pass %s: sheet %s (%dx%d)", p.label, pr.SheetPath, sheet.Width, sheet.Height)

	if err := builder.Write(pr.ManifestPath); err != nil {
		return PassResult{}, &Error{Kind: KindSerialization, Pass: p.label, Err: err}
	}
	pr.Manifest = builder.Manifest()

	if job.Exporter != nil {
		if err := job.Exporter.ExportPass(pr); err != nil {
			return PassResult{}, &Error{Kind: KindSerialization, Pass: p.label, Err: fmt.Errorf("export pass: %w", err)}
		}
	}
	fmt.Fprintf(job.Stdout, "done  %s  %s\n", pr.SheetPath, pr.ManifestPath)
	return pr, nil
}

func plannedTiles(job Job) int {
	n := 0
	for _, a := range job.Actions {
		if count, _, _ := frames.CountRange(a.FrameRange); count > 0 {
			n += frames.SelectedCount(a, job.OnlyRenderMarkedFrames)
		}
	}
	return n
}

func reservedSlots(actions []model.Action) int {
	n := 0
	for _, a := range actions {
		if count, _, _ := frames.CountRange(a.FrameRange); count > 0 {
			n += count
		}
	}
	return n
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
