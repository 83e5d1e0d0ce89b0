// Package jobconfig loads and validates the YAML job file that describes one
// sprite sheet render: the target, its actions and the output settings.
package jobconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"spritesheets/internal/frames"
	"spritesheets/internal/model"
	"spritesheets/internal/runstore"
)

const (
	DefaultJobPath  = "spritesheets.yaml"
	DefaultTileSize = 64
	DefaultFPS      = 24

	RendererPlaceholder = "placeholder"
	RendererCommand     = "command"

	jobSchemaVersion = 1
)

var ErrInvalid = errors.New("invalid job configuration")

const defaultJobYAML = `# spritesheets job configuration
version: 1

# Object whose actions are rendered. Output files are named after it.
target: hero
# Initial Z rotation of the target in degrees.
rotation: 0

# Sheets, manifests and the scratch temp/ directory go here.
output_path: ./sprites
# Directory holding the assembler binary (or the binary itself).
# Leave empty to use the built-in grid packer.
bin_path: ""

tile_size: [64, 64]
fps: 24
only_render_marked_frames: false
# Degrees between sweep passes; 0 renders a single pass.
auto_rotate: 0

# placeholder writes flat colour tiles; command runs render_command per tile.
renderer: placeholder
# render_command: [blender, -b, scene.blend, --python, render_tile.py, --, "{action}", "{frame}", "{rotation}", "{out}"]
# render_timeout: 2m
# assembler_timeout: 5m
# resource_file: ./sprites/stage.res

actions:
  - name: idle
    frame_range: [0, 3]
  - name: attack
    frame_range: [0, 12]
    markers:
      - name: wind-up
        frame: 2
      - name: hit
        frame: 7
`

// JobFile models spritesheets.yaml.
type JobFile struct {
	Version                int            `yaml:"version"`
	Target                 string         `yaml:"target"`
	Rotation               float64        `yaml:"rotation"`
	BoundActions           []string       `yaml:"bound_actions,omitempty"`
	OutputPath             string         `yaml:"output_path"`
	BinPath                string         `yaml:"bin_path,omitempty"`
	TileSize               []int          `yaml:"tile_size,omitempty"`
	FPS                    float64        `yaml:"fps,omitempty"`
	OnlyRenderMarkedFrames bool           `yaml:"only_render_marked_frames"`
	AutoRotate             int            `yaml:"auto_rotate"`
	Renderer               string         `yaml:"renderer,omitempty"`
	RenderCommand          []string       `yaml:"render_command,omitempty"`
	RenderTimeout          time.Duration  `yaml:"render_timeout,omitempty"`
	AssemblerTimeout       time.Duration  `yaml:"assembler_timeout,omitempty"`
	ResourceFile           string         `yaml:"resource_file,omitempty"`
	Columns                int            `yaml:"columns,omitempty"`
	Actions                []model.Action `yaml:"actions"`
}

// Overrides carries command-line values that win over the job file.
type Overrides struct {
	Target       string
	OutputPath   string
	BinPath      string
	TileWidth    int
	TileHeight   int
	FPS          float64
	MarkedOnly   *bool
	AutoRotate   *int
	Renderer     string
	ResourceFile string
}

// Settings is the resolved, validated configuration of one job.
type Settings struct {
	JobPath          string
	Target           string
	Rotation         float64
	BoundActions     []string
	OutputPath       string
	BinPath          string
	TileSize         model.TileSize
	FPS              float64
	MarkedOnly       bool
	AutoRotate       int
	Renderer         string
	RenderCommand    []string
	RenderTimeout    time.Duration
	AssemblerTimeout time.Duration
	ResourceFile     string
	Columns          int
	Actions          []model.Action

	tileSizeValues int
}

func Load(path string) (JobFile, error) {
	p := normalizeJobPath(path)
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return JobFile{}, fmt.Errorf("job file %s not found (create one with `spritesheets init`): %w", p, err)
		}
		return JobFile{}, fmt.Errorf("read job file %s: %w", p, err)
	}
	var jf JobFile
	if err := yaml.Unmarshal(data, &jf); err != nil {
		return JobFile{}, fmt.Errorf("parse job file %s: %w", p, err)
	}
	if jf.Version > jobSchemaVersion {
		return JobFile{}, fmt.Errorf("job file %s has unsupported version %d", p, jf.Version)
	}
	return jf, nil
}

// Init writes the starter job file unless one already exists.
func Init(path string, force bool) (string, bool, error) {
	p := normalizeJobPath(path)
	if runstore.Exists(p) && !force {
		return p, false, nil
	}
	if err := runstore.WriteBytes(p, []byte(defaultJobYAML)); err != nil {
		return p, false, err
	}
	return p, true, nil
}

// Resolve merges the job file with overrides and applies defaults. Relative
// paths in the job file are taken relative to the file itself.
func Resolve(jobPath string, jf JobFile, o Overrides) Settings {
	baseDir := filepath.Dir(normalizeJobPath(jobPath))

	s := Settings{
		JobPath:          jobPath,
		Target:           firstNonEmpty(o.Target, jf.Target),
		Rotation:         jf.Rotation,
		BoundActions:     jf.BoundActions,
		OutputPath:       firstNonEmpty(o.OutputPath, resolveRelative(baseDir, jf.OutputPath)),
		BinPath:          firstNonEmpty(o.BinPath, resolveRelative(baseDir, jf.BinPath)),
		FPS:              firstPositiveFloat(o.FPS, jf.FPS, DefaultFPS),
		MarkedOnly:       jf.OnlyRenderMarkedFrames,
		AutoRotate:       jf.AutoRotate,
		Renderer:         strings.ToLower(firstNonEmpty(o.Renderer, jf.Renderer, RendererPlaceholder)),
		RenderCommand:    jf.RenderCommand,
		RenderTimeout:    jf.RenderTimeout,
		AssemblerTimeout: jf.AssemblerTimeout,
		ResourceFile:     firstNonEmpty(o.ResourceFile, resolveRelative(baseDir, jf.ResourceFile)),
		Columns:          jf.Columns,
		Actions:          jf.Actions,
		tileSizeValues:   len(jf.TileSize),
	}

	width, height := DefaultTileSize, DefaultTileSize
	if len(jf.TileSize) == 2 {
		width, height = jf.TileSize[0], jf.TileSize[1]
	}
	s.TileSize = model.TileSize{
		Width:  firstNonZero(o.TileWidth, width),
		Height: firstNonZero(o.TileHeight, height),
	}
	if o.MarkedOnly != nil {
		s.MarkedOnly = *o.MarkedOnly
	}
	if o.AutoRotate != nil {
		s.AutoRotate = *o.AutoRotate
	}
	return s
}

// Validate reports every problem that must be fixed before rendering starts.
func Validate(s Settings) error {
	var problems []string
	if strings.TrimSpace(s.Target) == "" {
		problems = append(problems, "target is required")
	}
	if strings.TrimSpace(s.OutputPath) == "" {
		problems = append(problems, "output_path is required")
	}
	if s.tileSizeValues != 0 && s.tileSizeValues != 2 {
		problems = append(problems, fmt.Sprintf("tile_size needs exactly 2 values, got %d", s.tileSizeValues))
	}
	if s.TileSize.Width <= 0 || s.TileSize.Height <= 0 {
		problems = append(problems, fmt.Sprintf("tile_size must be positive, got %dx%d", s.TileSize.Width, s.TileSize.Height))
	}
	if s.FPS <= 0 {
		problems = append(problems, "fps must be > 0")
	}
	if s.AutoRotate < 0 || s.AutoRotate >= 360 {
		problems = append(problems, fmt.Sprintf("auto_rotate must be within [0, 360), got %d", s.AutoRotate))
	}
	switch s.Renderer {
	case RendererPlaceholder:
	case RendererCommand:
		if len(s.RenderCommand) == 0 || strings.TrimSpace(s.RenderCommand[0]) == "" {
			problems = append(problems, "render_command is required for the command renderer")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown renderer %q (expected placeholder or command)", s.Renderer))
	}
	if len(s.Actions) == 0 {
		problems = append(problems, "at least one action is required")
	}
	for i, a := range s.Actions {
		if strings.TrimSpace(a.Name) == "" {
			problems = append(problems, fmt.Sprintf("action %d has no name", i+1))
		}
		if err := frames.CheckRange(a.FrameRange); err != nil {
			problems = append(problems, fmt.Sprintf("action %d: %v", i+1, err))
			continue
		}
		if s.MarkedOnly {
			if err := frames.CheckMarkers(a); err != nil {
				problems = append(problems, fmt.Sprintf("action %d: %v", i+1, err))
			}
		}
	}
	if s.RenderTimeout < 0 || s.AssemblerTimeout < 0 {
		problems = append(problems, "timeouts must be >= 0")
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}

func normalizeJobPath(path string) string {
	p := strings.TrimSpace(path)
	if p == "" {
		return DefaultJobPath
	}
	return p
}

func resolveRelative(baseDir, p string) string {
	v := strings.TrimSpace(p)
	if v == "" || filepath.IsAbs(v) {
		return v
	}
	return filepath.Join(baseDir, v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstPositiveFloat(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
