package jobconfig

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeJob(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write job: %v", err)
	}
	return path
}

func TestStarterJobLoadsAndValidates(t *testing.T) {
	dir := t.TempDir()
	path, created, err := Init(filepath.Join(dir, DefaultJobPath), false)
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !created {
		t.Fatal("expected starter file to be created")
	}

	jf, err := Load(path)
	if err != nil {
		t.Fatalf("load starter: %v", err)
	}
	s := Resolve(path, jf, Overrides{})
	if err := Validate(s); err != nil {
		t.Fatalf("starter should validate: %v", err)
	}
	if s.Target != "hero" || len(s.Actions) != 2 {
		t.Fatalf("unexpected starter content: target=%q actions=%d", s.Target, len(s.Actions))
	}
	if got := s.Actions[1].Markers; len(got) != 2 || got[1].Frame != 7 {
		t.Fatalf("markers mismatch: %+v", got)
	}
	if s.OutputPath != filepath.Join(dir, "sprites") {
		t.Fatalf("output path should resolve next to the job file, got %q", s.OutputPath)
	}

	_, created, err = Init(path, false)
	if err != nil || created {
		t.Fatalf("second init should keep the existing file: created=%v err=%v", created, err)
	}
}

func TestResolveAppliesDefaultsAndOverrides(t *testing.T) {
	path := writeJob(t, `
target: crate
output_path: /abs/out
render_timeout: 90s
actions:
  - name: spin
    frame_range: [1, 4.5]
`)
	jf, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	s := Resolve(path, jf, Overrides{})
	if s.TileSize.Width != DefaultTileSize || s.TileSize.Height != DefaultTileSize {
		t.Fatalf("tile size default mismatch: %+v", s.TileSize)
	}
	if s.FPS != DefaultFPS {
		t.Fatalf("fps default mismatch: %v", s.FPS)
	}
	if s.Renderer != RendererPlaceholder {
		t.Fatalf("renderer default mismatch: %q", s.Renderer)
	}
	if s.OutputPath != "/abs/out" {
		t.Fatalf("absolute output path changed: %q", s.OutputPath)
	}
	if s.RenderTimeout != 90*time.Second {
		t.Fatalf("render timeout mismatch: %v", s.RenderTimeout)
	}
	if s.Actions[0].FrameRange.Max() != 4.5 {
		t.Fatalf("frame range mismatch: %+v", s.Actions[0].FrameRange)
	}

	marked := true
	rotate := 45
	s = Resolve(path, jf, Overrides{
		Target:     "barrel",
		TileWidth:  32,
		FPS:        12,
		MarkedOnly: &marked,
		AutoRotate: &rotate,
	})
	if s.Target != "barrel" || s.TileSize.Width != 32 || s.TileSize.Height != DefaultTileSize {
		t.Fatalf("overrides not applied: %+v", s)
	}
	if s.FPS != 12 || !s.MarkedOnly || s.AutoRotate != 45 {
		t.Fatalf("overrides not applied: fps=%v marked=%v rotate=%d", s.FPS, s.MarkedOnly, s.AutoRotate)
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	path := writeJob(t, `
tile_size: [64]
fps: 24
auto_rotate: 360
renderer: command
actions:
  - frame_range: [0, 1]
  - name: forever
    frame_range: [0, .inf]
  - name: huge
    frame_range: [0, 1e19]
`)
	jf, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	err = Validate(Resolve(path, jf, Overrides{}))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	for _, want := range []string{
		"target is required",
		"output_path is required",
		"tile_size needs exactly 2 values",
		"auto_rotate must be within [0, 360)",
		"render_command is required",
		"action 1 has no name",
		"action 2: frame range [0 +Inf] has a non-finite bound",
		"action 3: frame range [0 1e+19] exceeds",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestValidateRejectsUnknownRenderer(t *testing.T) {
	s := Settings{
		Target:     "hero",
		OutputPath: "out",
		Renderer:   "raytracer",
		FPS:        24,
	}
	s.TileSize.Width, s.TileSize.Height = 8, 8
	err := Validate(s)
	if err == nil || !strings.Contains(err.Error(), `unknown renderer "raytracer"`) {
		t.Fatalf("expected unknown renderer error, got %v", err)
	}
}

func TestLoadMissingFileHintsInit(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "spritesheets init") {
		t.Fatalf("expected init hint, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped ErrNotExist, got %v", err)
	}
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	path := writeJob(t, "version: 9\ntarget: hero\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unsupported version 9") {
		t.Fatalf("expected version error, got %v", err)
	}
}

func TestDoctorReportsMissingAssembler(t *testing.T) {
	dir := t.TempDir()
	s := Settings{
		Target:     "hero",
		OutputPath: filepath.Join(dir, "out"),
		BinPath:    filepath.Join(dir, "no-such-bin"),
		Renderer:   RendererPlaceholder,
		FPS:        24,
	}
	s.TileSize.Width, s.TileSize.Height = 8, 8

	res := Doctor(s)
	if res.OK {
		t.Fatal("doctor should fail without an assembler and actions")
	}
	byName := map[string]DoctorCheck{}
	for _, c := range res.Checks {
		byName[c.Name] = c
	}
	if byName["dependency:assembler"].OK {
		t.Fatalf("assembler check should fail: %+v", byName["dependency:assembler"])
	}
	if !byName["directory:output"].OK {
		t.Fatalf("output dir should be writable: %+v", byName["directory:output"])
	}
	if byName["config"].OK {
		t.Fatalf("config check should fail without actions: %+v", byName["config"])
	}
}

func TestDoctorAcceptsBuiltinPacker(t *testing.T) {
	path, _, err := Init(filepath.Join(t.TempDir(), DefaultJobPath), false)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	jf, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	res := Doctor(Resolve(path, jf, Overrides{}))
	if !res.OK {
		t.Fatalf("doctor should pass for the starter job: %+v", res.Checks)
	}
}

func TestValidateMarkersOnlyWhenMarkedOnly(t *testing.T) {
	path := writeJob(t, `
target: hero
output_path: out
actions:
  - name: attack
    frame_range: [0, 12]
    markers:
      - name: late
        frame: 20
`)
	jf, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := Validate(Resolve(path, jf, Overrides{})); err != nil {
		t.Fatalf("markers are ignored without marked-only rendering: %v", err)
	}
	marked := true
	err = Validate(Resolve(path, jf, Overrides{MarkedOnly: &marked}))
	if !errors.Is(err, ErrInvalid) || !strings.Contains(err.Error(), `marker "late" at frame 20 is outside frame range 0..12`) {
		t.Fatalf("expected marker range error, got %v", err)
	}
}
