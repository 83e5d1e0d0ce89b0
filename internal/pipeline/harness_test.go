package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"spritesheets/internal/assembler"
	"spritesheets/internal/model"
	"spritesheets/internal/render"
	"spritesheets/internal/runstore"
)

type recordedTile struct {
	action    string
	frame     int
	rotationZ float64
	path      string
}

// recordingRenderer writes placeholder tiles and remembers every request.
type recordingRenderer struct {
	tiles    []recordedTile
	failOn   *recordedTile
	onRender func(tile render.Tile)
}

func (r *recordingRenderer) RenderTile(ctx context.Context, tile render.Tile) error {
	if r.onRender != nil {
		r.onRender(tile)
	}
	if r.failOn != nil && r.failOn.action == tile.Action && r.failOn.frame == tile.Frame {
		return fmt.Errorf("renderer crashed")
	}
	r.tiles = append(r.tiles, recordedTile{action: tile.Action, frame: tile.Frame, rotationZ: tile.RotationZ, path: tile.Path})
	return render.Placeholder{}.RenderTile(ctx, tile)
}

// countingPacker wraps the grid packer and records how many tiles each pass saw.
type countingPacker struct {
	seen []int
	dirs []string
}

func (p *countingPacker) Pack(ctx context.Context, tileDir, outPath string) (assembler.SheetInfo, error) {
	files, err := runstore.ListFiles(tileDir, ".png")
	if err != nil {
		return assembler.SheetInfo{}, err
	}
	p.seen = append(p.seen, len(files))
	p.dirs = append(p.dirs, tileDir)
	return assembler.Grid{}.Pack(ctx, tileDir, outPath)
}

type recordingExporter struct {
	passes []PassResult
}

func (e *recordingExporter) ExportPass(pass PassResult) error {
	e.passes = append(e.passes, pass)
	return nil
}

func newTestJob(t *testing.T, actions []model.Action) (Job, *recordingRenderer) {
	t.Helper()
	r := &recordingRenderer{}
	return Job{
		RunID:      "run-test",
		Target:     render.NewScene("hero", 0, nil),
		Actions:    actions,
		OutputPath: filepath.Join(t.TempDir(), "out"),
		TileSize:   model.TileSize{Width: 4, Height: 4},
		FPS:        24,
		Renderer:   r,
		Packer:     &countingPacker{},
	}, r
}

func writeFakeAssembler(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "assembler")
	if err := os.WriteFile(path, []byte("#!/usr/bin/env bash\nset -euo pipefail\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}
