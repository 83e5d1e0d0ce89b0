package render

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"spritesheets/internal/runstore"
	"spritesheets/internal/toolexec"
)

// Tile is one render request: the scene state plus where to write the image.
type Tile struct {
	Target    string
	Action    string
	Frame     int
	RotationZ float64
	Width     int
	Height    int
	Path      string
}

// Command renders each tile by running an external program. Argv elements may
// use {target}, {action}, {frame}, {rotation}, {rotation_deg}, {width},
// {height} and {out}.
type Command struct {
	Argv      []string
	Timeout   time.Duration
	LogWriter io.Writer
}

func (c Command) RenderTile(ctx context.Context, tile Tile) error {
	if len(c.Argv) == 0 || strings.TrimSpace(c.Argv[0]) == "" {
		return fmt.Errorf("render command is empty")
	}
	args := ExpandArgs(c.Argv, tile)
	if err := toolexec.Run(ctx, args[0], args[1:], toolexec.Options{
		Timeout:   c.Timeout,
		LogWriter: c.LogWriter,
	}); err != nil {
		return err
	}
	if !runstore.Exists(tile.Path) {
		return fmt.Errorf("render command exited cleanly but wrote no tile at %s", tile.Path)
	}
	return nil
}

func ExpandArgs(argv []string, tile Tile) []string {
	r := strings.NewReplacer(
		"{target}", tile.Target,
		"{action}", tile.Action,
		"{frame}", strconv.Itoa(tile.Frame),
		"{rotation}", strconv.FormatFloat(tile.RotationZ, 'g', -1, 64),
		"{rotation_deg}", strconv.FormatFloat(tile.RotationZ*180/math.Pi, 'f', 2, 64),
		"{width}", strconv.Itoa(tile.Width),
		"{height}", strconv.Itoa(tile.Height),
		"{out}", tile.Path,
	)
	out := make([]string, len(argv))
	for i, a := range argv {
		out[i] = r.Replace(a)
	}
	return out
}

// Placeholder writes a flat tile whose colour depends on the action and
// frame. It needs no external renderer.
type Placeholder struct{}

func (Placeholder) RenderTile(ctx context.Context, tile Tile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tile.Width <= 0 || tile.Height <= 0 {
		return fmt.Errorf("invalid tile size %dx%d", tile.Width, tile.Height)
	}
	img := image.NewNRGBA(image.Rect(0, 0, tile.Width, tile.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: tileColor(tile)}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode tile %s: %w", tile.Path, err)
	}
	if err := os.WriteFile(tile.Path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write tile %s: %w", tile.Path, err)
	}
	return nil
}

func tileColor(tile Tile) color.NRGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tile.Action))
	sum := h.Sum32()
	shade := uint8((tile.Frame * 16) & 0xff)
	return color.NRGBA{
		R: uint8(sum) ^ shade,
		G: uint8(sum >> 8),
		B: uint8(sum >> 16),
		A: 255,
	}
}

// WriteBlankTile writes a fully transparent tile. It fills sheet slots that
// are reserved for an animation but have no rendered frame.
func WriteBlankTile(path string, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid tile size %dx%d", width, height)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, width, height))); err != nil {
		return fmt.Errorf("encode blank tile %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write blank tile %s: %w", path, err)
	}
	return nil
}
