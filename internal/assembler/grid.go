package assembler

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"os"

	"spritesheets/internal/runstore"
)

// Grid packs tiles in file-name order, left to right then top to bottom.
// Every tile must match the size of the first one.
type Grid struct {
	// Columns fixes the sheet width in tiles; 0 picks a near-square layout.
	Columns int
}

func (g Grid) Pack(ctx context.Context, tileDir, outPath string) (SheetInfo, error) {
	files, err := runstore.ListFiles(tileDir, ".png")
	if err != nil {
		return SheetInfo{}, err
	}
	if len(files) == 0 {
		return SheetInfo{}, fmt.Errorf("no tiles found in %s", tileDir)
	}

	cols := g.Columns
	if cols <= 0 {
		cols = int(math.Ceil(math.Sqrt(float64(len(files)))))
	}
	if cols > len(files) {
		cols = len(files)
	}
	rows := (len(files) + cols - 1) / cols

	var sheet *image.NRGBA
	var tileW, tileH int
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return SheetInfo{}, err
		}
		img, err := decodePNG(path)
		if err != nil {
			return SheetInfo{}, err
		}
		b := img.Bounds()
		if sheet == nil {
			tileW, tileH = b.Dx(), b.Dy()
			sheet = image.NewNRGBA(image.Rect(0, 0, cols*tileW, rows*tileH))
		}
		if b.Dx() != tileW || b.Dy() != tileH {
			return SheetInfo{}, fmt.Errorf("unexpected tile size (%dx%d) for %q, want %dx%d", b.Dx(), b.Dy(), path, tileW, tileH)
		}
		x0 := (i % cols) * tileW
		y0 := (i / cols) * tileH
		dst := image.Rect(x0, y0, x0+tileW, y0+tileH)
		draw.Draw(sheet, dst, img, b.Min, draw.Src)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, sheet); err != nil {
		return SheetInfo{}, fmt.Errorf("encode sheet %s: %w", outPath, err)
	}
	if err := runstore.WriteBytes(outPath, buf.Bytes()); err != nil {
		return SheetInfo{}, err
	}
	return SheetInfo{
		Path:   outPath,
		Width:  sheet.Bounds().Dx(),
		Height: sheet.Bounds().Dy(),
		Tiles:  len(files),
	}, nil
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tile %s: %w", path, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode tile %s: %w", path, err)
	}
	return img, nil
}
