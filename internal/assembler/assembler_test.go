package assembler

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func writeTile(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestGridPacksRowMajorInNameOrder(t *testing.T) {
	dir := t.TempDir()
	tiles := filepath.Join(dir, "tiles")
	if err := os.Mkdir(tiles, 0o755); err != nil {
		t.Fatal(err)
	}
	red := color.NRGBA{R: 255, A: 255}
	green := color.NRGBA{G: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	writeTile(t, filepath.Join(tiles, "00002.png"), 4, 2, blue)
	writeTile(t, filepath.Join(tiles, "00000.png"), 4, 2, red)
	writeTile(t, filepath.Join(tiles, "00001.png"), 4, 2, green)

	out := filepath.Join(dir, "hero.png")
	info, err := Grid{Columns: 2}.Pack(context.Background(), tiles, out)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if info.Width != 8 || info.Height != 4 || info.Tiles != 3 {
		t.Fatalf("unexpected sheet info: %+v", info)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	sheet, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	checks := []struct {
		x, y int
		want color.NRGBA
	}{
		{0, 0, red},
		{4, 0, green},
		{0, 2, blue},
	}
	for _, c := range checks {
		got := color.NRGBAModel.Convert(sheet.At(c.x, c.y)).(color.NRGBA)
		if got != c.want {
			t.Fatalf("pixel (%d,%d): got %v want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestGridRejectsMixedTileSizes(t *testing.T) {
	tiles := t.TempDir()
	writeTile(t, filepath.Join(tiles, "a.png"), 4, 4, color.Black)
	writeTile(t, filepath.Join(tiles, "b.png"), 2, 4, color.Black)
	_, err := Grid{}.Pack(context.Background(), tiles, filepath.Join(t.TempDir(), "out.png"))
	if err == nil || !strings.Contains(err.Error(), "unexpected tile size") {
		t.Fatalf("expected tile size error, got %v", err)
	}
}

func TestGridRejectsEmptyDirectory(t *testing.T) {
	_, err := Grid{}.Pack(context.Background(), t.TempDir(), filepath.Join(t.TempDir(), "out.png"))
	if err == nil {
		t.Fatalf("expected error for empty tile directory")
	}
}

func TestProcessResolvesPerOSBinaryInDirectory(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, BinaryName(runtime.GOOS))
	if err := os.WriteFile(bin, []byte("#!/usr/bin/env bash\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := Process{BinPath: dir}.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != bin {
		t.Fatalf("resolved %s, want %s", got, bin)
	}
}

func TestProcessPackInvokesBinaryWithRootAndOut(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("bash fake assembler")
	}
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	script := `#!/usr/bin/env bash
set -euo pipefail
echo "$@" > "` + argsFile + `"
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    --out) out="$2"; shift 2 ;;
    *) shift ;;
  esac
done
cp "$FAKE_SHEET" "$out"
`
	bin := filepath.Join(dir, "assembler")
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	fixture := filepath.Join(dir, "fixture.png")
	writeTile(t, fixture, 6, 3, color.White)
	t.Setenv("FAKE_SHEET", fixture)

	tiles := filepath.Join(dir, "temp", "default")
	if err := os.MkdirAll(tiles, 0o755); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "hero.png")
	info, err := Process{BinPath: bin}.Pack(context.Background(), tiles, out)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if info.Width != 6 || info.Height != 3 {
		t.Fatalf("unexpected sheet info: %+v", info)
	}
	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	want := "--root " + tiles + " --out " + out
	if strings.TrimSpace(string(data)) != want {
		t.Fatalf("unexpected args: %q want %q", strings.TrimSpace(string(data)), want)
	}
}

func TestProcessPackFailsWhenSheetMissing(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "assembler")
	if err := os.WriteFile(bin, []byte("#!/usr/bin/env bash\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	_, err := Process{BinPath: bin}.Pack(context.Background(), dir, filepath.Join(dir, "none.png"))
	if err == nil || !strings.Contains(err.Error(), "no usable sheet") {
		t.Fatalf("expected missing sheet error, got %v", err)
	}
}

func TestDependencyStatus(t *testing.T) {
	if rep := DependencyStatus(""); rep.AssemblerFound {
		t.Fatalf("empty bin path must not report an assembler")
	}
	if rep := DependencyStatus(filepath.Join(t.TempDir(), "nope")); rep.AssemblerFound {
		t.Fatalf("missing path must not report an assembler")
	}
}
