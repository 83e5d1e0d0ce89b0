package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"spritesheets/internal/assembler"
	"spritesheets/internal/pipeline"
)

type inspectResult struct {
	ManifestPath string                   `json:"manifest_path"`
	Name         string                   `json:"name"`
	TileWidth    int                      `json:"tile_width"`
	TileHeight   int                      `json:"tile_height"`
	FrameRate    float64                  `json:"frame_rate"`
	Frames       int                      `json:"frames"`
	Animations   []pipeline.AnimationSpan `json:"animations"`
	Sheet        *inspectSheet            `json:"sheet,omitempty"`
}

type inspectSheet struct {
	assembler.SheetInfo
	Bytes    int64 `json:"bytes"`
	Capacity int   `json:"capacity"`
	Fits     bool  `json:"fits"`
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("usage: spritesheets inspect [--json] <file.bss>")
	}

	res, err := inspectManifest(fs.Arg(0))
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(res)
	}

	fmt.Printf("manifest: %s\n", res.ManifestPath)
	fmt.Printf("name: %s\n", res.Name)
	fmt.Printf("tile: %dx%d\n", res.TileWidth, res.TileHeight)
	fmt.Printf("frame_rate: %g\n", res.FrameRate)
	fmt.Printf("frames: %d\n", res.Frames)
	fmt.Println("animations:")
	for _, a := range res.Animations {
		fmt.Printf("  %-20s %4d..%-4d (%d frames)\n", a.Name, a.Start, a.End, a.Frames)
	}
	if res.Sheet == nil {
		fmt.Println("sheet: missing")
		return nil
	}
	fmt.Printf("sheet: %s (%dx%d, %s, room for %d tiles)\n",
		res.Sheet.Path, res.Sheet.Width, res.Sheet.Height, formatBytesIEC(res.Sheet.Bytes), res.Sheet.Capacity)
	if !res.Sheet.Fits {
		return fmt.Errorf("sheet %s holds %d tiles but the manifest numbers %d frames", res.Sheet.Path, res.Sheet.Capacity, res.Frames)
	}
	return nil
}

func inspectManifest(path string) (inspectResult, error) {
	m, err := pipeline.ReadManifest(path)
	if err != nil {
		return inspectResult{}, err
	}
	spans := pipeline.Spans(m)
	res := inspectResult{
		ManifestPath: path,
		Name:         m.Name,
		TileWidth:    m.TileWidth,
		TileHeight:   m.TileHeight,
		FrameRate:    m.FrameRate,
		Animations:   spans,
	}
	if len(spans) > 0 {
		res.Frames = spans[len(spans)-1].End + 1
	}

	sheetPath := strings.TrimSuffix(path, pipeline.ManifestExt) + pipeline.SheetExt
	info, err := assembler.ReadSheetInfo(sheetPath)
	if err != nil {
		return res, nil
	}
	sheet := &inspectSheet{SheetInfo: info}
	if st, err := os.Stat(sheetPath); err == nil {
		sheet.Bytes = st.Size()
	}
	if m.TileWidth > 0 && m.TileHeight > 0 {
		sheet.Capacity = (info.Width / m.TileWidth) * (info.Height / m.TileHeight)
	}
	sheet.Fits = sheet.Capacity >= res.Frames
	res.Sheet = sheet
	return res, nil
}
