// Package assembler packs a directory of rendered tiles into one sheet image.
package assembler

import (
	"context"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"spritesheets/internal/toolexec"
)

// SheetInfo describes a packed sheet on disk.
type SheetInfo struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Tiles  int    `json:"tiles,omitempty"`
}

type DependencyReport struct {
	AssemblerFound bool   `json:"assembler_found"`
	AssemblerPath  string `json:"assembler_path,omitempty"`
	Message        string `json:"message,omitempty"`
}

// BinaryName is the assembler executable shipped for goos.
func BinaryName(goos string) string {
	switch goos {
	case "windows":
		return "assembler.exe"
	case "linux":
		return "assembler_linux"
	default:
		return "assembler_mac"
	}
}

// Process runs the external assembler once per pass:
//
//	<bin> --root <tileDir> --out <sheetPath>
//
// Both paths are passed absolute. An assembler that still resolves --out
// against --root writes into the tile directory; Pack then finds no sheet at
// sheetPath and fails instead of reporting success.
type Process struct {
	BinPath   string
	Timeout   time.Duration
	LogWriter io.Writer
	Output    func(line string)
}

// Resolve finds the executable. BinPath may name the binary itself or the
// directory holding the per-OS binary.
func (p Process) Resolve() (string, error) {
	raw := strings.TrimSpace(p.BinPath)
	if raw == "" {
		return "", fmt.Errorf("assembler bin path is required")
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", fmt.Errorf("resolve assembler path %s: %w", raw, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("assembler not found: %w", err)
	}
	if info.IsDir() {
		abs = filepath.Join(abs, BinaryName(runtime.GOOS))
		info, err = os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("assembler not found: %w", err)
		}
	}
	if info.Mode()&0o111 == 0 && runtime.GOOS != "windows" {
		return "", fmt.Errorf("assembler %s is not executable", abs)
	}
	return abs, nil
}

func (p Process) Pack(ctx context.Context, tileDir, outPath string) (SheetInfo, error) {
	bin, err := p.Resolve()
	if err != nil {
		return SheetInfo{}, err
	}
	root, err := filepath.Abs(tileDir)
	if err != nil {
		return SheetInfo{}, fmt.Errorf("resolve tile directory %s: %w", tileDir, err)
	}
	out, err := filepath.Abs(outPath)
	if err != nil {
		return SheetInfo{}, fmt.Errorf("resolve sheet path %s: %w", outPath, err)
	}

	args := []string{"--root", root, "--out", out}
	err = toolexec.Run(ctx, bin, args, toolexec.Options{
		Timeout:   p.Timeout,
		LogWriter: p.LogWriter,
		Output: func(_ toolexec.OutputStream, line string) {
			if p.Output != nil {
				p.Output(line)
			}
		},
	})
	if err != nil {
		return SheetInfo{}, err
	}

	info, err := ReadSheetInfo(out)
	if err != nil {
		return SheetInfo{}, fmt.Errorf("assembler exited cleanly but produced no usable sheet: %w", err)
	}
	return info, nil
}

// ReadSheetInfo reads the dimensions of an image on disk.
func ReadSheetInfo(path string) (SheetInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return SheetInfo{}, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return SheetInfo{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return SheetInfo{Path: path, Width: cfg.Width, Height: cfg.Height}, nil
}

func DependencyStatus(binPath string) DependencyReport {
	if strings.TrimSpace(binPath) == "" {
		return DependencyReport{Message: "no bin path configured; the built-in grid packer is used"}
	}
	path, err := Process{BinPath: binPath}.Resolve()
	if err != nil {
		return DependencyReport{Message: err.Error()}
	}
	return DependencyReport{AssemblerFound: true, AssemblerPath: path, Message: "assembler found at " + path}
}
