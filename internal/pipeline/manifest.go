package pipeline

import (
	"fmt"
	"path/filepath"

	"spritesheets/internal/model"
	"spritesheets/internal/runstore"
)

const (
	ManifestExt = ".bss"
	SheetExt    = ".png"
)

// ManifestBuilder collects animation descriptors for one pass in processing
// order. Frames are numbered across the whole sheet starting at 0.
type ManifestBuilder struct {
	manifest model.Manifest
	end      int
}

func NewManifestBuilder(name string, tile model.TileSize, fps float64) *ManifestBuilder {
	return &ManifestBuilder{
		manifest: model.Manifest{
			Name:       name,
			TileWidth:  tile.Width,
			TileHeight: tile.Height,
			FrameRate:  fps,
			Animations: []model.AnimationDescriptor{},
		},
		end: -1,
	}
}

// Add reserves count frames for the named animation. Counts of zero or less
// reserve nothing and add no descriptor.
func (b *ManifestBuilder) Add(name string, count int) (model.AnimationDescriptor, bool) {
	if count <= 0 {
		return model.AnimationDescriptor{}, false
	}
	b.end += count
	desc := model.AnimationDescriptor{Name: name, End: b.end}
	b.manifest.Animations = append(b.manifest.Animations, desc)
	return desc, true
}

// Frames is the number of global frame slots reserved so far.
func (b *ManifestBuilder) Frames() int {
	return b.end + 1
}

func (b *ManifestBuilder) Manifest() model.Manifest {
	m := b.manifest
	m.Animations = append([]model.AnimationDescriptor{}, b.manifest.Animations...)
	return m
}

func (b *ManifestBuilder) Write(path string) error {
	return WriteManifest(path, b.manifest)
}

func WriteManifest(path string, m model.Manifest) error {
	return runstore.WriteJSONIndent(path, m, "\t")
}

func ReadManifest(path string) (model.Manifest, error) {
	var m model.Manifest
	if err := runstore.ReadJSON(path, &m); err != nil {
		return model.Manifest{}, err
	}
	if m.Animations == nil {
		m.Animations = []model.AnimationDescriptor{}
	}
	return m, nil
}

// OutputBase is the shared base name of a pass's sheet and manifest.
func OutputBase(target, suffix string) string {
	return target + suffix
}

// RotationSuffix names the output of a sweep pass at angle degrees.
func RotationSuffix(angle int) string {
	return fmt.Sprintf("_%d_deg", angle)
}

func SheetPath(outputDir, target, suffix string) string {
	return filepath.Join(outputDir, OutputBase(target, suffix)+SheetExt)
}

func ManifestPath(outputDir, target, suffix string) string {
	return filepath.Join(outputDir, OutputBase(target, suffix)+ManifestExt)
}

// AnimationSpan is a manifest animation with its first frame made explicit.
type AnimationSpan struct {
	Name   string `json:"name"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Frames int    `json:"frames"`
}

// Spans derives each animation's inclusive start..end from the cumulative
// end values.
func Spans(m model.Manifest) []AnimationSpan {
	out := make([]AnimationSpan, 0, len(m.Animations))
	start := 0
	for _, a := range m.Animations {
		out = append(out, AnimationSpan{Name: a.Name, Start: start, End: a.End, Frames: a.End - start + 1})
		start = a.End + 1
	}
	return out
}
