package model

// Manifest is the per-pass sheet description written next to the packed image.
// Field order is the on-disk order.
type Manifest struct {
	Name       string                `json:"name"`
	TileWidth  int                   `json:"tileWidth"`
	TileHeight int                   `json:"tileHeight"`
	FrameRate  float64               `json:"frameRate"`
	Animations []AnimationDescriptor `json:"animations"`
}

// AnimationDescriptor locates one animation inside the sheet's global frame
// numbering. End is inclusive.
type AnimationDescriptor struct {
	Name string `json:"name"`
	End  int    `json:"end"`
}

// Action is one animation clip that can be applied to the render target.
type Action struct {
	Name       string       `json:"name" yaml:"name"`
	FrameRange FrameRange   `json:"frame_range" yaml:"frame_range"`
	Markers    []PoseMarker `json:"markers,omitempty" yaml:"markers,omitempty"`
}

// FrameRange holds the raw, possibly fractional, bounds of an action.
type FrameRange [2]float64

func (r FrameRange) Min() float64 { return r[0] }
func (r FrameRange) Max() float64 { return r[1] }

type PoseMarker struct {
	Name  string `json:"name" yaml:"name"`
	Frame int    `json:"frame" yaml:"frame"`
}

type TileSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}
