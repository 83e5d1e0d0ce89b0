package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"spritesheets/internal/frames"
	"spritesheets/internal/model"
	"spritesheets/internal/render"
)

// ActionStats reports what one action contributed to a pass.
type ActionStats struct {
	Name     string `json:"name"`
	Reserved int    `json:"reserved"`
	Rendered int    `json:"rendered"`
	Padded   int    `json:"padded,omitempty"`
}

// ActionProcessor renders the selected frames of each action of one pass
// into a shared tile directory. Every tile is named after its slot in the
// pass's global frame numbering, so packing the directory in name order puts
// each frame where the manifest expects it.
type ActionProcessor struct {
	Target     Target
	Renderer   TileRenderer
	TileSize   model.TileSize
	MarkedOnly bool
	TileDir    string
	Pass       string
	// SlotWidth zero-pads slot numbers in tile names; 0 means 6 digits.
	SlotWidth int

	progress *Progress
	next     int
}

// Process activates action on the target and renders its frames. The full
// range count is reserved for the action. Slots that marker selection leaves
// unrendered get a transparent tile.
func (p *ActionProcessor) Process(ctx context.Context, action model.Action) (ActionStats, error) {
	stats := ActionStats{Name: action.Name}
	if err := p.Target.SetAction(action); err != nil {
		return stats, &Error{Kind: KindRender, Pass: p.Pass, Action: action.Name, Err: fmt.Errorf("activate action: %w", err)}
	}

	count, first, _ := frames.CountRange(action.FrameRange)
	stats.Reserved = count
	if count <= 0 {
		return stats, nil
	}
	base := p.next
	p.next += count
	p.progress.setTileTotal(count)

	filled := make([]bool, count)
	for frame := range frames.Select(action, p.MarkedOnly) {
		if err := ctx.Err(); err != nil {
			return stats, &Error{Kind: KindCanceled, Pass: p.Pass, Action: action.Name, Frame: frameRef(frame), Err: err}
		}
		slot := frame - first
		if slot < 0 || slot >= count {
			return stats, &Error{Kind: KindRender, Pass: p.Pass, Action: action.Name, Frame: frameRef(frame), Err: fmt.Errorf("frame lies outside the reserved range of %d frames", count)}
		}
		p.progress.setTile(frame)
		if err := p.Target.SetFrame(frame); err != nil {
			return stats, &Error{Kind: KindRender, Pass: p.Pass, Action: action.Name, Frame: frameRef(frame), Err: fmt.Errorf("set frame: %w", err)}
		}
		tile := render.Tile{
			Target:    p.Target.Name(),
			Action:    action.Name,
			Frame:     frame,
			RotationZ: p.Target.RotationZ(),
			Width:     p.TileSize.Width,
			Height:    p.TileSize.Height,
			Path:      p.tilePath(base+slot, action.Name, frame),
		}
		if err := p.Renderer.RenderTile(ctx, tile); err != nil {
			kind := KindRender
			if ctx.Err() != nil {
				kind = KindCanceled
			}
			return stats, &Error{Kind: kind, Pass: p.Pass, Action: action.Name, Frame: frameRef(frame), Err: err}
		}
		filled[slot] = true
		stats.Rendered++
		p.progress.tileDone()
	}

	for slot, ok := range filled {
		if ok {
			continue
		}
		frame := first + slot
		if err := render.WriteBlankTile(p.tilePath(base+slot, action.Name, frame), p.TileSize.Width, p.TileSize.Height); err != nil {
			return stats, &Error{Kind: KindRender, Pass: p.Pass, Action: action.Name, Frame: frameRef(frame), Err: err}
		}
		stats.Padded++
	}
	return stats, nil
}

func (p *ActionProcessor) tilePath(slot int, action string, frame int) string {
	return filepath.Join(p.TileDir, TileFileName(p.SlotWidth, slot, action, frame))
}

// TileFileName orders tiles by slot when sorted by name, provided every name
// in a directory uses the same width.
func TileFileName(width, slot int, action string, frame int) string {
	if width <= 0 {
		width = minSlotWidth
	}
	return fmt.Sprintf("%0*d_%s_%d.png", width, slot, safeName(action), frame)
}

const minSlotWidth = 6

// SlotWidth is the digit count that keeps slot numbers 0..slots-1 sortable
// by name.
func SlotWidth(slots int) int {
	return max(minSlotWidth, len(strconv.Itoa(max(slots-1, 0))))
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "action"
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
