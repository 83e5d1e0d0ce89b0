// Package frames turns an action's raw frame bounds into the integer frames
// that get rendered.
package frames

import (
	"fmt"
	"iter"
	"math"

	"spritesheets/internal/model"
)

// Count returns the inclusive whole-frame span covering lo..hi. A count of
// zero or less means there is nothing to render.
func Count(lo, hi float64) (count, first, last int) {
	first = int(math.Floor(lo))
	last = int(math.Ceil(hi))
	return last - first + 1, first, last
}

// MaxBound is the largest frame bound magnitude accepted by CheckRange.
const MaxBound = 1 << 31

// CheckRange rejects bounds that cannot be turned into whole frames: NaN,
// infinities and magnitudes beyond MaxBound.
func CheckRange(r model.FrameRange) error {
	for _, v := range []float64{r.Min(), r.Max()} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("frame range %v has a non-finite bound", [2]float64(r))
		}
		if math.Abs(v) > MaxBound {
			return fmt.Errorf("frame range %v exceeds +/-%d", [2]float64(r), MaxBound)
		}
	}
	return nil
}

// CheckMarkers reports the first marker whose frame lies outside the range
// reserved for the action.
func CheckMarkers(action model.Action) error {
	count, first, last := CountRange(action.FrameRange)
	for _, m := range action.Markers {
		if count <= 0 || m.Frame < first || m.Frame > last {
			return fmt.Errorf("marker %q at frame %d is outside frame range %d..%d", m.Name, m.Frame, first, last)
		}
	}
	return nil
}

// CountRange is Count applied to an action's frame range.
func CountRange(r model.FrameRange) (count, first, last int) {
	return Count(r.Min(), r.Max())
}

// Select yields the frames of action that must be rendered. With markedOnly
// set and at least one pose marker present, only marker frames are yielded,
// in marker order. Otherwise every frame of the range is yielded.
func Select(action model.Action, markedOnly bool) iter.Seq[int] {
	if markedOnly && len(action.Markers) > 0 {
		markers := action.Markers
		return func(yield func(int) bool) {
			for _, m := range markers {
				if !yield(m.Frame) {
					return
				}
			}
		}
	}
	_, lo, hi := CountRange(action.FrameRange)
	return func(yield func(int) bool) {
		for f := lo; f <= hi; f++ {
			if !yield(f) {
				return
			}
		}
	}
}

// SelectedCount reports how many frames Select would yield.
func SelectedCount(action model.Action, markedOnly bool) int {
	if markedOnly && len(action.Markers) > 0 {
		return len(action.Markers)
	}
	count, _, _ := CountRange(action.FrameRange)
	if count < 0 {
		return 0
	}
	return count
}
