// Package render holds the render target and the tile renderers that turn
// one frame of one action into an image on disk.
package render

import (
	"fmt"
	"strings"

	"spritesheets/internal/model"
)

// Scene is the object being animated: its active action, current frame and
// Z rotation in radians.
type Scene struct {
	name      string
	bound     map[string]bool
	action    string
	frame     int
	rotationZ float64
}

// NewScene creates a target. When bound is non-empty, only those action
// names can be activated; any other action has no bindings on the target.
func NewScene(name string, rotationZ float64, bound []string) *Scene {
	s := &Scene{name: name, rotationZ: rotationZ}
	if len(bound) > 0 {
		s.bound = make(map[string]bool, len(bound))
		for _, b := range bound {
			s.bound[strings.TrimSpace(b)] = true
		}
	}
	return s
}

func (s *Scene) Name() string { return s.name }

func (s *Scene) SetAction(a model.Action) error {
	name := strings.TrimSpace(a.Name)
	if name == "" {
		return fmt.Errorf("action name is required")
	}
	if s.bound != nil && !s.bound[name] {
		return fmt.Errorf("action %q has no bindings on target %q", name, s.name)
	}
	s.action = name
	return nil
}

func (s *Scene) Action() string { return s.action }

func (s *Scene) SetFrame(frame int) error {
	if s.action == "" {
		return fmt.Errorf("no active action on target %q", s.name)
	}
	s.frame = frame
	return nil
}

func (s *Scene) Frame() int { return s.frame }

func (s *Scene) RotationZ() float64 { return s.rotationZ }

func (s *Scene) SetRotationZ(rad float64) { s.rotationZ = rad }
