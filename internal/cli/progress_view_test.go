package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"spritesheets/internal/pipeline"
)

func TestRenderViewCancelKeyCancelsOnce(t *testing.T) {
	calls := 0
	m := newRenderViewModel(pipeline.NewProgress(), nil, func() { calls++ })

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	vm := next.(renderViewModel)

	if calls != 1 {
		t.Fatalf("cancel should fire once, got %d", calls)
	}
	if !vm.canceling || !strings.Contains(vm.View(), "canceling") {
		t.Fatalf("view should report canceling:\n%s", vm.View())
	}
}

func TestRenderViewQuitsWhenJobReturns(t *testing.T) {
	m := newRenderViewModel(pipeline.NewProgress(), nil, func() {})
	next, cmd := m.Update(renderDoneMsg{})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !next.(renderViewModel).done {
		t.Fatal("model should be done")
	}
}

func TestTileFraction(t *testing.T) {
	if got := tileFraction(pipeline.ProgressSnapshot{TilesRendered: 3, TilesPlanned: 12}); got != 0.25 {
		t.Fatalf("fraction mismatch: %v", got)
	}
	if got := tileFraction(pipeline.ProgressSnapshot{Success: true}); got != 1 {
		t.Fatalf("empty successful job should be full, got %v", got)
	}
}

func TestEstimateRenderETA(t *testing.T) {
	if got := estimateRenderETA(0, 10, time.Minute); got != "" {
		t.Fatalf("no estimate before the first tile, got %q", got)
	}
	if got := estimateRenderETA(10, 70, 10*time.Minute); got != "1h" {
		t.Fatalf("eta mismatch: %q", got)
	}
	if got := formatETASeconds(26 * 3600); got != "1d 2h" {
		t.Fatalf("eta format mismatch: %q", got)
	}
}
