package pipeline

import (
	"sync"
	"time"

	"spritesheets/internal/model"
)

// ProgressSnapshot is a point-in-time copy of a job's progress.
type ProgressSnapshot struct {
	RunID         string    `json:"run_id"`
	State         string    `json:"state"`
	Rendering     bool      `json:"rendering"`
	Success       bool      `json:"success"`
	PassIndex     int       `json:"pass_index"`
	PassTotal     int       `json:"pass_total"`
	PassLabel     string    `json:"pass_label,omitempty"`
	ActionTotal   int       `json:"action_total"`
	ActionIndex   int       `json:"action_index"`
	ActionName    string    `json:"action_name,omitempty"`
	TileTotal     int       `json:"tile_total"`
	TileIndex     int       `json:"tile_index"`
	TilesRendered int       `json:"tiles_rendered"`
	TilesPlanned  int       `json:"tiles_planned"`
	StartedAt     time.Time `json:"started_at"`
	Error         string    `json:"error,omitempty"`
}

// Progress is written only by the pipeline and read by any number of
// observers through Snapshot.
type Progress struct {
	mu sync.RWMutex
	s  ProgressSnapshot
}

func NewProgress() *Progress {
	return &Progress{s: ProgressSnapshot{State: model.JobIdle}}
}

func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.s
}

func (p *Progress) update(fn func(s *ProgressSnapshot)) {
	p.mu.Lock()
	fn(&p.s)
	p.mu.Unlock()
}

func (p *Progress) begin(runID string, actionTotal, passTotal, tilesPlanned int) {
	p.update(func(s *ProgressSnapshot) {
		*s = ProgressSnapshot{
			RunID:        runID,
			State:        model.JobRunning,
			Rendering:    true,
			Success:      false,
			ActionTotal:  actionTotal,
			PassTotal:    passTotal,
			TilesPlanned: tilesPlanned,
			StartedAt:    time.Now(),
		}
	})
}

func (p *Progress) startPass(index int, label string) {
	p.update(func(s *ProgressSnapshot) {
		s.PassIndex = index
		s.PassLabel = label
		s.ActionIndex = 0
		s.ActionName = ""
		s.TileTotal = 0
		s.TileIndex = 0
	})
}

func (p *Progress) setAction(index int, name string) {
	p.update(func(s *ProgressSnapshot) {
		s.ActionIndex = index
		s.ActionName = name
	})
}

func (p *Progress) setTileTotal(n int) {
	p.update(func(s *ProgressSnapshot) { s.TileTotal = n })
}

func (p *Progress) setTile(frame int) {
	p.update(func(s *ProgressSnapshot) { s.TileIndex = frame })
}

func (p *Progress) tileDone() {
	p.update(func(s *ProgressSnapshot) { s.TilesRendered++ })
}

func (p *Progress) finish(state string, err error) {
	p.update(func(s *ProgressSnapshot) {
		s.State = state
		s.Rendering = false
		s.Success = state == model.JobSucceeded
		if err != nil {
			s.Error = err.Error()
		}
	})
}
