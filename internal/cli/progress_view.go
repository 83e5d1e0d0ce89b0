package cli

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"spritesheets/internal/logbook"
	"spritesheets/internal/pipeline"
)

const (
	renderViewTick     = 150 * time.Millisecond
	renderViewLogLines = 4
)

var (
	renderTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	renderMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	renderErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	renderOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
)

type renderTickMsg time.Time

type renderDoneMsg struct{}

type renderViewModel struct {
	progress  *pipeline.Progress
	book      *logbook.Logbook
	cancel    context.CancelFunc
	bar       progress.Model
	spin      spinner.Model
	snap      pipeline.ProgressSnapshot
	logTail   []string
	canceling bool
	done      bool
	now       func() time.Time
}

func newRenderViewModel(p *pipeline.Progress, book *logbook.Logbook, cancel context.CancelFunc) renderViewModel {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	return renderViewModel{
		progress: p,
		book:     book,
		cancel:   cancel,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		spin:     spin,
		snap:     p.Snapshot(),
		now:      time.Now,
	}
}

func renderTick() tea.Cmd {
	return tea.Tick(renderViewTick, func(t time.Time) tea.Msg { return renderTickMsg(t) })
}

func (m renderViewModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, renderTick())
}

func (m renderViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.canceling {
				m.canceling = true
				m.cancel()
			}
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(msg.Width-4, 60))
		return m, nil
	case renderTickMsg:
		m.refresh()
		if m.done {
			return m, nil
		}
		return m, renderTick()
	case renderDoneMsg:
		m.refresh()
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *renderViewModel) refresh() {
	m.snap = m.progress.Snapshot()
	m.logTail = m.book.Tail(renderViewLogLines)
}

func (m renderViewModel) View() string {
	s := m.snap
	var b strings.Builder

	head := m.spin.View() + " "
	switch {
	case m.done && s.Success:
		head = renderOKStyle.Render("done") + " "
	case m.done:
		head = renderErrorStyle.Render(s.State) + " "
	case m.canceling:
		head = renderErrorStyle.Render("canceling") + " "
	}
	b.WriteString(head + renderTitleStyle.Render("spritesheets render"))
	if s.RunID != "" {
		b.WriteString(renderMutedStyle.Render("  run " + s.RunID))
	}
	b.WriteString("\n")

	if s.PassTotal > 0 {
		fmt.Fprintf(&b, "pass %d/%d %s", s.PassIndex, s.PassTotal, s.PassLabel)
		if s.ActionName != "" {
			fmt.Fprintf(&b, " | action %d/%d %s", s.ActionIndex+1, s.ActionTotal, s.ActionName)
		}
		if s.TileTotal > 0 {
			fmt.Fprintf(&b, " | tile %d/%d", min(s.TileIndex+1, s.TileTotal), s.TileTotal)
		}
		b.WriteString("\n")
	}

	b.WriteString(m.bar.ViewAs(tileFraction(s)) + "\n")

	elapsed := m.now().Sub(s.StartedAt)
	if s.StartedAt.IsZero() {
		elapsed = 0
	}
	line := fmt.Sprintf("tiles %d/%d | elapsed %s", s.TilesRendered, s.TilesPlanned, elapsed.Round(time.Second))
	if eta := estimateRenderETA(s.TilesRendered, s.TilesPlanned, elapsed); eta != "" {
		line += " | eta ~ " + eta
	}
	b.WriteString(renderMutedStyle.Render(line) + "\n")

	if s.Error != "" {
		b.WriteString(renderErrorStyle.Render(s.Error) + "\n")
	}
	for _, l := range m.logTail {
		b.WriteString(renderMutedStyle.Render(l) + "\n")
	}
	if !m.done && !m.canceling {
		b.WriteString(renderMutedStyle.Render("q/ctrl+c: cancel") + "\n")
	}
	return b.String()
}

func tileFraction(s pipeline.ProgressSnapshot) float64 {
	if s.TilesPlanned <= 0 {
		if s.Success {
			return 1
		}
		return 0
	}
	return math.Min(1, float64(s.TilesRendered)/float64(s.TilesPlanned))
}

func estimateRenderETA(done, total int, elapsed time.Duration) string {
	if done <= 0 || total <= done || elapsed <= 0 {
		return ""
	}
	perTile := elapsed.Seconds() / float64(done)
	return formatETASeconds(perTile * float64(total-done))
}

func formatETASeconds(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	secs := int64(math.Round(seconds))
	if secs < 60 {
		return "<1m"
	}
	minutes := secs / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	remMinutes := minutes % 60
	if hours < 24 {
		if remMinutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh %dm", hours, remMinutes)
	}
	days := hours / 24
	remHours := hours % 24
	if remHours == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd %dh", days, remHours)
}

// runWithProgressView runs the job in the background while a bubbletea view
// polls its progress. Cancel keys stop the job; the view exits once the job
// has returned.
func runWithProgressView(ctx context.Context, job pipeline.Job, book *logbook.Logbook) (pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newRenderViewModel(job.Progress, book, cancel))

	var (
		result pipeline.Result
		runErr error
	)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		result, runErr = pipeline.Run(ctx, job)
		p.Send(renderDoneMsg{})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-finished
		if runErr == nil {
			runErr = fmt.Errorf("progress view: %w", err)
		}
		return result, runErr
	}
	<-finished
	return result, runErr
}
