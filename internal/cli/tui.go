package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/visualtest/pkg/report"
)

// recentResults is how many of the latest results the progress view shows.
const recentResults = 8

var (
	tuiBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
	tuiKeyStyle = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// Messages
// =============================================================================

type resultMsg report.Result

type runDoneMsg struct{}

type tickMsg time.Time

// =============================================================================
// ProgressModel - live run view
// =============================================================================

// ProgressModel is the bubbletea model of the --tui view: running counts
// per state and the most recent results.
type ProgressModel struct {
	Summary report.Summary
	Recent  []report.Result
	Start   time.Time
	Now     time.Time
	Done    bool
	Aborted bool
	frame   int
}

// NewProgressModel creates an empty progress model starting now.
func NewProgressModel() ProgressModel {
	now := time.Now()
	return ProgressModel{Start: now, Now: now}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m ProgressModel) Init() tea.Cmd {
	return tick()
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Aborted = true
			return m, tea.Quit
		}
	case resultMsg:
		r := report.Result(msg)
		m.add(r)
	case tickMsg:
		m.Now = time.Time(msg)
		m.frame++
		if !m.Done {
			return m, tick()
		}
	case runDoneMsg:
		m.Done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *ProgressModel) add(r report.Result) {
	switch r.State {
	case report.StateOK:
		m.Summary.OK++
	case report.StateFail:
		m.Summary.Fail++
	case report.StateError:
		m.Summary.Error++
	case report.StateSkipped:
		m.Summary.Skipped++
	case report.StateOverwrite:
		m.Summary.Overwrite++
	}
	m.Recent = append(m.Recent, r)
	if len(m.Recent) > recentResults {
		m.Recent = m.Recent[len(m.Recent)-recentResults:]
	}
}

func (m ProgressModel) View() string {
	var b strings.Builder

	title := "Running visual tests"
	if m.Done {
		title = "Visual tests finished"
	}
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	icon := styleIconSpinner.Render(frames[m.frame%len(frames)])
	if m.Done {
		icon = styleIconSuccess.Render(iconSuccess)
	}
	b.WriteString(icon + " " + StyleTitle.Render(title))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %s", m.Now.Sub(m.Start).Round(100*time.Millisecond))))
	b.WriteString("\n\n")

	var counts []string
	for _, state := range report.States {
		style, _ := stateStyle(state)
		counts = append(counts, tuiKeyStyle.Render(strings.ToLower(string(state)))+" "+style.Render(fmt.Sprint(m.Summary.Count(state))))
	}
	b.WriteString(strings.Join(counts, StyleDim.Render(" · ")))
	b.WriteString("\n")

	if len(m.Recent) > 0 {
		lines := make([]string, len(m.Recent))
		for i, r := range m.Recent {
			lines[i] = formatResult(r)
		}
		b.WriteString(tuiBoxStyle.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}
	if !m.Done {
		b.WriteString(StyleDim.Render("q quit view (tests keep running)"))
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// Program sink
// =============================================================================

// tuiSink feeds results into a running bubbletea program. Program.Send is
// safe for concurrent use and becomes a no-op once the program exits.
type tuiSink struct {
	program *tea.Program
	exited  chan error
}

// startTUI starts the progress program on out.
func startTUI(ctx context.Context, out io.Writer) *tuiSink {
	p := tea.NewProgram(NewProgressModel(), tea.WithContext(ctx), tea.WithOutput(out))
	s := &tuiSink{program: p, exited: make(chan error, 1)}
	go func() {
		_, err := p.Run()
		s.exited <- err
	}()
	return s
}

// Report implements report.Sink.
func (s *tuiSink) Report(r report.Result) {
	s.program.Send(resultMsg(r))
}

// finish tells the program the run is over and waits for it to exit.
func (s *tuiSink) finish() error {
	s.program.Send(runDoneMsg{})
	err := <-s.exited
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
