package cli

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/visualtest/pkg/report"
)

func TestProgressModelCounts(t *testing.T) {
	var m tea.Model = NewProgressModel()
	states := []report.State{report.StateOK, report.StateOK, report.StateFail, report.StateSkipped}
	for i := range 12 {
		m, _ = m.Update(resultMsg(report.Result{Name: fmt.Sprintf("style-%02d", i), State: states[i%len(states)]}))
	}

	pm := m.(ProgressModel)
	if pm.Summary.OK != 6 || pm.Summary.Fail != 3 || pm.Summary.Skipped != 3 {
		t.Errorf("summary = %+v", pm.Summary)
	}
	if len(pm.Recent) != recentResults || pm.Recent[len(pm.Recent)-1].Name != "style-11" {
		t.Errorf("recent = %d, last %q", len(pm.Recent), pm.Recent[len(pm.Recent)-1].Name)
	}
	view := pm.View()
	if !strings.Contains(view, "Running visual tests") || !strings.Contains(view, "style-11") || strings.Contains(view, "style-03") {
		t.Errorf("view:\n%s", view)
	}
}

func TestProgressModelDone(t *testing.T) {
	m, cmd := NewProgressModel().Update(runDoneMsg{})
	if cmd == nil {
		t.Fatal("runDoneMsg should quit the program")
	}
	pm := m.(ProgressModel)
	if !pm.Done || !strings.Contains(pm.View(), "Visual tests finished") {
		t.Errorf("done model view:\n%s", pm.View())
	}

	// Ticks stop once the run is over.
	if _, cmd := pm.Update(tickMsg(time.Now())); cmd != nil {
		t.Error("tick after done should not schedule another tick")
	}
}

func TestProgressModelQuit(t *testing.T) {
	m, cmd := NewProgressModel().Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil || !m.(ProgressModel).Aborted {
		t.Error("q should abort the view")
	}
}

func TestProgressModelTick(t *testing.T) {
	start := NewProgressModel()
	later := start.Start.Add(2 * time.Second)
	m, cmd := start.Update(tickMsg(later))
	if cmd == nil {
		t.Error("tick should schedule the next tick while running")
	}
	if !strings.Contains(m.(ProgressModel).View(), "2s") {
		t.Errorf("view should show elapsed time:\n%s", m.(ProgressModel).View())
	}
}
