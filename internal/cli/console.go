package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/visualtest/pkg/report"
)

// dotsPerLine is where short mode wraps its progress line.
const dotsPerLine = 80

// consoleSink prints results as they arrive. Full mode prints one line per
// result; short mode prints one character per result.
type consoleSink struct {
	mu    sync.Mutex
	w     io.Writer
	short bool
	col   int
}

func newConsoleSink(w io.Writer, short bool) *consoleSink {
	return &consoleSink{w: w, short: short}
}

// Report implements report.Sink.
func (c *consoleSink) Report(r report.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.short {
		fmt.Fprint(c.w, stateDot(r.State))
		c.col++
		if c.col == dotsPerLine {
			fmt.Fprintln(c.w)
			c.col = 0
		}
		return
	}
	fmt.Fprintln(c.w, formatResult(r))
	if detail := resultDetail(r); detail != "" {
		fmt.Fprintln(c.w, "    "+StyleDim.Render(detail))
	}
}

// finish ends a partially filled dot line.
func (c *consoleSink) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.col > 0 {
		fmt.Fprintln(c.w)
		c.col = 0
	}
}

var stateLabelStyle = lipgloss.NewStyle().Width(9)

// formatResult renders "✓ OK        lines  agg 500x100 1.0x  (12ms)".
func formatResult(r report.Result) string {
	style, icon := stateStyle(r.State)
	var b strings.Builder
	b.WriteString(style.Render(icon))
	b.WriteString(" ")
	b.WriteString(stateLabelStyle.Inherit(style).Render(string(r.State)))
	b.WriteString(" ")
	b.WriteString(StyleValue.Render(r.Name))
	if label := r.Label(); label != "" {
		b.WriteString("  ")
		b.WriteString(StyleHighlight.Render(label))
	}
	if r.Duration > 0 {
		b.WriteString(StyleDim.Render(fmt.Sprintf("  (%s)", r.Duration.Round(time.Millisecond))))
	}
	return b.String()
}

// resultDetail explains a non-OK result: the error message, or the diff
// count and where the actual image was written.
func resultDetail(r report.Result) string {
	switch r.State {
	case report.StateFail:
		return fmt.Sprintf("%d differing %s %s %s", r.Diff, diffUnit(r.Renderer), iconArrow, r.ActualPath)
	case report.StateError:
		return r.ErrorMessage
	case report.StateSkipped:
		if r.ErrorMessage != "" {
			return r.ErrorMessage
		}
		return "no reference " + iconArrow + " " + r.ActualPath
	case report.StateOverwrite:
		return iconArrow + " " + r.ReferencePath
	}
	return ""
}

func diffUnit(renderer string) string {
	switch renderer {
	case "svg", "grid":
		return "lines"
	}
	return "pixels"
}

// =============================================================================
// Summary
// =============================================================================

// printSummary writes per-state counts and the elapsed time.
func printSummary(w io.Writer, s report.Summary, elapsed time.Duration) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, StyleTitle.Render("Visual tests"))
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	for _, state := range report.States {
		n := s.Count(state)
		if n == 0 && state != report.StateOK && !state.Failed() {
			continue
		}
		style, _ := stateStyle(state)
		value := StyleNumber.Render(fmt.Sprint(n))
		if n > 0 {
			value = style.Render(fmt.Sprint(n))
		}
		fmt.Fprintln(w, "  "+keyStyle.Render(strings.ToLower(string(state)))+" "+value)
	}
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf("%d results in %s", s.Total(), elapsed.Round(time.Millisecond))))
}

// printFailures lists FAIL and ERROR results with their details. Used by
// the modes that do not print each result as it arrives.
func printFailures(w io.Writer, results []report.Result) {
	first := true
	for _, r := range results {
		if !r.State.Failed() {
			continue
		}
		if first {
			fmt.Fprintln(w)
			fmt.Fprintln(w, StyleTitle.Render("Failures"))
			first = false
		}
		fmt.Fprintln(w, formatResult(r))
		if detail := resultDetail(r); detail != "" {
			fmt.Fprintln(w, "    "+StyleDim.Render(detail))
		}
	}
}
