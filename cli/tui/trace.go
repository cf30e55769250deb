package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/justapithecus/hdrframe/decode"
)

// traceWindow is the number of step rows listed around the selection.
const traceWindow = 10

// TraceModel steps through a decode trace one Step call at a time.
type TraceModel struct {
	steps    []decode.TraceStep
	cursor   int
	width    int
	height   int
	quitting bool
	invalid  bool
}

// NewTraceModel creates a trace model. data must be a []decode.TraceStep.
func NewTraceModel(data any) TraceModel {
	steps, ok := data.([]decode.TraceStep)
	return TraceModel{steps: steps, invalid: !ok}
}

// Cursor returns the index of the selected step.
func (m TraceModel) Cursor() int {
	return m.cursor
}

// Init implements tea.Model.
func (m TraceModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m TraceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.steps)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Home):
			m.cursor = 0
		case key.Matches(msg, keys.End):
			m.cursor = max(len(m.steps)-1, 0)
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m TraceModel) View() string {
	if m.quitting {
		return ""
	}
	if m.invalid {
		return "Invalid data type for trace"
	}
	if len(m.steps) == 0 {
		return TitleStyle.Render("Decode Trace") + "\n\n(no steps)"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Decode Trace (%d steps)", len(m.steps))))
	b.WriteString("\n\n")
	b.WriteString(m.renderList())
	b.WriteString("\n")
	b.WriteString(BoxStyle.Render(m.renderStep(m.steps[m.cursor])))

	help := HelpStyle.Render("↑/↓ step • g/G first/last • q quit")
	return b.String() + "\n" + help
}

func (m TraceModel) renderList() string {
	start := max(m.cursor-traceWindow/2, 0)
	end := min(start+traceWindow, len(m.steps))

	var b strings.Builder
	for i := start; i < end; i++ {
		s := m.steps[i]
		line := fmt.Sprintf("%3d  %-9s  %-12s  %s", s.Step, s.Outcome, s.Phase, s.Chunk)
		if i == m.cursor {
			b.WriteString(SelectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + StateStyle(s.Outcome).Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m TraceModel) renderStep(s decode.TraceStep) string {
	rows := [][]string{
		{"Step", fmt.Sprintf("%d", s.Step)},
		{"Chunk", s.Chunk},
		{"Outcome", s.Outcome},
		{"Phase", s.Phase.String()},
		{"Position", fmt.Sprintf("%d", s.Pos)},
		{"Committed", fmt.Sprintf("%d", s.Committed)},
		{"Headers", fmt.Sprintf("%d", s.Matched)},
		{"Consumed", fmt.Sprintf("%d", s.Consumed)},
		{"Buffered", fmt.Sprintf("%d", s.Buffered)},
	}
	if s.Outcome == decode.TraceDone {
		rows = append(rows, []string{"Seq", fmt.Sprintf("%d", s.Seq)}, []string{"Body", fmt.Sprintf("%q", s.Body)})
	}

	var b strings.Builder
	for _, row := range rows {
		value := ValueStyle.Render(row[1])
		if row[0] == "Outcome" || row[0] == "Phase" {
			value = StateStyle(row[1]).Render(row[1])
		}
		fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render(row[0]+":"), value)
	}
	if s.Error != "" {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render(s.Error))
		b.WriteString("\n")
	}
	return b.String()
}
