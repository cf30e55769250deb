package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/hdrframe/cli/reader"
)

// SummaryModel shows the final counters of a decoded stream.
type SummaryModel struct {
	data     *reader.StreamSummary
	width    int
	height   int
	quitting bool
}

// NewSummaryModel creates a summary model. data must be a
// *reader.StreamSummary.
func NewSummaryModel(data any) SummaryModel {
	s, _ := data.(*reader.StreamSummary)
	return SummaryModel{data: s}
}

// Init implements tea.Model.
func (m SummaryModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m SummaryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m SummaryModel) View() string {
	if m.quitting {
		return ""
	}
	if m.data == nil {
		return "Invalid data type for summary"
	}
	d := m.data

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Stream " + d.StreamID))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render("Outcome:"), StateStyle(d.Outcome).Render(d.Outcome))
	if d.OutcomeMessage != "" {
		fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render("Message:"), ValueStyle.Render(d.OutcomeMessage))
	}
	fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render("Source:"), ValueStyle.Render(d.Source))
	fmt.Fprintf(&b, "%s %s\n\n", LabelStyle.Render("Grammar:"), ValueStyle.Render(d.Grammar))

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		renderStatBox("Messages", d.Messages, highlightColor),
		renderStatBox("Consumed", d.BytesConsumed, successColor),
		renderStatBox("Pending", d.BytesPending, warningColor),
		renderStatBox("Errors", d.DecodeErrors, errorColor),
	))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		renderStatBox("Chunks", d.ChunksRead, mutedColor),
		renderStatBox("Suspensions", d.Suspensions, mutedColor),
		renderStatBox("Persisted", d.Persisted, successColor),
		renderStatBox("Dropped", d.Dropped, warningColor),
	))

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return b.String() + "\n" + help
}

func renderStatBox(label string, value int64, color lipgloss.Color) string {
	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)
	return StatBoxStyle.BorderForeground(color).Render(lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr))
}
