package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"nt/internal/config"
	"nt/internal/task"
)

const (
	Secondary = lipgloss.Color("#888")
	Faded     = lipgloss.Color("#555")

	Green  = lipgloss.Color("#00a352")
	Red    = lipgloss.Color("#c42912")
	Yellow = lipgloss.Color("#c4b810")
)

var (
	header   = lipgloss.NewStyle().Bold(true)
	selected = lipgloss.NewStyle().Foreground(Green).Bold(true)
	done     = lipgloss.NewStyle().Foreground(Secondary)
	overdue  = lipgloss.NewStyle().Foreground(Red)
	dueSoon  = lipgloss.NewStyle().Foreground(Yellow)
	faded    = lipgloss.NewStyle().Foreground(Faded)
	errText  = lipgloss.NewStyle().Foreground(Red)

	divider = faded.Render(" • ")
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(header.Render("nt"))
	b.WriteString("\n\n")

	if m.mode == modeExport {
		b.WriteString(m.preview)
		b.WriteString("\n\n---\nSave to file? (y/N)")
		return b.String()
	}

	if len(m.entries) == 0 {
		b.WriteString(fmt.Sprintf("No tasks yet. Press '%s' to add one.\n", m.cfg.Keys.Add))
	} else {
		b.WriteString(m.renderTaskList())
	}

	b.WriteString("\n---\n")
	b.WriteString(m.renderFooter())
	b.WriteString("\n\n")

	switch m.mode {
	case modeActions:
		b.WriteString("[c] toggle  [e] edit title  [d] due date  [u] url  [a] add subtask  [x] delete  [esc] back\n")
	case modePrompt:
		b.WriteString(m.prompt.label())
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	case modeCommand:
		b.WriteString(":")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	if m.failed {
		b.WriteString(errText.Render(m.status))
	} else {
		b.WriteString(m.status)
	}
	b.WriteString("\n")
	b.WriteString(faded.Render(renderHelp(m.cfg.Keys)))
	return b.String()
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • id+%s jump • %s actions • %s add • %s command • %s details • %s export • %s quit",
		k.Up, k.Down, k.Actions, k.Actions, k.Add, k.Command, k.Details, k.Export, k.Quit)
}

func (m Model) renderTaskList() string {
	today := m.mgr.Today()
	soon := m.mgr.DueSoonDays()
	var b strings.Builder
	for i, e := range m.entries {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}
		line := fmt.Sprintf("%s %s%s", cursor, strings.Repeat("  ", e.Depth), renderTask(e.Task, today, soon))
		style := taskStyle(e.Task, today, soon)
		if m.cursor == i && m.mode != modeExport {
			style = selected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func renderTask(t *task.Task, today time.Time, soon int) string {
	s := fmt.Sprintf("%s %d: %s", t.Checkbox(), t.ID(), t.Title())
	if label := t.DueLabel(today, soon); label != "" {
		s += " (" + label + ")"
	}
	if u := t.ReferenceURL(); u != nil && *u != "" {
		s += " [link]"
	}
	return s
}

func taskStyle(t *task.Task, today time.Time, soon int) lipgloss.Style {
	switch {
	case t.Completed():
		return done
	case t.OverdueOn(today):
		return overdue
	case t.DueSoonOn(today, soon):
		return dueSoon
	default:
		return lipgloss.NewStyle()
	}
}

func (m Model) renderFooter() string {
	sum := m.mgr.Summary()
	parts := []string{fmt.Sprintf("%s (%s)", sum.Overview, sum.CompletionRate)}
	if sum.Overdue > 0 {
		parts = append(parts, overdue.Render(fmt.Sprintf("%d overdue", sum.Overdue)))
	}
	if sum.DueToday > 0 {
		parts = append(parts, dueSoon.Render(fmt.Sprintf("%d due today", sum.DueToday)))
	}
	if sum.DueSoon > 0 {
		parts = append(parts, fmt.Sprintf("%d due soon", sum.DueSoon))
	}
	if m.idBuf != "" {
		parts = append(parts, "go to #"+m.idBuf)
	}
	return strings.Join(parts, divider)
}
