package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"nt/internal/date"
	"nt/internal/export"
	"nt/internal/manager"
)

type promptKind int

const (
	promptAdd promptKind = iota
	promptAddChild
	promptTitle
	promptDue
	promptURL
	promptExportFile
)

type prompt struct {
	kind   promptKind
	taskID int64
}

func (p prompt) label() string {
	switch p.kind {
	case promptAddChild:
		return fmt.Sprintf("Subtask of #%d", p.taskID)
	case promptTitle:
		return fmt.Sprintf("New title for #%d", p.taskID)
	case promptDue:
		return fmt.Sprintf("Due date for #%d (YYYY-MM-DD, YYYYMMDD, MMDD, today, tomorrow, none)", p.taskID)
	case promptURL:
		return fmt.Sprintf("Reference URL for #%d (empty clears)", p.taskID)
	case promptExportFile:
		return "File name (default " + export.DefaultFileName + ")"
	default:
		return "New task"
	}
}

func (m Model) startPrompt(kind promptKind, id int64, value string) (tea.Model, tea.Cmd) {
	m.prompt = prompt{kind: kind, taskID: id}
	m.mode = modePrompt
	m.input.Reset()
	m.input.Placeholder = m.prompt.label()
	m.input.SetValue(value)
	m.input.Focus()
	m.info(m.prompt.label())
	return m, textinput.Blink
}

func (m Model) updateActions(key string) (tea.Model, tea.Cmd) {
	t := m.selected()
	if t == nil {
		m.mode = modeList
		return m, nil
	}
	id := t.ID()

	switch key {
	case "c":
		m.mode = modeList
		if t.Completed() {
			ok, err := m.mgr.Uncomplete(m.ctx, id)
			m.report(ok, err, id, fmt.Sprintf("Reopened #%d", id))
		} else {
			ok, err := m.mgr.Complete(m.ctx, id)
			m.report(ok, err, id, fmt.Sprintf("Completed #%d", id))
		}
	case "e":
		return m.startPrompt(promptTitle, id, t.Title())
	case "d":
		value := ""
		if d := t.DueDate(); d != nil {
			value = date.Format(*d)
		}
		return m.startPrompt(promptDue, id, value)
	case "u":
		value := ""
		if u := t.ReferenceURL(); u != nil {
			value = *u
		}
		return m.startPrompt(promptURL, id, value)
	case "a":
		return m.startPrompt(promptAddChild, id, "")
	case "x":
		if !m.cfg.ConfirmDelete {
			m.mode = modeList
			ok, err := m.mgr.Delete(m.ctx, id)
			m.report(ok, err, id, fmt.Sprintf("Deleted #%d", id))
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.pendingDel = id
		m.info(fmt.Sprintf("Delete %q and its subtasks? (y/N)", t.Title()))
	case m.cfg.Keys.Cancel, "q":
		m.mode = modeList
		m.info("")
	}
	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.input.Blur()
		m.info("Cancelled")
		return m, nil
	case "enter":
		if m.submitPrompt(m.input.Value()) {
			m.mode = modeList
			m.input.Blur()
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

// submitPrompt applies the prompt value and reports whether the prompt can
// close. Validation failures keep it open for another try.
func (m *Model) submitPrompt(value string) bool {
	p := m.prompt
	switch p.kind {
	case promptAdd, promptAddChild:
		var opts []manager.AddOption
		if p.kind == promptAddChild {
			opts = append(opts, manager.Under(p.taskID))
		}
		t, err := m.mgr.Add(m.ctx, value, opts...)
		if err != nil {
			m.fail(err)
			return false
		}
		m.refresh()
		m.selectID(t.ID())
		m.info(fmt.Sprintf("Added #%d", t.ID()))
		return true
	case promptTitle:
		ok, err := m.mgr.EditTitle(m.ctx, p.taskID, value)
		m.report(ok, err, p.taskID, fmt.Sprintf("Renamed #%d", p.taskID))
		return err == nil
	case promptDue:
		ok, err := m.mgr.EditDueDateString(m.ctx, p.taskID, value)
		m.report(ok, err, p.taskID, fmt.Sprintf("Updated due date of #%d", p.taskID))
		return err == nil
	case promptURL:
		var u *string
		if v := strings.TrimSpace(value); v != "" {
			u = &v
		}
		ok, err := m.mgr.EditReferenceURL(m.ctx, p.taskID, u)
		m.report(ok, err, p.taskID, fmt.Sprintf("Updated URL of #%d", p.taskID))
		return err == nil
	case promptExportFile:
		path, err := export.Save(value, m.preview)
		if err != nil {
			m.fail(err)
			return false
		}
		m.info("Saved to " + path)
		return true
	}
	return true
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	id := m.pendingDel
	m.pendingDel = 0
	m.mode = modeList
	switch key {
	case m.cfg.Keys.Confirm, "Y":
		ok, err := m.mgr.Delete(m.ctx, id)
		m.report(ok, err, id, fmt.Sprintf("Deleted #%d", id))
	default:
		m.info("Delete cancelled")
	}
	return m, nil
}

func (m Model) updateExport(key string) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Confirm, "Y":
		return m.startPrompt(promptExportFile, 0, "")
	default:
		m.mode = modeList
		m.preview = ""
		m.info("Export closed")
	}
	return m, nil
}
