package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"nt/internal/config"
	"nt/internal/export"
	"nt/internal/manager"
	"nt/internal/task"
)

type mode int

const (
	modeList mode = iota
	modeActions
	modePrompt
	modeCommand
	modeConfirmDelete
	modeExport
)

type Model struct {
	ctx     context.Context
	mgr     *manager.Manager
	cfg     config.Config
	entries []manager.Entry
	cursor  int
	mode    mode
	input   textinput.Model
	prompt  prompt
	idBuf   string
	status  string
	failed  bool

	pendingDel int64
	preview    string
	now        func() time.Time
}

func New(ctx context.Context, mgr *manager.Manager, cfg config.Config) Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{
		ctx:    ctx,
		mgr:    mgr,
		cfg:    cfg,
		input:  ti,
		mode:   modeList,
		status: fmt.Sprintf("Type an id and %s to jump, %s for actions, %s for commands.", cfg.Keys.Actions, cfg.Keys.Actions, cfg.Keys.Command),
		now:    time.Now,
	}
	m.refresh()
	return m
}

func Run(ctx context.Context, mgr *manager.Manager, cfg config.Config) error {
	program := tea.NewProgram(New(ctx, mgr, cfg), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case modeActions:
			return m.updateActions(msg.String())
		case modePrompt:
			return m.updatePrompt(msg)
		case modeCommand:
			return m.updateCommand(msg)
		case modeConfirmDelete:
			return m.updateDeleteConfirm(msg.String())
		case modeExport:
			return m.updateExport(msg.String())
		}
		return m.updateListMode(msg.String())
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
		m.idBuf += key
		m.info("Go to #" + m.idBuf)
		return m, nil
	}

	switch key {
	case m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		m.idBuf = ""
		m.cursor = clampCursor(m.cursor+1, len(m.entries))
	case m.cfg.Keys.Up, "up":
		m.idBuf = ""
		m.cursor = clampCursor(m.cursor-1, len(m.entries))
	case "backspace":
		if m.idBuf != "" {
			m.idBuf = m.idBuf[:len(m.idBuf)-1]
		}
	case m.cfg.Keys.Cancel:
		m.idBuf = ""
		m.info("")
	case m.cfg.Keys.Actions:
		if m.idBuf != "" {
			return m.jumpToBuffer(), nil
		}
		if m.selected() == nil {
			m.info("No tasks")
			return m, nil
		}
		m.mode = modeActions
		m.info("")
	case m.cfg.Keys.Add:
		return m.startPrompt(promptAdd, 0, "")
	case m.cfg.Keys.Command:
		m.mode = modeCommand
		m.input.Reset()
		m.input.Placeholder = "command, help for the list"
		m.input.Focus()
		m.info("")
	case m.cfg.Keys.Details:
		t := m.selected()
		if t == nil {
			m.info("No tasks")
			return m, nil
		}
		m.info(details(t))
	case m.cfg.Keys.Export:
		m.preview = export.Markdown(m.mgr, m.now())
		m.mode = modeExport
		m.info("")
	}
	return m, nil
}

func (m Model) jumpToBuffer() Model {
	id, err := strconv.ParseInt(m.idBuf, 10, 64)
	m.idBuf = ""
	if err != nil {
		m.fail(err)
		return m
	}
	if !m.selectID(id) {
		m.fail(fmt.Errorf("task #%d not found", id))
		return m
	}
	m.info(fmt.Sprintf("Selected #%d", id))
	return m
}

func (m *Model) refresh() {
	var keep int64
	if t := m.selected(); t != nil {
		keep = t.ID()
	}
	m.entries = m.mgr.Flatten()
	m.cursor = clampCursor(m.cursor, len(m.entries))
	if keep != 0 {
		m.selectID(keep)
	}
}

func (m *Model) selectID(id int64) bool {
	for i, e := range m.entries {
		if e.Task.ID() == id {
			m.cursor = i
			return true
		}
	}
	return false
}

func (m Model) selected() *task.Task {
	if len(m.entries) == 0 {
		return nil
	}
	return m.entries[clampCursor(m.cursor, len(m.entries))].Task
}

func (m *Model) info(s string) {
	m.status = s
	m.failed = false
}

func (m *Model) fail(err error) {
	m.status = err.Error()
	m.failed = true
}

// report sets the status for a manager result; false with no error means the
// id did not resolve.
func (m *Model) report(ok bool, err error, id int64, done string) {
	switch {
	case err != nil:
		m.fail(err)
	case !ok:
		m.fail(fmt.Errorf("task #%d not found", id))
	default:
		m.refresh()
		m.info(done)
	}
}

func details(t *task.Task) string {
	parts := []string{fmt.Sprintf("#%d %s", t.ID(), t.Title()), humanDone(t.Completed())}
	if d := t.DueDate(); d != nil {
		parts = append(parts, "due "+d.Format("2006-01-02"))
	}
	if u := t.ReferenceURL(); u != nil && *u != "" {
		parts = append(parts, *u)
	}
	if p := t.Parent(); p != nil {
		parts = append(parts, fmt.Sprintf("parent #%d", p.ID()))
	}
	if n := len(t.Children()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d subtasks", n))
	}
	return strings.Join(parts, " • ")
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func humanDone(done bool) string {
	if done {
		return "done"
	}
	return "pending"
}
