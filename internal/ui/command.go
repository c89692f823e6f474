package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"nt/internal/manager"
)

type verb int

const (
	verbAdd verb = iota + 1
	verbAddChild
	verbComplete
	verbUncomplete
	verbEdit
	verbDue
	verbURL
	verbMove
	verbDelete
	verbExit
	verbHelp
)

var verbs = map[string]verb{
	"add":        verbAdd,
	"add-child":  verbAddChild,
	"ac":         verbAddChild,
	"complete":   verbComplete,
	"c":          verbComplete,
	"uncomplete": verbUncomplete,
	"u":          verbUncomplete,
	"edit":       verbEdit,
	"e":          verbEdit,
	"due":        verbDue,
	"url":        verbURL,
	"move":       verbMove,
	"mv":         verbMove,
	"delete":     verbDelete,
	"d":          verbDelete,
	"exit":       verbExit,
	"quit":       verbExit,
	"q":          verbExit,
	"help":       verbHelp,
	"?":          verbHelp,
}

const commandHelp = "add <title> • ac <parent> <title> • c|u <id> • e <id> <title> • due <id> <date> • url <id> [url] • mv <id> <parent|root> • d <id> • q"

// command is one parsed command-mode line.
type command struct {
	verb   verb
	id     int64
	target *int64 // move destination; nil means root
	text   string
	hasURL bool
}

func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, errors.New("empty command")
	}
	v, ok := verbs[strings.ToLower(fields[0])]
	if !ok {
		return command{}, fmt.Errorf("unknown command %q, try help", fields[0])
	}
	c := command{verb: v}
	args := fields[1:]

	var err error
	switch v {
	case verbAdd:
		if len(args) == 0 {
			return c, usage("add <title>")
		}
		c.text = strings.Join(args, " ")
	case verbAddChild:
		if len(args) < 2 {
			return c, usage("add-child <parent_id> <title>")
		}
		if c.id, err = parseID(args[0]); err != nil {
			return c, err
		}
		c.text = strings.Join(args[1:], " ")
	case verbComplete, verbUncomplete, verbDelete:
		if len(args) != 1 {
			return c, usage(fields[0] + " <id>")
		}
		c.id, err = parseID(args[0])
	case verbEdit, verbDue:
		if len(args) < 2 {
			return c, usage(fields[0] + " <id> <value>")
		}
		if c.id, err = parseID(args[0]); err != nil {
			return c, err
		}
		c.text = strings.Join(args[1:], " ")
	case verbURL:
		if len(args) < 1 || len(args) > 2 {
			return c, usage("url <id> [url]")
		}
		if c.id, err = parseID(args[0]); err != nil {
			return c, err
		}
		if len(args) == 2 {
			c.text, c.hasURL = args[1], true
		}
	case verbMove:
		if len(args) != 2 {
			return c, usage("move <id> <parent_id|root>")
		}
		if c.id, err = parseID(args[0]); err != nil {
			return c, err
		}
		if strings.ToLower(args[1]) != "root" {
			p, err := parseID(args[1])
			if err != nil {
				return c, err
			}
			c.target = &p
		}
	}
	return c, err
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func usage(s string) error {
	return errors.New("usage: " + s)
}

func (m Model) updateCommand(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.input.Blur()
		m.info("")
		return m, nil
	case "enter":
		line := m.input.Value()
		m.mode = modeList
		m.input.Blur()
		c, err := parseCommand(line)
		if err != nil {
			m.fail(err)
			return m, nil
		}
		return m.runCommand(c)
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) runCommand(c command) (tea.Model, tea.Cmd) {
	ctx := m.ctx
	switch c.verb {
	case verbExit:
		return m, tea.Quit
	case verbHelp:
		m.info(commandHelp)
	case verbAdd, verbAddChild:
		var opts []manager.AddOption
		if c.verb == verbAddChild {
			opts = append(opts, manager.Under(c.id))
		}
		t, err := m.mgr.Add(ctx, c.text, opts...)
		if err != nil {
			m.fail(err)
			return m, nil
		}
		m.refresh()
		m.selectID(t.ID())
		m.info(fmt.Sprintf("Added #%d", t.ID()))
	case verbComplete:
		ok, err := m.mgr.Complete(ctx, c.id)
		m.report(ok, err, c.id, fmt.Sprintf("Completed #%d", c.id))
	case verbUncomplete:
		ok, err := m.mgr.Uncomplete(ctx, c.id)
		m.report(ok, err, c.id, fmt.Sprintf("Reopened #%d", c.id))
	case verbEdit:
		ok, err := m.mgr.EditTitle(ctx, c.id, c.text)
		m.report(ok, err, c.id, fmt.Sprintf("Renamed #%d", c.id))
	case verbDue:
		ok, err := m.mgr.EditDueDateString(ctx, c.id, c.text)
		m.report(ok, err, c.id, fmt.Sprintf("Updated due date of #%d", c.id))
	case verbURL:
		var u *string
		if c.hasURL {
			u = &c.text
		}
		ok, err := m.mgr.EditReferenceURL(ctx, c.id, u)
		m.report(ok, err, c.id, fmt.Sprintf("Updated URL of #%d", c.id))
	case verbMove:
		ok, err := m.mgr.Move(ctx, c.id, c.target)
		switch {
		case err != nil:
			m.fail(err)
		case !ok:
			m.fail(fmt.Errorf("cannot move #%d there", c.id))
		default:
			m.refresh()
			m.info(fmt.Sprintf("Moved #%d", c.id))
		}
	case verbDelete:
		ok, err := m.mgr.Delete(ctx, c.id)
		m.report(ok, err, c.id, fmt.Sprintf("Deleted #%d", c.id))
	}
	return m, nil
}
