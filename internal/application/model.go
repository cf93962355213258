// Package application is the terminal front end: a menu over the files in an
// uploads directory and the table catalog, with the same load, preview and
// processing flow as the web page.
package application

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JonMunkholm/sheetload/internal/core"
)

/* ----------------------------------------
	MESSAGES
---------------------------------------- */

// refreshMsg follows any service call; the model re-reads the session.
type refreshMsg struct{ err error }

type togglePreviewMsg struct{}

type rescanMsg struct{}

type runStartedMsg struct {
	runID   string
	updates <-chan core.RunProgress
}

type runProgressMsg struct{ p core.RunProgress }

type runDoneMsg struct {
	res   *core.RunResult
	final *core.RunProgress
	err   error
}

/* ----------------------------------------
	MODEL
---------------------------------------- */

// Model is the bubbletea model. It holds one session of svc.
type Model struct {
	svc *core.Service
	sid string
	dir string

	root   *Menu
	menu   *Menu
	cursor int

	view        core.SessionView
	showPreview bool
	err         error

	runID   string
	updates <-chan core.RunProgress
	run     *core.RunProgress
	result  *core.RunResult

	bar      progress.Model
	spin     spinner.Model
	quitting bool
}

// New creates a model with a fresh session. dir is the uploads directory.
func New(svc *core.Service, dir string) *Model {
	m := &Model{
		svc:         svc,
		sid:         svc.NewSession(),
		dir:         dir,
		showPreview: true,
		bar:         progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		spin:        spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	m.spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	m.root = buildMenuTree(m)
	m.menu = m.root
	m.refresh()
	return m
}

// Run starts the menu on the terminal and blocks until the user quits.
func Run(ctx context.Context, svc *core.Service, dir string) error {
	m := New(svc, dir)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if m.runID != "" {
		_ = svc.CancelRun(m.sid, m.runID)
	}
	return err
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) refresh() {
	v, err := m.svc.Snapshot(m.sid)
	if err != nil {
		m.err = err
		return
	}
	m.view = v
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		w := msg.Width - 10
		if w > 80 {
			w = 80
		}
		if w > 10 {
			m.bar.Width = w
		}
		return m, nil

	case spinner.TickMsg:
		if m.updates == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case refreshMsg:
		m.err = msg.err
		m.refresh()
		return m, nil

	case togglePreviewMsg:
		m.showPreview = !m.showPreview
		return m, nil

	case rescanMsg:
		m.root = buildMenuTree(m)
		m.menu = m.root.Items[0].Submenu
		m.cursor = 0
		return m, nil

	case runStartedMsg:
		m.err = nil
		m.runID = msg.runID
		m.updates = msg.updates
		m.result = nil
		m.run = nil
		m.refresh()
		return m, tea.Batch(m.waitProgress(), m.spin.Tick)

	case runProgressMsg:
		p := msg.p
		m.run = &p
		return m, m.waitProgress()

	case runDoneMsg:
		m.updates = nil
		m.result = msg.res
		m.err = msg.err
		if msg.final != nil {
			m.run = msg.final
		}
		m.refresh()
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		if m.runID != "" && m.updates != nil {
			_ = m.svc.CancelRun(m.sid, m.runID)
		}
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.menu.Items)-1 {
			m.cursor++
		}

	case "esc", "backspace":
		if m.menu.Parent != nil {
			m.menu = m.menu.Parent
			m.cursor = 0
		}

	case "p":
		m.showPreview = !m.showPreview

	case "x":
		if m.runID != "" && m.updates != nil {
			_ = m.svc.CancelRun(m.sid, m.runID)
		}

	case "enter", " ":
		item := m.menu.Items[m.cursor]
		if item.Submenu != nil {
			m.menu = item.Submenu
			m.cursor = 0
			return m, nil
		}
		if item.Action != nil {
			return m, item.Action()
		}
	}
	return m, nil
}

/* ----------------------------------------
	COMMANDS
---------------------------------------- */

func (m *Model) loadFile(path string) tea.Cmd {
	sid := m.sid
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return refreshMsg{err: err}
		}
		defer f.Close()

		var size int64
		if info, err := f.Stat(); err == nil {
			size = info.Size()
		}
		_, err = m.svc.LoadFile(context.Background(), sid, path, f, size)
		return refreshMsg{err: err}
	}
}

func (m *Model) selectTable(key string) tea.Cmd {
	sid := m.sid
	return func() tea.Msg {
		_, err := m.svc.SelectTable(sid, key)
		return refreshMsg{err: err}
	}
}

func (m *Model) startRun() tea.Cmd {
	sid := m.sid
	return func() tea.Msg {
		runID, err := m.svc.StartRun(context.Background(), sid, "")
		if err != nil {
			return refreshMsg{err: err}
		}
		ch, err := m.svc.SubscribeProgress(sid, runID)
		if err != nil {
			return refreshMsg{err: err}
		}
		return runStartedMsg{runID: runID, updates: ch}
	}
}

func (m *Model) clear() tea.Cmd {
	sid := m.sid
	return func() tea.Msg {
		_, err := m.svc.Clear(sid)
		return refreshMsg{err: err}
	}
}

// waitProgress blocks for the next update of the current run. After the
// last update it fetches the run result.
func (m *Model) waitProgress() tea.Cmd {
	sid, runID, ch := m.sid, m.runID, m.updates
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		p, ok := <-ch
		if ok {
			return runProgressMsg{p: p}
		}
		res, err := m.svc.RunResult(context.Background(), sid, runID)
		if err != nil {
			return runDoneMsg{err: err}
		}
		final, err := m.svc.RunProgress(sid, runID)
		if err != nil {
			return runDoneMsg{res: res}
		}
		return runDoneMsg{res: res, final: &final}
	}
}

/* ----------------------------------------
	VIEW
---------------------------------------- */

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Sheet Loader"))
	b.WriteString("\n\n")

	file := "none"
	if m.view.FileName != "" {
		file = fmt.Sprintf("%s (%d rows)", m.view.FileName, m.view.Rows)
	}
	table := "none"
	if m.view.Table != "" {
		table = m.view.Table
	}
	b.WriteString(infoStyle.Render(fmt.Sprintf("File: %s   Table: %s", file, table)))
	b.WriteString("\n\n")

	b.WriteString(menuTitleStyle.Render(m.menu.Title))
	b.WriteString("\n")
	for i, item := range m.menu.Items {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + item.Label))
		} else {
			b.WriteString("  " + item.Label)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if s := RenderStatus(m.view.Status); s != "" {
		b.WriteString(s)
		b.WriteString("\n")
	}
	if m.err != nil && m.view.Status.Kind != core.StatusError {
		b.WriteString(statusStyles[core.StatusError].Render(core.FormatUserError(m.err)))
		b.WriteString("\n")
	}

	if m.run != nil {
		b.WriteString("\n")
		if m.updates != nil {
			b.WriteString(m.spin.View() + " ")
		}
		b.WriteString(m.bar.ViewAs(m.run.Percent() / 100))
		b.WriteString("\n")
		b.WriteString(infoStyle.Render(RenderStats(*m.run)))
		b.WriteString("\n")
	}
	if m.result != nil {
		b.WriteString(RenderResult(m.result))
		b.WriteString("\n")
	}

	if m.showPreview && m.view.Preview != nil {
		b.WriteString("\n")
		b.WriteString(RenderPreview(m.view.Preview))
		b.WriteString("\n")
	}
	if c := RenderCoverage(m.view.Coverage); c != "" {
		b.WriteString("\n")
		b.WriteString(c)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ move • enter select • esc back • p preview • x cancel run • q quit"))
	return b.String()
}
