// Package tui is the interactive terminal consumer of a search session.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nguyengg/walgrep"
	"github.com/nguyengg/walgrep/internal/results"
)

// header and footer are one line each.
const chromeHeight = 2

type tickMsg time.Time

// RestartMsg asks the model to stop the current search, if any, and start it again.
type RestartMsg struct{}

// Model drives one walgrep.Session, polling it on every tick and rendering the results into a scrollable view.
type Model struct {
	session  *walgrep.Session
	req      walgrep.Request
	interval time.Duration

	tree  results.Tree
	lines []string
	err   error

	spinner  spinner.Model
	viewport viewport.Model
	help     help.Model
	keys     keyMap
	styles   Styles
}

// New returns a Model that searches req when it starts.
//
// interval is the poll cadence.
func New(session *walgrep.Session, req walgrep.Request, interval time.Duration) *Model {
	return &Model{
		session:  session,
		req:      req,
		interval: interval,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		viewport: viewport.New(80, 20),
		help:     help.New(),
		keys:     defaultKeyMap(),
		styles:   DefaultStyles(),
	}
}

// Init starts the search.
func (m *Model) Init() tea.Cmd {
	m.start()
	return tea.Batch(m.spinner.Tick, m.tick())
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(1, msg.Height-chromeHeight)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.session.Stop()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			if m.session.State() == walgrep.Running {
				m.session.Stop()
				m.poll()
			} else {
				m.start()
			}
			return m, nil
		}

	case RestartMsg:
		m.session.Stop()
		m.start()
		return m, nil

	case tickMsg:
		m.poll()
		return m, m.tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the status line, the results, and the help line.
func (m *Model) View() string {
	var status string
	switch {
	case m.err != nil:
		status = m.styles.Error.Render(m.err.Error())
	case m.session.State() == walgrep.Running:
		status = m.spinner.View() + " " + m.styles.Status.Render(m.session.Status())
	default:
		status = m.styles.Status.Render(m.session.Status())
	}

	return status + "\n" + m.viewport.View() + "\n" + m.help.ShortHelpView(m.keys.ShortHelp())
}

// Tree returns the results folded so far.
func (m *Model) Tree() *results.Tree {
	return &m.tree
}

func (m *Model) start() {
	m.tree.Reset()
	m.lines = nil
	m.viewport.SetContent("")
	m.viewport.GotoTop()

	if m.err = m.session.Start(m.req); m.err != nil {
		m.err = fmt.Errorf("start search error: %w", m.err)
	}
}

func (m *Model) poll() {
	events, _ := m.session.Poll()
	if len(events) == 0 {
		return
	}

	m.tree.Apply(events...)
	for _, e := range events {
		m.lines = append(m.lines, m.styles.RenderEvent(e)...)
	}

	follow := m.viewport.AtBottom()
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
