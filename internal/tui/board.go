// Package tui renders the task board in the terminal.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskboard/internal/board"
	"taskboard/internal/models"
)

// stateMsg tells the view that coordinator state changed.
type stateMsg struct{}

type warnMsg struct{ text string }

type addedMsg struct {
	email string
	ok    bool
}

type filterErrMsg struct{ err error }

// Bridge forwards coordinator notifications into a running program. Messages
// sent before Attach are dropped.
type Bridge struct {
	mu sync.Mutex
	p  *tea.Program
}

func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.p = p
}

func (b *Bridge) send(msg tea.Msg) {
	b.mu.Lock()
	p := b.p
	b.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Warn implements board.Notifier.
func (b *Bridge) Warn(message string) { b.send(warnMsg{text: message}) }

// Changed is registered with Coordinator.OnChange.
func (b *Bridge) Changed() { b.send(stateMsg{}) }

type mode int

const (
	modeBoard mode = iota
	modeAddPerson
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle       = lipgloss.NewStyle().Faint(true)
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	overdueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	activeFilter   = lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1)
	inactiveFilter = lipgloss.NewStyle().Padding(0, 1)
	columnStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(28)
	priorityStyle = map[models.Priority]lipgloss.Style{
		models.PriorityHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		models.PriorityModerate: lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
		models.PriorityLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
	}
)

// Model is the bubbletea model of the board screen.
type Model struct {
	ctx   context.Context
	coord *board.Coordinator
	now   func() time.Time

	state         board.State
	mode          mode
	input         string
	status        string
	showAnalytics bool
	width         int
}

func New(ctx context.Context, coord *board.Coordinator) *Model {
	return &Model{
		ctx:   ctx,
		coord: coord,
		now:   time.Now,
		state: coord.Snapshot(),
	}
}

func (m *Model) Init() tea.Cmd {
	return m.mountCmd()
}

func (m *Model) mountCmd() tea.Cmd {
	return func() tea.Msg {
		m.coord.Mount(m.ctx)
		return stateMsg{}
	}
}

func (m *Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		m.coord.FetchData(m.ctx)
		return stateMsg{}
	}
}

func (m *Model) setFilterCmd(f models.Filter) tea.Cmd {
	return func() tea.Msg {
		if err := m.coord.SetFilter(m.ctx, f); err != nil {
			return filterErrMsg{err: err}
		}
		return stateMsg{}
	}
}

func (m *Model) addPersonCmd(email string) tea.Cmd {
	return func() tea.Msg {
		return addedMsg{email: email, ok: m.coord.AddPerson(m.ctx, email)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case stateMsg:
		m.state = m.coord.Snapshot()
	case warnMsg:
		m.status = msg.text
	case addedMsg:
		if msg.ok {
			m.status = "Added " + msg.email
		} else if m.status == "" {
			m.status = "Could not add " + msg.email
		}
		m.state = m.coord.Snapshot()
	case filterErrMsg:
		m.status = msg.err.Error()
	case tea.KeyMsg:
		if m.mode == modeAddPerson {
			return m.handleInputKey(msg)
		}
		return m.handleBoardKey(msg)
	}
	return m, nil
}

func (m *Model) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "f":
		next := m.state.Filter.Next()
		m.state.Filter = next
		m.status = ""
		return m, m.setFilterCmd(next)
	case "1", "2", "3":
		f := models.Filters[int(msg.String()[0]-'1')]
		m.state.Filter = f
		m.status = ""
		return m, m.setFilterCmd(f)
	case "r":
		m.status = ""
		return m, m.refreshCmd()
	case "tab":
		m.showAnalytics = !m.showAnalytics
	case "a":
		m.mode = modeAddPerson
		m.input = ""
		m.status = ""
	}
	return m, nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.mode = modeBoard
		m.input = ""
	case tea.KeyEnter:
		email := strings.TrimSpace(m.input)
		m.mode = modeBoard
		m.input = ""
		if email == "" {
			return m, nil
		}
		return m, m.addPersonCmd(email)
	case tea.KeyBackspace, tea.KeyCtrlH, tea.KeyDelete:
		if len(m.input) > 0 {
			r := []rune(m.input)
			m.input = string(r[:len(r)-1])
		}
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return m, nil
}

func (m *Model) View() string {
	var b strings.Builder

	name := m.coord.Session().Name
	if m.state.User != nil && m.state.User.Name != "" {
		name = m.state.User.Name
	}
	b.WriteString(titleStyle.Render("Welcome! " + name))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(formatDate(m.now())))
	b.WriteString("\n\n")

	b.WriteString(m.renderFilters())
	if m.state.Loading {
		b.WriteString("  " + dimStyle.Render("Loading..."))
	}
	b.WriteString("\n\n")

	if m.showAnalytics {
		b.WriteString(m.renderAnalytics())
	} else {
		b.WriteString(m.renderColumns())
	}
	b.WriteString("\n")

	if m.mode == modeAddPerson {
		b.WriteString("Add person by email: " + m.input + "▌\n")
	}
	if m.status != "" {
		b.WriteString(warnStyle.Render(m.status) + "\n")
	}
	b.WriteString(dimStyle.Render("f/1-3 filter • tab analytics • a add person • r refresh • q quit"))
	return b.String()
}

func (m *Model) renderFilters() string {
	parts := make([]string, 0, len(models.Filters))
	for _, f := range models.Filters {
		if f == m.state.Filter {
			parts = append(parts, activeFilter.Render(string(f)))
		} else {
			parts = append(parts, inactiveFilter.Render(string(f)))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderColumns() string {
	now := m.now()
	cols := make([]string, 0, len(models.States))
	for _, s := range models.States {
		var lines []string
		for i := range m.state.Tasks {
			t := &m.state.Tasks[i]
			if t.State != s {
				continue
			}
			lines = append(lines, renderCard(t, now))
		}
		body := dimStyle.Render("no tasks")
		if len(lines) > 0 {
			body = strings.Join(lines, "\n")
		}
		heading := fmt.Sprintf("%s (%d)", columnTitle(s), len(lines))
		cols = append(cols, columnStyle.Render(titleStyle.Render(heading)+"\n"+body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func renderCard(t *models.Task, now time.Time) string {
	style, ok := priorityStyle[t.Priority]
	if !ok {
		style = lipgloss.NewStyle()
	}
	line := style.Render("●") + " " + t.Title
	meta := fmt.Sprintf("%d/%d", t.Completed(), len(t.Checklist))
	if due := dueLabel(t); due != "" {
		if t.Overdue || t.IsOverdue(now) {
			meta += " " + overdueStyle.Render(due)
		} else {
			meta += " " + due
		}
	}
	if t.Assignee != "" {
		meta += " @" + t.Assignee
	}
	return line + "\n  " + dimStyle.Render(meta)
}

func (m *Model) renderAnalytics() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Analytics") + "\n")
	for _, key := range models.AnalyticsKeys {
		fmt.Fprintf(&b, "%-14s %d\n", metricLabel(key), m.state.Analytics[key])
	}
	if len(m.state.People) > 0 {
		b.WriteString("\n" + titleStyle.Render("People") + "\n")
		for _, p := range m.state.People {
			b.WriteString("  " + p + "\n")
		}
	}
	return b.String()
}
