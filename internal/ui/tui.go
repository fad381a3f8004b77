package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teemow/taskcal/internal/calendar"
	"github.com/teemow/taskcal/internal/client"
)

// CalendarModel is the bubbletea model of the month view. It owns the
// calendar.View; fetches run as commands and are applied in Update.
type CalendarModel struct {
	ctx      context.Context
	fetcher  calendar.Fetcher[client.Task]
	view     *calendar.View[client.Task]
	now      func() time.Time
	loading  bool
	showHelp bool
}

type loadedMsg struct {
	items []client.Task
	err   error
}

// NewCalendarModel returns a model anchored on the month of anchor.
func NewCalendarModel(ctx context.Context, fetcher calendar.Fetcher[client.Task], anchor time.Time) *CalendarModel {
	return &CalendarModel{
		ctx:     ctx,
		fetcher: fetcher,
		view:    calendar.NewView(anchor, fetcher),
		now:     time.Now,
	}
}

// Calendar returns the underlying calendar state.
func (m *CalendarModel) Calendar() *calendar.View[client.Task] { return m.view }

// Loading reports whether a fetch is in flight.
func (m *CalendarModel) Loading() bool { return m.loading }

// Init starts the first fetch.
func (m *CalendarModel) Init() tea.Cmd {
	return m.load()
}

func (m *CalendarModel) load() tea.Cmd {
	m.loading = true
	ctx, fetcher := m.ctx, m.fetcher
	return func() tea.Msg {
		items, err := fetcher.FetchTasks(ctx)
		return loadedMsg{items: items, err: err}
	}
}

func (m *CalendarModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "n", "right", "l":
			m.view.Next()
		case "p", "left", "h":
			m.view.Prev()
		case "t":
			m.view.Jump(m.now())
		case "r", "f5":
			return m, m.load()
		case "?":
			m.showHelp = !m.showHelp
		}
	case loadedMsg:
		// Stale fetches are applied as they resolve.
		m.loading = false
		m.view.Apply(msg.items, msg.err)
	}
	return m, nil
}

func (m *CalendarModel) View() string {
	var b strings.Builder
	if m.showHelp {
		writeHelp(&b)
		return b.String()
	}

	b.WriteString(RenderMonth(m.view.Anchor(), m.view.Buckets(), RenderOptions{
		Today:       m.now(),
		Styled:      true,
		Unscheduled: m.view.Stats().Unscheduled(),
	}))

	switch {
	case m.loading:
		b.WriteString(dimStyle.Render("Loading...") + "\n")
	case m.view.Err() != nil:
		b.WriteString(renderError(m.view.Err(), true) + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("n/p month | t today | r reload | ? help | q quit") + "\n")
	return b.String()
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  n, right, l   Next month\n")
	b.WriteString("  p, left, h    Previous month\n")
	b.WriteString("  t             Jump to the current month\n")
	b.WriteString("  r, F5         Reload tasks\n")
	b.WriteString("  ?             Toggle this help screen\n")
	b.WriteString("  q, ctrl+c     Quit\n\n")
}

// Run starts the interactive calendar on the alternate screen.
func Run(ctx context.Context, fetcher calendar.Fetcher[client.Task], anchor time.Time) error {
	model := NewCalendarModel(ctx, fetcher, anchor)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("calendar ui: %w", err)
	}
	return nil
}

// RenderPlain fetches once and renders the month as plain text. A fetch
// failure is returned together with the (empty) grid.
func RenderPlain(ctx context.Context, fetcher calendar.Fetcher[client.Task], anchor, today time.Time) (string, error) {
	view := calendar.NewView(anchor, fetcher)
	err := view.Load(ctx)
	out := RenderMonth(view.Anchor(), view.Buckets(), RenderOptions{
		Today:       today,
		Unscheduled: view.Stats().Unscheduled(),
	})
	if err != nil {
		out += renderError(err, false) + "\n"
	}
	return out, err
}
