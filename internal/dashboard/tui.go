package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"soleondash/internal/gauge"
	"soleondash/internal/logging"
)

// Link is the consumer end of the channel driven by the dashboard.
type Link interface {
	Source
	SignalClose()
}

// Options configures the dashboard program.
type Options struct {
	Title   string
	Period  time.Duration
	Width   int
	Session string
	Logger  *slog.Logger
}

const (
	defaultPeriod = 100 * time.Millisecond
	defaultWidth  = 60
	noValue       = "-.-"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("#2F4F4F")).Padding(0, 1)
	dialStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	waitStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

type tickMsg time.Time

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type keyMap struct {
	Quit key.Binding
	Help key.Binding
}

func (k keyMap) ShortHelp() []key.Binding  { return []key.Binding{k.Help, k.Quit} }
func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{{k.Help, k.Quit}} }

var defaultKeys = keyMap{
	Quit: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "close dashboard")),
	Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more help")),
}

type model struct {
	opts     Options
	link     Link
	loop     *Loop
	readouts table.Model
	help     help.Model
	keys     keyMap
	width    int
}

func newModel(link Link, opts Options) model {
	if opts.Period <= 0 {
		opts.Period = defaultPeriod
	}
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	log := opts.Logger
	cols := []table.Column{
		{Title: "Instrument", Width: 14},
		{Title: "Value", Width: 12},
		{Title: "Unit", Width: 6},
	}
	t := table.New(table.WithColumns(cols), table.WithRows(readoutRows(DisplayState{})), table.WithHeight(4))
	return model{
		opts: opts,
		link: link,
		loop: NewLoop(link, func() {
			log.Info("dashboard closing", "session", opts.Session)
		}),
		readouts: t,
		help:     help.New(),
		keys:     defaultKeys,
		width:    opts.Width,
	}
}

func readoutRows(d DisplayState) []table.Row {
	level, ts, band := noValue, noValue, "--"
	if d.Valid {
		// the dial is clamped, the readout shows what the sprayer reported
		level = fmt.Sprintf("%.2f", d.Level)
		ts = fmt.Sprintf("%.2f", float64(d.Timestamp))
		band = d.Band.String()
	}
	return []table.Row{
		{"LiquidLevel", level, "%"},
		{"timestamp", ts, "ms"},
		{"band", band, ""},
	}
}

func (m model) Init() tea.Cmd { return tick(m.opts.Period) }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if !m.loop.Tick() {
			return m, tea.Quit
		}
		m.readouts.SetRows(readoutRows(m.loop.Display()))
		return m, tick(m.opts.Period)
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			// the next tick tears the loop down
			m.link.SignalClose()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
	}
	return m, nil
}

func (m model) dialWidth() int {
	w := m.width - 4
	if w > m.opts.Width {
		w = m.opts.Width
	}
	return w
}

func (m model) View() string {
	d := m.loop.Display()
	title := titleStyle.Render(m.opts.Title)

	dial := gauge.Render(d.Value, m.dialWidth())
	if !d.Valid {
		dial = lipgloss.JoinVertical(lipgloss.Left, dial, waitStyle.Render("waiting for data..."))
	}

	footer := fmt.Sprintf("session %s  state %s  received %d  superseded %d",
		m.opts.Session, m.loop.State(), d.Received, d.Dropped)
	footer = footerStyle.Render(wordwrap.String(footer, max(m.width, 20)))

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		dialStyle.Render(dial),
		m.readouts.View(),
		footer,
		m.help.View(m.keys),
	)
}

// Run shows the dashboard on the terminal until the loop terminates, then
// makes sure the producer has been told to stop.
func Run(ctx context.Context, link Link, opts Options) error {
	defer link.SignalClose()
	if opts.Logger == nil {
		opts.Logger = logging.FromContext(ctx)
	}
	p := tea.NewProgram(newModel(link, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
