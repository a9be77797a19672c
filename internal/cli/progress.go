package cli

import (
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	pipeline "github.com/raphaelgruber/crawlkit/internal/progress"
)

const pollInterval = 200 * time.Millisecond

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg triggers reading the crawl state
type tickMsg time.Time

// stateMsg carries the current crawl snapshot
type stateMsg pipeline.PollState

// crawlProgressModel is the bubbletea model for one crawl run.
type crawlProgressModel struct {
	poll       *pipeline.PollTracker
	cancel     func()
	state      pipeline.PollState
	progress   progress.Model
	theme      Theme
	done       bool
	cancelling bool
}

func newCrawlProgressModel(poll *pipeline.PollTracker, cancel func()) crawlProgressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return crawlProgressModel{
		poll:     poll,
		cancel:   cancel,
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init returns the initial command (start polling).
func (m crawlProgressModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m crawlProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// Request cancellation once, then keep polling so the
			// terminal state still renders.
			if !m.cancelling {
				m.cancelling = true
				m.cancel()
			}
			return m, nil
		}

	case tickMsg:
		return m, m.readState()

	case stateMsg:
		m.state = pipeline.PollState(msg)
		if m.state.Done() {
			m.done = true
			return m, tea.Quit
		}
		return m, tickCmd()

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m crawlProgressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m crawlProgressModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	if m.state.TaskID == "" {
		return "Starting crawl...\n"
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.state.Status))
	bar := m.progress.ViewAs(float64(m.state.Progress) / 100)
	pct := fmt.Sprintf("%3d%%", m.state.Progress)

	hint := m.theme.hintStyle().Render("Press Ctrl+C to cancel")
	if m.cancelling {
		hint = m.theme.hintStyle().Render("Cancelling...")
	}

	line := fmt.Sprintf("%s %s %s\n", status, bar, pct)
	if m.state.Log != "" {
		line += m.theme.hintStyle().Render(m.state.Log) + "\n"
	}
	return line + hint + "\n"
}

// finalView renders the terminal state. The command prints the full
// result summary after the UI exits.
func (m crawlProgressModel) finalView() string {
	if m.state.Status == pipeline.StageError {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Crawl failed: %s\n", m.state.Error))
	}
	return ""
}

// readState snapshots the poll tracker off the Update loop.
func (m crawlProgressModel) readState() tea.Cmd {
	return func() tea.Msg {
		return stateMsg(m.poll.State())
	}
}

// tickCmd returns a command that sends a tick after the poll interval.
func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// runCrawlProgress runs the interactive progress UI for one crawl. The
// cancel function is invoked when the user interrupts; the UI stays up
// until the run reaches a terminal state.
func runCrawlProgress(poll *pipeline.PollTracker, cancel func()) error {
	model := newCrawlProgressModel(poll, cancel)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}
	return nil
}
