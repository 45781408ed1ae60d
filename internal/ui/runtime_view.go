package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"steprt/internal/asyncrt"
	"steprt/internal/host"
	"steprt/internal/scenario"
)

// Options configures the terminal host.
type Options struct {
	Runtime *asyncrt.Runtime
	Run     *scenario.Run
	// Record, when set, receives every delta fed to the runtime.
	Record   *host.Recording
	Title    string
	Interval time.Duration
	MaxDelta time.Duration
	// Frames limits the number of steps. Zero means until the run is done.
	Frames int
	// OnFrame, when set, observes every frame after it is stepped.
	OnFrame func(host.Frame)
}

type runtimeModel struct {
	opts    Options
	spinner spinner.Model
	prog    progress.Model
	prev    time.Time
	err     error
	result  host.Result
	history []asyncrt.StepStats
	width   int
	done    bool
}

type frameMsg time.Time

const historyLen = 6

// NewRuntimeModel returns a Bubble Tea model that is itself the host loop:
// every tick steps the runtime by the wall-clock time since the previous
// tick and renders scheduler occupancy.
func NewRuntimeModel(opts Options) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	if opts.Interval <= 0 {
		opts.Interval = time.Second / 60
	}
	return &runtimeModel{
		opts:    opts,
		spinner: sp,
		prog:    prog,
		width:   80,
	}
}

func (m *runtimeModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.tick())
}

func (m *runtimeModel) tick() tea.Cmd {
	return tea.Tick(m.opts.Interval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m *runtimeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		if m.done {
			return m, nil
		}
		cmd := m.step(time.Time(msg))
		if m.done {
			return m, tea.Sequence(cmd, tea.Quit)
		}
		return m, tea.Batch(cmd, m.tick())
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.finish(host.StopContext)
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

// step runs one frame and returns the progress bar animation command.
func (m *runtimeModel) step(now time.Time) tea.Cmd {
	var raw time.Duration
	if !m.prev.IsZero() {
		raw = now.Sub(m.prev)
	}
	m.prev = now
	dt := host.ClampDelta(raw, m.opts.MaxDelta)
	if m.opts.Record != nil {
		if err := m.opts.Record.Append(dt); err != nil {
			m.err = err
			m.finish(host.StopClock)
			return nil
		}
	}

	stats := m.opts.Runtime.Step(dt)
	if stats.Skipped {
		m.finish(host.StopClosed)
		return nil
	}
	m.history = append(m.history, stats)
	if len(m.history) > historyLen {
		m.history = m.history[len(m.history)-historyLen:]
	}
	m.result.Frames++
	m.result.Elapsed += dt
	if m.opts.OnFrame != nil {
		m.opts.OnFrame(host.Frame{Index: m.result.Frames, Delta: dt, Raw: raw, Stats: stats})
	}

	switch {
	case m.opts.Run != nil && m.opts.Run.Done():
		m.finish(host.StopUntil)
	case m.opts.Frames > 0 && m.result.Frames >= m.opts.Frames:
		m.finish(host.StopFrames)
	}
	return m.prog.SetPercent(m.percent())
}

func (m *runtimeModel) finish(reason host.StopReason) {
	m.done = true
	m.result.Reason = reason
}

func (m *runtimeModel) percent() float64 {
	run := m.opts.Run
	if run == nil || run.Total() == 0 {
		if m.opts.Frames > 0 {
			return float64(m.result.Frames) / float64(m.opts.Frames)
		}
		return 0
	}
	return float64(run.Completed()) / float64(run.Total())
}

func (m *runtimeModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	header := m.opts.Title
	if m.done {
		header = fmt.Sprintf("done: %s (%s)", header, m.result.Reason)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	snap := m.opts.Runtime.Snapshot()
	fmt.Fprintf(&b, "  %s %-8d %s %s\n",
		labelStyle.Render("frame"), m.result.Frames,
		labelStyle.Render("virtual"), snap.Now)
	fmt.Fprintf(&b, "  %s %-8d %s %-8d %s %-8d %s %d\n",
		labelStyle.Render("ready"), snap.Ready,
		labelStyle.Render("parked"), snap.Parked,
		labelStyle.Render("timers"), snap.Timers,
		labelStyle.Render("wakes"), snap.PendingWakes)
	b.WriteString("\n")

	for _, st := range m.history {
		line := fmt.Sprintf("%5d  %10s  polls=%d completed=%d failed=%d timers=%d",
			st.Step, st.Now, st.Polls, st.Completed, st.Failed, st.TimersFired)
		b.WriteString("  ")
		b.WriteString(styleStats(st).Render(truncate(line, m.width-4)))
		b.WriteString("\n")
	}

	if m.opts.Run != nil {
		b.WriteString("\n  ")
		b.WriteString(truncate(m.opts.Run.Summary(), m.width-4))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if m.done && m.result.Reason == host.StopUntil {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func styleStats(st asyncrt.StepStats) lipgloss.Style {
	switch {
	case st.Failed > 0:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case st.Completed > 0:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case st.Polls > 0:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}

// Run drives the runtime from a Bubble Tea program writing to out until the
// scenario finishes, the frame limit is hit, or the user quits.
func Run(ctx context.Context, out io.Writer, opts Options) (host.Result, error) {
	model := NewRuntimeModel(opts)
	final, err := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx)).Run()
	switch {
	case errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil:
		m, _ := model.(*runtimeModel)
		m.finish(host.StopContext)
		return m.result, nil
	case err != nil:
		return host.Result{}, err
	}
	m, ok := final.(*runtimeModel)
	if !ok {
		return host.Result{}, fmt.Errorf("ui: unexpected model %T", final)
	}
	return m.result, m.err
}
