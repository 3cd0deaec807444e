package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/housekeep/pkg/housekeep/monitor"
)

// Options configures the dashboard.
type Options struct {
	// Sampler takes each snapshot.
	Sampler *monitor.Sampler

	// Interval is the time between the starts of consecutive samples.
	Interval time.Duration
}

// snapshotMsg carries a finished sample.
type snapshotMsg struct {
	snap *monitor.Snapshot
	err  error
}

// tickMsg asks for the next sample. Ticks from an older generation were
// superseded by a manual refresh and are dropped.
type tickMsg struct {
	gen int
}

// Rate is a per-second network throughput.
type Rate struct {
	Sent float64
	Recv float64
}

// Model is the Bubble Tea model for the health dashboard.
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	options Options

	spinner  spinner.Model
	gauge    progress.Model
	sampling bool

	// started is when the current or last sample began; ticks are spaced
	// Interval apart from it.
	started time.Time
	tickGen int

	snap *monitor.Snapshot
	prev *monitor.Snapshot
	err  error

	width  int
	height int
}

// NewModel creates a dashboard that samples until ctx is cancelled or the
// user quits.
func NewModel(ctx context.Context, opts Options) Model {
	ctx, cancel := context.WithCancel(ctx)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return Model{
		ctx:     ctx,
		cancel:  cancel,
		options: opts,
		spinner: s,
		gauge: progress.New(
			progress.WithSolidFill(string(successColor)),
			progress.WithoutPercentage(),
			progress.WithWidth(30),
		),
		sampling: true,
		started:  time.Now(),
		width:    80,
		height:   24,
	}
}

// Init starts the first sample.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.sample())
}

// sample returns a command that takes one snapshot.
func (m Model) sample() tea.Cmd {
	sampler := m.options.Sampler
	ctx := m.ctx
	return func() tea.Msg {
		snap, err := sampler.Sample(ctx)
		return snapshotMsg{snap: snap, err: err}
	}
}

// startSample begins a sample and invalidates any pending tick.
func (m Model) startSample() (Model, tea.Cmd) {
	m.sampling = true
	m.started = time.Now()
	m.tickGen++
	return m, m.sample()
}

// next schedules the tick one Interval after the last sample started, so
// the time spent sampling does not stretch the cadence.
func (m Model) next() tea.Cmd {
	delay := max(0, m.options.Interval-time.Since(m.started))
	gen := m.tickGen
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.gauge.Width = gaugeWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		case "r":
			if !m.sampling {
				return m.startSample()
			}
		}
		return m, nil

	case snapshotMsg:
		m.sampling = false
		if msg.err != nil {
			if m.ctx.Err() != nil {
				return m, tea.Quit
			}
			m.err = msg.err
			return m, m.next()
		}
		m.prev, m.snap = m.snap, msg.snap
		m.err = nil
		return m, m.next()

	case tickMsg:
		if m.sampling || msg.gen != m.tickGen {
			return m, nil
		}
		return m.startSample()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func gaugeWidth(termWidth int) int {
	return max(10, min(40, termWidth-40))
}

// View renders the dashboard.
func (m Model) View() string {
	if m.snap == nil {
		if m.err != nil {
			return errorTextStyle.Render("Sampling failed: "+m.err.Error()) + "\n"
		}
		return fmt.Sprintf("\n  %s Sampling system health...\n", m.spinner.View())
	}

	s := m.snap
	var b strings.Builder

	b.WriteString(m.header())
	b.WriteString("\n")

	if s.CPU != nil {
		detail := fmt.Sprintf("%d cores / %d threads", s.CPU.Physical, s.CPU.Logical)
		if s.CPU.MHz > 0 {
			detail += fmt.Sprintf(" @ %.0f MHz", s.CPU.MHz)
		}
		b.WriteString(m.meter("CPU", s.CPU.Percent, monitor.DefaultThresholds, detail))
	}
	if s.Memory != nil {
		b.WriteString(m.meter("Memory", s.Memory.Percent, monitor.DefaultThresholds,
			humanize.IBytes(s.Memory.Used)+" / "+humanize.IBytes(s.Memory.Total)))
	}
	if s.Swap != nil && s.Swap.Total > 0 {
		b.WriteString(m.meter("Swap", s.Swap.Percent, monitor.SwapThresholds,
			humanize.IBytes(s.Swap.Used)+" / "+humanize.IBytes(s.Swap.Total)))
	}

	if len(s.Disks) > 0 {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Disks"))
		b.WriteString("\n")
		for _, d := range s.Disks {
			b.WriteString(m.meter(truncate(d.Mountpoint, 11), d.Percent, monitor.DefaultThresholds,
				humanize.IBytes(d.Free)+" free"))
		}
	}

	if s.Network != nil {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Network"))
		b.WriteString("\n")
		line := fmt.Sprintf("sent %s  recv %s", humanize.IBytes(s.Network.BytesSent), humanize.IBytes(s.Network.BytesRecv))
		if rate, ok := NetworkRate(m.prev, s); ok {
			line += fmt.Sprintf("  (%s/s up, %s/s down)", humanize.IBytes(uint64(rate.Sent)), humanize.IBytes(uint64(rate.Recv)))
		}
		b.WriteString("  " + line + "\n")
	}

	if bat := s.Battery; bat != nil {
		b.WriteString("\n")
		detail := bat.State
		if bat.Remaining > 0 {
			detail += ", " + bat.Remaining.Round(time.Minute).String() + " left"
		}
		b.WriteString(m.meter("Battery", bat.Percent, monitor.Thresholds{Warning: 101, Critical: 101}, detail))
	}

	if len(s.TopCPU) > 0 {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Top processes"))
		b.WriteString("\n")
		for _, p := range s.TopCPU {
			b.WriteString(fmt.Sprintf("  %7d  %-24s %6.1f%% cpu  %6.1f%% mem\n", p.PID, truncate(p.Name, 24), p.CPUPercent, p.MemPercent))
		}
	}

	if alerts := s.Alerts(); len(alerts) > 0 {
		b.WriteString("\n")
		for _, a := range alerts {
			b.WriteString(monitor.LevelStyle(a.Level).Render(
				fmt.Sprintf("  %s: high %s usage (%.1f%%)", strings.ToUpper(a.Level.String()), a.Subject, a.Percent)))
			b.WriteString("\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorTextStyle.Render("  last sample failed: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.footer())

	return outerBoxStyle.Width(max(40, m.width-2)).Render(b.String())
}

func (m Model) header() string {
	title := titleStyle.Render("SYSTEM HEALTH")
	host := ""
	if h := m.snap.Host; h != nil {
		host = fmt.Sprintf("%s  %s %s  up %s", h.Hostname, h.Platform, h.PlatformVersion, h.Uptime.Round(time.Minute))
	}
	stamp := m.snap.Time.Format("15:04:05")
	return title + "  " + mutedTextStyle.Render(host) + "  " + mutedTextStyle.Render(stamp) + "\n" +
		dividerStyle.Render(strings.Repeat("─", max(10, m.width-6)))
}

// meter renders one labelled gauge colored by its threshold level.
func (m Model) meter(label string, pct float64, t monitor.Thresholds, detail string) string {
	level := t.Level(pct)

	g := m.gauge
	g.FullColor = string(levelColor(level))

	return "  " + labelStyle.Render(label) +
		g.ViewAs(clamp(pct/100)) + " " +
		monitor.LevelStyle(level).Render(fmt.Sprintf("%5.1f%%", pct)) + "  " +
		mutedTextStyle.Render(detail) + "\n"
}

func (m Model) footer() string {
	status := fmt.Sprintf("every %s", m.options.Interval)
	if m.sampling {
		status = m.spinner.View() + " sampling"
	}
	return keyStyle.Render("q") + mutedTextStyle.Render(" quit  ") +
		keyStyle.Render("r") + mutedTextStyle.Render(" refresh  ") +
		mutedTextStyle.Render(status)
}

// NetworkRate is the throughput between two snapshots. It is false when
// there is no earlier snapshot, no time passed, or the counters went
// backwards (an interface reset).
func NetworkRate(prev, cur *monitor.Snapshot) (Rate, bool) {
	if prev == nil || cur == nil || prev.Network == nil || cur.Network == nil {
		return Rate{}, false
	}
	dt := cur.Time.Sub(prev.Time).Seconds()
	if dt <= 0 {
		return Rate{}, false
	}
	if cur.Network.BytesSent < prev.Network.BytesSent || cur.Network.BytesRecv < prev.Network.BytesRecv {
		return Rate{}, false
	}
	return Rate{
		Sent: float64(cur.Network.BytesSent-prev.Network.BytesSent) / dt,
		Recv: float64(cur.Network.BytesRecv-prev.Network.BytesRecv) / dt,
	}, true
}

func clamp(f float64) float64 {
	return max(0, min(1, f))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Run shows the dashboard until the user quits or ctx is cancelled. Both
// are a normal stop and return nil.
func Run(ctx context.Context, opts Options) error {
	if opts.Interval <= 0 {
		return fmt.Errorf("%w: %s", monitor.ErrInvalidInterval, opts.Interval)
	}

	p := tea.NewProgram(NewModel(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
