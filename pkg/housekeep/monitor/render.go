package monitor

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	okColor       = lipgloss.Color("#28A745")
	warningColor  = lipgloss.Color("#FFC107")
	criticalColor = lipgloss.Color("#DC3545")
	primaryColor  = lipgloss.Color("#7D56F4")
	mutedColor    = lipgloss.Color("#666666")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(14)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)

// LevelStyle returns the style used to color a value at level l.
func LevelStyle(l Level) lipgloss.Style {
	switch l {
	case LevelCritical:
		return lipgloss.NewStyle().Foreground(criticalColor).Bold(true)
	case LevelWarning:
		return lipgloss.NewStyle().Foreground(warningColor)
	default:
		return lipgloss.NewStyle().Foreground(okColor)
	}
}

// Render writes a human-readable report of s to w.
func Render(w io.Writer, s *Snapshot) error {
	var b strings.Builder

	title := "SYSTEM HEALTH  " + s.Time.Format("2006-01-02 15:04:05")
	if s.Host != nil && s.Host.Hostname != "" {
		title += "  " + s.Host.Hostname
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	if s.Host != nil {
		row(&b, "Platform", strings.TrimSpace(s.Host.Platform+" "+s.Host.PlatformVersion))
		row(&b, "Uptime", formatUptime(s.Host.Uptime))
	}

	if s.CPU != nil {
		heading(&b, "CPU")
		row(&b, "Usage", percent(s.CPU.Percent, DefaultThresholds))
		row(&b, "Cores", fmt.Sprintf("%d physical, %d logical", s.CPU.Physical, s.CPU.Logical))
		if s.CPU.MHz > 0 {
			row(&b, "Frequency", fmt.Sprintf("%.0f MHz", s.CPU.MHz))
		}
	}

	if s.Memory != nil {
		heading(&b, "Memory")
		row(&b, "Total", humanize.IBytes(s.Memory.Total))
		row(&b, "Available", humanize.IBytes(s.Memory.Available))
		row(&b, "Used", humanize.IBytes(s.Memory.Used)+" "+percent(s.Memory.Percent, DefaultThresholds))
	}
	if s.Swap != nil && s.Swap.Total > 0 {
		row(&b, "Swap", humanize.IBytes(s.Swap.Used)+" of "+humanize.IBytes(s.Swap.Total)+" "+
			percent(s.Swap.Percent, SwapThresholds))
	}

	if len(s.Disks) > 0 {
		heading(&b, "Disks")
		for _, d := range s.Disks {
			fmt.Fprintf(&b, "  %s %s\n", d.Mountpoint, mutedStyle.Render("("+d.Device+", "+d.Fstype+")"))
			fmt.Fprintf(&b, "    %s used of %s, %s free %s\n",
				humanize.IBytes(d.Used), humanize.IBytes(d.Total), humanize.IBytes(d.Free),
				percent(d.Percent, DefaultThresholds))
		}
	}

	if s.Network != nil {
		heading(&b, "Network")
		row(&b, "Sent", fmt.Sprintf("%s (%s packets)", humanize.IBytes(s.Network.BytesSent), humanize.Comma(int64(s.Network.PacketsSent))))
		row(&b, "Received", fmt.Sprintf("%s (%s packets)", humanize.IBytes(s.Network.BytesRecv), humanize.Comma(int64(s.Network.PacketsRecv))))
	}

	if s.Battery != nil {
		heading(&b, "Battery")
		row(&b, "Charge", fmt.Sprintf("%.0f%%", s.Battery.Percent))
		plugged := "no"
		if s.Battery.Plugged {
			plugged = "yes"
		}
		row(&b, "Plugged in", plugged)
		if s.Battery.Remaining > 0 {
			row(&b, "Remaining", formatUptime(s.Battery.Remaining))
		}
	}

	if len(s.TopCPU) > 0 {
		heading(&b, fmt.Sprintf("Top %d processes by CPU", len(s.TopCPU)))
		for i, p := range s.TopCPU {
			fmt.Fprintf(&b, "  %d. %-30s %6.1f%%\n", i+1, truncate(p.Name, 30), p.CPUPercent)
		}
	}
	if len(s.TopMemory) > 0 {
		heading(&b, fmt.Sprintf("Top %d processes by memory", len(s.TopMemory)))
		for i, p := range s.TopMemory {
			fmt.Fprintf(&b, "  %d. %-30s %6.1f%%  %s\n", i+1, truncate(p.Name, 30), p.MemPercent, humanize.IBytes(p.RSS))
		}
	}

	if alerts := s.Alerts(); len(alerts) > 0 {
		heading(&b, "Alerts")
		for _, a := range alerts {
			line := fmt.Sprintf("  %s: high %s usage (%.1f%%)", strings.ToUpper(a.Level.String()), a.Subject, a.Percent)
			b.WriteString(LevelStyle(a.Level).Render(line))
			b.WriteString("\n")
		}
	}

	if len(s.Errors) > 0 {
		heading(&b, "Unavailable")
		for _, e := range s.Errors {
			b.WriteString(mutedStyle.Render("  " + e))
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func heading(b *strings.Builder, title string) {
	b.WriteString(sectionStyle.Render(strings.ToUpper(title)))
	b.WriteString("\n")
}

func row(b *strings.Builder, label, value string) {
	b.WriteString("  ")
	b.WriteString(labelStyle.Render(label))
	b.WriteString(value)
	b.WriteString("\n")
}

func percent(pct float64, t Thresholds) string {
	return LevelStyle(t.Level(pct)).Render(fmt.Sprintf("%.1f%%", pct))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Minute)
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
