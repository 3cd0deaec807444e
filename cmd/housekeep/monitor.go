package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/housekeep/cmd/housekeep/tui"
	"github.com/jamesainslie/housekeep/pkg/housekeep/config"
	"github.com/jamesainslie/housekeep/pkg/housekeep/monitor"
	"github.com/jamesainslie/housekeep/pkg/housekeep/output"
	"github.com/jamesainslie/housekeep/pkg/housekeep/types"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Show system health",
	Long: `Report CPU, memory, swap, disk, network and battery usage along with the
busiest processes. Usage of 80% or more is a warning and 95% is critical
(swap: 50% and 90%).

With --continuous the report refreshes every --interval. On a terminal this
opens a live dashboard; press q to quit. Otherwise, or with
--no-interactive, a new report is printed on each refresh until Ctrl+C.

Examples:
  housekeep monitor
  housekeep monitor -c -i 2s
  housekeep monitor -c -i 10
  housekeep monitor -o json`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().BoolP("continuous", "c", false, "keep refreshing until interrupted")
	interval := intervalValue(config.DefaultMonitorInterval)
	monitorCmd.Flags().VarP(&interval, "interval", "i", "refresh interval for --continuous (e.g. 5, 5s, 1m; bare numbers are seconds)")
	monitorCmd.Flags().Int("top", config.DefaultMonitorTop, "processes listed per ranking")
	monitorCmd.Flags().Bool("no-interactive", false, "print reports instead of the live dashboard")

	bindFlag(monitorCmd, "monitor.interval", "interval")
	bindFlag(monitorCmd, "monitor.top", "top")

	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	continuous, _ := cmd.Flags().GetBool("continuous")
	noInteractive, _ := cmd.Flags().GetBool("no-interactive")

	sampler := monitor.NewSampler(cfg.Monitor.Top)
	ctx := cmd.Context()

	if !continuous {
		snap, err := sampler.Sample(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		return writeSnapshot(cmd.OutOrStdout(), snap)
	}

	if !noInteractive && !structured() && isTerminal(os.Stdout) {
		if err := silenceConsoleLogs(); err != nil {
			return err
		}
		return tui.Run(ctx, tui.Options{Sampler: sampler, Interval: cfg.Monitor.Interval})
	}

	printInfo(cmd, "Refreshing every %s, press Ctrl+C to stop.", cfg.Monitor.Interval)
	return monitor.Run(ctx, sampler, cfg.Monitor.Interval, func(snap *monitor.Snapshot) error {
		if err := writeSnapshot(cmd.OutOrStdout(), snap); err != nil {
			return err
		}
		if outputFormat == "pretty" {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return nil
	})
}

// intervalValue is a duration flag that also takes a bare number of seconds.
type intervalValue time.Duration

func (d *intervalValue) Set(s string) error {
	v, err := types.ParseInterval(s)
	if err != nil {
		return err
	}
	*d = intervalValue(v)
	return nil
}

func (d *intervalValue) String() string { return time.Duration(*d).String() }

func (d *intervalValue) Type() string { return "duration" }

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// writeSnapshot prints a snapshot in the selected output format. The pretty
// format uses the monitor's own colored layout.
func writeSnapshot(w io.Writer, snap *monitor.Snapshot) error {
	if outputFormat == "pretty" {
		return monitor.Render(w, snap)
	}
	return output.Write(w, outputFormat, snapshotReport(snap))
}

func snapshotReport(snap *monitor.Snapshot) *output.Report {
	r := &output.Report{Title: "System health", Data: snap}
	r.AddField("Time", types.FormatTime(snap.Time))
	if h := snap.Host; h != nil {
		r.AddField("Host", h.Hostname)
		r.AddField("OS", strings.TrimSpace(h.Platform+" "+h.PlatformVersion))
		r.AddField("Uptime", h.Uptime.Round(time.Minute).String())
	}

	usage := r.AddSection("Usage", "RESOURCE", "USED", "TOTAL", "PERCENT", "LEVEL")
	if c := snap.CPU; c != nil {
		usage.AddRow("cpu", "-", fmt.Sprintf("%d cores", c.Logical), pct(c.Percent), monitor.DefaultThresholds.Level(c.Percent).String())
	}
	if m := snap.Memory; m != nil {
		usage.AddRow("memory", ibytes(m.Used), ibytes(m.Total), pct(m.Percent), monitor.DefaultThresholds.Level(m.Percent).String())
	}
	if s := snap.Swap; s != nil && s.Total > 0 {
		usage.AddRow("swap", ibytes(s.Used), ibytes(s.Total), pct(s.Percent), monitor.SwapThresholds.Level(s.Percent).String())
	}
	for _, d := range snap.Disks {
		usage.AddRow("disk "+d.Mountpoint, ibytes(d.Used), ibytes(d.Total), pct(d.Percent), monitor.DefaultThresholds.Level(d.Percent).String())
	}

	if n := snap.Network; n != nil {
		r.AddField("Network", fmt.Sprintf("sent %s, received %s", ibytes(n.BytesSent), ibytes(n.BytesRecv)))
	}
	if b := snap.Battery; b != nil {
		r.AddField("Battery", fmt.Sprintf("%.0f%% (%s)", b.Percent, b.State))
	}

	if len(snap.TopCPU) > 0 {
		s := r.AddSection("Top processes by CPU", "PID", "NAME", "CPU", "MEM")
		for _, p := range snap.TopCPU {
			s.AddRow(strconv.Itoa(int(p.PID)), p.Name, pct(p.CPUPercent), pct(p.MemPercent))
		}
	}
	if len(snap.TopMemory) > 0 {
		s := r.AddSection("Top processes by memory", "PID", "NAME", "RSS", "MEM")
		for _, p := range snap.TopMemory {
			s.AddRow(strconv.Itoa(int(p.PID)), p.Name, ibytes(p.RSS), pct(p.MemPercent))
		}
	}

	for _, a := range snap.Alerts() {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s: high %s usage (%.1f%%)", strings.ToUpper(a.Level.String()), a.Subject, a.Percent))
	}
	for _, e := range snap.Errors {
		r.Warnings = append(r.Warnings, "unavailable: "+e)
	}
	return r
}

func pct(f float64) string {
	return fmt.Sprintf("%.1f%%", f)
}

func ibytes(n uint64) string {
	return types.FormatSize(int64(n))
}
