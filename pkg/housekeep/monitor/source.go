package monitor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/distatus/battery"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
)

// ProcessSample is one process as seen at a single instant. CPUTime is the
// cumulative user plus system time in seconds.
type ProcessSample struct {
	PID     int32
	Name    string
	CPUTime float64
	RSS     uint64
}

// Source reads raw system metrics. Battery returns nil and no error when
// the machine has no battery.
type Source interface {
	Host(ctx context.Context) (*HostInfo, error)
	CPU(ctx context.Context, window time.Duration) (*CPUStats, error)
	Memory(ctx context.Context) (*MemoryStats, error)
	Swap(ctx context.Context) (*SwapStats, error)
	Disks(ctx context.Context) ([]DiskStats, error)
	Network(ctx context.Context) (*NetworkStats, error)
	Battery(ctx context.Context) (*BatteryStats, error)
	Processes(ctx context.Context) ([]ProcessSample, error)
}

// SystemSource reads the local machine.
type SystemSource struct{}

var _ Source = SystemSource{}

func (SystemSource) Host(ctx context.Context) (*HostInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return &HostInfo{
		Hostname:        info.Hostname,
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
		Uptime:          time.Duration(info.Uptime) * time.Second,
	}, nil
}

// CPU blocks for window while usage is measured.
func (SystemSource) CPU(ctx context.Context, window time.Duration) (*CPUStats, error) {
	pct, err := cpu.PercentWithContext(ctx, window, false)
	if err != nil {
		return nil, err
	}
	if len(pct) == 0 {
		return nil, errors.New("no cpu usage reported")
	}

	stats := &CPUStats{Percent: pct[0]}
	if n, err := cpu.CountsWithContext(ctx, false); err == nil {
		stats.Physical = n
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		stats.Logical = n
	}
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		stats.MHz = infos[0].Mhz
		stats.Model = infos[0].ModelName
	}
	return stats, nil
}

func (SystemSource) Memory(ctx context.Context) (*MemoryStats, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return &MemoryStats{
		Total:     vm.Total,
		Available: vm.Available,
		Used:      vm.Used,
		Percent:   vm.UsedPercent,
	}, nil
}

func (SystemSource) Swap(ctx context.Context) (*SwapStats, error) {
	sw, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return &SwapStats{
		Total:   sw.Total,
		Used:    sw.Used,
		Free:    sw.Free,
		Percent: sw.UsedPercent,
	}, nil
}

// Disks reports physical partitions. Mountpoints that cannot be read are
// left out.
func (SystemSource) Disks(ctx context.Context) ([]DiskStats, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(parts))
	var out []DiskStats
	for _, p := range parts {
		if seen[p.Mountpoint] {
			continue
		}
		seen[p.Mountpoint] = true

		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			logger.Debug("skipping partition", "mountpoint", p.Mountpoint, "err", err)
			continue
		}
		if usage.Total == 0 {
			continue
		}
		out = append(out, DiskStats{
			Device:     p.Device,
			Mountpoint: p.Mountpoint,
			Fstype:     p.Fstype,
			Total:      usage.Total,
			Used:       usage.Used,
			Free:       usage.Free,
			Percent:    usage.UsedPercent,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Mountpoint < out[j].Mountpoint })
	return out, nil
}

func (SystemSource) Network(ctx context.Context) (*NetworkStats, error) {
	counters, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return nil, err
	}
	if len(counters) == 0 {
		return nil, errors.New("no network counters reported")
	}
	c := counters[0]
	return &NetworkStats{
		BytesSent:   c.BytesSent,
		BytesRecv:   c.BytesRecv,
		PacketsSent: c.PacketsSent,
		PacketsRecv: c.PacketsRecv,
	}, nil
}

func (SystemSource) Battery(_ context.Context) (*BatteryStats, error) {
	bats, err := battery.GetAll()
	if len(bats) == 0 {
		if err != nil {
			logger.Debug("no battery information", "err", err)
		}
		return nil, nil
	}

	for _, b := range bats {
		if b == nil || b.Full <= 0 {
			continue
		}
		stats := &BatteryStats{
			Percent: b.Current / b.Full * 100,
			Plugged: b.State.Raw != battery.Discharging,
			State:   b.State.String(),
		}
		if !stats.Plugged && b.ChargeRate > 0 {
			hours := b.Current / b.ChargeRate
			stats.Remaining = time.Duration(hours * float64(time.Hour)).Round(time.Minute)
		}
		return stats, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading battery: %w", err)
	}
	return nil, nil
}

// Processes skips processes that exit or deny access while being read.
func (SystemSource) Processes(ctx context.Context) ([]ProcessSample, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ProcessSample, 0, len(procs))
	for _, p := range procs {
		times, err := p.TimesWithContext(ctx)
		if err != nil {
			continue
		}
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		sample := ProcessSample{
			PID:     p.Pid,
			Name:    name,
			CPUTime: times.User + times.System,
		}
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil {
			sample.RSS = mi.RSS
		}
		out = append(out, sample)
	}
	return out, nil
}
