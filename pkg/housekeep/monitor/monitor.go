// Package monitor samples CPU, memory, swap, disk, network, battery and
// process usage into an immutable Snapshot and renders it for the terminal.
//
// A Sampler reads the system through a Source. SystemSource is backed by
// gopsutil and distatus/battery; tests substitute their own. A failing
// section is logged, noted in Snapshot.Errors and left empty; it never
// fails the whole sample.
package monitor

import (
	"time"
)

// Level grades a usage percentage for display.
type Level int

// Usage levels from healthy to critical.
const (
	LevelOK Level = iota
	LevelWarning
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelCritical:
		return "critical"
	default:
		return "ok"
	}
}

// Thresholds are the percentages at which usage becomes a warning or
// critical. Both bounds are inclusive.
type Thresholds struct {
	Warning  float64 `json:"warning" yaml:"warning"`
	Critical float64 `json:"critical" yaml:"critical"`
}

// Level grades pct against t.
func (t Thresholds) Level(pct float64) Level {
	switch {
	case pct >= t.Critical:
		return LevelCritical
	case pct >= t.Warning:
		return LevelWarning
	default:
		return LevelOK
	}
}

// Default thresholds for CPU, memory and disk, and the lower swap bound.
var (
	DefaultThresholds = Thresholds{Warning: 80, Critical: 95}
	SwapThresholds    = Thresholds{Warning: 50, Critical: 90}
)

// HostInfo identifies the machine.
type HostInfo struct {
	Hostname        string        `json:"hostname" yaml:"hostname"`
	OS              string        `json:"os" yaml:"os"`
	Platform        string        `json:"platform" yaml:"platform"`
	PlatformVersion string        `json:"platform_version" yaml:"platform_version"`
	KernelVersion   string        `json:"kernel_version" yaml:"kernel_version"`
	Uptime          time.Duration `json:"uptime" yaml:"uptime"`
}

// CPUStats is processor usage over the sampling window.
type CPUStats struct {
	Percent  float64 `json:"percent" yaml:"percent"`
	Physical int     `json:"physical_cores" yaml:"physical_cores"`
	Logical  int     `json:"logical_cores" yaml:"logical_cores"`
	MHz      float64 `json:"mhz" yaml:"mhz"`
	Model    string  `json:"model,omitempty" yaml:"model,omitempty"`
}

// MemoryStats is physical memory usage.
type MemoryStats struct {
	Total     uint64  `json:"total" yaml:"total"`
	Available uint64  `json:"available" yaml:"available"`
	Used      uint64  `json:"used" yaml:"used"`
	Percent   float64 `json:"percent" yaml:"percent"`
}

// SwapStats is swap usage.
type SwapStats struct {
	Total   uint64  `json:"total" yaml:"total"`
	Used    uint64  `json:"used" yaml:"used"`
	Free    uint64  `json:"free" yaml:"free"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// DiskStats is the usage of one mounted partition.
type DiskStats struct {
	Device     string  `json:"device" yaml:"device"`
	Mountpoint string  `json:"mountpoint" yaml:"mountpoint"`
	Fstype     string  `json:"fstype" yaml:"fstype"`
	Total      uint64  `json:"total" yaml:"total"`
	Used       uint64  `json:"used" yaml:"used"`
	Free       uint64  `json:"free" yaml:"free"`
	Percent    float64 `json:"percent" yaml:"percent"`
}

// NetworkStats are cumulative counters summed over all interfaces.
type NetworkStats struct {
	BytesSent   uint64 `json:"bytes_sent" yaml:"bytes_sent"`
	BytesRecv   uint64 `json:"bytes_recv" yaml:"bytes_recv"`
	PacketsSent uint64 `json:"packets_sent" yaml:"packets_sent"`
	PacketsRecv uint64 `json:"packets_recv" yaml:"packets_recv"`
}

// BatteryStats is the charge of the first battery found.
type BatteryStats struct {
	Percent float64 `json:"percent" yaml:"percent"`
	Plugged bool    `json:"plugged" yaml:"plugged"`
	State   string  `json:"state" yaml:"state"`

	// Remaining is the estimated time left on battery. Zero when plugged
	// in or when the discharge rate is unknown.
	Remaining time.Duration `json:"remaining,omitempty" yaml:"remaining,omitempty"`
}

// ProcessStats is one process in a top-N list.
type ProcessStats struct {
	PID        int32   `json:"pid" yaml:"pid"`
	Name       string  `json:"name" yaml:"name"`
	CPUPercent float64 `json:"cpu_percent" yaml:"cpu_percent"`
	MemPercent float64 `json:"mem_percent" yaml:"mem_percent"`
	RSS        uint64  `json:"rss" yaml:"rss"`
}

// Snapshot is a point-in-time view of the system. Nil sections were
// unavailable; Errors says why.
type Snapshot struct {
	Time      time.Time      `json:"time" yaml:"time"`
	Host      *HostInfo      `json:"host,omitempty" yaml:"host,omitempty"`
	CPU       *CPUStats      `json:"cpu,omitempty" yaml:"cpu,omitempty"`
	Memory    *MemoryStats   `json:"memory,omitempty" yaml:"memory,omitempty"`
	Swap      *SwapStats     `json:"swap,omitempty" yaml:"swap,omitempty"`
	Disks     []DiskStats    `json:"disks,omitempty" yaml:"disks,omitempty"`
	Network   *NetworkStats  `json:"network,omitempty" yaml:"network,omitempty"`
	Battery   *BatteryStats  `json:"battery,omitempty" yaml:"battery,omitempty"`
	TopCPU    []ProcessStats `json:"top_cpu,omitempty" yaml:"top_cpu,omitempty"`
	TopMemory []ProcessStats `json:"top_memory,omitempty" yaml:"top_memory,omitempty"`
	Errors    []string       `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Alert is a metric at or above its warning threshold.
type Alert struct {
	Subject string  `json:"subject" yaml:"subject"`
	Percent float64 `json:"percent" yaml:"percent"`
	Level   Level   `json:"level" yaml:"level"`
}

// Alerts lists every metric in s at warning level or above, in display
// order: CPU, memory, swap, then disks.
func (s *Snapshot) Alerts() []Alert {
	var alerts []Alert
	add := func(subject string, pct float64, t Thresholds) {
		if lvl := t.Level(pct); lvl != LevelOK {
			alerts = append(alerts, Alert{Subject: subject, Percent: pct, Level: lvl})
		}
	}

	if s.CPU != nil {
		add("cpu", s.CPU.Percent, DefaultThresholds)
	}
	if s.Memory != nil {
		add("memory", s.Memory.Percent, DefaultThresholds)
	}
	if s.Swap != nil && s.Swap.Total > 0 {
		add("swap", s.Swap.Percent, SwapThresholds)
	}
	for _, d := range s.Disks {
		add("disk "+d.Mountpoint, d.Percent, DefaultThresholds)
	}
	return alerts
}

// MarshalText lets levels appear by name in JSON and YAML.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}
