package monitor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jamesainslie/housekeep/pkg/housekeep/logging"
)

// Sampling defaults.
const (
	DefaultWindow = time.Second
	DefaultTop    = 5
)

// ErrInvalidInterval is returned by Run for a non-positive interval.
var ErrInvalidInterval = errors.New("interval must be positive")

var logger = logging.Get("monitor")

// Sampler takes Snapshots. The zero value samples the local machine with
// the default window and top-N.
type Sampler struct {
	// Source defaults to SystemSource.
	Source Source

	// Window is how long CPU usage is measured for.
	Window time.Duration

	// Top is the number of processes in each top list.
	Top int

	now func() time.Time
}

// NewSampler returns a Sampler for the local machine.
func NewSampler(top int) *Sampler {
	return &Sampler{Source: SystemSource{}, Window: DefaultWindow, Top: top}
}

// Sample reads every section once. It blocks for about Window. Only
// cancellation of ctx is returned as an error.
func (s *Sampler) Sample(ctx context.Context) (*Snapshot, error) {
	src := s.Source
	if src == nil {
		src = SystemSource{}
	}
	window := s.Window
	if window <= 0 {
		window = DefaultWindow
	}
	top := s.Top
	if top <= 0 {
		top = DefaultTop
	}

	snap := &Snapshot{Time: s.clock()}

	host, err := src.Host(ctx)
	snap.Host = section(snap, "host", host, err)

	before, beforeErr := src.Processes(ctx)
	start := s.clock()

	cpu, err := src.CPU(ctx, window)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	snap.CPU = section(snap, "cpu", cpu, err)

	after, afterErr := src.Processes(ctx)
	elapsed := s.clock().Sub(start)

	mem, err := src.Memory(ctx)
	snap.Memory = section(snap, "memory", mem, err)

	swap, err := src.Swap(ctx)
	snap.Swap = section(snap, "swap", swap, err)

	disks, err := src.Disks(ctx)
	snap.Disks = section(snap, "disk", disks, err)

	network, err := src.Network(ctx)
	snap.Network = section(snap, "network", network, err)

	bat, err := src.Battery(ctx)
	snap.Battery = section(snap, "battery", bat, err)

	if procErr := errors.Join(beforeErr, afterErr); procErr != nil {
		section[[]ProcessSample](snap, "processes", nil, procErr)
	} else {
		var memTotal uint64
		if snap.Memory != nil {
			memTotal = snap.Memory.Total
		}
		procs := processUsage(before, after, elapsed, memTotal)
		snap.TopCPU = topBy(procs, top, func(a, b ProcessStats) bool { return a.CPUPercent > b.CPUPercent })
		snap.TopMemory = topBy(procs, top, func(a, b ProcessStats) bool { return a.RSS > b.RSS })
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Sampler) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// section keeps v, or records err against name and returns the zero value.
func section[T any](snap *Snapshot, name string, v T, err error) T {
	if err != nil {
		logger.Warn("metric unavailable", "section", name, "err", err)
		snap.Errors = append(snap.Errors, fmt.Sprintf("%s: %v", name, err))
		var zero T
		return zero
	}
	return v
}

// processUsage turns two samples taken elapsed apart into per-process CPU
// percentages. A process only in after, or whose PID was reused, gets 0%.
func processUsage(before, after []ProcessSample, elapsed time.Duration, memTotal uint64) []ProcessStats {
	prev := make(map[int32]ProcessSample, len(before))
	for _, p := range before {
		prev[p.PID] = p
	}

	out := make([]ProcessStats, 0, len(after))
	for _, p := range after {
		stats := ProcessStats{PID: p.PID, Name: p.Name, RSS: p.RSS}
		if old, ok := prev[p.PID]; ok && old.Name == p.Name && elapsed > 0 {
			if delta := p.CPUTime - old.CPUTime; delta > 0 {
				stats.CPUPercent = delta / elapsed.Seconds() * 100
			}
		}
		if memTotal > 0 {
			stats.MemPercent = float64(p.RSS) / float64(memTotal) * 100
		}
		out = append(out, stats)
	}
	return out
}

// topBy returns the first n processes ordered by less, ties by PID.
func topBy(procs []ProcessStats, n int, less func(a, b ProcessStats) bool) []ProcessStats {
	sorted := append([]ProcessStats(nil), procs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if less(sorted[i], sorted[j]) {
			return true
		}
		if less(sorted[j], sorted[i]) {
			return false
		}
		return sorted[i].PID < sorted[j].PID
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Run samples immediately and then every interval, passing each Snapshot
// to fn, until ctx is cancelled. Cancellation is a normal stop and returns
// nil; an error from fn stops the loop and is returned.
func Run(ctx context.Context, s *Sampler, interval time.Duration, fn func(*Snapshot) error) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		snap, err := s.Sample(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := fn(snap); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
