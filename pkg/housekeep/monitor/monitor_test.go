package monitor

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	procCalls int
	procs     [][]ProcessSample
	cpuErr    error
	diskErr   error
	battery   *BatteryStats
}

func (f *fakeSource) Host(context.Context) (*HostInfo, error) {
	return &HostInfo{Hostname: "box", Uptime: 90 * time.Minute}, nil
}

func (f *fakeSource) CPU(ctx context.Context, _ time.Duration) (*CPUStats, error) {
	if f.cpuErr != nil {
		return nil, f.cpuErr
	}
	return &CPUStats{Percent: 85, Physical: 4, Logical: 8}, ctx.Err()
}

func (f *fakeSource) Memory(context.Context) (*MemoryStats, error) {
	return &MemoryStats{Total: 1000, Available: 400, Used: 600, Percent: 60}, nil
}

func (f *fakeSource) Swap(context.Context) (*SwapStats, error) {
	return &SwapStats{Total: 100, Used: 55, Free: 45, Percent: 55}, nil
}

func (f *fakeSource) Disks(context.Context) ([]DiskStats, error) {
	if f.diskErr != nil {
		return nil, f.diskErr
	}
	return []DiskStats{{Mountpoint: "/", Total: 100, Used: 97, Free: 3, Percent: 97}}, nil
}

func (f *fakeSource) Network(context.Context) (*NetworkStats, error) {
	return &NetworkStats{BytesSent: 10, BytesRecv: 20}, nil
}

func (f *fakeSource) Battery(context.Context) (*BatteryStats, error) {
	return f.battery, nil
}

func (f *fakeSource) Processes(context.Context) ([]ProcessSample, error) {
	i := min(f.procCalls, len(f.procs)-1)
	f.procCalls++
	return f.procs[i], nil
}

// tick returns a clock that advances one second per call.
func tick() func() time.Time {
	t := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newFake() *fakeSource {
	return &fakeSource{
		procs: [][]ProcessSample{
			{
				{PID: 1, Name: "init", CPUTime: 10, RSS: 10},
				{PID: 2, Name: "busy", CPUTime: 5, RSS: 50},
				{PID: 3, Name: "idle", CPUTime: 1, RSS: 300},
				{PID: 4, Name: "old", CPUTime: 100, RSS: 5},
			},
			{
				{PID: 1, Name: "init", CPUTime: 10.1, RSS: 10},
				{PID: 2, Name: "busy", CPUTime: 5.9, RSS: 50},
				{PID: 3, Name: "idle", CPUTime: 1, RSS: 300},
				{PID: 4, Name: "reused", CPUTime: 0.5, RSS: 5},
				{PID: 9, Name: "new", CPUTime: 3, RSS: 1},
			},
		},
	}
}

func TestThresholds_Level(t *testing.T) {
	tests := []struct {
		pct  float64
		want Level
	}{
		{0, LevelOK},
		{79.9, LevelOK},
		{80, LevelWarning},
		{94.9, LevelWarning},
		{95, LevelCritical},
		{100, LevelCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultThresholds.Level(tt.pct), "pct %v", tt.pct)
	}

	assert.Equal(t, LevelWarning, SwapThresholds.Level(50))
	assert.Equal(t, LevelOK, SwapThresholds.Level(49))
}

func TestSample_TopProcesses(t *testing.T) {
	s := &Sampler{Source: newFake(), Top: 2, now: tick()}

	snap, err := s.Sample(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.TopCPU, 2)
	assert.Equal(t, "busy", snap.TopCPU[0].Name)
	assert.InDelta(t, 90.0, snap.TopCPU[0].CPUPercent, 0.01)
	assert.Equal(t, "init", snap.TopCPU[1].Name)
	assert.InDelta(t, 10.0, snap.TopCPU[1].CPUPercent, 0.01)

	require.Len(t, snap.TopMemory, 2)
	assert.Equal(t, "idle", snap.TopMemory[0].Name)
	assert.InDelta(t, 30.0, snap.TopMemory[0].MemPercent, 0.01)
	assert.Equal(t, "busy", snap.TopMemory[1].Name)
}

func TestSample_ReusedPIDHasNoCPU(t *testing.T) {
	procs := processUsage(newFake().procs[0], newFake().procs[1], time.Second, 0)

	for _, p := range procs {
		if p.PID == 4 || p.PID == 9 {
			assert.Zero(t, p.CPUPercent, p.Name)
		}
		assert.Zero(t, p.MemPercent)
	}
}

func TestSample_SectionFailureIsNotFatal(t *testing.T) {
	src := newFake()
	src.diskErr = errors.New("permission denied")

	snap, err := (&Sampler{Source: src, now: tick()}).Sample(context.Background())
	require.NoError(t, err)

	assert.Nil(t, snap.Disks)
	assert.NotNil(t, snap.CPU)
	assert.NotNil(t, snap.Memory)
	require.Len(t, snap.Errors, 1)
	assert.Contains(t, snap.Errors[0], "disk")
}

func TestSample_NoBatteryIsNotAnError(t *testing.T) {
	snap, err := (&Sampler{Source: newFake(), now: tick()}).Sample(context.Background())
	require.NoError(t, err)

	assert.Nil(t, snap.Battery)
	assert.Empty(t, snap.Errors)
}

func TestSample_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&Sampler{Source: newFake(), now: tick()}).Sample(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSnapshot_Alerts(t *testing.T) {
	snap, err := (&Sampler{Source: newFake(), now: tick()}).Sample(context.Background())
	require.NoError(t, err)

	alerts := snap.Alerts()
	require.Len(t, alerts, 3)
	assert.Equal(t, Alert{Subject: "cpu", Percent: 85, Level: LevelWarning}, alerts[0])
	assert.Equal(t, "swap", alerts[1].Subject)
	assert.Equal(t, Alert{Subject: "disk /", Percent: 97, Level: LevelCritical}, alerts[2])
}

func TestRender(t *testing.T) {
	src := newFake()
	src.battery = &BatteryStats{Percent: 42, Plugged: false, Remaining: 2 * time.Hour}
	snap, err := (&Sampler{Source: src, now: tick()}).Sample(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, snap))

	out := buf.String()
	assert.Contains(t, out, "SYSTEM HEALTH")
	assert.Contains(t, out, "box")
	assert.Contains(t, out, "85.0%")
	assert.Contains(t, out, "BATTERY")
	assert.Contains(t, out, "busy")
	assert.Contains(t, out, "high disk / usage")
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	err := Run(ctx, &Sampler{Source: newFake(), now: tick()}, 10*time.Millisecond, func(*Snapshot) error {
		if calls.Add(1) == 3 {
			cancel()
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRun_CallbackError(t *testing.T) {
	boom := errors.New("boom")
	err := Run(context.Background(), &Sampler{Source: newFake(), now: tick()}, time.Millisecond, func(*Snapshot) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRun_InvalidInterval(t *testing.T) {
	err := Run(context.Background(), &Sampler{Source: newFake()}, 0, func(*Snapshot) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidInterval)
}
