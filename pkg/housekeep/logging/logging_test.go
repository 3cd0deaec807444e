package logging_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/housekeep/pkg/housekeep/logging"
)

// Tests in this file share the package's global state and do not run in parallel.

func TestInit(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     logging.Config
		wantErr bool
	}{
		{
			name: "defaults",
			cfg:  logging.Config{Level: "info", Path: filepath.Join(dir, "a.log")},
		},
		{
			name: "component overrides",
			cfg: logging.Config{
				Level:      "info",
				Path:       filepath.Join(dir, "b.log"),
				Components: map[string]string{"dupes": "debug", "walker": "warn"},
			},
		},
		{
			name: "file disabled",
			cfg:  logging.Config{Level: "debug", Path: "-"},
		},
		{
			name:    "invalid level",
			cfg:     logging.Config{Level: "loud", Path: filepath.Join(dir, "c.log")},
			wantErr: true,
		},
		{
			name:    "invalid console level",
			cfg:     logging.Config{Path: "-", ConsoleLevel: "shout"},
			wantErr: true,
		},
		{
			name: "invalid component level",
			cfg: logging.Config{
				Path:       "-",
				Components: map[string]string{"backup": "nope"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := logging.Init(tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, logging.ErrInvalidLevel)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, logging.Close())
		})
	}
}

func TestGet_BeforeInitDiscards(t *testing.T) {
	require.NoError(t, logging.Close())

	logger := logging.Get("organize")
	require.NotNil(t, logger)
	assert.Equal(t, "organize", logger.Component())
	assert.Same(t, logger, logging.Get("organize"))

	assert.NotPanics(t, func() {
		logger.Info("nobody hears this", "key", "value")
	})
}

func TestGet_PointerSurvivesInit(t *testing.T) {
	logger := logging.Get("backup")

	path := filepath.Join(t.TempDir(), "housekeep.log")
	require.NoError(t, logging.Init(logging.Config{Level: "info", Path: path}))
	t.Cleanup(func() { _ = logging.Close() })

	logger.Info("archive written", "files", 3)
	require.NoError(t, logging.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "archive written")
	assert.Contains(t, string(data), "backup")
}

func TestLevelsFilterFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.log")
	require.NoError(t, logging.Init(logging.Config{Level: "warn", Path: path}))

	logger := logging.Get("clean")
	logger.Debug("debug line")
	logger.Info("info line")
	logger.Warn("warn line")
	logger.Error("error line")
	require.NoError(t, logging.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.NotContains(t, out, "debug line")
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, "warn line")
	assert.Contains(t, out, "error line")
}

func TestComponentLevelOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "components.log")
	require.NoError(t, logging.Init(logging.Config{
		Level:      "error",
		Path:       path,
		Components: map[string]string{"walker": "debug"},
	}))

	logging.Get("walker").Debug("walker detail")
	logging.Get("monitor").Warn("monitor warning")
	require.NoError(t, logging.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "walker detail")
	assert.NotContains(t, string(data), "monitor warning")
}

func TestConsoleOutput(t *testing.T) {
	var console bytes.Buffer
	require.NoError(t, logging.Init(logging.Config{
		Level:        "debug",
		Path:         "-",
		ConsoleLevel: "warn",
		Console:      &console,
	}))
	t.Cleanup(func() { _ = logging.Close() })

	logger := logging.Get("dupes").With("path", "/tmp/x")
	logger.Info("hashing")
	logger.Warn("unreadable file")

	out := console.String()
	assert.NotContains(t, out, "hashing")
	assert.Contains(t, out, "unreadable file")
	assert.Contains(t, out, "/tmp/x")
}

func TestConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concurrent.log")
	require.NoError(t, logging.Init(logging.Config{Level: "info", Path: path}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger := logging.Get("walker")
			for j := 0; j < 50; j++ {
				logger.Info("entry", "worker", id, "n", j)
			}
		}(i)
	}
	wg.Wait()
	require.NoError(t, logging.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 400)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logging.Level
	}{
		{"debug", logging.LevelDebug},
		{"INFO", logging.LevelInfo},
		{"warn", logging.LevelWarn},
		{"warning", logging.LevelWarn},
		{" error ", logging.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := logging.ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NotEqual(t, "unknown", got.String())
		})
	}

	_, err := logging.ParseLevel("verbose")
	assert.ErrorIs(t, err, logging.ErrInvalidLevel)
}

func TestDefaultLogPath(t *testing.T) {
	p := logging.DefaultLogPath()
	assert.True(t, filepath.IsAbs(p))
	assert.Equal(t, "housekeep.log", filepath.Base(p))
	assert.Equal(t, "housekeep", filepath.Base(filepath.Dir(p)))
}
