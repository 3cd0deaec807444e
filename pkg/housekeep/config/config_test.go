package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/housekeep/pkg/housekeep/types"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	return home
}

func TestLoad_Defaults(t *testing.T) {
	isolateHome(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultMinSize, cfg.Clean.MinSize)
	assert.Equal(t, DefaultOldDays, cfg.Clean.OldDays)
	assert.Equal(t, DefaultLimit, cfg.Clean.Limit)
	assert.Equal(t, DefaultBackupFormat, cfg.Backup.Format)
	assert.Equal(t, DefaultBackupExcludes, cfg.Backup.Exclude)
	assert.Equal(t, DefaultMonitorInterval, cfg.Monitor.Interval)
	assert.Equal(t, DefaultMonitorTop, cfg.Monitor.Top)
	assert.False(t, cfg.Journal.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.File)
}

func TestDefault(t *testing.T) {
	t.Setenv("HOUSEKEEP_CLEAN_OLD_DAYS", "7")

	cfg := Default()
	assert.Equal(t, DefaultOldDays, cfg.Clean.OldDays)
	assert.Equal(t, DefaultBackupExcludes, cfg.Backup.Exclude)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromFile(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(home, ".config", "housekeep")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	content := `
clean:
  min_size: 500M
  old_days: 30
backup:
  format: tar.gz
  exclude:
    - .git
monitor:
  interval: 2s
journal:
  enabled: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "500M", cfg.Clean.MinSize)
	assert.Equal(t, 30, cfg.Clean.OldDays)
	assert.Equal(t, DefaultLimit, cfg.Clean.Limit)
	assert.Equal(t, "tar.gz", cfg.Backup.Format)
	assert.Equal(t, []string{".git"}, cfg.Backup.Exclude)
	assert.Equal(t, 2*time.Second, cfg.Monitor.Interval)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.File)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	isolateHome(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	isolateHome(t)
	t.Setenv("HOUSEKEEP_CLEAN_OLD_DAYS", "7")
	t.Setenv("HOUSEKEEP_BACKUP_FORMAT", "tar.gz")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Clean.OldDays)
	assert.Equal(t, "tar.gz", cfg.Backup.Format)
}

func TestLoad_IntervalAsBareSeconds(t *testing.T) {
	isolateHome(t)

	t.Setenv("HOUSEKEEP_MONITOR_INTERVAL", "7")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, cfg.Monitor.Interval)

	t.Setenv("HOUSEKEEP_MONITOR_INTERVAL", "1m")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.Monitor.Interval)

	t.Setenv("HOUSEKEEP_MONITOR_INTERVAL", "")
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("monitor:\n  interval: 3\n"), 0o644))
	cfg, err = Load(file)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Monitor.Interval)

	require.NoError(t, os.WriteFile(file, []byte("monitor:\n  interval: soon\n"), 0o644))
	_, err = Load(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), types.ErrInvalidDuration.Error())
}

func TestLoad_FlagsWin(t *testing.T) {
	isolateHome(t)
	t.Setenv("HOUSEKEEP_CLEAN_OLD_DAYS", "7")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("old-days", 90, "")
	fs.String("format", "zip", "")
	require.NoError(t, fs.Parse([]string{"--old-days", "3"}))

	cfg, err := Load("",
		FlagBinding{Key: "clean.old_days", Flag: fs.Lookup("old-days")},
		FlagBinding{Key: "backup.format", Flag: fs.Lookup("format")},
		FlagBinding{Key: "monitor.top"},
	)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Clean.OldDays)
	assert.Equal(t, DefaultBackupFormat, cfg.Backup.Format)
}

func TestLoad_RejectsNegativeThresholds(t *testing.T) {
	isolateHome(t)

	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("clean:\n  old_days: -1\n"), 0o644))

	_, err := Load(file)
	assert.ErrorIs(t, err, types.ErrNegativeValue)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Clean:   CleanConfig{MinSize: "100", OldDays: 90, Limit: 20},
			Monitor: MonitorConfig{Interval: time.Second, Top: 5},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "negative size", mutate: func(c *Config) { c.Clean.MinSize = "-5" }, wantErr: types.ErrNegativeSize},
		{name: "garbage size", mutate: func(c *Config) { c.Clean.MinSize = "lots" }, wantErr: types.ErrInvalidSize},
		{name: "negative limit", mutate: func(c *Config) { c.Clean.Limit = -1 }, wantErr: types.ErrNegativeValue},
		{name: "negative top", mutate: func(c *Config) { c.Monitor.Top = -1 }, wantErr: types.ErrNegativeValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	cfg := valid()
	cfg.Monitor.Interval = 0
	assert.Error(t, cfg.Validate())
}

func TestLoggingOptions(t *testing.T) {
	home := isolateHome(t)

	cfg := Config{Logging: LoggingConfig{
		Level:    "debug",
		Path:     "~/logs/hk.log",
		Rotation: RotationConfig{MaxSize: "2MB", MaxAge: 3, MaxBackups: 1, Daily: false},
	}}

	opts, err := cfg.LoggingOptions()
	require.NoError(t, err)
	assert.Equal(t, "debug", opts.Level)
	assert.Equal(t, filepath.Join(home, "logs", "hk.log"), opts.Path)
	assert.Equal(t, 2*types.MiB, opts.Rotation.MaxSize)
	assert.Equal(t, 1, opts.Rotation.MaxBackups)

	cfg.Logging.Rotation.MaxSize = "big"
	_, err = cfg.LoggingOptions()
	assert.ErrorIs(t, err, types.ErrInvalidSize)
}

func TestWriteDefault(t *testing.T) {
	home := isolateHome(t)

	path, created, err := WriteDefault()
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, filepath.Join(home, ".config", "housekeep", "config.yaml"), path)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultOldDays, cfg.Clean.OldDays)
	assert.Equal(t, DefaultBackupExcludes, cfg.Backup.Exclude)

	_, created, err = WriteDefault()
	require.NoError(t, err)
	assert.False(t, created)
}

func TestExpandPath(t *testing.T) {
	home := isolateHome(t)

	tests := []struct {
		in, want string
	}{
		{"~", home},
		{"~/Backups", filepath.Join(home, "Backups")},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
		{"~user/x", "~user/x"},
	}
	for _, tt := range tests {
		got, err := ExpandPath(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
