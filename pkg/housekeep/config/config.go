package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jamesainslie/housekeep/pkg/housekeep/logging"
	"github.com/jamesainslie/housekeep/pkg/housekeep/types"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// CleanConfig holds disk cleaner thresholds.
type CleanConfig struct {
	MinSize string `mapstructure:"min_size"`
	OldDays int    `mapstructure:"old_days"`
	Limit   int    `mapstructure:"limit"`
}

// BackupConfig holds backup defaults.
type BackupConfig struct {
	Source      string   `mapstructure:"source"`
	Format      string   `mapstructure:"format"`
	Destination string   `mapstructure:"destination"`
	Exclude     []string `mapstructure:"exclude"`
}

// MonitorConfig holds monitor defaults.
type MonitorConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Top      int           `mapstructure:"top"`
}

// OrganizeConfig holds organizer defaults.
type OrganizeConfig struct {
	DefaultPath string `mapstructure:"default_path"`
}

// JournalConfig controls the optional audit journal of destructive operations.
type JournalConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Config represents the application configuration.
type Config struct {
	Clean    CleanConfig    `mapstructure:"clean"`
	Backup   BackupConfig   `mapstructure:"backup"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Organize OrganizeConfig `mapstructure:"organize"`
	Journal  JournalConfig  `mapstructure:"journal"`
	Logging  LoggingConfig  `mapstructure:"logging"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// FlagBinding ties a config key to a command-line flag. A flag the user
// set wins over the environment, the file and the defaults.
type FlagBinding struct {
	Key  string
	Flag *pflag.Flag
}

// Load reads configuration. When file is empty the default locations are
// searched and a missing file is not an error:
//   - $XDG_CONFIG_HOME/housekeep/config.yaml
//   - $HOME/.config/housekeep/config.yaml
//
// An explicitly named file must exist. Environment variables use the
// HOUSEKEEP_ prefix with dots replaced by underscores.
func Load(file string, flags ...FlagBinding) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, "housekeep"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "housekeep"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	for _, b := range flags {
		if b.Flag == nil {
			continue
		}
		if err := v.BindPFlag(b.Key, b.Flag); err != nil {
			return nil, fmt.Errorf("binding flag %s: %w", b.Flag.Name, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHooks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the built-in configuration, ignoring files and the
// environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg, decodeHooks)
	return &cfg
}

var durationType = reflect.TypeOf(time.Duration(0))

// decodeHooks replaces viper's default string-to-duration hook with one that
// reads a bare number as seconds, in files and the environment alike.
var decodeHooks = viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
	secondsToDuration,
	mapstructure.StringToSliceHookFunc(","),
))

func secondsToDuration(from, to reflect.Type, data any) (any, error) {
	if to != durationType || from == durationType {
		return data, nil
	}
	switch from.Kind() {
	case reflect.String:
		return types.ParseInterval(data.(string))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return time.Duration(reflect.ValueOf(data).Convert(reflect.TypeOf(int64(0))).Int()) * time.Second, nil
	case reflect.Float32, reflect.Float64:
		return time.Duration(reflect.ValueOf(data).Float() * float64(time.Second)), nil
	}
	return data, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("clean.min_size", DefaultMinSize)
	v.SetDefault("clean.old_days", DefaultOldDays)
	v.SetDefault("clean.limit", DefaultLimit)

	v.SetDefault("backup.source", DefaultBackupSource)
	v.SetDefault("backup.format", DefaultBackupFormat)
	v.SetDefault("backup.destination", DefaultBackupDestination)
	v.SetDefault("backup.exclude", DefaultBackupExcludes)

	v.SetDefault("monitor.interval", DefaultMonitorInterval)
	v.SetDefault("monitor.top", DefaultMonitorTop)

	v.SetDefault("organize.default_path", DefaultOrganizePath)

	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.path", "")
	v.SetDefault("journal.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", DefaultComponentLevels)
}

// Validate rejects thresholds that would make a command misbehave.
func (c *Config) Validate() error {
	if _, err := types.ParseSizeMB(c.Clean.MinSize); err != nil {
		return fmt.Errorf("clean.min_size: %w", err)
	}
	if c.Clean.OldDays < 0 {
		return fmt.Errorf("clean.old_days: %w", types.ErrNegativeValue)
	}
	if c.Clean.Limit < 0 {
		return fmt.Errorf("clean.limit: %w", types.ErrNegativeValue)
	}
	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be positive, got %s", c.Monitor.Interval)
	}
	if c.Monitor.Top < 0 {
		return fmt.Errorf("monitor.top: %w", types.ErrNegativeValue)
	}
	if c.Journal.RetentionDays < 0 {
		return fmt.Errorf("journal.retention_days: %w", types.ErrNegativeValue)
	}
	return nil
}

// LoggingOptions converts the logging section into logging.Config.
// The console level is left to the caller since it comes from flags.
func (c *Config) LoggingOptions() (logging.Config, error) {
	rotation := logging.DefaultRotationConfig()
	if c.Logging.Rotation.MaxSize != "" {
		size, err := types.ParseSize(c.Logging.Rotation.MaxSize)
		if err != nil {
			return logging.Config{}, fmt.Errorf("logging.rotation.max_size: %w", err)
		}
		rotation.MaxSize = size
	}
	rotation.MaxAge = c.Logging.Rotation.MaxAge
	rotation.MaxBackups = c.Logging.Rotation.MaxBackups
	rotation.Daily = c.Logging.Rotation.Daily

	path, err := ExpandPath(c.Logging.Path)
	if err != nil {
		return logging.Config{}, err
	}

	return logging.Config{
		Level:      c.Logging.Level,
		Path:       path,
		Rotation:   rotation,
		Components: c.Logging.Components,
	}, nil
}

// JournalDir returns the directory journal entries are written to.
func (c *Config) JournalDir() (string, error) {
	if c.Journal.Path == "" {
		return filepath.Join(StateDir(), "journal"), nil
	}
	return ExpandPath(c.Journal.Path)
}

// ConfigDir returns the directory holding config.yaml.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "housekeep"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "housekeep"), nil
}

// FilePath returns the default config file path.
func FilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// WriteDefault writes a commented default config file and returns its path.
// An existing file is left untouched and created is false.
func WriteDefault() (path string, created bool, err error) {
	path, err = FilePath()
	if err != nil {
		return "", false, err
	}

	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(`# housekeep configuration

clean:
  # Large-file threshold; a bare number is megabytes (e.g. 100, 500M, 1.5G)
  min_size: "%s"
  # Files not accessed for this many days are reported as old
  old_days: %d
  # Rows shown per list (0 shows all)
  limit: %d

backup:
  # Archived when no source is given
  source: %s
  # zip or tar.gz
  format: %s
  destination: %s
  # Path segments matching any pattern are skipped (substring or glob)
  exclude:
    - "__pycache__"
    - "*.pyc"
    - "*.tmp"
    - "*~"

monitor:
  interval: %s
  top: %d

organize:
  default_path: %s

# Audit trail of moves, deletions and archives (off by default)
journal:
  enabled: false
  # Empty means $XDG_STATE_HOME/housekeep/journal
  path: ""
  retention_days: %d

logging:
  # debug, info, warn, error
  level: info
  # Empty means $XDG_STATE_HOME/housekeep/housekeep.log
  path: ""
  rotation:
    max_size: 10MB
    max_age: 30
    max_backups: 5
    daily: true
  components:
    walker: warn
`, DefaultMinSize, DefaultOldDays, DefaultLimit, DefaultBackupSource, DefaultBackupFormat, DefaultBackupDestination,
		DefaultMonitorInterval, DefaultMonitorTop, DefaultOrganizePath, DefaultRetentionDays)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write default config: %w", err)
	}

	return path, true, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// StateDir returns $XDG_STATE_HOME/housekeep.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "housekeep")
}
