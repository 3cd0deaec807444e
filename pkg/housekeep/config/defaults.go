// Package config loads housekeep settings from an optional YAML file under
// the XDG config directory, overridden by HOUSEKEEP_* environment variables.
package config

import "time"

// Default configuration values.
const (
	// DefaultMinSize is the large-file threshold for clean. A bare number is megabytes.
	DefaultMinSize = "100"

	// DefaultOldDays is the access-age threshold in days for clean.
	DefaultOldDays = 90

	// DefaultLimit is the number of rows shown per clean list.
	DefaultLimit = 20

	// DefaultBackupSource is archived when backup is given no source.
	DefaultBackupSource = "~/Documents"

	// DefaultBackupFormat is the archive format for backup.
	DefaultBackupFormat = "zip"

	// DefaultBackupDestination is the folder archives are written to.
	DefaultBackupDestination = "~/Backups"

	// DefaultMonitorInterval is the sampling interval of monitor --continuous.
	DefaultMonitorInterval = 5 * time.Second

	// DefaultMonitorTop is the number of processes listed per ranking.
	DefaultMonitorTop = 5

	// DefaultOrganizePath is the directory organize sorts when none is given.
	DefaultOrganizePath = "~/Downloads"

	// DefaultRetentionDays is how long journal entries are kept.
	DefaultRetentionDays = 30

	// EnvPrefix prefixes environment overrides, e.g. HOUSEKEEP_CLEAN_OLD_DAYS.
	EnvPrefix = "HOUSEKEEP"
)

// DefaultBackupExcludes are skipped by backup unless the config replaces them.
var DefaultBackupExcludes = []string{
	"__pycache__",
	"*.pyc",
	"*.tmp",
	"*~",
}

// DefaultComponentLevels are the per-component log levels written by init.
var DefaultComponentLevels = map[string]string{
	"walker":   "warn",
	"organize": "info",
	"dupes":    "info",
	"monitor":  "info",
	"clean":    "info",
	"backup":   "info",
	"trash":    "info",
	"journal":  "info",
}
