// Package types provides core data types shared by the housekeep utilities.
// It includes the file entry produced by the tree walker, per-entry error
// records, and helpers for parsing and formatting file sizes.
package types

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// FileEntry describes a single regular file found during a walk.
// Entries are rebuilt on every run and never persisted.
type FileEntry struct {
	// Path is the absolute path to the file.
	Path string `json:"path" yaml:"path"`

	// Name is the base name of the file.
	Name string `json:"name" yaml:"name"`

	// Size is the file size in bytes.
	Size int64 `json:"size" yaml:"size"`

	// ModTime is the last modification time.
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`

	// AccessTime is the last access time. It falls back to ModTime on
	// filesystems that do not record access times.
	AccessTime time.Time `json:"access_time" yaml:"access_time"`

	// BirthTime is the creation time where the platform records one.
	BirthTime time.Time `json:"birth_time,omitzero" yaml:"birth_time,omitempty"`

	// Mode is the file's permission and mode bits.
	Mode os.FileMode `json:"mode" yaml:"mode"`
}

// HumanSize returns the size formatted with binary units.
func (f *FileEntry) HumanSize() string {
	return FormatSize(f.Size)
}

// EntryError pairs a path with the error met while processing it.
type EntryError struct {
	// Path is the file or directory where the error occurred.
	Path string `json:"path" yaml:"path"`

	// Error is the error message.
	Error string `json:"error" yaml:"error"`
}

// sizePattern matches size strings like "100M", "2G", "500K", "1.5GB", etc.
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMGT]?(?:i?B)?)\s*$`)

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeSize indicates that a negative size value was provided.
var ErrNegativeSize = errors.New("size cannot be negative")

// ErrNegativeValue indicates that a negative count or duration was provided.
var ErrNegativeValue = errors.New("value cannot be negative")

// ParseSize parses a human-readable size string and returns the size in bytes.
// It supports the following formats:
//   - Plain bytes: "1024", "0"
//   - With byte suffix: "512B", "512b"
//   - Kilobytes: "100K", "100k", "100KB", "100KiB"
//   - Megabytes: "50M", "50m", "50MB", "50MiB"
//   - Gigabytes: "2G", "2g", "2GB", "2GiB"
//   - Terabytes: "1T", "1t", "1TB", "1TiB"
//
// Decimal values are supported and truncated to the nearest byte.
func ParseSize(s string) (int64, error) {
	return parseSize(s, 1)
}

// ParseSizeMB is like ParseSize but treats a bare number as megabytes,
// so "500" and "500M" are the same threshold.
func ParseSizeMB(s string) (int64, error) {
	return parseSize(s, MiB)
}

func parseSize(s string, bareUnit int64) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	rawSuffix := strings.ToUpper(matches[2])
	suffix := strings.TrimSuffix(rawSuffix, "IB")
	suffix = strings.TrimSuffix(suffix, "B")

	var multiplier int64
	switch suffix {
	case "":
		multiplier = bareUnit
		if rawSuffix != "" {
			// An explicit "B" always means bytes.
			multiplier = 1
		}
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	case "T":
		multiplier = TiB
	default:
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, suffix)
	}

	return int64(value * float64(multiplier)), nil
}

// secondsPattern matches a bare, non-negative number of seconds.
var secondsPattern = regexp.MustCompile(`^[0-9]+(?:\.[0-9]+)?$`)

// ErrInvalidDuration indicates that a duration string could not be parsed.
var ErrInvalidDuration = errors.New("invalid duration")

// ParseInterval parses a duration such as "5s" or "1m30s". A bare number is
// seconds, so "5" and "5s" are the same interval.
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secondsPattern.MatchString(s) {
		secs, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	return d, nil
}

// FormatSize converts a size in bytes to a human-readable string using
// binary (IEC) units, e.g. FormatSize(1536*1024) returns "1.5 MiB".
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatTime formats a timestamp the way all reports print dates.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// FormatDate formats a timestamp as a calendar date.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02")
}
