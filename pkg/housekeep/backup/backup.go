// Package backup writes compressed, timestamped archives of a file or
// directory and lists the archives already present in a backups folder.
//
// Archives are named <source>_<YYYYMMDD_HHMMSS>.zip or .tar.gz, with _1, _2
// and so on appended when that name is already taken. The folder
// itself is the only record of past backups; there is no index file.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jamesainslie/housekeep/pkg/housekeep/logging"
	"github.com/jamesainslie/housekeep/pkg/housekeep/types"
	"github.com/jamesainslie/housekeep/pkg/housekeep/walker"
)

// stampLayout is the timestamp embedded in archive names.
const stampLayout = "20060102_150405"

var logger = logging.Get("backup")

// Options configures Create.
type Options struct {
	// Source is the file or directory to archive.
	Source string

	// Dest is the folder the archive is written to. It is created if missing.
	Dest string

	// Format selects zip or tar.gz.
	Format Format

	// Exclude lists patterns matched against each path segment.
	Exclude []string

	// Now stamps the archive name. Zero means time.Now().
	Now time.Time
}

// Result describes a finished backup.
type Result struct {
	Archive       string             `json:"archive" yaml:"archive"`
	Source        string             `json:"source" yaml:"source"`
	Format        Format             `json:"format" yaml:"format"`
	Files         int                `json:"files" yaml:"files"`
	Excluded      int64              `json:"excluded" yaml:"excluded"`
	OriginalBytes int64              `json:"original_bytes" yaml:"original_bytes"`
	ArchiveBytes  int64              `json:"archive_bytes" yaml:"archive_bytes"`
	Corrupt       bool               `json:"corrupt" yaml:"corrupt"`
	VerifyError   string             `json:"verify_error,omitempty" yaml:"verify_error,omitempty"`
	Errors        []types.EntryError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Ratio is the space saved by compression as a percentage of the original
// size. It is zero for an empty source.
func (r *Result) Ratio() float64 {
	if r.OriginalBytes <= 0 {
		return 0
	}
	return (1 - float64(r.ArchiveBytes)/float64(r.OriginalBytes)) * 100
}

// maxNameAttempts bounds the _N suffixes tried for a taken archive name.
const maxNameAttempts = 1000

// archiveName is <source>_<stamp>.<ext>, with _n before the extension for
// n > 0.
func archiveName(source string, format Format, t time.Time, n int) string {
	name := filepath.Base(filepath.Clean(source)) + "_" + t.Format(stampLayout)
	if n > 0 {
		name += "_" + strconv.Itoa(n)
	}
	return name + format.Ext()
}

// createArchiveFile opens a new archive in dest. An existing archive is
// never overwritten: a name already taken in the same second gets _1, _2,
// and so on.
func createArchiveFile(dest, source string, format Format, t time.Time) (*os.File, string, error) {
	for n := 0; n < maxNameAttempts; n++ {
		path := filepath.Join(dest, archiveName(source, format, t, n))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("no free archive name for %s after %d attempts", archiveName(source, format, t, 0), maxNameAttempts)
}

// Create archives opts.Source into opts.Dest and verifies the result.
// Unreadable source files are recorded and skipped. Any failure writing the
// archive removes the partial file and is returned. A verification failure
// is not an error; it sets Result.Corrupt.
func Create(ctx context.Context, opts Options) (*Result, error) {
	format, err := ParseFormat(string(opts.Format))
	if err != nil {
		return nil, err
	}
	opts.Format = format

	source, err := filepath.Abs(opts.Source)
	if err != nil {
		return nil, fmt.Errorf("resolving source: %w", err)
	}
	srcInfo, err := os.Stat(source)
	if err != nil {
		return nil, err
	}

	dest, err := filepath.Abs(opts.Dest)
	if err != nil {
		return nil, fmt.Errorf("resolving destination: %w", err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("creating destination: %w", err)
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	f, archivePath, err := createArchiveFile(dest, source, opts.Format, now)
	if err != nil {
		return nil, fmt.Errorf("creating archive: %w", err)
	}

	result := &Result{Archive: archivePath, Source: source, Format: opts.Format}

	aw, err := newArchiveWriter(opts.Format, f)
	if err == nil {
		if srcInfo.IsDir() {
			err = addTree(ctx, aw, source, dest, archivePath, NewExcluder(opts.Exclude), result)
		} else {
			err = addFile(aw, source, srcInfo.Name(), result)
		}
		if closeErr := aw.Close(); err == nil {
			err = closeErr
		}
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(archivePath)
		logger.Error("backup failed, partial archive removed", "archive", archivePath, "err", err)
		return nil, fmt.Errorf("writing archive: %w", err)
	}

	if info, statErr := os.Stat(archivePath); statErr == nil {
		result.ArchiveBytes = info.Size()
	}

	if err := Verify(archivePath, opts.Format, result.Files); err != nil {
		result.Corrupt = true
		result.VerifyError = err.Error()
		logger.Warn("archive failed verification", "archive", archivePath, "err", err)
	}

	logger.Info("backup created",
		"archive", archivePath,
		"files", result.Files,
		"excluded", result.Excluded,
		"bytes", result.ArchiveBytes)

	return result, nil
}

func addTree(ctx context.Context, aw archiveWriter, source, dest, archivePath string, ex Excluder, result *Result) error {
	destRel := ""
	if rel, err := filepath.Rel(source, dest); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
		destRel = filepath.ToSlash(rel)
	}

	stats, err := walker.Walk(ctx, walker.Options{
		Root:      source,
		Recursive: true,
		SkipDir: func(rel, name string) bool {
			return rel == destRel || ex.MatchSegment(name)
		},
		SkipFile: func(_, name string) bool {
			return ex.MatchSegment(name)
		},
	}, func(e types.FileEntry) error {
		if e.Path == archivePath {
			return nil
		}
		rel, err := filepath.Rel(source, e.Path)
		if err != nil {
			return err
		}
		return addFile(aw, e.Path, filepath.ToSlash(rel), result)
	})
	if stats != nil {
		result.Excluded = stats.Skipped
		result.Errors = append(result.Errors, stats.Errors...)
	}
	return err
}

// addFile copies one file into the archive. Failing to open or stat the
// file is a per-file warning; a failure after the entry is started is not.
func addFile(aw archiveWriter, path, name string, result *Result) error {
	src, err := os.Open(path)
	if err != nil {
		result.skip(path, err)
		return nil
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		result.skip(path, err)
		return nil
	}

	if err := aw.Add(name, info, src); err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}

	result.Files++
	result.OriginalBytes += info.Size()
	return nil
}

func (r *Result) skip(path string, err error) {
	logger.Warn("skipping unreadable file", "path", path, "err", err)
	r.Errors = append(r.Errors, types.EntryError{Path: path, Error: err.Error()})
}
