// Package cleaner finds files worth reclaiming space from: large files, files
// nobody has opened in a long time, and temporary or cache files. It only
// deletes the temporary ones, and only when asked to.
package cleaner

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/jamesainslie/housekeep/pkg/housekeep/logging"
	"github.com/jamesainslie/housekeep/pkg/housekeep/trash"
	"github.com/jamesainslie/housekeep/pkg/housekeep/types"
	"github.com/jamesainslie/housekeep/pkg/housekeep/walker"
)

var logger = logging.Get("clean")

// Options configures Analyze.
type Options struct {
	Root      string
	Recursive bool

	// MinSize is the large-file threshold in bytes.
	MinSize int64

	// OldDays flags files whose access time is more than this many days ago.
	OldDays int

	// Now is the reference time for OldDays. Zero means time.Now().
	Now time.Time
}

// Validate rejects negative thresholds.
func (o Options) Validate() error {
	if o.MinSize < 0 {
		return fmt.Errorf("min size: %w", types.ErrNegativeSize)
	}
	if o.OldDays < 0 {
		return fmt.Errorf("old days: %w", types.ErrNegativeValue)
	}
	return nil
}

// Report is the outcome of Analyze. A file may appear in several lists.
type Report struct {
	Root       string             `json:"root" yaml:"root"`
	Scanned    int64              `json:"scanned" yaml:"scanned"`
	TotalBytes int64              `json:"total_bytes" yaml:"total_bytes"`
	MinSize    int64              `json:"min_size" yaml:"min_size"`
	OldDays    int                `json:"old_days" yaml:"old_days"`
	Usage      *DiskUsage         `json:"usage,omitempty" yaml:"usage,omitempty"`
	Large      []types.FileEntry  `json:"large" yaml:"large"`
	Old        []types.FileEntry  `json:"old" yaml:"old"`
	Temp       []types.FileEntry  `json:"temp" yaml:"temp"`
	Errors     []types.EntryError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Analyze walks opts.Root and classifies every file. Large and temporary
// files are sorted largest first, old files by least recent access.
func Analyze(ctx context.Context, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	cutoff := now.AddDate(0, 0, -opts.OldDays)

	report := &Report{MinSize: opts.MinSize, OldDays: opts.OldDays}

	entries, stats, err := walker.Collect(ctx, walker.Options{Root: opts.Root, Recursive: opts.Recursive})
	if err != nil {
		return nil, err
	}

	report.Root = stats.Root
	for _, e := range entries {
		if e.Size >= opts.MinSize {
			report.Large = append(report.Large, e)
		}
		if e.AccessTime.Before(cutoff) {
			report.Old = append(report.Old, e)
		}
		if IsTemp(relTo(report.Root, e.Path)) {
			report.Temp = append(report.Temp, e)
		}
	}

	report.Scanned = stats.Files
	report.TotalBytes = stats.Bytes
	report.Errors = stats.Errors

	bySizeDesc := func(a, b types.FileEntry) int {
		if c := cmp.Compare(b.Size, a.Size); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	}
	slices.SortFunc(report.Large, bySizeDesc)
	slices.SortFunc(report.Temp, bySizeDesc)
	slices.SortFunc(report.Old, func(a, b types.FileEntry) int {
		if c := a.AccessTime.Compare(b.AccessTime); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})

	if usage, err := FilesystemUsage(report.Root); err != nil {
		logger.Warn("could not read filesystem usage", "path", report.Root, "err", err)
	} else {
		report.Usage = &usage
	}

	logger.Info("analysis finished",
		"root", report.Root,
		"scanned", report.Scanned,
		"large", len(report.Large),
		"old", len(report.Old),
		"temp", len(report.Temp))

	return report, nil
}

func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

// Total sums the sizes of files.
func Total(files []types.FileEntry) int64 {
	return lo.SumBy(files, func(f types.FileEntry) int64 { return f.Size })
}

// Head returns at most limit files and how many were left out. A limit of
// zero returns everything.
func Head(files []types.FileEntry, limit int) ([]types.FileEntry, int) {
	if limit <= 0 || len(files) <= limit {
		return files, 0
	}
	return files[:limit], len(files) - limit
}

// CleanOptions configures CleanTemp.
type CleanOptions struct {
	// Root is the scanned directory. Cache directories below it that are
	// empty after the run are removed; the root itself never is.
	Root string

	// Trash moves files to the system trash when available.
	Trash bool
}

// Cleaned is a removed file.
type Cleaned struct {
	Path   string       `json:"path" yaml:"path"`
	Size   int64        `json:"size" yaml:"size"`
	Method trash.Method `json:"method" yaml:"method"`
}

// CleanResult reports what CleanTemp did.
type CleanResult struct {
	Removed    []Cleaned          `json:"removed" yaml:"removed"`
	PrunedDirs []string           `json:"pruned_dirs,omitempty" yaml:"pruned_dirs,omitempty"`
	Failed     []types.EntryError `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// Freed is the number of bytes released.
func (r *CleanResult) Freed() int64 {
	return lo.SumBy(r.Removed, func(c Cleaned) int64 { return c.Size })
}

// CleanTemp removes the given files one at a time. A path listed more than
// once is removed once. Failures are recorded and do not stop the run.
// Afterwards, cache directories below opts.Root left empty are removed.
func CleanTemp(ctx context.Context, files []types.FileEntry, opts CleanOptions) (*CleanResult, error) {
	result := &CleanResult{}

	for _, f := range lo.UniqBy(files, func(f types.FileEntry) string { return f.Path }) {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		method, err := trash.Remove(ctx, f.Path, opts.Trash)
		if err != nil {
			logger.Warn("could not remove temporary file", "path", f.Path, "err", err)
			result.Failed = append(result.Failed, types.EntryError{Path: f.Path, Error: err.Error()})
			continue
		}

		logger.Info("removed temporary file", "path", f.Path, "method", method)
		result.Removed = append(result.Removed, Cleaned{Path: f.Path, Size: f.Size, Method: method})
	}

	if opts.Root != "" {
		for _, c := range result.Removed {
			result.PrunedDirs = append(result.PrunedDirs, pruneCacheDirs(opts.Root, filepath.Dir(c.Path))...)
		}
	}

	return result, nil
}

// pruneCacheDirs removes dir and its parents while they are empty cache
// directories strictly below root. It stops at the first directory that is
// not empty or not inside a cache directory.
func pruneCacheDirs(root, dir string) []string {
	var pruned []string
	for {
		rel, err := filepath.Rel(root, dir)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return pruned
		}
		if !inCacheDir(filepath.ToSlash(rel)) {
			return pruned
		}
		if err := os.Remove(dir); err != nil {
			return pruned
		}
		logger.Debug("removed empty cache directory", "path", dir)
		pruned = append(pruned, dir)
		dir = filepath.Dir(dir)
	}
}
