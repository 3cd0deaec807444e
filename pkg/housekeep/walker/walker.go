// Package walker enumerates the regular files below a root directory.
//
// Traversal runs in parallel through fastwalk, but the callback passed to
// Walk is serialized, so callers see a plain sequence and need no locking.
// Entries that cannot be read are logged, recorded in Stats.Errors and
// skipped; only a bad root aborts the walk.
package walker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/djherbis/times"

	"github.com/jamesainslie/housekeep/pkg/housekeep/logging"
	"github.com/jamesainslie/housekeep/pkg/housekeep/types"
)

// ErrNotDirectory is returned when the walk root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

var logger = logging.Get("walker")

// Options configures a walk.
type Options struct {
	// Root is the directory to walk. Relative paths are made absolute.
	Root string

	// Recursive descends into subdirectories. When false only the
	// immediate children of Root are visited.
	Recursive bool

	// SkipDir prunes a directory. rel is the slash-separated path relative
	// to Root and name is the directory's base name.
	SkipDir func(rel, name string) bool

	// SkipFile drops a file before it is stat'ed, with the same arguments.
	SkipFile func(rel, name string) bool
}

// Stats summarizes a finished walk.
type Stats struct {
	Root    string             `json:"root" yaml:"root"`
	Files   int64              `json:"files" yaml:"files"`
	Dirs    int64              `json:"dirs" yaml:"dirs"`
	Bytes   int64              `json:"bytes" yaml:"bytes"`
	Skipped int64              `json:"skipped" yaml:"skipped"`
	Errors  []types.EntryError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Walk calls fn once for every regular file under opts.Root. Directories,
// symlinks and special files are never passed to fn. Returning an error from
// fn stops the walk and that error is returned.
func Walk(ctx context.Context, opts Options, fn func(types.FileEntry) error) (*Stats, error) {
	root, walkRoot, err := resolveRoot(opts.Root)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Root: root}
	var (
		mu      sync.Mutex
		stopErr error
	)

	// Predicates and fn run under mu so callers never see concurrent calls.
	skip := func(pred func(rel, name string) bool, rel, name string) bool {
		if pred == nil {
			return false
		}
		mu.Lock()
		defer mu.Unlock()
		if pred(rel, name) {
			stats.Skipped++
			return true
		}
		return false
	}

	conf := fastwalk.Config{Follow: false}
	walkErr := fastwalk.Walk(&conf, walkRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if path == walkRoot {
			return err
		}
		if walkRoot != root {
			path = root + strings.TrimPrefix(path, walkRoot)
		}

		if err != nil {
			mu.Lock()
			stats.record(path, err)
			mu.Unlock()
			return nil
		}

		rel := relPath(root, path)

		if d.IsDir() {
			if !opts.Recursive || skip(opts.SkipDir, rel, d.Name()) {
				return fastwalk.SkipDir
			}
			mu.Lock()
			stats.Dirs++
			mu.Unlock()
			return nil
		}

		if !d.Type().IsRegular() || skip(opts.SkipFile, rel, d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			mu.Lock()
			stats.record(path, err)
			mu.Unlock()
			return nil
		}

		entry := newEntry(path, info)

		mu.Lock()
		defer mu.Unlock()
		if stopErr != nil {
			return stopErr
		}
		stats.Files++
		stats.Bytes += entry.Size
		stopErr = fn(entry)
		return stopErr
	})

	if walkErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stats, ctxErr
		}
		return stats, fmt.Errorf("walking %s: %w", root, walkErr)
	}

	return stats, nil
}

// Collect walks opts.Root and returns every file entry sorted by path.
func Collect(ctx context.Context, opts Options) ([]types.FileEntry, *Stats, error) {
	var entries []types.FileEntry
	stats, err := Walk(ctx, opts, func(e types.FileEntry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	slices.SortFunc(entries, func(a, b types.FileEntry) int {
		return strings.Compare(a.Path, b.Path)
	})
	return entries, stats, nil
}

// Stat builds a FileEntry for a single path, which must be a regular file.
func Stat(path string) (types.FileEntry, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return types.FileEntry{}, err
	}
	info, err := os.Lstat(abs)
	if err != nil {
		return types.FileEntry{}, err
	}
	if !info.Mode().IsRegular() {
		return types.FileEntry{}, fmt.Errorf("%s: not a regular file", abs)
	}
	return newEntry(abs, info), nil
}

func (s *Stats) record(path string, err error) {
	logger.Warn("skipping unreadable entry", "path", path, "err", err)
	s.Errors = append(s.Errors, types.EntryError{Path: path, Error: err.Error()})
}

// resolveRoot returns the absolute root as given and the directory to
// actually traverse, which differs only when the root is a symlink.
func resolveRoot(root string) (string, string, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", "", fmt.Errorf("resolving %s: %w", root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", "", err
	}
	if !info.IsDir() {
		return "", "", fmt.Errorf("%s: %w", abs, ErrNotDirectory)
	}

	walkRoot := abs
	if li, err := os.Lstat(abs); err == nil && li.Mode()&fs.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return "", "", err
		}
		walkRoot = resolved
	}

	// Catch an unreadable root up front rather than as a per-entry warning.
	f, err := os.Open(walkRoot)
	if err != nil {
		return "", "", err
	}
	_, err = f.ReadDir(1)
	_ = f.Close()
	if err != nil && !errors.Is(err, io.EOF) {
		return "", "", fmt.Errorf("reading %s: %w", abs, err)
	}

	return abs, walkRoot, nil
}

func newEntry(path string, info fs.FileInfo) types.FileEntry {
	entry := types.FileEntry{
		Path:       path,
		Name:       info.Name(),
		Size:       info.Size(),
		ModTime:    info.ModTime(),
		AccessTime: info.ModTime(),
		Mode:       info.Mode(),
	}

	ts := times.Get(info)
	if at := ts.AccessTime(); !at.IsZero() {
		entry.AccessTime = at
	}
	if ts.HasBirthTime() {
		entry.BirthTime = ts.BirthTime()
	}
	return entry
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
