// Package dupes finds files with identical content and removes the extra
// copies.
//
// Candidates are narrowed in three passes: files are bucketed by exact size,
// then by an xxhash of their first 4 KiB, and only the survivors are read in
// full for a SHA-256 digest. Equal SHA-256 digests are taken as proof of
// identical content; there is no byte-by-byte comparison.
package dupes

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/jamesainslie/housekeep/pkg/housekeep/logging"
	"github.com/jamesainslie/housekeep/pkg/housekeep/types"
	"github.com/jamesainslie/housekeep/pkg/housekeep/walker"
)

var logger = logging.Get("dupes")

// Options configures Find.
type Options struct {
	// Root is the directory to search.
	Root string

	// Recursive searches subdirectories.
	Recursive bool

	// MinSize ignores files smaller than this many bytes. Empty files are
	// always ignored.
	MinSize int64

	// OnHash is called after each full hash, for progress display.
	OnHash func(path string)
}

// Group is a set of two or more files with the same size and digest.
type Group struct {
	Hash  string            `json:"hash" yaml:"hash"`
	Size  int64             `json:"size" yaml:"size"`
	Files []types.FileEntry `json:"files" yaml:"files"`
}

// Copies is the number of redundant members.
func (g Group) Copies() int {
	return len(g.Files) - 1
}

// Wasted is the space the redundant members occupy.
func (g Group) Wasted() int64 {
	return g.Size * int64(g.Copies())
}

// Result is the outcome of Find.
type Result struct {
	Root         string             `json:"root" yaml:"root"`
	FilesScanned int64              `json:"files_scanned" yaml:"files_scanned"`
	FilesHashed  int                `json:"files_hashed" yaml:"files_hashed"`
	Groups       []Group            `json:"groups" yaml:"groups"`
	Errors       []types.EntryError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Duplicates is the number of files that could be removed.
func (r *Result) Duplicates() int {
	return lo.SumBy(r.Groups, func(g Group) int { return g.Copies() })
}

// Wasted is the total space held by redundant copies.
func (r *Result) Wasted() int64 {
	return lo.SumBy(r.Groups, func(g Group) int64 { return g.Wasted() })
}

// Find scans opts.Root and returns the duplicate groups, largest waste
// first. Files that cannot be read are recorded in Result.Errors and left
// out of every group.
func Find(ctx context.Context, opts Options) (*Result, error) {
	entries, stats, err := walker.Collect(ctx, walker.Options{
		Root:      opts.Root,
		Recursive: opts.Recursive,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		Root:         stats.Root,
		FilesScanned: stats.Files,
		Errors:       stats.Errors,
	}

	candidates := lo.Filter(entries, func(e types.FileEntry, _ int) bool {
		return e.Size > 0 && e.Size >= opts.MinSize
	})
	bySize := multiMember(lo.GroupBy(candidates, func(e types.FileEntry) int64 { return e.Size }))

	logger.Debug("size buckets", "root", result.Root, "candidates", len(candidates), "buckets", len(bySize))

	for size, bucket := range bySize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		byPrefix := make(map[uint64][]types.FileEntry)
		for _, e := range bucket {
			h, err := prefixHash(e.Path)
			if err != nil {
				result.skip(e.Path, err)
				continue
			}
			byPrefix[h] = append(byPrefix[h], e)
		}

		for _, prefixed := range multiMember(byPrefix) {
			byDigest := make(map[string][]types.FileEntry)
			for _, e := range prefixed {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				digest, err := HashFile(e.Path)
				if err != nil {
					result.skip(e.Path, err)
					continue
				}
				result.FilesHashed++
				if opts.OnHash != nil {
					opts.OnHash(e.Path)
				}
				byDigest[digest] = append(byDigest[digest], e)
			}

			for digest, files := range multiMember(byDigest) {
				slices.SortFunc(files, func(a, b types.FileEntry) int {
					return strings.Compare(a.Path, b.Path)
				})
				result.Groups = append(result.Groups, Group{Hash: digest, Size: size, Files: files})
			}
		}
	}

	sortGroups(result.Groups)
	logger.Info("duplicate scan finished",
		"root", result.Root,
		"scanned", result.FilesScanned,
		"hashed", result.FilesHashed,
		"groups", len(result.Groups))

	return result, nil
}

// multiMember drops buckets with fewer than two members.
func multiMember[K comparable](buckets map[K][]types.FileEntry) map[K][]types.FileEntry {
	return lo.PickBy(buckets, func(_ K, v []types.FileEntry) bool { return len(v) > 1 })
}

func sortGroups(groups []Group) {
	slices.SortFunc(groups, func(a, b Group) int {
		if c := cmp.Compare(b.Wasted(), a.Wasted()); c != 0 {
			return c
		}
		return strings.Compare(a.Files[0].Path, b.Files[0].Path)
	})
}

func (r *Result) skip(path string, err error) {
	logger.Warn("skipping unreadable file", "path", path, "err", err)
	r.Errors = append(r.Errors, types.EntryError{Path: path, Error: err.Error()})
}
