package dupes

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jamesainslie/housekeep/pkg/housekeep/trash"
	"github.com/jamesainslie/housekeep/pkg/housekeep/types"
)

// DeleteOptions configures Delete.
type DeleteOptions struct {
	// KeepOldest retains the member with the earliest modification time
	// instead of the latest.
	KeepOldest bool

	// Trash moves removed files to the system trash when available.
	Trash bool
}

// Decision names the member a group keeps and the members it loses.
type Decision struct {
	Hash   string            `json:"hash" yaml:"hash"`
	Keep   types.FileEntry   `json:"keep" yaml:"keep"`
	Remove []types.FileEntry `json:"remove" yaml:"remove"`
}

// Removed is a file Delete got rid of.
type Removed struct {
	Path   string       `json:"path" yaml:"path"`
	Size   int64        `json:"size" yaml:"size"`
	Method trash.Method `json:"method" yaml:"method"`
}

// Failure is a file Delete could not remove.
type Failure struct {
	Path  string `json:"path" yaml:"path"`
	Error string `json:"error" yaml:"error"`
}

// DeleteResult reports what Delete did, per file.
type DeleteResult struct {
	Kept    []string  `json:"kept" yaml:"kept"`
	Removed []Removed `json:"removed" yaml:"removed"`
	Failed  []Failure `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// Freed is the number of bytes released.
func (r *DeleteResult) Freed() int64 {
	var total int64
	for _, rm := range r.Removed {
		total += rm.Size
	}
	return total
}

// Decide picks the survivor of each group: the newest by modification time,
// or the oldest with keepOldest. Ties go to the lexically first path.
func Decide(groups []Group, keepOldest bool) []Decision {
	decisions := make([]Decision, 0, len(groups))
	for _, g := range groups {
		if len(g.Files) < 2 {
			continue
		}

		files := slices.Clone(g.Files)
		slices.SortFunc(files, func(a, b types.FileEntry) int {
			c := b.ModTime.Compare(a.ModTime)
			if keepOldest {
				c = -c
			}
			if c != 0 {
				return c
			}
			return strings.Compare(a.Path, b.Path)
		})

		decisions = append(decisions, Decision{Hash: g.Hash, Keep: files[0], Remove: files[1:]})
	}
	return decisions
}

// Delete removes every non-retained member of each group. Before a file is
// removed its digest is recomputed, along with the survivor's, so a file
// edited since the scan is never deleted. Failures are recorded and the
// remaining files are still processed.
func Delete(ctx context.Context, groups []Group, opts DeleteOptions) (*DeleteResult, error) {
	result := &DeleteResult{}

	for _, d := range Decide(groups, opts.KeepOldest) {
		result.Kept = append(result.Kept, d.Keep.Path)

		if err := verify(d.Keep.Path, d.Hash); err != nil {
			for _, victim := range d.Remove {
				result.fail(victim.Path, fmt.Errorf("retained copy %s: %w", d.Keep.Path, err))
			}
			continue
		}

		for _, victim := range d.Remove {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			if err := verify(victim.Path, d.Hash); err != nil {
				result.fail(victim.Path, err)
				continue
			}

			method, err := trash.Remove(ctx, victim.Path, opts.Trash)
			if err != nil {
				result.fail(victim.Path, err)
				continue
			}

			logger.Info("removed duplicate", "path", victim.Path, "kept", d.Keep.Path, "method", method)
			result.Removed = append(result.Removed, Removed{Path: victim.Path, Size: victim.Size, Method: method})
		}
	}

	return result, nil
}

// ErrChanged is recorded when a file's content no longer matches its group.
var ErrChanged = errors.New("content changed since scan")

func verify(path, want string) error {
	got, err := HashFile(path)
	if err != nil {
		return err
	}
	if got != want {
		return ErrChanged
	}
	return nil
}

func (r *DeleteResult) fail(path string, err error) {
	logger.Warn("could not remove duplicate", "path", path, "err", err)
	r.Failed = append(r.Failed, Failure{Path: path, Error: err.Error()})
}
