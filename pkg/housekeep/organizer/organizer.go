// Package organizer sorts the files directly inside a directory into
// per-category subfolders.
//
// Organizing is split into Plan, which decides every move without touching
// the filesystem, and Apply, which carries a plan out. A dry run applies the
// plan in report-only mode, so the moves it prints are exactly the moves a
// real run with the same inputs performs.
package organizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jamesainslie/housekeep/pkg/housekeep/category"
	"github.com/jamesainslie/housekeep/pkg/housekeep/logging"
	"github.com/jamesainslie/housekeep/pkg/housekeep/types"
	"github.com/jamesainslie/housekeep/pkg/housekeep/walker"
)

var logger = logging.Get("organize")

// ErrDestinationExists is recorded when a planned destination appeared
// between planning and applying.
var ErrDestinationExists = errors.New("destination already exists")

// Skip reasons.
const (
	ReasonNoExtension = "no extension"
	ReasonHidden      = "hidden file"
)

// Move is a single planned relocation.
type Move struct {
	Source   string            `json:"source" yaml:"source"`
	Dest     string            `json:"dest" yaml:"dest"`
	Category category.Category `json:"category" yaml:"category"`
	Size     int64             `json:"size" yaml:"size"`
}

// Renamed reports whether the collision policy changed the file name.
func (m Move) Renamed() bool {
	return filepath.Base(m.Source) != filepath.Base(m.Dest)
}

// Skipped is a file left in place.
type Skipped struct {
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"reason" yaml:"reason"`
}

// Plan is the full set of moves for one directory.
type Plan struct {
	Root    string             `json:"root" yaml:"root"`
	Moves   []Move             `json:"moves" yaml:"moves"`
	Skipped []Skipped          `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Errors  []types.EntryError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Options controls Apply.
type Options struct {
	// DryRun reports the planned moves without performing them.
	DryRun bool
}

// Failure is a move that could not be completed.
type Failure struct {
	Move  Move   `json:"move" yaml:"move"`
	Error string `json:"error" yaml:"error"`
}

// Result reports what Apply did.
type Result struct {
	Root    string    `json:"root" yaml:"root"`
	DryRun  bool      `json:"dry_run" yaml:"dry_run"`
	Moved   []Move    `json:"moved" yaml:"moved"`
	Failed  []Failure `json:"failed,omitempty" yaml:"failed,omitempty"`
	Skipped []Skipped `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// CategoryCount is one row of the per-category summary.
type CategoryCount struct {
	Category category.Category `json:"category" yaml:"category"`
	Files    int               `json:"files" yaml:"files"`
}

// Summary counts moved files per category in report order. Categories with
// no files are omitted.
func (r *Result) Summary() []CategoryCount {
	counts := make(map[category.Category]int)
	for _, m := range r.Moved {
		counts[m.Category]++
	}

	var out []CategoryCount
	for _, c := range category.All() {
		if n := counts[c]; n > 0 {
			out = append(out, CategoryCount{Category: c, Files: n})
		}
	}
	return out
}

// NewPlan computes the moves for the files directly under root. Files with
// no extension and hidden files are skipped. A destination name already
// taken on disk, or by an earlier move in the same plan, gets a _1, _2, ...
// suffix before its extension.
func NewPlan(ctx context.Context, root string) (*Plan, error) {
	entries, stats, err := walker.Collect(ctx, walker.Options{Root: root})
	if err != nil {
		return nil, err
	}

	plan := &Plan{Root: stats.Root, Errors: stats.Errors}
	taken := make(map[string]bool)

	for _, e := range entries {
		if strings.HasPrefix(e.Name, ".") {
			plan.Skipped = append(plan.Skipped, Skipped{Path: e.Path, Reason: ReasonHidden})
			continue
		}
		if filepath.Ext(e.Name) == "" {
			plan.Skipped = append(plan.Skipped, Skipped{Path: e.Path, Reason: ReasonNoExtension})
			continue
		}

		c := category.Of(e.Name)
		dest := uniqueDest(filepath.Join(plan.Root, c.String()), e.Name, taken)
		taken[dest] = true

		plan.Moves = append(plan.Moves, Move{
			Source:   e.Path,
			Dest:     dest,
			Category: c,
			Size:     e.Size,
		})
	}

	logger.Debug("planned organize", "root", plan.Root, "moves", len(plan.Moves), "skipped", len(plan.Skipped))
	return plan, nil
}

// uniqueDest returns dir/name, or dir/base_N.ext for the smallest N that is
// neither on disk nor already claimed.
func uniqueDest(dir, name string, taken map[string]bool) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(dir, name)
	for n := 1; taken[candidate] || exists(candidate); n++ {
		candidate = filepath.Join(dir, base+"_"+strconv.Itoa(n)+ext)
	}
	return candidate
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// Apply performs the plan. Moves run in order; a failed move is recorded and
// the rest still run. There is no rollback.
func Apply(ctx context.Context, plan *Plan, opts Options) (*Result, error) {
	result := &Result{
		Root:    plan.Root,
		DryRun:  opts.DryRun,
		Skipped: plan.Skipped,
	}

	if opts.DryRun {
		result.Moved = append(result.Moved, plan.Moves...)
		return result, nil
	}

	created := make(map[string]bool)
	for _, m := range plan.Moves {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		dir := filepath.Dir(m.Dest)
		if !created[dir] {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				result.fail(m, fmt.Errorf("creating %s: %w", dir, err))
				continue
			}
			created[dir] = true
		}

		if exists(m.Dest) {
			result.fail(m, ErrDestinationExists)
			continue
		}

		if err := moveFile(m.Source, m.Dest); err != nil {
			result.fail(m, err)
			continue
		}

		logger.Info("moved", "from", m.Source, "to", m.Dest)
		result.Moved = append(result.Moved, m)
	}

	return result, nil
}

func (r *Result) fail(m Move, err error) {
	logger.Warn("move failed", "path", m.Source, "err", err)
	r.Failed = append(r.Failed, Failure{Move: m, Error: err.Error()})
}

// Organize plans and applies in one step.
func Organize(ctx context.Context, root string, opts Options) (*Result, error) {
	plan, err := NewPlan(ctx, root)
	if err != nil {
		return nil, err
	}
	return Apply(ctx, plan, opts)
}
