package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/housekeep/pkg/housekeep/dupes"
	"github.com/jamesainslie/housekeep/pkg/housekeep/journal"
	"github.com/jamesainslie/housekeep/pkg/housekeep/output"
	"github.com/jamesainslie/housekeep/pkg/housekeep/trash"
	"github.com/jamesainslie/housekeep/pkg/housekeep/types"
)

var dupesCmd = &cobra.Command{
	Use:   "dupes [dir]",
	Short: "Find duplicate files",
	Long: `Find files with identical content under a directory.

Files are compared by size first, then by a quick hash of their first 4 KiB,
and finally by a full SHA-256 digest. Empty files are ignored.

With --delete, each group keeps its most recently modified file (the oldest
with --keep-oldest) and the other copies are removed after confirmation.
Each copy is hashed again right before removal and skipped if it changed.

Examples:
  housekeep dupes ~/Pictures
  housekeep dupes ~/Pictures --min-size 1M
  housekeep dupes ~/Pictures --delete --trash`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDupes,
}

func init() {
	dupesCmd.Flags().Bool("delete", false, "delete duplicates, keeping one file per group")
	dupesCmd.Flags().BoolP("force", "f", false, "delete without asking for confirmation")
	dupesCmd.Flags().Bool("keep-oldest", false, "keep the oldest copy instead of the newest")
	dupesCmd.Flags().Bool("no-recursive", false, "only look at files directly in the directory")
	dupesCmd.Flags().Bool("trash", false, "move deleted files to the trash when available")
	dupesCmd.Flags().String("min-size", "", "ignore files smaller than this (e.g. 1M, bare numbers are MB)")
	rootCmd.AddCommand(dupesCmd)
}

// dupesOutcome is the structured output of a scan followed by deletion.
type dupesOutcome struct {
	Scan   *dupes.Result       `json:"scan" yaml:"scan"`
	Delete *dupes.DeleteResult `json:"delete" yaml:"delete"`
}

func runDupes(cmd *cobra.Command, args []string) error {
	del, _ := cmd.Flags().GetBool("delete")
	force, _ := cmd.Flags().GetBool("force")
	keepOldest, _ := cmd.Flags().GetBool("keep-oldest")
	noRecursive, _ := cmd.Flags().GetBool("no-recursive")
	useTrash, _ := cmd.Flags().GetBool("trash")
	minSizeStr, _ := cmd.Flags().GetString("min-size")

	var minSize int64
	if minSizeStr != "" {
		parsed, err := types.ParseSizeMB(minSizeStr)
		if err != nil {
			return fmt.Errorf("invalid --min-size: %w", err)
		}
		minSize = parsed
	}

	root, err := targetDir(args, ".")
	if err != nil {
		return err
	}

	printInfo(cmd, "Scanning %s for duplicates...", root)
	result, err := dupes.Find(cmd.Context(), dupes.Options{
		Root:      root,
		Recursive: !noRecursive,
		MinSize:   minSize,
		OnHash: func(path string) {
			printVerbose(cmd, "Hashed %s", path)
		},
	})
	if err != nil {
		return err
	}

	var decisions []dupes.Decision
	if del {
		decisions = dupes.Decide(result.Groups, keepOldest)
	}
	report := dupesReport(result, decisions)

	if !del || len(result.Groups) == 0 {
		return render(cmd, report)
	}
	if !structured() {
		if err := render(cmd, report); err != nil {
			return err
		}
	}

	if !force {
		question := fmt.Sprintf("Delete %s (%s)?", plural(result.Duplicates(), "duplicate file"), types.FormatSize(result.Wasted()))
		ok, err := confirm(cmd, question)
		if err != nil {
			return err
		}
		if !ok {
			printInfo(cmd, "Cancelled, nothing was deleted.")
			if structured() {
				return render(cmd, report)
			}
			return nil
		}
	}

	deleted, err := dupes.Delete(cmd.Context(), result.Groups, dupes.DeleteOptions{
		KeepOldest: keepOldest,
		Trash:      useTrash,
	})
	if deleted != nil {
		recordJournal(cmd, journal.OpDupes, result.Root, dupesRecords(result, deleted))
	}
	if err != nil {
		return err
	}

	out := deleteReport(result.Root, deleted)
	out.Data = dupesOutcome{Scan: result, Delete: deleted}
	return render(cmd, out)
}

func dupesReport(result *dupes.Result, decisions []dupes.Decision) *output.Report {
	r := &output.Report{Title: "Duplicate files", Data: result}
	r.AddField("Directory", result.Root)

	if len(result.Groups) == 0 {
		s := r.AddSection("Duplicates")
		s.Empty = "No duplicates found"
	}

	for i, g := range result.Groups {
		title := fmt.Sprintf("Group %d: %s x %d  (%s)", i+1, types.FormatSize(g.Size), len(g.Files), shortHash(g.Hash))
		s := r.AddSection(title, "FILE", "MODIFIED")
		s.Key = g.Hash
		for _, f := range g.Files {
			s.AddRow(displayPath(result.Root, f.Path), types.FormatTime(f.ModTime))
		}
	}

	if len(decisions) > 0 {
		s := r.AddSection("To delete", "FILE", "KEEPING")
		for _, d := range decisions {
			for _, f := range d.Remove {
				s.AddRow(displayPath(result.Root, f.Path), displayPath(result.Root, d.Keep.Path))
			}
		}
	}

	addErrors(r, result.Errors)

	r.AddSummary("Scanned", strconv.FormatInt(result.FilesScanned, 10))
	r.AddSummary("Hashed", strconv.Itoa(result.FilesHashed))
	r.AddSummary("Groups", strconv.Itoa(len(result.Groups)))
	r.AddSummary("Duplicates", strconv.Itoa(result.Duplicates()))
	r.AddSummary("Wasted", types.FormatSize(result.Wasted()))
	return r
}

func deleteReport(root string, deleted *dupes.DeleteResult) *output.Report {
	r := &output.Report{Title: "Duplicates removed"}
	r.AddField("Directory", root)

	s := r.AddSection("Removed", "FILE", "SIZE", "HOW")
	s.Empty = "Nothing was removed"
	for _, rm := range deleted.Removed {
		s.AddRow(displayPath(root, rm.Path), types.FormatSize(rm.Size), string(rm.Method))
	}

	if len(deleted.Failed) > 0 {
		failed := r.AddSection("Failed", "FILE", "ERROR")
		for _, f := range deleted.Failed {
			failed.AddRow(displayPath(root, f.Path), f.Error)
		}
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s could not be removed", plural(len(deleted.Failed), "file")))
	}

	r.AddSummary("Kept", strconv.Itoa(len(deleted.Kept)))
	r.AddSummary("Removed", strconv.Itoa(len(deleted.Removed)))
	r.AddSummary("Freed", types.FormatSize(deleted.Freed()))
	return r
}

func dupesRecords(result *dupes.Result, deleted *dupes.DeleteResult) []journal.Record {
	hashes := make(map[string]string)
	for _, g := range result.Groups {
		for _, f := range g.Files {
			hashes[f.Path] = g.Hash
		}
	}

	var records []journal.Record
	for _, rm := range deleted.Removed {
		records = append(records, journal.Record{
			Path:   rm.Path,
			Size:   rm.Size,
			SHA256: hashes[rm.Path],
			Action: removalAction(rm.Method),
		})
	}
	for _, f := range deleted.Failed {
		records = append(records, journal.Record{
			Path:   f.Path,
			SHA256: hashes[f.Path],
			Action: journal.ActionFailed,
			Error:  f.Error,
		})
	}
	return records
}

func removalAction(m trash.Method) journal.Action {
	if m == trash.Trashed {
		return journal.ActionTrashed
	}
	return journal.ActionDeleted
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
