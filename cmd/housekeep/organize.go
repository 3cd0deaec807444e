package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/housekeep/pkg/housekeep/journal"
	"github.com/jamesainslie/housekeep/pkg/housekeep/organizer"
	"github.com/jamesainslie/housekeep/pkg/housekeep/output"
	"github.com/jamesainslie/housekeep/pkg/housekeep/types"
)

var organizeCmd = &cobra.Command{
	Use:   "organize [dir]",
	Short: "Sort files into folders by type",
	Long: `Move the files directly inside a directory into category folders
(Images, Documents, Videos, Audio, Archives, Code, Executables, Books, Other).

Subdirectories are left alone. Hidden files and files without an extension
stay where they are. A name already taken in the destination folder gets a
_1, _2, ... suffix. Use --dry-run to preview the moves first.

The directory defaults to organize.default_path (~/Downloads).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOrganize,
}

func init() {
	organizeCmd.Flags().BoolP("dry-run", "n", false, "show the moves without performing them")
	rootCmd.AddCommand(organizeCmd)
}

func runOrganize(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	root, err := targetDir(args, cfg.Organize.DefaultPath)
	if err != nil {
		return err
	}

	printVerbose(cmd, "Planning moves for %s", root)
	plan, err := organizer.NewPlan(cmd.Context(), root)
	if err != nil {
		return err
	}

	result, err := organizer.Apply(cmd.Context(), plan, organizer.Options{DryRun: dryRun})
	if result != nil && !dryRun {
		recordJournal(cmd, journal.OpOrganize, result.Root, organizeRecords(result))
	}
	if err != nil {
		return err
	}

	r := organizeReport(result)
	addErrors(r, plan.Errors)
	return render(cmd, r)
}

func organizeReport(result *organizer.Result) *output.Report {
	title := "Organize"
	movesTitle := "Moved"
	if result.DryRun {
		title = "Organize (dry run)"
		movesTitle = "Would move"
	}

	r := &output.Report{Title: title, Data: result}
	r.AddField("Directory", result.Root)

	moves := r.AddSection(movesTitle, "FILE", "DESTINATION")
	moves.Empty = "Nothing to organize"
	for _, m := range result.Moved {
		dest := displayPath(result.Root, m.Dest)
		if m.Renamed() {
			dest += " (renamed)"
		}
		moves.AddRow(displayPath(result.Root, m.Source), dest)
	}

	if len(result.Failed) > 0 {
		failed := r.AddSection("Failed", "FILE", "ERROR")
		for _, f := range result.Failed {
			failed.AddRow(displayPath(result.Root, f.Move.Source), f.Error)
		}
	}

	if len(result.Skipped) > 0 {
		skipped := r.AddSection("Left in place", "FILE", "REASON")
		for _, s := range result.Skipped {
			skipped.AddRow(displayPath(result.Root, s.Path), s.Reason)
		}
	}

	for _, c := range result.Summary() {
		r.AddSummary(c.Category.String(), strconv.Itoa(c.Files))
	}
	r.AddSummary(movesTitle, plural(len(result.Moved), "file"))
	r.AddSummary("Size", movedBytes(result))
	if len(result.Failed) > 0 {
		r.AddSummary("Failed", strconv.Itoa(len(result.Failed)))
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s could not be moved", plural(len(result.Failed), "file")))
	}
	return r
}

func organizeRecords(result *organizer.Result) []journal.Record {
	var records []journal.Record
	for _, m := range result.Moved {
		records = append(records, journal.Record{Path: m.Source, Dest: m.Dest, Size: m.Size, Action: journal.ActionMoved})
	}
	for _, f := range result.Failed {
		records = append(records, journal.Record{
			Path:   f.Move.Source,
			Dest:   f.Move.Dest,
			Size:   f.Move.Size,
			Action: journal.ActionFailed,
			Error:  f.Error,
		})
	}
	return records
}

// movedBytes totals the sizes of the moved files.
func movedBytes(result *organizer.Result) string {
	var total int64
	for _, m := range result.Moved {
		total += m.Size
	}
	return types.FormatSize(total)
}
