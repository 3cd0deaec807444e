package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/housekeep/pkg/housekeep/cleaner"
	"github.com/jamesainslie/housekeep/pkg/housekeep/config"
	"github.com/jamesainslie/housekeep/pkg/housekeep/journal"
	"github.com/jamesainslie/housekeep/pkg/housekeep/output"
	"github.com/jamesainslie/housekeep/pkg/housekeep/types"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [dir]",
	Short: "Report large, old and temporary files",
	Long: `Analyze a directory tree and list files worth cleaning up:

  large      files of at least --min-size (a bare number is MB)
  old        files not accessed for --old-days days
  temporary  editor backups, caches and other scratch files

The report also shows usage of the filesystem holding the directory.
Nothing is deleted unless --clean-temp is given, and then only the
temporary files, after confirmation. Cache directories left empty by the
cleanup are removed as well.

Examples:
  housekeep clean ~
  housekeep clean ~/projects --min-size 1G --old-days 365
  housekeep clean ~/projects --clean-temp --trash`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().String("min-size", config.DefaultMinSize, "large-file threshold (e.g. 500, 500M, 1.5G; bare numbers are MB)")
	cleanCmd.Flags().Int("old-days", config.DefaultOldDays, "report files not accessed for this many days")
	cleanCmd.Flags().Int("limit", config.DefaultLimit, "rows shown per list (0 shows all)")
	cleanCmd.Flags().Bool("clean-temp", false, "delete the temporary files found")
	cleanCmd.Flags().BoolP("force", "f", false, "delete without asking for confirmation")
	cleanCmd.Flags().Bool("no-recursive", false, "only look at files directly in the directory")
	cleanCmd.Flags().Bool("trash", false, "move deleted files to the trash when available")

	bindFlag(cleanCmd, "clean.min_size", "min-size")
	bindFlag(cleanCmd, "clean.old_days", "old-days")
	bindFlag(cleanCmd, "clean.limit", "limit")

	rootCmd.AddCommand(cleanCmd)
}

// cleanOutcome is the structured output of an analysis followed by cleanup.
type cleanOutcome struct {
	Analysis *cleaner.Report      `json:"analysis" yaml:"analysis"`
	Cleaned  *cleaner.CleanResult `json:"cleaned" yaml:"cleaned"`
}

func runClean(cmd *cobra.Command, args []string) error {
	cleanTemp, _ := cmd.Flags().GetBool("clean-temp")
	force, _ := cmd.Flags().GetBool("force")
	noRecursive, _ := cmd.Flags().GetBool("no-recursive")
	useTrash, _ := cmd.Flags().GetBool("trash")

	minSize, err := types.ParseSizeMB(cfg.Clean.MinSize)
	if err != nil {
		return fmt.Errorf("invalid --min-size: %w", err)
	}

	root, err := targetDir(args, ".")
	if err != nil {
		return err
	}

	printInfo(cmd, "Analyzing %s...", root)
	report, err := cleaner.Analyze(cmd.Context(), cleaner.Options{
		Root:      root,
		Recursive: !noRecursive,
		MinSize:   minSize,
		OldDays:   cfg.Clean.OldDays,
	})
	if err != nil {
		return err
	}

	out := cleanReport(report, cfg.Clean.Limit)

	if !cleanTemp {
		return render(cmd, out)
	}
	if len(report.Temp) == 0 {
		if err := render(cmd, out); err != nil {
			return err
		}
		printInfo(cmd, "No temporary files to clean.")
		return nil
	}
	if !structured() {
		if err := render(cmd, out); err != nil {
			return err
		}
	}

	if !force {
		question := fmt.Sprintf("Delete %s (%s)?", plural(len(report.Temp), "temporary file"), types.FormatSize(cleaner.Total(report.Temp)))
		ok, err := confirm(cmd, question)
		if err != nil {
			return err
		}
		if !ok {
			printInfo(cmd, "Cancelled, nothing was deleted.")
			if structured() {
				return render(cmd, out)
			}
			return nil
		}
	}

	cleaned, err := cleaner.CleanTemp(cmd.Context(), report.Temp, cleaner.CleanOptions{Root: report.Root, Trash: useTrash})
	if cleaned != nil {
		recordJournal(cmd, journal.OpClean, report.Root, cleanRecords(cleaned))
	}
	if err != nil {
		return err
	}

	result := cleanedReport(report.Root, cleaned)
	result.Data = cleanOutcome{Analysis: report, Cleaned: cleaned}
	return render(cmd, result)
}

func cleanReport(report *cleaner.Report, limit int) *output.Report {
	r := &output.Report{Title: "Disk cleanup report", Data: report}
	r.AddField("Directory", report.Root)
	if u := report.Usage; u != nil {
		r.AddField("Filesystem", fmt.Sprintf("%s total, %s used (%.1f%%), %s free",
			types.FormatSize(int64(u.Total)),
			types.FormatSize(int64(u.Used)), u.UsedPercent(),
			types.FormatSize(int64(u.Free))))
	}

	large, more := cleaner.Head(report.Large, limit)
	s := r.AddSection(fmt.Sprintf("Large files (%s or more)", types.FormatSize(report.MinSize)), "FILE", "SIZE", "MODIFIED")
	s.Empty = "None"
	for _, f := range large {
		s.AddRow(displayPath(report.Root, f.Path), f.HumanSize(), types.FormatDate(f.ModTime))
	}
	s.Note = moreNote(more)

	old, more := cleaner.Head(report.Old, limit)
	s = r.AddSection(fmt.Sprintf("Not accessed in %d days", report.OldDays), "FILE", "SIZE", "LAST ACCESS")
	s.Empty = "None"
	for _, f := range old {
		s.AddRow(displayPath(report.Root, f.Path), f.HumanSize(), types.FormatDate(f.AccessTime))
	}
	s.Note = moreNote(more)

	temp, more := cleaner.Head(report.Temp, limit)
	s = r.AddSection("Temporary files", "FILE", "SIZE")
	s.Empty = "None"
	for _, f := range temp {
		s.AddRow(displayPath(report.Root, f.Path), f.HumanSize())
	}
	s.Note = moreNote(more)

	addErrors(r, report.Errors)

	r.AddSummary("Scanned", fmt.Sprintf("%d files, %s", report.Scanned, types.FormatSize(report.TotalBytes)))
	r.AddSummary("Large", countAndSize(len(report.Large), cleaner.Total(report.Large)))
	r.AddSummary("Old", countAndSize(len(report.Old), cleaner.Total(report.Old)))
	r.AddSummary("Temporary", countAndSize(len(report.Temp), cleaner.Total(report.Temp)))
	return r
}

func cleanedReport(root string, cleaned *cleaner.CleanResult) *output.Report {
	r := &output.Report{Title: "Temporary files removed"}
	r.AddField("Directory", root)

	s := r.AddSection("Removed", "FILE", "SIZE", "HOW")
	s.Empty = "Nothing was removed"
	for _, c := range cleaned.Removed {
		s.AddRow(displayPath(root, c.Path), types.FormatSize(c.Size), string(c.Method))
	}

	if len(cleaned.Failed) > 0 {
		failed := r.AddSection("Failed", "FILE", "ERROR")
		for _, f := range cleaned.Failed {
			failed.AddRow(displayPath(root, f.Path), f.Error)
		}
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s could not be removed", plural(len(cleaned.Failed), "file")))
	}

	r.AddSummary("Removed", strconv.Itoa(len(cleaned.Removed)))
	if len(cleaned.PrunedDirs) > 0 {
		r.AddSummary("Empty cache directories removed", strconv.Itoa(len(cleaned.PrunedDirs)))
	}
	r.AddSummary("Freed", types.FormatSize(cleaned.Freed()))
	return r
}

func cleanRecords(cleaned *cleaner.CleanResult) []journal.Record {
	var records []journal.Record
	for _, c := range cleaned.Removed {
		records = append(records, journal.Record{Path: c.Path, Size: c.Size, Action: removalAction(c.Method)})
	}
	for _, f := range cleaned.Failed {
		records = append(records, journal.Record{Path: f.Path, Action: journal.ActionFailed, Error: f.Error})
	}
	return records
}

func countAndSize(n int, size int64) string {
	return fmt.Sprintf("%d (%s)", n, types.FormatSize(size))
}
