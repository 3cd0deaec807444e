package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/housekeep/pkg/housekeep/config"
	"github.com/jamesainslie/housekeep/pkg/housekeep/journal"
	"github.com/jamesainslie/housekeep/pkg/housekeep/output"
	"github.com/jamesainslie/housekeep/pkg/housekeep/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recorded operations",
	Long: `View the journal of moves, deletions and backups.

Operations are only recorded while the journal is enabled, either with
--journal or journal.enabled in the config file.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details of a recorded operation",
	Long:  `Display every file touched by an operation. A unique ID prefix is enough.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove expired journal entries",
	Long:  `Remove journal entries older than journal.retention_days.`,
	Args:  cobra.NoArgs,
	RunE:  runHistoryClean,
}

// showLimit caps the files listed by history show in human-readable output.
const showLimit = 50

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show (0 shows all)")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	j, err := openJournal()
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}

	entries, err := j.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	r := &output.Report{Title: "History", Data: entries}
	r.AddField("Journal", j.Dir())
	if !cfg.Journal.Enabled {
		r.AddField("Recording", "off (enable with --journal or journal.enabled)")
	}

	s := r.AddSection("Operations", "ID", "WHEN", "OPERATION", "FILES", "FAILED", "SIZE", "ROOT")
	s.Empty = "No history entries found"
	for _, e := range entries {
		s.AddRow(
			e.ShortID(),
			types.FormatTime(e.Timestamp),
			string(e.Operation),
			strconv.FormatInt(e.Summary.Succeeded, 10),
			strconv.FormatInt(e.Summary.Failed, 10),
			types.FormatSize(e.Summary.TotalBytes),
			e.Root,
		)
	}
	if len(entries) > 0 {
		s.Note = "Use 'housekeep history show <id>' for details."
	}

	return render(cmd, r)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}

	entry, err := j.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	return render(cmd, entryReport(entry))
}

func entryReport(entry *journal.Entry) *output.Report {
	r := &output.Report{Title: "Operation details", Data: entry}
	r.AddField("ID", entry.ID)
	r.AddField("Timestamp", types.FormatTime(entry.Timestamp))
	r.AddField("Operation", string(entry.Operation))
	r.AddField("Root", entry.Root)

	s := r.AddSection("Files", "ACTION", "SIZE", "PATH", "DETAIL")
	s.Empty = "No files recorded"
	for i, rec := range entry.Records {
		if i == showLimit {
			s.Note = moreNote(len(entry.Records) - showLimit)
			break
		}
		detail := rec.Dest
		if rec.Error != "" {
			detail = rec.Error
		}
		s.AddRow(string(rec.Action), types.FormatSize(rec.Size), rec.Path, detail)
	}

	r.AddSummary("Succeeded", strconv.FormatInt(entry.Summary.Succeeded, 10))
	r.AddSummary("Failed", strconv.FormatInt(entry.Summary.Failed, 10))
	r.AddSummary("Total size", types.FormatSize(entry.Summary.TotalBytes))
	return r
}

func runHistoryClean(cmd *cobra.Command, _ []string) error {
	j, err := openJournal()
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}

	retentionDays := cfg.Journal.RetentionDays
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	printInfo(cmd, "Cleaning history entries older than %d days...", retentionDays)

	removed, err := j.Cleanup(retentionDays)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	r := &output.Report{Title: "History cleanup", Data: map[string]int{"removed": removed, "retention_days": retentionDays}}
	r.AddField("Journal", j.Dir())
	r.AddSummary("Removed", strconv.Itoa(removed))
	return render(cmd, r)
}
