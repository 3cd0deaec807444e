package main

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/housekeep/pkg/housekeep/backup"
	"github.com/jamesainslie/housekeep/pkg/housekeep/config"
	"github.com/jamesainslie/housekeep/pkg/housekeep/journal"
	"github.com/jamesainslie/housekeep/pkg/housekeep/output"
	"github.com/jamesainslie/housekeep/pkg/housekeep/types"
)

var backupCmd = &cobra.Command{
	Use:   "backup [source] [dest]",
	Short: "Create a compressed, timestamped backup",
	Long: `Archive a file or directory into <dest>/<name>_<YYYYMMDD_HHMMSS>.zip
(or .tar.gz) and verify the archive afterwards. Existing archives are never
overwritten; a second backup in the same second gets a _1, _2, ... suffix.

Paths with a segment matching an exclude pattern are skipped. Patterns match
as substrings or globs; __pycache__, *.pyc, *.tmp and *~ are always
excluded unless the config replaces backup.exclude.

The source defaults to backup.source (~/Documents) and the destination to
backup.destination (~/Backups). With --list, the only argument is the
backups folder and its archives are listed newest first.

Examples:
  housekeep backup ~/notes
  housekeep backup ~/projects/site /mnt/usb --format tar.gz --exclude .git,node_modules
  housekeep backup --list ~/Backups`,
	Args: cobra.MaximumNArgs(2),
	RunE: runBackup,
}

func init() {
	backupCmd.Flags().String("format", config.DefaultBackupFormat, "archive format: zip or tar.gz")
	backupCmd.Flags().StringSliceP("exclude", "e", nil, "extra exclude patterns (can be repeated or comma-separated)")
	backupCmd.Flags().Bool("list", false, "list existing backups instead of creating one")

	bindFlag(backupCmd, "backup.format", "format")

	rootCmd.AddCommand(backupCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	list, _ := cmd.Flags().GetBool("list")
	if list {
		if len(args) > 1 {
			return fmt.Errorf("--list takes at most one argument, the backups folder")
		}
		return runBackupList(cmd, args)
	}

	format, err := backup.ParseFormat(cfg.Backup.Format)
	if err != nil {
		return fmt.Errorf("invalid --format: %w", err)
	}

	extra, _ := cmd.Flags().GetStringSlice("exclude")
	exclude := append(slices.Clone(cfg.Backup.Exclude), extra...)

	source, err := targetDir(args, cfg.Backup.Source)
	if err != nil {
		return err
	}
	var destArgs []string
	if len(args) > 1 {
		destArgs = args[1:]
	}
	dest, err := targetDir(destArgs, cfg.Backup.Destination)
	if err != nil {
		return err
	}

	printInfo(cmd, "Backing up %s to %s...", source, dest)
	printVerbose(cmd, "Excluding %v", exclude)

	result, err := backup.Create(cmd.Context(), backup.Options{
		Source:  source,
		Dest:    dest,
		Format:  format,
		Exclude: exclude,
	})
	if err != nil {
		return err
	}

	action := journal.ActionArchived
	if result.Corrupt {
		action = journal.ActionFailed
	}
	recordJournal(cmd, journal.OpBackup, result.Source, []journal.Record{{
		Path:   result.Source,
		Dest:   result.Archive,
		Size:   result.ArchiveBytes,
		Action: action,
		Error:  result.VerifyError,
	}})

	return render(cmd, backupReport(result))
}

func backupReport(result *backup.Result) *output.Report {
	r := &output.Report{Title: "Backup created", Data: result}
	r.AddField("Source", result.Source)
	r.AddField("Archive", result.Archive)
	r.AddField("Format", result.Format.String())

	addErrors(r, result.Errors)

	if result.Corrupt {
		r.Title = "Backup failed verification"
		r.Warnings = append(r.Warnings, "archive verification failed: "+result.VerifyError)
	}

	r.AddSummary("Files", strconv.Itoa(result.Files))
	if result.Excluded > 0 {
		r.AddSummary("Excluded", strconv.FormatInt(result.Excluded, 10))
	}
	r.AddSummary("Original", types.FormatSize(result.OriginalBytes))
	r.AddSummary("Archive", types.FormatSize(result.ArchiveBytes))
	r.AddSummary("Saved", fmt.Sprintf("%.1f%%", result.Ratio()))
	return r
}

func runBackupList(cmd *cobra.Command, args []string) error {
	dest, err := targetDir(args, cfg.Backup.Destination)
	if err != nil {
		return err
	}

	records, err := backup.List(dest)
	if err != nil {
		return err
	}

	return render(cmd, backupListReport(dest, records))
}

func backupListReport(dest string, records []backup.Record) *output.Report {
	r := &output.Report{Title: "Backups", Data: records}
	r.AddField("Folder", dest)

	s := r.AddSection("Archives", "NAME", "SOURCE", "CREATED", "SIZE")
	s.Empty = "No backups found"

	var total int64
	for _, rec := range records {
		s.AddRow(rec.Name, rec.Source, types.FormatTime(rec.CreatedAt), types.FormatSize(rec.Size))
		total += rec.Size
	}

	r.AddSummary("Backups", strconv.Itoa(len(records)))
	r.AddSummary("Total", types.FormatSize(total))
	return r
}
