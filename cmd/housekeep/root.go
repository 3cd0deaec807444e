package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/housekeep/pkg/housekeep/config"
	"github.com/jamesainslie/housekeep/pkg/housekeep/journal"
	"github.com/jamesainslie/housekeep/pkg/housekeep/logging"
	"github.com/jamesainslie/housekeep/pkg/housekeep/output"
	"github.com/jamesainslie/housekeep/pkg/housekeep/prompt"
)

var (
	cfgFile      string
	outputFormat string
	quiet        bool
	verbose      bool

	// cfg is loaded by setup before any subcommand runs.
	cfg *config.Config

	// logOpts is the logging configuration setup initialized with.
	logOpts logging.Config

	cliLogger = logging.Get("cli")

	rootCmd = &cobra.Command{
		Use:   "housekeep",
		Short: "Everyday file and system housekeeping",
		Long: `Housekeep bundles small utilities for keeping a machine tidy.

Examples:
  housekeep organize ~/Downloads --dry-run   # Preview sorting files into folders
  housekeep dupes ~/Pictures                 # Find duplicate files
  housekeep dupes ~/Pictures --delete        # Remove duplicates, keeping the newest
  housekeep monitor -c                       # Live system health dashboard
  housekeep clean ~ --min-size 1G            # Report large, old and temporary files
  housekeep backup ~/notes ~/Backups         # Write a timestamped zip archive
  housekeep history                          # Review recorded operations`,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
	}
)

// flagBinding ties a subcommand flag to the config key it overrides.
type flagBinding struct {
	cmd  *cobra.Command
	key  string
	flag string
}

var flagBindings []flagBinding

// bindFlag makes flag on cmd override key when the user sets it.
func bindFlag(cmd *cobra.Command, key, flag string) {
	flagBindings = append(flagBindings, flagBinding{cmd: cmd, key: key, flag: flag})
}

// bindingsFor returns the config bindings for the command being run.
func bindingsFor(cmd *cobra.Command) []config.FlagBinding {
	bindings := []config.FlagBinding{{Key: "journal.enabled", Flag: cmd.Flags().Lookup("journal")}}
	for _, b := range flagBindings {
		if b.cmd == cmd {
			bindings = append(bindings, config.FlagBinding{Key: b.key, Flag: cmd.Flags().Lookup(b.flag)})
		}
	}
	return bindings
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/housekeep/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "pretty", "output format: "+strings.Join(output.Available(), ", "))
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print results and errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().Bool("journal", false, "record moves and deletions in the journal")
}

// setup validates global flags, loads the configuration and starts logging.
func setup(cmd *cobra.Command, _ []string) error {
	if _, err := output.Get(outputFormat); err != nil {
		return fmt.Errorf("--output: %w (available: %s)", err, strings.Join(output.Available(), ", "))
	}

	loaded, err := config.Load(cfgFile, bindingsFor(cmd)...)
	if err != nil {
		if !isConfigCommand(cmd) {
			return err
		}
		// The config subcommands must work on a broken file so it can be fixed.
		printError(cmd, "%v", err)
		loaded = config.Default()
	}
	cfg = loaded

	opts, err := cfg.LoggingOptions()
	if err != nil {
		return err
	}
	opts.ConsoleLevel = consoleLevel()
	opts.Console = cmd.ErrOrStderr()

	if err := logging.Init(opts); err != nil {
		fileErr := err
		opts.Path = "-"
		if err := logging.Init(opts); err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		cliLogger.Warn("log file unavailable, logging to the console only", "err", fileErr)
	}
	logOpts = opts

	cliLogger.Debug("starting", "command", cmd.CommandPath(), "config", cfg.File)
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	return logging.Close()
}

func isConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c == configCmd {
			return true
		}
	}
	return false
}

func consoleLevel() string {
	switch {
	case quiet:
		return "error"
	case verbose:
		return "debug"
	default:
		return "warn"
	}
}

// silenceConsoleLogs stops log output to the terminal, for full-screen views.
func silenceConsoleLogs() error {
	opts := logOpts
	opts.ConsoleLevel = ""
	return logging.Init(opts)
}

// structured reports whether stdout carries machine-readable output.
func structured() bool {
	return output.IsStructured(outputFormat)
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(cmd *cobra.Command, format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a progress message unless quiet or writing structured output.
func printInfo(cmd *cobra.Command, format string, args ...interface{}) {
	if !quiet && !structured() {
		fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: "+format+"\n", args...)
}

// render writes a report in the selected output format.
func render(cmd *cobra.Command, r *output.Report) error {
	return output.Write(cmd.OutOrStdout(), outputFormat, r)
}

// confirm asks a yes/no question on the command's input. No answer at all
// counts as no.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	var w io.Writer = cmd.OutOrStdout()
	if structured() {
		w = cmd.ErrOrStderr()
	}

	ok, err := prompt.Confirm(cmd.InOrStdin(), w, question)
	if errors.Is(err, prompt.ErrNoInput) {
		fmt.Fprintln(w)
		return false, nil
	}
	return ok, err
}

// recordJournal writes a journal entry when the journal is enabled. A
// journal failure is logged and never fails the operation it describes.
func recordJournal(cmd *cobra.Command, op journal.Operation, root string, records []journal.Record) {
	if !cfg.Journal.Enabled || len(records) == 0 {
		return
	}

	j, err := openJournal()
	if err != nil {
		cliLogger.Warn("journal unavailable", "err", err)
		return
	}

	entry, err := j.Record(op, root, records)
	if err != nil {
		cliLogger.Warn("could not write journal entry", "op", op, "err", err)
		return
	}
	printVerbose(cmd, "Journal entry %s written", entry.ShortID())

	if n, err := j.Cleanup(cfg.Journal.RetentionDays); err != nil {
		cliLogger.Warn("journal cleanup failed", "err", err)
	} else if n > 0 {
		printVerbose(cmd, "Removed %d expired journal entries", n)
	}
}

func openJournal() (*journal.Journal, error) {
	dir, err := cfg.JournalDir()
	if err != nil {
		return nil, err
	}
	return journal.New(dir)
}

// targetDir returns the directory argument, or fallback when none was given,
// as an absolute path with ~ expanded.
func targetDir(args []string, fallback string) (string, error) {
	dir := fallback
	if len(args) > 0 {
		dir = args[0]
	}

	expanded, err := config.ExpandPath(dir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	return abs, nil
}
