package main

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/housekeep/pkg/housekeep/config"
	"github.com/jamesainslie/housekeep/pkg/housekeep/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage housekeep configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/housekeep/config.yaml (if set)
  2. ~/.config/housekeep/config.yaml

Environment variables override the file using the HOUSEKEEP_ prefix:
  HOUSEKEEP_CLEAN_MIN_SIZE=500M
  HOUSEKEEP_CLEAN_OLD_DAYS=180
  HOUSEKEEP_JOURNAL_ENABLED=true

Command-line flags override both.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration settings from all sources.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	Args: cobra.NoArgs,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a commented default configuration file if one doesn't exist.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// setting is one effective configuration value.
type setting struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

func settings(c *config.Config) []setting {
	s := []setting{
		{"clean.min_size", c.Clean.MinSize},
		{"clean.old_days", strconv.Itoa(c.Clean.OldDays)},
		{"clean.limit", strconv.Itoa(c.Clean.Limit)},
		{"backup.source", c.Backup.Source},
		{"backup.format", c.Backup.Format},
		{"backup.destination", c.Backup.Destination},
		{"backup.exclude", strings.Join(c.Backup.Exclude, ", ")},
		{"monitor.interval", c.Monitor.Interval.String()},
		{"monitor.top", strconv.Itoa(c.Monitor.Top)},
		{"organize.default_path", c.Organize.DefaultPath},
		{"journal.enabled", strconv.FormatBool(c.Journal.Enabled)},
		{"journal.path", c.Journal.Path},
		{"journal.retention_days", strconv.Itoa(c.Journal.RetentionDays)},
		{"logging.level", c.Logging.Level},
		{"logging.path", c.Logging.Path},
		{"logging.rotation.max_size", c.Logging.Rotation.MaxSize},
		{"logging.rotation.max_age", strconv.Itoa(c.Logging.Rotation.MaxAge)},
		{"logging.rotation.max_backups", strconv.Itoa(c.Logging.Rotation.MaxBackups)},
		{"logging.rotation.daily", strconv.FormatBool(c.Logging.Rotation.Daily)},
	}

	components := make([]string, 0, len(c.Logging.Components))
	for name := range c.Logging.Components {
		components = append(components, name)
	}
	sort.Strings(components)
	for _, name := range components {
		s = append(s, setting{"logging.components." + name, c.Logging.Components[name]})
	}
	return s
}

// envOverrides lists the HOUSEKEEP_ variables that are set.
func envOverrides() []string {
	var vars []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, config.EnvPrefix+"_") {
			vars = append(vars, kv)
		}
	}
	sort.Strings(vars)
	return vars
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	all := settings(cfg)

	r := &output.Report{Title: "Configuration", Data: all}
	if cfg.File != "" {
		r.AddField("Config file", cfg.File)
	} else {
		r.AddField("Config file", "(using defaults, no file found)")
	}

	s := r.AddSection("Settings", "KEY", "VALUE")
	for _, kv := range all {
		s.AddRow(kv.Key, kv.Value)
	}

	env := r.AddSection("Environment overrides")
	env.Empty = "(none)"
	for _, kv := range envOverrides() {
		env.AddRow(kv)
	}

	return render(cmd, r)
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	path, _, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose(cmd, "Opening %s with %s", path, editor)

	editorCmd := exec.CommandContext(cmd.Context(), editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path, created, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	if !created {
		printInfo(cmd, "Config file already exists: %s", path)
		printInfo(cmd, "Use 'housekeep config edit' to modify it.")
		return nil
	}

	printInfo(cmd, "Created default config file: %s", path)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	path := cfgFile
	if path == "" {
		var err error
		if path, err = config.FilePath(); err != nil {
			return err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
