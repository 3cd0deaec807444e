package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/housekeep/pkg/housekeep/backup"
	"github.com/jamesainslie/housekeep/pkg/housekeep/config"
	"github.com/jamesainslie/housekeep/pkg/housekeep/dupes"
	"github.com/jamesainslie/housekeep/pkg/housekeep/journal"
	"github.com/jamesainslie/housekeep/pkg/housekeep/monitor"
	"github.com/jamesainslie/housekeep/pkg/housekeep/organizer"
	"github.com/jamesainslie/housekeep/pkg/housekeep/types"
)

func TestOrganizeDryRunThenApply(t *testing.T) {
	testEnv(t)
	dir := t.TempDir()
	for _, name := range []string{"a.jpg", "b.txt", "c.mp3"} {
		writeFile(t, filepath.Join(dir, name), name)
	}

	stdout, _, err := run(t, "", "organize", dir, "--dry-run", "-o", "plain")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Organize (dry run)")
	assert.Contains(t, stdout, filepath.Join("Images", "a.jpg"))
	assert.Contains(t, stdout, filepath.Join("Documents", "b.txt"))
	assert.Contains(t, stdout, filepath.Join("Audio", "c.mp3"))
	assert.FileExists(t, filepath.Join(dir, "a.jpg"), "dry run must not move files")

	stdout, _, err = run(t, "", "organize", dir, "-o", "json")
	require.NoError(t, err)

	var result organizer.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.False(t, result.DryRun)
	assert.Len(t, result.Moved, 3)
	assert.FileExists(t, filepath.Join(dir, "Images", "a.jpg"))
	assert.FileExists(t, filepath.Join(dir, "Documents", "b.txt"))
	assert.FileExists(t, filepath.Join(dir, "Audio", "c.mp3"))
}

func TestOrganizeJournal(t *testing.T) {
	testEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.jpg"), "img")

	_, _, err := run(t, "", "organize", dir, "--journal", "-o", "json")
	require.NoError(t, err)

	stdout, _, err := run(t, "", "history", "-o", "json")
	require.NoError(t, err)

	var entries []journal.Entry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, journal.OpOrganize, entries[0].Operation)
	require.Len(t, entries[0].Records, 1)
	assert.Equal(t, journal.ActionMoved, entries[0].Records[0].Action)

	stdout, _, err = run(t, "", "history", "show", entries[0].ShortID(), "-o", "plain")
	require.NoError(t, err)
	assert.Contains(t, stdout, filepath.Join(dir, "a.jpg"))
}

func TestOrganizeWithoutJournalRecordsNothing(t *testing.T) {
	testEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.jpg"), "img")

	_, _, err := run(t, "", "organize", dir, "-o", "json")
	require.NoError(t, err)

	stdout, _, err := run(t, "", "history", "-o", "json")
	require.NoError(t, err)

	var entries []journal.Entry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	assert.Empty(t, entries)
}

func TestDupesFindsGroup(t *testing.T) {
	testEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "x.txt"), "same content")
	writeFile(t, filepath.Join(dir, "y.txt"), "same content")
	writeFile(t, filepath.Join(dir, "z.txt"), "other content")

	stdout, _, err := run(t, "", "dupes", dir, "-o", "json")
	require.NoError(t, err)

	var result dupes.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	require.Len(t, result.Groups, 1)
	assert.Len(t, result.Groups[0].Files, 2)
	assert.Equal(t, int64(3), result.FilesScanned)
}

func TestDupesInvalidMinSize(t *testing.T) {
	testEnv(t)

	_, _, err := run(t, "", "dupes", t.TempDir(), "--min-size", "lots")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--min-size")
}

func TestDupesDeleteKeepsNewest(t *testing.T) {
	testEnv(t)
	dir := t.TempDir()
	older := filepath.Join(dir, "older.txt")
	newer := filepath.Join(dir, "newer.txt")
	writeFile(t, older, "duplicate")
	writeFile(t, newer, "duplicate")
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	stdout, _, err := run(t, "", "dupes", dir, "--delete", "--force", "--journal", "-o", "json")
	require.NoError(t, err)

	var outcome dupesOutcome
	require.NoError(t, json.Unmarshal([]byte(stdout), &outcome))
	require.NotNil(t, outcome.Delete)
	assert.Equal(t, []string{newer}, outcome.Delete.Kept)
	require.Len(t, outcome.Delete.Removed, 1)
	assert.Equal(t, older, outcome.Delete.Removed[0].Path)

	assert.FileExists(t, newer)
	assert.NoFileExists(t, older)

	stdout, _, err = run(t, "", "history", "-o", "json")
	require.NoError(t, err)
	var entries []journal.Entry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, journal.OpDupes, entries[0].Operation)
	assert.Equal(t, outcome.Scan.Groups[0].Hash, entries[0].Records[0].SHA256)
}

func TestDupesDeleteDeclined(t *testing.T) {
	testEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "twin")
	writeFile(t, filepath.Join(dir, "b.txt"), "twin")

	stdout, _, err := run(t, "n\n", "dupes", dir, "--delete", "-o", "plain")
	require.NoError(t, err)
	assert.Contains(t, stdout, "(yes/no)")
	assert.Contains(t, stdout, "Cancelled")
	assert.FileExists(t, filepath.Join(dir, "a.txt"))
	assert.FileExists(t, filepath.Join(dir, "b.txt"))
}

func TestDupesDeleteNoInputIsNo(t *testing.T) {
	testEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "twin")
	writeFile(t, filepath.Join(dir, "b.txt"), "twin")

	_, _, err := run(t, "", "dupes", dir, "--delete", "-o", "plain")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "a.txt"))
	assert.FileExists(t, filepath.Join(dir, "b.txt"))
}

func TestCleanReport(t *testing.T) {
	testEnv(t)
	dir := t.TempDir()
	big := filepath.Join(dir, "big.bin")
	writeFile(t, big, string(make([]byte, 4096)))
	writeFile(t, filepath.Join(dir, "notes.txt"), "small")
	writeFile(t, filepath.Join(dir, "draft.tmp"), "scratch")

	stdout, _, err := run(t, "", "clean", dir, "--min-size", "2K", "-o", "json")
	require.NoError(t, err)

	var report struct {
		Large []struct{ Path string } `json:"large"`
		Temp  []struct{ Path string } `json:"temp"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	require.Len(t, report.Large, 1)
	assert.Equal(t, big, report.Large[0].Path)
	require.Len(t, report.Temp, 1)
	assert.Equal(t, filepath.Join(dir, "draft.tmp"), report.Temp[0].Path)
}

func TestCleanLimitAddsMoreNote(t *testing.T) {
	testEnv(t)
	dir := t.TempDir()
	for _, name := range []string{"a.tmp", "b.tmp", "c.tmp"} {
		writeFile(t, filepath.Join(dir, name), name)
	}

	stdout, _, err := run(t, "", "clean", dir, "--limit", "1", "-o", "plain")
	require.NoError(t, err)
	assert.Contains(t, stdout, "... and 2 more")
	assert.Contains(t, stdout, "Temporary: 3")
}

func TestCleanTempForce(t *testing.T) {
	testEnv(t)
	dir := t.TempDir()
	tmp := filepath.Join(dir, "draft.tmp")
	keep := filepath.Join(dir, "notes.txt")
	writeFile(t, tmp, "scratch")
	writeFile(t, keep, "keep me")

	stdout, _, err := run(t, "", "clean", dir, "--clean-temp", "--force", "-o", "json")
	require.NoError(t, err)

	var outcome cleanOutcome
	require.NoError(t, json.Unmarshal([]byte(stdout), &outcome))
	require.NotNil(t, outcome.Cleaned)
	require.Len(t, outcome.Cleaned.Removed, 1)
	assert.Equal(t, tmp, outcome.Cleaned.Removed[0].Path)

	assert.NoFileExists(t, tmp)
	assert.FileExists(t, keep)
}

func TestCleanTempRemovesEmptiedCacheDirs(t *testing.T) {
	testEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app", "__pycache__", "mod.cpython-312.pyc"), "bytecode")
	writeFile(t, filepath.Join(dir, "app", "main.py"), "print()")

	stdout, _, err := run(t, "", "clean", dir, "--clean-temp", "--force", "-o", "json")
	require.NoError(t, err)

	var outcome cleanOutcome
	require.NoError(t, json.Unmarshal([]byte(stdout), &outcome))
	require.NotNil(t, outcome.Cleaned)
	assert.Equal(t, []string{filepath.Join(dir, "app", "__pycache__")}, outcome.Cleaned.PrunedDirs)

	assert.NoDirExists(t, filepath.Join(dir, "app", "__pycache__"))
	assert.FileExists(t, filepath.Join(dir, "app", "main.py"))
}

func TestCleanRejectsNegativeThresholds(t *testing.T) {
	testEnv(t)
	dir := t.TempDir()
	tmp := filepath.Join(dir, "draft.tmp")
	writeFile(t, tmp, "scratch")

	_, _, err := run(t, "", "clean", dir, "--old-days", "-1", "--clean-temp", "--force")
	require.Error(t, err)

	_, _, err = run(t, "", "clean", dir, "--min-size", "-5", "--clean-temp", "--force")
	require.Error(t, err)

	assert.FileExists(t, tmp)
}

func TestBackupCreateAndList(t *testing.T) {
	testEnv(t)
	src := filepath.Join(t.TempDir(), "project")
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "main.go"), "package main")
	writeFile(t, filepath.Join(src, "docs", "readme.md"), "# readme")
	writeFile(t, filepath.Join(src, ".git", "HEAD"), "ref: main")

	stdout, _, err := run(t, "", "backup", src, dest, "--exclude", ".git", "--format", "tar.gz", "-o", "json")
	require.NoError(t, err)

	var result backup.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, 2, result.Files)
	assert.Equal(t, backup.TarGz, result.Format)
	assert.False(t, result.Corrupt)
	assert.FileExists(t, result.Archive)

	stdout, _, err = run(t, "", "backup", "--list", dest, "-o", "json")
	require.NoError(t, err)

	var records []backup.Record
	require.NoError(t, json.Unmarshal([]byte(stdout), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "project", records[0].Source)
	assert.Equal(t, result.Archive, records[0].Path)
}

func TestBackupTwiceInOneSecond(t *testing.T) {
	testEnv(t)
	src := filepath.Join(t.TempDir(), "notes")
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "a")

	var archives []string
	for i := 0; i < 2; i++ {
		stdout, _, err := run(t, "", "backup", src, dest, "-o", "json")
		require.NoError(t, err)
		var result backup.Result
		require.NoError(t, json.Unmarshal([]byte(stdout), &result))
		archives = append(archives, result.Archive)
	}
	assert.NotEqual(t, archives[0], archives[1])
	for _, a := range archives {
		assert.FileExists(t, a)
	}

	stdout, _, err := run(t, "", "backup", "--list", dest, "-o", "json")
	require.NoError(t, err)
	var records []backup.Record
	require.NoError(t, json.Unmarshal([]byte(stdout), &records))
	assert.Len(t, records, 2)
}

func TestBackupRejectsUnknownFormat(t *testing.T) {
	testEnv(t)
	dest := filepath.Join(t.TempDir(), "out")

	_, _, err := run(t, "", "backup", t.TempDir(), dest, "--format", "rar")
	require.Error(t, err)
	assert.NoDirExists(t, dest)
}

func TestBackupListMissingFolder(t *testing.T) {
	testEnv(t)

	_, _, err := run(t, "", "backup", "--list", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestConfigPath(t *testing.T) {
	dir := testEnv(t)

	stdout, _, err := run(t, "", "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config", "housekeep", "config.yaml")+"\n", stdout)

	custom := filepath.Join(dir, "custom.yaml")
	stdout, stderr, err := run(t, "", "config", "path", "--config", custom)
	require.NoError(t, err, "a missing config file must not block config commands")
	assert.Equal(t, custom+"\n", stdout)
	assert.Contains(t, stderr, "Error:")
}

func TestConfigInitAndShow(t *testing.T) {
	dir := testEnv(t)

	stdout, _, err := run(t, "", "config", "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Created default config file")
	assert.FileExists(t, filepath.Join(dir, "config", "housekeep", "config.yaml"))

	stdout, _, err = run(t, "", "config", "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "already exists")

	stdout, _, err = run(t, "", "config", "show", "-o", "json")
	require.NoError(t, err)

	var all []setting
	require.NoError(t, json.Unmarshal([]byte(stdout), &all))
	values := make(map[string]string)
	for _, s := range all {
		values[s.Key] = s.Value
	}
	assert.Equal(t, "100", values["clean.min_size"])
	assert.Equal(t, "zip", values["backup.format"])
	assert.Equal(t, filepath.Join(dir, "state", "journal"), values["journal.path"])
}

func TestMonitorIntervalFlag(t *testing.T) {
	testEnv(t)

	tests := []struct {
		arg  string
		want time.Duration
	}{
		{arg: "10", want: 10 * time.Second},
		{arg: "2.5", want: 2500 * time.Millisecond},
		{arg: "1m", want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			resetFlags(rootCmd)
			require.NoError(t, monitorCmd.ParseFlags([]string{"-i", tt.arg}))

			loaded, err := config.Load("", bindingsFor(monitorCmd)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, loaded.Monitor.Interval)
		})
	}

	resetFlags(rootCmd)
	err := monitorCmd.ParseFlags([]string{"-i", "fast"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), types.ErrInvalidDuration.Error())
}

func TestSnapshotReport(t *testing.T) {
	snap := &monitor.Snapshot{
		Time:   time.Now(),
		CPU:    &monitor.CPUStats{Percent: 97, Logical: 8},
		Memory: &monitor.MemoryStats{Total: 1 << 30, Used: 1 << 29, Percent: 50},
		Swap:   &monitor.SwapStats{Total: 1 << 30, Used: 600 << 20, Percent: 58.6},
		Disks:  []monitor.DiskStats{{Mountpoint: "/", Percent: 10}},
		TopCPU: []monitor.ProcessStats{{PID: 7, Name: "busy", CPUPercent: 90}},
		Errors: []string{"battery: no access"},
	}

	r := snapshotReport(snap)

	require.NotEmpty(t, r.Sections)
	usage := r.Sections[0]
	require.Len(t, usage.Rows, 4)
	assert.Equal(t, []string{"cpu", "-", "8 cores", "97.0%", "critical"}, usage.Rows[0])
	assert.Equal(t, "warning", usage.Rows[2][4])

	assert.Contains(t, r.Warnings, "CRITICAL: high cpu usage (97.0%)")
	assert.Contains(t, r.Warnings, "WARNING: high swap usage (58.6%)")
	assert.Contains(t, r.Warnings, "unavailable: battery: no access")
	assert.Same(t, snap, r.Data)
}
