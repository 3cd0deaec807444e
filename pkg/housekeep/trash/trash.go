// Package trash removes files for the destructive commands, either
// permanently or by handing them to the desktop trash.
package trash

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/jamesainslie/housekeep/pkg/housekeep/logging"
)

// commandTimeout bounds each external trash command.
const commandTimeout = 30 * time.Second

// Method records how a file was removed.
type Method string

// Removal methods.
const (
	Trashed Method = "trashed"
	Deleted Method = "deleted"
)

var logger = logging.Get("trash")

// Remove deletes a single regular file. With useTrash the file goes to the
// system trash (Finder on macOS, gio or trash-put on Linux); when no trash is
// available it is deleted permanently and the returned Method says so.
// Directories are refused.
func Remove(ctx context.Context, path string, useTrash bool) (Method, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve absolute path for %q: %w", path, err)
	}

	info, err := os.Lstat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot remove %q: %w", abs, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("cannot remove %q: is a directory", abs)
	}

	if useTrash {
		err := toTrash(ctx, abs)
		if err == nil {
			return Trashed, nil
		}
		logger.Warn("trash unavailable, deleting permanently", "path", abs, "err", err)
	}

	if err := os.Remove(abs); err != nil {
		return "", fmt.Errorf("failed to delete %q: %w", abs, err)
	}
	return Deleted, nil
}

func toTrash(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, path)
		return exec.CommandContext(ctx, "osascript", "-e", script).Run()
	case "linux":
		return trashLinux(ctx, path)
	default:
		return fmt.Errorf("no trash support on %s", runtime.GOOS)
	}
}

func trashLinux(ctx context.Context, path string) error {
	candidates := [][]string{
		{"gio", "trash"},
		{"trash-put"},
	}

	lastErr := fmt.Errorf("neither gio nor trash-put found")
	for _, argv := range candidates {
		bin, err := exec.LookPath(argv[0])
		if err != nil {
			continue
		}
		args := append(argv[1:len(argv):len(argv)], path)
		if err := exec.CommandContext(ctx, bin, args...).Run(); err != nil {
			lastErr = fmt.Errorf("%s: %w", argv[0], err)
			continue
		}
		if _, err := os.Lstat(path); os.IsNotExist(err) {
			return nil
		}
		lastErr = fmt.Errorf("%s left %s in place", argv[0], path)
	}
	return lastErr
}
