//go:build linux || darwin || freebsd

package cleaner

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// FilesystemUsage reports total, used and free bytes of the filesystem
// containing path. Free counts only blocks available to unprivileged users.
func FilesystemUsage(path string) (DiskUsage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return DiskUsage{}, fmt.Errorf("statfs %s: %w", path, err)
	}

	bsize := uint64(st.Bsize)
	total := st.Blocks * bsize
	free := uint64(st.Bavail) * bsize
	used := total - uint64(st.Bfree)*bsize

	return DiskUsage{Path: path, Total: total, Used: used, Free: free}, nil
}
