//go:build !(linux || darwin || freebsd)

package cleaner

// FilesystemUsage is unavailable on this platform.
func FilesystemUsage(path string) (DiskUsage, error) {
	return DiskUsage{Path: path}, ErrUsageUnsupported
}
