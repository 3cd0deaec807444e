package cleaner

import "errors"

// ErrUsageUnsupported is returned by FilesystemUsage on platforms without statfs.
var ErrUsageUnsupported = errors.New("filesystem usage not supported on this platform")

// DiskUsage describes the filesystem holding a path.
type DiskUsage struct {
	Path  string `json:"path" yaml:"path"`
	Total uint64 `json:"total" yaml:"total"`
	Used  uint64 `json:"used" yaml:"used"`
	Free  uint64 `json:"free" yaml:"free"`
}

// UsedPercent returns Used as a percentage of Total.
func (u DiskUsage) UsedPercent() float64 {
	if u.Total == 0 {
		return 0
	}
	return float64(u.Used) / float64(u.Total) * 100
}

// FreePercent returns Free as a percentage of Total.
func (u DiskUsage) FreePercent() float64 {
	if u.Total == 0 {
		return 0
	}
	return float64(u.Free) / float64(u.Total) * 100
}
