package cleaner

import (
	"strings"

	"github.com/gobwas/glob"
)

// TempPatterns are matched against a file's base name.
var TempPatterns = []string{
	"*.tmp", "*.temp", "*.cache", "*.bak", "*.old", "*~",
	"*.log", "*.pyc", "*.swp",
	"Thumbs.db", ".DS_Store", "desktop.ini", "ehthumbs.db",
}

// CacheDirs mark everything below them as temporary.
var CacheDirs = []string{
	"__pycache__", ".cache", "Cache", "caches",
	".npm", "_cacache", ".yarn-cache", ".gradle",
	".pytest_cache", ".mypy_cache", ".thumbnails",
}

var (
	tempGlob = glob.MustCompile("{" + strings.Join(TempPatterns, ",") + "}")

	cacheDirSet = func() map[string]struct{} {
		m := make(map[string]struct{}, len(CacheDirs))
		for _, d := range CacheDirs {
			m[d] = struct{}{}
		}
		return m
	}()
)

// IsTemp reports whether a file is temporary. rel is its slash-separated
// path relative to the scanned root; only directories below the root count
// as cache directories.
func IsTemp(rel string) bool {
	segments := strings.Split(rel, "/")
	name := segments[len(segments)-1]
	if tempGlob.Match(name) {
		return true
	}
	return inCacheDir(strings.Join(segments[:len(segments)-1], "/"))
}

// inCacheDir reports whether any segment of a slash-separated directory
// path is a cache directory.
func inCacheDir(dir string) bool {
	if dir == "" {
		return false
	}
	for _, seg := range strings.Split(dir, "/") {
		if _, ok := cacheDirSet[seg]; ok {
			return true
		}
	}
	return false
}
