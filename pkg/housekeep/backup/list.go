package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// archivePattern matches names produced by Create, including the _N
// suffix of a same-second collision.
var archivePattern = regexp.MustCompile(`^(.+)_(\d{8}_\d{6})(?:_(\d+))?\.(zip|tar\.gz)$`)

// Record describes an archive found in a backups folder.
type Record struct {
	Name      string    `json:"name" yaml:"name"`
	Path      string    `json:"path" yaml:"path"`
	Source    string    `json:"source" yaml:"source"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Size      int64     `json:"size" yaml:"size"`
	Format    Format    `json:"format" yaml:"format"`
}

// archiveInfo is what an archive's file name says about it.
type archiveInfo struct {
	source  string
	created time.Time
	seq     int
	format  Format
}

// parseArchiveName splits a file name produced by Create. ok is false for
// any other name.
func parseArchiveName(name string) (info archiveInfo, ok bool) {
	m := archivePattern.FindStringSubmatch(name)
	if m == nil {
		return archiveInfo{}, false
	}
	t, err := time.ParseInLocation(stampLayout, m[2], time.Local)
	if err != nil {
		return archiveInfo{}, false
	}
	seq := 0
	if m[3] != "" {
		if seq, err = strconv.Atoi(m[3]); err != nil {
			return archiveInfo{}, false
		}
	}
	return archiveInfo{source: m[1], created: t, seq: seq, format: Format(m[4])}, true
}

// List returns the archives in dest, newest first. Other files and
// subdirectories are ignored. A missing folder is an error.
func List(dest string) ([]Record, error) {
	entries, err := os.ReadDir(dest)
	if err != nil {
		return nil, fmt.Errorf("reading backups folder: %w", err)
	}

	var records []Record
	seqs := make(map[string]int)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		parsed, ok := parseArchiveName(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			logger.Warn("skipping unreadable archive", "name", e.Name(), "err", err)
			continue
		}
		records = append(records, Record{
			Name:      e.Name(),
			Path:      filepath.Join(dest, e.Name()),
			Source:    parsed.source,
			CreatedAt: parsed.created,
			Size:      info.Size(),
			Format:    parsed.format,
		})
		seqs[e.Name()] = parsed.seq
	}

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if seqs[a.Name] != seqs[b.Name] {
			return seqs[a.Name] > seqs[b.Name]
		}
		return a.Name < b.Name
	})
	return records, nil
}
