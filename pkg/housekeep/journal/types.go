// Package journal keeps an optional audit trail of destructive operations:
// files moved by organize, duplicates and temporary files removed, and
// archives written by backup. Each operation is one JSON file in the
// journal directory. Nothing reads the journal back to resume work.
package journal

import "time"

// Operation names the command that produced an entry.
type Operation string

// Journaled operations.
const (
	OpOrganize Operation = "organize"
	OpDupes    Operation = "dupes"
	OpClean    Operation = "clean"
	OpBackup   Operation = "backup"
)

// Action is what happened to a single file.
type Action string

// File actions.
const (
	ActionMoved    Action = "moved"
	ActionTrashed  Action = "trashed"
	ActionDeleted  Action = "deleted"
	ActionArchived Action = "archived"
	ActionFailed   Action = "failed"
)

// Entry is one journaled operation.
type Entry struct {
	ID        string    `json:"id" yaml:"id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Operation Operation `json:"operation" yaml:"operation"`
	Root      string    `json:"root" yaml:"root"`
	Records   []Record  `json:"records" yaml:"records"`
	Summary   Summary   `json:"summary" yaml:"summary"`
}

// Record is one file touched by an operation.
type Record struct {
	Path   string `json:"path" yaml:"path"`
	Dest   string `json:"dest,omitempty" yaml:"dest,omitempty"`
	Size   int64  `json:"size" yaml:"size"`
	SHA256 string `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	Action Action `json:"action" yaml:"action"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary totals an entry's records.
type Summary struct {
	Succeeded  int64 `json:"succeeded" yaml:"succeeded"`
	Failed     int64 `json:"failed" yaml:"failed"`
	TotalBytes int64 `json:"total_bytes" yaml:"total_bytes"`
}

// ShortID is the first eight characters of the ID, enough for Get.
func (e *Entry) ShortID() string {
	if len(e.ID) > 8 {
		return e.ID[:8]
	}
	return e.ID
}
