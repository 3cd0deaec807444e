package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/housekeep/pkg/housekeep/output"
	"github.com/jamesainslie/housekeep/pkg/housekeep/types"
)

// maxErrorRows caps the per-file error listing in human-readable output.
const maxErrorRows = 10

// addErrors lists per-entry errors in their own section.
func addErrors(r *output.Report, errs []types.EntryError) {
	if len(errs) == 0 {
		return
	}

	s := r.AddSection("Errors", "PATH", "ERROR")
	for i, e := range errs {
		if i == maxErrorRows {
			s.Note = fmt.Sprintf("... and %d more (see the log file)", len(errs)-maxErrorRows)
			break
		}
		s.AddRow(e.Path, e.Error)
	}
	r.Warnings = append(r.Warnings, fmt.Sprintf("%d entries could not be read", len(errs)))
}

// displayPath shows path relative to root when it lies below it.
func displayPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// moreNote is the trailer for a truncated listing.
func moreNote(more int) string {
	if more == 0 {
		return ""
	}
	return fmt.Sprintf("... and %d more", more)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
