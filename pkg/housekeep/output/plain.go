package output

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
)

// PlainFormatter writes uncolored text with tab-aligned tables, suitable
// for scripting and piping.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Report) error {
	if r.Title != "" {
		fmt.Fprintln(w, r.Title)
	}
	writeFields(w, r.Fields)

	for _, s := range r.Sections {
		fmt.Fprintf(w, "\n%s\n", s.Title)
		if len(s.Rows) == 0 {
			if s.Empty != "" {
				fmt.Fprintf(w, "  %s\n", s.Empty)
			}
			continue
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		if len(s.Columns) > 0 {
			fmt.Fprintf(tw, "  %s\n", strings.Join(s.Columns, "\t"))
		}
		for _, row := range s.Rows {
			fmt.Fprintf(tw, "  %s\n", strings.Join(row, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if s.Note != "" {
			fmt.Fprintf(w, "  %s\n", s.Note)
		}
	}

	if len(r.Summary) > 0 {
		fmt.Fprintln(w)
		writeFields(w, r.Summary)
	}

	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	return nil
}

func writeFields(w *bytes.Buffer, fields []Field) {
	for _, f := range fields {
		fmt.Fprintf(w, "%s: %s\n", f.Label, f.Value)
	}
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
