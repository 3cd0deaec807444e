package output

import (
	"bytes"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// PrettyFormatter formats output with colors and boxes using lipgloss,
// for display on a terminal.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Report) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")

	for _, s := range r.Sections {
		w.WriteString(f.formatSection(s))
	}

	if len(r.Summary) > 0 {
		w.WriteString(FooterBox.Render(joinFields(r.Summary, "  ")))
		w.WriteString("\n")
	}

	if len(r.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
		w.WriteString("\n")
		for _, warning := range r.Warnings {
			w.WriteString(WarningStyle.Render("  " + warning))
			w.WriteString("\n")
		}
	}
	return nil
}

func (f *PrettyFormatter) formatHeader(r *Report) string {
	lines := []string{TitleStyle.Render(r.Title)}
	for _, field := range r.Fields {
		lines = append(lines, renderField(field))
	}
	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatSection(s Section) string {
	var sb strings.Builder

	title := SectionStyle
	if s.Key != "" {
		title = title.Foreground(KeyColor(s.Key))
	}
	sb.WriteString(title.Render(s.Title))
	sb.WriteString("\n")

	if len(s.Rows) == 0 {
		if s.Empty != "" {
			sb.WriteString(MutedStyle.Render("  " + s.Empty))
			sb.WriteString("\n")
		}
		return sb.String()
	}

	widths := columnWidths(s)
	if len(s.Columns) > 0 {
		sb.WriteString("  ")
		sb.WriteString(TableHeaderStyle.Render(padRow(s.Columns, widths)))
		sb.WriteString("\n")
	}
	for _, row := range s.Rows {
		sb.WriteString("  ")
		sb.WriteString(ValueStyle.Render(padRow(row, widths)))
		sb.WriteString("\n")
	}
	if s.Note != "" {
		sb.WriteString(MutedStyle.Render("  " + s.Note))
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderField(f Field) string {
	return LabelStyle.Render(f.Label+":") + " " + ValueStyle.Render(f.Value)
}

func joinFields(fields []Field, sep string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = renderField(f)
	}
	return strings.Join(parts, sep)
}

func columnWidths(s Section) []int {
	n := len(s.Columns)
	for _, row := range s.Rows {
		n = max(n, len(row))
	}
	widths := make([]int, n)
	measure := func(cells []string) {
		for i, c := range cells {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}
	measure(s.Columns)
	for _, row := range s.Rows {
		measure(row)
	}
	return widths
}

// padRow left-aligns every cell but the last to its column width.
func padRow(cells []string, widths []int) string {
	var sb strings.Builder
	for i, c := range cells {
		sb.WriteString(c)
		if i < len(cells)-1 {
			sb.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(c)+2))
		}
	}
	return sb.String()
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
