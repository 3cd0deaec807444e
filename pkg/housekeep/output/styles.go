package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/taigrr/colorhash"
)

// Color constants using the ANSI 256-color palette.
const (
	// ColorPrimary is used for headers (bright blue).
	ColorPrimary = lipgloss.Color("39")

	// ColorSuccess is used for positive status (green).
	ColorSuccess = lipgloss.Color("42")

	// ColorWarning is used for warnings (orange).
	ColorWarning = lipgloss.Color("214")

	// ColorDanger is used for errors (red).
	ColorDanger = lipgloss.Color("196")

	// ColorMuted is used for secondary text (gray).
	ColorMuted = lipgloss.Color("245")
)

// accentPalette holds the colors KeyColor chooses from. All read well on
// dark and light backgrounds.
var accentPalette = []lipgloss.Color{
	"33", "37", "41", "99", "135", "166", "172", "203",
}

// Box styles.
var (
	// HeaderBox surrounds the report title and fields.
	HeaderBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1)

	// FooterBox surrounds the summary.
	FooterBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1).
			MarginTop(1)
)

// Text styles.
var (
	// TitleStyle is used for the report title.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SectionStyle is used for section titles.
	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1)

	// LabelStyle is used for field labels.
	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// ValueStyle is used for field values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	// SuccessStyle is used for positive status text.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// WarningStyle is used for warning text.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// ErrorStyle is used for error text.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorDanger)

	// MutedStyle is used for less important text.
	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// TableHeaderStyle is used for table column headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorMuted)
)

// KeyColor maps a key such as a content hash to a palette color. The
// same key always gets the same color.
func KeyColor(key string) lipgloss.Color {
	n := colorhash.HashString(key)
	if n < 0 {
		n = -n
	}
	return accentPalette[n%len(accentPalette)]
}
