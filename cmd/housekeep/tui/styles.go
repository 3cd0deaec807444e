// Package tui provides the live system health dashboard for housekeep
// monitor. It uses Charmbracelet's Bubble Tea, Lip Gloss, and Bubbles.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/housekeep/pkg/housekeep/monitor"
)

// Color palette for the TUI.
var (
	primaryColor = lipgloss.Color("#7D56F4")
	accentColor  = lipgloss.Color("#00D9FF")

	successColor = lipgloss.Color("#28A745")
	warningColor = lipgloss.Color("#FFC107")
	dangerColor  = lipgloss.Color("#DC3545")

	mutedColor  = lipgloss.Color("#666666")
	borderColor = lipgloss.Color("#333333")
)

// Box styles for containers.
var (
	// outerBoxStyle is the main container style.
	outerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	// dividerStyle creates horizontal dividers.
	dividerStyle = lipgloss.NewStyle().
			Foreground(borderColor)
)

// Text styles.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(12)

	mutedTextStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorTextStyle = lipgloss.NewStyle().
			Foreground(dangerColor)

	keyStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)
)

// levelColor is the gauge fill for a threshold level.
func levelColor(l monitor.Level) lipgloss.Color {
	switch l {
	case monitor.LevelCritical:
		return dangerColor
	case monitor.LevelWarning:
		return warningColor
	default:
		return successColor
	}
}
