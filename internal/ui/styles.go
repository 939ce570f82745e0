// Package ui renders search output for the terminal.
package ui

import "github.com/charmbracelet/lipgloss"

// Color palette - single lime accent over grays.
const (
	ColorLime     = "154" // Primary accent - titles, scores
	ColorLimeDim  = "106" // Dimmed lime - source labels
	ColorWhite    = "255" // Important text
	ColorGray     = "245" // Secondary text
	ColorDarkGray = "238" // Separators
	ColorRed      = "196" // Errors
	ColorYellow   = "220" // Warnings, timeouts
)

// Styles holds the render styles for result output.
type Styles struct {
	Title    lipgloss.Style
	Source   lipgloss.Style
	Score    lipgloss.Style
	URL      lipgloss.Style
	Snippet  lipgloss.Style
	Dim      lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	FacetKey lipgloss.Style
}

// DefaultStyles returns the styled palette for TTY output.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Source:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLimeDim)),
		Score:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		URL:      lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)).Underline(true),
		Snippet:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		FacetKey: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLimeDim)),
	}
}

// NoColorStyles returns an unstyled palette for plain output.
func NoColorStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle(),
		Source:   lipgloss.NewStyle(),
		Score:    lipgloss.NewStyle(),
		URL:      lipgloss.NewStyle(),
		Snippet:  lipgloss.NewStyle(),
		Dim:      lipgloss.NewStyle(),
		Warning:  lipgloss.NewStyle(),
		Error:    lipgloss.NewStyle(),
		FacetKey: lipgloss.NewStyle(),
	}
}
