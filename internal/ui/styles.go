package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the browser.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSold      = lipgloss.Color("78")  // Green
)

// Breadcrumb style for the navigation path at the top.
var Breadcrumb = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Padding(0, 1)

// SelectedItem style for the highlighted list entry.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalItem style for unselected entries.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// DetailLabel style for field names in the detail pane.
var DetailLabel = lipgloss.NewStyle().
	Foreground(colorSecondary)

// SoldMarker style for sold-transition markers.
var SoldMarker = lipgloss.NewStyle().
	Foreground(colorSold).
	Bold(true)

// ChatSender style for sender labels in the transcript.
var ChatSender = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Bold(true)

// HelpBar style for the key hints at the bottom.
var HelpBar = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(0, 1)
