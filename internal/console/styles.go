package console

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("62")
	colorSecondary = lipgloss.Color("241")
	colorMuted     = lipgloss.Color("240")
	colorHighlight = lipgloss.Color("212")
	colorSuccess   = lipgloss.Color("78")
)

// TitleStyle renders the screen title
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// HeaderStyle renders the table header row
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// RowStyle renders one table row
var RowStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255"))

// SkeletonStyle renders placeholder rows while the first page loads
var SkeletonStyle = lipgloss.NewStyle().
	Foreground(colorMuted)

// RefetchStyle renders the subtle indicator shown while a page is replaced
var RefetchStyle = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Italic(true)

// SearchStyle renders the search bar
var SearchStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("240")).
	Padding(0, 1)

// FacetStyle renders the active filter chips
var FacetStyle = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Background(lipgloss.Color("236")).
	Padding(0, 1).
	MarginRight(1)

// ErrorStyle renders the error banner
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true).
	Padding(0, 1)

// CurrentPageStyle marks the current page in the pagination window
var CurrentPageStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary)

// PageStyle renders the other pages of the window
var PageStyle = lipgloss.NewStyle().
	Foreground(colorSecondary)

// StatusBar renders the bottom key hints
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey renders a key inside the status bar
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText renders the description next to a key
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)
