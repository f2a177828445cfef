package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme of the grid browser
type Theme struct {
	Name string

	// Background colors
	Background lipgloss.Color
	Foreground lipgloss.Color

	// UI elements
	Border        lipgloss.Color
	BorderFocused lipgloss.Color
	Selection     lipgloss.Color
	Cursor        lipgloss.Color
	Dim           lipgloss.Color

	// Status colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// Grid colors
	Header      lipgloss.Color
	Expander    lipgloss.Color
	FilteredOut lipgloss.Color // Ancestors kept only for a matching descendant

	// Cell colors by value kind
	CellString  lipgloss.Color
	CellNumber  lipgloss.Color
	CellBoolean lipgloss.Color
	CellDate    lipgloss.Color
	CellNull    lipgloss.Color
}

// Names lists the built-in theme names
func Names() []string {
	return []string{"default", "catppuccin-mocha"}
}

// GetTheme returns a theme by name, falling back to the default theme
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha", "catppuccin":
		return CatppuccinMochaTheme()
	default:
		return DefaultTheme()
	}
}
