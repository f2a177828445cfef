package theme

import "github.com/charmbracelet/lipgloss"

// DefaultTheme returns the default dark theme (ANSI 256 colors)
func DefaultTheme() Theme {
	return Theme{
		Name: "default",

		Background: lipgloss.Color("235"),
		Foreground: lipgloss.Color("252"),

		Border:        lipgloss.Color("240"),
		BorderFocused: lipgloss.Color("62"),
		Selection:     lipgloss.Color("237"),
		Cursor:        lipgloss.Color("248"),
		Dim:           lipgloss.Color("244"),

		Success: lipgloss.Color("42"),
		Warning: lipgloss.Color("220"),
		Error:   lipgloss.Color("196"),
		Info:    lipgloss.Color("75"),

		Header:      lipgloss.Color("62"),
		Expander:    lipgloss.Color("75"),
		FilteredOut: lipgloss.Color("242"),

		CellString:  lipgloss.Color("180"),
		CellNumber:  lipgloss.Color("150"),
		CellBoolean: lipgloss.Color("75"),
		CellDate:    lipgloss.Color("117"),
		CellNull:    lipgloss.Color("244"),
	}
}
