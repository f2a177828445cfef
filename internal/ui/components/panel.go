package components

import (
	"github.com/charmbracelet/lipgloss"
)

// Panel is a bordered box with an optional title and footer line
type Panel struct {
	Title   string
	Footer  string
	Content string
	Width   int
	Height  int
	Style   lipgloss.Style
}

// InnerSize returns the space left for content inside the border
func (p *Panel) InnerSize() (int, int) {
	w := p.Width - 2
	h := p.Height - 2
	if p.Title != "" {
		h--
	}
	if p.Footer != "" {
		h--
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return w, h
}

// View renders the panel
func (p *Panel) View() string {
	if p.Width <= 0 || p.Height <= 0 {
		return ""
	}

	// Width and Height exclude the border
	style := p.Style.
		Width(p.Width - 2).
		Height(p.Height - 2).
		Border(lipgloss.RoundedBorder())

	content := p.Content
	if p.Footer != "" {
		// Pin the footer to the last line
		_, inner := p.InnerSize()
		content = lipgloss.NewStyle().Height(inner).MaxHeight(inner).Render(content) +
			"\n" + lipgloss.NewStyle().Faint(true).Render(p.Footer)
	}
	if p.Title != "" {
		titleStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
		content = titleStyle.Render(p.Title) + "\n" + content
	}

	return style.Render(content)
}
