package app

import (
	"fmt"
	"io"

	"github.com/rebeliceyang/lazygrid/internal/ui/components"
	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// Print renders every visible row of the processed grid to w.
// A width of zero disables line truncation.
func Print(session *Session, w io.Writer, width int) error {
	cfg := session.Config

	gv := components.NewGridView(session.Grid, cfg.Columns, theme.GetTheme(cfg.UI.Theme))
	gv.Width = width
	gv.HideCursor = true
	gv.Height = len(session.Grid.Flattened()) + 1
	if cfg.UI.MaxCellWidth > 0 {
		gv.MaxCellWidth = cfg.UI.MaxCellWidth
	}
	if cfg.UI.IndentWidth > 0 {
		gv.IndentWidth = cfg.UI.IndentWidth
	}

	if _, err := fmt.Fprintln(w, gv.View()); err != nil {
		return fmt.Errorf("failed to print grid: %w", err)
	}
	return nil
}
