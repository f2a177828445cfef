package components

// GridView renders the flattened records of a grid as an indented table
// with keyboard navigation and expand/collapse.
//
// Keys:
//   - ↑↓/jk move, g/G jump, ctrl+u/ctrl+d page
//   - →/l expand, ←/h collapse or move to parent, space toggles
//   - y copies the row under the cursor as JSON
//
// Usage:
//
//	gv := components.NewGridView(g, columns, theme)
//	gv.Width, gv.Height = 120, 30
//
//	// In your Update method:
//	gv, cmd := gv.Update(msg)

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazygrid/internal/export"
	"github.com/rebeliceyang/lazygrid/internal/grid"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

const (
	iconExpanded  = "▾"
	iconCollapsed = "▸"
	iconLeaf      = " "
	columnGap     = 2
)

// GridView is the tree-grid component
type GridView struct {
	Grid         *grid.Grid
	Columns      []models.Column // Derived from the rows when empty
	CursorIndex  int
	ScrollOffset int
	Width        int
	Height       int
	MaxCellWidth int
	IndentWidth  int
	HideCursor   bool
	Theme        theme.Theme

	// Copy writes text to the clipboard
	Copy func(text string) error
}

// RowToggledMsg is sent after a row was expanded or collapsed
type RowToggledMsg struct {
	RowID    models.RowID
	Expanded bool
}

// RowCopiedMsg is sent after a copy attempt
type RowCopiedMsg struct {
	RowID models.RowID
	Err   error
}

// GridErrorMsg carries a pipeline error raised while handling a key
type GridErrorMsg struct {
	Err error
}

// NewGridView creates a grid view over g
func NewGridView(g *grid.Grid, columns []models.Column, th theme.Theme) *GridView {
	return &GridView{
		Grid:         g,
		Columns:      columns,
		Width:        80,
		Height:       20,
		MaxCellWidth: 32,
		IndentWidth:  2,
		Theme:        th,
		Copy:         clipboard.WriteAll,
	}
}

func (gv *GridView) visible() []*models.HierarchicalRecord {
	if gv.Grid == nil {
		return nil
	}
	return gv.Grid.Flattened()
}

// columns returns the configured columns, or the union of the row keys
// without the child-data key
func (gv *GridView) columns() []models.Column {
	if len(gv.Columns) > 0 {
		return gv.Columns
	}
	if gv.Grid == nil {
		return nil
	}
	var exclude []string
	if key := gv.Grid.Keys().ChildDataKey; key != "" {
		exclude = append(exclude, key)
	}
	return export.NewTable(gv.Grid.FlatData(), nil, exclude...).Columns
}

// CurrentRecord returns the record under the cursor
func (gv *GridView) CurrentRecord() *models.HierarchicalRecord {
	records := gv.visible()
	if gv.CursorIndex < 0 || gv.CursorIndex >= len(records) {
		return nil
	}
	return records[gv.CursorIndex]
}

// SetCursorToRow moves the cursor to the row with the given id
func (gv *GridView) SetCursorToRow(id models.RowID) bool {
	for i, rec := range gv.visible() {
		if rec.RowID == id {
			gv.CursorIndex = i
			return true
		}
	}
	return false
}

// Update handles keyboard input
func (gv *GridView) Update(msg tea.KeyMsg) (*GridView, tea.Cmd) {
	records := gv.visible()
	if len(records) == 0 {
		return gv, nil
	}
	gv.clampCursor(len(records))
	current := records[gv.CursorIndex]

	switch msg.String() {
	case "up", "k":
		if gv.CursorIndex > 0 {
			gv.CursorIndex--
		}

	case "down", "j":
		if gv.CursorIndex < len(records)-1 {
			gv.CursorIndex++
		}

	case "g", "home":
		gv.CursorIndex = 0
		gv.ScrollOffset = 0

	case "G", "end":
		gv.CursorIndex = len(records) - 1

	case "ctrl+u", "pgup":
		gv.CursorIndex -= gv.viewHeight()
		gv.clampCursor(len(records))

	case "ctrl+d", "pgdown":
		gv.CursorIndex += gv.viewHeight()
		gv.clampCursor(len(records))

	case "right", "l":
		if current.HasChildren() && !gv.Grid.IsExpanded(current.RowID) {
			return gv, gv.setExpansion(current, true)
		}

	case "left", "h":
		if current.HasChildren() && gv.Grid.IsExpanded(current.RowID) {
			return gv, gv.setExpansion(current, false)
		}
		if current.Parent != nil {
			gv.SetCursorToRow(current.Parent.RowID)
		}

	case " ":
		if current.HasChildren() {
			return gv, gv.setExpansion(current, !gv.Grid.IsExpanded(current.RowID))
		}

	case "y":
		return gv, gv.copyRow(current)
	}

	return gv, nil
}

// setExpansion writes the expansion state, re-flattens and keeps the
// cursor on the toggled row
func (gv *GridView) setExpansion(rec *models.HierarchicalRecord, expanded bool) tea.Cmd {
	gv.Grid.SetRowExpansion(rec.RowID, expanded)
	if err := gv.Grid.Process(); err != nil {
		return func() tea.Msg { return GridErrorMsg{Err: err} }
	}
	gv.SetCursorToRow(rec.RowID)
	id := rec.RowID
	return func() tea.Msg {
		return RowToggledMsg{RowID: id, Expanded: expanded}
	}
}

func (gv *GridView) copyRow(rec *models.HierarchicalRecord) tea.Cmd {
	data := rec.Data
	if key := gv.Grid.Keys().ChildDataKey; key != "" {
		if _, ok := data[key]; ok {
			trimmed := make(models.Row, len(data))
			for k, v := range data {
				if k != key {
					trimmed[k] = v
				}
			}
			data = trimmed
		}
	}
	id := rec.RowID
	copyFn := gv.Copy
	return func() tea.Msg {
		text, err := json.Marshal(data)
		if err != nil {
			return RowCopiedMsg{RowID: id, Err: fmt.Errorf("error encoding row: %w", err)}
		}
		if copyFn == nil {
			copyFn = clipboard.WriteAll
		}
		if err := copyFn(string(text)); err != nil {
			return RowCopiedMsg{RowID: id, Err: fmt.Errorf("error copying row: %w", err)}
		}
		return RowCopiedMsg{RowID: id}
	}
}

// View renders the header and the visible slice of rows
func (gv *GridView) View() string {
	records := gv.visible()
	cols := gv.columns()
	if len(records) == 0 || len(cols) == 0 {
		return gv.emptyState()
	}
	gv.clampCursor(len(records))

	viewHeight := gv.viewHeight()
	gv.adjustScrollOffset(len(records), viewHeight)

	widths := gv.columnWidths(records, cols)

	lines := make([]string, 0, viewHeight+1)
	lines = append(lines, gv.renderHeader(cols, widths))

	end := gv.ScrollOffset + viewHeight
	if end > len(records) {
		end = len(records)
	}
	for i := gv.ScrollOffset; i < end; i++ {
		lines = append(lines, gv.renderRow(records[i], cols, widths, !gv.HideCursor && i == gv.CursorIndex))
	}

	for len(lines) < viewHeight+1 {
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// viewHeight is the number of row lines below the header
func (gv *GridView) viewHeight() int {
	h := gv.Height - 1
	if h < 1 {
		h = 1
	}
	return h
}

func (gv *GridView) clampCursor(total int) {
	if gv.CursorIndex >= total {
		gv.CursorIndex = total - 1
	}
	if gv.CursorIndex < 0 {
		gv.CursorIndex = 0
	}
}

// prefix is the indentation and expander shown before the first cell
func (gv *GridView) prefix(rec *models.HierarchicalRecord) string {
	icon := iconLeaf
	if rec.HasChildren() {
		icon = iconCollapsed
		if gv.Grid.IsExpanded(rec.RowID) {
			icon = iconExpanded
		}
	}
	return strings.Repeat(" ", rec.Level*gv.IndentWidth) + icon + " "
}

func (gv *GridView) columnWidths(records []*models.HierarchicalRecord, cols []models.Column) []int {
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = runewidth.StringWidth(c.Label())
	}
	for _, rec := range records {
		for i, c := range cols {
			w := runewidth.StringWidth(export.FormatCell(rec.Data[c.Field]))
			if i == 0 {
				w += runewidth.StringWidth(gv.prefix(rec))
			}
			if w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		limit := gv.MaxCellWidth
		if i == 0 && limit > 0 {
			// The first column also carries the tree prefix
			limit += gv.IndentWidth * 4
		}
		if limit > 0 && widths[i] > limit {
			widths[i] = limit
		}
	}
	return widths
}

func (gv *GridView) renderHeader(cols []models.Column, widths []int) string {
	style := lipgloss.NewStyle().Foreground(gv.Theme.Header).Bold(true)
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = style.Render(fitCell(c.Label(), widths[i]))
	}
	return gv.fitLine(cells)
}

func (gv *GridView) renderRow(rec *models.HierarchicalRecord, cols []models.Column, widths []int, selected bool) string {
	cells := make([]string, len(cols))
	for i, c := range cols {
		value := rec.Data[c.Field]
		text := export.FormatCell(value)
		if i == 0 {
			text = gv.prefix(rec) + text
		}

		style := gv.cellStyle(value)
		if rec.IsFilteredOutParent {
			style = lipgloss.NewStyle().Foreground(gv.Theme.FilteredOut).Italic(true)
		}
		if selected {
			style = style.Background(gv.Theme.Selection).Bold(true)
		}
		cells[i] = style.Render(fitCell(text, widths[i]))
	}
	return gv.fitLine(cells)
}

// cellStyle colors a value by kind
func (gv *GridView) cellStyle(v interface{}) lipgloss.Style {
	style := lipgloss.NewStyle()
	switch v.(type) {
	case nil:
		return style.Foreground(gv.Theme.CellNull)
	case bool:
		return style.Foreground(gv.Theme.CellBoolean)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return style.Foreground(gv.Theme.CellNumber)
	case time.Time:
		return style.Foreground(gv.Theme.CellDate)
	case string:
		return style.Foreground(gv.Theme.CellString)
	default:
		return style.Foreground(gv.Theme.Foreground)
	}
}

// fitLine joins cells and cuts the line at the view width
func (gv *GridView) fitLine(cells []string) string {
	line := strings.Join(cells, strings.Repeat(" ", columnGap))
	if gv.Width > 0 && lipgloss.Width(line) > gv.Width {
		return lipgloss.NewStyle().MaxWidth(gv.Width).Render(line)
	}
	return line
}

// fitCell truncates or pads text to exactly width terminal cells
func fitCell(text string, width int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if runewidth.StringWidth(text) > width {
		text = runewidth.Truncate(text, width, "…")
	}
	return runewidth.FillRight(text, width)
}

// adjustScrollOffset keeps the cursor inside the viewport
func (gv *GridView) adjustScrollOffset(total, viewHeight int) {
	if gv.CursorIndex < gv.ScrollOffset {
		gv.ScrollOffset = gv.CursorIndex
	}
	if gv.CursorIndex >= gv.ScrollOffset+viewHeight {
		gv.ScrollOffset = gv.CursorIndex - viewHeight + 1
	}

	maxScroll := total - viewHeight
	if maxScroll < 0 {
		maxScroll = 0
	}
	if gv.ScrollOffset > maxScroll {
		gv.ScrollOffset = maxScroll
	}
	if gv.ScrollOffset < 0 {
		gv.ScrollOffset = 0
	}
}

func (gv *GridView) emptyState() string {
	style := lipgloss.NewStyle().
		Foreground(gv.Theme.Dim).
		Italic(true).
		Width(gv.Width).
		Align(lipgloss.Center)

	return style.Render("No rows")
}

// Position returns the 1-based cursor row and the visible row count
func (gv *GridView) Position() (int, int) {
	total := len(gv.visible())
	if total == 0 {
		return 0, 0
	}
	return gv.CursorIndex + 1, total
}
