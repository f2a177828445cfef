package components

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazygrid/internal/conditions"
	"github.com/rebeliceyang/lazygrid/internal/grid"
	"github.com/rebeliceyang/lazygrid/internal/hierarchy"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

var testColumns = []models.Column{
	{Field: "name", Header: "Name"},
	{Field: "id", DataType: conditions.DataTypeNumber},
}

func newTestGrid(t *testing.T) *grid.Grid {
	t.Helper()
	opts := grid.DefaultOptions()
	opts.ID = "test"
	opts.Keys = hierarchy.Keys{PrimaryKey: "id", ForeignKey: "parentId"}
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	g := grid.New(opts)
	g.SetData([]models.Row{
		{"id": 1, "name": "Sales"},
		{"id": 2, "parentId": 1, "name": "Alice"},
		{"id": 3, "parentId": 2, "name": "Bob"},
		{"id": 4, "parentId": 1, "name": "Carol"},
		{"id": 5, "name": "Support"},
		{"id": 6, "parentId": 5, "name": "Dave"},
	})
	if err := g.Process(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return g
}

func newTestGridView(t *testing.T) *GridView {
	t.Helper()
	gv := NewGridView(newTestGrid(t), testColumns, theme.DefaultTheme())
	gv.Width = 60
	gv.Height = 20
	return gv
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func currentName(gv *GridView) interface{} {
	rec := gv.CurrentRecord()
	if rec == nil {
		return nil
	}
	return rec.Data["name"]
}

func TestNewGridView(t *testing.T) {
	gv := NewGridView(nil, nil, theme.DefaultTheme())

	if gv.CursorIndex != 0 {
		t.Errorf("expected initial cursor index 0, got %d", gv.CursorIndex)
	}
	if gv.IndentWidth != 2 {
		t.Errorf("expected indent width 2, got %d", gv.IndentWidth)
	}
	if gv.Copy == nil {
		t.Error("expected a clipboard writer")
	}
}

func TestGridView_EmptyState(t *testing.T) {
	gv := NewGridView(nil, testColumns, theme.DefaultTheme())
	if !strings.Contains(gv.View(), "No rows") {
		t.Error("expected empty state message for nil grid")
	}

	g := grid.New(grid.Options{ID: "empty", Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err := g.Process(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gv.Grid = g
	if !strings.Contains(gv.View(), "No rows") {
		t.Error("expected empty state message for grid without rows")
	}
}

func TestGridView_RendersHierarchy(t *testing.T) {
	gv := newTestGridView(t)
	lines := strings.Split(gv.View(), "\n")

	if !strings.Contains(lines[0], "Name") || !strings.Contains(lines[0], "id") {
		t.Errorf("expected header with column labels, got %q", lines[0])
	}
	if !strings.Contains(lines[1], iconExpanded+" Sales") {
		t.Errorf("expected expanded root, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "  "+iconExpanded+" Alice") {
		t.Errorf("expected indented child, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "    "+iconLeaf+" Bob") {
		t.Errorf("expected leaf at level 2, got %q", lines[3])
	}
}

func TestGridView_NavigationUpDown(t *testing.T) {
	gv := newTestGridView(t)

	gv.Update(key("j"))
	gv.Update(key("j"))
	if currentName(gv) != "Bob" {
		t.Errorf("expected cursor on Bob, got %v", currentName(gv))
	}

	gv.Update(key("k"))
	if currentName(gv) != "Alice" {
		t.Errorf("expected cursor on Alice, got %v", currentName(gv))
	}

	gv.Update(key("k"))
	gv.Update(key("k"))
	if gv.CursorIndex != 0 {
		t.Errorf("expected cursor to stop at 0, got %d", gv.CursorIndex)
	}

	gv.Update(key("G"))
	if currentName(gv) != "Dave" {
		t.Errorf("expected cursor on last row, got %v", currentName(gv))
	}

	gv.Update(key("g"))
	if gv.CursorIndex != 0 {
		t.Errorf("expected cursor at top, got %d", gv.CursorIndex)
	}
}

func TestGridView_CollapseAndExpand(t *testing.T) {
	gv := newTestGridView(t)

	_, cmd := gv.Update(key("h"))
	if cmd == nil {
		t.Fatal("expected a command after collapsing")
	}
	msg, ok := cmd().(RowToggledMsg)
	if !ok {
		t.Fatalf("expected RowToggledMsg, got %T", cmd())
	}
	if msg.Expanded || msg.RowID != 1.0 {
		t.Errorf("expected row 1 collapsed, got %+v", msg)
	}
	if got := len(gv.Grid.Flattened()); got != 3 {
		t.Errorf("expected 3 visible rows after collapse, got %d", got)
	}
	if !strings.Contains(gv.View(), iconCollapsed+" Sales") {
		t.Error("expected collapsed icon on Sales")
	}

	gv.Update(key("l"))
	if got := len(gv.Grid.Flattened()); got != 6 {
		t.Errorf("expected 6 visible rows after expand, got %d", got)
	}
	if currentName(gv) != "Sales" {
		t.Errorf("expected cursor to stay on Sales, got %v", currentName(gv))
	}
}

func TestGridView_SpaceToggles(t *testing.T) {
	gv := newTestGridView(t)
	gv.Update(key("j"))

	gv.Update(key(" "))
	if gv.Grid.IsExpanded(2.0) {
		t.Error("expected Alice collapsed after space")
	}
	gv.Update(key(" "))
	if !gv.Grid.IsExpanded(2.0) {
		t.Error("expected Alice expanded after second space")
	}
}

func TestGridView_LeftMovesToParent(t *testing.T) {
	gv := newTestGridView(t)
	gv.SetCursorToRow(3.0)

	_, cmd := gv.Update(key("h"))
	if cmd != nil {
		t.Error("expected no command when moving to the parent")
	}
	if currentName(gv) != "Alice" {
		t.Errorf("expected cursor on parent Alice, got %v", currentName(gv))
	}
}

func TestGridView_LeafIgnoresExpand(t *testing.T) {
	gv := newTestGridView(t)
	gv.SetCursorToRow(3.0)

	if _, cmd := gv.Update(key("l")); cmd != nil {
		t.Error("expected no command when expanding a leaf")
	}
}

func TestGridView_CopyRow(t *testing.T) {
	gv := newTestGridView(t)
	var copied string
	gv.Copy = func(text string) error {
		copied = text
		return nil
	}

	_, cmd := gv.Update(key("y"))
	if cmd == nil {
		t.Fatal("expected a copy command")
	}
	msg, ok := cmd().(RowCopiedMsg)
	if !ok || msg.Err != nil {
		t.Fatalf("expected successful RowCopiedMsg, got %+v", msg)
	}

	var row map[string]interface{}
	if err := json.Unmarshal([]byte(copied), &row); err != nil {
		t.Fatalf("expected JSON on the clipboard, got %q", copied)
	}
	if row["name"] != "Sales" {
		t.Errorf("expected Sales row, got %v", row)
	}
}

func TestGridView_CopyRowError(t *testing.T) {
	gv := newTestGridView(t)
	gv.Copy = func(string) error { return errors.New("no clipboard") }

	_, cmd := gv.Update(key("y"))
	msg := cmd().(RowCopiedMsg)
	if msg.Err == nil {
		t.Error("expected copy error")
	}
}

func TestGridView_FilteredOutParents(t *testing.T) {
	gv := newTestGridView(t)

	tree := models.NewFilteringExpressionsTree(models.And, "")
	tree.Add(&models.FilteringExpression{
		FieldName:  "name",
		Condition:  conditions.NewRegistries(nil).String().Condition("contains"),
		SearchVal:  "bob",
		IgnoreCase: true,
	})
	gv.Grid.SetFilter(tree)
	if err := gv.Grid.Process(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view := gv.View()
	for _, name := range []string{"Sales", "Alice", "Bob"} {
		if !strings.Contains(view, name) {
			t.Errorf("expected %s in filtered view", name)
		}
	}
	for _, name := range []string{"Carol", "Support", "Dave"} {
		if strings.Contains(view, name) {
			t.Errorf("expected %s to be filtered out", name)
		}
	}
	if rec := gv.CurrentRecord(); rec == nil || !rec.IsFilteredOutParent {
		t.Error("expected Sales to be a filtered-out parent")
	}
}

func TestGridView_ScrollKeepsCursorVisible(t *testing.T) {
	gv := newTestGridView(t)
	gv.Height = 3 // header + 2 rows

	gv.Update(key("G"))
	view := gv.View()

	if gv.ScrollOffset != 4 {
		t.Errorf("expected scroll offset 4, got %d", gv.ScrollOffset)
	}
	if !strings.Contains(view, "Dave") || strings.Contains(view, "Sales") {
		t.Errorf("expected only the last rows in view, got %q", view)
	}
}

func TestGridView_DerivedColumns(t *testing.T) {
	gv := newTestGridView(t)
	gv.Columns = nil

	cols := gv.columns()
	var fields []string
	for _, c := range cols {
		fields = append(fields, c.Field)
	}
	if strings.Join(fields, ",") != "id,name,parentId" {
		t.Errorf("expected union of row keys, got %v", fields)
	}
}

func TestGridView_Position(t *testing.T) {
	gv := newTestGridView(t)
	gv.Update(key("j"))

	pos, total := gv.Position()
	if pos != 2 || total != 6 {
		t.Errorf("expected 2/6, got %d/%d", pos, total)
	}
}

func TestFitCell(t *testing.T) {
	if got := fitCell("ab", 4); got != "ab  " {
		t.Errorf("expected padded cell, got %q", got)
	}

	got := fitCell("日本語テキスト", 6)
	if w := runewidth.StringWidth(got); w != 6 {
		t.Errorf("expected width 6, got %d (%q)", w, got)
	}
	if !strings.HasSuffix(strings.TrimRight(got, " "), "…") {
		t.Errorf("expected ellipsis, got %q", got)
	}

	if got := fitCell("a\nb", 3); got != "a b" {
		t.Errorf("expected newlines flattened, got %q", got)
	}
}
