package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazygrid/internal/config"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/source"
	"github.com/rebeliceyang/lazygrid/internal/ui/components"
	"github.com/rebeliceyang/lazygrid/internal/ui/help"
	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// watchDebounce collapses bursts of file events into one reload
const watchDebounce = 200 * time.Millisecond

// ViewMode is the active screen
type ViewMode int

const (
	NormalMode ViewMode = iota
	HelpMode
	FilterMode
)

// App is the main application model
type App struct {
	session *Session
	theme   theme.Theme
	mode    ViewMode
	width   int
	height  int

	gridPanel   components.Panel
	gridView    *components.GridView
	filterInput *components.FilterInput

	// Error overlay
	showError    bool
	errorTitle   string
	errorMessage string

	status     string
	sortColumn int

	ctx     context.Context
	cancel  context.CancelFunc
	changes chan struct{}
}

// ErrorMsg is sent when an error occurs
type ErrorMsg struct {
	Title   string
	Message string
}

// RowsFetchedMsg is sent when the source rows were read
type RowsFetchedMsg struct {
	Rows []models.Row
	Err  error
}

// SourceChangedMsg is sent when the watched source file changed
type SourceChangedMsg struct{}

// ExportedMsg is sent when an export finished
type ExportedMsg struct {
	Paths []string
	Err   error
}

// New creates the application model over a session
func New(session *Session) *App {
	cfg := session.Config
	th := theme.GetTheme(cfg.UI.Theme)

	gv := components.NewGridView(session.Grid, cfg.Columns, th)
	if cfg.UI.MaxCellWidth > 0 {
		gv.MaxCellWidth = cfg.UI.MaxCellWidth
	}
	if cfg.UI.IndentWidth > 0 {
		gv.IndentWidth = cfg.UI.IndentWidth
	}

	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		session:     session,
		theme:       th,
		gridView:    gv,
		filterInput: components.NewFilterInput(th),
		gridPanel: components.Panel{
			Title: describeSource(cfg),
			Style: lipgloss.NewStyle().BorderForeground(th.BorderFocused),
		},
		ctx:     ctx,
		cancel:  cancel,
		changes: make(chan struct{}, 1),
	}
	a.sortColumn = a.initialSortColumn()
	return a
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.fetchRows()}
	if a.watchable() {
		a.startWatch()
		cmds = append(cmds, a.waitForChange())
	}
	return tea.Batch(cmds...)
}

func (a *App) watchable() bool {
	sc := a.session.Config.Source
	return sc.Watch && sc.Type == config.SourceFile && sc.Path != ""
}

// startWatch runs the file watcher until the app quits
func (a *App) startWatch() {
	path := a.session.Config.Source.Path
	logger := a.session.Logger
	go func() {
		err := source.Watch(a.ctx, path, watchDebounce, logger, func() {
			select {
			case a.changes <- struct{}{}:
			default:
			}
		})
		if err != nil {
			logger.Warn("source watch stopped", "path", path, "error", err)
		}
	}()
}

func (a *App) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-a.ctx.Done():
			return nil
		case <-a.changes:
			return SourceChangedMsg{}
		}
	}
}

// fetchRows reads the source off the update loop; the grid is only
// touched when RowsFetchedMsg arrives
func (a *App) fetchRows() tea.Cmd {
	return func() tea.Msg {
		rows, err := a.session.Fetch(a.ctx)
		return RowsFetchedMsg{Rows: rows, Err: err}
	}
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updatePanelDimensions()
		return a, nil

	case ErrorMsg:
		a.ShowError(msg.Title, msg.Message)
		return a, nil

	case RowsFetchedMsg:
		if msg.Err != nil {
			a.ShowError("Load failed", msg.Err.Error())
			return a, nil
		}
		var current models.RowID
		if rec := a.gridView.CurrentRecord(); rec != nil {
			current = rec.RowID
		}
		if err := a.session.Apply(a.ctx, msg.Rows); err != nil {
			a.ShowError("Pipeline failed", err.Error())
			return a, nil
		}
		if current != nil {
			a.gridView.SetCursorToRow(current)
		}
		a.status = fmt.Sprintf("Loaded %d rows", len(msg.Rows))
		return a, nil

	case SourceChangedMsg:
		a.status = "Source changed, reloading"
		return a, tea.Batch(a.fetchRows(), a.waitForChange())

	case ExportedMsg:
		if msg.Err != nil {
			a.ShowError("Export failed", msg.Err.Error())
			return a, nil
		}
		a.status = "Exported " + strings.Join(msg.Paths, ", ")
		return a, nil

	case components.RowToggledMsg:
		return a, nil

	case components.RowCopiedMsg:
		if msg.Err != nil {
			a.ShowError("Copy failed", msg.Err.Error())
			return a, nil
		}
		a.status = "Row copied"
		return a, nil

	case components.GridErrorMsg:
		a.ShowError("Pipeline failed", msg.Err.Error())
		return a, nil

	case components.FilterInputMsg:
		a.mode = NormalMode
		a.applyQuickFilter(msg.Query, msg.Raw)
		return a, nil

	case components.CloseFilterMsg:
		a.mode = NormalMode
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	if a.mode == FilterMode {
		var cmd tea.Cmd
		a.filterInput, cmd = a.filterInput.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if a.showError {
		if key == "esc" || key == "enter" {
			a.DismissError()
			return a, nil
		}
		if key == "q" || key == "ctrl+c" {
			return a, a.quit()
		}
		return a, nil
	}

	if a.mode == FilterMode {
		if key == "ctrl+c" {
			return a, a.quit()
		}
		var cmd tea.Cmd
		a.filterInput, cmd = a.filterInput.Update(msg)
		return a, cmd
	}

	switch key {
	case "q", "ctrl+c":
		if a.mode == HelpMode {
			a.mode = NormalMode
			return a, nil
		}
		return a, a.quit()

	case "?":
		if a.mode == HelpMode {
			a.mode = NormalMode
		} else {
			a.mode = HelpMode
		}
		return a, nil

	case "esc":
		a.mode = NormalMode
		return a, nil
	}

	if a.mode == HelpMode {
		return a, nil
	}

	switch key {
	case "/":
		a.mode = FilterMode
		a.filterInput.Input.Focus()
		return a, nil

	case "c":
		a.filterInput.Reset()
		a.applyQuickFilter(components.FilterQuery{}, "")
		return a, nil

	case "s":
		a.cycleSort()
		return a, nil

	case ">":
		a.moveSortColumn(1)
		return a, nil

	case "<":
		a.moveSortColumn(-1)
		return a, nil

	case "E":
		a.session.Grid.ExpandAll()
		return a, a.process()

	case "C":
		a.session.Grid.CollapseAll()
		return a, a.process()

	case "r", "f5":
		a.status = "Reloading"
		return a, a.fetchRows()

	case "e":
		return a, a.exportRows()
	}

	var cmd tea.Cmd
	a.gridView, cmd = a.gridView.Update(msg)
	return a, cmd
}

// quit saves the expansion state and stops the watcher
func (a *App) quit() tea.Cmd {
	if err := a.session.Save(a.ctx); err != nil {
		a.session.Logger.Warn("failed to save expansion state", "error", err)
	}
	a.cancel()
	return tea.Quit
}

func (a *App) process() tea.Cmd {
	if err := a.session.Grid.Process(); err != nil {
		return func() tea.Msg { return ErrorMsg{Title: "Pipeline failed", Message: err.Error()} }
	}
	return nil
}

func (a *App) applyQuickFilter(q components.FilterQuery, raw string) {
	spec, err := components.QuickFilterSpec(q, a.gridColumns())
	if err != nil {
		a.ShowError("Invalid filter", err.Error())
		return
	}
	if err := a.session.ApplyQuickFilter(spec); err != nil {
		a.ShowError("Invalid filter", err.Error())
		return
	}
	a.gridView.CursorIndex = 0
	a.gridView.ScrollOffset = 0
	if q.IsEmpty() {
		a.status = "Filter cleared"
	} else {
		a.status = "Filter: " + raw
	}
}

func (a *App) gridColumns() []models.Column {
	return a.session.Columns()
}

func (a *App) initialSortColumn() int {
	sorting := a.session.Grid.Sorting()
	if len(sorting) == 0 {
		return 0
	}
	for i, c := range a.session.Config.Columns {
		if c.Field == sorting[0].FieldName {
			return i
		}
	}
	return 0
}

// cycleSort steps the sort column through none, asc and desc
func (a *App) cycleSort() {
	cols := a.gridColumns()
	if len(cols) == 0 {
		return
	}
	if a.sortColumn >= len(cols) {
		a.sortColumn = 0
	}
	field := cols[a.sortColumn].Field

	dir := models.SortAsc
	if current := a.session.Grid.Sorting(); len(current) == 1 && current[0].FieldName == field {
		switch current[0].Dir {
		case models.SortAsc:
			dir = models.SortDesc
		case models.SortDesc:
			dir = models.SortNone
		}
	}

	if dir == models.SortNone {
		a.session.Grid.SetSorting(nil)
		a.status = "Sort cleared"
	} else {
		a.session.Grid.SetSorting([]models.SortingExpression{{FieldName: field, Dir: dir, IgnoreCase: true}})
		a.status = fmt.Sprintf("Sort: %s %s", cols[a.sortColumn].Label(), dir)
	}
	if err := a.session.Grid.Process(); err != nil {
		a.ShowError("Pipeline failed", err.Error())
	}
}

func (a *App) moveSortColumn(delta int) {
	cols := a.gridColumns()
	if len(cols) == 0 {
		return
	}
	a.sortColumn = (a.sortColumn + delta + len(cols)) % len(cols)
	a.status = "Sort column: " + cols[a.sortColumn].Label()
}

// exportRows snapshots the processed rows and writes them off the update loop
func (a *App) exportRows() tea.Cmd {
	table := a.session.table()
	a.status = "Exporting"
	return func() tea.Msg {
		paths, err := a.session.exportTable(a.ctx, table, "")
		return ExportedMsg{Paths: paths, Err: err}
	}
}

// View implements tea.Model
func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	if a.showError {
		return lipgloss.Place(
			a.width, a.height,
			lipgloss.Center, lipgloss.Center,
			a.renderError(),
		)
	}

	if a.mode == HelpMode {
		return help.Render(a.width, a.height, a.theme)
	}

	return a.renderNormalView()
}

func (a *App) renderNormalView() string {
	grid := a.session.Grid

	topBarRight := fmt.Sprintf("%d rows", len(grid.Records()))
	if !models.Empty(grid.Filter()) || !models.Empty(grid.AdvancedFilter()) {
		topBarRight = fmt.Sprintf("%d/%d rows", len(grid.FilteredData()), len(grid.Records()))
	}
	topBar := lipgloss.NewStyle().
		Width(a.width).
		Background(a.theme.BorderFocused).
		Foreground(lipgloss.Color("230")).
		Padding(0, 2).
		Render(a.formatStatusBar("lazygrid", topBarRight))

	bottomLeft := a.status
	if bottomLeft == "" {
		bottomLeft = "[/] Filter | [s] Sort | [?] Help | [q] Quit"
	}
	pos, total := a.gridView.Position()
	bottomBar := lipgloss.NewStyle().
		Width(a.width).
		Background(a.theme.Selection).
		Foreground(a.theme.Foreground).
		Padding(0, 2).
		Render(a.formatStatusBar(bottomLeft, fmt.Sprintf("%d/%d", pos, total)))

	a.updatePanelDimensions()
	a.gridPanel.Footer = a.sortFooter()
	a.gridPanel.Content = a.gridView.View()

	parts := []string{topBar, a.gridPanel.View()}
	if a.mode == FilterMode {
		a.filterInput.Width = a.width - 2
		parts = append(parts, a.filterInput.View())
	}
	parts = append(parts, bottomBar)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) sortFooter() string {
	sorting := a.session.Grid.Sorting()
	var active []string
	for _, s := range sorting {
		if s.Dir != models.SortNone {
			active = append(active, s.FieldName+" "+s.Dir.String())
		}
	}
	if len(active) == 0 {
		return ""
	}
	return "sorted by " + strings.Join(active, ", ")
}

// updatePanelDimensions sizes the grid panel to the window
func (a *App) updatePanelDimensions() {
	if a.width <= 0 || a.height <= 0 {
		return
	}

	// Top bar and bottom bar take one line each, the filter box four
	contentHeight := a.height - 2
	if a.mode == FilterMode {
		contentHeight -= 4
	}
	if contentHeight < 5 {
		contentHeight = 5
	}

	a.gridPanel.Width = a.width
	a.gridPanel.Height = contentHeight
	a.gridPanel.Footer = a.sortFooter()
	a.gridView.Width, a.gridView.Height = a.gridPanel.InnerSize()
}

// formatStatusBar lays out left and right aligned content
func (a *App) formatStatusBar(left, right string) string {
	// Account for padding (2 chars on each side)
	availableWidth := a.width - 4
	if availableWidth < 0 {
		availableWidth = 0
	}

	leftLen := runewidth.StringWidth(left)
	rightLen := runewidth.StringWidth(right)

	if leftLen+rightLen > availableWidth {
		if availableWidth > rightLen {
			return runewidth.Truncate(left, availableWidth-rightLen, "…") + right
		}
		return runewidth.Truncate(left, availableWidth, "…")
	}

	return left + strings.Repeat(" ", availableWidth-leftLen-rightLen) + right
}

func (a *App) renderError() string {
	width := a.width / 2
	if width < 40 {
		width = 40
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(a.theme.Error).Render(a.errorTitle)
	hint := lipgloss.NewStyle().Faint(true).Render("Esc/Enter to dismiss")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(a.theme.Error).
		Padding(1, 2).
		Width(width).
		Render(title + "\n\n" + a.errorMessage + "\n\n" + hint)
}

// ShowError displays the error overlay
func (a *App) ShowError(title, message string) {
	a.showError = true
	a.errorTitle = title
	a.errorMessage = message
	a.session.Logger.Error(title, "error", message)
}

// DismissError hides the error overlay
func (a *App) DismissError() {
	a.showError = false
	a.errorTitle = ""
	a.errorMessage = ""
}

func describeSource(cfg *config.Config) string {
	sc := cfg.Source
	switch sc.Type {
	case config.SourcePostgres:
		target := sc.Table
		if target == "" {
			target = "query"
		}
		return fmt.Sprintf("postgres://%s:%d/%s %s", sc.Host, sc.Port, sc.Database, target)
	case config.SourceSQLite:
		if sc.Table != "" {
			return sc.Path + " " + sc.Table
		}
		return sc.Path + " query"
	default:
		return sc.Path
	}
}

// Run loads the session and runs the TUI until the user quits
func Run(session *Session, opts ...tea.ProgramOption) error {
	a := New(session)
	defer a.cancel()

	p := tea.NewProgram(a, opts...)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
