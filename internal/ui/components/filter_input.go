package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazygrid/internal/conditions"
	"github.com/rebeliceyang/lazygrid/internal/filter"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// FilterQuery is a parsed quick-filter query
type FilterQuery struct {
	Field  string // Empty means every string column
	Text   string
	Negate bool // Query started with !
}

// ParseFilterQuery parses a quick-filter query
// Examples:
//   - "alice" → {Text: "alice"}
//   - "name:ali" → {Field: "name", Text: "ali"}
//   - "!dept:sales" → {Field: "dept", Text: "sales", Negate: true}
func ParseFilterQuery(query string) FilterQuery {
	q := FilterQuery{}
	query = strings.TrimSpace(query)

	if strings.HasPrefix(query, "!") {
		q.Negate = true
		query = query[1:]
	}

	if field, text, ok := strings.Cut(query, ":"); ok && field != "" && !strings.ContainsAny(field, " \t") {
		q.Field = field
		query = text
	}

	q.Text = strings.TrimSpace(query)
	return q
}

// IsEmpty reports whether the query clears the filter
func (q FilterQuery) IsEmpty() bool {
	return q.Text == ""
}

// QuickFilterSpec turns a query into a filter spec. A field query uses
// contains on string fields, equals on number and date fields and the
// true/false conditions on boolean fields. A plain query ORs contains over
// every string column; a negated plain query ANDs doesNotContain.
func QuickFilterSpec(q FilterQuery, columns []models.Column) (filter.Spec, error) {
	if q.IsEmpty() {
		return filter.Spec{}, nil
	}

	if q.Field != "" {
		operand, err := fieldOperand(q, columnType(columns, q.Field))
		if err != nil {
			return filter.Spec{}, err
		}
		return filter.Spec{
			Operator: models.And.String(),
			Operands: []filter.Spec{{Field: q.Field, Operands: []filter.Spec{operand}}},
		}, nil
	}

	spec := filter.Spec{Operator: models.Or.String()}
	condition := "contains"
	if q.Negate {
		spec.Operator = models.And.String()
		condition = "doesNotContain"
	}
	for _, c := range columns {
		if c.DataType != "" && c.DataType != conditions.DataTypeString {
			continue
		}
		spec.Operands = append(spec.Operands, filter.Spec{
			Field:     c.Field,
			Condition: condition,
			Value:     q.Text,
		})
	}
	if len(spec.Operands) == 0 {
		return filter.Spec{}, fmt.Errorf("%w: no string columns to search", filter.ErrInvalidFilter)
	}
	return spec, nil
}

func fieldOperand(q FilterQuery, dataType conditions.DataType) (filter.Spec, error) {
	operand := filter.Spec{Field: q.Field, Value: q.Text}

	switch dataType {
	case conditions.DataTypeNumber, conditions.DataTypeDate:
		operand.Condition = "equals"
		if q.Negate {
			operand.Condition = "doesNotEqual"
		}
	case conditions.DataTypeBoolean:
		value, err := filter.CoerceValue(q.Text, conditions.DataTypeBoolean)
		if err != nil {
			return filter.Spec{}, fmt.Errorf("%w: '%s' is not a boolean", filter.ErrInvalidFilter, q.Text)
		}
		if value.(bool) != q.Negate {
			operand.Condition = "true"
		} else {
			operand.Condition = "false"
		}
		operand.Value = nil
	default:
		operand.Condition = "contains"
		if q.Negate {
			operand.Condition = "doesNotContain"
		}
	}

	return operand, nil
}

func columnType(columns []models.Column, field string) conditions.DataType {
	for _, c := range columns {
		if c.Field == field {
			return c.DataType
		}
	}
	return conditions.DataTypeString
}

// FilterInputMsg is sent when the quick filter should be applied
type FilterInputMsg struct {
	Query FilterQuery
	Raw   string
}

// CloseFilterMsg is sent when the quick filter input should be closed
type CloseFilterMsg struct{}

// FilterInput is the quick-filter input box
type FilterInput struct {
	Input   textinput.Model
	Theme   theme.Theme
	Width   int
	Visible bool
}

// NewFilterInput creates a new filter input
func NewFilterInput(th theme.Theme) *FilterInput {
	ti := textinput.New()
	ti.Placeholder = "field:text or text"
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 40

	return &FilterInput{
		Input: ti,
		Theme: th,
	}
}

// Reset clears the input
func (f *FilterInput) Reset() {
	f.Input.SetValue("")
}

// Update handles messages
func (f *FilterInput) Update(msg tea.Msg) (*FilterInput, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			raw := f.Input.Value()
			return f, func() tea.Msg {
				return FilterInputMsg{Query: ParseFilterQuery(raw), Raw: raw}
			}
		case "esc":
			return f, func() tea.Msg {
				return CloseFilterMsg{}
			}
		}
	}

	var cmd tea.Cmd
	f.Input, cmd = f.Input.Update(msg)
	return f, cmd
}

// View renders the input box
func (f *FilterInput) View() string {
	inputWidth := f.Width - 12
	if inputWidth < 20 {
		inputWidth = 20
	}
	f.Input.Width = inputWidth

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(f.Theme.BorderFocused).
		Padding(0, 1).
		Width(f.Width)

	labelStyle := lipgloss.NewStyle().
		Foreground(f.Theme.Info).
		Bold(true)

	helpStyle := lipgloss.NewStyle().
		Foreground(f.Theme.Dim).
		Italic(true)

	content := labelStyle.Render("Filter") + " " + f.Input.View()
	helpText := helpStyle.Render("Enter: apply │ Esc: close │ !: negate │ empty: clear")

	return boxStyle.Render(content + "\n" + helpText)
}
