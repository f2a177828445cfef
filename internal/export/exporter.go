package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cast"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Export formats
const (
	FormatCSV     = "csv"
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// ErrUnknownFormat is returned for unsupported export formats
var ErrUnknownFormat = errors.New("unknown export format")

// Table is a set of rows with a fixed column order
type Table struct {
	Columns []models.Column
	Rows    []models.Row
}

// NewTable creates a table. Without columns, the union of the row keys is
// used, each row's new keys appended in sorted order. Excluded fields are
// dropped either way.
func NewTable(rows []models.Row, columns []models.Column, exclude ...string) *Table {
	skip := make(map[string]bool, len(exclude))
	for _, f := range exclude {
		skip[f] = true
	}

	var cols []models.Column
	if len(columns) > 0 {
		for _, c := range columns {
			if !skip[c.Field] {
				cols = append(cols, c)
			}
		}
		return &Table{Columns: cols, Rows: rows}
	}

	seen := make(map[string]bool)
	for _, row := range rows {
		var fresh []string
		for k := range row {
			if !seen[k] && !skip[k] {
				seen[k] = true
				fresh = append(fresh, k)
			}
		}
		sort.Strings(fresh)
		for _, k := range fresh {
			cols = append(cols, models.Column{Field: k})
		}
	}
	return &Table{Columns: cols, Rows: rows}
}

// Header returns the column labels
func (t *Table) Header() []string {
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Label()
	}
	return header
}

// Records returns the rows projected onto the table columns
func (t *Table) Records() []map[string]interface{} {
	records := make([]map[string]interface{}, len(t.Rows))
	for i, row := range t.Rows {
		rec := make(map[string]interface{}, len(t.Columns))
		for _, c := range t.Columns {
			rec[c.Field] = row[c.Field]
		}
		records[i] = rec
	}
	return records
}

// FormatCell renders a cell value as text
func FormatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	case map[string]interface{}, models.Row, []interface{}, []models.Row, []map[string]interface{}:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}

	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

// ExportToCSV exports a table to a CSV file
func ExportToCSV(t *Table, path string) error {
	// Create the file
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)

	// Write header
	if err := writer.Write(t.Header()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write each row
	for _, row := range t.Rows {
		record := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			record[i] = FormatCell(row[c.Field])
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV file: %w", err)
	}
	return file.Close()
}

// ExportToJSON exports a table to a JSON file
func ExportToJSON(t *Table, path string) error {
	// Marshal to JSON with pretty printing
	data, err := json.MarshalIndent(t.Records(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rows to JSON: %w", err)
	}

	// Write to file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	return nil
}

// ExportToMsgpack exports a table to a MessagePack file
func ExportToMsgpack(t *Table, path string) error {
	data, err := msgpack.Marshal(t.Records())
	if err != nil {
		return fmt.Errorf("failed to marshal rows to msgpack: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write msgpack file: %w", err)
	}

	return nil
}

// Export writes a table in one format
func Export(t *Table, format, path string) error {
	switch strings.ToLower(format) {
	case FormatCSV:
		return ExportToCSV(t, path)
	case FormatJSON:
		return ExportToJSON(t, path)
	case FormatMsgpack:
		return ExportToMsgpack(t, path)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// ExportAll writes dir/baseName.<format> for every format concurrently and
// returns the written paths in format order
func ExportAll(ctx context.Context, t *Table, dir, baseName string, formats []string) ([]string, error) {
	for _, format := range formats {
		switch strings.ToLower(format) {
		case FormatCSV, FormatJSON, FormatMsgpack:
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	paths := make([]string, len(formats))
	p := pool.New().WithContext(ctx).WithCancelOnError()
	for i, format := range formats {
		format = strings.ToLower(format)
		paths[i] = filepath.Join(dir, baseName+"."+format)
		path := paths[i]
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return Export(t, format, path)
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
