package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// File formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

// FileLoader reads rows from a JSON, YAML or CSV file. JSON and YAML files
// hold a list of objects; CSV files have a header row and empty cells are nil.
type FileLoader struct {
	Fs     afero.Fs
	Path   string
	Format string // Detected from the extension when empty
}

// NewFileLoader creates a loader on the OS filesystem
func NewFileLoader(path, format string) *FileLoader {
	return &FileLoader{Fs: afero.NewOsFs(), Path: path, Format: format}
}

// DetectFormat returns the format implied by a file extension
func DetectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load reads and decodes the file
func (l *FileLoader) Load(ctx context.Context) ([]models.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format := strings.ToLower(l.Format)
	if format == "" {
		var err error
		if format, err = DetectFormat(l.Path); err != nil {
			return nil, err
		}
	}

	data, err := afero.ReadFile(l.Fs, l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", l.Path, err)
	}

	var rows []models.Row
	switch format {
	case FormatJSON:
		rows, err = decodeJSON(data)
	case FormatYAML:
		rows, err = decodeYAML(data)
	case FormatCSV:
		rows, err = decodeCSV(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", l.Path, err)
	}
	return rows, nil
}

func decodeJSON(data []byte) ([]models.Row, error) {
	var rows []models.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func decodeYAML(data []byte) ([]models.Row, error) {
	var rows []models.Row
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func decodeCSV(data []byte) ([]models.Row, error) {
	r := csv.NewReader(bytes.NewReader(data))

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rows []models.Row
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		row := make(models.Row, len(header))
		for i, name := range header {
			if i < len(record) && record[i] != "" {
				row[name] = record[i]
			} else {
				row[name] = nil
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
