package hierarchy

import (
	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Mode is the hierarchization mode selected by the configured keys
type Mode int

const (
	ModeNone Mode = iota
	ModeForeignKey
	ModeChildData
)

func (m Mode) String() string {
	switch m {
	case ModeForeignKey:
		return "foreign-key"
	case ModeChildData:
		return "child-data"
	default:
		return "none"
	}
}

// Keys configures how rows relate to each other
type Keys struct {
	PrimaryKey   string `mapstructure:"primary_key" yaml:"primary_key"`
	ForeignKey   string `mapstructure:"foreign_key" yaml:"foreign_key"`
	ChildDataKey string `mapstructure:"child_data_key" yaml:"child_data_key"`
}

// Mode returns the hierarchization mode. Foreign-key mode needs both the
// primary and foreign key and wins over child-data mode.
func (k Keys) Mode() Mode {
	switch {
	case k.PrimaryKey != "" && k.ForeignKey != "":
		return ModeForeignKey
	case k.ChildDataKey != "":
		return ModeChildData
	default:
		return ModeNone
	}
}

// ExpansionFunc reports whether a record is expanded. It is called after
// the record's level and children are known.
type ExpansionFunc func(rec *models.HierarchicalRecord) bool

// Result is the output of a hierarchization pass
type Result struct {
	Roots    []*models.HierarchicalRecord
	Records  map[models.RowID]*models.HierarchicalRecord
	FlatData []models.Row
}

// Hierarchize builds the record tree for data. Without usable keys the
// result is empty.
func Hierarchize(data []models.Row, keys Keys, expanded ExpansionFunc) Result {
	if expanded == nil {
		expanded = func(*models.HierarchicalRecord) bool { return false }
	}

	switch keys.Mode() {
	case ModeForeignKey:
		return hierarchizeFlatData(data, keys, expanded)
	case ModeChildData:
		res := Result{Records: make(map[models.RowID]*models.HierarchicalRecord)}
		res.Roots = hierarchizeRecursive(data, keys, nil, 0, expanded, &res)
		return res
	default:
		return Result{Records: make(map[models.RowID]*models.HierarchicalRecord)}
	}
}

func hierarchizeFlatData(data []models.Row, keys Keys, expanded ExpansionFunc) Result {
	res := Result{
		Records:  make(map[models.RowID]*models.HierarchicalRecord, len(data)),
		FlatData: make([]models.Row, 0, len(data)),
	}
	var missingParents []*models.HierarchicalRecord

	for _, row := range data {
		rec := &models.HierarchicalRecord{
			RowID: RowIDOf(row, keys.PrimaryKey),
			Data:  row,
		}

		if parent := lookupParent(res.Records, row, keys.ForeignKey); parent != nil && parent.RowID != rec.RowID {
			attach(parent, rec)
		} else {
			missingParents = append(missingParents, rec)
		}

		res.Records[rec.RowID] = rec
	}

	// Parents listed after their children
	for _, rec := range missingParents {
		parent := lookupParent(res.Records, rec.Data, keys.ForeignKey)
		if parent != nil && parent != rec && !rec.IsAncestorOf(parent) {
			attach(parent, rec)
		} else {
			res.Roots = append(res.Roots, rec)
		}
	}

	setIndentationLevels(res.Roots, 0, expanded, &res.FlatData)
	return res
}

func lookupParent(records map[models.RowID]*models.HierarchicalRecord, row models.Row, foreignKey string) *models.HierarchicalRecord {
	key := NormalizeKey(row[foreignKey])
	if key == nil {
		return nil
	}
	return records[key]
}

func attach(parent, child *models.HierarchicalRecord) {
	child.Parent = parent
	parent.Children = append(parent.Children, child)
}

func setIndentationLevels(records []*models.HierarchicalRecord, level int, expanded ExpansionFunc, flatData *[]models.Row) {
	for _, rec := range records {
		rec.Level = level
		rec.Expanded = expanded(rec)
		*flatData = append(*flatData, rec.Data)
		setIndentationLevels(rec.Children, level+1, expanded, flatData)
	}
}

func hierarchizeRecursive(data []models.Row, keys Keys, parent *models.HierarchicalRecord, level int, expanded ExpansionFunc, res *Result) []*models.HierarchicalRecord {
	records := make([]*models.HierarchicalRecord, 0, len(data))

	for _, row := range data {
		rec := &models.HierarchicalRecord{
			RowID:  RowIDOf(row, keys.PrimaryKey),
			Data:   row,
			Parent: parent,
			Level:  level,
		}
		res.FlatData = append(res.FlatData, row)
		res.Records[rec.RowID] = rec

		if children := ChildRows(row[keys.ChildDataKey]); len(children) > 0 {
			rec.Children = hierarchizeRecursive(children, keys, rec, level+1, expanded, res)
		}
		rec.Expanded = expanded(rec)

		records = append(records, rec)
	}

	return records
}

// ChildRows converts a nested child collection into rows. Elements that
// are not objects are skipped.
func ChildRows(v interface{}) []models.Row {
	switch c := v.(type) {
	case []models.Row:
		return c
	case []map[string]interface{}:
		rows := make([]models.Row, len(c))
		for i, m := range c {
			rows[i] = m
		}
		return rows
	case []interface{}:
		rows := make([]models.Row, 0, len(c))
		for _, item := range c {
			switch m := item.(type) {
			case models.Row:
				rows = append(rows, m)
			case map[string]interface{}:
				rows = append(rows, m)
			}
		}
		return rows
	default:
		return nil
	}
}
