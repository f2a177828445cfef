package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/rebeliceyang/lazygrid/internal/conditions"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Filter loading errors
var (
	ErrUnknownCondition = errors.New("unknown filtering condition")
	ErrInvalidFilter    = errors.New("invalid filter definition")
)

// Spec is the serialized form of a filter tree or of one of its operands.
// Entries with a condition are expressions; all others are sub-trees.
type Spec struct {
	Operator   string      `yaml:"operator" mapstructure:"operator"`
	Field      string      `yaml:"field" mapstructure:"field"`
	Advanced   bool        `yaml:"advanced" mapstructure:"advanced"`
	Condition  string      `yaml:"condition" mapstructure:"condition"`
	Value      interface{} `yaml:"value" mapstructure:"value"`
	IgnoreCase *bool       `yaml:"ignore_case" mapstructure:"ignore_case"`
	Operands   []Spec      `yaml:"operands" mapstructure:"operands"`
}

// Loader resolves filter specs against condition registries
type Loader struct {
	registries *conditions.Registries
	types      map[string]conditions.DataType
}

// NewLoader creates a loader. Fields missing from types are strings.
func NewLoader(registries *conditions.Registries, types map[string]conditions.DataType) *Loader {
	return &Loader{registries: registries, types: types}
}

// LoadFile reads a YAML filter tree from fs
func (l *Loader) LoadFile(fs afero.Fs, path string) (*models.FilteringExpressionsTree, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read filter file: %w", err)
	}
	return l.Parse(data)
}

// Parse decodes a YAML filter tree
func (l *Loader) Parse(data []byte) (*models.FilteringExpressionsTree, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return l.Build(spec)
}

// FromMap decodes a filter tree from a generic map, e.g. a viper sub-tree
func (l *Loader) FromMap(m map[string]interface{}) (*models.FilteringExpressionsTree, error) {
	var spec Spec
	if err := mapstructure.Decode(m, &spec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return l.Build(spec)
}

// Build resolves a spec into a filter tree
func (l *Loader) Build(spec Spec) (*models.FilteringExpressionsTree, error) {
	if spec.Condition != "" {
		return nil, fmt.Errorf("%w: top level must be a tree, got condition '%s'", ErrInvalidFilter, spec.Condition)
	}
	return l.buildTree(spec, "operands")
}

func (l *Loader) buildTree(spec Spec, path string) (*models.FilteringExpressionsTree, error) {
	logic, err := ParseLogic(spec.Operator)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	tree := models.NewFilteringExpressionsTree(logic, spec.Field)
	if spec.Advanced {
		tree.Entity = models.EntityAdvanced
	}

	for i, operand := range spec.Operands {
		operandPath := fmt.Sprintf("%s[%d]", path, i)

		if operand.Condition == "" {
			sub, err := l.buildTree(operand, operandPath+".operands")
			if err != nil {
				return nil, err
			}
			tree.Add(sub)
			continue
		}

		// Expressions inherit the field of a column tree
		if operand.Field == "" {
			operand.Field = spec.Field
		}
		expr, err := l.buildExpression(operand)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", operandPath, err)
		}
		tree.Add(expr)
	}

	return tree, nil
}

func (l *Loader) buildExpression(spec Spec) (*models.FilteringExpression, error) {
	if spec.Field == "" {
		return nil, fmt.Errorf("%w: condition '%s' has no field", ErrInvalidFilter, spec.Condition)
	}

	dataType := l.dataType(spec.Field)
	op := l.registries.ForType(dataType).Condition(spec.Condition)
	if op == nil {
		return nil, fmt.Errorf("%w: '%s' for %s field '%s'", ErrUnknownCondition, spec.Condition, dataType, spec.Field)
	}

	ignoreCase := true
	if spec.IgnoreCase != nil {
		ignoreCase = *spec.IgnoreCase
	}

	expr := &models.FilteringExpression{
		FieldName:  spec.Field,
		Condition:  op,
		IgnoreCase: ignoreCase,
	}
	if !op.IsUnary {
		value, err := CoerceValue(spec.Value, dataType)
		if err != nil {
			return nil, fmt.Errorf("%w: value for '%s': %v", ErrInvalidFilter, spec.Field, err)
		}
		expr.SearchVal = value
	}

	return expr, nil
}

func (l *Loader) dataType(field string) conditions.DataType {
	if t, ok := l.types[field]; ok {
		return t
	}
	return conditions.DataTypeString
}

// ParseLogic parses "and"/"or" case-insensitively; empty means and
func ParseLogic(s string) (models.FilteringLogic, error) {
	switch strings.ToLower(s) {
	case "", "and":
		return models.And, nil
	case "or":
		return models.Or, nil
	default:
		return models.And, fmt.Errorf("%w: unknown operator '%s'", ErrInvalidFilter, s)
	}
}

// CoerceValue converts a search value to the representation the conditions
// of dataType expect. nil stays nil.
func CoerceValue(v interface{}, dataType conditions.DataType) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch dataType {
	case conditions.DataTypeNumber:
		return cast.ToFloat64E(v)
	case conditions.DataTypeBoolean:
		return cast.ToBoolE(v)
	case conditions.DataTypeDate:
		return cast.ToTimeE(v)
	default:
		return cast.ToStringE(v)
	}
}
