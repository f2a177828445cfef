package filter

import (
	"errors"
	"reflect"
	"testing"

	"github.com/rebeliceyang/lazygrid/internal/conditions"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

var builderTypes = map[string]conditions.DataType{
	"price":    conditions.DataTypeNumber,
	"active":   conditions.DataTypeBoolean,
	"hired_at": conditions.DataTypeDate,
}

func TestBuilder_EmptyTree(t *testing.T) {
	b := NewBuilder(Postgres, builderTypes)

	where, args, err := b.BuildWhere(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if where != "" || args != nil {
		t.Errorf("expected empty clause, got %q %v", where, args)
	}
}

func TestBuilder_Postgres(t *testing.T) {
	b := NewBuilder(Postgres, builderTypes)

	tree := models.NewFilteringExpressionsTree(models.And, "")
	tree.Add(stringExpr("name", "contains", "50%", true))
	sub := models.NewFilteringExpressionsTree(models.Or, "price")
	sub.Add(numberExpr("price", "greaterThan", 10.0))
	sub.Add(numberExpr("price", "empty", nil))
	tree.Add(sub)
	tree.Add(&models.FilteringExpression{
		FieldName: "active",
		Condition: testRegistries.Boolean().Condition("true"),
	})

	where, args, err := b.BuildWhere(tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `WHERE LOWER("name") LIKE LOWER($1) ESCAPE '\' AND ("price" > $2 OR "price" IS NULL) AND "active" IS TRUE`
	if where != expected {
		t.Errorf("expected\n%s\ngot\n%s", expected, where)
	}
	if !reflect.DeepEqual(args, []interface{}{`%50\%%`, 10.0}) {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestBuilder_SQLitePlaceholders(t *testing.T) {
	b := NewBuilder(SQLite, builderTypes)

	tree := models.NewFilteringExpressionsTree(models.Or, "")
	tree.Add(stringExpr("name", "equals", "Bob", false))
	tree.Add(numberExpr("price", "doesNotEqual", 3))

	where, args, err := b.BuildWhere(tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `WHERE "name" = ? OR ("price" IS NULL OR "price" <> ?)`
	if where != expected {
		t.Errorf("expected\n%s\ngot\n%s", expected, where)
	}
	if len(args) != 2 {
		t.Errorf("expected 2 args, got %d", len(args))
	}
}

func TestBuilder_NullConditions(t *testing.T) {
	b := NewBuilder(Postgres, builderTypes)

	tree := models.NewFilteringExpressionsTree(models.And, "")
	tree.Add(&models.FilteringExpression{FieldName: "hired_at", Condition: testRegistries.Date().Condition("notNull")})
	tree.Add(stringExpr("name", "empty", nil, false))

	where, args, err := b.BuildWhere(tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := `WHERE "hired_at" IS NOT NULL AND ("name" IS NULL OR "name" = '')`
	if where != expected {
		t.Errorf("expected\n%s\ngot\n%s", expected, where)
	}
	if len(args) != 0 {
		t.Errorf("expected no args, got %v", args)
	}
}

func TestBuilder_UnsupportedCondition(t *testing.T) {
	b := NewBuilder(Postgres, builderTypes)

	tree := models.NewFilteringExpressionsTree(models.And, "")
	tree.Add(&models.FilteringExpression{FieldName: "hired_at", Condition: testRegistries.Date().Condition("lastMonth")})

	_, _, err := b.BuildWhere(tree)
	if !errors.Is(err, ErrUnsupportedCondition) {
		t.Errorf("expected ErrUnsupportedCondition, got %v", err)
	}
}

func TestQuoteIdentifier(t *testing.T) {
	if got := QuoteIdentifier(`weird"name`); got != `"weird""name"` {
		t.Errorf("expected escaped identifier, got %s", got)
	}
}
