package hierarchy

import (
	"fmt"
	"reflect"

	"github.com/spf13/cast"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Identity is the row ID of a row without a primary key: the address of
// its map. It stays stable for as long as the caller keeps the row.
type Identity uintptr

func (i Identity) String() string {
	return fmt.Sprintf("row@%x", uintptr(i))
}

// RowIDOf returns the row ID of a row. Rows without a primary key, or
// with a nil key value, are identified by their identity.
func RowIDOf(row models.Row, primaryKey string) models.RowID {
	if primaryKey != "" {
		if id := NormalizeKey(row[primaryKey]); id != nil {
			return id
		}
	}
	return Identity(reflect.ValueOf(row).Pointer())
}

// NormalizeKey maps key values to comparable representations so that
// 1, int64(1) and 1.0 identify the same row. Non-comparable values
// fall back to their printed form.
func NormalizeKey(v interface{}) models.RowID {
	switch k := v.(type) {
	case nil:
		return nil
	case string, bool:
		return k
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return cast.ToFloat64(k)
	}

	if reflect.TypeOf(v).Comparable() {
		return v
	}
	return fmt.Sprint(v)
}

// KeyString renders a row ID for persistence
func KeyString(id models.RowID) string {
	switch k := id.(type) {
	case nil:
		return ""
	case float64:
		return cast.ToString(k)
	default:
		return fmt.Sprint(k)
	}
}
